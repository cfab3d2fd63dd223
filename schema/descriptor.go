package schema

import "time"

// FeatureDescriptor summarizes the classified variables of one extracted model.
// Counts below their reporting threshold are Suppressed; counts with no input are NotComputed.
type FeatureDescriptor struct {
	VariantKey
	CommitterDate time.Time `json:"committer_date"`

	ConfigFeatures                Count `json:"config_features"`
	ExtractedFeatures             Count `json:"extracted_features"`
	UnconstrainedFeatureVariables Count `json:"unconstrained_feature_variables"`
	AllVariables                  Count `json:"all_variables"`
	Variables                     Count `json:"variables"`
	FeatureVariables              Count `json:"feature_variables"`
	CoreFeatureVariables          Count `json:"core_feature_variables"`
	DeadFeatureVariables          Count `json:"dead_feature_variables"`
	ConstrainedFeatureVariables   Count `json:"constrained_feature_variables"`
	UndeadFeatureVariables        Count `json:"undead_feature_variables"`
	AllFeatureVariables           Count `json:"all_feature_variables"`
	CombinedFeatureVariables      Count `json:"ALL_feature_variables"`
	Features                      Count `json:"features"`
	CoreFeatures                  Count `json:"core_features"`
	UnconstrainedFeatures         Count `json:"unconstrained_features"`
	ConstrainedFeatures           Count `json:"constrained_features"`
	AddedFeatures                 Count `json:"added_features"`
	RemovedFeatures               Count `json:"removed_features"`

	TotalFeatures        Count `json:"total_features"`
	TotalAddedFeatures   Count `json:"total_added_features"`
	TotalRemovedFeatures Count `json:"total_removed_features"`

	// Similarity of each variable set to the reconciled feature set.
	ExtractedFeaturesJaccard      *float64 `json:"extracted_features_jaccard"`
	AllVariablesJaccard           *float64 `json:"all_variables_jaccard"`
	VariablesJaccard              *float64 `json:"variables_jaccard"`
	FeatureVariablesJaccard       *float64 `json:"feature_variables_jaccard"`
	UndeadFeatureVariablesJaccard *float64 `json:"undead_feature_variables_jaccard"`
	AllFeatureVariablesJaccard    *float64 `json:"all_feature_variables_jaccard"`
	FeaturesJaccard               *float64 `json:"features_jaccard"`

	UnconstrainedBools     Count `json:"unconstrained_bools"`
	UnconstrainedTristates Count `json:"unconstrained_tristates"`
}

// ExtractorComparison is the agreement of both extractors on one (revision, architecture).
// Jaccard is nil when only one extractor classified the model.
type ExtractorComparison struct {
	Revision     string   `json:"revision"`
	Architecture string   `json:"architecture"`
	Jaccard      *float64 `json:"extractor_jaccard"`
}

// ConfigRecord is one declared config symbol of a revision.
type ConfigRecord struct {
	Revision    string `json:"revision"`
	Config      string `json:"config"`
	KconfigFile string `json:"kconfig-file"`
}

// ConfigTypeRecord is a config symbol with its declared type.
type ConfigTypeRecord struct {
	ConfigRecord
	Type ConfigType `json:"type"`
}

// ConfigurableRecord marks whether any extractor found a declared config as a feature.
type ConfigurableRecord struct {
	ConfigRecord
	Configurable bool `json:"configurable"`
}

// PotentialMiss is a diagnostic row joining a missed symbol with its declaration.
type PotentialMiss struct {
	Config      string     `json:"config"`
	KconfigFile string     `json:"kconfig-file"`
	Type        ConfigType `json:"type"`
}

// Bundle is the reusable result of the classification pass.
type Bundle struct {
	Descriptors          []FeatureDescriptor   `json:"descriptors"`
	ExtractorComparison  []ExtractorComparison `json:"extractor_comparison"`
	PotentialMissesGrep  []string              `json:"potential_misses_grep"`
	PotentialMissesModel []string              `json:"potential_misses_kclause"`
	Configurability      []ConfigurableRecord  `json:"configurability"`
}
