package schema

import "time"

// RunRecord represents a row from the kmetrics_runs table.
type RunRecord struct {
	RunID          int64
	StartTime      time.Time
	EndTime        *time.Time
	RunDurationMs  *int32
	TotalVariants  int32
	CachedFeatures bool
	ConfigParams   *string
}

// DescriptorRecord represents a row from the kmetrics_feature_descriptors table.
type DescriptorRecord struct {
	RunID                  int64
	Extractor              string
	Revision               string
	Architecture           string
	CommitterDate          time.Time
	ExtractedFeatures      *int32
	FeatureVariables       *int32
	Features               *int32
	CoreFeatures           *int32
	UnconstrainedFeatures  *int32
	ConstrainedFeatures    *int32
	AddedFeatures          *int32
	RemovedFeatures        *int32
	TotalFeatures          *int32
	UnconstrainedBools     *int32
	UnconstrainedTristates *int32
	ExtractedJaccard       *float64
}

// ModelCountRow represents a row from the kmetrics_model_counts table.
// Big integers are stored as decimal strings.
type ModelCountRow struct {
	RunID              int64
	Extractor          string
	Revision           string
	Architecture       string
	Backend            string
	CommitterDate      time.Time
	ModelCount         *string
	Unconstrained      *string
	UnconstrainedLog10 *float64
	Similarity         *float64
	TimeNanos          *int64
}
