// Package aggregate folds per-architecture classifications over revisions in
// version order, producing per-revision totals, extractor agreement,
// configurability marks and the potential-miss diagnostics.
package aggregate

import (
	"context"
	"time"

	"github.com/huangsam/kmetrics/core/classify"
	"github.com/huangsam/kmetrics/internal/artifact"
	"github.com/huangsam/kmetrics/schema"
	"github.com/sirupsen/logrus"
)

// progressEvery is how many revisions pass between progress log lines.
const progressEvery = 10

// Inputs are the revision-level tables shared by every model of a run.
type Inputs struct {
	Configs         []schema.ConfigRecord
	ConfigTypes     []schema.ConfigTypeRecord
	RevisionDates   map[string]time.Time
	MinFeatureCount int
}

// Stats counts what a run classified.
type Stats struct {
	Revisions  int
	Models     int
	Classified int
	NoDIMACS   int
}

// Aggregator drives the classifier over every extracted model.
type Aggregator struct {
	reader *artifact.Reader
	log    logrus.FieldLogger
	in     Inputs

	configsByRevision map[string]classify.Set
	typesByRevision   map[string]classify.TypeIndex
	stats             Stats
}

// New creates an Aggregator reading per-model artifacts from reader.
func New(reader *artifact.Reader, in Inputs, log logrus.FieldLogger) *Aggregator {
	a := &Aggregator{
		reader:            reader,
		log:               log,
		in:                in,
		configsByRevision: make(map[string]classify.Set),
		typesByRevision:   make(map[string]classify.TypeIndex),
	}
	for _, c := range in.Configs {
		if a.configsByRevision[c.Revision] == nil {
			a.configsByRevision[c.Revision] = classify.Set{}
		}
		a.configsByRevision[c.Revision][c.Config] = struct{}{}
	}
	for _, t := range in.ConfigTypes {
		if a.typesByRevision[t.Revision] == nil {
			a.typesByRevision[t.Revision] = classify.TypeIndex{}
		}
		a.typesByRevision[t.Revision].Add(t.Config, t.Type)
	}
	return a
}

// Stats returns the counters of the last Run.
func (a *Aggregator) Stats() Stats {
	return a.stats
}

// runState is the run-wide state threaded through every revision.
type runState struct {
	bundle          schema.Bundle
	agreement       *AgreementCollector
	configurability *Configurability
	grepMisses      classify.Set
	modelMisses     classify.Set
}

// Run classifies every model of each extractor and returns the bundle.
// Each extractor is folded over its own revisions with a fresh FoldState.
func (a *Aggregator) Run(ctx context.Context, extractors []schema.Extractor) (schema.Bundle, error) {
	a.stats = Stats{}
	rs := &runState{
		agreement:       NewAgreementCollector(),
		configurability: NewConfigurability(a.in.Configs),
		grepMisses:      classify.Set{},
		modelMisses:     classify.Set{},
	}

	for _, ext := range extractors {
		if err := a.runExtractor(ctx, ext, rs); err != nil {
			return schema.Bundle{}, err
		}
	}

	rs.bundle.ExtractorComparison = rs.agreement.Compare()
	rs.bundle.PotentialMissesGrep = classify.Sorted(rs.grepMisses)
	rs.bundle.PotentialMissesModel = classify.Sorted(rs.modelMisses)
	rs.bundle.Configurability = rs.configurability.Records()
	return rs.bundle, nil
}

func (a *Aggregator) runExtractor(ctx context.Context, ext schema.Extractor, rs *runState) error {
	models, err := a.reader.DiscoverModels(ext)
	if err != nil {
		return err
	}
	revisions := make([]string, 0, len(models))
	for rev := range models {
		revisions = append(revisions, rev)
	}
	revisions = SortRevisions(revisions, a.log)

	log := a.log.WithField("extractor", ext)
	log.WithField("revisions", len(revisions)).Info("Classifying models")

	state := NewFoldState()
	var lastDate time.Time
	for i, rev := range revisions {
		if err := ctx.Err(); err != nil {
			return err
		}
		date := a.in.RevisionDates[rev]
		if !date.IsZero() && date.Before(lastDate) {
			log.WithFields(logrus.Fields{"revision": rev, "date": date, "previous": lastDate}).
				Warn("Revision is older than its predecessor, feature deltas may be wrong")
		}
		if !date.IsZero() {
			lastDate = date
		}

		state = a.foldRevision(ext, rev, date, models[rev], state, rs)
		a.stats.Revisions++
		if (i+1)%progressEvery == 0 {
			log.WithField("revision", rev).Infof("Classified %d/%d revisions", i+1, len(revisions))
		}
	}
	return nil
}

// foldRevision classifies all architectures of one revision and returns the next state.
func (a *Aggregator) foldRevision(ext schema.Extractor, rev string, date time.Time, archs []string, state FoldState, rs *runState) FoldState {
	configFeatures := a.configsByRevision[rev]
	if configFeatures == nil {
		configFeatures = classify.Set{}
	}

	first := len(rs.bundle.Descriptors)
	total := classify.Set{}
	totalFeatureVariables := classify.Set{}
	current := make(map[string]classify.Set, len(archs))

	for _, arch := range archs {
		key := schema.VariantKey{Extractor: ext, Revision: rev, Architecture: arch}
		res := a.classifyModel(key, date, configFeatures, state.Previous(arch))
		rs.bundle.Descriptors = append(rs.bundle.Descriptors, res.Descriptor)
		if res.Classified {
			rs.agreement.Record(key, res.Features)
		}
		classify.AddAll(total, res.Features)
		current[arch] = res.Features
		if ext == schema.KClause {
			classify.AddAll(totalFeatureVariables, res.FeatureVariablesAll)
			classify.AddAll(rs.grepMisses, res.GrepMissCandidates)
		}
	}

	// Revision totals go on every descriptor of the revision
	totalCount := schema.CountOf(total, a.minimum())
	added, removed, ok := state.TotalDelta(total)
	for i := first; i < len(rs.bundle.Descriptors); i++ {
		d := &rs.bundle.Descriptors[i]
		d.TotalFeatures = totalCount
		d.TotalAddedFeatures = schema.CountOfOptional(added, ok, classify.DeltaMinimum)
		d.TotalRemovedFeatures = schema.CountOfOptional(removed, ok, classify.DeltaMinimum)
	}

	rs.configurability.Mark(rev, total)
	if ext == schema.KClause {
		classify.AddAll(rs.modelMisses, classify.Difference(configFeatures, totalFeatureVariables))
	}
	return state.Advance(current, total)
}

// classifyModel loads the artifacts of one model and classifies it.
func (a *Aggregator) classifyModel(key schema.VariantKey, date time.Time, configFeatures, previous classify.Set) classify.Result {
	log := a.log.WithFields(logrus.Fields{
		"extractor":    key.Extractor,
		"revision":     key.Revision,
		"architecture": key.Architecture,
	})

	// Unreadable artifacts are treated as missing so one model never aborts the batch
	extracted, ok, err := a.reader.ExtractedFeatures(key)
	if err != nil {
		log.WithError(err).Warn("Failed to read extracted features, treating them as missing")
		extracted, ok = map[string]struct{}{}, false
	}
	if !ok {
		log.Debug("Extracted features vanished")
	}
	unconstrained, err := a.reader.UnconstrainedFeatures(key)
	if err != nil {
		log.WithError(err).Warn("Failed to read unconstrained features, treating them as missing")
		unconstrained = map[string]struct{}{}
	}
	files, err := a.reader.ReadModel(key)
	if err != nil {
		log.WithError(err).Warn("Failed to read model, treating it as missing")
		files = artifact.ModelFiles{}
	}

	res := classify.Classify(classify.Input{
		Key:            key,
		CommitterDate:  date,
		ConfigFeatures: configFeatures,
		ConfigTypes:    a.typesByRevision[key.Revision],
		Extracted:      extracted,
		Unconstrained:  unconstrained,
		Model: classify.Model{
			DIMACS:    files.DIMACS,
			HasDIMACS: files.HasDIMACS,
			Backbone:  files.Backbone,
		},
		Previous:        previous,
		MinFeatureCount: a.minimum(),
	})

	a.stats.Models++
	switch {
	case !files.HasDIMACS:
		a.stats.NoDIMACS++
		log.Debug("No DIMACS model, leaving classification empty")
	case !res.Classified:
		log.Debug("DIMACS model has no feature variables")
	default:
		a.stats.Classified++
	}
	return res
}

func (a *Aggregator) minimum() int {
	if a.in.MinFeatureCount < 1 {
		return classify.DefaultMinimum
	}
	return a.in.MinFeatureCount
}
