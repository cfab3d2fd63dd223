package artifact

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/huangsam/kmetrics/schema"
	"github.com/sirupsen/logrus"
)

// Column names shared by the stage tables.
const (
	RevisionColumn      = "revision"
	ArchitectureColumn  = "architecture"
	ExtractorColumn     = "extractor"
	ConfigColumn        = "config"
	KconfigFileColumn   = "kconfig-file"
	TypeColumn          = "type"
	SourceLinesColumn   = "source_lines_of_code"
	BackendColumn       = "backbone.dimacs-analyzer"
	BackendTimeColumn   = "backbone.dimacs-analyzer-time"
	ModelCountColumn    = "model-count"
	ConfigTypesFileName = "output.types"
)

// Architectures reads the architectures stage.
func (r *Reader) Architectures() ([]schema.ArchitectureRecord, error) {
	t, err := r.ReadStage(schema.ArchitecturesStage, "")
	if err != nil {
		return nil, err
	}
	if err := t.Require(RevisionColumn, ArchitectureColumn); err != nil {
		return nil, err
	}
	out := make([]schema.ArchitectureRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, schema.ArchitectureRecord{
			Revision:      row.Get(RevisionColumn),
			Architecture:  row.Get(ArchitectureColumn),
			CommitterDate: row.CommitterDate,
		})
	}
	return out, nil
}

// Configs reads the declared config symbols, dropping those declared in an
// excluded Kconfig path.
func (r *Reader) Configs(excluded []string) ([]schema.ConfigRecord, error) {
	t, err := r.ReadStage(schema.ConfigsStage, "")
	if err != nil {
		return nil, err
	}
	if err := t.Require(RevisionColumn, ConfigColumn, KconfigFileColumn); err != nil {
		return nil, err
	}
	out := make([]schema.ConfigRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := configRecordOf(row)
		if contract.ContainsAny(rec.KconfigFile, excluded) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// ConfigTypes reads the declared types of config symbols, with the same exclusion as Configs.
func (r *Reader) ConfigTypes(excluded []string) ([]schema.ConfigTypeRecord, error) {
	t, err := r.ReadStage(schema.ConfigsStage, ConfigTypesFileName)
	if err != nil {
		return nil, err
	}
	if err := t.Require(RevisionColumn, ConfigColumn, KconfigFileColumn, TypeColumn); err != nil {
		return nil, err
	}
	out := make([]schema.ConfigTypeRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := configRecordOf(row)
		if contract.ContainsAny(rec.KconfigFile, excluded) {
			continue
		}
		out = append(out, schema.ConfigTypeRecord{
			ConfigRecord: rec,
			Type:         schema.ConfigType(strings.TrimSpace(row.Get(TypeColumn))),
		})
	}
	return out, nil
}

// Kconfig reads the kconfig stage with its source-lines-of-code column.
func (r *Reader) Kconfig() ([]schema.KconfigRecord, error) {
	t, err := r.ReadStage(schema.KconfigStage, "")
	if err != nil {
		return nil, err
	}
	if err := t.Require(RevisionColumn, ArchitectureColumn, ExtractorColumn); err != nil {
		return nil, err
	}
	out := make([]schema.KconfigRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, schema.KconfigRecord{
			VariantKey:        variantKeyOf(row),
			CommitterDate:     row.CommitterDate,
			SourceLinesOfCode: parseOptionalFloat(row.Get(SourceLinesColumn)),
		})
	}
	return out, nil
}

// SolveRecords reads the raw model counts of the primary solve run.
func (r *Reader) SolveRecords() ([]schema.SolveRecord, error) {
	t, err := r.ReadStage(schema.SolveStage, "")
	if err != nil {
		return nil, err
	}
	return r.solveRecordsOf(t, nil)
}

// RerunRecords reads the optional extended-timeout solve table. The rerun table
// carries no dates of its own, so rows take the committer date of their revision
// from dates. It returns ok=false when the file is absent.
func (r *Reader) RerunRecords(name string, dates map[string]time.Time) ([]schema.SolveRecord, bool, error) {
	if name == "" {
		return nil, false, nil
	}
	t, err := r.ReadOptionalTable(name)
	if err != nil {
		return nil, false, err
	}
	if t == nil {
		return nil, false, nil
	}
	recs, err := r.solveRecordsOf(t, dates)
	if err != nil {
		return nil, false, err
	}
	return recs, true, nil
}

func (r *Reader) solveRecordsOf(t *Table, dates map[string]time.Time) ([]schema.SolveRecord, error) {
	if err := t.Require(RevisionColumn, ArchitectureColumn, ExtractorColumn, BackendColumn, ModelCountColumn); err != nil {
		return nil, err
	}
	out := make([]schema.SolveRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := schema.SolveRecord{
			VariantKey:    variantKeyOf(row),
			Backend:       row.Get(BackendColumn),
			CommitterDate: row.CommitterDate,
			RawCount:      strings.TrimSpace(row.Get(ModelCountColumn)),
			TimeNanos:     parseOptionalInt(row.Get(BackendTimeColumn)),
		}
		if rec.CommitterDate.IsZero() && dates != nil {
			rec.CommitterDate = dates[rec.Revision]
		}
		if rec.CommitterDate.IsZero() {
			r.log.WithFields(logrus.Fields{"path": t.Path, "variant": rec.VariantKey.String()}).Debug("Solve row without committer date")
		}
		out = append(out, rec)
	}
	return out, nil
}

// RevisionDates maps each revision to the committer date found in records.
func RevisionDates(records []schema.ArchitectureRecord) map[string]time.Time {
	out := make(map[string]time.Time)
	for _, rec := range records {
		if _, ok := out[rec.Revision]; !ok && !rec.CommitterDate.IsZero() {
			out[rec.Revision] = rec.CommitterDate
		}
	}
	return out
}

func configRecordOf(row Row) schema.ConfigRecord {
	return schema.ConfigRecord{
		Revision:    row.Get(RevisionColumn),
		Config:      strings.TrimSpace(row.Get(ConfigColumn)),
		KconfigFile: row.Get(KconfigFileColumn),
	}
}

func variantKeyOf(row Row) schema.VariantKey {
	return schema.VariantKey{
		Extractor:    schema.Extractor(row.Get(ExtractorColumn)),
		Revision:     row.Get(RevisionColumn),
		Architecture: row.Get(ArchitectureColumn),
	}
}

func parseOptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	return &v
}

// parseOptionalInt accepts integral and float-formatted integers ("1.5e9").
func parseOptionalInt(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	v := int64(f)
	return &v
}
