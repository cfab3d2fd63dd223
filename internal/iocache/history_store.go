package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/huangsam/kmetrics/schema"
)

// Table names for run tracking.
const (
	runsTable        = "kmetrics_runs"
	descriptorsTable = "kmetrics_feature_descriptors"
	modelCountsTable = "kmetrics_model_counts"
)

// historyTables lists the history tables in creation order.
var historyTables = []string{runsTable, descriptorsTable, modelCountsTable}

var descriptorColumns = []string{
	"run_id", "extractor", "revision", "architecture", "committer_date",
	"extracted_features", "feature_variables", "features", "core_features",
	"unconstrained_features", "constrained_features", "added_features", "removed_features",
	"total_features", "unconstrained_bools", "unconstrained_tristates", "extracted_jaccard",
}

var modelCountColumns = []string{
	"run_id", "extractor", "revision", "architecture", "backend", "committer_date",
	"model_count", "unconstrained", "unconstrained_log10", "similarity", "time_ns",
}

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDatabase(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// createHistoryTables applies the idempotent up migrations of the backend.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	statements, err := upStatements(backend)
	if err != nil {
		return err
	}
	for i, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", i+1, err)
		}
	}
	return nil
}

func (hs *HistoryStoreImpl) disabled() bool {
	return hs.backend == schema.NoneBackend || hs.db == nil
}

func (hs *HistoryStoreImpl) table(name string) string {
	return quoteTableName(name, hs.backend)
}

// BeginRun creates a new run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	if hs.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES ($1, $2) RETURNING run_id`, hs.table(runsTable))
		err = hs.db.QueryRow(query, startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES (?, ?)`, hs.table(runsTable))
		var result sql.Result
		result, err = hs.db.Exec(query, formatTime(startTime, hs.backend), string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, totalVariants int, cachedFeatures bool) error {
	if hs.disabled() {
		return nil
	}

	start := timeColumn{backend: hs.backend}
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, hs.table(runsTable), placeholders(hs.backend, 1))
	if err := hs.db.QueryRow(query, runID).Scan(start.dest()); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	startTime, err := start.value()
	if err != nil {
		return err
	}
	var durationMs int64
	if startTime != nil {
		durationMs = endTime.Sub(*startTime).Milliseconds()
	}

	var updateQuery string
	if hs.backend == schema.PostgreSQLBackend {
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, total_variants = $3, cached_features = $4 WHERE run_id = $5`, hs.table(runsTable))
	} else {
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_variants = ?, cached_features = ? WHERE run_id = ?`, hs.table(runsTable))
	}
	if _, err := hs.db.Exec(updateQuery, formatTime(endTime, hs.backend), durationMs, totalVariants, cachedFeatures, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// insertQuery builds an INSERT statement for the columns.
func (hs *HistoryStoreImpl) insertQuery(table string, columns []string) string {
	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		hs.table(table), strings.Join(columns, ", "), placeholders(hs.backend, len(columns)))
}

// insertAll runs one prepared INSERT per row inside a transaction.
func (hs *HistoryStoreImpl) insertAll(table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := hs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(hs.insertQuery(table, columns))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	defer func() { _ = stmt.Close() }()

	for _, args := range rows {
		if _, err := stmt.Exec(args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return nil
}

// RecordDescriptors stores the headline counts of every descriptor of a run.
func (hs *HistoryStoreImpl) RecordDescriptors(runID int64, descriptors []schema.FeatureDescriptor) error {
	if hs.disabled() {
		return nil
	}
	rows := make([][]any, 0, len(descriptors))
	for _, d := range descriptors {
		rows = append(rows, []any{
			runID, string(d.Extractor), d.Revision, d.Architecture, formatTime(d.CommitterDate, hs.backend),
			countValue(d.ExtractedFeatures), countValue(d.FeatureVariables), countValue(d.Features),
			countValue(d.CoreFeatures), countValue(d.UnconstrainedFeatures), countValue(d.ConstrainedFeatures),
			countValue(d.AddedFeatures), countValue(d.RemovedFeatures), countValue(d.TotalFeatures),
			countValue(d.UnconstrainedBools), countValue(d.UnconstrainedTristates), d.ExtractedFeaturesJaccard,
		})
	}
	return hs.insertAll(descriptorsTable, descriptorColumns, rows)
}

// RecordModelCounts stores normalized model counts. Big integers are stored as decimal text.
func (hs *HistoryStoreImpl) RecordModelCounts(runID int64, records []schema.ModelCountRecord) error {
	if hs.disabled() {
		return nil
	}
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		var raw, unconstrained *string
		if r.Raw != nil {
			s := r.Raw.String()
			raw = &s
		}
		if r.Unconstrained != nil {
			s := r.Unconstrained.String()
			unconstrained = &s
		}
		rows = append(rows, []any{
			runID, string(r.Extractor), r.Revision, r.Architecture, r.Backend, formatTime(r.CommitterDate, hs.backend),
			raw, unconstrained, r.UnconstrainedLog10, r.Similarity, r.TimeNanos,
		})
	}
	return hs.insertAll(modelCountsTable, modelCountColumns, rows)
}

// countValue stores measured counts and NULL for anything else.
func countValue(c schema.Count) *int32 {
	n, ok := c.Value()
	if !ok {
		return nil
	}
	v := int32(n)
	return &v
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.disabled() {
		return status, nil
	}

	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", hs.table(runsTable))).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		last := timeColumn{backend: hs.backend}
		lastRunQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", hs.table(runsTable))
		if err := hs.db.QueryRow(lastRunQuery).Scan(&status.LastRunID, last.dest()); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		lastTime, err := last.value()
		if err != nil {
			return status, err
		}
		if lastTime != nil {
			status.LastRunTime = *lastTime
		}

		oldest := timeColumn{backend: hs.backend}
		oldestRunQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", hs.table(runsTable))
		if err := hs.db.QueryRow(oldestRunQuery).Scan(oldest.dest()); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		oldestTime, err := oldest.value()
		if err != nil {
			return status, err
		}
		if oldestTime != nil {
			status.OldestRunTime = *oldestTime
		}
	}

	for _, table := range historyTables {
		var count int64
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", hs.table(table))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalDescriptors = int(status.TableSizes[descriptorsTable])

	return status, nil
}

// GetAllRuns retrieves all runs from the store.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT run_id, start_time, end_time, run_duration_ms, total_variants, cached_features, config_params FROM %s ORDER BY run_id", hs.table(runsTable))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		start := timeColumn{backend: hs.backend}
		end := timeColumn{backend: hs.backend}
		if err := rows.Scan(&record.RunID, start.dest(), end.dest(), &record.RunDurationMs,
			&record.TotalVariants, &record.CachedFeatures, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		startTime, err := start.value()
		if err != nil {
			return nil, err
		}
		if startTime != nil {
			record.StartTime = *startTime
		}
		if record.EndTime, err = end.value(); err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllDescriptors retrieves all recorded descriptors.
func (hs *HistoryStoreImpl) GetAllDescriptors() ([]schema.DescriptorRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY run_id, extractor, revision, architecture",
		strings.Join(descriptorColumns, ", "), hs.table(descriptorsTable))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query descriptors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.DescriptorRecord
	for rows.Next() {
		var r schema.DescriptorRecord
		date := timeColumn{backend: hs.backend}
		if err := rows.Scan(&r.RunID, &r.Extractor, &r.Revision, &r.Architecture, date.dest(),
			&r.ExtractedFeatures, &r.FeatureVariables, &r.Features, &r.CoreFeatures,
			&r.UnconstrainedFeatures, &r.ConstrainedFeatures, &r.AddedFeatures, &r.RemovedFeatures,
			&r.TotalFeatures, &r.UnconstrainedBools, &r.UnconstrainedTristates, &r.ExtractedJaccard); err != nil {
			return nil, fmt.Errorf("failed to scan descriptor: %w", err)
		}
		committed, err := date.value()
		if err != nil {
			return nil, err
		}
		if committed != nil {
			r.CommitterDate = *committed
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating descriptors: %w", err)
	}
	return results, nil
}

// GetAllModelCounts retrieves all recorded model counts.
func (hs *HistoryStoreImpl) GetAllModelCounts() ([]schema.ModelCountRow, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY run_id, extractor, revision, architecture, backend",
		strings.Join(modelCountColumns, ", "), hs.table(modelCountsTable))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query model counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ModelCountRow
	for rows.Next() {
		var r schema.ModelCountRow
		date := timeColumn{backend: hs.backend}
		if err := rows.Scan(&r.RunID, &r.Extractor, &r.Revision, &r.Architecture, &r.Backend, date.dest(),
			&r.ModelCount, &r.Unconstrained, &r.UnconstrainedLog10, &r.Similarity, &r.TimeNanos); err != nil {
			return nil, fmt.Errorf("failed to scan model count: %w", err)
		}
		committed, err := date.value()
		if err != nil {
			return nil, err
		}
		if committed != nil {
			r.CommitterDate = *committed
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating model counts: %w", err)
	}
	return results, nil
}
