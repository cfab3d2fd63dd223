// Package artifact reads the files produced by the external extraction pipeline:
// per-stage CSV tables and the per-model feature, DIMACS, backbone and
// unconstrained-feature lists.
package artifact

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/kmetrics/schema"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ErrMissingColumn is returned when a stage table lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// DateColumn is the epoch column that gives every row its committer date.
const DateColumn = "committer_date_unix"

// Reader loads artifacts below a pipeline output directory.
type Reader struct {
	fs   afero.Fs
	root string
	log  logrus.FieldLogger
}

// NewReader creates a Reader over fs rooted at root.
func NewReader(fs afero.Fs, root string, log logrus.FieldLogger) *Reader {
	return &Reader{fs: fs, root: root, log: log}
}

// NewOSReader creates a Reader over the local filesystem.
func NewOSReader(root string, log logrus.FieldLogger) *Reader {
	return NewReader(afero.NewOsFs(), root, log)
}

// Root returns the output directory the reader is rooted at.
func (r *Reader) Root() string {
	return r.root
}

// Row is one record of a stage table.
type Row struct {
	Cells         map[string]string
	CommitterDate time.Time
}

// Get returns the cell of a column, or "" when the column is absent.
func (row Row) Get(column string) string {
	return row.Cells[column]
}

// Table is a parsed stage table with header-ordered columns.
type Table struct {
	Path     string
	Columns  []string
	Rows     []Row
	HasDates bool
}

// HasColumn reports whether the header contains column.
func (t *Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Require returns ErrMissingColumn for the first absent column.
func (t *Table) Require(columns ...string) error {
	for _, c := range columns {
		if !t.HasColumn(c) {
			return fmt.Errorf("%w %q in %s", ErrMissingColumn, c, t.Path)
		}
	}
	return nil
}

// StagePath returns the path of a stage table. An empty file selects "output".
func (r *Reader) StagePath(stage, file string) string {
	if file == "" {
		file = "output"
	}
	return filepath.Join(r.root, stage, file+".csv")
}

// ReadStage reads a required stage table.
func (r *Reader) ReadStage(stage, file string) (*Table, error) {
	path := r.StagePath(stage, file)
	t, err := r.readTable(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stage %s: %w", stage, err)
	}
	return t, nil
}

// ReadOptionalTable reads a table relative to the output directory.
// It returns (nil, nil) when the file does not exist.
func (r *Reader) ReadOptionalTable(name string) (*Table, error) {
	path := filepath.Join(r.root, name)
	exists, err := afero.Exists(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !exists {
		r.log.WithField("path", path).Debug("Optional table absent")
		return nil, nil
	}
	return r.readTable(path)
}

// readTable parses a CSV file, normalizing extractor identifiers and epoch dates.
func (r *Reader) readTable(path string) (*Table, error) {
	f, err := r.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{Path: path}, nil
		}
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := &Table{Path: path, Columns: header}
	dateIdx := -1
	for i, c := range header {
		if c == DateColumn {
			dateIdx = i
			t.HasDates = true
		}
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		row := Row{Cells: make(map[string]string, len(header))}
		for i, c := range header {
			if i < len(rec) {
				row.Cells[c] = schema.DisplayExtractor(rec[i])
			}
		}
		if dateIdx >= 0 && dateIdx < len(rec) {
			d, err := ParseEpoch(rec[dateIdx])
			if err != nil {
				r.log.WithFields(logrus.Fields{"path": path, "line": line}).WithError(err).Debug("Unparseable committer date")
			} else {
				row.CommitterDate = d
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ParseEpoch parses Unix seconds, integral or fractional, into a UTC time.
func ParseEpoch(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch %q: %w", s, err)
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC(), nil
}

// isNotExist reports whether err means the file is absent.
func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
