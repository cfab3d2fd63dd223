package artifact

import (
	"bufio"
	"fmt"
	"maps"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/huangsam/kmetrics/schema"
	"github.com/spf13/afero"
)

// Directories of the per-model artifacts, each followed by <raw-extractor>/linux/.
const (
	FeaturesDir      = "kconfig"
	DIMACSDir        = "backbone-dimacs"
	BackboneDir      = "backbone-features"
	UnconstrainedDir = "unconstrained-features"
)

// File suffixes of the per-model artifacts.
const (
	FeaturesSuffix      = ".features"
	DIMACSSuffix        = ".backbone.dimacs"
	BackboneSuffix      = ".backbone.features"
	UnconstrainedSuffix = ".unconstrained.features"
)

// maxLineSize bounds a single line; DIMACS clause lines can be long.
const maxLineSize = 64 * 1024 * 1024

// configPrefix is stripped from feature names in extracted and unconstrained lists.
const configPrefix = "CONFIG_"

var featuresFilePattern = regexp.MustCompile(`^(.*)\[(.*)\]\.features$`)

// modelPath builds <root>/<dir>/<raw-extractor>/linux/<rev>[<arch>]<suffix>.
func (r *Reader) modelPath(dir, suffix string, key schema.VariantKey) string {
	name := fmt.Sprintf("%s[%s]%s", key.Revision, key.Architecture, suffix)
	return filepath.Join(r.root, dir, key.Extractor.Raw(), "linux", name)
}

// FeaturesPath returns the extracted-features list of a model.
func (r *Reader) FeaturesPath(key schema.VariantKey) string {
	return r.modelPath(FeaturesDir, FeaturesSuffix, key)
}

// DIMACSPath returns the DIMACS file of a model.
func (r *Reader) DIMACSPath(key schema.VariantKey) string {
	return r.modelPath(DIMACSDir, DIMACSSuffix, key)
}

// BackbonePath returns the backbone (core/dead) file of a model.
func (r *Reader) BackbonePath(key schema.VariantKey) string {
	return r.modelPath(BackboneDir, BackboneSuffix, key)
}

// UnconstrainedPath returns the unconstrained-feature list of a model.
func (r *Reader) UnconstrainedPath(key schema.VariantKey) string {
	return r.modelPath(UnconstrainedDir, UnconstrainedSuffix, key)
}

// ReadLines reads a whole file as lines without line terminators.
// A missing file yields ok=false and no error.
func (r *Reader) ReadLines(path string) ([]string, bool, error) {
	f, err := r.fs.Open(path)
	if err != nil {
		if isNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, true, nil
}

// readNameSet reads a newline-delimited name list, trimming whitespace and the
// CONFIG_ prefix. Blank lines are skipped.
func (r *Reader) readNameSet(path string) (map[string]struct{}, bool, error) {
	lines, ok, err := r.ReadLines(path)
	if err != nil || !ok {
		return map[string]struct{}{}, ok, err
	}
	set := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		name := strings.TrimPrefix(strings.TrimSpace(l), configPrefix)
		if name != "" {
			set[name] = struct{}{}
		}
	}
	return set, true, nil
}

// ExtractedFeatures reads the grep-derived feature list of a model.
func (r *Reader) ExtractedFeatures(key schema.VariantKey) (map[string]struct{}, bool, error) {
	return r.readNameSet(r.FeaturesPath(key))
}

// UnconstrainedFeatures reads the unconstrained feature variables of a model.
// An absent file is an empty set.
func (r *Reader) UnconstrainedFeatures(key schema.VariantKey) (map[string]struct{}, error) {
	set, _, err := r.readNameSet(r.UnconstrainedPath(key))
	return set, err
}

// ModelFiles holds the raw lines of the logical model and its backbone.
type ModelFiles struct {
	DIMACS      []string
	HasDIMACS   bool
	Backbone    []string
	HasBackbone bool
}

// ReadModel reads the DIMACS and backbone files of a model. Either may be absent.
func (r *Reader) ReadModel(key schema.VariantKey) (ModelFiles, error) {
	var m ModelFiles
	var err error
	if m.DIMACS, m.HasDIMACS, err = r.ReadLines(r.DIMACSPath(key)); err != nil {
		return m, err
	}
	if !m.HasDIMACS {
		return m, nil
	}
	if m.Backbone, m.HasBackbone, err = r.ReadLines(r.BackbonePath(key)); err != nil {
		return m, err
	}
	return m, nil
}

// featureFiles lists (revision, architecture) pairs from an extractor's features directory.
func (r *Reader) featureFiles(extractor schema.Extractor) ([][2]string, error) {
	dir := filepath.Join(r.root, FeaturesDir, extractor.Raw(), "linux")
	entries, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		if isNotExist(err) {
			r.log.WithField("dir", dir).Debug("No extracted features")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var out [][2]string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := featuresFilePattern.FindStringSubmatch(e.Name())
		if m == nil || strings.HasSuffix(e.Name(), BackboneSuffix) || strings.HasSuffix(e.Name(), UnconstrainedSuffix) {
			continue
		}
		out = append(out, [2]string{m[1], m[2]})
	}
	return out, nil
}

// DiscoverModels maps each revision with extracted features to its sorted architectures.
func (r *Reader) DiscoverModels(extractor schema.Extractor) (map[string][]string, error) {
	files, err := r.featureFiles(extractor)
	if err != nil {
		return nil, err
	}
	models := make(map[string][]string)
	for _, f := range files {
		if !slices.Contains(models[f[0]], f[1]) {
			models[f[0]] = append(models[f[0]], f[1])
		}
	}
	for rev := range models {
		slices.Sort(models[rev])
	}
	return models, nil
}

// DiscoverRevisions returns the distinct revisions with extracted features,
// in lexicographic order. Callers apply version ordering.
func (r *Reader) DiscoverRevisions(extractor schema.Extractor) ([]string, error) {
	models, err := r.DiscoverModels(extractor)
	if err != nil {
		return nil, err
	}
	revisions := slices.Collect(maps.Keys(models))
	slices.Sort(revisions)
	return revisions, nil
}

// DiscoverArchitectures returns the sorted architectures extracted at a revision.
func (r *Reader) DiscoverArchitectures(extractor schema.Extractor, revision string) ([]string, error) {
	models, err := r.DiscoverModels(extractor)
	if err != nil {
		return nil, err
	}
	return models[revision], nil
}
