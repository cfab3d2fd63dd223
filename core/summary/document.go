package summary

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/huangsam/kmetrics/schema"
	"github.com/spf13/afero"
)

// ProjectDataKey holds the per-project metrics of the document.
const ProjectDataKey = "projectData"

// boxPlots are the distribution metrics the dashboard expects on every linux
// project. allOnly plots belong to linux/all, the rest to architectures.
var boxPlots = []struct {
	name    string
	allOnly bool
}{
	{"configuration-evolution-arch", false},
	{"configuration-evolution-total", true},
	{"configuration-similarity", false},
	{"feature-evolution-arch", false},
	{"feature-evolution-total", true},
	{"jaccard-similarity", false},
	{"prediction-accuracy-configurations", false},
	{"prediction-accuracy-configurations-by-features", false},
	{"prediction-accuracy-features", false},
	{"share-of-feature-variables", false},
}

// MergeDocument writes metrics into the JSON document at path. Existing keys
// outside the written leaves are preserved, and a missing document starts empty.
func MergeDocument(fs afero.Fs, path string, metrics schema.ProjectMetrics) error {
	doc := map[string]any{}
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if exists {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	}

	if err := Merge(doc, metrics); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metrics document: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(fs, path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Merge folds metrics into a decoded document in place.
func Merge(doc map[string]any, metrics schema.ProjectMetrics) error {
	projects := childMap(doc, ProjectDataKey)
	for project, byMetric := range metrics {
		existing, ok := projects[project].(map[string]any)
		if !ok {
			existing = newProject(project)
			projects[project] = existing
		}
		for metric, fragment := range byMetric {
			leaves, err := toMap(fragment)
			if err != nil {
				return fmt.Errorf("failed to encode %s of %s: %w", metric, project, err)
			}
			target := childMap(existing, string(metric))
			for name, value := range leaves {
				target[name] = value
			}
		}
	}
	return nil
}

func newProject(project string) map[string]any {
	out := map[string]any{}
	if !strings.HasPrefix(project, "linux/") {
		return out
	}
	isAll := project == schema.AllProject
	for _, p := range boxPlots {
		if p.allOnly == isAll {
			out[p.name] = map[string]any{}
		}
	}
	return out
}

// childMap returns parent[key] as a map, replacing any non-map value.
func childMap(parent map[string]any, key string) map[string]any {
	if m, ok := parent[key].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	parent[key] = m
	return m
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
