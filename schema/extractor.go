// Package schema has the shared models of kmetrics: variants, descriptors,
// model counts, totals and dashboard snapshots.
package schema

import (
	"fmt"
	"strings"
)

// Extractor names a Kconfig extraction tool by its display name.
type Extractor string

// Supported extractors.
const (
	KConfigReader Extractor = "KConfigReader"
	KClause       Extractor = "KClause"
)

// AllExtractors lists the supported extractors in processing order.
var AllExtractors = []Extractor{KConfigReader, KClause}

// rawExtractorNames maps identifiers used in artifact paths and raw stage tables.
var rawExtractorNames = map[string]Extractor{
	"kconfigreader": KConfigReader,
	"kmax":          KClause,
}

// DisplayExtractor maps a raw extractor identifier to its display name.
// Values that are not raw identifiers are returned unchanged.
func DisplayExtractor(raw string) string {
	if e, ok := rawExtractorNames[raw]; ok {
		return string(e)
	}
	return raw
}

// ParseExtractor accepts a raw identifier or a display name (case-insensitive).
func ParseExtractor(s string) (Extractor, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	if e, ok := rawExtractorNames[needle]; ok {
		return e, nil
	}
	for _, e := range AllExtractors {
		if strings.ToLower(string(e)) == needle {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown extractor %q. must be kconfigreader, kmax, KConfigReader or KClause", s)
}

// Raw returns the identifier used in artifact paths.
func (e Extractor) Raw() string {
	for raw, display := range rawExtractorNames {
		if display == e {
			return raw
		}
	}
	return string(e)
}

// VariantKey identifies one extracted model.
type VariantKey struct {
	Extractor    Extractor `json:"extractor"`
	Revision     string    `json:"revision"`
	Architecture string    `json:"architecture"`
}

// String renders the key for log fields and error messages.
func (k VariantKey) String() string {
	return fmt.Sprintf("%s/%s[%s]", k.Extractor, k.Revision, k.Architecture)
}
