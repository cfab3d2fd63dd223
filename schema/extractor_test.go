package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayExtractor(t *testing.T) {
	assert.Equal(t, "KConfigReader", DisplayExtractor("kconfigreader"))
	assert.Equal(t, "KClause", DisplayExtractor("kmax"))
	assert.Equal(t, "x86", DisplayExtractor("x86"))
	assert.Equal(t, "KClause", DisplayExtractor("KClause"))
}

func TestParseExtractor(t *testing.T) {
	for _, in := range []string{"kmax", "KClause", "kclause", " KMAX "} {
		e, err := ParseExtractor(in)
		require.NoError(t, err, in)
		assert.Equal(t, KClause, e)
	}

	e, err := ParseExtractor("kconfigreader")
	require.NoError(t, err)
	assert.Equal(t, KConfigReader, e)

	_, err = ParseExtractor("featureide")
	assert.Error(t, err)
}

func TestExtractorRaw(t *testing.T) {
	assert.Equal(t, "kmax", KClause.Raw())
	assert.Equal(t, "kconfigreader", KConfigReader.Raw())
}

func TestVariantKeyString(t *testing.T) {
	k := VariantKey{Extractor: KClause, Revision: "v4.0", Architecture: "arm"}
	assert.Equal(t, "KClause/v4.0[arm]", k.String())
}
