package chemical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T) *Dataset {
	t.Helper()
	ds, err := Load()
	require.NoError(t, err)
	return ds
}

func TestLookupByPestAndCrop(t *testing.T) {
	ds := mustLoad(t)

	got := ds.Lookup("what can I spray for spider mites", "almonds")
	require.NotEmpty(t, got)
	assert.Equal(t, "Agri-Mek SC", got[0].ProductName)
}

func TestLookupCropFilterExcludes(t *testing.T) {
	ds := mustLoad(t)

	// Rally is labelled for wine grapes only.
	got := ds.Lookup("powdery mildew treatment", "rice")
	for _, p := range got {
		assert.NotEqual(t, "Rally 40WSP", p.ProductName)
	}
}

func TestLookupCropAliasSubstring(t *testing.T) {
	ds := mustLoad(t)

	// "tomatoes" must match products labelled for "processing_tomatoes".
	got := ds.Lookup("copper for bacterial spot", "tomatoes")
	require.NotEmpty(t, got)
	assert.Equal(t, "Kocide 3000", got[0].ProductName)
}

func TestLookupByProductName(t *testing.T) {
	ds := mustLoad(t)

	got := ds.Lookup("what is the REI for pristine", "almonds")
	require.Len(t, got, 1)
	assert.Equal(t, "Pristine", got[0].ProductName)
}

func TestLookupUnknownCropSearchesAll(t *testing.T) {
	ds := mustLoad(t)

	got := ds.Lookup("powdery mildew", "unknown")
	require.NotEmpty(t, got)
}

func TestLookupNoMatch(t *testing.T) {
	ds := mustLoad(t)
	assert.Empty(t, ds.Lookup("how do I repair my tractor", "almonds"))
}

func TestLookupCapsMatches(t *testing.T) {
	ds := mustLoad(t)

	got := ds.Lookup("mites blight powdery mildew botrytis weeds aphids", "")
	assert.LessOrEqual(t, len(got), MaxMatches)
}
