package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCrop(t *testing.T) {
	cases := map[string]string{
		"Almonds":             "almonds",
		"almond orchard":      "almonds",
		"cherry tomatoes":     "processing_tomatoes",
		"Processing Tomatoes": "processing_tomatoes",
		"wine grapes":         "wine_grapes",
		"Grape":               "wine_grapes",
		"RICE":                "rice",
		"pistachio":           "pistachios",
		"lettuce":             "lettuce",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeCrop(in), "input: %q", in)
	}
}

func TestGetMarketDataKnownCommodity(t *testing.T) {
	p := New()

	quote, err := p.GetMarketData(context.Background(), "almonds")
	require.NoError(t, err)
	require.True(t, quote.Available)
	assert.Equal(t, "Almonds", quote.Commodity)
	assert.Equal(t, "lb", quote.Unit)
	assert.Equal(t, "stable", quote.Trend)
	assert.Equal(t, "USDA AMS / Yolo Baseline", quote.Source)

	// Variance stays within 2% of the baseline.
	assert.InDelta(t, 1.95, quote.Price, 1.95*0.02+0.01)
}

func TestGetMarketDataUnknownCommodity(t *testing.T) {
	p := New()

	quote, err := p.GetMarketData(context.Background(), "lettuce")
	require.NoError(t, err)
	assert.False(t, quote.Available)
	assert.Empty(t, quote.Commodity)
}

func TestGetMarketDataDeterministicWithinDay(t *testing.T) {
	fixed := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	p := &Provider{now: func() time.Time { return fixed }}

	first, err := p.GetMarketData(context.Background(), "walnuts")
	require.NoError(t, err)
	second, err := p.GetMarketData(context.Background(), "walnuts")
	require.NoError(t, err)
	assert.Equal(t, first.Price, second.Price)
	assert.Equal(t, "2026-08-26", first.Date)
}

func TestGetMarketDataMultiWordCommodityName(t *testing.T) {
	p := New()

	quote, err := p.GetMarketData(context.Background(), "tomato field")
	require.NoError(t, err)
	require.True(t, quote.Available)
	assert.Equal(t, "Processing Tomatoes", quote.Commodity)
	assert.Equal(t, "ton", quote.Unit)
}
