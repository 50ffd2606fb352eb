package satellite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedProvider() *Provider {
	fixed := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)
	return &Provider{now: func() time.Time { return fixed }}
}

func TestGetFieldAnalyticsDeterministic(t *testing.T) {
	p := fixedProvider()
	ctx := context.Background()

	first, err := p.GetFieldAnalytics(ctx, 38.54, -121.74)
	require.NoError(t, err)
	second, err := p.GetFieldAnalytics(ctx, 38.54, -121.74)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetFieldAnalyticsVariesByCoordinate(t *testing.T) {
	p := fixedProvider()
	ctx := context.Background()

	a, err := p.GetFieldAnalytics(ctx, 38.54, -121.74)
	require.NoError(t, err)
	b, err := p.GetFieldAnalytics(ctx, 38.70, -121.90)
	require.NoError(t, err)
	assert.NotEqual(t, a.NDVICurrent, b.NDVICurrent)
}

func TestGetFieldAnalyticsConsistentFields(t *testing.T) {
	p := fixedProvider()

	fa, err := p.GetFieldAnalytics(context.Background(), 38.54, -121.74)
	require.NoError(t, err)

	assert.Equal(t, 38.54, fa.Latitude)
	assert.Equal(t, "2026-08-26", fa.AnalysisDate)
	assert.InDelta(t, fa.NDVICurrent-fa.NDVIHistoricalAvg, fa.NDVIAnomaly, 0.0011)
	assert.Equal(t, WaterStressLevel(fa.NDWICurrent), fa.WaterStressLevel)
	assert.Equal(t, RelativePerformance(fa.NDVICurrent, fa.CountyAvgNDVI), fa.RelativePerformance)
}

func TestGetFieldAnalyticsHonorsCancelledContext(t *testing.T) {
	p := fixedProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.GetFieldAnalytics(ctx, 38.54, -121.74)
	assert.Error(t, err)
}

func TestWaterStressLevel(t *testing.T) {
	assert.Equal(t, "severe", WaterStressLevel(-0.3))
	assert.Equal(t, "moderate", WaterStressLevel(-0.05))
	assert.Equal(t, "low", WaterStressLevel(0.1))
}

func TestRelativePerformance(t *testing.T) {
	assert.Equal(t, "above", RelativePerformance(0.60, 0.48))
	assert.Equal(t, "below", RelativePerformance(0.40, 0.48))
	assert.Equal(t, "at", RelativePerformance(0.50, 0.48))
}
