package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const forecastBody = `{
	"current": {
		"temperature_2m": 31.4,
		"relative_humidity_2m": 38,
		"precipitation": 0,
		"wind_speed_10m": 9.5,
		"wind_direction_10m": 210
	},
	"hourly": {
		"soil_moisture_0_to_7cm": [0.21],
		"soil_moisture_7_to_28cm": [0.27],
		"soil_moisture_28_to_100cm": [0.33],
		"et0_fao_evapotranspiration": [0.42]
	},
	"daily": {
		"time": ["2026-08-26", "2026-08-27", "2026-08-28"],
		"temperature_2m_max": [34, 33, 30],
		"temperature_2m_min": [16, 15, 14],
		"precipitation_sum": [0, 2.5, 0],
		"et0_fao_evapotranspiration": [6.1, 5.8, 5.5]
	}
}`

// midnight keeps the hourly index at 0 so the test controls which sample is
// read.
var midnight = time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

func newClient(forecastURL, archiveURL string) *Client {
	c := New(Config{ForecastURL: forecastURL, ArchiveURL: archiveURL, Timeout: 2 * time.Second})
	c.now = func() time.Time { return midnight }
	return c
}

func TestGetWeatherMapsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("forecast_days"))
		w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	c := newClient(srv.URL, srv.URL)
	snap, err := c.GetWeather(context.Background(), 38.54, -121.74)
	require.NoError(t, err)

	assert.Equal(t, 31.4, snap.TemperatureC)
	assert.Equal(t, 38.0, snap.RelativeHumidity)
	assert.Equal(t, 9.5, snap.WindSpeedKMH)
	assert.Equal(t, 210, snap.WindDirection)
	assert.Equal(t, 0.21, snap.SoilMoisture0To7CM)
	assert.Equal(t, 0.33, snap.SoilMoisture28To100CM)
	assert.Equal(t, 0.42, snap.ReferenceEvapotranspiration)
	assert.Equal(t, "medium", snap.SprayDriftRisk)
	assert.Equal(t, "low", snap.FungalRisk)

	require.Len(t, snap.Forecast, 3)
	assert.Equal(t, "2026-08-27", snap.Forecast[1].Date)
	assert.Equal(t, 2.5, snap.Forecast[1].PrecipitationSum)
}

func TestGetWeatherUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newClient(srv.URL, srv.URL)
	_, err := c.GetWeather(context.Background(), 38.54, -121.74)
	assert.Error(t, err)
}

func TestGetGrowingDegreeDaysAccumulates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2026-01-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2026-08-26", r.URL.Query().Get("end_date"))
		w.Write([]byte(`{"daily": {
			"temperature_2m_max": [20, 30, 5, null],
			"temperature_2m_min": [10, 20, 1, 2]
		}}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, srv.URL)
	gdd, err := c.GetGrowingDegreeDays(context.Background(), 38.54, -121.74)
	require.NoError(t, err)

	// (15-10) + (25-10) + max(0, 3-10); the null day is skipped.
	assert.Equal(t, 20.0, gdd)
}

func TestGetGrowingDegreeDaysFallsBackToEstimate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newClient(srv.URL, srv.URL)
	gdd, err := c.GetGrowingDegreeDays(context.Background(), 38.54, -121.74)
	require.NoError(t, err)

	// 237 days from Jan 1 to Aug 26 at the regional per-day estimate.
	assert.Equal(t, 237*gddPerDayEstimate, gdd)
}

func TestSprayDriftRisk(t *testing.T) {
	assert.Equal(t, "high", SprayDriftRisk(16))
	assert.Equal(t, "medium", SprayDriftRisk(10))
	assert.Equal(t, "low", SprayDriftRisk(5))
}

func TestFungalRisk(t *testing.T) {
	assert.Equal(t, "high", FungalRisk(85, 22))
	assert.Equal(t, "medium", FungalRisk(70, 22))
	assert.Equal(t, "medium", FungalRisk(85, 34)) // too hot for high
	assert.Equal(t, "low", FungalRisk(40, 22))
	assert.Equal(t, "low", FungalRisk(85, 40))
}
