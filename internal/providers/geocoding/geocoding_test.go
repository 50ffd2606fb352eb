package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(baseURL string) *Client {
	return New(Config{BaseURL: baseURL, UserAgent: "test-agent/1.0", Timeout: 2 * time.Second})
}

func TestGeocodeResolvesAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Woodland, CA", r.URL.Query().Get("q"))
		assert.Equal(t, "test-agent/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(`[{"lat": "38.6785", "lon": "-121.7733", "display_name": "Woodland, Yolo County, California"}]`))
	}))
	defer srv.Close()

	got, err := newClient(srv.URL).Geocode(context.Background(), "Woodland, CA")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 38.6785, got.Lat)
	assert.Equal(t, -121.7733, got.Lon)
	assert.Equal(t, "Woodland, Yolo County, California", got.DisplayName)
}

func TestGeocodeNoMatchReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	got, err := newClient(srv.URL).Geocode(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGeocodeRetriesOnceThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"lat": "38.5", "lon": "-121.7", "display_name": "Davis"}]`))
	}))
	defer srv.Close()

	got, err := newClient(srv.URL).Geocode(context.Background(), "Davis")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGeocodeGivesUpAfterRetryBudget(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Geocode(context.Background(), "Davis")
	assert.Error(t, err)
	assert.Equal(t, int32(maxAttempts), atomic.LoadInt32(&calls))
}

func TestGeocodeBadCoordinateInPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"lat": "not-a-number", "lon": "-121.7", "display_name": "Broken"}]`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Geocode(context.Background(), "Davis")
	assert.Error(t, err)
}
