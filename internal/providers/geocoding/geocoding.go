// Package geocoding resolves free-form addresses to coordinates through the
// OpenStreetMap Nominatim API.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/deep-ag/copilot/internal/agent/model"
	logx "github.com/deep-ag/copilot/pkg/logger"
)

// maxAttempts bounds retries per lookup. Nominatim's usage policy forbids
// aggressive retry, so a single backed-off retry is the ceiling.
const maxAttempts = 2

// Config tunes the Nominatim client. UserAgent is mandatory per the Nominatim
// usage policy; Viewbox softly biases results toward the service region.
type Config struct {
	BaseURL   string        `envconfig:"GEOCODE_BASE_URL" default:"https://nominatim.openstreetmap.org/search"`
	UserAgent string        `envconfig:"GEOCODE_USER_AGENT" default:"deep-ag-copilot/1.0 (ops@deep-ag.example)"`
	Viewbox   string        `envconfig:"GEOCODE_VIEWBOX" default:"-122.5,38.2,-121.0,39.5"`
	Timeout   time.Duration `envconfig:"GEOCODE_TIMEOUT" default:"4s"`
}

// Client is a Nominatim backed model.Geocoder.
type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://nominatim.openstreetmap.org/search"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "deep-ag-copilot/1.0 (ops@deep-ag.example)"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 4 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type nominatimHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves an address to a coordinate and display name. A nil result
// with nil error means the address produced no match; transport failures are
// retried once with backoff before surfacing.
func (c *Client) Geocode(ctx context.Context, address string) (*model.GeocodeResult, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("addressdetails", "1")
	if c.cfg.Viewbox != "" {
		q.Set("viewbox", c.cfg.Viewbox)
		q.Set("bounded", "0")
	}

	var hits []nominatimHit
	lookup := func() error {
		return c.getJSON(ctx, q, &hits)
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxAttempts-1), ctx)
	if err := backoff.Retry(lookup, policy); err != nil {
		return nil, fmt.Errorf("nominatim lookup for %q: %w", address, err)
	}

	if len(hits) == 0 {
		return nil, nil
	}
	hit := hits[0]
	lat, err := strconv.ParseFloat(hit.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim lat %q: %w", hit.Lat, err)
	}
	lon, err := strconv.ParseFloat(hit.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim lon %q: %w", hit.Lon, err)
	}

	logx.Debug().Str("address", address).Str("resolved", hit.DisplayName).Msg("geocoded")
	return &model.GeocodeResult{Lat: lat, Lon: lon, DisplayName: hit.DisplayName}, nil
}

func (c *Client) getJSON(ctx context.Context, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ model.Geocoder = (*Client)(nil)
