// Package weather fetches agricultural weather data from Open-Meteo, which
// requires no authentication.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/deep-ag/copilot/internal/agent/model"
	logx "github.com/deep-ag/copilot/pkg/logger"
)

// Config tunes the Open-Meteo client. Zero values fall back to the public
// endpoints and a 30s timeout.
type Config struct {
	ForecastURL string        `envconfig:"WEATHER_FORECAST_URL" default:"https://api.open-meteo.com/v1/forecast"`
	ArchiveURL  string        `envconfig:"WEATHER_ARCHIVE_URL" default:"https://archive-api.open-meteo.com/v1/archive"`
	Timezone    string        `envconfig:"WEATHER_TIMEZONE" default:"America/Los_Angeles"`
	Timeout     time.Duration `envconfig:"WEATHER_TIMEOUT" default:"30s"`
}

// Client is an Open-Meteo backed model.WeatherProvider.
type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

// gddBaseTemp is the base temperature for growing-degree-day accumulation,
// suitable for the warm-season crops grown in the Central Valley.
const gddBaseTemp = 10.0

// gddPerDayEstimate approximates daily GDD accumulation around Yolo County,
// used when the historical archive is unreachable.
const gddPerDayEstimate = 8.5

func New(cfg Config) *Client {
	if cfg.ForecastURL == "" {
		cfg.ForecastURL = "https://api.open-meteo.com/v1/forecast"
	}
	if cfg.ArchiveURL == "" {
		cfg.ArchiveURL = "https://archive-api.open-meteo.com/v1/archive"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "America/Los_Angeles"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		now:  time.Now,
	}
}

type forecastPayload struct {
	Current struct {
		Temperature2M      *float64 `json:"temperature_2m"`
		RelativeHumidity2M *float64 `json:"relative_humidity_2m"`
		Precipitation      *float64 `json:"precipitation"`
		WindSpeed10M       *float64 `json:"wind_speed_10m"`
		WindDirection10M   *int     `json:"wind_direction_10m"`
	} `json:"current"`
	Hourly struct {
		SoilMoisture0To7CM    []*float64 `json:"soil_moisture_0_to_7cm"`
		SoilMoisture7To28CM   []*float64 `json:"soil_moisture_7_to_28cm"`
		SoilMoisture28To100CM []*float64 `json:"soil_moisture_28_to_100cm"`
		ET0                   []*float64 `json:"et0_fao_evapotranspiration"`
	} `json:"hourly"`
	Daily struct {
		Time             []string   `json:"time"`
		Temperature2MMax []*float64 `json:"temperature_2m_max"`
		Temperature2MMin []*float64 `json:"temperature_2m_min"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
		ET0              []*float64 `json:"et0_fao_evapotranspiration"`
	} `json:"daily"`
}

// GetWeather fetches current conditions, soil moisture profile and a 7-day
// forecast for the given coordinate.
func (c *Client) GetWeather(ctx context.Context, lat, lon float64) (*model.WeatherSnapshot, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current", strings.Join([]string{
		"temperature_2m", "relative_humidity_2m", "precipitation",
		"wind_speed_10m", "wind_direction_10m",
	}, ","))
	q.Set("hourly", strings.Join([]string{
		"soil_moisture_0_to_7cm", "soil_moisture_7_to_28cm",
		"soil_moisture_28_to_100cm", "et0_fao_evapotranspiration",
	}, ","))
	q.Set("daily", strings.Join([]string{
		"temperature_2m_max", "temperature_2m_min",
		"precipitation_sum", "et0_fao_evapotranspiration",
	}, ","))
	q.Set("timezone", c.cfg.Timezone)
	q.Set("forecast_days", "7")

	var payload forecastPayload
	if err := c.getJSON(ctx, c.cfg.ForecastURL, q, &payload); err != nil {
		return nil, fmt.Errorf("open-meteo forecast: %w", err)
	}

	// The hourly arrays start at midnight local time; index by current hour.
	hour := c.now().Hour()
	snap := &model.WeatherSnapshot{
		Timestamp: c.now().UTC(),
		Latitude:  lat,
		Longitude: lon,

		TemperatureC:     deref(payload.Current.Temperature2M, 20.0),
		RelativeHumidity: deref(payload.Current.RelativeHumidity2M, 50.0),
		PrecipitationMM:  deref(payload.Current.Precipitation, 0),
		WindSpeedKMH:     deref(payload.Current.WindSpeed10M, 0),

		SoilMoisture0To7CM:          hourlyAt(payload.Hourly.SoilMoisture0To7CM, hour, 0.3),
		SoilMoisture7To28CM:         hourlyAt(payload.Hourly.SoilMoisture7To28CM, hour, 0.3),
		SoilMoisture28To100CM:       hourlyAt(payload.Hourly.SoilMoisture28To100CM, hour, 0.35),
		ReferenceEvapotranspiration: hourlyAt(payload.Hourly.ET0, hour, 0),
	}
	if payload.Current.WindDirection10M != nil {
		snap.WindDirection = *payload.Current.WindDirection10M
	}
	snap.SprayDriftRisk = SprayDriftRisk(snap.WindSpeedKMH)
	snap.FungalRisk = FungalRisk(snap.RelativeHumidity, snap.TemperatureC)

	for i, date := range payload.Daily.Time {
		snap.Forecast = append(snap.Forecast, model.ForecastDay{
			Date:             date,
			TempMax:          dailyAt(payload.Daily.Temperature2MMax, i),
			TempMin:          dailyAt(payload.Daily.Temperature2MMin, i),
			PrecipitationSum: dailyAt(payload.Daily.PrecipitationSum, i),
			HumidityMean:     65, // daily humidity is not exposed; coarse regional mean
			ETo:              dailyAt(payload.Daily.ET0, i),
		})
	}
	return snap, nil
}

type archivePayload struct {
	Daily struct {
		Temperature2MMax []*float64 `json:"temperature_2m_max"`
		Temperature2MMin []*float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

// GetGrowingDegreeDays accumulates GDD (base 10C) from January 1st of the
// current year. When the archive is unreachable it falls back to a per-day
// regional estimate rather than failing, since GDD is advisory context and
// not worth aborting a turn over.
func (c *Client) GetGrowingDegreeDays(ctx context.Context, lat, lon float64) (float64, error) {
	now := c.now()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("start_date", yearStart.Format("2006-01-02"))
	q.Set("end_date", now.Format("2006-01-02"))
	q.Set("daily", "temperature_2m_max,temperature_2m_min")
	q.Set("timezone", c.cfg.Timezone)

	var payload archivePayload
	if err := c.getJSON(ctx, c.cfg.ArchiveURL, q, &payload); err != nil {
		days := now.Sub(yearStart).Hours() / 24
		estimate := round1(days * gddPerDayEstimate)
		logx.Warn().Err(err).Float64("estimate", estimate).Msg("gdd archive unavailable, using regional estimate")
		return estimate, nil
	}

	var total float64
	for i := range payload.Daily.Temperature2MMax {
		tmax := payload.Daily.Temperature2MMax[i]
		if i >= len(payload.Daily.Temperature2MMin) {
			break
		}
		tmin := payload.Daily.Temperature2MMin[i]
		if tmax == nil || tmin == nil {
			continue
		}
		if gdd := (*tmax+*tmin)/2 - gddBaseTemp; gdd > 0 {
			total += gdd
		}
	}
	return round1(total), nil
}

// SprayDriftRisk classifies wind speed (km/h) into spray drift risk.
func SprayDriftRisk(windKMH float64) string {
	switch {
	case windKMH > 15:
		return "high"
	case windKMH > 8:
		return "medium"
	default:
		return "low"
	}
}

// FungalRisk classifies humidity (%) and temperature (C) into fungal disease
// pressure. High humidity with moderate temperature favors most pathogens.
func FungalRisk(humidity, tempC float64) string {
	switch {
	case humidity > 80 && tempC > 15 && tempC < 30:
		return "high"
	case humidity > 60 && tempC > 10 && tempC < 35:
		return "medium"
	default:
		return "low"
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
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

func deref(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func hourlyAt(vals []*float64, hour int, fallback float64) float64 {
	if hour < len(vals) && vals[hour] != nil {
		return *vals[hour]
	}
	return fallback
}

func dailyAt(vals []*float64, i int) float64 {
	if i < len(vals) && vals[i] != nil {
		return *vals[i]
	}
	return 0
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

var _ model.WeatherProvider = (*Client)(nil)
