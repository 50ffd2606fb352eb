package model

import (
	"context"
	"time"
)

// ================ Data source payloads ================

// ForecastDay is one day of the weather forecast.
type ForecastDay struct {
	Date             string  `json:"date"`
	TempMax          float64 `json:"temp_max"`
	TempMin          float64 `json:"temp_min"`
	PrecipitationSum float64 `json:"precipitation_sum"`
	HumidityMean     float64 `json:"humidity_mean"`
	ETo              float64 `json:"eto"`
}

// WeatherSnapshot is the current-conditions + 7-day-forecast payload.
type WeatherSnapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`

	TemperatureC     float64 `json:"temperature_c"`
	RelativeHumidity float64 `json:"relative_humidity"`
	PrecipitationMM  float64 `json:"precipitation_mm"`
	WindSpeedKMH     float64 `json:"wind_speed_kmh"`
	WindDirection    int     `json:"wind_direction"`

	SoilMoisture0To7CM          float64 `json:"soil_moisture_0_7cm"`
	SoilMoisture7To28CM         float64 `json:"soil_moisture_7_28cm"`
	SoilMoisture28To100CM       float64 `json:"soil_moisture_28_100cm"`
	ReferenceEvapotranspiration float64 `json:"reference_evapotranspiration"`

	SprayDriftRisk string `json:"spray_drift_risk"`
	FungalRisk     string `json:"fungal_risk"`

	Forecast []ForecastDay `json:"forecast"`
}

// FieldAnalytics is the satellite-derived field health payload.
type FieldAnalytics struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	AnalysisDate string  `json:"analysis_date"`

	NDVICurrent       float64 `json:"ndvi_current"`
	NDVIHistoricalAvg float64 `json:"ndvi_historical_avg"`
	NDVIAnomaly       float64 `json:"ndvi_anomaly"`

	NDWICurrent      float64 `json:"ndwi_current"`
	WaterStressLevel string  `json:"water_stress_level"`

	CountyAvgNDVI       float64 `json:"county_avg_ndvi"`
	RelativePerformance string  `json:"relative_performance"`

	TileURL string `json:"tile_url,omitempty"`
}

// SearchResult is one knowledge-base hit.
type SearchResult struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Page   int     `json:"page,omitempty"`
	Score  float64 `json:"score"`
}

// MarketQuote is a commodity price indication.
type MarketQuote struct {
	Available bool    `json:"available"`
	Commodity string  `json:"commodity,omitempty"`
	Price     float64 `json:"price,omitempty"`
	Unit      string  `json:"unit,omitempty"`
	Trend     string  `json:"trend,omitempty"`
	Source    string  `json:"source,omitempty"`
	Date      string  `json:"date,omitempty"`
}

// ChemicalProduct is one row of the static label dataset.
type ChemicalProduct struct {
	ProductName      string   `json:"product_name"`
	ActiveIngredient string   `json:"active_ingredient"`
	Rate             string   `json:"rate"`
	REI              string   `json:"rei"`
	PHI              string   `json:"phi"`
	Notes            string   `json:"notes"`
	Crops            []string `json:"crops"`
	Pests            []string `json:"pests"`
}

// GeocodeResult is a resolved address.
type GeocodeResult struct {
	Lat         float64
	Lon         float64
	DisplayName string
}

// ================ Collaborator contracts ================

// IntentExtractor turns raw query text into a structured intent. It must not
// fail: on any internal error it returns DefaultIntent so the pipeline still
// proceeds.
type IntentExtractor interface {
	ExtractIntent(ctx context.Context, query string) Intent
}

// TextGenerator is the opaque text-completion capability.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// Geocoder resolves an address. A nil result with nil error means no match;
// callers must not treat absence as fatal.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*GeocodeResult, error)
}

// WeatherProvider fetches current conditions plus forecast, and accumulated
// growing degree days.
type WeatherProvider interface {
	GetWeather(ctx context.Context, lat, lon float64) (*WeatherSnapshot, error)
	GetGrowingDegreeDays(ctx context.Context, lat, lon float64) (float64, error)
}

// FieldAnalyticsProvider fetches satellite-derived field health.
type FieldAnalyticsProvider interface {
	GetFieldAnalytics(ctx context.Context, lat, lon float64) (*FieldAnalytics, error)
}

// KnowledgeSearcher queries the crop knowledge corpus. Implementations
// degrade to an empty result set on provider failure.
type KnowledgeSearcher interface {
	SearchKnowledge(ctx context.Context, query, crop string) ([]SearchResult, error)
}

// MarketProvider returns a commodity quote; Available is false for crops the
// feed does not cover.
type MarketProvider interface {
	GetMarketData(ctx context.Context, crop string) (*MarketQuote, error)
}

// ChemicalLookup is the local synchronous label search.
type ChemicalLookup interface {
	Lookup(query, crop string) []ChemicalProduct
}
