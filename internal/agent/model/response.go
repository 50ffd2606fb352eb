package model

import "time"

// QueryRequest is the caller-facing request for one turn. Lat/Lon are
// explicit caller overrides and take precedence over everything else.
type QueryRequest struct {
	Query     string
	Crop      string
	Lat       *float64
	Lon       *float64
	SessionID string
}

// ResolvedContext is the effective (crop, location) tuple for one turn,
// derived from intent, session state and caller overrides. Ephemeral: only
// the fields worth retaining flow back into SessionState.
type ResolvedContext struct {
	Crop               string
	Lat                float64
	Lon                float64
	Located            bool
	DisplayAddress     string
	QuestionType       string
	OptimizationTarget string
	IsRegulatory       bool
}

// AgentResponse is the complete output of one turn.
type AgentResponse struct {
	VoiceResponse string   `json:"voice_response"`
	VoiceSummary  string   `json:"voice_summary"`
	FullResponse  string   `json:"full_response"`
	Sources       []string `json:"sources"`

	WeatherData   *WeatherSnapshot  `json:"weather_data,omitempty"`
	SatelliteData *FieldAnalytics   `json:"satellite_data,omitempty"`
	RAGResults    []SearchResult    `json:"rag_results"`
	MarketData    *MarketQuote      `json:"market_data,omitempty"`
	ChemicalData  []ChemicalProduct `json:"chemical_data,omitempty"`

	Crop            string    `json:"crop"`
	LocationAddress string    `json:"location_address,omitempty"`
	Lat             *float64  `json:"lat,omitempty"`
	Lon             *float64  `json:"lon,omitempty"`
	Query           string    `json:"query"`
	Timestamp       time.Time `json:"timestamp"`
	ProcessingMS    int64     `json:"processing_time_ms"`
}
