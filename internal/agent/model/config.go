package model

// ================ Config ================

type SessionConfig struct {
	TTL string `envconfig:"SESSION_TTL" default:"168h"`
}

type IntentModelConfig struct {
	Model       string  `envconfig:"INTENT_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"INTENT_MAX_TOKENS" default:"256"`
	Temperature float32 `envconfig:"INTENT_TEMPERATURE" default:"0.1"`
}

type ResponseModelConfig struct {
	Model       string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"800"`
	Temperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.2"`
}

type PromptConfig struct {
	AssistantName string `envconfig:"PROMPT_ASSISTANT_NAME" default:"Deep-Ag Copilot"`
	RegionName    string `envconfig:"PROMPT_REGION_NAME" default:"Yolo County"`
}

// RegionConfig is the last-resort coordinate used when a turn cannot resolve
// a location any other way.
type RegionConfig struct {
	Label     string  `envconfig:"REGION_LABEL" default:"Yolo County"`
	CenterLat float64 `envconfig:"REGION_CENTER_LAT" default:"38.7646"`
	CenterLon float64 `envconfig:"REGION_CENTER_LON" default:"-121.9018"`
}
