package parsers

import (
	"encoding/json"
	"strings"

	"github.com/deep-ag/copilot/internal/agent/model"
	logx "github.com/deep-ag/copilot/pkg/logger"
)

const maxIntentLen = 16 * 1024

// intentWire mirrors the intent JSON with pointers where absence matters:
// a missing is_agricultural must keep the safe default instead of decoding
// to false.
type intentWire struct {
	Crop               string   `json:"crop"`
	QuestionType       string   `json:"question_type"`
	OptimizationTarget *string  `json:"optimization_target"`
	LocationAddress    *string  `json:"location_address"`
	IsAgricultural     *bool    `json:"is_agricultural"`
	Urgency            string   `json:"urgency"`
	Keywords           []string `json:"keywords"`
}

// ParseIntent decodes the intent model's output. The model is asked for bare
// JSON but routinely wraps it in markdown fences or prose, so the parser
// strips fences and scans for the outermost object before decoding. Any
// failure yields the safe default intent.
func ParseIntent(raw string) model.Intent {
	if len(raw) > maxIntentLen {
		raw = raw[:maxIntentLen]
	}
	raw = stripCodeFences(raw)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		logx.Warn().Str("snippet", Truncate(raw, 120)).Msg("no JSON object in intent output")
		return model.DefaultIntent()
	}

	var wire intentWire
	if err := json.Unmarshal([]byte(raw[start:end+1]), &wire); err != nil {
		logx.Warn().Err(err).Msg("failed to decode intent JSON")
		return model.DefaultIntent()
	}

	intent := model.DefaultIntent()
	if c := strings.ToLower(strings.TrimSpace(wire.Crop)); c != "" {
		intent.Crop = c
	}
	if qt := strings.ToLower(strings.TrimSpace(wire.QuestionType)); qt != "" {
		intent.QuestionType = qt
	}
	if wire.OptimizationTarget != nil {
		if ot := strings.ToLower(strings.TrimSpace(*wire.OptimizationTarget)); ot != "" {
			intent.OptimizationTarget = ot
		}
	}
	if wire.LocationAddress != nil {
		intent.LocationAddress = strings.TrimSpace(*wire.LocationAddress)
	}
	// An omitted flag stays true: refusal requires the classifier to say so.
	if wire.IsAgricultural != nil {
		intent.IsAgricultural = *wire.IsAgricultural
	}
	if u := strings.TrimSpace(wire.Urgency); u != "" {
		intent.Urgency = u
	}
	if wire.Keywords != nil {
		intent.Keywords = wire.Keywords
	}
	return intent
}

// stripCodeFences unwraps the first fenced block when present, trimming an
// optional "json" language marker.
func stripCodeFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	parts := strings.Split(s, "```")
	for i := 1; i < len(parts); i += 2 {
		part := strings.TrimSpace(parts[i])
		part = strings.TrimSpace(strings.TrimPrefix(part, "json"))
		if strings.HasPrefix(part, "{") {
			return part
		}
	}
	if len(parts) > 1 {
		part := strings.TrimSpace(parts[1])
		return strings.TrimSpace(strings.TrimPrefix(part, "json"))
	}
	return s
}
