package model

import "strings"

// Crop values the intent model is allowed to emit. Anything else is
// normalised to CropUnknown by the parser.
const CropUnknown = "unknown"

// Optimization targets.
const (
	OptimizeNone     = "none"
	OptimizeTime     = "time"
	OptimizeLocation = "location"
	OptimizeResource = "resource"
)

// Intent is the structured record extracted from one raw query. It lives for
// a single turn and is never persisted.
type Intent struct {
	Crop               string   `json:"crop"`
	QuestionType       string   `json:"question_type"`
	OptimizationTarget string   `json:"optimization_target"`
	LocationAddress    string   `json:"location_address"`
	IsAgricultural     bool     `json:"is_agricultural"`
	Urgency            string   `json:"urgency"`
	Keywords           []string `json:"keywords"`
}

// DefaultIntent is the safe fallback used whenever intent extraction fails:
// agricultural and general, so the pipeline still proceeds.
func DefaultIntent() Intent {
	return Intent{
		Crop:               CropUnknown,
		QuestionType:       "general",
		OptimizationTarget: OptimizeNone,
		IsAgricultural:     true,
		Urgency:            "planning",
		Keywords:           []string{},
	}
}

// QuestionTypeContains reports whether the (possibly compound) question type
// mentions the given class, e.g. "harvest_planning" contains "harvest".
func (i Intent) QuestionTypeContains(class string) bool {
	return strings.Contains(i.QuestionType, class)
}

// HasCrop reports whether the classifier produced a usable crop.
func (i Intent) HasCrop() bool {
	return i.Crop != "" && i.Crop != CropUnknown
}
