package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deep-ag/copilot/internal/agent/model"
)

func TestParseIntentPlainJSON(t *testing.T) {
	raw := `{"crop": "Almonds", "question_type": "irrigation", "optimization_target": "resource",
		"location_address": "Davis, CA", "is_agricultural": true, "urgency": "immediate",
		"keywords": ["water", "schedule"]}`

	intent := ParseIntent(raw)
	assert.Equal(t, "almonds", intent.Crop)
	assert.Equal(t, "irrigation", intent.QuestionType)
	assert.Equal(t, model.OptimizeResource, intent.OptimizationTarget)
	assert.Equal(t, "Davis, CA", intent.LocationAddress)
	assert.True(t, intent.IsAgricultural)
	assert.Equal(t, "immediate", intent.Urgency)
	assert.Equal(t, []string{"water", "schedule"}, intent.Keywords)
}

func TestParseIntentMarkdownFenced(t *testing.T) {
	raw := "Here is the classification:\n```json\n{\"crop\": \"walnuts\", \"question_type\": \"pest\"}\n```\nDone."

	intent := ParseIntent(raw)
	assert.Equal(t, "walnuts", intent.Crop)
	assert.Equal(t, "pest", intent.QuestionType)
}

func TestParseIntentSurroundingProse(t *testing.T) {
	raw := `Sure! {"crop": "rice", "question_type": "harvest_timing"} Hope that helps.`

	intent := ParseIntent(raw)
	assert.Equal(t, "rice", intent.Crop)
	assert.Equal(t, "harvest_timing", intent.QuestionType)
}

func TestParseIntentGarbageYieldsDefault(t *testing.T) {
	for _, raw := range []string{"", "no json here", "{broken", "{\"crop\": }"} {
		intent := ParseIntent(raw)
		assert.Equal(t, model.DefaultIntent(), intent, "input: %q", raw)
	}
}

func TestParseIntentOmittedAgriculturalFlagStaysTrue(t *testing.T) {
	intent := ParseIntent(`{"crop": "unknown", "question_type": "general"}`)
	assert.True(t, intent.IsAgricultural)
}

func TestParseIntentExplicitNonAgricultural(t *testing.T) {
	intent := ParseIntent(`{"question_type": "math", "is_agricultural": false}`)
	assert.False(t, intent.IsAgricultural)
}

func TestParseIntentNormalizesCase(t *testing.T) {
	intent := ParseIntent(`{"crop": " TOMATOES ", "question_type": " Market ", "optimization_target": "TIME"}`)
	assert.Equal(t, "tomatoes", intent.Crop)
	assert.Equal(t, "market", intent.QuestionType)
	assert.Equal(t, model.OptimizeTime, intent.OptimizationTarget)
}
