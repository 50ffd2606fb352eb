package engine

import (
	"strings"

	"github.com/deep-ag/copilot/internal/agent/model"
)

// Clarifying questions returned by the slot-filling gate.
const (
	askLocationQuestion = "I need a location for accurate analysis. Which field or address are you asking about?"
	askCropQuestion     = "Which crop are you asking about? (Almonds, Walnuts, Tomatoes, etc.)"
)

// evaluateGate decides whether enough information exists to proceed. It
// returns the clarifying question to ask, or "" to proceed. The
// non-agricultural refusal is handled before resolution ever starts, so only
// the location and crop slots are checked here.
//
// Clarifying-question turns are deliberately not recorded into conversation
// history; only completed turns are.
func evaluateGate(rc model.ResolvedContext, intent model.Intent) string {
	// General questions can run on the regional default; everything else
	// needs a real coordinate.
	if !rc.Located && !intent.QuestionTypeContains("general") {
		return askLocationQuestion
	}

	// Crop is required unless the question is regulatory, general, or an
	// optimization where the target itself is the answer.
	if rc.Crop == model.CropUnknown &&
		!rc.IsRegulatory &&
		!intent.QuestionTypeContains("general") &&
		rc.OptimizationTarget == model.OptimizeNone {
		return askCropQuestion
	}

	return ""
}

// ensureQuestionMark guarantees a clarifying question reads as one, trimming
// a trailing period before appending.
func ensureQuestionMark(q string) string {
	q = strings.TrimRight(q, " .")
	if len(q) == 0 || q[len(q)-1] == '?' {
		return q
	}
	return q + "?"
}
