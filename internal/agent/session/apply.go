// Package session provides the SessionStore implementations: Redis-backed
// for deployments and in-memory for tests and REDIS_URL-less runs. Both share
// the mutation rules in this file so bounds and precedence behave identically.
package session

import (
	"strings"
	"time"

	"github.com/deep-ag/copilot/internal/agent/model"
)

// applyContextUpdate merges a ContextUpdate into the state. It reports
// whether anything changed so stores can skip redundant writes.
func applyContextUpdate(s *model.SessionState, upd model.ContextUpdate) bool {
	updated := false
	if upd.Crop != "" && !strings.EqualFold(upd.Crop, model.CropUnknown) {
		s.Crop = upd.Crop
		updated = true
	}
	if upd.Lat != nil && upd.Lon != nil {
		s.Lat = upd.Lat
		s.Lon = upd.Lon
		updated = true
		if upd.Label != "" {
			s.LocationLabel = upd.Label
		}
	}
	return updated
}

// appendHistory adds one turn entry, evicting the oldest beyond MaxHistory.
func appendHistory(s *model.SessionState, role, content string) {
	s.History = append(s.History, model.HistoryMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	if len(s.History) > model.MaxHistory {
		s.History = s.History[len(s.History)-model.MaxHistory:]
	}
}

// applyMemory folds heuristic long-term memory out of one completed turn:
// key facts from the user text, advisor points from the assistant reply.
// Both lists stay de-duplicated and bounded, dropping the oldest first.
func applyMemory(s *model.SessionState, userText, assistantText string) {
	for _, fact := range extractKeyFacts(userText) {
		s.KeyFacts = appendBounded(s.KeyFacts, fact, model.MaxKeyFacts)
	}
	for _, point := range extractAdvisorPoints(assistantText) {
		s.AdvisorPoints = appendBounded(s.AdvisorPoints, point, model.MaxAdvisorPoints)
	}
}

func appendBounded(list []string, entry string, max int) []string {
	for _, have := range list {
		if have == entry {
			return list
		}
	}
	list = append(list, entry)
	if len(list) > max {
		list = list[len(list)-max:]
	}
	return list
}

// factCues mark sentences worth remembering: acreage, rates, locations and
// the region's core crops.
var factCues = []string{
	"acre", "acres", "gallon", "gpa", "lat", "lon",
	"north", "south", "east", "west", "near", "by",
	"field", "orchard", "block",
	"tomato", "almond", "walnut", "pistachio", "rice", "grape",
}

// extractKeyFacts captures up to 3 user-shared facts: sentences containing a
// cue word or any digit.
func extractKeyFacts(text string) []string {
	var facts []string
	for _, s := range splitSentences(text) {
		lower := strings.ToLower(s)
		if containsAny(lower, factCues) || strings.ContainsAny(s, "0123456789") {
			facts = append(facts, s)
			if len(facts) == 3 {
				break
			}
		}
	}
	return facts
}

// extractAdvisorPoints keeps the first 3 declarative sentences of the
// assistant reply, to avoid repeating advice in later turns.
func extractAdvisorPoints(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) > 3 {
		sentences = sentences[:3]
	}
	return sentences
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range strings.Split(strings.ReplaceAll(text, "\n", " "), ".") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
