// Package parsers holds the tolerant parsers for model output: the tagged
// response format and the intent JSON. Both are first-occurrence scans with
// specified fallbacks, never full grammars, and never fail the turn.
package parsers

import (
	"strings"

	logx "github.com/deep-ag/copilot/pkg/logger"
)

const (
	summaryOpen  = "<voice_summary>"
	summaryClose = "</voice_summary>"
	fullOpen     = "<full_response>"
	fullClose    = "</full_response>"
	sourcesOpen  = "<sources>"
	sourcesClose = "</sources>"
)

// basic safety limits to avoid pathological inputs
const (
	maxTaggedLen  = 128 * 1024
	maxSummaryLen = 300
	maxSources    = 20
)

// TaggedResponse is the parsed three-block generation output.
type TaggedResponse struct {
	VoiceSummary string
	FullResponse string
	Sources      []string
}

// ParseTaggedResponse extracts the voice summary, full response and source
// list blocks from raw generation output. Fallbacks:
//   - missing full block: the whole raw text with stray tag tokens stripped
//   - missing summary block: the full text truncated to maxSummaryLen
//   - missing/malformed sources block: empty list
func ParseTaggedResponse(raw string) TaggedResponse {
	if len(raw) > maxTaggedLen {
		logx.Warn().Int("orig_len", len(raw)).Int("max_len", maxTaggedLen).
			Msg("generation output truncated due to size limit")
		raw = raw[:maxTaggedLen]
	}

	full := extractBlock(raw, fullOpen, fullClose)
	if full == "" {
		full = stripTags(raw)
	}

	summary := extractBlock(raw, summaryOpen, summaryClose)
	if summary == "" {
		summary = Truncate(full, maxSummaryLen)
	}

	var sources []string
	if block := extractBlock(raw, sourcesOpen, sourcesClose); block != "" {
		for _, line := range strings.Split(block, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				sources = append(sources, line)
				if len(sources) == maxSources {
					break
				}
			}
		}
	}

	return TaggedResponse{
		VoiceSummary: summary,
		FullResponse: full,
		Sources:      sources,
	}
}

// extractBlock returns the trimmed text between the first occurrence of the
// open and close tags, or "" when either is absent or out of order.
func extractBlock(s, open, close string) string {
	start := strings.Index(s, open)
	if start < 0 {
		return ""
	}
	rest := s[start+len(open):]
	end := strings.Index(rest, close)
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}

func stripTags(s string) string {
	replacer := strings.NewReplacer(
		summaryOpen, "", summaryClose, "",
		fullOpen, "", fullClose, "",
		sourcesOpen, "", sourcesClose, "",
	)
	return strings.TrimSpace(replacer.Replace(s))
}

// Truncate bounds s to max bytes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
