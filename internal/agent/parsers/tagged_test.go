package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTaggedResponseAllBlocks(t *testing.T) {
	raw := `<voice_summary>Irrigate tonight.</voice_summary>
<full_response>Run sets of 12 hours starting at 8pm.
Soil moisture is low.</full_response>
<sources>
UC IPM - Almonds
Yolo Crop Report 2024
</sources>`

	got := ParseTaggedResponse(raw)
	assert.Equal(t, "Irrigate tonight.", got.VoiceSummary)
	assert.Equal(t, "Run sets of 12 hours starting at 8pm.\nSoil moisture is low.", got.FullResponse)
	assert.Equal(t, []string{"UC IPM - Almonds", "Yolo Crop Report 2024"}, got.Sources)
}

func TestParseTaggedResponseMissingFullFallsBackToStripped(t *testing.T) {
	raw := "<voice_summary>Short answer.</voice_summary> The model forgot the tags here."

	got := ParseTaggedResponse(raw)
	assert.Equal(t, "Short answer.", got.VoiceSummary)
	assert.NotContains(t, got.FullResponse, "<voice_summary>")
	assert.Contains(t, got.FullResponse, "The model forgot the tags here.")
	assert.Empty(t, got.Sources)
}

func TestParseTaggedResponseMissingSummaryTruncatesFull(t *testing.T) {
	long := strings.Repeat("advice ", 100)
	raw := "<full_response>" + long + "</full_response>"

	got := ParseTaggedResponse(raw)
	assert.True(t, strings.HasSuffix(got.VoiceSummary, "..."))
	assert.LessOrEqual(t, len(got.VoiceSummary), 303)
}

func TestParseTaggedResponsePlainText(t *testing.T) {
	got := ParseTaggedResponse("Just a plain sentence with no tags.")
	assert.Equal(t, "Just a plain sentence with no tags.", got.FullResponse)
	assert.Equal(t, "Just a plain sentence with no tags.", got.VoiceSummary)
	assert.Empty(t, got.Sources)
}

func TestParseTaggedResponseUnclosedBlockIgnored(t *testing.T) {
	raw := "<sources>UC IPM - Grapes"
	got := ParseTaggedResponse(raw)
	assert.Empty(t, got.Sources)
}

func TestParseTaggedResponseFirstOccurrenceWins(t *testing.T) {
	raw := "<voice_summary>first</voice_summary><voice_summary>second</voice_summary>" +
		"<full_response>body</full_response>"
	got := ParseTaggedResponse(raw)
	assert.Equal(t, "first", got.VoiceSummary)
}

func TestParseTaggedResponseSourceCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("<full_response>x</full_response><sources>\n")
	for i := 0; i < 40; i++ {
		b.WriteString("Source line ")
		b.WriteString(strings.Repeat("a", i+1))
		b.WriteString("\n")
	}
	b.WriteString("</sources>")

	got := ParseTaggedResponse(b.String())
	assert.Len(t, got.Sources, 20)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "abcde...", Truncate("abcdefgh", 5))
}
