package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/deep-ag/copilot/internal/agent/model"
	"github.com/deep-ag/copilot/internal/agent/parsers"
	logx "github.com/deep-ag/copilot/pkg/logger"
)

// historyTurns is how many recent conversation entries feed the prompt.
const historyTurns = 3

// synthesize formats the fetched data into context blocks, invokes the
// generator and parses the tagged output. A generation failure degrades to a
// deterministic answer built from the same blocks, never an error.
func (e *Engine) synthesize(ctx context.Context, query string, rc model.ResolvedContext, res fetchResults, sess *model.SessionState) parsers.TaggedResponse {
	weatherBlock := formatWeather(res.weather)
	if res.gdd != nil {
		weatherBlock += fmt.Sprintf("\nGrowing Degree Days (GDD): %.1f", *res.gdd)
	}
	satelliteBlock := formatSatellite(res.satellite)
	ragBlock := formatKnowledge(res.knowledge)

	prompt := buildPrompt(query, rc.Crop, sess, promptBlocks{
		weather:   weatherBlock,
		satellite: satelliteBlock,
		rag:       ragBlock,
		market:    formatMarket(res.market),
		chemical:  formatChemicals(res.chemicals),
	})

	raw, err := e.generator.Generate(ctx, e.responseSystem, prompt)
	if err != nil {
		logx.Warn().Err(err).Msg("generation failed, building deterministic fallback")
		return fallbackResponse(rc.Crop, weatherBlock, satelliteBlock, ragBlock)
	}

	return parsers.ParseTaggedResponse(raw)
}

type promptBlocks struct {
	weather   string
	satellite string
	rag       string
	market    string
	chemical  string
}

func buildPrompt(query, crop string, sess *model.SessionState, blocks promptBlocks) string {
	history := sess.History
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	var hb strings.Builder
	for _, msg := range history {
		role := "Advisor"
		if msg.Role == "user" {
			role = "Farmer"
		}
		hb.WriteString(role + ": " + msg.Content + "\n")
	}
	historyText := hb.String()
	if historyText == "" {
		historyText = "No previous context.\n"
	}

	var b strings.Builder
	b.WriteString("CROP: " + crop + "\n")
	b.WriteString("HISTORY:\n" + historyText + "\n")
	b.WriteString("LONG-TERM MEMORY:\n" + sess.MemorySummary() + "\n\n")
	b.WriteString("CURRENT QUESTION: " + query + "\n\n")
	b.WriteString("WEATHER (Current & Forecast):\n" + blocks.weather + "\n\n")
	b.WriteString("SATELLITE (Field Health):\n" + blocks.satellite + "\n\n")
	b.WriteString("MARKET:\n" + blocks.market + "\n\n")
	b.WriteString("CHEMICAL LABELS:\n" + blocks.chemical + "\n\n")
	b.WriteString("RESEARCH (Guidelines):\n" + blocks.rag + "\n")
	return b.String()
}

// formatWeather renders the weather snapshot, appending a multi-day
// precipitation summary when forecast data exists: total accumulation, count
// of wet days, and up to 3 example day/amount pairs.
func formatWeather(w *model.WeatherSnapshot) string {
	if w == nil {
		return "Weather unavailable."
	}

	base := fmt.Sprintf(
		"Temp: %.1fC, Hum: %.0f%%, Wind: %.1fkmh, Current Precip: %.1fmm, Soil(0-7cm): %.2f, Soil(28-100cm): %.2f, ETo: %.2fmm, SprayRisk: %s, FungalRisk: %s",
		w.TemperatureC, w.RelativeHumidity, w.WindSpeedKMH, w.PrecipitationMM,
		w.SoilMoisture0To7CM, w.SoilMoisture28To100CM, w.ReferenceEvapotranspiration,
		w.SprayDriftRisk, w.FungalRisk,
	)

	if len(w.Forecast) == 0 {
		return base
	}

	var (
		total     float64
		rainyDays int
		examples  []string
	)
	for _, day := range w.Forecast {
		total += day.PrecipitationSum
		if day.PrecipitationSum > 0 {
			rainyDays++
			if len(examples) < 3 {
				examples = append(examples, fmt.Sprintf("%s: %.1fmm", day.Date, day.PrecipitationSum))
			}
		}
	}
	summary := fmt.Sprintf(" | 7-Day Forecast: %.1fmm total, %d rainy days", total, rainyDays)
	if len(examples) > 0 {
		summary += " (" + strings.Join(examples, ", ") + ")"
	}
	return base + summary
}

func formatSatellite(s *model.FieldAnalytics) string {
	if s == nil {
		return "Satellite unavailable."
	}
	return fmt.Sprintf("NDVI: %.2f, WaterStress: %s, Health: %s",
		s.NDVICurrent, s.WaterStressLevel, s.RelativePerformance)
}

func formatKnowledge(results []model.SearchResult) string {
	if len(results) == 0 {
		return "No research found."
	}
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("- %s [Source: %s]", r.Text, r.Source))
	}
	return strings.Join(lines, "\n")
}

func formatMarket(m *model.MarketQuote) string {
	if m == nil || !m.Available {
		return "Market unavailable."
	}
	return fmt.Sprintf("%s: $%.2f / %s (Trend: %s)", m.Commodity, m.Price, m.Unit, m.Trend)
}

func formatChemicals(chems []model.ChemicalProduct) string {
	if len(chems) == 0 {
		return "No chemicals found."
	}
	lines := make([]string, 0, len(chems))
	for _, c := range chems {
		lines = append(lines, fmt.Sprintf("- %s (%s) Rate: %s REI: %s", c.ProductName, c.ActiveIngredient, c.Rate, c.REI))
	}
	return strings.Join(lines, "\n")
}

// fallbackResponse assembles a deterministic answer straight from the
// fetched data when generation is unavailable. No information is lost, only
// the prose quality.
func fallbackResponse(crop, weatherBlock, satelliteBlock, ragBlock string) parsers.TaggedResponse {
	if crop == "" || crop == model.CropUnknown {
		crop = "your crop"
	}
	summary := fmt.Sprintf(
		"I've pulled the live field data for %s. The AI advisor is temporarily unreachable, so here is the raw picture: conditions and satellite readings below are current and actionable.",
		crop,
	)
	full := strings.Join([]string{
		"Field Analysis (Live Data)",
		"",
		"Weather Conditions: " + weatherBlock,
		"Satellite Telemetry: " + satelliteBlock,
		"Research Context: " + parsers.Truncate(ragBlock, 300),
		"",
		"Note: AI reasoning is currently limited due to connectivity, but the data above is real and current.",
	}, "\n")

	return parsers.TaggedResponse{
		VoiceSummary: summary,
		FullResponse: full,
	}
}

// mergeSources unions model-cited sources with the names already present in
// the knowledge results, preserving first-seen order and dropping duplicates.
func mergeSources(cited []string, results []model.SearchResult) []string {
	seen := make(map[string]struct{}, len(cited)+len(results))
	merged := make([]string, 0, len(cited)+len(results))
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		merged = append(merged, name)
	}
	for _, name := range cited {
		add(name)
	}
	for _, r := range results {
		add(r.Source)
	}
	return merged
}
