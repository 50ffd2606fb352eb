// Package engine orchestrates one advisory turn: intent extraction, context
// resolution, the clarifying-question gate, concurrent data fetch and
// response synthesis.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/deep-ag/copilot/internal/agent/model"
	"github.com/deep-ag/copilot/internal/agent/prompts"
	logx "github.com/deep-ag/copilot/pkg/logger"
)

const refusalFormat = "I specialize in agricultural advice for %s only. Please ask me about crops, weather, regulations, pests, or market data."

// Deps are the collaborators the engine is assembled from. All fields are
// required except Market and Chemicals, which degrade to "unavailable" and
// "no matches" when absent.
type Deps struct {
	Store     model.SessionStore
	Extractor model.IntentExtractor
	Generator model.TextGenerator
	Geocoder  model.Geocoder
	Weather   model.WeatherProvider
	Satellite model.FieldAnalyticsProvider
	Knowledge model.KnowledgeSearcher
	Market    model.MarketProvider
	Chemicals model.ChemicalLookup

	Region model.RegionConfig
	Prompt model.PromptConfig
}

// Engine runs the query pipeline. Safe for concurrent use; per-session
// serialization is the store's responsibility.
type Engine struct {
	store     model.SessionStore
	extractor model.IntentExtractor
	generator model.TextGenerator
	geocoder  model.Geocoder
	weather   model.WeatherProvider
	satellite model.FieldAnalyticsProvider
	knowledge model.KnowledgeSearcher
	market    model.MarketProvider
	chemicals model.ChemicalLookup

	region         model.RegionConfig
	responseSystem string
}

// New validates the dependency set and pre-renders the advisory system
// prompt.
func New(ctx context.Context, deps Deps) (*Engine, error) {
	switch {
	case deps.Store == nil:
		return nil, fmt.Errorf("engine: session store is required")
	case deps.Extractor == nil:
		return nil, fmt.Errorf("engine: intent extractor is required")
	case deps.Generator == nil:
		return nil, fmt.Errorf("engine: text generator is required")
	case deps.Geocoder == nil:
		return nil, fmt.Errorf("engine: geocoder is required")
	case deps.Weather == nil:
		return nil, fmt.Errorf("engine: weather provider is required")
	case deps.Satellite == nil:
		return nil, fmt.Errorf("engine: field analytics provider is required")
	case deps.Knowledge == nil:
		return nil, fmt.Errorf("engine: knowledge searcher is required")
	}

	responseSystem, err := prompts.RenderResponseSystem(ctx, deps.Prompt)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	return &Engine{
		store:          deps.Store,
		extractor:      deps.Extractor,
		generator:      deps.Generator,
		geocoder:       deps.Geocoder,
		weather:        deps.Weather,
		satellite:      deps.Satellite,
		knowledge:      deps.Knowledge,
		market:         deps.Market,
		chemicals:      deps.Chemicals,
		region:         deps.Region,
		responseSystem: responseSystem,
	}, nil
}

// ProcessQuery runs one complete advisory turn. It only errors on session
// store failures; every data source failure degrades into a partial answer.
func (e *Engine) ProcessQuery(ctx context.Context, req model.QueryRequest) (*model.AgentResponse, error) {
	start := time.Now()

	sess, err := e.store.Get(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", req.SessionID, err)
	}

	intent := e.extractor.ExtractIntent(ctx, req.Query)
	logx.Info().
		Str("session_id", req.SessionID).
		Str("question_type", intent.QuestionType).
		Str("crop", intent.Crop).
		Bool("agricultural", intent.IsAgricultural).
		Msg("intent extracted")

	if !intent.IsAgricultural {
		return e.refusalResponse(req, start), nil
	}

	rc := e.resolveContext(ctx, req, intent, sess)

	if question := evaluateGate(rc, intent); question != "" {
		logx.Info().Str("session_id", req.SessionID).Msg("asking clarifying question")
		return e.askResponse(req, intent, question, start), nil
	}

	if rc.Crop != model.CropUnknown && rc.Crop != sess.Crop {
		if err := e.store.UpdateContext(ctx, req.SessionID, model.ContextUpdate{Crop: rc.Crop}); err != nil {
			logx.Warn().Err(err).Str("session_id", req.SessionID).Msg("crop write-back failed")
		}
	}

	rc = e.applyLocationDefault(rc)

	res := e.fetchAll(ctx, req.Query, rc, intent)

	tagged := e.synthesize(ctx, req.Query, rc, res, sess)

	e.persistTurn(ctx, req.SessionID, req.Query, tagged.VoiceSummary)

	lat, lon := rc.Lat, rc.Lon
	return &model.AgentResponse{
		VoiceResponse:   tagged.VoiceSummary,
		VoiceSummary:    tagged.VoiceSummary,
		FullResponse:    tagged.FullResponse,
		Sources:         mergeSources(tagged.Sources, res.knowledge),
		WeatherData:     res.weather,
		SatelliteData:   res.satellite,
		RAGResults:      ensureResults(res.knowledge),
		MarketData:      res.market,
		ChemicalData:    res.chemicals,
		Crop:            rc.Crop,
		LocationAddress: rc.DisplayAddress,
		Lat:             &lat,
		Lon:             &lon,
		Query:           req.Query,
		Timestamp:       time.Now().UTC(),
		ProcessingMS:    time.Since(start).Milliseconds(),
	}, nil
}

// Reset discards the stored session state.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	return e.store.Clear(ctx, sessionID)
}

// refusalResponse declines a non-agricultural query without touching session
// state or data sources.
func (e *Engine) refusalResponse(req model.QueryRequest, start time.Time) *model.AgentResponse {
	text := fmt.Sprintf(refusalFormat, e.region.Label)
	zero := 0.0
	return &model.AgentResponse{
		VoiceResponse:   text,
		VoiceSummary:    text,
		FullResponse:    text,
		Sources:         []string{},
		RAGResults:      []model.SearchResult{},
		Crop:            "N/A",
		LocationAddress: "N/A",
		Lat:             &zero,
		Lon:             &zero,
		Query:           req.Query,
		Timestamp:       time.Now().UTC(),
		ProcessingMS:    time.Since(start).Milliseconds(),
	}
}

// askResponse returns a clarifying question. The turn is deliberately not
// appended to history so the follow-up answer reads as a direct continuation
// of the original question.
func (e *Engine) askResponse(req model.QueryRequest, intent model.Intent, question string, start time.Time) *model.AgentResponse {
	question = ensureQuestionMark(question)
	return &model.AgentResponse{
		VoiceResponse: question,
		VoiceSummary:  question,
		FullResponse:  question,
		Sources:       []string{},
		RAGResults:    []model.SearchResult{},
		Crop:          intent.Crop,
		Query:         "",
		Timestamp:     time.Now().UTC(),
		ProcessingMS:  time.Since(start).Milliseconds(),
	}
}

// persistTurn records the exchange and updates long-term memory. Store
// failures are logged, not propagated: the answer is already computed.
func (e *Engine) persistTurn(ctx context.Context, sessionID, query, summary string) {
	if err := e.store.AppendMessage(ctx, sessionID, "user", query); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("history append (user) failed")
		return
	}
	if err := e.store.AppendMessage(ctx, sessionID, "assistant", summary); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("history append (assistant) failed")
		return
	}
	if err := e.store.UpdateMemory(ctx, sessionID, query, summary); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("memory update failed")
	}
}

func ensureResults(results []model.SearchResult) []model.SearchResult {
	if results == nil {
		return []model.SearchResult{}
	}
	return results
}
