package engine

import (
	"context"
	"sync"

	"github.com/deep-ag/copilot/internal/agent/model"
	logx "github.com/deep-ag/copilot/pkg/logger"
)

// fetchResults collects the outcome of one fan-out. A nil field means that
// source failed or was not requested; synthesis renders it as unavailable.
type fetchResults struct {
	weather   *model.WeatherSnapshot
	satellite *model.FieldAnalytics
	knowledge []model.SearchResult
	market    *model.MarketQuote
	gdd       *float64
	chemicals []model.ChemicalProduct
}

// wantsMarket reports whether market data is relevant to this turn.
func wantsMarket(rc model.ResolvedContext, intent model.Intent) bool {
	return intent.QuestionTypeContains("market") ||
		intent.QuestionTypeContains("general") ||
		rc.OptimizationTarget != model.OptimizeNone
}

// wantsGDD reports whether growing-degree-day accumulation is relevant.
func wantsGDD(rc model.ResolvedContext, intent model.Intent) bool {
	if rc.OptimizationTarget == model.OptimizeTime {
		return true
	}
	for _, class := range []string{"harvest", "planting", "weather"} {
		if intent.QuestionTypeContains(class) {
			return true
		}
	}
	return false
}

// wantsChemicals reports whether the label dataset should be consulted.
func wantsChemicals(rc model.ResolvedContext, intent model.Intent) bool {
	return intent.QuestionTypeContains("chemical") ||
		intent.QuestionTypeContains("pest") ||
		rc.IsRegulatory
}

// fetchAll issues the data-source calls for this turn concurrently and waits
// for all of them. Each call's failure is captured in place, logged and left
// nil, so one failing source never cancels or fails the others. The chemical
// lookup is local and synchronous.
func (e *Engine) fetchAll(ctx context.Context, query string, rc model.ResolvedContext, intent model.Intent) fetchResults {
	var (
		res fetchResults
		wg  sync.WaitGroup
	)

	run := func(source string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logx.Error().Str("source", source).Any("panic", r).
						Msg("data source panicked, treating as unavailable")
				}
			}()
			if err := fn(); err != nil {
				logx.Warn().Err(err).Str("source", source).Msg("data source failed, continuing without it")
			}
		}()
	}

	run("weather", func() error {
		w, err := e.weather.GetWeather(ctx, rc.Lat, rc.Lon)
		if err != nil {
			return err
		}
		res.weather = w
		return nil
	})

	run("satellite", func() error {
		fa, err := e.satellite.GetFieldAnalytics(ctx, rc.Lat, rc.Lon)
		if err != nil {
			return err
		}
		res.satellite = fa
		return nil
	})

	run("knowledge", func() error {
		results, err := e.knowledge.SearchKnowledge(ctx, query, rc.Crop)
		if err != nil {
			return err
		}
		res.knowledge = results
		return nil
	})

	if e.market != nil && wantsMarket(rc, intent) {
		run("market", func() error {
			quote, err := e.market.GetMarketData(ctx, rc.Crop)
			if err != nil {
				return err
			}
			res.market = quote
			return nil
		})
	}

	if wantsGDD(rc, intent) {
		run("gdd", func() error {
			gdd, err := e.weather.GetGrowingDegreeDays(ctx, rc.Lat, rc.Lon)
			if err != nil {
				return err
			}
			res.gdd = &gdd
			return nil
		})
	}

	wg.Wait()

	if e.chemicals != nil && wantsChemicals(rc, intent) {
		res.chemicals = e.chemicals.Lookup(query, rc.Crop)
	}

	return res
}
