package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/deep-ag/copilot/internal/agent/chemical"
	"github.com/deep-ag/copilot/internal/agent/engine"
	"github.com/deep-ag/copilot/internal/agent/llm"
	"github.com/deep-ag/copilot/internal/agent/model"
	"github.com/deep-ag/copilot/internal/agent/session"
	"github.com/deep-ag/copilot/internal/api"
	"github.com/deep-ag/copilot/internal/core"
	"github.com/deep-ag/copilot/internal/providers/geocoding"
	"github.com/deep-ag/copilot/internal/providers/knowledge"
	"github.com/deep-ag/copilot/internal/providers/market"
	"github.com/deep-ag/copilot/internal/providers/satellite"
	"github.com/deep-ag/copilot/internal/providers/weather"
	logx "github.com/deep-ag/copilot/pkg/logger"
	pkgredis "github.com/deep-ag/copilot/pkg/redis"
)

// AppConfig defines all configurable parameters for the service, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Env  string `envconfig:"APP_ENV" default:"development"`

	// Infrastructure. Redis is optional: without REDIS_URL the service keeps
	// sessions in process memory.
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Session  model.SessionConfig
	Intent   model.IntentModelConfig
	Response model.ResponseModelConfig
	Prompt   model.PromptConfig
	Region   model.RegionConfig

	// Data sources
	Weather   weather.Config
	Geocode   geocoding.Config
	Knowledge knowledge.Config
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		logx.Info().Msg("no .env file found, using environment variables")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("failed to process environment config")
	}

	env := core.ParseEnvironment(cfg.Env)
	logx.Init(logx.LoggerOpts{Environment: env})
	logx.Info().Str("env", env.String()).Str("port", cfg.Port).Msg("starting deep-ag copilot")

	ttl, err := time.ParseDuration(cfg.Session.TTL)
	if err != nil {
		logx.Fatal().Err(err).Str("ttl", cfg.Session.TTL).Msg("invalid SESSION_TTL")
	}

	var store model.SessionStore
	if cfg.Redis.URL != "" {
		rdb, err := cfg.Redis.New()
		if err != nil {
			logx.Fatal().Err(err).Msg("failed to initialise Redis client")
		}
		defer rdb.Close()
		store = session.NewRedisStore(rdb, ttl)
		logx.Info().Msg("session store: redis")
	} else {
		store = session.NewMemoryStore()
		logx.Warn().Msg("REDIS_URL not set, session store: in-memory")
	}

	llmClient, err := llm.New(ctx, llm.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		IntentConfig:   cfg.Intent,
		ResponseConfig: cfg.Response,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise LLM client")
	}

	chemicals, err := chemical.Load()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to load chemical dataset")
	}

	eng, err := engine.New(ctx, engine.Deps{
		Store:     store,
		Extractor: llmClient,
		Generator: llmClient,
		Geocoder:  geocoding.New(cfg.Geocode),
		Weather:   weather.New(cfg.Weather),
		Satellite: satellite.New(),
		Knowledge: knowledge.New(cfg.Knowledge),
		Market:    market.New(),
		Chemicals: chemicals,
		Region:    cfg.Region,
		Prompt:    cfg.Prompt,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build engine")
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	api.NewHandler(eng).RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logx.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-runCtx.Done()
	stop()
	logx.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("forced shutdown")
	}
	logx.Info().Msg("server stopped")
}
