// Command wordmesh runs the word memory card HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hupe1980/wordmesh/artifact"
	"github.com/hupe1980/wordmesh/assemble"
	"github.com/hupe1980/wordmesh/config"
	"github.com/hupe1980/wordmesh/core"
	"github.com/hupe1980/wordmesh/decision"
	"github.com/hupe1980/wordmesh/flow"
	"github.com/hupe1980/wordmesh/gen"
	"github.com/hupe1980/wordmesh/logging"
	"github.com/hupe1980/wordmesh/model"
	anthropicmodel "github.com/hupe1980/wordmesh/model/anthropic"
	geminimodel "github.com/hupe1980/wordmesh/model/gemini"
	openaimodel "github.com/hupe1980/wordmesh/model/openai"
	"github.com/hupe1980/wordmesh/policy"
	"github.com/hupe1980/wordmesh/runner"
	"github.com/hupe1980/wordmesh/server"
	"github.com/hupe1980/wordmesh/session"
	"github.com/hupe1980/wordmesh/style"
	"github.com/hupe1980/wordmesh/synth"
	openaisynth "github.com/hupe1980/wordmesh/synth/openai"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	// Local development convenience; missing .env files are fine.
	_ = godotenv.Load()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "wordmesh: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.NewSlogLogger(logLevel(cfg.Server.LogLevel), "json", false)

	sessions, closeSessions, err := newSessionStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	artifacts := artifact.NewInMemoryStore()

	m, err := newModel(context.Background(), cfg)
	if err != nil {
		return err
	}

	svc := gen.NewService(m, func(o *gen.Options) {
		o.MaxRetries = cfg.Retry.MaxRetries
		o.RetryBaseDelay = time.Duration(cfg.Retry.BaseDelayMS) * time.Millisecond
		o.RequestTimeout = time.Duration(cfg.Model.RequestTimeoutMS) * time.Millisecond
		o.DecisionTemperature = cfg.Model.DecisionTemp
		o.CreativeTemperature = cfg.Model.MnemonicTemp
		o.MaxStoryLength = cfg.Safety.MaxStoryLengthChars
		o.Logger = logger
	})

	images, speech := newSynthesizers(cfg, artifacts, logger)

	guard := policy.NewGuard(cfg, logger)
	styles := style.NewResolver(cfg.Defaults)
	resolver := decision.NewResolver(svc, guard, styles, cfg.Preferences, logger)
	assembler := assemble.New(svc, styles, logger)
	orch := flow.NewOrchestrator(resolver, assembler, svc, images, speech, guard, styles, cfg.Features, logger)

	r := runner.New(orch, func(o *runner.Options) {
		o.SessionStore = sessions
		o.Logger = logger
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.New(r, artifacts, logger).Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr, "provider", cfg.Model.Provider, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newSessionStore(cfg *config.Config, logger logging.Logger) (core.SessionStore, func(), error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		store, err := session.NewSQLiteStore(cfg.Storage.SQLitePath, session.WithSQLiteLogger(logger))
		if err != nil {
			return nil, nil, fmt.Errorf("open session store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return session.NewInMemoryStore(), func() {}, nil
	}
}

func newModel(ctx context.Context, cfg *config.Config) (model.Model, error) {
	switch cfg.Model.Provider {
	case "openai":
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			o.Model = cfg.Model.DecisionModel
			o.APIKey = cfg.Model.OpenAIAPIKey
		}), nil
	case "anthropic":
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			if cfg.Model.DecisionModel != "" {
				o.Model = cfg.Model.DecisionModel
			}
			o.APIKey = cfg.Model.AnthropicAPIKey
		}), nil
	case "gemini":
		return geminimodel.NewModel(ctx, func(o *geminimodel.Options) {
			if cfg.Model.DecisionModel != "" {
				o.Model = cfg.Model.DecisionModel
			}
			o.APIKey = cfg.Model.GeminiAPIKey
		})
	case "mock":
		return model.NewMockModel("mock"), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}

func newSynthesizers(cfg *config.Config, artifacts artifact.Store, logger logging.Logger) (synth.ImageSynthesizer, synth.SpeechSynthesizer) {
	if cfg.Model.Provider == "mock" {
		return &synth.MockImageSynthesizer{URL: "artifact://mock/img"}, &synth.MockSpeechSynthesizer{URL: "artifact://mock/aud"}
	}
	s := openaisynth.New(artifacts, func(o *openaisynth.Options) {
		o.APIKey = cfg.Model.OpenAIAPIKey
		o.Logger = logger
	})
	return s, s
}

func logLevel(s string) logging.LogLevel {
	switch s {
	case "debug":
		return logging.LogLevelDebug
	case "warn":
		return logging.LogLevelWarn
	case "error":
		return logging.LogLevelError
	default:
		return logging.LogLevelInfo
	}
}
