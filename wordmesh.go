// Package wordmesh provides a high-level façade over the turn pipeline
// (decision resolution, policy, generation, media synthesis, assembly)
// enabling quick embedding of the word memory card engine. Most applications
// interact with this package by:
//  1. Creating a WordMesh via New() with a generation model (optionally
//     overriding stores, synthesizers and configuration)
//  2. Calling Chat() per user utterance
//
// The façade delegates turn execution to runner.Runner while keeping setup
// ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply durable stores, real
// synthesizers and a structured logger.
package wordmesh

import (
	"context"
	"time"

	"github.com/hupe1980/wordmesh/artifact"
	"github.com/hupe1980/wordmesh/assemble"
	"github.com/hupe1980/wordmesh/config"
	"github.com/hupe1980/wordmesh/core"
	"github.com/hupe1980/wordmesh/decision"
	"github.com/hupe1980/wordmesh/flow"
	"github.com/hupe1980/wordmesh/gen"
	"github.com/hupe1980/wordmesh/logging"
	"github.com/hupe1980/wordmesh/model"
	"github.com/hupe1980/wordmesh/policy"
	"github.com/hupe1980/wordmesh/runner"
	"github.com/hupe1980/wordmesh/session"
	"github.com/hupe1980/wordmesh/style"
	"github.com/hupe1980/wordmesh/synth"
)

// Options configures the WordMesh instance.
type Options struct {
	// Config parameterizes policy, styles, features and retries. Defaults
	// to config.Default().
	Config *config.Config

	// Stores (default to in-memory implementations if not provided).
	SessionStore  core.SessionStore
	ArtifactStore artifact.Store

	// Synthesizers (default to mocks producing artifact URLs, useful for
	// development without media backends).
	ImageSynthesizer  synth.ImageSynthesizer
	SpeechSynthesizer synth.SpeechSynthesizer

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// WordMesh is the high-level façade aggregating the turn pipeline and its
// services.
type WordMesh struct {
	opts      Options
	runner    *runner.Runner
	artifacts artifact.Store
}

// New creates a WordMesh around a generation model with optional overrides.
// Any unset service is initialized with an in-memory implementation.
func New(m model.Model, optFns ...func(o *Options)) *WordMesh {
	opts := Options{
		Config:        config.Default(),
		SessionStore:  session.NewInMemoryStore(),
		ArtifactStore: artifact.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.ImageSynthesizer == nil {
		opts.ImageSynthesizer = &synth.MockImageSynthesizer{URL: "artifact://dev/img"}
	}
	if opts.SpeechSynthesizer == nil {
		opts.SpeechSynthesizer = &synth.MockSpeechSynthesizer{URL: "artifact://dev/aud"}
	}

	cfg := opts.Config

	svc := gen.NewService(m, genOptions(cfg, opts.Logger))
	guard := policy.NewGuard(cfg, opts.Logger)
	styles := style.NewResolver(cfg.Defaults)
	resolver := decision.NewResolver(svc, guard, styles, cfg.Preferences, opts.Logger)
	assembler := assemble.New(svc, styles, opts.Logger)
	orch := flow.NewOrchestrator(resolver, assembler, svc, opts.ImageSynthesizer, opts.SpeechSynthesizer, guard, styles, cfg.Features, opts.Logger)

	r := runner.New(orch, func(o *runner.Options) {
		o.SessionStore = opts.SessionStore
		o.Logger = opts.Logger
	})

	return &WordMesh{opts: opts, runner: r, artifacts: opts.ArtifactStore}
}

// genOptions maps the retry, timeout, temperature and story-length settings
// of the configuration onto the generation service options.
func genOptions(cfg *config.Config, logger logging.Logger) func(o *gen.Options) {
	return func(o *gen.Options) {
		o.MaxRetries = cfg.Retry.MaxRetries
		o.RetryBaseDelay = time.Duration(cfg.Retry.BaseDelayMS) * time.Millisecond
		o.RequestTimeout = time.Duration(cfg.Model.RequestTimeoutMS) * time.Millisecond
		o.DecisionTemperature = cfg.Model.DecisionTemp
		o.CreativeTemperature = cfg.Model.MnemonicTemp
		o.MaxStoryLength = cfg.Safety.MaxStoryLengthChars
		o.Logger = logger
	}
}

// Chat runs one conversation turn for the session and returns its outcome.
// Turn options override configuration for this turn only.
func (w *WordMesh) Chat(ctx context.Context, sessionID, utterance string, optFns ...func(t *flow.TurnOptions)) (*runner.TurnResult, error) {
	return w.runner.RunTurn(ctx, sessionID, utterance, optFns...)
}

// SessionState returns a snapshot of the stored session state.
func (w *WordMesh) SessionState(ctx context.Context, sessionID string) (*core.SessionState, error) {
	return w.runner.SessionState(ctx, sessionID)
}

// Artifacts exposes the media store backing generated image and audio URLs.
func (w *WordMesh) Artifacts() artifact.Store {
	return w.artifacts
}
