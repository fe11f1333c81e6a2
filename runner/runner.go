// Package runner executes conversation turns against stored session state.
//
// The Runner is the write path of the system: it loads the session, runs
// one orchestrated turn, and persists the mutated state. Turns on the same
// session are serialized; turns on different sessions run concurrently.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/wordmesh/core"
	"github.com/hupe1980/wordmesh/flow"
	"github.com/hupe1980/wordmesh/logging"
	"github.com/hupe1980/wordmesh/session"
)

// Options holds dependency overrides passed to New().
type Options struct {
	// SessionStore persists state between turns.
	SessionStore core.SessionStore
	// Logger receives turn lifecycle logs.
	Logger logging.Logger
}

// TurnResult is the caller-facing outcome of one conversation turn.
type TurnResult struct {
	// TurnID uniquely identifies the turn for tracing.
	TurnID string `json:"turn_id"`
	// SessionID is the session the turn ran against.
	SessionID string `json:"session_id"`
	// ReplyText is the conversational reply, always present.
	ReplyText string `json:"reply_text"`
	// FinalOutput is the assembled card, nil for conversational turns.
	FinalOutput *core.WordMemoryResult `json:"final_output,omitempty"`
	// Duration is the wall time of the full turn.
	Duration time.Duration `json:"duration"`
}

// Runner serializes turns per session and persists state around each turn.
// Public methods are safe for concurrent use.
type Runner struct {
	orchestrator *flow.Orchestrator
	sessionStore core.SessionStore
	logger       logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs a Runner with optional overrides.
func New(orchestrator *flow.Orchestrator, optFns ...func(o *Options)) *Runner {
	opts := Options{
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		orchestrator: orchestrator,
		sessionStore: opts.SessionStore,
		logger:       opts.Logger,
		locks:        make(map[string]*sync.Mutex),
	}
}

// RunTurn executes one turn for the session: load, orchestrate, persist.
// Concurrent turns on the same session block until the earlier one has
// been persisted. Turn options override configuration for this turn only.
func (r *Runner) RunTurn(ctx context.Context, sessionID, utterance string, optFns ...func(t *flow.TurnOptions)) (*TurnResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id must not be empty")
	}

	turnID := uuid.NewString()
	start := time.Now()

	lock := r.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := r.sessionStore.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	r.logger.Debug("turn started", "session_id", sessionID, "turn_id", turnID)

	if err := r.orchestrator.RunTurn(ctx, state, utterance, optFns...); err != nil {
		r.logger.Error("turn failed", "session_id", sessionID, "turn_id", turnID, "error", err)
		return nil, err
	}

	if err := r.sessionStore.Put(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	result := &TurnResult{
		TurnID:      turnID,
		SessionID:   sessionID,
		ReplyText:   state.ReplyText,
		FinalOutput: state.FinalOutput,
		Duration:    time.Since(start),
	}

	r.logger.Info("turn completed", "session_id", sessionID, "turn_id", turnID, "duration", result.Duration)

	return result, nil
}

// SessionState returns a read-only snapshot of the stored session state.
func (r *Runner) SessionState(ctx context.Context, sessionID string) (*core.SessionState, error) {
	return r.sessionStore.Get(ctx, sessionID)
}

// sessionLock returns the mutex guarding turns for the session, creating
// it on first use. Lock entries live for the process lifetime.
func (r *Runner) sessionLock(sessionID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[sessionID] = lock
	}
	return lock
}
