// Package decision resolves the turn decision: it obtains the raw decision
// from the generation service, runs it through the policy guard and applies
// the observable session side effects before routing begins.
package decision

import (
	"context"
	"fmt"

	"github.com/hupe1980/wordmesh/config"
	"github.com/hupe1980/wordmesh/core"
	"github.com/hupe1980/wordmesh/gen"
	"github.com/hupe1980/wordmesh/logging"
	"github.com/hupe1980/wordmesh/policy"
	"github.com/hupe1980/wordmesh/style"
)

// Resolver turns one user utterance into a policy-checked Decision and
// applies its side effects to session state. A resolver failure is fatal for
// the turn; callers surface it as a request error.
type Resolver struct {
	gen    gen.Service
	guard  *policy.Guard
	styles *style.Resolver
	prefs  config.PreferenceConfig
	logger logging.Logger
}

// NewResolver wires a resolver from its collaborators.
func NewResolver(g gen.Service, guard *policy.Guard, styles *style.Resolver, prefs config.PreferenceConfig, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Resolver{gen: g, guard: guard, styles: styles, prefs: prefs, logger: logger}
}

// WithGuard returns a resolver using a different policy guard, leaving the
// other collaborators shared. Used for per-turn feature overrides.
func (r *Resolver) WithGuard(guard *policy.Guard) *Resolver {
	nr := *r
	nr.guard = guard
	return &nr
}

// Resolve produces the decision for an utterance and installs it in state.
//
// After it returns without error, state carries: the decision, the
// last-decision snapshot, the resolved word, the active style profile and
// (for session-scoped turns) updated long-term preferences. Routing reads
// only the returned decision.
func (r *Resolver) Resolve(ctx context.Context, state *core.SessionState, utterance string) (*core.Decision, error) {
	snapshot := state.Snapshot()
	// The prompt context always names a concrete profile so the model can
	// decide whether the user is switching away from it.
	snapshot.StyleProfileID = r.styles.Profile("", snapshot.StyleProfileID)

	d, err := r.gen.Decide(ctx, snapshot, utterance)
	if err != nil {
		return nil, fmt.Errorf("resolve decision: %w", err)
	}

	r.guard.Apply(d, policy.Snapshot{
		HadImage:      snapshot.ImageURL != "",
		UserImagePref: snapshot.UserImagePref,
	})

	resolvedWord := d.Word
	if resolvedWord == "" {
		resolvedWord = snapshot.Word
	}
	profile := r.styles.Profile(d.StyleProfileID, snapshot.StyleProfileID)

	state.ApplyDecision(d, resolvedWord, profile)
	if d.Scope == core.ScopeSessionDefault && r.prefs.AllowUpdatePreferences {
		state.AdoptPreferences(d, r.prefs.MaxPreferenceHistory)
	}

	r.logger.Info("decision resolved",
		"intent", d.Intent,
		"word", resolvedWord,
		"difficulty", d.Difficulty,
		"need_mnemonic", d.NeedNewMnemonic,
		"need_image", d.NeedNewImage,
		"need_audio", d.NeedNewAudio,
		"audio_flow", d.AudioFlow,
		"scope", d.Scope,
	)
	return d, nil
}
