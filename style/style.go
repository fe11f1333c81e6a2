// Package style resolves the effective style record for each dimension of a
// turn. Resolution is uniform across dimensions and strictly tiered: the
// per-turn decision override wins, then the user's long-term preference, then
// the configured system default. A record is taken whole from exactly one
// tier; fields are never merged across tiers.
//
// All functions are pure and return fresh copies, so callers may mutate the
// result without affecting the decision or the session state.
package style

import (
	"github.com/hupe1980/wordmesh/config"
	"github.com/hupe1980/wordmesh/core"
)

// Resolver binds the system-default tier. The override and preference tiers
// arrive per call.
type Resolver struct {
	defaults config.DefaultStyles
}

// NewResolver creates a resolver over the configured defaults.
func NewResolver(defaults config.DefaultStyles) *Resolver {
	return &Resolver{defaults: defaults}
}

// Mnemonic resolves the mnemonic style for a turn.
func (r *Resolver) Mnemonic(override, pref *core.MnemonicStyle) *core.MnemonicStyle {
	if override != nil {
		return override.Clone()
	}
	if pref != nil {
		return pref.Clone()
	}
	return r.defaults.NewMnemonicStyle()
}

// Image resolves the image style for a turn.
func (r *Resolver) Image(override, pref *core.ImageStyle) *core.ImageStyle {
	if override != nil {
		return override.Clone()
	}
	if pref != nil {
		return pref.Clone()
	}
	return r.defaults.NewImageStyle()
}

// Voice resolves the voice style for a turn.
func (r *Resolver) Voice(override, pref *core.VoiceStyle) *core.VoiceStyle {
	if override != nil {
		return override.Clone()
	}
	if pref != nil {
		return pref.Clone()
	}
	return r.defaults.NewVoiceStyle()
}

// Profile resolves the active style profile id: the decision's explicit
// choice, else the session's current profile, else the configured default.
func (r *Resolver) Profile(decided, current core.StyleProfileID) core.StyleProfileID {
	if decided != "" {
		return decided
	}
	if current != "" {
		return current
	}
	return r.defaults.StyleProfileID
}
