// Package policy applies feature flags and safety constraints to a raw
// decision. The guard mutates need-flags and styles in place before routing
// begins; violations are never surfaced as errors, only reflected in the
// decision's reason string.
package policy

import (
	"fmt"
	"strings"

	"github.com/hupe1980/wordmesh/config"
	"github.com/hupe1980/wordmesh/core"
	"github.com/hupe1980/wordmesh/logging"
)

// Reason annotations appended by guard rules. They surface in the status
// block of the final result, so the wording is user facing.
const (
	noteImageDisabled     = " (系统设置已关闭图片生成)"
	noteAudioDisabled     = " (系统设置已关闭语音生成)"
	noteAggressiveLimited = " (安全策略限制，降级为dark)"
	noteDarkLimited       = " (安全策略限制，降级为light)"
	noteProfileLimited    = " (攻击性风格未开放，已回退)"
	noteEasySkipImage     = " [Strategy:简单词汇强制跳过配图]"

	// reasonUnknownWord replaces the whole reason when the difficulty circuit
	// breaker trips.
	reasonUnknownWord = "系统无法识别该输入为有效单词，或难度判定失败，停止生成。"
)

func noteForcedImage(d core.Difficulty) string {
	return fmt.Sprintf(" [Strategy:监测到%s难词，自动补充配图]", d)
}

// Snapshot carries the session facts the guard rules consult.
type Snapshot struct {
	// HadImage reports whether the session already carried an image before
	// this turn; a mnemonic refresh then also refreshes the image.
	HadImage bool
	// UserImagePref is the user's long-term image preference, used as the
	// style fallback when a rule forces an image the model did not style.
	UserImagePref *core.ImageStyle
}

// Guard enforces configuration policy on decisions.
type Guard struct {
	features config.FeatureFlags
	safety   config.SafetyConfig
	defaults config.DefaultStyles
	logger   logging.Logger
}

// NewGuard creates a guard over the given configuration.
func NewGuard(cfg *config.Config, logger logging.Logger) *Guard {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Guard{
		features: cfg.Features,
		safety:   cfg.Safety,
		defaults: cfg.Defaults,
		logger:   logger,
	}
}

// WithFeatures returns a guard enforcing the same safety and defaults under
// different feature flags. Used for per-turn overrides.
func (g *Guard) WithFeatures(features config.FeatureFlags) *Guard {
	ng := *g
	ng.features = features
	return &ng
}

// Apply runs every policy rule against the decision, in order: the forced
// mnemonic invariant, feature gating, the safety downgrade, the difficulty
// policy and the mnemonic refresh side effect.
func (g *Guard) Apply(d *core.Decision, snap Snapshot) {
	g.forceMnemonicForNewWord(d)
	g.gateFeatures(d)
	g.downgradeAggressive(d)
	g.applyDifficultyPolicy(d, snap)
	g.syncMediaWithMnemonic(d, snap)
}

// forceMnemonicForNewWord upholds the invariant that a new word always gets
// a mnemonic, regardless of what the model decided.
func (g *Guard) forceMnemonicForNewWord(d *core.Decision) {
	if d.Intent == core.IntentNewWord {
		d.NeedNewMnemonic = true
	}
}

func (g *Guard) gateFeatures(d *core.Decision) {
	if d.NeedNewImage && !g.features.EnableImageGeneration {
		d.NeedNewImage = false
		d.ImageStyle = nil
		d.Reason += noteImageDisabled
		g.logger.Debug("image generation gated off", "intent", d.Intent)
	}
	if d.NeedNewAudio && !g.features.EnableTTSGeneration {
		d.NeedNewAudio = false
		d.VoiceStyle = nil
		d.Reason += noteAudioDisabled
		g.logger.Debug("audio generation gated off", "intent", d.Intent)
	}
}

// downgradeAggressive runs the humor downgrade before the profile fallback;
// the downgrade keys off the aggressive profile, so clearing the profile
// first would let an aggressive humor override through untouched.
func (g *Guard) downgradeAggressive(d *core.Decision) {
	if d.StyleProfileID == core.StyleProfileAggressive && !g.safety.AllowStrongAggressive {
		if d.MnemonicStyle != nil && d.MnemonicStyle.Humor == core.HumorAggressive {
			d.MnemonicStyle.Humor = core.HumorDark
			d.Reason += noteAggressiveLimited
		}
	}
	if d.StyleProfileID == core.StyleProfileAggressive && !g.features.EnableAggressiveStyle {
		d.StyleProfileID = ""
		d.Reason += noteProfileLimited
	}
	if !g.safety.AllowDarkHumor && d.MnemonicStyle != nil && d.MnemonicStyle.Humor == core.HumorDark {
		d.MnemonicStyle.Humor = core.HumorLight
		d.Reason += noteDarkLimited
	}
}

// applyDifficultyPolicy runs only for new words: unknown difficulty trips the
// circuit breaker, medium and hard words get a forced illustration, easy
// words get their illustration stripped.
func (g *Guard) applyDifficultyPolicy(d *core.Decision, snap Snapshot) {
	if d.Intent != core.IntentNewWord {
		return
	}
	switch d.Difficulty {
	case core.DifficultyUnknown:
		d.Intent = core.IntentOutOfScope
		d.NeedNewMnemonic = false
		d.NeedNewImage = false
		d.NeedNewAudio = false
		d.Reason = reasonUnknownWord
	case core.DifficultyMedium, core.DifficultyHard:
		if g.features.EnableImageGeneration && !d.NeedNewImage {
			d.NeedNewImage = true
			d.Reason += noteForcedImage(d.Difficulty)
			g.fillImageStyle(d, snap)
		}
	case core.DifficultyEasy:
		if d.NeedNewImage {
			d.NeedNewImage = false
			d.ImageStyle = nil
			d.Reason += noteEasySkipImage
		}
	}
}

// syncMediaWithMnemonic keeps media consistent when the mnemonic text is
// regenerated: the narration always refreshes, and an already-illustrated
// card gets a fresh image to match the new story.
func (g *Guard) syncMediaWithMnemonic(d *core.Decision, snap Snapshot) {
	if !d.NeedNewMnemonic {
		return
	}
	if g.features.EnableTTSGeneration {
		d.NeedNewAudio = true
	}
	if g.features.EnableImageGeneration && (snap.HadImage || d.NeedNewImage) {
		d.NeedNewImage = true
		g.fillImageStyle(d, snap)
	}
}

func (g *Guard) fillImageStyle(d *core.Decision, snap Snapshot) {
	if d.ImageStyle != nil {
		return
	}
	if snap.UserImagePref != nil {
		d.ImageStyle = snap.UserImagePref.Clone()
		return
	}
	d.ImageStyle = g.defaults.NewImageStyle()
}

// DowngradeVoice enforces the premium voice entitlement on a planned preset
// id. Expressive presets fall back to the standard neutral voice when premium
// voices are not enabled.
func (g *Guard) DowngradeVoice(presetID string) string {
	if g.features.EnablePremiumVoices {
		return presetID
	}
	if strings.Contains(presetID, "dynamic") || strings.Contains(presetID, "expressive") {
		g.logger.Info("premium voice downgraded", "preset_id", presetID)
		return "standard_neutral"
	}
	return presetID
}
