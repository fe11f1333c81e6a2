// Package assemble builds the terminal WordMemoryResult of a turn from
// whatever partial results the stages produced, substituting explicit
// placeholders for anything missing. Assembly is deterministic: the same
// state snapshot always yields the same result.
package assemble

import (
	"context"
	"fmt"

	"github.com/hupe1980/wordmesh/core"
	"github.com/hupe1980/wordmesh/gen"
	"github.com/hupe1980/wordmesh/logging"
	"github.com/hupe1980/wordmesh/style"
)

// Placeholder strings for degraded word blocks.
const (
	placeholderMnemonic = "生成中..."
	placeholderStory    = "暂无故事"
	placeholderMeaning  = "暂无释义"
)

// Assembler merges session state into the final output record and writes the
// persona reply line.
type Assembler struct {
	gen    gen.Service
	styles *style.Resolver
	logger logging.Logger
}

// New creates an assembler.
func New(g gen.Service, styles *style.Resolver, logger logging.Logger) *Assembler {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Assembler{gen: g, styles: styles, logger: logger}
}

// Assemble produces the reply text and, unless the turn was conversational
// only, the structured result. It reads the snapshot and mutates nothing;
// callers install the output into session state.
//
// Reply generation is best effort: if the model call fails, a fixed template
// reply is used instead. A turn never fails during assembly.
func (a *Assembler) Assemble(ctx context.Context, snap *core.SessionState) (string, *core.WordMemoryResult) {
	d := snap.Decision

	intent := core.IntentUnknown
	if d != nil {
		intent = d.Intent
	}
	word := snap.Word
	if d != nil && d.Word != "" {
		word = d.Word
	}
	if word == "" {
		word = "unknown"
	}
	profile := a.styles.Profile("", snap.StyleProfileID)

	reply, err := a.gen.Reply(ctx, intent, word, profile)
	if err != nil {
		a.logger.Warn("reply generation failed, using template", "intent", intent, "error", err)
		reply = fallbackReply(intent, word)
	}

	// Conversational turns carry no card payload.
	if intent == core.IntentOutOfScope || intent == core.IntentSmallTalk {
		return reply, nil
	}

	return reply, buildResult(snap, d, intent, word)
}

func buildResult(snap *core.SessionState, d *core.Decision, intent core.Intent, word string) *core.WordMemoryResult {
	result := &core.WordMemoryResult{
		Type:   core.ResultTypeWordMemory,
		Intent: intent,
	}

	// Word block: prefer the structured mnemonic-stage output; otherwise
	// degrade from the flat session fields with placeholders.
	if snap.WordBlockPartial != nil {
		result.WordBlock = *snap.WordBlockPartial
	} else {
		result.WordBlock = core.WordBlock{
			Word:      word,
			Homophone: core.Homophone{Text: valueOr(snap.Mnemonic, placeholderMnemonic)},
			Story:     valueOr(snap.SceneText, placeholderStory),
			Meaning:   core.Meaning{POS: "unknown", CN: valueOr(snap.Meaning, placeholderMeaning)},
		}
	}

	// UpdatedAt comes from the state's own timestamp so reassembling the
	// same snapshot yields an identical record.
	if snap.ImageURL != "" {
		imgStyle, imgMood := core.ImageStyleComic, core.MoodFunny
		if d != nil && d.ImageStyle != nil {
			if d.ImageStyle.Style != "" && d.ImageStyle.Style != core.ImageStyleNone {
				imgStyle = d.ImageStyle.Style
			}
			if d.ImageStyle.Mood != "" {
				imgMood = d.ImageStyle.Mood
			}
		}
		result.Media.Image = &core.ImageMedia{
			URL:       snap.ImageURL,
			Style:     imgStyle,
			Mood:      imgMood,
			UpdatedAt: snap.Updated,
		}
	}
	if snap.AudioURL != "" {
		result.Media.Audio = &core.AudioMedia{
			URL:            snap.AudioURL,
			VoiceProfileID: snap.AudioVoiceProfileID,
			DurationSec:    0.0,
			UpdatedAt:      snap.Updated,
		}
	}

	result.Styles = core.StylesBlock{StyleProfileID: snap.StyleProfileID}
	if d != nil {
		result.Styles.MnemonicStyle = d.MnemonicStyle.Clone()
		result.Styles.ImageStyle = d.ImageStyle.Clone()
		result.Styles.VoiceStyle = d.VoiceStyle.Clone()
	}

	status := core.StatusBlock{
		IsFirstTime:  false,
		Intent:       intent,
		UpdatedParts: []core.UpdatedPart{},
		Scope:        core.ScopeThisTurn,
		Reason:       "Generated.",
	}
	if d != nil {
		if d.NeedNewMnemonic {
			status.UpdatedParts = append(status.UpdatedParts, core.PartMnemonic)
		}
		if d.NeedNewImage {
			status.UpdatedParts = append(status.UpdatedParts, core.PartImage)
		}
		if d.NeedNewAudio {
			status.UpdatedParts = append(status.UpdatedParts, core.PartAudio)
		}
		status.Scope = d.Scope
		if d.Reason != "" {
			status.Reason = d.Reason
		}
	}
	result.Status = status
	return result
}

func fallbackReply(intent core.Intent, word string) string {
	switch intent {
	case core.IntentNewWord:
		return fmt.Sprintf("为你生成了 %s 的记忆卡片。", word)
	case core.IntentOutOfScope, core.IntentSmallTalk:
		return "抱歉，我只负责英语单词记忆。"
	default:
		return "已为你更新了内容。"
	}
}

func valueOr(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}
