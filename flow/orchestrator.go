package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/wordmesh/assemble"
	"github.com/hupe1980/wordmesh/config"
	"github.com/hupe1980/wordmesh/core"
	"github.com/hupe1980/wordmesh/decision"
	"github.com/hupe1980/wordmesh/gen"
	"github.com/hupe1980/wordmesh/logging"
	"github.com/hupe1980/wordmesh/policy"
	"github.com/hupe1980/wordmesh/style"
	"github.com/hupe1980/wordmesh/synth"
)

// Reply texts set when a stage cannot run for lack of prerequisite data.
const (
	replyMissingWord    = "系统错误：未找到目标单词。"
	replyMissingTTSText = "语音生成失败：缺少必要的文本内容。"
)

// Orchestrator drives one turn through the state machine: it resolves the
// decision (MAIN), walks the generation stages with explicit fork/join for
// the parallel branch, and assembles the final output (FINAL).
//
// Only the decision resolution can fail a turn. Every other stage degrades:
// failures are logged, the affected field stays unset and the walk continues
// to its normal successor.
type Orchestrator struct {
	resolver  *decision.Resolver
	assembler *assemble.Assembler
	gen       gen.Service
	images    synth.ImageSynthesizer
	speech    synth.SpeechSynthesizer
	guard     *policy.Guard
	styles    *style.Resolver
	features  config.FeatureFlags
	logger    logging.Logger
}

// NewOrchestrator wires an orchestrator from its collaborators.
func NewOrchestrator(
	resolver *decision.Resolver,
	assembler *assemble.Assembler,
	g gen.Service,
	images synth.ImageSynthesizer,
	speech synth.SpeechSynthesizer,
	guard *policy.Guard,
	styles *style.Resolver,
	features config.FeatureFlags,
	logger logging.Logger,
) *Orchestrator {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Orchestrator{
		resolver:  resolver,
		assembler: assembler,
		gen:       g,
		images:    images,
		speech:    speech,
		guard:     guard,
		styles:    styles,
		features:  features,
		logger:    logger,
	}
}

// TurnOptions carries per-turn configuration overrides. Unset fields keep
// the configured value.
type TurnOptions struct {
	EnableImageGeneration *bool
	EnableTTSGeneration   *bool
	EnablePremiumVoices   *bool
}

// RunTurn executes one full turn against the session state. The caller holds
// the single-writer lock for the session.
func (o *Orchestrator) RunTurn(ctx context.Context, state *core.SessionState, utterance string, optFns ...func(t *TurnOptions)) error {
	opts := TurnOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	exec := o.forTurn(opts)

	state.BeginTurn()

	d, err := exec.resolver.Resolve(ctx, state, utterance)
	if err != nil {
		return fmt.Errorf("turn failed in decision stage: %w", err)
	}

	exec.walk(ctx, state, d, Next(StageMain, d))

	reply, result := exec.assembler.Assemble(ctx, state.Snapshot())
	state.FinishTurn(reply, result)
	return nil
}

// forTurn applies per-turn overrides, returning a shallow orchestrator copy
// whose guard and resolver enforce the overridden flags. Without overrides
// the receiver is returned unchanged.
func (o *Orchestrator) forTurn(opts TurnOptions) *Orchestrator {
	if opts.EnableImageGeneration == nil && opts.EnableTTSGeneration == nil && opts.EnablePremiumVoices == nil {
		return o
	}
	features := o.features
	if opts.EnableImageGeneration != nil {
		features.EnableImageGeneration = *opts.EnableImageGeneration
	}
	if opts.EnableTTSGeneration != nil {
		features.EnableTTSGeneration = *opts.EnableTTSGeneration
	}
	if opts.EnablePremiumVoices != nil {
		features.EnablePremiumVoices = *opts.EnablePremiumVoices
	}

	exec := *o
	exec.features = features
	exec.guard = o.guard.WithFeatures(features)
	exec.resolver = o.resolver.WithGuard(exec.guard)
	return &exec
}

// walk advances through the state machine until only FINAL remains. A
// two-stage set is the parallel image/audio fork: both branches run
// concurrently to completion and join here before FINAL.
func (o *Orchestrator) walk(ctx context.Context, state *core.SessionState, d *core.Decision, stages []Stage) {
	for {
		switch {
		case len(stages) == 0:
			return
		case len(stages) == 1 && stages[0] == StageFinal:
			return
		case len(stages) > 1:
			var wg sync.WaitGroup
			for _, stage := range stages {
				wg.Add(1)
				go func(s Stage) {
					defer wg.Done()
					o.walk(ctx, state, d, o.runStage(ctx, state, d, s))
				}(stage)
			}
			wg.Wait()
			return
		default:
			stages = o.runStage(ctx, state, d, stages[0])
		}
	}
}

// runStage executes one stage and returns its successor set. Stages may
// override their normal transition when a prerequisite is missing.
func (o *Orchestrator) runStage(ctx context.Context, state *core.SessionState, d *core.Decision, stage Stage) []Stage {
	start := time.Now()
	var next []Stage
	switch stage {
	case StageMnemonic:
		next = o.runMnemonic(ctx, state, d)
	case StageImage:
		next = o.runImage(ctx, state, d)
	case StageTTS:
		next = o.runTTS(ctx, state, d)
	default:
		next = Next(stage, d)
	}
	o.logger.Debug("stage finished", "stage", stage, "duration", time.Since(start))
	return next
}

func (o *Orchestrator) runMnemonic(ctx context.Context, state *core.SessionState, d *core.Decision) []Stage {
	snap := state.Snapshot()
	word := d.Word
	if word == "" {
		word = snap.Word
	}
	if word == "" {
		// Without a target word no downstream stage can run either.
		state.SetReply(replyMissingWord)
		o.logger.Warn("mnemonic stage skipped, no target word", "intent", d.Intent)
		return []Stage{StageFinal}
	}

	mnemonicStyle := o.styles.Mnemonic(d.MnemonicStyle, snap.UserMnemonicPref)
	block, err := o.gen.Mnemonic(ctx, word, mnemonicStyle)
	if err != nil {
		o.logger.Error("mnemonic generation failed", "word", word, "error", err)
		return Next(StageMnemonic, d)
	}
	state.SetWordBlock(word, block)
	return Next(StageMnemonic, d)
}

func (o *Orchestrator) runImage(ctx context.Context, state *core.SessionState, d *core.Decision) []Stage {
	if !o.features.EnableImageGeneration {
		o.logger.Debug("image stage skipped, feature disabled")
		return Next(StageImage, d)
	}

	snap := state.Snapshot()
	if snap.SceneText == "" {
		o.logger.Warn("image stage skipped, no scene text", "word", snap.Word)
		return Next(StageImage, d)
	}
	word := d.Word
	if word == "" {
		word = snap.Word
	}

	imageStyle := o.styles.Image(d.ImageStyle, snap.UserImagePref)
	plan, err := o.gen.PlanImage(ctx, word, snap.SceneText, imageStyle)
	if err != nil {
		o.logger.Error("image planning failed", "word", word, "error", err)
		return Next(StageImage, d)
	}

	url, err := o.images.Image(ctx, snap.ID, plan, imageStyle)
	if err != nil {
		// The previous image, if any, stays on the card.
		o.logger.Error("image synthesis failed", "word", word, "error", err)
		return Next(StageImage, d)
	}
	state.SetImageURL(url)
	return Next(StageImage, d)
}

func (o *Orchestrator) runTTS(ctx context.Context, state *core.SessionState, d *core.Decision) []Stage {
	if !o.features.EnableTTSGeneration {
		o.logger.Debug("tts stage skipped, feature disabled")
		return Next(StageTTS, d)
	}

	snap := state.Snapshot()
	word := d.Word
	if word == "" {
		word = snap.Word
	}
	if word == "" || snap.Mnemonic == "" || snap.SceneText == "" {
		state.SetReply(replyMissingTTSText)
		o.logger.Warn("tts stage skipped, missing narration components", "word", word)
		return Next(StageTTS, d)
	}
	narration := fmt.Sprintf("%s。%s。%s", word, snap.Mnemonic, snap.SceneText)

	voiceStyle := o.styles.Voice(d.VoiceStyle, snap.UserVoicePref)
	plan, err := o.gen.PlanSpeech(ctx, word, narration, voiceStyle)
	if err != nil {
		o.logger.Error("speech planning failed", "word", word, "error", err)
		return Next(StageTTS, d)
	}
	plan.VoicePresetID = o.guard.DowngradeVoice(plan.VoicePresetID)

	url, err := o.speech.Speech(ctx, snap.ID, plan)
	if err != nil {
		// Clear any stale narration; it no longer matches the card text.
		o.logger.Error("speech synthesis failed", "word", word, "error", err)
		state.SetAudioURL("", plan.VoicePresetID)
		return Next(StageTTS, d)
	}
	state.SetAudioURL(url, plan.VoicePresetID)
	return Next(StageTTS, d)
}
