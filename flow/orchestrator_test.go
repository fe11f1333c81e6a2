package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/wordmesh/assemble"
	"github.com/hupe1980/wordmesh/config"
	"github.com/hupe1980/wordmesh/core"
	"github.com/hupe1980/wordmesh/decision"
	"github.com/hupe1980/wordmesh/gen"
	"github.com/hupe1980/wordmesh/model"
	"github.com/hupe1980/wordmesh/policy"
	"github.com/hupe1980/wordmesh/style"
	"github.com/hupe1980/wordmesh/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	orch   *Orchestrator
	mock   *model.MockModel
	images *synth.MockImageSynthesizer
	speech *synth.MockSpeechSynthesizer
}

func newFixture(mutate func(cfg *config.Config)) *fixture {
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	mock := model.NewMockModel("mock")
	svc := gen.NewService(mock, func(o *gen.Options) { o.MaxRetries = 0 })
	guard := policy.NewGuard(cfg, nil)
	styles := style.NewResolver(cfg.Defaults)
	resolver := decision.NewResolver(svc, guard, styles, cfg.Preferences, nil)
	assembler := assemble.New(svc, styles, nil)
	images := &synth.MockImageSynthesizer{URL: "artifact://sess-1/img-1"}
	speech := &synth.MockSpeechSynthesizer{URL: "artifact://sess-1/aud-1"}
	orch := NewOrchestrator(resolver, assembler, svc, images, speech, guard, styles, cfg.Features, nil)
	return &fixture{orch: orch, mock: mock, images: images, speech: speech}
}

func (f *fixture) stubDecision(overrides map[string]interface{}) {
	resp := map[string]interface{}{
		"intent":     "new_word",
		"word":       "ambulance",
		"difficulty": "medium",
		"audio_flow": "parallel",
		"scope":      "this_turn",
		"reason":     "新词",
	}
	for k, v := range overrides {
		resp[k] = v
	}
	f.mock.AddResponse("decision", resp)
}

func (f *fixture) stubGeneration() {
	f.mock.AddResponse("word_block", map[string]interface{}{
		"word":      "ambulance",
		"phonetic":  map[string]string{"ipa": "/ˈæmbjələns/", "pronunciation_note": "谐音：俺-不-能-死"},
		"homophone": map[string]string{"text": "俺不能死", "raw": "an bu neng si"},
		"meaning":   map[string]string{"pos": "n.", "cn": "救护车"},
		"story":     "救护车来了，我抓着担架大喊：俺不能死！",
	})
	f.mock.AddResponse("image_plan", map[string]interface{}{
		"image_prompt": "comic patient on a stretcher", "negative_prompt": "text", "reason": "画担架",
	})
	f.mock.AddResponse("speech_plan", map[string]interface{}{
		"text_to_speak": "Ambulance... 俺不能死！", "voice_preset_id": "male_dynamic", "speed_rate": 1.1, "reason": "大喊场景",
	})
	f.mock.AddResponse("reply", map[string]interface{}{"reply_text": "当当当！谐音梗出炉！"})
}

func TestRunTurnNewWordParallel(t *testing.T) {
	f := newFixture(nil)
	// Audio requested, image not: the medium-difficulty policy forces it.
	f.stubDecision(map[string]interface{}{"need_new_audio": true})
	f.stubGeneration()

	state := core.NewSessionState("sess-1")
	err := f.orch.RunTurn(context.Background(), state, "ambulance，用谐音帮我记一下")
	require.NoError(t, err)

	snap := state.Snapshot()
	assert.Equal(t, "ambulance", snap.Word)
	assert.Equal(t, "俺不能死", snap.Mnemonic)
	assert.Equal(t, "artifact://sess-1/img-1", snap.ImageURL)
	assert.Equal(t, "artifact://sess-1/aud-1", snap.AudioURL)
	assert.Equal(t, 1, f.images.Calls())
	assert.Equal(t, 1, f.speech.Calls())

	require.NotNil(t, snap.FinalOutput)
	assert.Equal(t, "ambulance", snap.FinalOutput.WordBlock.Word)
	require.NotNil(t, snap.FinalOutput.Media.Image)
	require.NotNil(t, snap.FinalOutput.Media.Audio)
	assert.Equal(t, "当当当！谐音梗出炉！", snap.ReplyText)
}

func TestRunTurnChangeAudioKeepsImage(t *testing.T) {
	f := newFixture(nil)
	f.stubDecision(map[string]interface{}{
		"intent": "change_audio", "word": nil, "difficulty": "unknown",
		"need_new_audio": true, "audio_flow": "audio_only",
	})
	f.stubGeneration()

	state := core.NewSessionState("sess-1")
	state.SetWordBlock("ambulance", &core.WordBlock{
		Word:      "ambulance",
		Homophone: core.Homophone{Text: "俺不能死"},
		Story:     "救护车来了。",
		Meaning:   core.Meaning{CN: "救护车"},
	})
	state.SetImageURL("artifact://sess-1/img-old")

	err := f.orch.RunTurn(context.Background(), state, "换个女声，图片别动")
	require.NoError(t, err)

	snap := state.Snapshot()
	assert.Equal(t, "artifact://sess-1/img-old", snap.ImageURL)
	assert.Equal(t, "artifact://sess-1/aud-1", snap.AudioURL)
	assert.Equal(t, 0, f.images.Calls())
	assert.Equal(t, 1, f.speech.Calls())
	require.NotNil(t, snap.FinalOutput)
	assert.Equal(t, "artifact://sess-1/img-old", snap.FinalOutput.Media.Image.URL)
}

func TestRunTurnTTSFailureDegrades(t *testing.T) {
	f := newFixture(nil)
	f.stubDecision(map[string]interface{}{"need_new_audio": true})
	f.stubGeneration()
	f.speech.Err = errors.New("tts provider down")

	state := core.NewSessionState("sess-1")
	err := f.orch.RunTurn(context.Background(), state, "ambulance")
	require.NoError(t, err)

	snap := state.Snapshot()
	require.NotNil(t, snap.FinalOutput)
	assert.Nil(t, snap.FinalOutput.Media.Audio)
	require.NotNil(t, snap.FinalOutput.Media.Image)
	assert.Equal(t, "俺不能死", snap.FinalOutput.WordBlock.Homophone.Text)
}

func TestRunTurnDecisionFailureIsFatal(t *testing.T) {
	f := newFixture(nil)
	f.mock.FailWith("decision", errors.New("model down"))

	state := core.NewSessionState("sess-1")
	err := f.orch.RunTurn(context.Background(), state, "ambulance")
	require.Error(t, err)
	assert.Nil(t, state.Snapshot().FinalOutput)
}

func TestRunTurnMissingWordRoutesToFinal(t *testing.T) {
	f := newFixture(nil)
	f.stubDecision(map[string]interface{}{
		"intent": "refine_mnemonic", "word": nil, "difficulty": "unknown",
		"need_new_mnemonic": true,
	})
	f.stubGeneration()

	// No prior word in the session.
	state := core.NewSessionState("sess-1")
	err := f.orch.RunTurn(context.Background(), state, "这个梗太冷了")
	require.NoError(t, err)

	snap := state.Snapshot()
	assert.Equal(t, 0, f.images.Calls())
	assert.Equal(t, 0, f.speech.Calls())
	// The explanatory reply set by the stage is replaced by the assembler's
	// reply line; the degraded card shows the turn produced nothing.
	require.NotNil(t, snap.FinalOutput)
	assert.Equal(t, "生成中...", snap.FinalOutput.WordBlock.Homophone.Text)
}

func TestRunTurnUnknownWordCircuitBreaker(t *testing.T) {
	f := newFixture(nil)
	f.stubDecision(map[string]interface{}{
		"word": "asdfgh", "difficulty": "unknown",
		"need_new_mnemonic": true, "need_new_image": true, "need_new_audio": true,
	})
	f.stubGeneration()

	state := core.NewSessionState("sess-1")
	err := f.orch.RunTurn(context.Background(), state, "asdfgh")
	require.NoError(t, err)

	snap := state.Snapshot()
	// Circuit breaker rewrote the intent; conversational turns carry no card.
	assert.Nil(t, snap.FinalOutput)
	assert.NotEmpty(t, snap.ReplyText)
	assert.Equal(t, 0, f.images.Calls())
	assert.Equal(t, 0, f.speech.Calls())
}

func TestRunTurnOutOfScopeReplyOnly(t *testing.T) {
	f := newFixture(nil)
	f.stubDecision(map[string]interface{}{
		"intent": "out_of_scope", "word": nil, "difficulty": "unknown",
	})
	f.mock.AddResponse("reply", map[string]interface{}{"reply_text": "你没事吧？我是背单词的。"})

	state := core.NewSessionState("sess-1")
	err := f.orch.RunTurn(context.Background(), state, "最近股市怎么样？")
	require.NoError(t, err)

	snap := state.Snapshot()
	assert.Nil(t, snap.FinalOutput)
	assert.Equal(t, "你没事吧？我是背单词的。", snap.ReplyText)
}

func TestRunTurnAfterImageChainsTTS(t *testing.T) {
	f := newFixture(nil)
	f.stubDecision(map[string]interface{}{
		"intent": "refine_mnemonic", "word": "pest", "difficulty": "unknown",
		"need_new_mnemonic": true, "need_new_image": true, "need_new_audio": true,
		"audio_flow": "after_image",
	})
	f.stubGeneration()

	state := core.NewSessionState("sess-1")
	state.SetImageURL("artifact://sess-1/img-old")
	err := f.orch.RunTurn(context.Background(), state, "换个梗，图也重画")
	require.NoError(t, err)

	assert.Equal(t, 1, f.images.Calls())
	assert.Equal(t, 1, f.speech.Calls())
	snap := state.Snapshot()
	assert.Equal(t, "artifact://sess-1/img-1", snap.ImageURL)
	assert.Equal(t, "artifact://sess-1/aud-1", snap.AudioURL)
}

func TestRunTurnImageFeatureDisabled(t *testing.T) {
	f := newFixture(func(cfg *config.Config) {
		cfg.Features.EnableImageGeneration = false
	})
	f.stubDecision(map[string]interface{}{"need_new_audio": true})
	f.stubGeneration()

	state := core.NewSessionState("sess-1")
	err := f.orch.RunTurn(context.Background(), state, "ambulance")
	require.NoError(t, err)

	assert.Equal(t, 0, f.images.Calls())
	assert.Equal(t, 1, f.speech.Calls())
	snap := state.Snapshot()
	require.NotNil(t, snap.FinalOutput)
	assert.Nil(t, snap.FinalOutput.Media.Image)
}

func TestRunTurnPerTurnImageOverride(t *testing.T) {
	f := newFixture(nil)
	f.stubDecision(map[string]interface{}{"need_new_audio": true})
	f.stubGeneration()

	disabled := false
	state := core.NewSessionState("sess-1")
	err := f.orch.RunTurn(context.Background(), state, "ambulance", func(o *TurnOptions) {
		o.EnableImageGeneration = &disabled
	})
	require.NoError(t, err)

	// The medium-difficulty forced image is suppressed for this turn only.
	assert.Equal(t, 0, f.images.Calls())
	assert.Equal(t, 1, f.speech.Calls())

	f.stubDecision(map[string]interface{}{"need_new_audio": true})
	err = f.orch.RunTurn(context.Background(), state, "ambulance")
	require.NoError(t, err)
	assert.Equal(t, 1, f.images.Calls())
}
