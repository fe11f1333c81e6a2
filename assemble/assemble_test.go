package assemble

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/wordmesh/config"
	"github.com/hupe1980/wordmesh/core"
	"github.com/hupe1980/wordmesh/gen"
	"github.com/hupe1980/wordmesh/model"
	"github.com/hupe1980/wordmesh/style"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssembler(mock *model.MockModel) *Assembler {
	cfg := config.Default()
	svc := gen.NewService(mock, func(o *gen.Options) { o.MaxRetries = 0 })
	return New(svc, style.NewResolver(cfg.Defaults), nil)
}

func replyMock(text string) *model.MockModel {
	return model.NewMockModel("mock").AddResponse("reply", map[string]interface{}{"reply_text": text})
}

func fullState() *core.SessionState {
	state := core.NewSessionState("sess-1")
	state.ApplyDecision(&core.Decision{
		Intent:          core.IntentNewWord,
		Word:            "ambulance",
		Difficulty:      core.DifficultyMedium,
		NeedNewMnemonic: true,
		NeedNewImage:    true,
		NeedNewAudio:    true,
		AudioFlow:       core.AudioFlowParallel,
		ImageStyle:      &core.ImageStyle{NeedImage: true, Style: core.ImageStyleComic, Mood: core.MoodFunny},
		Scope:           core.ScopeThisTurn,
		Reason:          "新词",
	}, "ambulance", core.StyleProfileFunny)
	state.SetWordBlock("ambulance", &core.WordBlock{
		Word:      "ambulance",
		Phonetic:  core.Phonetic{IPA: "/ˈæmbjələns/"},
		Homophone: core.Homophone{Text: "俺不能死"},
		Story:     "救护车来了，我抓着担架大喊：俺不能死！",
		Meaning:   core.Meaning{POS: "n.", CN: "救护车"},
	})
	state.SetImageURL("artifact://sess-1/img-1")
	state.SetAudioURL("artifact://sess-1/aud-1", "male_dynamic")
	return state
}

func TestAssembleFullCard(t *testing.T) {
	a := newAssembler(replyMock("当当当！ambulance 的神级谐音梗出炉！"))
	snap := fullState().Snapshot()

	reply, result := a.Assemble(context.Background(), snap)
	assert.Equal(t, "当当当！ambulance 的神级谐音梗出炉！", reply)
	require.NotNil(t, result)

	assert.Equal(t, core.ResultTypeWordMemory, result.Type)
	assert.Equal(t, "ambulance", result.WordBlock.Word)
	assert.Equal(t, "俺不能死", result.WordBlock.Homophone.Text)

	require.NotNil(t, result.Media.Image)
	assert.Equal(t, "artifact://sess-1/img-1", result.Media.Image.URL)
	require.NotNil(t, result.Media.Audio)
	assert.Equal(t, "male_dynamic", result.Media.Audio.VoiceProfileID)
	assert.Zero(t, result.Media.Audio.DurationSec)

	assert.ElementsMatch(t, []core.UpdatedPart{core.PartMnemonic, core.PartImage, core.PartAudio}, result.Status.UpdatedParts)
	assert.False(t, result.Status.IsFirstTime)
}

func TestAssembleIsDeterministic(t *testing.T) {
	a := newAssembler(replyMock("拿去背！"))
	snap := fullState().Snapshot()

	_, first := a.Assemble(context.Background(), snap)
	_, second := a.Assemble(context.Background(), snap)
	assert.Equal(t, first, second)
}

func TestAssembleConversationalTurnsCarryNoCard(t *testing.T) {
	a := newAssembler(replyMock("你没事吧？我是背单词的，不是陪聊的。"))
	state := core.NewSessionState("sess-1")
	state.ApplyDecision(&core.Decision{Intent: core.IntentOutOfScope, Reason: "无关"}, "", core.StyleProfileAggressive)

	reply, result := a.Assemble(context.Background(), state.Snapshot())
	assert.NotEmpty(t, reply)
	assert.Nil(t, result)
}

func TestAssembleDegradedWordBlock(t *testing.T) {
	a := newAssembler(replyMock("换个口味！"))
	state := core.NewSessionState("sess-1")
	// An image-only turn: no mnemonic stage ran, the flat fields are empty.
	state.ApplyDecision(&core.Decision{
		Intent:       core.IntentChangeImage,
		NeedNewImage: true,
		Scope:        core.ScopeThisTurn,
		Reason:       "换图",
	}, "pest", core.StyleProfileFunny)
	state.SetImageURL("artifact://sess-1/img-2")

	_, result := a.Assemble(context.Background(), state.Snapshot())
	require.NotNil(t, result)
	assert.Equal(t, "pest", result.WordBlock.Word)
	assert.Equal(t, placeholderMnemonic, result.WordBlock.Homophone.Text)
	assert.Equal(t, placeholderStory, result.WordBlock.Story)
	assert.Equal(t, placeholderMeaning, result.WordBlock.Meaning.CN)
	assert.Equal(t, "unknown", result.WordBlock.Meaning.POS)
	assert.Empty(t, result.WordBlock.Phonetic.IPA)
}

func TestAssembleMediaDefaultsAndOmissions(t *testing.T) {
	a := newAssembler(replyMock("好了"))
	state := core.NewSessionState("sess-1")
	// Image present but decision has no image style: fixed comic/funny.
	state.ApplyDecision(&core.Decision{Intent: core.IntentExplain, Reason: "解释"}, "pest", core.StyleProfileFunny)
	state.SetImageURL("artifact://sess-1/img-3")

	_, result := a.Assemble(context.Background(), state.Snapshot())
	require.NotNil(t, result)
	require.NotNil(t, result.Media.Image)
	assert.Equal(t, core.ImageStyleComic, result.Media.Image.Style)
	assert.Equal(t, core.MoodFunny, result.Media.Image.Mood)
	assert.Nil(t, result.Media.Audio)
}

func TestAssembleWithoutDecision(t *testing.T) {
	a := newAssembler(replyMock("……"))
	state := core.NewSessionState("sess-1")

	_, result := a.Assemble(context.Background(), state.Snapshot())
	require.NotNil(t, result)
	assert.Equal(t, core.IntentUnknown, result.Status.Intent)
	assert.Equal(t, "unknown", result.WordBlock.Word)
	assert.Equal(t, "Generated.", result.Status.Reason)
}

func TestAssembleReplyFailureFallsBackToTemplate(t *testing.T) {
	mock := model.NewMockModel("mock").FailWith("reply", errors.New("model down"))
	a := newAssembler(mock)
	snap := fullState().Snapshot()

	reply, result := a.Assemble(context.Background(), snap)
	assert.Equal(t, "为你生成了 ambulance 的记忆卡片。", reply)
	require.NotNil(t, result)
}
