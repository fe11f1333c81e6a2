package core

// Intent is the classified purpose of a user turn.
type Intent string

// The closed set of turn intents.
const (
	IntentNewWord           Intent = "new_word"
	IntentRefineMnemonic    Intent = "refine_mnemonic"
	IntentChangeImage       Intent = "change_image"
	IntentChangeAudio       Intent = "change_audio"
	IntentUpdatePreferences Intent = "update_preferences"
	IntentExplain           Intent = "explain"
	IntentSmallTalk         Intent = "small_talk"
	IntentOutOfScope        Intent = "out_of_scope"

	// IntentUnknown is never produced by the resolver; the assembler reports
	// it when a turn finished without any decision at all.
	IntentUnknown Intent = "unknown"
)

// Valid reports whether the intent belongs to the resolvable set.
func (i Intent) Valid() bool {
	switch i {
	case IntentNewWord, IntentRefineMnemonic, IntentChangeImage, IntentChangeAudio,
		IntentUpdatePreferences, IntentExplain, IntentSmallTalk, IntentOutOfScope:
		return true
	}
	return false
}

// Difficulty is the resolver's subjective difficulty judgement for a word.
type Difficulty string

// Difficulty grades.
const (
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
	DifficultyUnknown Difficulty = "unknown"
)

// AudioFlow orders image and audio generation within one turn.
type AudioFlow string

// Audio flow modes. The value is always a member of this set even when no
// audio is requested; it is simply unused downstream then.
const (
	// AudioFlowParallel fans image and audio out concurrently.
	AudioFlowParallel AudioFlow = "parallel"
	// AudioFlowAfterImage chains audio after image generation completes.
	AudioFlowAfterImage AudioFlow = "after_image"
	// AudioFlowAudioOnly skips the image even when one was requested.
	AudioFlowAudioOnly AudioFlow = "audio_only"
)

// Valid reports whether the flow is a member of the enum.
func (f AudioFlow) Valid() bool {
	switch f {
	case AudioFlowParallel, AudioFlowAfterImage, AudioFlowAudioOnly:
		return true
	}
	return false
}

// Scope describes how long a turn's style settings stay in effect.
type Scope string

// Scope values.
const (
	ScopeThisTurn       Scope = "this_turn"
	ScopeSessionDefault Scope = "session_default"
)

// Decision is the structured outcome of the decision resolver for one turn.
// It tells the orchestrator which generation stages to run, in which order,
// and with which style overrides. A Decision is immutable once emitted; the
// resolver finishes all policy mutations before it is handed to routing.
type Decision struct {
	Intent     Intent     `json:"intent"`
	Word       string     `json:"word,omitempty"`
	Difficulty Difficulty `json:"difficulty"`

	StyleProfileID StyleProfileID `json:"style_profile_id,omitempty"`

	NeedNewMnemonic bool `json:"need_new_mnemonic"`
	NeedNewImage    bool `json:"need_new_image"`
	NeedNewAudio    bool `json:"need_new_audio"`

	AudioFlow AudioFlow `json:"audio_flow"`

	MnemonicStyle *MnemonicStyle `json:"mnemonic_style,omitempty"`
	ImageStyle    *ImageStyle    `json:"image_style,omitempty"`
	VoiceStyle    *VoiceStyle    `json:"voice_style,omitempty"`

	Scope  Scope  `json:"scope"`
	Reason string `json:"reason"`
}

// Clone returns a deep copy suitable for the last-decision snapshot kept in
// session state.
func (d *Decision) Clone() *Decision {
	if d == nil {
		return nil
	}
	cp := *d
	cp.MnemonicStyle = d.MnemonicStyle.Clone()
	cp.ImageStyle = d.ImageStyle.Clone()
	cp.VoiceStyle = d.VoiceStyle.Clone()
	return &cp
}

// NeedsGeneration reports whether any generation stage is flagged.
func (d *Decision) NeedsGeneration() bool {
	return d.NeedNewMnemonic || d.NeedNewImage || d.NeedNewAudio
}
