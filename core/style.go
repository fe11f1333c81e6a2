package core

// Humor is the humor intensity of a mnemonic style.
type Humor string

// Humor levels accepted by the mnemonic generation stage.
const (
	HumorNone       Humor = "none"
	HumorLight      Humor = "light"
	HumorDark       Humor = "dark"
	HumorAggressive Humor = "aggressive"
)

// Dialect selects the regional flavor of generated mnemonics.
type Dialect string

// Supported mnemonic dialects.
const (
	DialectNone      Dialect = "none"
	DialectMandarin  Dialect = "mandarin"
	DialectDongbei   Dialect = "dongbei"
	DialectCantonese Dialect = "cantonese"
)

// Complexity controls how elaborate a generated mnemonic may be.
type Complexity string

// Supported mnemonic complexities.
const (
	ComplexitySimple  Complexity = "simple"
	ComplexityNormal  Complexity = "normal"
	ComplexityComplex Complexity = "complex"
)

// MnemonicStyle parameterizes the mnemonic (homophone + story) generation
// stage. A style record is always resolved whole-object; fields from
// different provenance tiers are never mixed.
type MnemonicStyle struct {
	Humor      Humor      `json:"humor"`
	Dialect    Dialect    `json:"dialect"`
	Complexity Complexity `json:"complexity"`
	ExtraTags  []string   `json:"extra_tags,omitempty"`
}

// Clone returns a deep copy of the style record.
func (s *MnemonicStyle) Clone() *MnemonicStyle {
	if s == nil {
		return nil
	}
	cp := *s
	cp.ExtraTags = append([]string(nil), s.ExtraTags...)
	return &cp
}

// ImageStyleName is the visual style of a generated image.
type ImageStyleName string

// Supported image styles.
const (
	ImageStyleNone      ImageStyleName = "none"
	ImageStyleCute      ImageStyleName = "cute"
	ImageStyleComic     ImageStyleName = "comic"
	ImageStyleRealistic ImageStyleName = "realistic"
	ImageStyleAnime     ImageStyleName = "anime"
)

// Mood is the emotional tone of a generated image.
type Mood string

// Supported image moods.
const (
	MoodNeutral Mood = "neutral"
	MoodFunny   Mood = "funny"
	MoodDark    Mood = "dark"
	MoodWarm    Mood = "warm"
)

// ImageStyle parameterizes the image generation stage.
type ImageStyle struct {
	NeedImage bool           `json:"need_image"`
	Style     ImageStyleName `json:"style"`
	Mood      Mood           `json:"mood"`
	ExtraTags []string       `json:"extra_tags,omitempty"`
}

// Clone returns a deep copy of the style record.
func (s *ImageStyle) Clone() *ImageStyle {
	if s == nil {
		return nil
	}
	cp := *s
	cp.ExtraTags = append([]string(nil), s.ExtraTags...)
	return &cp
}

// Gender selects the narrator voice gender.
type Gender string

// Supported voice genders.
const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderNeutral Gender = "neutral"
)

// Energy is the emotional energy of the narration.
type Energy string

// Supported voice energy levels.
const (
	EnergyLow    Energy = "low"
	EnergyMedium Energy = "medium"
	EnergyHigh   Energy = "high"
)

// Pitch is the narrator voice pitch.
type Pitch string

// Supported voice pitches.
const (
	PitchLow    Pitch = "low"
	PitchMedium Pitch = "medium"
	PitchHigh   Pitch = "high"
)

// Speed is the narration speed.
type Speed string

// Supported narration speeds.
const (
	SpeedSlow   Speed = "slow"
	SpeedNormal Speed = "normal"
	SpeedFast   Speed = "fast"
)

// Tone is the narrator timbre.
type Tone string

// Supported voice tones.
const (
	ToneSoft   Tone = "soft"
	ToneNormal Tone = "normal"
	ToneBright Tone = "bright"
)

// VoiceStyle parameterizes the speech synthesis stage. PresetID, when set,
// pins a concrete TTS preset; otherwise the backend maps the remaining
// fields onto one.
type VoiceStyle struct {
	PresetID string `json:"preset_id,omitempty"`
	Gender   Gender `json:"gender"`
	Energy   Energy `json:"energy"`
	Pitch    Pitch  `json:"pitch"`
	Speed    Speed  `json:"speed"`
	Tone     Tone   `json:"tone"`
}

// Clone returns a copy of the style record.
func (s *VoiceStyle) Clone() *VoiceStyle {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// StyleProfileID is the coarse user-visible style preset shown in the UI.
type StyleProfileID string

// Known style profiles.
const (
	StyleProfileSimpleClean  StyleProfileID = "simple_clean"
	StyleProfileFunny        StyleProfileID = "funny"
	StyleProfileAggressive   StyleProfileID = "aggressive"
	StyleProfileDongbeiFunny StyleProfileID = "dongbei_funny"
	StyleProfileOther        StyleProfileID = "other"
)
