package core

import "time"

// Phonetic carries pronunciation metadata for a word.
type Phonetic struct {
	IPA               string `json:"ipa,omitempty"`
	PronunciationNote string `json:"pronunciation_note,omitempty"`
}

// Homophone is the Chinese homophone mnemonic itself.
type Homophone struct {
	Text        string `json:"text"`
	Raw         string `json:"raw,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// Meaning is the dictionary meaning of a word.
type Meaning struct {
	POS string `json:"pos,omitempty"`
	CN  string `json:"cn"`
	EN  string `json:"en,omitempty"`
}

// WordBlock is the textual body of a memory card: word, pronunciation,
// homophone mnemonic, scene story and meaning. It is the structured output
// of the mnemonic generation stage.
type WordBlock struct {
	Word      string    `json:"word"`
	Phonetic  Phonetic  `json:"phonetic"`
	Homophone Homophone `json:"homophone"`
	Story     string    `json:"story"`
	Meaning   Meaning   `json:"meaning"`
}

// Clone returns a copy of the word block.
func (w *WordBlock) Clone() *WordBlock {
	if w == nil {
		return nil
	}
	cp := *w
	return &cp
}

// ImageMedia describes a generated illustration.
type ImageMedia struct {
	URL       string         `json:"url"`
	Style     ImageStyleName `json:"style"`
	Mood      Mood           `json:"mood"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// AudioMedia describes a generated narration clip. DurationSec is a zero
// placeholder; the orchestration core does not measure audio.
type AudioMedia struct {
	URL            string    `json:"url"`
	VoiceProfileID string    `json:"voice_profile_id,omitempty"`
	DurationSec    float64   `json:"duration_sec"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MediaBlock groups the optional media attachments of a memory card.
type MediaBlock struct {
	Image *ImageMedia `json:"image,omitempty"`
	Audio *AudioMedia `json:"audio,omitempty"`
}

// StylesBlock records the style configuration actually in effect for the
// turn that produced a result.
type StylesBlock struct {
	StyleProfileID StyleProfileID `json:"style_profile_id,omitempty"`
	MnemonicStyle  *MnemonicStyle `json:"mnemonic_style,omitempty"`
	ImageStyle     *ImageStyle    `json:"image_style,omitempty"`
	VoiceStyle     *VoiceStyle    `json:"voice_style,omitempty"`
}

// UpdatedPart names a card component regenerated within a turn.
type UpdatedPart string

// Components a turn may regenerate.
const (
	PartMnemonic UpdatedPart = "mnemonic"
	PartImage    UpdatedPart = "image"
	PartAudio    UpdatedPart = "audio"
)

// StatusBlock summarizes what a turn did, for clients and logs.
type StatusBlock struct {
	// IsFirstTime is a known stub: it is never computed from persisted
	// history and always reports false.
	IsFirstTime  bool          `json:"is_first_time"`
	Intent       Intent        `json:"intent"`
	UpdatedParts []UpdatedPart `json:"updated_parts"`
	Scope        Scope         `json:"scope"`
	Reason       string        `json:"reason"`
}

// ResultTypeWordMemory is the fixed discriminator of WordMemoryResult.
const ResultTypeWordMemory = "word_memory"

// WordMemoryResult is the terminal output of a turn: one fully assembled
// word memory card plus style and status metadata. It is constructed once
// by the final assembler and never mutated afterwards.
type WordMemoryResult struct {
	Type      string      `json:"type"`
	Intent    Intent      `json:"intent"`
	WordBlock WordBlock   `json:"word_block"`
	Media     MediaBlock  `json:"media"`
	Styles    StylesBlock `json:"styles"`
	Status    StatusBlock `json:"status"`
}

// ImagePlan is the structured directive produced by the image generation
// stage before synthesis: a rendered prompt pair plus a debugging note.
type ImagePlan struct {
	ImagePrompt    string `json:"image_prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Reason         string `json:"reason"`
}

// SpeechPlan is the structured directive produced by the audio stage before
// synthesis: polished narration text plus voice preset parameters.
type SpeechPlan struct {
	TextToSpeak   string  `json:"text_to_speak"`
	VoicePresetID string  `json:"voice_preset_id"`
	SpeedRate     float64 `json:"speed_rate"`
	Reason        string  `json:"reason"`
}
