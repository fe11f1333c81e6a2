// Package config defines the typed configuration of WordMesh and loads it
// from environment variables and an optional YAML file via viper. The zero
// configuration returned by Default is fully usable for local development.
package config

import (
	"github.com/hupe1980/wordmesh/core"
)

// Config aggregates all configuration groups.
type Config struct {
	Server      ServerConfig     `mapstructure:"server"`
	Model       ModelConfig      `mapstructure:"model" validate:"required"`
	Features    FeatureFlags     `mapstructure:"features"`
	Preferences PreferenceConfig `mapstructure:"preferences"`
	Defaults    DefaultStyles    `mapstructure:"defaults" validate:"required"`
	Safety      SafetyConfig     `mapstructure:"safety"`
	Retry       RetryConfig      `mapstructure:"retry"`
	Storage     StorageConfig    `mapstructure:"storage"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// ModelConfig selects and parameterizes the generation model backends.
type ModelConfig struct {
	// Provider picks the structured-completion backend: openai, anthropic,
	// gemini or mock.
	Provider string `mapstructure:"provider" validate:"oneof=openai anthropic gemini mock"`

	DecisionModel    string  `mapstructure:"decision_model"`
	MnemonicModel    string  `mapstructure:"mnemonic_model"`
	DecisionTemp     float64 `mapstructure:"decision_temperature" validate:"gte=0,lte=2"`
	MnemonicTemp     float64 `mapstructure:"mnemonic_temperature" validate:"gte=0,lte=2"`
	OpenAIAPIKey     string  `mapstructure:"openai_api_key"`
	AnthropicAPIKey  string  `mapstructure:"anthropic_api_key"`
	GeminiAPIKey     string  `mapstructure:"gemini_api_key"`
	RequestTimeoutMS int     `mapstructure:"request_timeout_ms" validate:"gt=0"`
}

// FeatureFlags toggle whole generation capabilities.
type FeatureFlags struct {
	EnableImageGeneration bool `mapstructure:"enable_image_generation"`
	EnableTTSGeneration   bool `mapstructure:"enable_tts_generation"`
	EnablePremiumVoices   bool `mapstructure:"enable_premium_voices"`
	EnableAggressiveStyle bool `mapstructure:"enable_aggressive_style"`
}

// PreferenceConfig controls long-term preference learning.
type PreferenceConfig struct {
	AllowUpdatePreferences bool `mapstructure:"allow_update_preferences"`
	MaxPreferenceHistory   int  `mapstructure:"max_preference_history" validate:"gte=0"`
}

// DefaultStyles is the cold-start style tier used when neither a turn
// override nor a user preference exists.
type DefaultStyles struct {
	StyleProfileID  core.StyleProfileID `mapstructure:"style_profile_id"`
	MnemonicHumor   core.Humor          `mapstructure:"mnemonic_humor"`
	MnemonicDialect core.Dialect        `mapstructure:"mnemonic_dialect"`
	ImageStyle      core.ImageStyleName `mapstructure:"image_style"`
	ImageMood       core.Mood           `mapstructure:"image_mood"`
	VoiceGender     core.Gender         `mapstructure:"voice_gender"`
	VoiceEnergy     core.Energy         `mapstructure:"voice_energy"`
	VoiceSpeed      core.Speed          `mapstructure:"voice_speed"`
	VoicePresetID   string              `mapstructure:"voice_preset_id"`
}

// NewMnemonicStyle builds the system-default mnemonic style record. Always
// a fresh value so callers can mutate their copy freely.
func (d DefaultStyles) NewMnemonicStyle() *core.MnemonicStyle {
	return &core.MnemonicStyle{
		Humor:      d.MnemonicHumor,
		Dialect:    d.MnemonicDialect,
		Complexity: core.ComplexityNormal,
	}
}

// NewImageStyle builds the system-default image style record.
func (d DefaultStyles) NewImageStyle() *core.ImageStyle {
	style := d.ImageStyle
	if style == "" {
		style = core.ImageStyleComic
	}
	return &core.ImageStyle{
		NeedImage: true,
		Style:     style,
		Mood:      d.ImageMood,
	}
}

// NewVoiceStyle builds the system-default voice style record.
func (d DefaultStyles) NewVoiceStyle() *core.VoiceStyle {
	return &core.VoiceStyle{
		PresetID: d.VoicePresetID,
		Gender:   d.VoiceGender,
		Energy:   d.VoiceEnergy,
		Pitch:    core.PitchMedium,
		Speed:    d.VoiceSpeed,
		Tone:     core.ToneNormal,
	}
}

// SafetyConfig bounds the content styles the resolver may emit.
type SafetyConfig struct {
	AllowDarkHumor        bool `mapstructure:"allow_dark_humor"`
	AllowStrongAggressive bool `mapstructure:"allow_strong_aggressive"`
	MaxStoryLengthChars   int  `mapstructure:"max_story_length_chars" validate:"gt=0"`
}

// RetryConfig bounds retries around external generation calls.
type RetryConfig struct {
	MaxRetries  int `mapstructure:"max_retries" validate:"gte=0"`
	BaseDelayMS int `mapstructure:"base_delay_ms" validate:"gte=0"`
}

// StorageConfig selects the session store backend.
type StorageConfig struct {
	// Backend is "memory" or "sqlite".
	Backend    string `mapstructure:"backend" validate:"oneof=memory sqlite"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// Default returns the baseline configuration mirroring the product defaults:
// funny profile, light mandarin mnemonics, comic/funny imagery, neutral
// medium voice, all generation features enabled, strong aggressive content
// disallowed.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080", LogLevel: "info"},
		Model: ModelConfig{
			Provider:         "openai",
			DecisionModel:    "gpt-4o-mini",
			MnemonicModel:    "gpt-4o-mini",
			DecisionTemp:     0.0,
			MnemonicTemp:     0.7,
			RequestTimeoutMS: 30000,
		},
		Features: FeatureFlags{
			EnableImageGeneration: true,
			EnableTTSGeneration:   true,
			EnablePremiumVoices:   true,
			EnableAggressiveStyle: true,
		},
		Preferences: PreferenceConfig{AllowUpdatePreferences: true, MaxPreferenceHistory: 50},
		Defaults: DefaultStyles{
			StyleProfileID:  core.StyleProfileFunny,
			MnemonicHumor:   core.HumorLight,
			MnemonicDialect: core.DialectMandarin,
			ImageStyle:      core.ImageStyleComic,
			ImageMood:       core.MoodFunny,
			VoiceGender:     core.GenderNeutral,
			VoiceEnergy:     core.EnergyMedium,
			VoiceSpeed:      core.SpeedNormal,
		},
		Safety: SafetyConfig{
			AllowDarkHumor:        true,
			AllowStrongAggressive: false,
			MaxStoryLengthChars:   300,
		},
		Retry:   RetryConfig{MaxRetries: 3, BaseDelayMS: 500},
		Storage: StorageConfig{Backend: "memory", SQLitePath: "wordmesh.db"},
	}
}
