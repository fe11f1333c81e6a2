package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load builds the configuration by layering, in increasing precedence:
// baked-in defaults, an optional YAML file (path may be empty), and
// environment variables prefixed with WORDMESH_ (dots become underscores,
// e.g. WORDMESH_MODEL_PROVIDER overrides model.provider). The result is
// validated before being returned.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("WORDMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural constraints on a configuration.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Storage.Backend == "sqlite" && cfg.Storage.SQLitePath == "" {
		return fmt.Errorf("invalid configuration: storage.sqlite_path required for sqlite backend")
	}
	return nil
}

// setDefaults registers every default value with viper so env overrides can
// target any key without a config file being present.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.log_level", d.Server.LogLevel)

	v.SetDefault("model.provider", d.Model.Provider)
	v.SetDefault("model.decision_model", d.Model.DecisionModel)
	v.SetDefault("model.mnemonic_model", d.Model.MnemonicModel)
	v.SetDefault("model.decision_temperature", d.Model.DecisionTemp)
	v.SetDefault("model.mnemonic_temperature", d.Model.MnemonicTemp)
	v.SetDefault("model.request_timeout_ms", d.Model.RequestTimeoutMS)

	v.SetDefault("features.enable_image_generation", d.Features.EnableImageGeneration)
	v.SetDefault("features.enable_tts_generation", d.Features.EnableTTSGeneration)
	v.SetDefault("features.enable_premium_voices", d.Features.EnablePremiumVoices)
	v.SetDefault("features.enable_aggressive_style", d.Features.EnableAggressiveStyle)

	v.SetDefault("preferences.allow_update_preferences", d.Preferences.AllowUpdatePreferences)
	v.SetDefault("preferences.max_preference_history", d.Preferences.MaxPreferenceHistory)

	v.SetDefault("defaults.style_profile_id", string(d.Defaults.StyleProfileID))
	v.SetDefault("defaults.mnemonic_humor", string(d.Defaults.MnemonicHumor))
	v.SetDefault("defaults.mnemonic_dialect", string(d.Defaults.MnemonicDialect))
	v.SetDefault("defaults.image_style", string(d.Defaults.ImageStyle))
	v.SetDefault("defaults.image_mood", string(d.Defaults.ImageMood))
	v.SetDefault("defaults.voice_gender", string(d.Defaults.VoiceGender))
	v.SetDefault("defaults.voice_energy", string(d.Defaults.VoiceEnergy))
	v.SetDefault("defaults.voice_speed", string(d.Defaults.VoiceSpeed))
	v.SetDefault("defaults.voice_preset_id", d.Defaults.VoicePresetID)

	v.SetDefault("safety.allow_dark_humor", d.Safety.AllowDarkHumor)
	v.SetDefault("safety.allow_strong_aggressive", d.Safety.AllowStrongAggressive)
	v.SetDefault("safety.max_story_length_chars", d.Safety.MaxStoryLengthChars)

	v.SetDefault("retry.max_retries", d.Retry.MaxRetries)
	v.SetDefault("retry.base_delay_ms", d.Retry.BaseDelayMS)

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
}
