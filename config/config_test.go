package config

import (
	"testing"

	"github.com/hupe1980/wordmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, core.StyleProfileFunny, cfg.Defaults.StyleProfileID)
	assert.Equal(t, core.HumorLight, cfg.Defaults.MnemonicHumor)
	assert.Equal(t, core.DialectMandarin, cfg.Defaults.MnemonicDialect)
	assert.True(t, cfg.Features.EnableImageGeneration)
	assert.True(t, cfg.Features.EnableTTSGeneration)
	assert.False(t, cfg.Safety.AllowStrongAggressive)
	assert.NoError(t, Validate(cfg))
}

func TestDefaultStyleConstructors(t *testing.T) {
	d := Default().Defaults

	m := d.NewMnemonicStyle()
	require.NotNil(t, m)
	assert.Equal(t, core.HumorLight, m.Humor)
	assert.Equal(t, core.ComplexityNormal, m.Complexity)

	i := d.NewImageStyle()
	require.NotNil(t, i)
	assert.True(t, i.NeedImage)
	assert.Equal(t, core.ImageStyleComic, i.Style)
	assert.Equal(t, core.MoodFunny, i.Mood)

	v := d.NewVoiceStyle()
	require.NotNil(t, v)
	assert.Equal(t, core.GenderNeutral, v.Gender)
	assert.Equal(t, core.PitchMedium, v.Pitch)

	// Constructors must hand out fresh values, not shared pointers.
	i.Style = core.ImageStyleAnime
	assert.Equal(t, core.ImageStyleComic, d.NewImageStyle().Style)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("WORDMESH_MODEL_PROVIDER", "mock")
	t.Setenv("WORDMESH_FEATURES_ENABLE_IMAGE_GENERATION", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.Model.Provider)
	assert.False(t, cfg.Features.EnableImageGeneration)
	// Untouched keys keep their defaults.
	assert.True(t, cfg.Features.EnableTTSGeneration)
}

func TestValidateRejectsBadBackend(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "redis"
	assert.Error(t, Validate(cfg))

	cfg = Default()
	cfg.Storage.Backend = "sqlite"
	cfg.Storage.SQLitePath = ""
	assert.Error(t, Validate(cfg))
}
