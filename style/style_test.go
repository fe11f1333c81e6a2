package style

import (
	"testing"

	"github.com/hupe1980/wordmesh/config"
	"github.com/hupe1980/wordmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver() *Resolver {
	return NewResolver(config.Default().Defaults)
}

func TestMnemonicPrecedence(t *testing.T) {
	r := testResolver()
	override := &core.MnemonicStyle{Humor: core.HumorAggressive, Dialect: core.DialectDongbei, Complexity: core.ComplexityComplex}
	pref := &core.MnemonicStyle{Humor: core.HumorNone, Dialect: core.DialectMandarin, Complexity: core.ComplexitySimple}

	tests := []struct {
		name          string
		override      *core.MnemonicStyle
		pref          *core.MnemonicStyle
		expectedHumor core.Humor
	}{
		{"override wins over preference", override, pref, core.HumorAggressive},
		{"preference wins over default", nil, pref, core.HumorNone},
		{"default when nothing else", nil, nil, core.HumorLight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Mnemonic(tt.override, tt.pref)
			require.NotNil(t, got)
			assert.Equal(t, tt.expectedHumor, got.Humor)
		})
	}
}

func TestNoFieldLevelMerging(t *testing.T) {
	r := testResolver()
	// An override with zero-valued fields must be taken whole, not patched
	// from the preference tier.
	override := &core.MnemonicStyle{Humor: core.HumorDark}
	pref := &core.MnemonicStyle{Humor: core.HumorLight, Dialect: core.DialectCantonese}

	got := r.Mnemonic(override, pref)
	assert.Equal(t, core.HumorDark, got.Humor)
	assert.Empty(t, got.Dialect)
}

func TestResolvedStylesAreCopies(t *testing.T) {
	r := testResolver()
	pref := &core.ImageStyle{NeedImage: true, Style: core.ImageStyleAnime, Mood: core.MoodWarm, ExtraTags: []string{"教室"}}

	got := r.Image(nil, pref)
	got.Style = core.ImageStyleRealistic
	got.ExtraTags[0] = "mutated"

	assert.Equal(t, core.ImageStyleAnime, pref.Style)
	assert.Equal(t, "教室", pref.ExtraTags[0])
}

func TestImageDefaultTier(t *testing.T) {
	got := testResolver().Image(nil, nil)
	require.NotNil(t, got)
	assert.True(t, got.NeedImage)
	assert.Equal(t, core.ImageStyleComic, got.Style)
	assert.Equal(t, core.MoodFunny, got.Mood)
}

func TestVoiceDefaultTier(t *testing.T) {
	got := testResolver().Voice(nil, nil)
	require.NotNil(t, got)
	assert.Equal(t, core.GenderNeutral, got.Gender)
	assert.Equal(t, core.PitchMedium, got.Pitch)
	assert.Equal(t, core.ToneNormal, got.Tone)
}

func TestProfilePrecedence(t *testing.T) {
	r := testResolver()
	assert.Equal(t, core.StyleProfileAggressive, r.Profile(core.StyleProfileAggressive, core.StyleProfileFunny))
	assert.Equal(t, core.StyleProfileDongbeiFunny, r.Profile("", core.StyleProfileDongbeiFunny))
	assert.Equal(t, core.StyleProfileFunny, r.Profile("", ""))
}
