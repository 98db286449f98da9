package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"audiobook-worker/constant"
	"audiobook-worker/service"
)

func TestEmotionSettingsDeterministic(t *testing.T) {
	t.Parallel()

	first := service.EmotionSettings(constant.EmotionAnger, constant.ToneAgitated, 0.8)
	second := service.EmotionSettings(constant.EmotionAnger, constant.ToneAgitated, 0.8)
	assert.Equal(t, first, second)
}

func TestEmotionSettingsUnknownFallsBackToNeutral(t *testing.T) {
	t.Parallel()

	unknown := service.EmotionSettings("melancholy-ish", "", 0.5)
	neutral := service.EmotionSettings(constant.EmotionNeutral, "", 0.5)
	assert.Equal(t, neutral, unknown)
}

func TestEmotionSettingsTonePresets(t *testing.T) {
	t.Parallel()

	base := service.EmotionSettings(constant.EmotionSadness, "", 0.5)
	agitated := service.EmotionSettings(constant.EmotionSadness, constant.ToneAgitated, 0.5)
	calm := service.EmotionSettings(constant.EmotionSadness, constant.ToneCalm, 0.5)

	assert.Less(t, agitated.Stability, base.Stability)
	assert.GreaterOrEqual(t, agitated.Style, base.Style)
	assert.GreaterOrEqual(t, agitated.Speed, base.Speed)

	assert.Greater(t, calm.Stability, base.Stability)
	assert.Less(t, calm.Style, base.Style)
	assert.Less(t, calm.Speed, base.Speed)
}

func TestEmotionSettingsExpressionLevelMonotonic(t *testing.T) {
	t.Parallel()

	levels := []float64{0, 0.25, 0.5, 0.75, 1}
	for _, emotion := range []string{constant.EmotionJoy, constant.EmotionNeutral, constant.EmotionSadness} {
		prev := service.EmotionSettings(emotion, "", levels[0])
		for _, level := range levels[1:] {
			next := service.EmotionSettings(emotion, "", level)
			assert.GreaterOrEqual(t, next.Style, prev.Style, "style must not decrease for %s at level %v", emotion, level)
			assert.LessOrEqual(t, next.Stability, prev.Stability, "stability must not increase for %s at level %v", emotion, level)
			prev = next
		}
	}
}

func TestEmotionSettingsBounds(t *testing.T) {
	t.Parallel()

	for _, emotion := range []string{constant.EmotionJoy, constant.EmotionAnger, constant.EmotionNeutral, constant.EmotionFear} {
		for _, tone := range []string{"", constant.ToneAgitated, constant.ToneCalm} {
			for _, level := range []float64{0, 0.5, 1} {
				settings := service.EmotionSettings(emotion, tone, level)
				assert.GreaterOrEqual(t, settings.Stability, 0.1)
				assert.LessOrEqual(t, settings.Stability, 1.0)
				assert.LessOrEqual(t, settings.Style, 1.0)
			}
		}
	}
}
