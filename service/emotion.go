package service

import (
	"audiobook-worker/constant"
	"audiobook-worker/entities"
)

// Fixed presets per emotion category. Unknown emotions fall back to neutral.
var emotionPresets = map[string]entities.VoiceSettings{
	constant.EmotionJoy:      {Stability: 0.3, SimilarityBoost: 0.4, Style: 0.9, UseSpeakerBoost: true, Speed: 1.2},
	constant.EmotionSadness:  {Stability: 0.6, SimilarityBoost: 0.6, Style: 0.7, UseSpeakerBoost: true, Speed: 0.9},
	constant.EmotionFear:     {Stability: 0.35, SimilarityBoost: 0.45, Style: 0.85, UseSpeakerBoost: true, Speed: 1.05},
	constant.EmotionAnger:    {Stability: 0.2, SimilarityBoost: 0.3, Style: 0.95, UseSpeakerBoost: true, Speed: 1.2},
	constant.EmotionDisgust:  {Stability: 0.5, SimilarityBoost: 0.5, Style: 0.75, UseSpeakerBoost: true, Speed: 0.95},
	constant.EmotionSurprise: {Stability: 0.4, SimilarityBoost: 0.5, Style: 0.8, UseSpeakerBoost: true, Speed: 1.1},
	constant.EmotionNeutral:  {Stability: 0.7, SimilarityBoost: 0.7, Style: 0.5, UseSpeakerBoost: true, Speed: 1.0},
}

// EmotionSettings maps (emotion, tone, expressionLevel) to a synthesis settings
// tuple. Pure and deterministic: the same inputs always yield the same tuple.
// Within [0,1] a higher expression level monotonically raises style and lowers
// stability.
func EmotionSettings(emotion, tone string, expressionLevel float64) entities.VoiceSettings {
	settings, ok := emotionPresets[emotion]
	if !ok {
		settings = emotionPresets[constant.EmotionNeutral]
	}

	switch tone {
	case constant.ToneAgitated:
		settings.Stability *= 0.8
		settings.Style = min(1.0, settings.Style*1.2)
		settings.Speed = min(1.2, settings.Speed*1.1)
	case constant.ToneCalm:
		settings.Stability = min(1.0, settings.Stability*1.2)
		settings.Style *= 0.8
		settings.Speed *= 0.9
	}

	if expressionLevel >= 0 && expressionLevel <= 1 {
		settings.Style = min(1.0, settings.Style*(0.7+0.3*expressionLevel))
		settings.Stability = max(0.1, settings.Stability*(1.0-0.3*expressionLevel))
	}

	return settings
}
