package constant

type ArtifactKind string

const (
	ArtifactCharacters ArtifactKind = "characters"
	ArtifactStructure  ArtifactKind = "structure"
	ArtifactMatching   ArtifactKind = "matching"
)

type GenerationStatus string

const (
	GenerationNotStarted GenerationStatus = "not_started"
	GenerationInProgress GenerationStatus = "in_progress"
	GenerationCompleted  GenerationStatus = "completed"
	GenerationError      GenerationStatus = "error"
)

func (s GenerationStatus) String() string {
	return string(s)
}

type SegmentType string

const (
	SegmentDialogue  SegmentType = "dialogue"
	SegmentNarration SegmentType = "narration"
	SegmentSFX       SegmentType = "sfx"
)

// Reserved speaker names for non-dialogue segments.
const (
	SpeakerNarrator = "Narrator"
	SpeakerSFX      = "SFX"
)

const (
	EmotionJoy      = "joy"
	EmotionSadness  = "sadness"
	EmotionFear     = "fear"
	EmotionAnger    = "anger"
	EmotionDisgust  = "disgust"
	EmotionSurprise = "surprise"
	EmotionNeutral  = "neutral"
)

const (
	ToneAgitated = "agitated"
	ToneCalm     = "calm"
)

const AudioFileExt = ".mp3"

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
