package entities

// VoiceActor is one entry of the static voice roster.
type VoiceActor struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Feature string `json:"feature"`
}

// VoiceAssignment is the denormalized per-speaker entry of a matching artifact.
// Actor name and feature are copied from the roster for audit and display.
type VoiceAssignment struct {
	ActorID   string `json:"actor_id"`
	ActorName string `json:"actor_name"`
	Feature   string `json:"feature"`
}

// MatchingArtifact is the persisted output of the voice matching stage. The
// full segment list is stitched in so synthesis reads a single artifact.
type MatchingArtifact struct {
	CharacterVoiceMap map[string]VoiceAssignment `json:"character_voice_map"`
	StoryItems        []StructuralSegment        `json:"story_items"`
}

// VoiceSettings is the synthesis performance tuple derived from a segment's
// emotion, tone and expression level.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
	Speed           float64 `json:"speed"`
}
