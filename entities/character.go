package entities

// Character is one entry of a character-analysis artifact. The name doubles as
// the join key into segment speakers and the voice assignment map.
type Character struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	SpeechPattern string `json:"speech_pattern"`
}
