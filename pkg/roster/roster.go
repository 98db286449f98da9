package roster

import (
	"encoding/json"
	"fmt"
	"os"

	"audiobook-worker/entities"
)

const defaultFeature = "unspecified"

// Load reads the static voice actor roster. An absent feature field is given a
// display-only default, never treated as an error.
func Load(path string) ([]entities.VoiceActor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}

	var actors []entities.VoiceActor
	if err := json.Unmarshal(data, &actors); err != nil {
		return nil, fmt.Errorf("roster: parse %s: %w", path, err)
	}

	for i := range actors {
		if actors[i].Feature == "" {
			actors[i].Feature = defaultFeature
		}
	}
	return actors, nil
}
