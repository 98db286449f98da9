package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"audiobook-worker/entities"
	"audiobook-worker/repository"
)

// fakeAnalyzer scripts the text structuring collaborator.
type fakeAnalyzer struct {
	characters []entities.Character
	segments   []entities.StructuralSegment
	voiceMap   map[string]string

	charactersErr error
	segmentsErr   error
	voiceMapErr   error
}

func (f *fakeAnalyzer) ExtractCharacters(_ context.Context, _ string) ([]entities.Character, error) {
	return f.characters, f.charactersErr
}

func (f *fakeAnalyzer) AnalyzeStructure(_ context.Context, _ string) ([]entities.StructuralSegment, error) {
	return f.segments, f.segmentsErr
}

func (f *fakeAnalyzer) MatchVoices(_ context.Context, _ []entities.Character, _ []entities.VoiceActor) (map[string]string, error) {
	return f.voiceMap, f.voiceMapErr
}

// fakeSynth scripts the speech synthesis collaborator.
type fakeSynth struct {
	configuredErr error
	failOrders    map[int]error
	calls         int
}

func (f *fakeSynth) Configured() error {
	return f.configuredErr
}

func (f *fakeSynth) Synthesize(_ context.Context, voiceID, text string, _ entities.VoiceSettings) ([]byte, error) {
	f.calls++
	if f.configuredErr != nil {
		return nil, f.configuredErr
	}
	if err, ok := f.failOrders[f.calls]; ok {
		return nil, err
	}
	return []byte(fmt.Sprintf("audio:%s:%s", voiceID, text)), nil
}

var errSynthBoom = errors.New("synthesis exploded")

func newTestStore(t *testing.T) repository.ArtifactStore {
	t.Helper()
	store, err := repository.NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func testRoster() []entities.VoiceActor {
	return []entities.VoiceActor{
		{ID: "v1", Name: "Mina", Feature: "bright young female voice"},
		{ID: "v2", Name: "Theo", Feature: "calm low male voice"},
		{ID: "v3", Name: "June", Feature: "warm neutral voice"},
	}
}

func rosterLoader(actors []entities.VoiceActor, err error) func(string) ([]entities.VoiceActor, error) {
	return func(string) ([]entities.VoiceActor, error) {
		return actors, err
	}
}
