package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"audiobook-worker/constant"
	"audiobook-worker/entities"
	"audiobook-worker/repository"
)

var (
	// ErrEmptyMatchInput marks an empty character list or roster; no
	// collaborator call is attempted.
	ErrEmptyMatchInput = errors.New("character list and roster must be non-empty")
	// ErrUnresolvedActor marks a matching response referencing an actor id
	// outside the roster. A data-quality error surfaced to the caller, never
	// silently substituted.
	ErrUnresolvedActor = errors.New("matched actor id is not in the roster")
)

// MatchingService assigns one roster voice per distinct speaker and persists
// the assignment together with the stitched segment list that synthesis reads.
type MatchingService interface {
	Match(ctx context.Context, workID string) (*entities.MatchingArtifact, string, error)
	Load(workID string) (*entities.MatchingArtifact, error)
}

type matching struct {
	store      repository.ArtifactStore
	analyzer   TextAnalyzer
	rosterPath string
	loadRoster func(path string) ([]entities.VoiceActor, error)
}

func NewMatchingService(store repository.ArtifactStore, analyzer TextAnalyzer, rosterPath string, loadRoster func(string) ([]entities.VoiceActor, error)) MatchingService {
	return &matching{store: store, analyzer: analyzer, rosterPath: rosterPath, loadRoster: loadRoster}
}

func (m *matching) Match(ctx context.Context, workID string) (*entities.MatchingArtifact, string, error) {
	record, ok := m.store.Metadata(workID)
	if !ok {
		return nil, "", repository.ErrUnknownWork
	}

	// Pointer-without-file is reachable after manual deletion or crash, so the
	// named artifact files are checked on disk, not just the metadata fields.
	if record.CharacterAnalysisFile == "" || !m.store.DerivedExists(workID, constant.ArtifactCharacters) {
		return nil, "", errors.Join(ErrMissingArtifact, fmt.Errorf("character analysis for %s", workID))
	}
	if record.StructureAnalysisFile == "" || !m.store.DerivedExists(workID, constant.ArtifactStructure) {
		return nil, "", errors.Join(ErrMissingArtifact, fmt.Errorf("structure analysis for %s", workID))
	}

	characters, err := m.store.LoadCharacters(workID)
	if err != nil {
		return nil, "", err
	}
	segments, err := m.store.LoadStructure(workID)
	if err != nil {
		return nil, "", err
	}
	actors, err := m.loadRoster(m.rosterPath)
	if err != nil {
		return nil, "", err
	}
	if len(characters) == 0 || len(actors) == 0 {
		return nil, "", ErrEmptyMatchInput
	}

	voiceMap, err := m.analyzer.MatchVoices(ctx, characters, actors)
	if err != nil {
		return nil, "", err
	}

	actorsByID := make(map[string]entities.VoiceActor, len(actors))
	for _, a := range actors {
		actorsByID[a.ID] = a
	}

	required := make([]string, 0, len(characters)+1)
	for _, c := range characters {
		required = append(required, c.Name)
	}
	if entities.HasNarration(segments) {
		required = append(required, constant.SpeakerNarrator)
	}

	assignments := make(map[string]entities.VoiceAssignment, len(voiceMap))
	for _, speaker := range required {
		actorID, ok := voiceMap[speaker]
		if !ok {
			return nil, "", fmt.Errorf("matching response has no entry for speaker %q", speaker)
		}
		actor, ok := actorsByID[actorID]
		if !ok {
			return nil, "", errors.Join(ErrUnresolvedActor, fmt.Errorf("speaker %q -> actor %q", speaker, actorID))
		}
		assignments[speaker] = entities.VoiceAssignment{
			ActorID:   actor.ID,
			ActorName: actor.Name,
			Feature:   actor.Feature,
		}
	}

	artifact := &entities.MatchingArtifact{
		CharacterVoiceMap: assignments,
		StoryItems:        segments,
	}
	filename, err := m.store.PutDerived(workID, constant.ArtifactMatching, artifact)
	if err != nil {
		return nil, "", err
	}

	zerolog.Ctx(ctx).Info().Str("work_id", workID).Int("speakers", len(assignments)).Msg("voice matching saved")
	return artifact, filename, nil
}

func (m *matching) Load(workID string) (*entities.MatchingArtifact, error) {
	record, ok := m.store.Metadata(workID)
	if !ok {
		return nil, repository.ErrUnknownWork
	}
	if record.MatchingFile == "" || !m.store.DerivedExists(workID, constant.ArtifactMatching) {
		return nil, errors.Join(ErrMissingArtifact, fmt.Errorf("matching artifact for %s", workID))
	}
	return m.store.LoadMatching(workID)
}
