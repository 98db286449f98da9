package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"audiobook-worker/constant"
	"audiobook-worker/entities"
	"audiobook-worker/repository"
)

var (
	// ErrEmptyText marks an upload or stage input that is empty or whitespace-only.
	ErrEmptyText = errors.New("text is empty or whitespace-only")
	// ErrMissingArtifact marks a stage precondition failure: a required prior
	// artifact is absent on disk, whatever the metadata pointer says.
	ErrMissingArtifact = errors.New("required prior artifact is missing")
	// ErrSequenceInvalid marks a structure artifact whose order values do not
	// form an unbroken 1..N run. Like malformed model output, a retry with the
	// same input is usually worthwhile.
	ErrSequenceInvalid = errors.New("segment order sequence invalid")
)

// TextAnalyzer is the text structuring collaborator: opaque text in,
// structured JSON out.
type TextAnalyzer interface {
	ExtractCharacters(ctx context.Context, text string) ([]entities.Character, error)
	AnalyzeStructure(ctx context.Context, text string) ([]entities.StructuralSegment, error)
	MatchVoices(ctx context.Context, characters []entities.Character, roster []entities.VoiceActor) (map[string]string, error)
}

// PipelineService runs the character-extraction and structure-analysis stages.
// Re-running a stage overwrites its artifact; downstream artifacts are not
// invalidated and must be re-run by the caller.
type PipelineService interface {
	Upload(ctx context.Context, originalName, text string) (string, error)
	AnalyzeCharacters(ctx context.Context, workID string) ([]entities.Character, string, error)
	AnalyzeStructure(ctx context.Context, workID string) ([]entities.StructuralSegment, string, error)
}

type pipeline struct {
	store    repository.ArtifactStore
	analyzer TextAnalyzer
}

func NewPipelineService(store repository.ArtifactStore, analyzer TextAnalyzer) PipelineService {
	return &pipeline{store: store, analyzer: analyzer}
}

func (p *pipeline) Upload(ctx context.Context, originalName, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	workID, err := p.store.PutOriginal(originalName, text)
	if err != nil {
		return "", err
	}
	zerolog.Ctx(ctx).Info().Str("work_id", workID).Str("original", originalName).Msg("work uploaded")
	return workID, nil
}

// readText re-verifies the original text physically exists and is non-empty.
// The metadata pointer alone is not trusted.
func (p *pipeline) readText(workID string) (string, error) {
	path, ok := p.store.TextPath(workID)
	if !ok {
		return "", repository.ErrUnknownWork
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", errors.Join(ErrMissingArtifact, fmt.Errorf("original text file for %s", workID))
		}
		return "", err
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", ErrEmptyText
	}
	return string(data), nil
}

func (p *pipeline) AnalyzeCharacters(ctx context.Context, workID string) ([]entities.Character, string, error) {
	text, err := p.readText(workID)
	if err != nil {
		return nil, "", err
	}

	characters, err := p.analyzer.ExtractCharacters(ctx, text)
	if err != nil {
		return nil, "", err
	}
	for _, c := range characters {
		if strings.TrimSpace(c.Name) == "" {
			return nil, "", fmt.Errorf("character with empty name in analysis output")
		}
	}

	filename, err := p.store.PutDerived(workID, constant.ArtifactCharacters, characters)
	if err != nil {
		return nil, "", err
	}

	zerolog.Ctx(ctx).Info().Str("work_id", workID).Int("characters", len(characters)).Msg("character analysis saved")
	return characters, filename, nil
}

func (p *pipeline) AnalyzeStructure(ctx context.Context, workID string) ([]entities.StructuralSegment, string, error) {
	text, err := p.readText(workID)
	if err != nil {
		return nil, "", err
	}

	segments, err := p.analyzer.AnalyzeStructure(ctx, text)
	if err != nil {
		return nil, "", err
	}
	if err := entities.ValidateSegmentOrder(segments); err != nil {
		return nil, "", errors.Join(ErrSequenceInvalid, err)
	}

	filename, err := p.store.PutDerived(workID, constant.ArtifactStructure, segments)
	if err != nil {
		return nil, "", err
	}

	zerolog.Ctx(ctx).Info().Str("work_id", workID).Int("segments", len(segments)).Msg("structure analysis saved")
	return segments, filename, nil
}
