package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiobook-worker/constant"
	"audiobook-worker/entities"
	"audiobook-worker/repository"
	"audiobook-worker/service"
)

func TestUploadRejectsEmptyText(t *testing.T) {
	t.Parallel()
	svc := service.NewPipelineService(newTestStore(t), &fakeAnalyzer{})

	for _, text := range []string{"", "   ", "\n\t "} {
		_, err := svc.Upload(context.Background(), "novel.txt", text)
		assert.ErrorIs(t, err, service.ErrEmptyText)
	}
}

func TestAnalyzeCharactersPersistsArtifact(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	analyzer := &fakeAnalyzer{characters: storyCharacters()}
	svc := service.NewPipelineService(store, analyzer)

	workID, err := svc.Upload(context.Background(), "novel.txt", "Alice said hi. Bob frowned.")
	require.NoError(t, err)

	characters, filename, err := svc.AnalyzeCharacters(context.Background(), workID)
	require.NoError(t, err)
	assert.Equal(t, storyCharacters(), characters)
	assert.Equal(t, workID+"_characters.json", filename)

	loaded, err := store.LoadCharacters(workID)
	require.NoError(t, err)
	assert.Equal(t, characters, loaded)

	record, ok := store.Metadata(workID)
	require.True(t, ok)
	assert.Equal(t, filename, record.CharacterAnalysisFile)
	assert.NotEmpty(t, record.CharacterAnalysisTimestamp)
}

func TestAnalyzeCharactersRejectsEmptyName(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	analyzer := &fakeAnalyzer{characters: []entities.Character{{Name: "  ", Description: "ghost"}}}
	svc := service.NewPipelineService(store, analyzer)

	workID, err := svc.Upload(context.Background(), "novel.txt", "some text")
	require.NoError(t, err)

	_, _, err = svc.AnalyzeCharacters(context.Background(), workID)
	require.Error(t, err)
	assert.False(t, store.DerivedExists(workID, constant.ArtifactCharacters), "rejected output must not be persisted")
}

func TestAnalyzeStructureRejectsBrokenSequence(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	analyzer := &fakeAnalyzer{segments: []entities.StructuralSegment{
		{Order: 1, Type: constant.SegmentDialogue, Speaker: "Alice", Text: "hi"},
		{Order: 3, Type: constant.SegmentNarration, Speaker: constant.SpeakerNarrator, Text: "gap"},
	}}
	svc := service.NewPipelineService(store, analyzer)

	workID, err := svc.Upload(context.Background(), "novel.txt", "some text")
	require.NoError(t, err)

	_, _, err = svc.AnalyzeStructure(context.Background(), workID)
	require.ErrorIs(t, err, service.ErrSequenceInvalid)
	assert.False(t, store.DerivedExists(workID, constant.ArtifactStructure))
}

func TestAnalysisStagesRequireKnownWork(t *testing.T) {
	t.Parallel()
	svc := service.NewPipelineService(newTestStore(t), &fakeAnalyzer{})

	_, _, err := svc.AnalyzeCharacters(context.Background(), "no-such-work")
	require.ErrorIs(t, err, repository.ErrUnknownWork)

	_, _, err = svc.AnalyzeStructure(context.Background(), "no-such-work")
	require.ErrorIs(t, err, repository.ErrUnknownWork)
}

func TestAnalysisFailureLeavesNoArtifact(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	analyzer := &fakeAnalyzer{charactersErr: errSynthBoom, segmentsErr: errSynthBoom}
	svc := service.NewPipelineService(store, analyzer)

	workID, err := svc.Upload(context.Background(), "novel.txt", "some text")
	require.NoError(t, err)

	_, _, err = svc.AnalyzeCharacters(context.Background(), workID)
	require.ErrorIs(t, err, errSynthBoom)
	_, _, err = svc.AnalyzeStructure(context.Background(), workID)
	require.ErrorIs(t, err, errSynthBoom)

	assert.False(t, store.DerivedExists(workID, constant.ArtifactCharacters))
	assert.False(t, store.DerivedExists(workID, constant.ArtifactStructure))
}

// Runs the whole pipeline end to end on fakes: upload, character extraction,
// structure analysis, voice matching, audio generation, status.
func TestFullPipeline(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	analyzer := &fakeAnalyzer{
		characters: storyCharacters(),
		segments:   storySegments(),
		voiceMap:   map[string]string{"Alice": "v1", "Bob": "v2", "Narrator": "v3"},
	}

	pipeline := service.NewPipelineService(store, analyzer)
	matcher := service.NewMatchingService(store, analyzer, "roster.json", rosterLoader(testRoster(), nil))
	synthesizer := service.NewSynthesisService(store, &fakeSynth{}, nil, 0)

	ctx := context.Background()
	workID, err := pipeline.Upload(ctx, "novel.txt", "Alice said hi. Bob frowned. They parted.")
	require.NoError(t, err)

	characters, _, err := pipeline.AnalyzeCharacters(ctx, workID)
	require.NoError(t, err)
	require.Len(t, characters, 2)

	segments, _, err := pipeline.AnalyzeStructure(ctx, workID)
	require.NoError(t, err)
	require.Len(t, segments, 3)

	artifact, _, err := matcher.Match(ctx, workID)
	require.NoError(t, err)
	require.Len(t, artifact.CharacterVoiceMap, 3)

	report, err := synthesizer.Generate(ctx, workID, false)
	require.NoError(t, err)
	assert.Equal(t, 3, report.SuccessfulSegments)
	assert.Zero(t, report.FailedSegments)

	status := synthesizer.CheckStatus(workID)
	assert.Equal(t, constant.GenerationCompleted.String(), status.Status)
	assert.Equal(t, []string{"001.mp3", "002.mp3", "003.mp3"}, status.AudioFiles)

	record, ok := store.Metadata(workID)
	require.True(t, ok)
	assert.NotEmpty(t, record.CharacterAnalysisFile)
	assert.NotEmpty(t, record.StructureAnalysisFile)
	assert.NotEmpty(t, record.MatchingFile)
}
