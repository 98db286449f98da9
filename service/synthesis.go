package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"audiobook-worker/constant"
	"audiobook-worker/dto"
	"audiobook-worker/entities"
	"audiobook-worker/pkg/elevenlabs"
	"audiobook-worker/pkg/objectstore"
	"audiobook-worker/repository"
)

// ErrGenerationInFlight marks a second generate call for a work whose
// exclusion token is already held.
var ErrGenerationInFlight = errors.New("generation already in progress for this work")

const defaultExpressionLevel = 0.5

// Synthesizer is the speech synthesis collaborator.
type Synthesizer interface {
	Configured() error
	Synthesize(ctx context.Context, voiceID, text string, settings entities.VoiceSettings) ([]byte, error)
}

// SynthesisService renders the matched segments of a work into per-segment
// audio files and reconciles progress from disk.
type SynthesisService interface {
	Generate(ctx context.Context, workID string, force bool) (*entities.GenerationReport, error)
	CheckStatus(workID string) dto.StatusResponse
}

type synthesis struct {
	store  repository.ArtifactStore
	synth  Synthesizer
	mirror *objectstore.Mirror
	delay  time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewSynthesisService wires the orchestrator. mirror may be nil when no object
// storage is configured.
func NewSynthesisService(store repository.ArtifactStore, synth Synthesizer, mirror *objectstore.Mirror, delay time.Duration) SynthesisService {
	return &synthesis{
		store:    store,
		synth:    synth,
		mirror:   mirror,
		delay:    delay,
		inFlight: make(map[string]struct{}),
	}
}

func (s *synthesis) acquire(workID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.inFlight[workID]; held {
		return false
	}
	s.inFlight[workID] = struct{}{}
	return true
}

func (s *synthesis) release(workID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, workID)
}

// rateGate enforces a minimum interval between successive synthesis calls of
// one generation run. Skipped segments do not advance the gate.
type rateGate struct {
	interval time.Duration
	last     time.Time
}

func (g *rateGate) wait(ctx context.Context) {
	if g.last.IsZero() {
		g.last = time.Now()
		return
	}
	if remaining := g.interval - time.Since(g.last); remaining > 0 {
		select {
		case <-time.After(remaining):
		case <-ctx.Done():
		}
	}
	g.last = time.Now()
}

func (s *synthesis) Generate(ctx context.Context, workID string, force bool) (*entities.GenerationReport, error) {
	if !s.acquire(workID) {
		return nil, ErrGenerationInFlight
	}
	defer s.release(workID)

	// Authentication or config failures abort the batch before any segment is
	// attempted; everything else stays a per-segment failure.
	if err := s.synth.Configured(); err != nil {
		return nil, err
	}

	if _, ok := s.store.Metadata(workID); !ok {
		return nil, repository.ErrUnknownWork
	}
	if !s.store.DerivedExists(workID, constant.ArtifactMatching) {
		return nil, errors.Join(ErrMissingArtifact, fmt.Errorf("matching artifact for %s", workID))
	}
	artifact, err := s.store.LoadMatching(workID)
	if err != nil {
		return nil, err
	}
	if len(artifact.StoryItems) == 0 {
		return nil, errors.New("matching artifact has no story items")
	}

	existing, err := s.store.ListAudioFiles(workID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 && !force {
		zerolog.Ctx(ctx).Info().Str("work_id", workID).Int("existing", len(existing)).Msg("audio already generated, skipping")
		info, _ := s.store.ReadGenerationInfo(workID)
		total := len(artifact.StoryItems)
		if info != nil {
			total = info.TotalSegments
		}
		return &entities.GenerationReport{
			WorkID:             workID,
			TotalSegments:      total,
			SuccessfulSegments: len(existing),
			Skipped:            true,
		}, nil
	}

	// A forced rerun starts from an empty directory. Leaving files from a
	// previous longer run behind would let stale trailing segments pass the
	// sequence check.
	if force && len(existing) > 0 {
		if err := os.RemoveAll(s.store.AudioDir(workID)); err != nil {
			return nil, err
		}
	}

	segments := entities.SortSegments(artifact.StoryItems)
	if err := s.store.WriteGenerationInfo(workID, entities.GenerationInfo{
		TotalSegments: len(segments),
		StartTime:     time.Now().Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}

	report := &entities.GenerationReport{
		WorkID:        workID,
		TotalSegments: len(segments),
	}
	gate := &rateGate{interval: s.delay}

	for _, seg := range segments {
		assignment, ok := artifact.CharacterVoiceMap[seg.Speaker]
		if !ok || assignment.ActorID == "" {
			// Lenient on purpose: an unmapped speaker skips the segment but is
			// counted loudly in the report.
			zerolog.Ctx(ctx).Warn().Str("work_id", workID).Int("order", seg.Order).Str("speaker", seg.Speaker).Msg("no voice assigned, segment skipped")
			report.Outcomes = append(report.Outcomes, entities.SegmentOutcome{
				Order:   seg.Order,
				Speaker: seg.Speaker,
				Status:  entities.OutcomeFailed,
				Reason:  "no voice assigned",
			})
			report.FailedSegments++
			continue
		}

		settings := EmotionSettings(seg.Emotion, seg.Tone, defaultExpressionLevel)

		gate.wait(ctx)
		audio, err := s.synth.Synthesize(ctx, assignment.ActorID, seg.Text, settings)
		if err != nil {
			if errors.Is(err, elevenlabs.ErrNotConfigured) {
				return report, err
			}
			zerolog.Ctx(ctx).Error().Err(err).Str("work_id", workID).Int("order", seg.Order).Msg("segment synthesis failed")
			report.Outcomes = append(report.Outcomes, entities.SegmentOutcome{
				Order:   seg.Order,
				Speaker: seg.Speaker,
				Status:  entities.OutcomeFailed,
				Reason:  err.Error(),
			})
			report.FailedSegments++
			continue
		}

		path, err := s.store.SaveAudioSegment(workID, seg.Order, audio)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("work_id", workID).Int("order", seg.Order).Msg("failed to save audio segment")
			report.Outcomes = append(report.Outcomes, entities.SegmentOutcome{
				Order:   seg.Order,
				Speaker: seg.Speaker,
				Status:  entities.OutcomeFailed,
				Reason:  err.Error(),
			})
			report.FailedSegments++
			continue
		}

		report.Outcomes = append(report.Outcomes, entities.SegmentOutcome{
			Order:    seg.Order,
			Speaker:  seg.Speaker,
			Status:   entities.OutcomeSuccess,
			FilePath: path,
		})
		report.SuccessfulSegments++
	}

	if s.mirror != nil && report.FailedSegments == 0 {
		if err := s.mirror.UploadDir(ctx, s.store.AudioDir(workID), filepath.Join("audiobooks", workID)); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("work_id", workID).Msg("failed to mirror audio to object storage")
		}
	}

	zerolog.Ctx(ctx).Info().
		Str("work_id", workID).
		Int("success", report.SuccessfulSegments).
		Int("failed", report.FailedSegments).
		Msg("generation run finished")
	return report, nil
}

// CheckStatus recomputes generation progress from disk on every call. The
// response is always well-formed; internal failures degrade to an explicit
// error status.
func (s *synthesis) CheckStatus(workID string) dto.StatusResponse {
	resp := dto.StatusResponse{
		WorkID:     workID,
		Status:     constant.GenerationNotStarted.String(),
		Message:    "audiobook generation has not been started for this work",
		AudioFiles: []string{},
	}

	if _, err := os.Stat(s.store.AudioDir(workID)); errors.Is(err, os.ErrNotExist) {
		return resp
	}

	files, err := s.store.ListAudioFiles(workID)
	if err != nil {
		resp.Status = constant.GenerationError.String()
		resp.Message = fmt.Sprintf("failed to inspect audio output: %v", err)
		return resp
	}

	if info, err := s.store.ReadGenerationInfo(workID); err == nil {
		resp.TotalSegments = info.TotalSegments
	}
	resp.GeneratedSegments = len(files)
	resp.AudioFiles = files

	// Files sort by numeric stem; each must equal its 1-based rank, otherwise
	// the sequence has a gap or a duplicate.
	sequenceBroken := false
	for i, name := range files {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		n, err := strconv.Atoi(stem)
		if err != nil || n != i+1 {
			sequenceBroken = true
			break
		}
	}

	switch {
	case len(files) == 0:
		resp.Status = constant.GenerationInProgress.String()
		resp.Message = "generation has started but no segments have been generated yet"
	case sequenceBroken:
		resp.Status = constant.GenerationError.String()
		resp.Message = "audio segment sequence has a gap or duplicate"
	case resp.TotalSegments > 0 && resp.GeneratedSegments >= resp.TotalSegments:
		resp.Status = constant.GenerationCompleted.String()
		resp.Message = fmt.Sprintf("all %d segments have been generated", resp.TotalSegments)
	default:
		resp.Status = constant.GenerationInProgress.String()
		resp.Message = fmt.Sprintf("%d/%d segments generated", resp.GeneratedSegments, resp.TotalSegments)
	}

	return resp
}
