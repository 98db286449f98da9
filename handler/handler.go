package handler

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"audiobook-worker/dto"
	"audiobook-worker/service"
)

type ServiceDependencies struct {
	Pipeline  service.PipelineService
	Matching  service.MatchingService
	Synthesis service.SynthesisService
}

// GenerateHandler consumes a generation job and runs the synthesis
// orchestrator. Per-segment failures live in the report; only batch-level
// failures surface as handler errors.
func GenerateHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var job dto.GenerateMessage
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal generate message")
		return err
	}

	zerolog.Ctx(ctx).Info().Str("work_id", job.WorkID).Bool("force", job.Force).Msg("received generate message")

	report, err := deps.Synthesis.Generate(ctx, job.WorkID, job.Force)
	if err != nil {
		return err
	}

	if report.FailedSegments > 0 {
		zerolog.Ctx(ctx).Warn().
			Str("work_id", job.WorkID).
			Int("failed", report.FailedSegments).
			Int("success", report.SuccessfulSegments).
			Msg("generation finished with failed segments")
	}

	return nil
}
