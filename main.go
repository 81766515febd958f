package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"github.com/all-of-us/surveyprep/internal/config"
	"github.com/all-of-us/surveyprep/internal/logging"
	"github.com/all-of-us/surveyprep/internal/pipeline"
)

// runner is the part of pipeline.Service the handler needs.
type runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.RunSummary, error)
}

var (
	setupOnce sync.Once
	svc       runner
	logger    zerolog.Logger
	setupErr  error
)

func main() {
	lambda.Start(handle)
}

func setup() {
	cfg, err := config.Load()
	if err != nil {
		setupErr = err
		return
	}
	logger = logging.New(cfg.LogLevel, cfg.LogFormat).With().Str("env", cfg.Env).Logger()
	svc, setupErr = pipeline.NewService(cfg, logger)
}

func handle(ctx context.Context, sqsEvent events.SQSEvent) error {
	setupOnce.Do(setup)
	if setupErr != nil {
		return fmt.Errorf("setup: %w", setupErr)
	}
	return process(ctx, svc, logger, sqsEvent)
}

// process runs each record in order and stops at the first failure.
func process(ctx context.Context, r runner, log zerolog.Logger, sqsEvent events.SQSEvent) error {
	for _, message := range sqsEvent.Records {
		log.Info().
			Str("message_id", message.MessageId).
			Str("event_source", message.EventSource).
			Msg("received run request")

		in, err := validateInputMessage(ctx, []byte(message.Body))
		if err != nil {
			return fmt.Errorf("message %s: %w", message.MessageId, err)
		}
		summary, err := r.Run(ctx, in.request())
		if err != nil {
			return fmt.Errorf("message %s: %w", message.MessageId, err)
		}
		log.Info().Str("message_id", message.MessageId).Str("run_id", summary.RunID).Msg("run request done")
	}
	return nil
}
