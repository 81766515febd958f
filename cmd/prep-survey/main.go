// Command prep-survey builds PPI survey prep files and Tanagra staged files
// from REDCap data-dictionary exports.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/all-of-us/surveyprep/internal/config"
	"github.com/all-of-us/surveyprep/internal/logging"
	"github.com/all-of-us/surveyprep/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newService).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newService() (runner, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat).With().Str("env", cfg.Env).Logger()
	svc, err := pipeline.NewService(cfg, log)
	if err != nil {
		return nil, log, err
	}
	return svc, log, nil
}
