// Package pipeline drives prep and stage runs over a survey bucket.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/all-of-us/surveyprep/internal/blobstore"
	"github.com/all-of-us/surveyprep/internal/bqload"
	"github.com/all-of-us/surveyprep/internal/concept"
	"github.com/all-of-us/surveyprep/internal/config"
	"github.com/all-of-us/surveyprep/internal/hierarchy"
	"github.com/all-of-us/surveyprep/internal/notify"
)

// Commands accepted in a Request.
const (
	CommandPrep  = "prep"
	CommandStage = "stage"
)

// DateLayout is the format of Request.Date and of the export file suffix.
const DateLayout = "2006-01-02"

// ErrMissingExport is returned when a dictionary export is not in the bucket.
var ErrMissingExport = errors.New("missing redcap export")

// Request names one run.
type Request struct {
	Command string `json:"command"`
	Project string `json:"project"`
	Dataset string `json:"dataset"`
	Date    string `json:"date"`
	// Load also loads the prep files into BigQuery. Stage runs always load.
	Load bool `json:"load"`
}

func (r Request) Validate() error {
	switch r.Command {
	case CommandPrep, CommandStage:
	default:
		return fmt.Errorf("unknown command %q", r.Command)
	}
	if strings.TrimSpace(r.Project) == "" {
		return errors.New("project is required")
	}
	if strings.TrimSpace(r.Dataset) == "" {
		return errors.New("dataset is required")
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return fmt.Errorf("date %q is not %s: %w", r.Date, DateLayout, err)
	}
	return nil
}

// Clients are the BigQuery-backed collaborators of a run.
type Clients struct {
	Resolver hierarchy.TopicResolver
	Loader   bqload.Loader
	Close    func() error
}

// ConnectFunc opens the Clients for a request's project and dataset.
type ConnectFunc func(ctx context.Context, req Request) (*Clients, error)

// BigQuery connects a cached concept resolver and a loader sharing one client.
func BigQuery(cacheSize int) ConnectFunc {
	return func(ctx context.Context, req Request) (*Clients, error) {
		resolver, err := concept.NewBigQueryResolver(ctx, req.Project, req.Dataset)
		if err != nil {
			return nil, err
		}
		cached, err := concept.NewCachedResolver(resolver, cacheSize)
		if err != nil {
			_ = resolver.Close()
			return nil, err
		}
		return &Clients{
			Resolver: cached,
			Loader:   &bqload.BigQueryLoader{Client: resolver.Client},
			Close:    resolver.Close,
		}, nil
	}
}

// Service runs requests and announces the results.
type Service struct {
	Store    blobstore.Store
	Connect  ConnectFunc
	Notifier notify.Notifier
	WorkDir  string
	Log      zerolog.Logger
}

// NewService wires a Service from cfg: the configured store, BigQuery clients
// per request, and an SQS notifier when an output queue is set.
func NewService(cfg *config.Config, log zerolog.Logger) (*Service, error) {
	store, err := blobstore.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	var notifier notify.Notifier = notify.Nop{}
	if cfg.OutputQueue != "" {
		sqsNotifier, err := notify.NewSQSNotifier(cfg.Store.Region, cfg.OutputQueue)
		if err != nil {
			return nil, err
		}
		notifier = sqsNotifier
	}
	return &Service{
		Store:    store,
		Connect:  BigQuery(cfg.TopicCacheSize),
		Notifier: notifier,
		WorkDir:  cfg.WorkDir,
		Log:      log,
	}, nil
}

// Run validates req, runs it and sends the summary to the notifier.
func (s *Service) Run(ctx context.Context, req Request) (*RunSummary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	summary := &RunSummary{
		RunID:     uuid.NewString(),
		Command:   req.Command,
		Project:   req.Project,
		Dataset:   req.Dataset,
		Date:      req.Date,
		StartedAt: time.Now().UTC(),
	}
	log := s.Log.With().
		Str("run_id", summary.RunID).
		Str("command", req.Command).
		Str("date", req.Date).
		Logger()
	log.Info().Str("project", req.Project).Str("dataset", req.Dataset).Msg("run started")

	clients, err := s.Connect(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("connect %s.%s: %w", req.Project, req.Dataset, err)
	}
	if clients.Close != nil {
		defer func() {
			if err := clients.Close(); err != nil {
				log.Warn().Err(err).Msg("close clients")
			}
		}()
	}

	switch req.Command {
	case CommandPrep:
		runner := &PrepRunner{
			Store:    s.Store,
			Resolver: clients.Resolver,
			Loader:   clients.Loader,
			WorkDir:  s.WorkDir,
			Log:      log,
		}
		summary.Files, err = runner.Run(ctx, req)
	case CommandStage:
		runner := &StageRunner{
			Store:   s.Store,
			Loader:  clients.Loader,
			WorkDir: s.WorkDir,
			Log:     log,
		}
		summary.Files, err = runner.Run(ctx, req)
	}
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		return nil, err
	}
	summary.FinishedAt = time.Now().UTC()

	notifier := s.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if err := notifier.Notify(ctx, summary.Message()); err != nil {
		return summary, fmt.Errorf("notify: %w", err)
	}
	log.Info().Int("files", len(summary.Files)).Msg("run finished")
	return summary, nil
}

// resetDir removes dir and creates it empty.
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear work dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	return nil
}

func exportKey(export, date string) string {
	return "redcap/" + export + "_" + date + ".csv"
}

// requireExports fails with ErrMissingExport on the first export not present.
func requireExports(ctx context.Context, store blobstore.Store, exports []string, date string) error {
	for _, export := range exports {
		key := exportKey(export, date)
		ok, err := store.Exists(ctx, key)
		if err != nil {
			return fmt.Errorf("check %s: %w", key, err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingExport, key)
		}
	}
	return nil
}
