package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/all-of-us/surveyprep/internal/pipeline"
)

type runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.RunSummary, error)
}

type serviceFactory func() (runner, zerolog.Logger, error)

type runOptions struct {
	project string
	dataset string
	date    string
	load    bool
}

func newRootCmd(factory serviceFactory) *cobra.Command {
	root := &cobra.Command{
		Use:          "prep-survey",
		Short:        "Build PPI survey prep and Tanagra staged files from REDCap exports",
		SilenceUsage: true,
	}
	root.AddCommand(
		newRunCmd(pipeline.CommandPrep, "Write controlled, registered and all prep files for each survey", factory),
		newRunCmd(pipeline.CommandStage, "Write Tanagra staged files and load them into BigQuery", factory),
	)
	return root
}

func newRunCmd(command, short string, factory serviceFactory) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   command,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, log, err := factory()
			if err != nil {
				return err
			}
			summary, err := svc.Run(cmd.Context(), pipeline.Request{
				Command: command,
				Project: opts.project,
				Dataset: opts.dataset,
				Date:    opts.date,
				Load:    opts.load,
			})
			if err != nil {
				return err
			}
			for _, f := range summary.Files {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", f.Key, f.Rows)
			}
			log.Info().Str("run_id", summary.RunID).Msg("done")
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.project, "project", "", "BigQuery project (required)")
	cmd.Flags().StringVar(&opts.dataset, "dataset", "", "CDR dataset (required)")
	cmd.Flags().StringVar(&opts.date, "date", "", "Export date, YYYY-MM-DD (required)")
	if command == pipeline.CommandPrep {
		cmd.Flags().BoolVar(&opts.load, "load", false, "Also load the prep files into BigQuery")
	}

	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("date")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		opts.date = strings.TrimSpace(opts.date)
		if _, err := time.Parse(pipeline.DateLayout, opts.date); err != nil {
			return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", opts.date)
		}
		return nil
	}

	return cmd
}
