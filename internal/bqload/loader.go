// Package bqload loads staged CSV files into BigQuery tables.
package bqload

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/bigquery"
)

// Job describes one CSV load.
type Job struct {
	Dataset   string
	Table     string
	Schema    bigquery.Schema
	Delimiter string
	// Append keeps existing rows; otherwise the table is truncated.
	Append bool
}

// Loader runs CSV load jobs and reports the table's row count afterwards.
type Loader interface {
	Load(ctx context.Context, job Job, csv io.Reader) (uint64, error)
}

// BigQueryLoader loads through the BigQuery API. It borrows Client; the
// owner of the client closes it.
type BigQueryLoader struct {
	Client *bigquery.Client
}

// Load runs job with csv as the source, skipping its header row, and waits
// for completion.
func (l *BigQueryLoader) Load(ctx context.Context, job Job, csv io.Reader) (uint64, error) {
	src := bigquery.NewReaderSource(csv)
	src.SourceFormat = bigquery.CSV
	src.SkipLeadingRows = 1
	src.AllowQuotedNewlines = true
	src.Schema = job.Schema
	if job.Delimiter != "" {
		src.FieldDelimiter = job.Delimiter
	}

	table := l.Client.Dataset(job.Dataset).Table(job.Table)
	loader := table.LoaderFrom(src)
	loader.CreateDisposition = bigquery.CreateIfNeeded
	loader.WriteDisposition = bigquery.WriteTruncate
	if job.Append {
		loader.WriteDisposition = bigquery.WriteAppend
	}

	run, err := loader.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("start load %s.%s: %w", job.Dataset, job.Table, err)
	}
	status, err := run.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("wait load %s.%s: %w", job.Dataset, job.Table, err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("load %s.%s: %w", job.Dataset, job.Table, err)
	}

	meta, err := table.Metadata(ctx)
	if err != nil {
		return 0, fmt.Errorf("table metadata %s.%s: %w", job.Dataset, job.Table, err)
	}
	return meta.NumRows, nil
}
