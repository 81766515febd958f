package pipeline

import (
	"time"

	"github.com/all-of-us/surveyprep/internal/notify"
)

// RunSummary describes a finished run.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	Command    string        `json:"command"`
	Project    string        `json:"project"`
	Dataset    string        `json:"dataset"`
	Date       string        `json:"date"`
	Files      []FileSummary `json:"files"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// FileSummary is one file written to the bucket.
type FileSummary struct {
	Name string `json:"name"`
	Key  string `json:"key"`
	// Rows excludes the header.
	Rows int `json:"rows"`
	// TableRows is the row count of the table after loading, zero when not loaded.
	TableRows uint64 `json:"table_rows,omitempty"`
}

// Message is the notification sent for the summary.
func (s *RunSummary) Message() notify.Message {
	return notify.Message{
		Body: s,
		Attributes: map[string]string{
			"Command": s.Command,
			"Date":    s.Date,
			"RunID":   s.RunID,
		},
	}
}
