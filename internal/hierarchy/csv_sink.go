package hierarchy

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/all-of-us/surveyprep/internal/redcap"
)

// AudienceColumns is the header of the controlled and registered files.
var AudienceColumns = []string{"id", "parent_id", "code", "name", "type", "min", "max", "answers_bucketed"}

// AllColumns is the header of the "all" file. Flag columns follow
// redcap.KnownFlags.
var AllColumns = append([]string{"id", "parent_id", "code", "name", "type", "min", "max"}, flagColumns()...)

func flagColumns() []string {
	cols := make([]string, 0, len(redcap.KnownFlags))
	for _, f := range redcap.KnownFlags {
		// REGISTERED_ANSWERS_BUCKETED -> registered_answer_bucketed
		name := strings.ToLower(string(f))
		name = strings.Replace(name, "answers_bucketed", "answer_bucketed", 1)
		cols = append(cols, name)
	}
	return cols
}

// CSVSink writes nodes as CSV rows.
type CSVSink struct {
	w    *csv.Writer
	all  bool
	rows int
}

// NewAudienceCSV returns a sink for a controlled or registered file and writes its header.
func NewAudienceCSV(w io.Writer) (*CSVSink, error) {
	return newCSVSink(w, false)
}

// NewAllCSV returns a sink for the "all" file and writes its header.
func NewAllCSV(w io.Writer) (*CSVSink, error) {
	return newCSVSink(w, true)
}

func newCSVSink(w io.Writer, all bool) (*CSVSink, error) {
	s := &CSVSink{w: csv.NewWriter(w), all: all}
	header := AudienceColumns
	if all {
		header = AllColumns
	}
	if err := s.w.Write(header); err != nil {
		return nil, err
	}
	return s, nil
}

// Write appends one row.
func (s *CSVSink) Write(n Node) error {
	record := []string{
		strconv.Itoa(n.ID),
		strconv.Itoa(n.ParentID),
		n.Code,
		n.Name,
		string(n.Type),
		n.Min,
		n.Max,
	}
	if s.all {
		for _, f := range redcap.KnownFlags {
			record = append(record, bit(n.Flags.Has(f)))
		}
	} else {
		record = append(record, bit(n.AnswersBucketed))
	}
	if err := s.w.Write(record); err != nil {
		return err
	}
	s.rows++
	return nil
}

// Flush writes buffered rows to the underlying writer.
func (s *CSVSink) Flush() error {
	s.w.Flush()
	return s.w.Error()
}

// Rows is the number of data rows written so far.
func (s *CSVSink) Rows() int { return s.rows }

func bit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
