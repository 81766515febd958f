package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	goskema "github.com/reoring/goskema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/all-of-us/surveyprep/internal/pipeline"
)

func TestInputMessageReturnsExpected(t *testing.T) {
	tests := []struct {
		name     string
		message  []byte
		expected InputJSON
	}{
		{
			name:     "prep with load",
			message:  validJSONMessage,
			expected: InputJSON{Command: "prep", Project: "aou-res-curation-prod", Dataset: "R2024Q1", Date: "2024-03-01", Load: true},
		},
		{
			name:     "stage without load",
			message:  []byte(`{"command":"stage","project":"aou-res-curation-prod","dataset":"R2024Q1","date":"2024-03-01"}`),
			expected: InputJSON{Command: "stage", Project: "aou-res-curation-prod", Dataset: "R2024Q1", Date: "2024-03-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := validateInputMessage(context.Background(), tt.message)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestInputMessageRejected(t *testing.T) {
	tests := []struct {
		name    string
		message string
		code    string
	}{
		{"missing date", `{"command":"prep","project":"p","dataset":"d"}`, goskema.CodeRequired},
		{"unknown key", `{"command":"prep","project":"p","dataset":"d","date":"2024-03-01","survey":"x"}`, goskema.CodeUnknownKey},
		{"unknown command", `{"command":"publish","project":"p","dataset":"d","date":"2024-03-01"}`, ""},
		{"bad date", `{"command":"prep","project":"p","dataset":"d","date":"20240301"}`, ""},
		{"not json", `command=prep`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateInputMessage(context.Background(), []byte(tt.message))
			require.Error(t, err)
			if tt.code == "" {
				return
			}
			issues, ok := goskema.AsIssues(err)
			require.True(t, ok)
			var codes []string
			for _, iss := range issues {
				codes = append(codes, iss.Code)
			}
			assert.Contains(t, codes, tt.code)
		})
	}
}

type fakeRunner struct {
	requests []pipeline.Request
	err      error
}

func (f *fakeRunner) Run(_ context.Context, req pipeline.Request) (*pipeline.RunSummary, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.RunSummary{RunID: "run-1", Command: req.Command, Date: req.Date}, nil
}

func TestProcessRunsRecordsInOrder(t *testing.T) {
	r := &fakeRunner{}
	event := events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "1", Body: string(validJSONMessage)},
		{MessageId: "2", Body: `{"command":"stage","project":"p","dataset":"d","date":"2024-03-02"}`},
	}}

	require.NoError(t, process(context.Background(), r, zerolog.Nop(), event))
	require.Len(t, r.requests, 2)
	assert.Equal(t, pipeline.Request{Command: "prep", Project: "aou-res-curation-prod", Dataset: "R2024Q1", Date: "2024-03-01", Load: true}, r.requests[0])
	assert.Equal(t, "stage", r.requests[1].Command)
}

func TestProcessStopsAtFirstFailure(t *testing.T) {
	boom := errors.New("missing export")
	r := &fakeRunner{err: boom}
	event := events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "1", Body: string(validJSONMessage)},
		{MessageId: "2", Body: string(validJSONMessage)},
	}}

	err := process(context.Background(), r, zerolog.Nop(), event)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, r.requests, 1)
}

func TestProcessRejectsInvalidBody(t *testing.T) {
	r := &fakeRunner{}
	event := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "1", Body: `{"command":"prep"}`}}}

	assert.Error(t, process(context.Background(), r, zerolog.Nop(), event))
	assert.Empty(t, r.requests)
}

var validJSONMessage = []byte(`
{
	"command": "prep",
	"project": "aou-res-curation-prod",
	"dataset": "R2024Q1",
	"date": "2024-03-01",
	"load": true
}`)
