package main

import (
	"context"
	"fmt"

	goskema "github.com/reoring/goskema"
	g "github.com/reoring/goskema/dsl"

	"github.com/all-of-us/surveyprep/internal/pipeline"
)

// InputJSON is the body of a run request message.
type InputJSON struct {
	Command string `json:"command"`
	Project string `json:"project"`
	Dataset string `json:"dataset"`
	Date    string `json:"date"`
	Load    bool   `json:"load"`
}

var inputSchema = g.ObjectOf[InputJSON]().
	Field("command", g.StringOf[string]()).Required().
	Field("project", g.StringOf[string]()).Required().
	Field("dataset", g.StringOf[string]()).Required().
	Field("date", g.StringOf[string]()).Required().
	Field("load", g.BoolOf[bool]()).Default(false).
	UnknownStrict().
	MustBind()

func (in InputJSON) request() pipeline.Request {
	return pipeline.Request{
		Command: in.Command,
		Project: in.Project,
		Dataset: in.Dataset,
		Date:    in.Date,
		Load:    in.Load,
	}
}

// validateInputMessage decodes body against the request schema and checks
// the values.
func validateInputMessage(ctx context.Context, body []byte) (InputJSON, error) {
	in, err := goskema.ParseFrom(ctx, inputSchema, goskema.JSONBytes(body))
	if err != nil {
		return InputJSON{}, fmt.Errorf("invalid run request: %w", err)
	}
	if err := in.request().Validate(); err != nil {
		return InputJSON{}, fmt.Errorf("invalid run request: %w", err)
	}
	return in, nil
}
