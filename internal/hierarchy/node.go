// Package hierarchy flattens a REDCap data dictionary into the
// SURVEY > TOPIC > QUESTION > ANSWER rows published for each audience.
package hierarchy

import (
	"context"

	"github.com/all-of-us/surveyprep/internal/redcap"
)

// NodeType is the level of a row in the survey tree.
type NodeType string

const (
	Survey   NodeType = "SURVEY"
	Topic    NodeType = "TOPIC"
	Question NodeType = "QUESTION"
	Answer   NodeType = "ANSWER"
)

// Node is one emitted output row.
type Node struct {
	ID       int
	ParentID int
	Code     string
	Name     string
	Type     NodeType
	Min      string
	Max      string

	// Flags is written to the "all" file only.
	Flags redcap.Flags
	// AnswersBucketed is written to the audience files, and only set on questions.
	AnswersBucketed bool
}

// Sink receives the rows of one output file in order.
type Sink interface {
	Write(Node) error
}

// Sinks are the three outputs of a survey.
type Sinks struct {
	All        Sink
	Controlled Sink
	Registered Sink
}

func (s Sinks) audience(aud redcap.Audience) Sink {
	if aud == redcap.Controlled {
		return s.Controlled
	}
	return s.Registered
}

// TopicResolver maps a topic header to its PPI concept code. An empty code
// with a nil error means the topic is not in the vocabulary.
type TopicResolver interface {
	ResolveTopicCode(ctx context.Context, survey, header string) (string, error)
}

// TopicResolverFunc adapts a function to TopicResolver.
type TopicResolverFunc func(ctx context.Context, survey, header string) (string, error)

func (f TopicResolverFunc) ResolveTopicCode(ctx context.Context, survey, header string) (string, error) {
	return f(ctx, survey, header)
}
