package hierarchy

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/all-of-us/surveyprep/internal/redcap"
)

// PainScaleQuestion always gets the answers 0 through 10, whatever its choices say.
const PainScaleQuestion = "overallhealth_averagepain7days"

const numericAnswerName = "Select a value"

// tree is the id state of one output file.
type tree struct {
	sink     Sink
	nextID   int
	surveyID int
	topicID  int
}

func newTree(sink Sink) *tree {
	return &tree{sink: sink, nextID: 1}
}

func (t *tree) emit(n Node) (int, error) {
	n.ID = t.nextID
	if err := t.sink.Write(n); err != nil {
		return 0, err
	}
	t.nextID++
	return n.ID, nil
}

// parent is the current topic, or the survey before any topic was written.
func (t *tree) parent() int {
	if t.topicID == 0 {
		return t.surveyID
	}
	return t.topicID
}

// Builder turns the rows of one survey dictionary into hierarchy nodes. A
// Builder holds the id counters of a single survey; use a new one per survey.
type Builder struct {
	survey   string
	resolver TopicResolver
	log      zerolog.Logger

	all      *tree
	audience map[redcap.Audience]*tree
	started  bool
}

// NewBuilder returns a Builder writing to sinks. resolver may be nil, in which
// case topics get an empty code.
func NewBuilder(survey string, resolver TopicResolver, sinks Sinks, log zerolog.Logger) *Builder {
	b := &Builder{
		survey:   survey,
		resolver: resolver,
		log:      log.With().Str("survey", survey).Logger(),
		all:      newTree(sinks.All),
		audience: map[redcap.Audience]*tree{},
	}
	for _, aud := range redcap.Audiences {
		b.audience[aud] = newTree(sinks.audience(aud))
	}
	return b
}

// Flatten runs every row of a survey through a new Builder.
func Flatten(ctx context.Context, survey string, rows []redcap.DictionaryRow, resolver TopicResolver, sinks Sinks, log zerolog.Logger) error {
	b := NewBuilder(survey, resolver, sinks, log)
	for _, row := range rows {
		if err := b.Add(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// Add processes the next dictionary row. Skipped rows are ignored; the first
// kept row becomes the survey node.
func (b *Builder) Add(ctx context.Context, row redcap.DictionaryRow) error {
	if !redcap.Keep(row) {
		return nil
	}
	ann := redcap.ParseAnnotation(row.Annotation)

	if !b.started {
		b.started = true
		return b.addSurvey(row, ann)
	}

	if err := b.addTopic(ctx, row, ann); err != nil {
		return err
	}
	if err := b.addQuestion(row, ann); err != nil {
		return fmt.Errorf("field %s: %w", row.FieldName, err)
	}
	return nil
}

func (b *Builder) addSurvey(row redcap.DictionaryRow, ann redcap.Annotation) error {
	n := Node{
		Code:  row.FieldName,
		Name:  row.Label(),
		Type:  Survey,
		Flags: ann.Flags,
	}
	id, err := b.all.emit(n)
	if err != nil {
		return err
	}
	b.all.surveyID = id

	n.Flags = nil
	for _, aud := range redcap.Audiences {
		t := b.audience[aud]
		id, err := t.emit(n)
		if err != nil {
			return err
		}
		t.surveyID = id
	}
	return nil
}

func (b *Builder) addTopic(ctx context.Context, row redcap.DictionaryRow, ann redcap.Annotation) error {
	header := redcap.TopicHeader(row.SectionHeader)
	if strings.TrimSpace(header) == "" {
		return nil
	}

	var code string
	if b.resolver != nil {
		var err error
		code, err = b.resolver.ResolveTopicCode(ctx, b.survey, header)
		if err != nil {
			return fmt.Errorf("resolve topic %q: %w", header, err)
		}
	}
	if code == "" {
		b.log.Debug().Str("topic", header).Msg("no concept code for topic")
	}

	n := Node{
		ParentID: b.all.surveyID,
		Code:     code,
		Name:     header,
		Type:     Topic,
		Flags:    ann.Flags,
	}
	id, err := b.all.emit(n)
	if err != nil {
		return err
	}
	b.all.topicID = id

	n.Flags = nil
	for _, aud := range redcap.Audiences {
		if ann.Flags.TopicSuppressed(aud) {
			continue
		}
		t := b.audience[aud]
		n.ParentID = t.surveyID
		id, err := t.emit(n)
		if err != nil {
			return err
		}
		t.topicID = id
	}
	return nil
}

func (b *Builder) addQuestion(row redcap.DictionaryRow, ann redcap.Annotation) error {
	choices, err := redcap.ParseChoices(row.Choices)
	if err != nil {
		return err
	}
	lower, upper, numeric := row.NumericBounds()
	code := ann.ShortCode(row.FieldName)
	painScale := strings.EqualFold(row.FieldName, PainScaleQuestion)

	questionID, err := b.all.emit(Node{
		ParentID: b.all.parent(),
		Code:     code,
		Name:     row.Label(),
		Type:     Question,
		Min:      lower,
		Max:      upper,
		Flags:    ann.Flags,
	})
	if err != nil {
		return err
	}
	if painScale {
		err = emitPainScale(b.all, questionID, ann.Flags)
	} else {
		err = b.emitAllAnswers(questionID, choices, ann)
	}
	if err != nil {
		return err
	}

	for _, aud := range redcap.Audiences {
		if ann.Flags.QuestionSuppressed(aud) {
			continue
		}
		t := b.audience[aud]
		questionID, err := t.emit(Node{
			ParentID:        t.parent(),
			Code:            code,
			Name:            row.Label(),
			Type:            Question,
			AnswersBucketed: ann.Flags.AnswersBucketed(aud),
		})
		if err != nil {
			return err
		}
		switch {
		case numeric:
			_, err = t.emit(Node{
				ParentID: questionID,
				Name:     numericAnswerName,
				Type:     Answer,
				Min:      lower,
				Max:      upper,
			})
		case painScale:
			err = emitPainScale(t, questionID, nil)
		default:
			err = emitAudienceAnswers(t, aud, questionID, choices, ann)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) emitAllAnswers(questionID int, choices []redcap.Choice, ann redcap.Annotation) error {
	for _, c := range choices {
		_, err := b.all.emit(Node{
			ParentID: questionID,
			Code:     ann.ShortCode(c.Code),
			Name:     c.Label,
			Type:     Answer,
			Flags:    ann.Flags,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func emitAudienceAnswers(t *tree, aud redcap.Audience, questionID int, choices []redcap.Choice, ann redcap.Annotation) error {
	for _, c := range choices {
		code := ann.ShortCode(c.Code)
		if ann.AnswerSuppressed(aud, code) {
			continue
		}
		if _, err := t.emit(Node{ParentID: questionID, Code: code, Name: c.Label, Type: Answer}); err != nil {
			return err
		}
	}
	return nil
}

func emitPainScale(t *tree, questionID int, flags redcap.Flags) error {
	for i := 0; i <= 10; i++ {
		v := strconv.Itoa(i)
		if _, err := t.emit(Node{ParentID: questionID, Code: v, Name: v, Type: Answer, Flags: flags}); err != nil {
			return err
		}
	}
	return nil
}
