package redcap

import "strings"

// Audience is an access tier of the published survey hierarchy.
type Audience string

const (
	Controlled Audience = "controlled"
	Registered Audience = "registered"
)

// Audiences lists the tiers in output order.
var Audiences = []Audience{Controlled, Registered}

// Flag is a suppression or bucketing marker carried in a field annotation.
type Flag string

const (
	RegisteredTopicSuppressed    Flag = "REGISTERED_TOPIC_SUPPRESSED"
	RegisteredQuestionSuppressed Flag = "REGISTERED_QUESTION_SUPPRESSED"
	RegisteredAnswersBucketed    Flag = "REGISTERED_ANSWERS_BUCKETED"
	RegisteredAnswerSuppressed   Flag = "REGISTERED_ANSWER_SUPPRESSED"
	ControlledTopicSuppressed    Flag = "CONTROLLED_TOPIC_SUPPRESSED"
	ControlledQuestionSuppressed Flag = "CONTROLLED_QUESTION_SUPPRESSED"
	ControlledAnswersBucketed    Flag = "CONTROLLED_ANSWERS_BUCKETED"
	ControlledAnswerSuppressed   Flag = "CONTROLLED_ANSWER_SUPPRESSED"
)

// KnownFlags is every recognised flag, in the column order of the "all" file.
var KnownFlags = []Flag{
	RegisteredTopicSuppressed,
	RegisteredQuestionSuppressed,
	RegisteredAnswersBucketed,
	RegisteredAnswerSuppressed,
	ControlledTopicSuppressed,
	ControlledQuestionSuppressed,
	ControlledAnswersBucketed,
	ControlledAnswerSuppressed,
}

func isKnownFlag(s string) bool {
	for _, f := range KnownFlags {
		if string(f) == s {
			return true
		}
	}
	return false
}

// Flags records which known flags a field annotation mentions.
type Flags map[Flag]bool

// Has reports whether flag is set.
func (f Flags) Has(flag Flag) bool { return f[flag] }

// TopicSuppressed reports whether topics of the field are hidden from aud.
func (f Flags) TopicSuppressed(aud Audience) bool {
	if aud == Controlled {
		return f[ControlledTopicSuppressed]
	}
	return f[RegisteredTopicSuppressed]
}

// QuestionSuppressed reports whether the field's question is hidden from aud.
func (f Flags) QuestionSuppressed(aud Audience) bool {
	if aud == Controlled {
		return f[ControlledQuestionSuppressed]
	}
	return f[RegisteredQuestionSuppressed]
}

// AnswersBucketed reports whether the field's answers are bucketed for aud.
func (f Flags) AnswersBucketed(aud Audience) bool {
	if aud == Controlled {
		return f[ControlledAnswersBucketed]
	}
	return f[RegisteredAnswersBucketed]
}

// Annotation is the parsed form of a "Field Annotation" cell.
type Annotation struct {
	Flags Flags
	// Renames maps lowercased long codes to lowercased short codes.
	Renames    map[string]string
	suppressed map[Audience]map[string]struct{}
}

// ParseAnnotation extracts flags, code renames and suppressed answer codes
// from raw annotation text such as
//
//	CONTROLLED_QUESTION_SUPPRESSED, CompletelyQuitAgePreferNotToAnswer=AttemptQuitSmoking_CompletelyQuitAgePreferNo
//
// Flags are matched as substrings of the whole text, so a flag name embedded
// in a longer entry still counts.
func ParseAnnotation(raw string) Annotation {
	a := Annotation{
		Flags:      make(Flags, len(KnownFlags)),
		Renames:    map[string]string{},
		suppressed: map[Audience]map[string]struct{}{},
	}
	for _, f := range KnownFlags {
		a.Flags[f] = strings.Contains(raw, string(f))
	}

	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if isKnownFlag(token) {
			continue
		}
		parts := strings.Split(token, "=")
		if len(parts) < 2 {
			// free text, e.g. "Launched 5/30/2017 (PTSC)"
			continue
		}
		left := strings.TrimSpace(parts[0])
		right := strings.ToLower(strings.TrimSpace(parts[1]))
		switch left {
		case string(ControlledAnswerSuppressed):
			a.suppress(Controlled, right)
		case string(RegisteredAnswerSuppressed):
			a.suppress(Registered, right)
		default:
			a.Renames[strings.ToLower(left)] = right
		}
	}
	return a
}

func (a *Annotation) suppress(aud Audience, code string) {
	set, ok := a.suppressed[aud]
	if !ok {
		set = map[string]struct{}{}
		a.suppressed[aud] = set
	}
	set[code] = struct{}{}
}

// ShortCode returns the short code registered for code, or code itself.
func (a Annotation) ShortCode(code string) string {
	if short, ok := a.Renames[strings.ToLower(code)]; ok {
		return short
	}
	return code
}

// AnswerSuppressed reports whether answer code is excluded for aud.
func (a Annotation) AnswerSuppressed(aud Audience, code string) bool {
	_, ok := a.suppressed[aud][strings.ToLower(code)]
	return ok
}
