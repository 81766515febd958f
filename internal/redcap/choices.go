package redcap

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedChoice is returned for a choice entry without a "code, label" pair.
var ErrMalformedChoice = errors.New("malformed choice")

const thanksPhrase = "Thanks for your answers."

// TopicHeader returns the topic text of a section header: everything before
// the first line break, minus the closing "Thanks for your answers." phrase.
func TopicHeader(sectionHeader string) string {
	header := sectionHeader
	if i := strings.Index(header, "\n"); i >= 0 {
		header = header[:i]
	}
	return strings.ReplaceAll(header, thanksPhrase, "")
}

// Choice is one answer option of a field.
type Choice struct {
	Code  string
	Label string
}

// ParseChoices splits a choices cell such as
//
//	COPE_A_43, A lot | COPE_A_3, Somewhat | COPE_A_67, A little
//
// into its options. Only the first comma separates code from label, labels
// may contain commas. Codes are lowercased.
func ParseChoices(raw string) ([]Choice, error) {
	if raw == "" {
		return nil, nil
	}
	raw = strings.ReplaceAll(raw, "|  |", "|")

	var out []Choice
	for _, segment := range strings.Split(raw, "|") {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		code, label, ok := strings.Cut(segment, ",")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMalformedChoice, strings.TrimSpace(segment))
		}
		out = append(out, Choice{
			Code:  strings.ToLower(strings.TrimSpace(code)),
			Label: strings.TrimSpace(label),
		})
	}
	return out, nil
}
