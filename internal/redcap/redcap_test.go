package redcap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dictionaryHeader = `"Variable / Field Name","Form Name","Section Header","Field Type","Field Label","Choices, Calculations, OR Slider Labels","Field Note","Text Validation Type OR Show Slider Number","Text Validation Min","Text Validation Max","Field Annotation"`

func TestReadDictionary(t *testing.T) {
	export := "\ufeff" + dictionaryHeader + "\n" +
		`record_id,basics,,text,Record ID,,,,,,` + "\n" +
		`insurance,basics,"Health Insurance` + "\n" + `Tell us more",radio,"Are you covered?","yes, Yes | no, No",,,,,"CONTROLLED_QUESTION_SUPPRESSED"` + "\n"

	rows, err := ReadDictionary(strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "record_id", rows[0].FieldName)
	assert.Equal(t, "insurance", rows[1].FieldName)
	assert.Equal(t, "Health Insurance\nTell us more", rows[1].SectionHeader)
	assert.Equal(t, "yes, Yes | no, No", rows[1].Choices)
	assert.Equal(t, "CONTROLLED_QUESTION_SUPPRESSED", rows[1].Annotation)
	assert.Equal(t, "radio", rows[1].FieldType)
}

func TestReadDictionaryMissingColumn(t *testing.T) {
	_, err := ReadDictionary(strings.NewReader("Variable / Field Name,Field Label\nx,y\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestKeep(t *testing.T) {
	tests := []struct {
		name string
		row  DictionaryRow
		want bool
	}{
		{"question", DictionaryRow{FieldName: "smoking", FieldType: "radio", FieldLabel: "Do you smoke?"}, true},
		{"record id", DictionaryRow{FieldName: "Record_ID", FieldType: "text"}, false},
		{"descriptive", DictionaryRow{FieldName: "intro", FieldType: "DESCRIPTIVE"}, false},
		{"please specify", DictionaryRow{FieldName: "other", FieldType: "text", FieldLabel: "Other, Please Specify:"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Keep(tt.row))
		})
	}
}

func TestNumericBounds(t *testing.T) {
	lower, upper, ok := DictionaryRow{ValidationType: "integer", ValidationMin: "0", ValidationMax: "99"}.NumericBounds()
	assert.True(t, ok)
	assert.Equal(t, "0", lower)
	assert.Equal(t, "99", upper)

	_, _, ok = DictionaryRow{ValidationType: "number", ValidationMin: "0"}.NumericBounds()
	assert.False(t, ok)

	_, _, ok = DictionaryRow{ValidationType: "date_mdy", ValidationMin: "1", ValidationMax: "2"}.NumericBounds()
	assert.False(t, ok)
}

func TestParseAnnotationFlags(t *testing.T) {
	a := ParseAnnotation("CONTROLLED_TOPIC_SUPPRESSED, REGISTERED_ANSWERS_BUCKETED")

	assert.True(t, a.Flags.Has(ControlledTopicSuppressed))
	assert.True(t, a.Flags.Has(RegisteredAnswersBucketed))
	assert.False(t, a.Flags.Has(ControlledQuestionSuppressed))
	assert.Len(t, a.Flags, len(KnownFlags))
	assert.Empty(t, a.Renames)

	assert.True(t, a.Flags.TopicSuppressed(Controlled))
	assert.False(t, a.Flags.TopicSuppressed(Registered))
	assert.True(t, a.Flags.AnswersBucketed(Registered))
}

func TestParseAnnotationFlagIsSubstringMatch(t *testing.T) {
	a := ParseAnnotation("see XCONTROLLED_QUESTION_SUPPRESSEDX for details")
	assert.True(t, a.Flags.QuestionSuppressed(Controlled))
}

func TestParseAnnotationRenamesAndSuppression(t *testing.T) {
	a := ParseAnnotation("CompletelyQuitAgePreferNotToAnswer = AttemptQuitSmoking_CompletelyQuitAgePreferNo, " +
		"CONTROLLED_ANSWER_SUPPRESSED=WhatRaceEthnicity_AIAN, REGISTERED_ANSWER_SUPPRESSED=xyz, Launched 5/30/2017 (PTSC)")

	assert.Equal(t, map[string]string{
		"completelyquitageprefernottoanswer": "attemptquitsmoking_completelyquitagepreferno",
	}, a.Renames)
	assert.True(t, a.AnswerSuppressed(Controlled, "whatraceethnicity_aian"))
	assert.False(t, a.AnswerSuppressed(Registered, "whatraceethnicity_aian"))
	assert.True(t, a.AnswerSuppressed(Registered, "XYZ"))
	assert.True(t, a.Flags.Has(ControlledAnswerSuppressed))
	assert.True(t, a.Flags.Has(RegisteredAnswerSuppressed))
}

func TestParseAnnotationEmpty(t *testing.T) {
	for _, raw := range []string{"", "  "} {
		a := ParseAnnotation(raw)
		assert.Empty(t, a.Renames)
		assert.False(t, a.AnswerSuppressed(Controlled, ""))
		for _, f := range KnownFlags {
			assert.False(t, a.Flags.Has(f))
		}
	}
}

func TestShortCode(t *testing.T) {
	a := ParseAnnotation("LongCode=ShortCode")
	assert.Equal(t, "shortcode", a.ShortCode("longcode"))
	assert.Equal(t, "shortcode", a.ShortCode("LongCode"))
	assert.Equal(t, "OtherCode", a.ShortCode("OtherCode"))
}

func TestTopicHeader(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Smoking", "Smoking"},
		{"Smoking\nThe next questions are about tobacco.", "Smoking"},
		{"Thanks for your answers.Alcohol", "Alcohol"},
		{"", ""},
		{"\nonly a description", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TopicHeader(tt.in), tt.in)
	}
}

func TestParseChoices(t *testing.T) {
	choices, err := ParseChoices("abc, A lot | xyz, Somewhat")
	require.NoError(t, err)
	assert.Equal(t, []Choice{{"abc", "A lot"}, {"xyz", "Somewhat"}}, choices)
}

func TestParseChoicesKeepsCommasInLabel(t *testing.T) {
	choices, err := ParseChoices("COPE_A_43, Yes, all of the time |  | COPE_A_3, No")
	require.NoError(t, err)
	assert.Equal(t, []Choice{{"cope_a_43", "Yes, all of the time"}, {"cope_a_3", "No"}}, choices)
}

func TestParseChoicesEmpty(t *testing.T) {
	choices, err := ParseChoices("")
	require.NoError(t, err)
	assert.Empty(t, choices)
}

func TestParseChoicesMalformed(t *testing.T) {
	_, err := ParseChoices("[a] + [b]")
	assert.ErrorIs(t, err, ErrMalformedChoice)
}
