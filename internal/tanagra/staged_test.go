package tanagra

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/all-of-us/surveyprep/internal/redcap"
)

func TestNames(t *testing.T) {
	assert.Equal(t, "Lifestyle", SurveyName("ENGLISHLifestyle_DataDictionary"))
	assert.Equal(t, "tanagra_lifestyle_staged.csv", FileName("ENGLISHLifestyle_DataDictionary"))
	assert.Equal(t, "tanagra_socialdeterminantsofhea_staged.csv", FileName("ENGLISHSocialDeterminantsOfHea_DataDictionary"))
}

func TestStage(t *testing.T) {
	fields := []redcap.DictionaryRow{
		{FieldName: "record_id"},
		{FieldName: "lifestyle_intro", SectionHeader: "Intro"},
		{
			FieldName:     "smoking_100cigslifetime",
			SectionHeader: "Smoking\n\"Tobacco\" use",
			Choices:       "cope_a_43, Yes | cope_a_3, No, never",
		},
		{
			FieldName:  "attemptquitsmoking_completelyquitageprefernottoanswer",
			Annotation: "attemptquitsmoking_completelyquitageprefernottoanswer=AttemptQuitSmoking_CompletelyQuitAgePreferNo",
		},
	}

	rows := Stage("ENGLISHLifestyle_DataDictionary", fields)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].ID)
	assert.Equal(t, "smoking_100cigslifetime", rows[0].ConceptCode)
	assert.Equal(t, "Lifestyle", rows[0].SurveyName)
	require.NotNil(t, rows[0].Topic)
	assert.Equal(t, "Smoking Tobacco use", *rows[0].Topic)
	assert.Equal(t, "cope_a_43 cope_a_3", rows[0].Answers)

	assert.Equal(t, 2, rows[1].ID)
	assert.Equal(t, "AttemptQuitSmoking_CompletelyQuitAgePreferNo", rows[1].ConceptCode)
	assert.Equal(t, "", rows[1].Answers)
}

func TestRenameSkipsRepeatOfPreviousCode(t *testing.T) {
	fields := []redcap.DictionaryRow{
		{FieldName: "q1", Annotation: "q1=shared"},
		{FieldName: "q1_b", Annotation: "q1_b=shared"},
	}
	rows := Stage("ENGLISHBasics_DataDictionary", fields)
	require.Len(t, rows, 2)
	assert.Equal(t, "shared", rows[0].ConceptCode)
	assert.Equal(t, "q1_b", rows[1].ConceptCode)
}

func TestTopiclessSurvey(t *testing.T) {
	rows := Stage("ENGLISHWinterMinuteSurveyOnCOV_DataDictionary", []redcap.DictionaryRow{{FieldName: "cdc_covid_xx", SectionHeader: "Vaccine"}})
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Topic)
}

func TestWrite(t *testing.T) {
	topic := "Smoking"
	var buf bytes.Buffer
	err := Write(&buf, []Row{
		{ID: 1, ConceptCode: "smoking", SurveyName: "Lifestyle", Topic: &topic, Answers: "a b"},
		{ID: 2, ConceptCode: "pipe", SurveyName: "Lifestyle", Answers: "x|y"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"id|concept_code|survey_name|topic|answers\n"+
			"1|smoking|Lifestyle|Smoking|a b\n"+
			"2|pipe|Lifestyle||\"x|y\"\n",
		buf.String())
}
