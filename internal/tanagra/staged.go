// Package tanagra builds the pipe-delimited staged survey files loaded into
// the prep_redcap_survey_file table.
package tanagra

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/all-of-us/surveyprep/internal/redcap"
)

// Columns is the staged file header.
var Columns = []string{"id", "concept_code", "survey_name", "topic", "answers"}

// Delimiter separates staged file columns.
const Delimiter = '|'

// ExcludedSuffixes drops fields whose concept code ends with any of them.
var ExcludedSuffixes = []string{
	"record_id", "_intro", "textbox", "freetext", "_outro",
	"hc_thankyou", "transplantdate", "outro_text", "cope_may",
	"cope_jun", "cope_jul", "cope_codebook_audit",
	"cope_codeversions", "cope_content_tracked", "cope_source_nhs",
	"cope_nov", "cope_octobe_implementation", "october_codes",
	"cope_dec", "cope_feb", "section_participation",
	"section_instructions", "outro_text_2", "cope_documentation",
	"fmh_document", "fmh_codebook", "fmh_concept", "fmh_helptext",
	"fmh_team_feedback", "cdc_covid_xx_a_date1",
	"cdc_covid_xx_b_firstdose_other",
	"cdc_covid_xx_symptom_cope_350",
	"cdc_covid_xx_a_date2", "cdc_covid_xx_b_seconddose_other",
	"cdc_covid_xx_symptom_seconddose_cope_350", "dmfs_29a",
	"dmfs_29_seconddose_other", "cdc_covid_xx_a_date3",
	"cdc_covid_xx_b_dose3_other",
	"cdc_covid_xx_symptom_cope_350_dose3",
	"cdc_covid_xx_type_dose3_other",
	"dmfs_29_additionaldose_other", "cdc_covid_xx_a_date4",
	"cdc_covid_xx_b_dose4_other",
	"cdc_covid_xx_symptom_cope_350_dose4",
	"cdc_covid_xx_type_dose4_other", "cdc_covid_xx_a_date5",
	"cdc_covid_xx_b_dose5_other",
	"cdc_covid_xx_symptom_cope_350_dose5",
	"cdc_covid_xx_type_dose5_other", "cdc_covid_xx_b_dose6_other",
	"cdc_covid_xx_symptom_cope_350_dose6", "cdc_covid_xx_a_date6",
	"cdc_covid_xx_type_dose6_other", "cdc_covid_xx_a_date7",
	"cdc_covid_xx_b_dose7_other",
	"cdc_covid_xx_symptom_cope_350_dose7",
	"cdc_covid_xx_type_dose7_other", "cdc_covid_xx_b_dose8_other",
	"cdc_covid_xx_symptom_cope_350_dose8", "cdc_covid_xx_a_date8",
	"cdc_covid_xx_type_dose8_other",
	"cdc_covid_xx_b_dose9_other", "cdc_covid_xx_a_date9",
	"cdc_covid_xx_symptom_cope_350_dose9",
	"cdc_covid_xx_type_dose9_other", "cdc_covid_xx_a_date10",
	"cdc_covid_xx_b_dose10_other",
	"cdc_covid_xx_symptom_cope_350_dose10",
	"cdc_covid_xx_type_dose10_other", "cdc_covid_xx_a_date11",
	"cdc_covid_xx_b_dose11_other",
	"cdc_covid_xx_symptom_cope_350_dose11",
	"cdc_covid_xx_type_dose11_other", "cdc_covid_xx_b_dose12_other",
	"cdc_covid_xx_symptom_cope_350_dose12", "cdc_covid_xx_a_date12",
	"cdc_covid_xx_type_dose12_other", "cdc_covid_xx_a_date13",
	"cdc_covid_xx_b_dose13_other",
	"cdc_covid_xx_symptom_cope_350_dose13",
	"cdc_covid_xx_type_dose13_other", "cdc_covid_xx_b_dose14_other",
	"cdc_covid_xx_symptom_cope_350_dose14", "cdc_covid_xx_a_date14",
	"cdc_covid_xx_type_dose14_other", "cdc_covid_xx_a_date15",
	"cdc_covid_xx_b_dose15_other",
	"cdc_covid_xx_symptom_cope_350_dose15",
	"cdc_covid_xx_type_dose15_other", "cdc_covid_xx_b_dose16_other",
	"cdc_covid_xx_symptom_cope_350_dose16", "cdc_covid_xx_a_date16",
	"cdc_covid_xx_type_dose16_other", "cdc_covid_xx_a_date17",
	"cdc_covid_xx_b_dose17_other",
	"cdc_covid_xx_symptom_cope_350_dose17",
	"cdc_covid_xx_type_dose17_other",
}

// TopiclessSurveys publish their rows without a topic.
var TopiclessSurveys = map[string]bool{
	"WinterMinuteSurveyOnCOV": true,
}

// SurveyName strips the language prefix and dictionary suffix of an export
// name: ENGLISHLifestyle_DataDictionary -> Lifestyle.
func SurveyName(export string) string {
	name := strings.TrimPrefix(export, "ENGLISH")
	return strings.TrimSuffix(name, "_DataDictionary")
}

// FileName is the staged file written for an export.
func FileName(export string) string {
	return "tanagra_" + strings.ToLower(SurveyName(export)) + "_staged.csv"
}

// Row is one staged line. Topic is nil for topic-less surveys.
type Row struct {
	ID          int
	ConceptCode string
	SurveyName  string
	Topic       *string
	Answers     string
}

// Stage converts the fields of one survey export into staged rows.
func Stage(export string, fields []redcap.DictionaryRow) []Row {
	survey := SurveyName(export)
	var (
		rows     []Row
		previous string
	)
	for _, f := range fields {
		code := renamedCode(f.FieldName, f.Annotation, previous)
		previous = code
		if excluded(code) {
			continue
		}
		row := Row{
			ID:          len(rows) + 1,
			ConceptCode: code,
			SurveyName:  survey,
			Answers:     answerCodes(f.Choices),
		}
		if !TopiclessSurveys[survey] {
			topic := strings.ReplaceAll(strings.ReplaceAll(f.SectionHeader, "\n", " "), `"`, "")
			row.Topic = &topic
		}
		rows = append(rows, row)
	}
	return rows
}

// renamedCode applies an annotation entry of the form "field=new" to code,
// unless the new name repeats the previous row's code.
func renamedCode(code, annotation, previous string) string {
	if annotation == "" {
		return code
	}
	for _, entry := range strings.Split(annotation, ",") {
		if !strings.HasPrefix(strings.TrimSpace(entry), code) {
			continue
		}
		parts := strings.Split(entry, "=")
		if len(parts) < 2 {
			continue
		}
		if name := strings.TrimSpace(parts[1]); name != "" && name != previous {
			code = name
		}
	}
	return code
}

func excluded(code string) bool {
	for _, suffix := range ExcludedSuffixes {
		if strings.HasSuffix(code, suffix) {
			return true
		}
	}
	return false
}

func answerCodes(choices string) string {
	var codes []string
	for _, choice := range strings.Split(choices, " | ") {
		code, _, _ := strings.Cut(choice, ",")
		codes = append(codes, code)
	}
	return strings.Join(codes, " ")
}

// Write renders rows as a staged file, header first.
func Write(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		topic := ""
		if r.Topic != nil {
			topic = *r.Topic
		}
		if err := cw.Write([]string{strconv.Itoa(r.ID), r.ConceptCode, r.SurveyName, topic, r.Answers}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
