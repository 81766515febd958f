package bqload

import (
	"strings"

	"cloud.google.com/go/bigquery"
)

// AudienceSchema matches the controlled and registered prep files.
var AudienceSchema = bigquery.Schema{
	{Name: "id", Type: bigquery.IntegerFieldType, Required: true},
	{Name: "parent_id", Type: bigquery.IntegerFieldType, Required: true},
	{Name: "code", Type: bigquery.StringFieldType},
	{Name: "name", Type: bigquery.StringFieldType},
	{Name: "type", Type: bigquery.StringFieldType, Required: true},
	{Name: "min", Type: bigquery.StringFieldType},
	{Name: "max", Type: bigquery.StringFieldType},
	{Name: "answers_bucketed", Type: bigquery.IntegerFieldType},
}

// AllSchema builds the schema of the "all" prep file from its header.
func AllSchema(columns []string) bigquery.Schema {
	schema := bigquery.Schema{}
	for _, col := range columns {
		switch col {
		case "id", "parent_id":
			schema = append(schema, &bigquery.FieldSchema{Name: col, Type: bigquery.IntegerFieldType, Required: true})
		case "type":
			schema = append(schema, &bigquery.FieldSchema{Name: col, Type: bigquery.StringFieldType, Required: true})
		case "code", "name", "min", "max":
			schema = append(schema, &bigquery.FieldSchema{Name: col, Type: bigquery.StringFieldType})
		default:
			schema = append(schema, &bigquery.FieldSchema{Name: col, Type: bigquery.IntegerFieldType})
		}
	}
	return schema
}

// StagedSurveySchema matches the pipe-delimited Tanagra staged files.
var StagedSurveySchema = bigquery.Schema{
	{Name: "id", Type: bigquery.IntegerFieldType, Required: true},
	{Name: "concept_code", Type: bigquery.StringFieldType, Required: true},
	{Name: "survey_name", Type: bigquery.StringFieldType, Required: true},
	{Name: "topic", Type: bigquery.StringFieldType},
	{Name: "answers", Type: bigquery.StringFieldType},
}

// TableName turns an output file name into a table name.
func TableName(file string) string {
	return strings.TrimSuffix(file, ".csv")
}
