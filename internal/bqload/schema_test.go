package bqload

import (
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
)

func TestAllSchemaTypesColumns(t *testing.T) {
	schema := AllSchema([]string{"id", "parent_id", "code", "name", "type", "min", "max", "controlled_topic_suppressed"})

	assert.Len(t, schema, 8)
	assert.Equal(t, bigquery.IntegerFieldType, schema[0].Type)
	assert.True(t, schema[0].Required)
	assert.Equal(t, bigquery.StringFieldType, schema[2].Type)
	assert.False(t, schema[2].Required)
	assert.True(t, schema[4].Required)
	assert.Equal(t, "controlled_topic_suppressed", schema[7].Name)
	assert.Equal(t, bigquery.IntegerFieldType, schema[7].Type)
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "prep_ppi_basics_all", TableName("prep_ppi_basics_all.csv"))
	assert.Equal(t, "prep_redcap_survey_file", TableName("prep_redcap_survey_file"))
}
