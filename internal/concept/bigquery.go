// Package concept looks up PPI concept codes in the CDR vocabulary tables.
package concept

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const topicQuery = "SELECT concept_code\n" +
	"FROM `%s.%s.concept`\n" +
	"WHERE concept_name = @concept_name\n" +
	"AND vocabulary_id = 'PPI'\n" +
	"AND concept_class_id = 'Topic'\n" +
	"ORDER BY concept_code\n" +
	"LIMIT 1"

type conceptRow struct {
	ConceptCode bigquery.NullString `bigquery:"concept_code"`
}

// BigQueryResolver resolves topic headers against the concept table of a CDR dataset.
type BigQueryResolver struct {
	Client  *bigquery.Client
	Project string
	Dataset string
}

// NewBigQueryResolver opens a client billed to project.
func NewBigQueryResolver(ctx context.Context, project, dataset string) (*BigQueryResolver, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	return &BigQueryResolver{Client: client, Project: project, Dataset: dataset}, nil
}

// ResolveTopicCode returns the PPI topic concept code named header, or "" when
// the vocabulary has none.
func (r *BigQueryResolver) ResolveTopicCode(ctx context.Context, _, header string) (string, error) {
	query := r.Client.Query(r.queryText())
	query.Parameters = []bigquery.QueryParameter{
		{Name: "concept_name", Value: header},
	}

	itr, err := query.Read(ctx)
	if err != nil {
		return "", err
	}
	for {
		var row conceptRow
		err := itr.Next(&row)
		if err == iterator.Done {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		if row.ConceptCode.Valid {
			return row.ConceptCode.StringVal, nil
		}
	}
}

func (r *BigQueryResolver) queryText() string {
	return fmt.Sprintf(topicQuery, r.Project, r.Dataset)
}

// Close releases the BigQuery client.
func (r *BigQueryResolver) Close() error {
	return r.Client.Close()
}
