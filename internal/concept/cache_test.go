package concept

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/all-of-us/surveyprep/internal/hierarchy"
)

func TestCachedResolverMemoisesHitsAndMisses(t *testing.T) {
	calls := map[string]int{}
	next := hierarchy.TopicResolverFunc(func(_ context.Context, _, header string) (string, error) {
		calls[header]++
		if header == "Smoking" {
			return "topic_smoking", nil
		}
		return "", nil
	})
	c, err := NewCachedResolver(next, 0)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		code, err := c.ResolveTopicCode(ctx, "lifestyle", "Smoking")
		require.NoError(t, err)
		assert.Equal(t, "topic_smoking", code)

		code, err = c.ResolveTopicCode(ctx, "lifestyle", "Unknown topic")
		require.NoError(t, err)
		assert.Empty(t, code)
	}
	assert.Equal(t, map[string]int{"Smoking": 1, "Unknown topic": 1}, calls)
	assert.Equal(t, 2, c.Len())
}

func TestCachedResolverDoesNotCacheErrors(t *testing.T) {
	fail := true
	calls := 0
	next := hierarchy.TopicResolverFunc(func(context.Context, string, string) (string, error) {
		calls++
		if fail {
			return "", errors.New("quota exceeded")
		}
		return "topic_alcohol", nil
	})
	c, err := NewCachedResolver(next, 4)
	require.NoError(t, err)

	_, err = c.ResolveTopicCode(context.Background(), "lifestyle", "Alcohol")
	assert.Error(t, err)

	fail = false
	code, err := c.ResolveTopicCode(context.Background(), "lifestyle", "Alcohol")
	require.NoError(t, err)
	assert.Equal(t, "topic_alcohol", code)
	assert.Equal(t, 2, calls)
}

func TestTopicQueryTargetsDataset(t *testing.T) {
	r := &BigQueryResolver{Project: "all-of-us-workbench-test", Dataset: "SR2023Q3R2"}
	q := r.queryText()
	assert.Contains(t, q, "`all-of-us-workbench-test.SR2023Q3R2.concept`")
	assert.Contains(t, q, "@concept_name")
	assert.Contains(t, q, "vocabulary_id = 'PPI'")
	assert.Contains(t, q, "concept_class_id = 'Topic'")
}
