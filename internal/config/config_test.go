package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/all-of-us/surveyprep/internal/blobstore"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "LOG_LEVEL", "LOG_FORMAT", "STORE_BACKEND", "SURVEY_BUCKET", "AWS_REGION",
		"STORE_ENDPOINT", "STORE_ACCESS_KEY", "STORE_SECRET_KEY", "MINIO_ROOT_USER", "MINIO_ROOT_PASSWORD",
		"STORE_USE_SSL", "STORE_DIR", "WORK_DIR", "OUTPUT_QUEUE", "TOPIC_CACHE_SIZE",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, blobstore.BackendS3, cfg.Store.Backend)
	assert.Equal(t, DefaultBucket, cfg.Store.Bucket)
	assert.Equal(t, "us-east-1", cfg.Store.Region)
	assert.True(t, cfg.Store.UseSSL)
	assert.Equal(t, filepath.Join(os.TempDir(), "surveyprep"), cfg.WorkDir)
	assert.Equal(t, 512, cfg.TopicCacheSize)
	assert.Empty(t, cfg.OutputQueue)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "minio")
	t.Setenv("STORE_ENDPOINT", "minio:9000")
	t.Setenv("STORE_ACCESS_KEY", "")
	t.Setenv("MINIO_ROOT_USER", "surveyprep")
	t.Setenv("STORE_USE_SSL", "false")
	t.Setenv("TOPIC_CACHE_SIZE", "not-a-number")
	t.Setenv("OUTPUT_QUEUE", "prep-survey-output")
	t.Setenv("WORK_DIR", " /mnt/scratch/csv ")

	cfg := FromEnv()
	assert.Equal(t, "minio", cfg.Store.Backend)
	assert.Equal(t, "minio:9000", cfg.Store.Endpoint)
	assert.Equal(t, "surveyprep", cfg.Store.AccessKey)
	assert.False(t, cfg.Store.UseSSL)
	assert.Equal(t, 512, cfg.TopicCacheSize)
	assert.Equal(t, "prep-survey-output", cfg.OutputQueue)
	assert.Equal(t, "/mnt/scratch/csv", cfg.WorkDir)
}

func TestDefaultWorkDirIsWritableTemp(t *testing.T) {
	t.Setenv("WORK_DIR", "")

	dir := FromEnv().WorkDir
	assert.True(t, filepath.IsAbs(dir), "work dir %q must not depend on the process cwd", dir)
	rel, err := filepath.Rel(os.TempDir(), dir)
	assert.NoError(t, err)
	assert.False(t, strings.HasPrefix(rel, ".."), "work dir %q is outside %s", dir, os.TempDir())
	assert.NotEqual(t, ".", rel)
}
