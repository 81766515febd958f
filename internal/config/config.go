// Package config reads run settings from the environment and an optional .env file.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/all-of-us/surveyprep/internal/blobstore"
)

// DefaultBucket holds the REDCap exports and staged files.
const DefaultBucket = "all-of-us-workbench-private-cloudsql"

// DefaultWorkDir is the scratch directory used when WORK_DIR is unset.
func DefaultWorkDir() string {
	return filepath.Join(os.TempDir(), "surveyprep")
}

type Config struct {
	Env       string
	LogLevel  string
	LogFormat string

	Store blobstore.Config

	// WorkDir is cleared and recreated on every run. It defaults to a
	// directory under os.TempDir, the only writable path on Lambda.
	WorkDir        string
	OutputQueue    string
	TopicCacheSize int
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(), nil
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	env := firstNonEmpty(getenv("APP_ENV"), "local")
	region := firstNonEmpty(getenv("AWS_REGION"), "us-east-1")
	return &Config{
		Env:       env,
		LogLevel:  firstNonEmpty(getenv("LOG_LEVEL"), "info"),
		LogFormat: firstNonEmpty(getenv("LOG_FORMAT"), "json"),
		Store: blobstore.Config{
			Backend:   firstNonEmpty(getenv("STORE_BACKEND"), blobstore.BackendS3),
			Bucket:    firstNonEmpty(getenv("SURVEY_BUCKET"), DefaultBucket),
			Region:    region,
			Endpoint:  getenv("STORE_ENDPOINT"),
			AccessKey: firstNonEmpty(getenv("STORE_ACCESS_KEY"), getenv("MINIO_ROOT_USER")),
			SecretKey: firstNonEmpty(getenv("STORE_SECRET_KEY"), getenv("MINIO_ROOT_PASSWORD")),
			UseSSL:    parseBool(getenv("STORE_USE_SSL"), true),
			Dir:       getenv("STORE_DIR"),
		},
		WorkDir:        firstNonEmpty(getenv("WORK_DIR"), DefaultWorkDir()),
		OutputQueue:    getenv("OUTPUT_QUEUE"),
		TopicCacheSize: parseInt(getenv("TOPIC_CACHE_SIZE"), 512),
	}
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseBool(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
