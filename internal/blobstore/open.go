package blobstore

import (
	"fmt"
	"strings"
)

// Backends accepted by Open.
const (
	BackendS3    = "s3"
	BackendMinio = "minio"
	BackendDir   = "dir"
)

// Config selects and addresses a Store.
type Config struct {
	Backend   string
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Dir       string
}

// Open builds the Store named by cfg.Backend.
func Open(cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendS3, "":
		return NewS3Store(cfg.Region, cfg.Bucket)
	case BackendMinio:
		return NewMinioStore(MinioConfig{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.UseSSL,
		})
	case BackendDir:
		return NewDirStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
