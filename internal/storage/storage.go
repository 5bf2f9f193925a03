package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/agendametrics/apiserver/config"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
}

// New builds the backend selected by cfg.Backend and makes sure its bucket
// exists. It returns nil when archiving is disabled.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch cfg.Backend {
	case "":
		return nil, nil
	case config.BackendMinio:
		var client *MinioClient
		client, err = NewMinioClient(cfg.Minio)
		backend = client
	case config.BackendGCS:
		var client *GCSClient
		client, err = NewGCSClient(ctx, cfg.GCS)
		backend = client
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return backend, nil
}
