package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/agendametrics/apiserver/config"
	"google.golang.org/api/option"
)

// GCSClient writes account archives to a Google Cloud Storage bucket.
// Archives are small single JSON documents, so it only needs bucket
// bootstrap and whole-object writes.
type GCSClient struct {
	client *storage.Client
	bucket string
	// project owns the bucket when EnsureBucket has to create it.
	project string
}

// NewGCSClient connects with the credentials file when one is configured,
// falling back to application default credentials.
func NewGCSClient(ctx context.Context, cfg config.GCSConfig) (*GCSClient, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs archive bucket is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}

	return &GCSClient{
		client:  client,
		bucket:  cfg.Bucket,
		project: strings.TrimSpace(cfg.ProjectID),
	}, nil
}

// EnsureBucket checks the archive bucket at startup and creates it in the
// configured project when it is missing.
func (g *GCSClient) EnsureBucket(ctx context.Context) error {
	bucket := g.client.Bucket(g.bucket)
	_, err := bucket.Attrs(ctx)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, storage.ErrBucketNotExist):
		return fmt.Errorf("inspect bucket %s: %w", g.bucket, err)
	case g.project == "":
		return fmt.Errorf("bucket %s does not exist and GCS_PROJECT_ID is not set", g.bucket)
	}
	return bucket.Create(ctx, g.project, nil)
}

// Put writes an archive in a single request. Archiving the same account
// twice replaces the earlier object.
func (g *GCSClient) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) error {
	writer := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	writer.ChunkSize = 0
	writer.Metadata = map[string]string{"kind": "user-archive"}
	if strings.TrimSpace(contentType) != "" {
		writer.ContentType = contentType
	}
	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// Bucket returns the configured bucket name.
func (g *GCSClient) Bucket() string {
	return g.bucket
}

