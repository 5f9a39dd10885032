package minio

import (
	"context"
	"fmt"
	"io"

	miniogo "github.com/minio/minio-go/v7"
)

// Mirror uploads per-video slide bundles to a shared bucket so downstream
// collaborators can pull a whole extraction as one object.
type Mirror struct {
	client *miniogo.Client
	bucket string
}

func NewMirror(cfg ClientConfig, bucket string) (*Mirror, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Mirror{client: client, bucket: bucket}, nil
}

// EnsureBucket creates the bundle bucket if it does not exist yet.
func (m *Mirror) EnsureBucket(ctx context.Context) error {
	return ensureBucket(ctx, m.client, m.bucket)
}

func (m *Mirror) UploadBundle(ctx context.Context, objectKey string, reader io.Reader, size int64) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectKey, reader, size, miniogo.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return fmt.Errorf("upload bundle %s: %w", objectKey, err)
	}
	return nil
}
