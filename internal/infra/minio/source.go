package minio

import (
	"context"
	"fmt"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

type ClientConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func newClient(cfg ClientConfig) (*miniogo.Client, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return client, nil
}

func ensureBucket(ctx context.Context, client *miniogo.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// Source serves videos from an object-store bucket instead of yt-dlp,
// for setups where another job has already mirrored the downloads.
// Objects are keyed {video_id}.mp4.
type Source struct {
	client *miniogo.Client
	bucket string
}

func NewSource(cfg ClientConfig, bucket string) (*Source, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Source{client: client, bucket: bucket}, nil
}

// Fetch downloads the video object to destPath. A missing object is a
// permanent failure; everything else counts as transient.
func (s *Source) Fetch(ctx context.Context, video entity.VideoInfo, destPath string) error {
	objectKey := video.VideoID + ".mp4"
	err := s.client.FGetObject(ctx, s.bucket, objectKey, destPath, miniogo.GetObjectOptions{})
	if err == nil {
		return nil
	}

	resp := miniogo.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
		return &entity.PermanentSourceError{
			Err: fmt.Errorf("object %s/%s: %w", s.bucket, objectKey, err),
		}
	}
	return &entity.TransientSourceError{
		Err: fmt.Errorf("fetch %s/%s: %w", s.bucket, objectKey, err),
	}
}
