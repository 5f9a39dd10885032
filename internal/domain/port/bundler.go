package port

import (
	"context"
	"io"
)

// Bundler packages a video's slide set into a single archive.
type Bundler interface {
	CreateBundle(ctx context.Context, filePaths []string, outputPath string) error
}

// ArtifactMirror uploads slide bundles to shared storage.
type ArtifactMirror interface {
	UploadBundle(ctx context.Context, objectKey string, reader io.Reader, size int64) error
}
