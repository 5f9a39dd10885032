package port

import (
	"context"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

// VideoCatalog reads the ingester's video catalog.
type VideoCatalog interface {
	List(ctx context.Context) ([]entity.VideoInfo, error)
	Get(ctx context.Context, videoID string) (entity.VideoInfo, error)
}
