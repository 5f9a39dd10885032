package port

import (
	"context"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

// VideoSource fetches a locally decodable video file for a catalog entry.
// Implementations classify failures as entity.TransientSourceError or
// entity.PermanentSourceError so callers can decide whether to retry.
type VideoSource interface {
	Fetch(ctx context.Context, video entity.VideoInfo, destPath string) error
}
