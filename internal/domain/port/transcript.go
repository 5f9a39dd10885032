package port

import (
	"context"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

// TranscriptProvider returns the caption segments for a video in start
// order, or entity.ErrTranscriptUnavailable when the video has none.
type TranscriptProvider interface {
	Fetch(ctx context.Context, videoID string) ([]entity.TranscriptSegment, error)
}
