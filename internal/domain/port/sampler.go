package port

import (
	"context"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

// SampleResult is the output of one sampling pass over a video.
type SampleResult struct {
	Frames        []entity.Frame
	VideoDuration float64
}

// FrameSampler decodes a video into timestamped still frames at a fixed
// interval, covering the full duration.
type FrameSampler interface {
	Sample(ctx context.Context, videoPath, outputDir string, interval float64) (*SampleResult, error)
}
