package slides

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
	"github.com/jvalenzano/ai-youtube-kb/internal/vision"
)

// QualityConfig carries the quality filter thresholds.
type QualityConfig struct {
	BlurThreshold float64
	DarkRatio     float64
	DarkPixelMax  uint8
	MinWords      int
	Patterns      *PatternSet
}

// Filter measures the visual and textual quality of each candidate and
// flags the ones that fail. Checks apply in a fixed order and the first
// failure wins: blurry, empty_frame, low_text, filler_text. Flagged
// candidates are returned, never silently dropped.
type Filter struct {
	cfg    QualityConfig
	logger *zap.Logger
}

func NewFilter(cfg QualityConfig, logger *zap.Logger) *Filter {
	return &Filter{cfg: cfg, logger: logger}
}

func (f *Filter) Apply(ctx context.Context, candidates []*entity.SlideCandidate) (accepted, flagged []*entity.SlideCandidate, err error) {
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		gray, err := vision.LoadGray(cand.Frame.Path)
		if err != nil {
			return nil, nil, &entity.DecodeError{Err: err}
		}
		cand.BlurScore = vision.LaplacianVariance(gray)
		cand.DarkRatio = vision.DarkRatio(gray, f.cfg.DarkPixelMax)
		cand.WordCount = len(strings.Fields(cand.OCRText))

		category := ""
		switch {
		case cand.BlurScore < f.cfg.BlurThreshold:
			cand.Reason = entity.RejectBlurry
		case cand.DarkRatio > f.cfg.DarkRatio:
			cand.Reason = entity.RejectEmptyFrame
		case cand.WordCount < f.cfg.MinWords:
			cand.Reason = entity.RejectLowText
		default:
			if cat, hit := f.cfg.Patterns.Match(cand.OCRText); hit {
				cand.Reason = entity.RejectFillerText
				category = cat
			}
		}

		if cand.Reason == "" {
			accepted = append(accepted, cand)
			continue
		}
		cand.Rejected = true
		fields := []zap.Field{
			zap.Int("frame", cand.Frame.Index),
			zap.Float64("timestamp", cand.Frame.Timestamp),
			zap.String("reason", string(cand.Reason)),
		}
		if category != "" {
			fields = append(fields, zap.String("category", category))
		}
		f.logger.Debug("candidate flagged", fields...)
		flagged = append(flagged, cand)
	}
	return accepted, flagged, nil
}
