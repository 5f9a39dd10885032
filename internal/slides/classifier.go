package slides

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
	"github.com/jvalenzano/ai-youtube-kb/internal/domain/port"
	"github.com/jvalenzano/ai-youtube-kb/internal/vision"
)

// Classifier filters scene-change candidates through a slide scorer. When
// the primary scorer reports itself unavailable, the fallback takes over
// for the rest of the run.
type Classifier struct {
	primary   port.SlideScorer
	fallback  port.SlideScorer
	threshold float64
	logger    *zap.Logger
}

// NewClassifier builds a classifier. primary may be nil, in which case the
// fallback scores everything.
func NewClassifier(primary, fallback port.SlideScorer, threshold float64, logger *zap.Logger) *Classifier {
	return &Classifier{primary: primary, fallback: fallback, threshold: threshold, logger: logger}
}

// Classify scores each candidate and keeps those strictly above the
// threshold. A scorer error on a single frame drops that frame with a
// warning; the rest of the batch continues. The name of the scorer that
// ended the run is returned so callers can record which one was in effect.
func (c *Classifier) Classify(ctx context.Context, candidates []entity.SceneChangeCandidate) ([]*entity.SlideCandidate, string, error) {
	scorer := c.primary
	if scorer == nil {
		scorer = c.fallback
	}

	var kept []*entity.SlideCandidate
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, scorer.Name(), err
		}

		img, err := vision.LoadImage(cand.Frame.Path)
		if err != nil {
			return nil, scorer.Name(), &entity.DecodeError{Err: err}
		}

		score, err := scorer.Score(ctx, img)
		if errors.Is(err, entity.ErrClassifierUnavailable) && scorer != c.fallback {
			c.logger.Warn("scorer unavailable, switching to fallback",
				zap.String("from", scorer.Name()),
				zap.String("to", c.fallback.Name()),
				zap.Error(err))
			scorer = c.fallback
			score, err = scorer.Score(ctx, img)
		}
		if err != nil {
			c.logger.Warn("scoring frame failed, dropping it",
				zap.Int("frame", cand.Frame.Index),
				zap.Float64("timestamp", cand.Frame.Timestamp),
				zap.Error(err))
			continue
		}

		if score > c.threshold {
			kept = append(kept, &entity.SlideCandidate{
				Frame:      cand.Frame,
				SceneScore: cand.Score,
				ClipScore:  math.Round(score*1000) / 1000,
			})
		}
	}
	return kept, scorer.Name(), nil
}
