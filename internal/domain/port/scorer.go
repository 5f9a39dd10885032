package port

import (
	"context"
	"image"
)

// SlideScorer estimates the probability, in [0,1], that a frame shows a
// presentation slide rather than a camera view. A scorer that cannot run
// at all returns an error wrapping entity.ErrClassifierUnavailable.
type SlideScorer interface {
	Score(ctx context.Context, img image.Image) (float64, error)
	Name() string
}
