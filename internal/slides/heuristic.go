package slides

import (
	"context"
	"image"

	"github.com/jvalenzano/ai-youtube-kb/internal/vision"
)

// ScorerNameHeuristic identifies the text-density fallback scorer.
const ScorerNameHeuristic = "text-density"

// HeuristicScorer approximates slide likelihood from rendered-text density
// alone. It needs no model files and serves as the fallback when the
// vision model cannot run.
type HeuristicScorer struct{}

func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

func (h *HeuristicScorer) Name() string { return ScorerNameHeuristic }

func (h *HeuristicScorer) Score(_ context.Context, img image.Image) (float64, error) {
	return vision.TextDensityScore(vision.Grayscale(img)), nil
}
