package slides

import (
	"fmt"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
	"github.com/jvalenzano/ai-youtube-kb/internal/vision"
)

// Detector flags frames whose grayscale histogram moves sharply away from
// the previous frame's, the signature of a slide transition.
type Detector struct {
	Threshold float64
}

func NewDetector(threshold float64) *Detector {
	return &Detector{Threshold: threshold}
}

// Detect compares each frame against its predecessor and returns the
// frames a scene change lands on. The first frame has no predecessor and
// is never emitted, so a fully static video yields nothing.
func (d *Detector) Detect(frames []entity.Frame) ([]entity.SceneChangeCandidate, error) {
	if len(frames) < 2 {
		return nil, nil
	}

	prev, err := frameHistogram(frames[0])
	if err != nil {
		return nil, err
	}

	var candidates []entity.SceneChangeCandidate
	for _, frame := range frames[1:] {
		curr, err := frameHistogram(frame)
		if err != nil {
			return nil, err
		}
		if dist := prev.Distance(curr); dist > d.Threshold {
			candidates = append(candidates, entity.SceneChangeCandidate{Frame: frame, Score: dist})
		}
		prev = curr
	}
	return candidates, nil
}

func frameHistogram(frame entity.Frame) (vision.Histogram, error) {
	img, err := vision.LoadGray(frame.Path)
	if err != nil {
		return vision.Histogram{}, &entity.DecodeError{Err: fmt.Errorf("frame %d: %w", frame.Index, err)}
	}
	return vision.ComputeHistogram(img), nil
}
