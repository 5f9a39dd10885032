package slides

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

func segmentsFixture() []entity.TranscriptSegment {
	return []entity.TranscriptSegment{
		{Start: 0, Duration: 5, Text: "welcome to the deep dive"},
		{Start: 5, Duration: 5, Text: "today we cover the control plane"},
		{Start: 12, Duration: 3, Text: "first the scheduler"},
	}
}

func TestWindowAtInsideSegment(t *testing.T) {
	w := WindowAt(7, segmentsFixture())

	assert.Equal(t, "welcome to the deep dive", w.Before)
	assert.Equal(t, "today we cover the control plane", w.During)
	assert.Equal(t, "first the scheduler", w.After)
}

func TestWindowAtBetweenSegments(t *testing.T) {
	// 11 falls in the gap after the second segment, so nothing is during.
	w := WindowAt(11, segmentsFixture())

	assert.Equal(t, "today we cover the control plane", w.Before)
	assert.Empty(t, w.During)
	assert.Equal(t, "first the scheduler", w.After)
}

func TestWindowAtStartOfVideo(t *testing.T) {
	w := WindowAt(0, segmentsFixture())

	assert.Empty(t, w.Before)
	assert.Equal(t, "welcome to the deep dive", w.During)
	assert.Equal(t, "today we cover the control plane", w.After)
}

func TestWindowAtEndOfVideo(t *testing.T) {
	w := WindowAt(500, segmentsFixture())

	assert.Equal(t, "first the scheduler", w.Before)
	assert.Empty(t, w.During)
	assert.Empty(t, w.After)
}

func TestWindowAtNormalizesWhitespace(t *testing.T) {
	segments := []entity.TranscriptSegment{
		{Start: 0, Duration: 5, Text: "  line one\nline two  "},
	}
	w := WindowAt(2, segments)

	assert.Equal(t, "line one line two", w.During)
}

func TestAlignTranscriptNoSegments(t *testing.T) {
	cand := &entity.SlideCandidate{Frame: entity.Frame{Timestamp: 30}}
	AlignTranscript([]*entity.SlideCandidate{cand}, nil)

	assert.Empty(t, cand.Transcript.Before)
	assert.Empty(t, cand.Transcript.During)
	assert.Empty(t, cand.Transcript.After)
}

func TestAlignTranscriptSetsEveryCandidate(t *testing.T) {
	a := &entity.SlideCandidate{Frame: entity.Frame{Timestamp: 2}}
	b := &entity.SlideCandidate{Frame: entity.Frame{Timestamp: 13}}
	AlignTranscript([]*entity.SlideCandidate{a, b}, segmentsFixture())

	assert.Equal(t, "welcome to the deep dive", a.Transcript.During)
	assert.Equal(t, "first the scheduler", b.Transcript.During)
}
