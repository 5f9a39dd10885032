package slides

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

func qualityConfig() QualityConfig {
	return QualityConfig{
		BlurThreshold: 100,
		DarkRatio:     0.85,
		DarkPixelMax:  30,
		MinWords:      10,
		Patterns:      DefaultPatternSet(),
	}
}

// sparseDotsImage is nearly black with a grid of bright pixels: sharp
// enough to pass the blur check but still an empty frame.
func sparseDotsImage(w, h int) *image.Gray {
	img := flatImage(w, h, 0)
	for y := 0; y < h; y += 5 {
		for x := 0; x < w; x += 5 {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return img
}

const richText = "kubernetes control plane architecture with scheduler etcd and api server components"

func TestQualityAcceptsSharpTextSlide(t *testing.T) {
	dir := t.TempDir()
	cand := &entity.SlideCandidate{
		Frame:   writeFrame(t, dir, "good.png", textSlideImage(200, 150, 8, 0)),
		OCRText: richText,
	}

	accepted, flagged, err := NewFilter(qualityConfig(), zap.NewNop()).Apply(context.Background(), []*entity.SlideCandidate{cand})
	require.NoError(t, err)
	assert.Len(t, accepted, 1)
	assert.Empty(t, flagged)
	assert.False(t, cand.Rejected)
	assert.GreaterOrEqual(t, cand.BlurScore, 100.0)
	assert.Equal(t, 11, cand.WordCount)
}

func TestQualityFlagsBlurryFrame(t *testing.T) {
	dir := t.TempDir()
	cand := &entity.SlideCandidate{
		Frame:   writeFrame(t, dir, "blurry.png", flatImage(200, 150, 128)),
		OCRText: richText,
	}

	accepted, flagged, err := NewFilter(qualityConfig(), zap.NewNop()).Apply(context.Background(), []*entity.SlideCandidate{cand})
	require.NoError(t, err)
	assert.Empty(t, accepted)
	require.Len(t, flagged, 1)
	assert.Equal(t, entity.RejectBlurry, flagged[0].Reason)
	assert.True(t, flagged[0].Rejected)
}

func TestQualityFlagsEmptyFrame(t *testing.T) {
	dir := t.TempDir()
	cand := &entity.SlideCandidate{
		Frame:   writeFrame(t, dir, "dark.png", sparseDotsImage(100, 100)),
		OCRText: richText,
	}

	accepted, flagged, err := NewFilter(qualityConfig(), zap.NewNop()).Apply(context.Background(), []*entity.SlideCandidate{cand})
	require.NoError(t, err)
	assert.Empty(t, accepted)
	require.Len(t, flagged, 1)
	assert.Equal(t, entity.RejectEmptyFrame, flagged[0].Reason)
	assert.Greater(t, flagged[0].DarkRatio, 0.85)
}

func TestQualityFlagsLowText(t *testing.T) {
	dir := t.TempDir()
	cand := &entity.SlideCandidate{
		Frame:   writeFrame(t, dir, "sparse.png", checkerImage(100, 100, 2)),
		OCRText: "three short words",
	}

	_, flagged, err := NewFilter(qualityConfig(), zap.NewNop()).Apply(context.Background(), []*entity.SlideCandidate{cand})
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, entity.RejectLowText, flagged[0].Reason)
	assert.Equal(t, 3, flagged[0].WordCount)
}

func TestQualityWordCountBoundary(t *testing.T) {
	dir := t.TempDir()
	nine := &entity.SlideCandidate{
		Frame:   writeFrame(t, dir, "nine.png", checkerImage(100, 100, 2)),
		OCRText: "one two three four five six seven eight nine",
	}
	ten := &entity.SlideCandidate{
		Frame:   writeFrame(t, dir, "ten.png", checkerImage(100, 100, 2)),
		OCRText: "one two three four five six seven eight nine ten",
	}

	accepted, flagged, err := NewFilter(qualityConfig(), zap.NewNop()).Apply(context.Background(), []*entity.SlideCandidate{nine, ten})
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, entity.RejectLowText, flagged[0].Reason)
	require.Len(t, accepted, 1)
	assert.Equal(t, 10, accepted[0].WordCount)
}

func TestQualityFlagsFillerText(t *testing.T) {
	dir := t.TempDir()
	cand := &entity.SlideCandidate{
		Frame:   writeFrame(t, dir, "outro.png", textSlideImage(200, 150, 8, 0)),
		OCRText: "Thanks for watching everyone see you next time bye bye thanks again",
	}

	_, flagged, err := NewFilter(qualityConfig(), zap.NewNop()).Apply(context.Background(), []*entity.SlideCandidate{cand})
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, entity.RejectFillerText, flagged[0].Reason)
}

func TestQualityPrecedenceBlurryWins(t *testing.T) {
	// A flat black frame is blurry, empty and textless at once; the first
	// check in the order decides the reason.
	dir := t.TempDir()
	cand := &entity.SlideCandidate{
		Frame: writeFrame(t, dir, "black.png", flatImage(100, 100, 0)),
	}

	_, flagged, err := NewFilter(qualityConfig(), zap.NewNop()).Apply(context.Background(), []*entity.SlideCandidate{cand})
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, entity.RejectBlurry, flagged[0].Reason)
}

func TestQualityUnreadableFrameFails(t *testing.T) {
	cand := &entity.SlideCandidate{
		Frame: entity.Frame{Path: t.TempDir() + "/gone.png"},
	}

	_, _, err := NewFilter(qualityConfig(), zap.NewNop()).Apply(context.Background(), []*entity.SlideCandidate{cand})
	var decodeErr *entity.DecodeError
	require.ErrorAs(t, err, &decodeErr)
}
