package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func flatGray(w, h int, value uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = value
	}
	return img
}

func checkerGray(w, h, square int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/square+y/square)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func gradientGray(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		v := uint8(y * 255 / h)
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

// textBandsGray draws dashed dark lines on a light background, the rough
// shape of a rendered text slide.
func textBandsGray(w, h, lines int) *image.Gray {
	img := flatGray(w, h, 245)
	gap := h / (lines + 1)
	for l := 1; l <= lines; l++ {
		y0 := l * gap
		for y := y0; y < y0+3 && y < h; y++ {
			for x := 8; x < w-8; x++ {
				if (x/12)%2 == 0 {
					img.SetGray(x, y, color.Gray{Y: 20})
				}
			}
		}
	}
	return img
}

func TestComputeHistogramIsUnitLength(t *testing.T) {
	h := ComputeHistogram(checkerGray(64, 64, 4))

	var sumSq float64
	for _, v := range h {
		sumSq += v * v
	}
	assert.InDelta(t, 1.0, sumSq, 1e-9)
}

func TestHistogramDistanceIdenticalImages(t *testing.T) {
	a := ComputeHistogram(gradientGray(120, 90))
	b := ComputeHistogram(gradientGray(120, 90))

	assert.InDelta(t, 0.0, a.Distance(b), 1e-9)
}

func TestHistogramDistanceDifferentContent(t *testing.T) {
	a := ComputeHistogram(flatGray(64, 64, 40))
	b := ComputeHistogram(flatGray(64, 64, 200))

	assert.Greater(t, a.Distance(b), 0.15)
}

func TestHistogramDistanceIsSymmetric(t *testing.T) {
	a := ComputeHistogram(checkerGray(64, 64, 8))
	b := ComputeHistogram(gradientGray(64, 64))

	assert.InDelta(t, a.Distance(b), b.Distance(a), 1e-12)
}

func TestLaplacianVarianceFlatImage(t *testing.T) {
	assert.InDelta(t, 0.0, LaplacianVariance(flatGray(100, 100, 128)), 1e-9)
}

func TestLaplacianVarianceSharpImage(t *testing.T) {
	v := LaplacianVariance(checkerGray(100, 100, 2))
	assert.Greater(t, v, 1000.0)
}

func TestLaplacianVarianceTinyImage(t *testing.T) {
	assert.Zero(t, LaplacianVariance(flatGray(2, 2, 128)))
}

func TestDarkRatio(t *testing.T) {
	assert.InDelta(t, 1.0, DarkRatio(flatGray(50, 50, 0), 30), 1e-9)
	assert.InDelta(t, 0.0, DarkRatio(flatGray(50, 50, 200), 30), 1e-9)

	// Threshold is strict: pixels exactly at the level are not dark.
	assert.InDelta(t, 0.0, DarkRatio(flatGray(50, 50, 30), 30), 1e-9)
}

func TestDarkRatioHalfDark(t *testing.T) {
	img := flatGray(10, 10, 200)
	for y := 0; y < 5; y++ {
		for x := 0; x < 10; x++ {
			img.SetGray(x, y, color.Gray{Y: 0})
		}
	}
	assert.InDelta(t, 0.5, DarkRatio(img, 30), 1e-9)
}

func TestTextDensityScoreTextSlide(t *testing.T) {
	score := TextDensityScore(textBandsGray(200, 150, 8))
	assert.Greater(t, score, 0.55)
}

func TestTextDensityScoreCameraFootage(t *testing.T) {
	score := TextDensityScore(gradientGray(200, 150))
	assert.Less(t, score, 0.2)
}

func TestTextDensityScoreFlatImage(t *testing.T) {
	assert.Zero(t, TextDensityScore(flatGray(200, 150, 128)))
}

func TestTextDensityScoreTinyImage(t *testing.T) {
	assert.Zero(t, TextDensityScore(flatGray(2, 2, 0)))
}

func TestGrayscalePreservesGray(t *testing.T) {
	img := flatGray(10, 10, 77)
	assert.Same(t, img, Grayscale(img))
}

func TestGrayscaleConvertsRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i] = 255
		src.Pix[i+3] = 255
	}
	g := Grayscale(src)
	// Pure red maps to its luminance weight, not to black or white.
	assert.Greater(t, int(g.GrayAt(1, 1).Y), 40)
	assert.Less(t, int(g.GrayAt(1, 1).Y), 120)
}
