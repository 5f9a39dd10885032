package vision

import (
	"image"
	"math"
)

// Histogram is a 256-bin grayscale intensity histogram, L2-normalized so
// images of different sizes compare directly.
type Histogram [256]float64

// ComputeHistogram bins the pixel intensities of a grayscale image and
// normalizes the result to unit length.
func ComputeHistogram(img *image.Gray) Histogram {
	var h Histogram
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			h[img.GrayAt(x, y).Y]++
		}
	}

	var sum float64
	for _, v := range h {
		sum += v * v
	}
	if norm := math.Sqrt(sum); norm > 0 {
		for i := range h {
			h[i] /= norm
		}
	}
	return h
}

// Distance returns 1 minus the Pearson correlation of the two histograms:
// 0 for identical intensity distributions, values near 1 (and up to 2 for
// anti-correlated ones) for unrelated content.
func (h Histogram) Distance(other Histogram) float64 {
	var meanA, meanB float64
	for i := 0; i < 256; i++ {
		meanA += h[i]
		meanB += other[i]
	}
	meanA /= 256
	meanB /= 256

	var num, devA, devB float64
	for i := 0; i < 256; i++ {
		da := h[i] - meanA
		db := other[i] - meanB
		num += da * db
		devA += da * da
		devB += db * db
	}

	den := math.Sqrt(devA * devB)
	if den == 0 {
		if devA == devB {
			return 0
		}
		return 1
	}
	return 1 - num/den
}
