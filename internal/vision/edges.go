package vision

import "image"

// edgeMagSq is the squared Sobel magnitude above which a pixel counts as
// an edge. Rendered text produces gradients well past it; sensor noise and
// soft camera focus stay below.
const edgeMagSq = 10000

// TextDensityScore estimates how much of a frame looks like rendered
// text, in [0,1]. Edge pixels are grouped into horizontal bands; many
// thin bands are characteristic of text lines, while camera footage
// produces either sparse edges or a few tall regions.
func TextDensityScore(img *image.Gray) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	rowEdges := make([]int, h)
	total := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := sobelX(img, b.Min.X+x, b.Min.Y+y)
			gy := sobelY(img, b.Min.X+x, b.Min.Y+y)
			if gx*gx+gy*gy > edgeMagSq {
				rowEdges[y]++
				total++
			}
		}
	}

	area := float64((w - 2) * (h - 2))
	density := float64(total) / area

	// A band is a run of consecutive rows with meaningful edge activity.
	// Thin bands look like text lines; runs taller than a tenth of the
	// frame look like image content and are not counted.
	minRow := w / 50
	if minRow < 1 {
		minRow = 1
	}
	maxBand := h / 10
	bands := 0
	run := 0
	for y := 0; y < h; y++ {
		if rowEdges[y] >= minRow {
			run++
			continue
		}
		if run > 0 && run <= maxBand {
			bands++
		}
		run = 0
	}
	if run > 0 && run <= maxBand {
		bands++
	}

	lineScore := float64(bands) / 12
	if lineScore > 1 {
		lineScore = 1
	}
	densityScore := density / 0.08
	if densityScore > 1 {
		densityScore = 1
	}
	return 0.7*lineScore + 0.3*densityScore
}

func sobelX(img *image.Gray, x, y int) int {
	return int(img.GrayAt(x+1, y-1).Y) + 2*int(img.GrayAt(x+1, y).Y) + int(img.GrayAt(x+1, y+1).Y) -
		int(img.GrayAt(x-1, y-1).Y) - 2*int(img.GrayAt(x-1, y).Y) - int(img.GrayAt(x-1, y+1).Y)
}

func sobelY(img *image.Gray, x, y int) int {
	return int(img.GrayAt(x-1, y+1).Y) + 2*int(img.GrayAt(x, y+1).Y) + int(img.GrayAt(x+1, y+1).Y) -
		int(img.GrayAt(x-1, y-1).Y) - 2*int(img.GrayAt(x, y-1).Y) - int(img.GrayAt(x+1, y-1).Y)
}
