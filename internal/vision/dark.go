package vision

import "image"

// DarkRatio returns the fraction of pixels strictly darker than level. An
// image with no pixels counts as fully dark.
func DarkRatio(img *image.Gray, level uint8) float64 {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 1
	}

	dark := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.GrayAt(x, y).Y < level {
				dark++
			}
		}
	}
	return float64(dark) / float64(total)
}
