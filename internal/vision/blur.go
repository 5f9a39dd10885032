package vision

import "image"

// LaplacianVariance measures focus as the variance of the 3x3 Laplacian
// response over a grayscale image. Sharp content scores in the hundreds or
// higher; defocused or motion-blurred frames collapse toward zero.
func LaplacianVariance(img *image.Gray) float64 {
	b := img.Bounds()
	if b.Dx() < 3 || b.Dy() < 3 {
		return 0
	}

	var sum, sumSq float64
	n := 0
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			v := float64(4*int(img.GrayAt(x, y).Y) -
				int(img.GrayAt(x-1, y).Y) - int(img.GrayAt(x+1, y).Y) -
				int(img.GrayAt(x, y-1).Y) - int(img.GrayAt(x, y+1).Y))
			sum += v
			sumSq += v * v
			n++
		}
	}

	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}
