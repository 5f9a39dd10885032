package clip

import (
	"image"
	"math"

	"github.com/nfnt/resize"
)

const inputSize = 224

// CLIP's training normalization constants, per RGB channel.
var (
	meanRGB = [3]float32{0.48145466, 0.4578275, 0.40821073}
	stdRGB  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// Preprocess resizes the shorter side to 224, center-crops to 224x224 and
// returns normalized float32 pixels in CHW order, the layout the image
// encoder expects.
func Preprocess(img image.Image) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var rw, rh uint
	if w < h {
		rw = inputSize
		rh = uint(math.Round(float64(h) * inputSize / float64(w)))
	} else {
		rh = inputSize
		rw = uint(math.Round(float64(w) * inputSize / float64(h)))
	}
	resized := resize.Resize(rw, rh, img, resize.Bilinear)

	rb := resized.Bounds()
	offX := rb.Min.X + (rb.Dx()-inputSize)/2
	offY := rb.Min.Y + (rb.Dy()-inputSize)/2

	out := make([]float32, 3*inputSize*inputSize)
	plane := inputSize * inputSize
	for y := 0; y < inputSize; y++ {
		for x := 0; x < inputSize; x++ {
			r, g, bl, _ := resized.At(offX+x, offY+y).RGBA()
			i := y*inputSize + x
			out[i] = (float32(r>>8)/255 - meanRGB[0]) / stdRGB[0]
			out[plane+i] = (float32(g>>8)/255 - meanRGB[1]) / stdRGB[1]
			out[2*plane+i] = (float32(bl>>8)/255 - meanRGB[2]) / stdRGB[2]
		}
	}
	return out
}

// normalize scales a vector to unit length in place.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}
