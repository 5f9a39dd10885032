package slides

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

func writeFrame(t *testing.T, dir, name string, img image.Image) entity.Frame {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return entity.Frame{Path: path}
}

func flatImage(w, h int, value uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = value
	}
	return img
}

func gradientImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		v := uint8(y * 255 / h)
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func checkerImage(w, h, square int) *image.Gray {
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

// textSlideImage draws dashed dark text lines on a light background.
// region 0 spreads the lines over the full height, 1 packs them into the
// top half and 2 into the bottom half, giving variants that hash apart.
func textSlideImage(w, h, lines, region int) *image.Gray {
	img := flatImage(w, h, 245)
	gap := h / (lines + 1)
	offset := 0
	if region != 0 {
		gap = h / (2 * (lines + 1))
		if region == 2 {
			offset = h / 2
		}
	}
	for l := 1; l <= lines; l++ {
		y0 := offset + l*gap
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
