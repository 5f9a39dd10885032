package port

import "context"

// TextExtractor runs OCR on one image. Empty text is a valid result;
// engine failures return entity.OCRError.
type TextExtractor interface {
	ExtractText(ctx context.Context, imagePath string) (string, error)
}
