package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

// Engine shells out to the tesseract CLI for per-frame OCR.
type Engine struct {
	logger *zap.Logger
}

func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// ExtractText OCRs one image. Page segmentation mode 6 assumes a uniform
// block of text, which fits rendered slides. Empty output is a valid
// result for frames without text.
func (e *Engine) ExtractText(ctx context.Context, imagePath string) (string, error) {
	cmd := exec.CommandContext(ctx, "tesseract",
		imagePath, "stdout",
		"--psm", "6",
		"-c", "preserve_interword_spaces=1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &entity.OCRError{
			Frame: filepath.Base(imagePath),
			Err:   fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())),
		}
	}
	return cleanText(stdout.String()), nil
}

// cleanText trims each line and drops empty ones, keeping the line
// structure tesseract found.
func cleanText(raw string) string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
