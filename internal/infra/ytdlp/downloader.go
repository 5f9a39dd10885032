package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

// Downloader fetches videos with yt-dlp, capped at the configured
// resolution to keep downloads small while leaving slide text legible.
type Downloader struct {
	quality string
	logger  *zap.Logger
}

func NewDownloader(quality string, logger *zap.Logger) *Downloader {
	return &Downloader{quality: quality, logger: logger}
}

// permanentMarkers are yt-dlp error fragments that no amount of retrying
// will fix.
var permanentMarkers = []string{
	"video unavailable",
	"private video",
	"this video has been removed",
	"account associated with this video has been terminated",
	"this video is not available",
	"blocked in your country",
	"sign in to confirm your age",
	"members-only content",
}

func (d *Downloader) Fetch(ctx context.Context, video entity.VideoInfo, destPath string) error {
	format := fmt.Sprintf("best[height<=%s][ext=mp4]/best[height<=%s]", d.quality, d.quality)
	cmd := exec.CommandContext(ctx, "yt-dlp",
		"-f", format,
		"-o", destPath,
		"--no-warnings",
		"--no-progress",
		video.WatchURL(),
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return classify(ctx, fmt.Errorf("yt-dlp: %w: %s", err, lastLine(output)), string(output))
	}
	if _, err := os.Stat(destPath); err != nil {
		return &entity.TransientSourceError{
			Err: fmt.Errorf("yt-dlp reported success but %s is missing", filepath.Base(destPath)),
		}
	}

	d.logger.Info("video downloaded",
		zap.String("video_id", video.VideoID),
		zap.String("path", destPath),
	)
	return nil
}

// classify sorts a failed download into transient or permanent. Timeouts
// and anything unrecognized count as transient; the retry budget bounds
// them either way.
func classify(ctx context.Context, err error, output string) error {
	if ctx.Err() != nil {
		return &entity.TransientSourceError{Err: fmt.Errorf("download aborted: %w", ctx.Err())}
	}
	lower := strings.ToLower(output)
	for _, marker := range permanentMarkers {
		if strings.Contains(lower, marker) {
			return &entity.PermanentSourceError{Err: err}
		}
	}
	return &entity.TransientSourceError{Err: err}
}

func lastLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
