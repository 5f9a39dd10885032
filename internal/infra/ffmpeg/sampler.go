package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
	"github.com/jvalenzano/ai-youtube-kb/internal/domain/port"
)

// Sampler decodes videos into still frames with ffmpeg.
type Sampler struct {
	logger *zap.Logger
}

func NewSampler(logger *zap.Logger) *Sampler {
	return &Sampler{logger: logger}
}

// Sample writes one PNG frame per interval seconds into outputDir and
// returns them in playback order with derived timestamps.
func (s *Sampler) Sample(ctx context.Context, videoPath, outputDir string, interval float64) (*port.SampleResult, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sample interval must be positive, got %v", interval)
	}

	duration, err := s.probeDuration(ctx, videoPath)
	if err != nil {
		s.logger.Warn("could not get video duration", zap.Error(err))
	}

	framePattern := filepath.Join(outputDir, "frame_%06d.png")
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%g", interval),
		"-y",
		framePattern,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, &entity.DecodeError{Err: fmt.Errorf("ffmpeg: %w, output: %s", err, string(output))}
	}

	paths, err := filepath.Glob(filepath.Join(outputDir, "frame_*.png"))
	if err != nil {
		return nil, fmt.Errorf("glob frames: %w", err)
	}
	if len(paths) == 0 {
		return nil, &entity.DecodeError{Err: fmt.Errorf("no frames decoded from %s", filepath.Base(videoPath))}
	}
	sort.Strings(paths)

	s.logger.Info("frames sampled",
		zap.Int("count", len(paths)),
		zap.Float64("interval", interval),
		zap.Float64("video_duration", duration),
	)

	return &port.SampleResult{
		Frames:        framesFromPaths(paths, interval),
		VideoDuration: duration,
	}, nil
}

// framesFromPaths assigns each frame its index and timestamp. ffmpeg emits
// frames in name order, one per interval starting at zero.
func framesFromPaths(paths []string, interval float64) []entity.Frame {
	frames := make([]entity.Frame, len(paths))
	for i, p := range paths {
		frames[i] = entity.Frame{Index: i, Timestamp: float64(i) * interval, Path: p}
	}
	return frames
}

func (s *Sampler) probeDuration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	return parseDuration(string(output))
}

func parseDuration(raw string) (float64, error) {
	duration, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}
