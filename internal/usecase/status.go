package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
	"github.com/jvalenzano/ai-youtube-kb/internal/domain/port"
)

// StatusUseCase answers "how far along is extraction" without running any
// of it. Records on disk are the primary truth; the run ledger and the
// most recent batch report add failure detail when available.
type StatusUseCase struct {
	catalog port.VideoCatalog
	store   port.RecordStore
	ledger  port.RunLedger
	logger  *zap.Logger

	reportsDir string
}

func NewStatusUseCase(
	catalog port.VideoCatalog,
	store port.RecordStore,
	ledger port.RunLedger,
	reportsDir string,
	logger *zap.Logger,
) *StatusUseCase {
	return &StatusUseCase{
		catalog:    catalog,
		store:      store,
		ledger:     ledger,
		reportsDir: reportsDir,
		logger:     logger,
	}
}

// ExtractedVideo is one completed video in the status summary.
type ExtractedVideo struct {
	VideoID string
	Title   string
	Slides  int
	Unique  int
	Flagged int
}

// FailedVideo is a video whose most recent run ended Failed.
type FailedVideo struct {
	VideoID      string
	StageReached entity.RunStatus
	Error        string
	Attempt      int
}

// StatusSummary is the full answer to a status query.
type StatusSummary struct {
	CatalogTotal int
	Extracted    []ExtractedVideo
	Pending      []entity.VideoInfo
	Failed       []FailedVideo
}

// Summarize builds the status summary from catalog, records, and
// whichever failure source is configured.
func (uc *StatusUseCase) Summarize(ctx context.Context) (*StatusSummary, error) {
	videos, err := uc.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	summary := &StatusSummary{CatalogTotal: len(videos)}
	for _, v := range videos {
		if !uc.store.HasRecord(v.VideoID) {
			summary.Pending = append(summary.Pending, v)
			continue
		}
		record, err := uc.store.ReadRecord(v.VideoID)
		if err != nil {
			uc.logger.Warn("unreadable record", zap.String("video_id", v.VideoID), zap.Error(err))
			summary.Pending = append(summary.Pending, v)
			continue
		}
		summary.Extracted = append(summary.Extracted, ExtractedVideo{
			VideoID: v.VideoID,
			Title:   v.Title,
			Slides:  record.Stats.SlidesDetected,
			Unique:  record.Stats.UniqueSlides,
			Flagged: record.Stats.Flagged,
		})
	}

	summary.Failed = uc.failures(ctx)
	return summary, nil
}

// failures prefers the ledger; without one it falls back to the newest
// batch report on disk.
func (uc *StatusUseCase) failures(ctx context.Context) []FailedVideo {
	if uc.ledger != nil {
		latest, err := uc.ledger.LatestByVideo(ctx)
		if err != nil {
			uc.logger.Warn("ledger query failed", zap.Error(err))
		} else {
			var failed []FailedVideo
			for _, run := range latest {
				if run.Status != entity.RunFailed {
					continue
				}
				failed = append(failed, FailedVideo{
					VideoID:      run.VideoID,
					StageReached: run.StageReached,
					Error:        run.ErrorMessage,
					Attempt:      run.Attempt,
				})
			}
			sort.Slice(failed, func(i, j int) bool { return failed[i].VideoID < failed[j].VideoID })
			return failed
		}
	}

	report, err := uc.latestReport()
	if err != nil || report == nil {
		return nil
	}
	var failed []FailedVideo
	for _, v := range report.Videos {
		if v.Status != entity.RunFailed {
			continue
		}
		failed = append(failed, FailedVideo{
			VideoID:      v.VideoID,
			StageReached: v.StageReached,
			Error:        v.Error,
		})
	}
	return failed
}

// latestReport loads the most recent batch report, or nil when none
// exists.
func (uc *StatusUseCase) latestReport() (*BatchReport, error) {
	paths, err := filepath.Glob(filepath.Join(uc.reportsDir, "batch_*.json"))
	if err != nil || len(paths) == 0 {
		return nil, err
	}

	var newest *BatchReport
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var report BatchReport
		if err := json.Unmarshal(data, &report); err != nil {
			uc.logger.Warn("unreadable batch report", zap.String("path", path), zap.Error(err))
			continue
		}
		if newest == nil || report.StartedAt.After(newest.StartedAt) {
			newest = &report
		}
	}
	return newest, nil
}

// Render prints the summary in the CLI's table form.
func (s *StatusSummary) Render(w io.Writer) {
	fmt.Fprintf(w, "Catalog: %d videos, %d extracted, %d pending, %d failed\n",
		s.CatalogTotal, len(s.Extracted), len(s.Pending), len(s.Failed))

	if len(s.Extracted) > 0 {
		fmt.Fprintf(w, "\nExtracted:\n")
		for _, v := range s.Extracted {
			fmt.Fprintf(w, "  %-14s %3d slides (%d unique", v.VideoID, v.Slides, v.Unique)
			if v.Flagged > 0 {
				fmt.Fprintf(w, ", %d flagged", v.Flagged)
			}
			fmt.Fprintf(w, ")  %s\n", truncate(v.Title, 60))
		}
	}

	if len(s.Pending) > 0 {
		fmt.Fprintf(w, "\nPending:\n")
		for i, v := range s.Pending {
			if i == 10 {
				fmt.Fprintf(w, "  ... and %d more\n", len(s.Pending)-10)
				break
			}
			fmt.Fprintf(w, "  %-14s %s\n", v.VideoID, truncate(v.Title, 60))
		}
	}

	if len(s.Failed) > 0 {
		fmt.Fprintf(w, "\nFailed:\n")
		for _, v := range s.Failed {
			fmt.Fprintf(w, "  %-14s at %s: %s\n", v.VideoID, v.StageReached, truncate(v.Error, 80))
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
