package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
	"github.com/jvalenzano/ai-youtube-kb/internal/domain/port"
)

// VideoExtractor is the per-video unit of work the batch fans out.
type VideoExtractor interface {
	Execute(ctx context.Context, video entity.VideoInfo, opts ExtractOptions) (*entity.ExtractionRun, error)
}

// BatchUseCase spreads extraction across a bounded worker pool. Each
// video is independent: one failure is counted and logged, never aborts
// the batch. Cancelling the context stops intake; in-flight videos run to
// completion under their own timeout.
type BatchUseCase struct {
	extractor VideoExtractor
	catalog   port.VideoCatalog
	store     port.RecordStore
	notifier  port.BatchNotifier
	logger    *zap.Logger
	cfg       BatchConfig

	progress Progress
}

type BatchConfig struct {
	Workers      int
	VideoTimeout time.Duration
	ReportsDir   string
	NotifyTo     string
	Force        bool
	KeepVideo    bool
}

// Progress holds the live batch counters. Counts move from pending to
// exactly one of the other buckets as videos finish.
type Progress struct {
	Pending   atomic.Int64
	Completed atomic.Int64
	Skipped   atomic.Int64
	Failed    atomic.Int64
}

// ProgressSnapshot is a point-in-time copy of the counters.
type ProgressSnapshot struct {
	Pending   int
	Completed int
	Skipped   int
	Failed    int
}

// VideoOutcome is one video's row in the batch report.
type VideoOutcome struct {
	VideoID      string           `json:"video_id"`
	Title        string           `json:"title,omitempty"`
	Status       entity.RunStatus `json:"status"`
	StageReached entity.RunStatus `json:"stage_reached"`
	SlideCount   int              `json:"slide_count"`
	UniqueCount  int              `json:"unique_count"`
	Duplicates   int              `json:"duplicates"`
	Error        string           `json:"error,omitempty"`
	DurationSecs float64          `json:"duration_seconds"`
}

// BatchReport is the persisted summary of one batch run, written to
// kb/reports and read back by status queries when no ledger is
// configured.
type BatchReport struct {
	BatchID    uuid.UUID      `json:"batch_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Workers    int            `json:"workers"`
	Videos     []VideoOutcome `json:"videos"`
	Completed  int            `json:"completed"`
	Skipped    int            `json:"skipped"`
	Failed     int            `json:"failed"`
}

func NewBatchUseCase(
	extractor VideoExtractor,
	catalog port.VideoCatalog,
	store port.RecordStore,
	notifier port.BatchNotifier,
	logger *zap.Logger,
	cfg BatchConfig,
) *BatchUseCase {
	return &BatchUseCase{
		extractor: extractor,
		catalog:   catalog,
		store:     store,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg,
	}
}

// Snapshot returns the current progress counters. Safe to call while the
// batch is running.
func (uc *BatchUseCase) Snapshot() ProgressSnapshot {
	return ProgressSnapshot{
		Pending:   int(uc.progress.Pending.Load()),
		Completed: int(uc.progress.Completed.Load()),
		Skipped:   int(uc.progress.Skipped.Load()),
		Failed:    int(uc.progress.Failed.Load()),
	}
}

// Run extracts every catalog video that has no record yet (every video
// with Force) and writes the batch report. The report is returned even
// when some videos failed; the error covers batch-level problems only.
func (uc *BatchUseCase) Run(ctx context.Context) (*BatchReport, error) {
	batchID := uuid.New()
	log := uc.logger.With(zap.String("batch_id", batchID.String()))

	videos, err := uc.pendingVideos(ctx)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{
		BatchID:   batchID,
		StartedAt: time.Now().UTC(),
		Workers:   uc.workerCount(len(videos)),
	}
	if len(videos) == 0 {
		log.Info("nothing to extract")
		report.FinishedAt = time.Now().UTC()
		return report, uc.writeReport(report, log)
	}

	uc.progress.Pending.Store(int64(len(videos)))
	log.Info("starting batch",
		zap.Int("videos", len(videos)),
		zap.Int("workers", report.Workers),
	)

	work := make(chan entity.VideoInfo)
	outcomes := make(chan VideoOutcome, len(videos))

	var wg sync.WaitGroup
	for i := 0; i < report.Workers; i++ {
		wg.Add(1)
		go uc.worker(ctx, i, batchID, work, outcomes, &wg)
	}

	// Intake stops on cancellation; queued work already handed to a
	// worker runs to completion.
feed:
	for _, video := range videos {
		select {
		case work <- video:
		case <-ctx.Done():
			log.Info("batch cancelled, draining in-flight work")
			break feed
		}
	}
	close(work)
	wg.Wait()
	close(outcomes)

	for outcome := range outcomes {
		report.Videos = append(report.Videos, outcome)
		switch outcome.Status {
		case entity.RunFailed:
			report.Failed++
		case entity.RunSkipped:
			report.Skipped++
		default:
			report.Completed++
		}
	}
	sort.Slice(report.Videos, func(i, j int) bool {
		return report.Videos[i].VideoID < report.Videos[j].VideoID
	})
	report.FinishedAt = time.Now().UTC()

	log.Info("batch finished",
		zap.Int("completed", report.Completed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)

	if err := uc.writeReport(report, log); err != nil {
		return report, err
	}
	uc.notify(ctx, report, log)
	return report, nil
}

func (uc *BatchUseCase) worker(
	ctx context.Context,
	id int,
	batchID uuid.UUID,
	work <-chan entity.VideoInfo,
	outcomes chan<- VideoOutcome,
	wg *sync.WaitGroup,
) {
	defer wg.Done()
	log := uc.logger.With(zap.Int("worker_id", id))

	for video := range work {
		start := time.Now()

		// The video runs on a context detached from the cancel signal so
		// no partial write is ever observable, but still bounded by the
		// per-video timeout.
		videoCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.cfg.VideoTimeout)
		run, err := uc.extractor.Execute(videoCtx, video, ExtractOptions{
			BatchID:   batchID,
			Force:     uc.cfg.Force,
			KeepVideo: uc.cfg.KeepVideo,
		})
		cancel()

		outcome := VideoOutcome{
			VideoID:      video.VideoID,
			Title:        video.Title,
			Status:       run.Status,
			StageReached: run.StageReached,
			SlideCount:   run.SlideCount,
			UniqueCount:  run.UniqueCount,
			Duplicates:   run.DuplicateCount,
			DurationSecs: time.Since(start).Seconds(),
		}
		if err != nil {
			outcome.Error = err.Error()
		}
		outcomes <- outcome

		uc.progress.Pending.Add(-1)
		switch run.Status {
		case entity.RunFailed:
			uc.progress.Failed.Add(1)
			log.Warn("video failed",
				zap.String("video_id", video.VideoID),
				zap.String("stage", string(run.StageReached)),
				zap.Error(err),
			)
		case entity.RunSkipped:
			uc.progress.Skipped.Add(1)
		default:
			uc.progress.Completed.Add(1)
		}
	}
}

// pendingVideos lists the catalog videos this batch should process.
func (uc *BatchUseCase) pendingVideos(ctx context.Context) ([]entity.VideoInfo, error) {
	videos, err := uc.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	if uc.cfg.Force {
		return videos, nil
	}

	var pending []entity.VideoInfo
	for _, v := range videos {
		if !uc.store.HasRecord(v.VideoID) {
			pending = append(pending, v)
		}
	}
	return pending, nil
}

func (uc *BatchUseCase) workerCount(queued int) int {
	workers := uc.cfg.Workers
	if cpus := runtime.NumCPU(); workers > cpus {
		workers = cpus
	}
	if queued > 0 && workers > queued {
		workers = queued
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

func (uc *BatchUseCase) writeReport(report *BatchReport, log *zap.Logger) error {
	if err := os.MkdirAll(uc.cfg.ReportsDir, 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch report: %w", err)
	}

	path := filepath.Join(uc.cfg.ReportsDir, fmt.Sprintf("batch_%s.json", report.BatchID))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write batch report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize batch report: %w", err)
	}
	log.Info("batch report written", zap.String("path", path))
	return nil
}

// notify mails the batch summary when an operator address is configured
// and the batch had failures.
func (uc *BatchUseCase) notify(ctx context.Context, report *BatchReport, log *zap.Logger) {
	if uc.notifier == nil || uc.cfg.NotifyTo == "" || report.Failed == 0 {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Completed: %d\nSkipped: %d\nFailed: %d\n",
		report.Completed, report.Skipped, report.Failed)
	for _, v := range report.Videos {
		if v.Status != entity.RunFailed {
			continue
		}
		fmt.Fprintf(&b, "\n%s failed at %s: %s", v.VideoID, v.StageReached, v.Error)
	}

	if err := uc.notifier.NotifyBatchFinished(ctx, uc.cfg.NotifyTo, report.BatchID.String(), b.String()); err != nil {
		log.Warn("batch notification failed", zap.Error(err))
	}
}
