package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
	"github.com/jvalenzano/ai-youtube-kb/internal/domain/port"
	"github.com/jvalenzano/ai-youtube-kb/internal/infra/metrics"
	"github.com/jvalenzano/ai-youtube-kb/internal/slides"
)

// ExtractVideoUseCase runs the slide extraction pipeline for one video:
// download, sample, detect scene changes, classify, OCR, quality-filter,
// deduplicate, align transcript, persist. Stages run strictly in order;
// a failure at any stage leaves no partial record behind.
type ExtractVideoUseCase struct {
	source     port.VideoSource
	transcript port.TranscriptProvider
	sampler    port.FrameSampler
	ocr        port.TextExtractor
	store      port.RecordStore
	ledger     port.RunLedger
	publisher  port.StatusPublisher
	bundler    port.Bundler
	mirror     port.ArtifactMirror
	detector   *slides.Detector
	classifier *slides.Classifier
	filter     *slides.Filter
	dedup      *slides.Deduplicator
	logger     *zap.Logger
	cfg        ExtractConfig
}

// ExtractConfig carries the per-process pipeline configuration. Settings
// is snapshotted into every record this use case writes.
type ExtractConfig struct {
	TempDir          string
	Settings         entity.ExtractionSettings
	KeepDuplicates   bool
	AutoApprove      bool
	MaxSourceRetries int
	RetryBaseDelay   time.Duration
	DownloadTimeout  time.Duration
}

// ExtractOptions are the per-invocation knobs the CLI exposes.
type ExtractOptions struct {
	BatchID   uuid.UUID
	Force     bool
	KeepVideo bool
}

type ExtractDeps struct {
	Source     port.VideoSource
	Transcript port.TranscriptProvider
	Sampler    port.FrameSampler
	OCR        port.TextExtractor
	Store      port.RecordStore
	Ledger     port.RunLedger
	Publisher  port.StatusPublisher
	Bundler    port.Bundler
	Mirror     port.ArtifactMirror
	Detector   *slides.Detector
	Classifier *slides.Classifier
	Filter     *slides.Filter
	Dedup      *slides.Deduplicator
}

func NewExtractVideoUseCase(deps ExtractDeps, logger *zap.Logger, cfg ExtractConfig) *ExtractVideoUseCase {
	return &ExtractVideoUseCase{
		source:     deps.Source,
		transcript: deps.Transcript,
		sampler:    deps.Sampler,
		ocr:        deps.OCR,
		store:      deps.Store,
		ledger:     deps.Ledger,
		publisher:  deps.Publisher,
		bundler:    deps.Bundler,
		mirror:     deps.Mirror,
		detector:   deps.Detector,
		classifier: deps.Classifier,
		filter:     deps.Filter,
		dedup:      deps.Dedup,
		logger:     logger,
		cfg:        cfg,
	}
}

// Execute runs the pipeline for one catalog video. The returned run
// always reflects the terminal state; the error is the failure cause when
// the run ended Failed.
func (uc *ExtractVideoUseCase) Execute(ctx context.Context, video entity.VideoInfo, opts ExtractOptions) (*entity.ExtractionRun, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ExtractVideoUseCase.Execute")
	defer span.End()
	span.SetAttributes(attribute.String("video.id", video.VideoID))

	run := entity.NewExtractionRun(opts.BatchID, video.VideoID, uc.cfg.MaxSourceRetries)
	log := uc.logger.With(
		zap.String("video_id", video.VideoID),
		zap.String("run_id", run.ID.String()),
	)

	if uc.ledger != nil {
		if err := uc.ledger.Create(ctx, run); err != nil {
			log.Warn("failed to record run in ledger", zap.Error(err))
		}
	}

	if uc.store.HasRecord(video.VideoID) && !opts.Force {
		run.MarkSkipped()
		uc.finishRun(ctx, run, log)
		log.Info("record already exists, skipping")
		return run, nil
	}

	totalTimer := time.Now()
	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.extractPipeline(ctx, run, video, opts, log); err != nil {
		run.MarkFailed(err.Error())
		uc.finishRun(ctx, run, log)
		log.Error("extraction failed",
			zap.String("stage", string(run.StageReached)),
			zap.Error(err),
		)
		return run, err
	}

	uc.finishRun(ctx, run, log)
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())
	return run, nil
}

func (uc *ExtractVideoUseCase) extractPipeline(
	ctx context.Context,
	run *entity.ExtractionRun,
	video entity.VideoInfo,
	opts ExtractOptions,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.cfg.TempDir, run.ID.String())
	framesDir := filepath.Join(workDir, "frames")
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download, reusing a video file a previous run left behind.
	run.Advance(entity.RunDownloading)
	dlStart := time.Now()
	ctxDl, spanDl := tracer.Start(ctx, "download")
	videoPath := uc.store.VideoPath(video.VideoID)
	err := uc.fetchVideo(ctxDl, run, video, videoPath, log)
	spanDl.End()
	if err != nil {
		return err
	}
	metrics.StageDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Sample frames at the configured interval.
	run.Advance(entity.RunSampling)
	smStart := time.Now()
	ctxSm, spanSm := tracer.Start(ctx, "sample")
	sampled, err := uc.sampler.Sample(ctxSm, videoPath, framesDir, uc.cfg.Settings.FrameInterval)
	spanSm.End()
	if err != nil {
		return fmt.Errorf("sample frames: %w", err)
	}
	metrics.StageDuration.WithLabelValues("sample").Observe(time.Since(smStart).Seconds())
	metrics.FramesSampledTotal.Add(float64(len(sampled.Frames)))

	// Scene changes.
	run.Advance(entity.RunDetecting)
	dtStart := time.Now()
	_, spanDt := tracer.Start(ctx, "detect")
	changes, err := uc.detector.Detect(sampled.Frames)
	spanDt.End()
	if err != nil {
		return fmt.Errorf("detect scene changes: %w", err)
	}
	metrics.StageDuration.WithLabelValues("detect").Observe(time.Since(dtStart).Seconds())
	log.Info("scene changes detected",
		zap.Int("frames", len(sampled.Frames)),
		zap.Int("changes", len(changes)),
	)

	// Classify candidates, then OCR the survivors.
	run.Advance(entity.RunClassifying)
	clStart := time.Now()
	ctxCl, spanCl := tracer.Start(ctx, "classify")
	candidates, scorerName, err := uc.classifier.Classify(ctxCl, changes)
	if err != nil {
		spanCl.End()
		return fmt.Errorf("classify candidates: %w", err)
	}
	if err := uc.runOCR(ctxCl, candidates, log); err != nil {
		spanCl.End()
		return err
	}
	spanCl.End()
	metrics.StageDuration.WithLabelValues("classify").Observe(time.Since(clStart).Seconds())

	settings := uc.cfg.Settings
	settings.UseClip = scorerName != slides.ScorerNameHeuristic

	// Quality filter.
	run.Advance(entity.RunFiltering)
	flStart := time.Now()
	ctxFl, spanFl := tracer.Start(ctx, "filter")
	accepted, flagged, err := uc.filter.Apply(ctxFl, candidates)
	spanFl.End()
	if err != nil {
		return fmt.Errorf("quality filter: %w", err)
	}
	metrics.StageDuration.WithLabelValues("filter").Observe(time.Since(flStart).Seconds())

	// Perceptual hashes, filenames, duplicate groups.
	run.Advance(entity.RunDeduplicating)
	ddStart := time.Now()
	_, spanDd := tracer.Start(ctx, "dedup")
	dedupMap, err := uc.dedup.Assign(accepted)
	if err == nil && !uc.cfg.AutoApprove {
		// Flagged candidates are persisted for review and need stable
		// names, but stay out of the duplicate analysis.
		err = uc.dedup.Fingerprint(flagged)
	}
	spanDd.End()
	if err != nil {
		return fmt.Errorf("deduplicate: %w", err)
	}
	metrics.StageDuration.WithLabelValues("dedup").Observe(time.Since(ddStart).Seconds())

	// Transcript context. No transcript is a valid outcome.
	run.Advance(entity.RunAligning)
	alStart := time.Now()
	ctxAl, spanAl := tracer.Start(ctx, "align")
	segments, err := uc.transcript.Fetch(ctxAl, video.VideoID)
	if err != nil {
		if !errors.Is(err, entity.ErrTranscriptUnavailable) {
			log.Warn("transcript fetch failed, aligning without it", zap.Error(err))
		}
		segments = nil
	}
	slides.AlignTranscript(accepted, segments)
	if !uc.cfg.AutoApprove {
		slides.AlignTranscript(flagged, segments)
	}
	spanAl.End()
	metrics.StageDuration.WithLabelValues("align").Observe(time.Since(alStart).Seconds())

	// Persist: images first, record last.
	psStart := time.Now()
	ctxPs, spanPs := tracer.Start(ctx, "persist")
	record := uc.buildRecord(video, settings, accepted, flagged, dedupMap)
	record.Stats.TotalFramesAnalyzed = len(sampled.Frames)
	record.Stats.SceneChangesDetected = len(changes)
	err = uc.persist(ctxPs, record, accepted, flagged, opts, log)
	spanPs.End()
	if err != nil {
		return err
	}
	metrics.StageDuration.WithLabelValues("persist").Observe(time.Since(psStart).Seconds())
	metrics.SlidesExtractedTotal.Add(float64(len(record.Slides)))

	run.MarkPersisted(record.Stats)
	log.Info("extraction persisted",
		zap.Int("slides", record.Stats.SlidesDetected),
		zap.Int("unique", record.Stats.UniqueSlides),
		zap.Int("duplicates", record.Stats.Duplicates),
		zap.Int("flagged", record.Stats.Flagged),
		zap.String("scorer", scorerName),
	)
	return nil
}

// fetchVideo downloads the video with bounded retries on transient source
// errors. An existing file from an earlier run is reused as is.
func (uc *ExtractVideoUseCase) fetchVideo(
	ctx context.Context,
	run *entity.ExtractionRun,
	video entity.VideoInfo,
	destPath string,
	log *zap.Logger,
) error {
	if _, err := os.Stat(destPath); err == nil {
		log.Info("reusing downloaded video", zap.String("path", destPath))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create video dir: %w", err)
	}

	for {
		run.NextAttempt()
		attemptCtx, cancel := context.WithTimeout(ctx, uc.cfg.DownloadTimeout)
		err := uc.source.Fetch(attemptCtx, video, destPath)
		cancel()
		if err == nil {
			return nil
		}
		if !entity.IsTransientSource(err) {
			return err
		}
		if !run.CanRetry() {
			return fmt.Errorf("download failed after %d attempts: %w", run.Attempt, err)
		}

		delay := backoff(uc.cfg.RetryBaseDelay, run.Attempt)
		metrics.SourceRetriesTotal.WithLabelValues(strconv.Itoa(run.Attempt)).Inc()
		log.Warn("transient download failure, backing off",
			zap.Int("attempt", run.Attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return &entity.TransientSourceError{Err: ctx.Err()}
		}
	}
}

func backoff(base time.Duration, attempt int) time.Duration {
	delay := base * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > 60*time.Second {
		delay = 60 * time.Second
	}
	return delay
}

// runOCR extracts text for each classified candidate. An engine failure
// on a single frame yields empty text, not a pipeline failure.
func (uc *ExtractVideoUseCase) runOCR(ctx context.Context, candidates []*entity.SlideCandidate, log *zap.Logger) error {
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := uc.ocr.ExtractText(ctx, cand.Frame.Path)
		if err != nil {
			log.Warn("ocr failed, treating frame as textless",
				zap.Int("frame", cand.Frame.Index),
				zap.Error(err),
			)
			text = ""
		}
		cand.OCRText = text
	}
	return nil
}

func (uc *ExtractVideoUseCase) buildRecord(
	video entity.VideoInfo,
	settings entity.ExtractionSettings,
	accepted, flagged []*entity.SlideCandidate,
	dedupMap map[string][]string,
) *entity.VideoExtractionRecord {
	url := video.WatchURL()

	duplicates := 0
	var slideRecords []entity.SlideRecord
	for _, cand := range accepted {
		if cand.DuplicateOf != "" {
			duplicates++
			if !uc.cfg.KeepDuplicates {
				continue
			}
		}
		slideRecords = append(slideRecords, slideRecordFrom(cand, url, settings.UseClip))
	}

	var flaggedRecords []entity.SlideRecord
	if !uc.cfg.AutoApprove {
		for _, cand := range flagged {
			flaggedRecords = append(flaggedRecords, slideRecordFrom(cand, url, settings.UseClip))
		}
	}

	return &entity.VideoExtractionRecord{
		VideoID:     video.VideoID,
		Title:       video.Title,
		URL:         url,
		ExtractedAt: time.Now().UTC(),
		Config:      settings,
		Stats: entity.ExtractionStats{
			SlidesDetected: len(accepted),
			UniqueSlides:   len(accepted) - duplicates,
			Duplicates:     duplicates,
			Flagged:        len(flagged),
		},
		Slides:           slideRecords,
		Flagged:          flaggedRecords,
		DeduplicationMap: dedupMap,
	}
}

func slideRecordFrom(cand *entity.SlideCandidate, videoURL string, withClip bool) entity.SlideRecord {
	seconds := int(cand.Frame.Timestamp)
	rec := entity.SlideRecord{
		Filename:           cand.Filename,
		TimestampSeconds:   seconds,
		TimestampFormatted: slides.FormatTimestamp(cand.Frame.Timestamp),
		TimestampURL:       slides.TimestampURL(videoURL, seconds),
		PerceptualHash:     cand.HashHex,
		OCRText:            cand.OCRText,
		TranscriptContext:  cand.Transcript,
		RejectionReason:    cand.Reason,
	}
	if cand.DuplicateOf != "" {
		dup := cand.DuplicateOf
		rec.IsDuplicateOf = &dup
	}
	if withClip {
		score := cand.ClipScore
		rec.ClipScore = &score
	}
	return rec
}

// persist writes slide images before the record so a concurrent reader
// never sees a record referencing files that do not exist. On failure the
// images written by this run are removed again.
func (uc *ExtractVideoUseCase) persist(
	ctx context.Context,
	record *entity.VideoExtractionRecord,
	accepted, flagged []*entity.SlideCandidate,
	opts ExtractOptions,
	log *zap.Logger,
) error {
	referenced := make(map[string]bool, len(record.Slides)+len(record.Flagged))
	for _, s := range record.Slides {
		referenced[s.Filename] = true
	}
	for _, s := range record.Flagged {
		referenced[s.Filename] = true
	}

	var written []string
	saveImages := func(cands []*entity.SlideCandidate) error {
		for _, cand := range cands {
			if !referenced[cand.Filename] {
				continue
			}
			if err := uc.store.SaveSlide(record.VideoID, cand.Frame.Path, cand.Filename); err != nil {
				return err
			}
			written = append(written, cand.Filename)
		}
		return nil
	}

	err := saveImages(accepted)
	if err == nil && !uc.cfg.AutoApprove {
		err = saveImages(flagged)
	}
	if err == nil {
		err = uc.store.WriteRecord(record)
	}
	if err != nil {
		if rmErr := uc.store.RemoveImages(record.VideoID, written); rmErr != nil {
			log.Warn("failed to clean up partial images", zap.Error(rmErr))
		}
		return err
	}

	if opts.Force {
		removed, err := uc.store.RemoveStaleImages(record.VideoID, referenced)
		if err != nil {
			log.Warn("failed to remove stale slide images", zap.Error(err))
		} else if removed > 0 {
			log.Info("stale slide images removed", zap.Int("count", removed))
		}
	}

	if !opts.KeepVideo {
		if err := uc.store.RemoveVideo(record.VideoID); err != nil {
			log.Warn("failed to remove video file", zap.Error(err))
		}
	}

	uc.mirrorBundle(ctx, record, log)
	return nil
}

// mirrorBundle zips the persisted slides and record and uploads them to
// shared storage. Best effort: the record on disk stays the source of
// truth whether or not the mirror succeeds.
func (uc *ExtractVideoUseCase) mirrorBundle(ctx context.Context, record *entity.VideoExtractionRecord, log *zap.Logger) {
	if uc.bundler == nil || uc.mirror == nil {
		return
	}

	dir := uc.store.VideoDir(record.VideoID)
	paths := []string{filepath.Join(dir, "metadata.json")}
	for _, s := range record.Slides {
		paths = append(paths, filepath.Join(dir, s.Filename))
	}
	for _, s := range record.Flagged {
		paths = append(paths, filepath.Join(dir, s.Filename))
	}

	bundlePath := filepath.Join(uc.cfg.TempDir, record.VideoID+".zip")
	defer os.Remove(bundlePath)
	if err := uc.bundler.CreateBundle(ctx, paths, bundlePath); err != nil {
		log.Warn("bundle creation failed", zap.Error(err))
		return
	}

	f, err := os.Open(bundlePath)
	if err != nil {
		log.Warn("bundle open failed", zap.Error(err))
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		log.Warn("bundle stat failed", zap.Error(err))
		return
	}
	if err := uc.mirror.UploadBundle(ctx, record.VideoID+".zip", f, info.Size()); err != nil {
		log.Warn("bundle upload failed", zap.Error(err))
		return
	}
	log.Info("bundle mirrored", zap.String("object", record.VideoID+".zip"))
}

// finishRun updates the ledger, publishes the status event and bumps the
// outcome counter for a terminal run state.
func (uc *ExtractVideoUseCase) finishRun(ctx context.Context, run *entity.ExtractionRun, log *zap.Logger) {
	if uc.ledger != nil {
		if err := uc.ledger.Update(ctx, run); err != nil {
			log.Warn("failed to update run in ledger", zap.Error(err))
		}
	}
	if uc.publisher != nil {
		event := entity.VideoStatusEvent{
			RunID:        run.ID,
			BatchID:      run.BatchID,
			VideoID:      run.VideoID,
			Status:       run.Status,
			StageReached: run.StageReached,
			SlideCount:   run.SlideCount,
			UniqueCount:  run.UniqueCount,
			Duplicates:   run.DuplicateCount,
			ErrorMessage: run.ErrorMessage,
			Attempt:      run.Attempt,
			Timestamp:    time.Now().UTC(),
		}
		data, _ := json.Marshal(event)
		if err := uc.publisher.PublishStatus(ctx, data); err != nil {
			log.Warn("failed to publish status event", zap.Error(err))
		}
	}
	metrics.VideosProcessedTotal.WithLabelValues(string(run.Status)).Inc()
}
