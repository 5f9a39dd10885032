package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
	"github.com/jvalenzano/ai-youtube-kb/internal/domain/port"
	"github.com/jvalenzano/ai-youtube-kb/internal/infra/archive"
	"github.com/jvalenzano/ai-youtube-kb/internal/infra/catalog"
	"github.com/jvalenzano/ai-youtube-kb/internal/infra/clip"
	"github.com/jvalenzano/ai-youtube-kb/internal/infra/config"
	"github.com/jvalenzano/ai-youtube-kb/internal/infra/email"
	"github.com/jvalenzano/ai-youtube-kb/internal/infra/ffmpeg"
	"github.com/jvalenzano/ai-youtube-kb/internal/infra/fsstore"
	"github.com/jvalenzano/ai-youtube-kb/internal/infra/metrics"
	miniostore "github.com/jvalenzano/ai-youtube-kb/internal/infra/minio"
	"github.com/jvalenzano/ai-youtube-kb/internal/infra/postgres"
	"github.com/jvalenzano/ai-youtube-kb/internal/infra/rabbitmq"
	"github.com/jvalenzano/ai-youtube-kb/internal/infra/tesseract"
	"github.com/jvalenzano/ai-youtube-kb/internal/infra/tracing"
	"github.com/jvalenzano/ai-youtube-kb/internal/infra/transcript"
	"github.com/jvalenzano/ai-youtube-kb/internal/infra/ytdlp"
	"github.com/jvalenzano/ai-youtube-kb/internal/slides"
	"github.com/jvalenzano/ai-youtube-kb/internal/usecase"
	"github.com/jvalenzano/ai-youtube-kb/pkg/logger"
)

type cliFlags struct {
	all       bool
	workers   int
	force     bool
	noClip    bool
	interval  float64
	keepVideo bool
	status    bool
	check     bool
	resync    bool
	videoID   string
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	var fl cliFlags
	flag.BoolVar(&fl.all, "all", false, "extract every catalog video without a record")
	flag.IntVar(&fl.workers, "workers", cfg.WorkerCount, "worker pool size for -all")
	flag.BoolVar(&fl.force, "force", false, "supersede an existing record")
	flag.BoolVar(&fl.noClip, "no-clip", false, "skip the vision model, classify by text density")
	flag.Float64Var(&fl.interval, "interval", cfg.FrameInterval, "frame sampling interval in seconds")
	flag.BoolVar(&fl.keepVideo, "keep-video", false, "keep the downloaded video file")
	flag.BoolVar(&fl.status, "status", false, "show extraction progress and exit")
	flag.BoolVar(&fl.check, "check", false, "check external dependencies and exit")
	flag.BoolVar(&fl.resync, "resync", false, "reconcile records with files on disk")
	flag.Parse()
	fl.videoID = flag.Arg(0)

	cfg.FrameInterval = fl.interval
	cfg.WorkerCount = fl.workers
	fatalOnErr(cfg.Validate(), "validate config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	if fl.check {
		return runCheck(ctx, cfg)
	}

	store := fsstore.NewStore(cfg.SlidesDir(), log)
	videoCatalog := catalog.NewFileCatalog(cfg.CatalogPath())

	if fl.status || fl.resync {
		return runQueryMode(ctx, fl, cfg, store, videoCatalog, log)
	}

	if !fl.all && fl.videoID == "" {
		fmt.Fprintln(os.Stderr, "usage: slides [flags] VIDEO_ID | slides -all [flags]")
		flag.PrintDefaults()
		return 2
	}

	// Tracing (non-fatal when the collector is unreachable).
	if cfg.OTLPEndpoint != "" {
		tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint)
		if err != nil {
			log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
		} else {
			defer tp.Shutdown(ctx)
		}
	}

	extract, cleanup := buildExtractor(ctx, fl, cfg, store, log)
	defer cleanup()

	if fl.videoID != "" {
		return runSingle(ctx, fl, extract, videoCatalog)
	}
	return runBatch(ctx, fl, cfg, extract, videoCatalog, store, log)
}

// buildExtractor wires the per-video use case with every configured
// adapter. The returned cleanup closes the optional connections.
func buildExtractor(
	ctx context.Context,
	fl cliFlags,
	cfg *config.Config,
	store port.RecordStore,
	log *zap.Logger,
) (*usecase.ExtractVideoUseCase, func()) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// Classifier strategies. The vision model loads once per process and
	// is shared read-only across workers.
	var primary port.SlideScorer
	if !fl.noClip {
		scorer, err := clip.NewScorer(clip.Config{
			ModelPath:   cfg.ClipModelPath,
			PromptsPath: cfg.ClipPromptsPath,
			LibraryPath: cfg.OnnxLibraryPath,
		}, log)
		if err != nil {
			log.Warn("vision model unavailable, using text-density heuristic", zap.Error(err))
		} else {
			primary = scorer
			closers = append(closers, scorer.Close)
		}
	}

	patterns := slides.DefaultPatternSet()
	if cfg.FillerPatternsPath != "" {
		loaded, err := slides.LoadPatternSet(cfg.FillerPatternsPath)
		fatalOnErr(err, "load filler patterns")
		patterns = loaded
	}

	var source port.VideoSource
	if cfg.VideoSource == "minio" {
		s, err := miniostore.NewSource(minioClientConfig(cfg), cfg.MinIOVideoBucket)
		fatalOnErr(err, "create minio video source")
		source = s
	} else {
		source = ytdlp.NewDownloader(cfg.VideoQuality, log)
	}

	var ledger port.RunLedger
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		fatalOnErr(err, "connect to postgres")
		closers = append(closers, pool.Close)
		if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
			log.Warn("migration warning", zap.Error(err))
		}
		ledger = postgres.NewRunLedger(pool)
	}

	var publisher port.StatusPublisher
	if cfg.AMQPURL != "" {
		conn, err := amqp.Dial(cfg.AMQPURL)
		fatalOnErr(err, "connect to rabbitmq")
		closers = append(closers, func() { conn.Close() })
		pub, err := rabbitmq.NewPublisher(conn, cfg.AMQPExchange)
		fatalOnErr(err, "create rabbitmq publisher")
		publisher = rabbitmq.NewStatusPublisher(pub)
	}

	var bundler port.Bundler
	var mirror port.ArtifactMirror
	if cfg.MirrorBundles {
		m, err := miniostore.NewMirror(minioClientConfig(cfg), cfg.MinIOBundleBucket)
		fatalOnErr(err, "create minio mirror")
		fatalOnErr(m.EnsureBucket(ctx), "ensure bundle bucket")
		bundler = archive.NewBundler()
		mirror = m
	}

	settings := entity.ExtractionSettings{
		FrameInterval:  cfg.FrameInterval,
		UseClip:        primary != nil,
		ClipThreshold:  cfg.ClipThreshold,
		SceneThreshold: cfg.SceneThreshold,
		BlurThreshold:  cfg.BlurThreshold,
		DarkRatio:      cfg.DarkRatio,
		MinWords:       cfg.MinWords,
		DedupDistance:  cfg.DedupDistance,
	}

	extract := usecase.NewExtractVideoUseCase(usecase.ExtractDeps{
		Source:     source,
		Transcript: transcript.NewFileProvider(cfg.RawDir()),
		Sampler:    ffmpeg.NewSampler(log),
		OCR:        tesseract.NewEngine(log),
		Store:      store,
		Ledger:     ledger,
		Publisher:  publisher,
		Bundler:    bundler,
		Mirror:     mirror,
		Detector:   slides.NewDetector(cfg.SceneThreshold),
		Classifier: slides.NewClassifier(primary, slides.NewHeuristicScorer(), cfg.ClipThreshold, log),
		Filter: slides.NewFilter(slides.QualityConfig{
			BlurThreshold: cfg.BlurThreshold,
			DarkRatio:     cfg.DarkRatio,
			DarkPixelMax:  uint8(cfg.DarkPixelMax),
			MinWords:      cfg.MinWords,
			Patterns:      patterns,
		}, log),
		Dedup: &slides.Deduplicator{Distance: cfg.DedupDistance},
	}, log, usecase.ExtractConfig{
		TempDir:          cfg.TempDir,
		Settings:         settings,
		KeepDuplicates:   cfg.KeepDuplicates,
		AutoApprove:      cfg.AutoApprove,
		MaxSourceRetries: cfg.MaxSourceRetries,
		RetryBaseDelay:   cfg.RetryBaseDelay,
		DownloadTimeout:  cfg.DownloadTimeout,
	})
	return extract, cleanup
}

func runSingle(
	ctx context.Context,
	fl cliFlags,
	extract *usecase.ExtractVideoUseCase,
	videoCatalog port.VideoCatalog,
) int {
	video, err := videoCatalog.Get(ctx, fl.videoID)
	fatalOnErr(err, "look up video")

	run, err := extract.Execute(ctx, video, usecase.ExtractOptions{
		Force:     fl.force,
		KeepVideo: fl.keepVideo,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "extraction failed at %s: %v\n", run.StageReached, err)
		return 1
	}

	switch run.Status {
	case entity.RunSkipped:
		fmt.Printf("%s already extracted (use -force to supersede)\n", fl.videoID)
	default:
		fmt.Printf("%s: %d slides (%d unique, %d duplicates, %d flagged)\n",
			fl.videoID, run.SlideCount, run.UniqueCount, run.DuplicateCount, run.FlaggedCount)
	}
	return 0
}

func runBatch(
	ctx context.Context,
	fl cliFlags,
	cfg *config.Config,
	extract *usecase.ExtractVideoUseCase,
	videoCatalog port.VideoCatalog,
	store port.RecordStore,
	log *zap.Logger,
) int {
	var notifier port.BatchNotifier
	if cfg.NotifyTo != "" && cfg.SMTPHost != "" {
		notifier = email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)
	}

	batch := usecase.NewBatchUseCase(extract, videoCatalog, store, notifier, log, usecase.BatchConfig{
		Workers:      cfg.WorkerCount,
		VideoTimeout: cfg.VideoTimeout,
		ReportsDir:   cfg.ReportsDir(),
		NotifyTo:     cfg.NotifyTo,
		Force:        fl.force,
		KeepVideo:    fl.keepVideo,
	})

	if cfg.MetricsPort > 0 {
		srv := metrics.StartServer(cfg.MetricsPort, func() any { return batch.Snapshot() }, log)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	report, err := batch.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "batch error: %v\n", err)
		return 1
	}

	fmt.Printf("batch %s: %d completed, %d skipped, %d failed\n",
		report.BatchID, report.Completed, report.Skipped, report.Failed)
	if report.Failed > 0 {
		return 1
	}
	return 0
}

func runQueryMode(
	ctx context.Context,
	fl cliFlags,
	cfg *config.Config,
	store port.RecordStore,
	videoCatalog port.VideoCatalog,
	log *zap.Logger,
) int {
	if fl.status {
		var ledger port.RunLedger
		if cfg.DatabaseURL != "" {
			pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
			fatalOnErr(err, "connect to postgres")
			defer pool.Close()
			ledger = postgres.NewRunLedger(pool)
		}

		status := usecase.NewStatusUseCase(videoCatalog, store, ledger, cfg.ReportsDir(), log)
		summary, err := status.Summarize(ctx)
		fatalOnErr(err, "summarize status")
		summary.Render(os.Stdout)
		return 0
	}

	// Resync one video or every recorded one.
	resync := usecase.NewResyncUseCase(store, log)
	ids := []string{fl.videoID}
	if fl.videoID == "" || fl.all {
		recorded, err := store.ListRecordIDs()
		fatalOnErr(err, "list records")
		ids = recorded
	}

	exit := 0
	for _, id := range ids {
		result, err := resync.Resync(id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "resync %s: %v\n", id, err)
			exit = 1
			continue
		}
		removed := len(result.RemovedSlides) + len(result.RemovedFlagged)
		fmt.Printf("%s: %d entries removed, %d orphaned images\n", id, removed, len(result.Orphans))
		for _, orphan := range result.Orphans {
			fmt.Printf("  orphan: %s\n", orphan)
		}
	}
	return exit
}

func runCheck(ctx context.Context, cfg *config.Config) int {
	check := &usecase.CheckUseCase{
		ModelPath:   cfg.ClipModelPath,
		PromptsPath: cfg.ClipPromptsPath,
	}
	results, ok := check.Run(ctx)

	fmt.Println("dependency check:")
	usecase.RenderChecks(os.Stdout, results)
	if !ok {
		return 1
	}
	return 0
}

func minioClientConfig(cfg *config.Config) miniostore.ClientConfig {
	return miniostore.ClientConfig{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		UseSSL:    cfg.MinIOUseSSL,
	}
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
