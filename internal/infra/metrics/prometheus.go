package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VideosProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slides_videos_processed_total",
		Help: "Total number of videos processed, by final status",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slides_stage_duration_seconds",
		Help:    "Duration of each extraction pipeline stage",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesSampledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slides_frames_sampled_total",
		Help: "Total number of frames sampled across all videos",
	})

	SlidesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slides_slides_extracted_total",
		Help: "Total number of slides persisted across all videos",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slides_active_workers",
		Help: "Number of workers currently extracting a video",
	})

	SourceRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slides_source_retries_total",
		Help: "Total number of video download retries",
	}, []string{"attempt"})
)
