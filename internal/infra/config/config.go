package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	KBDir   string `env:"KB_DIR"   envDefault:"kb"`
	DataDir string `env:"DATA_DIR" envDefault:"data"`
	TempDir string `env:"TEMP_DIR" envDefault:"/tmp/ai-youtube-kb"`

	FrameInterval  float64 `env:"FRAME_INTERVAL"  envDefault:"2.0"`
	SceneThreshold float64 `env:"SCENE_THRESHOLD" envDefault:"0.15"`
	ClipThreshold  float64 `env:"CLIP_THRESHOLD"  envDefault:"0.55"`
	BlurThreshold  float64 `env:"BLUR_THRESHOLD"  envDefault:"100"`
	DarkRatio      float64 `env:"DARK_RATIO"      envDefault:"0.85"`
	DarkPixelMax   int     `env:"DARK_PIXEL_MAX"  envDefault:"30"`
	MinWords       int     `env:"MIN_OCR_WORDS"   envDefault:"10"`
	DedupDistance  int     `env:"DEDUP_DISTANCE"  envDefault:"0"`
	KeepDuplicates bool    `env:"KEEP_DUPLICATES" envDefault:"true"`
	AutoApprove    bool    `env:"AUTO_APPROVE"    envDefault:"true"`

	FillerPatternsPath string `env:"FILLER_PATTERNS_PATH"`

	VideoSource  string `env:"VIDEO_SOURCE"  envDefault:"ytdlp"`
	VideoQuality string `env:"VIDEO_QUALITY" envDefault:"720"`

	ClipModelPath   string `env:"CLIP_MODEL_PATH"   envDefault:"models/clip-image-vit-b32.onnx"`
	ClipPromptsPath string `env:"CLIP_PROMPTS_PATH" envDefault:"models/clip_prompts.json"`
	OnnxLibraryPath string `env:"ONNXRUNTIME_LIB"`

	WorkerCount      int           `env:"WORKER_COUNT"       envDefault:"4"`
	MaxSourceRetries int           `env:"MAX_SOURCE_RETRIES" envDefault:"3"`
	RetryBaseDelay   time.Duration `env:"RETRY_BASE_DELAY"   envDefault:"2s"`
	DownloadTimeout  time.Duration `env:"DOWNLOAD_TIMEOUT"   envDefault:"10m"`
	VideoTimeout     time.Duration `env:"VIDEO_TIMEOUT"      envDefault:"45m"`

	DatabaseURL string `env:"DATABASE_URL"`

	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"kb.video"`

	MinIOEndpoint     string `env:"MINIO_ENDPOINT"`
	MinIOAccessKey    string `env:"MINIO_ACCESS_KEY"`
	MinIOSecretKey    string `env:"MINIO_SECRET_KEY"`
	MinIOUseSSL       bool   `env:"MINIO_USE_SSL"       envDefault:"false"`
	MinIOVideoBucket  string `env:"MINIO_VIDEO_BUCKET"  envDefault:"videos"`
	MinIOBundleBucket string `env:"MINIO_BUNDLE_BUCKET" envDefault:"slide-bundles"`
	MirrorBundles     bool   `env:"MIRROR_BUNDLES"      envDefault:"false"`

	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"25"`
	SMTPFrom string `env:"SMTP_FROM" envDefault:"noreply@kb.local"`
	NotifyTo string `env:"NOTIFY_TO"`

	MetricsPort  int    `env:"METRICS_PORT" envDefault:"0"`
	OTLPEndpoint string `env:"OTLP_ENDPOINT"`
	LogLevel     string `env:"LOG_LEVEL"    envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations no extraction run could use. Called once
// at startup, before any work begins.
func (c *Config) Validate() error {
	if c.FrameInterval <= 0 {
		return fmt.Errorf("frame interval must be positive, got %v", c.FrameInterval)
	}
	if c.SceneThreshold < 0 || c.SceneThreshold > 1 {
		return fmt.Errorf("scene threshold must be in [0,1], got %v", c.SceneThreshold)
	}
	if c.ClipThreshold < 0 || c.ClipThreshold > 1 {
		return fmt.Errorf("clip threshold must be in [0,1], got %v", c.ClipThreshold)
	}
	if c.BlurThreshold < 0 {
		return fmt.Errorf("blur threshold must not be negative, got %v", c.BlurThreshold)
	}
	if c.DarkRatio < 0 || c.DarkRatio > 1 {
		return fmt.Errorf("dark ratio must be in [0,1], got %v", c.DarkRatio)
	}
	if c.DarkPixelMax < 0 || c.DarkPixelMax > 255 {
		return fmt.Errorf("dark pixel level must be in [0,255], got %d", c.DarkPixelMax)
	}
	if c.MinWords < 0 {
		return fmt.Errorf("minimum word count must not be negative, got %d", c.MinWords)
	}
	if c.DedupDistance < 0 || c.DedupDistance > 64 {
		return fmt.Errorf("dedup distance must be in [0,64], got %d", c.DedupDistance)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", c.WorkerCount)
	}
	if c.MaxSourceRetries < 1 {
		return fmt.Errorf("max source retries must be at least 1, got %d", c.MaxSourceRetries)
	}
	if c.VideoSource != "ytdlp" && c.VideoSource != "minio" {
		return fmt.Errorf("video source must be ytdlp or minio, got %q", c.VideoSource)
	}
	if c.VideoSource == "minio" && c.MinIOEndpoint == "" {
		return fmt.Errorf("video source minio requires MINIO_ENDPOINT")
	}
	if c.MirrorBundles && c.MinIOEndpoint == "" {
		return fmt.Errorf("bundle mirroring requires MINIO_ENDPOINT")
	}
	return nil
}

// SlidesDir is the per-video output root.
func (c *Config) SlidesDir() string { return filepath.Join(c.DataDir, "slides") }

// RawDir holds the ingester's transcript files.
func (c *Config) RawDir() string { return filepath.Join(c.DataDir, "raw") }

// CatalogPath is the ingester's video catalog.
func (c *Config) CatalogPath() string { return filepath.Join(c.KBDir, "metadata.json") }

// ReportsDir holds per-batch run reports.
func (c *Config) ReportsDir() string { return filepath.Join(c.KBDir, "reports") }
