package usecase

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
	"github.com/jvalenzano/ai-youtube-kb/internal/domain/port"
	"github.com/jvalenzano/ai-youtube-kb/internal/infra/fsstore"
	"github.com/jvalenzano/ai-youtube-kb/internal/slides"
	"github.com/jvalenzano/ai-youtube-kb/internal/vision"
)

// Image generators. textSlideImage is sharp and bright enough to pass
// every quality check; gradientImage stands in for camera footage.

func flatImage(w, h int, value uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = value
	}
	return img
}

func gradientImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		v := uint8(y * 255 / h)
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func textSlideImage(w, h, lines, region int) *image.Gray {
	img := flatImage(w, h, 245)
	gap := h / (lines + 1)
	offset := 0
	if region != 0 {
		gap = h / (2 * (lines + 1))
		if region == 2 {
			offset = h / 2
		}
	}
	for l := 1; l <= lines; l++ {
		y0 := offset + l*gap
		for y := y0; y < y0+3 && y < h; y++ {
			for x := 8; x < w-8; x++ {
				if (x/12)%2 == 0 {
					img.SetGray(x, y, color.Gray{Y: 20})
				}
			}
		}
	}
	return img
}

func meanLuminance(img *image.Gray) float64 {
	var sum int
	for _, p := range img.Pix {
		sum += int(p)
	}
	if len(img.Pix) == 0 {
		return 0
	}
	return float64(sum) / float64(len(img.Pix))
}

// stubSource writes a placeholder video file, returning queued errors
// first. A nil entry in errs means that attempt succeeds.
type stubSource struct {
	errs  []error
	calls int
}

func (s *stubSource) Fetch(_ context.Context, _ entity.VideoInfo, destPath string) error {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return err
		}
	}
	return os.WriteFile(destPath, []byte("video-bytes"), 0o644)
}

// stubSampler renders a fixed frame sequence into the output directory.
type stubSampler struct {
	frames []*image.Gray
	err    error
}

func (s *stubSampler) Sample(_ context.Context, _, outputDir string, interval float64) (*port.SampleResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := &port.SampleResult{VideoDuration: float64(len(s.frames)) * interval}
	for i, img := range s.frames {
		path := filepath.Join(outputDir, fmt.Sprintf("frame_%06d.png", i+1))
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return nil, err
		}
		f.Close()
		result.Frames = append(result.Frames, entity.Frame{
			Index:     i,
			Timestamp: float64(i) * interval,
			Path:      path,
		})
	}
	return result, nil
}

// brightScorer calls bright frames slides, matching how the synthetic
// slide images differ from the camera stand-ins.
type brightScorer struct{}

func (brightScorer) Name() string { return "clip" }

func (brightScorer) Score(_ context.Context, img image.Image) (float64, error) {
	if meanLuminance(vision.Grayscale(img)) > 200 {
		return 0.9, nil
	}
	return 0.1, nil
}

// ocrFunc adapts a function to the TextExtractor port.
type ocrFunc func(ctx context.Context, imagePath string) (string, error)

func (f ocrFunc) ExtractText(ctx context.Context, imagePath string) (string, error) {
	return f(ctx, imagePath)
}

const slideText = "alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu"

// brightOCR returns readable text for bright frames and nothing for dark
// ones, mirroring brightScorer.
func brightOCR(_ context.Context, imagePath string) (string, error) {
	img, err := vision.LoadGray(imagePath)
	if err != nil {
		return "", err
	}
	if meanLuminance(img) > 200 {
		return slideText, nil
	}
	return "", nil
}

type stubTranscript struct {
	segments []entity.TranscriptSegment
	err      error
}

func (s *stubTranscript) Fetch(context.Context, string) ([]entity.TranscriptSegment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.segments, nil
}

type stubLedger struct {
	mu      sync.Mutex
	created []entity.ExtractionRun
	updated []entity.ExtractionRun
}

func (l *stubLedger) Create(_ context.Context, run *entity.ExtractionRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.created = append(l.created, *run)
	return nil
}

func (l *stubLedger) Update(_ context.Context, run *entity.ExtractionRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updated = append(l.updated, *run)
	return nil
}

func (l *stubLedger) LatestByVideo(context.Context) (map[string]entity.ExtractionRun, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	latest := make(map[string]entity.ExtractionRun)
	for _, run := range l.updated {
		latest[run.VideoID] = run
	}
	return latest, nil
}

type stubPublisher struct {
	mu       sync.Mutex
	messages [][]byte
}

func (p *stubPublisher) PublishStatus(_ context.Context, msg []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

type stubCatalog struct {
	videos []entity.VideoInfo
}

func (c *stubCatalog) List(context.Context) ([]entity.VideoInfo, error) {
	return c.videos, nil
}

func (c *stubCatalog) Get(_ context.Context, videoID string) (entity.VideoInfo, error) {
	for _, v := range c.videos {
		if v.VideoID == videoID {
			return v, nil
		}
	}
	return entity.VideoInfo{}, fmt.Errorf("video %s not in catalog", videoID)
}

type stubNotifier struct {
	mu        sync.Mutex
	summaries []string
}

func (n *stubNotifier) NotifyBatchFinished(_ context.Context, _, _, summary string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.summaries = append(n.summaries, summary)
	return nil
}

// testEnv bundles an extractor wired with real pipeline components, a
// real filesystem store and stub I/O adapters.
type testEnv struct {
	extract *ExtractVideoUseCase
	store   *fsstore.Store
	source  *stubSource
	ledger  *stubLedger
	pub     *stubPublisher
	root    string
}

type envOverrides struct {
	source      *stubSource
	sampler     port.FrameSampler
	transcript  port.TranscriptProvider
	ocr         port.TextExtractor
	autoApprove *bool
	keepDupes   *bool
}

func defaultSettings() entity.ExtractionSettings {
	return entity.ExtractionSettings{
		FrameInterval:  2.0,
		UseClip:        true,
		ClipThreshold:  0.55,
		SceneThreshold: 0.15,
		BlurThreshold:  100,
		DarkRatio:      0.85,
		MinWords:       10,
		DedupDistance:  0,
	}
}

func newTestEnv(t *testing.T, frames []*image.Gray, o envOverrides) *testEnv {
	t.Helper()

	root := t.TempDir()
	log := zap.NewNop()
	store := fsstore.NewStore(filepath.Join(root, "slides"), log)

	source := o.source
	if source == nil {
		source = &stubSource{}
	}
	var sampler port.FrameSampler = &stubSampler{frames: frames}
	if o.sampler != nil {
		sampler = o.sampler
	}
	var trans port.TranscriptProvider = &stubTranscript{err: entity.ErrTranscriptUnavailable}
	if o.transcript != nil {
		trans = o.transcript
	}
	var ocr port.TextExtractor = ocrFunc(brightOCR)
	if o.ocr != nil {
		ocr = o.ocr
	}
	autoApprove := true
	if o.autoApprove != nil {
		autoApprove = *o.autoApprove
	}
	keepDupes := true
	if o.keepDupes != nil {
		keepDupes = *o.keepDupes
	}

	settings := defaultSettings()
	ledger := &stubLedger{}
	pub := &stubPublisher{}

	extract := NewExtractVideoUseCase(ExtractDeps{
		Source:     source,
		Transcript: trans,
		Sampler:    sampler,
		OCR:        ocr,
		Store:      store,
		Ledger:     ledger,
		Publisher:  pub,
		Detector:   slides.NewDetector(settings.SceneThreshold),
		Classifier: slides.NewClassifier(brightScorer{}, slides.NewHeuristicScorer(), settings.ClipThreshold, log),
		Filter: slides.NewFilter(slides.QualityConfig{
			BlurThreshold: settings.BlurThreshold,
			DarkRatio:     settings.DarkRatio,
			DarkPixelMax:  30,
			MinWords:      settings.MinWords,
			Patterns:      slides.DefaultPatternSet(),
		}, log),
		Dedup: &slides.Deduplicator{Distance: settings.DedupDistance},
	}, log, ExtractConfig{
		TempDir:          filepath.Join(root, "tmp"),
		Settings:         settings,
		KeepDuplicates:   keepDupes,
		AutoApprove:      autoApprove,
		MaxSourceRetries: 3,
		RetryBaseDelay:   time.Millisecond,
		DownloadTimeout:  time.Minute,
	})

	return &testEnv{
		extract: extract,
		store:   store,
		source:  source,
		ledger:  ledger,
		pub:     pub,
		root:    root,
	}
}

// threeSlidesSequence interleaves three distinct slide images with camera
// footage: camera, slide A, camera, slide B, camera, slide C, each held
// for a few sampling intervals.
func threeSlidesSequence() []*image.Gray {
	camera := gradientImage(200, 150)
	a := textSlideImage(200, 150, 8, 0)
	b := textSlideImage(200, 150, 8, 1)
	c := textSlideImage(200, 150, 8, 2)

	var frames []*image.Gray
	hold := func(img *image.Gray, n int) {
		for i := 0; i < n; i++ {
			frames = append(frames, img)
		}
	}
	hold(camera, 3)
	hold(a, 3)
	hold(camera, 3)
	hold(b, 3)
	hold(camera, 3)
	hold(c, 3)
	return frames
}

func mustExtract(t *testing.T, env *testEnv, video entity.VideoInfo, opts ExtractOptions) *entity.ExtractionRun {
	t.Helper()
	run, err := env.extract.Execute(context.Background(), video, opts)
	require.NoError(t, err)
	return run
}

func testVideo(id string) entity.VideoInfo {
	return entity.VideoInfo{
		VideoID: id,
		Title:   "Test Talk " + id,
		URL:     "https://www.youtube.com/watch?v=" + id,
	}
}
