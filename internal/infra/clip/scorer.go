package clip

import (
	"context"
	"fmt"
	"image"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

// ScorerName identifies the CLIP scorer in records and logs.
const ScorerName = "clip"

const (
	inputName  = "pixel_values"
	outputName = "image_embeds"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// initRuntime loads the onnxruntime shared library once per process.
func initRuntime(libraryPath string) error {
	ortInitOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// Config locates the exported CLIP image encoder and its companion prompt
// embeddings.
type Config struct {
	ModelPath   string
	PromptsPath string
	LibraryPath string
}

// Scorer runs the CLIP ViT-B/32 image encoder through onnxruntime and
// compares each frame embedding against prompt text embeddings computed
// offline. Zero-shot classification without any text model at runtime.
type Scorer struct {
	session *ort.DynamicAdvancedSession
	prompts *promptSet
	mu      sync.Mutex
	logger  *zap.Logger
}

// NewScorer loads the prompts and the image encoder. Every failure wraps
// entity.ErrClassifierUnavailable so callers fall back to the heuristic
// scorer instead of failing the run.
func NewScorer(cfg Config, logger *zap.Logger) (*Scorer, error) {
	prompts, err := loadPrompts(cfg.PromptsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: load prompts: %v", entity.ErrClassifierUnavailable, err)
	}
	if err := initRuntime(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("%w: init onnxruntime: %v", entity.ErrClassifierUnavailable, err)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{inputName}, []string{outputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: load image encoder %s: %v", entity.ErrClassifierUnavailable, cfg.ModelPath, err)
	}

	logger.Info("clip scorer ready",
		zap.String("model", cfg.ModelPath),
		zap.Int("prompts", len(prompts.entries)),
		zap.Int("dim", prompts.dim),
	)
	return &Scorer{session: session, prompts: prompts, logger: logger}, nil
}

func (s *Scorer) Name() string { return ScorerName }

// Score encodes the frame and returns the softmax probability mass of the
// slide-class prompts.
func (s *Scorer) Score(ctx context.Context, img image.Image) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	pixels := Preprocess(img)
	input, err := ort.NewTensor(ort.NewShape(1, 3, inputSize, inputSize), pixels)
	if err != nil {
		return 0, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := make([]ort.Value, 1)
	s.mu.Lock()
	err = s.session.Run([]ort.Value{input}, outputs)
	s.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("run image encoder: %w", err)
	}
	defer outputs[0].Destroy()

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return 0, fmt.Errorf("image encoder output is not float32")
	}

	embedding := make([]float32, len(outputTensor.GetData()))
	copy(embedding, outputTensor.GetData())
	normalize(embedding)

	if len(embedding) != s.prompts.dim {
		return 0, fmt.Errorf("embedding dim %d does not match prompt dim %d", len(embedding), s.prompts.dim)
	}
	return s.prompts.slideProbability(embedding), nil
}

// Close releases the session and the shared runtime.
func (s *Scorer) Close() {
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	ort.DestroyEnvironment()
}
