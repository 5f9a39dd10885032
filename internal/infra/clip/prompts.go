package clip

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// classSlide marks prompt entries whose probability mass counts toward the
// slide score.
const classSlide = "slide"

type promptEntry struct {
	Text      string    `json:"text"`
	Class     string    `json:"class"`
	Embedding []float32 `json:"embedding"`
}

type promptFile struct {
	Model      string        `json:"model"`
	Dim        int           `json:"dim"`
	LogitScale float64       `json:"logit_scale"`
	Prompts    []promptEntry `json:"prompts"`
}

// promptSet holds the text embeddings, unit-normalized at load time.
type promptSet struct {
	dim        int
	logitScale float64
	entries    []promptEntry
}

// loadPrompts reads a prompt embedding file produced offline by encoding
// the class prompts with the matching CLIP text encoder.
func loadPrompts(path string) (*promptSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt file: %w", err)
	}

	var pf promptFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse prompt file %s: %w", path, err)
	}
	if pf.Dim <= 0 {
		return nil, fmt.Errorf("prompt file %s: dim must be positive, got %d", path, pf.Dim)
	}
	if len(pf.Prompts) == 0 {
		return nil, fmt.Errorf("prompt file %s has no prompts", path)
	}

	slideCount := 0
	for i, p := range pf.Prompts {
		if len(p.Embedding) != pf.Dim {
			return nil, fmt.Errorf("prompt %q: embedding has %d values, want %d", p.Text, len(p.Embedding), pf.Dim)
		}
		if p.Class == classSlide {
			slideCount++
		}
		normalize(pf.Prompts[i].Embedding)
	}
	if slideCount == 0 || slideCount == len(pf.Prompts) {
		return nil, fmt.Errorf("prompt file %s needs both slide and non-slide prompts", path)
	}

	scale := pf.LogitScale
	if scale == 0 {
		scale = 100
	}
	return &promptSet{dim: pf.Dim, logitScale: scale, entries: pf.Prompts}, nil
}

// slideProbability softmaxes the scaled cosine similarities across all
// prompts and sums the mass of the slide class, matching CLIP's zero-shot
// classification setup. The embedding must be unit length.
func (p *promptSet) slideProbability(embedding []float32) float64 {
	logits := make([]float64, len(p.entries))
	maxLogit := math.Inf(-1)
	for i, e := range p.entries {
		logits[i] = p.logitScale * dot(embedding, e.Embedding)
		if logits[i] > maxLogit {
			maxLogit = logits[i]
		}
	}

	var total, slide float64
	for i, e := range p.entries {
		v := math.Exp(logits[i] - maxLogit)
		total += v
		if e.Class == classSlide {
			slide += v
		}
	}
	if total == 0 {
		return 0
	}
	return slide / total
}

// dot of two unit vectors is their cosine similarity.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
