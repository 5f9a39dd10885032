package entity

import (
	"fmt"
	"time"
)

// ExtractionSettings is the configuration snapshot persisted with a
// record, so later consumers know which thresholds produced it.
type ExtractionSettings struct {
	FrameInterval  float64 `json:"frame_interval"`
	UseClip        bool    `json:"use_clip"`
	ClipThreshold  float64 `json:"clip_threshold"`
	SceneThreshold float64 `json:"scene_threshold"`
	BlurThreshold  float64 `json:"blur_threshold"`
	DarkRatio      float64 `json:"dark_ratio"`
	MinWords       int     `json:"min_words"`
	DedupDistance  int     `json:"dedup_distance"`
}

// ExtractionStats summarizes one extraction pass.
type ExtractionStats struct {
	TotalFramesAnalyzed  int `json:"total_frames_analyzed"`
	SceneChangesDetected int `json:"scene_changes_detected"`
	SlidesDetected       int `json:"slides_detected"`
	UniqueSlides         int `json:"unique_slides"`
	Duplicates           int `json:"duplicates"`
	Flagged              int `json:"flagged,omitempty"`
}

// SlideRecord is one persisted slide entry. ClipScore is nil when the
// text-density fallback classified the frame, and IsDuplicateOf is nil for
// canonical slides.
type SlideRecord struct {
	Filename           string           `json:"filename"`
	TimestampSeconds   int              `json:"timestamp_seconds"`
	TimestampFormatted string           `json:"timestamp_formatted"`
	TimestampURL       string           `json:"timestamp_url"`
	PerceptualHash     string           `json:"perceptual_hash"`
	IsDuplicateOf      *string          `json:"is_duplicate_of"`
	OCRText            string           `json:"ocr_text"`
	ClipScore          *float64         `json:"clip_score"`
	TranscriptContext  TranscriptWindow `json:"transcript_context"`
	RejectionReason    RejectionReason  `json:"rejection_reason,omitempty"`
}

// VideoExtractionRecord is the durable per-video result, written as
// metadata.json next to the slide images.
type VideoExtractionRecord struct {
	VideoID          string              `json:"video_id"`
	Title            string              `json:"title"`
	URL              string              `json:"url"`
	ExtractedAt      time.Time           `json:"extracted_at"`
	Config           ExtractionSettings  `json:"extraction_config"`
	Stats            ExtractionStats     `json:"stats"`
	Slides           []SlideRecord       `json:"slides"`
	Flagged          []SlideRecord       `json:"flagged,omitempty"`
	DeduplicationMap map[string][]string `json:"deduplication_map"`
	MetadataSynced   bool                `json:"metadata_synced,omitempty"`
}

// Validate checks the aggregate invariants a record must hold before it is
// persisted.
func (r *VideoExtractionRecord) Validate() error {
	if r.VideoID == "" {
		return fmt.Errorf("record has no video id")
	}
	if r.Stats.UniqueSlides+r.Stats.Duplicates != r.Stats.SlidesDetected {
		return fmt.Errorf("stats out of balance for %s: unique %d + duplicates %d != detected %d",
			r.VideoID, r.Stats.UniqueSlides, r.Stats.Duplicates, r.Stats.SlidesDetected)
	}
	for i := 1; i < len(r.Slides); i++ {
		if r.Slides[i].TimestampSeconds < r.Slides[i-1].TimestampSeconds {
			return fmt.Errorf("slides out of order for %s at index %d", r.VideoID, i)
		}
	}
	for _, s := range r.Slides {
		if s.Filename == "" {
			return fmt.Errorf("slide at %ds has no filename", s.TimestampSeconds)
		}
	}
	return nil
}
