package entity

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus tracks how far an extraction run has progressed.
type RunStatus string

const (
	RunPending       RunStatus = "PENDING"
	RunDownloading   RunStatus = "DOWNLOADING"
	RunSampling      RunStatus = "SAMPLING"
	RunDetecting     RunStatus = "DETECTING"
	RunClassifying   RunStatus = "CLASSIFYING"
	RunFiltering     RunStatus = "FILTERING"
	RunDeduplicating RunStatus = "DEDUPLICATING"
	RunAligning      RunStatus = "ALIGNING"
	RunPersisted     RunStatus = "PERSISTED"
	RunSkipped       RunStatus = "SKIPPED"
	RunFailed        RunStatus = "FAILED"
)

// ExtractionRun is one attempt to extract slides from one video. Failed
// runs keep StageReached at the stage where they died.
type ExtractionRun struct {
	ID             uuid.UUID
	BatchID        uuid.UUID
	VideoID        string
	Status         RunStatus
	StageReached   RunStatus
	SlideCount     int
	UniqueCount    int
	DuplicateCount int
	FlaggedCount   int
	Attempt        int
	MaxAttempts    int
	ErrorMessage   string
	StartedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

func NewExtractionRun(batchID uuid.UUID, videoID string, maxAttempts int) *ExtractionRun {
	now := time.Now().UTC()
	return &ExtractionRun{
		ID:           uuid.New(),
		BatchID:      batchID,
		VideoID:      videoID,
		Status:       RunPending,
		StageReached: RunPending,
		MaxAttempts:  maxAttempts,
		StartedAt:    now,
		UpdatedAt:    now,
	}
}

// Advance moves the run to the next pipeline stage.
func (r *ExtractionRun) Advance(status RunStatus) {
	r.Status = status
	r.StageReached = status
	r.UpdatedAt = time.Now().UTC()
}

// MarkPersisted records a successful run together with its slide counts.
func (r *ExtractionRun) MarkPersisted(stats ExtractionStats) {
	now := time.Now().UTC()
	r.Status = RunPersisted
	r.StageReached = RunPersisted
	r.SlideCount = stats.SlidesDetected
	r.UniqueCount = stats.UniqueSlides
	r.DuplicateCount = stats.Duplicates
	r.FlaggedCount = stats.Flagged
	r.UpdatedAt = now
	r.CompletedAt = &now
}

// MarkSkipped records an idempotent no-op on a video that already has a
// record.
func (r *ExtractionRun) MarkSkipped() {
	now := time.Now().UTC()
	r.Status = RunSkipped
	r.StageReached = RunSkipped
	r.UpdatedAt = now
	r.CompletedAt = &now
}

// MarkFailed records a terminal failure without touching StageReached.
func (r *ExtractionRun) MarkFailed(errorMessage string) {
	now := time.Now().UTC()
	r.Status = RunFailed
	r.ErrorMessage = errorMessage
	r.UpdatedAt = now
	r.CompletedAt = &now
}

// NextAttempt counts one more download attempt.
func (r *ExtractionRun) NextAttempt() {
	r.Attempt++
	r.UpdatedAt = time.Now().UTC()
}

// CanRetry reports whether another download attempt is allowed.
func (r *ExtractionRun) CanRetry() bool {
	return r.Attempt < r.MaxAttempts
}
