package entity

import (
	"time"

	"github.com/google/uuid"
)

// VideoStatusEvent is published on the video.status routing key each time
// a run changes state, so downstream consumers can follow progress.
type VideoStatusEvent struct {
	RunID        uuid.UUID `json:"run_id"`
	BatchID      uuid.UUID `json:"batch_id"`
	VideoID      string    `json:"video_id"`
	Status       RunStatus `json:"status"`
	StageReached RunStatus `json:"stage_reached"`
	SlideCount   int       `json:"slide_count,omitempty"`
	UniqueCount  int       `json:"unique_count,omitempty"`
	Duplicates   int       `json:"duplicates,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Attempt      int       `json:"attempt,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
