package entity

import (
	"errors"
	"fmt"
)

// ErrClassifierUnavailable signals that the vision model could not be
// loaded or run at all. Callers fall back to the text-density heuristic
// instead of failing the video.
var ErrClassifierUnavailable = errors.New("classifier unavailable")

// ErrTranscriptUnavailable is the explicit "no transcript" signal for a
// video whose captions were disabled or never fetched. It is not a
// pipeline failure.
var ErrTranscriptUnavailable = errors.New("transcript unavailable")

// TransientSourceError marks a video fetch failure worth retrying, such as
// rate limits or network hiccups.
type TransientSourceError struct {
	Err error
}

func (e *TransientSourceError) Error() string { return "transient source error: " + e.Err.Error() }
func (e *TransientSourceError) Unwrap() error { return e.Err }

// PermanentSourceError marks a video fetch failure that retrying cannot
// fix, such as a removed or private video.
type PermanentSourceError struct {
	Err error
}

func (e *PermanentSourceError) Error() string { return "permanent source error: " + e.Err.Error() }
func (e *PermanentSourceError) Unwrap() error { return e.Err }

// DecodeError marks corrupt or unsupported media.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode error: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// OCRError marks an OCR engine failure on a single frame. Callers treat it
// as empty text and continue.
type OCRError struct {
	Frame string
	Err   error
}

func (e *OCRError) Error() string { return fmt.Sprintf("ocr failed for %s: %v", e.Frame, e.Err) }
func (e *OCRError) Unwrap() error { return e.Err }

// PersistenceError marks a record or image write failure. No partial
// record is left behind when one occurs.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return "persistence error: " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

// IsTransientSource reports whether err should be retried at the download
// stage.
func IsTransientSource(err error) bool {
	var t *TransientSourceError
	return errors.As(err, &t)
}
