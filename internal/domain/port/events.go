package port

import "context"

// StatusPublisher emits run status events to a message broker. Optional;
// callers treat a nil publisher as disabled.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, message []byte) error
}
