package port

import "context"

// BatchNotifier reports a finished batch to an operator. Optional; callers
// treat a nil notifier as disabled.
type BatchNotifier interface {
	NotifyBatchFinished(ctx context.Context, to, batchID, summary string) error
}
