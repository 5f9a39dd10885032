package port

import (
	"context"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

// RunLedger records extraction runs in a database so status survives
// across processes. The ledger is optional; callers treat a nil ledger as
// disabled.
type RunLedger interface {
	Create(ctx context.Context, run *entity.ExtractionRun) error
	Update(ctx context.Context, run *entity.ExtractionRun) error
	LatestByVideo(ctx context.Context) (map[string]entity.ExtractionRun, error)
}
