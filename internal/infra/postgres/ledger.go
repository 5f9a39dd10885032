package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jvalenzano/ai-youtube-kb/internal/domain/entity"
)

// RunLedger records extraction runs in Postgres so status queries can see
// failures and attempts across processes.
type RunLedger struct {
	pool *pgxpool.Pool
}

func NewRunLedger(pool *pgxpool.Pool) *RunLedger {
	return &RunLedger{pool: pool}
}

func (l *RunLedger) Create(ctx context.Context, run *entity.ExtractionRun) error {
	query := `
		INSERT INTO extraction_runs (
			id, batch_id, video_id, status, stage_reached,
			slide_count, unique_count, duplicate_count, flagged_count,
			attempt, max_attempts, error_message,
			started_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	_, err := l.pool.Exec(ctx, query,
		run.ID, run.BatchID, run.VideoID, string(run.Status), string(run.StageReached),
		run.SlideCount, run.UniqueCount, run.DuplicateCount, run.FlaggedCount,
		run.Attempt, run.MaxAttempts, run.ErrorMessage,
		run.StartedAt, run.UpdatedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (l *RunLedger) Update(ctx context.Context, run *entity.ExtractionRun) error {
	query := `
		UPDATE extraction_runs SET
			status=$2, stage_reached=$3,
			slide_count=$4, unique_count=$5, duplicate_count=$6, flagged_count=$7,
			attempt=$8, error_message=$9, updated_at=$10, completed_at=$11
		WHERE id=$1`

	_, err := l.pool.Exec(ctx, query,
		run.ID, string(run.Status), string(run.StageReached),
		run.SlideCount, run.UniqueCount, run.DuplicateCount, run.FlaggedCount,
		run.Attempt, run.ErrorMessage, run.UpdatedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// LatestByVideo returns the most recently started run per video.
func (l *RunLedger) LatestByVideo(ctx context.Context) (map[string]entity.ExtractionRun, error) {
	query := `
		SELECT DISTINCT ON (video_id)
			id, batch_id, video_id, status, stage_reached,
			slide_count, unique_count, duplicate_count, flagged_count,
			attempt, max_attempts, error_message,
			started_at, updated_at, completed_at
		FROM extraction_runs
		ORDER BY video_id, started_at DESC`

	rows, err := l.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query latest runs: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]entity.ExtractionRun)
	for rows.Next() {
		var run entity.ExtractionRun
		var status, stage string
		err := rows.Scan(
			&run.ID, &run.BatchID, &run.VideoID, &status, &stage,
			&run.SlideCount, &run.UniqueCount, &run.DuplicateCount, &run.FlaggedCount,
			&run.Attempt, &run.MaxAttempts, &run.ErrorMessage,
			&run.StartedAt, &run.UpdatedAt, &run.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = entity.RunStatus(status)
		run.StageReached = entity.RunStatus(stage)
		latest[run.VideoID] = run
	}
	return latest, rows.Err()
}
