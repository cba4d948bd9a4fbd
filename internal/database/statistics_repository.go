package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/lexitutor/pkg/models"
)

// StatisticsRepository handles database operations for attempt statistics
type StatisticsRepository struct {
	db *sqlx.DB
}

// NewStatisticsRepository creates a new repository instance
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// ListByItem returns every statistic context recorded for an item
func (r *StatisticsRepository) ListByItem(ctx context.Context, itemID int64) ([]models.AttemptStatistic, error) {
	return listStatistics(ctx, r.db, []int64{itemID})
}

// Save inserts the statistic or overwrites the counters of the existing context
func (r *StatisticsRepository) Save(ctx context.Context, stat *models.AttemptStatistic) error {
	return upsertStatistic(ctx, r.db, stat)
}

func listStatistics(ctx context.Context, q sqlx.ExtContext, itemIDs []int64) ([]models.AttemptStatistic, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT * FROM attempt_statistics WHERE vocabulary_item_id IN (?) ORDER BY id", itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build statistics query: %w", err)
	}
	var stats []models.AttemptStatistic
	if err := sqlx.SelectContext(ctx, q, &stats, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", mapError(err))
	}
	return stats, nil
}

func upsertStatistic(ctx context.Context, q sqlx.ExtContext, stat *models.AttemptStatistic) error {
	stat.UpdatedAt = time.Now().UTC()
	query := q.Rebind(`
		INSERT INTO attempt_statistics (
			vocabulary_item_id, direction, test_type, correct_count,
			total_attempts, total_correct, total_errors, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (vocabulary_item_id, direction, test_type) DO UPDATE SET
			correct_count = excluded.correct_count,
			total_attempts = excluded.total_attempts,
			total_correct = excluded.total_correct,
			total_errors = excluded.total_errors,
			updated_at = excluded.updated_at
		RETURNING id
	`)
	err := q.QueryRowxContext(ctx, query,
		stat.VocabularyItemID,
		stat.Direction,
		stat.TestType,
		stat.CorrectCount,
		stat.TotalAttempts,
		stat.TotalCorrect,
		stat.TotalErrors,
		stat.UpdatedAt,
	).Scan(&stat.ID)
	if err != nil {
		return fmt.Errorf("failed to save statistics: %w", mapError(err))
	}
	return nil
}
