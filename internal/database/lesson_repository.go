package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/lexitutor/pkg/models"
)

// LessonRepository handles database operations for lessons and their attempts
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository creates a new repository instance
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// GetByID returns a lesson by ID
func (r *LessonRepository) GetByID(ctx context.Context, id int64) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, r.db.Rebind("SELECT * FROM lessons WHERE id = ?"), id); err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", mapError(err))
	}
	return &lesson, nil
}

// GetActive returns the uncompleted lesson of a profile
func (r *LessonRepository) GetActive(ctx context.Context, profileID int64) (*models.Lesson, error) {
	var lesson models.Lesson
	query := r.db.Rebind("SELECT * FROM lessons WHERE profile_id = ? AND completed_at IS NULL")
	if err := r.db.GetContext(ctx, &lesson, query, profileID); err != nil {
		return nil, fmt.Errorf("failed to get active lesson: %w", mapError(err))
	}
	return &lesson, nil
}

// Create inserts a new lesson. A second active lesson for the profile is ErrDuplicate.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	query := r.db.Rebind(`
		INSERT INTO lessons (profile_id, words_count, correct_answers, incorrect_answers, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.QueryRowxContext(ctx, query,
		lesson.ProfileID,
		lesson.WordsCount,
		lesson.CorrectAnswers,
		lesson.IncorrectAnswers,
		lesson.StartedAt,
		lesson.CompletedAt,
	).Scan(&lesson.ID)
	if err != nil {
		return fmt.Errorf("failed to create lesson: %w", mapError(err))
	}
	return nil
}

// Complete stamps completed_at on an active lesson
func (r *LessonRepository) Complete(ctx context.Context, id int64, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		r.db.Rebind("UPDATE lessons SET completed_at = ? WHERE id = ? AND completed_at IS NULL"),
		at, id)
	if err != nil {
		return fmt.Errorf("failed to complete lesson: %w", mapError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return models.ErrLessonCompleted
	}
	return nil
}

// ListAttempts returns the attempts of a lesson in answer order
func (r *LessonRepository) ListAttempts(ctx context.Context, lessonID int64) ([]models.LessonAttempt, error) {
	var attempts []models.LessonAttempt
	query := r.db.Rebind("SELECT * FROM lesson_attempts WHERE lesson_id = ? ORDER BY id")
	if err := r.db.SelectContext(ctx, &attempts, query, lessonID); err != nil {
		return nil, fmt.Errorf("failed to get lesson attempts: %w", mapError(err))
	}
	return attempts, nil
}

func insertAttempt(ctx context.Context, q sqlx.ExtContext, a *models.LessonAttempt) error {
	query := q.Rebind(`
		INSERT INTO lesson_attempts (
			lesson_id, vocabulary_item_id, direction, test_type, user_answer,
			correct_answer, is_correct, validation_method, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := q.QueryRowxContext(ctx, query,
		a.LessonID,
		a.VocabularyItemID,
		a.Direction,
		a.TestType,
		a.UserAnswer,
		a.CorrectAnswer,
		a.IsCorrect,
		a.ValidationMethod,
		a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create lesson attempt: %w", mapError(err))
	}
	return nil
}
