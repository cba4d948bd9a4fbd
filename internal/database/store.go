package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/lexitutor/pkg/models"
)

// Store groups the repositories over one connection
type Store struct {
	db *sqlx.DB

	Profiles   *ProfileRepository
	Words      *WordRepository
	Vocabulary *VocabularyRepository
	Statistics *StatisticsRepository
	Lessons    *LessonRepository
	Cache      *CacheRepository
}

// NewStore creates all repositories for db
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:         db,
		Profiles:   NewProfileRepository(db),
		Words:      NewWordRepository(db),
		Vocabulary: NewVocabularyRepository(db),
		Statistics: NewStatisticsRepository(db),
		Lessons:    NewLessonRepository(db),
		Cache:      NewCacheRepository(db),
	}
}

// AnswerRecord is everything written for one answered question
type AnswerRecord struct {
	Attempt   *models.LessonAttempt
	Statistic *models.AttemptStatistic
	Item      *models.VocabularyItem
}

// SaveAnswer appends the attempt, stores the statistic, bumps the lesson
// counters and updates the vocabulary item in a single transaction. The
// lesson's counters are refreshed from the database on success.
func (s *Store) SaveAnswer(ctx context.Context, lesson *models.Lesson, rec AnswerRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertAttempt(ctx, tx, rec.Attempt); err != nil {
		return err
	}
	if err := upsertStatistic(ctx, tx, rec.Statistic); err != nil {
		return err
	}

	correct, incorrect := 0, 1
	if rec.Attempt.IsCorrect {
		correct, incorrect = 1, 0
	}
	var counters struct {
		Correct   int `db:"correct_answers"`
		Incorrect int `db:"incorrect_answers"`
	}
	err = tx.QueryRowxContext(ctx, tx.Rebind(`
		UPDATE lessons SET
			correct_answers = correct_answers + ?,
			incorrect_answers = incorrect_answers + ?
		WHERE id = ? AND completed_at IS NULL
		RETURNING correct_answers, incorrect_answers
	`), correct, incorrect, lesson.ID).StructScan(&counters)
	if err != nil {
		if errors.Is(mapError(err), models.ErrNotFound) {
			return models.ErrLessonCompleted
		}
		return fmt.Errorf("failed to update lesson counters: %w", mapError(err))
	}

	if err := updateVocabularyItem(ctx, tx, rec.Item); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit answer: %w", err)
	}
	lesson.CorrectAnswers = counters.Correct
	lesson.IncorrectAnswers = counters.Incorrect
	return nil
}
