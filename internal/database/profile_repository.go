package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/lexitutor/pkg/models"
)

// ProfileRepository handles database operations for learner profiles
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new repository instance
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByID returns a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id int64) (*models.LearnerProfile, error) {
	var p models.LearnerProfile
	err := r.db.GetContext(ctx, &p, r.db.Rebind("SELECT * FROM profiles WHERE id = ?"), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", mapError(err))
	}
	return &p, nil
}

// GetByUserID returns the profile of a chat user
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.LearnerProfile, error) {
	var p models.LearnerProfile
	err := r.db.GetContext(ctx, &p, r.db.Rebind("SELECT * FROM profiles WHERE user_id = ?"), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by user: %w", mapError(err))
	}
	return &p, nil
}

// Create inserts a new profile
func (r *ProfileRepository) Create(ctx context.Context, p *models.LearnerProfile) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	query := r.db.Rebind(`
		INSERT INTO profiles (
			user_id, native_language, target_language, level,
			words_per_lesson, reminders_enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.QueryRowxContext(ctx, query,
		p.UserID,
		p.NativeLanguage,
		p.TargetLanguage,
		p.Level,
		p.WordsPerLesson,
		p.RemindersEnabled,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", mapError(err))
	}
	return nil
}

// Update modifies an existing profile
func (r *ProfileRepository) Update(ctx context.Context, p *models.LearnerProfile) error {
	p.UpdatedAt = time.Now().UTC()
	query := r.db.Rebind(`
		UPDATE profiles SET
			native_language = ?,
			target_language = ?,
			level = ?,
			words_per_lesson = ?,
			reminders_enabled = ?,
			updated_at = ?
		WHERE id = ?
	`)
	result, err := r.db.ExecContext(ctx, query,
		p.NativeLanguage,
		p.TargetLanguage,
		p.Level,
		p.WordsPerLesson,
		p.RemindersEnabled,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", mapError(err))
	}
	return expectAffected(result, "profile")
}

// ListWithDueReviews returns profiles with reminders enabled that have items due at now
func (r *ProfileRepository) ListWithDueReviews(ctx context.Context, now time.Time) ([]DueProfile, error) {
	query := r.db.Rebind(`
		SELECT p.id AS profile_id, p.user_id AS user_id, COUNT(v.id) AS due_count
		FROM profiles p
		JOIN vocabulary_items v ON v.profile_id = p.id
		WHERE p.reminders_enabled = ?
		AND v.status <> ?
		AND v.next_review_at IS NOT NULL
		AND v.next_review_at <= ?
		GROUP BY p.id, p.user_id
		ORDER BY p.id
	`)
	var due []DueProfile
	if err := r.db.SelectContext(ctx, &due, query, true, models.StatusMastered, now); err != nil {
		return nil, fmt.Errorf("failed to get profiles with due reviews: %w", mapError(err))
	}
	return due, nil
}

// DueProfile is a profile with a number of items waiting for review
type DueProfile struct {
	ProfileID int64 `db:"profile_id"`
	UserID    int64 `db:"user_id"`
	DueCount  int   `db:"due_count"`
}
