package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/lexitutor/pkg/models"
)

// CacheRepository stores model translation and validation results
type CacheRepository struct {
	db *sqlx.DB
}

// NewCacheRepository creates a new repository instance
func NewCacheRepository(db *sqlx.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// GetTranslation returns the entry for a key that has not expired at now
func (r *CacheRepository) GetTranslation(ctx context.Context, word, src, dst string, now time.Time) (*models.TranslationCacheEntry, error) {
	var e models.TranslationCacheEntry
	query := r.db.Rebind(`
		SELECT * FROM translation_cache
		WHERE word = ? AND source_language = ? AND target_language = ?
		AND (expires_at IS NULL OR expires_at > ?)
	`)
	if err := r.db.GetContext(ctx, &e, query, word, src, dst, now); err != nil {
		return nil, fmt.Errorf("failed to get cached translation: %w", mapError(err))
	}
	return &e, nil
}

// findTranslation returns the row for a key regardless of expiry
func (r *CacheRepository) findTranslation(ctx context.Context, e *models.TranslationCacheEntry) (int64, error) {
	var id int64
	query := r.db.Rebind("SELECT id FROM translation_cache WHERE word = ? AND source_language = ? AND target_language = ?")
	if err := r.db.GetContext(ctx, &id, query, e.Word, e.SourceLanguage, e.TargetLanguage); err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

// InsertTranslation adds a new entry; an existing key is ErrDuplicate
func (r *CacheRepository) InsertTranslation(ctx context.Context, e *models.TranslationCacheEntry) error {
	query := r.db.Rebind(`
		INSERT INTO translation_cache (
			word, source_language, target_language, translation_data, expires_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.QueryRowxContext(ctx, query,
		e.Word, e.SourceLanguage, e.TargetLanguage, e.TranslationData, e.ExpiresAt, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to insert cached translation: %w", mapError(err))
	}
	return nil
}

// UpdateTranslation overwrites the payload of the entry with the same key
func (r *CacheRepository) UpdateTranslation(ctx context.Context, e *models.TranslationCacheEntry) error {
	id, err := r.findTranslation(ctx, e)
	if err != nil {
		return fmt.Errorf("failed to find cached translation: %w", err)
	}
	e.ID = id
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE translation_cache SET translation_data = ?, expires_at = ?, updated_at = ?
		WHERE id = ?
	`), e.TranslationData, e.ExpiresAt, e.UpdatedAt, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update cached translation: %w", mapError(err))
	}
	return expectAffected(result, "cached translation")
}

// UpsertTranslation writes the entry atomically with INSERT ... ON CONFLICT
func (r *CacheRepository) UpsertTranslation(ctx context.Context, e *models.TranslationCacheEntry) error {
	query := r.db.Rebind(`
		INSERT INTO translation_cache (
			word, source_language, target_language, translation_data, expires_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (word, source_language, target_language) DO UPDATE SET
			translation_data = excluded.translation_data,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
		RETURNING id
	`)
	err := r.db.QueryRowxContext(ctx, query,
		e.Word, e.SourceLanguage, e.TargetLanguage, e.TranslationData, e.ExpiresAt, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert cached translation: %w", mapError(err))
	}
	return nil
}

// DeleteExpiredTranslations removes entries whose expiry passed before now
func (r *CacheRepository) DeleteExpiredTranslations(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		r.db.Rebind("DELETE FROM translation_cache WHERE expires_at IS NOT NULL AND expires_at <= ?"), now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired translations: %w", mapError(err))
	}
	return result.RowsAffected()
}

// GetValidation returns the cached verdict for a key
func (r *CacheRepository) GetValidation(ctx context.Context, wordID int64, direction models.Direction, expected, answer string) (*models.ValidationCacheEntry, error) {
	var e models.ValidationCacheEntry
	query := r.db.Rebind(`
		SELECT * FROM validation_cache
		WHERE word_id = ? AND direction = ? AND expected = ? AND user_answer = ?
	`)
	if err := r.db.GetContext(ctx, &e, query, wordID, direction, expected, answer); err != nil {
		return nil, fmt.Errorf("failed to get cached validation: %w", mapError(err))
	}
	return &e, nil
}

// InsertValidation adds a new verdict; an existing key is ErrDuplicate
func (r *CacheRepository) InsertValidation(ctx context.Context, e *models.ValidationCacheEntry) error {
	query := r.db.Rebind(`
		INSERT INTO validation_cache (
			word_id, direction, expected, user_answer, is_correct, comment, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.QueryRowxContext(ctx, query,
		e.WordID, e.Direction, e.Expected, e.UserAnswer, e.IsCorrect, e.Comment, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to insert cached validation: %w", mapError(err))
	}
	return nil
}

// UpdateValidation overwrites the verdict of the entry with the same key
func (r *CacheRepository) UpdateValidation(ctx context.Context, e *models.ValidationCacheEntry) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE validation_cache SET is_correct = ?, comment = ?, updated_at = ?
		WHERE word_id = ? AND direction = ? AND expected = ? AND user_answer = ?
	`), e.IsCorrect, e.Comment, e.UpdatedAt, e.WordID, e.Direction, e.Expected, e.UserAnswer)
	if err != nil {
		return fmt.Errorf("failed to update cached validation: %w", mapError(err))
	}
	return expectAffected(result, "cached validation")
}

// UpsertValidation writes the verdict atomically with INSERT ... ON CONFLICT
func (r *CacheRepository) UpsertValidation(ctx context.Context, e *models.ValidationCacheEntry) error {
	query := r.db.Rebind(`
		INSERT INTO validation_cache (
			word_id, direction, expected, user_answer, is_correct, comment, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (word_id, direction, expected, user_answer) DO UPDATE SET
			is_correct = excluded.is_correct,
			comment = excluded.comment,
			updated_at = excluded.updated_at
		RETURNING id
	`)
	err := r.db.QueryRowxContext(ctx, query,
		e.WordID, e.Direction, e.Expected, e.UserAnswer, e.IsCorrect, e.Comment, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert cached validation: %w", mapError(err))
	}
	return nil
}
