package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/lexitutor/pkg/models"
)

// VocabularyRepository handles database operations for vocabulary items
type VocabularyRepository struct {
	db    *sqlx.DB
	words *WordRepository
}

// NewVocabularyRepository creates a new repository instance
func NewVocabularyRepository(db *sqlx.DB) *VocabularyRepository {
	return &VocabularyRepository{db: db, words: NewWordRepository(db)}
}

// GetByID returns an item with its word and statistics
func (r *VocabularyRepository) GetByID(ctx context.Context, id int64) (*models.VocabularyItem, error) {
	var item models.VocabularyItem
	if err := r.db.GetContext(ctx, &item, r.db.Rebind("SELECT * FROM vocabulary_items WHERE id = ?"), id); err != nil {
		return nil, fmt.Errorf("failed to get vocabulary item: %w", mapError(err))
	}
	items := []models.VocabularyItem{item}
	if err := r.attach(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// ListActive returns all non-MASTERED items of a profile in creation order
func (r *VocabularyRepository) ListActive(ctx context.Context, profileID int64) ([]models.VocabularyItem, error) {
	query := r.db.Rebind(`
		SELECT * FROM vocabulary_items
		WHERE profile_id = ? AND status <> ?
		ORDER BY id
	`)
	var items []models.VocabularyItem
	if err := r.db.SelectContext(ctx, &items, query, profileID, models.StatusMastered); err != nil {
		return nil, fmt.Errorf("failed to get vocabulary items: %w", mapError(err))
	}
	if err := r.attach(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Create inserts a new item; an item for the same profile and word is ErrDuplicate
func (r *VocabularyRepository) Create(ctx context.Context, item *models.VocabularyItem) error {
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	query := r.db.Rebind(`
		INSERT INTO vocabulary_items (
			profile_id, word_id, status, last_reviewed_at, next_review_at,
			review_interval, easiness_factor, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.QueryRowxContext(ctx, query,
		item.ProfileID,
		item.WordID,
		item.Status,
		item.LastReviewedAt,
		item.NextReviewAt,
		item.ReviewInterval,
		item.EasinessFactor,
		item.CreatedAt,
		item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to create vocabulary item: %w", mapError(err))
	}
	return nil
}

// Update modifies an existing item
func (r *VocabularyRepository) Update(ctx context.Context, item *models.VocabularyItem) error {
	return updateVocabularyItem(ctx, r.db, item)
}

// CountByStatus returns the number of items per status for a profile
func (r *VocabularyRepository) CountByStatus(ctx context.Context, profileID int64) (map[models.Status]int, error) {
	rows, err := r.db.QueryxContext(ctx,
		r.db.Rebind("SELECT status, COUNT(*) FROM vocabulary_items WHERE profile_id = ? GROUP BY status"),
		profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to count vocabulary items: %w", mapError(err))
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var (
			status models.Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// CountDue returns how many non-mastered items are due for review at now
func (r *VocabularyRepository) CountDue(ctx context.Context, profileID int64, now time.Time) (int, error) {
	var count int
	query := r.db.Rebind(`
		SELECT COUNT(*) FROM vocabulary_items
		WHERE profile_id = ? AND status <> ?
		AND next_review_at IS NOT NULL AND next_review_at <= ?
	`)
	if err := r.db.GetContext(ctx, &count, query, profileID, models.StatusMastered, now); err != nil {
		return 0, fmt.Errorf("failed to count due items: %w", mapError(err))
	}
	return count, nil
}

// attach loads words and statistics for the given items
func (r *VocabularyRepository) attach(ctx context.Context, items []models.VocabularyItem) error {
	if len(items) == 0 {
		return nil
	}
	itemIDs := make([]int64, len(items))
	wordIDs := make([]int64, len(items))
	index := make(map[int64]int, len(items))
	for i, it := range items {
		itemIDs[i] = it.ID
		wordIDs[i] = it.WordID
		index[it.ID] = i
	}

	query, args, err := sqlx.In("SELECT "+wordColumns+" FROM words WHERE id IN (?)", wordIDs)
	if err != nil {
		return fmt.Errorf("failed to build words query: %w", err)
	}
	var words []models.Word
	if err := r.db.SelectContext(ctx, &words, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to get words: %w", mapError(err))
	}
	if err := r.words.attachTranslations(ctx, words); err != nil {
		return err
	}
	byID := make(map[int64]*models.Word, len(words))
	for i := range words {
		byID[words[i].ID] = &words[i]
	}
	for i := range items {
		items[i].Word = byID[items[i].WordID]
	}

	stats, err := listStatistics(ctx, r.db, itemIDs)
	if err != nil {
		return err
	}
	for _, s := range stats {
		i := index[s.VocabularyItemID]
		items[i].Statistics = append(items[i].Statistics, s)
	}
	return nil
}

func updateVocabularyItem(ctx context.Context, q sqlx.ExtContext, item *models.VocabularyItem) error {
	item.UpdatedAt = time.Now().UTC()
	query := q.Rebind(`
		UPDATE vocabulary_items SET
			status = ?,
			last_reviewed_at = ?,
			next_review_at = ?,
			review_interval = ?,
			easiness_factor = ?,
			updated_at = ?
		WHERE id = ?
	`)
	result, err := q.ExecContext(ctx, query,
		item.Status,
		item.LastReviewedAt,
		item.NextReviewAt,
		item.ReviewInterval,
		item.EasinessFactor,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update vocabulary item: %w", mapError(err))
	}
	return expectAffected(result, "vocabulary item")
}
