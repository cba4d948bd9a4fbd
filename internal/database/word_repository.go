package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/lexitutor/pkg/models"
)

const wordColumns = "id, text, language, level, frequency_rank, part_of_speech, created_at"

// WordRepository handles database operations for dictionary words
type WordRepository struct {
	db *sqlx.DB
}

// NewWordRepository creates a new repository instance
func NewWordRepository(db *sqlx.DB) *WordRepository {
	return &WordRepository{db: db}
}

// GetByID returns a word with its translations
func (r *WordRepository) GetByID(ctx context.Context, id int64) (*models.Word, error) {
	var word models.Word
	query := r.db.Rebind("SELECT " + wordColumns + " FROM words WHERE id = ?")
	if err := r.db.GetContext(ctx, &word, query, id); err != nil {
		return nil, fmt.Errorf("failed to get word by ID: %w", mapError(err))
	}
	words := []models.Word{word}
	if err := r.attachTranslations(ctx, words); err != nil {
		return nil, err
	}
	return &words[0], nil
}

// FindByText looks a word up case-insensitively within a language
func (r *WordRepository) FindByText(ctx context.Context, language, text string) (*models.Word, error) {
	var word models.Word
	query := r.db.Rebind("SELECT " + wordColumns + " FROM words WHERE language = ? AND normalized = ?")
	if err := r.db.GetContext(ctx, &word, query, language, normalize(text)); err != nil {
		return nil, fmt.Errorf("failed to find word: %w", mapError(err))
	}
	words := []models.Word{word}
	if err := r.attachTranslations(ctx, words); err != nil {
		return nil, err
	}
	return &words[0], nil
}

// Create inserts a word together with its translations
func (r *WordRepository) Create(ctx context.Context, word *models.Word) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertWord(ctx, tx, word); err != nil {
		return err
	}
	for i := range word.Translations {
		word.Translations[i].WordID = word.ID
		if err := insertTranslation(ctx, tx, &word.Translations[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit word: %w", err)
	}
	return nil
}

// Upsert inserts the word or refreshes level/rank of the existing one, then
// adds any translations that are not stored yet. Returns true if the word was created.
func (r *WordRepository) Upsert(ctx context.Context, word *models.Word) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingID int64
	err = tx.GetContext(ctx, &existingID,
		tx.Rebind("SELECT id FROM words WHERE language = ? AND normalized = ?"),
		word.Language, normalize(word.Text))
	created := false
	switch mapped := mapError(err); {
	case mapped == nil:
		word.ID = existingID
		_, err = tx.ExecContext(ctx,
			tx.Rebind("UPDATE words SET level = ?, frequency_rank = ?, part_of_speech = ? WHERE id = ?"),
			word.Level, word.FrequencyRank, word.PartOfSpeech, word.ID)
		if err != nil {
			return false, fmt.Errorf("failed to update word: %w", mapError(err))
		}
	case errors.Is(mapped, models.ErrNotFound):
		if err := insertWord(ctx, tx, word); err != nil {
			return false, err
		}
		created = true
	default:
		return false, fmt.Errorf("failed to look up word: %w", mapped)
	}

	for i := range word.Translations {
		t := &word.Translations[i]
		t.WordID = word.ID
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO translations (word_id, language, text, position, example)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (word_id, language, text) DO NOTHING
		`), t.WordID, t.Language, t.Text, t.Position, t.Example)
		if err != nil {
			return false, fmt.Errorf("failed to store translation: %w", mapError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit word: %w", err)
	}
	return created, nil
}

// ListFrequencyRanked returns the most frequent words of a language, optionally
// restricted to a level. Words already owned by excludeProfileID are skipped when it is non-zero.
func (r *WordRepository) ListFrequencyRanked(ctx context.Context, language string, level *models.Level, excludeProfileID int64, limit int) ([]models.Word, error) {
	var (
		conds = []string{"w.language = ?"}
		args  = []interface{}{language}
	)
	if level != nil {
		conds = append(conds, "w.level = ?")
		args = append(args, *level)
	}
	if excludeProfileID != 0 {
		conds = append(conds, "NOT EXISTS (SELECT 1 FROM vocabulary_items v WHERE v.word_id = w.id AND v.profile_id = ?)")
		args = append(args, excludeProfileID)
	}
	args = append(args, limit)

	query := r.db.Rebind(`
		SELECT w.id, w.text, w.language, w.level, w.frequency_rank, w.part_of_speech, w.created_at
		FROM words w
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY CASE WHEN w.frequency_rank IS NULL THEN 1 ELSE 0 END, w.frequency_rank, w.id
		LIMIT ?
	`)

	var words []models.Word
	if err := r.db.SelectContext(ctx, &words, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get frequency ranked words: %w", mapError(err))
	}
	if err := r.attachTranslations(ctx, words); err != nil {
		return nil, err
	}
	return words, nil
}

// attachTranslations loads translations for the given words in one query
func (r *WordRepository) attachTranslations(ctx context.Context, words []models.Word) error {
	if len(words) == 0 {
		return nil
	}
	ids := make([]int64, len(words))
	index := make(map[int64]int, len(words))
	for i, w := range words {
		ids[i] = w.ID
		index[w.ID] = i
	}

	query, args, err := sqlx.In("SELECT * FROM translations WHERE word_id IN (?) ORDER BY word_id, position, id", ids)
	if err != nil {
		return fmt.Errorf("failed to build translations query: %w", err)
	}
	var translations []models.Translation
	if err := r.db.SelectContext(ctx, &translations, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to get translations: %w", mapError(err))
	}
	for _, t := range translations {
		i := index[t.WordID]
		words[i].Translations = append(words[i].Translations, t)
	}
	return nil
}

func insertWord(ctx context.Context, q sqlx.ExtContext, word *models.Word) error {
	word.Text = strings.TrimSpace(word.Text)
	if word.CreatedAt.IsZero() {
		word.CreatedAt = time.Now().UTC()
	}
	query := q.Rebind(`
		INSERT INTO words (text, normalized, language, level, frequency_rank, part_of_speech, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := q.QueryRowxContext(ctx, query,
		word.Text,
		normalize(word.Text),
		word.Language,
		word.Level,
		word.FrequencyRank,
		word.PartOfSpeech,
		word.CreatedAt,
	).Scan(&word.ID)
	if err != nil {
		return fmt.Errorf("failed to create word: %w", mapError(err))
	}
	return nil
}

func insertTranslation(ctx context.Context, q sqlx.ExtContext, t *models.Translation) error {
	query := q.Rebind(`
		INSERT INTO translations (word_id, language, text, position, example)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := q.QueryRowxContext(ctx, query, t.WordID, t.Language, t.Text, t.Position, t.Example).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to create translation: %w", mapError(err))
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
