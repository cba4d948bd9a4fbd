// Package cache keeps language model results so repeated questions do not
// cost another model request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/lexitutor/pkg/models"
)

// Store is the persistence needed by the cache
type Store interface {
	GetTranslation(ctx context.Context, word, src, dst string, now time.Time) (*models.TranslationCacheEntry, error)
	InsertTranslation(ctx context.Context, e *models.TranslationCacheEntry) error
	UpdateTranslation(ctx context.Context, e *models.TranslationCacheEntry) error
	DeleteExpiredTranslations(ctx context.Context, now time.Time) (int64, error)

	GetValidation(ctx context.Context, wordID int64, direction models.Direction, expected, answer string) (*models.ValidationCacheEntry, error)
	InsertValidation(ctx context.Context, e *models.ValidationCacheEntry) error
	UpdateValidation(ctx context.Context, e *models.ValidationCacheEntry) error
}

// Upserter is implemented by stores with an atomic insert-or-update
type Upserter interface {
	UpsertTranslation(ctx context.Context, e *models.TranslationCacheEntry) error
	UpsertValidation(ctx context.Context, e *models.ValidationCacheEntry) error
}

// Cache is the translation and validation cache
type Cache struct {
	store    Store
	upserter Upserter
	clock    func() time.Time
	log      logrus.FieldLogger
}

// New creates a cache over store. When the store is also an Upserter its
// atomic upsert is used for writes.
func New(store Store, log logrus.FieldLogger) *Cache {
	c := &Cache{store: store, clock: time.Now, log: log}
	if u, ok := store.(Upserter); ok {
		c.upserter = u
	}
	return c
}

// WithClock replaces the time source, for tests
func (c *Cache) WithClock(clock func() time.Time) *Cache {
	c.clock = clock
	return c
}

// GetTranslation returns a cached, unexpired translation. found is false on a miss.
func (c *Cache) GetTranslation(ctx context.Context, word, src, dst string) (result *models.TranslationResult, found bool, err error) {
	entry, err := c.store.GetTranslation(ctx, key(word), src, dst, c.clock().UTC())
	if errors.Is(err, models.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var r models.TranslationResult
	if err := json.Unmarshal([]byte(entry.TranslationData), &r); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached translation: %w", err)
	}
	return &r, true, nil
}

// SetTranslation stores a translation; ttl <= 0 means the entry never expires
func (c *Cache) SetTranslation(ctx context.Context, word, src, dst string, result *models.TranslationResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode translation: %w", err)
	}
	now := c.clock().UTC()
	entry := &models.TranslationCacheEntry{
		Word:            key(word),
		SourceLanguage:  src,
		TargetLanguage:  dst,
		TranslationData: string(data),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if ttl > 0 {
		expires := now.Add(ttl)
		entry.ExpiresAt = &expires
	}

	if c.upserter != nil {
		return c.upserter.UpsertTranslation(ctx, entry)
	}
	return writeWithRetry(
		func() error { return c.store.UpdateTranslation(ctx, entry) },
		func() error { return c.store.InsertTranslation(ctx, entry) },
	)
}

// GetValidation returns a cached verdict. found is false on a miss.
func (c *Cache) GetValidation(ctx context.Context, wordID int64, direction models.Direction, expected, answer string) (result *models.ValidationResult, found bool, err error) {
	entry, err := c.store.GetValidation(ctx, wordID, direction, key(expected), key(answer))
	if errors.Is(err, models.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &models.ValidationResult{IsCorrect: entry.IsCorrect, Comment: entry.Comment}, true, nil
}

// SetValidation stores a verdict; verdicts never expire
func (c *Cache) SetValidation(ctx context.Context, wordID int64, direction models.Direction, expected, answer string, result *models.ValidationResult) error {
	now := c.clock().UTC()
	entry := &models.ValidationCacheEntry{
		WordID:     wordID,
		Direction:  direction,
		Expected:   key(expected),
		UserAnswer: key(answer),
		IsCorrect:  result.IsCorrect,
		Comment:    result.Comment,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if c.upserter != nil {
		return c.upserter.UpsertValidation(ctx, entry)
	}
	return writeWithRetry(
		func() error { return c.store.UpdateValidation(ctx, entry) },
		func() error { return c.store.InsertValidation(ctx, entry) },
	)
}

// PurgeExpired deletes translations whose expiry has passed
func (c *Cache) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := c.store.DeleteExpiredTranslations(ctx, c.clock().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		c.log.WithField("deleted", n).Info("purged expired translations")
	}
	return n, nil
}

// writeWithRetry updates the existing row or inserts a new one. If the insert
// loses a race with a concurrent writer, the now existing row is updated once.
func writeWithRetry(update, insert func() error) error {
	err := update()
	if err == nil || !errors.Is(err, models.ErrNotFound) {
		return err
	}

	err = insert()
	if err == nil || !errors.Is(err, models.ErrDuplicate) {
		return err
	}

	if err := update(); err != nil {
		return fmt.Errorf("failed to write cache entry after insert conflict: %w", err)
	}
	return nil
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
