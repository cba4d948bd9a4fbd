package cache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/lexitutor/pkg/models"
)

// Model translates words
type Model interface {
	Translate(ctx context.Context, word, src, dst string) (*models.TranslationResult, error)
}

// Translator answers translations from the cache and asks the model on a miss
type Translator struct {
	cache *Cache
	model Model
	ttl   time.Duration
	log   logrus.FieldLogger
}

// NewTranslator creates a cache-first translator. Results are kept for ttl, or forever when ttl is 0.
func NewTranslator(cache *Cache, model Model, ttl time.Duration, log logrus.FieldLogger) *Translator {
	return &Translator{cache: cache, model: model, ttl: ttl, log: log}
}

// Translate returns the translation of word. Model errors propagate; cache
// errors are logged and do not fail the call.
func (t *Translator) Translate(ctx context.Context, word, src, dst string) (*models.TranslationResult, error) {
	fields := logrus.Fields{"word": word, "src": src, "dst": dst}

	result, found, err := t.cache.GetTranslation(ctx, word, src, dst)
	if err != nil {
		t.log.WithFields(fields).WithError(err).Warn("translation cache read failed")
	}
	if found {
		return result, nil
	}

	result, err = t.model.Translate(ctx, word, src, dst)
	if err != nil {
		return nil, err
	}

	if err := t.cache.SetTranslation(ctx, word, src, dst, result, t.ttl); err != nil {
		t.log.WithFields(fields).WithError(err).Warn("translation cache write failed")
	}
	return result, nil
}
