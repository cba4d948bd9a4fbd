package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lexitutor/internal/logger"
	"github.com/example/lexitutor/pkg/models"
)

type fakeModel struct {
	calls  int
	result *models.TranslationResult
	err    error
}

func (m *fakeModel) Translate(context.Context, string, string, string) (*models.TranslationResult, error) {
	m.calls++
	return m.result, m.err
}

func TestTranslatorIsCacheFirst(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	model := &fakeModel{result: translation("дом", "здание")}
	tr := NewTranslator(newTestCache(store), model, 24*time.Hour, logger.Discard())

	first, err := tr.Translate(ctx, "house", "en", "ru")
	require.NoError(t, err)
	second, err := tr.Translate(ctx, "House", "en", "ru")
	require.NoError(t, err)

	assert.Equal(t, 1, model.calls)
	assert.Equal(t, first.Translations, second.Translations)

	entry := store.translations[translationKey{"house", "en", "ru"}]
	require.NotNil(t, entry.ExpiresAt)
	assert.Equal(t, testNow.Add(24*time.Hour), *entry.ExpiresAt)
}

func TestTranslatorPropagatesModelErrors(t *testing.T) {
	store := newMemStore()
	model := &fakeModel{err: errors.New("model unavailable")}
	tr := NewTranslator(newTestCache(store), model, 0, logger.Discard())

	_, err := tr.Translate(context.Background(), "house", "en", "ru")
	assert.Error(t, err)
	assert.Empty(t, store.translations)
}

func TestTranslatorToleratesCacheWriteFailure(t *testing.T) {
	store := newMemStore()
	store.failUpdates = true
	model := &fakeModel{result: translation("дом")}
	tr := NewTranslator(newTestCache(store), model, 0, logger.Discard())

	got, err := tr.Translate(context.Background(), "house", "en", "ru")
	require.NoError(t, err)
	assert.Equal(t, []string{"дом"}, got.Translations)
}
