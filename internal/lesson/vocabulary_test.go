package lesson

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lexitutor/pkg/models"
)

func TestEnsureProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, created, err := f.orch.EnsureProfile(ctx, 42)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(42), p.UserID)
	assert.Equal(t, "ru", p.NativeLanguage)
	assert.Equal(t, "en", p.TargetLanguage)
	assert.Equal(t, 10, p.WordsPerLesson)

	again, created, err := f.orch.EnsureProfile(ctx, 42)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, p.ID, again.ID)
}

func TestAddWordFromDictionary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	house := f.seedDictionary()
	profile := f.db.addProfile("ru", "en")

	item, err := f.orch.AddWord(ctx, profile.ID, "  House ")
	require.NoError(t, err)
	assert.Equal(t, house.ID, item.WordID)
	assert.Equal(t, models.StatusNew, item.Status)
	assert.InDelta(t, models.DefaultEasinessFactor, item.EasinessFactor, 1e-9)
	assert.Zero(t, f.translator.calls)

	_, err = f.orch.AddWord(ctx, profile.ID, "house")
	assert.ErrorIs(t, err, models.ErrDuplicate)
}

func TestAddWordTranslatesUnknownWords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	profile := f.db.addProfile("ru", "en")
	f.translator.result = &models.TranslationResult{
		Translations: []string{"яблоко"},
		Examples:     []models.Example{{Source: "an apple a day", Target: "яблоко в день"}},
	}

	item, err := f.orch.AddWord(ctx, profile.ID, "apple")
	require.NoError(t, err)
	assert.Equal(t, 1, f.translator.calls)
	require.NotNil(t, item.Word)
	assert.Equal(t, []string{"яблоко"}, item.Word.Variants("ru"))

	stored := f.db.words[item.WordID]
	require.NotNil(t, stored)
	assert.Equal(t, "apple", stored.Text)
	assert.Equal(t, "en", stored.Language)
	require.Len(t, stored.Translations, 1)
	assert.Equal(t, "an apple a day", stored.Translations[0].Example)
}

func TestAddWordTranslationFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	profile := f.db.addProfile("ru", "en")
	f.translator.err = errors.New("model unavailable")

	_, err := f.orch.AddWord(ctx, profile.ID, "apple")
	assert.Error(t, err)
	assert.Empty(t, f.db.words)
	assert.Empty(t, f.db.items)
}

func TestAddWordInputErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	profile := f.db.addProfile("ru", "en")

	_, err := f.orch.AddWord(ctx, profile.ID, "  ")
	assert.ErrorIs(t, err, models.ErrEmptyWord)
	_, err = f.orch.AddWord(ctx, profile.ID, strings.Repeat("x", maxWordLength+1))
	assert.ErrorIs(t, err, models.ErrWordTooLong)
	assert.Zero(t, f.translator.calls)
}

func TestProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedDictionary()
	profile := f.db.addProfile("ru", "en")

	var ids []int64
	for _, w := range f.db.words {
		ids = append(ids, f.db.addItem(profile.ID, w.ID).ID)
	}
	require.Len(t, ids, 4)

	overdue := start.Add(-time.Hour)
	later := start.Add(time.Hour)
	f.db.items[ids[0]].Status = models.StatusLearning
	f.db.items[ids[0]].NextReviewAt = &overdue
	f.db.items[ids[1]].Status = models.StatusLearning
	f.db.items[ids[1]].NextReviewAt = &later
	f.db.items[ids[2]].Status = models.StatusMastered
	f.db.items[ids[2]].NextReviewAt = &overdue

	p, err := f.orch.Progress(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Total)
	assert.Equal(t, 1, p.Due)
	assert.Equal(t, 2, p.ByStatus[models.StatusLearning])
	assert.Equal(t, 1, p.ByStatus[models.StatusMastered])
	assert.Equal(t, 1, p.ByStatus[models.StatusNew])
}
