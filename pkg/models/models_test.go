package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumRoundTrip(t *testing.T) {
	for _, s := range []Status{StatusNew, StatusLearning, StatusReviewing, StatusMastered} {
		v, err := s.Value()
		require.NoError(t, err)
		var back Status
		require.NoError(t, back.Scan(v))
		assert.Equal(t, s, back)
	}
	for _, d := range Directions {
		var back Direction
		require.NoError(t, back.Scan([]byte(d.String())))
		assert.Equal(t, d, back)
	}

	level, err := ParseLevel(" b2 ")
	require.NoError(t, err)
	assert.Equal(t, LevelB2, level)

	method, err := ParseValidationMethod("MODEL")
	require.NoError(t, err)
	assert.Equal(t, ValidationModel, method)
}

func TestEnumRejectsUnknownValues(t *testing.T) {
	_, err := Status(0).Value()
	assert.Error(t, err)
	_, err = TestType(9).Value()
	assert.Error(t, err)

	var s Status
	assert.Error(t, s.Scan("archived"))
	assert.Error(t, s.Scan(nil))
	assert.Error(t, s.Scan(42))

	_, err = ParseLevel("D1")
	assert.Error(t, err)
	assert.Equal(t, "status(0)", Status(0).String())
}

func TestWordVariants(t *testing.T) {
	w := &Word{Text: "apple", Language: "en", Translations: []Translation{
		{Language: "ru", Text: "яблоко"},
		{Language: "en", Text: "Apple"},
		{Language: "ru", Text: "Яблоко"},
		{Language: "ru", Text: "яблоня"},
	}}

	assert.Equal(t, []string{"яблоко", "яблоня"}, w.Variants("ru"))
	assert.Equal(t, []string{"apple"}, w.Variants("EN"))
	assert.Empty(t, w.Variants("de"))
}

func TestStatisticRecord(t *testing.T) {
	var s AttemptStatistic
	s.Record(true)
	s.Record(true)
	assert.Equal(t, 2, s.CorrectCount)

	s.Record(false)
	assert.Equal(t, 0, s.CorrectCount)
	assert.Equal(t, 3, s.TotalAttempts)
	assert.Equal(t, 2, s.TotalCorrect)
	assert.Equal(t, 1, s.TotalErrors)
}

func TestVocabularyItemHelpers(t *testing.T) {
	item := NewVocabularyItem(1, 2)
	assert.Equal(t, StatusNew, item.Status)
	assert.Equal(t, DefaultEasinessFactor, item.EasinessFactor)
	assert.Zero(t, item.ErrorRate())
	assert.Nil(t, item.StatisticFor(DirectionNativeToForeign, TestTypeInput))

	item.Statistics = []AttemptStatistic{
		{Direction: DirectionNativeToForeign, TestType: TestTypeInput, TotalAttempts: 3, TotalErrors: 1},
		{Direction: DirectionForeignToNative, TestType: TestTypeInput, TotalAttempts: 1, TotalErrors: 1},
	}
	assert.InDelta(t, 0.5, item.ErrorRate(), 1e-9)
	stat := item.StatisticFor(DirectionForeignToNative, TestTypeInput)
	require.NotNil(t, stat)
	stat.Record(true)
	assert.Equal(t, 2, item.Statistics[1].TotalAttempts)
}

func TestTranslationCacheEntryExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	e := &TranslationCacheEntry{}
	assert.False(t, e.IsExpired(now))

	at := now
	e.ExpiresAt = &at
	assert.True(t, e.IsExpired(now))
	assert.False(t, e.IsExpired(now.Add(-time.Second)))
}

func TestLessonIsActive(t *testing.T) {
	l := &Lesson{}
	assert.True(t, l.IsActive())
	now := time.Now()
	l.CompletedAt = &now
	assert.False(t, l.IsActive())
}
