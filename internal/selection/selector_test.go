package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lexitutor/internal/difficulty"
	"github.com/example/lexitutor/pkg/models"
)

var now = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func newTestSelector() *Selector {
	return New(difficulty.NewDefault(), func() time.Time { return now })
}

func daysAgo(d int) *time.Time {
	t := now.Add(-time.Duration(d) * 24 * time.Hour)
	return &t
}

func item(id int64, status models.Status) models.VocabularyItem {
	v := models.NewVocabularyItem(1, id)
	v.ID = id
	v.Status = status
	return *v
}

// inputReady gives the item a multiple-choice streak long enough for free-text questions
func inputReady(v models.VocabularyItem) models.VocabularyItem {
	v.Statistics = append(v.Statistics, models.AttemptStatistic{
		Direction:     models.DirectionForeignToNative,
		TestType:      models.TestTypeMultipleChoice,
		CorrectCount:  difficulty.DefaultChoiceToInputThreshold,
		TotalAttempts: difficulty.DefaultChoiceToInputThreshold,
		TotalCorrect:  difficulty.DefaultChoiceToInputThreshold,
	})
	return v
}

func ids(items []models.VocabularyItem) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestScore(t *testing.T) {
	t.Run("new and never reviewed", func(t *testing.T) {
		v := item(1, models.StatusNew)
		assert.InDelta(t, 22.0, Score(&v, now), 1e-9)
	})

	t.Run("overdue learning item with errors", func(t *testing.T) {
		v := item(1, models.StatusLearning)
		v.NextReviewAt = daysAgo(3)
		v.LastReviewedAt = daysAgo(4)
		v.Statistics = []models.AttemptStatistic{{TotalAttempts: 4, TotalErrors: 2, TotalCorrect: 2}}
		// 10*3 + 5*0.5 + 4 + 3
		assert.InDelta(t, 39.5, Score(&v, now), 1e-9)
	})

	t.Run("future review is not overdue", func(t *testing.T) {
		v := item(1, models.StatusReviewing)
		next := now.Add(48 * time.Hour)
		v.NextReviewAt = &next
		v.LastReviewedAt = daysAgo(20)
		assert.InDelta(t, 8.0, Score(&v, now), 1e-9)
	})

	t.Run("partial day does not count", func(t *testing.T) {
		v := item(1, models.StatusMastered)
		next := now.Add(-20 * time.Hour)
		v.NextReviewAt = &next
		v.LastReviewedAt = &next
		assert.InDelta(t, 0.0, Score(&v, now), 1e-9)
	})
}

func TestScoreIsMonotonic(t *testing.T) {
	prev := -1.0
	for d := 0; d <= 30; d++ {
		v := item(1, models.StatusReviewing)
		v.NextReviewAt = daysAgo(d)
		v.LastReviewedAt = daysAgo(40)
		s := Score(&v, now)
		assert.GreaterOrEqual(t, s, prev, "days overdue %d", d)
		prev = s
	}

	prev = -1.0
	for errs := 0; errs <= 10; errs++ {
		v := item(1, models.StatusLearning)
		v.Statistics = []models.AttemptStatistic{{TotalAttempts: 10, TotalErrors: errs, TotalCorrect: 10 - errs}}
		s := Score(&v, now)
		assert.GreaterOrEqual(t, s, prev, "errors %d", errs)
		prev = s
	}
}

func TestSelectForLessonOrdersByScore(t *testing.T) {
	sel := newTestSelector()

	reviewing := item(1, models.StatusReviewing)
	reviewing.LastReviewedAt = daysAgo(1)
	overdue := item(2, models.StatusLearning)
	overdue.NextReviewAt = daysAgo(5)
	overdue.LastReviewedAt = daysAgo(6)
	fresh := item(3, models.StatusNew)

	got := sel.SelectForLesson([]models.VocabularyItem{reviewing, overdue, fresh}, 3, 0)
	assert.Equal(t, []int64{2, 3, 1}, ids(got))
}

func TestSelectForLessonKeepsInputOrderOnTies(t *testing.T) {
	sel := newTestSelector()
	candidates := []models.VocabularyItem{
		item(5, models.StatusNew),
		item(3, models.StatusNew),
		item(9, models.StatusNew),
	}
	got := sel.SelectForLesson(candidates, 3, 0.3)
	assert.Equal(t, []int64{5, 3, 9}, ids(got))
}

func TestSelectForLessonInputRatio(t *testing.T) {
	sel := newTestSelector()
	candidates := []models.VocabularyItem{
		inputReady(item(1, models.StatusLearning)),
		inputReady(item(2, models.StatusLearning)),
		inputReady(item(3, models.StatusLearning)),
		item(4, models.StatusLearning),
		item(5, models.StatusLearning),
		item(6, models.StatusLearning),
	}

	got := sel.SelectForLesson(candidates, 4, 0.5)
	assert.Equal(t, []int64{1, 2, 4, 5}, ids(got))

	got = sel.SelectForLesson(candidates, 4, 0)
	assert.Equal(t, []int64{4, 5, 6, 1}, ids(got), "leftover input-ready words cover the shortfall")
}

func TestSelectForLessonInputSlotsCappedByAvailability(t *testing.T) {
	sel := newTestSelector()
	candidates := []models.VocabularyItem{
		item(1, models.StatusLearning),
		inputReady(item(2, models.StatusLearning)),
		item(3, models.StatusLearning),
	}
	got := sel.SelectForLesson(candidates, 3, 1)
	assert.Equal(t, []int64{2, 1, 3}, ids(got))
}

func TestSelectForLessonNeverPads(t *testing.T) {
	sel := newTestSelector()
	candidates := []models.VocabularyItem{item(1, models.StatusNew), item(2, models.StatusNew)}

	got := sel.SelectForLesson(candidates, 10, 0.3)
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []int64{1, 2}, ids(got))

	assert.Empty(t, sel.SelectForLesson(nil, 5, 0.3))
	assert.Empty(t, sel.SelectForLesson(candidates, 0, 0.3))
}
