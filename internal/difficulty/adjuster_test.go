package difficulty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lexitutor/pkg/models"
)

func itemWith(status models.Status, stats ...models.AttemptStatistic) *models.VocabularyItem {
	item := models.NewVocabularyItem(1, 1)
	item.ID = 42
	item.Status = status
	item.Statistics = stats
	return item
}

func TestDetermineTestType(t *testing.T) {
	a := NewDefault()

	tests := []struct {
		name  string
		stats []models.AttemptStatistic
		want  models.TestType
	}{
		{"no statistics", nil, models.TestTypeMultipleChoice},
		{"choice streak below threshold", []models.AttemptStatistic{
			{TestType: models.TestTypeMultipleChoice, CorrectCount: 2},
		}, models.TestTypeMultipleChoice},
		{"choice streak at threshold", []models.AttemptStatistic{
			{TestType: models.TestTypeMultipleChoice, CorrectCount: 3},
		}, models.TestTypeInput},
		{"input streak does not count", []models.AttemptStatistic{
			{TestType: models.TestTypeInput, CorrectCount: 10},
		}, models.TestTypeMultipleChoice},
		{"any direction qualifies", []models.AttemptStatistic{
			{Direction: models.DirectionNativeToForeign, TestType: models.TestTypeMultipleChoice, CorrectCount: 1},
			{Direction: models.DirectionForeignToNative, TestType: models.TestTypeMultipleChoice, CorrectCount: 4},
		}, models.TestTypeInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.DetermineTestType(itemWith(models.StatusLearning, tt.stats...)))
		})
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	a := NewDefault()

	tests := []struct {
		name    string
		from    models.Status
		stats   []models.AttemptStatistic
		want    models.Status
		changed bool
	}{
		{"new without attempts stays new", models.StatusNew, nil, models.StatusNew, false},
		{"new with an attempt becomes learning", models.StatusNew,
			[]models.AttemptStatistic{{TotalAttempts: 1, TotalErrors: 1}}, models.StatusLearning, true},
		{"new with many correct answers only advances one step", models.StatusNew,
			[]models.AttemptStatistic{{TotalAttempts: 6, TotalCorrect: 6, CorrectCount: 6}}, models.StatusLearning, true},
		{"learning below correct total stays", models.StatusLearning,
			[]models.AttemptStatistic{{TotalAttempts: 9, TotalCorrect: 4}}, models.StatusLearning, false},
		{"learning with five correct becomes reviewing", models.StatusLearning,
			[]models.AttemptStatistic{{TotalAttempts: 9, TotalCorrect: 5}}, models.StatusReviewing, true},
		{"reviewing has no forward rule", models.StatusReviewing,
			[]models.AttemptStatistic{{TotalAttempts: 50, TotalCorrect: 29, CorrectCount: 29}}, models.StatusReviewing, false},
		{"reviewing reaches mastery", models.StatusReviewing,
			[]models.AttemptStatistic{{TotalAttempts: 50, TotalCorrect: 30, CorrectCount: 30}}, models.StatusMastered, true},
		{"mastered never regresses", models.StatusMastered,
			[]models.AttemptStatistic{{TotalAttempts: 60, TotalCorrect: 30, CorrectCount: 0, TotalErrors: 30}}, models.StatusMastered, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := itemWith(tt.from, tt.stats...)
			changed := a.UpdateStatus(item)
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.want, item.Status)
		})
	}
}

func TestMasteryOverridesAnyStatus(t *testing.T) {
	a := NewDefault()
	for _, from := range []models.Status{models.StatusNew, models.StatusLearning, models.StatusReviewing} {
		t.Run(from.String(), func(t *testing.T) {
			item := itemWith(from, models.AttemptStatistic{CorrectCount: 100, TotalAttempts: 100, TotalCorrect: 100})
			a.UpdateStatus(item)
			assert.Equal(t, models.StatusMastered, item.Status)
		})
	}
}

func TestStatusChangeIsObserved(t *testing.T) {
	var events []StatusChange
	a := New(30, 3, 5, ObserverFunc(func(c StatusChange) { events = append(events, c) }))

	item := itemWith(models.StatusNew, models.AttemptStatistic{TotalAttempts: 1, TotalCorrect: 1, CorrectCount: 1})
	a.UpdateStatus(item)
	a.UpdateStatus(item)

	require.Len(t, events, 1)
	assert.Equal(t, StatusChange{VocabularyItemID: 42, From: models.StatusNew, To: models.StatusLearning}, events[0])
}
