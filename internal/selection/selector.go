// Package selection ranks a learner's vocabulary and builds the word set for a lesson.
package selection

import (
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/example/lexitutor/pkg/models"
)

// Score weights
const (
	overdueWeight   = 10.0
	errorRateWeight = 5.0
	newBonus        = 15.0
	maxRecencyBonus = 7.0
	learningBonus   = 3.0
	reviewingBonus  = 1.0
)

// InputReadiness tells whether an item already gets free-text questions
type InputReadiness interface {
	IsInputReady(item *models.VocabularyItem) bool
}

// Selector picks lesson words by priority
type Selector struct {
	readiness InputReadiness
	clock     func() time.Time
}

// New creates a selector; clock defaults to time.Now when nil
func New(readiness InputReadiness, clock func() time.Time) *Selector {
	if clock == nil {
		clock = time.Now
	}
	return &Selector{readiness: readiness, clock: clock}
}

type scored struct {
	item  models.VocabularyItem
	score float64
}

// SelectForLesson returns at most targetCount candidates. Up to
// floor(targetCount*inputRatio) slots go to input-ready words, the rest to
// multiple-choice words, and any shortfall is covered by leftover input-ready words.
func (s *Selector) SelectForLesson(candidates []models.VocabularyItem, targetCount int, inputRatio float64) []models.VocabularyItem {
	if targetCount <= 0 || len(candidates) == 0 {
		return nil
	}
	now := s.clock()

	ranked := lo.Map(candidates, func(item models.VocabularyItem, _ int) scored {
		return scored{item: item, score: Score(&item, now)}
	})
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	inputReady := lo.Filter(ranked, func(c scored, _ int) bool {
		return s.readiness.IsInputReady(&c.item)
	})
	choice := lo.Reject(ranked, func(c scored, _ int) bool {
		return s.readiness.IsInputReady(&c.item)
	})

	inputSlots := int(math.Floor(float64(targetCount) * inputRatio))
	if inputSlots > len(inputReady) {
		inputSlots = len(inputReady)
	}

	selected := make([]models.VocabularyItem, 0, targetCount)
	for _, c := range inputReady[:inputSlots] {
		selected = append(selected, c.item)
	}
	for _, c := range choice {
		if len(selected) >= targetCount {
			break
		}
		selected = append(selected, c.item)
	}
	for _, c := range inputReady[inputSlots:] {
		if len(selected) >= targetCount {
			break
		}
		selected = append(selected, c.item)
	}
	return selected
}

// Score computes the review priority of an item at the given moment
func Score(item *models.VocabularyItem, now time.Time) float64 {
	score := 0.0

	if item.NextReviewAt != nil && item.NextReviewAt.Before(now) {
		score += overdueWeight * float64(wholeDays(now.Sub(*item.NextReviewAt)))
	}

	score += errorRateWeight * item.ErrorRate()

	if item.LastReviewedAt != nil {
		score += math.Min(float64(wholeDays(now.Sub(*item.LastReviewedAt))), maxRecencyBonus)
	} else {
		score += maxRecencyBonus
	}

	switch item.Status {
	case models.StatusNew:
		score += newBonus
	case models.StatusLearning:
		score += learningBonus
	case models.StatusReviewing:
		score += reviewingBonus
	case models.StatusMastered:
	}
	return score
}

func wholeDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
