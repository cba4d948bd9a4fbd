// Package difficulty decides question types and drives the mastery status of vocabulary items.
package difficulty

import (
	"github.com/sirupsen/logrus"

	"github.com/example/lexitutor/pkg/models"
)

// Default thresholds
const (
	DefaultMasteredThreshold      = 30
	DefaultChoiceToInputThreshold = 3
	DefaultReviewingCorrectTotal  = 5
)

// StatusChange is emitted whenever an item's status moves forward
type StatusChange struct {
	VocabularyItemID int64
	From             models.Status
	To               models.Status
}

// Observer receives status change events. It is telemetry only.
type Observer interface {
	StatusChanged(change StatusChange)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(change StatusChange)

// StatusChanged implements Observer
func (f ObserverFunc) StatusChanged(change StatusChange) { f(change) }

// LogObserver logs status changes at info level
func LogObserver(log logrus.FieldLogger) Observer {
	return ObserverFunc(func(c StatusChange) {
		log.WithFields(logrus.Fields{
			"vocabulary_item_id": c.VocabularyItemID,
			"from":               c.From.String(),
			"to":                 c.To.String(),
		}).Info("vocabulary status changed")
	})
}

// Adjuster decides test types and status transitions
type Adjuster struct {
	MasteredThreshold      int
	ChoiceToInputThreshold int
	ReviewingCorrectTotal  int

	observer Observer
}

// New creates an adjuster; a nil observer drops events
func New(masteredThreshold, choiceToInputThreshold, reviewingCorrectTotal int, observer Observer) *Adjuster {
	if observer == nil {
		observer = ObserverFunc(func(StatusChange) {})
	}
	return &Adjuster{
		MasteredThreshold:      masteredThreshold,
		ChoiceToInputThreshold: choiceToInputThreshold,
		ReviewingCorrectTotal:  reviewingCorrectTotal,
		observer:               observer,
	}
}

// NewDefault creates an adjuster with the default thresholds
func NewDefault() *Adjuster {
	return New(DefaultMasteredThreshold, DefaultChoiceToInputThreshold, DefaultReviewingCorrectTotal, nil)
}

// DetermineTestType returns INPUT once any multiple-choice context of the item
// has a streak of at least ChoiceToInputThreshold, MULTIPLE_CHOICE otherwise.
func (a *Adjuster) DetermineTestType(item *models.VocabularyItem) models.TestType {
	if a.IsInputReady(item) {
		return models.TestTypeInput
	}
	return models.TestTypeMultipleChoice
}

// IsInputReady reports whether the item has graduated to free-text questions
func (a *Adjuster) IsInputReady(item *models.VocabularyItem) bool {
	for _, s := range item.Statistics {
		if s.TestType == models.TestTypeMultipleChoice && s.CorrectCount >= a.ChoiceToInputThreshold {
			return true
		}
	}
	return false
}

// UpdateStatus evaluates the transition rules against the item's statistics
// and applies the first that matches. It returns true if the status changed.
func (a *Adjuster) UpdateStatus(item *models.VocabularyItem) bool {
	next := a.nextStatus(item)
	if next == item.Status {
		return false
	}
	change := StatusChange{VocabularyItemID: item.ID, From: item.Status, To: next}
	item.Status = next
	a.observer.StatusChanged(change)
	return true
}

func (a *Adjuster) nextStatus(item *models.VocabularyItem) models.Status {
	// Мастерство перекрывает все остальные правила
	for _, s := range item.Statistics {
		if s.CorrectCount >= a.MasteredThreshold {
			return models.StatusMastered
		}
	}

	switch item.Status {
	case models.StatusNew:
		for _, s := range item.Statistics {
			if s.TotalAttempts > 0 {
				return models.StatusLearning
			}
		}
	case models.StatusLearning:
		for _, s := range item.Statistics {
			if s.TotalCorrect >= a.ReviewingCorrectTotal {
				return models.StatusReviewing
			}
		}
	case models.StatusReviewing, models.StatusMastered:
		// only the mastery rule moves these forward
	}
	return item.Status
}
