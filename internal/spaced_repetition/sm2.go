package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/lexitutor/pkg/models"
)

// QualityResponse represents the quality of response in SM-2 (0..5).
// Only the grades Quality can produce are named.
type QualityResponse int

const (
	// Incorrect response
	QualityIncorrect QualityResponse = 1
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// SM2 implements the SuperMemo-2 review policy for vocabulary items
type SM2 struct {
	// Нижняя граница фактора легкости
	MinEasiness float64
	// Максимальный интервал повторения в днях
	MaxInterval int
	// Интервал после ошибки в днях
	FailInterval int

	clock func() time.Time
}

// NewSM2 создает новый экземпляр SM2 с настройками по умолчанию
func NewSM2() *SM2 {
	return &SM2{
		MinEasiness:  1.3,
		MaxInterval:  365, // Максимальный интервал - 1 год
		FailInterval: 1,
		clock:        time.Now,
	}
}

// WithClock replaces the time source, for tests
func (sm *SM2) WithClock(clock func() time.Time) *SM2 {
	sm.clock = clock
	return sm
}

// Quality maps an answer verdict to an SM-2 quality grade. Answers accepted
// as a typo or by the model count as correct with hesitation.
func Quality(isCorrect bool, method models.ValidationMethod) QualityResponse {
	if !isCorrect {
		return QualityIncorrect
	}
	switch method {
	case models.ValidationExact:
		return QualityPerfect
	case models.ValidationFuzzy, models.ValidationModel:
		return QualityCorrectHesitation
	}
	return QualityCorrectDifficult
}

// UpdateSchedule applies one answer to the item's review timing.
// The item's statistics are expected to already include this answer.
func (sm *SM2) UpdateSchedule(item *models.VocabularyItem, isCorrect bool, method models.ValidationMethod) {
	now := sm.clock().UTC()
	quality := Quality(isCorrect, method)

	if item.EasinessFactor == 0 {
		item.EasinessFactor = models.DefaultEasinessFactor
	}
	item.EasinessFactor = sm.nextEasiness(item.EasinessFactor, quality)

	if quality >= QualityCorrectDifficult {
		item.ReviewInterval = sm.nextInterval(item)
	} else {
		item.ReviewInterval = sm.FailInterval
	}

	next := now.AddDate(0, 0, item.ReviewInterval)
	item.LastReviewedAt = &now
	item.NextReviewAt = &next
}

func (sm *SM2) nextEasiness(ef float64, q QualityResponse) float64 {
	d := 5.0 - float64(q)
	ef += 0.1 - d*(0.08+d*0.02)
	if ef < sm.MinEasiness {
		ef = sm.MinEasiness // Не опускаем ниже минимума
	}
	return ef
}

func (sm *SM2) nextInterval(item *models.VocabularyItem) int {
	// First successful recall is always reviewed the next day
	if item.ReviewInterval == 0 || totalCorrect(item) <= 1 {
		return 1
	}
	next := int(math.Round(float64(item.ReviewInterval) * item.EasinessFactor))
	if next <= item.ReviewInterval {
		next = item.ReviewInterval + 1
	}
	if next > sm.MaxInterval {
		next = sm.MaxInterval
	}
	return next
}

func totalCorrect(item *models.VocabularyItem) int {
	total := 0
	for _, s := range item.Statistics {
		total += s.TotalCorrect
	}
	return total
}
