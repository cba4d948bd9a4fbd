package models

import "time"

// DefaultEasinessFactor is the SM-2 starting easiness
const DefaultEasinessFactor = 2.5

// VocabularyItem is one learner's relationship to one word
type VocabularyItem struct {
	ID             int64      `json:"id" db:"id"`
	ProfileID      int64      `json:"profile_id" db:"profile_id"`
	WordID         int64      `json:"word_id" db:"word_id"`
	Status         Status     `json:"status" db:"status"`
	LastReviewedAt *time.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
	NextReviewAt   *time.Time `json:"next_review_at" db:"next_review_at"`
	ReviewInterval int        `json:"review_interval" db:"review_interval"` // Days
	EasinessFactor float64    `json:"easiness_factor" db:"easiness_factor"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`

	Word       *Word              `json:"word,omitempty" db:"-"`
	Statistics []AttemptStatistic `json:"statistics,omitempty" db:"-"`
}

// NewVocabularyItem returns a fresh item in NEW status
func NewVocabularyItem(profileID, wordID int64) *VocabularyItem {
	return &VocabularyItem{
		ProfileID:      profileID,
		WordID:         wordID,
		Status:         StatusNew,
		EasinessFactor: DefaultEasinessFactor,
	}
}

// StatisticFor returns the statistic for a context, or nil if none was recorded yet
func (v *VocabularyItem) StatisticFor(direction Direction, testType TestType) *AttemptStatistic {
	for i := range v.Statistics {
		if v.Statistics[i].Direction == direction && v.Statistics[i].TestType == testType {
			return &v.Statistics[i]
		}
	}
	return nil
}

// ErrorRate is totalErrors / totalAttempts across all statistic contexts
func (v *VocabularyItem) ErrorRate() float64 {
	var attempts, errs int
	for _, s := range v.Statistics {
		attempts += s.TotalAttempts
		errs += s.TotalErrors
	}
	if attempts == 0 {
		return 0
	}
	return float64(errs) / float64(attempts)
}

// AttemptStatistic aggregates attempts per (item, direction, test type)
type AttemptStatistic struct {
	ID               int64     `json:"id" db:"id"`
	VocabularyItemID int64     `json:"vocabulary_item_id" db:"vocabulary_item_id"`
	Direction        Direction `json:"direction" db:"direction"`
	TestType         TestType  `json:"test_type" db:"test_type"`
	CorrectCount     int       `json:"correct_count" db:"correct_count"` // Consecutive correct answers
	TotalAttempts    int       `json:"total_attempts" db:"total_attempts"`
	TotalCorrect     int       `json:"total_correct" db:"total_correct"`
	TotalErrors      int       `json:"total_errors" db:"total_errors"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// Record applies one answer to the counters
func (s *AttemptStatistic) Record(correct bool) {
	s.TotalAttempts++
	if correct {
		s.CorrectCount++
		s.TotalCorrect++
		return
	}
	// Серия правильных ответов обнуляется при любой ошибке
	s.CorrectCount = 0
	s.TotalErrors++
}
