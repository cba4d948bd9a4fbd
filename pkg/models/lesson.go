package models

import "time"

// Lesson is a bounded learning session; CompletedAt == nil means active
type Lesson struct {
	ID               int64      `json:"id" db:"id"`
	ProfileID        int64      `json:"profile_id" db:"profile_id"`
	WordsCount       int        `json:"words_count" db:"words_count"`
	CorrectAnswers   int        `json:"correct_answers" db:"correct_answers"`
	IncorrectAnswers int        `json:"incorrect_answers" db:"incorrect_answers"`
	StartedAt        time.Time  `json:"started_at" db:"started_at"`
	CompletedAt      *time.Time `json:"completed_at" db:"completed_at"`
}

// IsActive reports whether the lesson is still running
func (l *Lesson) IsActive() bool {
	return l.CompletedAt == nil
}

// LessonAttempt is an immutable record of one answered question
type LessonAttempt struct {
	ID               int64            `json:"id" db:"id"`
	LessonID         int64            `json:"lesson_id" db:"lesson_id"`
	VocabularyItemID int64            `json:"vocabulary_item_id" db:"vocabulary_item_id"`
	Direction        Direction        `json:"direction" db:"direction"`
	TestType         TestType         `json:"test_type" db:"test_type"`
	UserAnswer       string           `json:"user_answer" db:"user_answer"`
	CorrectAnswer    string           `json:"correct_answer" db:"correct_answer"`
	IsCorrect        bool             `json:"is_correct" db:"is_correct"`
	ValidationMethod ValidationMethod `json:"validation_method" db:"validation_method"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

// LessonSummary is returned when a lesson is completed
type LessonSummary struct {
	LessonID         int64         `json:"lesson_id"`
	WordsCount       int           `json:"words_count"`
	CorrectAnswers   int           `json:"correct_answers"`
	IncorrectAnswers int           `json:"incorrect_answers"`
	Accuracy         float64       `json:"accuracy"` // Percent of WordsCount
	Duration         time.Duration `json:"duration"`
}
