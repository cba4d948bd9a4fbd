package models

import "time"

// LearnerProfile is a chat user's learning setup
type LearnerProfile struct {
	ID               int64     `json:"id" db:"id"`
	UserID           int64     `json:"user_id" db:"user_id"` // Chat platform user ID
	NativeLanguage   string    `json:"native_language" db:"native_language"`
	TargetLanguage   string    `json:"target_language" db:"target_language"`
	Level            *Level    `json:"level" db:"level"`
	WordsPerLesson   int       `json:"words_per_lesson" db:"words_per_lesson"`
	RemindersEnabled bool      `json:"reminders_enabled" db:"reminders_enabled"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
