package models

import "time"

// TranslationResult is the structured payload returned by the language model
type TranslationResult struct {
	Translations []string          `json:"translations"`
	Examples     []Example         `json:"examples"`
	WordForms    map[string]string `json:"word_forms"`
}

// Example is a usage sample with its translation
type Example struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// ValidationResult is the model's verdict for a free-text answer
type ValidationResult struct {
	IsCorrect bool   `json:"is_correct"`
	Comment   string `json:"comment"`
}

// TranslationCacheEntry is keyed by (word, source language, target language)
type TranslationCacheEntry struct {
	ID              int64      `json:"id" db:"id"`
	Word            string     `json:"word" db:"word"`
	SourceLanguage  string     `json:"source_language" db:"source_language"`
	TargetLanguage  string     `json:"target_language" db:"target_language"`
	TranslationData string     `json:"translation_data" db:"translation_data"` // JSON encoded TranslationResult
	ExpiresAt       *time.Time `json:"expires_at" db:"expires_at"`             // nil = never expires
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// IsExpired returns true if the entry has expired at now
func (e *TranslationCacheEntry) IsExpired(now time.Time) bool {
	if e.ExpiresAt == nil {
		return false
	}
	return !now.Before(*e.ExpiresAt)
}

// ValidationCacheEntry is keyed by (word id, direction, expected, user answer)
type ValidationCacheEntry struct {
	ID         int64     `json:"id" db:"id"`
	WordID     int64     `json:"word_id" db:"word_id"`
	Direction  Direction `json:"direction" db:"direction"`
	Expected   string    `json:"expected" db:"expected"`
	UserAnswer string    `json:"user_answer" db:"user_answer"`
	IsCorrect  bool      `json:"is_correct" db:"is_correct"`
	Comment    string    `json:"comment" db:"comment"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
