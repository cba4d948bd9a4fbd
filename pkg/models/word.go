package models

import (
	"strings"
	"time"
)

// Word is a dictionary entry in a single language
type Word struct {
	ID            int64     `json:"id" db:"id"`
	Text          string    `json:"text" db:"text"`
	Language      string    `json:"language" db:"language"`
	Level         *Level    `json:"level" db:"level"`
	FrequencyRank *int      `json:"frequency_rank" db:"frequency_rank"` // Lower is more frequent
	PartOfSpeech  string    `json:"part_of_speech" db:"part_of_speech"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	Translations []Translation `json:"translations" db:"-"`
}

// Translation is one lexical variant of a word in some language
type Translation struct {
	ID       int64  `json:"id" db:"id"`
	WordID   int64  `json:"word_id" db:"word_id"`
	Language string `json:"language" db:"language"`
	Text     string `json:"text" db:"text"`
	Position int    `json:"position" db:"position"`
	Example  string `json:"example" db:"example"`
}

// Variants returns the word's lexical variants in lang, ordered by position.
// The canonical text comes first when lang is the word's own language.
func (w *Word) Variants(lang string) []string {
	var variants []string
	if strings.EqualFold(w.Language, lang) {
		variants = append(variants, w.Text)
	}
	for _, t := range w.Translations {
		if !strings.EqualFold(t.Language, lang) {
			continue
		}
		dup := false
		for _, v := range variants {
			if strings.EqualFold(v, t.Text) {
				dup = true
				break
			}
		}
		if !dup {
			variants = append(variants, t.Text)
		}
	}
	return variants
}
