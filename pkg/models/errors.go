package models

import "errors"

// Domain errors shared by repositories and services
var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("already exists")
	ErrLessonCompleted = errors.New("lesson already completed")
	ErrEmptyAnswer     = errors.New("answer cannot be empty")
	ErrAnswerTooLong   = errors.New("answer is too long")
	ErrEmptyWord       = errors.New("word cannot be empty")
	ErrWordTooLong     = errors.New("word is too long")
	ErrNoTranslation   = errors.New("no translation available")
)
