// Package validation decides whether a learner's answer is correct using an
// exact, fuzzy and model tier, in that order.
package validation

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
	"github.com/sirupsen/logrus"

	"github.com/example/lexitutor/internal/ai"
	"github.com/example/lexitutor/pkg/models"
)

// FeedbackIncorrect is shown for every rejection the model did not explain
const FeedbackIncorrect = "Incorrect."

// Model judges answers the cheaper tiers could not accept
type Model interface {
	Validate(ctx context.Context, req ai.ValidationRequest) (*models.ValidationResult, error)
}

// Cache keeps model verdicts
type Cache interface {
	GetValidation(ctx context.Context, wordID int64, direction models.Direction, expected, answer string) (*models.ValidationResult, bool, error)
	SetValidation(ctx context.Context, wordID int64, direction models.Direction, expected, answer string, result *models.ValidationResult) error
}

// ModelContext is required for the model tier
type ModelContext struct {
	WordID         int64
	Direction      models.Direction
	Question       string
	SourceLanguage string
	TargetLanguage string
}

// Request is one answer to check
type Request struct {
	Expected     string
	Alternatives []string
	UserAnswer   string
	TestType     models.TestType
	Context      *ModelContext
}

// Result is the verdict and the tier that produced it
type Result struct {
	IsCorrect bool
	Method    models.ValidationMethod
	Feedback  string
}

// Validator runs the validation cascade
type Validator struct {
	fuzzyThreshold  int
	maxAnswerLength int
	model           Model
	cache           Cache
	log             logrus.FieldLogger
}

// New creates a validator. model and cache may be nil, which disables the model tier.
func New(fuzzyThreshold, maxAnswerLength int, model Model, cache Cache, log logrus.FieldLogger) *Validator {
	return &Validator{
		fuzzyThreshold:  fuzzyThreshold,
		maxAnswerLength: maxAnswerLength,
		model:           model,
		cache:           cache,
		log:             log,
	}
}

// ValidateInput rejects empty and oversized answers
func (v *Validator) ValidateInput(answer string) error {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return models.ErrEmptyAnswer
	}
	if v.maxAnswerLength > 0 && utf8.RuneCountInString(answer) > v.maxAnswerLength {
		return models.ErrAnswerTooLong
	}
	return nil
}

// Validate checks the answer. The only errors returned are input errors;
// model and cache failures end in a rejection.
func (v *Validator) Validate(ctx context.Context, req Request) (*Result, error) {
	if err := v.ValidateInput(req.UserAnswer); err != nil {
		return nil, err
	}
	answer := Normalize(req.UserAnswer)
	accepted := append([]string{req.Expected}, req.Alternatives...)

	for _, candidate := range accepted {
		if answer == Normalize(candidate) {
			return &Result{IsCorrect: true, Method: models.ValidationExact}, nil
		}
	}

	// Options are picked from a list, a near miss is a different option
	if req.TestType == models.TestTypeMultipleChoice {
		return &Result{Method: models.ValidationExact, Feedback: FeedbackIncorrect}, nil
	}

	for _, candidate := range accepted {
		d := levenshtein.Distance(answer, Normalize(candidate), nil)
		if d > 0 && d <= v.fuzzyThreshold {
			return &Result{
				IsCorrect: true,
				Method:    models.ValidationFuzzy,
				Feedback:  fmt.Sprintf("Almost! Check the spelling: %s", candidate),
			}, nil
		}
	}

	if req.Context == nil || v.model == nil {
		return &Result{Method: models.ValidationFuzzy, Feedback: FeedbackIncorrect}, nil
	}
	return v.validateWithModel(ctx, req, answer), nil
}

func (v *Validator) validateWithModel(ctx context.Context, req Request, answer string) *Result {
	mc := req.Context
	log := v.log.WithFields(logrus.Fields{"word_id": mc.WordID, "direction": mc.Direction.String()})
	rejected := &Result{Method: models.ValidationModel, Feedback: FeedbackIncorrect}

	if v.cache != nil {
		cached, found, err := v.cache.GetValidation(ctx, mc.WordID, mc.Direction, req.Expected, answer)
		if err != nil {
			log.WithError(err).Warn("validation cache read failed")
		}
		if found && cached != nil {
			return verdict(cached)
		}
	}

	result, err := v.model.Validate(ctx, ai.ValidationRequest{
		Question:       mc.Question,
		Expected:       req.Expected,
		UserAnswer:     req.UserAnswer,
		SourceLanguage: mc.SourceLanguage,
		TargetLanguage: mc.TargetLanguage,
	})
	if err != nil {
		log.WithError(err).Warn("model validation failed, rejecting answer")
		return rejected
	}
	if result == nil {
		log.Warn("model returned no verdict, rejecting answer")
		return rejected
	}

	if v.cache != nil {
		if err := v.cache.SetValidation(ctx, mc.WordID, mc.Direction, req.Expected, answer, result); err != nil {
			log.WithError(err).Warn("validation cache write failed")
		}
	}
	return verdict(result)
}

func verdict(r *models.ValidationResult) *Result {
	feedback := r.Comment
	if !r.IsCorrect && feedback == "" {
		feedback = FeedbackIncorrect
	}
	return &Result{IsCorrect: r.IsCorrect, Method: models.ValidationModel, Feedback: feedback}
}

// Normalize trims and lowercases an answer for comparison
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
