package lesson

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/example/lexitutor/internal/database"
	"github.com/example/lexitutor/internal/validation"
	"github.com/example/lexitutor/pkg/models"
)

// AnswerResult is returned to the transport after an answer
type AnswerResult struct {
	IsCorrect     bool                    `json:"is_correct"`
	Method        models.ValidationMethod `json:"method"`
	Feedback      string                  `json:"feedback,omitempty"`
	CorrectAnswer string                  `json:"correct_answer"`
	Status        models.Status           `json:"status"`
}

// ProcessAnswer validates the answer to q and records it. The attempt, the
// statistic, the lesson counters and the vocabulary item are written
// together or not at all.
func (o *Orchestrator) ProcessAnswer(ctx context.Context, lessonID int64, q *Question, userAnswer string) (*AnswerResult, error) {
	if err := o.validator.ValidateInput(userAnswer); err != nil {
		return nil, err
	}

	lesson, err := o.repos.Lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if !lesson.IsActive() {
		return nil, models.ErrLessonCompleted
	}
	item, err := o.repos.Vocabulary.GetByID(ctx, q.VocabularyItemID)
	if err != nil {
		return nil, err
	}

	verdict, err := o.validator.Validate(ctx, validation.Request{
		Expected:     q.ExpectedAnswer,
		Alternatives: q.Alternatives,
		UserAnswer:   userAnswer,
		TestType:     q.TestType,
		Context: &validation.ModelContext{
			WordID:         q.WordID,
			Direction:      q.Direction,
			Question:       q.Text,
			SourceLanguage: q.SourceLanguage,
			TargetLanguage: q.TargetLanguage,
		},
	})
	if err != nil {
		return nil, err
	}

	now := o.now()
	stat := item.StatisticFor(q.Direction, q.TestType)
	if stat == nil {
		item.Statistics = append(item.Statistics, models.AttemptStatistic{
			VocabularyItemID: item.ID,
			Direction:        q.Direction,
			TestType:         q.TestType,
		})
		stat = &item.Statistics[len(item.Statistics)-1]
	}
	stat.Record(verdict.IsCorrect)
	stat.UpdatedAt = now

	item.LastReviewedAt = &now
	o.adjuster.UpdateStatus(item)
	o.scheduler.UpdateSchedule(item, verdict.IsCorrect, verdict.Method)

	attempt := &models.LessonAttempt{
		LessonID:         lesson.ID,
		VocabularyItemID: item.ID,
		Direction:        q.Direction,
		TestType:         q.TestType,
		UserAnswer:       userAnswer,
		CorrectAnswer:    q.ExpectedAnswer,
		IsCorrect:        verdict.IsCorrect,
		ValidationMethod: verdict.Method,
		CreatedAt:        now,
	}
	err = o.repos.Answers.SaveAnswer(ctx, lesson, database.AnswerRecord{
		Attempt:   attempt,
		Statistic: stat,
		Item:      item,
	})
	if err != nil {
		return nil, err
	}

	o.log.WithFields(logrus.Fields{
		"lesson_id":  lesson.ID,
		"word_id":    q.WordID,
		"is_correct": verdict.IsCorrect,
		"method":     verdict.Method.String(),
	}).Debug("answer recorded")

	return &AnswerResult{
		IsCorrect:     verdict.IsCorrect,
		Method:        verdict.Method,
		Feedback:      verdict.Feedback,
		CorrectAnswer: q.ExpectedAnswer,
		Status:        item.Status,
	}, nil
}
