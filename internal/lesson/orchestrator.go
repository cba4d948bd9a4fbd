// Package lesson coordinates lessons: it picks words, builds questions,
// checks answers and keeps the learner's progress up to date.
package lesson

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/example/lexitutor/internal/config"
	"github.com/example/lexitutor/internal/database"
	"github.com/example/lexitutor/internal/validation"
	"github.com/example/lexitutor/pkg/models"
)

// ProfileRepository loads and stores learner profiles
type ProfileRepository interface {
	GetByID(ctx context.Context, id int64) (*models.LearnerProfile, error)
	GetByUserID(ctx context.Context, userID int64) (*models.LearnerProfile, error)
	Create(ctx context.Context, p *models.LearnerProfile) error
}

// WordRepository reads the dictionary
type WordRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Word, error)
	FindByText(ctx context.Context, language, text string) (*models.Word, error)
	Upsert(ctx context.Context, word *models.Word) (bool, error)
	ListFrequencyRanked(ctx context.Context, language string, level *models.Level, excludeProfileID int64, limit int) ([]models.Word, error)
}

// VocabularyRepository stores the learner's vocabulary
type VocabularyRepository interface {
	GetByID(ctx context.Context, id int64) (*models.VocabularyItem, error)
	ListActive(ctx context.Context, profileID int64) ([]models.VocabularyItem, error)
	Create(ctx context.Context, item *models.VocabularyItem) error
	CountByStatus(ctx context.Context, profileID int64) (map[models.Status]int, error)
	CountDue(ctx context.Context, profileID int64, now time.Time) (int, error)
}

// LessonRepository stores lessons and reads their attempts
type LessonRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Lesson, error)
	GetActive(ctx context.Context, profileID int64) (*models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Complete(ctx context.Context, id int64, at time.Time) error
	ListAttempts(ctx context.Context, lessonID int64) ([]models.LessonAttempt, error)
}

// AnswerWriter persists everything produced by one answer atomically
type AnswerWriter interface {
	SaveAnswer(ctx context.Context, lesson *models.Lesson, rec database.AnswerRecord) error
}

// Repositories groups the persistence used by the orchestrator
type Repositories struct {
	Profiles   ProfileRepository
	Words      WordRepository
	Vocabulary VocabularyRepository
	Lessons    LessonRepository
	Answers    AnswerWriter
}

// RepositoriesFromStore wires the SQL store
func RepositoriesFromStore(s *database.Store) Repositories {
	return Repositories{
		Profiles:   s.Profiles,
		Words:      s.Words,
		Vocabulary: s.Vocabulary,
		Lessons:    s.Lessons,
		Answers:    s,
	}
}

// Selector ranks candidate words
type Selector interface {
	SelectForLesson(candidates []models.VocabularyItem, targetCount int, inputRatio float64) []models.VocabularyItem
}

// Adjuster picks test types and moves statuses forward
type Adjuster interface {
	DetermineTestType(item *models.VocabularyItem) models.TestType
	UpdateStatus(item *models.VocabularyItem) bool
}

// Scheduler updates review timing after an answer
type Scheduler interface {
	UpdateSchedule(item *models.VocabularyItem, isCorrect bool, method models.ValidationMethod)
}

// Validator checks answers
type Validator interface {
	ValidateInput(answer string) error
	Validate(ctx context.Context, req validation.Request) (*validation.Result, error)
}

// Translator translates words that are not in the dictionary yet
type Translator interface {
	Translate(ctx context.Context, word, src, dst string) (*models.TranslationResult, error)
}

// Orchestrator runs lessons for learner profiles
type Orchestrator struct {
	repos      Repositories
	selector   Selector
	adjuster   Adjuster
	scheduler  Scheduler
	validator  Validator
	translator Translator
	random     Randomizer
	clock      func() time.Time
	cfg        config.LearningConfig
	log        logrus.FieldLogger
}

// Deps are the collaborators of the orchestrator
type Deps struct {
	Repositories Repositories
	Selector     Selector
	Adjuster     Adjuster
	Scheduler    Scheduler
	Validator    Validator
	Translator   Translator
	Random       Randomizer       // defaults to math/rand
	Clock        func() time.Time // defaults to time.Now
}

// New creates an orchestrator
func New(deps Deps, cfg config.LearningConfig, log logrus.FieldLogger) *Orchestrator {
	o := &Orchestrator{
		repos:      deps.Repositories,
		selector:   deps.Selector,
		adjuster:   deps.Adjuster,
		scheduler:  deps.Scheduler,
		validator:  deps.Validator,
		translator: deps.Translator,
		random:     deps.Random,
		clock:      deps.Clock,
		cfg:        cfg,
		log:        log,
	}
	if o.random == nil {
		o.random = NewRandom()
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	return o
}

func (o *Orchestrator) now() time.Time {
	return o.clock().UTC()
}

// GetOrCreateActiveLesson returns the profile's active lesson or starts a new one
func (o *Orchestrator) GetOrCreateActiveLesson(ctx context.Context, profileID int64, wordsCount int) (*models.Lesson, error) {
	lesson, err := o.repos.Lessons.GetActive(ctx, profileID)
	if err == nil {
		return lesson, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	lesson = &models.Lesson{
		ProfileID:  profileID,
		WordsCount: wordsCount,
		StartedAt:  o.now(),
	}
	err = o.repos.Lessons.Create(ctx, lesson)
	if errors.Is(err, models.ErrDuplicate) {
		// Another request started a lesson first
		return o.repos.Lessons.GetActive(ctx, profileID)
	}
	if err != nil {
		return nil, err
	}

	o.log.WithFields(logrus.Fields{"profile_id": profileID, "lesson_id": lesson.ID}).Info("lesson started")
	return lesson, nil
}

// StartLesson resumes the profile's active lesson or starts a new one of up to
// count words. It returns a nil lesson when there is nothing to learn.
func (o *Orchestrator) StartLesson(ctx context.Context, profileID int64, count int) (*models.Lesson, []models.VocabularyItem, error) {
	active, err := o.repos.Lessons.GetActive(ctx, profileID)
	if err == nil {
		words, err := o.LessonWords(ctx, active)
		if err != nil {
			return nil, nil, err
		}
		return active, words, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, nil, err
	}

	words, err := o.SelectLessonWords(ctx, profileID, count)
	if err != nil {
		return nil, nil, err
	}
	if len(words) == 0 {
		return nil, nil, nil
	}
	lesson, err := o.GetOrCreateActiveLesson(ctx, profileID, len(words))
	if err != nil {
		return nil, nil, err
	}
	// A concurrent start may have won; fit the selection to its lesson
	if words, err = o.lessonWords(ctx, lesson, words); err != nil {
		return nil, nil, err
	}
	return lesson, words, nil
}

// LessonWords rebuilds the word set of a lesson: the words already attempted
// in it, in answer order, followed by freshly selected words for the slots
// left. The result never holds more than the lesson's WordsCount words.
func (o *Orchestrator) LessonWords(ctx context.Context, lesson *models.Lesson) ([]models.VocabularyItem, error) {
	return o.lessonWords(ctx, lesson, nil)
}

// lessonWords fills the free slots from fresh, or selects new words when fresh is nil
func (o *Orchestrator) lessonWords(ctx context.Context, lesson *models.Lesson, fresh []models.VocabularyItem) ([]models.VocabularyItem, error) {
	attempts, err := o.repos.Lessons.ListAttempts(ctx, lesson.ID)
	if err != nil {
		return nil, err
	}

	attempted := make(map[int64]bool, len(attempts))
	words := make([]models.VocabularyItem, 0, lesson.WordsCount)
	for _, a := range attempts {
		if attempted[a.VocabularyItemID] {
			continue
		}
		attempted[a.VocabularyItemID] = true
		item, err := o.repos.Vocabulary.GetByID(ctx, a.VocabularyItemID)
		if errors.Is(err, models.ErrNotFound) {
			// Deleted since; its slot stays used
			continue
		}
		if err != nil {
			return nil, err
		}
		words = append(words, *item)
	}

	missing := lesson.WordsCount - len(attempted)
	if missing <= 0 {
		return words, nil
	}
	if fresh == nil {
		if fresh, err = o.selectWords(ctx, lesson.ProfileID, missing, attempted); err != nil {
			return nil, err
		}
	}
	for _, item := range fresh {
		if missing == 0 {
			break
		}
		if attempted[item.ID] {
			continue
		}
		words = append(words, item)
		missing--
	}
	return words, nil
}

// SelectLessonWords picks count words for a lesson. When the profile owns too
// few active words, the most frequent dictionary words of its target language
// and level are added to its vocabulary first.
func (o *Orchestrator) SelectLessonWords(ctx context.Context, profileID int64, count int) ([]models.VocabularyItem, error) {
	return o.selectWords(ctx, profileID, count, nil)
}

func (o *Orchestrator) selectWords(ctx context.Context, profileID int64, count int, exclude map[int64]bool) ([]models.VocabularyItem, error) {
	available := func() ([]models.VocabularyItem, error) {
		items, err := o.repos.Vocabulary.ListActive(ctx, profileID)
		if err != nil {
			return nil, err
		}
		return lo.Reject(items, func(item models.VocabularyItem, _ int) bool { return exclude[item.ID] }), nil
	}

	items, err := available()
	if err != nil {
		return nil, err
	}

	if len(items) < count {
		profile, err := o.repos.Profiles.GetByID(ctx, profileID)
		if err != nil {
			return nil, err
		}
		added, err := o.backfill(ctx, profile, count-len(items))
		if err != nil {
			return nil, err
		}
		if added > 0 {
			if items, err = available(); err != nil {
				return nil, err
			}
		}
	}

	return o.selector.SelectForLesson(items, count, o.cfg.InputRatio), nil
}

func (o *Orchestrator) backfill(ctx context.Context, profile *models.LearnerProfile, missing int) (int, error) {
	if profile.TargetLanguage == "" {
		return 0, nil
	}
	words, err := o.repos.Words.ListFrequencyRanked(ctx, profile.TargetLanguage, profile.Level, profile.ID, missing)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, w := range words {
		item := models.NewVocabularyItem(profile.ID, w.ID)
		err := o.repos.Vocabulary.Create(ctx, item)
		if errors.Is(err, models.ErrDuplicate) {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("failed to add dictionary word %q: %w", w.Text, err)
		}
		added++
	}

	if added > 0 {
		o.log.WithFields(logrus.Fields{"profile_id": profile.ID, "added": added}).Info("vocabulary backfilled from dictionary")
	}
	return added, nil
}

// CompleteLesson closes the lesson and summarizes it
func (o *Orchestrator) CompleteLesson(ctx context.Context, lessonID int64) (*models.LessonSummary, error) {
	lesson, err := o.repos.Lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if !lesson.IsActive() {
		return nil, models.ErrLessonCompleted
	}

	now := o.now()
	if err := o.repos.Lessons.Complete(ctx, lessonID, now); err != nil {
		return nil, err
	}
	lesson.CompletedAt = &now

	summary := &models.LessonSummary{
		LessonID:         lesson.ID,
		WordsCount:       lesson.WordsCount,
		CorrectAnswers:   lesson.CorrectAnswers,
		IncorrectAnswers: lesson.IncorrectAnswers,
		Duration:         now.Sub(lesson.StartedAt),
	}
	if lesson.WordsCount > 0 {
		summary.Accuracy = float64(lesson.CorrectAnswers) / float64(lesson.WordsCount) * 100
	}

	o.log.WithFields(logrus.Fields{
		"profile_id": lesson.ProfileID,
		"lesson_id":  lesson.ID,
		"accuracy":   summary.Accuracy,
	}).Info("lesson completed")
	return summary, nil
}
