package lesson

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/example/lexitutor/pkg/models"
)

const (
	maxOptions     = 4
	minDistractors = 2
	distractorPool = 30
)

// Question is one generated lesson question
type Question struct {
	LessonID         int64            `json:"lesson_id"`
	VocabularyItemID int64            `json:"vocabulary_item_id"`
	WordID           int64            `json:"word_id"`
	Direction        models.Direction `json:"direction"`
	TestType         models.TestType  `json:"test_type"`
	Text             string           `json:"text"`
	ExpectedAnswer   string           `json:"expected_answer"`
	Alternatives     []string         `json:"alternatives,omitempty"`
	Options          []string         `json:"options,omitempty"`
	SourceLanguage   string           `json:"source_language"` // Language of Text
	TargetLanguage   string           `json:"target_language"` // Language of the answer
}

// GenerateNextQuestion returns a question for the first selected word without
// an attempt in this lesson, or nil when every selected word was answered.
func (o *Orchestrator) GenerateNextQuestion(ctx context.Context, lesson *models.Lesson, selected []models.VocabularyItem) (*Question, error) {
	attempts, err := o.repos.Lessons.ListAttempts(ctx, lesson.ID)
	if err != nil {
		return nil, err
	}
	answered := make(map[int64]bool, len(attempts))
	for _, a := range attempts {
		answered[a.VocabularyItemID] = true
	}

	var item *models.VocabularyItem
	for i := range selected {
		if !answered[selected[i].ID] {
			item = &selected[i]
			break
		}
	}
	if item == nil {
		return nil, nil
	}

	profile, err := o.repos.Profiles.GetByID(ctx, lesson.ProfileID)
	if err != nil {
		return nil, err
	}
	word := item.Word
	if word == nil {
		if word, err = o.repos.Words.GetByID(ctx, item.WordID); err != nil {
			return nil, err
		}
	}

	native, target := o.languages(profile)
	q := &Question{
		LessonID:         lesson.ID,
		VocabularyItemID: item.ID,
		WordID:           word.ID,
		Direction:        models.Directions[o.random.Choose(len(models.Directions))],
		TestType:         o.adjuster.DetermineTestType(item),
	}

	nativeVariants := variantsOrText(word, native)
	foreignVariants := variantsOrText(word, target)
	switch q.Direction {
	case models.DirectionNativeToForeign:
		q.Text = nativeVariants[0]
		q.ExpectedAnswer, q.Alternatives = foreignVariants[0], foreignVariants[1:]
		q.SourceLanguage, q.TargetLanguage = native, target
	case models.DirectionForeignToNative:
		q.Text = foreignVariants[0]
		q.ExpectedAnswer, q.Alternatives = nativeVariants[0], nativeVariants[1:]
		q.SourceLanguage, q.TargetLanguage = target, native
	}

	if q.TestType == models.TestTypeMultipleChoice {
		distractors, err := o.distractors(ctx, word, q)
		if err != nil {
			return nil, err
		}
		if len(distractors) < minDistractors {
			o.log.WithFields(logrus.Fields{
				"lesson_id": lesson.ID,
				"word_id":   word.ID,
				"found":     len(distractors),
			}).Warn("not enough distractors, asking for free-text answer")
			q.TestType = models.TestTypeInput
		} else {
			q.Options = append(distractors, q.ExpectedAnswer)
			shuffle(o.random, q.Options)
		}
	}
	return q, nil
}

// distractors samples wrong options in the answer language, from words of
// the question language first and then from words of the answer language.
func (o *Orchestrator) distractors(ctx context.Context, word *models.Word, q *Question) ([]string, error) {
	seen := map[string]bool{strings.ToLower(q.ExpectedAnswer): true}
	for _, alt := range q.Alternatives {
		seen[strings.ToLower(alt)] = true
	}

	var out []string
	for _, lang := range []string{q.SourceLanguage, q.TargetLanguage} {
		if len(out) >= maxOptions-1 {
			break
		}
		pool, err := o.repos.Words.ListFrequencyRanked(ctx, lang, nil, 0, distractorPool)
		if err != nil {
			return nil, err
		}
		shuffle(o.random, pool)

		for i := range pool {
			if len(out) >= maxOptions-1 {
				break
			}
			if pool[i].ID == word.ID {
				continue
			}
			variants := pool[i].Variants(q.TargetLanguage)
			if len(variants) == 0 {
				continue
			}
			option := strings.TrimSpace(variants[0])
			key := strings.ToLower(option)
			if option == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, option)
		}
	}
	return out, nil
}

func (o *Orchestrator) languages(p *models.LearnerProfile) (native, target string) {
	native, target = p.NativeLanguage, p.TargetLanguage
	if native == "" {
		native = o.cfg.NativeLanguage
	}
	if target == "" {
		target = o.cfg.TargetLanguage
	}
	return native, target
}

// variantsOrText falls back to the canonical text when the word has no variant in lang
func variantsOrText(w *models.Word, lang string) []string {
	if v := w.Variants(lang); len(v) > 0 {
		return v
	}
	return []string{w.Text}
}
