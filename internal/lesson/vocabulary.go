package lesson

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/example/lexitutor/pkg/models"
)

const maxWordLength = 100

// Progress is a learner's vocabulary overview
type Progress struct {
	ByStatus map[models.Status]int `json:"by_status"`
	Total    int                   `json:"total"`
	Due      int                   `json:"due"`
}

// EnsureProfile returns the profile of a chat user, creating it with the
// configured defaults on first contact. created reports a new profile.
func (o *Orchestrator) EnsureProfile(ctx context.Context, userID int64) (profile *models.LearnerProfile, created bool, err error) {
	profile, err = o.repos.Profiles.GetByUserID(ctx, userID)
	if err == nil {
		return profile, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}

	profile = &models.LearnerProfile{
		UserID:           userID,
		NativeLanguage:   o.cfg.NativeLanguage,
		TargetLanguage:   o.cfg.TargetLanguage,
		WordsPerLesson:   o.cfg.WordsPerLesson,
		RemindersEnabled: true,
	}
	err = o.repos.Profiles.Create(ctx, profile)
	if errors.Is(err, models.ErrDuplicate) {
		profile, err = o.repos.Profiles.GetByUserID(ctx, userID)
		return profile, false, err
	}
	if err != nil {
		return nil, false, err
	}
	o.log.WithFields(logrus.Fields{"profile_id": profile.ID, "user_id": userID}).Info("profile created")
	return profile, true, nil
}

// AddWord adds a target-language word to the learner's vocabulary. Words
// missing from the dictionary are translated first; a failed translation
// adds nothing.
func (o *Orchestrator) AddWord(ctx context.Context, profileID int64, text string) (*models.VocabularyItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.ErrEmptyWord
	}
	if utf8.RuneCountInString(text) > maxWordLength {
		return nil, models.ErrWordTooLong
	}

	profile, err := o.repos.Profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	native, target := o.languages(profile)

	word, err := o.repos.Words.FindByText(ctx, target, text)
	switch {
	case err == nil && len(word.Variants(native)) > 0:
	case err == nil || errors.Is(err, models.ErrNotFound):
		if word, err = o.translateWord(ctx, word, text, target, native); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	item := models.NewVocabularyItem(profileID, word.ID)
	if err := o.repos.Vocabulary.Create(ctx, item); err != nil {
		return nil, err
	}
	item.Word = word

	o.log.WithFields(logrus.Fields{"profile_id": profileID, "word_id": word.ID}).Info("word added to vocabulary")
	return item, nil
}

// translateWord asks the translator for native variants and stores them on
// word, creating the dictionary entry when word is nil.
func (o *Orchestrator) translateWord(ctx context.Context, word *models.Word, text, target, native string) (*models.Word, error) {
	if o.translator == nil {
		return nil, models.ErrNoTranslation
	}
	result, err := o.translator.Translate(ctx, text, target, native)
	if err != nil {
		return nil, fmt.Errorf("failed to translate %q: %w", text, err)
	}
	if len(result.Translations) == 0 {
		return nil, models.ErrNoTranslation
	}

	if word == nil {
		word = &models.Word{Text: text, Language: target}
	}
	for i, t := range result.Translations {
		tr := models.Translation{Language: native, Text: t, Position: i}
		if i < len(result.Examples) {
			tr.Example = result.Examples[i].Source
		}
		word.Translations = append(word.Translations, tr)
	}
	if _, err := o.repos.Words.Upsert(ctx, word); err != nil {
		return nil, err
	}
	return word, nil
}

// Progress counts the learner's words by status and those due for review
func (o *Orchestrator) Progress(ctx context.Context, profileID int64) (*Progress, error) {
	counts, err := o.repos.Vocabulary.CountByStatus(ctx, profileID)
	if err != nil {
		return nil, err
	}
	due, err := o.repos.Vocabulary.CountDue(ctx, profileID, o.now())
	if err != nil {
		return nil, err
	}

	p := &Progress{ByStatus: counts, Due: due}
	for _, n := range counts {
		p.Total += n
	}
	return p, nil
}
