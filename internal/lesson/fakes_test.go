package lesson

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/lexitutor/internal/database"
	"github.com/example/lexitutor/pkg/models"
)

// memDB is an in-memory stand-in for the SQL store
type memDB struct {
	mu sync.Mutex

	profiles map[int64]*models.LearnerProfile
	words    map[int64]*models.Word
	items    map[int64]*models.VocabularyItem
	lessons  map[int64]*models.Lesson
	attempts []models.LessonAttempt
	nextID   int64

	saveErr error
}

func newMemDB() *memDB {
	return &memDB{
		profiles: map[int64]*models.LearnerProfile{},
		words:    map[int64]*models.Word{},
		items:    map[int64]*models.VocabularyItem{},
		lessons:  map[int64]*models.Lesson{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) repositories() Repositories {
	return Repositories{
		Profiles:   memProfiles{db},
		Words:      memWords{db},
		Vocabulary: memVocabulary{db},
		Lessons:    memLessons{db},
		Answers:    db,
	}
}

// addWord stores a dictionary word with translations in lang
func (db *memDB) addWord(text, language string, rank int, lang string, translations ...string) *models.Word {
	db.mu.Lock()
	defer db.mu.Unlock()
	w := &models.Word{ID: db.id(), Text: text, Language: language, FrequencyRank: &rank}
	for i, t := range translations {
		w.Translations = append(w.Translations, models.Translation{ID: db.id(), WordID: w.ID, Language: lang, Text: t, Position: i})
	}
	db.words[w.ID] = w
	return w
}

func (db *memDB) addProfile(native, target string) *models.LearnerProfile {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := db.id()
	p := &models.LearnerProfile{ID: id, UserID: 1000 + id, NativeLanguage: native, TargetLanguage: target, WordsPerLesson: 10}
	db.profiles[p.ID] = p
	return p
}

func (db *memDB) addItem(profileID, wordID int64) *models.VocabularyItem {
	db.mu.Lock()
	defer db.mu.Unlock()
	item := models.NewVocabularyItem(profileID, wordID)
	item.ID = db.id()
	db.items[item.ID] = item
	return item
}

func copyItem(item *models.VocabularyItem, words map[int64]*models.Word) models.VocabularyItem {
	c := *item
	c.Statistics = append([]models.AttemptStatistic(nil), item.Statistics...)
	c.Word = words[item.WordID]
	return c
}

func (db *memDB) SaveAnswer(_ context.Context, lesson *models.Lesson, rec database.AnswerRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.saveErr != nil {
		return db.saveErr
	}
	stored, ok := db.lessons[lesson.ID]
	if !ok || stored.CompletedAt != nil {
		return models.ErrLessonCompleted
	}

	rec.Attempt.ID = db.id()
	db.attempts = append(db.attempts, *rec.Attempt)

	item := copyItem(rec.Item, db.words)
	item.Word = nil
	db.items[item.ID] = &item

	if rec.Attempt.IsCorrect {
		stored.CorrectAnswers++
	} else {
		stored.IncorrectAnswers++
	}
	lesson.CorrectAnswers = stored.CorrectAnswers
	lesson.IncorrectAnswers = stored.IncorrectAnswers
	return nil
}

type memProfiles struct{ db *memDB }

func (r memProfiles) GetByID(_ context.Context, id int64) (*models.LearnerProfile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.profiles[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r memProfiles) GetByUserID(_ context.Context, userID int64) (*models.LearnerProfile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.profiles {
		if p.UserID == userID {
			c := *p
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r memProfiles) Create(_ context.Context, p *models.LearnerProfile) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.profiles {
		if existing.UserID == p.UserID {
			return models.ErrDuplicate
		}
	}
	p.ID = r.db.id()
	c := *p
	r.db.profiles[p.ID] = &c
	return nil
}

type memWords struct{ db *memDB }

func (r memWords) GetByID(_ context.Context, id int64) (*models.Word, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	w, ok := r.db.words[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return w, nil
}

func (r memWords) FindByText(_ context.Context, language, text string) (*models.Word, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, w := range r.db.words {
		if w.Language == language && strings.EqualFold(w.Text, text) {
			c := *w
			c.Translations = append([]models.Translation(nil), w.Translations...)
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r memWords) Upsert(_ context.Context, word *models.Word) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	created := word.ID == 0
	if created {
		word.ID = r.db.id()
	}
	for i := range word.Translations {
		word.Translations[i].WordID = word.ID
	}
	c := *word
	c.Translations = append([]models.Translation(nil), word.Translations...)
	r.db.words[word.ID] = &c
	return created, nil
}

func (r memWords) ListFrequencyRanked(_ context.Context, language string, level *models.Level, excludeProfileID int64, limit int) ([]models.Word, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	owned := map[int64]bool{}
	for _, it := range r.db.items {
		if it.ProfileID == excludeProfileID {
			owned[it.WordID] = true
		}
	}
	var out []models.Word
	for _, w := range r.db.words {
		if w.Language != language || owned[w.ID] {
			continue
		}
		if level != nil && (w.Level == nil || *w.Level != *level) {
			continue
		}
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].FrequencyRank < *out[j].FrequencyRank })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memVocabulary struct{ db *memDB }

func (r memVocabulary) GetByID(_ context.Context, id int64) (*models.VocabularyItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	it, ok := r.db.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := copyItem(it, r.db.words)
	return &c, nil
}

func (r memVocabulary) ListActive(_ context.Context, profileID int64) ([]models.VocabularyItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.VocabularyItem
	for _, it := range r.db.items {
		if it.ProfileID == profileID && it.Status != models.StatusMastered {
			out = append(out, copyItem(it, r.db.words))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memVocabulary) Create(_ context.Context, item *models.VocabularyItem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, it := range r.db.items {
		if it.ProfileID == item.ProfileID && it.WordID == item.WordID {
			return models.ErrDuplicate
		}
	}
	item.ID = r.db.id()
	c := *item
	r.db.items[item.ID] = &c
	return nil
}

func (r memVocabulary) CountByStatus(_ context.Context, profileID int64) (map[models.Status]int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	counts := map[models.Status]int{}
	for _, it := range r.db.items {
		if it.ProfileID == profileID {
			counts[it.Status]++
		}
	}
	return counts, nil
}

func (r memVocabulary) CountDue(_ context.Context, profileID int64, now time.Time) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for _, it := range r.db.items {
		if it.ProfileID == profileID && it.Status != models.StatusMastered && it.NextReviewAt != nil && !it.NextReviewAt.After(now) {
			n++
		}
	}
	return n, nil
}

type memLessons struct{ db *memDB }

func (r memLessons) GetByID(_ context.Context, id int64) (*models.Lesson, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	l, ok := r.db.lessons[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *l
	return &c, nil
}

func (r memLessons) GetActive(_ context.Context, profileID int64) (*models.Lesson, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, l := range r.db.lessons {
		if l.ProfileID == profileID && l.CompletedAt == nil {
			c := *l
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r memLessons) Create(_ context.Context, lesson *models.Lesson) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, l := range r.db.lessons {
		if l.ProfileID == lesson.ProfileID && l.CompletedAt == nil {
			return models.ErrDuplicate
		}
	}
	lesson.ID = r.db.id()
	c := *lesson
	r.db.lessons[lesson.ID] = &c
	return nil
}

func (r memLessons) Complete(_ context.Context, id int64, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	l, ok := r.db.lessons[id]
	if !ok || l.CompletedAt != nil {
		return models.ErrLessonCompleted
	}
	l.CompletedAt = &at
	return nil
}

func (r memLessons) ListAttempts(_ context.Context, lessonID int64) ([]models.LessonAttempt, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.LessonAttempt
	for _, a := range r.db.attempts {
		if a.LessonID == lessonID {
			out = append(out, a)
		}
	}
	return out, nil
}

// seqRandom returns the queued values, then zeros
type seqRandom struct{ values []int }

func (r *seqRandom) Choose(n int) int {
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v % n
}

type fakeTranslator struct {
	calls  int
	result *models.TranslationResult
	err    error
}

func (t *fakeTranslator) Translate(context.Context, string, string, string) (*models.TranslationResult, error) {
	t.calls++
	return t.result, t.err
}

var errStorage = errors.New("storage unavailable")
