package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/example/lexitutor/internal/lesson"
	"github.com/example/lexitutor/pkg/models"
)

const answerPrefix = "ans:"

var languageNames = map[string]string{
	"en": "английский",
	"ru": "русский",
	"de": "немецкий",
	"fr": "французский",
	"es": "испанский",
	"it": "итальянский",
}

var statusNames = map[models.Status]string{
	models.StatusNew:       "новое",
	models.StatusLearning:  "изучается",
	models.StatusReviewing: "на повторении",
	models.StatusMastered:  "выучено",
}

// encodeAnswer builds the callback data of an answer button. The item ID
// lets stale buttons from earlier questions be recognized.
func encodeAnswer(itemID int64, option int) string {
	return fmt.Sprintf("%s%d:%d", answerPrefix, itemID, option)
}

func decodeAnswer(data string) (itemID int64, option int, ok bool) {
	rest, found := strings.CutPrefix(data, answerPrefix)
	if !found {
		return 0, 0, false
	}
	idPart, optPart, found := strings.Cut(rest, ":")
	if !found {
		return 0, 0, false
	}
	itemID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	option, err = strconv.Atoi(optPart)
	if err != nil || option < 0 {
		return 0, 0, false
	}
	return itemID, option, true
}

func formatQuestion(q *lesson.Question) string {
	var sb strings.Builder
	if name, ok := languageNames[q.TargetLanguage]; ok {
		fmt.Fprintf(&sb, "Переведите на %s язык:\n\n%s", name, q.Text)
	} else {
		fmt.Fprintf(&sb, "Переведите на язык %s:\n\n%s", q.TargetLanguage, q.Text)
	}
	if q.TestType == models.TestTypeMultipleChoice {
		sb.WriteString("\n\nВыберите вариант ответа.")
	} else {
		sb.WriteString("\n\nНапишите перевод сообщением.")
	}
	return sb.String()
}

func formatResult(r *lesson.AnswerResult) string {
	var sb strings.Builder
	switch {
	case r.IsCorrect && r.Method == models.ValidationFuzzy:
		fmt.Fprintf(&sb, "✅ Верно, но с опечаткой. Правильно: %s", r.CorrectAnswer)
	case r.IsCorrect:
		sb.WriteString("✅ Верно!")
	default:
		fmt.Fprintf(&sb, "❌ Неверно. Правильный ответ: %s", r.CorrectAnswer)
	}
	// Only the model explains its verdicts
	if r.Method == models.ValidationModel && r.Feedback != "" {
		fmt.Fprintf(&sb, "\n💬 %s", r.Feedback)
	}
	if name, ok := statusNames[r.Status]; ok {
		fmt.Fprintf(&sb, "\nСтатус слова: %s", name)
	}
	return sb.String()
}

func formatProgress(p *lesson.Progress) string {
	return fmt.Sprintf("📊 Ваш прогресс\n\n"+
		"Всего слов: %d\n"+
		"🆕 Новые: %d\n"+
		"📖 Изучаются: %d\n"+
		"🔁 На повторении: %d\n"+
		"🏆 Выучены: %d\n\n"+
		"⏰ К повторению сейчас: %d",
		p.Total,
		p.ByStatus[models.StatusNew],
		p.ByStatus[models.StatusLearning],
		p.ByStatus[models.StatusReviewing],
		p.ByStatus[models.StatusMastered],
		p.Due)
}

func formatSummary(s *models.LessonSummary) string {
	return fmt.Sprintf("🎉 Урок завершён!\n\n"+
		"Слов: %d\n"+
		"Правильных ответов: %d\n"+
		"Ошибок: %d\n"+
		"Точность: %.0f%%\n"+
		"Время: %s",
		s.WordsCount, s.CorrectAnswers, s.IncorrectAnswers, s.Accuracy, s.Duration.Round(time.Second))
}

// formatAdded confirms a new vocabulary item with its native translations
func formatAdded(item *models.VocabularyItem, native string) string {
	if item.Word == nil {
		return "Слово добавлено в словарь."
	}
	variants := item.Word.Variants(native)
	if len(variants) == 0 {
		variants = lo.Map(item.Word.Translations, func(t models.Translation, _ int) string { return t.Text })
	}
	text := fmt.Sprintf("Слово «%s» добавлено в словарь.", item.Word.Text)
	if len(variants) > 0 {
		text += "\nПеревод: " + strings.Join(variants, ", ")
	}
	return text
}
