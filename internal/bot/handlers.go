package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/example/lexitutor/pkg/models"
)

// Callback data of menu buttons
const (
	callbackLesson = "lesson"
	callbackStats  = "stats"
	callbackHelp   = "help"
	callbackMenu   = "main_menu"
)

// MainMenuButtons returns the buttons for the main menu
func MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "📚 Начать урок", CallbackData: callbackLesson}},
		{{Text: "📊 Статистика", CallbackData: callbackStats}},
		{{Text: "❓ Помощь", CallbackData: callbackHelp}},
	}
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil {
		return
	}
	chatID, userID := message.Chat.ID, message.From.ID

	if !message.IsCommand() {
		b.handleTextAnswer(ctx, chatID, message.Text)
		return
	}

	switch message.Command() {
	case "start":
		b.handleStart(ctx, chatID, userID)
	case "help":
		b.sendHelp(chatID)
	case "menu":
		b.send(chatID, "Главное меню:", MainMenuButtons())
	case "add":
		b.handleAddWord(ctx, chatID, userID, message.CommandArguments())
	case "lesson":
		s := b.session(chatID)
		s.mu.Lock()
		defer s.mu.Unlock()
		b.startLesson(ctx, chatID, userID, s)
	case "stats":
		b.handleStats(ctx, chatID, userID)
	case "purge":
		b.handlePurge(ctx, chatID, userID)
	default:
		b.send(chatID, "Неизвестная команда. Используйте /help, чтобы увидеть список команд.", MainMenuButtons())
	}
}

// handleCallbackQuery handles callback queries from buttons
func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.WithError(err).Warn("failed to answer callback")
	}
	if callback.Message == nil || callback.Message.Chat == nil || callback.From == nil {
		return
	}
	chatID, userID := callback.Message.Chat.ID, callback.From.ID

	switch callback.Data {
	case callbackMenu:
		b.send(chatID, "Главное меню:", MainMenuButtons())
	case callbackLesson:
		s := b.session(chatID)
		s.mu.Lock()
		defer s.mu.Unlock()
		b.startLesson(ctx, chatID, userID, s)
	case callbackStats:
		b.handleStats(ctx, chatID, userID)
	case callbackHelp:
		b.sendHelp(chatID)
	default:
		itemID, option, ok := decodeAnswer(callback.Data)
		if !ok {
			b.log.WithField("data", callback.Data).Warn("unknown callback")
			return
		}
		b.handleChoice(ctx, chatID, userID, itemID, option)
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID, userID int64) {
	_, created, err := b.engine.EnsureProfile(ctx, userID)
	if err != nil {
		b.fail(chatID, err, "ensure profile")
		return
	}

	greeting := "👋 С возвращением!"
	if created {
		greeting = "👋 Добро пожаловать!"
	}
	text := greeting + "\n\n" +
		"Я помогу вам учить слова с помощью интервального повторения.\n\n" +
		"🔹 Как это работает:\n" +
		"1. Добавьте слова командой /add <слово>\n" +
		"2. Проходите уроки командой /lesson\n" +
		"3. Получайте напоминания, когда пора повторить\n" +
		"4. Следите за прогрессом командой /stats"
	b.send(chatID, text, MainMenuButtons())
}

func (b *Bot) sendHelp(chatID int64) {
	text := "📖 Справка\n\n" +
		"/start - Запустить бота\n" +
		"/add <слово> - Добавить слово в словарь\n" +
		"/lesson - Начать или продолжить урок\n" +
		"/stats - Показать прогресс\n" +
		"/menu - Главное меню\n" +
		"/help - Показать эту справку\n\n" +
		"💡 В уроке выбирайте вариант ответа кнопкой или пишите перевод сообщением."
	b.send(chatID, text, [][]MenuButton{
		{{Text: "⬅️ Вернуться в меню", CallbackData: callbackMenu}},
	})
}

func (b *Bot) handleAddWord(ctx context.Context, chatID, userID int64, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		b.send(chatID, "Укажите слово после команды, например: /add apple", nil)
		return
	}

	profile, _, err := b.engine.EnsureProfile(ctx, userID)
	if err != nil {
		b.fail(chatID, err, "ensure profile")
		return
	}

	item, err := b.engine.AddWord(ctx, profile.ID, text)
	switch {
	case errors.Is(err, models.ErrWordTooLong):
		b.send(chatID, "Слово слишком длинное.", nil)
	case errors.Is(err, models.ErrDuplicate):
		b.send(chatID, fmt.Sprintf("Слово «%s» уже есть в вашем словаре.", text), nil)
	case errors.Is(err, models.ErrNoTranslation):
		b.send(chatID, fmt.Sprintf("Не удалось найти перевод для «%s».", text), nil)
	case err != nil:
		b.fail(chatID, err, "add word")
	default:
		b.send(chatID, formatAdded(item, profile.NativeLanguage), [][]MenuButton{
			{{Text: "📚 Начать урок", CallbackData: callbackLesson}},
		})
	}
}

func (b *Bot) handleStats(ctx context.Context, chatID, userID int64) {
	profile, _, err := b.engine.EnsureProfile(ctx, userID)
	if err != nil {
		b.fail(chatID, err, "ensure profile")
		return
	}
	progress, err := b.engine.Progress(ctx, profile.ID)
	if err != nil {
		b.fail(chatID, err, "load progress")
		return
	}
	b.send(chatID, formatProgress(progress), MainMenuButtons())
}

func (b *Bot) handlePurge(ctx context.Context, chatID, userID int64) {
	if !b.isAdmin(userID) {
		b.send(chatID, "Эта команда доступна только администраторам.", nil)
		return
	}
	if b.purger == nil {
		b.send(chatID, "Кэш не настроен.", nil)
		return
	}
	n, err := b.purger.PurgeExpired(ctx)
	if err != nil {
		b.fail(chatID, err, "purge cache")
		return
	}
	b.send(chatID, fmt.Sprintf("Удалено записей кэша: %d", n), nil)
}

// startLesson resumes the active lesson or starts a new one. s.mu must be held.
func (b *Bot) startLesson(ctx context.Context, chatID, userID int64, s *chatSession) {
	s.reset()

	profile, _, err := b.engine.EnsureProfile(ctx, userID)
	if err != nil {
		b.fail(chatID, err, "ensure profile")
		return
	}
	l, words, err := b.engine.StartLesson(ctx, profile.ID, profile.WordsPerLesson)
	if err != nil {
		b.fail(chatID, err, "start lesson")
		return
	}
	if l == nil {
		b.send(chatID, "В вашем словаре пока нет слов для урока. Добавьте слово командой /add <слово>.", nil)
		return
	}

	s.lesson, s.words = l, words
	b.log.WithFields(logrus.Fields{"chat_id": chatID, "lesson_id": l.ID, "words": len(words)}).Debug("lesson session started")
	b.askNext(ctx, chatID, s)
}

// askNext sends the next question or completes the lesson. s.mu must be held.
func (b *Bot) askNext(ctx context.Context, chatID int64, s *chatSession) {
	q, err := b.engine.GenerateNextQuestion(ctx, s.lesson, s.words)
	if err != nil {
		b.fail(chatID, err, "generate question")
		return
	}
	if q == nil {
		b.finishLesson(ctx, chatID, s)
		return
	}
	s.question = q

	var keyboard [][]MenuButton
	if q.TestType == models.TestTypeMultipleChoice {
		for i, option := range q.Options {
			keyboard = append(keyboard, []MenuButton{{Text: option, CallbackData: encodeAnswer(q.VocabularyItemID, i)}})
		}
	}
	b.send(chatID, formatQuestion(q), keyboard)
}

func (b *Bot) finishLesson(ctx context.Context, chatID int64, s *chatSession) {
	lessonID := s.lesson.ID
	s.reset()

	summary, err := b.engine.CompleteLesson(ctx, lessonID)
	if errors.Is(err, models.ErrLessonCompleted) {
		b.send(chatID, "Этот урок уже завершён.", MainMenuButtons())
		return
	}
	if err != nil {
		b.fail(chatID, err, "complete lesson")
		return
	}
	b.send(chatID, formatSummary(summary), MainMenuButtons())
}

func (b *Bot) handleChoice(ctx context.Context, chatID, userID, itemID int64, option int) {
	s := b.session(chatID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.question == nil {
		b.send(chatID, "Сессия урока была прервана, продолжаем.", nil)
		b.startLesson(ctx, chatID, userID, s)
		return
	}
	q := s.question
	if q.VocabularyItemID != itemID || option < 0 || option >= len(q.Options) {
		b.send(chatID, "Этот вопрос уже неактуален.", nil)
		return
	}
	b.answer(ctx, chatID, s, q.Options[option])
}

func (b *Bot) handleTextAnswer(ctx context.Context, chatID int64, text string) {
	s := b.session(chatID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.question == nil {
		b.send(chatID, "Чтобы начать урок, отправьте /lesson.", MainMenuButtons())
		return
	}
	b.answer(ctx, chatID, s, text)
}

// answer grades the current question and moves on. s.mu must be held.
func (b *Bot) answer(ctx context.Context, chatID int64, s *chatSession, userAnswer string) {
	result, err := b.engine.ProcessAnswer(ctx, s.lesson.ID, s.question, userAnswer)
	switch {
	case errors.Is(err, models.ErrEmptyAnswer):
		b.send(chatID, "Ответ не может быть пустым.", nil)
		return
	case errors.Is(err, models.ErrAnswerTooLong):
		b.send(chatID, "Ответ слишком длинный.", nil)
		return
	case errors.Is(err, models.ErrLessonCompleted):
		s.reset()
		b.send(chatID, "Этот урок уже завершён. Начните новый командой /lesson.", MainMenuButtons())
		return
	case err != nil:
		b.fail(chatID, err, "process answer")
		return
	}

	s.question = nil
	b.send(chatID, formatResult(result), nil)
	b.askNext(ctx, chatID, s)
}

// fail logs err and tells the user something went wrong
func (b *Bot) fail(chatID int64, err error, action string) {
	b.log.WithError(err).WithFields(logrus.Fields{"chat_id": chatID, "action": action}).Error("request failed")
	b.send(chatID, "Произошла ошибка. Попробуйте позже.", nil)
}
