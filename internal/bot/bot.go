package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/example/lexitutor/internal/config"
	"github.com/example/lexitutor/internal/lesson"
	"github.com/example/lexitutor/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Engine is the learning engine the bot talks to
type Engine interface {
	EnsureProfile(ctx context.Context, userID int64) (*models.LearnerProfile, bool, error)
	AddWord(ctx context.Context, profileID int64, text string) (*models.VocabularyItem, error)
	Progress(ctx context.Context, profileID int64) (*lesson.Progress, error)
	StartLesson(ctx context.Context, profileID int64, count int) (*models.Lesson, []models.VocabularyItem, error)
	GenerateNextQuestion(ctx context.Context, l *models.Lesson, selected []models.VocabularyItem) (*lesson.Question, error)
	ProcessAnswer(ctx context.Context, lessonID int64, q *lesson.Question, userAnswer string) (*lesson.AnswerResult, error)
	CompleteLesson(ctx context.Context, lessonID int64) (*models.LessonSummary, error)
}

// CachePurger drops expired model responses (admin /purge)
type CachePurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// sender is the part of tgbotapi.BotAPI the bot uses
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// chatSession is the in-memory lesson state of one chat
type chatSession struct {
	mu       sync.Mutex
	lesson   *models.Lesson
	words    []models.VocabularyItem
	question *lesson.Question
}

func (s *chatSession) reset() {
	s.lesson = nil
	s.words = nil
	s.question = nil
}

// Bot is the Telegram front end of the learning engine
type Bot struct {
	api    sender
	engine Engine
	purger CachePurger
	admins map[int64]bool
	log    logrus.FieldLogger

	mu       sync.Mutex
	sessions map[int64]*chatSession
}

// New connects to Telegram. purger may be nil.
func New(cfg config.TelegramConfig, engine Engine, purger CachePurger, log logrus.FieldLogger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is not set")
	}
	admins, err := parseAdminIDs(cfg.AdminIDs)
	if err != nil {
		return nil, err
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	log.WithField("username", api.Self.UserName).Info("authorized on telegram")

	return newBot(api, engine, purger, admins, log), nil
}

func newBot(api sender, engine Engine, purger CachePurger, admins map[int64]bool, log logrus.FieldLogger) *Bot {
	if admins == nil {
		admins = map[int64]bool{}
	}
	return &Bot{
		api:      api,
		engine:   engine,
		purger:   purger,
		admins:   admins,
		log:      log.WithField("component", "bot"),
		sessions: make(map[int64]*chatSession),
	}
}

// Run receives updates until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

// SendReminder tells a user how many words are due for review
func (b *Bot) SendReminder(userID int64, dueCount int) error {
	// Private chat IDs match user IDs
	msg := tgbotapi.NewMessage(userID, fmt.Sprintf(
		"У вас %d %s для повторения! Нажмите «Начать урок», чтобы повторить.",
		dueCount, wordForm(dueCount)))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "📚 Начать урок", CallbackData: callbackLesson}},
	})
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder to %d: %w", userID, err)
	}
	return nil
}

// session returns the chat's session, creating an empty one
func (b *Bot) session(chatID int64) *chatSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[chatID]
	if !ok {
		s = &chatSession{}
		b.sessions[chatID] = s
	}
	return s
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.admins[userID]
}

func (b *Bot) send(chatID int64, text string, keyboard [][]MenuButton) {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(keyboard) > 0 {
		msg.ReplyMarkup = createKeyboard(keyboard)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}

// parseAdminIDs parses a comma separated list of user IDs
func parseAdminIDs(raw string) (map[int64]bool, error) {
	admins := make(map[int64]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q: %w", part, err)
		}
		admins[id] = true
	}
	return admins, nil
}

// wordForm picks the Russian plural of "слово" for n
func wordForm(n int) string {
	n %= 100
	if n >= 11 && n <= 14 {
		return "слов"
	}
	switch n % 10 {
	case 1:
		return "слово"
	case 2, 3, 4:
		return "слова"
	}
	return "слов"
}
