// Package ai talks to an OpenAI-compatible chat completion API to translate
// words and judge free-text answers.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/example/lexitutor/internal/config"
	"github.com/example/lexitutor/pkg/models"
)

// Input limits, in runes
const (
	MaxWordLength   = 100
	MaxAnswerLength = 500
)

const (
	translateSystemPrompt = "Ты - помощник для изучения иностранных языков. Переводи слова точно и отвечай только JSON объектом вида " +
		`{"translations": ["..."], "examples": [{"source": "...", "target": "..."}], "word_forms": {"form": "value"}}.`
	validateSystemPrompt = "Ты - преподаватель иностранного языка. Оцени, является ли ответ ученика допустимым переводом. " +
		`Отвечай только JSON объектом вида {"is_correct": true, "comment": "короткое пояснение"}.`
)

var codeFence = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// ValidationRequest carries everything the model needs to judge an answer
type ValidationRequest struct {
	Question       string
	Expected       string
	UserAnswer     string
	SourceLanguage string
	TargetLanguage string
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client is the language model client
type Client struct {
	api        chatCompleter
	model      string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	limiter    *rate.Limiter
	log        logrus.FieldLogger
}

// ErrNoAPIKey is returned by New when the model is not configured
var ErrNoAPIKey = errors.New("openai.api_key is not set")

// New creates a client for the configured endpoint
func New(cfg config.OpenAIConfig, log logrus.FieldLogger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return newClient(openai.NewClientWithConfig(clientConfig), cfg, log), nil
}

func newClient(api chatCompleter, cfg config.OpenAIConfig, log logrus.FieldLogger) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		api:        api,
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Second,
		limiter:    rate.NewLimiter(limit, 1),
		log:        log,
	}
}

// Translate asks the model for translations of word from src to dst
func (c *Client) Translate(ctx context.Context, word, src, dst string) (*models.TranslationResult, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, models.ErrEmptyWord
	}
	if utf8.RuneCountInString(word) > MaxWordLength {
		return nil, models.ErrWordTooLong
	}

	prompt := fmt.Sprintf("Переведи слово %q с языка %q на язык %q. Дай до пяти вариантов перевода, начиная с самого употребительного, "+
		"два коротких примера и основные формы слова.", word, src, dst)

	content, err := c.complete(ctx, translateSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to translate %q: %w", word, err)
	}

	var result models.TranslationResult
	if err := decodeJSON(content, &result); err != nil {
		return nil, fmt.Errorf("failed to parse translation for %q: %w", word, err)
	}
	result.Translations = cleanTranslations(result.Translations)
	if len(result.Translations) == 0 {
		return nil, models.ErrNoTranslation
	}
	return &result, nil
}

// Validate asks the model whether the user's answer is acceptable
func (c *Client) Validate(ctx context.Context, req ValidationRequest) (*models.ValidationResult, error) {
	answer := strings.TrimSpace(req.UserAnswer)
	if answer == "" {
		return nil, models.ErrEmptyAnswer
	}
	if utf8.RuneCountInString(answer) > MaxAnswerLength {
		return nil, models.ErrAnswerTooLong
	}

	prompt := fmt.Sprintf("Вопрос (%s): %q\nОжидаемый ответ (%s): %q\nОтвет ученика: %q",
		req.SourceLanguage, req.Question, req.TargetLanguage, req.Expected, answer)

	content, err := c.complete(ctx, validateSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to validate answer: %w", err)
	}

	var result models.ValidationResult
	if err := decodeJSON(content, &result); err != nil {
		return nil, fmt.Errorf("failed to parse validation: %w", err)
	}
	return &result, nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.log.WithFields(logrus.Fields{"attempt": attempt, "error": lastErr}).Warn("retrying model request")
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * c.retryDelay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		content, err := c.completeOnce(ctx, req)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return "", lastErr
}

func (c *Client) completeOnce(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	c.log.WithFields(logrus.Fields{
		"latency_ms": time.Since(start).Milliseconds(),
		"tokens":     resp.Usage.TotalTokens,
	}).Debug("model request completed")
	return resp.Choices[0].Message.Content, nil
}

// retryable reports whether a failed request is worth repeating
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	return true
}

func decodeJSON(content string, v interface{}) error {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		if m := codeFence.FindStringSubmatch(content); len(m) > 1 {
			content = m[1]
		}
	}
	return json.Unmarshal([]byte(content), v)
}

func cleanTranslations(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
