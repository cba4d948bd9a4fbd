package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lexitutor/internal/config"
	"github.com/example/lexitutor/internal/logger"
	"github.com/example/lexitutor/pkg/models"
)

type fakeCompleter struct {
	responses []string
	errs      []error
	requests  []openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	n := len(f.requests)
	f.requests = append(f.requests, req)
	if n < len(f.errs) && f.errs[n] != nil {
		return openai.ChatCompletionResponse{}, f.errs[n]
	}
	content := ""
	if n < len(f.responses) {
		content = f.responses[n]
	} else if len(f.responses) > 0 {
		content = f.responses[len(f.responses)-1]
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: content}}},
	}, nil
}

func newTestClient(api chatCompleter, maxRetries int) *Client {
	c := newClient(api, config.OpenAIConfig{Model: "test-model", MaxRetries: maxRetries}, logger.Discard())
	c.retryDelay = time.Millisecond
	return c
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(config.OpenAIConfig{}, logger.Discard())
	assert.Error(t, err)

	c, err := New(config.OpenAIConfig{APIKey: "sk-test", Model: "m"}, logger.Discard())
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestTranslate(t *testing.T) {
	api := &fakeCompleter{responses: []string{
		"```json\n" + `{"translations": ["дом", " Дом ", "здание", ""], "examples": [{"source": "my house", "target": "мой дом"}], "word_forms": {"plural": "houses"}}` + "\n```",
	}}
	c := newTestClient(api, 0)

	result, err := c.Translate(context.Background(), " house ", "en", "ru")
	require.NoError(t, err)
	assert.Equal(t, []string{"дом", "здание"}, result.Translations)
	assert.Equal(t, []models.Example{{Source: "my house", Target: "мой дом"}}, result.Examples)
	assert.Equal(t, "houses", result.WordForms["plural"])

	require.Len(t, api.requests, 1)
	assert.Equal(t, "test-model", api.requests[0].Model)
	assert.Contains(t, api.requests[0].Messages[1].Content, `"house"`)
}

func TestTranslateWithoutTranslations(t *testing.T) {
	c := newTestClient(&fakeCompleter{responses: []string{`{"translations": []}`}}, 0)
	_, err := c.Translate(context.Background(), "qwzx", "en", "ru")
	assert.ErrorIs(t, err, models.ErrNoTranslation)
}

func TestInputValidationSkipsRequest(t *testing.T) {
	api := &fakeCompleter{}
	c := newTestClient(api, 3)
	ctx := context.Background()

	_, err := c.Translate(ctx, "   ", "en", "ru")
	assert.ErrorIs(t, err, models.ErrEmptyWord)
	_, err = c.Translate(ctx, strings.Repeat("a", MaxWordLength+1), "en", "ru")
	assert.ErrorIs(t, err, models.ErrWordTooLong)
	_, err = c.Validate(ctx, ValidationRequest{Question: "дом", Expected: "house"})
	assert.ErrorIs(t, err, models.ErrEmptyAnswer)
	_, err = c.Validate(ctx, ValidationRequest{Question: "дом", Expected: "house", UserAnswer: strings.Repeat("я", MaxAnswerLength+1)})
	assert.ErrorIs(t, err, models.ErrAnswerTooLong)

	assert.Empty(t, api.requests)
}

func TestValidate(t *testing.T) {
	api := &fakeCompleter{responses: []string{`{"is_correct": true, "comment": "синоним"}`}}
	c := newTestClient(api, 0)

	result, err := c.Validate(context.Background(), ValidationRequest{
		Question: "дом", Expected: "house", UserAnswer: "home", SourceLanguage: "ru", TargetLanguage: "en",
	})
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	assert.Equal(t, "синоним", result.Comment)
}

func TestRetriesTransientFailures(t *testing.T) {
	api := &fakeCompleter{
		errs:      []error{&openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable}, errors.New("connection reset")},
		responses: []string{"", "", `{"is_correct": false, "comment": ""}`},
	}
	c := newTestClient(api, 2)

	result, err := c.Validate(context.Background(), ValidationRequest{Question: "q", Expected: "e", UserAnswer: "a"})
	require.NoError(t, err)
	assert.False(t, result.IsCorrect)
	assert.Len(t, api.requests, 3)
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	api := &fakeCompleter{errs: []error{&openai.APIError{HTTPStatusCode: http.StatusUnauthorized}}}
	c := newTestClient(api, 2)

	_, err := c.Translate(context.Background(), "house", "en", "ru")
	assert.Error(t, err)
	assert.Len(t, api.requests, 1)
}

func TestRetriesAreBounded(t *testing.T) {
	fail := &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}
	api := &fakeCompleter{errs: []error{fail, fail, fail, fail}}
	c := newTestClient(api, 1)

	_, err := c.Translate(context.Background(), "house", "en", "ru")
	assert.Error(t, err)
	assert.Len(t, api.requests, 2)
}

func TestMalformedResponse(t *testing.T) {
	c := newTestClient(&fakeCompleter{responses: []string{"not json"}}, 0)
	_, err := c.Validate(context.Background(), ValidationRequest{Question: "q", Expected: "e", UserAnswer: "a"})
	assert.Error(t, err)
}
