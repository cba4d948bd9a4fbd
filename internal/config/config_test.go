package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10, cfg.Learning.WordsPerLesson)
	assert.Equal(t, 30, cfg.Learning.MasteredThreshold)
	assert.Equal(t, 3, cfg.Learning.ChoiceToInputThreshold)
	assert.Equal(t, 2, cfg.Learning.FuzzyMatchThreshold)
	assert.InDelta(t, 0.3, cfg.Learning.InputRatio, 1e-9)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, time.Duration(0), cfg.Cache.TranslationTTL)
	assert.Equal(t, time.Hour, cfg.Scheduler.ReminderInterval)
	assert.Equal(t, 8, cfg.Scheduler.StartHour)
	assert.Equal(t, 22, cfg.Scheduler.EndHour)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LEARNING_WORDS_PER_LESSON", "5")
	t.Setenv("LEARNING_INPUT_RATIO", "0.5")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Learning.WordsPerLesson)
	assert.InDelta(t, 0.5, cfg.Learning.InputRatio, 1e-9)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, 3*time.Second, cfg.OpenAI.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"zero words per lesson", func(c *Config) { c.Learning.WordsPerLesson = 0 }},
		{"negative mastered threshold", func(c *Config) { c.Learning.MasteredThreshold = -1 }},
		{"zero choice threshold", func(c *Config) { c.Learning.ChoiceToInputThreshold = 0 }},
		{"negative fuzzy threshold", func(c *Config) { c.Learning.FuzzyMatchThreshold = -1 }},
		{"ratio above one", func(c *Config) { c.Learning.InputRatio = 1.5 }},
		{"ratio below zero", func(c *Config) { c.Learning.InputRatio = -0.1 }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"reminder hour out of range", func(c *Config) { c.Scheduler.EndHour = 24 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
