package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Learning  LearningConfig  `mapstructure:"learning"`
	Database  DatabaseConfig  `mapstructure:"database"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
}

// LearningConfig holds the thresholds of the learning engine
type LearningConfig struct {
	WordsPerLesson         int     `mapstructure:"words_per_lesson"`
	MasteredThreshold      int     `mapstructure:"mastered_threshold"`
	ChoiceToInputThreshold int     `mapstructure:"choice_to_input_threshold"`
	FuzzyMatchThreshold    int     `mapstructure:"fuzzy_match_threshold"`
	InputRatio             float64 `mapstructure:"input_ratio"`
	ReviewingCorrectTotal  int     `mapstructure:"learning_to_reviewing_correct"`
	MaxAnswerLength        int     `mapstructure:"max_answer_length"`
	NativeLanguage         string  `mapstructure:"native_language"`
	TargetLanguage         string  `mapstructure:"target_language"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite3 or postgres
	DSN    string `mapstructure:"dsn"`
}

// OpenAIConfig holds language model client configuration
type OpenAIConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// TelegramConfig holds chat transport configuration
type TelegramConfig struct {
	Token    string `mapstructure:"token"`
	AdminIDs string `mapstructure:"admin_ids"` // Comma separated
}

// CacheConfig holds model cache configuration
type CacheConfig struct {
	TranslationTTL  time.Duration `mapstructure:"translation_ttl"` // 0 = never expires
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	ReminderInterval time.Duration `mapstructure:"reminder_interval"`
	StartHour        int           `mapstructure:"start_hour"` // Reminders are sent from StartHour
	EndHour          int           `mapstructure:"end_hour"`   // to EndHour inclusive, UTC
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from .env, config files and environment variables
func Load() (*Config, error) {
	// .env is optional, real environment always wins
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with only default values applied
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults are static and always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("learning.words_per_lesson", 10)
	v.SetDefault("learning.mastered_threshold", 30)
	v.SetDefault("learning.choice_to_input_threshold", 3)
	v.SetDefault("learning.fuzzy_match_threshold", 2)
	v.SetDefault("learning.input_ratio", 0.3)
	v.SetDefault("learning.learning_to_reviewing_correct", 5)
	v.SetDefault("learning.max_answer_length", 200)
	v.SetDefault("learning.native_language", "ru")
	v.SetDefault("learning.target_language", "en")

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "data/lexitutor.db")

	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", 20*time.Second)
	v.SetDefault("openai.max_retries", 2)
	v.SetDefault("openai.requests_per_second", 2.0)
	// Keys must be registered for AutomaticEnv to see them during Unmarshal
	v.SetDefault("openai.api_key", "")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_ids", "")

	v.SetDefault("cache.translation_ttl", time.Duration(0))
	v.SetDefault("cache.cleanup_interval", time.Hour)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.reminder_interval", time.Hour)
	v.SetDefault("scheduler.start_hour", 8)
	v.SetDefault("scheduler.end_hour", 22)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate checks that thresholds are usable
func (c *Config) Validate() error {
	l := c.Learning
	switch {
	case l.WordsPerLesson <= 0:
		return fmt.Errorf("learning.words_per_lesson must be positive, got %d", l.WordsPerLesson)
	case l.MasteredThreshold <= 0:
		return fmt.Errorf("learning.mastered_threshold must be positive, got %d", l.MasteredThreshold)
	case l.ChoiceToInputThreshold <= 0:
		return fmt.Errorf("learning.choice_to_input_threshold must be positive, got %d", l.ChoiceToInputThreshold)
	case l.FuzzyMatchThreshold < 0:
		return fmt.Errorf("learning.fuzzy_match_threshold must not be negative, got %d", l.FuzzyMatchThreshold)
	case l.InputRatio < 0 || l.InputRatio > 1:
		return fmt.Errorf("learning.input_ratio must be within [0, 1], got %v", l.InputRatio)
	case l.ReviewingCorrectTotal <= 0:
		return fmt.Errorf("learning.learning_to_reviewing_correct must be positive, got %d", l.ReviewingCorrectTotal)
	case l.MaxAnswerLength <= 0:
		return fmt.Errorf("learning.max_answer_length must be positive, got %d", l.MaxAnswerLength)
	}
	if c.Scheduler.StartHour < 0 || c.Scheduler.StartHour > 23 || c.Scheduler.EndHour < 0 || c.Scheduler.EndHour > 23 {
		return fmt.Errorf("scheduler hours must be within [0, 23], got %d-%d", c.Scheduler.StartHour, c.Scheduler.EndHour)
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}
