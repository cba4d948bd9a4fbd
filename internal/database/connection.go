package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/lexitutor/internal/config"
)

// Open establishes a connection to the configured database
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.Driver == "sqlite3" {
		// Create data directory if it doesn't exist
		if dir := sqliteDir(cfg.DSN); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers
		db.SetMaxIdleConns(1)
	}

	return db, nil
}

func sqliteDir(dsn string) string {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return ""
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return ""
	}
	return dir
}

// Migrate creates necessary tables if they don't exist
func Migrate(db *sqlx.DB) error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == "postgres" {
		pk = "BIGSERIAL PRIMARY KEY"
	}

	for _, stmt := range schema {
		if _, err := db.Exec(strings.ReplaceAll(stmt.sql, "{{pk}}", pk)); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.name, err)
		}
	}
	return nil
}

var schema = []struct {
	name string
	sql  string
}{
	{"profiles table", `
		CREATE TABLE IF NOT EXISTS profiles (
			id {{pk}},
			user_id BIGINT NOT NULL UNIQUE,
			native_language TEXT NOT NULL,
			target_language TEXT NOT NULL,
			level TEXT,
			words_per_lesson INTEGER NOT NULL DEFAULT 10,
			reminders_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"words table", `
		CREATE TABLE IF NOT EXISTS words (
			id {{pk}},
			text TEXT NOT NULL,
			normalized TEXT NOT NULL,
			language TEXT NOT NULL,
			level TEXT,
			frequency_rank INTEGER,
			part_of_speech TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			UNIQUE(language, normalized)
		)`},
	{"words rank index", `
		CREATE INDEX IF NOT EXISTS idx_words_rank ON words(language, frequency_rank)`},
	{"translations table", `
		CREATE TABLE IF NOT EXISTS translations (
			id {{pk}},
			word_id BIGINT NOT NULL REFERENCES words(id) ON DELETE CASCADE,
			language TEXT NOT NULL,
			text TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			example TEXT NOT NULL DEFAULT '',
			UNIQUE(word_id, language, text)
		)`},
	{"vocabulary_items table", `
		CREATE TABLE IF NOT EXISTS vocabulary_items (
			id {{pk}},
			profile_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			word_id BIGINT NOT NULL REFERENCES words(id) ON DELETE CASCADE,
			status TEXT NOT NULL,
			last_reviewed_at TIMESTAMP,
			next_review_at TIMESTAMP,
			review_interval INTEGER NOT NULL DEFAULT 0,
			easiness_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE(profile_id, word_id)
		)`},
	{"attempt_statistics table", `
		CREATE TABLE IF NOT EXISTS attempt_statistics (
			id {{pk}},
			vocabulary_item_id BIGINT NOT NULL REFERENCES vocabulary_items(id) ON DELETE CASCADE,
			direction TEXT NOT NULL,
			test_type TEXT NOT NULL,
			correct_count INTEGER NOT NULL DEFAULT 0,
			total_attempts INTEGER NOT NULL DEFAULT 0,
			total_correct INTEGER NOT NULL DEFAULT 0,
			total_errors INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE(vocabulary_item_id, direction, test_type)
		)`},
	{"lessons table", `
		CREATE TABLE IF NOT EXISTS lessons (
			id {{pk}},
			profile_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			words_count INTEGER NOT NULL,
			correct_answers INTEGER NOT NULL DEFAULT 0,
			incorrect_answers INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP
		)`},
	// Не больше одного активного урока на профиль
	{"active lesson index", `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_lessons_active ON lessons(profile_id) WHERE completed_at IS NULL`},
	{"lesson_attempts table", `
		CREATE TABLE IF NOT EXISTS lesson_attempts (
			id {{pk}},
			lesson_id BIGINT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
			vocabulary_item_id BIGINT NOT NULL REFERENCES vocabulary_items(id) ON DELETE CASCADE,
			direction TEXT NOT NULL,
			test_type TEXT NOT NULL,
			user_answer TEXT NOT NULL,
			correct_answer TEXT NOT NULL,
			is_correct BOOLEAN NOT NULL,
			validation_method TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`},
	{"translation_cache table", `
		CREATE TABLE IF NOT EXISTS translation_cache (
			id {{pk}},
			word TEXT NOT NULL,
			source_language TEXT NOT NULL,
			target_language TEXT NOT NULL,
			translation_data TEXT NOT NULL,
			expires_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE(word, source_language, target_language)
		)`},
	{"validation_cache table", `
		CREATE TABLE IF NOT EXISTS validation_cache (
			id {{pk}},
			word_id BIGINT NOT NULL,
			direction TEXT NOT NULL,
			expected TEXT NOT NULL,
			user_answer TEXT NOT NULL,
			is_correct BOOLEAN NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE(word_id, direction, expected, user_answer)
		)`},
}
