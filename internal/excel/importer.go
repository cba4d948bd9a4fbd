package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/example/lexitutor/pkg/models"
)

// WordUpserter stores dictionary words
type WordUpserter interface {
	Upsert(ctx context.Context, word *models.Word) (bool, error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath            string // Path to the Excel or CSV file
	Language            string // Language of the words
	TranslationLanguage string // Language of the translations
	WordColumn          string // Column with the word
	TranslationsColumn  string // Column with translations separated by ';'
	LevelColumn         string // Column with the CEFR level
	RankColumn          string // Column with the frequency rank
	PartOfSpeechColumn  string // Column with the part of speech
	SheetName           string // Name of the sheet to import
	StartRow            int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		Language:            "en",
		TranslationLanguage: "ru",
		WordColumn:          "A",
		TranslationsColumn:  "B",
		LevelColumn:         "C",
		RankColumn:          "D",
		PartOfSpeechColumn:  "E",
		SheetName:           "Sheet1",
		StartRow:            2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// Importer loads frequency ranked word lists into the dictionary
type Importer struct {
	words WordUpserter
	log   logrus.FieldLogger
}

// NewImporter creates an importer
func NewImporter(words WordUpserter, log logrus.FieldLogger) *Importer {
	return &Importer{words: words, log: log}
}

// ImportWords imports words from an Excel or CSV file
func (im *Importer) ImportWords(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	result := im.importRows(ctx, rows, config)
	im.log.WithFields(logrus.Fields{
		"file":    config.FilePath,
		"created": result.Created,
		"updated": result.Updated,
		"skipped": result.Skipped,
		"errors":  len(result.Errors),
	}).Info("dictionary import finished")
	return result, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (im *Importer) importRows(ctx context.Context, rows [][]string, config ImportConfig) *ImportResult {
	result := &ImportResult{Errors: make([]string, 0)}

	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		rowNum := i + 1

		word, err := parseRow(row, config)
		if errors.Is(err, errSkipRow) {
			result.Skipped++
			continue
		}
		result.TotalProcessed++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}

		created, err := im.words.Upsert(ctx, word)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	return result
}

var errSkipRow = errors.New("skipping row")

// parseRow turns a row into a word. Empty rows and section headers (a
// single non-empty first cell, e.g. "Движение,,") are skipped.
func parseRow(row []string, config ImportConfig) (*models.Word, error) {
	cell := func(column string) string {
		if column == "" {
			return ""
		}
		if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	text := cleanWord(cell(config.WordColumn))
	translations := splitTranslations(cell(config.TranslationsColumn))
	if text == "" || (len(translations) == 0 && nonEmpty(row) == 1) {
		return nil, errSkipRow
	}
	if len(translations) == 0 {
		return nil, fmt.Errorf("translation cannot be empty")
	}

	word := &models.Word{
		Text:         text,
		Language:     config.Language,
		PartOfSpeech: cell(config.PartOfSpeechColumn),
	}
	if raw := cell(config.LevelColumn); raw != "" {
		level, err := models.ParseLevel(raw)
		if err != nil {
			return nil, err
		}
		word.Level = &level
	}
	if raw := cell(config.RankColumn); raw != "" {
		rank, err := parseIntInRange(raw, 1, 1<<30)
		if err != nil {
			return nil, fmt.Errorf("invalid frequency rank %q: %w", raw, err)
		}
		word.FrequencyRank = &rank
	}
	for i, t := range translations {
		word.Translations = append(word.Translations, models.Translation{
			Language: config.TranslationLanguage,
			Text:     t,
			Position: i,
		})
	}
	return word, nil
}

func splitTranslations(s string) []string {
	parts := lo.Map(strings.Split(s, ";"), func(p string, _ int) string {
		return cleanWord(p)
	})
	parts = lo.Filter(parts, func(p string, _ int) bool { return p != "" })
	return lo.UniqBy(parts, strings.ToLower)
}

func nonEmpty(row []string) int {
	return lo.CountBy(row, func(c string) bool { return strings.TrimSpace(c) != "" })
}

// cleanWord удаляет из слова дополнительную информацию в скобках
func cleanWord(word string) string {
	// Удаляем информацию в скобках "(went, gone)" из слова
	indexOpenParen := strings.Index(word, "(")
	if indexOpenParen > 0 {
		return strings.TrimSpace(word[:indexOpenParen])
	}
	return strings.TrimSpace(word)
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}

// Helper function to parse integer within a range
func parseIntInRange(s string, min, max int) (int, error) {
	val, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if val < min || val > max {
		return 0, fmt.Errorf("%d is outside [%d, %d]", val, min, max)
	}
	return val, nil
}
