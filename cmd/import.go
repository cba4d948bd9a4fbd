package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/lexitutor/internal/database"
	"github.com/example/lexitutor/internal/excel"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import dictionary words from an .xlsx or .csv file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		importConfig := excel.DefaultImportConfig()
		importConfig.FilePath = args[0]
		importConfig.SheetName, _ = flags.GetString("sheet")
		importConfig.Language, _ = flags.GetString("language")
		importConfig.TranslationLanguage, _ = flags.GetString("translation-language")
		importConfig.StartRow, _ = flags.GetInt("start-row")

		db, err := database.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		store := database.NewStore(db)
		result, err := excel.NewImporter(store.Words, log).ImportWords(cmd.Context(), importConfig)
		if err != nil {
			return fmt.Errorf("import %s: %w", importConfig.FilePath, err)
		}

		cmd.Printf("Processed: %d, created: %d, updated: %d, skipped: %d\n",
			result.TotalProcessed, result.Created, result.Updated, result.Skipped)
		for _, rowErr := range result.Errors {
			cmd.PrintErrln(rowErr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	defaults := excel.DefaultImportConfig()
	importCmd.Flags().String("sheet", defaults.SheetName, "worksheet name (xlsx only)")
	importCmd.Flags().String("language", defaults.Language, "language of the words")
	importCmd.Flags().String("translation-language", defaults.TranslationLanguage, "language of the translations")
	importCmd.Flags().Int("start-row", defaults.StartRow, "first data row, 1-based")
}
