package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"guardianintake/internal/casefile"
	"guardianintake/internal/config"
	"guardianintake/internal/logger"
	"guardianintake/internal/sheets"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Mirror the case workbook to a shared Google Sheet",
	Long: `Copy the current case table into a Google Sheet so staff can read it
from the browser. The workbook stays the source of truth; the sheet is
replaced wholesale on every export.

Required environment variables:
  GOOGLE_SHEET_URL - URL of the destination spreadsheet
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Example: `  # Mirror to the sheet configured in the environment
  guardianintake export

  # Mirror to a specific worksheet
  guardianintake export --worksheet "Cases 2025"`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("worksheet", "", "Worksheet name (default: from GOOGLE_SHEET_WORKSHEET)")
	exportCmd.Flags().Int("timeout", 120, "Export timeout in seconds")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL is not set")
	}

	worksheet, _ := cmd.Flags().GetString("worksheet")
	if worksheet == "" {
		worksheet = cfg.GoogleSheetWorksheet
	}
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	store, err := casefile.OpenStore(cfg.StorePath, cfg.BackupDir)
	if err != nil {
		return err
	}
	if store.Len() == 0 {
		fmt.Println("Case workbook is empty, nothing to export.")
		return nil
	}

	svc, err := sheets.NewService(ctx, cfg.GoogleSheetURL)
	if err != nil {
		return err
	}

	if err := svc.Mirror(ctx, store.Records(), worksheet); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Printf("Exported %d cases to worksheet %q.\n", store.Len(), worksheet)
	return nil
}
