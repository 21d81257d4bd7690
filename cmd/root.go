package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"guardianintake/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "guardianintake",
	Short: "Guardian Intake - OCR and extraction for guardianship filings",
	Long: `Guardian Intake reads scanned guardianship filings, Applications for
Review of Placement and signed court orders, extracts the case fields,
and maintains one case record per cause number in an Excel workbook.

Scans go through an escalating ladder of OCR engines, from the PDF's own
text layer up to cloud document OCR, so the cheap path handles clean
documents and only the hard scans cost money.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Guardian Intake executed")

		fmt.Println("Welcome to Guardian Intake!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
