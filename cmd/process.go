package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"guardianintake/internal/casefile"
	"guardianintake/internal/config"
	"guardianintake/internal/extract"
	"guardianintake/internal/logger"
	"guardianintake/internal/ocr"
	"guardianintake/internal/pipeline"
	"guardianintake/internal/rules"
)

var processCmd = &cobra.Command{
	Use:   "process [folder-path]",
	Short: "Process all scanned filings in a folder into the case workbook",
	Long: `Process every PDF in a folder through the OCR ladder and merge the
extracted fields into the case workbook, one row per cause number.

Court orders are read first: their typed cause numbers correct one-digit
OCR misreads in the scanned Applications for Review of Placement. Visit
approval letters are skipped by name.

Re-running over the same folder is safe: values already in the workbook
are never overwritten, and fields a person has verified are untouchable.

Required environment variables for cloud OCR tiers (optional otherwise):
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_CLOUD_PROJECT - Your Google Cloud project ID
  DOCUMENT_AI_PROCESSOR_ID - Document AI OCR processor ID`,
	Example: `  # Process the default intake folder
  guardianintake process "New Files"

  # Process with a custom workbook path
  GUARDIAN_STORE_PATH=cases.xlsx guardianintake process ./scans

  # Local engines only, no cloud calls
  guardianintake process ./scans --no-cloud`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().Bool("no-cloud", false, "Use only the local OCR engines")
	processCmd.Flags().Int("timeout", 600, "Batch timeout in seconds")
}

func runProcess(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("process")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	folder := cfg.InputDir
	if len(args) > 0 {
		folder = args[0]
	}
	noCloud, _ := cmd.Flags().GetBool("no-cloud")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	ruleset, err := loadRules(cfg, log)
	if err != nil {
		return err
	}

	cascade, cleanup, err := buildCascade(ctx, cfg, ruleset, noCloud, log)
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := casefile.OpenStore(cfg.StorePath, cfg.BackupDir)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(cascade, extract.NewExtractor(ruleset), casefile.NewAssembler(store), store)

	bold := color.New(color.Bold)
	bold.Println(strings.Repeat("=", 70))
	bold.Println("                      GUARDIAN INTAKE")
	bold.Println(strings.Repeat("=", 70))
	fmt.Printf("Folder:   %s\n", folder)
	fmt.Printf("Workbook: %s\n", cfg.StorePath)
	fmt.Printf("Engines:  %s\n", strings.Join(cascade.Engines(), " > "))
	fmt.Println()

	report, runErr := runner.Run(ctx, folder)
	if report != nil {
		printBatchReport(report)
	}
	if runErr != nil && !errors.Is(runErr, pipeline.ErrNoDocuments) {
		return runErr
	}

	if runErr != nil {
		return fmt.Errorf("no documents could be processed in %s", folder)
	}
	return nil
}

func printBatchReport(report *pipeline.BatchReport) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)

	for i, rep := range report.Reports {
		name := filepath.Base(rep.Path)
		switch {
		case rep.Err != nil:
			red.Printf("[%d/%d] %s - error", i+1, len(report.Reports), name)
			fmt.Printf(" (%s)\n", rep.Err.Error())
			continue
		case rep.LowConfidence:
			yellow.Printf("[%d/%d] %s - low confidence", i+1, len(report.Reports), name)
		default:
			green.Printf("[%d/%d] %s - ok", i+1, len(report.Reports), name)
		}
		fmt.Printf(" (%s, cause %s, engine %s", rep.Kind, rep.Cause, rep.Engine)
		if len(rep.Attempts) > 1 {
			fmt.Printf(", %d attempts", len(rep.Attempts))
		}
		fmt.Println(")")

		if rep.NeedsReview {
			yellow.Println("        needs review: ward name missing")
		}
		if rep.Merge != nil {
			if len(rep.Merge.Written) > 0 {
				fmt.Printf("        wrote: %s\n", strings.Join(rep.Merge.Written, ", "))
			}
			if len(rep.Merge.Skipped) > 0 {
				fmt.Printf("        kept existing: %s\n", strings.Join(rep.Merge.Skipped, ", "))
			}
			if len(rep.Merge.Protected) > 0 {
				fmt.Printf("        verified, untouched: %s\n", strings.Join(rep.Merge.Protected, ", "))
			}
		}
		for _, note := range rep.Notes {
			cyan.Printf("        note: %s\n", note)
		}
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("                 RESULT")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Processed: %d\n", report.Processed)
	if report.Failed > 0 {
		red.Printf("Failed: %d\n", report.Failed)
	}
	if report.Skipped > 0 {
		fmt.Printf("Skipped: %d\n", report.Skipped)
	}
}

// loadRules reads the ruleset file when configured, else the built-ins.
func loadRules(cfg *config.Config, log zerolog.Logger) (rules.Ruleset, error) {
	if cfg.RulesPath == "" {
		return rules.Default(), nil
	}
	ruleset, err := rules.Load(cfg.RulesPath)
	if err != nil {
		return rules.Ruleset{}, fmt.Errorf("load rules from %s: %w", cfg.RulesPath, err)
	}
	log.Info().Str("path", cfg.RulesPath).Msg("correction rules loaded")
	return ruleset, nil
}

// buildCascade assembles the engine ladder. The local tiers always run;
// cloud tiers join only when their credentials and configuration exist.
func buildCascade(ctx context.Context, cfg *config.Config, ruleset rules.Ruleset, noCloud bool, log zerolog.Logger) (*ocr.Cascade, func(), error) {
	engines := []ocr.Engine{
		ocr.NewNativeEngine(),
		ocr.NewTesseractEngine(),
	}
	var closers []func() error

	hasCreds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" || os.Getenv("GOOGLE_CREDENTIALS") != ""
	if !noCloud && hasCreds {
		vision, err := ocr.NewVisionEngine(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Vision tier unavailable, continuing without it")
		} else {
			engines = append(engines, vision)
			closers = append(closers, vision.Close)
		}

		if cfg.DocumentAIProcessorID != "" {
			docai, err := ocr.NewDocumentAIEngine(ctx, ocr.DocumentAIConfig{
				ProjectID:        cfg.GoogleCloudProject,
				Location:         cfg.GoogleCloudLocation,
				ProcessorID:      cfg.DocumentAIProcessorID,
				ProcessorVersion: cfg.DocumentAIProcessorVersion,
				Timeout:          cfg.OCRTimeout,
			})
			if err != nil {
				log.Warn().Err(err).Msg("Document AI tier unavailable, continuing without it")
			} else {
				engines = append(engines, docai)
				closers = append(closers, docai.Close)
			}
		}
	}

	cleanup := func() {
		for _, close := range closers {
			if err := close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close OCR client")
			}
		}
	}

	return ocr.NewCascade(ruleset.SufficiencyThreshold, engines...), cleanup, nil
}
