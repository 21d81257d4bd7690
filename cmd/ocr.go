package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"guardianintake/internal/config"
	"guardianintake/internal/logger"
	"guardianintake/internal/ocr"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [pdf-file]",
	Short: "Extract text from one PDF through the OCR ladder",
	Long: `Run a single PDF through the escalating OCR ladder and print the text.

The ladder tries the PDF's own text layer first, then local Tesseract,
then Google Cloud Vision, then Document AI, stopping at the first engine
that yields enough text. This is the debugging view of what the process
command does per document: the attempt ledger shows which engines ran,
how often, and what each one produced.

Cloud tiers join the ladder only when credentials are configured:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  DOCUMENT_AI_PROCESSOR_ID - Document AI OCR processor ID`,
	Example: `  # Extract text to stdout
  guardianintake ocr "ARP - Hall, Karissa.pdf"

  # Save extracted text to file
  guardianintake ocr scan.pdf -o extracted.txt

  # Show the attempt ledger and output as JSON
  guardianintake ocr scan.pdf --ledger --json -o result.json

  # Local engines only
  guardianintake ocr scan.pdf --no-cloud`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput is the JSON output structure when --json is used.
type OCROutput struct {
	Text          string        `json:"text"`
	Engine        string        `json:"engine"`
	CharCount     int           `json:"char_count"`
	Sufficient    bool          `json:"sufficient"`
	LowConfidence bool          `json:"low_confidence,omitempty"`
	Confidence    float32       `json:"confidence,omitempty"`
	PageCount     int           `json:"page_count,omitempty"`
	Attempts      []ocr.Attempt `json:"attempts,omitempty"`
	FileName      string        `json:"file_name"`
	FileSize      int64         `json:"file_size"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().Bool("ledger", false, "Include the engine attempt ledger in output")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().Bool("no-cloud", false, "Use only the local OCR engines")
	ocrCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	outputPath, _ := cmd.Flags().GetString("output")
	showLedger, _ := cmd.Flags().GetBool("ledger")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	noCloud, _ := cmd.Flags().GetBool("no-cloud")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	pdfPath := args[0]

	log.Info().
		Str("file", pdfPath).
		Str("output", outputPath).
		Bool("json", jsonOutput).
		Int("timeout", timeoutSecs).
		Msg("Starting OCR processing")

	fileInfo, err := validatePDFFile(pdfPath, log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ruleset, err := loadRules(cfg, log)
	if err != nil {
		return err
	}
	cascade, cleanup, err := buildCascade(ctx, cfg, ruleset, noCloud, log)
	if err != nil {
		return err
	}
	defer cleanup()

	doc, err := ocr.LoadDocument(pdfPath)
	if err != nil {
		return handleOCRError(err, log)
	}

	log.Info().
		Str("file", pdfPath).
		Int64("size", fileInfo.Size()).
		Strs("engines", cascade.Engines()).
		Msg("Processing PDF")

	result, err := cascade.Run(ctx, doc)
	if err != nil {
		return handleOCRError(err, log)
	}

	log.Info().
		Str("engine", result.Engine).
		Int("chars", result.CharCount).
		Bool("sufficient", result.Sufficient).
		Int("attempts", len(result.Attempts)).
		Msg("OCR processing completed")

	return outputResults(result, fileInfo, outputPath, jsonOutput, showLedger, log)
}

// validatePDFFile checks if the file exists, is readable, and appears to be a PDF.
func validatePDFFile(pdfPath string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", pdfPath).
				Msg("PDF file not found")
			return nil, fmt.Errorf("PDF file not found: %s", pdfPath)
		}
		if os.IsPermission(err) {
			log.Error().
				Str("file", pdfPath).
				Msg("Permission denied accessing PDF file")
			return nil, fmt.Errorf("permission denied accessing PDF file: %s", pdfPath)
		}
		return nil, fmt.Errorf("error accessing PDF file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		log.Error().
			Str("file", pdfPath).
			Msg("Path is not a regular file")
		return nil, fmt.Errorf("path is not a regular file: %s", pdfPath)
	}

	if !strings.HasSuffix(strings.ToLower(pdfPath), ".pdf") {
		log.Warn().
			Str("file", pdfPath).
			Msg("File does not have .pdf extension")
	}

	if fileInfo.Size() == 0 {
		log.Error().
			Str("file", pdfPath).
			Msg("PDF file is empty")
		return nil, fmt.Errorf("PDF file is empty: %s", pdfPath)
	}

	if fileInfo.Size() > ocr.MaxFileSizeBytes {
		log.Error().
			Str("file", pdfPath).
			Int64("size", fileInfo.Size()).
			Int64("max_size", ocr.MaxFileSizeBytes).
			Msg("PDF file exceeds maximum size limit")
		return nil, fmt.Errorf("PDF file too large (%d bytes). Maximum size is %d bytes (20MB)",
			fileInfo.Size(), ocr.MaxFileSizeBytes)
	}

	return fileInfo, nil
}

// createContextWithTimeout creates a context with timeout and signal handling.
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
			// Context completed normally
		}
	}()

	return ctx, cancel
}

// handleOCRError provides user-friendly error messages for OCR failures.
func handleOCRError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("OCR processing failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout or processing a smaller file")
	case errors.Is(err, ocr.ErrContextCanceled), errors.Is(err, context.Canceled):
		return fmt.Errorf("OCR processing was canceled")
	case errors.Is(err, ocr.ErrPDFTooLarge):
		return fmt.Errorf("PDF file is too large (maximum 20MB). Try compressing or splitting the file")
	case errors.Is(err, ocr.ErrTooManyPages):
		return fmt.Errorf("PDF has too many pages (maximum 5 pages for cloud OCR). Try splitting into smaller files")
	case errors.Is(err, ocr.ErrInvalidPDF):
		return fmt.Errorf("invalid or corrupted PDF file. Please check the file integrity")
	case errors.Is(err, ocr.ErrAllEnginesFailed):
		return fmt.Errorf("every OCR engine failed to read the document. The scan may be blank or corrupted: %w", err)
	case errors.Is(err, ocr.ErrProcessorNotFound):
		return fmt.Errorf("Document AI processor not found. Check DOCUMENT_AI_PROCESSOR_ID and GOOGLE_CLOUD_LOCATION")
	case errors.Is(err, ocr.ErrQuotaExceeded):
		return fmt.Errorf("Google Cloud API quota exceeded. Check your project quotas in the Google Cloud Console")
	case errors.Is(err, ocr.ErrMissingCredentials):
		return fmt.Errorf("Google Cloud credentials validation failed. Please verify:\n\n"+
			"1. Credentials file exists and is readable\n"+
			"2. JSON format is valid\n"+
			"3. Service account has proper permissions\n\n"+
			"Original error: %w", err)
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "auth:"):
		return fmt.Errorf("Google Cloud authentication failed. Please check your credentials:\n\n" +
			"1. Set GOOGLE_APPLICATION_CREDENTIALS to your service account JSON file path\n" +
			"2. Or set GOOGLE_CREDENTIALS with inline JSON\n" +
			"3. Ensure the service account can call the Vision and Document AI APIs")
	default:
		return fmt.Errorf("OCR processing failed: %w", err)
	}
}

// outputResults formats and outputs the cascade result.
func outputResults(result *ocr.CascadeResult, fileInfo os.FileInfo, outputPath string, jsonOutput, showLedger bool, log zerolog.Logger) error {
	var output strings.Builder
	var outputData []byte
	var err error

	if jsonOutput {
		ocrOutput := OCROutput{
			Text:          result.Text,
			Engine:        result.Engine,
			CharCount:     result.CharCount,
			Sufficient:    result.Sufficient,
			LowConfidence: result.LowConfidence,
			Confidence:    result.Confidence,
			PageCount:     result.PageCount,
			FileName:      filepath.Base(fileInfo.Name()),
			FileSize:      fileInfo.Size(),
		}
		if showLedger {
			ocrOutput.Attempts = result.Attempts
		}

		outputData, err = json.MarshalIndent(ocrOutput, "", "  ")
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal JSON output")
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
	} else {
		if showLedger {
			output.WriteString(fmt.Sprintf("=== OCR Results for %s ===\n", filepath.Base(fileInfo.Name())))
			output.WriteString(fmt.Sprintf("File size: %d bytes\n", fileInfo.Size()))
			output.WriteString(fmt.Sprintf("Winning engine: %s (%d chars)\n", result.Engine, result.CharCount))
			if result.LowConfidence {
				output.WriteString("Below threshold: best-effort text kept\n")
			}
			output.WriteString("\n=== Attempt Ledger ===\n")
			for _, a := range result.Attempts {
				line := fmt.Sprintf("%s try %d: %d chars in %v", a.Engine, a.Try, a.CharCount, a.Duration.Round(time.Millisecond))
				if a.Error != "" {
					line += " (error: " + a.Error + ")"
				}
				output.WriteString(line + "\n")
			}
			output.WriteString("\n=== Extracted Text ===\n\n")
		}

		output.WriteString(result.Text)
		outputData = []byte(output.String())
	}

	if outputPath != "" {
		err = os.WriteFile(outputPath, outputData, 0644)
		if err != nil {
			log.Error().
				Err(err).
				Str("output_file", outputPath).
				Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}

		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(outputData)).
			Msg("OCR results written to file")
	} else {
		_, err = os.Stdout.Write(outputData)
		if err != nil {
			log.Error().Err(err).Msg("Failed to write to stdout")
			return fmt.Errorf("failed to write output: %w", err)
		}

		if !jsonOutput {
			fmt.Println()
		}
	}

	return nil
}
