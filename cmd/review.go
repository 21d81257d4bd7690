package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"guardianintake/internal/casefile"
	"guardianintake/internal/config"
)

var reviewCmd = &cobra.Command{
	Use:   "review [cause-number]",
	Short: "Inspect, verify, or flag fields of a case record",
	Long: `Show a case record field by field, mark fields as verified, or flag a
field for re-extraction.

Verified fields are locked: no later document processing will touch
them. Flagged fields are overwritten with the review sentinel so the
next matching document fills them fresh.`,
	Example: `  # List cases with flagged or missing critical fields
  guardianintake review

  # Show a case
  guardianintake review 25-001234

  # Mark fields as human-verified
  guardianintake review 25-001234 --verify guardian1,guardian1_address

  # Flag a field for re-extraction
  guardianintake review 25-001234 --flag ward_dob`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().StringSlice("verify", nil, "Comma-separated column names to mark verified")
	reviewCmd.Flags().String("flag", "", "Column name to flag for re-extraction")
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	verifyCols, _ := cmd.Flags().GetStringSlice("verify")
	flagCol, _ := cmd.Flags().GetString("flag")

	store, err := casefile.OpenStore(cfg.StorePath, cfg.BackupDir)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		listReviewCases(store)
		return nil
	}

	cause := strings.TrimSpace(args[0])
	rec, ok := store.Get(cause)
	if !ok {
		return fmt.Errorf("no case with cause number %s in %s", cause, cfg.StorePath)
	}

	assembler := casefile.NewAssembler(store)

	if len(verifyCols) > 0 {
		for _, col := range verifyCols {
			if !knownColumn(col) {
				return fmt.Errorf("unknown column %q", col)
			}
		}
		if err := assembler.Verify(cause, verifyCols...); err != nil {
			return err
		}
		fmt.Printf("Verified %s on case %s.\n", strings.Join(verifyCols, ", "), cause)
	}

	if flagCol != "" {
		if !knownColumn(flagCol) {
			return fmt.Errorf("unknown column %q", flagCol)
		}
		if err := assembler.Flag(cause, flagCol); err != nil {
			return err
		}
		fmt.Printf("Flagged %s on case %s for re-extraction.\n", flagCol, cause)
	}

	rec, _ = store.Get(cause)
	printRecord(rec)
	return nil
}

// listReviewCases prints cases with a flagged cell or a missing critical
// field (ward name or guardian name).
func listReviewCases(store *casefile.Store) {
	yellow := color.New(color.FgYellow)

	found := 0
	for _, rec := range store.Records() {
		var reasons []string
		if rec.IsBlank(casefile.ColWardLast) && rec.IsBlank(casefile.ColWardFirst) {
			reasons = append(reasons, "ward name missing")
		}
		if rec.IsBlank(casefile.ColGuardian1) {
			reasons = append(reasons, "guardian missing")
		}
		for _, col := range casefile.Columns {
			if strings.EqualFold(rec.Get(col), casefile.NeedsReview) {
				reasons = append(reasons, col+" flagged")
			}
		}
		if len(reasons) == 0 {
			continue
		}
		found++
		yellow.Printf("%-12s", rec.Cause())
		fmt.Printf(" %s\n", strings.Join(reasons, ", "))
	}

	if found == 0 {
		fmt.Println("No cases need review.")
	} else {
		fmt.Printf("\n%d of %d cases need review.\n", found, store.Len())
	}
}

func knownColumn(col string) bool {
	for _, c := range casefile.Columns {
		if c == col {
			return true
		}
	}
	return false
}

func printRecord(rec *casefile.CaseRecord) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	fmt.Printf("\nCase %s\n%s\n", rec.Cause(), strings.Repeat("-", 40))
	for _, col := range casefile.Columns {
		if col == casefile.ColCauseNo {
			continue
		}
		value := rec.Get(col)
		if value == "" {
			continue
		}
		switch rec.Status(col) {
		case casefile.StatusVerified:
			green.Printf("%-24s %s (verified)\n", col, value)
		default:
			if strings.EqualFold(value, casefile.NeedsReview) {
				yellow.Printf("%-24s %s\n", col, value)
			} else {
				fmt.Printf("%-24s %s\n", col, value)
			}
		}
	}
}
