package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/sievemoney/sieve/internal/batch"
	"github.com/sievemoney/sieve/internal/cli"
	"github.com/sievemoney/sieve/internal/model"
	"github.com/sievemoney/sieve/internal/ofx"
)

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Classify a whole statement file",
		Long: `Classify every transaction in a statement file and print the
results with a summary of which fallback level resolved each one.

Supported inputs:
  CSV      description,category-code rows (header optional)
  OFX/QFX  bank or credit-card statements; the OFX transaction type
           (DEBIT, ATM, CHECK, ...) is used as the category code

The format is inferred from the file extension; use --format to force it.`,
		Args: cobra.ExactArgs(1),
		RunE: runBatch,
	}

	cmd.Flags().String("format", "", "Input format (csv, ofx); inferred from extension by default")
	cmd.Flags().Bool("quiet", false, "Only print the summary")

	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	format, _ := cmd.Flags().GetString("format")
	quiet, _ := cmd.Flags().GetBool("quiet")

	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ofx", ".qfx":
			format = "ofx"
		default:
			format = "csv"
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	var txns []model.Transaction
	switch format {
	case "csv":
		txns, err = batch.ReadCSV(file)
	case "ofx":
		txns, err = ofx.NewParser().Parse(file)
	default:
		return fmt.Errorf("unknown format %q (expected csv or ofx)", format)
	}
	if err != nil {
		return err
	}

	if len(txns) == 0 {
		fmt.Println(cli.FormatWarning("No transactions found in " + path))
		return nil
	}

	classifier, cleanup, err := newClassifier(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	bar := progressbar.NewOptions(len(txns),
		progressbar.OptionSetDescription("Classifying"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionShowCount(),
	)

	runner := batch.NewRunner(classifier, func(_, _ int) {
		_ = bar.Add(1)
	})

	results, summary, err := runner.Run(ctx, txns)
	if err != nil {
		return err
	}

	if !quiet {
		for _, r := range results {
			line := fmt.Sprintf("%-40s %-10s %s",
				truncate(r.Transaction.Description, 40),
				r.Classification.PurchaseType,
				displayValue(r.Classification.Category))
			if r.Classification.Subcategory != "" {
				line += " / " + r.Classification.Subcategory
			}
			if r.Classification.Level != model.MatchKeyword {
				line += cli.SubtleStyle.Render("  (" + string(r.Classification.Level) + ")")
			}
			fmt.Println(line)
		}
		fmt.Println()
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Classified %d transactions", summary.Total)))
	fmt.Println(cli.FieldLine("Keyword rules", fmt.Sprintf("%d", summary.Keyword)))
	fmt.Println(cli.FieldLine("Fallback table", fmt.Sprintf("%d", summary.Fallback)))
	fmt.Println(cli.FieldLine("Default", fmt.Sprintf("%d", summary.Default)))

	return nil
}

// truncate shortens a description for display. It counts runes, not
// bytes, so multibyte merchant names never get cut mid-character.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
