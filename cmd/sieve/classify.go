package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sievemoney/sieve/internal/cli"
	"github.com/sievemoney/sieve/internal/model"
	"github.com/sievemoney/sieve/internal/tui"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [description] [category-code]",
		Short: "Classify a transaction",
		Long: `Classify a single transaction description against the configured
rule set. The category code is optional and only consulted when no
keyword rule matches.

Examples:
  sieve classify "AMAZON.COM*12345" PURCHASE
  sieve classify "SHOPRITE LODI" GROCERY
  sieve classify --interactive`,
		Args: cobra.MaximumNArgs(2),
		RunE: runClassify,
	}

	cmd.Flags().BoolP("interactive", "i", false, "Start the interactive classification screen")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	classifier, cleanup, err := newClassifier(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	interactive, _ := cmd.Flags().GetBool("interactive")
	if interactive {
		return tui.Run(ctx, classifier)
	}

	if len(args) == 0 {
		return fmt.Errorf("a transaction description is required (or use --interactive)")
	}

	description := args[0]
	categoryCode := ""
	if len(args) > 1 {
		categoryCode = args[1]
	}

	result, err := classifier.Classify(ctx, description, categoryCode)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatTitle("Classification Result"))
	fmt.Println(cli.FieldLine("Purchase type", string(result.PurchaseType)))
	fmt.Println(cli.FieldLine("Category", displayValue(result.Category)))
	if result.Subcategory != "" {
		fmt.Println(cli.FieldLine("Subcategory", result.Subcategory))
	}
	fmt.Println(cli.FieldLine("Online", fmt.Sprintf("%v", result.Online)))
	fmt.Println(cli.FieldLine("Matched via", matchedVia(result)))

	return nil
}

func matchedVia(result model.Classification) string {
	switch result.Level {
	case model.MatchKeyword:
		if result.RuleID != "" {
			return fmt.Sprintf("keyword rule %s", result.RuleID)
		}
		return "keyword rule"
	case model.MatchFallback:
		return "category fallback"
	default:
		return "ultimate default"
	}
}

func displayValue(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
