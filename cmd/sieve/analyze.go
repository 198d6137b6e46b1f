package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sievemoney/sieve/internal/analyze"
	"github.com/sievemoney/sieve/internal/cli"
	"github.com/sievemoney/sieve/internal/model"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the rule collection",
	}

	cmd.AddCommand(analyzeStatsCmd())
	cmd.AddCommand(analyzeDuplicatesCmd())
	cmd.AddCommand(analyzeCoverageCmd())

	return cmd
}

func loadRuleSet(cmd *cobra.Command) (model.RuleSet, func(), error) {
	ctx := cmd.Context()

	classifier, cleanup, err := newClassifier(ctx)
	if err != nil {
		return model.RuleSet{}, nil, err
	}

	set, err := classifier.RuleSet(ctx)
	if err != nil {
		cleanup()
		return model.RuleSet{}, nil, err
	}

	return set, cleanup, nil
}

func analyzeStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show rule statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, cleanup, err := loadRuleSet(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			stats := analyze.RuleStats(set)

			fmt.Println(cli.FormatTitle("Rule Statistics"))
			fmt.Println(cli.FieldLine("Total rules", fmt.Sprintf("%d", stats.TotalRules)))
			fmt.Println(cli.FieldLine("Total keywords", fmt.Sprintf("%d", stats.TotalKeywords)))
			fmt.Println(cli.FieldLine("Business rules", fmt.Sprintf("%d", stats.BusinessRules)))
			fmt.Println(cli.FieldLine("Personal rules", fmt.Sprintf("%d", stats.PersonalRules)))
			fmt.Println(cli.FieldLine("Online rules", fmt.Sprintf("%d", stats.OnlineRules)))
			fmt.Println(cli.FieldLine("Avg keywords", fmt.Sprintf("%.1f", stats.AvgKeywordsPerRule)))

			if len(stats.Categories) > 0 {
				names := make([]string, 0, len(stats.Categories))
				for name := range stats.Categories {
					names = append(names, name)
				}
				sort.Strings(names)

				fmt.Println()
				fmt.Println(cli.BoldStyle.Render("Rules per category"))
				for _, name := range names {
					fmt.Printf("  %-30s %d\n", name, stats.Categories[name])
				}
			}
			return nil
		},
	}
}

func analyzeDuplicatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicates",
		Short: "Find keywords shared by multiple rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, cleanup, err := loadRuleSet(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			dups := analyze.Duplicates(set)
			if len(dups) == 0 {
				fmt.Println(cli.FormatSuccess("No duplicate keywords found"))
				return nil
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("%d duplicate keyword groups", len(dups))))
			for _, dup := range dups {
				fmt.Printf("  %-24s %s\n", dup.Keyword, strings.Join(dup.RuleIDs, ", "))
			}
			return nil
		},
	}
}

func analyzeCoverageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coverage",
		Short: "Show coverage analysis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, cleanup, err := loadRuleSet(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			cov := analyze.CoverageAnalysis(set)

			fmt.Println(cli.FormatTitle("Coverage Analysis"))
			fmt.Println(cli.FieldLine("Fallback codes", fmt.Sprintf("%d", cov.FallbackCodes)))
			fmt.Println(cli.FieldLine("Unique keywords", fmt.Sprintf("%d", cov.UniqueKeywords)))
			fmt.Println(cli.FieldLine("With subcategory", fmt.Sprintf("%d", cov.RulesWithSubcategory)))
			fmt.Println(cli.FieldLine("Avg priority", fmt.Sprintf("%.1f", cov.AvgPriority)))
			return nil
		},
	}
}
