package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sievemoney/sieve/internal/cli"
	"github.com/sievemoney/sieve/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage classification rules",
	}

	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesRemoveCmd())
	cmd.AddCommand(rulesGetCmd())
	cmd.AddCommand(rulesListCmd())

	return cmd
}

func rulesAddCmd() *cobra.Command {
	var (
		id          string
		keywords    string
		ruleType    string
		category    string
		subcategory string
		online      bool
		priority    int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new rule",
		Example: `  sieve rules add --id amazon --keywords "AMAZON.COM*,AMZN" \
    --type Business --category "General Merchandise" \
    --subcategory "Online Purchases" --online --priority 998`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			var kws []string
			for _, kw := range strings.Split(keywords, ",") {
				if kw = model.NormalizeText(kw); kw != "" {
					kws = append(kws, kw)
				}
			}

			rule := model.Rule{
				ID:           id,
				Keywords:     kws,
				PurchaseType: model.PurchaseType(ruleType),
				Category:     category,
				Subcategory:  subcategory,
				Online:       online,
				Priority:     priority,
			}

			if err := s.AddRule(ctx, rule); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added rule %s", id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Rule ID (lowercase, hyphenated)")
	cmd.Flags().StringVar(&keywords, "keywords", "", "Comma-separated keywords")
	cmd.Flags().StringVar(&ruleType, "type", "", "Purchase type (Business or Personal)")
	cmd.Flags().StringVar(&category, "category", "", "Category name")
	cmd.Flags().StringVar(&subcategory, "subcategory", "", "Subcategory (optional)")
	cmd.Flags().BoolVar(&online, "online", false, "Mark matching transactions as online purchases")
	cmd.Flags().IntVar(&priority, "priority", 1000, "Rule priority (higher wins)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("keywords")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func rulesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <rule-id>",
		Short: "Remove a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := s.RemoveRule(ctx, args[0]); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Removed rule %s", args[0])))
			return nil
		},
	}
}

func rulesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <rule-id>",
		Short: "Show a rule as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rule, err := s.GetRule(ctx, args[0])
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(rule, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode rule: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all rules, highest priority first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rules, err := s.ListRules(ctx)
			if err != nil {
				return err
			}

			if len(rules) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No rules configured."))
				return nil
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("%d rules", len(rules))))
			for _, rule := range rules {
				line := fmt.Sprintf("%4d  %-30s %-10s %s",
					rule.Priority, rule.ID, rule.PurchaseType, rule.Category)
				if rule.Subcategory != "" {
					line += " / " + rule.Subcategory
				}
				if rule.Online {
					line += cli.InfoStyle.Render("  [online]")
				}
				fmt.Println(line)
				fmt.Println(cli.SubtleStyle.Render("      " + strings.Join(rule.Keywords, ", ")))
			}
			return nil
		},
	}
}
