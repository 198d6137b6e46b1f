package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sievemoney/sieve/internal/cli"
	"github.com/sievemoney/sieve/internal/common"
	"github.com/sievemoney/sieve/internal/schema"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the rule collection",
		Long: `Check the configured rule collection for structural problems:
missing or duplicate rule IDs, rules without keywords, invalid purchase
types, and suspicious entries that only warrant a warning.

Exits non-zero if any errors are found.`,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	s, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	collection, err := s.LoadCollection(ctx)
	if err != nil {
		return err
	}

	result := schema.Validate(collection)

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Validation report (schema %s)", collection.Version)))

	for _, e := range result.Errors {
		fmt.Println(cli.FormatError(e))
	}
	for _, w := range result.Warnings {
		fmt.Println(cli.FormatWarning(w))
	}

	if !result.Valid() {
		return common.NewUserError(
			fmt.Sprintf("%d errors, %d warnings", len(result.Errors), len(result.Warnings)),
			common.ErrMalformedRule)
	}

	if len(result.Warnings) > 0 {
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("Rules are valid (%d warnings)", len(result.Warnings))))
	} else {
		fmt.Println(cli.FormatSuccess("Rules are valid"))
	}
	return nil
}
