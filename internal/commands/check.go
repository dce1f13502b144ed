package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/epm-tools/mtd/internal/period"
	"github.com/epm-tools/mtd/internal/series"
)

func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check [files...]",
		Short: "Validate a monthly file set without converting it",
		Long: "Validate a monthly file set without converting it.\n\n" +
			"With no arguments every .xlsx file in the configured input directory is checked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.close()

			return runCheck(cmd, env, args)
		},
	}
}

func runCheck(cmd *cobra.Command, env *environment, args []string) error {
	files, err := env.sources(args)
	if errors.Is(err, series.ErrNoFiles) {
		fmt.Printf("Nothing to do: %v\n", err)
		return nil
	}
	if err != nil {
		return err
	}

	report, err := env.service().Check(cmd.Context(), files)
	if err != nil {
		return err
	}

	if err := printReport(os.Stdout, report); err != nil {
		return fmt.Errorf("printing diagnostics: %w", err)
	}

	if !report.Valid() {
		return fmt.Errorf("%d series rule(s) failed", len(report.Violations))
	}

	fmt.Printf("\nOK: %d files, %s -> %s\n", len(report.Files), period.Label(1), period.Label(report.ClosingMonth()))
	return nil
}
