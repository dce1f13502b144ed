package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/epm-tools/mtd/internal/convert"
	"github.com/epm-tools/mtd/internal/model"
	"github.com/epm-tools/mtd/internal/period"
	"github.com/epm-tools/mtd/internal/runlog"
	"github.com/epm-tools/mtd/internal/series"
	"github.com/epm-tools/mtd/internal/workbook"
)

type convertOptions struct {
	mode    model.CurrencyMode
	outDir  string
	archive bool
}

func newConvertCommand(opts *rootOptions) *cobra.Command {
	var co convertOptions
	var currency string

	cmd := &cobra.Command{
		Use:   "convert [files...]",
		Short: "Convert monthly cumulative extracts into an MTD workbook",
		Long: "Convert monthly cumulative extracts into an MTD workbook.\n\n" +
			"With no arguments every .xlsx file in the configured input directory is converted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.close()

			if cmd.Flags().Changed("currency") {
				if co.mode, err = model.ParseCurrencyMode(currency); err != nil {
					return err
				}
			} else {
				co.mode = env.cfg.CurrencyMode()
			}
			if !cmd.Flags().Changed("out") {
				co.outDir = env.path(env.cfg.OutputDir)
			}
			if !cmd.Flags().Changed("archive") {
				co.archive = env.cfg.Archive
			}

			return runConvert(cmd, env, args, co)
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "", "currency mode (LCC and EUR, LCC only, EUR only); defaults to config")
	cmd.Flags().StringVar(&co.outDir, "out", "", "output directory; defaults to config output_dir")
	cmd.Flags().BoolVar(&co.archive, "archive", false, "move converted inputs into a processed/ subdirectory")

	return cmd
}

func runConvert(cmd *cobra.Command, env *environment, args []string, co convertOptions) error {
	mode := co.mode

	files, err := env.sources(args)
	if errors.Is(err, series.ErrNoFiles) {
		fmt.Printf("Nothing to do: %v\n", err)
		return nil
	}
	if err != nil {
		return err
	}

	res, err := env.service().Run(cmd.Context(), convert.RunRequest{Files: files, Mode: mode})
	if convert.IsValidationFailed(err) {
		if perr := printReport(os.Stdout, res.Report); perr != nil {
			return fmt.Errorf("printing diagnostics: %w", perr)
		}
		return fmt.Errorf("%d series rule(s) failed", len(res.Report.Violations))
	}
	if err != nil {
		return err
	}

	outDir, err := filepath.Abs(co.outDir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	outPath := filepath.Join(outDir, res.FileName)
	if err := os.WriteFile(outPath, res.Workbook, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", res.FileName, err)
	}

	names := make([]string, len(res.Report.Files))
	for i, f := range res.Report.Files {
		names[i] = f.Name
	}
	entry := runlog.Entry{
		Timestamp:    res.CompletedAt,
		RunID:        res.RunID,
		Files:        names,
		ClosingMonth: res.ClosingMonth,
		Currency:     res.Mode.Code(),
		Rows:         len(res.Records),
		Output:       outPath,
	}
	if err := runlog.Append(env.path(env.cfg.LogDir), []runlog.Entry{entry}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to write run log: %v\n", err)
	}

	if co.archive {
		for _, f := range files {
			if err := workbook.MarkProcessed(filepath.Dir(f.Path), filepath.Base(f.Path)); err != nil {
				return fmt.Errorf("archiving: %w", err)
			}
		}
	}

	fmt.Printf("Wrote %s\n", outPath)
	fmt.Printf("  %d rows, %s -> %s, %s\n", len(res.Records), period.Label(1), period.Label(res.ClosingMonth), mode)
	fmt.Printf("  read %s, process %s, export %s\n", res.Timings.Read, res.Timings.Process, res.Timings.Export)
	if co.archive {
		fmt.Printf("  archived %d input file(s)\n", len(files))
	}
	return nil
}
