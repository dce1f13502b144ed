package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/epm-tools/mtd/internal/config"
	"github.com/epm-tools/mtd/internal/convert"
	"github.com/epm-tools/mtd/internal/logging"
	"github.com/epm-tools/mtd/internal/schema"
	"github.com/epm-tools/mtd/internal/series"
	"github.com/epm-tools/mtd/internal/workbook"
)

// environment is the loaded config and logger of one command invocation.
// Relative directories in the config resolve against the config file's directory.
type environment struct {
	cfg     *config.Config
	logger  *zap.Logger
	baseDir string
}

func loadEnvironment(opts *rootOptions) (*environment, error) {
	absConfig, err := filepath.Abs(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.LoadOrDefault(absConfig)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging, opts.logLevel)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	return &environment{cfg: cfg, logger: logger, baseDir: filepath.Dir(absConfig)}, nil
}

func (e *environment) close() {
	_ = e.logger.Sync()
}

func (e *environment) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.baseDir, p)
}

func (e *environment) service() *convert.Service {
	x := e.cfg.Extract
	reader := workbook.NewReader(x.HeaderRow, x.SampleRows, e.logger)
	return convert.NewService(reader, x.Workers, e.logger)
}

// sources returns the files named on the command line, or every workbook in
// the input directory when there are none.
func (e *environment) sources(args []string) ([]convert.Source, error) {
	if len(args) > 0 {
		files := make([]convert.Source, len(args))
		for i, a := range args {
			abs, err := filepath.Abs(a)
			if err != nil {
				return nil, fmt.Errorf("resolving path: %w", err)
			}
			files[i] = convert.Source{Path: abs}
		}
		return files, nil
	}

	inputDir := e.path(e.cfg.InputDir)
	found, err := workbook.Scan(inputDir)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no .xlsx files in %s: %w", inputDir, series.ErrNoFiles)
	}
	files := make([]convert.Source, len(found))
	for i, f := range found {
		files[i] = convert.Source{Name: f.Name, Path: f.Path}
	}
	return files, nil
}

// printReport writes the failed rules, how each mismatched header differs
// from the expected columns, then the per-file diagnostics table.
func printReport(w io.Writer, r *series.Report) error {
	for _, v := range r.Violations {
		fmt.Fprintf(w, "FAIL %s\n", v.Error())
	}
	for _, f := range r.Files {
		if f.ColumnsMatch {
			continue
		}
		fmt.Fprintf(w, "  %s: %s\n", f.Name, describeColumns(f.Columns))
	}
	if len(r.Violations) > 0 {
		fmt.Fprintln(w)
	}
	return series.WriteDiagnostics(w, r)
}

func describeColumns(columns []string) string {
	if len(columns) == 0 {
		return "no header found"
	}
	missing, unexpected := schema.Diff(columns)
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(missing, ", "))
	}
	if len(unexpected) > 0 {
		parts = append(parts, "unexpected "+strings.Join(unexpected, ", "))
	}
	if len(parts) == 0 {
		return "columns out of order"
	}
	return strings.Join(parts, "; ")
}
