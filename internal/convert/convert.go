// Package convert runs the full monthly-extract to MTD pipeline:
// validate the file set, extract every table, derive deltas and serialize.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/epm-tools/mtd/internal/delta"
	"github.com/epm-tools/mtd/internal/export"
	"github.com/epm-tools/mtd/internal/model"
	"github.com/epm-tools/mtd/internal/series"
)

// Reader reads monthly workbooks. *workbook.Reader satisfies it.
type Reader interface {
	delta.Extractor
	Columns(path string) ([]string, error)
}

// Source is one input file. Name defaults to the base of Path.
type Source struct {
	Name string
	Path string
}

func (s Source) name() string {
	if s.Name != "" {
		return s.Name
	}
	return filepath.Base(s.Path)
}

// RunRequest is the input of one conversion.
type RunRequest struct {
	Files []Source
	Mode  model.CurrencyMode
	Now   func() time.Time // stamps the output file name; time.Now when nil
}

// Timings holds how long each stage of a run took.
type Timings struct {
	Read    time.Duration
	Process time.Duration
	Export  time.Duration
}

// RunResult is the outcome of one conversion. On validation failure only
// RunID, Report, Mode and ClosingMonth are set.
type RunResult struct {
	RunID        uuid.UUID
	Report       *series.Report
	Records      []model.DeltaRecord
	Mode         model.CurrencyMode
	ClosingMonth int
	CompletedAt  time.Time
	FileName     string
	Workbook     []byte
	Timings      Timings
}

// ValidationFailedError is returned by Run when the file set breaks a series rule.
type ValidationFailedError struct {
	Report *series.Report
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Report.Err())
}

func (e *ValidationFailedError) Unwrap() error {
	return e.Report.Err()
}

// IsValidationFailed reports whether err carries a failed validation report.
func IsValidationFailed(err error) bool {
	var vf *ValidationFailedError
	return errors.As(err, &vf)
}

// Service converts monthly file sets.
type Service struct {
	reader  Reader
	engine  *delta.Engine
	workers int
	logger  *zap.Logger
}

// NewService creates a Service reading up to workers files at once.
func NewService(reader Reader, workers int, logger *zap.Logger) *Service {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		reader:  reader,
		engine:  delta.NewEngine(reader, workers, logger),
		workers: workers,
		logger:  logger,
	}
}

// Check reads the header of every file and validates the set. A file whose
// header cannot be read is inspected with no columns, so it fails the column
// rule instead of aborting the check.
func (s *Service) Check(ctx context.Context, files []Source) (*series.Report, error) {
	if len(files) == 0 {
		return nil, series.ErrNoFiles
	}

	inspected := make([]model.MonthlyFile, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, src := range files {
		i, src := i, src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cols, err := s.reader.Columns(src.Path)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.logger.Warn("header unreadable",
					zap.String("op", "convert.Check"),
					zap.String("file", src.name()),
					zap.Error(err))
				cols = nil
			}
			inspected[i] = series.Inspect(src.name(), src.Path, cols)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := series.Validate(inspected)
	for _, v := range report.Violations {
		s.logger.Warn("series rule failed",
			zap.String("op", "convert.Check"),
			zap.String("rule", string(v.Rule)),
			zap.Strings("files", v.Files))
	}
	return report, nil
}

// Run validates, extracts, derives and serializes one file set. A broken
// series returns the partial result together with a *ValidationFailedError.
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	mode := req.Mode
	if mode == "" {
		mode = model.CurrencyLCCAndEUR
	}
	now := req.Now
	if now == nil {
		now = time.Now
	}

	res := &RunResult{RunID: uuid.New(), Mode: mode}
	logger := s.logger.With(zap.String("run_id", res.RunID.String()))

	start := time.Now()
	report, err := s.Check(ctx, req.Files)
	if err != nil {
		return nil, err
	}
	res.Report = report
	res.ClosingMonth = report.ClosingMonth()
	if !report.Valid() {
		return res, &ValidationFailedError{Report: report}
	}

	obs, err := s.engine.Load(ctx, report.Files)
	if err != nil {
		return nil, fmt.Errorf("loading files: %w", err)
	}
	res.Timings.Read = time.Since(start)

	start = time.Now()
	res.Records = delta.Derive(obs, res.ClosingMonth, mode)
	res.Timings.Process = time.Since(start)

	start = time.Now()
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, res.Records, mode); err != nil {
		return nil, fmt.Errorf("writing MTD workbook: %w", err)
	}
	res.Workbook = buf.Bytes()
	res.Timings.Export = time.Since(start)

	res.CompletedAt = now()
	res.FileName = export.FileName(res.ClosingMonth, mode, res.CompletedAt)

	logger.Info("conversion complete",
		zap.String("op", "convert.Run"),
		zap.Int("files", len(report.Files)),
		zap.Int("observations", len(obs)),
		zap.Int("records", len(res.Records)),
		zap.String("output", res.FileName),
		zap.Duration("read", res.Timings.Read),
		zap.Duration("process", res.Timings.Process),
		zap.Duration("export", res.Timings.Export))
	return res, nil
}
