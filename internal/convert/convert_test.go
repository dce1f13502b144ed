package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/epm-tools/mtd/internal/export"
	"github.com/epm-tools/mtd/internal/model"
	"github.com/epm-tools/mtd/internal/schema"
	"github.com/epm-tools/mtd/internal/series"
	"github.com/epm-tools/mtd/internal/testutil"
	"github.com/epm-tools/mtd/internal/workbook"
)

var completed = time.Date(2024, 4, 2, 9, 15, 0, 0, time.UTC)

func newService() *Service {
	return NewService(workbook.NewReader(workbook.DefaultHeaderRow, workbook.DefaultSampleRows, nil), 2, nil)
}

func request(mode model.CurrencyMode, paths ...string) RunRequest {
	var files []Source
	for _, p := range paths {
		files = append(files, Source{Path: p})
	}
	return RunRequest{Files: files, Mode: mode, Now: func() time.Time { return completed }}
}

// writeScenario writes three cumulative months for one key: 100, 140, 200 LCC,
// with EUR at half.
func writeScenario(t *testing.T, dir string) []string {
	t.Helper()
	k := testutil.Key("FR01", "700000")
	return []string{
		testutil.WriteMonthly(t, dir, "2024M1.xlsx", testutil.Line{Key: k, Amount: "100", AmountEUR: "50"}),
		testutil.WriteMonthly(t, dir, "2024M2.xlsx", testutil.Line{Key: k, Amount: "140", AmountEUR: "70"}),
		testutil.WriteMonthly(t, dir, "2024M3.xlsx", testutil.Line{Key: k, Amount: "200", AmountEUR: "100"}),
	}
}

func TestRun_ThreeMonthScenario(t *testing.T) {
	paths := writeScenario(t, t.TempDir())

	res, err := newService().Run(context.Background(), request(model.CurrencyLCCAndEUR, paths...))
	require.NoError(t, err)

	assert.True(t, res.Report.Valid())
	assert.Equal(t, 3, res.ClosingMonth)
	assert.Equal(t, "MTD03_LCCEUR_240402_0915.xlsx", res.FileName)
	assert.Equal(t, completed, res.CompletedAt)
	assert.NotEmpty(t, res.RunID.String())

	require.Len(t, res.Records, 3)
	want := []struct {
		month    int
		lcc, eur string
	}{
		{1, "100", "50"},
		{2, "40", "20"},
		{3, "60", "30"},
	}
	for i, w := range want {
		rec := res.Records[i]
		assert.Equal(t, 2024, rec.Year)
		assert.Equal(t, w.month, rec.Month)
		assert.Equal(t, w.lcc, rec.LCC.String(), "month %d LCC", w.month)
		assert.Equal(t, w.eur, rec.EUR.String(), "month %d EUR", w.month)
		assert.Equal(t, "FR01", rec.Key.Get("Entity"))
	}

	f, err := excelize.OpenReader(bytes.NewReader(res.Workbook))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, export.Header(model.CurrencyLCCAndEUR), rows[0])
	assert.Equal(t, "40", rows[2][schema.NumDimensions])
	assert.Equal(t, "20", rows[2][schema.NumDimensions+1])
	assert.Equal(t, "2", rows[2][schema.NumDimensions+3])
}

func TestRun_EUROnly(t *testing.T) {
	paths := writeScenario(t, t.TempDir())

	res, err := newService().Run(context.Background(), request(model.CurrencyEUROnly, paths...))
	require.NoError(t, err)
	assert.Equal(t, "MTD03_EUR_240402_0915.xlsx", res.FileName)
	require.Len(t, res.Records, 3)
}

func TestRun_DefaultsMode(t *testing.T) {
	paths := writeScenario(t, t.TempDir())

	res, err := newService().Run(context.Background(), request("", paths...))
	require.NoError(t, err)
	assert.Equal(t, model.CurrencyLCCAndEUR, res.Mode)
}

func TestRun_Idempotent(t *testing.T) {
	paths := writeScenario(t, t.TempDir())
	svc := newService()

	first, err := svc.Run(context.Background(), request(model.CurrencyLCCAndEUR, paths...))
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), request(model.CurrencyLCCAndEUR, paths...))
	require.NoError(t, err)

	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.FileName, second.FileName)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_InputOrderDoesNotMatter(t *testing.T) {
	paths := writeScenario(t, t.TempDir())
	svc := newService()

	ordered, err := svc.Run(context.Background(), request(model.CurrencyLCCAndEUR, paths...))
	require.NoError(t, err)
	reversed, err := svc.Run(context.Background(), request(model.CurrencyLCCAndEUR, paths[2], paths[1], paths[0]))
	require.NoError(t, err)

	assert.Equal(t, ordered.Records, reversed.Records)
}

func TestRun_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	k := testutil.Key("FR01", "700000")
	m1 := testutil.WriteMonthly(t, dir, "2024M1.xlsx", testutil.Line{Key: k, Amount: "1"})
	m3 := testutil.WriteMonthly(t, dir, "2024M3.xlsx", testutil.Line{Key: k, Amount: "2"})
	header := append(schema.Expected()[:schema.NumDimensions], "Amount LCC", schema.ColAmountEUR)
	bad := testutil.WriteWithHeader(t, dir, "extract.xlsx", header, testutil.Line{Key: k, Amount: "3"})

	res, err := newService().Run(context.Background(), request(model.CurrencyLCCAndEUR, m1, m3, bad))
	require.Error(t, err)
	assert.True(t, IsValidationFailed(err))

	var vf *ValidationFailedError
	require.True(t, errors.As(err, &vf))
	assert.Same(t, res.Report, vf.Report)

	require.NotNil(t, res)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.FileName)
	assert.Nil(t, res.Workbook)
	assert.Equal(t, 3, res.ClosingMonth)
	assert.True(t, res.Report.Failed(series.RuleNaming))
	assert.True(t, res.Report.Failed(series.RuleConsecutive))
	assert.True(t, res.Report.Failed(series.RuleColumns))
	assert.False(t, res.Report.Failed(series.RuleSingleYear))
	assert.Contains(t, err.Error(), "validation failed")
}

func TestRun_NoFiles(t *testing.T) {
	_, err := newService().Run(context.Background(), RunRequest{})
	assert.ErrorIs(t, err, series.ErrNoFiles)
}

func TestRun_UnreadableFile(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "2024M1.xlsx")

	res, err := newService().Run(context.Background(), request(model.CurrencyLCCOnly, missing))
	require.Error(t, err)
	assert.True(t, IsValidationFailed(err))
	require.NotNil(t, res)
	assert.True(t, res.Report.Failed(series.RuleColumns))
	assert.Contains(t, err.Error(), "2024M1.xlsx")
	assert.Empty(t, res.Records)
}

func TestCheck_CorruptFileFailsColumnsOnly(t *testing.T) {
	dir := t.TempDir()
	paths := writeScenario(t, dir)
	garbage := filepath.Join(dir, "2024M4.xlsx")
	require.NoError(t, os.WriteFile(garbage, []byte("not a workbook"), 0o644))

	var files []Source
	for _, p := range append(paths, garbage) {
		files = append(files, Source{Path: p})
	}
	report, err := newService().Check(context.Background(), files)
	require.NoError(t, err)
	require.NotNil(t, report)
	require.Len(t, report.Files, 4)

	assert.False(t, report.Valid())
	require.Len(t, report.Violations, 1)
	assert.Equal(t, series.RuleColumns, report.Violations[0].Rule)
	assert.Equal(t, []string{"2024M4.xlsx"}, report.Violations[0].Files)

	corrupt := report.Files[3]
	assert.True(t, corrupt.Valid)
	assert.Equal(t, 4, corrupt.Month)
	assert.True(t, corrupt.Consecutive)
	assert.False(t, corrupt.ColumnsMatch)
	assert.Empty(t, corrupt.Columns)
}

func TestCheck_UsesSourceName(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteMonthly(t, dir, "upload-1.xlsx",
		testutil.Line{Key: testutil.Key("FR01", "700000"), Amount: "1"})

	report, err := newService().Check(context.Background(), []Source{{Name: "2024M1.xlsx", Path: path}})
	require.NoError(t, err)
	assert.True(t, report.Valid())
	require.Len(t, report.Files, 1)
	assert.Equal(t, "2024M1.xlsx", report.Files[0].Name)
	assert.Equal(t, 1, report.Files[0].Month)
	assert.True(t, report.Files[0].ColumnsMatch)
}

func TestCheck_Canceled(t *testing.T) {
	paths := writeScenario(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newService().Check(ctx, []Source{{Path: paths[0]}})
	assert.ErrorIs(t, err, context.Canceled)
}
