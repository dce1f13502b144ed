package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epm-tools/mtd/internal/model"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.InputDir = "monthly"
	cfg.Currency = string(model.CurrencyEUROnly)
	cfg.Archive = true
	cfg.Extract.Workers = 2
	cfg.Logging.OutputFile = "logs/mtd.log"

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
	assert.Equal(t, model.CurrencyEUROnly, got.CurrencyMode())
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "import", cfg.InputDir)
	assert.Equal(t, "exports", cfg.OutputDir)
	assert.Equal(t, "logs", cfg.LogDir)
	assert.Equal(t, "LCC and EUR", cfg.Currency)
	assert.False(t, cfg.Archive)
	assert.Equal(t, 4, cfg.Extract.HeaderRow)
	assert.Equal(t, 500, cfg.Extract.SampleRows)
	assert.Equal(t, 4, cfg.Extract.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("output_dir: out\nextract:\n  workers: 8\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 8, cfg.Extract.Workers)
	assert.Equal(t, 4, cfg.Extract.HeaderRow)
	assert.Equal(t, "import", cfg.InputDir)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	t.Setenv("MTD_CURRENCY", "LCC only")
	t.Setenv("MTD_EXTRACT_HEADER_ROW", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, model.CurrencyLCCOnly, cfg.CurrencyMode())
	assert.Equal(t, 2, cfg.Extract.HeaderRow)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
}

func TestLoadOrDefault_Missing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("currency: USD\nextract:\n  workers: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown currency mode "USD"`)
	assert.Contains(t, err.Error(), "extract.workers must be >= 1")
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "input_dir: import")
	assert.Contains(t, contents, "currency: LCC and EUR")
	assert.Contains(t, contents, "header_row: 4")
	assert.NotContains(t, contents, "output_file")
}
