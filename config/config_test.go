package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thisisjab/jitsoql/processor"
	"github.com/thisisjab/jitsoql/source"
	"github.com/thisisjab/jitsoql/storage"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAndParse(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	queries := writeFile(t, dir, "queries.soql", "SELECT Id FROM Account\n")

	cfgPath := writeFile(t, dir, "config.yaml", `
logger:
  level: debug
  type: json
  output: `+filepath.Join(dir, "engine.log")+`
storage:
  type: jsonl
  config:
    path: `+filepath.Join(dir, "reports.jsonl")+`
processors:
  - name: validate
    type: validate
    config:
      require_round_trip: true
  - name: bind
    type: bind
    config:
      values:
        id: "001"
  - name: unwrap
    type: json
    config:
      query_field: q
sources:
  - name: queries
    type: file
    processors: [validate, bind]
    config:
      path: `+queries+`
records_buffer_size: 10
reports_buffer_size: 20
storage_flush_interval: 2s
processor_workers_count: 4
api:
  addr: localhost:8000
  cors:
    trusted_origins: ["http://localhost:3000"]
`)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "localhost:8000", cfg.API.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.API.CORS.TrustedOrigins)

	engineCfg, logger, err := cfg.Parse()
	require.NoError(t, err)
	require.NotNil(t, logger)

	assert.Equal(t, uint(10), engineCfg.RecordsBufferMaxSize)
	assert.Equal(t, uint(20), engineCfg.ReportsBufferMaxSize)
	assert.Equal(t, 2*time.Second, engineCfg.StorageFlushInterval)
	assert.Equal(t, uint(4), engineCfg.ProcessorWorkersCount)

	assert.IsType(t, &storage.JSONLinesStorage{}, engineCfg.Storage)
	assert.IsType(t, &processor.ValidateProcessor{}, engineCfg.Processors["validate"])
	assert.IsType(t, &processor.BindProcessor{}, engineCfg.Processors["bind"])
	assert.IsType(t, &processor.JsonQueryProcessor{}, engineCfg.Processors["unwrap"])

	src, ok := engineCfg.Sources["queries"].(*source.FileQuerySource)
	require.True(t, ok)
	assert.Equal(t, "queries", src.Name())
	assert.Equal(t, []string{"validate", "bind"}, src.ProcessorNames())
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger := LoggerConfig{Type: "text", Output: filepath.Join(dir, "log")}
	jsonl := StorageConfig{Type: "jsonl", Config: map[string]any{"path": filepath.Join(dir, "out.jsonl")}}

	tests := map[string]Config{
		"bad log level":       {Logger: LoggerConfig{Level: "loud"}},
		"bad log type":        {Logger: LoggerConfig{Type: "xml"}},
		"bad storage":         {Logger: logger, Storage: StorageConfig{Type: "clickhouse"}},
		"bad processor":       {Logger: logger, Storage: jsonl, Processors: []ProcessorConfig{{Name: "x", Type: "regex"}}},
		"bad source":          {Logger: logger, Storage: jsonl, Sources: []SourceConfig{{Name: "x", Type: "kafka"}}},
		"source without path": {Logger: logger, Storage: jsonl, Sources: []SourceConfig{{Name: "x", Type: "file"}}},
		"duplicate processor": {Logger: logger, Storage: jsonl, Processors: []ProcessorConfig{
			{Name: "x", Type: "validate"}, {Name: "x", Type: "validate"},
		}},
		"missing lua script": {Logger: logger, Storage: jsonl, Processors: []ProcessorConfig{
			{Name: "x", Type: "bind", Config: map[string]any{"script_path": filepath.Join(dir, "missing.lua")}},
		}},
	}

	for name, cfg := range tests {
		_, _, err := cfg.Parse()
		assert.Error(t, err, name)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, t.TempDir(), "bad.yaml", "logger: [")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestNewLoggerRejectsBeforeOpeningOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	for name, cfg := range map[string]LoggerConfig{
		"bad type":  {Type: "xml", Output: filepath.Join(dir, "type.log")},
		"bad level": {Level: "loud", Type: "json", Output: filepath.Join(dir, "level.log")},
	} {
		_, err := NewLogger(cfg)
		require.Error(t, err, name)

		_, err = os.Stat(cfg.Output)
		assert.ErrorIs(t, err, os.ErrNotExist, name)
	}
}

func TestNewLoggerDefaults(t *testing.T) {
	t.Parallel()

	for _, typ := range []string{"", "json", "text", "colored-text"} {
		logger, err := NewLogger(LoggerConfig{Type: typ, Output: "stderr"})
		require.NoError(t, err, typ)
		assert.NotNil(t, logger)
	}
}
