// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/depgraph/services/depgraph/lang"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.Store.Path)
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "depgraph.yaml", `
root: ./src
workers: 3
max_file_size: 2048
languages: [rust, python]
strict_languages: true
ignore:
  - "*.gen.go"
time_budget: 30s
max_files: 500
log:
  level: debug
  json: true
telemetry:
  trace_exporter: stdout
store:
  path: /tmp/runs
`)

	cfg, err := Load(path, WithEnvFile(""), WithLookup(noEnv))
	require.NoError(t, err)
	assert.Equal(t, "./src", cfg.Root)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, int64(2048), cfg.MaxFileSize)
	assert.Equal(t, []string{"rust", "python"}, cfg.Languages)
	assert.True(t, cfg.StrictLanguages)
	assert.Equal(t, []string{"*.gen.go"}, cfg.Ignore)
	assert.Equal(t, 30*time.Second, cfg.TimeBudget)
	assert.Equal(t, 500, cfg.MaxFiles)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
	assert.Equal(t, "none", cfg.Telemetry.MetricExporter, "unset keys keep defaults")
	assert.Equal(t, "/tmp/runs", cfg.Store.Path)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "depgraph.yaml", "workers: 3\nlanguages: [rust]\n")

	cfg, err := Load(path, WithEnvFile(""), WithLookup(envMap(map[string]string{
		"DEPGRAPH_WORKERS":         "8",
		"DEPGRAPH_LANGUAGES":       "go, typescript,,",
		"DEPGRAPH_INCLUDE_UNKNOWN": "true",
		"DEPGRAPH_TIME_BUDGET":     "1m",
		"DEPGRAPH_MAX_FILE_SIZE":   "4096",
		"DEPGRAPH_LOG_LEVEL":       "warn",
		"DEPGRAPH_STORE_PATH":      "",
	})))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, []string{"go", "typescript"}, cfg.Languages)
	assert.True(t, cfg.IncludeUnknown)
	assert.Equal(t, time.Minute, cfg.TimeBudget)
	assert.Equal(t, int64(4096), cfg.MaxFileSize)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, DefaultStorePath(), cfg.Store.Path, "empty values are ignored")
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "DEPGRAPH_MAX_FILES=42\n")
	t.Cleanup(func() { os.Unsetenv("DEPGRAPH_MAX_FILES") })

	_, err := Load(filepath.Join(dir, "missing.yaml"), WithEnvFile(envFile))
	assert.Error(t, err, "an explicit config path must exist")

	cfg, err := Load("", WithEnvFile(envFile))
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.MaxFiles)
}

func TestLoad_MissingEnvFileIsFine(t *testing.T) {
	_, err := Load("", WithEnvFile(filepath.Join(t.TempDir(), "nope.env")), WithLookup(noEnv))
	assert.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr error
	}{
		{
			name:    "unknown key",
			yaml:    "wrokers: 3\n",
			wantErr: nil,
		},
		{
			name:    "unknown language",
			yaml:    "languages: [cobol]\n",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "bad log level",
			yaml:    "log:\n  level: loud\n",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "bad exporter",
			yaml:    "telemetry:\n  metric_exporter: influx\n",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "negative max files",
			yaml:    "max_files: -1\n",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "zero max file size",
			yaml:    "max_file_size: 0\n",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "bad env int",
			env:     map[string]string{"DEPGRAPH_WORKERS": "many"},
			wantErr: ErrInvalidEnv,
		},
		{
			name:    "bad env duration",
			env:     map[string]string{"DEPGRAPH_TIME_BUDGET": "soon"},
			wantErr: ErrInvalidEnv,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "c.yaml", tt.yaml)
			_, err := Load(path, WithEnvFile(""), WithLookup(envMap(tt.env)))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.yaml", "")
	cfg, err := Load(path, WithEnvFile(""), WithLookup(noEnv))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Workers = 0
	cfg.Languages = []string{"rust"}
	cfg.StrictLanguages = true
	cfg.MaxFiles = 10
	cfg.Ignore = []string{"docs/"}
	cfg.Telemetry.TraceExporter = "otlp"

	oc := cfg.ToOrchestrator()
	require.NoError(t, oc.Validate())
	assert.Positive(t, oc.Workers)
	assert.Equal(t, []string{"rust"}, oc.Languages)
	assert.True(t, oc.StrictLanguages)
	assert.Equal(t, 10, oc.MaxFiles)

	do := cfg.ToDiscovery(lang.Default())
	assert.True(t, do.IncludeUnknown, "strict mode needs unknown files to report them")
	assert.Equal(t, []string{"docs/"}, do.Ignore)

	tc := cfg.ToTelemetry()
	assert.Equal(t, "otlp", tc.TraceExporter)
	assert.Equal(t, "localhost:4317", tc.OTLPEndpoint)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a ,, b ,"))
	assert.Empty(t, SplitList(""))
}
