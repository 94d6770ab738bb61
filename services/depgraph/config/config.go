// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads depgraph settings.
//
// Precedence, lowest first:
//
//	defaults → YAML file → .env file → DEPGRAPH_* environment → CLI flags
//
// CLI flags are applied by the caller after Load returns; Validate should
// be called again afterwards.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/depgraph/services/depgraph/discovery"
	"github.com/AleutianAI/depgraph/services/depgraph/lang"
	"github.com/AleutianAI/depgraph/services/depgraph/orchestrator"
	"github.com/AleutianAI/depgraph/services/depgraph/resolve"
	"github.com/AleutianAI/depgraph/services/depgraph/telemetry"
)

// DefaultFileName is looked up in the working directory when no explicit
// config path is given.
const DefaultFileName = ".depgraph.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DEPGRAPH_"

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidEnv is returned when an environment override cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment override")
)

// Config is the complete depgraph configuration.
type Config struct {
	Root              string        `yaml:"root"`
	Workers           int           `yaml:"workers" validate:"gte=0,lte=1024"`
	MaxFileSize       int64         `yaml:"max_file_size" validate:"gt=0"`
	Languages         []string      `yaml:"languages" validate:"dive,language"`
	StrictLanguages   bool          `yaml:"strict_languages"`
	IncludeUnknown    bool          `yaml:"include_unknown"`
	Ignore            []string      `yaml:"ignore" validate:"dive,required"`
	NoGitignore       bool          `yaml:"no_gitignore"`
	TimeBudget        time.Duration `yaml:"time_budget" validate:"gte=0"`
	MaxFiles          int           `yaml:"max_files" validate:"gte=0"`
	ResolverCacheSize int           `yaml:"resolver_cache_size" validate:"gte=0"`

	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Store     StoreConfig     `yaml:"store"`
}

// LogConfig configures pkg/logging.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
	Dir   string `yaml:"dir"`
}

// TelemetryConfig selects OpenTelemetry exporters.
type TelemetryConfig struct {
	TraceExporter  string `yaml:"trace_exporter" validate:"oneof=none stdout otlp"`
	MetricExporter string `yaml:"metric_exporter" validate:"oneof=none stdout prometheus"`
	OTLPEndpoint   string `yaml:"otlp_endpoint" validate:"required_if=TraceExporter otlp"`
}

// StoreConfig locates the run history database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	oc := orchestrator.DefaultConfig()
	return Config{
		Root:              ".",
		Workers:           0,
		MaxFileSize:       oc.MaxFileSize,
		ResolverCacheSize: resolve.DefaultCacheSize,
		Log: LogConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  telemetry.ExporterNone,
			MetricExporter: telemetry.ExporterNone,
			OTLPEndpoint:   "localhost:4317",
		},
		Store: StoreConfig{
			Path: DefaultStorePath(),
		},
	}
}

// DefaultStorePath returns the run history directory under the user cache
// directory, or a relative fallback when none is available.
func DefaultStorePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "depgraph", "runs")
	}
	return filepath.Join(".depgraph", "runs")
}

// LoadOption customizes Load.
type LoadOption func(*loader)

type loader struct {
	envFile string
	lookup  func(string) (string, bool)
}

// WithEnvFile loads variables from a dotenv file before applying
// environment overrides. Variables already set in the process win. A
// missing file is not an error.
func WithEnvFile(path string) LoadOption {
	return func(l *loader) {
		l.envFile = path
	}
}

// WithLookup replaces os.LookupEnv.
func WithLookup(lookup func(string) (string, bool)) LoadOption {
	return func(l *loader) {
		l.lookup = lookup
	}
}

// Load builds a validated Config.
//
// # Description
//
// When path is empty, DefaultFileName in the working directory is used if
// it exists. An explicit path must exist. Unknown YAML keys are rejected.
//
// # Outputs
//
//   - Config: The merged configuration.
//   - error: File, parse, environment or validation failure.
func Load(path string, opts ...LoadOption) (Config, error) {
	l := loader{envFile: ".env", lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(&l)
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if l.envFile != "" {
		if err := godotenv.Load(l.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", l.envFile, err)
		}
	}
	if err := cfg.applyEnv(l.lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overlays DEPGRAPH_* variables. List values are comma-separated.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	strs := map[string]*string{
		"ROOT":            &c.Root,
		"LOG_LEVEL":       &c.Log.Level,
		"LOG_DIR":         &c.Log.Dir,
		"TRACE_EXPORTER":  &c.Telemetry.TraceExporter,
		"METRIC_EXPORTER": &c.Telemetry.MetricExporter,
		"OTLP_ENDPOINT":   &c.Telemetry.OTLPEndpoint,
		"STORE_PATH":      &c.Store.Path,
	}
	for name, dst := range strs {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"WORKERS":             &c.Workers,
		"MAX_FILES":           &c.MaxFiles,
		"RESOLVER_CACHE_SIZE": &c.ResolverCacheSize,
	}
	for name, dst := range ints {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidEnv, EnvPrefix, name, v, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"STRICT_LANGUAGES": &c.StrictLanguages,
		"INCLUDE_UNKNOWN":  &c.IncludeUnknown,
		"NO_GITIGNORE":     &c.NoGitignore,
		"LOG_JSON":         &c.Log.JSON,
	}
	for name, dst := range bools {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidEnv, EnvPrefix, name, v, err)
			}
			*dst = b
		}
	}

	if v, ok := get("MAX_FILE_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %sMAX_FILE_SIZE=%q: %v", ErrInvalidEnv, EnvPrefix, v, err)
		}
		c.MaxFileSize = n
	}
	if v, ok := get("TIME_BUDGET"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %sTIME_BUDGET=%q: %v", ErrInvalidEnv, EnvPrefix, v, err)
		}
		c.TimeBudget = d
	}
	if v, ok := get("LANGUAGES"); ok {
		c.Languages = SplitList(v)
	}
	if v, ok := get("IGNORE"); ok {
		c.Ignore = SplitList(v)
	}
	return nil
}

// SplitList splits a comma-separated list, dropping empty entries.
func SplitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("language", validateLanguage)
	return v
}

// validateLanguage accepts tags with a built-in profile.
func validateLanguage(fl validator.FieldLevel) bool {
	_, ok := lang.Default().Lookup(fl.Field().String())
	return ok
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ToOrchestrator converts to an orchestrator.Config. Workers 0 selects
// the orchestrator default.
func (c Config) ToOrchestrator() orchestrator.Config {
	oc := orchestrator.DefaultConfig()
	if c.Workers > 0 {
		oc.Workers = c.Workers
	}
	oc.MaxFileSize = c.MaxFileSize
	oc.Languages = append([]string(nil), c.Languages...)
	oc.StrictLanguages = c.StrictLanguages
	oc.TimeBudget = c.TimeBudget
	oc.MaxFiles = c.MaxFiles
	oc.ResolverCacheSize = c.ResolverCacheSize
	return oc
}

// ToDiscovery converts to discovery.Options. Unknown files are collected
// when IncludeUnknown or StrictLanguages is set so the orchestrator can
// report them.
func (c Config) ToDiscovery(registry *lang.Registry) discovery.Options {
	return discovery.Options{
		Registry:       registry,
		IncludeUnknown: c.IncludeUnknown || c.StrictLanguages,
		Ignore:         append([]string(nil), c.Ignore...),
		NoGitignore:    c.NoGitignore,
	}
}

// ToTelemetry converts to a telemetry.Config.
func (c Config) ToTelemetry() telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.TraceExporter = c.Telemetry.TraceExporter
	tc.MetricExporter = c.Telemetry.MetricExporter
	tc.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	return tc
}
