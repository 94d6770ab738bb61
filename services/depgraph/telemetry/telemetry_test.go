// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	t.Setenv("OTEL_METRICS_EXPORTER", "")
	cfg := DefaultConfig()

	if cfg.ServiceName != "depgraph" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "depgraph")
	}
	if cfg.TraceExporter != ExporterNone {
		t.Errorf("TraceExporter = %q, want %q", cfg.TraceExporter, ExporterNone)
	}
	if cfg.MetricExporter != ExporterNone {
		t.Errorf("MetricExporter = %q, want %q", cfg.MetricExporter, ExporterNone)
	}
}

func TestDefaultConfig_Env(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "stdout")
	if got := DefaultConfig().TraceExporter; got != "stdout" {
		t.Errorf("TraceExporter = %q, want stdout", got)
	}
}

func TestInit_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	_, err := Init(nil, DefaultConfig())
	if !errors.Is(err, ErrNilContext) {
		t.Errorf("Init(nil, cfg) error = %v, want %v", err, ErrNilContext)
	}
}

func TestInit_Noop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = ExporterNone
	cfg.MetricExporter = ExporterNone

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestInit_StdoutTraces(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.TraceExporter = ExporterStdout
	cfg.MetricExporter = ExporterNone
	cfg.Writer = &buf

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	_, span := otel.Tracer("depgraph.test").Start(context.Background(), "Orchestrator.Run")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Orchestrator.Run") {
		t.Errorf("exported spans missing span name: %s", buf.String())
	}
}

func TestInit_PrometheusMetrics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = ExporterNone
	cfg.MetricExporter = ExporterPrometheus
	cfg.Registry = prometheus.NewRegistry()

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer shutdown(context.Background())

	counter, err := otel.Meter("depgraph.test").Int64Counter("depgraph_test_files")
	if err != nil {
		t.Fatalf("Int64Counter() error = %v", err)
	}
	counter.Add(context.Background(), 3)

	handler := MetricsHandler()
	if handler == nil {
		t.Fatal("MetricsHandler() = nil with prometheus exporter")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "depgraph_test_files") {
		t.Errorf("metrics output missing counter:\n%s", body)
	}
}

func TestInit_UnknownExporter(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(*Config)
	}{
		{"trace", func(c *Config) { c.TraceExporter = "zipkin" }},
		{"metric", func(c *Config) { c.TraceExporter = ExporterNone; c.MetricExporter = "influx" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.cfg(&cfg)
			_, err := Init(context.Background(), cfg)
			if !errors.Is(err, ErrUnknownExporter) {
				t.Errorf("Init() error = %v, want %v", err, ErrUnknownExporter)
			}
		})
	}
}

func TestLoggerWithTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LoggerWithTrace(context.Background(), logger).Info("no span")
	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("output should not contain trace_id without a span: %s", buf.String())
	}
	buf.Reset()

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	LoggerWithTrace(ctx, logger).Info("with span")
	if !strings.Contains(buf.String(), `"trace_id":"0102030405060708090a0b0c0d0e0f10"`) {
		t.Errorf("output missing trace_id: %s", buf.String())
	}

	if LoggerWithTrace(ctx, nil) == nil {
		t.Error("nil logger should fall back to slog.Default()")
	}
}
