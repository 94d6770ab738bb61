// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("depgraph.orchestrator")
	meter  = otel.Meter("depgraph.orchestrator")
)

var (
	runLatency    metric.Float64Histogram
	runTotal      metric.Int64Counter
	filesTotal    metric.Int64Counter
	fileReadBytes metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		runLatency, err = meter.Float64Histogram(
			"depgraph_run_duration_seconds",
			metric.WithDescription("Duration of orchestrator runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		runTotal, err = meter.Int64Counter(
			"depgraph_run_total",
			metric.WithDescription("Total orchestrator runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesTotal, err = meter.Int64Counter(
			"depgraph_files_total",
			metric.WithDescription("Files accounted for, by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		fileReadBytes, err = meter.Int64Counter(
			"depgraph_file_read_bytes_total",
			metric.WithDescription("Bytes read from analyzed files"),
			metric.WithUnit("By"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordFile(ctx context.Context, outcome string) {
	if err := initMetrics(); err != nil {
		return
	}
	filesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func recordBytes(ctx context.Context, n int) {
	if err := initMetrics(); err != nil {
		return
	}
	fileReadBytes.Add(ctx, int64(n))
}

func recordRun(ctx context.Context, duration time.Duration, incomplete bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("incomplete", incomplete))
	runLatency.Record(ctx, duration.Seconds(), attrs)
	runTotal.Add(ctx, 1, attrs)
}

func startRunSpan(ctx context.Context, fileCount, workers int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Orchestrator.Run",
		trace.WithAttributes(
			attribute.Int("orchestrator.file_count", fileCount),
			attribute.Int("orchestrator.workers", workers),
		),
	)
}

func setRunSpanResult(span trace.Span, r *Result) {
	span.SetAttributes(
		attribute.Int("orchestrator.files_ingested", r.Stats.FilesIngested),
		attribute.Int("orchestrator.files_failed", r.Stats.FilesFailed),
		attribute.Int("orchestrator.files_skipped", r.Stats.FilesSkipped),
		attribute.Bool("orchestrator.incomplete", r.Incomplete),
		attribute.String("orchestrator.stop_reason", string(r.StopReason)),
	)
}
