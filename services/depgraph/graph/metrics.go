// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for graph operations.
var (
	tracer = otel.Tracer("depgraph.graph")
	meter  = otel.Meter("depgraph.graph")
)

var (
	buildLatency metric.Float64Histogram
	nodesCreated metric.Int64Histogram
	edgesCreated metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"depgraph_graph_build_duration_seconds",
			metric.WithDescription("Time from builder creation to freeze"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesCreated, err = meter.Int64Histogram(
			"depgraph_graph_nodes",
			metric.WithDescription("Number of nodes per frozen graph"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		edgesCreated, err = meter.Int64Histogram(
			"depgraph_graph_edges",
			metric.WithDescription("Number of edges per frozen graph"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordBuildMetrics(ctx context.Context, duration time.Duration, nodeCount, edgeCount int) {
	if err := initMetrics(); err != nil {
		return
	}
	buildLatency.Record(ctx, duration.Seconds())
	nodesCreated.Record(ctx, int64(nodeCount))
	edgesCreated.Record(ctx, int64(edgeCount))
}

func startFreezeSpan(ctx context.Context, fileCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Builder.Finish",
		trace.WithAttributes(
			attribute.Int("graph.file_count", fileCount),
		),
	)
}

func setFreezeSpanResult(span trace.Span, nodeCount, edgeCount int) {
	span.SetAttributes(
		attribute.Int("graph.node_count", nodeCount),
		attribute.Int("graph.edge_count", edgeCount),
	)
}
