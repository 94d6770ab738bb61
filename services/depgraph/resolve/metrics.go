// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolve

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "depgraph",
		Subsystem: "resolve",
		Name:      "outcomes_total",
		Help:      "Import resolutions by outcome and language",
	}, []string{"outcome", "language"})

	resolveCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "depgraph",
		Subsystem: "resolve",
		Name:      "cache_hits_total",
		Help:      "Resolutions answered from the memo cache",
	})
)

func recordOutcome(o Outcome, language string) {
	if language == "" {
		language = "none"
	}
	resolveTotal.WithLabelValues(o.Status.String(), language).Inc()
}
