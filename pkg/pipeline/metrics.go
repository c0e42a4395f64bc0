/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wolfibuild_builds_total",
		Help: "Image builds by terminal status.",
	}, []string{"status"})

	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wolfibuild_build_duration_seconds",
		Help:    "Wall-clock duration of image builds.",
		Buckets: prometheus.ExponentialBuckets(10, 2, 10),
	})

	pushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wolfibuild_pushes_total",
		Help: "Registry pushes by terminal status.",
	}, []string{"status"})

	pushRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wolfibuild_push_retries_total",
		Help: "Push attempts retried after a transient registry error.",
	})

	manifestListsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wolfibuild_manifest_lists_total",
		Help: "Multi-arch manifest lists published.",
	})
)
