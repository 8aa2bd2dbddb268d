/*
Copyright 2021 The Datafuse Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	blocksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fuse",
		Subsystem: "engine",
		Name:      "blocks_processed_total",
		Help:      "Data blocks processed, by operator.",
	}, []string{"operator"})

	rowsFiltered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fuse",
		Subsystem: "engine",
		Name:      "rows_filtered_total",
		Help:      "Rows dropped by filter predicates.",
	})

	subqueriesExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fuse",
		Subsystem: "engine",
		Name:      "subqueries_executed_total",
		Help:      "EXISTS subqueries resolved by draining their inner pipeline.",
	})

	executorCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fuse",
		Subsystem: "engine",
		Name:      "executor_cache_hits_total",
		Help:      "Compiled expression chains served from cache.",
	})

	executorCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fuse",
		Subsystem: "engine",
		Name:      "executor_cache_misses_total",
		Help:      "Expression chains compiled because no cache entry matched.",
	})
)
