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

package sessions

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Partition is one independently readable slice of a table. Index
// addresses the backing block in the owning scan.
type Partition struct {
	Name  string
	Index int
}

// Progress counts rows and bytes a query has processed. Safe for
// concurrent use.
type Progress struct {
	rows  atomic.Uint64
	bytes atomic.Uint64
}

// Add records processed rows and bytes.
func (p *Progress) Add(rows, bytes uint64) {
	p.rows.Add(rows)
	p.bytes.Add(bytes)
}

// Rows returns the rows processed so far.
func (p *Progress) Rows() uint64 { return p.rows.Load() }

// Bytes returns the bytes processed so far.
func (p *Progress) Bytes() uint64 { return p.bytes.Load() }

// QueryContext is the shared runtime state of one query: its identity,
// settings, partition queue, and progress counters. Parallel source
// streams steal partitions from the shared queue, so a table's
// partitions spread over however many streams are running.
type QueryContext struct {
	id       string
	settings *Settings
	progress *Progress

	mu         sync.RWMutex
	partitions []Partition
}

// NewQueryContext builds a context with a fresh query ID.
func NewQueryContext(settings *Settings) *QueryContext {
	if settings == nil {
		settings = DefaultSettings()
	}
	return &QueryContext{
		id:       uuid.NewString(),
		settings: settings,
		progress: &Progress{},
	}
}

// Fork derives a context with its own partition queue. Identity,
// settings, and progress stay shared, so pipelines of the same query
// running in parallel cannot clobber each other's queues.
func (c *QueryContext) Fork() *QueryContext {
	return &QueryContext{
		id:       c.id,
		settings: c.settings,
		progress: c.progress,
	}
}

// ID returns the query's UUID.
func (c *QueryContext) ID() string { return c.id }

// Settings returns the query settings.
func (c *QueryContext) Settings() *Settings { return c.settings }

// Progress returns the query's progress counters.
func (c *QueryContext) Progress() *Progress { return c.progress }

// TrySetPartitions replaces the partition queue.
func (c *QueryContext) TrySetPartitions(parts []Partition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.partitions = append(c.partitions[:0], parts...)
}

// TryGetPartitions steals up to n partitions from the back of the
// queue. It returns nil once the queue is drained.
func (c *QueryContext) TryGetPartitions(n int) []Partition {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 || len(c.partitions) == 0 {
		return nil
	}
	if n > len(c.partitions) {
		n = len(c.partitions)
	}
	cut := len(c.partitions) - n
	stolen := make([]Partition, n)
	copy(stolen, c.partitions[cut:])
	c.partitions = c.partitions[:cut]
	return stolen
}

// RemainingPartitions returns how many partitions are still queued.
func (c *QueryContext) RemainingPartitions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.partitions)
}

// Reset clears the partition queue so the context can drive another
// pipeline of the same query.
func (c *QueryContext) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.partitions = nil
}
