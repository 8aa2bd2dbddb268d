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

package scheduler

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jyizheng/datafuse/go/fuse/datablock"
	"github.com/jyizheng/datafuse/go/fuse/engine"
	"github.com/jyizheng/datafuse/go/fuse/expression"
	"github.com/jyizheng/datafuse/go/fuse/ferrors"
	"github.com/jyizheng/datafuse/go/fuse/log"
	"github.com/jyizheng/datafuse/go/fuse/planner"
	"github.com/jyizheng/datafuse/go/fuse/sessions"
)

// subqueryEntry is one EXISTS subplan discovered during level
// discovery, keyed by its canonical column name.
type subqueryEntry struct {
	name string
	plan expression.Plan
}

// SelectInterpreter runs a query end to end: it prepares remote
// stages, resolves correlated subqueries level by level, then streams
// the main pipeline with every outcome substituted in.
type SelectInterpreter struct {
	builder     *engine.Builder
	partitioner Partitioner
	dispatcher  *Dispatcher
}

// NewSelectInterpreter wires an interpreter. dispatcher may be nil
// when the partitioner never schedules remote stages.
func NewSelectInterpreter(builder *engine.Builder, partitioner Partitioner, dispatcher *Dispatcher) *SelectInterpreter {
	if partitioner == nil {
		partitioner = LocalPartitioner{}
	}
	return &SelectInterpreter{builder: builder, partitioner: partitioner, dispatcher: dispatcher}
}

// Execute runs the plan and collects its result blocks. Subquery
// levels resolve first; the top plan's own stages are prepared only
// after every subquery, deepest first, has been scheduled, dispatched,
// and run.
func (si *SelectInterpreter) Execute(ctx context.Context, qctx *sessions.QueryContext, plan expression.Plan) ([]*datablock.DataBlock, error) {
	results, err := si.resolveSubqueries(ctx, qctx, plan)
	if err != nil {
		return nil, err
	}
	localPlan, err := si.prepare(ctx, qctx, plan)
	if err != nil {
		return nil, err
	}
	return si.builder.WithResults(results).Execute(ctx, qctx, localPlan)
}

// prepare schedules one plan and dispatches its remote stages. Every
// execution goes through here, subqueries included, so each runs as an
// independent, possibly distributed query.
func (si *SelectInterpreter) prepare(ctx context.Context, qctx *sessions.QueryContext, plan expression.Plan) (expression.Plan, error) {
	scheduled, err := si.partitioner.Schedule(qctx.ID(), plan)
	if err != nil {
		return nil, err
	}
	if len(scheduled.RemoteActions) > 0 {
		if si.dispatcher == nil {
			return nil, ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError,
				"scheduler: %v remote stages scheduled but no dispatcher configured", len(scheduled.RemoteActions))
		}
		if err := si.dispatcher.Dispatch(ctx, scheduled.RemoteActions); err != nil {
			return nil, err
		}
	}
	return scheduled.LocalPlan, nil
}

// resolveSubqueries discovers EXISTS subplans breadth-first and
// resolves them deepest level first, so by the time a subplan runs,
// every subquery it references is already in the outcome set and its
// own remote stages are prepared.
func (si *SelectInterpreter) resolveSubqueries(ctx context.Context, qctx *sessions.QueryContext, plan expression.Plan) (expression.SubqueryResults, error) {
	levels := discoverLevels(plan)
	if len(levels) == 0 {
		return nil, nil
	}

	results := make(expression.SubqueryResults)
	var mu sync.Mutex
	for i := len(levels) - 1; i >= 0; i-- {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(qctx.Settings().MaxThreads)
		for _, entry := range levels[i] {
			entry := entry
			mu.Lock()
			snapshot := results.Clone()
			mu.Unlock()
			g.Go(func() error {
				localPlan, err := si.prepare(gctx, qctx, entry.plan)
				if err != nil {
					return err
				}
				outcome, err := si.builder.WithResults(snapshot).RunSubquery(gctx, qctx, localPlan)
				if err != nil {
					return err
				}
				if log.V(1) {
					log.Infof("query %v: subquery %v resolved to %v", qctx.ID(), entry.name, outcome)
				}
				mu.Lock()
				results[entry.name] = outcome
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// discoverLevels walks the plan breadth-first. Each level holds the
// EXISTS subplans referenced by the filters of the previous level's
// plans; level 0 belongs to the top plan itself. A subplan seen twice,
// structurally, resolves once.
func discoverLevels(plan expression.Plan) [][]subqueryEntry {
	var levels [][]subqueryEntry
	seen := make(map[string]bool)
	frontier := []expression.Plan{plan}
	for len(frontier) > 0 {
		var level []subqueryEntry
		var next []expression.Plan
		for _, p := range frontier {
			filter := planner.NearestFilter(p)
			if filter == nil {
				continue
			}
			for _, e := range expression.FindExists(filter.Predicate) {
				name := e.ColumnName()
				if seen[name] {
					continue
				}
				seen[name] = true
				level = append(level, subqueryEntry{name: name, plan: e.Plan})
				next = append(next, e.Plan)
			}
		}
		if len(level) > 0 {
			levels = append(levels, level)
		}
		frontier = next
	}
	return levels
}
