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
	"context"

	"github.com/jyizheng/datafuse/go/fuse/datablock"
	"github.com/jyizheng/datafuse/go/fuse/expression"
	"github.com/jyizheng/datafuse/go/fuse/ferrors"
	"github.com/jyizheng/datafuse/go/fuse/planner"
	"github.com/jyizheng/datafuse/go/fuse/sessions"
)

// Builder turns plan trees into primitive pipelines. It owns the
// function registries, the executor cache, and the set of subquery
// outcomes resolved so far; all three are injected, never global.
type Builder struct {
	resolver *expression.Resolver
	cache    *ExecutorCache
	results  expression.SubqueryResults
}

// NewBuilder builds pipelines with the given registries and cache.
// results may be nil when the plan has no pre-resolved subqueries.
func NewBuilder(resolver *expression.Resolver, cache *ExecutorCache, results expression.SubqueryResults) *Builder {
	if cache == nil {
		cache = NewExecutorCache()
	}
	return &Builder{resolver: resolver, cache: cache, results: results}
}

// WithResults derives a builder carrying a different outcome snapshot
// but sharing the registries and cache.
func (b *Builder) WithResults(results expression.SubqueryResults) *Builder {
	return &Builder{resolver: b.resolver, cache: b.cache, results: results}
}

// Build maps each plan node onto its operator.
func (b *Builder) Build(plan expression.Plan) (Primitive, error) {
	switch plan := plan.(type) {
	case *planner.Select:
		return b.Build(plan.Input)
	case *planner.Scan:
		return NewMemSource(plan.Table, plan.Schema(), plan.Blocks), nil
	case *planner.Filter:
		input, err := b.Build(plan.Input)
		if err != nil {
			return nil, err
		}
		return NewFilter(input, plan.Predicate, plan.Having, b.resolver, b.cache, b.results, b.RunSubquery), nil
	case *planner.Projection:
		input, err := b.Build(plan.Input)
		if err != nil {
			return nil, err
		}
		return NewProjection(input, b.resolver, b.cache, b.results, plan.Exprs...)
	case *planner.Limit:
		input, err := b.Build(plan.Input)
		if err != nil {
			return nil, err
		}
		return NewLimit(input, plan.N), nil
	}
	return nil, ferrors.Errorf(ferrors.CodeUnimplemented, "cannot build pipeline for plan %T", plan)
}

// Execute builds and drains the plan's pipeline. The query context is
// forked so the pipeline gets a private partition queue.
func (b *Builder) Execute(ctx context.Context, qctx *sessions.QueryContext, plan expression.Plan) ([]*datablock.DataBlock, error) {
	pipeline, err := b.Build(plan)
	if err != nil {
		return nil, err
	}
	forked := qctx.Fork()
	seedSources(pipeline, forked)
	return Execute(ctx, forked, pipeline)
}

// RunSubquery resolves one EXISTS subplan: the inner pipeline runs
// until its first surviving row, and any row at all means true.
func (b *Builder) RunSubquery(ctx context.Context, qctx *sessions.QueryContext, plan expression.Plan) (bool, error) {
	pipeline, err := b.Build(plan)
	if err != nil {
		return false, err
	}
	forked := qctx.Fork()
	seedSources(pipeline, forked)
	subqueriesExecuted.Inc()

	var found bool
	err = pipeline.StreamExecute(ctx, forked, func(block *datablock.DataBlock) error {
		if block.NumRows() > 0 {
			found = true
			return errLimitReached{}
		}
		return nil
	})
	if _, stopped := err.(errLimitReached); err != nil && !stopped {
		return false, err
	}
	return found, nil
}

// seedSources queues every source's partitions on the context before
// the pipeline starts pulling.
func seedSources(p Primitive, qctx *sessions.QueryContext) {
	if s, ok := p.(*MemSource); ok {
		s.SeedPartitions(qctx)
	}
	for _, in := range p.Inputs() {
		seedSources(in, qctx)
	}
}
