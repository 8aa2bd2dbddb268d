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
	"github.com/jyizheng/datafuse/go/fuse/log"
	"github.com/jyizheng/datafuse/go/fuse/sessions"
	"github.com/jyizheng/datafuse/go/sqltypes"
)

// SubqueryRunner evaluates an EXISTS subplan to its boolean outcome.
// The builder supplies one so the filter can resolve placeholders that
// were not materialized ahead of the stream.
type SubqueryRunner func(ctx context.Context, qctx *sessions.QueryContext, plan expression.Plan) (bool, error)

// Filter streams the input rows matching a boolean predicate. Row
// order within and across blocks is preserved.
type Filter struct {
	input     Primitive
	predicate expression.Expr
	having    bool

	resolver *expression.Resolver
	cache    *ExecutorCache
	results  expression.SubqueryResults
	runner   SubqueryRunner
}

var _ Primitive = (*Filter)(nil)

// NewFilter builds a filter over the input. results carries subquery
// outcomes already resolved by the scheduler; runner resolves the rest.
func NewFilter(input Primitive, predicate expression.Expr, having bool, resolver *expression.Resolver, cache *ExecutorCache, results expression.SubqueryResults, runner SubqueryRunner) *Filter {
	return &Filter{
		input:     input,
		predicate: predicate,
		having:    having,
		resolver:  resolver,
		cache:     cache,
		results:   results,
		runner:    runner,
	}
}

func (f *Filter) Name() string {
	if f.having {
		return "HavingFilter"
	}
	return "Filter"
}

func (f *Filter) Schema() *sqltypes.Schema { return f.input.Schema() }

func (f *Filter) Inputs() []Primitive { return []Primitive{f.input} }

func (f *Filter) StreamExecute(ctx context.Context, qctx *sessions.QueryContext, callback func(*datablock.DataBlock) error) error {
	results, err := f.resolveSubqueries(ctx, qctx)
	if err != nil {
		return err
	}
	executor, err := f.cache.Get(f.input.Schema(), f.resolver, f.predicate)
	if err != nil {
		return err
	}
	name := f.predicate.ColumnName()
	return f.input.StreamExecute(ctx, qctx, func(block *datablock.DataBlock) error {
		blocksProcessed.WithLabelValues(f.Name()).Inc()
		col, err := executor.EvalColumn(block, results, name)
		if err != nil {
			return err
		}
		if col.Type().Kind != sqltypes.KindBoolean {
			return ferrors.NewErrorf(ferrors.CodeInvalidArgument, ferrors.TypeMismatch,
				"filter predicate %v must be boolean, got %v", name, col.Type())
		}
		keep := make([]bool, block.NumRows())
		kept := 0
		for i := range keep {
			v := col.Get(i)
			// NULL predicates never match.
			keep[i] = !v.IsNull() && v.BoolValue()
			if keep[i] {
				kept++
			}
		}
		rowsFiltered.Add(float64(block.NumRows() - kept))
		if kept == 0 {
			return nil
		}
		out, err := block.FilterRows(keep)
		if err != nil {
			return err
		}
		return callback(out)
	})
}

// resolveSubqueries fills in EXISTS outcomes the pre-resolved set does
// not cover. Each subplan runs once per stream, not per block.
func (f *Filter) resolveSubqueries(ctx context.Context, qctx *sessions.QueryContext) (expression.SubqueryResults, error) {
	pending := expression.FindExists(f.predicate)
	if len(pending) == 0 {
		return f.results, nil
	}
	results := f.results.Clone()
	for _, e := range pending {
		name := e.ColumnName()
		if _, ok := results[name]; ok {
			continue
		}
		if f.runner == nil {
			return nil, ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError,
				"filter: subquery %v has no resolved result and no runner", name)
		}
		outcome, err := f.runner(ctx, qctx, e.Plan)
		if err != nil {
			return nil, ferrors.Wrapf(err, "resolve subquery %v", name)
		}
		if log.V(2) {
			log.Infof("query %v: subquery %v resolved to %v", qctx.ID(), name, outcome)
		}
		results[name] = outcome
	}
	return results, nil
}
