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
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jyizheng/datafuse/go/fuse/datablock"
	"github.com/jyizheng/datafuse/go/fuse/expression"
	"github.com/jyizheng/datafuse/go/fuse/ferrors"
	"github.com/jyizheng/datafuse/go/sqltypes"
)

// ExpressionExecutor evaluates a compiled chain over data blocks. One
// executor serves many blocks; it holds no per-block state.
type ExpressionExecutor struct {
	input  *sqltypes.Schema
	output *sqltypes.Schema
	chain  *expression.Chain
}

// NewExpressionExecutor compiles the target expressions against the
// input schema.
func NewExpressionExecutor(input *sqltypes.Schema, resolver *expression.Resolver, exprs ...expression.Expr) (*ExpressionExecutor, error) {
	chain, err := expression.NewChain(input, resolver, exprs...)
	if err != nil {
		return nil, err
	}
	output, err := resolver.ToFields(exprs, input)
	if err != nil {
		return nil, err
	}
	return &ExpressionExecutor{input: input, output: output, chain: chain}, nil
}

// OutputSchema is the schema of projected results.
func (e *ExpressionExecutor) OutputSchema() *sqltypes.Schema {
	return e.output
}

// eval runs the chain over one block and returns the full column map:
// input columns plus every produced intermediate.
func (e *ExpressionExecutor) eval(block *datablock.DataBlock, results expression.SubqueryResults) (map[string]sqltypes.Column, error) {
	rows := block.NumRows()
	columns := make(map[string]sqltypes.Column, block.Schema().Len()+len(e.chain.Actions()))
	for i, f := range block.Schema().Fields() {
		columns[f.Name] = block.Column(i)
	}

	for _, action := range e.chain.Actions() {
		if _, ok := columns[action.OutputName()]; ok {
			continue
		}
		switch action := action.(type) {
		case *expression.InputAction:
			return nil, ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError,
				"expression executor: input column %v not found in block", action.Name)
		case *expression.ConstantAction:
			columns[action.Name] = sqltypes.NewConst(action.Value.Type(), action.Value, rows)
		case *expression.ExistsAction:
			// Subquery outcomes arrive pre-resolved and broadcast as
			// constant boolean columns.
			outcome, ok := results[action.Name]
			if !ok {
				return nil, ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError,
					"expression executor: subquery %v was not resolved before evaluation", action.Name)
			}
			columns[action.Name] = sqltypes.NewConst(sqltypes.Boolean, sqltypes.NewBoolean(outcome), rows)
		case *expression.AliasAction:
			source, ok := columns[action.Source]
			if !ok {
				return nil, ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError,
					"expression executor: alias source %v not produced", action.Source)
			}
			columns[action.Name] = source
		case *expression.FunctionAction:
			args := make([]sqltypes.Column, len(action.ArgNames))
			for i, name := range action.ArgNames {
				arg, ok := columns[name]
				if !ok {
					return nil, ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError,
						"expression executor: argument %v of %v not produced", name, action.Name)
				}
				args[i] = arg
			}
			out, err := action.Func.Eval(args, rows)
			if err != nil {
				return nil, err
			}
			columns[action.Name] = out
		default:
			return nil, ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError,
				"expression executor: unknown action %T", action)
		}
	}
	return columns, nil
}

// EvalColumn runs the chain and returns the named output column.
func (e *ExpressionExecutor) EvalColumn(block *datablock.DataBlock, results expression.SubqueryResults, name string) (sqltypes.Column, error) {
	columns, err := e.eval(block, results)
	if err != nil {
		return nil, err
	}
	col, ok := columns[name]
	if !ok {
		return nil, ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError,
			"expression executor: output column %v not produced", name)
	}
	return col, nil
}

// Project runs the chain and assembles a block of the output schema.
func (e *ExpressionExecutor) Project(block *datablock.DataBlock, results expression.SubqueryResults) (*datablock.DataBlock, error) {
	columns, err := e.eval(block, results)
	if err != nil {
		return nil, err
	}
	out := make([]sqltypes.Column, e.output.Len())
	for i, f := range e.output.Fields() {
		col, ok := columns[f.Name]
		if !ok {
			return nil, ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError,
				"expression executor: projected column %v not produced", f.Name)
		}
		out[i] = col
	}
	return datablock.New(e.output, out)
}

// ExecutorCache memoizes compiled executors keyed by input schema and
// target expressions. Owned by whatever builds pipelines; there is no
// process-global instance.
type ExecutorCache struct {
	entries *cache.Cache
}

// NewExecutorCache builds a cache whose idle entries expire.
func NewExecutorCache() *ExecutorCache {
	return &ExecutorCache{entries: cache.New(30*time.Minute, 10*time.Minute)}
}

// Get returns a cached or freshly compiled executor for the targets.
func (c *ExecutorCache) Get(input *sqltypes.Schema, resolver *expression.Resolver, exprs ...expression.Expr) (*ExpressionExecutor, error) {
	if c == nil {
		return NewExpressionExecutor(input, resolver, exprs...)
	}
	key := executorKey(input, exprs)
	if cached, ok := c.entries.Get(key); ok {
		executorCacheHits.Inc()
		return cached.(*ExpressionExecutor), nil
	}
	executorCacheMisses.Inc()
	executor, err := NewExpressionExecutor(input, resolver, exprs...)
	if err != nil {
		return nil, err
	}
	c.entries.SetDefault(key, executor)
	return executor, nil
}

// executorKey combines the schema fingerprint with the canonical
// expression names. Canonical names are structural, so equal keys mean
// equal chains.
func executorKey(input *sqltypes.Schema, exprs []expression.Expr) string {
	names := make([]string, len(exprs))
	for i, e := range exprs {
		names[i] = e.ColumnName()
	}
	return fmt.Sprintf("%016x|%s", input.Fingerprint(), strings.Join(names, "\x00"))
}
