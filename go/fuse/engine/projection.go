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
	"github.com/jyizheng/datafuse/go/fuse/sessions"
	"github.com/jyizheng/datafuse/go/sqltypes"
)

// Projection evaluates target expressions over each input block.
type Projection struct {
	input    Primitive
	executor *ExpressionExecutor
	results  expression.SubqueryResults
}

var _ Primitive = (*Projection)(nil)

// NewProjection compiles the projection targets against the input's
// schema.
func NewProjection(input Primitive, resolver *expression.Resolver, cache *ExecutorCache, results expression.SubqueryResults, exprs ...expression.Expr) (*Projection, error) {
	executor, err := cache.Get(input.Schema(), resolver, exprs...)
	if err != nil {
		return nil, err
	}
	return &Projection{input: input, executor: executor, results: results}, nil
}

func (p *Projection) Name() string { return "Projection" }

func (p *Projection) Schema() *sqltypes.Schema { return p.executor.OutputSchema() }

func (p *Projection) Inputs() []Primitive { return []Primitive{p.input} }

func (p *Projection) StreamExecute(ctx context.Context, qctx *sessions.QueryContext, callback func(*datablock.DataBlock) error) error {
	return p.input.StreamExecute(ctx, qctx, func(block *datablock.DataBlock) error {
		blocksProcessed.WithLabelValues(p.Name()).Inc()
		out, err := p.executor.Project(block, p.results)
		if err != nil {
			return err
		}
		return callback(out)
	})
}
