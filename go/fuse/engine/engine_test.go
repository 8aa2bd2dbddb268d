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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jyizheng/datafuse/go/fuse/datablock"
	"github.com/jyizheng/datafuse/go/fuse/expression"
	"github.com/jyizheng/datafuse/go/fuse/ferrors"
	"github.com/jyizheng/datafuse/go/fuse/planner"
	"github.com/jyizheng/datafuse/go/fuse/sessions"
	"github.com/jyizheng/datafuse/go/sqltypes"
)

func idSchema() *sqltypes.Schema {
	return sqltypes.NewSchema(sqltypes.Field{Name: "id", Type: sqltypes.Int64})
}

func int64Block(t *testing.T, schema *sqltypes.Schema, values ...int64) *datablock.DataBlock {
	t.Helper()
	vals := make([]sqltypes.Value, len(values))
	for i, v := range values {
		vals[i] = sqltypes.NewInt64(v)
	}
	b, err := datablock.New(schema, []sqltypes.Column{sqltypes.NewArray(sqltypes.Int64, vals)})
	require.NoError(t, err)
	return b
}

func int64Rows(blocks []*datablock.DataBlock) []int64 {
	var out []int64
	for _, b := range blocks {
		col := b.Column(0)
		for i := 0; i < b.NumRows(); i++ {
			out = append(out, col.Get(i).Int64Value())
		}
	}
	return out
}

func idGreaterThan(n int64) expression.Expr {
	return &expression.BinaryOp{
		Op:    ">",
		Left:  &expression.Column{Name: "id"},
		Right: &expression.Literal{Value: sqltypes.NewInt64(n)},
	}
}

func newTestBuilder(results expression.SubqueryResults) *Builder {
	return NewBuilder(expression.DefaultResolver(), NewExecutorCache(), results)
}

func TestMemSourceStreamsAllBlocks(t *testing.T) {
	schema := idSchema()
	source := NewMemSource("numbers", schema, []*datablock.DataBlock{
		int64Block(t, schema, 1, 2),
		int64Block(t, schema, 3),
	})

	qctx := sessions.NewQueryContext(nil)
	source.SeedPartitions(qctx)

	blocks, err := Execute(context.Background(), qctx, source)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 3}, int64Rows(blocks))
	assert.Equal(t, uint64(3), qctx.Progress().Rows())
	assert.Equal(t, 0, qctx.RemainingPartitions())
}

func TestMemSourceCancellation(t *testing.T) {
	schema := idSchema()
	source := NewMemSource("numbers", schema, []*datablock.DataBlock{int64Block(t, schema, 1)})

	qctx := sessions.NewQueryContext(nil)
	source.SeedPartitions(qctx)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Execute(ctx, qctx, source)
	require.Error(t, err)
	assert.Equal(t, ferrors.CodeCanceled, ferrors.ErrCode(err))
}

func TestFilterPredicate(t *testing.T) {
	schema := idSchema()
	scan := planner.NewScan("numbers", schema, int64Block(t, schema, 5, 15, 25))
	plan := &planner.Filter{Input: scan, Predicate: idGreaterThan(10)}

	blocks, err := newTestBuilder(nil).Execute(context.Background(), sessions.NewQueryContext(nil), plan)
	require.NoError(t, err)
	assert.Equal(t, []int64{15, 25}, int64Rows(blocks))
}

// A [true, false, NULL, true] predicate column keeps rows 0 and 3, in
// order. NULL never matches.
func TestFilterNullPredicateRows(t *testing.T) {
	schema := sqltypes.NewSchema(
		sqltypes.Field{Name: "id", Type: sqltypes.Int64},
		sqltypes.Field{Name: "flag", Type: sqltypes.Boolean},
	)
	ids := sqltypes.NewArray(sqltypes.Int64, []sqltypes.Value{
		sqltypes.NewInt64(0), sqltypes.NewInt64(1), sqltypes.NewInt64(2), sqltypes.NewInt64(3),
	})
	flags := sqltypes.NewArray(sqltypes.Boolean, []sqltypes.Value{
		sqltypes.NewBoolean(true), sqltypes.NewBoolean(false), sqltypes.NULL, sqltypes.NewBoolean(true),
	})
	block, err := datablock.New(schema, []sqltypes.Column{ids, flags})
	require.NoError(t, err)

	scan := planner.NewScan("flagged", schema, block)
	plan := &planner.Filter{Input: scan, Predicate: &expression.Column{Name: "flag"}}

	blocks, err := newTestBuilder(nil).Execute(context.Background(), sessions.NewQueryContext(nil), plan)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, []int64{0, 3}, int64Rows(blocks))
}

func TestFilterNonBooleanPredicate(t *testing.T) {
	schema := idSchema()
	scan := planner.NewScan("numbers", schema, int64Block(t, schema, 1))
	plan := &planner.Filter{Input: scan, Predicate: &expression.Column{Name: "id"}}

	_, err := newTestBuilder(nil).Execute(context.Background(), sessions.NewQueryContext(nil), plan)
	require.Error(t, err)
	assert.Equal(t, ferrors.TypeMismatch, ferrors.ErrState(err))
}

func TestFilterPreResolvedExists(t *testing.T) {
	schema := idSchema()
	inner := planner.NewScan("inner", schema)
	exists := &expression.Exists{Plan: inner}

	scan := planner.NewScan("numbers", schema, int64Block(t, schema, 1, 2))
	plan := &planner.Filter{Input: scan, Predicate: exists}

	// True keeps everything.
	results := expression.SubqueryResults{exists.ColumnName(): true}
	blocks, err := newTestBuilder(results).Execute(context.Background(), sessions.NewQueryContext(nil), plan)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, int64Rows(blocks))

	// False drops everything.
	results = expression.SubqueryResults{exists.ColumnName(): false}
	blocks, err = newTestBuilder(results).Execute(context.Background(), sessions.NewQueryContext(nil), plan)
	require.NoError(t, err)
	assert.Zero(t, TotalRows(blocks))
}

// An EXISTS the scheduler did not pre-resolve is evaluated by the
// filter itself, once per stream.
func TestFilterResolvesExistsInline(t *testing.T) {
	schema := idSchema()

	// Inner plan yields no rows, so EXISTS is false.
	emptyInner := &planner.Filter{
		Input:     planner.NewScan("inner", schema, int64Block(t, schema, 1)),
		Predicate: idGreaterThan(100),
	}
	scan := planner.NewScan("numbers", schema, int64Block(t, schema, 1, 2))
	plan := &planner.Filter{Input: scan, Predicate: &expression.Exists{Plan: emptyInner}}

	blocks, err := newTestBuilder(nil).Execute(context.Background(), sessions.NewQueryContext(nil), plan)
	require.NoError(t, err)
	assert.Zero(t, TotalRows(blocks))

	// Inner plan with surviving rows flips the outcome.
	nonEmptyInner := &planner.Filter{
		Input:     planner.NewScan("inner", schema, int64Block(t, schema, 200)),
		Predicate: idGreaterThan(100),
	}
	plan = &planner.Filter{Input: scan, Predicate: &expression.Exists{Plan: nonEmptyInner}}
	blocks, err = newTestBuilder(nil).Execute(context.Background(), sessions.NewQueryContext(nil), plan)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, int64Rows(blocks))
}

func TestProjectionStream(t *testing.T) {
	schema := idSchema()
	scan := planner.NewScan("numbers", schema, int64Block(t, schema, 1, 2, 3))
	proj, err := planner.NewProjection(scan, expression.DefaultResolver(),
		&expression.Alias{Name: "twice", Inner: &expression.BinaryOp{
			Op:    "*",
			Left:  &expression.Column{Name: "id"},
			Right: &expression.Literal{Value: sqltypes.NewInt64(2)},
		}},
	)
	require.NoError(t, err)

	blocks, err := newTestBuilder(nil).Execute(context.Background(), sessions.NewQueryContext(nil), proj)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "twice", blocks[0].Schema().Field(0).Name)
	assert.Equal(t, []int64{2, 4, 6}, int64Rows(blocks))
}

func TestLimitTruncatesBlocks(t *testing.T) {
	schema := idSchema()
	scan := planner.NewScan("numbers", schema,
		int64Block(t, schema, 1, 2),
		int64Block(t, schema, 3, 4),
		int64Block(t, schema, 5, 6),
	)
	plan := &planner.Limit{Input: scan, N: 3}

	blocks, err := newTestBuilder(nil).Execute(context.Background(), sessions.NewQueryContext(nil), plan)
	require.NoError(t, err)
	assert.Equal(t, 3, TotalRows(blocks))

	// Zero limit produces nothing.
	blocks, err = newTestBuilder(nil).Execute(context.Background(), sessions.NewQueryContext(nil), &planner.Limit{Input: scan, N: 0})
	require.NoError(t, err)
	assert.Zero(t, TotalRows(blocks))
}

func TestExecutorUnresolvedExists(t *testing.T) {
	schema := idSchema()
	exists := &expression.Exists{Plan: planner.NewScan("inner", schema)}

	executor, err := NewExpressionExecutor(schema, expression.DefaultResolver(), exists)
	require.NoError(t, err)

	_, err = executor.EvalColumn(int64Block(t, schema, 1), nil, exists.ColumnName())
	require.Error(t, err)
	assert.Equal(t, ferrors.LogicalError, ferrors.ErrState(err))
}

func TestExecutorCacheReuse(t *testing.T) {
	schema := idSchema()
	cache := NewExecutorCache()
	resolver := expression.DefaultResolver()

	first, err := cache.Get(schema, resolver, idGreaterThan(10))
	require.NoError(t, err)
	second, err := cache.Get(schema, resolver, idGreaterThan(10))
	require.NoError(t, err)
	assert.Same(t, first, second)

	// Different expressions compile separately.
	third, err := cache.Get(schema, resolver, idGreaterThan(11))
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestBuildUnknownColumnFails(t *testing.T) {
	schema := idSchema()
	scan := planner.NewScan("numbers", schema, int64Block(t, schema, 1))
	plan := &planner.Filter{Input: scan, Predicate: &expression.Column{Name: "missing"}}

	_, err := newTestBuilder(nil).Execute(context.Background(), sessions.NewQueryContext(nil), plan)
	require.Error(t, err)
	assert.Equal(t, ferrors.UnknownColumn, ferrors.ErrState(err))
}
