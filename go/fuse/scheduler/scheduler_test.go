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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jyizheng/datafuse/go/fuse/datablock"
	"github.com/jyizheng/datafuse/go/fuse/engine"
	"github.com/jyizheng/datafuse/go/fuse/expression"
	"github.com/jyizheng/datafuse/go/fuse/ferrors"
	"github.com/jyizheng/datafuse/go/fuse/flowclient"
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

func idGreaterThan(n int64) expression.Expr {
	return &expression.BinaryOp{
		Op:    ">",
		Left:  &expression.Column{Name: "id"},
		Right: &expression.Literal{Value: sqltypes.NewInt64(n)},
	}
}

// nestedPlans builds a top plan whose filter references exists(u),
// where u's own filter references exists(v).
func nestedPlans(t *testing.T, vHasRows bool) (top expression.Plan, uName, vName string) {
	schema := idSchema()

	var vRows []int64
	if vHasRows {
		vRows = []int64{1}
	}
	v := &planner.Filter{
		Input:     planner.NewScan("v_table", schema, int64Block(t, schema, vRows...)),
		Predicate: idGreaterThan(0),
	}
	vExists := &expression.Exists{Plan: v}

	u := &planner.Filter{
		Input:     planner.NewScan("u_table", schema, int64Block(t, schema, 7)),
		Predicate: vExists,
	}
	uExists := &expression.Exists{Plan: u}

	top = &planner.Select{Input: &planner.Filter{
		Input:     planner.NewScan("numbers", schema, int64Block(t, schema, 1, 2, 3)),
		Predicate: uExists,
	}}
	return top, uExists.ColumnName(), vExists.ColumnName()
}

func TestDiscoverLevels(t *testing.T) {
	top, uName, vName := nestedPlans(t, true)

	levels := discoverLevels(top)
	require.Len(t, levels, 2)
	require.Len(t, levels[0], 1)
	require.Len(t, levels[1], 1)
	assert.Equal(t, uName, levels[0][0].name)
	assert.Equal(t, vName, levels[1][0].name)
}

// Structurally identical subplans referenced from the same level
// resolve once.
func TestDiscoverLevelsDedup(t *testing.T) {
	schema := idSchema()
	inner := func() expression.Plan {
		return &planner.Filter{
			Input:     planner.NewScan("inner", schema, int64Block(t, schema, 1)),
			Predicate: idGreaterThan(0),
		}
	}
	pred := &expression.BinaryOp{
		Op:    "and",
		Left:  &expression.Exists{Plan: inner()},
		Right: &expression.Exists{Plan: inner()},
	}
	top := &planner.Filter{
		Input:     planner.NewScan("numbers", schema, int64Block(t, schema, 1)),
		Predicate: pred,
	}

	levels := discoverLevels(top)
	require.Len(t, levels, 1)
	assert.Len(t, levels[0], 1)
}

func TestDiscoverLevelsNoFilter(t *testing.T) {
	schema := idSchema()
	assert.Empty(t, discoverLevels(planner.NewScan("numbers", schema)))
}

func newInterpreter() *SelectInterpreter {
	builder := engine.NewBuilder(expression.DefaultResolver(), engine.NewExecutorCache(), nil)
	return NewSelectInterpreter(builder, nil, nil)
}

// The inner v subquery resolves first, u second with v's outcome
// substituted, and the top plan last.
func TestNestedExistsExecution(t *testing.T) {
	top, _, _ := nestedPlans(t, true)

	blocks, err := newInterpreter().Execute(context.Background(), sessions.NewQueryContext(nil), top)
	require.NoError(t, err)
	assert.Equal(t, 3, engine.TotalRows(blocks))
}

// An empty v makes exists(v) false, which empties u, which makes
// exists(u) false and empties the top plan.
func TestNestedExistsPropagatesEmptiness(t *testing.T) {
	top, _, _ := nestedPlans(t, false)

	blocks, err := newInterpreter().Execute(context.Background(), sessions.NewQueryContext(nil), top)
	require.NoError(t, err)
	assert.Zero(t, engine.TotalRows(blocks))
}

// Every level of a nested-exists query goes through the
// schedule/dispatch path: the deepest subplan's stages are prepared
// first, then the middle subplan's, then the top plan's.
func TestSubqueryLevelsAreDispatched(t *testing.T) {
	schema := idSchema()
	v := &planner.Filter{
		Input:     planner.NewScan("v_table", schema, int64Block(t, schema, 1)),
		Predicate: idGreaterThan(0),
	}
	u := &planner.Filter{
		Input:     planner.NewScan("u_table", schema, int64Block(t, schema, 7)),
		Predicate: &expression.Exists{Plan: v},
	}
	top := &planner.Select{Input: &planner.Filter{
		Input:     planner.NewScan("numbers", schema, int64Block(t, schema, 1, 2, 3)),
		Predicate: &expression.Exists{Plan: u},
	}}

	flow := &fakeFlow{}
	builder := engine.NewBuilder(expression.DefaultResolver(), engine.NewExecutorCache(), nil)
	interpreter := NewSelectInterpreter(builder,
		&StaticPartitioner{Nodes: []flowclient.Node{{Name: "executor-1", Address: "addr1"}}},
		NewDispatcher(flow.factory, time.Second),
	)

	blocks, err := interpreter.Execute(context.Background(), sessions.NewQueryContext(nil), top)
	require.NoError(t, err)
	assert.Equal(t, 3, engine.TotalRows(blocks))

	assert.Equal(t, []string{"executor-1", "executor-1", "executor-1"}, flow.preparedNodes())
	assert.Equal(t, []uint64{v.Fingerprint(), u.Fingerprint(), top.Fingerprint()}, flow.preparedPlanFingerprints())
}

// A failed dispatch of a subquery's stages aborts the whole query
// before the top plan is ever scheduled.
func TestSubqueryDispatchFailureAborts(t *testing.T) {
	top, _, _ := nestedPlans(t, true)

	flow := &fakeFlow{failOn: map[string]error{
		"executor-1": ferrors.New(ferrors.CodeUnavailable, "node down"),
	}}
	builder := engine.NewBuilder(expression.DefaultResolver(), engine.NewExecutorCache(), nil)
	interpreter := NewSelectInterpreter(builder,
		&StaticPartitioner{Nodes: []flowclient.Node{{Name: "executor-1", Address: "addr1"}}},
		NewDispatcher(flow.factory, time.Second),
	)

	_, err := interpreter.Execute(context.Background(), sessions.NewQueryContext(nil), top)
	require.Error(t, err)
	assert.Equal(t, ferrors.RemoteDispatch, ferrors.ErrState(err))
	// The deepest subquery failed; nothing was ever prepared.
	assert.Empty(t, flow.preparedNodes())
}

// Remote stages without a dispatcher fail cleanly instead of
// dereferencing nil.
func TestRemoteStagesWithoutDispatcher(t *testing.T) {
	schema := idSchema()
	plan := &planner.Filter{
		Input:     planner.NewScan("numbers", schema, int64Block(t, schema, 1)),
		Predicate: idGreaterThan(0),
	}

	builder := engine.NewBuilder(expression.DefaultResolver(), engine.NewExecutorCache(), nil)
	interpreter := NewSelectInterpreter(builder,
		&StaticPartitioner{Nodes: []flowclient.Node{{Name: "executor-1", Address: "addr1"}}},
		nil,
	)

	_, err := interpreter.Execute(context.Background(), sessions.NewQueryContext(nil), plan)
	require.Error(t, err)
	assert.Equal(t, ferrors.LogicalError, ferrors.ErrState(err))
}

func TestStaticPartitioner(t *testing.T) {
	p := &StaticPartitioner{Nodes: []flowclient.Node{
		{Name: "executor-1", Address: "addr1"},
		{Name: "executor-2", Address: "addr2"},
	}}
	schema := idSchema()
	plan := planner.NewScan("numbers", schema)

	scheduled, err := p.Schedule("q1", plan)
	require.NoError(t, err)
	assert.Same(t, expression.Plan(plan), scheduled.LocalPlan)
	require.Len(t, scheduled.RemoteActions, 2)
	assert.Equal(t, "stage-0", scheduled.RemoteActions[0].Action.StageID)
	assert.Equal(t, "stage-1", scheduled.RemoteActions[1].Action.StageID)
	assert.Equal(t, "q1", scheduled.RemoteActions[0].Action.QueryID)
}

// fakeFlow records prepare and kill calls across the clients it hands
// out.
type fakeFlow struct {
	mu            sync.Mutex
	prepared      []string
	preparedPlans []uint64
	killed        []string
	failOn        map[string]error
	dialErrOn     map[string]error
}

func (f *fakeFlow) factory(node flowclient.Node) (flowclient.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.dialErrOn[node.Name]; err != nil {
		return nil, err
	}
	return &fakeClient{flow: f, node: node}, nil
}

func (f *fakeFlow) preparedPlanFingerprints() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.preparedPlans...)
}

func (f *fakeFlow) preparedNodes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prepared...)
}

func (f *fakeFlow) killedNodes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.killed...)
}

type fakeClient struct {
	flow *fakeFlow
	node flowclient.Node
}

func (c *fakeClient) PrepareStage(ctx context.Context, action *flowclient.FragmentAction, timeout time.Duration) error {
	c.flow.mu.Lock()
	defer c.flow.mu.Unlock()
	if err := c.flow.failOn[c.node.Name]; err != nil {
		return err
	}
	c.flow.prepared = append(c.flow.prepared, c.node.Name)
	if action.Plan != nil {
		c.flow.preparedPlans = append(c.flow.preparedPlans, action.Plan.Fingerprint())
	}
	return nil
}

func (c *fakeClient) KillStage(ctx context.Context, queryID, stageID string) error {
	c.flow.mu.Lock()
	defer c.flow.mu.Unlock()
	c.flow.killed = append(c.flow.killed, c.node.Name)
	return nil
}

func (c *fakeClient) Close() error { return nil }

func remoteActions(names ...string) []RemoteAction {
	actions := make([]RemoteAction, len(names))
	for i, name := range names {
		actions[i] = RemoteAction{
			Node:   flowclient.Node{Name: name, Address: name + ":9090"},
			Action: &flowclient.FragmentAction{QueryID: "q1", StageID: stageID(i)},
		}
	}
	return actions
}

func TestDispatchAllSucceed(t *testing.T) {
	flow := &fakeFlow{}
	d := NewDispatcher(flow.factory, time.Second)

	require.NoError(t, d.Dispatch(context.Background(), remoteActions("A", "B", "C")))
	assert.Equal(t, []string{"A", "B", "C"}, flow.preparedNodes())
	assert.Empty(t, flow.killedNodes())
}

// B's prepare failure aborts the dispatch: C is never contacted, the
// already-prepared A is torn down, and B's error is what comes back.
func TestDispatchAbortsOnFailure(t *testing.T) {
	flow := &fakeFlow{failOn: map[string]error{
		"B": ferrors.New(ferrors.CodeUnavailable, "node down"),
	}}
	d := NewDispatcher(flow.factory, time.Second)

	err := d.Dispatch(context.Background(), remoteActions("A", "B", "C"))
	require.Error(t, err)
	assert.Equal(t, ferrors.RemoteDispatch, ferrors.ErrState(err))
	assert.Contains(t, err.Error(), "node down")
	assert.Contains(t, err.Error(), "node B")

	assert.Equal(t, []string{"A"}, flow.preparedNodes())
	require.Eventually(t, func() bool {
		return len(flow.killedNodes()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"A"}, flow.killedNodes())
}

// Two prepared fragments on the same node produce a single kill.
func TestDispatchTeardownDedupsByNode(t *testing.T) {
	flow := &fakeFlow{failOn: map[string]error{
		"B": ferrors.New(ferrors.CodeUnavailable, "node down"),
	}}
	d := NewDispatcher(flow.factory, time.Second)

	actions := remoteActions("A", "A", "B")
	err := d.Dispatch(context.Background(), actions)
	require.Error(t, err)

	require.Eventually(t, func() bool {
		return len(flow.killedNodes()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	// No second kill shows up for A's other stage.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"A"}, flow.killedNodes())
}

func TestDispatchDialFailure(t *testing.T) {
	flow := &fakeFlow{dialErrOn: map[string]error{
		"A": ferrors.New(ferrors.CodeUnavailable, "refused"),
	}}
	d := NewDispatcher(flow.factory, time.Second)

	err := d.Dispatch(context.Background(), remoteActions("A"))
	require.Error(t, err)
	assert.Equal(t, ferrors.RemoteDispatch, ferrors.ErrState(err))
	assert.Empty(t, flow.preparedNodes())
	assert.Empty(t, flow.killedNodes())
}
