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

// Package scheduler plans where a query's stages run and drives the
// correlated-subquery resolution that must happen before the main
// pipeline streams.
package scheduler

import (
	"strconv"

	"github.com/jyizheng/datafuse/go/fuse/expression"
	"github.com/jyizheng/datafuse/go/fuse/flowclient"
)

// RemoteAction is one plan fragment bound to one executor node.
type RemoteAction struct {
	Node   flowclient.Node
	Action *flowclient.FragmentAction
}

// ScheduledActions splits a query between the local node and remote
// stages. LocalPlan always runs here; RemoteActions must all be
// prepared before it starts.
type ScheduledActions struct {
	LocalPlan     expression.Plan
	RemoteActions []RemoteAction
}

// Partitioner decides the stage placement of a plan.
type Partitioner interface {
	Schedule(queryID string, plan expression.Plan) (*ScheduledActions, error)
}

// LocalPartitioner runs everything on the local node. Used for
// single-node deployments and as the fallback when no cluster topology
// is configured.
type LocalPartitioner struct{}

var _ Partitioner = (*LocalPartitioner)(nil)

func (LocalPartitioner) Schedule(queryID string, plan expression.Plan) (*ScheduledActions, error) {
	return &ScheduledActions{LocalPlan: plan}, nil
}

// StaticPartitioner keeps the full plan local and prepares a mirror
// stage on every configured node.
type StaticPartitioner struct {
	Nodes []flowclient.Node
}

var _ Partitioner = (*StaticPartitioner)(nil)

func (p *StaticPartitioner) Schedule(queryID string, plan expression.Plan) (*ScheduledActions, error) {
	actions := make([]RemoteAction, 0, len(p.Nodes))
	for i, node := range p.Nodes {
		actions = append(actions, RemoteAction{
			Node: node,
			Action: &flowclient.FragmentAction{
				QueryID: queryID,
				StageID: stageID(i),
				Plan:    plan,
			},
		})
	}
	return &ScheduledActions{LocalPlan: plan, RemoteActions: actions}, nil
}

func stageID(i int) string {
	return "stage-" + strconv.Itoa(i)
}
