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

// Package flowclient talks to remote executor nodes: it ships plan
// fragments to them before a distributed query runs and kills stages
// when a dispatch has to be rolled back.
package flowclient

import (
	"context"
	"time"

	"github.com/jyizheng/datafuse/go/fuse/expression"
)

// Node identifies a remote executor. Name is the cluster-unique
// identity; Address is the gRPC endpoint.
type Node struct {
	Name    string
	Address string
}

// FragmentAction is one plan fragment bound to one stage of a query.
type FragmentAction struct {
	QueryID string
	StageID string
	Plan    expression.Plan
}

// Client prepares and kills query stages on a single remote node.
type Client interface {
	// PrepareStage ships the fragment and waits for the node to
	// acknowledge it, up to the timeout.
	PrepareStage(ctx context.Context, action *FragmentAction, timeout time.Duration) error
	// KillStage tears down a previously prepared stage.
	KillStage(ctx context.Context, queryID, stageID string) error
	Close() error
}

// Factory builds a Client for a node. Injected into the scheduler so
// tests can substitute fakes.
type Factory func(node Node) (Client, error)
