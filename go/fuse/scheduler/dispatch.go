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
	"time"

	"github.com/jyizheng/datafuse/go/fuse/ferrors"
	"github.com/jyizheng/datafuse/go/fuse/flowclient"
	"github.com/jyizheng/datafuse/go/fuse/log"
)

// Dispatcher prepares remote stages ahead of query execution. Stages
// prepare sequentially; the first failure aborts the dispatch and
// tears down every stage already prepared.
type Dispatcher struct {
	factory flowclient.Factory
	timeout time.Duration
}

// NewDispatcher builds a dispatcher. timeout bounds each prepare call.
func NewDispatcher(factory flowclient.Factory, timeout time.Duration) *Dispatcher {
	return &Dispatcher{factory: factory, timeout: timeout}
}

// Dispatch sends each fragment to its node in order. On failure the
// fragments after the failing one are never sent, previously prepared
// stages are killed, and the prepare error comes back wrapped as a
// remote dispatch failure.
func (d *Dispatcher) Dispatch(ctx context.Context, actions []RemoteAction) error {
	var prepared []RemoteAction
	for _, ra := range actions {
		client, err := d.factory(ra.Node)
		if err != nil {
			remotePrepareFailures.Inc()
			d.teardown(ctx, prepared)
			return d.failure(err, ra)
		}
		remotePrepares.Inc()
		err = client.PrepareStage(ctx, ra.Action, d.timeout)
		closeErr := client.Close()
		if err != nil {
			remotePrepareFailures.Inc()
			d.teardown(ctx, prepared)
			return d.failure(err, ra)
		}
		if closeErr != nil {
			log.Warningf("close flow client for %v: %v", ra.Node.Name, closeErr)
		}
		prepared = append(prepared, ra)
	}
	return nil
}

func (d *Dispatcher) failure(err error, ra RemoteAction) error {
	return ferrors.Wrapf(
		ferrors.NewErrorf(ferrors.ErrCode(err), ferrors.RemoteDispatch, "%v", err),
		"prepare stage %v on node %v", ra.Action.StageID, ra.Node.Name,
	)
}

// teardown kills the prepared stages, one kill per node. Kills are
// fire-and-forget on a context detached from the dispatch: the caller
// gets the original prepare error immediately and a slow node cannot
// block the abort.
func (d *Dispatcher) teardown(ctx context.Context, prepared []RemoteAction) {
	killed := make(map[string]bool, len(prepared))
	for _, ra := range prepared {
		if killed[ra.Node.Name] {
			continue
		}
		killed[ra.Node.Name] = true
		go d.killStage(context.WithoutCancel(ctx), ra)
	}
}

func (d *Dispatcher) killStage(ctx context.Context, ra RemoteAction) {
	client, err := d.factory(ra.Node)
	if err != nil {
		log.Errorf("teardown: connect to %v: %v", ra.Node.Name, err)
		return
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Warningf("teardown: close client for %v: %v", ra.Node.Name, err)
		}
	}()
	if err := client.KillStage(ctx, ra.Action.QueryID, ra.Action.StageID); err != nil {
		log.Errorf("teardown: kill stage %v on %v: %v", ra.Action.StageID, ra.Node.Name, err)
		return
	}
	log.Infof("teardown: killed stage %v on %v", ra.Action.StageID, ra.Node.Name)
}
