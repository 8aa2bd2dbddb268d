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

package flowclient

import (
	"context"
	"encoding/json"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/jyizheng/datafuse/go/fuse/ferrors"
)

const (
	prepareStageMethod = "/fuse.QueryFlow/PrepareStage"
	killStageMethod    = "/fuse.QueryFlow/KillStage"
)

// prepareRequest is the wire envelope of a stage prepare. The plan
// travels by structural fingerprint; the executing node rebuilds the
// fragment from its own catalog.
type prepareRequest struct {
	QueryID         string `json:"query_id"`
	StageID         string `json:"stage_id"`
	PlanFingerprint uint64 `json:"plan_fingerprint,string"`
}

type killRequest struct {
	QueryID string `json:"query_id"`
	StageID string `json:"stage_id"`
}

type grpcClient struct {
	node Node
	conn *grpc.ClientConn
}

var _ Client = (*grpcClient)(nil)

// GRPCFactory dials executor nodes over plaintext gRPC.
func GRPCFactory(node Node) (Client, error) {
	conn, err := grpc.NewClient(node.Address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}),
	)
	if err != nil {
		return nil, ferrors.Wrapf(err, "dial flow server on %v (%v)", node.Name, node.Address)
	}
	return &grpcClient{node: node, conn: conn}, nil
}

var _ Factory = GRPCFactory

func (c *grpcClient) PrepareStage(ctx context.Context, action *FragmentAction, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req := &prepareRequest{
		QueryID: action.QueryID,
		StageID: action.StageID,
	}
	if action.Plan != nil {
		req.PlanFingerprint = action.Plan.Fingerprint()
	}
	if err := c.invoke(ctx, prepareStageMethod, req); err != nil {
		return ferrors.Wrapf(err, "prepare stage %v/%v on %v", action.QueryID, action.StageID, c.node.Name)
	}
	return nil
}

func (c *grpcClient) KillStage(ctx context.Context, queryID, stageID string) error {
	if err := c.invoke(ctx, killStageMethod, &killRequest{QueryID: queryID, StageID: stageID}); err != nil {
		return ferrors.Wrapf(err, "kill stage %v/%v on %v", queryID, stageID, c.node.Name)
	}
	return nil
}

func (c *grpcClient) invoke(ctx context.Context, method string, req any) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	var reply []byte
	err = c.conn.Invoke(ctx, method, payload, &reply, grpc.ForceCodec(rawCodec{}))
	return ferrors.FromGRPC(err)
}

func (c *grpcClient) Close() error {
	return c.conn.Close()
}

// rawCodec passes pre-encoded byte payloads through the gRPC transport
// untouched.
type rawCodec struct{}

func (rawCodec) Marshal(v any) ([]byte, error) {
	switch v := v.(type) {
	case []byte:
		return v, nil
	case *[]byte:
		return *v, nil
	}
	return nil, ferrors.Errorf(ferrors.CodeInternal, "raw codec cannot marshal %T", v)
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	out, ok := v.(*[]byte)
	if !ok {
		return ferrors.Errorf(ferrors.CodeInternal, "raw codec cannot unmarshal into %T", v)
	}
	*out = data
	return nil
}

func (rawCodec) Name() string { return "fuse-raw" }
