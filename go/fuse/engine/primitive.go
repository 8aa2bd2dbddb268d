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

// Package engine executes query plans as streaming pipelines of
// primitives over columnar data blocks.
package engine

import (
	"context"

	"github.com/jyizheng/datafuse/go/fuse/datablock"
	"github.com/jyizheng/datafuse/go/fuse/sessions"
	"github.com/jyizheng/datafuse/go/sqltypes"
)

// Primitive is one streaming operator. StreamExecute pushes output
// blocks to the callback in input order; a callback error aborts the
// stream and propagates up.
type Primitive interface {
	// Name identifies the operator kind for logs and metrics.
	Name() string
	Schema() *sqltypes.Schema
	StreamExecute(ctx context.Context, qctx *sessions.QueryContext, callback func(*datablock.DataBlock) error) error
	Inputs() []Primitive
}

// Execute drains a primitive into a block slice. Meant for roots and
// tests; inner operators stay streaming.
func Execute(ctx context.Context, qctx *sessions.QueryContext, p Primitive) ([]*datablock.DataBlock, error) {
	var blocks []*datablock.DataBlock
	err := p.StreamExecute(ctx, qctx, func(b *datablock.DataBlock) error {
		blocks = append(blocks, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// TotalRows sums the row counts of the blocks.
func TotalRows(blocks []*datablock.DataBlock) int {
	var n int
	for _, b := range blocks {
		n += b.NumRows()
	}
	return n
}
