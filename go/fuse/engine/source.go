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
	"fmt"

	"github.com/jyizheng/datafuse/go/fuse/datablock"
	"github.com/jyizheng/datafuse/go/fuse/ferrors"
	"github.com/jyizheng/datafuse/go/fuse/log"
	"github.com/jyizheng/datafuse/go/fuse/sessions"
	"github.com/jyizheng/datafuse/go/sqltypes"
)

// MemSource streams an in-memory table block by block. Blocks are
// claimed through the query context's partition queue, so concurrent
// streams over the same context split the table between them.
type MemSource struct {
	table  string
	schema *sqltypes.Schema
	blocks []*datablock.DataBlock
}

var _ Primitive = (*MemSource)(nil)

// NewMemSource wraps table blocks as a source primitive.
func NewMemSource(table string, schema *sqltypes.Schema, blocks []*datablock.DataBlock) *MemSource {
	return &MemSource{table: table, schema: schema, blocks: blocks}
}

func (s *MemSource) Name() string { return "MemSource" }

func (s *MemSource) Schema() *sqltypes.Schema { return s.schema }

func (s *MemSource) Inputs() []Primitive { return nil }

// SeedPartitions queues one partition per block on the context.
func (s *MemSource) SeedPartitions(qctx *sessions.QueryContext) {
	parts := make([]sessions.Partition, len(s.blocks))
	for i := range s.blocks {
		parts[i] = sessions.Partition{
			Name:  fmt.Sprintf("%s-part-%d", s.table, i),
			Index: i,
		}
	}
	qctx.TrySetPartitions(parts)
}

func (s *MemSource) StreamExecute(ctx context.Context, qctx *sessions.QueryContext, callback func(*datablock.DataBlock) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return ferrors.Wrapf(err, "read table %v", s.table)
		}
		stolen := qctx.TryGetPartitions(1)
		if stolen == nil {
			return nil
		}
		part := stolen[0]
		if part.Index < 0 || part.Index >= len(s.blocks) {
			return ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError,
				"partition %v out of range for table %v", part.Index, s.table)
		}
		block := s.blocks[part.Index]
		blocksProcessed.WithLabelValues(s.Name()).Inc()
		qctx.Progress().Add(uint64(block.NumRows()), 0)
		if log.V(2) {
			log.Infof("query %v: table %v partition %v: %v rows", qctx.ID(), s.table, part.Name, block.NumRows())
		}
		if err := callback(block); err != nil {
			return err
		}
	}
}
