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
	"github.com/jyizheng/datafuse/go/fuse/sessions"
	"github.com/jyizheng/datafuse/go/sqltypes"
)

// Limit caps the stream at n rows, truncating the block that crosses
// the boundary.
type Limit struct {
	input Primitive
	n     int
}

var _ Primitive = (*Limit)(nil)

// errLimitReached stops the upstream early without surfacing an error
// to the caller.
type errLimitReached struct{}

func (errLimitReached) Error() string { return "limit reached" }

// NewLimit wraps the input with a row cap.
func NewLimit(input Primitive, n int) *Limit {
	return &Limit{input: input, n: n}
}

func (l *Limit) Name() string { return "Limit" }

func (l *Limit) Schema() *sqltypes.Schema { return l.input.Schema() }

func (l *Limit) Inputs() []Primitive { return []Primitive{l.input} }

func (l *Limit) StreamExecute(ctx context.Context, qctx *sessions.QueryContext, callback func(*datablock.DataBlock) error) error {
	if l.n <= 0 {
		return nil
	}
	remaining := l.n
	err := l.input.StreamExecute(ctx, qctx, func(block *datablock.DataBlock) error {
		blocksProcessed.WithLabelValues(l.Name()).Inc()
		if block.NumRows() > remaining {
			keep := make([]bool, block.NumRows())
			for i := 0; i < remaining; i++ {
				keep[i] = true
			}
			truncated, err := block.FilterRows(keep)
			if err != nil {
				return err
			}
			block = truncated
		}
		remaining -= block.NumRows()
		if err := callback(block); err != nil {
			return err
		}
		if remaining == 0 {
			return errLimitReached{}
		}
		return nil
	})
	if _, stopped := err.(errLimitReached); stopped {
		return nil
	}
	return err
}
