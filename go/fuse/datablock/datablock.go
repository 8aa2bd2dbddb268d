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

// Package datablock implements the batch the engine streams between
// operators: a schema plus one column value per field.
package datablock

import (
	"github.com/jyizheng/datafuse/go/fuse/ferrors"
	"github.com/jyizheng/datafuse/go/sqltypes"
)

// DataBlock is a batch of rows. The row count is uniform across all
// columns; blocks are immutable once built.
type DataBlock struct {
	schema  *sqltypes.Schema
	columns []sqltypes.Column
	rows    int
}

// New builds a block and checks the uniform row count invariant.
func New(schema *sqltypes.Schema, columns []sqltypes.Column) (*DataBlock, error) {
	if schema.Len() != len(columns) {
		return nil, ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError, "block has %v columns for %v schema fields", len(columns), schema.Len())
	}
	rows := 0
	for i, c := range columns {
		if i == 0 {
			rows = c.Len()
			continue
		}
		if c.Len() != rows {
			return nil, ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError, "column %v has %v rows, expected %v", schema.Field(i).Name, c.Len(), rows)
		}
	}
	return &DataBlock{schema: schema, columns: columns, rows: rows}, nil
}

// Empty returns a zero-row block for the schema.
func Empty(schema *sqltypes.Schema) *DataBlock {
	columns := make([]sqltypes.Column, schema.Len())
	for i, f := range schema.Fields() {
		columns[i] = sqltypes.NewArray(f.Type, nil)
	}
	block, _ := New(schema, columns)
	return block
}

// Schema returns the block schema.
func (b *DataBlock) Schema() *sqltypes.Schema {
	return b.schema
}

// NumRows returns the number of rows in the block.
func (b *DataBlock) NumRows() int {
	return b.rows
}

// Column returns the i-th column.
func (b *DataBlock) Column(i int) sqltypes.Column {
	return b.columns[i]
}

// ColumnByName returns the column for the named field.
func (b *DataBlock) ColumnByName(name string) (sqltypes.Column, error) {
	i, ok := b.schema.FieldIndex(name)
	if !ok {
		return nil, ferrors.NewErrorf(ferrors.CodeInvalidArgument, ferrors.UnknownColumn, "unknown column: %v", name)
	}
	return b.columns[i], nil
}

// FilterRows returns a block keeping only rows where keep is true, in the
// original order.
func (b *DataBlock) FilterRows(keep []bool) (*DataBlock, error) {
	if len(keep) != b.rows {
		return nil, ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError, "filter selection length %v does not match block rows %v", len(keep), b.rows)
	}
	columns := make([]sqltypes.Column, len(b.columns))
	for i, c := range b.columns {
		filtered, err := sqltypes.FilterColumn(c, keep)
		if err != nil {
			return nil, err
		}
		columns[i] = filtered
	}
	return New(b.schema, columns)
}
