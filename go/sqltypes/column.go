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

package sqltypes

import (
	"github.com/jyizheng/datafuse/go/fuse/ferrors"
)

// Column is one columnar value of a batch: either a materialized array or
// a constant broadcast over the batch's row count.
type Column interface {
	// Type returns the column data type.
	Type() Type
	// Len returns the number of rows.
	Len() int
	// Get returns the value at row i.
	Get(i int) Value
	// IsConst reports whether the column is a broadcast constant.
	IsConst() bool
}

var _ Column = (*ArrayColumn)(nil)
var _ Column = (*ConstColumn)(nil)

// ArrayColumn is a materialized column.
type ArrayColumn struct {
	typ    Type
	values []Value
}

// NewArray builds a materialized column.
func NewArray(typ Type, values []Value) *ArrayColumn {
	return &ArrayColumn{typ: typ, values: values}
}

func (c *ArrayColumn) Type() Type { return c.typ }

func (c *ArrayColumn) Len() int { return len(c.values) }

func (c *ArrayColumn) Get(i int) Value { return c.values[i] }

func (c *ArrayColumn) IsConst() bool { return false }

// ConstColumn broadcasts a single value over a row count.
type ConstColumn struct {
	typ   Type
	value Value
	rows  int
}

// NewConst builds a broadcast constant column. The type is carried
// explicitly so that a NULL constant still knows its declared type.
func NewConst(typ Type, value Value, rows int) *ConstColumn {
	return &ConstColumn{typ: typ, value: value, rows: rows}
}

func (c *ConstColumn) Type() Type { return c.typ }

func (c *ConstColumn) Len() int { return c.rows }

func (c *ConstColumn) Get(i int) Value { return c.value }

func (c *ConstColumn) IsConst() bool { return true }

// Value returns the broadcast value.
func (c *ConstColumn) Value() Value { return c.value }

// FilterColumn returns a column with only the rows where keep is true.
// Constants stay constant with an adjusted row count.
func FilterColumn(c Column, keep []bool) (Column, error) {
	if len(keep) != c.Len() {
		return nil, ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError, "filter selection length %v does not match column length %v", len(keep), c.Len())
	}
	kept := 0
	for _, k := range keep {
		if k {
			kept++
		}
	}
	if cc, ok := c.(*ConstColumn); ok {
		return NewConst(cc.typ, cc.value, kept), nil
	}
	values := make([]Value, 0, kept)
	for i, k := range keep {
		if k {
			values = append(values, c.Get(i))
		}
	}
	return NewArray(c.Type(), values), nil
}
