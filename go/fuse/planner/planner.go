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

// Package planner defines the relational plan nodes the query engine
// executes. Every node implements expression.Plan, so predicate
// expressions can embed subplans without the two packages depending on
// each other's internals.
package planner

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/jyizheng/datafuse/go/fuse/datablock"
	"github.com/jyizheng/datafuse/go/fuse/expression"
	"github.com/jyizheng/datafuse/go/sqltypes"
)

type (
	// Scan reads an in-memory table. Blocks hold the table's data,
	// consumed partition by partition during execution.
	Scan struct {
		Table  string
		Blocks []*datablock.DataBlock

		schema *sqltypes.Schema
	}

	// Filter keeps the input rows matching the predicate. Having marks
	// post-aggregation filters; the output column of the compiled
	// predicate is named accordingly.
	Filter struct {
		Input     expression.Plan
		Predicate expression.Expr
		Having    bool
	}

	// Projection evaluates expressions over the input and emits them
	// as the output columns.
	Projection struct {
		Input expression.Plan
		Exprs []expression.Expr

		schema *sqltypes.Schema
	}

	// Limit caps the number of output rows.
	Limit struct {
		Input expression.Plan
		N     int
	}

	// Select is the root marker of a query plan.
	Select struct {
		Input expression.Plan
	}
)

var (
	_ expression.Plan = (*Scan)(nil)
	_ expression.Plan = (*Filter)(nil)
	_ expression.Plan = (*Projection)(nil)
	_ expression.Plan = (*Limit)(nil)
	_ expression.Plan = (*Select)(nil)
)

// NewScan builds a table scan over in-memory blocks. All blocks must
// share the schema.
func NewScan(table string, schema *sqltypes.Schema, blocks ...*datablock.DataBlock) *Scan {
	return &Scan{Table: table, Blocks: blocks, schema: schema}
}

func (p *Scan) Schema() *sqltypes.Schema  { return p.schema }
func (p *Scan) Inputs() []expression.Plan { return nil }

// NewProjection resolves the projection's output schema eagerly so
// later errors cannot hide behind a half-built plan.
func NewProjection(input expression.Plan, resolver *expression.Resolver, exprs ...expression.Expr) (*Projection, error) {
	schema, err := resolver.ToFields(exprs, input.Schema())
	if err != nil {
		return nil, err
	}
	return &Projection{Input: input, Exprs: exprs, schema: schema}, nil
}

func (p *Projection) Schema() *sqltypes.Schema  { return p.schema }
func (p *Projection) Inputs() []expression.Plan { return []expression.Plan{p.Input} }

func (p *Filter) Schema() *sqltypes.Schema  { return p.Input.Schema() }
func (p *Filter) Inputs() []expression.Plan { return []expression.Plan{p.Input} }

func (p *Limit) Schema() *sqltypes.Schema  { return p.Input.Schema() }
func (p *Limit) Inputs() []expression.Plan { return []expression.Plan{p.Input} }

func (p *Select) Schema() *sqltypes.Schema  { return p.Input.Schema() }
func (p *Select) Inputs() []expression.Plan { return []expression.Plan{p.Input} }

// Fingerprint tags, one per node type. Appending is fine, reordering
// breaks stored fingerprints.
const (
	tagScan byte = iota + 1
	tagFilter
	tagProjection
	tagLimit
	tagSelect
)

func (p *Scan) Fingerprint() uint64 {
	h := xxhash.New()
	writeTag(h, tagScan)
	writeString(h, p.Table)
	writeUint64(h, p.schema.Fingerprint())
	return h.Sum64()
}

func (p *Filter) Fingerprint() uint64 {
	h := xxhash.New()
	writeTag(h, tagFilter)
	if p.Having {
		writeTag(h, 1)
	} else {
		writeTag(h, 0)
	}
	writeString(h, p.Predicate.ColumnName())
	writeUint64(h, p.Input.Fingerprint())
	return h.Sum64()
}

func (p *Projection) Fingerprint() uint64 {
	h := xxhash.New()
	writeTag(h, tagProjection)
	for _, e := range p.Exprs {
		writeString(h, e.ColumnName())
	}
	writeUint64(h, p.Input.Fingerprint())
	return h.Sum64()
}

func (p *Limit) Fingerprint() uint64 {
	h := xxhash.New()
	writeTag(h, tagLimit)
	writeUint64(h, uint64(p.N))
	writeUint64(h, p.Input.Fingerprint())
	return h.Sum64()
}

func (p *Select) Fingerprint() uint64 {
	h := xxhash.New()
	writeTag(h, tagSelect)
	writeUint64(h, p.Input.Fingerprint())
	return h.Sum64()
}

func writeTag(h *xxhash.Digest, tag byte) {
	_, _ = h.Write([]byte{tag})
}

func writeString(h *xxhash.Digest, s string) {
	_, _ = h.WriteString(s)
	_, _ = h.Write([]byte{0})
}

func writeUint64(h *xxhash.Digest, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}
