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

// Package expression implements the typed scalar expression tree, its
// canonical naming and type resolution, and the compiler that flattens
// expression trees into deduplicated evaluation chains.
package expression

import (
	"fmt"
	"strings"

	"github.com/jyizheng/datafuse/go/sqltypes"
)

// Plan is the part of a logical plan node the expression layer needs.
// Subquery expressions hold shared handles to immutable plan trees; the
// concrete node types live in the planner package.
type Plan interface {
	// Schema returns the plan output schema.
	Schema() *sqltypes.Schema
	// Inputs returns the child plans.
	Inputs() []Plan
	// Fingerprint returns a stable hash of the plan structure. It is
	// the correlation identity for discovered subqueries; it is never
	// derived from a display string.
	Fingerprint() uint64
}

// SubqueryResults maps a correlated subquery's canonical name to its
// materialized boolean outcome (non-empty result means true). It is
// built fresh per outer-query execution and consumed by the expression
// executor.
type SubqueryResults map[string]bool

// Clone returns a copy that the caller may extend independently.
func (r SubqueryResults) Clone() SubqueryResults {
	out := make(SubqueryResults, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

type (
	// Expr is one node of an immutable scalar expression tree. Each
	// node exclusively owns its children.
	Expr interface {
		// ColumnName returns the canonical name of the expression:
		// a deterministic string derived from its structure. It is
		// the output column identifier in compiled chains and the
		// correlation key for substituted subquery results.
		ColumnName() string
	}

	// Alias names the inner expression.
	Alias struct {
		Name  string
		Inner Expr
	}

	// Column references an input schema column by name.
	Column struct {
		Name string
	}

	// Literal is a constant value. When a literal stands in for a
	// column its ColName carries that column's name.
	Literal struct {
		Value   sqltypes.Value
		ColName string
	}

	// UnaryOp applies a one-argument operator such as "not".
	UnaryOp struct {
		Op    string
		Inner Expr
	}

	// BinaryOp applies a two-argument operator such as ">".
	BinaryOp struct {
		Op    string
		Left  Expr
		Right Expr
	}

	// ScalarFunc calls a scalar function with a set of arguments.
	ScalarFunc struct {
		Op   string
		Args []Expr
	}

	// AggregateFunc calls an aggregate function. It is resolved via
	// the aggregate registry and never evaluated by the expression
	// executor.
	AggregateFunc struct {
		Op       string
		Distinct bool
		Args     []Expr
	}

	// Sort wraps an expression with ordering directions.
	Sort struct {
		Inner      Expr
		Ascending  bool
		NullsFirst bool
	}

	// Wildcard is all fields (*) of a schema. It has no resolvable
	// type.
	Wildcard struct{}

	// Cast converts the inner expression to a fixed type. The target
	// type is not validated against the source; failures surface at
	// evaluation time.
	Cast struct {
		Inner Expr
		To    sqltypes.Type
	}

	// Subquery is a relational subquery used as a list value.
	Subquery struct {
		Name string
		Plan Plan
	}

	// ScalarSubquery is a subquery used as a scalar value.
	ScalarSubquery struct {
		Name string
		Plan Plan
	}

	// Exists is a correlated EXISTS subquery. Its boolean outcome is
	// resolved before the enclosing predicate runs and spliced back in
	// as a constant column under the expression's canonical name.
	Exists struct {
		Plan Plan
	}
)

var (
	_ Expr = (*Alias)(nil)
	_ Expr = (*Column)(nil)
	_ Expr = (*Literal)(nil)
	_ Expr = (*UnaryOp)(nil)
	_ Expr = (*BinaryOp)(nil)
	_ Expr = (*ScalarFunc)(nil)
	_ Expr = (*AggregateFunc)(nil)
	_ Expr = (*Sort)(nil)
	_ Expr = (*Wildcard)(nil)
	_ Expr = (*Cast)(nil)
	_ Expr = (*Subquery)(nil)
	_ Expr = (*ScalarSubquery)(nil)
	_ Expr = (*Exists)(nil)
)

// NewLiteral builds a literal without a column-name override.
func NewLiteral(v sqltypes.Value) *Literal {
	return &Literal{Value: v}
}

func (e *Alias) ColumnName() string { return e.Name }

func (e *Column) ColumnName() string { return e.Name }

func (e *Literal) ColumnName() string {
	if e.ColName != "" {
		return e.ColName
	}
	return e.Value.String()
}

func (e *UnaryOp) ColumnName() string {
	return "(" + e.Op + " " + e.Inner.ColumnName() + ")"
}

func (e *BinaryOp) ColumnName() string {
	return "(" + e.Left.ColumnName() + " " + e.Op + " " + e.Right.ColumnName() + ")"
}

func (e *ScalarFunc) ColumnName() string {
	return e.Op + "(" + joinNames(e.Args) + ")"
}

func (e *AggregateFunc) ColumnName() string {
	if e.Distinct {
		return e.Op + "(distinct " + joinNames(e.Args) + ")"
	}
	return e.Op + "(" + joinNames(e.Args) + ")"
}

func (e *Sort) ColumnName() string { return e.Inner.ColumnName() }

func (e *Wildcard) ColumnName() string { return "*" }

func (e *Cast) ColumnName() string {
	return "cast(" + e.Inner.ColumnName() + " as " + e.To.String() + ")"
}

func (e *Subquery) ColumnName() string { return e.Name }

func (e *ScalarSubquery) ColumnName() string { return e.Name }

// ColumnName derives the Exists identity from the inner plan's
// structural fingerprint. Unrelated subqueries that happen to render the
// same way cannot collide.
func (e *Exists) ColumnName() string {
	return fmt.Sprintf("exists(#%016x)", e.Plan.Fingerprint())
}

// RegistryName returns the aggregate registry key: the function name
// with a Distinct suffix when the call is distinct.
func (e *AggregateFunc) RegistryName() string {
	if e.Distinct {
		return e.Op + "Distinct"
	}
	return e.Op
}

func joinNames(args []Expr) string {
	names := make([]string, 0, len(args))
	for _, arg := range args {
		names = append(names, arg.ColumnName())
	}
	return strings.Join(names, ", ")
}
