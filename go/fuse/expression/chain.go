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

package expression

import (
	"github.com/jyizheng/datafuse/go/fuse/ferrors"
	"github.com/jyizheng/datafuse/go/fuse/functions"
	"github.com/jyizheng/datafuse/go/sqltypes"
)

type (
	// Action is one step of a compiled chain producing a single named
	// output column.
	Action interface {
		// OutputName returns the canonical name of the column the
		// action produces.
		OutputName() string
	}

	// InputAction copies a column from the input batch.
	InputAction struct {
		Name string
		Type sqltypes.Type
	}

	// ConstantAction broadcasts a literal over the batch row count.
	ConstantAction struct {
		Name  string
		Value sqltypes.Value
	}

	// FunctionAction evaluates a resolved scalar function over named
	// argument columns.
	FunctionAction struct {
		Name       string
		Op         string
		ArgNames   []string
		Func       functions.Function
		ReturnType sqltypes.Type
	}

	// AliasAction records that the source column is also visible under
	// the alias name. It is never evaluated directly.
	AliasAction struct {
		Name   string
		Source string
	}

	// ExistsAction marks a correlated subquery placeholder. The
	// boolean column is materialized externally before evaluation.
	ExistsAction struct {
		Name string
	}
)

func (a *InputAction) OutputName() string { return a.Name }

func (a *ConstantAction) OutputName() string { return a.Name }

func (a *FunctionAction) OutputName() string { return a.Name }

func (a *AliasAction) OutputName() string { return a.Name }

func (a *ExistsAction) OutputName() string { return a.Name }

// Chain is an ordered, deduplicated action list. Actions are
// topologically ordered: no action's arguments reference a name produced
// later in the sequence. Actions with identical output names compile
// once, which realizes common-subexpression elimination.
type Chain struct {
	actions  []Action
	produced map[string]bool
}

// NewChain compiles target expressions against an input schema.
func NewChain(schema *sqltypes.Schema, resolver *Resolver, exprs ...Expr) (*Chain, error) {
	c := &Chain{produced: make(map[string]bool)}
	for _, e := range exprs {
		if err := c.add(e, schema, resolver); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Actions returns the compiled actions in evaluation order. Callers
// must not mutate the returned slice.
func (c *Chain) Actions() []Action {
	return c.actions
}

func (c *Chain) emit(a Action) {
	if c.produced[a.OutputName()] {
		return
	}
	c.produced[a.OutputName()] = true
	c.actions = append(c.actions, a)
}

func (c *Chain) add(e Expr, schema *sqltypes.Schema, resolver *Resolver) error {
	// Skip sub-trees whose output already compiled.
	if c.produced[e.ColumnName()] {
		return nil
	}
	switch e := e.(type) {
	case *Alias:
		if err := c.add(e.Inner, schema, resolver); err != nil {
			return err
		}
		c.emit(&AliasAction{Name: e.Name, Source: e.Inner.ColumnName()})
		return nil
	case *Column:
		f, err := schema.FieldByName(e.Name)
		if err != nil {
			return err
		}
		c.emit(&InputAction{Name: e.Name, Type: f.Type})
		return nil
	case *Literal:
		c.emit(&ConstantAction{Name: e.ColumnName(), Value: e.Value})
		return nil
	case *UnaryOp:
		return c.addFunction(e, e.Op, []Expr{e.Inner}, schema, resolver)
	case *BinaryOp:
		return c.addFunction(e, e.Op, []Expr{e.Left, e.Right}, schema, resolver)
	case *ScalarFunc:
		return c.addFunction(e, e.Op, e.Args, schema, resolver)
	case *Cast:
		if err := c.add(e.Inner, schema, resolver); err != nil {
			return err
		}
		c.emit(&FunctionAction{
			Name:       e.ColumnName(),
			Op:         "cast",
			ArgNames:   []string{e.Inner.ColumnName()},
			Func:       functions.NewCast(e.To),
			ReturnType: e.To,
		})
		return nil
	case *Sort:
		// Sort direction is an operator concern; the chain only needs
		// the sorted-on value.
		return c.add(e.Inner, schema, resolver)
	case *Exists:
		c.emit(&ExistsAction{Name: e.ColumnName()})
		return nil
	case *AggregateFunc:
		return ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError, "aggregate function %v cannot compile into an expression chain", e.ColumnName())
	case *Wildcard:
		return ferrors.NewErrorf(ferrors.CodeInvalidArgument, ferrors.IllegalDataType, "wildcard expressions cannot compile into an expression chain")
	case *Subquery, *ScalarSubquery:
		return ferrors.Errorf(ferrors.CodeUnimplemented, "subquery expression %v is not evaluated in expression chains", e.ColumnName())
	}
	return ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError, "cannot compile expression %T", e)
}

// addFunction compiles arguments before the function's own action, so
// the chain stays topologically ordered.
func (c *Chain) addFunction(e Expr, op string, args []Expr, schema *sqltypes.Schema, resolver *Resolver) error {
	argNames := make([]string, 0, len(args))
	argTypes := make([]sqltypes.Type, 0, len(args))
	for _, arg := range args {
		if err := c.add(arg, schema, resolver); err != nil {
			return err
		}
		argNames = append(argNames, arg.ColumnName())
		t, err := resolver.ResolveType(arg, schema)
		if err != nil {
			return err
		}
		argTypes = append(argTypes, t)
	}
	fn, err := resolver.Scalar.Lookup(op)
	if err != nil {
		return err
	}
	returnType, err := fn.ReturnType(argTypes)
	if err != nil {
		return err
	}
	c.emit(&FunctionAction{
		Name:       e.ColumnName(),
		Op:         op,
		ArgNames:   argNames,
		Func:       fn,
		ReturnType: returnType,
	})
	return nil
}
