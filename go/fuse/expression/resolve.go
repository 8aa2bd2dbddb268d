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

// Resolver performs static type resolution against injected function
// registries. Resolution is purely structural: it never touches data.
type Resolver struct {
	Scalar    *functions.Registry
	Aggregate *functions.AggregateRegistry
}

// NewResolver builds a resolver over the given registries.
func NewResolver(scalar *functions.Registry, aggregate *functions.AggregateRegistry) *Resolver {
	return &Resolver{Scalar: scalar, Aggregate: aggregate}
}

// DefaultResolver builds a resolver over the built-in registries.
func DefaultResolver() *Resolver {
	return NewResolver(functions.DefaultRegistry(), functions.DefaultAggregateRegistry())
}

// ToField resolves the expression's canonical name and type into a
// schema field.
func (r *Resolver) ToField(e Expr, schema *sqltypes.Schema) (sqltypes.Field, error) {
	typ, err := r.ResolveType(e, schema)
	if err != nil {
		return sqltypes.Field{}, err
	}
	return sqltypes.Field{Name: e.ColumnName(), Type: typ}, nil
}

// ToFields resolves a list of expressions into a schema.
func (r *Resolver) ToFields(exprs []Expr, schema *sqltypes.Schema) (*sqltypes.Schema, error) {
	fields := make([]sqltypes.Field, 0, len(exprs))
	for _, e := range exprs {
		f, err := r.ToField(e, schema)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return sqltypes.NewSchema(fields...), nil
}

// ResolveType derives the expression type from the input schema and the
// types of its children.
func (r *Resolver) ResolveType(e Expr, schema *sqltypes.Schema) (sqltypes.Type, error) {
	switch e := e.(type) {
	case *Alias:
		return r.ResolveType(e.Inner, schema)
	case *Column:
		f, err := schema.FieldByName(e.Name)
		if err != nil {
			return sqltypes.Null, err
		}
		return f.Type, nil
	case *Literal:
		return e.Value.Type(), nil
	case *UnaryOp:
		return r.functionType(e.Op, schema, e.Inner)
	case *BinaryOp:
		return r.functionType(e.Op, schema, e.Left, e.Right)
	case *ScalarFunc:
		return r.functionType(e.Op, schema, e.Args...)
	case *AggregateFunc:
		agg, err := r.AggregateFunction(e, schema)
		if err != nil {
			return sqltypes.Null, err
		}
		return agg.ReturnType()
	case *Sort:
		return r.ResolveType(e.Inner, schema)
	case *Cast:
		// Unconditionally the declared target type; cast failures are
		// deferred to evaluation time.
		return e.To, nil
	case *Subquery:
		return subqueryType(e.Plan), nil
	case *ScalarSubquery:
		return scalarSubqueryType(e.Plan), nil
	case *Exists:
		return sqltypes.Boolean, nil
	case *Wildcard:
		return sqltypes.Null, ferrors.NewErrorf(ferrors.CodeInvalidArgument, ferrors.IllegalDataType, "wildcard expressions are not valid to get return type")
	}
	return sqltypes.Null, ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError, "cannot resolve type of expression %T", e)
}

// AggregateFunction binds an aggregate expression against the aggregate
// registry, resolving each argument to a field first.
func (r *Resolver) AggregateFunction(e Expr, schema *sqltypes.Schema) (functions.AggregateFunction, error) {
	agg, ok := e.(*AggregateFunc)
	if !ok {
		return nil, ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError, "expression must be an aggregate function, got %v", e.ColumnName())
	}
	fields := make([]sqltypes.Field, 0, len(agg.Args))
	for _, arg := range agg.Args {
		f, err := r.ToField(arg, schema)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return r.Aggregate.Lookup(agg.RegistryName(), fields)
}

func (r *Resolver) functionType(op string, schema *sqltypes.Schema, args ...Expr) (sqltypes.Type, error) {
	argTypes := make([]sqltypes.Type, 0, len(args))
	for _, arg := range args {
		t, err := r.ResolveType(arg, schema)
		if err != nil {
			return sqltypes.Null, err
		}
		argTypes = append(argTypes, t)
	}
	fn, err := r.Scalar.Lookup(op)
	if err != nil {
		return sqltypes.Null, err
	}
	return fn.ReturnType(argTypes)
}

// subqueryType treats each inner column as a list of its item type; a
// single-column inner schema collapses to that list type, multi-column
// collapses to a struct.
func subqueryType(plan Plan) sqltypes.Type {
	fields := plan.Schema().Fields()
	listFields := make([]sqltypes.Field, 0, len(fields))
	for _, f := range fields {
		listFields = append(listFields, sqltypes.Field{Name: f.Name, Type: sqltypes.ListOf(f.Type)})
	}
	if len(listFields) == 1 {
		return listFields[0].Type
	}
	return sqltypes.StructOf(listFields...)
}

// scalarSubqueryType collapses a single-column inner schema to the
// column's own type, multi-column to a struct.
func scalarSubqueryType(plan Plan) sqltypes.Type {
	fields := plan.Schema().Fields()
	if len(fields) == 1 {
		return fields[0].Type
	}
	return sqltypes.StructOf(fields...)
}
