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

package functions

import (
	"strings"

	"github.com/jyizheng/datafuse/go/fuse/ferrors"
	"github.com/jyizheng/datafuse/go/sqltypes"
)

// AggregateFunction is the contract the expression layer needs from an
// aggregate: its return-type rule for the argument fields it was looked
// up with. Aggregation execution lives outside this core.
type AggregateFunction interface {
	Name() string
	ReturnType() (sqltypes.Type, error)
}

// aggregateCtor builds an aggregate bound to its argument fields.
type aggregateCtor func(name string, args []sqltypes.Field) (AggregateFunction, error)

// AggregateRegistry resolves aggregate names. Distinct variants register
// under "{name}Distinct" and callers look them up that way.
type AggregateRegistry struct {
	ctors map[string]aggregateCtor
}

// NewAggregateRegistry builds an empty aggregate registry.
func NewAggregateRegistry() *AggregateRegistry {
	return &AggregateRegistry{ctors: make(map[string]aggregateCtor)}
}

// Register adds an aggregate constructor under the given name.
func (r *AggregateRegistry) Register(name string, ctor aggregateCtor) {
	r.ctors[strings.ToLower(name)] = ctor
}

// Lookup builds the named aggregate for the argument fields, or fails
// with UnknownAggregate.
func (r *AggregateRegistry) Lookup(name string, args []sqltypes.Field) (AggregateFunction, error) {
	ctor, ok := r.ctors[strings.ToLower(name)]
	if !ok {
		return nil, ferrors.NewErrorf(ferrors.CodeInvalidArgument, ferrors.UnknownAggregate, "unsupported aggregate function: %v", name)
	}
	return ctor(name, args)
}

// DefaultAggregateRegistry returns a registry with the built-in
// aggregates and their distinct variants.
func DefaultAggregateRegistry() *AggregateRegistry {
	r := NewAggregateRegistry()
	for _, name := range []string{"sum", "min", "max", "avg", "count"} {
		r.Register(name, newBoundAggregate)
		r.Register(name+"Distinct", newBoundAggregate)
	}
	return r
}

type boundAggregate struct {
	name string
	args []sqltypes.Field
}

var _ AggregateFunction = (*boundAggregate)(nil)

func newBoundAggregate(name string, args []sqltypes.Field) (AggregateFunction, error) {
	return &boundAggregate{name: name, args: args}, nil
}

func (a *boundAggregate) Name() string { return a.name }

func (a *boundAggregate) ReturnType() (sqltypes.Type, error) {
	base := strings.TrimSuffix(strings.ToLower(a.name), "distinct")
	switch base {
	case "count":
		return sqltypes.UInt64, nil
	case "avg":
		return sqltypes.Float64, nil
	case "sum":
		if err := a.wantOneNumeric(); err != nil {
			return sqltypes.Null, err
		}
		if a.args[0].Type.Kind == sqltypes.KindFloat64 {
			return sqltypes.Float64, nil
		}
		return a.args[0].Type, nil
	case "min", "max":
		if len(a.args) != 1 {
			return sqltypes.Null, arityError(a.name, 1, len(a.args))
		}
		return a.args[0].Type, nil
	}
	return sqltypes.Null, ferrors.NewErrorf(ferrors.CodeInvalidArgument, ferrors.UnknownAggregate, "unsupported aggregate function: %v", a.name)
}

func (a *boundAggregate) wantOneNumeric() error {
	if len(a.args) != 1 {
		return arityError(a.name, 1, len(a.args))
	}
	if !a.args[0].Type.IsNumber() {
		return ferrors.NewErrorf(ferrors.CodeInvalidArgument, ferrors.IllegalDataType, "aggregate %v expects a numeric argument, got %v", a.name, a.args[0].Type)
	}
	return nil
}
