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

// Package functions implements the scalar and aggregate function
// registries the expression layer resolves operators against.
//
// Registries are plain values handed to the components that need them;
// there is no process-wide registry.
package functions

import (
	"strings"

	"github.com/jyizheng/datafuse/go/fuse/ferrors"
	"github.com/jyizheng/datafuse/go/sqltypes"
)

// Function is a scalar function: a return-type rule plus a columnar
// evaluation kernel.
type Function interface {
	// Name returns the operator name the function registers under.
	Name() string
	// ReturnType derives the result type from the argument types.
	ReturnType(args []sqltypes.Type) (sqltypes.Type, error)
	// Eval evaluates the function over argument columns of uniform
	// length rows and returns one result column of the same length.
	Eval(args []sqltypes.Column, rows int) (sqltypes.Column, error)
}

// Registry resolves operator names to scalar functions. Lookup is
// case-insensitive.
type Registry struct {
	funcs map[string]Function
}

// NewRegistry builds a registry with the given functions.
func NewRegistry(fns ...Function) *Registry {
	r := &Registry{funcs: make(map[string]Function, len(fns))}
	for _, fn := range fns {
		r.funcs[strings.ToLower(fn.Name())] = fn
	}
	return r
}

// Register adds a function, replacing any previous one of the same name.
func (r *Registry) Register(fn Function) {
	r.funcs[strings.ToLower(fn.Name())] = fn
}

// Lookup returns the named function or an UnknownFunction error.
func (r *Registry) Lookup(name string) (Function, error) {
	fn, ok := r.funcs[strings.ToLower(name)]
	if !ok {
		return nil, ferrors.NewErrorf(ferrors.CodeInvalidArgument, ferrors.UnknownFunction, "unsupported function: %v", name)
	}
	return fn, nil
}

// DefaultRegistry returns a registry with all built-in scalar functions.
func DefaultRegistry() *Registry {
	return NewRegistry(
		&arithmeticFunction{name: "+", apply: applyPlus},
		&arithmeticFunction{name: "-", apply: applyMinus},
		&arithmeticFunction{name: "*", apply: applyMul},
		&arithmeticFunction{name: "/", apply: applyDiv, alwaysFloat: true},
		&comparisonFunction{name: "=", apply: func(c int) bool { return c == 0 }},
		&comparisonFunction{name: "!=", apply: func(c int) bool { return c != 0 }},
		&comparisonFunction{name: "<>", apply: func(c int) bool { return c != 0 }},
		&comparisonFunction{name: "<", apply: func(c int) bool { return c < 0 }},
		&comparisonFunction{name: "<=", apply: func(c int) bool { return c <= 0 }},
		&comparisonFunction{name: ">", apply: func(c int) bool { return c > 0 }},
		&comparisonFunction{name: ">=", apply: func(c int) bool { return c >= 0 }},
		&logicalAnd{},
		&logicalOr{},
		&logicalNot{},
		&versionFunction{},
	)
}

// evalRows runs a per-row kernel over argument columns. If every argument
// is a broadcast constant the result stays constant.
func evalRows(typ sqltypes.Type, args []sqltypes.Column, rows int, kernel func(row int) (sqltypes.Value, error)) (sqltypes.Column, error) {
	allConst := true
	for _, a := range args {
		if !a.IsConst() {
			allConst = false
			break
		}
	}
	if allConst && len(args) > 0 {
		v, err := kernel(0)
		if err != nil {
			return nil, err
		}
		return sqltypes.NewConst(typ, v, rows), nil
	}
	values := make([]sqltypes.Value, rows)
	for i := 0; i < rows; i++ {
		v, err := kernel(i)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return sqltypes.NewArray(typ, values), nil
}

func arityError(name string, want, got int) error {
	return ferrors.Errorf(ferrors.CodeInvalidArgument, "function %v expects %v arguments, got %v", name, want, got)
}
