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
	"github.com/jyizheng/datafuse/go/fuse/ferrors"
	"github.com/jyizheng/datafuse/go/sqltypes"
)

// arithmeticFunction covers +, -, * and /. Operands are promoted to the
// wider numeric type; division always yields Float64.
type arithmeticFunction struct {
	name        string
	alwaysFloat bool
	apply       func(a, b float64) (float64, error)
}

var _ Function = (*arithmeticFunction)(nil)

func (f *arithmeticFunction) Name() string { return f.name }

func (f *arithmeticFunction) ReturnType(args []sqltypes.Type) (sqltypes.Type, error) {
	if len(args) != 2 {
		return sqltypes.Null, arityError(f.name, 2, len(args))
	}
	for _, t := range args {
		if t.Kind != sqltypes.KindNull && !t.IsNumber() {
			return sqltypes.Null, ferrors.NewErrorf(ferrors.CodeInvalidArgument, ferrors.IllegalDataType, "function %v expects numeric arguments, got %v", f.name, t)
		}
	}
	if f.alwaysFloat {
		return sqltypes.Float64, nil
	}
	return promote(args[0], args[1]), nil
}

func (f *arithmeticFunction) Eval(args []sqltypes.Column, rows int) (sqltypes.Column, error) {
	if len(args) != 2 {
		return nil, arityError(f.name, 2, len(args))
	}
	typ, err := f.ReturnType([]sqltypes.Type{args[0].Type(), args[1].Type()})
	if err != nil {
		return nil, err
	}
	left, right := args[0], args[1]
	return evalRows(typ, args, rows, func(i int) (sqltypes.Value, error) {
		a, b := left.Get(i), right.Get(i)
		if a.IsNull() || b.IsNull() {
			return sqltypes.NULL, nil
		}
		af, err := a.ToFloat64()
		if err != nil {
			return sqltypes.NULL, err
		}
		bf, err := b.ToFloat64()
		if err != nil {
			return sqltypes.NULL, err
		}
		out, err := f.apply(af, bf)
		if err != nil {
			return sqltypes.NULL, err
		}
		switch typ.Kind {
		case sqltypes.KindInt64:
			return sqltypes.NewInt64(int64(out)), nil
		case sqltypes.KindUInt64:
			return sqltypes.NewUInt64(uint64(out)), nil
		default:
			return sqltypes.NewFloat64(out), nil
		}
	})
}

// promote picks the result type of a two-operand numeric operation.
func promote(a, b sqltypes.Type) sqltypes.Type {
	if a.Kind == sqltypes.KindFloat64 || b.Kind == sqltypes.KindFloat64 {
		return sqltypes.Float64
	}
	if a.Kind == sqltypes.KindUInt64 && b.Kind == sqltypes.KindUInt64 {
		return sqltypes.UInt64
	}
	return sqltypes.Int64
}

func applyPlus(a, b float64) (float64, error) { return a + b, nil }

func applyMinus(a, b float64) (float64, error) { return a - b, nil }

func applyMul(a, b float64) (float64, error) { return a * b, nil }

func applyDiv(a, b float64) (float64, error) {
	if b == 0 {
		return 0, ferrors.Errorf(ferrors.CodeInvalidArgument, "division by zero")
	}
	return a / b, nil
}
