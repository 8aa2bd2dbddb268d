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

// Three-valued logic: AND and OR short-circuit around NULL the SQL way
// (NULL AND false = false, NULL OR true = true).

type logicalAnd struct{}

var _ Function = (*logicalAnd)(nil)

func (*logicalAnd) Name() string { return "and" }

func (*logicalAnd) ReturnType(args []sqltypes.Type) (sqltypes.Type, error) {
	if len(args) != 2 {
		return sqltypes.Null, arityError("and", 2, len(args))
	}
	return sqltypes.Boolean, nil
}

func (f *logicalAnd) Eval(args []sqltypes.Column, rows int) (sqltypes.Column, error) {
	if len(args) != 2 {
		return nil, arityError("and", 2, len(args))
	}
	left, right := args[0], args[1]
	return evalRows(sqltypes.Boolean, args, rows, func(i int) (sqltypes.Value, error) {
		a, aNull, err := boolAt(left, i)
		if err != nil {
			return sqltypes.NULL, err
		}
		b, bNull, err := boolAt(right, i)
		if err != nil {
			return sqltypes.NULL, err
		}
		switch {
		case !aNull && !a, !bNull && !b:
			return sqltypes.NewBoolean(false), nil
		case aNull || bNull:
			return sqltypes.NULL, nil
		}
		return sqltypes.NewBoolean(true), nil
	})
}

type logicalOr struct{}

var _ Function = (*logicalOr)(nil)

func (*logicalOr) Name() string { return "or" }

func (*logicalOr) ReturnType(args []sqltypes.Type) (sqltypes.Type, error) {
	if len(args) != 2 {
		return sqltypes.Null, arityError("or", 2, len(args))
	}
	return sqltypes.Boolean, nil
}

func (f *logicalOr) Eval(args []sqltypes.Column, rows int) (sqltypes.Column, error) {
	if len(args) != 2 {
		return nil, arityError("or", 2, len(args))
	}
	left, right := args[0], args[1]
	return evalRows(sqltypes.Boolean, args, rows, func(i int) (sqltypes.Value, error) {
		a, aNull, err := boolAt(left, i)
		if err != nil {
			return sqltypes.NULL, err
		}
		b, bNull, err := boolAt(right, i)
		if err != nil {
			return sqltypes.NULL, err
		}
		switch {
		case !aNull && a, !bNull && b:
			return sqltypes.NewBoolean(true), nil
		case aNull || bNull:
			return sqltypes.NULL, nil
		}
		return sqltypes.NewBoolean(false), nil
	})
}

type logicalNot struct{}

var _ Function = (*logicalNot)(nil)

func (*logicalNot) Name() string { return "not" }

func (*logicalNot) ReturnType(args []sqltypes.Type) (sqltypes.Type, error) {
	if len(args) != 1 {
		return sqltypes.Null, arityError("not", 1, len(args))
	}
	return sqltypes.Boolean, nil
}

func (f *logicalNot) Eval(args []sqltypes.Column, rows int) (sqltypes.Column, error) {
	if len(args) != 1 {
		return nil, arityError("not", 1, len(args))
	}
	arg := args[0]
	return evalRows(sqltypes.Boolean, args, rows, func(i int) (sqltypes.Value, error) {
		v, isNull, err := boolAt(arg, i)
		if err != nil {
			return sqltypes.NULL, err
		}
		if isNull {
			return sqltypes.NULL, nil
		}
		return sqltypes.NewBoolean(!v), nil
	})
}

func boolAt(c sqltypes.Column, i int) (val bool, isNull bool, err error) {
	v := c.Get(i)
	if v.IsNull() {
		return false, true, nil
	}
	if v.Type().Kind != sqltypes.KindBoolean {
		return false, false, ferrors.NewErrorf(ferrors.CodeInvalidArgument, ferrors.TypeMismatch, "expected Boolean operand, got %v", v.Type())
	}
	return v.BoolValue(), false, nil
}
