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

// comparisonFunction covers =, !=, <>, <, <=, > and >=. A NULL operand
// yields NULL.
type comparisonFunction struct {
	name  string
	apply func(cmp int) bool
}

var _ Function = (*comparisonFunction)(nil)

func (f *comparisonFunction) Name() string { return f.name }

func (f *comparisonFunction) ReturnType(args []sqltypes.Type) (sqltypes.Type, error) {
	if len(args) != 2 {
		return sqltypes.Null, arityError(f.name, 2, len(args))
	}
	return sqltypes.Boolean, nil
}

func (f *comparisonFunction) Eval(args []sqltypes.Column, rows int) (sqltypes.Column, error) {
	if len(args) != 2 {
		return nil, arityError(f.name, 2, len(args))
	}
	left, right := args[0], args[1]
	return evalRows(sqltypes.Boolean, args, rows, func(i int) (sqltypes.Value, error) {
		a, b := left.Get(i), right.Get(i)
		if a.IsNull() || b.IsNull() {
			return sqltypes.NULL, nil
		}
		cmp, err := compareValues(a, b)
		if err != nil {
			return sqltypes.NULL, err
		}
		return sqltypes.NewBoolean(f.apply(cmp)), nil
	})
}

// compareValues orders two non-null scalar values. Numbers compare
// numerically across kinds, strings lexically, booleans false < true.
func compareValues(a, b sqltypes.Value) (int, error) {
	at, bt := a.Type(), b.Type()
	switch {
	case at.IsNumber() && bt.IsNumber():
		af, err := a.ToFloat64()
		if err != nil {
			return 0, err
		}
		bf, err := b.ToFloat64()
		if err != nil {
			return 0, err
		}
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		}
		return 0, nil
	case at.Kind == sqltypes.KindVarChar && bt.Kind == sqltypes.KindVarChar:
		return strings.Compare(a.VarCharValue(), b.VarCharValue()), nil
	case at.Kind == sqltypes.KindBoolean && bt.Kind == sqltypes.KindBoolean:
		av, bv := a.BoolValue(), b.BoolValue()
		switch {
		case av == bv:
			return 0, nil
		case !av:
			return -1, nil
		}
		return 1, nil
	}
	return 0, ferrors.NewErrorf(ferrors.CodeInvalidArgument, ferrors.TypeMismatch, "cannot compare %v with %v", at, bt)
}
