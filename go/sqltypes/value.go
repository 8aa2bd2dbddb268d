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
	"strconv"

	"github.com/jyizheng/datafuse/go/fuse/ferrors"
)

// Value is a single typed SQL value. The zero Value is the SQL NULL.
type Value struct {
	kind Kind
	i    int64
	u    uint64
	f    float64
	b    bool
	s    string
}

// NULL represents the SQL NULL value.
var NULL = Value{}

// NewBoolean builds a Boolean value.
func NewBoolean(v bool) Value {
	return Value{kind: KindBoolean, b: v}
}

// NewInt64 builds an Int64 value.
func NewInt64(v int64) Value {
	return Value{kind: KindInt64, i: v}
}

// NewUInt64 builds a UInt64 value.
func NewUInt64(v uint64) Value {
	return Value{kind: KindUInt64, u: v}
}

// NewFloat64 builds a Float64 value.
func NewFloat64(v float64) Value {
	return Value{kind: KindFloat64, f: v}
}

// NewVarChar builds a VarChar value.
func NewVarChar(v string) Value {
	return Value{kind: KindVarChar, s: v}
}

// Type returns the type of the value.
func (v Value) Type() Type {
	return Type{Kind: v.kind}
}

// IsNull reports whether the value is the SQL NULL.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// BoolValue returns the boolean payload. It is only meaningful when the
// value is a non-null Boolean.
func (v Value) BoolValue() bool {
	return v.b
}

// Int64Value returns the int64 payload.
func (v Value) Int64Value() int64 {
	return v.i
}

// UInt64Value returns the uint64 payload.
func (v Value) UInt64Value() uint64 {
	return v.u
}

// Float64Value returns the float64 payload.
func (v Value) Float64Value() float64 {
	return v.f
}

// VarCharValue returns the string payload.
func (v Value) VarCharValue() string {
	return v.s
}

// ToFloat64 converts any numeric value to a float64.
func (v Value) ToFloat64() (float64, error) {
	switch v.kind {
	case KindInt64:
		return float64(v.i), nil
	case KindUInt64:
		return float64(v.u), nil
	case KindFloat64:
		return v.f, nil
	}
	return 0, ferrors.NewErrorf(ferrors.CodeInvalidArgument, ferrors.TypeMismatch, "cannot convert %v to Float64", v)
}

// ToInt64 converts any integer value to an int64.
func (v Value) ToInt64() (int64, error) {
	switch v.kind {
	case KindInt64:
		return v.i, nil
	case KindUInt64:
		return int64(v.u), nil
	}
	return 0, ferrors.NewErrorf(ferrors.CodeInvalidArgument, ferrors.TypeMismatch, "cannot convert %v to Int64", v)
}

// String renders the value the way it appears in canonical expression
// names: numbers bare, strings as-is, NULL spelled literally.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindUInt64:
		return strconv.FormatUint(v.u, 10)
	case KindFloat64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindVarChar:
		return v.s
	default:
		return "?"
	}
}

// Cast converts the value to the target type. Failures are reported at
// evaluation time, never during type resolution.
func (v Value) Cast(to Type) (Value, error) {
	if v.kind == KindNull {
		return NULL, nil
	}
	switch to.Kind {
	case v.kind:
		return v, nil
	case KindInt64:
		switch v.kind {
		case KindUInt64:
			return NewInt64(int64(v.u)), nil
		case KindFloat64:
			return NewInt64(int64(v.f)), nil
		case KindBoolean:
			if v.b {
				return NewInt64(1), nil
			}
			return NewInt64(0), nil
		case KindVarChar:
			i, err := strconv.ParseInt(v.s, 10, 64)
			if err != nil {
				return NULL, ferrors.Errorf(ferrors.CodeInvalidArgument, "cannot cast %q as Int64", v.s)
			}
			return NewInt64(i), nil
		}
	case KindUInt64:
		switch v.kind {
		case KindInt64:
			return NewUInt64(uint64(v.i)), nil
		case KindFloat64:
			return NewUInt64(uint64(v.f)), nil
		}
	case KindFloat64:
		f, err := v.ToFloat64()
		if err == nil {
			return NewFloat64(f), nil
		}
		if v.kind == KindVarChar {
			parsed, perr := strconv.ParseFloat(v.s, 64)
			if perr != nil {
				return NULL, ferrors.Errorf(ferrors.CodeInvalidArgument, "cannot cast %q as Float64", v.s)
			}
			return NewFloat64(parsed), nil
		}
	case KindVarChar:
		return NewVarChar(v.String()), nil
	case KindBoolean:
		switch v.kind {
		case KindInt64:
			return NewBoolean(v.i != 0), nil
		case KindUInt64:
			return NewBoolean(v.u != 0), nil
		}
	}
	return NULL, ferrors.Errorf(ferrors.CodeInvalidArgument, "unsupported cast from %v to %v", v.Type(), to)
}
