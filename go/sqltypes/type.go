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

// Package sqltypes implements the data types and columnar values the
// engine evaluates over.
package sqltypes

import (
	"strings"
)

// Kind is the discriminant of a Type.
type Kind int8

const (
	KindNull Kind = iota
	KindBoolean
	KindInt64
	KindUInt64
	KindFloat64
	KindVarChar
	KindList
	KindStruct
)

// Type describes the data type of a column or expression. Scalar types are
// fully described by their Kind; List carries an element type and Struct
// carries its field types.
type Type struct {
	Kind   Kind
	Elem   *Type
	Fields []Field
}

// The scalar types.
var (
	Null    = Type{Kind: KindNull}
	Boolean = Type{Kind: KindBoolean}
	Int64   = Type{Kind: KindInt64}
	UInt64  = Type{Kind: KindUInt64}
	Float64 = Type{Kind: KindFloat64}
	VarChar = Type{Kind: KindVarChar}
)

// ListOf returns a List type with the given element type.
func ListOf(elem Type) Type {
	return Type{Kind: KindList, Elem: &elem}
}

// StructOf returns a Struct type with the given fields.
func StructOf(fields ...Field) Type {
	return Type{Kind: KindStruct, Fields: fields}
}

// IsNumber reports whether the type is a numeric scalar.
func (t Type) IsNumber() bool {
	switch t.Kind {
	case KindInt64, KindUInt64, KindFloat64:
		return true
	}
	return false
}

func (t Type) String() string {
	switch t.Kind {
	case KindNull:
		return "Null"
	case KindBoolean:
		return "Boolean"
	case KindInt64:
		return "Int64"
	case KindUInt64:
		return "UInt64"
	case KindFloat64:
		return "Float64"
	case KindVarChar:
		return "VarChar"
	case KindList:
		return "List(" + t.Elem.String() + ")"
	case KindStruct:
		names := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			names = append(names, f.Name+" "+f.Type.String())
		}
		return "Struct(" + strings.Join(names, ", ") + ")"
	default:
		return "Unknown"
	}
}

// Equal reports whether two types are structurally identical.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindList:
		return t.Elem.Equal(*other.Elem)
	case KindStruct:
		if len(t.Fields) != len(other.Fields) {
			return false
		}
		for i, f := range t.Fields {
			if f.Name != other.Fields[i].Name || !f.Type.Equal(other.Fields[i].Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
