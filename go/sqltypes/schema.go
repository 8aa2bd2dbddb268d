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
	"github.com/cespare/xxhash/v2"

	"github.com/jyizheng/datafuse/go/fuse/ferrors"
)

// Field names one column of a schema.
type Field struct {
	Name string
	Type Type
}

// Schema is an ordered list of fields with by-name lookup.
// Schemas are immutable once built.
type Schema struct {
	fields []Field
	byName map[string]int
}

// NewSchema builds a schema from the given fields.
func NewSchema(fields ...Field) *Schema {
	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		byName[f.Name] = i
	}
	return &Schema{fields: fields, byName: byName}
}

// Fields returns the schema fields in order. Callers must not mutate the
// returned slice.
func (s *Schema) Fields() []Field {
	return s.fields
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Field returns the i-th field.
func (s *Schema) Field(i int) Field {
	return s.fields[i]
}

// FieldIndex returns the position of the named field.
func (s *Schema) FieldIndex(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// FieldByName returns the named field, or an UnknownColumn error.
func (s *Schema) FieldByName(name string) (Field, error) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, ferrors.NewErrorf(ferrors.CodeInvalidArgument, ferrors.UnknownColumn, "unknown column: %v", name)
	}
	return s.fields[i], nil
}

// Fingerprint returns a stable hash of the schema structure, used as part
// of cache keys and plan identities.
func (s *Schema) Fingerprint() uint64 {
	h := xxhash.New()
	for _, f := range s.fields {
		h.WriteString(f.Name)
		h.WriteString("\x00")
		h.WriteString(f.Type.String())
		h.WriteString("\x01")
	}
	return h.Sum64()
}
