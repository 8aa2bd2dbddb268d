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
	"github.com/jyizheng/datafuse/go/sqltypes"
)

// EngineVersion is reported by the version() function and the CLI.
const EngineVersion = "datafuse-go 0.5.0"

type versionFunction struct{}

var _ Function = (*versionFunction)(nil)

func (*versionFunction) Name() string { return "version" }

func (*versionFunction) ReturnType(args []sqltypes.Type) (sqltypes.Type, error) {
	if len(args) != 0 {
		return sqltypes.Null, arityError("version", 0, len(args))
	}
	return sqltypes.VarChar, nil
}

func (*versionFunction) Eval(args []sqltypes.Column, rows int) (sqltypes.Column, error) {
	return sqltypes.NewConst(sqltypes.VarChar, sqltypes.NewVarChar(EngineVersion), rows), nil
}

// NewCast returns a scalar function casting its single argument to the
// target type. Cast functions are synthesized by the chain compiler, they
// are not registered by name.
func NewCast(to sqltypes.Type) Function {
	return &castFunction{to: to}
}

type castFunction struct {
	to sqltypes.Type
}

var _ Function = (*castFunction)(nil)

func (f *castFunction) Name() string { return "cast" }

// ReturnType is the declared target type unconditionally; cast failures
// surface at evaluation time.
func (f *castFunction) ReturnType(args []sqltypes.Type) (sqltypes.Type, error) {
	if len(args) != 1 {
		return sqltypes.Null, arityError("cast", 1, len(args))
	}
	return f.to, nil
}

func (f *castFunction) Eval(args []sqltypes.Column, rows int) (sqltypes.Column, error) {
	if len(args) != 1 {
		return nil, arityError("cast", 1, len(args))
	}
	arg := args[0]
	return evalRows(f.to, args, rows, func(i int) (sqltypes.Value, error) {
		return arg.Get(i).Cast(f.to)
	})
}
