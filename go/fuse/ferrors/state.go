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

package ferrors

// State is error state
type State int

// All the error states
const (
	Undefined State = iota

	// invalid argument
	UnknownColumn
	UnknownFunction
	UnknownAggregate
	IllegalDataType
	TypeMismatch

	// internal
	LogicalError

	// unavailable
	RemoteDispatch

	// No state should be added below NumOfStates
	NumOfStates
)

func (s State) String() string {
	switch s {
	case UnknownColumn:
		return "UnknownColumn"
	case UnknownFunction:
		return "UnknownFunction"
	case UnknownAggregate:
		return "UnknownAggregate"
	case IllegalDataType:
		return "IllegalDataType"
	case TypeMismatch:
		return "TypeMismatch"
	case LogicalError:
		return "LogicalError"
	case RemoteDispatch:
		return "RemoteDispatch"
	default:
		return "Undefined"
	}
}
