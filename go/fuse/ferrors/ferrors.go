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

// Package ferrors provides the error type used across the query engine.
//
// Every error carries a Code that classifies it for the caller, and
// optionally a State that narrows the classification down to a specific
// engine condition (unknown column, logical error, ...). Errors wrap their
// causes, so the original error is always recoverable via RootCause and the
// standard errors.Is/errors.As machinery.
//
// Usage guidelines:
//
//	ferrors.Errorf(ferrors.CodeInvalidArgument, "no such column: %v", col)
//	ferrors.NewErrorf(ferrors.CodeInternal, ferrors.LogicalError, "...")
//	ferrors.Wrapf(err, "prepare query stage on %v", node)
package ferrors

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Code classifies an error for the statement's caller.
type Code int32

const (
	CodeOK Code = iota
	CodeCanceled
	CodeUnknown
	CodeInvalidArgument
	CodeDeadlineExceeded
	CodeNotFound
	CodeAlreadyExists
	CodeFailedPrecondition
	CodeInternal
	CodeUnavailable
	CodeUnimplemented
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeCanceled:
		return "CANCELED"
	case CodeInvalidArgument:
		return "INVALID_ARGUMENT"
	case CodeDeadlineExceeded:
		return "DEADLINE_EXCEEDED"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeAlreadyExists:
		return "ALREADY_EXISTS"
	case CodeFailedPrecondition:
		return "FAILED_PRECONDITION"
	case CodeInternal:
		return "INTERNAL"
	case CodeUnavailable:
		return "UNAVAILABLE"
	case CodeUnimplemented:
		return "UNIMPLEMENTED"
	default:
		return "UNKNOWN"
	}
}

// New returns an error with the supplied message and code.
func New(code Code, message string) error {
	return &fundamental{
		msg:   message,
		code:  code,
		state: Undefined,
	}
}

// Errorf formats according to a format specifier and returns the string
// as a value that satisfies error.
func Errorf(code Code, format string, args ...any) error {
	return &fundamental{
		msg:   fmt.Sprintf(format, args...),
		code:  code,
		state: Undefined,
	}
}

// NewErrorf is Errorf with an attached State.
func NewErrorf(code Code, state State, format string, args ...any) error {
	return &fundamental{
		msg:   fmt.Sprintf(format, args...),
		code:  code,
		state: state,
	}
}

// fundamental is an error that has a message, a code and a state.
type fundamental struct {
	msg   string
	code  Code
	state State
}

func (f *fundamental) Error() string { return f.msg }

func (f *fundamental) ErrorCode() Code { return f.code }

func (f *fundamental) ErrorState() State { return f.state }

func (f *fundamental) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		panicIfError(io.WriteString(s, "Code: "+f.code.String()+"\n"))
		panicIfError(io.WriteString(s, f.msg+"\n"))
	case 's':
		panicIfError(io.WriteString(s, f.msg))
	case 'q':
		panicIfError(fmt.Fprintf(s, "%q", f.msg))
	}
}

// ErrCode returns the error code if it's available.
// If not, it returns CodeUnknown.
func ErrCode(err error) Code {
	if err == nil {
		return CodeOK
	}
	var withCode ErrorWithCode
	if errors.As(err, &withCode) {
		return withCode.ErrorCode()
	}
	if errors.Is(err, context.Canceled) {
		return CodeCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeDeadlineExceeded
	}
	return CodeUnknown
}

// ErrState returns the error state if it's available.
// If not, it returns Undefined.
func ErrState(err error) State {
	if err == nil {
		return Undefined
	}
	var withState ErrorWithState
	if errors.As(err, &withState) {
		return withState.ErrorState()
	}
	return Undefined
}

// Wrap returns an error annotating err with a message.
// If err is nil, Wrap returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrapping{
		cause: err,
		msg:   message,
	}
}

// Wrapf returns an error annotating err with the format specifier.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &wrapping{
		cause: err,
		msg:   fmt.Sprintf(format, args...),
	}
}

type wrapping struct {
	cause error
	msg   string
}

func (w *wrapping) Error() string { return w.msg + ": " + w.cause.Error() }

func (w *wrapping) Cause() error { return w.cause }

func (w *wrapping) Unwrap() error { return w.cause }

func (w *wrapping) Format(s fmt.State, verb rune) {
	if rune('v') == verb {
		panicIfError(fmt.Fprintf(s, "%v\n", w.Cause()))
		panicIfError(io.WriteString(s, w.msg))
		return
	}
	panicIfError(io.WriteString(s, w.Error()))
}

// causer is the interface implemented by wrapped errors.
type causer interface {
	Cause() error
}

// ErrorWithCode is implemented by errors that carry a Code.
type ErrorWithCode interface {
	ErrorCode() Code
}

// ErrorWithState is implemented by errors that carry a State.
type ErrorWithState interface {
	ErrorState() State
}

// RootCause returns the underlying cause of the error, if possible.
// An error value has a cause if it implements the causer interface.
//
// If the error does not implement Cause, the original error will
// be returned.
func RootCause(err error) error {
	for {
		cause := Cause(err)
		if cause == nil {
			return err
		}
		err = cause
	}
}

// Cause will return the immediate cause, if possible.
// An error value has a cause if it implements the causer interface.
//
// If the error does not implement Cause, nil will be returned.
func Cause(err error) error {
	c, ok := err.(causer)
	if !ok {
		return nil
	}
	return c.Cause()
}

func panicIfError(_ any, err error) {
	if err != nil {
		panic(err)
	}
}
