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

import (
	"io"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// This file contains functions to convert errors to and from gRPC codes.
// Use these methods to return an error through gRPC and still
// retain its code.

var grpcToCode = map[codes.Code]Code{
	codes.OK:                 CodeOK,
	codes.Canceled:           CodeCanceled,
	codes.InvalidArgument:    CodeInvalidArgument,
	codes.DeadlineExceeded:   CodeDeadlineExceeded,
	codes.NotFound:           CodeNotFound,
	codes.AlreadyExists:      CodeAlreadyExists,
	codes.FailedPrecondition: CodeFailedPrecondition,
	codes.Internal:           CodeInternal,
	codes.Unavailable:        CodeUnavailable,
	codes.Unimplemented:      CodeUnimplemented,
}

// FromGRPC returns a gRPC error as an engine error, translating between
// error codes. However, there are a few errors which are not translated and
// passed as they are. For example, io.EOF since our code base checks for
// this error to find out that a stream has finished.
func FromGRPC(err error) error {
	if err == nil {
		return nil
	}
	if err == io.EOF {
		// Do not wrap io.EOF because we compare against it for finished streams.
		return err
	}
	grpcCode := codes.Unknown
	if s, ok := status.FromError(err); ok {
		grpcCode = s.Code()
	}
	code, ok := grpcToCode[grpcCode]
	if !ok {
		code = CodeUnknown
	}
	return New(code, err.Error())
}
