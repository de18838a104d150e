// Copyright 2024 The Coupons Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package launcher

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ExitUsage is returned when the launcher flags are invalid.
	ExitUsage = 2
	// ExitCannotExecute matches the shell status for a program that exists but cannot be started.
	ExitCannotExecute = 126
	// ExitNotFound matches the shell status for "command not found".
	ExitNotFound = 127
)

// InvalidOptionError is returned when a launcher flag is malformed or has a value outside of the allowed set.
// Nothing is executed when this error is returned.
type InvalidOptionError struct {
	Flag    string
	Value   string
	Allowed []string
	Reason  string
}

func (e *InvalidOptionError) Error() string {
	switch {
	case e.Reason != "" && e.Flag != "":
		return fmt.Sprintf("argument %s: %s", e.Flag, e.Reason)
	case e.Reason != "":
		return e.Reason
	default:
		return fmt.Sprintf("argument %s: invalid choice '%s' (choose from '%s')", e.Flag, e.Value, strings.Join(e.Allowed, "', '"))
	}
}

// LaunchError is returned when the child process could not be started at all.
type LaunchError struct {
	Program string
	Code    int
	Err     error
}

func (e *LaunchError) Error() string {
	if e.Code == ExitNotFound {
		return fmt.Sprintf("%s: command not found", e.Program)
	}
	return fmt.Sprintf("%s: cannot execute: %v", e.Program, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ExitError carries the non-zero status of a child process that ran to completion.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode maps an error returned while parsing, building or running an invocation to the status the launcher
// should exit with.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var invalid *InvalidOptionError
	var exited *ExitError
	var launch *LaunchError
	switch {
	case errors.As(err, &exited):
		return exited.Code
	case errors.As(err, &launch):
		return launch.Code
	case errors.As(err, &invalid):
		return ExitUsage
	default:
		return 1
	}
}
