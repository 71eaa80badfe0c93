// Copyright 2025 The Bootsign Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package toolrun executes the external tools bootsign orchestrates (the
// ASN.1 dump tool, the signing tools, the attach and verify tools). Every
// invocation is blocking; cancellation and deadlines come from the caller's
// context. The Runner interface exists so tests can substitute fakes.
package toolrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/bootsign/bootsign/pkg/logging"
	"github.com/bootsign/bootsign/pkg/tracing"
)

// Command describes one external tool invocation.
type Command struct {
	// Path is the tool executable (bare name resolved via PATH).
	Path string
	// Args are the tool arguments, not including the tool name.
	Args []string
	// Stdin, if non-nil, is fed to the tool's standard input.
	Stdin []byte
}

// Result holds the captured output of a completed invocation.
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Output returns stdout and stderr concatenated, for callers that need to
// inspect diagnostics a tool may print to either stream.
func (r Result) Output() []byte {
	out := make([]byte, 0, len(r.Stdout)+len(r.Stderr))
	out = append(out, r.Stdout...)
	out = append(out, r.Stderr...)
	return out
}

// ExitError reports that a tool started, ran, and exited non-zero. It is
// distinct from errors returned when a tool could not be started at all;
// callers that treat specific tool diagnostics as soft conditions (e.g. a
// verification mismatch) must check for ExitError before inspecting output.
type ExitError struct {
	// Tool is the base name of the executable.
	Tool string
	// ExitCode is the tool's exit status.
	ExitCode int
	// Output is the combined stdout and stderr of the failed run.
	Output []byte
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
}

// IsExitError reports whether err is an ExitError and returns it.
func IsExitError(err error) (*ExitError, bool) {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}

// Runner runs external tools. The production implementation is ExecRunner;
// tests inject fakes.
type Runner interface {
	// Run executes cmd and blocks until it exits or ctx is done. The Result
	// carries captured output even when the returned error is an ExitError.
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Verify ExecRunner implements Runner at compile time.
var _ Runner = (*ExecRunner)(nil)

// ExecRunner runs tools as child processes via os/exec.
type ExecRunner struct {
	logger logging.Logger
}

// NewExecRunner creates an ExecRunner that logs tool invocations at debug
// level through the given logger.
func NewExecRunner(logger logging.Logger) *ExecRunner {
	return &ExecRunner{logger: logging.EnsureLogger(logger)}
}

// Run executes the command, capturing stdout and stderr separately. A
// non-zero exit yields an ExitError together with the captured Result; any
// other failure (tool missing, context canceled before completion) is
// returned as-is.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	tool := filepath.Base(cmd.Path)
	r.logger.Debug("running %s %v", cmd.Path, cmd.Args)

	var result Result
	err := tracing.Run(ctx, "toolrun."+tool, map[string]interface{}{"tool": cmd.Path}, func(ctx context.Context) error {
		c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
		if cmd.Stdin != nil {
			c.Stdin = bytes.NewReader(cmd.Stdin)
		}
		var stdout, stderr bytes.Buffer
		c.Stdout = &stdout
		c.Stderr = &stderr

		runErr := c.Run()
		result.Stdout = stdout.Bytes()
		result.Stderr = stderr.Bytes()

		if runErr == nil {
			return nil
		}
		var xe *exec.ExitError
		if errors.As(runErr, &xe) && ctx.Err() == nil {
			return &ExitError{
				Tool:     tool,
				ExitCode: xe.ExitCode(),
				Output:   result.Output(),
			}
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s interrupted: %w", tool, ctx.Err())
		}
		return fmt.Errorf("failed to run %s: %w", tool, runErr)
	})
	return result, err
}
