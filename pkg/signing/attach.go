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

package signing

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bootsign/bootsign/internal/toolrun"
	"github.com/bootsign/bootsign/pkg/config"
	"github.com/bootsign/bootsign/pkg/logging"
)

// AttachToolError reports a failed attach of one artifact. The output copy
// is left in place for inspection.
type AttachToolError struct {
	Artifact string
	Cause    error
}

// Error implements the error interface.
func (e *AttachToolError) Error() string {
	return fmt.Sprintf("attaching %s: %v", e.Artifact, e.Cause)
}

// Unwrap supports errors.Is/As on the cause.
func (e *AttachToolError) Unwrap() error { return e.Cause }

// Verify SBAttacher implements Attacher at compile time.
var _ Attacher = (*SBAttacher)(nil)

// SBAttacher copies the input and embeds each detached signature into the
// copy with the attach tool.
type SBAttacher struct {
	cfg    *config.Config
	runner toolrun.Runner
	logger logging.Logger
}

// NewSBAttacher creates an SBAttacher.
func NewSBAttacher(cfg *config.Config, runner toolrun.Runner, logger logging.Logger) *SBAttacher {
	return &SBAttacher{cfg: cfg, runner: runner, logger: logging.EnsureLogger(logger)}
}

// Attach copies input to output preserving its mode, then attaches each
// artifact in order. The input itself is never modified.
func (a *SBAttacher) Attach(ctx context.Context, input, output string, artifacts []Artifact) error {
	if err := copyFile(input, output); err != nil {
		return fmt.Errorf("copying %s to %s: %w", input, output, err)
	}
	for _, art := range artifacts {
		a.logger.Debug("attaching %s to %s", art.Path, output)
		_, err := a.runner.Run(ctx, toolrun.Command{
			Path: a.cfg.SBAttach,
			Args: []string{"--attach", art.Path, output},
		})
		if err != nil {
			return &AttachToolError{Artifact: art.Path, Cause: err}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
