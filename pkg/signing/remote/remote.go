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

// Package remote signs through the remote signing service client.
package remote

import (
	"context"
	"fmt"
	"os"

	"github.com/bootsign/bootsign/internal/toolrun"
	"github.com/bootsign/bootsign/pkg/config"
	"github.com/bootsign/bootsign/pkg/logging"
	"github.com/bootsign/bootsign/pkg/signing"
)

// Verify Signer implements signing.Backend at compile time.
var _ signing.Backend = (*Signer)(nil)

// Signer submits the input to the remote signing service, which returns the
// binary with an embedded signature; the signature is then detached into the
// usual artifact file.
type Signer struct {
	cfg    *config.Config
	runner toolrun.Runner
	logger logging.Logger
}

// NewSigner creates a Signer.
func NewSigner(cfg *config.Config, runner toolrun.Runner, logger logging.Logger) *Signer {
	return &Signer{cfg: cfg, runner: runner, logger: logging.EnsureLogger(logger)}
}

// Sign submits input to the signing service under the named key and detaches
// the resulting signature. The intermediate signed binary is removed before
// returning.
func (s *Signer) Sign(ctx context.Context, input, key string) (signing.Artifact, error) {
	signed := input + "-" + key + ".tmp"
	defer func() {
		if err := os.Remove(signed); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("could not remove %s: %v", signed, err)
		}
	}()

	s.logger.Info("submitting %s to the signing service with key %s", input, key)
	_, err := s.runner.Run(ctx, toolrun.Command{
		Path: s.cfg.SignC,
		Args: []string{
			"--verbose",
			"--signmethod", "winddk-8.1",
			"--hash", "sha256",
			"--key", key,
			"--input", input,
			"--output", signed,
		},
	})
	if err != nil {
		return signing.Artifact{}, fmt.Errorf("remote signing %s with key %s: %w", input, key, err)
	}

	art := signing.Artifact{Key: key, Path: signing.ArtifactPath(input, key)}
	_, err = s.runner.Run(ctx, toolrun.Command{
		Path: s.cfg.SBAttach,
		Args: []string{"--detach", art.Path, signed},
	})
	if err != nil {
		return signing.Artifact{}, fmt.Errorf("detaching signature for %s key %s: %w", input, key, err)
	}
	return art, nil
}
