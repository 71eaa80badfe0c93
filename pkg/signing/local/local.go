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

// Package local signs with key pairs from the local key store.
package local

import (
	"context"
	"fmt"

	"github.com/bootsign/bootsign/internal/toolrun"
	"github.com/bootsign/bootsign/pkg/config"
	"github.com/bootsign/bootsign/pkg/logging"
	"github.com/bootsign/bootsign/pkg/signing"
)

// Verify Signer implements signing.Backend at compile time.
var _ signing.Backend = (*Signer)(nil)

// Signer produces detached signatures with the local signing tool and a
// <key>.key/<key>.cert pair from the local key store.
type Signer struct {
	cfg    *config.Config
	runner toolrun.Runner
	logger logging.Logger
}

// NewSigner creates a Signer.
func NewSigner(cfg *config.Config, runner toolrun.Runner, logger logging.Logger) *Signer {
	return &Signer{cfg: cfg, runner: runner, logger: logging.EnsureLogger(logger)}
}

// Sign produces a detached signature for input with the named key.
func (s *Signer) Sign(ctx context.Context, input, key string) (signing.Artifact, error) {
	keyFile, certFile := s.cfg.LocalKeyPair(key)
	art := signing.Artifact{Key: key, Path: signing.ArtifactPath(input, key)}

	s.logger.Debug("signing %s with local key %s", input, key)
	_, err := s.runner.Run(ctx, toolrun.Command{
		Path: s.cfg.SBSign,
		Args: []string{
			"--key", keyFile,
			"--cert", certFile,
			"--detached",
			"--output", art.Path,
			input,
		},
	})
	if err != nil {
		return signing.Artifact{}, fmt.Errorf("local signing %s with key %s: %w", input, key, err)
	}
	return art, nil
}
