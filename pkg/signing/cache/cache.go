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

// Package cache resolves authority keys against previously issued
// signatures. Authority keys cannot sign on demand; a binary either matches
// a signature the authority already issued for it, or goes unsigned by that
// key.
package cache

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/bootsign/bootsign/internal/toolrun"
	"github.com/bootsign/bootsign/pkg/config"
	"github.com/bootsign/bootsign/pkg/logging"
	"github.com/bootsign/bootsign/pkg/signing"
)

// mismatchMarker is the diagnostic the verify tool prints when a signature
// does not match the binary. Any other verify failure is a real error.
const mismatchMarker = "Signature verification failed"

// Verify Verifier implements signing.CacheVerifier at compile time.
var _ signing.CacheVerifier = (*Verifier)(nil)

// Verifier looks up a cached authority signature for an input binary,
// detaches it into the usual artifact file, and checks it against the
// authority certificate.
type Verifier struct {
	cfg    *config.Config
	runner toolrun.Runner
	logger logging.Logger
}

// NewVerifier creates a Verifier.
func NewVerifier(cfg *config.Config, runner toolrun.Runner, logger logging.Logger) *Verifier {
	return &Verifier{cfg: cfg, runner: runner, logger: logging.EnsureLogger(logger)}
}

// Verify resolves the named authority key for input. A missing cache entry
// and a cached signature that no longer matches the binary are reported as
// non-hit outcomes, not errors; tool failures other than a verification
// mismatch are errors.
func (v *Verifier) Verify(ctx context.Context, input, key string) (signing.CacheResult, error) {
	cached := v.cfg.CachePath(input)
	if _, err := os.Stat(cached); err != nil {
		if os.IsNotExist(err) {
			return signing.CacheResult{
				Outcome: signing.CacheMissing,
				Reason:  fmt.Sprintf("no cached signature at %s", cached),
			}, nil
		}
		return signing.CacheResult{}, fmt.Errorf("checking cached signature %s: %w", cached, err)
	}

	art := signing.Artifact{Key: key, Path: signing.ArtifactPath(input, key)}
	v.logger.Debug("detaching cached signature %s", cached)
	_, err := v.runner.Run(ctx, toolrun.Command{
		Path: v.cfg.SBAttach,
		Args: []string{"--detach", art.Path, cached},
	})
	if err != nil {
		return signing.CacheResult{}, fmt.Errorf("detaching cached signature %s: %w", cached, err)
	}

	_, err = v.runner.Run(ctx, toolrun.Command{
		Path: v.cfg.SBVerify,
		Args: []string{"--detached", art.Path, "--cert", v.cfg.AuthorityCertPath, input},
	})
	if err == nil {
		return signing.CacheResult{Outcome: signing.CacheHit, Artifact: art}, nil
	}
	if ee, ok := toolrun.IsExitError(err); ok && bytes.Contains(ee.Output, []byte(mismatchMarker)) {
		return signing.CacheResult{
			Outcome: signing.CacheStale,
			Reason:  fmt.Sprintf("cached signature %s does not match this build", cached),
		}, nil
	}
	return signing.CacheResult{}, fmt.Errorf("verifying cached signature %s: %w", cached, err)
}
