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
	"os"

	"github.com/bootsign/bootsign/pkg/config"
	"github.com/bootsign/bootsign/pkg/logging"
	"github.com/bootsign/bootsign/pkg/tracing"
)

// Backends bundles the signature producers the orchestrator routes keys to.
type Backends struct {
	// Local signs with a key pair from the local key store.
	Local Backend
	// Remote signs through the remote signing service.
	Remote Backend
	// Cache resolves authority keys against the signature cache.
	Cache CacheVerifier
}

// Orchestrator runs a signing request end to end: classify each key, produce
// a detached signature per key through the matching backend, then attach all
// signatures to a copy of the input. Signature artifacts are removed before
// Run returns, whatever the outcome.
type Orchestrator struct {
	cfg        *config.Config
	classifier Classifier
	backends   Backends
	attacher   Attacher
	logger     logging.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(cfg *config.Config, backends Backends, attacher Attacher, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		classifier: NewClassifier(cfg),
		backends:   backends,
		attacher:   attacher,
		logger:     logging.EnsureLogger(logger),
	}
}

// Run signs input with the given keys, in order, and writes the result to
// output. The returned Report describes the disposition of every key; a nil
// error with Outcome RunAbortedByPolicy means the key set is not permitted
// on this build and no output was produced.
func (o *Orchestrator) Run(ctx context.Context, input, output string, keys []string) (*Report, error) {
	report := &Report{Outcome: RunCompleted, Keys: make([]KeyResult, len(keys))}
	for i, key := range keys {
		class, err := o.classifier.Classify(key)
		if err != nil {
			return nil, err
		}
		report.Keys[i] = KeyResult{Key: key, Class: class, State: StatePending}
	}

	// Artifacts are temporaries next to the input; remove every possible one
	// regardless of how the run ends.
	defer o.cleanup(input, keys)

	err := tracing.Run(ctx, "signing.run", map[string]interface{}{"input": input}, func(ctx context.Context) error {
		var artifacts []Artifact
		for i := range report.Keys {
			kr := &report.Keys[i]
			art, err := o.signKey(ctx, input, kr, report)
			if err != nil {
				return err
			}
			if report.Outcome == RunAbortedByPolicy {
				return nil
			}
			if kr.State != StateSkipped {
				artifacts = append(artifacts, art)
			}
		}

		if err := o.attacher.Attach(ctx, input, output, artifacts); err != nil {
			return err
		}
		report.Output = output
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// signKey produces the detached signature for one key, or records a skip or
// policy abort in the report.
func (o *Orchestrator) signKey(ctx context.Context, input string, kr *KeyResult, report *Report) (Artifact, error) {
	switch kr.Class {
	case ClassVendor:
		if !o.cfg.Official {
			kr.State = StateSkipped
			kr.Reason = "vendor-trust key requires an official build"
			report.Outcome = RunAbortedByPolicy
			report.AbortReason = fmt.Sprintf("key %s: %s", kr.Key, kr.Reason)
			o.logger.Info("not signing %s with %s: %s", input, kr.Key, kr.Reason)
			return Artifact{}, nil
		}
		art, err := o.backends.Remote.Sign(ctx, input, kr.Key)
		if err != nil {
			return Artifact{}, err
		}
		kr.State = StateSignedRemote
		return art, nil

	case ClassAuthority:
		res, err := o.backends.Cache.Verify(ctx, input, kr.Key)
		if err != nil {
			return Artifact{}, err
		}
		switch res.Outcome {
		case CacheHit:
			kr.State = StateSignedCached
			return res.Artifact, nil
		case CacheMissing:
			kr.State = StateSkipped
			kr.Reason = res.Reason
			o.logger.Info("skipping %s for %s: %s", kr.Key, input, res.Reason)
		case CacheStale:
			kr.State = StateSkipped
			kr.Reason = res.Reason
			o.logger.Warn("skipping %s for %s: %s", kr.Key, input, res.Reason)
		}
		return Artifact{}, nil

	default:
		art, err := o.backends.Local.Sign(ctx, input, kr.Key)
		if err != nil {
			return Artifact{}, err
		}
		kr.State = StateSignedLocal
		return art, nil
	}
}

// cleanup removes every artifact a run for these keys could have created.
// Missing files are expected and not an error.
func (o *Orchestrator) cleanup(input string, keys []string) {
	for _, key := range keys {
		path := ArtifactPath(input, key)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			o.logger.Warn("could not remove %s: %v", path, err)
		}
	}
}
