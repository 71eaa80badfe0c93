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

// Package signing orchestrates detached-signature production for boot
// binaries. Each requested key is routed to a backend (local key pair,
// remote signing service, or the authority signature cache); the detached
// signatures are then attached to a copy of the input in request order.
package signing

import (
	"context"
	"fmt"
)

// Artifact is one detached signature file produced for an input/key pair.
type Artifact struct {
	// Key is the signing key the artifact was produced with.
	Key string
	// Path is the detached signature file location.
	Path string
}

// ArtifactPath returns the detached signature location for signing input
// with key. Artifacts are temporary files next to the input.
func ArtifactPath(input, key string) string {
	return input + "@" + key + ".tmp"
}

// Backend produces a detached signature for an input binary with a named
// key. Implementations live in the local and remote subpackages.
type Backend interface {
	Sign(ctx context.Context, input, key string) (Artifact, error)
}

// CacheOutcome classifies a cache lookup for an authority signature.
type CacheOutcome int

const (
	// CacheHit means a cached signature exists and verifies against the
	// authority certificate.
	CacheHit CacheOutcome = iota
	// CacheMissing means no cached signature exists for the input.
	CacheMissing
	// CacheStale means a cached signature exists but does not match the
	// current build of the input.
	CacheStale
)

// CacheResult is the outcome of a cache lookup. Artifact is meaningful only
// for CacheHit.
type CacheResult struct {
	Outcome  CacheOutcome
	Artifact Artifact
	// Reason describes a non-hit outcome for logging and reports.
	Reason string
}

// CacheVerifier resolves authority keys against the signature cache. The
// implementation lives in the cache subpackage.
type CacheVerifier interface {
	Verify(ctx context.Context, input, key string) (CacheResult, error)
}

// Attacher embeds detached signatures into a copy of the input binary.
type Attacher interface {
	Attach(ctx context.Context, input, output string, artifacts []Artifact) error
}

// KeyState is the final disposition of one requested key.
type KeyState int

const (
	// StatePending means the key has not been processed yet.
	StatePending KeyState = iota
	// StateSkipped means no signature was produced for the key.
	StateSkipped
	// StateSignedLocal means the signature came from a local key pair.
	StateSignedLocal
	// StateSignedRemote means the signature came from the remote service.
	StateSignedRemote
	// StateSignedCached means a verified cached authority signature was used.
	StateSignedCached
)

// String implements fmt.Stringer.
func (s KeyState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSkipped:
		return "skipped"
	case StateSignedLocal:
		return "signed-local"
	case StateSignedRemote:
		return "signed-remote"
	case StateSignedCached:
		return "signed-cached"
	default:
		return fmt.Sprintf("KeyState(%d)", int(s))
	}
}

// RunOutcome is the overall disposition of a signing run.
type RunOutcome int

const (
	// RunCompleted means the run finished and the output was written (or no
	// signatures were applicable and no output was produced).
	RunCompleted RunOutcome = iota
	// RunAbortedByPolicy means the key set is not allowed on this build
	// (a vendor-trust key outside an official build). No output is written.
	RunAbortedByPolicy
)

// String implements fmt.Stringer.
func (o RunOutcome) String() string {
	switch o {
	case RunCompleted:
		return "completed"
	case RunAbortedByPolicy:
		return "aborted-by-policy"
	default:
		return fmt.Sprintf("RunOutcome(%d)", int(o))
	}
}

// KeyResult records the disposition of one requested key.
type KeyResult struct {
	Key   string
	Class KeyClass
	State KeyState
	// Reason explains a skip or abort.
	Reason string
}

// Report summarizes a signing run.
type Report struct {
	Outcome RunOutcome
	// Output is the signed binary path, empty when no output was written.
	Output string
	// Keys holds one entry per requested key, in request order.
	Keys []KeyResult
	// AbortReason is set when Outcome is RunAbortedByPolicy.
	AbortReason string
}
