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

package certkey

import (
	"errors"
	"fmt"
)

// ErrorType categorizes locator failures. Every one of them is a hard input
// defect: the certificate is corrupt or unsupported, never a transient
// condition, so no locator error is ever retried.
type ErrorType int

const (
	// ErrUnknown indicates an unclassified error.
	ErrUnknown ErrorType = iota

	// ErrSignatureAlgorithmMissing indicates the signature algorithm OID was
	// absent or found at the wrong nesting depth.
	ErrSignatureAlgorithmMissing

	// ErrUnknownSignatureAlgorithm indicates the signature OID does not map
	// to a supported hash algorithm.
	ErrUnknownSignatureAlgorithm

	// ErrKeyNotAssociatedWithAlgorithm indicates a BIT STRING that is not
	// the structural companion of a key algorithm OID.
	ErrKeyNotAssociatedWithAlgorithm

	// ErrUnsupportedKeyAlgorithm indicates the public key is not RSA.
	ErrUnsupportedKeyAlgorithm

	// ErrKeyMaterialMissing indicates the key, its modulus, or its exponent
	// could not be found.
	ErrKeyMaterialMissing

	// ErrInvalidModulusEncoding indicates the modulus is not encoded as a
	// positive big integer with sign padding and a leading high bit.
	ErrInvalidModulusEncoding
)

// String returns a human-readable name for the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrSignatureAlgorithmMissing:
		return "SignatureAlgorithmMissing"
	case ErrUnknownSignatureAlgorithm:
		return "UnknownSignatureAlgorithm"
	case ErrKeyNotAssociatedWithAlgorithm:
		return "KeyNotAssociatedWithAlgorithm"
	case ErrUnsupportedKeyAlgorithm:
		return "UnsupportedKeyAlgorithm"
	case ErrKeyMaterialMissing:
		return "KeyMaterialMissing"
	case ErrInvalidModulusEncoding:
		return "InvalidModulusEncoding"
	default:
		return "UnknownError"
	}
}

// LocateError is the structured error returned by Locate.
type LocateError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType
	// Key is the key name the locate was performed for.
	Key string
	// Message is a human-readable description of what went wrong.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *LocateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (key %s): %v", e.Type, e.Message, e.Key, e.Cause)
	}
	return fmt.Sprintf("%s: %s (key %s)", e.Type, e.Message, e.Key)
}

// Unwrap returns the underlying cause for error chain unwrapping.
func (e *LocateError) Unwrap() error {
	return e.Cause
}

// IsType reports whether err is a LocateError of the given type.
func IsType(err error, errType ErrorType) bool {
	var le *LocateError
	if errors.As(err, &le) {
		return le.Type == errType
	}
	return false
}
