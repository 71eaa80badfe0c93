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

// Package certkey locates the RSA public key embedded in an X.509
// certificate and its signature-hash algorithm, working purely from the
// structural node sequence produced by asn1dump. It computes byte-offset
// ranges into the original DER buffer; it does not validate chains or
// expiry.
package certkey

import (
	"context"

	"github.com/bootsign/bootsign/pkg/asn1dump"
	"github.com/bootsign/bootsign/pkg/logging"
)

// HashAlgorithm identifies the hash used with the RSA signature.
type HashAlgorithm int

const (
	// HashNone marks the sentinel record in generated output.
	HashNone HashAlgorithm = iota
	// HashSHA256 is SHA-256.
	HashSHA256
	// HashSHA512 is SHA-512.
	HashSHA512
)

// String returns the algorithm name used in generated output records.
func (h HashAlgorithm) String() string {
	switch h {
	case HashSHA256:
		return "SHA256"
	case HashSHA512:
		return "SHA512"
	default:
		return "NONE"
	}
}

// signatureHashes maps the certificate's signature OID name to the hash
// used by the signing pipeline. A certificate's signature algorithm is not
// in general the algorithm its key is used with, but it is for every key in
// this key store, and sha1-signed legacy certificates carry keys used with
// SHA-256.
var signatureHashes = map[string]HashAlgorithm{
	"sha1WithRSAEncryption":   HashSHA256,
	"sha256WithRSAEncryption": HashSHA256,
	"sha512WithRSAEncryption": HashSHA512,
}

// rsaEncryptionOID is the dump tool's decoded name for the RSA public key
// algorithm OID.
const rsaEncryptionOID = "rsaEncryption"

// ByteRange is a (start, length) slice of the original DER buffer.
type ByteRange struct {
	Offset int
	Length int
}

// KeyInfo is the aggregate result of locating a key: where the modulus and
// exponent live inside the certificate, and which hash the key is used
// with. Constructed once per (certificate, key-name) pair and immutable
// afterwards.
type KeyInfo struct {
	// Name is the caller-supplied key label.
	Name string
	// Cert is the full DER certificate.
	Cert []byte
	// CertLength is len(Cert).
	CertLength int
	// Modulus is the absolute range of the RSA modulus bytes.
	Modulus ByteRange
	// Exponent is the absolute range of the RSA exponent bytes.
	Exponent ByteRange
	// Hash is the signature-hash algorithm.
	Hash HashAlgorithm
}

// NodeParser produces the structural node sequence for a DER buffer. It is
// satisfied by *asn1dump.Parser; tests substitute fakes.
type NodeParser interface {
	Parse(ctx context.Context, der []byte) ([]asn1dump.Node, error)
}

// Locator finds RSA key material inside certificates.
type Locator struct {
	parser NodeParser
	logger logging.Logger
}

// NewLocator creates a Locator on top of the given structural parser.
func NewLocator(parser NodeParser, logger logging.Logger) *Locator {
	return &Locator{parser: parser, logger: logging.EnsureLogger(logger)}
}

// Locate parses the certificate, finds the signature-hash algorithm and the
// RSA modulus/exponent byte ranges, and returns them as a KeyInfo. All
// failures are *LocateError values; every one indicates defective input.
func (l *Locator) Locate(ctx context.Context, der []byte, keyName string) (*KeyInfo, error) {
	nodes, err := l.parser.Parse(ctx, der)
	if err != nil {
		return nil, err
	}

	// Pass 1 over the certificate: the first OBJECT at depth 3 is the
	// signature algorithm; after that, the key's BIT STRING must directly
	// accompany the most recent OBJECT, which sits one level deeper and
	// names the key algorithm. First match wins.
	var (
		sigAlg     string
		haveSigAlg bool
		lastObject *asn1dump.Node
		keyBlob    *ByteRange
	)

scan:
	for i := range nodes {
		n := &nodes[i]
		switch n.Tag() {
		case asn1dump.TagObject:
			if !haveSigAlg {
				if n.Depth != 3 {
					return nil, &LocateError{
						Type:    ErrSignatureAlgorithmMissing,
						Key:     keyName,
						Message: "signature algorithm OID found at wrong depth",
					}
				}
				sigAlg = n.Value
				haveSigAlg = true
				continue
			}
			lastObject = n
		case asn1dump.TagBitString:
			if lastObject == nil || n.Depth+1 != lastObject.Depth {
				return nil, &LocateError{
					Type:    ErrKeyNotAssociatedWithAlgorithm,
					Key:     keyName,
					Message: "found bit string without associated OID",
				}
			}
			if lastObject.Value != rsaEncryptionOID {
				return nil, &LocateError{
					Type:    ErrUnsupportedKeyAlgorithm,
					Key:     keyName,
					Message: "key algorithm is " + lastObject.Value + ", expected " + rsaEncryptionOID,
				}
			}
			// The BIT STRING payload starts with one "unused bits" byte
			// before the wrapped key structure.
			keyBlob = &ByteRange{
				Offset: n.Offset + n.HeaderLen + 1,
				Length: n.Length - 1,
			}
			break scan
		}
	}

	if !haveSigAlg {
		return nil, &LocateError{
			Type:    ErrSignatureAlgorithmMissing,
			Key:     keyName,
			Message: "signature algorithm is not set",
		}
	}
	hash, ok := signatureHashes[sigAlg]
	if !ok {
		return nil, &LocateError{
			Type:    ErrUnknownSignatureAlgorithm,
			Key:     keyName,
			Message: "unknown signature algorithm " + sigAlg,
		}
	}
	if keyBlob == nil {
		return nil, &LocateError{
			Type:    ErrKeyMaterialMissing,
			Key:     keyName,
			Message: "RSA public key not present in certificate",
		}
	}
	if keyBlob.Length < 1 || keyBlob.Offset+keyBlob.Length > len(der) {
		return nil, &LocateError{
			Type:    ErrKeyMaterialMissing,
			Key:     keyName,
			Message: "key bit string exceeds certificate bounds",
		}
	}

	// Pass 2 over the key blob alone: the first INTEGER is the modulus, the
	// second the exponent; anything after the second is ignored.
	keyNodes, err := l.parser.Parse(ctx, der[keyBlob.Offset:keyBlob.Offset+keyBlob.Length])
	if err != nil {
		return nil, err
	}

	var modulus, exponent *ByteRange
	for i := range keyNodes {
		n := &keyNodes[i]
		if n.Tag() != asn1dump.TagInteger {
			continue
		}
		// Translate the sub-blob offset back into the certificate buffer.
		r := &ByteRange{
			Offset: keyBlob.Offset + n.Offset + n.HeaderLen,
			Length: n.Length,
		}
		if modulus == nil {
			modulus = r
			continue
		}
		exponent = r
		break
	}
	if exponent == nil {
		return nil, &LocateError{
			Type:    ErrKeyMaterialMissing,
			Key:     keyName,
			Message: "RSA key does not contain modulus and exponent",
		}
	}

	// A well-formed modulus is a positive big integer: one 0x00 sign
	// padding byte, then a first payload byte with the high bit set.
	if modulus.Length < 2 ||
		modulus.Offset+1 >= len(der) ||
		der[modulus.Offset] != 0 ||
		der[modulus.Offset+1] < 0x80 {
		return nil, &LocateError{
			Type:    ErrInvalidModulusEncoding,
			Key:     keyName,
			Message: "RSA modulus is not a sign-padded positive integer",
		}
	}

	l.logger.Debug("key %s: modulus %d bytes at %d, exponent %d bytes at %d, hash %s",
		keyName, modulus.Length, modulus.Offset, exponent.Length, exponent.Offset, hash)

	return &KeyInfo{
		Name:       keyName,
		Cert:       der,
		CertLength: len(der),
		Modulus:    *modulus,
		Exponent:   *exponent,
		Hash:       hash,
	}, nil
}
