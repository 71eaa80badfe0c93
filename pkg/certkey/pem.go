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
	"fmt"
	"os"

	"github.com/sigstore/sigstore/pkg/cryptoutils"
)

// CertificateFromPEM decodes a PEM buffer that must contain exactly one
// CERTIFICATE block and returns its DER bytes. A buffer with no block or
// with several blocks is a fatal input error.
func CertificateFromPEM(data []byte) ([]byte, error) {
	certs, err := cryptoutils.UnmarshalCertificatesFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("decoding PEM certificate: %w", err)
	}
	if len(certs) != 1 {
		return nil, fmt.Errorf("expected exactly one certificate in PEM input, found %d", len(certs))
	}
	return certs[0].Raw, nil
}

// LoadCertificatePEM reads a PEM certificate file and returns its DER bytes.
func LoadCertificatePEM(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading certificate %q: %w", path, err)
	}
	der, err := CertificateFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("certificate %q: %w", path, err)
	}
	return der, nil
}
