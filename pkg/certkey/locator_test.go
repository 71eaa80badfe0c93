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
	"context"
	"reflect"
	"testing"

	"github.com/bootsign/bootsign/pkg/asn1dump"
)

// fakeParser serves the certificate node sequence for the full buffer and
// the key node sequence for the sub-slice, keyed by input length.
type fakeParser struct {
	certLen   int
	certNodes []asn1dump.Node
	keyNodes  []asn1dump.Node
}

func (f *fakeParser) Parse(_ context.Context, der []byte) ([]asn1dump.Node, error) {
	if len(der) == f.certLen {
		return f.certNodes, nil
	}
	return f.keyNodes, nil
}

const testCertLen = 100

// testDER builds a buffer whose bytes satisfy the modulus checks at the
// offsets produced by testCertNodes/testKeyNodes: the key BIT STRING is at
// offset 20 (hl=4, l=40), so the key blob starts at 25; the modulus INTEGER
// is at local offset 4 (hl=4, l=17), i.e. absolute offset 33.
func testDER() []byte {
	der := make([]byte, testCertLen)
	der[33] = 0x00
	der[34] = 0xC1
	return der
}

func testCertNodes(sigAlg string) []asn1dump.Node {
	return []asn1dump.Node{
		{Offset: 0, Depth: 0, HeaderLen: 4, Length: 96, Label: "SEQUENCE", Class: "cons"},
		{Offset: 4, Depth: 1, HeaderLen: 2, Length: 60, Label: "SEQUENCE", Class: "cons"},
		{Offset: 6, Depth: 2, HeaderLen: 2, Length: 13, Label: "SEQUENCE", Class: "cons"},
		{Offset: 8, Depth: 3, HeaderLen: 2, Length: 9, Label: "OBJECT", Value: sigAlg, Class: "prim"},
		{Offset: 14, Depth: 3, HeaderLen: 2, Length: 20, Label: "SEQUENCE", Class: "cons"},
		{Offset: 16, Depth: 4, HeaderLen: 2, Length: 11, Label: "SEQUENCE", Class: "cons"},
		{Offset: 18, Depth: 5, HeaderLen: 2, Length: 9, Label: "OBJECT", Value: "rsaEncryption", Class: "prim"},
		{Offset: 20, Depth: 4, HeaderLen: 4, Length: 40, Label: "BIT STRING", Class: "prim"},
	}
}

func testKeyNodes() []asn1dump.Node {
	return []asn1dump.Node{
		{Offset: 0, Depth: 0, HeaderLen: 4, Length: 35, Label: "SEQUENCE", Class: "cons"},
		{Offset: 4, Depth: 1, HeaderLen: 4, Length: 17, Label: "INTEGER", Value: "00C1", Class: "prim"},
		{Offset: 25, Depth: 1, HeaderLen: 2, Length: 3, Label: "INTEGER", Value: "010001", Class: "prim"},
	}
}

func newTestLocator(certNodes, keyNodes []asn1dump.Node) *Locator {
	return NewLocator(&fakeParser{
		certLen:   testCertLen,
		certNodes: certNodes,
		keyNodes:  keyNodes,
	}, nil)
}

func TestLocateValidRSAKey(t *testing.T) {
	l := newTestLocator(testCertNodes("sha256WithRSAEncryption"), testKeyNodes())
	der := testDER()

	info, err := l.Locate(context.Background(), der, "test_key")
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}

	if info.Name != "test_key" || info.CertLength != testCertLen {
		t.Errorf("unexpected name/length: %q %d", info.Name, info.CertLength)
	}
	if info.Hash != HashSHA256 {
		t.Errorf("expected SHA256, got %v", info.Hash)
	}
	// Key blob starts at 20+4+1 = 25; modulus at 25+4+4 = 33, len 17.
	if info.Modulus != (ByteRange{Offset: 33, Length: 17}) {
		t.Errorf("unexpected modulus range: %+v", info.Modulus)
	}
	// Exponent at 25+25+2 = 52, len 3.
	if info.Exponent != (ByteRange{Offset: 52, Length: 3}) {
		t.Errorf("unexpected exponent range: %+v", info.Exponent)
	}

	if der[info.Modulus.Offset] != 0x00 || der[info.Modulus.Offset+1] < 0x80 {
		t.Error("modulus range does not point at sign-padded high-bit bytes")
	}
}

func TestLocateIsIdempotent(t *testing.T) {
	l := newTestLocator(testCertNodes("sha256WithRSAEncryption"), testKeyNodes())
	der := testDER()

	a, err := l.Locate(context.Background(), der, "k")
	if err != nil {
		t.Fatal(err)
	}
	b, err := l.Locate(context.Background(), der, "k")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("locating the same certificate twice differs: %+v vs %+v", a, b)
	}
}

func TestLocateHashMapping(t *testing.T) {
	cases := []struct {
		sigAlg string
		want   HashAlgorithm
	}{
		{"sha1WithRSAEncryption", HashSHA256},
		{"sha256WithRSAEncryption", HashSHA256},
		{"sha512WithRSAEncryption", HashSHA512},
	}
	for _, c := range cases {
		l := newTestLocator(testCertNodes(c.sigAlg), testKeyNodes())
		info, err := l.Locate(context.Background(), testDER(), "k")
		if err != nil {
			t.Fatalf("%s: %v", c.sigAlg, err)
		}
		if info.Hash != c.want {
			t.Errorf("%s: got %v, want %v", c.sigAlg, info.Hash, c.want)
		}
	}
}

func TestLocateUnknownSignatureAlgorithm(t *testing.T) {
	l := newTestLocator(testCertNodes("md5WithRSAEncryption"), testKeyNodes())
	_, err := l.Locate(context.Background(), testDER(), "k")
	if !IsType(err, ErrUnknownSignatureAlgorithm) {
		t.Fatalf("expected UnknownSignatureAlgorithm, got %v", err)
	}
}

func TestLocateOIDAtWrongDepth(t *testing.T) {
	nodes := testCertNodes("sha256WithRSAEncryption")
	nodes[3].Depth = 2
	l := newTestLocator(nodes, testKeyNodes())
	_, err := l.Locate(context.Background(), testDER(), "k")
	if !IsType(err, ErrSignatureAlgorithmMissing) {
		t.Fatalf("expected SignatureAlgorithmMissing, got %v", err)
	}
}

func TestLocateNoSignatureAlgorithm(t *testing.T) {
	nodes := []asn1dump.Node{
		{Offset: 0, Depth: 0, HeaderLen: 4, Length: 96, Label: "SEQUENCE"},
	}
	l := newTestLocator(nodes, nil)
	_, err := l.Locate(context.Background(), testDER(), "k")
	if !IsType(err, ErrSignatureAlgorithmMissing) {
		t.Fatalf("expected SignatureAlgorithmMissing, got %v", err)
	}
}

func TestLocateNonRSAKey(t *testing.T) {
	nodes := testCertNodes("sha256WithRSAEncryption")
	nodes[6].Value = "id-ecPublicKey"
	l := newTestLocator(nodes, testKeyNodes())
	_, err := l.Locate(context.Background(), testDER(), "k")
	if !IsType(err, ErrUnsupportedKeyAlgorithm) {
		t.Fatalf("expected UnsupportedKeyAlgorithm, got %v", err)
	}
}

func TestLocateBitStringWithoutOID(t *testing.T) {
	// BIT STRING one level too shallow relative to its OID: depth relation
	// broken even though both nodes exist.
	nodes := testCertNodes("sha256WithRSAEncryption")
	nodes[7].Depth = 3
	l := newTestLocator(nodes, testKeyNodes())
	_, err := l.Locate(context.Background(), testDER(), "k")
	if !IsType(err, ErrKeyNotAssociatedWithAlgorithm) {
		t.Fatalf("expected KeyNotAssociatedWithAlgorithm, got %v", err)
	}
}

func TestLocateNoBitString(t *testing.T) {
	nodes := testCertNodes("sha256WithRSAEncryption")[:7]
	l := newTestLocator(nodes, testKeyNodes())
	_, err := l.Locate(context.Background(), testDER(), "k")
	if !IsType(err, ErrKeyMaterialMissing) {
		t.Fatalf("expected KeyMaterialMissing, got %v", err)
	}
}

func TestLocateMissingExponent(t *testing.T) {
	l := newTestLocator(testCertNodes("sha256WithRSAEncryption"), testKeyNodes()[:2])
	_, err := l.Locate(context.Background(), testDER(), "k")
	if !IsType(err, ErrKeyMaterialMissing) {
		t.Fatalf("expected KeyMaterialMissing, got %v", err)
	}
}

func TestLocateThirdIntegerIgnored(t *testing.T) {
	keyNodes := append(testKeyNodes(),
		asn1dump.Node{Offset: 30, Depth: 1, HeaderLen: 2, Length: 2, Label: "INTEGER", Value: "05"})
	l := newTestLocator(testCertNodes("sha256WithRSAEncryption"), keyNodes)

	info, err := l.Locate(context.Background(), testDER(), "k")
	if err != nil {
		t.Fatal(err)
	}
	if info.Exponent != (ByteRange{Offset: 52, Length: 3}) {
		t.Errorf("third INTEGER must not displace the exponent: %+v", info.Exponent)
	}
}

func TestLocateInvalidModulusEncoding(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(der []byte, keyNodes []asn1dump.Node) ([]byte, []asn1dump.Node)
	}{
		{"missing sign padding", func(der []byte, kn []asn1dump.Node) ([]byte, []asn1dump.Node) {
			der[33] = 0x01
			return der, kn
		}},
		{"high bit clear", func(der []byte, kn []asn1dump.Node) ([]byte, []asn1dump.Node) {
			der[34] = 0x41
			return der, kn
		}},
		{"modulus too short", func(der []byte, kn []asn1dump.Node) ([]byte, []asn1dump.Node) {
			kn[1].Length = 1
			return der, kn
		}},
	}

	for _, m := range mutations {
		t.Run(m.name, func(t *testing.T) {
			der, keyNodes := m.mutate(testDER(), testKeyNodes())
			l := newTestLocator(testCertNodes("sha256WithRSAEncryption"), keyNodes)
			_, err := l.Locate(context.Background(), der, "k")
			if !IsType(err, ErrInvalidModulusEncoding) {
				t.Fatalf("expected InvalidModulusEncoding, got %v", err)
			}
		})
	}
}
