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

package certsource

import (
	"fmt"
	"io"
	"strings"

	"github.com/bootsign/bootsign/pkg/certkey"
)

// header opens the generated file. The array is only compiled into
// secure-boot builds.
const header = `/*
 * DO NOT EDIT.  This file was automatically generated by
 * bootsign extract-keys
 */

#ifdef SECURE_BOOT

#include "cert.h"

RawRSACert certs[] = {
`

// footer terminates the array with a sentinel record: null name, zero
// lengths, no hash.
const footer = `   {
      NULL,
      NULL, 0,
      0, 0,
      0, 0,
      MBEDTLS_MD_NONE,
      false,
      false,
      { 0 }
   }
};

#endif /* SECURE_BOOT */
`

// WriteHeader writes the file prologue.
func WriteHeader(w io.Writer) error {
	_, err := io.WriteString(w, header)
	return err
}

// WriteFooter writes the sentinel record and closes the guarded block.
func WriteFooter(w io.Writer) error {
	_, err := io.WriteString(w, footer)
	return err
}

// WriteGroupBegin opens a conditional group. An empty label emits nothing.
func WriteGroupBegin(w io.Writer, label string) error {
	if label == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, "#if defined(%s)\n", label)
	return err
}

// WriteGroupEnd closes a conditional group. An empty label emits nothing.
func WriteGroupEnd(w io.Writer, label string) error {
	if label == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, "#endif /* defined(%s) */\n", label)
	return err
}

// WriteRecord writes one key's record: name, certificate bytes, certificate
// length, modulus and exponent ranges, hash enum, then two reserved flags
// and a reserved trailing structure for the consumer to fill in.
func WriteRecord(w io.Writer, info *certkey.KeyInfo) error {
	_, err := fmt.Fprintf(w, `   {
      "%s",
      (const unsigned char *)
%s,
      %d,
      %d, %d,
      %d, %d,
      MBEDTLS_MD_%s,
      false,
      false,
      { 0 }
   },
`,
		info.Name,
		certRows(info.Cert),
		info.CertLength,
		info.Modulus.Offset, info.Modulus.Length,
		info.Exponent.Offset, info.Exponent.Length,
		info.Hash)
	return err
}

// certRows renders the DER buffer as C string literals, 16 hex-escaped
// bytes per row.
func certRows(der []byte) string {
	rows := make([]string, 0, (len(der)+15)/16)
	for start := 0; start < len(der); start += 16 {
		end := start + 16
		if end > len(der) {
			end = len(der)
		}
		var b strings.Builder
		b.WriteString(`      "`)
		for _, c := range der[start:end] {
			fmt.Fprintf(&b, `\x%02x`, c)
		}
		b.WriteString(`"`)
		rows = append(rows, b.String())
	}
	return strings.Join(rows, "\n")
}
