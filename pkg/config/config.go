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

// Package config holds the process-wide bootsign configuration. The Config
// value is constructed once at startup (usually via FromEnv) and passed by
// reference into every component; no package reads the environment on its own.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Environment variables recognized by FromEnv.
const (
	// EnvOfficial enables vendor-key signing when set to "1".
	EnvOfficial = "SIGN_RELEASE_BINARIES"
	// EnvOpenSSL overrides the path of the ASN.1 dump tool.
	EnvOpenSSL = "HOST_OPENSSL"
	// EnvSBSign overrides the path of the local detached-signature tool.
	EnvSBSign = "SBSIGN"
	// EnvSBAttach overrides the path of the signature attach/detach tool.
	EnvSBAttach = "SBATTACH"
	// EnvSBVerify overrides the path of the detached-signature verify tool.
	EnvSBVerify = "SBVERIFY"
	// EnvSignC overrides the path of the remote signing service client.
	EnvSignC = "SIGNC"
	// EnvTopDir sets the tree root under which the signature cache and the
	// local key store live by default.
	EnvTopDir = "TOPDIR"
	// EnvLocalKeys overrides the local key store directory.
	EnvLocalKeys = "LOCALKEYS"
	// EnvCertDir overrides the directory searched for <key>.pem certificates
	// by the key extraction command.
	EnvCertDir = "KEYINFO_DIR"
	// EnvAuthorityCert overrides the authority CA certificate used to verify
	// cached authority signatures.
	EnvAuthorityCert = "BOOTSIGN_AUTHORITY_CERT"
	// EnvVendorMarkers is a comma-separated list of substrings that mark a
	// key name as a vendor-trust key.
	EnvVendorMarkers = "BOOTSIGN_VENDOR_MARKERS"
	// EnvAuthorityMarkers is a comma-separated list of substrings that mark
	// a key name as an authority key.
	EnvAuthorityMarkers = "BOOTSIGN_AUTHORITY_MARKERS"
)

// Config carries every externally configurable value: the official-build
// flag, external tool paths, and the filesystem locations of key material
// and the signature cache.
type Config struct {
	// Official is true for official builds, enabling vendor-key signing.
	Official bool

	// OpenSSL is the ASN.1 dump tool invoked as
	// "<OpenSSL> asn1parse -inform der".
	OpenSSL string
	// SBSign produces a detached signature from a local key/cert pair.
	SBSign string
	// SBAttach attaches or detaches a signature to/from a binary.
	SBAttach string
	// SBVerify checks a detached signature against a certificate and binary.
	SBVerify string
	// SignC submits a binary to the remote signing service.
	SignC string

	// TopDir is the tree root for derived default locations.
	TopDir string
	// LocalKeysDir holds per-key subdirectories with <key>.key/<key>.cert
	// pairs for local signing.
	LocalKeysDir string
	// SigCacheDir holds cached authority signatures keyed by the base name
	// of the signed binary.
	SigCacheDir string
	// CertDir is searched for <key>.pem certificates by key extraction.
	CertDir string
	// AuthorityCertPath is the PEM certificate of the signing authority,
	// used to verify cached signatures.
	AuthorityCertPath string

	// VendorMarkers lists substrings that classify a key name as a
	// vendor-trust key.
	VendorMarkers []string
	// AuthorityMarkers lists substrings that classify a key name as an
	// authority key.
	AuthorityMarkers []string
}

// FromEnv builds a Config from the process environment, applying defaults
// for every unset variable.
func FromEnv() *Config {
	topDir := envOr(EnvTopDir, ".")

	cfg := &Config{
		Official: os.Getenv(EnvOfficial) == "1",

		OpenSSL:  envOr(EnvOpenSSL, "openssl"),
		SBSign:   envOr(EnvSBSign, "sbsign"),
		SBAttach: envOr(EnvSBAttach, "sbattach"),
		SBVerify: envOr(EnvSBVerify, "sbverify"),
		SignC:    envOr(EnvSignC, "signc"),

		TopDir:            topDir,
		LocalKeysDir:      envOr(EnvLocalKeys, filepath.Join(topDir, "localkeys")),
		SigCacheDir:       filepath.Join(topDir, "sigcache"),
		CertDir:           envOr(EnvCertDir, filepath.Join(topDir, "localkeys")),
		AuthorityCertPath: envOr(EnvAuthorityCert, filepath.Join(topDir, "env", "authority-ca.pem")),

		VendorMarkers:    splitMarkers(envOr(EnvVendorMarkers, "vendor")),
		AuthorityMarkers: splitMarkers(envOr(EnvAuthorityMarkers, "uefi")),
	}
	return cfg
}

// LocalKeyPair returns the private key and certificate paths for local
// signing with the named key.
func (c *Config) LocalKeyPair(key string) (keyFile, certFile string) {
	base := filepath.Join(c.LocalKeysDir, key, key)
	return base + ".key", base + ".cert"
}

// CertPath returns the PEM certificate path for the named key, used by key
// extraction.
func (c *Config) CertPath(key string) string {
	return filepath.Join(c.CertDir, key+".pem")
}

// CachePath returns the cached authority signature location for the given
// input binary. The cache is keyed by base name only, so rebuilding a binary
// at a different path still finds its cached signature.
func (c *Config) CachePath(input string) string {
	return filepath.Join(c.SigCacheDir, filepath.Base(input))
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func splitMarkers(s string) []string {
	var out []string
	for _, m := range strings.Split(s, ",") {
		m = strings.TrimSpace(m)
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}
