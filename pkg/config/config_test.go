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

package config

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, v := range []string{
		EnvOfficial, EnvOpenSSL, EnvSBSign, EnvSBAttach, EnvSBVerify,
		EnvSignC, EnvTopDir, EnvLocalKeys, EnvCertDir, EnvAuthorityCert,
		EnvVendorMarkers, EnvAuthorityMarkers,
	} {
		t.Setenv(v, "")
	}

	cfg := FromEnv()

	if cfg.Official {
		t.Error("Official should default to false")
	}
	if cfg.SBSign != "sbsign" || cfg.SBAttach != "sbattach" || cfg.SBVerify != "sbverify" {
		t.Errorf("unexpected tool defaults: %q %q %q", cfg.SBSign, cfg.SBAttach, cfg.SBVerify)
	}
	if cfg.OpenSSL != "openssl" || cfg.SignC != "signc" {
		t.Errorf("unexpected tool defaults: %q %q", cfg.OpenSSL, cfg.SignC)
	}
	if cfg.SigCacheDir != filepath.Join(".", "sigcache") {
		t.Errorf("unexpected SigCacheDir: %q", cfg.SigCacheDir)
	}
	if !reflect.DeepEqual(cfg.VendorMarkers, []string{"vendor"}) {
		t.Errorf("unexpected vendor markers: %v", cfg.VendorMarkers)
	}
	if !reflect.DeepEqual(cfg.AuthorityMarkers, []string{"uefi"}) {
		t.Errorf("unexpected authority markers: %v", cfg.AuthorityMarkers)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv(EnvOfficial, "1")
	t.Setenv(EnvTopDir, "/build/tree")
	t.Setenv(EnvSBSign, "/opt/bin/sbsign")
	t.Setenv(EnvLocalKeys, "/keys")
	t.Setenv(EnvVendorMarkers, "acme, corp")

	cfg := FromEnv()

	if !cfg.Official {
		t.Error("Official should be true when SIGN_RELEASE_BINARIES=1")
	}
	if cfg.SBSign != "/opt/bin/sbsign" {
		t.Errorf("SBSign override not applied: %q", cfg.SBSign)
	}
	if cfg.LocalKeysDir != "/keys" {
		t.Errorf("LocalKeysDir override not applied: %q", cfg.LocalKeysDir)
	}
	if cfg.SigCacheDir != "/build/tree/sigcache" {
		t.Errorf("SigCacheDir not derived from TOPDIR: %q", cfg.SigCacheDir)
	}
	if !reflect.DeepEqual(cfg.VendorMarkers, []string{"acme", "corp"}) {
		t.Errorf("marker list not split/trimmed: %v", cfg.VendorMarkers)
	}
}

func TestPathHelpers(t *testing.T) {
	cfg := &Config{
		LocalKeysDir: "/lk",
		CertDir:      "/certs",
		SigCacheDir:  "/cache",
	}

	keyFile, certFile := cfg.LocalKeyPair("test_key")
	if keyFile != "/lk/test_key/test_key.key" || certFile != "/lk/test_key/test_key.cert" {
		t.Errorf("unexpected local key pair: %q %q", keyFile, certFile)
	}
	if got := cfg.CertPath("test_key"); got != "/certs/test_key.pem" {
		t.Errorf("unexpected cert path: %q", got)
	}
	if got := cfg.CachePath("/out/dir/boot.efi"); got != "/cache/boot.efi" {
		t.Errorf("cache path should key on base name: %q", got)
	}
}
