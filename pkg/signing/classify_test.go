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
	"testing"

	"github.com/bootsign/bootsign/pkg/config"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(&config.Config{
		VendorMarkers:    []string{"vendor", "vmware"},
		AuthorityMarkers: []string{"uefi"},
	})

	tests := []struct {
		key  string
		want KeyClass
	}{
		{"test_key", ClassOrdinary},
		{"db_key_1", ClassOrdinary},
		{"vendor_esx", ClassVendor},
		{"esx_vmware_2025", ClassVendor},
		{"uefi_ca", ClassAuthority},
		{"microsoft_uefi_2023", ClassAuthority},
	}
	for _, tt := range tests {
		got, err := c.Classify(tt.key)
		if err != nil {
			t.Errorf("Classify(%q) failed: %v", tt.key, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestClassifyAmbiguous(t *testing.T) {
	c := NewClassifier(&config.Config{
		VendorMarkers:    []string{"vendor"},
		AuthorityMarkers: []string{"uefi"},
	})
	if _, err := c.Classify("vendor_uefi_key"); err == nil {
		t.Fatal("expected error for a key matching both marker sets")
	}
}

func TestClassifyNoMarkers(t *testing.T) {
	c := NewClassifier(&config.Config{})
	got, err := c.Classify("anything")
	if err != nil || got != ClassOrdinary {
		t.Errorf("Classify = %v, %v; want ordinary, nil", got, err)
	}
}
