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
	"fmt"
	"strings"

	"github.com/bootsign/bootsign/pkg/config"
)

// KeyClass determines which backend signs with a key.
type KeyClass int

const (
	// ClassOrdinary keys sign with a local key pair.
	ClassOrdinary KeyClass = iota
	// ClassVendor keys sign through the remote signing service and are only
	// permitted on official builds.
	ClassVendor
	// ClassAuthority keys never sign directly; their signatures come from
	// the authority signature cache.
	ClassAuthority
)

// String implements fmt.Stringer.
func (c KeyClass) String() string {
	switch c {
	case ClassOrdinary:
		return "ordinary"
	case ClassVendor:
		return "vendor"
	case ClassAuthority:
		return "authority"
	default:
		return fmt.Sprintf("KeyClass(%d)", int(c))
	}
}

// Classifier maps key names to classes using the configured marker
// substrings.
type Classifier struct {
	vendorMarkers    []string
	authorityMarkers []string
}

// NewClassifier creates a Classifier from the configured markers.
func NewClassifier(cfg *config.Config) Classifier {
	return Classifier{
		vendorMarkers:    cfg.VendorMarkers,
		authorityMarkers: cfg.AuthorityMarkers,
	}
}

// Classify returns the class of the named key. A name matching both vendor
// and authority markers is ambiguous and rejected.
func (c Classifier) Classify(key string) (KeyClass, error) {
	vendor := matchesAny(key, c.vendorMarkers)
	authority := matchesAny(key, c.authorityMarkers)
	switch {
	case vendor && authority:
		return ClassOrdinary, fmt.Errorf("key %q matches both vendor and authority markers", key)
	case vendor:
		return ClassVendor, nil
	case authority:
		return ClassAuthority, nil
	default:
		return ClassOrdinary, nil
	}
}

func matchesAny(key string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(key, m) {
			return true
		}
	}
	return false
}
