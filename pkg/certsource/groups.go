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

// Package certsource generates the C source file embedding trusted RSA
// public-key locations, from a keys file naming which certificates to
// extract. The output is consumed by the boot-time verification code.
package certsource

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// KeyGroups maps a build-configuration label (e.g. "test", "official") to
// the key names extracted under it. A non-empty label guards its records
// with an #if defined(label) block in the generated source.
type KeyGroups map[string][]string

// LoadKeyGroups reads a JSON keys file of the form
//
//	{"test": ["key1", "key2"], "official": ["key3"]}
func LoadKeyGroups(r io.Reader) (KeyGroups, error) {
	var groups KeyGroups
	dec := json.NewDecoder(r)
	if err := dec.Decode(&groups); err != nil {
		return nil, fmt.Errorf("decoding keys file: %w", err)
	}
	return groups, nil
}

// SortedLabels returns the group labels in reverse-lexicographic order, so
// "test" records come before "official" ones in the generated array.
func (g KeyGroups) SortedLabels() []string {
	labels := make([]string, 0, len(g))
	for label := range g {
		labels = append(labels, label)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(labels)))
	return labels
}
