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

package options

import (
	"github.com/spf13/cobra"
)

// ExtractKeysOptions defines flags for the extract-keys command.
type ExtractKeysOptions struct {
	// KeysFile is the JSON file naming the key groups to extract.
	KeysFile string
	// Output is the generated C source destination; "-" means stdout.
	Output string
	// List makes the command print the certificate paths it would read
	// instead of generating source, for build dependency tracking.
	List bool
}

var _ FlagAdder = (*ExtractKeysOptions)(nil)

// AddFlags adds extract-keys flags to the cobra command.
func (o *ExtractKeysOptions) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.KeysFile, "keys", "",
		"JSON file mapping build labels to key names [required]")
	_ = cmd.MarkFlagRequired("keys")
	_ = cmd.MarkFlagFilename("keys", "json")

	cmd.Flags().StringVarP(&o.Output, "output", "o", "-",
		"destination for the generated C source, or - for stdout")

	cmd.Flags().BoolVar(&o.List, "list", false,
		"print the certificate files that would be read, one per line")
}
