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

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bootsign/bootsign/cmd/bootsign/cli/options"
	"github.com/bootsign/bootsign/internal/toolrun"
	"github.com/bootsign/bootsign/pkg/asn1dump"
	"github.com/bootsign/bootsign/pkg/certkey"
	"github.com/bootsign/bootsign/pkg/certsource"
	"github.com/bootsign/bootsign/pkg/config"
	"github.com/spf13/cobra"
)

// ExtractKeys builds the extract-keys command.
func ExtractKeys() *cobra.Command {
	o := &options.ExtractKeysOptions{}

	cmd := &cobra.Command{
		Use:   "extract-keys [OPTIONS]",
		Short: "Generate C source embedding trusted RSA public-key locations.",
		Long: `Generate C source embedding trusted RSA public-key locations.

Reads the key groups from the --keys JSON file, locates each key's PEM
certificate, extracts the RSA modulus and exponent offsets from the DER
encoding, and writes a C array consumed by the boot-time signature
verification code.

With --list, no parsing happens; the command prints the certificate files
it would read, for build systems to track as dependencies.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(o.KeysFile)
			if err != nil {
				return fmt.Errorf("opening keys file: %w", err)
			}
			groups, err := certsource.LoadKeyGroups(f)
			f.Close()
			if err != nil {
				return err
			}

			logger := ro.NewLogger()
			cfg := config.FromEnv()
			runner := toolrun.NewExecRunner(logger)
			parser := asn1dump.NewParser(cfg, runner, logger)
			locator := certkey.NewLocator(parser, logger)
			gen := certsource.NewGenerator(cfg, locator, logger)

			if o.List {
				return gen.List(groups, cmd.OutOrStdout())
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), ro.Timeout)
			defer cancel()

			var w io.Writer = cmd.OutOrStdout()
			if o.Output != "" && o.Output != "-" {
				out, err := os.Create(o.Output)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer out.Close()
				w = out
			}
			return gen.Generate(ctx, groups, w)
		},
	}

	o.AddFlags(cmd)
	return cmd
}
