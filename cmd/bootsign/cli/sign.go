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
	"strings"

	"github.com/bootsign/bootsign/internal/toolrun"
	"github.com/bootsign/bootsign/pkg/config"
	"github.com/bootsign/bootsign/pkg/signing"
	"github.com/bootsign/bootsign/pkg/signing/cache"
	"github.com/bootsign/bootsign/pkg/signing/local"
	"github.com/bootsign/bootsign/pkg/signing/remote"
	"github.com/bootsign/bootsign/pkg/utils"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Sign builds the sign command.
func Sign() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign KEYS INPUT [OUTPUT]",
		Short: "Sign a boot binary with one or more keys.",
		Long: `Sign a boot binary with one or more keys.

KEYS names the signing keys, joined with "+" (e.g. test_key+uefi_ca).
Each key is routed by its name: ordinary keys sign with a local key pair,
vendor keys go through the remote signing service (official builds only),
and authority keys reuse a cached signature issued by the authority.

All produced signatures are attached to a copy of INPUT written to OUTPUT.
OUTPUT defaults to INPUT-KEYS. The input binary is never modified.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			keysArg, input := args[0], args[1]
			output := input + "-" + keysArg
			if len(args) == 3 {
				output = args[2]
			}

			keys := strings.Split(keysArg, "+")
			for _, key := range keys {
				if key == "" {
					return fmt.Errorf("invalid key list %q", keysArg)
				}
			}
			if err := utils.ValidateFileExists("input binary", input); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), ro.Timeout)
			defer cancel()

			logger := ro.NewLogger()
			cfg := config.FromEnv()
			runner := toolrun.NewExecRunner(logger)

			orch := signing.NewOrchestrator(cfg, signing.Backends{
				Local:  local.NewSigner(cfg, runner, logger),
				Remote: remote.NewSigner(cfg, runner, logger),
				Cache:  cache.NewVerifier(cfg, runner, logger),
			}, signing.NewSBAttacher(cfg, runner, logger), logger)

			report, err := orch.Run(ctx, input, output, keys)
			if err != nil {
				return err
			}

			if report.Outcome == signing.RunAbortedByPolicy {
				// Not a failure: developer builds simply do not produce
				// vendor-signed binaries.
				color.Yellow("not signed: %s", report.AbortReason)
				return nil
			}

			for _, kr := range report.Keys {
				switch kr.State {
				case signing.StateSkipped:
					color.Yellow("%s: skipped (%s)", kr.Key, kr.Reason)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", kr.Key, kr.State)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", report.Output)
			return nil
		},
	}
	return cmd
}
