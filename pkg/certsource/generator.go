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
	"context"
	"fmt"
	"io"

	"github.com/bootsign/bootsign/pkg/certkey"
	"github.com/bootsign/bootsign/pkg/config"
	"github.com/bootsign/bootsign/pkg/logging"
	"github.com/bootsign/bootsign/pkg/tracing"
)

// KeyLocator is the certificate key locating operation the generator
// depends on. Satisfied by *certkey.Locator.
type KeyLocator interface {
	Locate(ctx context.Context, der []byte, keyName string) (*certkey.KeyInfo, error)
}

// Generator drives the extract-keys pipeline: resolve each key's PEM
// certificate, locate its RSA key material, and emit the records.
type Generator struct {
	cfg     *config.Config
	locator KeyLocator
	logger  logging.Logger

	// loadCert is swappable in tests; defaults to certkey.LoadCertificatePEM.
	loadCert func(path string) ([]byte, error)
}

// NewGenerator creates a Generator.
func NewGenerator(cfg *config.Config, locator KeyLocator, logger logging.Logger) *Generator {
	return &Generator{
		cfg:      cfg,
		locator:  locator,
		logger:   logging.EnsureLogger(logger),
		loadCert: certkey.LoadCertificatePEM,
	}
}

// Generate writes the complete C source for the given key groups to w.
// Groups are emitted in reverse-lexicographic label order; a failure on any
// single key aborts generation.
func (g *Generator) Generate(ctx context.Context, groups KeyGroups, w io.Writer) error {
	return tracing.Run(ctx, "certsource.generate", nil, func(ctx context.Context) error {
		if err := WriteHeader(w); err != nil {
			return err
		}
		for _, label := range groups.SortedLabels() {
			if err := WriteGroupBegin(w, label); err != nil {
				return err
			}
			for _, key := range groups[label] {
				if err := g.generateKey(ctx, key, w); err != nil {
					return err
				}
			}
			if err := WriteGroupEnd(w, label); err != nil {
				return err
			}
		}
		return WriteFooter(w)
	})
}

func (g *Generator) generateKey(ctx context.Context, key string, w io.Writer) error {
	path := g.cfg.CertPath(key)
	g.logger.Debug("extracting key %s from %s", key, path)

	der, err := g.loadCert(path)
	if err != nil {
		return fmt.Errorf("key %s: %w", key, err)
	}
	info, err := g.locator.Locate(ctx, der, key)
	if err != nil {
		return fmt.Errorf("key %s: %w", key, err)
	}
	return WriteRecord(w, info)
}

// List prints the resolved certificate path for every key, one per line,
// without parsing anything. Used by build systems to compute dependencies.
func (g *Generator) List(groups KeyGroups, w io.Writer) error {
	for _, label := range groups.SortedLabels() {
		for _, key := range groups[label] {
			if _, err := fmt.Fprintln(w, g.cfg.CertPath(key)); err != nil {
				return err
			}
		}
	}
	return nil
}
