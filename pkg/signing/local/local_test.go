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

package local

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/bootsign/bootsign/internal/toolrun"
	"github.com/bootsign/bootsign/pkg/config"
)

type fakeRunner struct {
	commands []toolrun.Command
	err      error
}

func (f *fakeRunner) Run(_ context.Context, cmd toolrun.Command) (toolrun.Result, error) {
	f.commands = append(f.commands, cmd)
	return toolrun.Result{}, f.err
}

func TestSign(t *testing.T) {
	cfg := &config.Config{SBSign: "/usr/bin/sbsign", LocalKeysDir: "/keys"}
	runner := &fakeRunner{}
	s := NewSigner(cfg, runner, nil)

	art, err := s.Sign(context.Background(), "app.efi", "test_key")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if art.Key != "test_key" || art.Path != "app.efi@test_key.tmp" {
		t.Errorf("artifact = %+v", art)
	}

	if len(runner.commands) != 1 {
		t.Fatalf("got %d commands", len(runner.commands))
	}
	cmd := runner.commands[0]
	if cmd.Path != "/usr/bin/sbsign" {
		t.Errorf("tool = %q", cmd.Path)
	}
	want := []string{
		"--key", "/keys/test_key/test_key.key",
		"--cert", "/keys/test_key/test_key.cert",
		"--detached",
		"--output", "app.efi@test_key.tmp",
		"app.efi",
	}
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Errorf("args = %v, want %v", cmd.Args, want)
	}
}

func TestSignToolFailure(t *testing.T) {
	runner := &fakeRunner{err: &toolrun.ExitError{Tool: "sbsign", ExitCode: 1}}
	s := NewSigner(&config.Config{SBSign: "sbsign"}, runner, nil)

	_, err := s.Sign(context.Background(), "app.efi", "test_key")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "test_key") {
		t.Errorf("error should name the key: %v", err)
	}
}
