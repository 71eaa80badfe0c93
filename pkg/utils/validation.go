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

// Package utils provides small shared helpers for input validation.
package utils

import (
	"fmt"
	"os"
)

// ValidateFileExists checks that path is a non-empty path to an existing
// regular file. fieldName is used in error messages.
func ValidateFileExists(fieldName, path string) error {
	if path == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s %q does not exist", fieldName, path)
		}
		return fmt.Errorf("checking %s %q: %w", fieldName, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s %q is a directory, expected file", fieldName, path)
	}
	return nil
}

// ValidateFolderExists checks that path is a non-empty path to an existing
// directory.
func ValidateFolderExists(fieldName, path string) error {
	if path == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s %q does not exist", fieldName, path)
		}
		return fmt.Errorf("checking %s %q: %w", fieldName, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s %q is a file, expected directory", fieldName, path)
	}
	return nil
}

// ValidateOptionalFile validates a file path only if it is not empty.
func ValidateOptionalFile(fieldName, path string) error {
	if path == "" {
		return nil
	}
	return ValidateFileExists(fieldName, path)
}
