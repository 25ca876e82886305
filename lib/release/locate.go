// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package release

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// toolingDirName is the literal directory name fastlane projects carry.
const toolingDirName = "fastlane"

// maxLocateDepth is how many directory levels below the clone root the
// locator searches. Mobile repos keep fastlane either at the root or
// one app directory down (ios/fastlane, android/fastlane).
const maxLocateDepth = 2

// ErrToolingNotFound reports a clone with no fastlane directory within
// the search depth.
var ErrToolingNotFound = errors.New("no fastlane directory found")

// Locate searches up to two directory levels below root for a
// directory literally named "fastlane" and returns the parent of the
// first match in lexical walk order — deterministic regardless of
// filesystem enumeration order. Returns [ErrToolingNotFound] when no
// match exists.
func Locate(root string) (string, error) {
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return "", fmt.Errorf("locating tooling: %s is not a directory", root)
	}

	var match string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path == root {
			return nil
		}

		relative, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		depth := strings.Count(relative, string(filepath.Separator)) + 1

		// Never descend into version-control metadata.
		if entry.Name() == ".git" {
			return filepath.SkipDir
		}

		if entry.Name() == toolingDirName && depth <= maxLocateDepth {
			match = path
			return filepath.SkipAll
		}
		if depth >= maxLocateDepth {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("locating tooling under %s: %w", root, err)
	}
	if match == "" {
		return "", fmt.Errorf("%w under %s (searched %d levels)", ErrToolingNotFound, root, maxLocateDepth)
	}
	return filepath.Dir(match), nil
}
