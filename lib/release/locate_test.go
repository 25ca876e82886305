// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package release

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
}

func TestLocateAtRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mkdirs(t, root, "fastlane")

	parent, err := Locate(root)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if parent != root {
		t.Errorf("parent = %q, want root %q", parent, root)
	}
}

func TestLocateOneLevelDown(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mkdirs(t, root, "ios/fastlane", "docs")

	parent, err := Locate(root)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if parent != filepath.Join(root, "ios") {
		t.Errorf("parent = %q, want %q", parent, filepath.Join(root, "ios"))
	}
}

func TestLocateMultipleMatchesLexicalFirst(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mkdirs(t, root, "ios/fastlane", "android/fastlane")

	parent, err := Locate(root)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if parent != filepath.Join(root, "android") {
		t.Errorf("parent = %q, want lexically first match parent", parent)
	}
}

func TestLocateNoMatch(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mkdirs(t, root, "src", "docs")

	_, err := Locate(root)
	if !errors.Is(err, ErrToolingNotFound) {
		t.Errorf("err = %v, want ErrToolingNotFound", err)
	}
}

func TestLocateIgnoresBeyondDepthLimit(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mkdirs(t, root, "a/b/fastlane")

	_, err := Locate(root)
	if !errors.Is(err, ErrToolingNotFound) {
		t.Errorf("err = %v, want ErrToolingNotFound for depth-3 match", err)
	}
}

func TestLocateSkipsGitMetadata(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mkdirs(t, root, ".git/fastlane")

	_, err := Locate(root)
	if !errors.Is(err, ErrToolingNotFound) {
		t.Errorf("err = %v, want .git contents ignored", err)
	}
}

func TestLocateMissingRoot(t *testing.T) {
	t.Parallel()

	if _, err := Locate(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("expected error for missing root")
	}
}
