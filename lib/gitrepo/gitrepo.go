// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package gitrepo provides typed access to the git CLI for the clone
// directories lanebot manages. All commands target a specific
// repository directory via the -C flag, which is injected by all
// Repository methods — callers never name the directory twice.
//
// The synchronization model is deliberately destructive: SyncBranch
// force-resets the local branch to the remote tip, discarding any
// local divergence, so every flow starts from a known-clean state
// matching the remote. Uncommitted state in a managed clone is not
// something lanebot preserves.
package gitrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lanebot/lanebot/lib/xproc"
)

// Repository represents a git working tree at a specific directory.
type Repository struct {
	dir string
}

// New returns a Repository targeting the given directory. The
// directory need not exist yet — EnsureClone creates it.
func New(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the repository directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Exists reports whether the repository directory is present on disk.
func (r *Repository) Exists() bool {
	info, err := os.Stat(r.dir)
	return err == nil && info.IsDir()
}

// EnsureClone clones url into the repository directory if it does not
// exist yet. An existing directory is reused as-is, never re-cloned.
// Returns true when a clone was performed.
func (r *Repository) EnsureClone(ctx context.Context, url string) (bool, error) {
	if r.Exists() {
		return false, nil
	}

	parent := filepath.Dir(r.dir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return false, fmt.Errorf("creating repos root %s: %w", parent, err)
	}

	_, err := xproc.Run(ctx, xproc.Command{
		Argv: []string{"git", "clone", url, filepath.Base(r.dir)},
		Dir:  parent,
	})
	if err != nil {
		return false, fmt.Errorf("cloning %s: %w", url, err)
	}
	return true, nil
}

// SyncBranch brings the working tree to exactly match the tip of the
// named branch on origin: fetch all remote refs (pruning deleted
// ones), then force-create/reset a local branch of the same name
// tracking the remote one. Local divergence is discarded. Returns the
// combined transcript of both git commands.
func (r *Repository) SyncBranch(ctx context.Context, branch string) (string, error) {
	if err := validateBranchName(branch); err != nil {
		return "", err
	}

	var transcript strings.Builder
	steps := [][]string{
		{"fetch", "-p"},
		{"checkout", "-B", branch, "origin/" + branch, "-f"},
	}
	for _, step := range steps {
		output, err := r.run(ctx, step...)
		transcript.WriteString(output)
		if err != nil {
			return transcript.String(), err
		}
	}
	return transcript.String(), nil
}

// run executes a git command targeting this repository and returns the
// merged stdout+stderr output. Merged capture matters for git in
// particular: progress lines ("Fetching origin", branch tracking
// notices) go to stderr.
func (r *Repository) run(ctx context.Context, args ...string) (string, error) {
	argv := append([]string{"git", "-C", r.dir}, args...)
	return xproc.Run(ctx, xproc.Command{Argv: argv})
}

// validateBranchName rejects branch names that git would parse as
// flags or that cannot name a remote ref.
func validateBranchName(branch string) error {
	if branch == "" {
		return fmt.Errorf("empty branch name")
	}
	if strings.HasPrefix(branch, "-") {
		return fmt.Errorf("branch name %q must not start with '-'", branch)
	}
	return nil
}
