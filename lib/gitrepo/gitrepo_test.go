// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package gitrepo

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lanebot/lanebot/lib/xproc"
)

// gitIdentity supplies author/committer identity so test commits work
// in environments with no git config.
var gitIdentity = []string{
	"GIT_AUTHOR_NAME=Test",
	"GIT_AUTHOR_EMAIL=test@test.local",
	"GIT_COMMITTER_NAME=Test",
	"GIT_COMMITTER_EMAIL=test@test.local",
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	command := exec.Command("git", append([]string{"-C", dir}, args...)...)
	command.Env = append(os.Environ(), gitIdentity...)
	output, err := command.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, output)
	}
	return strings.TrimSpace(string(output))
}

// initOrigin creates a repository with one commit on branch "develop"
// and returns its path. It serves as the fetch remote for the tests.
func initOrigin(t *testing.T) string {
	t.Helper()
	origin := filepath.Join(t.TempDir(), "origin")
	if err := os.MkdirAll(origin, 0755); err != nil {
		t.Fatalf("mkdir origin: %v", err)
	}
	runGit(t, origin, "init")
	runGit(t, origin, "checkout", "-b", "develop")
	writeFile(t, filepath.Join(origin, "README"), "origin\n")
	runGit(t, origin, "add", "README")
	runGit(t, origin, "commit", "-m", "initial")
	return origin
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestEnsureCloneIsIdempotent(t *testing.T) {
	origin := initOrigin(t)
	repo := New(filepath.Join(t.TempDir(), "repos", "myapp"))

	cloned, err := repo.EnsureClone(context.Background(), origin)
	if err != nil {
		t.Fatalf("EnsureClone: %v", err)
	}
	if !cloned {
		t.Error("first EnsureClone reported no clone performed")
	}
	if !repo.Exists() {
		t.Fatal("clone directory missing")
	}

	// Second call reuses the existing clone.
	cloned, err = repo.EnsureClone(context.Background(), origin)
	if err != nil {
		t.Fatalf("second EnsureClone: %v", err)
	}
	if cloned {
		t.Error("second EnsureClone re-cloned an existing directory")
	}
}

func TestSyncBranchMatchesRemoteTip(t *testing.T) {
	origin := initOrigin(t)
	repo := New(filepath.Join(t.TempDir(), "repos", "myapp"))
	if _, err := repo.EnsureClone(context.Background(), origin); err != nil {
		t.Fatalf("EnsureClone: %v", err)
	}

	// Advance the remote.
	writeFile(t, filepath.Join(origin, "CHANGES"), "more\n")
	runGit(t, origin, "add", "CHANGES")
	runGit(t, origin, "commit", "-m", "second")
	remoteTip := runGit(t, origin, "rev-parse", "develop")

	if _, err := repo.SyncBranch(context.Background(), "develop"); err != nil {
		t.Fatalf("SyncBranch: %v", err)
	}
	if localTip := runGit(t, repo.Dir(), "rev-parse", "HEAD"); localTip != remoteTip {
		t.Errorf("local tip %s, want remote tip %s", localTip, remoteTip)
	}

	// Idempotent: a second sync with no remote change lands on the
	// same tip.
	if _, err := repo.SyncBranch(context.Background(), "develop"); err != nil {
		t.Fatalf("second SyncBranch: %v", err)
	}
	if localTip := runGit(t, repo.Dir(), "rev-parse", "HEAD"); localTip != remoteTip {
		t.Errorf("tip moved on idempotent resync: %s", localTip)
	}
}

func TestSyncBranchDiscardsLocalDivergence(t *testing.T) {
	origin := initOrigin(t)
	repo := New(filepath.Join(t.TempDir(), "repos", "myapp"))
	if _, err := repo.EnsureClone(context.Background(), origin); err != nil {
		t.Fatalf("EnsureClone: %v", err)
	}

	// Diverge locally.
	writeFile(t, filepath.Join(repo.Dir(), "LOCAL"), "divergent\n")
	runGit(t, repo.Dir(), "add", "LOCAL")
	runGit(t, repo.Dir(), "commit", "-m", "local divergence")
	remoteTip := runGit(t, origin, "rev-parse", "develop")

	if _, err := repo.SyncBranch(context.Background(), "develop"); err != nil {
		t.Fatalf("SyncBranch: %v", err)
	}
	if localTip := runGit(t, repo.Dir(), "rev-parse", "HEAD"); localTip != remoteTip {
		t.Errorf("divergence survived: local %s, remote %s", localTip, remoteTip)
	}
}

func TestSyncBranchUnknownBranch(t *testing.T) {
	origin := initOrigin(t)
	repo := New(filepath.Join(t.TempDir(), "repos", "myapp"))
	if _, err := repo.EnsureClone(context.Background(), origin); err != nil {
		t.Fatalf("EnsureClone: %v", err)
	}

	_, err := repo.SyncBranch(context.Background(), "no-such-branch")
	var exitErr *xproc.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want *xproc.ExitError", err)
	}
}

func TestSyncBranchRejectsFlagLikeNames(t *testing.T) {
	repo := New(t.TempDir())
	for _, branch := range []string{"", "-f", "--delete"} {
		if _, err := repo.SyncBranch(context.Background(), branch); err == nil {
			t.Errorf("SyncBranch(%q): expected error", branch)
		}
	}
}
