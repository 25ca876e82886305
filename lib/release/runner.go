// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package release

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lanebot/lanebot/lib/config"
	"github.com/lanebot/lanebot/lib/gitrepo"
	"github.com/lanebot/lanebot/lib/xproc"
)

// Runner executes release flows against the configured project
// registry. Safe for concurrent use: flows for distinct projects run
// in parallel, flows for the same project serialize.
type Runner struct {
	config *config.Config
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRunner returns a Runner over the given configuration. A nil
// logger falls back to slog.Default().
func NewRunner(configuration *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		config: configuration,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// EnsureClones clones every registered project that has no clone under
// the repos root yet. Existing clones are reused, never re-cloned.
// Called once at service activation.
func (r *Runner) EnsureClones(ctx context.Context) error {
	for name, url := range r.config.Projects {
		root, err := r.config.ProjectRoot(name)
		if err != nil {
			return err
		}
		cloned, err := gitrepo.New(root).EnsureClone(ctx, url)
		if err != nil {
			return fmt.Errorf("project %s: %w", name, err)
		}
		if cloned {
			r.logger.Info("cloned project", "project", name, "dir", root)
		}
	}
	return nil
}

// InspectEnvironment runs the inspect-environment flow: synchronize
// the project's clone to branch, install tooling dependencies, and run
// "fastlane env".
func (r *Runner) InspectEnvironment(ctx context.Context, projectName, branch string) (*Result, error) {
	return r.runFlow(ctx, FlowEnv, projectName, branch, "")
}

// Deploy runs the deploy flow: like InspectEnvironment, but the final
// action is "fastlane deploy" and the child processes see the target
// environment as ENV in their environment overlay.
func (r *Runner) Deploy(ctx context.Context, projectName, branch, environment string) (*Result, error) {
	if err := validateEnvironment(environment); err != nil {
		return nil, err
	}
	return r.runFlow(ctx, FlowDeploy, projectName, branch, environment)
}

// runFlow is the linear orchestration shared by both flows. The first
// failing step aborts the rest; the clone may be left mid-synchronized
// and is repaired by the next flow's destructive resync.
func (r *Runner) runFlow(ctx context.Context, flow Flow, projectName, branch, environment string) (*Result, error) {
	projectKey := strings.ToLower(projectName)
	logger := r.logger.With("flow", flow, "project", projectKey, "branch", branch)
	if flow == FlowDeploy {
		logger = logger.With("environment", environment)
	}

	cloneURL, err := r.config.CloneURL(projectKey)
	if err != nil {
		return nil, err
	}
	root, err := r.config.ProjectRoot(projectKey)
	if err != nil {
		return nil, err
	}

	unlock := r.lockProject(projectKey)
	defer unlock()
	started := time.Now()

	repo := gitrepo.New(root)
	if _, err := repo.EnsureClone(ctx, cloneURL); err != nil {
		return nil, err
	}

	logger.Info("synchronizing clone")
	if _, err := repo.SyncBranch(ctx, branch); err != nil {
		return nil, fmt.Errorf("synchronizing %s to %s: %w", projectKey, branch, err)
	}

	manifest, err := LoadManifest(root)
	if err != nil {
		return nil, err
	}
	if flow == FlowDeploy && !manifest.AllowsEnvironment(environment) {
		return nil, fmt.Errorf("environment %q is not in the %s allowlist for %s",
			environment, ManifestFileName, projectKey)
	}

	toolingDir, err := resolveToolingDir(root, manifest)
	if err != nil {
		return nil, err
	}
	logger.Info("located tooling", "dir", toolingDir)

	// Credentials and the deploy target reach the tools as an overlay
	// on the child environment; the lanebot process environment is
	// never touched.
	overlay := r.config.Storage.EnvOverlay()
	if flow == FlowDeploy {
		overlay = append(overlay, "ENV="+environment)
	}

	if manifest == nil || !manifest.SkipInstall {
		logger.Info("installing tooling dependencies")
		if _, err := xproc.Run(ctx, xproc.Command{
			Argv: []string{"bundle", "install"},
			Dir:  toolingDir,
			Env:  overlay,
		}); err != nil {
			return nil, fmt.Errorf("installing dependencies in %s: %w", toolingDir, err)
		}
	}

	logger.Info("running release tool", "action", string(flow))
	output, err := xproc.Run(ctx, xproc.Command{
		Argv: []string{"fastlane", string(flow)},
		Dir:  toolingDir,
		Env:  overlay,
	})
	if err != nil {
		return nil, fmt.Errorf("running fastlane %s: %w", flow, err)
	}

	logger.Info("flow complete", "duration", time.Since(started).Round(time.Millisecond))
	return &Result{
		Flow:        flow,
		Project:     projectKey,
		Branch:      branch,
		Environment: environment,
		Output:      output,
	}, nil
}

// resolveToolingDir returns the fastlane parent directory: the
// manifest override when present, the locator search otherwise.
func resolveToolingDir(root string, manifest *Manifest) (string, error) {
	if manifest != nil && manifest.ToolingDir != "" {
		dir := filepath.Join(root, manifest.ToolingDir)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return "", fmt.Errorf("%s names tooling_dir %q but %s is not a directory",
				ManifestFileName, manifest.ToolingDir, dir)
		}
		return dir, nil
	}
	return Locate(root)
}

// lockProject acquires the per-project mutex, creating it on first
// use, and returns the unlock function.
func (r *Runner) lockProject(projectKey string) func() {
	r.mu.Lock()
	lock, found := r.locks[projectKey]
	if !found {
		lock = &sync.Mutex{}
		r.locks[projectKey] = lock
	}
	r.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// validateEnvironment rejects deploy targets that cannot travel as an
// environment variable value or an attachment filename component.
func validateEnvironment(environment string) error {
	if environment == "" {
		return fmt.Errorf("empty environment name")
	}
	for _, r := range environment {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return fmt.Errorf("environment name %q contains invalid character %q", environment, r)
		}
	}
	return nil
}
