// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package release

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lanebot/lanebot/lib/config"
	"github.com/lanebot/lanebot/lib/testutil"
	"github.com/lanebot/lanebot/lib/xproc"
)

// installStubTools prepends a directory with fake bundle and fastlane
// executables to PATH. The fastlane stub echoes its action, working
// directory, and the environment values the flow is expected to pass;
// it fails with exit 2 when a "fail-marker" file exists in the tooling
// directory. The bundle stub records each run by touching .bundle-ran.
func installStubTools(t *testing.T) {
	t.Helper()
	binDir := t.TempDir()

	fastlane := `#!/bin/sh
if [ -e fail-marker ]; then
	echo "stub fastlane failure output"
	exit 2
fi
echo "stub fastlane $1 in $PWD"
echo "ENV=${ENV:-unset}"
echo "S3_BUCKET=${S3_BUCKET:-unset}"
`
	bundle := `#!/bin/sh
touch .bundle-ran
echo "stub bundle $1"
`
	for name, script := range map[string]string{"fastlane": fastlane, "bundle": bundle} {
		if err := os.WriteFile(filepath.Join(binDir, name), []byte(script), 0755); err != nil {
			t.Fatalf("writing %s stub: %v", name, err)
		}
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	command := exec.Command("git", append([]string{"-C", dir}, args...)...)
	command.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test", "GIT_AUTHOR_EMAIL=test@test.local",
		"GIT_COMMITTER_NAME=Test", "GIT_COMMITTER_EMAIL=test@test.local",
	)
	if output, err := command.CombinedOutput(); err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, output)
	}
}

// initProjectOrigin creates an origin repository holding an
// ios/fastlane tooling directory plus any extra files, committed on
// branch "develop".
func initProjectOrigin(t *testing.T, extraFiles map[string]string) string {
	t.Helper()
	origin := filepath.Join(t.TempDir(), "origin")
	if err := os.MkdirAll(filepath.Join(origin, "ios", "fastlane"), 0755); err != nil {
		t.Fatalf("mkdir origin tree: %v", err)
	}
	files := map[string]string{
		"ios/fastlane/Fastfile": "lane :deploy do\nend\n",
	}
	for path, content := range extraFiles {
		files[path] = content
	}
	for path, content := range files {
		full := filepath.Join(origin, path)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	runGit(t, origin, "init")
	runGit(t, origin, "checkout", "-b", "develop")
	runGit(t, origin, "add", ".")
	runGit(t, origin, "commit", "-m", "initial")
	return origin
}

func testConfig(t *testing.T, origin string) *config.Config {
	t.Helper()
	return &config.Config{
		ReposRoot: filepath.Join(t.TempDir(), "repos"),
		Storage:   config.StorageConfig{Key: "k", Secret: "s", Bucket: "test-bucket", Region: "r"},
		Projects:  map[string]string{"myapp": origin},
	}
}

func TestInspectEnvironmentFlow(t *testing.T) {
	installStubTools(t)
	origin := initProjectOrigin(t, nil)
	runner := NewRunner(testConfig(t, origin), nil)

	result, err := runner.InspectEnvironment(context.Background(), "MyApp", "develop")
	if err != nil {
		t.Fatalf("InspectEnvironment: %v", err)
	}

	if result.Flow != FlowEnv {
		t.Errorf("Flow = %q", result.Flow)
	}
	if result.Project != "myapp" {
		t.Errorf("Project = %q, want lower-cased", result.Project)
	}
	if !strings.Contains(result.Output, "stub fastlane env") {
		t.Errorf("Output = %q, want fastlane env transcript", result.Output)
	}
	if !strings.Contains(result.Output, "S3_BUCKET=test-bucket") {
		t.Errorf("Output = %q, want storage overlay visible to tool", result.Output)
	}
	if !strings.Contains(result.Output, "ENV=unset") {
		t.Errorf("Output = %q, want no deploy ENV during inspect flow", result.Output)
	}
	if result.AttachmentName() != "response-env.txt" {
		t.Errorf("AttachmentName = %q", result.AttachmentName())
	}

	// Dependency install ran in the tooling directory.
	marker := filepath.Join(testConfigRoot(runner), "myapp", "ios", ".bundle-ran")
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("bundle install marker missing: %v", err)
	}
}

// testConfigRoot exposes the runner's repos root for marker checks.
func testConfigRoot(r *Runner) string {
	return r.config.ReposRoot
}

func TestDeployFlowScopesEnvironmentOverlay(t *testing.T) {
	installStubTools(t)
	origin := initProjectOrigin(t, nil)
	runner := NewRunner(testConfig(t, origin), nil)

	if value, found := os.LookupEnv("ENV"); found {
		t.Fatalf("test precondition: ENV already set to %q", value)
	}

	result, err := runner.Deploy(context.Background(), "myapp", "develop", "staging")
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if !strings.Contains(result.Output, "ENV=staging") {
		t.Errorf("Output = %q, want deploy target in child environment", result.Output)
	}
	if result.AttachmentName() != "response-staging.txt" {
		t.Errorf("AttachmentName = %q", result.AttachmentName())
	}

	// The overlay must not leak into the service process. A later
	// inspect flow sees a clean environment (asserted via the stub's
	// ENV=unset line in TestInspectEnvironmentFlow).
	if value, found := os.LookupEnv("ENV"); found {
		t.Errorf("deploy leaked ENV=%q into process environment", value)
	}
}

func TestFlowFailurePropagatesToolOutput(t *testing.T) {
	installStubTools(t)
	origin := initProjectOrigin(t, map[string]string{"ios/fail-marker": ""})
	runner := NewRunner(testConfig(t, origin), nil)

	_, err := runner.InspectEnvironment(context.Background(), "myapp", "develop")
	var exitErr *xproc.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want *xproc.ExitError", err)
	}
	if exitErr.Code != 2 {
		t.Errorf("Code = %d, want 2", exitErr.Code)
	}
	if !strings.Contains(exitErr.Output, "stub fastlane failure output") {
		t.Errorf("Output = %q, want tool's own failure text", exitErr.Output)
	}
	if text := FailureText(err); !strings.Contains(text, "stub fastlane failure output") {
		t.Errorf("FailureText = %q", text)
	}
}

func TestFlowUnknownProject(t *testing.T) {
	installStubTools(t)
	runner := NewRunner(testConfig(t, "unused"), nil)

	_, err := runner.InspectEnvironment(context.Background(), "ghost", "develop")
	var unknown *config.ErrUnknownProject
	if !errors.As(err, &unknown) {
		t.Errorf("err = %v, want *config.ErrUnknownProject", err)
	}
}

func TestFlowToolingNotFound(t *testing.T) {
	installStubTools(t)

	// An origin with no fastlane directory anywhere.
	origin := filepath.Join(t.TempDir(), "origin")
	if err := os.MkdirAll(origin, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(origin, "README"), []byte("no tooling\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	runGit(t, origin, "init")
	runGit(t, origin, "checkout", "-b", "develop")
	runGit(t, origin, "add", ".")
	runGit(t, origin, "commit", "-m", "initial")

	runner := NewRunner(testConfig(t, origin), nil)
	_, err := runner.InspectEnvironment(context.Background(), "myapp", "develop")
	if !errors.Is(err, ErrToolingNotFound) {
		t.Errorf("err = %v, want ErrToolingNotFound", err)
	}
}

func TestDeployRejectsDisallowedEnvironment(t *testing.T) {
	installStubTools(t)
	origin := initProjectOrigin(t, map[string]string{
		ManifestFileName: `{"environments": ["production"]}`,
	})
	runner := NewRunner(testConfig(t, origin), nil)

	if _, err := runner.Deploy(context.Background(), "myapp", "develop", "staging"); err == nil {
		t.Error("expected error for environment outside allowlist")
	}

	// The allowed environment still deploys.
	if _, err := runner.Deploy(context.Background(), "myapp", "develop", "production"); err != nil {
		t.Errorf("Deploy(production): %v", err)
	}
}

func TestManifestSkipInstallAndToolingDir(t *testing.T) {
	installStubTools(t)
	origin := initProjectOrigin(t, map[string]string{
		ManifestFileName: `{
			// fastlane lives under ios; no bundler in this project
			"tooling_dir": "ios",
			"skip_install": true,
		}`,
	})
	runner := NewRunner(testConfig(t, origin), nil)

	result, err := runner.InspectEnvironment(context.Background(), "myapp", "develop")
	if err != nil {
		t.Fatalf("InspectEnvironment: %v", err)
	}
	if !strings.Contains(result.Output, filepath.Join("myapp", "ios")) {
		t.Errorf("Output = %q, want tool run in manifest tooling_dir", result.Output)
	}

	marker := filepath.Join(testConfigRoot(runner), "myapp", "ios", ".bundle-ran")
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("bundle install ran despite skip_install")
	}
}

func TestDeployValidatesEnvironmentName(t *testing.T) {
	runner := NewRunner(testConfig(t, "unused"), nil)
	for _, environment := range []string{"", "pro duction", "a=b", "x/y"} {
		if _, err := runner.Deploy(context.Background(), "myapp", "develop", environment); err == nil {
			t.Errorf("Deploy(environment=%q): expected error", environment)
		}
	}
}

func TestSameProjectFlowsSerialize(t *testing.T) {
	runner := NewRunner(testConfig(t, "unused"), nil)

	unlock := runner.lockProject("myapp")

	acquired := make(chan struct{})
	go func() {
		second := runner.lockProject("myapp")
		close(acquired)
		second()
	}()

	select {
	case <-acquired:
		t.Fatal("second flow acquired the project lock while the first held it")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	testutil.RequireClosed(t, acquired, 5*time.Second, "waiting for second flow to acquire lock")
}
