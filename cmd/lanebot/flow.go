// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/lanebot/lanebot/cmd/lanebot/cli"
	"github.com/lanebot/lanebot/lib/config"
	"github.com/lanebot/lanebot/lib/release"
)

// flowParams holds the flags shared by the env and deploy commands.
type flowParams struct {
	configPath  string
	project     string
	branch      string
	environment string
	verbose     bool
}

func (p *flowParams) flagSet(name string, withEnvironment bool) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVar(&p.configPath, "config", "", "path to the lanebot configuration file")
	flagSet.StringVar(&p.project, "project-name", "", "project to operate on")
	flagSet.StringVar(&p.branch, "branch-name", "", "branch to check out")
	if withEnvironment {
		flagSet.StringVar(&p.environment, "environment", "", "deploy target environment")
	}
	flagSet.BoolVarP(&p.verbose, "verbose", "v", false, "enable debug logging")
	return flagSet
}

func (p *flowParams) validate(args []string, withEnvironment bool) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
	}
	if p.project == "" {
		return fmt.Errorf("--project-name is required")
	}
	if p.branch == "" {
		return fmt.Errorf("--branch-name is required")
	}
	if withEnvironment && p.environment == "" {
		return fmt.Errorf("--environment is required")
	}
	return nil
}

// newRunner builds a release runner from the located configuration.
func (p *flowParams) newRunner() (*release.Runner, error) {
	path, err := config.Locate(p.configPath)
	if err != nil {
		return nil, err
	}
	configuration, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if p.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return release.NewRunner(configuration, logger), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func envCommand() *cli.Command {
	var params flowParams

	return &cli.Command{
		Name:    "env",
		Summary: "Inspect a project's release environment",
		Description: `Synchronize the project clone to the given branch and run the
fastlane env lane, printing its output. This is the same flow the
service runs for "!lane env" room commands.`,
		Usage: "lanebot env --project-name <name> --branch-name <branch> [flags]",
		Examples: []cli.Example{
			{
				Description: "Inspect myapp's release environment on develop",
				Command:     "lanebot env --project-name myapp --branch-name develop",
			},
		},
		Flags: func() *pflag.FlagSet { return params.flagSet("env", false) },
		Run: func(args []string) error {
			if err := params.validate(args, false); err != nil {
				return err
			}
			runner, err := params.newRunner()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			result, err := runner.InspectEnvironment(ctx, params.project, params.branch)
			if err != nil {
				return err
			}
			fmt.Print(result.Output)
			return nil
		},
	}
}

func deployCommand() *cli.Command {
	var params flowParams

	return &cli.Command{
		Name:    "deploy",
		Summary: "Deploy a project to a target environment",
		Description: `Synchronize the project clone to the given branch and run the
fastlane deploy lane against the target environment. This is the same
flow the service runs for "!lane deploy" room commands.`,
		Usage: "lanebot deploy --project-name <name> --branch-name <branch> --environment <env> [flags]",
		Examples: []cli.Example{
			{
				Description: "Deploy myapp's develop branch to beta",
				Command:     "lanebot deploy --project-name myapp --branch-name develop --environment beta",
			},
		},
		Flags: func() *pflag.FlagSet { return params.flagSet("deploy", true) },
		Run: func(args []string) error {
			if err := params.validate(args, true); err != nil {
				return err
			}
			runner, err := params.newRunner()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			result, err := runner.Deploy(ctx, params.project, params.branch, params.environment)
			if err != nil {
				return err
			}
			fmt.Print(result.Output)
			return nil
		},
	}
}
