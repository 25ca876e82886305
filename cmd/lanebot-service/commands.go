// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/lanebot/lanebot/lib/release"
)

// laneCommand is a parsed room command.
type laneCommand struct {
	flow        release.Flow
	project     string
	branch      string
	environment string
}

// summary renders the Markdown thread reply for a flow outcome.
func (c *laneCommand) summary(outcome string) string {
	if c.flow == release.FlowDeploy {
		return fmt.Sprintf("**deploy** to `%s` for `%s` on `%s` %s.",
			c.environment, c.project, c.branch, outcome)
	}
	return fmt.Sprintf("**env** for `%s` on `%s` %s.", c.project, c.branch, outcome)
}

// parseCommand parses a room message body. The second return value
// reports whether the message was addressed to the bot at all:
// messages not starting with the command prefix are silently ignored,
// while addressed-but-malformed messages produce an error the service
// echoes back as a thread reply.
func parseCommand(prefix, body string) (*laneCommand, bool, error) {
	fields := strings.Fields(body)
	if len(fields) == 0 || fields[0] != prefix {
		return nil, false, nil
	}
	if len(fields) == 1 {
		return nil, true, usageError(prefix, "missing subcommand")
	}

	subcommand := fields[1]
	arguments := fields[2:]

	switch subcommand {
	case "env":
		command, err := parseFlags(release.FlowEnv, arguments)
		if err != nil {
			return nil, true, usageError(prefix, err.Error())
		}
		return command, true, nil
	case "deploy":
		command, err := parseFlags(release.FlowDeploy, arguments)
		if err != nil {
			return nil, true, usageError(prefix, err.Error())
		}
		return command, true, nil
	default:
		return nil, true, usageError(prefix, fmt.Sprintf("unknown subcommand %q", subcommand))
	}
}

// parseFlags parses the flag arguments of an env or deploy command.
func parseFlags(flow release.Flow, arguments []string) (*laneCommand, error) {
	flagSet := pflag.NewFlagSet(string(flow), pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	command := &laneCommand{flow: flow}
	flagSet.StringVar(&command.project, "project-name", "", "project to operate on")
	flagSet.StringVar(&command.branch, "branch-name", "", "branch to check out")
	if flow == release.FlowDeploy {
		flagSet.StringVar(&command.environment, "environment", "", "deploy target environment")
	}

	if err := flagSet.Parse(arguments); err != nil {
		return nil, err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(extra, " "))
	}
	if command.project == "" {
		return nil, fmt.Errorf("--project-name is required")
	}
	if command.branch == "" {
		return nil, fmt.Errorf("--branch-name is required")
	}
	if flow == release.FlowDeploy && command.environment == "" {
		return nil, fmt.Errorf("--environment is required")
	}
	return command, nil
}

// usageError wraps a parse failure with the full command usage so the
// thread reply teaches the correct spelling.
func usageError(prefix, reason string) error {
	return fmt.Errorf("%s\n\nUsage:\n`%s env --project-name <name> --branch-name <branch>`\n`%s deploy --project-name <name> --branch-name <branch> --environment <env>`",
		reason, prefix, prefix)
}
