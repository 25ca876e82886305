// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

// Lanebot operator CLI. Runs release flows directly, without the chat
// round-trip, and handles one-time setup tasks like minting the bot's
// access token.
package main

import (
	"fmt"
	"os"

	"github.com/lanebot/lanebot/cmd/lanebot/cli"
	"github.com/lanebot/lanebot/lib/version"
	"github.com/lanebot/lanebot/lib/xproc"
)

func main() {
	root := &cli.Command{
		Name:    "lanebot",
		Summary: "Chat-driven mobile release runner",
		Description: `Lanebot runs fastlane release flows against locally-synchronized
project clones. The service binary (lanebot-service) drives the same
flows from a Matrix room; this CLI runs them directly for debugging
release configuration, and handles operator setup.`,
		Subcommands: []*cli.Command{
			envCommand(),
			deployCommand(),
			projectsCommand(),
			setupCommand(),
			versionCommand(),
		},
	}

	if err := root.Execute(os.Args[1:]); err != nil {
		xproc.Fatal(err)
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func([]string) error {
			fmt.Println("lanebot " + version.Info())
			return nil
		},
	}
}
