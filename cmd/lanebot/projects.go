// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/lanebot/lanebot/cmd/lanebot/cli"
	"github.com/lanebot/lanebot/lib/config"
)

func projectsCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "projects",
		Summary: "List configured projects",
		Usage:   "lanebot projects [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("projects", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to the lanebot configuration file")
			return flagSet
		},
		Run: func(args []string) error {
			path, err := config.Locate(configPath)
			if err != nil {
				return err
			}
			configuration, err := config.Load(path)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(configuration.Projects))
			for name := range configuration.Projects {
				names = append(names, name)
			}
			sort.Strings(names)

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(writer, "PROJECT\tCLONE URL")
			for _, name := range names {
				fmt.Fprintf(writer, "%s\t%s\n", name, configuration.Projects[name])
			}
			return writer.Flush()
		},
	}
}
