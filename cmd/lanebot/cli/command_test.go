// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestExecuteDispatchesSubcommand(t *testing.T) {
	var ran []string
	root := &Command{
		Name: "lanebot",
		Subcommands: []*Command{
			{Name: "env", Run: func(args []string) error {
				ran = append(ran, "env")
				return nil
			}},
			{Name: "deploy", Run: func(args []string) error {
				ran = append(ran, "deploy")
				return nil
			}},
		},
	}

	if err := root.Execute([]string{"deploy"}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(ran) != 1 || ran[0] != "deploy" {
		t.Errorf("unexpected dispatch: %v", ran)
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	root := &Command{
		Name:        "lanebot",
		Subcommands: []*Command{{Name: "env", Run: func([]string) error { return nil }}},
	}
	err := root.Execute([]string{"ship"})
	if err == nil || !strings.Contains(err.Error(), `unknown command "ship"`) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExecuteParsesFlags(t *testing.T) {
	var project string
	var got []string
	command := &Command{
		Name: "env",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("env", pflag.ContinueOnError)
			flagSet.StringVar(&project, "project-name", "", "project")
			return flagSet
		},
		Run: func(args []string) error {
			got = args
			return nil
		},
	}

	if err := command.Execute([]string{"--project-name", "myapp", "extra"}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if project != "myapp" {
		t.Errorf("flag not parsed: %q", project)
	}
	if len(got) != 1 || got[0] != "extra" {
		t.Errorf("positional args not forwarded: %v", got)
	}
}

func TestExecuteFlagError(t *testing.T) {
	command := &Command{
		Name: "env",
		Flags: func() *pflag.FlagSet {
			return pflag.NewFlagSet("env", pflag.ContinueOnError)
		},
		Run: func([]string) error { return nil },
	}
	err := command.Execute([]string{"--bogus"})
	if err == nil || !strings.Contains(err.Error(), "unknown flag") {
		t.Errorf("unexpected error: %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "--help") {
		t.Errorf("error should point at --help: %v", err)
	}
}

func TestPrintHelpListsSubcommands(t *testing.T) {
	root := &Command{
		Name:    "lanebot",
		Summary: "release bot",
		Subcommands: []*Command{
			{Name: "env", Summary: "inspect a release environment"},
			{Name: "setup", Summary: "mint an access token"},
		},
	}
	var help strings.Builder
	root.PrintHelp(&help)
	for _, want := range []string{"env", "inspect a release environment", "setup", "lanebot <command>"} {
		if !strings.Contains(help.String(), want) {
			t.Errorf("help missing %q:\n%s", want, help.String())
		}
	}
}
