// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/lanebot/lanebot/cmd/lanebot/cli"
	"github.com/lanebot/lanebot/lib/config"
	"github.com/lanebot/lanebot/messaging"
)

func setupCommand() *cli.Command {
	var configPath string
	var passwordFile string

	return &cli.Command{
		Name:    "setup",
		Summary: "Mint the bot's access token",
		Description: `Log in to the configured homeserver with the bot account's password
and write the resulting access token to the config's token_file. The
service never sees the password — it runs entirely on the stored
token. Run this once when provisioning the bot, and again whenever the
token is revoked.

The password is prompted interactively, or read from --password-file.`,
		Usage: "lanebot setup [flags]",
		Examples: []cli.Example{
			{
				Description: "Provision interactively (prompts for the password)",
				Command:     "lanebot setup --config /etc/lanebot/config.yaml",
			},
			{
				Description: "Provision from a password file",
				Command:     "lanebot setup --password-file /run/secrets/lanebot-password",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("setup", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to the lanebot configuration file")
			flagSet.StringVar(&passwordFile, "password-file", "", "path to a file containing the bot account password (default: prompt)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
			}

			path, err := config.Locate(configPath)
			if err != nil {
				return err
			}
			configuration, err := config.Load(path)
			if err != nil {
				return err
			}

			password, err := readPassword(passwordFile)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			client, err := messaging.NewClient(messaging.ClientConfig{
				HomeserverURL: configuration.Homeserver,
			})
			if err != nil {
				return err
			}

			session, err := client.Login(ctx, configuration.UserID.Localpart(), password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			// Verify the session before persisting the token.
			userID, err := session.WhoAmI(ctx)
			if err != nil {
				return fmt.Errorf("session verification failed: %w", err)
			}
			if userID != configuration.UserID {
				return fmt.Errorf("logged in as %s, but the config expects %s", userID, configuration.UserID)
			}

			// Owner-only: the file holds a live credential.
			if err := os.WriteFile(configuration.TokenFile, []byte(session.AccessToken()+"\n"), 0600); err != nil {
				return fmt.Errorf("writing token file: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Logged in as %s\n", userID)
			fmt.Fprintf(os.Stderr, "Access token written to %s\n", configuration.TokenFile)
			return nil
		},
	}
}

// readPassword reads the bot account password. With no --password-file
// it prompts on the terminal with echo disabled.
func readPassword(passwordFile string) (string, error) {
	if passwordFile != "" {
		data, err := os.ReadFile(passwordFile)
		if err != nil {
			return "", fmt.Errorf("reading password file: %w", err)
		}
		password := strings.TrimRight(string(data), "\r\n")
		if password == "" {
			return "", fmt.Errorf("password file %s is empty", passwordFile)
		}
		return password, nil
	}

	stdinFd := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFd) {
		return "", fmt.Errorf("no terminal available for the password prompt (use --password-file)")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	passwordBytes, err := term.ReadPassword(stdinFd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if len(passwordBytes) == 0 {
		return "", fmt.Errorf("empty password")
	}
	return string(passwordBytes), nil
}
