// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/lanebot/lanebot/lib/clock"
	"github.com/lanebot/lanebot/lib/config"
	"github.com/lanebot/lanebot/lib/release"
	"github.com/lanebot/lanebot/lib/version"
	"github.com/lanebot/lanebot/lib/xproc"
	"github.com/lanebot/lanebot/messaging"
)

func main() {
	if err := run(); err != nil {
		xproc.Fatal(err)
	}
}

func run() error {
	var configPath string
	var showVersion bool
	pflag.StringVar(&configPath, "config", "", "path to the lanebot configuration file")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Println("lanebot-service " + version.Info())
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	path, err := config.Locate(configPath)
	if err != nil {
		return err
	}
	configuration, err := config.Load(path)
	if err != nil {
		return err
	}
	token, err := configuration.ReadToken()
	if err != nil {
		return err
	}

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: configuration.Homeserver,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	session, err := client.SessionFromToken(configuration.UserID, token)
	if err != nil {
		return err
	}

	// Validate the stored token before doing any repository work, so a
	// stale token fails fast with a clear error.
	if _, err := session.WhoAmI(ctx); err != nil {
		return fmt.Errorf("access token validation failed: %w", err)
	}

	roomID, err := session.ResolveAlias(ctx, configuration.Room)
	if err != nil {
		return err
	}
	if _, err := session.JoinRoom(ctx, roomID); err != nil {
		return err
	}

	runner := release.NewRunner(configuration, logger)
	if err := runner.EnsureClones(ctx); err != nil {
		return err
	}

	lanebot := NewService(ServiceConfig{
		Session:       session,
		Runner:        runner,
		RoomID:        roomID,
		SelfID:        configuration.UserID,
		CommandPrefix: configuration.CommandPrefix,
		Logger:        logger,
	})

	watcher, err := messaging.WatchRoom(ctx, session, roomID, &messaging.SyncFilter{
		TimelineTypes: []string{"m.room.message"},
	}, clock.Real(), logger)
	if err != nil {
		return err
	}

	logger.Info("lanebot service running",
		"user_id", configuration.UserID,
		"room", configuration.Room,
		"room_id", roomID,
		"projects", len(configuration.Projects),
	)

	watcher.Run(ctx, lanebot.HandleEvent)

	logger.Info("shutting down, draining in-flight flows")
	lanebot.Wait()
	return nil
}
