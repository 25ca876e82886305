// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/lanebot/lanebot/lib/ref"
	"github.com/lanebot/lanebot/lib/release"
	"github.com/lanebot/lanebot/messaging"
)

// Reaction emoji used to signal flow progress on the triggering event.
const (
	reactionInProgress = "⏳"
	reactionSuccess    = "✅"
	reactionFailure    = "❌"
)

// maxPlainAttachment is the largest tool output uploaded uncompressed.
// Anything bigger is gzipped before upload and the attachment name
// gains a .gz suffix.
const maxPlainAttachment = 256 * 1024

// flowRunner is the subset of *release.Runner the service drives.
// Tests substitute a double that records invocations.
type flowRunner interface {
	InspectEnvironment(ctx context.Context, projectName, branch string) (*release.Result, error)
	Deploy(ctx context.Context, projectName, branch, environment string) (*release.Result, error)
}

// ServiceConfig holds the dependencies for a Service.
type ServiceConfig struct {
	Session       messaging.Session
	Runner        flowRunner
	RoomID        ref.RoomID
	SelfID        ref.UserID
	CommandPrefix string
	Logger        *slog.Logger
}

// Service is the chat-facing half of lanebot: it turns room messages
// into release flows and flow outcomes into room reactions, replies,
// and attachments.
type Service struct {
	session messaging.Session
	runner  flowRunner
	roomID  ref.RoomID
	selfID  ref.UserID
	prefix  string
	logger  *slog.Logger

	// flows tracks in-flight flow goroutines so shutdown can drain
	// them before the process exits.
	flows sync.WaitGroup
}

// NewService creates a Service from its dependencies.
func NewService(config ServiceConfig) *Service {
	return &Service{
		session: config.Session,
		runner:  config.Runner,
		roomID:  config.RoomID,
		selfID:  config.SelfID,
		prefix:  config.CommandPrefix,
		logger:  config.Logger,
	}
}

// Wait blocks until all in-flight flows have finished reporting.
func (s *Service) Wait() {
	s.flows.Wait()
}

// HandleEvent processes one timeline event from the operations room.
// Non-command messages and the bot's own messages are ignored. A
// malformed command gets a threaded error reply; a well-formed one
// starts its flow in a new goroutine so long-running releases never
// block command intake.
func (s *Service) HandleEvent(ctx context.Context, event messaging.Event) {
	if event.Type != "m.room.message" || event.Sender == s.selfID {
		return
	}
	var content messaging.MessageContent
	if err := json.Unmarshal(event.Content, &content); err != nil {
		return
	}
	if content.MsgType != "m.text" {
		return
	}

	command, addressed, err := parseCommand(s.prefix, content.Body)
	if !addressed {
		return
	}
	if err != nil {
		s.reply(ctx, event.EventID, err.Error())
		return
	}

	s.logger.Info("command accepted",
		"flow", command.flow,
		"project", command.project,
		"branch", command.branch,
		"environment", command.environment,
		"sender", event.Sender,
	)

	s.flows.Add(1)
	go func() {
		defer s.flows.Done()
		s.runCommand(ctx, event.EventID, command)
	}()
}

// runCommand executes one flow and reports its outcome. Errors never
// escape: every failure path ends in a failure reaction and an error
// attachment, logged along the way.
func (s *Service) runCommand(ctx context.Context, trigger ref.EventID, command *laneCommand) {
	hourglass, err := s.session.SendReaction(ctx, s.roomID, trigger, reactionInProgress)
	if err != nil {
		s.logger.Error("failed to send in-progress reaction", "error", err)
	}

	var result *release.Result
	var flowErr error
	switch command.flow {
	case release.FlowDeploy:
		result, flowErr = s.runner.Deploy(ctx, command.project, command.branch, command.environment)
	default:
		result, flowErr = s.runner.InspectEnvironment(ctx, command.project, command.branch)
	}

	if !hourglass.IsZero() {
		if err := s.session.RedactEvent(ctx, s.roomID, hourglass, ""); err != nil {
			s.logger.Error("failed to clear in-progress reaction", "error", err)
		}
	}

	if flowErr != nil {
		s.logger.Error("flow failed",
			"flow", command.flow,
			"project", command.project,
			"branch", command.branch,
			"error", flowErr,
		)
		s.postAttachment(ctx, trigger,
			release.ErrorAttachmentName(command.flow, command.environment),
			release.FailureText(flowErr))
		s.reply(ctx, trigger, command.summary("failed"))
		s.react(ctx, trigger, reactionFailure)
		return
	}

	s.logger.Info("flow finished",
		"flow", command.flow,
		"project", command.project,
		"branch", command.branch,
		"output_bytes", len(result.Output),
	)
	s.postAttachment(ctx, trigger, result.AttachmentName(), result.Output)
	s.reply(ctx, trigger, command.summary("finished"))
	s.react(ctx, trigger, reactionSuccess)
}

// postAttachment uploads body to the media repository and posts it as
// an m.file message in the thread rooted at trigger. Output beyond
// maxPlainAttachment is gzipped first.
func (s *Service) postAttachment(ctx context.Context, trigger ref.EventID, name, body string) {
	data := []byte(body)
	contentType := "text/plain"
	if len(data) > maxPlainAttachment {
		compressed, err := gzipBytes(data)
		if err != nil {
			s.logger.Error("failed to compress attachment", "name", name, "error", err)
		} else {
			data = compressed
			name += ".gz"
			contentType = "application/gzip"
		}
	}

	mxcURI, err := s.session.UploadMedia(ctx, contentType, name, bytes.NewReader(data))
	if err != nil {
		s.logger.Error("failed to upload attachment", "name", name, "error", err)
		return
	}

	message := messaging.NewFileMessage(name, mxcURI, contentType, int64(len(data))).InThread(trigger)
	if _, err := s.session.SendMessage(ctx, s.roomID, message); err != nil {
		s.logger.Error("failed to post attachment message", "name", name, "error", err)
	}
}

// reply posts a Markdown-formatted message in the thread rooted at
// trigger.
func (s *Service) reply(ctx context.Context, trigger ref.EventID, markdown string) {
	message := messaging.NewMarkdownThreadReply(trigger, markdown)
	if _, err := s.session.SendMessage(ctx, s.roomID, message); err != nil {
		s.logger.Error("failed to send thread reply", "error", err)
	}
}

// react annotates trigger with an emoji, logging on failure.
func (s *Service) react(ctx context.Context, trigger ref.EventID, key string) {
	if _, err := s.session.SendReaction(ctx, s.roomID, trigger, key); err != nil {
		s.logger.Error("failed to send reaction", "key", key, "error", err)
	}
}

func gzipBytes(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	writer := gzip.NewWriter(&buffer)
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("compressing attachment: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("compressing attachment: %w", err)
	}
	return buffer.Bytes(), nil
}
