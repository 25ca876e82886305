// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package release

import (
	"errors"
	"fmt"

	"github.com/lanebot/lanebot/lib/xproc"
)

// Flow identifies which orchestration sequence ran.
type Flow string

const (
	// FlowEnv is the inspect-environment flow: fastlane's description
	// of the project's release environment.
	FlowEnv Flow = "env"

	// FlowDeploy is the deploy flow: fastlane's deploy lane against a
	// named target environment.
	FlowDeploy Flow = "deploy"
)

// Result is the outcome of one successful flow.
type Result struct {
	// Flow is the sequence that ran.
	Flow Flow

	// Project and Branch echo the request, lower-cased project name.
	Project string
	Branch  string

	// Environment is the deploy target. Empty for FlowEnv.
	Environment string

	// Output is the release tool's captured output, verbatim.
	Output string
}

// label names the flow in attachment filenames: "env" for the
// inspect flow, the target environment for deploys.
func label(flow Flow, environment string) string {
	if flow == FlowDeploy {
		return environment
	}
	return "env"
}

// AttachmentName returns the name of the response attachment for a
// successful run of this flow.
func (r *Result) AttachmentName() string {
	return fmt.Sprintf("response-%s.txt", label(r.Flow, r.Environment))
}

// ErrorAttachmentName returns the name of the failure attachment for
// the given flow and deploy environment.
func ErrorAttachmentName(flow Flow, environment string) string {
	return fmt.Sprintf("error-%s.txt", label(flow, environment))
}

// FailureText renders a flow error as the attachment body. For command
// failures the body is the command's own merged output followed by the
// exit summary; for everything else (unknown project, missing tooling,
// rejected environment) it is the error text.
func FailureText(err error) string {
	var exitErr *xproc.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Output == "" {
			return exitErr.Error() + "\n"
		}
		return exitErr.Output + "\n" + exitErr.Error() + "\n"
	}
	return err.Error() + "\n"
}
