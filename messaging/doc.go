// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the subset of the Matrix client-server API
// that lanebot's chat surface needs.
//
// [Client] is an unauthenticated client holding the homeserver URL and
// HTTP transport. It produces authenticated [DirectSession] values via
// password login or a stored access token. [Session] is the interface
// the service and CLI program against; *DirectSession is its only
// production implementation, with test doubles in _test files.
//
// The operations map one-to-one onto the flow's observable effects:
// sending room messages (plain, Markdown-formatted via goldmark, and
// m.file attachments), emoji reactions as m.annotation events,
// redaction of a previously-sent reaction, media upload for attachment
// bodies, and incremental /sync long-polling for command intake.
//
// All API errors are returned as [*MatrixError] with the standard
// Matrix error code (M_FORBIDDEN, M_NOT_FOUND, ...) and HTTP status.
// Request URLs are built by string concatenation rather than url.URL
// to avoid double-encoding of path segments that already contain
// URL-encoded characters.
package messaging
