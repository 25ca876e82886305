// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/lanebot/lanebot/lib/ref"
)

// renderer converts Markdown message bodies to the HTML carried in
// formatted_body. GFM gives tables and strikethrough, which release
// summaries use.
var renderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// RenderMarkdown converts a Markdown string to HTML for use as a
// formatted_body. Returns an empty string if rendering fails; the
// plain-text body is always sent regardless.
func RenderMarkdown(markdown string) string {
	var buffer bytes.Buffer
	if err := renderer.Convert([]byte(markdown), &buffer); err != nil {
		return ""
	}
	return strings.TrimSpace(buffer.String())
}

// NewMarkdownMessage creates a message whose body is Markdown source
// and whose formatted_body is the HTML rendering. Clients that support
// formatting show the HTML; others fall back to the raw Markdown.
func NewMarkdownMessage(markdown string) MessageContent {
	content := NewTextMessage(markdown)
	if html := RenderMarkdown(markdown); html != "" {
		content.Format = "org.matrix.custom.html"
		content.FormattedBody = html
	}
	return content
}

// NewMarkdownThreadReply creates a Markdown-formatted reply within the
// thread rooted at threadRootID.
func NewMarkdownThreadReply(threadRootID ref.EventID, markdown string) MessageContent {
	return NewMarkdownMessage(markdown).InThread(threadRootID)
}
