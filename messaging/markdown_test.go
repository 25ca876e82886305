// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"strings"
	"testing"

	"github.com/lanebot/lanebot/lib/ref"
)

func TestRenderMarkdown(t *testing.T) {
	html := RenderMarkdown("deployed **beta** for `myapp`")
	if !strings.Contains(html, "<strong>beta</strong>") {
		t.Errorf("expected bold rendering, got %q", html)
	}
	if !strings.Contains(html, "<code>myapp</code>") {
		t.Errorf("expected code rendering, got %q", html)
	}
}

func TestNewMarkdownMessage(t *testing.T) {
	content := NewMarkdownMessage("**done**")
	if content.MsgType != "m.text" {
		t.Errorf("unexpected msgtype: %s", content.MsgType)
	}
	if content.Body != "**done**" {
		t.Errorf("plain body should carry the raw markdown, got %q", content.Body)
	}
	if content.Format != "org.matrix.custom.html" {
		t.Errorf("unexpected format: %s", content.Format)
	}
	if !strings.Contains(content.FormattedBody, "<strong>done</strong>") {
		t.Errorf("unexpected formatted body: %q", content.FormattedBody)
	}
}

func TestNewMarkdownThreadReply(t *testing.T) {
	root := ref.MustParseEventID("$root:local")
	content := NewMarkdownThreadReply(root, "done")
	if content.RelatesTo == nil || content.RelatesTo.RelType != "m.thread" {
		t.Fatal("expected thread relation")
	}
	if content.RelatesTo.EventID != root {
		t.Errorf("unexpected thread root: %s", content.RelatesTo.EventID)
	}
}
