// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lanebot/lanebot/lib/clock"
	"github.com/lanebot/lanebot/lib/ref"
)

// SyncFilter configures what events a RoomWatcher receives from /sync.
// The watched room is always included automatically — callers never
// need to specify the room ID in the filter.
type SyncFilter struct {
	// TimelineTypes restricts timeline events to these Matrix event
	// types (e.g., "m.room.message"). An empty slice means all
	// timeline types.
	TimelineTypes []string

	// TimelineLimit caps the number of timeline events per /sync
	// response. Zero means no explicit limit (server default).
	TimelineLimit int
}

// buildInlineFilter constructs the inline JSON filter string for /sync.
// The filter always scopes to the given room, suppresses state,
// presence, and account data, and merges in any timeline restrictions
// from the SyncFilter.
func buildInlineFilter(roomID ref.RoomID, filter *SyncFilter) string {
	roomFilter := map[string]any{
		"rooms": []string{roomID.String()},
		"state": map[string]any{"types": []string{}},
	}

	if filter != nil {
		timeline := map[string]any{}
		if len(filter.TimelineTypes) > 0 {
			timeline["types"] = filter.TimelineTypes
		}
		if filter.TimelineLimit > 0 {
			timeline["limit"] = filter.TimelineLimit
		}
		if len(timeline) > 0 {
			roomFilter["timeline"] = timeline
		}
	}

	top := map[string]any{
		"room":         roomFilter,
		"presence":     map[string]any{"types": []string{}},
		"account_data": map[string]any{"types": []string{}},
	}

	data, _ := json.Marshal(top)
	return string(data)
}

// longPollTimeout is the server-side long-poll hold time in
// milliseconds. The server holds the connection for up to this
// duration, returning immediately when new events arrive. 30 seconds
// matches the Matrix client-server spec recommendation.
const longPollTimeout = 30000

// maxSyncBackoff caps the retry delay after consecutive /sync errors.
const maxSyncBackoff = 30 * time.Second

// RoomWatcher follows the Matrix /sync stream for a single room and
// delivers its new timeline events to a handler. Create one with
// WatchRoom, which anchors the stream at the current position: only
// events arriving after that call are delivered, so the watcher never
// replays room history on startup.
//
// RoomWatcher is not safe for concurrent use by multiple goroutines.
// Each watcher maintains its own sync position on the same Session;
// this works because Session.Sync is stateless — the since token
// travels as a query parameter, not server-side session state.
type RoomWatcher struct {
	session   Session
	roomID    ref.RoomID
	filter    string
	nextBatch string
	clock     clock.Clock
	logger    *slog.Logger
}

// WatchRoom captures the current position in the Matrix /sync stream.
// The returned RoomWatcher only sees events arriving after this call.
//
// This performs an immediate /sync (timeout=0) to obtain the current
// next_batch token without blocking. The token anchors all subsequent
// long-poll calls.
func WatchRoom(ctx context.Context, session Session, roomID ref.RoomID, filter *SyncFilter, clk clock.Clock, logger *slog.Logger) (*RoomWatcher, error) {
	if roomID.IsZero() {
		return nil, fmt.Errorf("messaging: WatchRoom requires a non-zero room ID")
	}
	inlineFilter := buildInlineFilter(roomID, filter)
	response, err := session.Sync(ctx, SyncOptions{
		SetTimeout: true,
		Timeout:    0,
		Filter:     inlineFilter,
	})
	if err != nil {
		return nil, fmt.Errorf("messaging: initial sync for room watch: %w", err)
	}
	return &RoomWatcher{
		session:   session,
		roomID:    roomID,
		filter:    inlineFilter,
		nextBatch: response.NextBatch,
		clock:     clk,
		logger:    logger,
	}, nil
}

// Run long-polls /sync and delivers each new timeline event in the
// watched room to handler, in server order. Blocks until ctx is
// cancelled. Transient /sync errors are retried with exponential
// backoff (1s doubling to 30s); the backoff resets after any
// successful sync. TCP-level errors often indicate a poisoned
// connection in Go's HTTP pool, so idle connections are dropped before
// each retry.
func (w *RoomWatcher) Run(ctx context.Context, handler func(ctx context.Context, event Event)) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		response, err := w.session.Sync(ctx, SyncOptions{
			Since:      w.nextBatch,
			SetTimeout: true,
			Timeout:    longPollTimeout,
			Filter:     w.filter,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("sync failed, retrying",
				"room_id", w.roomID,
				"backoff", backoff,
				"error", err,
			)
			if closer, ok := w.session.(interface{ CloseIdleConnections() }); ok {
				closer.CloseIdleConnections()
			}
			select {
			case <-ctx.Done():
				return
			case <-w.clock.After(backoff):
			}
			backoff *= 2
			if backoff > maxSyncBackoff {
				backoff = maxSyncBackoff
			}
			continue
		}

		backoff = time.Second
		w.nextBatch = response.NextBatch

		joined, ok := response.Rooms.Join[w.roomID.String()]
		if !ok {
			// The server returned before the long-poll expired but
			// with no data for the watched room. Nothing to deliver.
			continue
		}
		for _, event := range joined.Timeline.Events {
			handler(ctx, event)
		}
	}
}

// SyncPosition returns the current sync stream position token.
func (w *RoomWatcher) SyncPosition() string {
	return w.nextBatch
}

// RoomID returns the room being watched.
func (w *RoomWatcher) RoomID() ref.RoomID {
	return w.roomID
}
