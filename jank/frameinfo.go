// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package jank captures per-frame timestamps and aggregates them into
// jank counters and a frame-time histogram cheap enough to keep running
// in production.
package jank

import "time"

// Slot indexes a timestamp within a FrameInfo. Slots are ordered by when
// they occur in the frame.
type Slot int

const (
	// IntendedVsync is the vsync the frame was scheduled for.
	IntendedVsync Slot = iota
	// Vsync is the vsync the frame actually started on.
	Vsync
	// SyncStart marks the start of syncing recorded display lists.
	SyncStart
	// IssueDrawCommandsStart marks the start of replaying batched ops into
	// the GPU command stream; everything before it is deferral.
	IssueDrawCommandsStart
	// SwapBuffers marks the submission of the frame for presentation.
	SwapBuffers
	// FrameCompleted marks the end of all frame work.
	FrameCompleted

	NumSlots
)

var slotNames = [NumSlots]string{
	"IntendedVsync", "Vsync", "SyncStart", "IssueDrawCommandsStart",
	"SwapBuffers", "FrameCompleted",
}

func (s Slot) String() string {
	if s >= 0 && s < NumSlots {
		return slotNames[s]
	}
	return "Unknown"
}

// FrameInfo is one frame's timestamps, in nanoseconds on a monotonic
// clock. A skipped frame (nothing to draw, or the frame was dropped
// entirely) is excluded from jank accounting.
type FrameInfo struct {
	timestamps [NumSlots]int64
	skipped    bool
}

func (fi *FrameInfo) Set(s Slot, nanos int64) { fi.timestamps[s] = nanos }

// MarkTime stamps the slot with the current monotonic time.
func (fi *FrameInfo) MarkTime(s Slot, now time.Time) {
	fi.timestamps[s] = now.UnixNano()
}

func (fi *FrameInfo) Get(s Slot) int64 { return fi.timestamps[s] }

// Duration returns the elapsed time between two slots.
func (fi *FrameInfo) Duration(from, to Slot) time.Duration {
	return time.Duration(fi.timestamps[to] - fi.timestamps[from])
}

// TotalDuration is the frame's full cost, from the vsync it was scheduled
// for until completion.
func (fi *FrameInfo) TotalDuration() time.Duration {
	return fi.Duration(IntendedVsync, FrameCompleted)
}

func (fi *FrameInfo) MarkSkipped()  { fi.skipped = true }
func (fi *FrameInfo) Skipped() bool { return fi.skipped }
