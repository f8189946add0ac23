// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package jank

import (
	"fmt"
	"io"
	"time"

	"honnef.co/go/safeish"
)

// Type classifies why a frame missed its deadline. A single frame can
// count against several types.
type Type int

const (
	// TypeMissedVsync: the frame started at least one vsync late.
	TypeMissedVsync Type = iota
	// TypeSlowDefer: syncing and deferring the tree ran long.
	TypeSlowDefer
	// TypeSlowIssue: replaying batches into GPU commands ran long.
	TypeSlowIssue
	// TypeSlowSwap: presenting the finished frame ran long.
	TypeSlowSwap

	NumTypes
)

var typeNames = [NumTypes]string{
	"Missed vsync", "Slow defer", "Slow issue", "Slow swap",
}

func (t Type) String() string {
	if t >= 0 && t < NumTypes {
		return typeNames[t]
	}
	return "Unknown"
}

// Frame-time histogram layout. Finer where frames actually land, coarser
// out to a two second tail that absorbs pathological frames.
const (
	fineStep   = 250 * time.Microsecond
	fineLimit  = 4 * time.Millisecond
	msStep     = time.Millisecond
	msLimit    = 48 * time.Millisecond
	wideStep   = 4 * time.Millisecond
	wideLimit  = 200 * time.Millisecond
	tailStep   = 100 * time.Millisecond
	tailLimit  = 2 * time.Second
	fineCount  = int(fineLimit / fineStep)
	msCount    = int((msLimit - fineLimit) / msStep)
	wideCount  = int((wideLimit - msLimit) / wideStep)
	tailCount  = int((tailLimit - wideLimit) / tailStep)
	numBuckets = fineCount + msCount + wideCount + tailCount + 1
)

func bucketIndex(d time.Duration) int {
	switch {
	case d < 0:
		return 0
	case d < fineLimit:
		return int(d / fineStep)
	case d < msLimit:
		return fineCount + int((d-fineLimit)/msStep)
	case d < wideLimit:
		return fineCount + msCount + int((d-msLimit)/wideStep)
	case d < tailLimit:
		return fineCount + msCount + wideCount + int((d-wideLimit)/tailStep)
	default:
		return numBuckets - 1
	}
}

// bucketTime returns the lower bound of a bucket, the value percentiles
// report.
func bucketTime(i int) time.Duration {
	switch {
	case i < fineCount:
		return time.Duration(i) * fineStep
	case i < fineCount+msCount:
		return fineLimit + time.Duration(i-fineCount)*msStep
	case i < fineCount+msCount+wideCount:
		return msLimit + time.Duration(i-fineCount-msCount)*wideStep
	case i < numBuckets-1:
		return wideLimit + time.Duration(i-fineCount-msCount-wideCount)*tailStep
	default:
		return tailLimit
	}
}

// Thresholds are the per-stage budgets that classify a janky frame.
type Thresholds struct {
	Defer time.Duration
	Issue time.Duration
	Swap  time.Duration
}

// DefaultThresholds splits a 60Hz frame budget across the stages.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Defer: 8 * time.Millisecond,
		Issue: 6 * time.Millisecond,
		Swap:  4 * time.Millisecond,
	}
}

// Tracker aggregates frame timing. Not safe for concurrent use; frames
// finish on one thread.
type Tracker struct {
	frameInterval time.Duration
	thresholds    Thresholds

	totalFrames uint32
	jankyFrames uint32
	typeCounts  [NumTypes]uint32
	histogram   [numBuckets]uint32
}

// NewTracker creates a tracker for the given display refresh interval;
// zero means 60Hz.
func NewTracker(frameInterval time.Duration) *Tracker {
	if frameInterval <= 0 {
		frameInterval = time.Second / 60
	}
	return &Tracker{
		frameInterval: frameInterval,
		thresholds:    DefaultThresholds(),
	}
}

func (t *Tracker) SetThresholds(th Thresholds) { t.thresholds = th }

// FinishFrame folds one completed frame into the counters.
func (t *Tracker) FinishFrame(fi *FrameInfo) {
	if fi.Skipped() {
		return
	}
	total := fi.TotalDuration()
	if total < 0 {
		return
	}
	t.totalFrames++
	t.histogram[bucketIndex(total)]++

	if total <= t.frameInterval {
		return
	}
	t.jankyFrames++
	if fi.Duration(IntendedVsync, Vsync) >= t.frameInterval {
		t.typeCounts[TypeMissedVsync]++
	}
	if fi.Duration(SyncStart, IssueDrawCommandsStart) > t.thresholds.Defer {
		t.typeCounts[TypeSlowDefer]++
	}
	if fi.Duration(IssueDrawCommandsStart, SwapBuffers) > t.thresholds.Issue {
		t.typeCounts[TypeSlowIssue]++
	}
	if fi.Duration(SwapBuffers, FrameCompleted) > t.thresholds.Swap {
		t.typeCounts[TypeSlowSwap]++
	}
}

func (t *Tracker) TotalFrames() uint32 { return t.totalFrames }
func (t *Tracker) JankyFrames() uint32 { return t.jankyFrames }

func (t *Tracker) Count(ty Type) uint32 { return t.typeCounts[ty] }

// Percentile estimates the frame time at the given percentile (0..100)
// from the histogram, resolving to its bucket's lower bound.
func (t *Tracker) Percentile(pct int) time.Duration {
	if t.totalFrames == 0 {
		return 0
	}
	// round up so p50 of a single frame lands on that frame
	threshold := (uint64(t.totalFrames)*uint64(pct) + 99) / 100
	var seen uint64
	for i, n := range t.histogram {
		seen += uint64(n)
		if seen >= threshold {
			return bucketTime(i)
		}
	}
	return tailLimit
}

// Reset clears all counters but keeps the configuration.
func (t *Tracker) Reset() {
	t.totalFrames = 0
	t.jankyFrames = 0
	t.typeCounts = [NumTypes]uint32{}
	t.histogram = [numBuckets]uint32{}
}

// Dump writes a human-readable report followed by the raw histogram
// bytes, matching what the stats command ingests.
func (t *Tracker) Dump(w io.Writer) error {
	jankPct := float64(0)
	if t.totalFrames > 0 {
		jankPct = float64(t.jankyFrames) * 100 / float64(t.totalFrames)
	}
	_, err := fmt.Fprintf(w, "Total frames rendered: %d\nJanky frames: %d (%.2f%%)\n",
		t.totalFrames, t.jankyFrames, jankPct)
	if err != nil {
		return err
	}
	for _, p := range [...]int{50, 90, 95, 99} {
		if _, err := fmt.Fprintf(w, "%dth percentile: %dms\n",
			p, t.Percentile(p).Milliseconds()); err != nil {
			return err
		}
	}
	for ty := Type(0); ty < NumTypes; ty++ {
		if _, err := fmt.Fprintf(w, "Number %s: %d\n", ty, t.typeCounts[ty]); err != nil {
			return err
		}
	}
	// raw histogram, for offline aggregation
	_, err = w.Write(safeish.SliceCast[[]byte](t.histogram[:]))
	return err
}
