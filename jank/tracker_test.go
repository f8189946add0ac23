// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package jank

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frame builds a FrameInfo with evenly interpretable stage times.
func frame(start int64, vsyncDelay, deferTime, issueTime, swapTime time.Duration) *FrameInfo {
	fi := &FrameInfo{}
	fi.Set(IntendedVsync, start)
	fi.Set(Vsync, start+int64(vsyncDelay))
	sync := start + int64(vsyncDelay)
	fi.Set(SyncStart, sync)
	fi.Set(IssueDrawCommandsStart, sync+int64(deferTime))
	fi.Set(SwapBuffers, sync+int64(deferTime)+int64(issueTime))
	fi.Set(FrameCompleted, sync+int64(deferTime)+int64(issueTime)+int64(swapTime))
	return fi
}

func TestTrackerFastFrameIsNotJanky(t *testing.T) {
	tr := NewTracker(time.Second / 60)
	tr.FinishFrame(frame(0, 0, 4*time.Millisecond, 3*time.Millisecond, 2*time.Millisecond))

	assert.Equal(t, uint32(1), tr.TotalFrames())
	assert.Equal(t, uint32(0), tr.JankyFrames())
}

func TestTrackerSkippedFrameIgnored(t *testing.T) {
	tr := NewTracker(0)
	fi := frame(0, 0, 30*time.Millisecond, 0, 0)
	fi.MarkSkipped()
	tr.FinishFrame(fi)

	assert.Equal(t, uint32(0), tr.TotalFrames())
}

func TestTrackerClassifiesSlowStages(t *testing.T) {
	tr := NewTracker(time.Second / 60)

	// over the defer budget only
	tr.FinishFrame(frame(0, 0, 20*time.Millisecond, 1*time.Millisecond, 1*time.Millisecond))
	// over the issue budget only
	tr.FinishFrame(frame(0, 0, 1*time.Millisecond, 20*time.Millisecond, 1*time.Millisecond))
	// over the swap budget only
	tr.FinishFrame(frame(0, 0, 1*time.Millisecond, 1*time.Millisecond, 20*time.Millisecond))
	// a vsync miss
	tr.FinishFrame(frame(0, 20*time.Millisecond, 1*time.Millisecond, 1*time.Millisecond, 1*time.Millisecond))

	assert.Equal(t, uint32(4), tr.TotalFrames())
	assert.Equal(t, uint32(4), tr.JankyFrames())
	assert.Equal(t, uint32(1), tr.Count(TypeSlowDefer))
	assert.Equal(t, uint32(1), tr.Count(TypeSlowIssue))
	assert.Equal(t, uint32(1), tr.Count(TypeSlowSwap))
	assert.Equal(t, uint32(1), tr.Count(TypeMissedVsync))
}

func TestTrackerFrameCanCountAgainstMultipleTypes(t *testing.T) {
	tr := NewTracker(time.Second / 60)
	tr.FinishFrame(frame(0, 20*time.Millisecond, 20*time.Millisecond,
		20*time.Millisecond, 20*time.Millisecond))

	assert.Equal(t, uint32(1), tr.JankyFrames())
	for ty := Type(0); ty < NumTypes; ty++ {
		assert.Equal(t, uint32(1), tr.Count(ty), "%v", ty)
	}
}

func TestTrackerCustomThresholds(t *testing.T) {
	tr := NewTracker(time.Second / 60)
	tr.SetThresholds(Thresholds{
		Defer: 30 * time.Millisecond,
		Issue: 30 * time.Millisecond,
		Swap:  30 * time.Millisecond,
	})
	tr.FinishFrame(frame(0, 0, 20*time.Millisecond, 1*time.Millisecond, 1*time.Millisecond))

	// janky by total time, but no stage is over its raised budget
	assert.Equal(t, uint32(1), tr.JankyFrames())
	assert.Equal(t, uint32(0), tr.Count(TypeSlowDefer))
}

func TestBucketIndexRoundTrip(t *testing.T) {
	for _, d := range []time.Duration{
		0,
		100 * time.Microsecond,
		3 * time.Millisecond,
		4 * time.Millisecond,
		17 * time.Millisecond,
		47 * time.Millisecond,
		48 * time.Millisecond,
		120 * time.Millisecond,
		500 * time.Millisecond,
		3 * time.Second,
	} {
		i := bucketIndex(d)
		require.GreaterOrEqual(t, i, 0)
		require.Less(t, i, numBuckets)
		// the bucket's reported time never exceeds the sample
		lower := bucketTime(i)
		if d < tailLimit {
			assert.LessOrEqual(t, lower, d, "%v", d)
			if i+1 < numBuckets {
				assert.Greater(t, bucketTime(i+1), d, "%v", d)
			}
		}
	}
	assert.Equal(t, 0, bucketIndex(-time.Millisecond))
}

func TestTrackerPercentile(t *testing.T) {
	tr := NewTracker(time.Second / 60)
	assert.Equal(t, time.Duration(0), tr.Percentile(90))

	// nine fast frames, one slow
	for i := 0; i < 9; i++ {
		tr.FinishFrame(frame(0, 0, 2*time.Millisecond, 2*time.Millisecond, 1*time.Millisecond))
	}
	tr.FinishFrame(frame(0, 0, 50*time.Millisecond, 20*time.Millisecond, 10*time.Millisecond))

	assert.Equal(t, 5*time.Millisecond, tr.Percentile(50))
	assert.Equal(t, 5*time.Millisecond, tr.Percentile(90))
	assert.Equal(t, 80*time.Millisecond, tr.Percentile(99))
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker(0)
	tr.FinishFrame(frame(0, 0, 30*time.Millisecond, 1*time.Millisecond, 1*time.Millisecond))
	require.Equal(t, uint32(1), tr.TotalFrames())

	tr.Reset()
	assert.Equal(t, uint32(0), tr.TotalFrames())
	assert.Equal(t, uint32(0), tr.JankyFrames())
	assert.Equal(t, uint32(0), tr.Count(TypeSlowDefer))
	assert.Equal(t, time.Duration(0), tr.Percentile(99))
}

func TestTrackerDump(t *testing.T) {
	tr := NewTracker(0)
	tr.FinishFrame(frame(0, 0, 2*time.Millisecond, 2*time.Millisecond, 1*time.Millisecond))

	var sb strings.Builder
	require.NoError(t, tr.Dump(&sb))
	out := sb.String()
	assert.Contains(t, out, "Total frames rendered: 1")
	assert.Contains(t, out, "Janky frames: 0 (0.00%)")
	assert.Contains(t, out, "Number Missed vsync: 0")
}
