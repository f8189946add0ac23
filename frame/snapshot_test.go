// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/glazegfx/glaze/gmath"
	"github.com/glazegfx/glaze/mem"
	"github.com/glazegfx/glaze/record"
)

func testCanvasState() CanvasState {
	return newCanvasState(mem.NewArena(), gmath.RectWH(0, 0, 200, 200), gmath.Vec3{})
}

func TestSnapshotSaveRestoreRoundTrip(t *testing.T) {
	cs := testCanvasState()
	count := cs.Save(record.SaveMatrixClip)
	cs.Translate(10, 10)
	cs.ClipRect(gmath.RectWH(0, 0, 50, 50))
	cs.RestoreToCount(count)

	assert.True(t, gmath.Identity.ApproxEqual(cs.Top().Transform))
	assert.Equal(t, gmath.RectWH(0, 0, 200, 200), cs.Top().Clip.Bounds())
	assert.Equal(t, 1, cs.Depth())
}

func TestSnapshotMatrixOnlySaveKeepsClip(t *testing.T) {
	cs := testCanvasState()
	cs.Save(record.SaveMatrix)
	cs.Translate(10, 10)
	cs.ClipRect(gmath.RectWH(0, 0, 50, 50))
	cs.Restore()

	// the transform reverts, the clip mutation outlives the restore
	assert.True(t, gmath.Identity.ApproxEqual(cs.Top().Transform))
	assert.Equal(t, gmath.RectLTRB(10, 10, 60, 60), cs.Top().Clip.Bounds())
}

func TestSnapshotClipOnlySaveKeepsMatrix(t *testing.T) {
	cs := testCanvasState()
	cs.Save(record.SaveClip)
	cs.Translate(10, 10)
	cs.ClipRect(gmath.RectWH(0, 0, 50, 50))
	cs.Restore()

	assert.True(t, gmath.Translate(10, 10).ApproxEqual(cs.Top().Transform))
	assert.Equal(t, gmath.RectWH(0, 0, 200, 200), cs.Top().Clip.Bounds())
}

func TestSnapshotRestoreBelowRootPanics(t *testing.T) {
	cs := testCanvasState()
	assert.Panics(t, func() { cs.Restore() })
}
