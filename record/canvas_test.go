// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glazegfx/glaze/gmath"
)

func TestCanvasResolvesTransformAtRecordTime(t *testing.T) {
	c := NewCanvas(200, 200)
	c.Save(SaveMatrixClip)
	c.Translate(10, 20)
	c.Scale(2, 2)
	c.DrawRect(0, 0, 10, 10, &Paint{Color: 0xFF000000})
	c.Restore()
	c.DrawRect(0, 0, 10, 10, &Paint{Color: 0xFF000000})
	dl := c.Finish()

	require.Len(t, dl.Ops, 2)
	want := gmath.Translate(10, 20).Mul(gmath.Scale(2, 2))
	assert.True(t, want.ApproxEqual(dl.Ops[0].LocalTransform))
	assert.True(t, gmath.Identity.ApproxEqual(dl.Ops[1].LocalTransform))
}

func TestCanvasClipIntersectsUnderTransform(t *testing.T) {
	c := NewCanvas(200, 200)
	c.Save(SaveMatrixClip)
	c.ClipRect(0, 0, 100, 100, ClipIntersect)
	c.Translate(50, 50)
	c.ClipRect(0, 0, 100, 100, ClipIntersect)
	c.DrawRect(0, 0, 100, 100, nil)
	c.Restore()
	dl := c.Finish()

	clip := dl.Ops[0].LocalClip
	require.NotNil(t, clip)
	assert.Equal(t, ClipIntersect, clip.Mode)
	assert.Equal(t, gmath.RectLTRB(50, 50, 100, 100), clip.Rect)
}

func TestCanvasClipReplace(t *testing.T) {
	c := NewCanvas(100, 100)
	c.ClipRect(0, 0, 30, 30, ClipIntersect)
	c.ClipRect(50, 50, 90, 90, ClipReplace)
	c.DrawRect(0, 0, 100, 100, nil)
	dl := c.Finish()

	clip := dl.Ops[0].LocalClip
	require.NotNil(t, clip)
	assert.Equal(t, ClipReplace, clip.Mode)
	assert.Equal(t, gmath.RectLTRB(50, 50, 90, 90), clip.Rect)
}

func TestCanvasRestoreRevertsClip(t *testing.T) {
	c := NewCanvas(100, 100)
	c.Save(SaveMatrixClip)
	c.ClipRect(0, 0, 50, 50, ClipIntersect)
	c.Restore()
	c.DrawRect(0, 0, 100, 100, nil)
	dl := c.Finish()

	assert.Nil(t, dl.Ops[0].LocalClip)
}

func TestCanvasSaveMatrixOnlyKeepsClip(t *testing.T) {
	c := NewCanvas(100, 100)
	c.Save(SaveMatrix)
	c.Translate(10, 0)
	c.ClipRect(0, 0, 50, 50, ClipIntersect)
	c.Restore()
	c.DrawRect(0, 0, 100, 100, nil)
	dl := c.Finish()

	op := dl.Ops[0]
	// the translate reverts, the clip set inside the scope survives
	assert.True(t, gmath.Identity.ApproxEqual(op.LocalTransform))
	require.NotNil(t, op.LocalClip)
	assert.Equal(t, gmath.RectLTRB(10, 0, 60, 50), op.LocalClip.Rect)
}

func TestCanvasSaveClipOnlyKeepsMatrix(t *testing.T) {
	c := NewCanvas(100, 100)
	c.Save(SaveClip)
	c.Translate(10, 0)
	c.ClipRect(0, 0, 50, 50, ClipIntersect)
	c.Restore()
	c.DrawRect(0, 0, 100, 100, nil)
	dl := c.Finish()

	op := dl.Ops[0]
	assert.True(t, gmath.Translate(10, 0).ApproxEqual(op.LocalTransform))
	assert.Nil(t, op.LocalClip)
}

func TestCanvasRestoreToCount(t *testing.T) {
	c := NewCanvas(100, 100)
	count := c.Save(SaveMatrixClip)
	c.Translate(10, 0)
	c.Save(SaveMatrixClip)
	c.Translate(10, 0)
	c.Save(SaveMatrixClip)
	c.Translate(10, 0)
	c.RestoreToCount(count)
	c.DrawRect(0, 0, 10, 10, nil)
	dl := c.Finish()

	assert.True(t, gmath.Identity.ApproxEqual(dl.Ops[0].LocalTransform))
}

func TestCanvasSaveLayerRecordsBeginEndPair(t *testing.T) {
	c := NewCanvas(200, 200)
	c.SaveLayerAlpha(gmath.RectLTRB(10, 10, 190, 190), 128, true)
	c.DrawRect(0, 0, 200, 200, nil)
	c.Restore()
	dl := c.Finish()

	require.Len(t, dl.Ops, 3)
	assert.Equal(t, OpBeginLayer, dl.Ops[0].Kind)
	assert.Equal(t, gmath.RectLTRB(10, 10, 190, 190), dl.Ops[0].UnmappedBounds)
	assert.Equal(t, uint8(128), dl.Ops[0].Paint.Alpha())
	assert.Equal(t, OpRect, dl.Ops[1].Kind)
	assert.Equal(t, OpEndLayer, dl.Ops[2].Kind)
}

func TestCanvasUnclippedSaveLayer(t *testing.T) {
	c := NewCanvas(200, 200)
	c.SaveLayerAlpha(gmath.RectLTRB(10, 10, 190, 190), 200, false)
	c.DrawRect(0, 0, 200, 200, nil)
	c.Restore()
	dl := c.Finish()

	require.Len(t, dl.Ops, 3)
	assert.Equal(t, OpBeginUnclippedLayer, dl.Ops[0].Kind)
	assert.Equal(t, OpEndUnclippedLayer, dl.Ops[2].Kind)
}

func TestCanvasFinishClosesOpenLayers(t *testing.T) {
	c := NewCanvas(200, 200)
	c.SaveLayerAlpha(gmath.RectWH(0, 0, 200, 200), 128, true)
	c.DrawRect(0, 0, 200, 200, nil)
	// no Restore before Finish
	dl := c.Finish()

	require.Len(t, dl.Ops, 3)
	assert.Equal(t, OpEndLayer, dl.Ops[2].Kind)
}

func TestCanvasDrawTextEmptyRunDropped(t *testing.T) {
	c := NewCanvas(100, 100)
	c.DrawText(nil, nil, gmath.RectWH(0, 0, 10, 10), &Paint{TextSize: 12})
	dl := c.Finish()
	assert.True(t, dl.IsEmpty())
}

func TestCanvasStrikethroughSynthesizesRect(t *testing.T) {
	paint := &Paint{Color: 0xFF000000, TextSize: 24, StrikeThru: true, Style: StyleStroke}
	c := NewCanvas(200, 200)
	c.DrawText(make([]uint16, 4), nil, gmath.RectLTRB(10, 80, 90, 104), paint)
	dl := c.Finish()

	require.Len(t, dl.Ops, 2)
	assert.Equal(t, OpText, dl.Ops[0].Kind)
	strike := dl.Ops[1]
	assert.Equal(t, OpRect, strike.Kind)
	// centered on the ink bounds, thickness textSize/12
	assert.Equal(t, gmath.RectLTRB(10, 91, 90, 93), strike.UnmappedBounds)
	// the synthesized rect always fills, independent of the text style
	assert.Equal(t, StyleFill, strike.Paint.Style)
	assert.Equal(t, paint.Color, strike.Paint.Color)
}

func TestCanvasStrikethroughMinimumThickness(t *testing.T) {
	paint := &Paint{Color: 0xFF000000, TextSize: 0, StrikeThru: true}
	c := NewCanvas(100, 100)
	c.DrawText(make([]uint16, 1), nil, gmath.RectLTRB(0, 0, 50, 10), paint)
	dl := c.Finish()

	require.Len(t, dl.Ops, 2)
	assert.Equal(t, float32(1), dl.Ops[1].UnmappedBounds.Height())
}

func TestCanvasChunksSplitAtReorderBarriers(t *testing.T) {
	child := NewNode("child", 0, 0, 10, 10)
	child.DisplayList = &DisplayList{ProjectionReceiveIndex: -1}

	c := NewCanvas(100, 100)
	c.DrawRect(0, 0, 10, 10, nil)
	c.InsertReorderBarrier(true)
	c.DrawRenderNode(child)
	c.DrawRect(0, 0, 10, 10, nil)
	c.InsertReorderBarrier(false)
	c.DrawRect(0, 0, 10, 10, nil)
	dl := c.Finish()

	require.Len(t, dl.Chunks, 3)
	assert.False(t, dl.Chunks[0].ReorderChildren)
	assert.True(t, dl.Chunks[1].ReorderChildren)
	assert.False(t, dl.Chunks[2].ReorderChildren)

	assert.Equal(t, 0, dl.Chunks[0].BeginOpIndex)
	assert.Equal(t, 1, dl.Chunks[0].EndOpIndex)
	assert.Equal(t, 1, dl.Chunks[1].BeginOpIndex)
	assert.Equal(t, 3, dl.Chunks[1].EndOpIndex)

	// the node ref lands in the reordering chunk's child range
	assert.Equal(t, 0, dl.Chunks[1].BeginChildIndex)
	assert.Equal(t, 1, dl.Chunks[1].EndChildIndex)
	require.Len(t, dl.Children, 1)
	assert.Same(t, child, dl.Children[0].Node)
}

func TestCanvasReorderBarrierCapturesClip(t *testing.T) {
	c := NewCanvas(100, 100)
	c.ClipRect(25, 25, 75, 75, ClipIntersect)
	c.DrawRect(0, 0, 100, 100, nil)
	c.InsertReorderBarrier(true)
	c.DrawRect(0, 0, 100, 100, nil)
	dl := c.Finish()

	require.Len(t, dl.Chunks, 2)
	require.NotNil(t, dl.Chunks[1].ReorderClip)
	assert.Equal(t, gmath.RectLTRB(25, 25, 75, 75), dl.Chunks[1].ReorderClip.Rect)
}

func TestCanvasEmptyChunksSkipped(t *testing.T) {
	c := NewCanvas(100, 100)
	c.InsertReorderBarrier(true)
	c.InsertReorderBarrier(false)
	c.DrawRect(0, 0, 10, 10, nil)
	dl := c.Finish()

	require.Len(t, dl.Chunks, 1)
	assert.False(t, dl.Chunks[0].ReorderChildren)
}

func TestCanvasProjectionReceiveIndex(t *testing.T) {
	receiver := NewNode("receiver", 0, 0, 10, 10)
	receiver.Properties.ProjectionReceiver = true
	receiver.DisplayList = &DisplayList{ProjectionReceiveIndex: -1}
	plain := NewNode("plain", 0, 0, 10, 10)
	plain.DisplayList = &DisplayList{ProjectionReceiveIndex: -1}

	c := NewCanvas(100, 100)
	c.DrawRenderNode(plain)
	c.DrawRenderNode(receiver)
	dl := c.Finish()
	assert.Equal(t, 1, dl.ProjectionReceiveIndex)

	c = NewCanvas(100, 100)
	c.DrawRenderNode(plain)
	dl = c.Finish()
	assert.Equal(t, -1, dl.ProjectionReceiveIndex)
}

func TestDisplayListHasFunctor(t *testing.T) {
	c := NewCanvas(100, 100)
	c.DrawFunctor(func() {})
	withFunctor := c.Finish()
	assert.True(t, withFunctor.HasFunctor())

	child := NewNode("child", 0, 0, 10, 10)
	child.DisplayList = withFunctor
	c = NewCanvas(100, 100)
	c.DrawRenderNode(child)
	parent := c.Finish()
	assert.True(t, parent.HasFunctor(), "functor found through child nodes")

	c = NewCanvas(100, 100)
	c.DrawRect(0, 0, 10, 10, nil)
	assert.False(t, c.Finish().HasFunctor())
}
