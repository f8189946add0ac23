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

func TestDefaultProperties(t *testing.T) {
	p := DefaultProperties()
	assert.Equal(t, float32(1), p.Alpha)
	assert.Equal(t, float32(1), p.ScaleX)
	assert.Equal(t, float32(1), p.ScaleY)
	assert.True(t, p.HasOverlappingRendering)
	assert.True(t, p.ClipToBounds)
}

func TestPropertiesZ(t *testing.T) {
	p := DefaultProperties()
	p.Elevation = 3
	p.TranslationZ = 4
	assert.Equal(t, float32(7), p.Z())
}

func TestTransformMatrixLayoutOnly(t *testing.T) {
	n := NewNode("n", 10, 20, 110, 120)
	assert.True(t, gmath.Translate(10, 20).ApproxEqual(n.Properties.TransformMatrix()))
}

func TestTransformMatrixPivotDefaultsToCenter(t *testing.T) {
	n := NewNode("n", 0, 0, 100, 100)
	n.Properties.ScaleX = 2
	n.Properties.ScaleY = 2
	got := n.Properties.TransformMatrix()
	// scaling about the center keeps the center fixed
	x, y := got.MapPoint(50, 50)
	assert.InDelta(t, 50, x, 1e-3)
	assert.InDelta(t, 50, y, 1e-3)
	x, y = got.MapPoint(0, 0)
	assert.InDelta(t, -50, x, 1e-3)
	assert.InDelta(t, -50, y, 1e-3)
}

func TestTransformMatrixExplicitPivot(t *testing.T) {
	n := NewNode("n", 0, 0, 100, 100)
	n.Properties.PivotExplicit = true
	n.Properties.ScaleX = 2
	n.Properties.ScaleY = 2
	got := n.Properties.TransformMatrix()
	x, y := got.MapPoint(0, 0)
	assert.InDelta(t, 0, x, 1e-3)
	assert.InDelta(t, 0, y, 1e-3)
}

func TestTransformMatrixStaticWinsOverAnimation(t *testing.T) {
	static := gmath.Scale(2, 2)
	anim := gmath.Translate(100, 100)
	n := NewNode("n", 0, 0, 10, 10)
	n.Properties.StaticMatrix = &static
	n.Properties.AnimationMatrix = &anim
	assert.True(t, static.ApproxEqual(n.Properties.TransformMatrix()))

	n.Properties.StaticMatrix = nil
	assert.True(t, anim.ApproxEqual(n.Properties.TransformMatrix()))
}

func TestClippingRect(t *testing.T) {
	n := NewNode("n", 0, 0, 100, 100)

	r, ok := n.Properties.ClippingRect()
	require.True(t, ok)
	assert.Equal(t, gmath.RectWH(0, 0, 100, 100), r)

	clip := gmath.RectLTRB(10, 20, 300, 400)
	n.Properties.ClipBounds = &clip
	r, ok = n.Properties.ClippingRect()
	require.True(t, ok)
	assert.Equal(t, gmath.RectLTRB(10, 20, 100, 100), r)

	n.Properties.ClipToBounds = false
	r, ok = n.Properties.ClippingRect()
	require.True(t, ok)
	assert.Equal(t, clip, r)

	n.Properties.ClipBounds = nil
	_, ok = n.Properties.ClippingRect()
	assert.False(t, ok)
}

func TestNothingToDraw(t *testing.T) {
	n := NewNode("n", 0, 0, 100, 100)
	assert.True(t, n.NothingToDraw(), "no display list")

	c := NewCanvas(100, 100)
	c.DrawRect(0, 0, 10, 10, nil)
	n.DisplayList = c.Finish()
	assert.False(t, n.NothingToDraw())

	n.Properties.Alpha = 0
	assert.True(t, n.NothingToDraw())

	n.Properties.Alpha = 1
	n.Properties.Right = 0
	assert.True(t, n.NothingToDraw(), "degenerate bounds")
}

func TestOutlineSetRoundRectPreservesShouldClip(t *testing.T) {
	var o Outline
	o.ShouldClip = true
	o.SetRoundRect(gmath.RectWH(0, 0, 100, 100), 5, 1)
	assert.True(t, o.ShouldClip)
	assert.Equal(t, OutlineRoundRect, o.Type)

	o.SetNone()
	assert.False(t, o.ShouldClip)
	assert.Nil(t, o.CasterPath())

	o.SetEmpty()
	assert.Equal(t, OutlineEmpty, o.Type)
	assert.Nil(t, o.CasterPath())
}

func TestOutlineCasterPath(t *testing.T) {
	var o Outline
	o.SetRoundRect(gmath.RectWH(0, 0, 100, 50), 0, 1)
	path := o.CasterPath()
	require.NotNil(t, path)
	assert.Equal(t, gmath.RectWH(0, 0, 100, 50), gmath.PathBounds(path))
}

// recordedNode builds a node whose display list draws a rect and any
// given children.
func recordedNode(name string, l, tp, r, b float32, children ...*RenderNode) *RenderNode {
	n := NewNode(name, l, tp, r, b)
	c := NewCanvas(r-l, b-tp)
	c.DrawRect(0, 0, r-l, b-tp, nil)
	for _, child := range children {
		c.DrawRenderNode(child)
	}
	n.DisplayList = c.Finish()
	return n
}

func TestComputeOrderingCollectsProjectingNodes(t *testing.T) {
	receiver := recordedNode("receiver", 0, 0, 100, 100)
	receiver.Properties.ProjectionReceiver = true

	projector := recordedNode("projector", 5, 5, 55, 55)
	projector.Properties.ProjectBackwards = true

	mid := recordedNode("mid", 10, 20, 90, 90, projector)
	parent := recordedNode("parent", 0, 0, 100, 100, receiver, mid)

	parent.ComputeOrdering()

	require.Len(t, parent.ProjectedNodes, 1)
	projOp := parent.ProjectedNodes[0]
	assert.Same(t, projector, projOp.Node)
	assert.True(t, projOp.SkipInOrderDraw)
	// the accumulated transform includes the intermediate node's layout
	assert.True(t, gmath.Translate(10, 20).ApproxEqual(
		projOp.TransformFromCompositingAncestor))
}

func TestComputeOrderingNestedReceiverRestartsSurface(t *testing.T) {
	innerReceiver := recordedNode("innerReceiver", 0, 0, 50, 50)
	innerReceiver.Properties.ProjectionReceiver = true

	projector := recordedNode("projector", 0, 0, 10, 10)
	projector.Properties.ProjectBackwards = true

	// sub's own list contains a receiver, so the subtree under its
	// non-projecting children projects onto sub, not onto the root
	holder := recordedNode("holder", 30, 40, 90, 90, projector)
	sub := recordedNode("sub", 5, 6, 95, 96, innerReceiver, holder)
	parent := recordedNode("parent", 0, 0, 100, 100, sub)

	parent.ComputeOrdering()

	assert.Empty(t, parent.ProjectedNodes)
	require.Len(t, sub.ProjectedNodes, 1)
	assert.Same(t, projector, sub.ProjectedNodes[0].Node)
	// measured from sub, so only the holder's layout applies
	assert.True(t, gmath.Translate(30, 40).ApproxEqual(
		sub.ProjectedNodes[0].TransformFromCompositingAncestor))
}

func TestComputeOrderingResetsSkipFlag(t *testing.T) {
	projector := recordedNode("projector", 0, 0, 10, 10)
	projector.Properties.ProjectBackwards = true
	parent := recordedNode("parent", 0, 0, 100, 100, projector)

	// no receiver anywhere: the projector still detaches onto the root
	parent.ComputeOrdering()
	require.Len(t, parent.ProjectedNodes, 1)
	assert.True(t, parent.DisplayList.Children[0].SkipInOrderDraw)

	// turning projection off and reordering again clears the flag
	projector.Properties.ProjectBackwards = false
	parent.ComputeOrdering()
	assert.Empty(t, parent.ProjectedNodes)
	assert.False(t, parent.DisplayList.Children[0].SkipInOrderDraw)
}

func TestPaintNilSafety(t *testing.T) {
	var p *Paint
	assert.Equal(t, uint8(255), p.Alpha())
	assert.Equal(t, BlendSrcOver, p.BlendMode())
	assert.True(t, p.IsOpaque())
	assert.Equal(t, StyleFill, p.GetStyle())
	assert.Equal(t, float32(0), p.GetStrokeWidth())

	translucent := &Paint{Color: 0x80FFFFFF}
	assert.Equal(t, uint8(0x80), translucent.Alpha())
	assert.False(t, translucent.IsOpaque())
}

func TestBitmapMergeKeysDistinct(t *testing.T) {
	a := NewBitmap(10, 10, BitmapRGBA8888)
	b := NewBitmap(10, 10, BitmapRGBA8888)
	assert.NotEqual(t, a.MergeKey(), b.MergeKey())

	assert.False(t, a.IsOpaque())
	assert.True(t, NewBitmap(1, 1, BitmapRGB565).IsOpaque())
	assert.False(t, NewBitmap(1, 1, BitmapAlpha8).IsOpaque())
}
