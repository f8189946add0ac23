// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package gmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectEmpty(t *testing.T) {
	assert.True(t, Rect{}.IsEmpty())
	assert.True(t, RectLTRB(10, 10, 10, 20).IsEmpty())
	assert.True(t, RectLTRB(20, 10, 10, 20).IsEmpty(), "inverted rect is empty")
	assert.False(t, RectLTRB(0, 0, 1, 1).IsEmpty())
}

func TestRectIntersect(t *testing.T) {
	a := RectLTRB(0, 0, 100, 100)
	b := RectLTRB(50, 60, 150, 160)
	assert.Equal(t, RectLTRB(50, 60, 100, 100), a.Intersect(b))
	assert.Equal(t, RectLTRB(50, 60, 100, 100), b.Intersect(a))

	// disjoint rects produce an empty (inverted) result
	c := RectLTRB(200, 200, 300, 300)
	assert.True(t, a.Intersect(c).IsEmpty())
	assert.False(t, a.Intersects(c))
	assert.True(t, a.Intersects(b))
}

func TestRectUnionIgnoresEmpty(t *testing.T) {
	a := RectLTRB(10, 10, 20, 20)
	assert.Equal(t, a, a.Union(Rect{}))
	assert.Equal(t, a, Rect{}.Union(a))
	assert.Equal(t, RectLTRB(0, 0, 20, 20), a.Union(RectLTRB(0, 0, 5, 5)))
}

func TestRectContains(t *testing.T) {
	a := RectLTRB(0, 0, 100, 100)
	assert.True(t, a.Contains(RectLTRB(10, 10, 90, 90)))
	assert.True(t, a.Contains(a))
	assert.False(t, a.Contains(RectLTRB(10, 10, 110, 90)))

	assert.True(t, a.ContainsPoint(0, 0))
	assert.False(t, a.ContainsPoint(100, 50), "right edge is exclusive")
}

func TestRectRoundOut(t *testing.T) {
	assert.Equal(t, RectLTRB(10, 10, 190, 190),
		RectLTRB(10.95, 10.5, 189.75, 189.25).RoundOut())
	assert.Equal(t, RectLTRB(-2, 0, 2, 1),
		RectLTRB(-1.5, 0, 1.5, 0.25).RoundOut())
}

func TestRectOutset(t *testing.T) {
	assert.Equal(t, RectLTRB(5, 5, 25, 25), RectLTRB(10, 10, 20, 20).Outset(5))
	assert.Equal(t, RectLTRB(8, 5, 22, 25), RectLTRB(10, 10, 20, 20).OutsetXY(2, 5))
}

func TestRoundRectInner(t *testing.T) {
	rr := RoundRect{Rect: RectLTRB(0, 0, 100, 100), Radius: 10}
	assert.Equal(t, RectLTRB(10, 10, 90, 90), rr.Inner())
}

func TestTransformMulOrder(t *testing.T) {
	// Mul applies the right operand first
	tr := Translate(10, 0).Mul(Scale(2, 2))
	x, y := tr.MapPoint(1, 1)
	assert.InDelta(t, 12, x, 1e-4)
	assert.InDelta(t, 2, y, 1e-4)

	tr = Scale(2, 2).Mul(Translate(10, 0))
	x, y = tr.MapPoint(1, 1)
	assert.InDelta(t, 22, x, 1e-4)
	assert.InDelta(t, 2, y, 1e-4)
}

func TestTransformRotate(t *testing.T) {
	x, y := Rotate(90).MapPoint(1, 0)
	assert.InDelta(t, 0, x, 1e-4)
	assert.InDelta(t, 1, y, 1e-4)

	assert.True(t, Rotate(360).ApproxEqual(Identity))
}

func TestTransformMapRect(t *testing.T) {
	tr := Translate(5, 5).Mul(Scale(2, 3))
	assert.Equal(t, RectLTRB(15, 35, 35, 65), tr.MapRect(RectLTRB(5, 10, 15, 20)))

	// a rotated rect maps to its normalized envelope
	got := Rotate(90).MapRect(RectLTRB(0, 0, 10, 10))
	assert.True(t, RectLTRB(-10, 0, 0, 10).ApproxEqual(got), "got %v", got)
}

func TestTransformClassification(t *testing.T) {
	assert.True(t, Identity.IsIdentity())
	assert.True(t, Translate(3, 4).IsPureTranslate())
	assert.False(t, Scale(2, 2).IsPureTranslate())
	assert.True(t, Scale(2, 2).IsSimple())
	assert.True(t, Translate(3, 4).IsSimple())
	assert.False(t, Rotate(45).IsSimple())
	assert.False(t, Scale(-1, 1).IsSimple())
}

func TestTransformInvert(t *testing.T) {
	tr := Translate(10, 20).Mul(Scale(2, 4))
	inv, ok := tr.Invert()
	require.True(t, ok)
	assert.True(t, inv.Mul(tr).ApproxEqual(Identity))
	assert.True(t, tr.Mul(inv).ApproxEqual(Identity))

	_, ok = Scale(0, 1).Invert()
	assert.False(t, ok)
}

func TestTransformMapExtent(t *testing.T) {
	dx, dy := Scale(2, 3).MapExtent(5, 5)
	assert.InDelta(t, 10, dx, 1e-4)
	assert.InDelta(t, 15, dy, 1e-4)

	// rotation by 90 degrees swaps the extents, absolute values only
	dx, dy = Rotate(90).MapExtent(5, 2)
	assert.InDelta(t, 2, dx, 1e-3)
	assert.InDelta(t, 5, dy, 1e-3)
}

func TestPathBoundsContainsRect(t *testing.T) {
	r := RectLTRB(10, 20, 30, 40)
	assert.Equal(t, r, PathBounds(RectPath(r)))
	assert.Equal(t, Rect{}, PathBounds(nil))
}

func TestRoundRectPathBounds(t *testing.T) {
	rr := RoundRect{Rect: RectLTRB(0, 0, 100, 50), Radius: 10}
	b := PathBounds(RoundRectPath(rr))
	assert.True(t, rr.Rect.ApproxEqual(b), "got %v", b)

	// zero radius degenerates to the plain rect outline
	sq := RoundRect{Rect: RectLTRB(0, 0, 10, 10)}
	assert.Len(t, RoundRectPath(sq), 5)
}

func TestCirclePathFlattens(t *testing.T) {
	poly := FlattenPath(CirclePath(50, 50, 25), 0.25)
	require.GreaterOrEqual(t, len(poly), 8)
	b := poly.Bounds()
	assert.InDelta(t, 25, b.Left, 0.5)
	assert.InDelta(t, 25, b.Top, 0.5)
	assert.InDelta(t, 75, b.Right, 0.5)
	assert.InDelta(t, 75, b.Bottom, 0.5)
}

func TestFlattenPathFirstSubpathOnly(t *testing.T) {
	els := append(RectPath(RectLTRB(0, 0, 10, 10)), RectPath(RectLTRB(100, 100, 110, 110))...)
	poly := FlattenPath(els, 0.25)
	assert.Equal(t, RectLTRB(0, 0, 10, 10), poly.Bounds())
}

func TestPolygonTransform(t *testing.T) {
	poly := Polygon{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	moved := poly.Transform(Translate(5, -5))
	assert.Equal(t, RectLTRB(5, -5, 15, 5), moved.Bounds())
	// the original is untouched
	assert.Equal(t, RectLTRB(0, 0, 10, 10), poly.Bounds())
}

func TestPolygonClipRect(t *testing.T) {
	poly := Polygon{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	clipped := poly.ClipRect(RectLTRB(5, 5, 20, 20))
	assert.Equal(t, RectLTRB(5, 5, 10, 10), clipped.Bounds())

	gone := poly.ClipRect(RectLTRB(50, 50, 60, 60))
	assert.Empty(t, gone)
}

func TestPolygonClipConvex(t *testing.T) {
	square := Polygon{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	// clockwise in y-down screen space
	clip := Polygon{{5, -5}, {15, 5}, {5, 15}, {-5, 5}}
	clipped := square.ClipConvex(clip)
	require.NotEmpty(t, clipped)
	b := clipped.Bounds()
	assert.InDelta(t, 0, b.Left, 1e-3)
	assert.InDelta(t, 0, b.Top, 1e-3)
	assert.InDelta(t, 10, b.Right, 1e-3)
	assert.InDelta(t, 10, b.Bottom, 1e-3)

	assert.Nil(t, square.ClipConvex(Polygon{{0, 0}, {1, 1}}), "degenerate clip")
}

func TestPolygonRoundTripThroughPath(t *testing.T) {
	poly := Polygon{{0, 0}, {10, 0}, {10, 10}}
	els := poly.Path()
	require.Len(t, els, 4)
	back := FlattenPath(els, 0.25)
	assert.Equal(t, poly, back)
}
