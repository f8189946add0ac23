// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package record

import (
	"golang.org/x/image/math/fixed"
	"honnef.co/go/curve"

	"github.com/glazegfx/glaze/gmath"
	"github.com/glazegfx/glaze/offscreen"
)

// SaveFlags selects which canvas state a Save captures. State a save did
// not capture is left as-is by the matching Restore, so e.g. a matrix-only
// save lets clip mutations outlive the scope.
type SaveFlags uint8

const (
	SaveMatrix SaveFlags = 1 << iota
	SaveClip

	SaveMatrixClip = SaveMatrix | SaveClip
)

// Canvas records drawing commands into a display list. Record-time canvas
// state (save/restore, transforms, rect clips) is resolved while
// recording: every op is stored with the transform and clip it was issued
// under, relative to the display list, so the deferral pass never replays
// canvas state changes.
type Canvas struct {
	width, height float32

	ops      []*Op
	children []*Op
	chunks   []Chunk

	projectionReceiveIndex int

	cur   canvasState
	stack []canvasState

	chunkBeginOp    int
	chunkBeginChild int
	reorderChildren bool
	reorderClip     *Clip
}

type canvasState struct {
	transform gmath.Transform
	clip      *Clip
	flags     SaveFlags
	endsLayer OpKind // op to record when this save is restored, or NumOpKinds
}

func NewCanvas(width, height float32) *Canvas {
	return &Canvas{
		width:  width,
		height: height,
		cur: canvasState{
			transform: gmath.Identity,
			endsLayer: NumOpKinds,
		},
		projectionReceiveIndex: -1,
	}
}

// Save pushes the canvas state selected by flags. Returns the save count
// to pass to RestoreToCount.
func (c *Canvas) Save(flags SaveFlags) int {
	saved := c.cur
	saved.flags = flags
	c.stack = append(c.stack, saved)
	c.cur.endsLayer = NumOpKinds
	return len(c.stack)
}

// Restore pops to the most recent Save, closing any layer that save
// opened. State the save did not capture keeps its current value.
func (c *Canvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	if c.cur.endsLayer != NumOpKinds {
		c.record(&Op{Kind: c.cur.endsLayer})
	}
	saved := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	if saved.flags&SaveMatrix == 0 {
		saved.transform = c.cur.transform
	}
	if saved.flags&SaveClip == 0 {
		saved.clip = c.cur.clip
	}
	c.cur = saved
}

// RestoreToCount pops saves until the stack is at the given count.
func (c *Canvas) RestoreToCount(count int) {
	if count < 1 {
		count = 1
	}
	for len(c.stack) >= count {
		c.Restore()
	}
}

func (c *Canvas) Translate(dx, dy float32) {
	c.cur.transform = c.cur.transform.Mul(gmath.Translate(dx, dy))
}

func (c *Canvas) Scale(sx, sy float32) {
	c.cur.transform = c.cur.transform.Mul(gmath.Scale(sx, sy))
}

func (c *Canvas) Rotate(deg float32) {
	c.cur.transform = c.cur.transform.Mul(gmath.Rotate(deg))
}

func (c *Canvas) Concat(t gmath.Transform) {
	c.cur.transform = c.cur.transform.Mul(t)
}

func (c *Canvas) SetMatrix(t gmath.Transform) {
	c.cur.transform = t
}

// ClipRect combines a rect, mapped by the current transform, into the
// recorded clip. Replace mode forgets prior record-time clipping; the
// deferral pass still bounds it by the node's own clip.
func (c *Canvas) ClipRect(l, t, r, b float32, mode ClipMode) {
	mapped := c.cur.transform.MapRect(gmath.Rect{Left: l, Top: t, Right: r, Bottom: b})
	switch {
	case mode == ClipReplace:
		c.cur.clip = &Clip{Rect: mapped, Mode: ClipReplace}
	case c.cur.clip == nil:
		c.cur.clip = &Clip{Rect: mapped}
	default:
		c.cur.clip = &Clip{Rect: c.cur.clip.Rect.Intersect(mapped), Mode: c.cur.clip.Mode}
	}
}

// SaveLayer opens an offscreen layer covering bounds (in the current local
// space); the matching Restore composites it with paint. When clipToLayer
// is false no offscreen buffer is used: the bounded region is copied out,
// drawn over unclipped, and copied back at restore.
func (c *Canvas) SaveLayer(bounds gmath.Rect, paint *Paint, clipToLayer bool) int {
	count := c.Save(SaveMatrixClip)
	if clipToLayer {
		c.record(&Op{Kind: OpBeginLayer, UnmappedBounds: bounds, Paint: paint})
		c.cur.endsLayer = OpEndLayer
	} else {
		c.record(&Op{Kind: OpBeginUnclippedLayer, UnmappedBounds: bounds, Paint: paint})
		c.cur.endsLayer = OpEndUnclippedLayer
	}
	return count
}

// SaveLayerAlpha is SaveLayer with only an alpha to apply at composite
// time.
func (c *Canvas) SaveLayerAlpha(bounds gmath.Rect, alpha uint8, clipToLayer bool) int {
	return c.SaveLayer(bounds, &Paint{Color: uint32(alpha) << 24}, clipToLayer)
}

func (c *Canvas) DrawRect(l, t, r, b float32, paint *Paint) {
	c.record(&Op{
		Kind:           OpRect,
		UnmappedBounds: gmath.Rect{Left: l, Top: t, Right: r, Bottom: b},
		Paint:          paint,
	})
}

func (c *Canvas) DrawRoundRect(l, t, r, b, rx, ry float32, paint *Paint) {
	c.record(&Op{
		Kind:           OpRoundRect,
		UnmappedBounds: gmath.Rect{Left: l, Top: t, Right: r, Bottom: b},
		CornerRx:       rx,
		CornerRy:       ry,
		Paint:          paint,
	})
}

func (c *Canvas) DrawOval(l, t, r, b float32, paint *Paint) {
	c.record(&Op{
		Kind:           OpOval,
		UnmappedBounds: gmath.Rect{Left: l, Top: t, Right: r, Bottom: b},
		Paint:          paint,
	})
}

func (c *Canvas) DrawArc(l, t, r, b, startAngle, sweepAngle float32, useCenter bool, paint *Paint) {
	c.record(&Op{
		Kind:           OpArc,
		UnmappedBounds: gmath.Rect{Left: l, Top: t, Right: r, Bottom: b},
		StartAngle:     startAngle,
		SweepAngle:     sweepAngle,
		UseCenter:      useCenter,
		Paint:          paint,
	})
}

// DrawLines draws segments between consecutive point pairs. Bounds are the
// point hull; stroke expansion happens at bake time.
func (c *Canvas) DrawLines(pts []gmath.Point, paint *Paint) {
	c.record(&Op{
		Kind:           OpLines,
		UnmappedBounds: gmath.Polygon(pts).Bounds(),
		Points:         pts,
		Paint:          paint,
	})
}

func (c *Canvas) DrawPoints(pts []gmath.Point, paint *Paint) {
	c.record(&Op{
		Kind:           OpPoints,
		UnmappedBounds: gmath.Polygon(pts).Bounds(),
		Points:         pts,
		Paint:          paint,
	})
}

func (c *Canvas) DrawPath(els []curve.PathElement, paint *Paint) {
	c.record(&Op{
		Kind:           OpPath,
		UnmappedBounds: gmath.PathBounds(els),
		Path:           els,
		Paint:          paint,
	})
}

func (c *Canvas) DrawBitmap(bmp *Bitmap, left, top float32, paint *Paint) {
	c.record(&Op{
		Kind: OpBitmap,
		UnmappedBounds: gmath.RectWH(
			left, top, float32(bmp.Width), float32(bmp.Height)),
		Bitmap: bmp,
		Paint:  paint,
	})
}

func (c *Canvas) DrawBitmapRect(bmp *Bitmap, src, dst gmath.Rect, paint *Paint) {
	c.record(&Op{
		Kind:           OpBitmapRect,
		UnmappedBounds: dst,
		SrcRect:        src,
		Bitmap:         bmp,
		Paint:          paint,
	})
}

// DrawBitmapMesh draws a bitmap warped across a vertex grid. Bounds are
// the vertex hull.
func (c *Canvas) DrawBitmapMesh(bmp *Bitmap, verts []gmath.Point, colors []uint32, paint *Paint) {
	c.record(&Op{
		Kind:           OpBitmapMesh,
		UnmappedBounds: gmath.Polygon(verts).Bounds(),
		Bitmap:         bmp,
		MeshVerts:      verts,
		MeshColors:     colors,
		Paint:          paint,
	})
}

func (c *Canvas) DrawPatch(bmp *Bitmap, patch *Patch, dst gmath.Rect, paint *Paint) {
	c.record(&Op{
		Kind:           OpPatch,
		UnmappedBounds: dst,
		Bitmap:         bmp,
		Patch:          patch,
		Paint:          paint,
	})
}

// DrawText draws a positioned glyph run. bounds is the run's ink bounds in
// local space, as measured by text layout.
func (c *Canvas) DrawText(ids []uint16, positions []fixed.Point26_6, bounds gmath.Rect, paint *Paint) {
	if len(ids) == 0 {
		return
	}
	c.record(&Op{
		Kind:           OpText,
		UnmappedBounds: bounds,
		Glyphs:         Glyphs{IDs: ids, Positions: positions},
		Paint:          paint,
	})
	if paint != nil && paint.StrikeThru {
		// Strike-through is plain geometry over the glyphs, recorded as its
		// own op so it batches (and overlaps) like one.
		mid := (bounds.Top + bounds.Bottom) / 2
		th := paint.TextSize / 12
		if th <= 0 {
			th = 1
		}
		strike := *paint
		strike.Style = StyleFill
		c.record(&Op{
			Kind:           OpRect,
			UnmappedBounds: gmath.Rect{Left: bounds.Left, Top: mid - th/2, Right: bounds.Right, Bottom: mid + th/2},
			Paint:          &strike,
		})
	}
}

// DrawTextOnPath draws glyphs laid out along a path. Bounds are the path
// hull outset by the text size, conservative for ascenders and descenders.
func (c *Canvas) DrawTextOnPath(ids []uint16, els []curve.PathElement, paint *Paint) {
	if len(ids) == 0 {
		return
	}
	outset := float32(12)
	if paint != nil && paint.TextSize > 0 {
		outset = paint.TextSize
	}
	c.record(&Op{
		Kind:           OpTextOnPath,
		UnmappedBounds: gmath.PathBounds(els).Outset(outset),
		Glyphs:         Glyphs{IDs: ids},
		Path:           els,
		Paint:          paint,
	})
}

// DrawVectorDrawable draws the drawable's current rasterized cache.
func (c *Canvas) DrawVectorDrawable(vd *VectorDrawable) {
	c.record(&Op{
		Kind:           OpVectorDrawable,
		UnmappedBounds: vd.Bounds,
		Vector:         vd,
	})
}

// DrawColor fills the clip with a color. Unbounded; bounds resolve to the
// clip at bake time.
func (c *Canvas) DrawColor(color uint32, mode BlendMode) {
	c.record(&Op{Kind: OpColor, Color: color, ColorMode: mode})
}

// DrawFunctor defers an externally rendered region (e.g. an embedded web
// view). Unbounded, like DrawColor.
func (c *Canvas) DrawFunctor(fn func()) {
	c.record(&Op{Kind: OpFunctor, Functor: fn})
}

// DrawTextureLayer composites an externally updated texture layer.
func (c *Canvas) DrawTextureLayer(layer *offscreen.Buffer, transform gmath.Transform) {
	c.record(&Op{
		Kind: OpTextureLayer,
		UnmappedBounds: gmath.RectWH(0, 0,
			float32(layer.ViewportWidth), float32(layer.ViewportHeight)),
		LocalTransform: c.cur.transform.Mul(transform),
		Texture:        layer,
	})
}

// DrawRenderNode records a child node reference. The child's content is
// deferred in place of this op, under this op's transform.
func (c *Canvas) DrawRenderNode(node *RenderNode) {
	op := &Op{
		Kind:           OpRenderNode,
		UnmappedBounds: gmath.RectWH(0, 0, node.Properties.Width(), node.Properties.Height()),
		Node:           node,
	}
	if node.Properties.ProjectionReceiver {
		c.projectionReceiveIndex = len(c.ops)
	}
	c.record(op)
	c.children = append(c.children, op)
}

// InsertReorderBarrier ends the current chunk; subsequent child nodes are
// Z-reordered if reorder is set.
func (c *Canvas) InsertReorderBarrier(reorder bool) {
	c.endChunk()
	c.reorderChildren = reorder
	c.reorderClip = c.cur.clip
}

func (c *Canvas) record(op *Op) {
	if op.Kind != OpTextureLayer {
		op.LocalTransform = c.cur.transform
	}
	op.LocalClip = c.cur.clip
	c.ops = append(c.ops, op)
}

func (c *Canvas) endChunk() {
	if len(c.ops) == c.chunkBeginOp {
		return
	}
	c.chunks = append(c.chunks, Chunk{
		BeginOpIndex:    c.chunkBeginOp,
		EndOpIndex:      len(c.ops),
		BeginChildIndex: c.chunkBeginChild,
		EndChildIndex:   len(c.children),
		ReorderChildren: c.reorderChildren,
		ReorderClip:     c.reorderClip,
	})
	c.chunkBeginOp = len(c.ops)
	c.chunkBeginChild = len(c.children)
}

// Finish closes the recording and returns the display list. The canvas
// must not be used afterwards.
func (c *Canvas) Finish() *DisplayList {
	c.RestoreToCount(1)
	c.endChunk()
	return &DisplayList{
		Ops:                    c.ops,
		Children:               c.children,
		Chunks:                 c.chunks,
		ProjectionReceiveIndex: c.projectionReceiveIndex,
	}
}
