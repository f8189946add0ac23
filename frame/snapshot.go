// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package frame

import (
	"github.com/glazegfx/glaze/gmath"
	"github.com/glazegfx/glaze/mem"
	"github.com/glazegfx/glaze/record"
)

// ProjectionPathMask is the receiver outline installed while deferring
// projected children: the mask polygon plus the transform that was current
// when the receiver was reached (mask space to render target).
type ProjectionPathMask struct {
	Mask      gmath.Polygon
	Transform gmath.Transform
}

// Snapshot is one level of the deferral-time transform/clip stack. Saves
// copy the whole struct; ops only ever read the top.
type Snapshot struct {
	prev  *Snapshot
	flags record.SaveFlags

	// Transform maps the current node's local space to the render target.
	// Record-time canvas transforms are not included; they ride on each
	// op's LocalTransform.
	Transform gmath.Transform

	Clip ClipArea

	// RootClip is the current layer's repaint clip, the base for
	// replace-mode recorded clips.
	RootClip gmath.Rect

	// Alpha accumulates non-overlapping node alpha, applied per op instead
	// of through a save layer.
	Alpha float32

	// RelativeLight is the shadow light center in the current layer's
	// space.
	RelativeLight gmath.Vec3

	ProjectionMask *ProjectionPathMask
}

// CanvasState owns the snapshot stack for one deferral pass. Snapshots
// live in the frame arena.
type CanvasState struct {
	arena *mem.Arena
	top   *Snapshot
	depth int
}

func newCanvasState(a *mem.Arena, clip gmath.Rect, light gmath.Vec3) CanvasState {
	root := mem.Make(a, Snapshot{
		Transform:     gmath.Identity,
		Clip:          makeRectClip(clip),
		RootClip:      clip,
		Alpha:         1,
		RelativeLight: light,
	})
	return CanvasState{arena: a, top: root, depth: 1}
}

// Top returns the current snapshot. Mutations through it only affect state
// until the enclosing Restore.
func (cs *CanvasState) Top() *Snapshot { return cs.top }

// Save pushes a copy of the snapshot state selected by flags and returns
// the depth to restore to: RestoreToCount(Save(f)) round-trips. Mutations
// to state a save did not capture outlive the matching Restore.
func (cs *CanvasState) Save(flags record.SaveFlags) int {
	s := mem.Make(cs.arena, *cs.top)
	s.prev = cs.top
	s.flags = flags
	cs.top = s
	cs.depth++
	return cs.depth - 1
}

func (cs *CanvasState) Restore() {
	popped := cs.top
	if popped.prev == nil {
		panic("frame: restore below the save stack root")
	}
	cs.top = popped.prev
	cs.depth--
	if popped.flags&record.SaveMatrix == 0 {
		cs.top.Transform = popped.Transform
	}
	if popped.flags&record.SaveClip == 0 {
		cs.top.Clip = popped.Clip
	}
}

func (cs *CanvasState) RestoreToCount(count int) {
	if count < 1 {
		count = 1
	}
	for cs.depth > count {
		cs.Restore()
	}
}

// Depth returns the current save stack depth.
func (cs *CanvasState) Depth() int { return cs.depth }

func (cs *CanvasState) Translate(dx, dy float32) {
	cs.top.Transform = cs.top.Transform.Mul(gmath.Translate(dx, dy))
}

func (cs *CanvasState) Concat(t gmath.Transform) {
	cs.top.Transform = cs.top.Transform.Mul(t)
}

// ClipRect intersects the clip with a rect given in the current local
// space.
func (cs *CanvasState) ClipRect(r gmath.Rect) {
	cs.top.Clip.IntersectRect(cs.top.Transform.MapRect(r))
}

// ClipRoundRect intersects with a rounded rect in the current local space.
// Non-simple transforms degrade it to its mapped rect bounds with a path
// shape, conservatively.
func (cs *CanvasState) ClipRoundRect(rr gmath.RoundRect) {
	t := cs.top.Transform
	if t.IsPureTranslate() {
		mapped := gmath.RoundRect{Rect: t.MapRect(rr.Rect), Radius: rr.Radius}
		cs.top.Clip.IntersectRoundRect(mapped)
		return
	}
	if t.IsSimple() {
		sx := t.Matrix[0]
		cs.top.Clip.IntersectRoundRect(gmath.RoundRect{
			Rect:   t.MapRect(rr.Rect),
			Radius: rr.Radius * sx,
		})
		return
	}
	cs.top.Clip.IntersectPath(gmath.FlattenPath(gmath.RoundRectPath(rr), shadowFlattenTolerance).Transform(t))
}

// ClipPath intersects with a polygon mask in the current local space.
func (cs *CanvasState) ClipPath(poly gmath.Polygon) {
	cs.top.Clip.IntersectPath(poly.Transform(cs.top.Transform))
}

// ApplyRecordedClip composes an op-recorded clip into the snapshot, used
// when descending into child nodes whose recorded position carried a clip.
func (cs *CanvasState) ApplyRecordedClip(clip *record.Clip) {
	if clip == nil {
		return
	}
	mapped := cs.top.Transform.MapRect(clip.Rect)
	if clip.Mode == record.ClipReplace {
		cs.top.Clip = makeRectClip(mapped.Intersect(cs.top.RootClip))
		return
	}
	cs.top.Clip.IntersectRect(mapped)
}

// QuickRejects conservatively reports that nothing inside localBounds can
// draw. False negatives are fine, false positives are not.
func (cs *CanvasState) QuickRejects(localBounds gmath.Rect) bool {
	if cs.top.Clip.IsEmpty() {
		return true
	}
	mapped := cs.top.Transform.MapRect(localBounds)
	return !mapped.Intersects(cs.top.Clip.Bounds())
}

// ScaleAlpha folds a node alpha into the snapshot for per-op application.
func (cs *CanvasState) ScaleAlpha(alpha float32) {
	cs.top.Alpha *= alpha
}
