// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package frame

import (
	"github.com/glazegfx/glaze/gmath"
	"github.com/glazegfx/glaze/mem"
	"github.com/glazegfx/glaze/record"
)

// Clip side flags record which sides of an op's mapped bounds were cut by
// the clip. Merged batches use them to tell whether an op's visible
// geometry can be redrawn at a different position in the batch.
const (
	ClipSideNone   = 0
	ClipSideLeft   = 1 << 0
	ClipSideTop    = 1 << 1
	ClipSideRight  = 1 << 2
	ClipSideBottom = 1 << 3
	ClipSideFull   = ClipSideLeft | ClipSideTop | ClipSideRight | ClipSideBottom
)

// StrokeBehavior selects whether bounds expansion for stroke geometry
// depends on the paint style or always applies (lines and points, which
// have no fill interior).
type StrokeBehavior uint8

const (
	StrokeStyleDefined StrokeBehavior = iota
	StrokeForced
)

// BakedOpState is an op resolved against the snapshot it was deferred
// under: final transform, clip, device bounds and alpha. Immutable once
// constructed; allocated from the frame arena.
type BakedOpState struct {
	Op *record.Op

	// Transform maps the op's local space to the render target.
	Transform gmath.Transform

	// ClipRect is the resolved clip bounds; ClipSimple is false when the
	// clip carries rounded corners or a path mask, which disqualifies the
	// op from merging.
	ClipRect   gmath.Rect
	ClipSimple bool

	// ClippedBounds is the op's device bounds intersected with the clip,
	// never empty.
	ClippedBounds gmath.Rect

	ClipSideFlags int

	Alpha float32

	// StrokeExpanded is set when hairline expansion inflated the bounds,
	// so AA texture lookups know the geometry outgrew its path.
	StrokeExpanded bool

	// OpaqueOverClippedBounds is set for ops that fully replace every
	// pixel of their clipped bounds; one covering the whole repaint
	// region occludes everything deferred before it.
	OpaqueOverClippedBounds bool

	// LocalProjectionPathMask is the projection receiver's outline in this
	// op's local space, nil outside projection passes.
	LocalProjectionPathMask gmath.Polygon
}

func resolveClip(s *Snapshot, op *record.Op) (gmath.Rect, bool) {
	clip := s.Clip.Bounds()
	simple := s.Clip.IsSimple()
	if lc := op.LocalClip; lc != nil {
		mapped := s.Transform.MapRect(lc.Rect)
		if lc.Mode == record.ClipReplace {
			// replace forgets record-time state but stays inside the layer
			clip = mapped.Intersect(s.RootClip)
			simple = true
		} else {
			clip = clip.Intersect(mapped)
		}
	}
	return clip, simple
}

func clipFlags(mapped, clip gmath.Rect) int {
	flags := ClipSideNone
	if mapped.Left < clip.Left {
		flags |= ClipSideLeft
	}
	if mapped.Top < clip.Top {
		flags |= ClipSideTop
	}
	if mapped.Right > clip.Right {
		flags |= ClipSideRight
	}
	if mapped.Bottom > clip.Bottom {
		flags |= ClipSideBottom
	}
	return flags
}

func localMask(s *Snapshot, opTransform gmath.Transform) gmath.Polygon {
	pm := s.ProjectionMask
	if pm == nil {
		return nil
	}
	inv, ok := opTransform.Invert()
	if !ok {
		return nil
	}
	return pm.Mask.Transform(inv.Mul(pm.Transform))
}

// TryConstruct bakes op against the snapshot, returning nil when the op is
// entirely clipped out.
func TryConstruct(a *mem.Arena, s *Snapshot, op *record.Op) *BakedOpState {
	t := s.Transform.Mul(op.LocalTransform)
	return bake(a, s, op, t, t.MapRect(op.UnmappedBounds))
}

// TryStrokeableConstruct bakes geometry that may carry stroke width,
// expanding the mapped bounds by the stroke's device-space half-extents
// (and a half pixel for hairlines or sub-pixel strokes under scale).
func TryStrokeableConstruct(a *mem.Arena, s *Snapshot, op *record.Op, behavior StrokeBehavior) *BakedOpState {
	stroked := behavior == StrokeForced ||
		(op.Paint != nil && op.Paint.GetStyle() != record.StyleFill)
	if !stroked {
		return TryConstruct(a, s, op)
	}
	t := s.Transform.Mul(op.LocalTransform)
	half := op.Paint.GetStrokeWidth() / 2
	dx, dy := t.MapExtent(half, half)
	mapped := t.MapRect(op.UnmappedBounds).OutsetXY(dx, dy)
	expanded := false
	if !t.IsPureTranslate() || op.Paint.GetStrokeWidth() < 1 {
		// hairline, or a stroke that a scale could shrink below a pixel
		mapped = mapped.Outset(0.5)
		expanded = true
	}
	st := bake(a, s, op, t, mapped)
	if st != nil {
		st.StrokeExpanded = expanded
	}
	return st
}

// TryUnboundedConstruct bakes an op with no intrinsic bounds (color fills,
// functors): the resolved clip stands in as its bounds.
func TryUnboundedConstruct(a *mem.Arena, s *Snapshot, op *record.Op) *BakedOpState {
	clip, simple := resolveClip(s, op)
	if clip.IsEmpty() || s.Alpha <= 0 {
		return nil
	}
	return mem.Make(a, BakedOpState{
		Op:                      op,
		Transform:               s.Transform.Mul(op.LocalTransform),
		ClipRect:                clip,
		ClipSimple:              simple,
		ClippedBounds:           clip,
		ClipSideFlags:           ClipSideFull,
		Alpha:                   s.Alpha,
		LocalProjectionPathMask: localMask(s, s.Transform.Mul(op.LocalTransform)),
	})
}

// TryShadowConstruct bakes a synthesized shadow op. Shadow geometry isn't
// known until tessellation completes, so the clip stands in for bounds.
func TryShadowConstruct(a *mem.Arena, s *Snapshot, op *record.Op) *BakedOpState {
	if s.Clip.IsEmpty() || s.Alpha <= 0 {
		return nil
	}
	return mem.Make(a, BakedOpState{
		Op:                      op,
		Transform:               s.Transform,
		ClipRect:                s.Clip.Bounds(),
		ClipSimple:              s.Clip.IsSimple(),
		ClippedBounds:           s.Clip.Bounds(),
		Alpha:                   s.Alpha,
		LocalProjectionPathMask: localMask(s, s.Transform),
	})
}

// DirectConstruct bakes an op whose device bounds are already known
// (deferral-synthesized layer traffic). No transform or clip resolution,
// no rejection.
func DirectConstruct(a *mem.Arena, clip, bounds gmath.Rect, op *record.Op) *BakedOpState {
	return mem.Make(a, BakedOpState{
		Op:            op,
		Transform:     gmath.Identity,
		ClipRect:      clip,
		ClipSimple:    true,
		ClippedBounds: bounds,
		Alpha:         1,
	})
}

func bake(a *mem.Arena, s *Snapshot, op *record.Op, t gmath.Transform, mapped gmath.Rect) *BakedOpState {
	if s.Alpha <= 0 {
		return nil
	}
	clip, simple := resolveClip(s, op)
	clipped := mapped.Intersect(clip)
	if clipped.IsEmpty() {
		return nil
	}
	return mem.Make(a, BakedOpState{
		Op:                      op,
		Transform:               t,
		ClipRect:                clip,
		ClipSimple:              simple,
		ClippedBounds:           clipped,
		ClipSideFlags:           clipFlags(mapped, clip),
		Alpha:                   s.Alpha,
		LocalProjectionPathMask: localMask(s, t),
	})
}

// MergeableClip reports whether the state's clip allows it into a merged
// batch: either unclipped or clipped by a plain rect.
func (s *BakedOpState) MergeableClip() bool {
	return s.ClipSimple
}

// setupOpacity marks the state opaque over its clipped bounds when the
// paint replaces the destination and nothing (clip shape, alpha, rotation)
// lets old pixels show through. Callers only invoke it for content known
// to be opaque itself.
func (s *BakedOpState) setupOpacity(paint *record.Paint) {
	s.OpaqueOverClippedBounds = s.Transform.IsSimple() && s.ClipSimple &&
		s.Alpha >= 1 && paint.Alpha() == 255 &&
		paint.BlendMode() == record.BlendSrcOver
}
