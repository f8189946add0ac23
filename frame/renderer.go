// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package frame

import (
	"honnef.co/go/curve"

	"github.com/glazegfx/glaze/gmath"
	"github.com/glazegfx/glaze/offscreen"
	"github.com/glazegfx/glaze/record"
)

// Renderer consumes a replayed frame. Implementations issue the actual
// draw calls; the deferral engine only promises ordering: offscreen layers
// replay before whatever composites them, each bracketed by its start/end
// calls.
type Renderer interface {
	StartFrame(width, height uint32, repaint gmath.Rect)
	EndFrame(repaint gmath.Rect)

	// StartTemporaryLayer allocates and targets a scratch buffer for a
	// save layer; the returned buffer is what the matching Layer op
	// composites.
	StartTemporaryLayer(width, height uint32) *offscreen.Buffer
	// StartRepaintLayer targets an existing hardware layer buffer for
	// partial repaint.
	StartRepaintLayer(buf *offscreen.Buffer, repaint gmath.Rect)
	EndLayer()
	// RecycleTemporaryLayer returns a save layer buffer after its
	// composite op has replayed.
	RecycleTemporaryLayer(buf *offscreen.Buffer)

	// OnOp draws one baked op. OnMergedOps draws a same-key batch in one
	// call; op order inside the list carries no meaning.
	OnOp(op *record.Op, state *BakedOpState)
	OnMergedOps(id BatchID, list MergedOpList)
}

// LightGeometry positions the shadow light over the scene, in the
// primary target's space.
type LightGeometry struct {
	Center gmath.Vec3
	Radius float32
}

// DeviceInfo carries the device limits deferral validates against.
type DeviceInfo struct {
	MaxTextureSize uint32
}

// ShadowTessellator computes shadow geometry off-thread. GetShadowTask is
// fire-and-forget: the returned handle rides on the shadow op for the
// renderer to resolve at draw time.
type ShadowTessellator interface {
	GetShadowTask(drawTransform gmath.Transform, localClip gmath.Rect,
		desc *record.ShadowDescription) any
}

// GlyphPrecache warms glyph atlases for text that will draw this frame.
// EndPrecaching marks the end of the defer pass so the cache can kick off
// uploads.
type GlyphPrecache interface {
	Precache(paint *record.Paint, glyphs record.Glyphs, transform gmath.Transform)
	EndPrecaching()
}

// PathPrecache warms the path rasterization cache.
type PathPrecache interface {
	Precache(els []curve.PathElement, paint *record.Paint)
}

// LayerUpdate is one pending hardware-layer repaint.
type LayerUpdate struct {
	Node   *record.RenderNode
	Damage gmath.Rect
}

// LayerUpdateQueue gathers damaged hardware layers between frames.
// Iteration order is first-enqueue order; re-enqueueing a node unions its
// damage.
type LayerUpdateQueue struct {
	entries []LayerUpdate
}

func (q *LayerUpdateQueue) Enqueue(node *record.RenderNode, damage gmath.Rect) {
	damage = damage.RoundOut().Intersect(
		gmath.RectWH(0, 0, node.Properties.Width(), node.Properties.Height()))
	if damage.IsEmpty() {
		return
	}
	for i := range q.entries {
		if q.entries[i].Node == node {
			q.entries[i].Damage = q.entries[i].Damage.Union(damage)
			return
		}
	}
	q.entries = append(q.entries, LayerUpdate{Node: node, Damage: damage})
}

func (q *LayerUpdateQueue) Entries() []LayerUpdate { return q.entries }

func (q *LayerUpdateQueue) Clear() { q.entries = nil }
