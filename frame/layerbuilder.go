// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package frame

import (
	"github.com/glazegfx/glaze/gmath"
	"github.com/glazegfx/glaze/mem"
	"github.com/glazegfx/glaze/offscreen"
	"github.com/glazegfx/glaze/record"
)

// LayerBuilder accumulates the batched ops of one render target: the
// primary target, a temporary save layer, or a hardware layer repaint.
type LayerBuilder struct {
	width, height uint32
	repaintClip   gmath.Rect

	// offscreen is the buffer this layer renders into. For temporary
	// layers it is nil until replay produces one; the LayerOp compositing
	// this layer points at the field itself.
	offscreen *offscreen.Buffer

	// beginLayerOp is set for save layers; its paint and placement
	// composite the finished layer.
	beginLayerOp *record.Op

	// parentTransform is the snapshot transform captured when the layer
	// began. The composite op is baked against it, so transforms mutated
	// between begin and end cannot shift the layer.
	parentTransform gmath.Transform

	// compositeBounds and compositeTransform place the finished layer in
	// the parent. They differ from the begin op's recorded placement when
	// the layer was shrunk to the visible part of its requested bounds.
	compositeBounds    gmath.Rect
	compositeTransform gmath.Transform

	// node is set for hardware layer repaints.
	node *record.RenderNode

	batches        []*batch
	batchLookup    [NumBatchIDs]*batch
	mergingBatches [NumBatchIDs]mem.OrderedMap[uint64, *batch]

	// activeUnclippedLayers stacks the open unclipped save layers; a nil
	// handle marks a rejected layer whose end op is a no-op.
	activeUnclippedLayers []unclippedLayer

	clearRects []gmath.Rect
	hasDrawOps bool
}

// unclippedLayer is one open unclipped save layer: the handle the copy
// ops share, the destination rect in the target, and the begin op's
// recorded placement, which the copy-back op reuses.
type unclippedLayer struct {
	handle    **offscreen.Buffer
	dst       gmath.Rect
	bounds    gmath.Rect
	transform gmath.Transform
	paint     *record.Paint
}

func newLayerBuilder(a *mem.Arena, width, height uint32, repaint gmath.Rect,
	beginLayerOp *record.Op, node *record.RenderNode) *LayerBuilder {
	return mem.Make(a, LayerBuilder{
		width:        width,
		height:       height,
		repaintClip:  repaint,
		beginLayerOp: beginLayerOp,
		node:         node,
	})
}

func (lb *LayerBuilder) empty() bool { return len(lb.batches) == 0 }

// clear drops all batched work; used when the layer's composite op is
// rejected, so the layer contents would never be visible.
func (lb *LayerBuilder) clear() {
	lb.batches = nil
	lb.batchLookup = [NumBatchIDs]*batch{}
	lb.mergingBatches = [NumBatchIDs]mem.OrderedMap[uint64, *batch]{}
}

// onDeferOp runs before any op lands in a batch. Pending layer clears are
// flushed as late as possible: right before the first op that isn't
// copying content out of the target. An opaque op covering the whole
// repaint region occludes everything deferred so far, which is discarded.
func (lb *LayerBuilder) onDeferOp(a *mem.Arena, state *BakedOpState) {
	if state.Op.Kind != record.OpCopyToLayer {
		lb.flushLayerClears(a)
		if len(lb.activeUnclippedLayers) == 0 && state.OpaqueOverClippedBounds &&
			state.ClippedBounds.Contains(lb.repaintClip) {
			lb.clear()
		}
	}
	lb.hasDrawOps = true
}

// DeferLayerClear schedules a region of the target for clearing before
// its first draw, used under unclipped save layers.
func (lb *LayerBuilder) DeferLayerClear(rect gmath.Rect) {
	lb.clearRects = append(lb.clearRects, rect)
}

func (lb *LayerBuilder) flushLayerClears(a *mem.Arena) {
	if len(lb.clearRects) == 0 {
		return
	}
	rects := lb.clearRects
	lb.clearRects = nil

	verts := mem.NewSlice[[]float32](a, 0, len(rects)*8)
	bounds := rects[0]
	for _, r := range rects {
		bounds = bounds.Union(r)
		verts = append(verts,
			r.Left, r.Top, r.Right, r.Top,
			r.Left, r.Bottom, r.Right, r.Bottom)
	}
	op := mem.Make(a, record.Op{
		Kind:           record.OpSimpleRects,
		UnmappedBounds: bounds,
		LocalTransform: gmath.Identity,
		Paint:          &clearPaint,
		Rects:          verts,
	})
	state := DirectConstruct(a, lb.repaintClip, bounds, op)
	lb.DeferUnmergeableOp(a, state, BatchVertices)
}

var clearPaint = record.Paint{Blend: record.BlendClear}

// locateInsertIndex scans batches in reverse for one the op may join.
// Returns the batch to reuse (nil when a new batch is needed) and where a
// new batch would be inserted to preserve draw order.
func (lb *LayerBuilder) locateInsertIndex(target *batch, bounds gmath.Rect) (*batch, int) {
	insert := len(lb.batches)
	for i := len(lb.batches) - 1; i >= 0; i-- {
		over := lb.batches[i]
		if over == target {
			return target, insert
		}
		if over.intersects(bounds) {
			// a later batch draws on top of this op's region; joining the
			// earlier target would reorder visibly
			return nil, i + 1
		}
	}
	return target, insert
}

// DeferUnmergeableOp places the op in the latest same-kind batch that
// order allows, or opens a new one.
func (lb *LayerBuilder) DeferUnmergeableOp(a *mem.Arena, state *BakedOpState, id BatchID) {
	lb.onDeferOp(a, state)
	target := lb.batchLookup[id]
	insert := len(lb.batches)
	if target != nil {
		target, insert = lb.locateInsertIndex(target, state.ClippedBounds)
	}
	if target != nil {
		target.batchOp(a, state)
		return
	}
	target = newBatch(a, id, state)
	lb.batchLookup[id] = target
	lb.insertBatch(a, target, insert)
}

// DeferMergeableOp places the op in the same-key merging batch when order
// and clip rules allow, falling back to a fresh merging batch.
func (lb *LayerBuilder) DeferMergeableOp(a *mem.Arena, state *BakedOpState, id BatchID, mergeKey uint64) {
	lb.onDeferOp(a, state)
	var target *batch
	if existing, ok := lb.mergingBatches[id].Get(mergeKey); ok {
		if existing.canMergeWith(state) {
			target = existing
		}
	}
	insert := len(lb.batches)
	if target != nil {
		target, insert = lb.locateInsertIndex(target, state.ClippedBounds)
	}
	if target != nil {
		target.mergeOp(a, state)
		return
	}
	target = newMergingBatch(a, id, mergeKey, state)
	lb.mergingBatches[id].Insert(a, mergeKey, target)
	lb.insertBatch(a, target, insert)
}

func (lb *LayerBuilder) insertBatch(a *mem.Arena, b *batch, at int) {
	lb.batches = mem.Append(a, lb.batches, nil)
	copy(lb.batches[at+1:], lb.batches[at:])
	lb.batches[at] = b
}

// replayInto dispatches the layer's batches in order. Merging batches
// holding more than one op go through the merged path.
func (lb *LayerBuilder) replayInto(r Renderer) {
	for _, b := range lb.batches {
		if b.merging && len(b.ops) > 1 {
			r.OnMergedOps(b.id, b.mergedList())
			continue
		}
		for _, state := range b.ops {
			r.OnOp(state.Op, state)
		}
	}
}

// BatchCount reports the number of batches deferred so far, a coarse
// measure of how many state changes replay will need.
func (lb *LayerBuilder) BatchCount() int { return len(lb.batches) }

// OpCount reports the total deferred ops across batches.
func (lb *LayerBuilder) OpCount() int {
	n := 0
	for _, b := range lb.batches {
		n += len(b.ops)
	}
	return n
}
