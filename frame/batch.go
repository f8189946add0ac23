// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package frame

import (
	"github.com/glazegfx/glaze/gmath"
	"github.com/glazegfx/glaze/mem"
)

// BatchID groups ops by the GPU state they share. Ops in the same batch
// replay together when ordering allows it.
type BatchID uint8

const (
	BatchNone BatchID = iota
	BatchBitmap
	BatchPatch
	BatchAlphaVertices
	BatchVertices
	BatchAlphaMaskTexture
	BatchText
	BatchColorText
	BatchShadow
	BatchTextureLayer
	BatchFunctor
	BatchCopyToLayer
	BatchCopyFromLayer

	NumBatchIDs
)

var batchIDNames = [NumBatchIDs]string{
	"None", "Bitmap", "Patch", "AlphaVertices", "Vertices",
	"AlphaMaskTexture", "Text", "ColorText", "Shadow", "TextureLayer",
	"Functor", "CopyToLayer", "CopyFromLayer",
}

func (id BatchID) String() string {
	if id < NumBatchIDs {
		return batchIDNames[id]
	}
	return "Unknown"
}

// MergedOpList is what a merged batch replays as: same-keyed states drawn
// in one call, sharing at most one rect clip.
type MergedOpList struct {
	States []*BakedOpState

	// ClipSideFlags is the union of the states' actually-cut sides; Clip
	// is nil when no state was clipped.
	ClipSideFlags int
	Clip          *gmath.Rect
}

type batch struct {
	id     BatchID
	bounds gmath.Rect
	ops    []*BakedOpState

	// merging batch state
	merging       bool
	mergeKey      uint64
	clipSideFlags int
	clipRect      gmath.Rect
}

func newBatch(a *mem.Arena, id BatchID, op *BakedOpState) *batch {
	b := mem.Make(a, batch{id: id, bounds: op.ClippedBounds})
	b.ops = mem.Append(a, b.ops, op)
	return b
}

func newMergingBatch(a *mem.Arena, id BatchID, key uint64, op *BakedOpState) *batch {
	b := newBatch(a, id, op)
	b.merging = true
	b.mergeKey = key
	b.clipSideFlags = op.ClipSideFlags
	b.clipRect = op.ClipRect
	return b
}

func (b *batch) batchOp(a *mem.Arena, op *BakedOpState) {
	b.bounds = b.bounds.Union(op.ClippedBounds)
	b.ops = mem.Append(a, b.ops, op)
}

// mergeOp adopts the new op's clip edges on the sides where it is actually
// cut; canMergeWith already guaranteed those edges don't cut any existing
// member's geometry.
func (b *batch) mergeOp(a *mem.Arena, op *BakedOpState) {
	b.batchOp(a, op)
	flags := op.ClipSideFlags
	if flags&ClipSideLeft != 0 {
		b.clipRect.Left = op.ClipRect.Left
	}
	if flags&ClipSideTop != 0 {
		b.clipRect.Top = op.ClipRect.Top
	}
	if flags&ClipSideRight != 0 {
		b.clipRect.Right = op.ClipRect.Right
	}
	if flags&ClipSideBottom != 0 {
		b.clipRect.Bottom = op.ClipRect.Bottom
	}
	b.clipSideFlags |= flags
}

// intersects checks the union bounds first, then per-op clipped bounds, so
// loose batches don't block insertion spuriously.
func (b *batch) intersects(r gmath.Rect) bool {
	if !b.bounds.Intersects(r) {
		return false
	}
	for _, op := range b.ops {
		if op.ClippedBounds.Intersects(r) {
			return true
		}
	}
	return false
}

// checkSide verifies one axis of clip compatibility: a batch whose
// geometry is cut on a side cannot adopt an op extending past it, and vice
// versa, because merged replay redraws full geometry.
func checkSide(currentFlags, newFlags, side int, boundsDelta float32) bool {
	if boundsDelta > 0 && currentFlags&side != 0 {
		return false
	}
	if boundsDelta < 0 && newFlags&side != 0 {
		return false
	}
	return true
}

// canMergeWith reports whether op can join this merging batch without
// changing what any member draws.
func (b *batch) canMergeWith(op *BakedOpState) bool {
	if op.LocalProjectionPathMask != nil {
		return false
	}
	// merged replay shares one rect clip; complex clips can't join
	if !op.MergeableClip() || !b.ops[0].MergeableClip() {
		return false
	}
	cur, nxt := b.clipSideFlags, op.ClipSideFlags
	if cur != ClipSideNone || nxt != ClipSideNone {
		ob := op.ClippedBounds
		if !checkSide(cur, nxt, ClipSideLeft, b.bounds.Left-ob.Left) {
			return false
		}
		if !checkSide(cur, nxt, ClipSideTop, b.bounds.Top-ob.Top) {
			return false
		}
		if !checkSide(cur, nxt, ClipSideRight, ob.Right-b.bounds.Right) {
			return false
		}
		if !checkSide(cur, nxt, ClipSideBottom, ob.Bottom-b.bounds.Bottom) {
			return false
		}
	}
	return true
}

func (b *batch) mergedList() MergedOpList {
	list := MergedOpList{States: b.ops, ClipSideFlags: b.clipSideFlags}
	if b.clipSideFlags != ClipSideNone {
		// unflagged sides never constrained the members, so the batch
		// bounds bound them more tightly than the adopted clip
		clip := b.clipRect.Intersect(b.bounds)
		list.Clip = &clip
	}
	return list
}
