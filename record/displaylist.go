// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package record

// Chunk is a contiguous run of a display list's ops sharing one child
// ordering mode. Chunk boundaries fall on reorder barriers; within a
// reordering chunk, child nodes are sorted by Z at defer time instead of
// drawn in record order.
type Chunk struct {
	BeginOpIndex int
	EndOpIndex   int

	// Child index range into DisplayList.Children for the node refs
	// recorded inside this chunk.
	BeginChildIndex int
	EndChildIndex   int

	ReorderChildren bool

	// ReorderClip is the recorded clip in effect when the chunk's reorder
	// barrier was inserted. Shadows cast by the chunk's reordered children
	// are clipped by it even though the casters themselves are not.
	ReorderClip *Clip
}

// DisplayList is the recorded output of one render node: its ops, the
// child node refs among them, and the chunking that drives Z reordering.
// Once Finish has run it is immutable.
type DisplayList struct {
	Ops []*Op

	// Children are the OpRenderNode entries of Ops, in record order.
	Children []*Op

	Chunks []Chunk

	// ProjectionReceiveIndex is the index into Ops of the child that
	// receives projected content, or -1.
	ProjectionReceiveIndex int
}

// IsEmpty reports whether replaying the list could draw anything.
func (dl *DisplayList) IsEmpty() bool {
	return dl == nil || len(dl.Ops) == 0
}

// HasFunctor reports whether the list or any reachable child list records
// a functor op. Functor content is unbounded, which disables damage-based
// culling for the subtree.
func (dl *DisplayList) HasFunctor() bool {
	if dl == nil {
		return false
	}
	for _, op := range dl.Ops {
		if op.Kind == OpFunctor {
			return true
		}
		if op.Kind == OpRenderNode && op.Node.DisplayList.HasFunctor() {
			return true
		}
	}
	return false
}
