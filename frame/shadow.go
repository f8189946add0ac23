// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package frame

import (
	"sort"

	"github.com/glazegfx/glaze/gmath"
	"github.com/glazegfx/glaze/mem"
	"github.com/glazegfx/glaze/record"
)

// shadowFlattenTolerance is the max deviation, in pixels, when caster
// outlines and path clips are flattened to polygons.
const shadowFlattenTolerance = 0.25

// casterZEpsilon groups casters whose heights differ by less than this:
// their shadows draw together, underneath both, so neither shadow lands on
// the other caster.
const casterZEpsilon = 0.1

type childSelectMode uint8

const (
	selectNegative childSelectMode = iota
	selectPositive
)

type zChild struct {
	z  float32
	op *record.Op
}

// buildZSortedChildList collects the chunk's Z-translated children for
// out-of-order drawing and marks them to skip their recorded position.
// The sort is stable so equal-Z children keep record order.
func buildZSortedChildList(dl *record.DisplayList, chunk *record.Chunk) []zChild {
	if chunk.BeginChildIndex == chunk.EndChildIndex {
		return nil
	}
	var out []zChild
	for i := chunk.BeginChildIndex; i < chunk.EndChildIndex; i++ {
		childOp := dl.Children[i]
		z := childOp.Node.Properties.Z()
		if chunk.ReorderChildren && !gmath.ApproxEqual(z, 0) {
			out = append(out, zChild{z: z, op: childOp})
			childOp.SkipInOrderDraw = true
		} else if !childOp.Node.Properties.ProjectBackwards {
			childOp.SkipInOrderDraw = false
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].z < out[j].z })
	return out
}

func findNonNegativeIndex(children []zChild) int {
	for i, c := range children {
		if c.z >= 0 {
			return i
		}
	}
	return len(children)
}

// defer3dChildren draws one side of a chunk's Z-sorted children. Negative
// Z children sit under their parent's content and cast no shadows;
// positive Z children draw above it, each preceded by its shadow unless a
// near-equal-Z neighbor's shadow already grouped with it.
func (fb *FrameBuilder) defer3dChildren(reorderClip *record.Clip, mode childSelectMode,
	children []zChild) {
	size := len(children)
	if size == 0 ||
		(mode == selectNegative && children[0].z > 0) ||
		(mode == selectPositive && children[size-1].z < 0) {
		return
	}

	nonNegativeIndex := findNonNegativeIndex(children)
	var drawIndex, shadowIndex, endIndex int
	if mode == selectNegative {
		drawIndex = 0
		endIndex = nonNegativeIndex
		shadowIndex = endIndex // draw no shadows
	} else {
		drawIndex = nonNegativeIndex
		endIndex = size
		shadowIndex = drawIndex
	}

	lastCasterZ := float32(0)
	for shadowIndex < endIndex || drawIndex < endIndex {
		if shadowIndex < endIndex {
			casterZ := children[shadowIndex].z
			if shadowIndex == drawIndex || casterZ-lastCasterZ < casterZEpsilon {
				fb.deferShadow(reorderClip, children[shadowIndex].op)
				lastCasterZ = casterZ
				shadowIndex++
				continue
			}
		}
		fb.deferRenderNodeOp(children[drawIndex].op)
		drawIndex++
	}
}

// deferShadow defers the shadow cast by one reordered child. The caster
// silhouette is its outline, cut down by the reveal clip and clip bounds;
// tessellation is handed off so it can run ahead of replay.
func (fb *FrameBuilder) deferShadow(reorderClip *record.Clip, casterOp *record.Op) {
	node := casterOp.Node
	props := &node.Properties

	casterAlpha := props.Alpha * props.Outline.Alpha
	outlinePath := props.Outline.CasterPath()
	if casterAlpha <= 0 || outlinePath == nil ||
		props.ScaleX == 0 || props.ScaleY == 0 {
		return
	}
	if rc := props.RevealClip; rc.Enabled && rc.Radius <= 0 {
		return
	}

	perimeter := gmath.FlattenPath(outlinePath, shadowFlattenTolerance)
	if rc := props.RevealClip; rc.Enabled {
		circle := gmath.FlattenPath(gmath.CirclePath(rc.X, rc.Y, rc.Radius),
			shadowFlattenTolerance)
		perimeter = perimeter.ClipConvex(circle)
	}
	if props.ClipBounds != nil {
		perimeter = perimeter.ClipRect(*props.ClipBounds)
	}
	if len(perimeter) < 3 {
		return
	}

	// The shadow honors the clip at the reorder barrier even though the
	// caster, drawn later and higher, does not.
	count := fb.cs.Save(record.SaveMatrixClip)
	fb.cs.ApplyRecordedClip(reorderClip)
	if !fb.cs.Top().Clip.IsEmpty() {
		casterTransform := casterOp.LocalTransform.Mul(props.TransformMatrix())
		desc := mem.Make(fb.arena, record.ShadowDescription{
			CasterPerimeter: perimeter,
			TransformXY:     casterTransform,
			TransformZ:      casterTransform,
			CasterZ:         props.Z(),
			CasterAlpha:     casterAlpha,
			CasterIsOpaque:  casterAlpha >= 1,
			LightCenter:     fb.cs.Top().RelativeLight,
			LightRadius:     fb.light.Radius,
		})
		if fb.opts.Shadows != nil {
			desc.Task = fb.opts.Shadows.GetShadowTask(
				fb.cs.Top().Transform, fb.cs.Top().Clip.Bounds(), desc)
		}
		shadowOp := mem.Make(fb.arena, record.Op{
			Kind:           record.OpShadow,
			LocalTransform: gmath.Identity,
			Shadow:         desc,
		})
		if state := TryShadowConstruct(fb.arena, fb.cs.Top(), shadowOp); state != nil {
			fb.currentLayer().DeferUnmergeableOp(fb.arena, state, BatchShadow)
		}
	}
	fb.cs.RestoreToCount(count)
}
