// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package frame

import (
	"github.com/glazegfx/glaze"
	"github.com/glazegfx/glaze/gmath"
	"github.com/glazegfx/glaze/mem"
	"github.com/glazegfx/glaze/offscreen"
	"github.com/glazegfx/glaze/record"
)

// Options are the optional services wired into a FrameBuilder. Any of them
// may be nil; the corresponding work is simply skipped.
type Options struct {
	Shadows ShadowTessellator
	Glyphs  GlyphPrecache
	Paths   PathPrecache
}

// FrameBuilder walks render node trees and turns them into an ordered set
// of LayerBuilders, one per render target. Drawing commands are baked,
// reordered and batched during the walk; Replay hands the result to a
// Renderer back to front.
//
// A FrameBuilder is used for exactly one frame: construct, defer, replay,
// discard. All transient state lives in the frame arena.
type FrameBuilder struct {
	arena  *mem.Arena
	cs     CanvasState
	light  LightGeometry
	device DeviceInfo
	opts   Options

	// layerBuilders[0] is the primary target; the stack tracks which
	// builder currently receives ops.
	layerBuilders []*LayerBuilder
	layerStack    []int

	drawFbo0 bool
}

// NewFrameBuilder starts a frame targeting the primary surface.
func NewFrameBuilder(a *mem.Arena, repaint gmath.Rect, viewportWidth, viewportHeight uint32,
	light LightGeometry, device DeviceInfo, opts Options) *FrameBuilder {
	fb := &FrameBuilder{
		arena:    a,
		cs:       newCanvasState(a, repaint, light.Center),
		light:    light,
		device:   device,
		opts:     opts,
		drawFbo0: true,
	}
	fb.layerBuilders = append(fb.layerBuilders,
		newLayerBuilder(a, viewportWidth, viewportHeight, repaint, nil, nil))
	fb.layerStack = append(fb.layerStack, 0)
	return fb
}

// NewFrameBuilderForLayers starts a layer-only frame: the queued hardware
// layer repaints are deferred, but no primary surface is drawn. Used when
// layer updates must run without a main frame behind them.
func NewFrameBuilderForLayers(a *mem.Arena, light LightGeometry, device DeviceInfo,
	queue *LayerUpdateQueue, opts Options) *FrameBuilder {
	fb := &FrameBuilder{
		arena:  a,
		cs:     newCanvasState(a, gmath.Rect{}, light.Center),
		light:  light,
		device: device,
		opts:   opts,
	}
	fb.layerBuilders = append(fb.layerBuilders,
		newLayerBuilder(a, 0, 0, gmath.Rect{}, nil, nil))
	fb.layerStack = append(fb.layerStack, 0)
	fb.DeferLayers(queue)
	return fb
}

func (fb *FrameBuilder) currentLayer() *LayerBuilder {
	return fb.layerBuilders[fb.layerStack[len(fb.layerStack)-1]]
}

// DeferLayers defers the queued hardware layer repaints. Entries run most
// recently damaged first, so a layer that composites another always sees
// its freshly deferred content.
func (fb *FrameBuilder) DeferLayers(queue *LayerUpdateQueue) {
	entries := queue.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		node := entries[i].Node
		layer := node.Layer
		if layer == nil || node.DisplayList.IsEmpty() {
			glaze.Logger().Warn("skipping layer update for node without layer",
				"node", node.Name)
			continue
		}
		damage := entries[i].Damage.Intersect(gmath.RectWH(0, 0,
			float32(layer.ViewportWidth), float32(layer.ViewportHeight)))
		if damage.IsEmpty() {
			continue
		}
		node.ComputeOrdering()

		// The shadow light is positioned over the window; bring it into
		// the layer's space.
		light := fb.light.Center
		light.X, light.Y = layer.InverseTransformInWindow.MapPoint(light.X, light.Y)

		fb.saveForLayer(layer.ViewportWidth, layer.ViewportHeight,
			gmath.Identity, damage, light, nil, node)
		fb.deferNodeOps(node)
		fb.restoreForLayer()
	}
}

// DeferRenderNode defers a tree at the current target's origin.
func (fb *FrameBuilder) DeferRenderNode(node *record.RenderNode) {
	node.ComputeOrdering()
	count := fb.cs.Save(record.SaveMatrixClip)
	fb.deferNodePropsAndOps(node)
	fb.cs.RestoreToCount(count)
}

// DeferRenderNodeTranslate defers a tree translated by (x, y) and clipped
// to clip, given in the translated space.
func (fb *FrameBuilder) DeferRenderNodeTranslate(node *record.RenderNode,
	x, y float32, clip gmath.Rect) {
	node.ComputeOrdering()
	count := fb.cs.Save(record.SaveMatrixClip)
	fb.cs.Translate(x, y)
	fb.cs.ClipRect(clip)
	fb.deferNodePropsAndOps(node)
	fb.cs.RestoreToCount(count)
}

func nodeBounds(node *record.RenderNode) gmath.Rect {
	p := &node.Properties
	return gmath.RectLTRB(p.Left, p.Top, p.Right, p.Bottom)
}

// DeferRenderNodeScene defers a window's node list. With multiple nodes
// they are layered as backdrop, content, then overlays: during a window
// resize the backdrop shows through where the content hasn't caught up, so
// the backdrop is drawn only in the uncovered right/bottom strips, and the
// content is shifted and clipped to the backdrop's bounds.
func (fb *FrameBuilder) DeferRenderNodeScene(nodes []*record.RenderNode,
	contentDrawBounds gmath.Rect) {
	if len(nodes) == 0 {
		return
	}
	if len(nodes) == 1 || contentDrawBounds.IsEmpty() {
		for _, node := range nodes {
			if !node.NothingToDraw() {
				fb.DeferRenderNode(node)
			}
		}
		return
	}

	backdrop := nodeBounds(nodes[0])
	// Bounds the content will fill, pinned to the backdrop's top left. The
	// content node itself may be bigger.
	content := gmath.RectWH(backdrop.Left, backdrop.Top,
		contentDrawBounds.Width(), contentDrawBounds.Height())

	if !content.Contains(backdrop) && !nodes[0].NothingToDraw() {
		// Fill the area the content leaves uncovered. The bottom strip
		// spans only the content's width so the two never overlap.
		if content.Right < backdrop.Right {
			fb.DeferRenderNodeTranslate(nodes[0], 0, 0, gmath.RectLTRB(
				content.Right, backdrop.Top, backdrop.Right, backdrop.Bottom))
		}
		if content.Bottom < backdrop.Bottom {
			fb.DeferRenderNodeTranslate(nodes[0], 0, 0, gmath.RectLTRB(
				content.Left, content.Bottom, content.Right, backdrop.Bottom))
		}
	}

	next := 1
	if !backdrop.IsEmpty() {
		dx := backdrop.Left - contentDrawBounds.Left
		dy := backdrop.Top - contentDrawBounds.Top
		fb.DeferRenderNodeTranslate(nodes[1], dx, dy, backdrop.Translate(-dx, -dy))
		next = 2
	}
	for ; next < len(nodes); next++ {
		if !nodes[next].NothingToDraw() {
			fb.DeferRenderNode(nodes[next])
		}
	}
}

// deferNodePropsAndOps applies a node's animatable properties (transform,
// alpha, clipping) to the snapshot, then defers its content directly, into
// an implicit save layer, or as a composite of its hardware layer.
func (fb *FrameBuilder) deferNodePropsAndOps(node *record.RenderNode) {
	props := &node.Properties
	outline := &props.Outline
	// animators can overshoot the [0, 1] range
	alpha := gmath.Clamp(props.Alpha, 0, 1)
	if alpha <= 0 ||
		(outline.ShouldClip && outline.Type == record.OutlineEmpty) ||
		props.ScaleX == 0 || props.ScaleY == 0 {
		return
	}

	fb.cs.Concat(props.TransformMatrix())

	width, height := props.Width(), props.Height()

	var saveLayerBounds gmath.Rect
	clipRect, hasClip := props.ClippingRect()
	if alpha < 1 {
		if !props.HasOverlappingRendering {
			// Content never self-overlaps, so per-op alpha looks identical
			// to a composited layer and costs nothing.
			fb.cs.ScaleAlpha(alpha)
		} else {
			saveLayerBounds = gmath.RectWH(0, 0, width, height)
			if hasClip {
				// fold the clip into the layer bounds, clipping is then
				// done by the layer itself
				saveLayerBounds = saveLayerBounds.Intersect(clipRect)
				hasClip = false
			}
		}
	}
	if hasClip {
		fb.cs.ClipRect(clipRect)
	}

	if rc := props.RevealClip; rc.Enabled {
		fb.cs.ClipRoundRect(gmath.RoundRect{
			Rect: gmath.RectLTRB(rc.X-rc.Radius, rc.Y-rc.Radius,
				rc.X+rc.Radius, rc.Y+rc.Radius),
			Radius: rc.Radius,
		})
	} else if outline.ShouldClip {
		switch outline.Type {
		case record.OutlineRoundRect:
			fb.cs.ClipRoundRect(gmath.RoundRect{Rect: outline.Bounds, Radius: outline.Radius})
		case record.OutlinePath:
			fb.cs.ClipPath(gmath.FlattenPath(outline.Path, shadowFlattenTolerance))
		}
	}

	quickRejected := fb.cs.Top().Clip.IsEmpty() ||
		(props.ClipToBounds && fb.cs.QuickRejects(gmath.RectWH(0, 0, width, height)))
	if quickRejected {
		return
	}

	switch {
	case props.LayerKind == record.LayerHardware && node.Layer != nil:
		// Composite the retained layer; its content was deferred (if
		// damaged) by DeferLayers.
		op := mem.Make(fb.arena, record.Op{
			Kind:           record.OpLayer,
			UnmappedBounds: gmath.RectWH(0, 0, width, height),
			LocalTransform: gmath.Identity,
			Paint:          props.LayerPaint,
			Layer:          &node.Layer,
		})
		state := TryConstruct(fb.arena, fb.cs.Top(), op)
		if state == nil {
			return
		}
		if inv, ok := state.Transform.Invert(); ok {
			node.Layer.InverseTransformInWindow = inv
		}
		fb.currentLayer().DeferUnmergeableOp(fb.arena, state, BatchBitmap)
	case !saveLayerBounds.IsEmpty():
		// Overlapping content with alpha: draw through a temporary layer
		// so the alpha applies once, at composite time.
		layerPaint := mem.Make(fb.arena, record.Paint{
			Color: uint32(alpha*255+0.5) << 24,
		})
		beginOp := mem.Make(fb.arena, record.Op{
			Kind:           record.OpBeginLayer,
			UnmappedBounds: saveLayerBounds,
			LocalTransform: gmath.Identity,
			Paint:          layerPaint,
		})
		fb.onBeginLayerOp(beginOp)
		fb.deferNodeOps(node)
		fb.onEndLayerOp()
	default:
		fb.deferNodeOps(node)
	}
}

// deferNodeOps walks one node's display list chunk by chunk: negative Z
// children first, the recorded ops (descending into child nodes and
// projection) in order, then positive Z children with their shadows.
func (fb *FrameBuilder) deferNodeOps(node *record.RenderNode) {
	dl := node.DisplayList
	if dl.IsEmpty() {
		return
	}
	for ci := range dl.Chunks {
		chunk := &dl.Chunks[ci]
		zChildren := buildZSortedChildList(dl, chunk)

		fb.defer3dChildren(chunk.ReorderClip, selectNegative, zChildren)
		for i := chunk.BeginOpIndex; i < chunk.EndOpIndex; i++ {
			fb.deferOp(dl.Ops[i])
			if len(node.ProjectedNodes) > 0 && i == dl.ProjectionReceiveIndex {
				fb.deferProjectedChildren(node)
			}
		}
		fb.defer3dChildren(chunk.ReorderClip, selectPositive, zChildren)
	}
}

func (fb *FrameBuilder) deferOp(op *record.Op) {
	switch op.Kind {
	case record.OpRect:
		if state := TryStrokeableConstruct(fb.arena, fb.cs.Top(), op, StrokeStyleDefined); state != nil {
			if op.Paint.GetStyle() != record.StyleStroke {
				state.setupOpacity(op.Paint)
			}
			fb.currentLayer().DeferUnmergeableOp(fb.arena, state, tessBatchID(op.Paint))
		}
	case record.OpRoundRect, record.OpOval, record.OpArc:
		fb.deferStrokeableOp(op, StrokeStyleDefined, tessBatchID(op.Paint))
	case record.OpLines, record.OpPoints:
		fb.deferStrokeableOp(op, StrokeForced, tessBatchID(op.Paint))
	case record.OpPath:
		if state := TryConstruct(fb.arena, fb.cs.Top(), op); state != nil {
			fb.currentLayer().DeferUnmergeableOp(fb.arena, state, BatchAlphaMaskTexture)
			if fb.opts.Paths != nil {
				fb.opts.Paths.Precache(op.Path, op.Paint)
			}
		}
	case record.OpBitmap:
		fb.deferBitmapOp(op)
	case record.OpBitmapRect, record.OpBitmapMesh, record.OpVectorDrawable:
		if state := TryConstruct(fb.arena, fb.cs.Top(), op); state != nil {
			fb.currentLayer().DeferUnmergeableOp(fb.arena, state, BatchBitmap)
		}
	case record.OpPatch:
		fb.deferPatchOp(op)
	case record.OpText:
		fb.deferTextOp(op)
	case record.OpTextOnPath:
		if state := TryConstruct(fb.arena, fb.cs.Top(), op); state != nil {
			fb.currentLayer().DeferUnmergeableOp(fb.arena, state, textBatchID(op.Paint))
		}
	case record.OpColor:
		if state := TryUnboundedConstruct(fb.arena, fb.cs.Top(), op); state != nil {
			fb.currentLayer().DeferUnmergeableOp(fb.arena, state, BatchVertices)
		}
	case record.OpFunctor:
		if state := TryUnboundedConstruct(fb.arena, fb.cs.Top(), op); state != nil {
			fb.currentLayer().DeferUnmergeableOp(fb.arena, state, BatchFunctor)
		}
	case record.OpTextureLayer:
		if state := TryConstruct(fb.arena, fb.cs.Top(), op); state != nil {
			fb.currentLayer().DeferUnmergeableOp(fb.arena, state, BatchTextureLayer)
		}
	case record.OpRenderNode:
		if !op.SkipInOrderDraw {
			fb.deferRenderNodeOp(op)
		}
	case record.OpBeginLayer:
		fb.onBeginLayerOp(op)
	case record.OpEndLayer:
		fb.onEndLayerOp()
	case record.OpBeginUnclippedLayer:
		fb.onBeginUnclippedLayerOp(op)
	case record.OpEndUnclippedLayer:
		fb.onEndUnclippedLayerOp()
	default:
		panic("frame: op kind " + op.Kind.String() + " cannot be recorded")
	}
}

// tessBatchID routes tessellated geometry by whether its edges need alpha
// blending.
func tessBatchID(paint *record.Paint) BatchID {
	if paint != nil && paint.AntiAlias {
		return BatchAlphaVertices
	}
	return BatchVertices
}

// textBatchID keeps plain black text, by far the most common, in its own
// batch so colored runs don't break it up.
func textBatchID(paint *record.Paint) BatchID {
	if paint != nil && paint.Color&0x00FFFFFF != 0 {
		return BatchColorText
	}
	return BatchText
}

func (fb *FrameBuilder) deferStrokeableOp(op *record.Op, behavior StrokeBehavior, id BatchID) {
	if state := TryStrokeableConstruct(fb.arena, fb.cs.Top(), op, behavior); state != nil {
		fb.currentLayer().DeferUnmergeableOp(fb.arena, state, id)
	}
}

func (fb *FrameBuilder) deferBitmapOp(op *record.Op) {
	state := TryConstruct(fb.arena, fb.cs.Top(), op)
	if state == nil {
		return
	}
	if op.Bitmap.IsOpaque() {
		state.setupOpacity(op.Paint)
	}
	// Only translated, unrotated bitmaps drawn source-over at full alpha
	// can redraw at merged positions without changing output. Alpha8
	// bitmaps stay unmerged: they draw tinted by the paint color.
	if state.Transform.IsPureTranslate() && state.MergeableClip() &&
		op.Paint.Alpha() == 255 && op.Paint.BlendMode() == record.BlendSrcOver &&
		op.Bitmap.Format != record.BitmapAlpha8 {
		fb.currentLayer().DeferMergeableOp(fb.arena, state, BatchBitmap, op.Bitmap.MergeKey())
	} else {
		fb.currentLayer().DeferUnmergeableOp(fb.arena, state, BatchBitmap)
	}
}

func (fb *FrameBuilder) deferPatchOp(op *record.Op) {
	state := TryConstruct(fb.arena, fb.cs.Top(), op)
	if state == nil {
		return
	}
	if state.Transform.IsPureTranslate() && state.MergeableClip() &&
		op.Paint.Alpha() == 255 && op.Paint.BlendMode() == record.BlendSrcOver {
		key := op.Bitmap.MergeKey()<<32 | op.Patch.MergeKey()&0xFFFFFFFF
		fb.currentLayer().DeferMergeableOp(fb.arena, state, BatchPatch, key)
	} else {
		fb.currentLayer().DeferUnmergeableOp(fb.arena, state, BatchPatch)
	}
}

func (fb *FrameBuilder) deferTextOp(op *record.Op) {
	state := TryStrokeableConstruct(fb.arena, fb.cs.Top(), op, StrokeStyleDefined)
	if state == nil {
		return
	}
	id := textBatchID(op.Paint)
	if state.Transform.IsPureTranslate() && state.MergeableClip() &&
		op.Paint.BlendMode() == record.BlendSrcOver {
		var key uint64
		if op.Paint != nil {
			key = uint64(op.Paint.Color)
		}
		fb.currentLayer().DeferMergeableOp(fb.arena, state, id, key)
	} else {
		fb.currentLayer().DeferUnmergeableOp(fb.arena, state, id)
	}
	if fb.opts.Glyphs != nil {
		fb.opts.Glyphs.Precache(op.Paint, op.Glyphs, state.Transform)
	}
}

// deferRenderNodeOp descends into a child node under the op's recorded
// placement.
func (fb *FrameBuilder) deferRenderNodeOp(op *record.Op) {
	if op.Node.NothingToDraw() {
		return
	}
	count := fb.cs.Save(record.SaveMatrixClip)
	fb.cs.ApplyRecordedClip(op.LocalClip)
	fb.cs.Concat(op.LocalTransform)
	fb.deferNodePropsAndOps(op.Node)
	fb.cs.RestoreToCount(count)
}

// deferProjectedChildren draws the ops that project onto node's receiver,
// masked by the receiver's outline where one is set.
func (fb *FrameBuilder) deferProjectedChildren(node *record.RenderNode) {
	count := fb.cs.Save(record.SaveMatrixClip)

	if els := node.Properties.Outline.CasterPath(); els != nil {
		fb.cs.Top().ProjectionMask = mem.Make(fb.arena, ProjectionPathMask{
			Mask:      gmath.FlattenPath(els, shadowFlattenTolerance),
			Transform: fb.cs.Top().Transform,
		})
	}

	for _, childOp := range node.ProjectedNodes {
		// each projected child's transform is relative to the node hosting
		// the receiver, not to its recorded position
		restoreTo := fb.cs.Save(record.SaveMatrixClip)
		fb.cs.Concat(childOp.TransformFromCompositingAncestor)
		fb.deferNodePropsAndOps(childOp.Node)
		fb.cs.RestoreToCount(restoreTo)
	}
	fb.cs.RestoreToCount(count)
}

// saveForLayer redirects deferral into a fresh LayerBuilder. The content
// transform maps the current local space into the layer; the caller must
// pair with restoreForLayer.
func (fb *FrameBuilder) saveForLayer(width, height uint32, contentTransform gmath.Transform,
	repaint gmath.Rect, light gmath.Vec3, beginLayerOp *record.Op, node *record.RenderNode) {
	fb.cs.Save(record.SaveMatrixClip)
	top := fb.cs.Top()
	top.Transform = contentTransform
	top.Clip = makeRectClip(repaint)
	top.RootClip = repaint
	top.Alpha = 1
	top.RelativeLight = light
	top.ProjectionMask = nil

	lb := newLayerBuilder(fb.arena, width, height, repaint, beginLayerOp, node)
	fb.layerBuilders = append(fb.layerBuilders, lb)
	fb.layerStack = append(fb.layerStack, len(fb.layerBuilders)-1)
}

func (fb *FrameBuilder) restoreForLayer() {
	fb.cs.Restore()
	fb.layerStack = fb.layerStack[:len(fb.layerStack)-1]
}

// onBeginLayerOp opens a clipped save layer: deferral retargets a
// temporary buffer the matching end op composites.
func (fb *FrameBuilder) onBeginLayerOp(op *record.Op) {
	prev := fb.cs.Top()
	bounds := op.UnmappedBounds

	// Everything presenting the layer's content in the parent: the parent
	// snapshot, the record-time canvas transform, and the bounds offset.
	content := prev.Transform.Mul(op.LocalTransform).
		Mul(gmath.Translate(bounds.Left, bounds.Top))

	light := prev.RelativeLight
	if inv, ok := content.Invert(); ok {
		light.X, light.Y = inv.MapPoint(light.X, light.Y)
	}

	// Temporary layers don't persist offscreen content, so shrink the
	// layer to the part of the requested bounds visible through the
	// parent clip, brought back into layer space.
	full := gmath.RectWH(0, 0, bounds.Width(), bounds.Height())
	visible := content.MapRect(full).Intersect(prev.Clip.Bounds())
	if visible.IsEmpty() {
		// MapRect would re-normalize an inverted rect
		visible = gmath.Rect{}
	} else {
		if inv, ok := content.Invert(); ok {
			visible = inv.MapRect(visible)
		}
		visible = visible.Intersect(full).RoundOut()
	}

	width := uint32(visible.Width())
	height := uint32(visible.Height())
	if max := fb.device.MaxTextureSize; max > 0 && (width > max || height > max) {
		glaze.Logger().Warn("save layer exceeds max texture size, clamping",
			"width", width, "height", height, "max", max)
		width = min(width, max)
		height = min(height, max)
	}

	// Layer content ops carry record-time transforms that include
	// everything recorded before the layer began; cancel that out, plus
	// the clamp offset, so content lands relative to the layer's origin.
	contentTransform := gmath.Translate(-bounds.Left-visible.Left, -bounds.Top-visible.Top)
	if inv, ok := op.LocalTransform.Invert(); ok {
		contentTransform = contentTransform.Mul(inv)
	}

	parentTransform := prev.Transform
	fb.saveForLayer(width, height, contentTransform,
		gmath.RectWH(0, 0, float32(width), float32(height)), light, op, nil)
	lb := fb.currentLayer()
	lb.parentTransform = parentTransform
	lb.compositeBounds = gmath.RectWH(bounds.Left, bounds.Top, float32(width), float32(height))
	lb.compositeTransform = op.LocalTransform.Mul(gmath.Translate(visible.Left, visible.Top))
}

// onEndLayerOp closes the current save layer and defers its composite into
// the parent target. A composite rejected by the parent clip means the
// layer can never be seen, so its batched content is dropped too.
func (fb *FrameBuilder) onEndLayerOp() {
	lb := fb.currentLayer()
	beginOp := lb.beginLayerOp
	fb.restoreForLayer()

	layerOp := mem.Make(fb.arena, record.Op{
		Kind:           record.OpLayer,
		UnmappedBounds: lb.compositeBounds,
		LocalTransform: lb.compositeTransform,
		LocalClip:      beginOp.LocalClip,
		Paint:          beginOp.Paint,
		Layer:          &lb.offscreen,
	})
	snap := *fb.cs.Top()
	snap.Transform = lb.parentTransform
	state := TryConstruct(fb.arena, &snap, layerOp)
	if state == nil {
		lb.clear()
		return
	}
	fb.currentLayer().DeferUnmergeableOp(fb.arena, state, BatchBitmap)
}

// onBeginUnclippedLayerOp opens an unclipped save layer. No separate
// target: the affected region is copied out of the current target, cleared,
// drawn over, and the saved content composited back at the end op.
func (fb *FrameBuilder) onBeginUnclippedLayerOp(op *record.Op) {
	lb := fb.currentLayer()
	dst := fb.cs.Top().Transform.Mul(op.LocalTransform).MapRect(op.UnmappedBounds)
	dst = dst.Intersect(fb.cs.Top().Clip.Bounds())
	if dst.IsEmpty() {
		// nothing visible; the matching end op must still find its entry
		lb.activeUnclippedLayers = append(lb.activeUnclippedLayers, unclippedLayer{})
		return
	}
	dst = dst.RoundOut()

	handle := mem.New[*offscreen.Buffer](fb.arena)
	copyOp := mem.Make(fb.arena, record.Op{
		Kind:           record.OpCopyToLayer,
		UnmappedBounds: op.UnmappedBounds,
		LocalTransform: op.LocalTransform,
		Layer:          handle,
	})
	state := DirectConstruct(fb.arena, lb.repaintClip, dst, copyOp)
	lb.DeferUnmergeableOp(fb.arena, state, BatchCopyToLayer)
	lb.DeferLayerClear(dst)
	lb.activeUnclippedLayers = append(lb.activeUnclippedLayers, unclippedLayer{
		handle:    handle,
		dst:       dst,
		bounds:    op.UnmappedBounds,
		transform: op.LocalTransform,
		paint:     op.Paint,
	})
}

func (fb *FrameBuilder) onEndUnclippedLayerOp() {
	lb := fb.currentLayer()
	if len(lb.activeUnclippedLayers) == 0 {
		panic("frame: end of unclipped layer without a begin")
	}
	entry := lb.activeUnclippedLayers[len(lb.activeUnclippedLayers)-1]
	lb.activeUnclippedLayers = lb.activeUnclippedLayers[:len(lb.activeUnclippedLayers)-1]
	if entry.handle == nil {
		return
	}
	copyOp := mem.Make(fb.arena, record.Op{
		Kind:           record.OpCopyFromLayer,
		UnmappedBounds: entry.bounds,
		LocalTransform: entry.transform,
		Paint:          entry.paint,
		Layer:          entry.handle,
	})
	state := DirectConstruct(fb.arena, lb.repaintClip, entry.dst, copyOp)
	lb.DeferUnmergeableOp(fb.arena, state, BatchCopyFromLayer)
}

// FinishDefer marks the end of the defer pass so precaches can kick off
// their uploads before replay needs them.
func (fb *FrameBuilder) FinishDefer() {
	if fb.opts.Glyphs != nil {
		fb.opts.Glyphs.EndPrecaching()
	}
}

// Replay hands the deferred frame to the renderer: offscreen targets in
// reverse creation order (so every layer replays before whatever
// composites it), then the primary surface, then temporary layer recycling.
func (fb *FrameBuilder) Replay(r Renderer) {
	if len(fb.layerStack) != 1 {
		panic("frame: replay with save layers still open")
	}
	for i := len(fb.layerBuilders) - 1; i >= 1; i-- {
		lb := fb.layerBuilders[i]
		if lb.node != nil {
			r.StartRepaintLayer(lb.node.Layer, lb.repaintClip)
			lb.replayInto(r)
			r.EndLayer()
			lb.node.Layer.HasRenderedSinceRepaint = true
			continue
		}
		if lb.empty() {
			// fully rejected save layer, never started
			continue
		}
		lb.offscreen = r.StartTemporaryLayer(lb.width, lb.height)
		lb.replayInto(r)
		r.EndLayer()
	}
	if fb.drawFbo0 {
		fbo0 := fb.layerBuilders[0]
		r.StartFrame(fbo0.width, fbo0.height, fbo0.repaintClip)
		fbo0.replayInto(r)
		r.EndFrame(fbo0.repaintClip)
	}
	for i := 1; i < len(fb.layerBuilders); i++ {
		lb := fb.layerBuilders[i]
		if lb.node == nil && !lb.empty() {
			r.RecycleTemporaryLayer(lb.offscreen)
		}
	}
}

// LayerBuilders exposes the deferred targets for inspection; index 0 is
// the primary target.
func (fb *FrameBuilder) LayerBuilders() []*LayerBuilder { return fb.layerBuilders }
