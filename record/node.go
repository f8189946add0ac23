// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package record

import (
	"honnef.co/go/curve"

	"github.com/glazegfx/glaze/gmath"
	"github.com/glazegfx/glaze/offscreen"
)

// OutlineType classifies a node's outline, the shape used for clipping and
// shadow casting.
type OutlineType uint8

const (
	// OutlineNone means no outline was set; the node casts no shadow and
	// outline clipping is off.
	OutlineNone OutlineType = iota
	// OutlineEmpty is an explicitly empty outline. A caster with an empty
	// outline is rejected outright.
	OutlineEmpty
	OutlineRoundRect
	OutlinePath
)

// Outline is a node's silhouette.
type Outline struct {
	Type       OutlineType
	Bounds     gmath.Rect
	Radius     float32
	Path       []curve.PathElement // OutlinePath only
	ShouldClip bool
	Alpha      float32
}

func (o *Outline) SetNone() { *o = Outline{} }

func (o *Outline) SetEmpty() { *o = Outline{Type: OutlineEmpty} }

func (o *Outline) SetRoundRect(r gmath.Rect, radius, alpha float32) {
	*o = Outline{Type: OutlineRoundRect, Bounds: r, Radius: radius, Alpha: alpha, ShouldClip: o.ShouldClip}
}

func (o *Outline) SetPath(els []curve.PathElement, alpha float32) {
	*o = Outline{Type: OutlinePath, Bounds: gmath.PathBounds(els), Path: els, Alpha: alpha, ShouldClip: o.ShouldClip}
}

// CasterPath returns the outline as path elements, or nil when the outline
// cannot cast a shadow.
func (o *Outline) CasterPath() []curve.PathElement {
	switch o.Type {
	case OutlineRoundRect:
		return gmath.RoundRectPath(gmath.RoundRect{Rect: o.Bounds, Radius: o.Radius})
	case OutlinePath:
		return o.Path
	default:
		return nil
	}
}

// RevealClip is the circular reveal animation clip.
type RevealClip struct {
	Enabled bool
	X, Y    float32
	Radius  float32
}

// LayerKind selects how a node is composited.
type LayerKind uint8

const (
	LayerNone LayerKind = iota
	// LayerHardware renders the node into a retained offscreen buffer,
	// repainted only when damaged, and composites the buffer each frame.
	LayerHardware
)

// Properties are the animatable display properties of a render node,
// applied at defer time on top of its recorded content.
type Properties struct {
	Left, Top, Right, Bottom float32

	TranslationX, TranslationY, TranslationZ float32
	Elevation                                float32

	Rotation       float32
	ScaleX, ScaleY float32
	PivotX, PivotY float32
	PivotExplicit  bool

	// StaticMatrix wins over AnimationMatrix when both are set.
	StaticMatrix    *gmath.Transform
	AnimationMatrix *gmath.Transform

	Alpha                   float32
	HasOverlappingRendering bool
	ClipToBounds            bool
	// ClipBounds is an additional clip in local space, combined with the
	// layout bounds clip when set.
	ClipBounds *gmath.Rect

	Outline    Outline
	RevealClip RevealClip

	ProjectBackwards   bool
	ProjectionReceiver bool

	LayerKind  LayerKind
	LayerPaint *Paint
}

// DefaultProperties returns properties as a freshly created node has them:
// opaque, overlapping, clipping to bounds, unit scale.
func DefaultProperties() Properties {
	return Properties{
		ScaleX:                  1,
		ScaleY:                  1,
		Alpha:                   1,
		HasOverlappingRendering: true,
		ClipToBounds:            true,
	}
}

func (p *Properties) Width() float32  { return p.Right - p.Left }
func (p *Properties) Height() float32 { return p.Bottom - p.Top }

// Z returns the node's total Z offset: elevation plus translationZ.
func (p *Properties) Z() float32 { return p.Elevation + p.TranslationZ }

func (p *Properties) pivot() (float32, float32) {
	if p.PivotExplicit {
		return p.PivotX, p.PivotY
	}
	return p.Width() / 2, p.Height() / 2
}

// hasTransform reports whether the animatable transform pieces are
// non-identity.
func (p *Properties) hasTransform() bool {
	return p.TranslationX != 0 || p.TranslationY != 0 ||
		p.Rotation != 0 || p.ScaleX != 1 || p.ScaleY != 1
}

// ClippingRect returns the node-local clip implied by the clipping
// properties, and whether any clipping applies.
func (p *Properties) ClippingRect() (gmath.Rect, bool) {
	switch {
	case p.ClipToBounds && p.ClipBounds != nil:
		return gmath.RectWH(0, 0, p.Width(), p.Height()).Intersect(*p.ClipBounds), true
	case p.ClipToBounds:
		return gmath.RectWH(0, 0, p.Width(), p.Height()), true
	case p.ClipBounds != nil:
		return *p.ClipBounds, true
	}
	return gmath.Rect{}, false
}

// TransformMatrix composes the node's placement: layout position, then the
// static (or animation) matrix, then translation, then rotation and scale
// about the pivot.
func (p *Properties) TransformMatrix() gmath.Transform {
	t := gmath.Translate(p.Left, p.Top)
	if p.StaticMatrix != nil {
		t = t.Mul(*p.StaticMatrix)
	} else if p.AnimationMatrix != nil {
		t = t.Mul(*p.AnimationMatrix)
	}
	if p.hasTransform() {
		t = t.Mul(gmath.Translate(p.TranslationX, p.TranslationY))
		if p.Rotation != 0 || p.ScaleX != 1 || p.ScaleY != 1 {
			px, py := p.pivot()
			t = t.Mul(gmath.Translate(px, py))
			if p.Rotation != 0 {
				t = t.Mul(gmath.Rotate(p.Rotation))
			}
			if p.ScaleX != 1 || p.ScaleY != 1 {
				t = t.Mul(gmath.Scale(p.ScaleX, p.ScaleY))
			}
			t = t.Mul(gmath.Translate(-px, -py))
		}
	}
	return t
}

// RenderNode is a node of the scene graph: properties plus a recorded
// display list, and for hardware layers, the retained buffer backing it.
type RenderNode struct {
	Name        string
	Properties  Properties
	DisplayList *DisplayList

	// Layer is the retained buffer for LayerHardware nodes, nil until the
	// first layer update runs.
	Layer *offscreen.Buffer

	// ProjectedNodes collects, during ComputeOrdering, the node ops of
	// projecting descendants that composite onto this node's receiver.
	ProjectedNodes []*Op
}

func NewNode(name string, left, top, right, bottom float32) *RenderNode {
	n := &RenderNode{Name: name, Properties: DefaultProperties()}
	n.Properties.Left = left
	n.Properties.Top = top
	n.Properties.Right = right
	n.Properties.Bottom = bottom
	return n
}

// Nothing to draw reports rejection before any per-op work: zero alpha,
// degenerate bounds, or no content.
func (n *RenderNode) NothingToDraw() bool {
	return n.Properties.Alpha <= 0 ||
		n.Properties.Width() <= 0 || n.Properties.Height() <= 0 ||
		n.DisplayList.IsEmpty()
}

// ComputeOrdering resolves projection for the tree below n. Projecting
// descendants are detached from their in-order position and registered,
// with their accumulated transform, on the nearest ancestor whose display
// list contains a projection receiver.
func (n *RenderNode) ComputeOrdering() {
	n.ProjectedNodes = n.ProjectedNodes[:0]
	if n.DisplayList == nil {
		return
	}
	// The root is its own projection surface.
	for _, childOp := range n.DisplayList.Children {
		childOp.Node.computeOrderingImpl(childOp, &n.ProjectedNodes, gmath.Identity)
	}
}

func (n *RenderNode) computeOrderingImpl(opState *Op, surfaceNodes *[]*Op, fromSurface gmath.Transform) {
	n.ProjectedNodes = n.ProjectedNodes[:0]
	local := fromSurface.Mul(opState.LocalTransform)
	if n.Properties.ProjectBackwards {
		opState.SkipInOrderDraw = true
		opState.TransformFromCompositingAncestor = local
		*surfaceNodes = append(*surfaceNodes, opState)
	} else {
		opState.SkipInOrderDraw = false
	}
	if n.DisplayList == nil {
		return
	}
	isReceiverSurface := n.DisplayList.ProjectionReceiveIndex >= 0
	appliedProps := false
	for _, childOp := range n.DisplayList.Children {
		if isReceiverSurface && !childOp.Node.Properties.ProjectBackwards {
			// Content under a receiver surface projects onto it, with
			// transforms measured from this node.
			childOp.Node.computeOrderingImpl(childOp, &n.ProjectedNodes, gmath.Identity)
		} else {
			if !appliedProps {
				local = local.Mul(n.Properties.TransformMatrix())
				appliedProps = true
			}
			childOp.Node.computeOrderingImpl(childOp, surfaceNodes, local)
		}
	}
}
