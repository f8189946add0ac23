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

// OpKind identifies a recorded (or defer-synthesized) drawing operation.
// The deferral pass dispatches on it through fixed tables, so the set is
// closed by design.
type OpKind uint8

const (
	// Ops produced by the recording canvas.
	OpRect OpKind = iota
	OpRoundRect
	OpOval
	OpArc
	OpLines
	OpPoints
	OpPath
	OpBitmap
	OpBitmapRect
	OpBitmapMesh
	OpPatch
	OpText
	OpTextOnPath
	OpVectorDrawable
	OpColor
	OpFunctor
	OpTextureLayer
	OpRenderNode
	OpBeginLayer
	OpEndLayer
	OpBeginUnclippedLayer
	OpEndUnclippedLayer

	// Ops synthesized during deferral, never recorded directly.
	OpLayer
	OpShadow
	OpCopyToLayer
	OpCopyFromLayer
	OpSimpleRects

	NumOpKinds
)

var opKindNames = [NumOpKinds]string{
	"Rect", "RoundRect", "Oval", "Arc", "Lines", "Points", "Path",
	"Bitmap", "BitmapRect", "BitmapMesh", "Patch", "Text", "TextOnPath",
	"VectorDrawable", "Color", "Functor",
	"TextureLayer", "RenderNode", "BeginLayer", "EndLayer",
	"BeginUnclippedLayer", "EndUnclippedLayer",
	"Layer", "Shadow", "CopyToLayer", "CopyFromLayer", "SimpleRects",
}

func (k OpKind) String() string {
	if k < NumOpKinds {
		return opKindNames[k]
	}
	return "Unknown"
}

// ClipMode selects how a recorded clip combines with the inherited clip.
type ClipMode uint8

const (
	ClipIntersect ClipMode = iota
	// ClipReplace discards record-time clip state but is still bounded by
	// the node's own clip at defer time.
	ClipReplace
)

// Clip is a record-time clip attached to an op. Rect-shaped only; rounded
// and path clips are expressed through node outlines.
type Clip struct {
	Rect gmath.Rect
	Mode ClipMode
}

// Glyphs is a positioned glyph run. Positions are in the op's local space,
// in 26.6 fixed point as produced by text layout.
type Glyphs struct {
	IDs       []uint16
	Positions []fixed.Point26_6
}

// Patch describes a 9-patch mesh: the source bitmap divisions and the
// destination stretch. Create through NewPatch so each patch has a merge
// identity.
type Patch struct {
	XDivs, YDivs []int32

	id uint64
}

func NewPatch(xDivs, yDivs []int32) *Patch {
	return &Patch{XDivs: xDivs, YDivs: yDivs, id: nextMergeID()}
}

// MergeKey is the patch's batching merge identity, combined with its
// bitmap's by the deferral pass.
func (p *Patch) MergeKey() uint64 { return p.id }

// VectorDrawable is a vector asset rendered through a rasterized bitmap
// cache that animation invalidates.
type VectorDrawable struct {
	Bitmap *Bitmap
	Bounds gmath.Rect
}

// Op is a single drawing operation. It is a tagged union: Kind selects
// which payload fields are meaningful. Geometry is in the op's local space;
// LocalTransform and LocalClip carry the record-time canvas state the op
// was issued under, already resolved relative to the owning display list.
type Op struct {
	Kind OpKind

	// UnmappedBounds is the op's bounds in local space, before
	// LocalTransform. For unbounded ops (Color, Functor) it is ignored and
	// the clip stands in at bake time.
	UnmappedBounds gmath.Rect
	LocalTransform gmath.Transform
	LocalClip      *Clip
	Paint          *Paint

	// Payloads, by Kind.
	Bitmap     *Bitmap             // Bitmap, BitmapRect, BitmapMesh, Patch
	SrcRect    gmath.Rect          // BitmapRect
	Patch      *Patch              // Patch
	MeshVerts  []gmath.Point       // BitmapMesh, row-major grid
	MeshColors []uint32            // BitmapMesh, optional per-vertex tint
	Vector     *VectorDrawable     // VectorDrawable
	Path       []curve.PathElement // Path
	Points     []gmath.Point       // Lines, Points
	Glyphs     Glyphs              // Text
	StartAngle float32             // Arc
	SweepAngle float32             // Arc
	UseCenter  bool                // Arc
	CornerRx   float32             // RoundRect
	CornerRy   float32             // RoundRect
	Color      uint32              // Color
	ColorMode  BlendMode           // Color
	Functor    func()              // Functor
	Node       *RenderNode         // RenderNode
	Layer      **offscreen.Buffer  // Layer: slot filled in during replay
	Texture    *offscreen.Buffer   // TextureLayer
	Rects      []float32           // SimpleRects: x0,y0,x1,y1 quads, 8 floats per rect
	Shadow     *ShadowDescription  // Shadow

	// Ordering state for OpRenderNode, filled in by ComputeOrdering.
	// Projected children skip their in-order position and replay out of
	// order at their receiver, with the transform from the node whose
	// display list hosts the receiver.
	SkipInOrderDraw                  bool
	TransformFromCompositingAncestor gmath.Transform
}

// ShadowDescription carries everything the shadow renderer needs to draw
// one caster's shadow, fully resolved into the space of the layer it is
// drawn into.
type ShadowDescription struct {
	// CasterPerimeter is the caster outline, flattened, in caster-local
	// space.
	CasterPerimeter gmath.Polygon
	// TransformXY maps the caster perimeter into layer space.
	TransformXY gmath.Transform
	// TransformZ lifts the perimeter off the Z=0 plane; for plain
	// translationZ casters it is a pure Z offset.
	TransformZ gmath.Transform
	CasterZ        float32
	CasterAlpha    float32
	CasterIsOpaque bool
	// LightCenter is in the space of the layer the shadow is drawn into.
	LightCenter gmath.Vec3
	LightRadius float32
	// Task is the handle returned by the shadow tessellation service when
	// tessellation was kicked off ahead of replay, nil otherwise.
	Task any
}
