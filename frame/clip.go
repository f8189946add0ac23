// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package frame turns recorded render node trees into batched, replayable
// frames. It walks the tree once, baking every surviving op into a
// BakedOpState (resolved transform, clip, device bounds), groups states
// into batches per offscreen target, and replays the targets back to front
// into a Renderer sink.
package frame

import (
	"github.com/glazegfx/glaze/gmath"
)

// ClipShape classifies a snapshot's composed clip.
type ClipShape uint8

const (
	// ClipShapeRect is an axis-aligned rect; the only shape merged batches
	// accept.
	ClipShapeRect ClipShape = iota
	ClipShapeRoundRect
	ClipShapePath
)

// ClipArea is the composed clip of one snapshot. The rect is always
// maintained as the conservative bounds; round-rect and path modes carry
// the precise shape alongside. Intersections only ever degrade the shape,
// a complex clip never re-simplifies.
type ClipArea struct {
	shape     ClipShape
	rect      gmath.Rect
	roundRect gmath.RoundRect
	mask      gmath.Polygon // device space, ClipShapePath
}

func makeRectClip(r gmath.Rect) ClipArea {
	return ClipArea{shape: ClipShapeRect, rect: r}
}

func (c *ClipArea) Shape() ClipShape { return c.shape }

// Bounds returns the conservative rect bounds of the clip.
func (c *ClipArea) Bounds() gmath.Rect { return c.rect }

// IsSimple reports whether the clip is a plain rect.
func (c *ClipArea) IsSimple() bool { return c.shape == ClipShapeRect }

func (c *ClipArea) IsEmpty() bool { return c.rect.IsEmpty() }

// IntersectRect narrows the clip with a device-space rect. Shape is
// preserved: a rect clip stays a rect, complex clips only shrink their
// bounds.
func (c *ClipArea) IntersectRect(r gmath.Rect) {
	c.rect = c.rect.Intersect(r)
}

// IntersectRoundRect narrows the clip with a device-space rounded rect.
// Stays simple when the current bounds already fit inside the rounded
// rect's inner rect (the corners cannot cut anything then).
func (c *ClipArea) IntersectRoundRect(rr gmath.RoundRect) {
	if rr.Radius <= 0 {
		c.IntersectRect(rr.Rect)
		return
	}
	if c.shape == ClipShapeRect && rr.Inner().Contains(c.rect) {
		c.IntersectRect(rr.Rect)
		return
	}
	c.rect = c.rect.Intersect(rr.Rect)
	if c.shape == ClipShapeRect {
		c.shape = ClipShapeRoundRect
		c.roundRect = rr
	} else {
		// stacking complex clips degrades to a path-bounded clip
		c.shape = ClipShapePath
		c.mask = nil
	}
}

// IntersectPath narrows the clip with a device-space polygon mask.
func (c *ClipArea) IntersectPath(mask gmath.Polygon) {
	c.rect = c.rect.Intersect(mask.Bounds())
	if c.shape == ClipShapePath && c.mask != nil {
		c.mask = c.mask.ClipConvex(mask)
	} else {
		c.mask = mask
	}
	c.shape = ClipShapePath
}

// RoundRect returns the rounded clip shape, valid for ClipShapeRoundRect.
func (c *ClipArea) RoundRect() gmath.RoundRect { return c.roundRect }

// Mask returns the polygon mask, valid for ClipShapePath (may be nil when
// degraded past representability; the rect bounds still hold).
func (c *ClipArea) Mask() gmath.Polygon { return c.mask }
