// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package gmath

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Rect is an axis-aligned rectangle in float32 device or local space.
// A rect with Right <= Left or Bottom <= Top is empty.
type Rect struct {
	Left, Top, Right, Bottom float32
}

// RectWH returns the rect anchored at (l, t) with the given extent.
func RectWH(l, t, w, h float32) Rect {
	return Rect{l, t, l + w, t + h}
}

// RectLTRB returns the rect spanning the given edges.
func RectLTRB(l, t, r, b float32) Rect {
	return Rect{l, t, r, b}
}

func (r Rect) String() string {
	return fmt.Sprintf("Rect(%g %g %g %g)", r.Left, r.Top, r.Right, r.Bottom)
}

func (r Rect) IsEmpty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

func (r Rect) Width() float32  { return r.Right - r.Left }
func (r Rect) Height() float32 { return r.Bottom - r.Top }

func (r Rect) Intersects(o Rect) bool {
	return r.Left < o.Right && o.Left < r.Right &&
		r.Top < o.Bottom && o.Top < r.Bottom
}

// Intersect returns the overlap of r and o. The result is empty when they
// don't intersect.
func (r Rect) Intersect(o Rect) Rect {
	return Rect{
		Left:   math32.Max(r.Left, o.Left),
		Top:    math32.Max(r.Top, o.Top),
		Right:  math32.Min(r.Right, o.Right),
		Bottom: math32.Min(r.Bottom, o.Bottom),
	}
}

// Union returns the smallest rect containing both r and o. Empty inputs are
// ignored so a zero Rect works as the identity for accumulation.
func (r Rect) Union(o Rect) Rect {
	if o.IsEmpty() {
		return r
	}
	if r.IsEmpty() {
		return o
	}
	return Rect{
		Left:   math32.Min(r.Left, o.Left),
		Top:    math32.Min(r.Top, o.Top),
		Right:  math32.Max(r.Right, o.Right),
		Bottom: math32.Max(r.Bottom, o.Bottom),
	}
}

func (r Rect) Contains(o Rect) bool {
	return r.Left <= o.Left && r.Top <= o.Top &&
		r.Right >= o.Right && r.Bottom >= o.Bottom
}

func (r Rect) ContainsPoint(x, y float32) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

func (r Rect) Translate(dx, dy float32) Rect {
	return Rect{r.Left + dx, r.Top + dy, r.Right + dx, r.Bottom + dy}
}

// Outset grows the rect by d on every side.
func (r Rect) Outset(d float32) Rect {
	return Rect{r.Left - d, r.Top - d, r.Right + d, r.Bottom + d}
}

// OutsetXY grows the rect by dx horizontally and dy vertically.
func (r Rect) OutsetXY(dx, dy float32) Rect {
	return Rect{r.Left - dx, r.Top - dy, r.Right + dx, r.Bottom + dy}
}

// RoundOut expands the rect to integer coordinates, away from its center.
// Crossing into integer texture space always rounds out so coverage is
// conservative.
func (r Rect) RoundOut() Rect {
	return Rect{
		Left:   math32.Floor(r.Left),
		Top:    math32.Floor(r.Top),
		Right:  math32.Ceil(r.Right),
		Bottom: math32.Ceil(r.Bottom),
	}
}

func (r Rect) ApproxEqual(o Rect) bool {
	return ApproxEqual(r.Left, o.Left) && ApproxEqual(r.Top, o.Top) &&
		ApproxEqual(r.Right, o.Right) && ApproxEqual(r.Bottom, o.Bottom)
}

// RoundRect is a rectangle with uniformly rounded corners.
type RoundRect struct {
	Rect   Rect
	Radius float32
}

// Inner returns the largest axis-aligned rect fully inside the rounded
// shape's straight edges, used for fast containment checks.
func (rr RoundRect) Inner() Rect {
	return rr.Rect.Outset(-rr.Radius)
}
