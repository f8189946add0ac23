// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package gmath

import (
	"github.com/chewxy/math32"
	"honnef.co/go/curve"
)

// Paths enter the pipeline as curve path elements recorded by the scene
// graph. Deferral only ever needs conservative bounds and flattened polygon
// approximations of them, both computed here.

// Point is a 2D float32 point, used for flattened path polygons.
type Point struct {
	X, Y float32
}

// Polygon is a flattened, closed path outline. The closing edge from the
// last to the first vertex is implicit.
type Polygon []Point

// kappa is the cubic Bezier circle approximation constant.
const kappa = 0.5522847498

// PathBounds returns a conservative bounding rect of the path: the hull of
// all on-curve and control points. Control points may lie outside the true
// curve, never inside its bounds, so the result always contains the path.
func PathBounds(els []curve.PathElement) Rect {
	if len(els) == 0 {
		return Rect{}
	}
	bounds := Rect{math32.MaxFloat32, math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}
	add := func(p curve.Point) {
		x, y := float32(p.X), float32(p.Y)
		bounds.Left = math32.Min(bounds.Left, x)
		bounds.Top = math32.Min(bounds.Top, y)
		bounds.Right = math32.Max(bounds.Right, x)
		bounds.Bottom = math32.Max(bounds.Bottom, y)
	}
	any := false
	for _, el := range els {
		switch el.Kind {
		case curve.MoveToKind, curve.LineToKind:
			add(el.P0)
			any = true
		case curve.QuadToKind:
			add(el.P0)
			add(el.P1)
			any = true
		case curve.CubicToKind:
			add(el.P0)
			add(el.P1)
			add(el.P2)
			any = true
		}
	}
	if !any {
		return Rect{}
	}
	return bounds
}

// RectPath returns the path outline of r.
func RectPath(r Rect) []curve.PathElement {
	return []curve.PathElement{
		{Kind: curve.MoveToKind, P0: curve.Point{X: float64(r.Left), Y: float64(r.Top)}},
		{Kind: curve.LineToKind, P0: curve.Point{X: float64(r.Right), Y: float64(r.Top)}},
		{Kind: curve.LineToKind, P0: curve.Point{X: float64(r.Right), Y: float64(r.Bottom)}},
		{Kind: curve.LineToKind, P0: curve.Point{X: float64(r.Left), Y: float64(r.Bottom)}},
		{Kind: curve.ClosePathKind},
	}
}

// RoundRectPath returns the outline of rr, with corner arcs approximated by
// cubics.
func RoundRectPath(rr RoundRect) []curve.PathElement {
	r := rr.Rect
	rad := math32.Min(rr.Radius, math32.Min(r.Width()/2, r.Height()/2))
	if rad <= 0 {
		return RectPath(r)
	}
	l, t, rt, b := float64(r.Left), float64(r.Top), float64(r.Right), float64(r.Bottom)
	d := float64(rad)
	k := d * kappa
	pt := func(x, y float64) curve.Point { return curve.Point{X: x, Y: y} }
	return []curve.PathElement{
		{Kind: curve.MoveToKind, P0: pt(l+d, t)},
		{Kind: curve.LineToKind, P0: pt(rt-d, t)},
		{Kind: curve.CubicToKind, P0: pt(rt-d+k, t), P1: pt(rt, t+d-k), P2: pt(rt, t+d)},
		{Kind: curve.LineToKind, P0: pt(rt, b-d)},
		{Kind: curve.CubicToKind, P0: pt(rt, b-d+k), P1: pt(rt-d+k, b), P2: pt(rt-d, b)},
		{Kind: curve.LineToKind, P0: pt(l+d, b)},
		{Kind: curve.CubicToKind, P0: pt(l+d-k, b), P1: pt(l, b-d+k), P2: pt(l, b-d)},
		{Kind: curve.LineToKind, P0: pt(l, t+d)},
		{Kind: curve.CubicToKind, P0: pt(l, t+d-k), P1: pt(l+d-k, t), P2: pt(l+d, t)},
		{Kind: curve.ClosePathKind},
	}
}

// CirclePath returns the outline of the circle centered at (cx, cy).
func CirclePath(cx, cy, radius float32) []curve.PathElement {
	return RoundRectPath(RoundRect{
		Rect:   Rect{cx - radius, cy - radius, cx + radius, cy + radius},
		Radius: radius,
	})
}

// FlattenPath converts a path into a closed polygon, subdividing curves to
// the given tolerance. Only the first subpath is used; deferral-time masks
// are single contours.
func FlattenPath(els []curve.PathElement, tol float32) Polygon {
	var poly Polygon
	var cur Point
	emit := func(p Point) {
		if n := len(poly); n > 0 {
			last := poly[n-1]
			if ApproxEqual(last.X, p.X) && ApproxEqual(last.Y, p.Y) {
				return
			}
		}
		poly = append(poly, p)
	}
	p32 := func(p curve.Point) Point { return Point{float32(p.X), float32(p.Y)} }
	for _, el := range els {
		switch el.Kind {
		case curve.MoveToKind:
			if len(poly) > 0 {
				return poly // first subpath only
			}
			cur = p32(el.P0)
			emit(cur)
		case curve.LineToKind:
			cur = p32(el.P0)
			emit(cur)
		case curve.QuadToKind:
			flattenQuad(cur, p32(el.P0), p32(el.P1), tol, emit)
			cur = p32(el.P1)
		case curve.CubicToKind:
			flattenCubic(cur, p32(el.P0), p32(el.P1), p32(el.P2), tol, emit)
			cur = p32(el.P2)
		case curve.ClosePathKind:
			return poly
		}
	}
	return poly
}

func flattenQuad(p0, c, p1 Point, tol float32, emit func(Point)) {
	// error bound: distance from control point to chord midpoint
	mx, my := (p0.X+p1.X)/2, (p0.Y+p1.Y)/2
	if math32.Hypot(c.X-mx, c.Y-my) <= tol {
		emit(p1)
		return
	}
	c0 := Point{(p0.X + c.X) / 2, (p0.Y + c.Y) / 2}
	c1 := Point{(c.X + p1.X) / 2, (c.Y + p1.Y) / 2}
	m := Point{(c0.X + c1.X) / 2, (c0.Y + c1.Y) / 2}
	flattenQuad(p0, c0, m, tol, emit)
	flattenQuad(m, c1, p1, tol, emit)
}

func flattenCubic(p0, c0, c1, p1 Point, tol float32, emit func(Point)) {
	mx, my := (p0.X+p1.X)/2, (p0.Y+p1.Y)/2
	d0 := math32.Hypot(c0.X-mx, c0.Y-my)
	d1 := math32.Hypot(c1.X-mx, c1.Y-my)
	if math32.Max(d0, d1) <= tol {
		emit(p1)
		return
	}
	ab := Point{(p0.X + c0.X) / 2, (p0.Y + c0.Y) / 2}
	bc := Point{(c0.X + c1.X) / 2, (c0.Y + c1.Y) / 2}
	cd := Point{(c1.X + p1.X) / 2, (c1.Y + p1.Y) / 2}
	abc := Point{(ab.X + bc.X) / 2, (ab.Y + bc.Y) / 2}
	bcd := Point{(bc.X + cd.X) / 2, (bc.Y + cd.Y) / 2}
	m := Point{(abc.X + bcd.X) / 2, (abc.Y + bcd.Y) / 2}
	flattenCubic(p0, ab, abc, m, tol, emit)
	flattenCubic(m, bcd, cd, p1, tol, emit)
}

// Bounds returns the bounding rect of the polygon.
func (p Polygon) Bounds() Rect {
	if len(p) == 0 {
		return Rect{}
	}
	b := Rect{p[0].X, p[0].Y, p[0].X, p[0].Y}
	for _, pt := range p[1:] {
		b.Left = math32.Min(b.Left, pt.X)
		b.Top = math32.Min(b.Top, pt.Y)
		b.Right = math32.Max(b.Right, pt.X)
		b.Bottom = math32.Max(b.Bottom, pt.Y)
	}
	return b
}

// Transform maps every vertex through t.
func (p Polygon) Transform(t Transform) Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		x, y := t.MapPoint(pt.X, pt.Y)
		out[i] = Point{x, y}
	}
	return out
}

// Path converts the polygon back into path elements.
func (p Polygon) Path() []curve.PathElement {
	if len(p) == 0 {
		return nil
	}
	els := make([]curve.PathElement, 0, len(p)+1)
	els = append(els, curve.PathElement{
		Kind: curve.MoveToKind,
		P0:   curve.Point{X: float64(p[0].X), Y: float64(p[0].Y)},
	})
	for _, pt := range p[1:] {
		els = append(els, curve.PathElement{
			Kind: curve.LineToKind,
			P0:   curve.Point{X: float64(pt.X), Y: float64(pt.Y)},
		})
	}
	return append(els, curve.PathElement{Kind: curve.ClosePathKind})
}

// ClipRect clips the polygon against an axis-aligned rect
// (Sutherland-Hodgman, one pass per edge).
func (p Polygon) ClipRect(r Rect) Polygon {
	p = clipEdge(p, func(pt Point) bool { return pt.X >= r.Left }, func(a, b Point) Point {
		t := (r.Left - a.X) / (b.X - a.X)
		return Point{r.Left, a.Y + t*(b.Y-a.Y)}
	})
	p = clipEdge(p, func(pt Point) bool { return pt.X <= r.Right }, func(a, b Point) Point {
		t := (r.Right - a.X) / (b.X - a.X)
		return Point{r.Right, a.Y + t*(b.Y-a.Y)}
	})
	p = clipEdge(p, func(pt Point) bool { return pt.Y >= r.Top }, func(a, b Point) Point {
		t := (r.Top - a.Y) / (b.Y - a.Y)
		return Point{a.X + t*(b.X-a.X), r.Top}
	})
	return clipEdge(p, func(pt Point) bool { return pt.Y <= r.Bottom }, func(a, b Point) Point {
		t := (r.Bottom - a.Y) / (b.Y - a.Y)
		return Point{a.X + t*(b.X-a.X), r.Bottom}
	})
}

// ClipConvex clips the polygon against a convex clip polygon wound
// clockwise in screen space (y down).
func (p Polygon) ClipConvex(clip Polygon) Polygon {
	n := len(clip)
	if n < 3 {
		return nil
	}
	for i := 0; i < n && len(p) > 0; i++ {
		a := clip[i]
		b := clip[(i+1)%n]
		// inside = right of edge a->b for clockwise winding with y down
		ex, ey := b.X-a.X, b.Y-a.Y
		inside := func(pt Point) bool {
			return ex*(pt.Y-a.Y)-ey*(pt.X-a.X) >= 0
		}
		intersect := func(s, e Point) Point {
			dx, dy := e.X-s.X, e.Y-s.Y
			denom := ex*dy - ey*dx
			if math32.Abs(denom) < 1e-12 {
				return e
			}
			t := (ey*(s.X-a.X) - ex*(s.Y-a.Y)) / denom
			return Point{s.X + t*dx, s.Y + t*dy}
		}
		p = clipEdge(p, inside, intersect)
	}
	return p
}

func clipEdge(p Polygon, inside func(Point) bool, intersect func(a, b Point) Point) Polygon {
	if len(p) == 0 {
		return nil
	}
	out := make(Polygon, 0, len(p)+4)
	prev := p[len(p)-1]
	prevIn := inside(prev)
	for _, cur := range p {
		curIn := inside(cur)
		switch {
		case curIn && prevIn:
			out = append(out, cur)
		case curIn && !prevIn:
			out = append(out, intersect(prev, cur), cur)
		case !curIn && prevIn:
			out = append(out, intersect(prev, cur))
		}
		prev, prevIn = cur, curIn
	}
	return out
}
