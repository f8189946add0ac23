// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package gmath

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Transform is a 2D affine transform: a column-major 2x2 matrix plus a
// translation. Matrix[0], Matrix[1] are the first column (the image of the
// x axis), Matrix[2], Matrix[3] the second.
type Transform struct {
	Matrix      [4]float32
	Translation [2]float32
}

var Identity = Transform{
	Matrix: [4]float32{1, 0, 0, 1},
}

func Translate(dx, dy float32) Transform {
	return Transform{
		Matrix:      [4]float32{1, 0, 0, 1},
		Translation: [2]float32{dx, dy},
	}
}

func Scale(sx, sy float32) Transform {
	return Transform{
		Matrix: [4]float32{sx, 0, 0, sy},
	}
}

// Rotate returns a rotation by deg degrees around the origin.
func Rotate(deg float32) Transform {
	s, c := math32.Sincos(deg * math32.Pi / 180)
	return Transform{
		Matrix: [4]float32{c, s, -s, c},
	}
}

func (t Transform) String() string {
	return fmt.Sprintf("Transform[%g %g %g %g | %g %g]",
		t.Matrix[0], t.Matrix[1], t.Matrix[2], t.Matrix[3],
		t.Translation[0], t.Translation[1])
}

// Mul returns t * other, the transform applying other first and t second.
func (t Transform) Mul(other Transform) Transform {
	return Transform{
		Matrix: [4]float32{
			t.Matrix[0]*other.Matrix[0] + t.Matrix[2]*other.Matrix[1],
			t.Matrix[1]*other.Matrix[0] + t.Matrix[3]*other.Matrix[1],
			t.Matrix[0]*other.Matrix[2] + t.Matrix[2]*other.Matrix[3],
			t.Matrix[1]*other.Matrix[2] + t.Matrix[3]*other.Matrix[3],
		},
		Translation: [2]float32{
			t.Matrix[0]*other.Translation[0] +
				t.Matrix[2]*other.Translation[1] +
				t.Translation[0],
			t.Matrix[1]*other.Translation[0] +
				t.Matrix[3]*other.Translation[1] +
				t.Translation[1],
		},
	}
}

func (t Transform) MapPoint(x, y float32) (float32, float32) {
	return t.Matrix[0]*x + t.Matrix[2]*y + t.Translation[0],
		t.Matrix[1]*x + t.Matrix[3]*y + t.Translation[1]
}

// MapRect returns the axis-aligned envelope of the transformed rect. The
// result contains the true image of r; for rotated transforms it is the
// conservative bounding box.
func (t Transform) MapRect(r Rect) Rect {
	x0, y0 := t.MapPoint(r.Left, r.Top)
	x1, y1 := t.MapPoint(r.Right, r.Top)
	x2, y2 := t.MapPoint(r.Left, r.Bottom)
	x3, y3 := t.MapPoint(r.Right, r.Bottom)
	return Rect{
		Left:   math32.Min(math32.Min(x0, x1), math32.Min(x2, x3)),
		Top:    math32.Min(math32.Min(y0, y1), math32.Min(y2, y3)),
		Right:  math32.Max(math32.Max(x0, x1), math32.Max(x2, x3)),
		Bottom: math32.Max(math32.Max(y0, y1), math32.Max(y2, y3)),
	}
}

// MapExtent maps the local half-extents (rx, ry) into device space,
// returning the axis-aligned half-extents of the transformed offset. Used to
// expand bounds for stroked geometry under scale/rotation.
func (t Transform) MapExtent(rx, ry float32) (float32, float32) {
	return math32.Abs(t.Matrix[0])*rx + math32.Abs(t.Matrix[2])*ry,
		math32.Abs(t.Matrix[1])*rx + math32.Abs(t.Matrix[3])*ry
}

func (t Transform) IsIdentity() bool {
	return t.ApproxEqual(Identity)
}

// IsPureTranslate reports whether t only translates (no scale, rotation or
// skew), within Epsilon.
func (t Transform) IsPureTranslate() bool {
	return ApproxEqual(t.Matrix[0], 1) && ApproxEqual(t.Matrix[1], 0) &&
		ApproxEqual(t.Matrix[2], 0) && ApproxEqual(t.Matrix[3], 1)
}

// IsSimple reports whether t is a positive-scale-and-translate transform.
// Rotation, skew, and negative scale all break the texture coordinate
// assumptions merged quads rely on.
func (t Transform) IsSimple() bool {
	return t.Matrix[0] > 0 && ApproxEqual(t.Matrix[1], 0) &&
		ApproxEqual(t.Matrix[2], 0) && t.Matrix[3] > 0
}

func (t Transform) ApproxEqual(o Transform) bool {
	for i := range t.Matrix {
		if !ApproxEqual(t.Matrix[i], o.Matrix[i]) {
			return false
		}
	}
	return ApproxEqual(t.Translation[0], o.Translation[0]) &&
		ApproxEqual(t.Translation[1], o.Translation[1])
}

// Invert returns the inverse transform. ok is false when t is singular
// (either scale axis is zero); the returned transform is unusable then.
func (t Transform) Invert() (Transform, bool) {
	det := t.Matrix[0]*t.Matrix[3] - t.Matrix[1]*t.Matrix[2]
	if math32.Abs(det) < 1e-12 {
		return Transform{}, false
	}
	inv := 1 / det
	m := [4]float32{
		t.Matrix[3] * inv,
		-t.Matrix[1] * inv,
		-t.Matrix[2] * inv,
		t.Matrix[0] * inv,
	}
	return Transform{
		Matrix: m,
		Translation: [2]float32{
			-(m[0]*t.Translation[0] + m[2]*t.Translation[1]),
			-(m[1]*t.Translation[0] + m[3]*t.Translation[1]),
		},
	}, true
}
