// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package gmath provides the float32 geometry used throughout the deferral
// pipeline: rectangles, 2D affine transforms, and the conservative
// path/polygon math needed for clip composition and shadow casting.
package gmath

import (
	"github.com/chewxy/math32"
)

// Epsilon is the tolerance used for transform classification (pure
// translate, axis aligned) and Z comparisons.
const Epsilon = 0.0001

func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ApproxEqual reports whether a and b differ by less than Epsilon.
func ApproxEqual(a, b float32) bool {
	return math32.Abs(a-b) < Epsilon
}

// Vec3 is a point in the render target's 3D light space. Z is only used for
// shadow casting.
type Vec3 struct {
	X, Y, Z float32
}
