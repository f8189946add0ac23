// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package record holds the recorded side of the pipeline: drawing
// operations, display lists, render nodes and the recording canvas that
// produces them. Everything recorded is immutable once its display list is
// finished; the deferral pass only reads.
package record

import "sync/atomic"

// Style selects how geometry ops are rasterized.
type Style uint8

const (
	StyleFill Style = iota
	StyleStroke
	StyleFillAndStroke
)

// BlendMode is the Porter-Duff compositing mode of a paint. Only the modes
// the batching pass cares about are distinguished; everything that isn't
// source-over is order-sensitive and handled identically.
type BlendMode uint8

const (
	BlendSrcOver BlendMode = iota
	BlendClear
	BlendSrc
	BlendDstOver
	BlendSrcIn
	BlendDstIn
	BlendScreen
	BlendMultiply
)

// Paint carries the raster attributes of a drawing op. Color is
// non-premultiplied ARGB.
type Paint struct {
	Color       uint32
	Style       Style
	StrokeWidth float32
	Blend       BlendMode
	AntiAlias   bool
	StrikeThru  bool
	TextSize    float32
}

func ColorAlpha(argb uint32) uint8 { return uint8(argb >> 24) }

// Alpha returns the paint's alpha, treating a nil paint as opaque black,
// the recording canvases' convention.
func (p *Paint) Alpha() uint8 {
	if p == nil {
		return 255
	}
	return ColorAlpha(p.Color)
}

func (p *Paint) BlendMode() BlendMode {
	if p == nil {
		return BlendSrcOver
	}
	return p.Blend
}

// IsOpaque reports whether drawing with this paint fully replaces the
// destination within its bounds.
func (p *Paint) IsOpaque() bool {
	return p.Alpha() == 255 && p.BlendMode() == BlendSrcOver
}

func (p *Paint) GetStyle() Style {
	if p == nil {
		return StyleFill
	}
	return p.Style
}

func (p *Paint) GetStrokeWidth() float32 {
	if p == nil {
		return 0
	}
	return p.StrokeWidth
}

// BitmapFormat describes the pixel layout of a recorded bitmap. The
// batching pass uses it for opacity and merge decisions.
type BitmapFormat uint8

const (
	BitmapRGBA8888 BitmapFormat = iota
	BitmapRGB565
	BitmapAlpha8
)

// Bitmap is an immutable handle to pixel data owned by the scene graph.
// Create through NewBitmap: its identity doubles as the batching merge
// key.
type Bitmap struct {
	Width, Height int
	Format        BitmapFormat

	id uint64
}

var mergeIDs atomic.Uint64

func nextMergeID() uint64 { return mergeIDs.Add(1) }

func NewBitmap(width, height int, format BitmapFormat) *Bitmap {
	return &Bitmap{Width: width, Height: height, Format: format, id: nextMergeID()}
}

// MergeKey is the bitmap's batching merge identity.
func (b *Bitmap) MergeKey() uint64 { return b.id }

// IsOpaque reports whether the bitmap has no alpha channel.
func (b *Bitmap) IsOpaque() bool {
	return b.Format == BitmapRGB565
}
