// Copyright 2016 The Android Open Source Project
// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package offscreen manages the pool of offscreen render targets backing
// saved and windowed layers. Buffers are allocated through a pluggable
// TextureAllocator so the pool itself stays GPU-agnostic.
package offscreen

import (
	"fmt"
	"log/slog"

	glaze "github.com/glazegfx/glaze"
	"github.com/glazegfx/glaze/gmath"
)

// Texture is a device texture owned by a Buffer. Release frees the device
// memory; the pool calls it when a buffer is evicted or destroyed.
type Texture interface {
	Release()
}

// TextureAllocator creates device textures for offscreen buffers. The
// width and height passed in are already padded to the pool's size class.
type TextureAllocator interface {
	AllocateTexture(width, height uint32, wideGamut bool) Texture
}

// Buffers are padded up to multiples of this, so that scrolling and
// resizing content reuses pooled textures instead of thrashing them.
const sizeClass = 64

// Buffer is an offscreen render target. The texture may be larger than the
// viewport; only the viewport region holds content.
type Buffer struct {
	ViewportWidth  uint32
	ViewportHeight uint32
	TexWidth       uint32
	TexHeight      uint32
	WideGamut      bool
	Texture        Texture

	// InverseTransformInWindow maps window space back into the layer, set
	// when the layer is composited so that shadows cast onto it can
	// position the light correctly.
	InverseTransformInWindow gmath.Transform

	// HasRenderedSinceRepaint is cleared when a repaint of the layer is
	// deferred and set on first replay into it; clears of the repaint
	// region are only needed on the first pass.
	HasRenderedSinceRepaint bool

	released bool
}

// PaddedSize rounds a layer dimension up to the pool's size class.
func PaddedSize(dim uint32) uint32 {
	return (dim + sizeClass - 1) / sizeClass * sizeClass
}

func (b *Buffer) sizeBytes() uint64 {
	bpp := uint64(4)
	if b.WideGamut {
		bpp = 8
	}
	return uint64(b.TexWidth) * uint64(b.TexHeight) * bpp
}

// Matches reports whether the buffer's texture can hold a layer of exactly
// this padded size.
func (b *Buffer) matches(texWidth, texHeight uint32, wideGamut bool) bool {
	return b.TexWidth == texWidth && b.TexHeight == texHeight && b.WideGamut == wideGamut
}

// Pool recycles offscreen buffers between frames, bounded by a byte
// budget. Least recently returned buffers are evicted first.
type Pool struct {
	entries []*Buffer
	size    uint64
	maxSize uint64
	alloc   TextureAllocator
}

// DefaultBudget is the default pool byte budget, enough for a couple of
// full-screen layers at common phone resolutions.
const DefaultBudget = 8 << 20

func NewPool(alloc TextureAllocator, budget uint64) *Pool {
	if budget == 0 {
		budget = DefaultBudget
	}
	return &Pool{alloc: alloc, maxSize: budget}
}

// Get returns a buffer whose texture holds width x height content, reusing
// a pooled texture of the same padded size when one exists.
func (p *Pool) Get(width, height uint32, wideGamut bool) *Buffer {
	tw, th := PaddedSize(width), PaddedSize(height)
	for i, b := range p.entries {
		if b.matches(tw, th, wideGamut) {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			p.size -= b.sizeBytes()
			b.ViewportWidth = width
			b.ViewportHeight = height
			b.HasRenderedSinceRepaint = false
			b.released = false
			return b
		}
	}
	b := &Buffer{
		ViewportWidth:  width,
		ViewportHeight: height,
		TexWidth:       tw,
		TexHeight:      th,
		WideGamut:      wideGamut,
		Texture:        p.alloc.AllocateTexture(tw, th, wideGamut),
	}
	glaze.Logger().Debug("allocated offscreen buffer",
		slog.Uint64("texWidth", uint64(tw)), slog.Uint64("texHeight", uint64(th)))
	return b
}

// Resize adjusts a buffer to a new viewport size, reusing its texture when
// the padded size still fits and swapping buffers through the pool when it
// doesn't. Content is not preserved. Returns the buffer to use, which may
// differ from the one passed in.
func (p *Pool) Resize(b *Buffer, width, height uint32) *Buffer {
	if b.released {
		panic("offscreen: Resize of released buffer")
	}
	if width <= b.TexWidth && height <= b.TexHeight {
		b.ViewportWidth = width
		b.ViewportHeight = height
		return b
	}
	p.PutOrDelete(b)
	return p.Get(width, height, b.WideGamut)
}

// PutOrDelete returns a buffer to the pool, evicting old buffers if the
// budget is exceeded; a buffer larger than the whole budget is released
// outright. Using the buffer after this call is a bug, and a second
// PutOrDelete of the same buffer panics.
func (p *Pool) PutOrDelete(b *Buffer) {
	if b.released {
		panic("offscreen: buffer returned to pool twice")
	}
	b.released = true
	sz := b.sizeBytes()
	if sz > p.maxSize {
		b.Texture.Release()
		return
	}
	for p.size+sz > p.maxSize && len(p.entries) > 0 {
		old := p.entries[0]
		p.entries = p.entries[1:]
		p.size -= old.sizeBytes()
		old.Texture.Release()
	}
	p.entries = append(p.entries, b)
	p.size += sz
}

// Clear releases every pooled buffer. Buffers currently lent out are
// unaffected.
func (p *Pool) Clear() {
	for _, b := range p.entries {
		b.Texture.Release()
	}
	p.entries = p.entries[:0]
	p.size = 0
}

// Count returns the number of pooled buffers.
func (p *Pool) Count() int { return len(p.entries) }

// Size returns the pooled bytes.
func (p *Pool) Size() uint64 { return p.size }

func (p *Pool) String() string {
	return fmt.Sprintf("Pool[%d buffers, %d/%d bytes]", len(p.entries), p.size, p.maxSize)
}
