// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package enginewgpu backs the offscreen buffer pool with wgpu textures.
package enginewgpu

import (
	"honnef.co/go/wgpu"

	"github.com/glazegfx/glaze/offscreen"
)

// Allocator creates layer textures on a wgpu device. It satisfies
// offscreen.TextureAllocator.
type Allocator struct {
	Device *wgpu.Device

	// Label prefixes texture debug labels, useful when several pools share
	// a device.
	Label string
}

func New(device *wgpu.Device) *Allocator {
	return &Allocator{Device: device, Label: "glaze-layer"}
}

// layerTexture wraps a wgpu texture as the pool's Texture.
type layerTexture struct {
	tex *wgpu.Texture
}

func (t layerTexture) Release() {
	t.tex.Release()
}

// AllocateTexture creates a render-attachment texture of the padded layer
// size. Wide gamut layers use a float16 format, matching scRGB window
// surfaces.
func (a *Allocator) AllocateTexture(width, height uint32, wideGamut bool) offscreen.Texture {
	format := wgpu.TextureFormatRGBA8Unorm
	if wideGamut {
		format = wgpu.TextureFormatRGBA16Float
	}
	tex := a.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label: a.Label,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
		Format:        format,
	})
	return layerTexture{tex: tex}
}
