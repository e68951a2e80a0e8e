//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Target owns the color and depth/stencil textures a Backend renders
// into. Textures are (re)allocated by EnsureSize and released by
// Destroy; a Target with released textures can be resized back into
// service.
//
// Target implements portal.Target, so it can be attached to a portal
// and torn down by Registry.Remove.
type Target struct {
	device hal.Device
	format gputypes.TextureFormat

	colorTex  hal.Texture
	colorView hal.TextureView

	// depthTex holds Depth24PlusStencil8: depth for scene occlusion,
	// stencil for the recursive region tags.
	depthTex  hal.Texture
	depthView hal.TextureView

	width, height uint32

	clearColor gputypes.Color
}

// NewTarget creates a target rendering to the given color format.
// No textures are allocated until EnsureSize.
func NewTarget(device hal.Device, format gputypes.TextureFormat) *Target {
	return &Target{
		device:     device,
		format:     format,
		clearColor: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
	}
}

// SetClearColor sets the color the first pass of each frame clears to.
func (t *Target) SetClearColor(c gputypes.Color) {
	t.clearColor = c
}

// EnsureSize creates or recreates the textures if the requested
// dimensions differ from the current ones. A matching size is a no-op.
func (t *Target) EnsureSize(width, height uint32) error {
	if t.width == width && t.height == height && t.colorTex != nil {
		return nil
	}

	t.destroyTextures()

	size := hal.Extent3D{
		Width:              width,
		Height:             height,
		DepthOrArrayLayers: 1,
	}

	colorTex, err := t.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "portal_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        t.format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create color texture: %w", err)
	}
	t.colorTex = colorTex

	colorView, err := t.device.CreateTextureView(colorTex, &hal.TextureViewDescriptor{
		Label: "portal_color_view",
	})
	if err != nil {
		t.destroyTextures()
		return fmt.Errorf("create color texture view: %w", err)
	}
	t.colorView = colorView

	depthTex, err := t.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "portal_depth_stencil",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatDepth24PlusStencil8,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.destroyTextures()
		return fmt.Errorf("create depth/stencil texture: %w", err)
	}
	t.depthTex = depthTex

	depthView, err := t.device.CreateTextureView(depthTex, &hal.TextureViewDescriptor{
		Label: "portal_depth_stencil_view",
	})
	if err != nil {
		t.destroyTextures()
		return fmt.Errorf("create depth/stencil texture view: %w", err)
	}
	t.depthView = depthView

	t.width = width
	t.height = height
	return nil
}

// Size returns the current texture dimensions, (0, 0) before EnsureSize.
func (t *Target) Size() (uint32, uint32) {
	return t.width, t.height
}

// ColorTexture returns the color texture for readback or presentation.
// Nil before EnsureSize.
func (t *Target) ColorTexture() hal.Texture {
	return t.colorTex
}

// Destroy releases all textures. Safe to call multiple times.
func (t *Target) Destroy() {
	t.destroyTextures()
}

func (t *Target) destroyTextures() {
	if t.depthView != nil {
		t.device.DestroyTextureView(t.depthView)
		t.depthView = nil
	}
	if t.depthTex != nil {
		t.device.DestroyTexture(t.depthTex)
		t.depthTex = nil
	}
	if t.colorView != nil {
		t.device.DestroyTextureView(t.colorView)
		t.colorView = nil
	}
	if t.colorTex != nil {
		t.device.DestroyTexture(t.colorTex)
		t.colorTex = nil
	}
	t.width = 0
	t.height = 0
}

// passDescriptor builds the render pass for one segment of a frame.
// The first segment clears color and depth; later segments, opened when
// the stencil buffer is re-cleared mid-frame, load them back instead.
// The stencil attachment always clears to stencilClear.
func (t *Target) passDescriptor(first bool, stencilClear uint32) *hal.RenderPassDescriptor {
	if t.colorView == nil || t.depthView == nil {
		return nil
	}
	colorLoad, depthLoad := gputypes.LoadOpClear, gputypes.LoadOpClear
	if !first {
		colorLoad, depthLoad = gputypes.LoadOpLoad, gputypes.LoadOpLoad
	}
	return &hal.RenderPassDescriptor{
		Label: "portal_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       t.colorView,
				LoadOp:     colorLoad,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: t.clearColor,
			},
		},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              t.depthView,
			DepthLoadOp:       depthLoad,
			DepthStoreOp:      gputypes.StoreOpStore,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpStore,
			StencilClearValue: stencilClear,
		},
	}
}
