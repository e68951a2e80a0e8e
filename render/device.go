// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/portal"
)

// StencilOp selects what a passing stencil test writes back.
// Fail and depth-fail always keep the stored value; the recursive
// walk only ever needs to vary the pass operation.
type StencilOp uint8

const (
	StencilOpKeep StencilOp = iota
	StencilOpIncrement
	StencilOpZero
)

// String returns the operation name for logging.
func (op StencilOp) String() string {
	switch op {
	case StencilOpKeep:
		return "keep"
	case StencilOpIncrement:
		return "increment"
	case StencilOpZero:
		return "zero"
	}
	return "unknown"
}

// Device is the fixed-function surface the recursive renderer drives.
// It is deliberately small: stencil and depth state, write masks, and
// the two portal draw calls. The gpu package implements it on wgpu-hal;
// tests implement it with a recording fake.
//
// Draw calls receive a full model-view-projection matrix; the device
// resolves portal geometry (quad extents, frame bars) from the handle.
type Device interface {
	// SetStencilFunc sets the stencil test and its reference value.
	SetStencilFunc(cmp gputypes.CompareFunction, ref uint32)

	// SetStencilWrite sets the stencil pass operation and write mask.
	SetStencilWrite(op StencilOp, mask uint32)

	// SetDepthFunc sets the depth comparison.
	SetDepthFunc(cmp gputypes.CompareFunction)

	// SetDepthWrite enables or disables depth writes.
	SetDepthWrite(enabled bool)

	// SetDepthRange remaps window depth output to [near, far].
	// The renderer uses (1, 1) to stamp far-plane depth.
	SetDepthRange(near, far float64)

	// SetColorWrite sets the color channel write mask.
	SetColorWrite(mask gputypes.ColorWriteMask)

	// SetCullMode sets triangle face culling.
	SetCullMode(mode gputypes.CullMode)

	// ClearStencil clears the whole stencil buffer to v.
	ClearStencil(v uint32)

	// DrawPortalSurface draws the portal's quad under the current state.
	DrawPortalSurface(h portal.Handle, mvp portal.Mat4)

	// DrawPortalFrame draws the portal's border frame geometry.
	DrawPortalFrame(h portal.Handle, mvp portal.Mat4)
}

// SceneFunc draws world content for one recursion level using the
// given view and projection. The scene collaborator is external to the
// renderer: it must draw everything except portal surfaces and frames.
type SceneFunc func(view, proj portal.Mat4)
