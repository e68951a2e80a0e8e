// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "github.com/gogpu/gputypes"

// passState is a full snapshot of the device state the recursive walk
// touches. Each traversal pass saves the state on entry and restores
// it on every exit path, so an aborted branch can never leak stencil
// or depth configuration into its siblings.
type passState struct {
	stencilCmp  gputypes.CompareFunction
	stencilRef  uint32
	stencilOp   StencilOp
	stencilMask uint32

	depthCmp   gputypes.CompareFunction
	depthWrite bool
	depthNear  float64
	depthFar   float64

	colorMask gputypes.ColorWriteMask
	cullMode  gputypes.CullMode
}

// basePassState is the neutral state a frame starts from: stencil test
// off (always passes, writes nothing back), normal depth testing,
// all color channels, back-face culling.
func basePassState() passState {
	return passState{
		stencilCmp:  gputypes.CompareFunctionAlways,
		stencilRef:  0,
		stencilOp:   StencilOpKeep,
		stencilMask: 0xFF,
		depthCmp:    gputypes.CompareFunctionLess,
		depthWrite:  true,
		depthNear:   0,
		depthFar:    1,
		colorMask:   gputypes.ColorWriteMaskAll,
		cullMode:    gputypes.CullModeBack,
	}
}

// stateTracker shadows the device state so that passes can snapshot
// and replay it. All renderer state changes go through the tracker;
// the device itself is never driven directly.
type stateTracker struct {
	dev Device
	cur passState
}

// newStateTracker wraps dev and forces it into the base state.
func newStateTracker(dev Device) *stateTracker {
	t := &stateTracker{dev: dev}
	t.restore(basePassState())
	return t
}

func (t *stateTracker) setStencilFunc(cmp gputypes.CompareFunction, ref uint32) {
	t.cur.stencilCmp, t.cur.stencilRef = cmp, ref
	t.dev.SetStencilFunc(cmp, ref)
}

func (t *stateTracker) setStencilWrite(op StencilOp, mask uint32) {
	t.cur.stencilOp, t.cur.stencilMask = op, mask
	t.dev.SetStencilWrite(op, mask)
}

func (t *stateTracker) setDepthFunc(cmp gputypes.CompareFunction) {
	t.cur.depthCmp = cmp
	t.dev.SetDepthFunc(cmp)
}

func (t *stateTracker) setDepthWrite(enabled bool) {
	t.cur.depthWrite = enabled
	t.dev.SetDepthWrite(enabled)
}

func (t *stateTracker) setDepthRange(near, far float64) {
	t.cur.depthNear, t.cur.depthFar = near, far
	t.dev.SetDepthRange(near, far)
}

func (t *stateTracker) setColorWrite(mask gputypes.ColorWriteMask) {
	t.cur.colorMask = mask
	t.dev.SetColorWrite(mask)
}

func (t *stateTracker) setCullMode(mode gputypes.CullMode) {
	t.cur.cullMode = mode
	t.dev.SetCullMode(mode)
}

// save returns the current state for a later restore.
func (t *stateTracker) save() passState {
	return t.cur
}

// restore replays a saved state onto the device.
func (t *stateTracker) restore(s passState) {
	t.setStencilFunc(s.stencilCmp, s.stencilRef)
	t.setStencilWrite(s.stencilOp, s.stencilMask)
	t.setDepthFunc(s.depthCmp)
	t.setDepthWrite(s.depthWrite)
	t.setDepthRange(s.depthNear, s.depthFar)
	t.setColorWrite(s.colorMask)
	t.setCullMode(s.cullMode)
}
