// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/portal"
)

// AbortReason classifies why a recursion branch was dropped.
type AbortReason uint8

const (
	// AbortBehindCamera means the virtual portal plane ended up behind
	// or almost on the virtual camera.
	AbortBehindCamera AbortReason = iota

	// AbortTooClose means the degenerate-angle fallback could not push
	// the near plane out because the portal was nearly touching the
	// camera.
	AbortTooClose

	// AbortStencilRange means the branch's stencil tag would not fit
	// the 8-bit stencil buffer.
	AbortStencilRange
)

// String returns the reason name for logging.
func (r AbortReason) String() string {
	switch r {
	case AbortBehindCamera:
		return "behind-camera"
	case AbortTooClose:
		return "too-close"
	case AbortStencilRange:
		return "stencil-range"
	}
	return "unknown"
}

// Hooks receives renderer events. All fields are optional; nil hooks
// fall back to debug logging through portal.Logger. Hooks are invoked
// synchronously on the rendering goroutine.
type Hooks struct {
	// BranchEntered fires when a portal traversal starts, after
	// culling, with the stencil tag assigned to the branch.
	BranchEntered func(h portal.Handle, level int, tag uint32)

	// BranchAborted fires when a traversal is dropped mid-pass. The
	// device state has already been restored when it fires.
	BranchAborted func(h portal.Handle, level int, reason AbortReason)

	// RecursionCapped fires once per frame and level when the depth
	// limit stopped further descent.
	RecursionCapped func(level int)

	// TargetFailed fires when a portal's render target could not be
	// prepared; the portal is skipped for the frame.
	TargetFailed func(h portal.Handle, err error)
}

func (hk *Hooks) branchEntered(h portal.Handle, level int, tag uint32) {
	if hk.BranchEntered != nil {
		hk.BranchEntered(h, level, tag)
		return
	}
	portal.Logger().Debug("portal branch entered",
		"portal", uint32(h), "level", level, "tag", tag)
}

func (hk *Hooks) branchAborted(h portal.Handle, level int, reason AbortReason) {
	if hk.BranchAborted != nil {
		hk.BranchAborted(h, level, reason)
		return
	}
	portal.Logger().Debug("portal branch aborted",
		"portal", uint32(h), "level", level, "reason", reason.String())
}

func (hk *Hooks) recursionCapped(level int) {
	if hk.RecursionCapped != nil {
		hk.RecursionCapped(level)
		return
	}
	portal.Logger().Debug("portal recursion capped", "level", level)
}

func (hk *Hooks) targetFailed(h portal.Handle, err error) {
	if hk.TargetFailed != nil {
		hk.TargetFailed(h, err)
		return
	}
	portal.Logger().Warn("portal render target failed",
		"portal", uint32(h), "error", err)
}
