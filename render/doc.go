// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render implements the backend-agnostic recursive portal
// renderer.
//
// The renderer drives a small fixed-function Device interface; the
// gpu package provides a wgpu-hal implementation and tests use
// recording fakes. Scene content itself is drawn by external
// collaborators handed in as SceneFunc values, so the renderer owns
// only the portal bookkeeping: stencil region marking, depth
// clearing and sealing, virtual camera derivation, oblique near-plane
// clipping, and the recursion bookkeeping around them.
package render
