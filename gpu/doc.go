//go:build !nogpu

// Package gpu implements the portal renderer's Device interface on
// gogpu/wgpu HAL.
//
// The recursive renderer speaks a small fixed-function vocabulary:
// stencil test and pass operation, depth test and range, color and cull
// state, and two draw calls. WebGPU has no fixed-function state, so the
// Backend bakes each distinct state combination into a cached render
// pipeline and keeps the genuinely dynamic pieces (stencil reference,
// depth range) as pass-encoder state.
//
// A frame is one command encoder and, normally, one render pass:
//
//	backend.BeginFrame()
//	renderer.RenderFrame(view, proj, scene, sky)
//	err := backend.EndFrame() // submit + fence wait
//
// Scene collaborators draw through Backend.Pass, which exposes the open
// HAL render pass encoder between BeginFrame and EndFrame.
//
// Shaders are authored in WGSL and translated to SPIR-V through naga at
// startup; if translation fails the WGSL source is handed to the HAL
// directly.
package gpu
