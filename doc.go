// Package portal provides recursive portal rendering primitives for Go.
//
// # Overview
//
// portal implements the coordinate machinery and scene bookkeeping for
// see-through, walk-through portal pairs in a 3D scene, designed to
// integrate with the GoGPU ecosystem. The root package holds the math
// types (Vec3, Vec4, Mat4, Plane), the pair transform library, the
// portal registry, and the crossing detector/teleporter. Rendering
// lives in the render/ subpackage with a wgpu-hal backend in gpu/.
//
// # Quick Start
//
//	import "github.com/gogpu/portal"
//
//	reg := portal.NewRegistry()
//	a, _ := reg.Add(portal.NewPortal(portal.Translate3D(0, 1.5, -5)))
//	b, _ := reg.Add(portal.NewPortal(portal.Translate3D(8, 1.5, 3).Mul(portal.RotateY(1.2))))
//	reg.Link(a, b)
//
//	tp := portal.NewTeleporter(reg)
//	player := portal.NewEntity(portal.V3(0, 1.5, 0))
//	// each frame: update player.PrevPosition/Position, then
//	tp.Step(player, now)
//
// # Coordinate System
//
// Right-handed OpenGL convention: X right, Y up, -Z forward for
// cameras. Portal surfaces span local X/Y with +Z as the front-face
// normal. Matrices are column-major; depth maps to [-1, 1].
//
// # Concurrency
//
// Registry, Teleporter, and the renderer are single-goroutine types,
// matching the one-thread-owns-the-frame model of the GPU backends.
// SetLogger/Logger are safe for concurrent use.
package portal
