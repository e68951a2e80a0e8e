// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/portal"
)

// stencilMax is the largest tag an 8-bit stencil buffer can hold.
// Tags are parentTag + handle, so deep chains of high-handle portals
// can exceed it; such branches are aborted, not wrapped. See Stats and
// AbortStencilRange.
const stencilMax = 0xFF

// Stats summarizes one rendered frame.
type Stats struct {
	// Branches counts portal traversals that passed culling.
	Branches int

	// ContentPasses counts scene draws through portals (one per
	// surviving branch).
	ContentPasses int

	// Aborted counts branches dropped by the degeneracy checks or the
	// stencil range bound.
	Aborted int

	// Capped counts walks stopped by the recursion limit.
	Capped int

	// DeepestLevel is the deepest recursion level that drew content.
	// Level 1 means only directly visible portals.
	DeepestLevel int
}

// frame is the immutable per-level context threaded through the
// recursive walk. Each recursion step derives a new frame; nothing in
// it is shared or mutated across branches.
type frame struct {
	view portal.Mat4
	proj portal.Mat4

	level int

	// tag is the stencil value of the region this level draws into
	// (0 for the player's own view).
	tag uint32

	// exclude is the portal whose pair must not be traversed again at
	// this level: the one just stepped through.
	exclude portal.Handle
}

// Renderer draws a scene with recursive stencil-masked portals.
//
// Each visible portal is traversed as a little state machine: mark the
// portal's screen region in the stencil buffer, clear its depth,
// derive the virtual camera and an oblique-clipped projection, recurse
// into portals visible through it, draw the scene content confined to
// the region, seal the portal's own depth, and restore the pass state.
//
// Renderer is not safe for concurrent use.
type Renderer struct {
	reg   *portal.Registry
	state *stateTracker
	cfg   Config
	hooks Hooks

	stats Stats
}

// NewRenderer builds a renderer over reg driving dev. Zero-valued
// Config fields take their defaults.
func NewRenderer(reg *portal.Registry, dev Device, cfg Config) *Renderer {
	return &Renderer{
		reg:   reg,
		state: newStateTracker(dev),
		cfg:   cfg.withDefaults(),
	}
}

// SetHooks installs observability hooks. Nil fields log through
// portal.Logger at debug level.
func (r *Renderer) SetHooks(h Hooks) {
	r.hooks = h
}

// Config returns the effective configuration.
func (r *Renderer) Config() Config {
	return r.cfg
}

// AttachTargets asks build to create a render target for every active
// portal that has none. A failed build deactivates the portal and fires
// the TargetFailed hook, so one broken target cannot take the frame
// down. Returns the number of targets attached.
func (r *Renderer) AttachTargets(build func(h portal.Handle, p *portal.Portal) (portal.Target, error)) int {
	attached := 0
	r.reg.Each(func(h portal.Handle, p *portal.Portal) {
		if !p.Active || p.Target != nil {
			return
		}
		target, err := build(h, p)
		if err != nil {
			p.Active = false
			r.hooks.targetFailed(h, err)
			return
		}
		p.Target = target
		attached++
	})
	return attached
}

// RenderFrame draws one frame: the player-level scene, every visible
// portal recursively, and the portal frames. scene draws all world
// geometry except portal surfaces and frames; sky draws the background
// and may be nil.
func (r *Renderer) RenderFrame(view, proj portal.Mat4, scene, sky SceneFunc) Stats {
	r.stats = Stats{}
	t := r.state
	t.restore(basePassState())
	t.dev.ClearStencil(0)

	// Player-level content first, so portal marking depth-tests
	// against real occluders.
	if scene != nil {
		scene(view, proj)
	}
	if sky != nil {
		sky(view, proj)
	}

	r.walk(frame{view: view, proj: proj}, scene, sky)
	r.framePass(view, proj)

	t.restore(basePassState())
	return r.stats
}

// walk traverses every eligible portal at one recursion level.
func (r *Renderer) walk(f frame, scene, sky SceneFunc) {
	if f.level >= r.cfg.MaxDepth {
		r.stats.Capped++
		r.hooks.recursionCapped(f.level)
		return
	}

	var exA, exB portal.Handle
	if f.exclude != portal.NoHandle {
		exA, exB = f.exclude, r.reg.LinkedOf(f.exclude)
	}

	camWorld := f.view.Invert()
	camPos := camWorld.Col3(3)
	camForward := camWorld.Col3(2).Neg()

	r.reg.Each(func(h portal.Handle, p *portal.Portal) {
		if !p.Active || h == exA || h == exB {
			return
		}
		partner := r.reg.Get(p.Link)
		if partner == nil || !partner.Active {
			return
		}
		if !r.visible(p, camPos, camForward) {
			return
		}
		r.traverse(f, h, p, partner, camPos, scene, sky)
	})
}

// visible culls portals behind the camera or too far away.
func (r *Renderer) visible(p *portal.Portal, camPos, camForward portal.Vec3) bool {
	toPortal := p.Position().Sub(camPos)
	if toPortal.Length() > r.cfg.MaxDistance {
		return false
	}
	return toPortal.Dot(camForward) >= -r.cfg.ForwardSlack
}

// traverse runs the per-portal pass sequence at one recursion level.
func (r *Renderer) traverse(f frame, h portal.Handle, p, partner *portal.Portal, camPos portal.Vec3, scene, sky SceneFunc) {
	tag := f.tag + uint32(h)
	if tag > stencilMax {
		r.stats.Aborted++
		r.hooks.branchAborted(h, f.level, AbortStencilRange)
		return
	}

	r.stats.Branches++
	r.hooks.branchEntered(h, f.level, tag)

	t := r.state
	saved := t.save()
	defer t.restore(saved)

	mvp := f.proj.Mul(f.view).Mul(p.Transform)

	// Mark: raise the stencil in the visible quad region from the
	// parent tag to this branch's tag, one increment per step so the
	// test stays confined to the parent region throughout.
	t.setColorWrite(gputypes.ColorWriteMaskNone)
	t.setDepthWrite(false)
	t.setCullMode(gputypes.CullModeNone)
	t.setStencilWrite(StencilOpIncrement, 0xFF)
	for v := f.tag; v < tag; v++ {
		t.setStencilFunc(gputypes.CompareFunctionEqual, v)
		t.dev.DrawPortalSurface(h, mvp)
	}

	// Two-sided portals: seen from the back, the entry flips half a
	// turn so the mapping stays front-to-front.
	effSrc := p.Transform
	if p.SignedDistance(camPos) < 0 {
		effSrc = effSrc.Mul(portal.RotateY(math.Pi))
	}

	virtView := portal.VirtualCameraView(f.view, effSrc, partner.Transform)

	virtProj, ok := r.clipProjection(f, h, partner, virtView)
	if !ok {
		return
	}

	// Clear depth inside the region so the virtual scene starts from
	// a far plane, then confine all further drawing to the region.
	t.setStencilFunc(gputypes.CompareFunctionEqual, tag)
	t.setStencilWrite(StencilOpKeep, 0x00)
	t.setDepthWrite(true)
	t.setDepthFunc(gputypes.CompareFunctionAlways)
	t.setDepthRange(1, 1)
	t.dev.DrawPortalSurface(h, mvp)
	t.setDepthRange(0, 1)
	t.setDepthFunc(gputypes.CompareFunctionLess)

	// Deeper portals first: their regions take nested tags, so this
	// level's content cannot spill into them afterwards.
	r.walk(frame{
		view:    virtView,
		proj:    virtProj,
		level:   f.level + 1,
		tag:     tag,
		exclude: h,
	}, scene, sky)

	// Content seen through the portal, confined to the region.
	t.setColorWrite(gputypes.ColorWriteMaskAll)
	t.setCullMode(gputypes.CullModeBack)
	if sky != nil {
		sky(virtView, virtProj)
	}
	if scene != nil {
		scene(virtView, virtProj)
	}
	r.contentFrames(f, h, virtView, virtProj)
	r.stats.ContentPasses++
	if f.level+1 > r.stats.DeepestLevel {
		r.stats.DeepestLevel = f.level + 1
	}

	// Seal: stamp the portal quad's real depth over the region so
	// later siblings and the frame pass treat it as solid geometry.
	t.setColorWrite(gputypes.ColorWriteMaskNone)
	t.setDepthFunc(gputypes.CompareFunctionAlways)
	t.setCullMode(gputypes.CullModeNone)
	t.dev.DrawPortalSurface(h, mvp)
}

// contentFrames draws the border frames of every other portal as part
// of the through-the-portal content, excluding the pair being
// traversed.
func (r *Renderer) contentFrames(f frame, entry portal.Handle, view, proj portal.Mat4) {
	partner := r.reg.LinkedOf(entry)
	r.reg.Each(func(h portal.Handle, p *portal.Portal) {
		if !p.Active || h == entry || h == partner {
			return
		}
		r.state.dev.DrawPortalFrame(h, proj.Mul(view).Mul(p.Transform))
	})
}

// clipProjection derives the projection used through a portal: the
// parent projection with its near plane moved onto the destination
// portal plane. Three tiers, decided in view space of the virtual
// camera: oblique clipping when the plane is numerically sound, a
// pushed-out conventional near plane when the plane is almost edge-on,
// and aborting the branch when the plane is behind the camera.
func (r *Renderer) clipProjection(f frame, h portal.Handle, dst *portal.Portal, virtView portal.Mat4) (portal.Mat4, bool) {
	dstPos := dst.Position()
	dstNormal := dst.Normal()

	cp := virtView.MulVec4(portal.V4(dstPos.X, dstPos.Y, dstPos.Z, 1)).Vec3()
	cn := virtView.MulVec4(portal.V4(dstNormal.X, dstNormal.Y, dstNormal.Z, 0)).Vec3().Normalize()
	// Keep the side facing the camera.
	if cn.Z > 0 {
		cn = cn.Neg()
	}
	clipD := -cn.Dot(cp) - r.cfg.ClipOffset

	if clipD > -r.cfg.ClipOffset {
		// Plane behind or on the virtual camera.
		r.stats.Aborted++
		r.hooks.branchAborted(h, f.level, AbortBehindCamera)
		return portal.Mat4{}, false
	}

	if math.Abs(cn.Z) >= r.cfg.DegenerateZ {
		return portal.ObliqueProjection(f.proj, portal.V4(cn.X, cn.Y, cn.Z, clipD)), true
	}

	// Near edge-on: clip by distance instead of plane.
	portalDist := -cp.Z
	if portalDist < r.cfg.MinPortalDistance {
		r.stats.Aborted++
		r.hooks.branchAborted(h, f.level, AbortTooClose)
		return portal.Mat4{}, false
	}
	near := portalDist * r.cfg.NearScale
	if near < 0.01 {
		near = 0.01
	}
	fovy := 2 * math.Atan(1/f.proj[5])
	aspect := f.proj[5] / f.proj[0]
	return portal.Perspective(fovy, aspect, near, r.cfg.FarPlane), true
}

// framePass draws every portal's border frame on the player level,
// restricted to screen areas no portal content claimed.
func (r *Renderer) framePass(view, proj portal.Mat4) {
	t := r.state
	saved := t.save()
	defer t.restore(saved)

	t.setStencilFunc(gputypes.CompareFunctionEqual, 0)
	t.setStencilWrite(StencilOpKeep, 0x00)
	r.reg.Each(func(h portal.Handle, p *portal.Portal) {
		if !p.Active {
			return
		}
		t.dev.DrawPortalFrame(h, proj.Mul(view).Mul(p.Transform))
	})
}
