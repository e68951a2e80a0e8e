package portal

import (
	"errors"
	"fmt"
	"math"
)

// Default portal surface extents in world units.
const (
	DefaultWidth  = 2.0
	DefaultHeight = 3.0
)

// rigidEpsilon bounds the tolerated deviation when validating that a
// portal transform carries no scale or shear.
const rigidEpsilon = 1e-6

var (
	// ErrNotRigid is returned when a portal transform contains scale,
	// shear, or a non-affine bottom row.
	ErrNotRigid = errors.New("portal: transform is not rigid")

	// ErrInvalidHandle is returned when a handle does not name a live
	// portal in the registry.
	ErrInvalidHandle = errors.New("portal: invalid handle")

	// ErrBadExtent is returned when a portal is created with a
	// non-positive width or height.
	ErrBadExtent = errors.New("portal: width and height must be positive")
)

// Handle names a portal inside a Registry. Portals refer to their
// linked partner by Handle, never by pointer, so removing one side can
// never leave a dangling reference. The zero Handle is invalid.
type Handle uint32

// NoHandle is the invalid zero handle.
const NoHandle Handle = 0

// Target is a renderer-owned resource attached to a portal, typically
// an offscreen render target. The registry releases it exactly once
// when the portal is removed.
type Target interface {
	Destroy()
}

// Portal is a rectangular surface embedded in the world by a rigid
// transform. The local X axis spans the width, Y the height, and +Z is
// the front-face normal.
type Portal struct {
	Transform Mat4
	Width     float64
	Height    float64
	Active    bool
	Link      Handle
	Target    Target
}

// NewPortal returns an active, unlinked portal with the default
// extents at the given transform.
func NewPortal(transform Mat4) Portal {
	return Portal{
		Transform: transform,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Active:    true,
	}
}

// Position returns the portal center in world space.
func (p *Portal) Position() Vec3 { return p.Transform.Col3(3) }

// Normal returns the front-face normal (local +Z) in world space.
func (p *Portal) Normal() Vec3 { return p.Transform.Col3(2) }

// Up returns the local +Y axis in world space.
func (p *Portal) Up() Vec3 { return p.Transform.Col3(1) }

// Right returns the local +X axis in world space.
func (p *Portal) Right() Vec3 { return p.Transform.Col3(0) }

// Plane returns the world-space portal plane.
func (p *Portal) Plane() Plane { return PortalPlane(p.Transform) }

// SignedDistance returns the signed distance from a world point to the
// portal plane, positive in front.
func (p *Portal) SignedDistance(world Vec3) float64 {
	return SignedDistance(p.Transform, world)
}

// ContainsPoint reports whether a world point projects inside the
// portal rectangle. Only the local X/Y extent is tested; the caller
// supplies a point on (or near) the portal plane.
func (p *Portal) ContainsPoint(world Vec3) bool {
	local := p.Transform.Invert().MulVec4(Vec4{world.X, world.Y, world.Z, 1})
	return math.Abs(local.X) <= p.Width/2 && math.Abs(local.Y) <= p.Height/2
}

// Registry owns the portals of a scene and the symmetric link relation
// between them. Handles are stable for the life of the registry;
// removed slots are never reused.
//
// Registry is not safe for concurrent use.
type Registry struct {
	portals []*Portal
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add validates and stores a portal, returning its handle.
// The transform must be rigid and the extents positive.
func (r *Registry) Add(p Portal) (Handle, error) {
	if !p.Transform.IsRigid(rigidEpsilon) {
		return NoHandle, ErrNotRigid
	}
	if p.Width <= 0 || p.Height <= 0 {
		return NoHandle, ErrBadExtent
	}
	p.Link = NoHandle
	stored := p
	r.portals = append(r.portals, &stored)
	return Handle(len(r.portals)), nil
}

// Get returns the portal named by h, or nil if h is invalid or the
// portal has been removed.
func (r *Registry) Get(h Handle) *Portal {
	if h == NoHandle || int(h) > len(r.portals) {
		return nil
	}
	return r.portals[h-1]
}

// Link connects two portals as a pair. Linking is symmetric; any
// previous link on either side is cleared first so the relation stays
// one-to-one.
func (r *Registry) Link(a, b Handle) error {
	pa, pb := r.Get(a), r.Get(b)
	if pa == nil || pb == nil {
		return fmt.Errorf("link %d-%d: %w", a, b, ErrInvalidHandle)
	}
	if a == b {
		return fmt.Errorf("link %d-%d: %w", a, b, ErrInvalidHandle)
	}
	r.Unlink(a)
	r.Unlink(b)
	pa.Link = b
	pb.Link = a
	return nil
}

// Unlink clears the link on h and on its partner, if any.
func (r *Registry) Unlink(h Handle) {
	p := r.Get(h)
	if p == nil || p.Link == NoHandle {
		return
	}
	if partner := r.Get(p.Link); partner != nil && partner.Link == h {
		partner.Link = NoHandle
	}
	p.Link = NoHandle
}

// Remove unlinks and deletes the portal named by h, releasing its
// render target exactly once. The partner portal survives, unlinked.
func (r *Registry) Remove(h Handle) {
	p := r.Get(h)
	if p == nil {
		return
	}
	r.Unlink(h)
	if p.Target != nil {
		p.Target.Destroy()
		p.Target = nil
	}
	r.portals[h-1] = nil
}

// LinkedOf returns the partner handle of h, or NoHandle if h is
// invalid or unlinked.
func (r *Registry) LinkedOf(h Handle) Handle {
	if p := r.Get(h); p != nil {
		return p.Link
	}
	return NoHandle
}

// Each calls fn for every live portal in handle order.
func (r *Registry) Each(fn func(h Handle, p *Portal)) {
	for i, p := range r.portals {
		if p != nil {
			fn(Handle(i+1), p)
		}
	}
}

// Len returns the number of live portals.
func (r *Registry) Len() int {
	n := 0
	for _, p := range r.portals {
		if p != nil {
			n++
		}
	}
	return n
}
