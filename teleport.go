package portal

import "fmt"

// CooldownSeconds is the default minimum time between two teleports of
// the same entity. It prevents oscillation when an entity lingers on
// the portal plane.
const CooldownSeconds = 0.3

// Entity is a teleportable object: a position with one frame of
// history, a velocity, and a full rigid frame for orientation.
// LastTeleport is a timestamp in the caller's clock (seconds).
type Entity struct {
	Position     Vec3
	PrevPosition Vec3
	Velocity     Vec3
	Transform    Mat4
	LastTeleport float64
}

// NewEntity returns an entity at rest at pos whose cooldown has
// already expired, so a crossing in the first frame teleports.
func NewEntity(pos Vec3) *Entity {
	return &Entity{
		Position:     pos,
		PrevPosition: pos,
		Transform:    Translate3D(pos.X, pos.Y, pos.Z),
		LastTeleport: -CooldownSeconds,
	}
}

// Teleporter detects portal-plane crossings and carries entities
// through linked portal pairs.
type Teleporter struct {
	reg *Registry

	// Cooldown is the minimum time in seconds between teleports of
	// one entity. Defaults to CooldownSeconds.
	Cooldown float64
}

// NewTeleporter returns a teleporter over the given registry.
func NewTeleporter(reg *Registry) *Teleporter {
	return &Teleporter{reg: reg, Cooldown: CooldownSeconds}
}

// pair resolves h to a live, active, linked portal and its partner.
func (t *Teleporter) pair(h Handle) (src, dst *Portal, err error) {
	src = t.reg.Get(h)
	if src == nil || !src.Active {
		return nil, nil, fmt.Errorf("teleport through %d: %w", h, ErrInvalidHandle)
	}
	dst = t.reg.Get(src.Link)
	if dst == nil || !dst.Active {
		return nil, nil, fmt.Errorf("teleport through %d: unlinked: %w", h, ErrInvalidHandle)
	}
	return src, dst, nil
}

// Crossing reports whether the entity's movement from PrevPosition to
// Position crossed the portal plane inside the portal rectangle, and
// returns the intersection point on the plane. The movement counts as
// a crossing only when the signed distance changed sign with at least
// one side strictly nonzero; an entity resting exactly on the plane
// never crosses. Crossings during the cooldown window are suppressed.
func (t *Teleporter) Crossing(e *Entity, h Handle, now float64) (Vec3, bool) {
	src, _, err := t.pair(h)
	if err != nil {
		return Vec3{}, false
	}
	if now-e.LastTeleport < t.Cooldown {
		return Vec3{}, false
	}

	prev := SignedDistance(src.Transform, e.PrevPosition)
	curr := SignedDistance(src.Transform, e.Position)
	flipped := (prev > 0 && curr <= 0) || (prev < 0 && curr >= 0)
	if !flipped {
		return Vec3{}, false
	}

	// Intersection of the movement segment with the plane.
	f := prev / (prev - curr)
	cross := e.PrevPosition.Lerp(e.Position, f)
	if !src.ContainsPoint(cross) {
		return Vec3{}, false
	}
	return cross, true
}

// Teleport carries the entity through the portal pair at h: position,
// position history, orientation frame, and velocity all move together,
// with the velocity rescaled to its original speed after the direction
// transform. The entity is modified only if the pair resolves, and the
// cooldown stamp is taken from now.
func (t *Teleporter) Teleport(e *Entity, h Handle, now float64) error {
	src, dst, err := t.pair(h)
	if err != nil {
		return err
	}

	pos := TransformPoint(src.Transform, dst.Transform, e.Position)
	prev := TransformPoint(src.Transform, dst.Transform, e.PrevPosition)
	frame := TransformFrame(src.Transform, dst.Transform, e.Transform)
	speed := e.Velocity.Length()
	vel := TransformDirection(src.Transform, dst.Transform, e.Velocity).Mul(speed)

	e.Position = pos
	e.PrevPosition = prev
	e.Transform = frame
	e.Velocity = vel
	e.LastTeleport = now
	return nil
}

// Step checks the entity against every active linked portal and
// teleports it through the first confirmed crossing. It returns the
// portal crossed, or (NoHandle, false) when the entity stayed put.
func (t *Teleporter) Step(e *Entity, now float64) (Handle, bool) {
	var crossed Handle
	t.reg.Each(func(h Handle, p *Portal) {
		if crossed != NoHandle || !p.Active || p.Link == NoHandle {
			return
		}
		if _, ok := t.Crossing(e, h, now); ok {
			if err := t.Teleport(e, h, now); err == nil {
				crossed = h
			}
		}
	})
	return crossed, crossed != NoHandle
}

// CloneTransform returns the frame an entity's ghost occupies on the
// far side of the portal at h while the entity straddles the plane.
func (t *Teleporter) CloneTransform(entityFrame Mat4, h Handle) (Mat4, error) {
	src, dst, err := t.pair(h)
	if err != nil {
		return Identity4(), err
	}
	return TransformFrame(src.Transform, dst.Transform, entityFrame), nil
}

// NearPlane reports whether the entity is close enough to the portal
// plane, and inside the portal rectangle, that its far-side ghost
// should be rendered.
func (t *Teleporter) NearPlane(e *Entity, h Handle, threshold float64) bool {
	src, _, err := t.pair(h)
	if err != nil {
		return false
	}
	d := SignedDistance(src.Transform, e.Position)
	if d > threshold || d < -threshold {
		return false
	}
	return src.ContainsPoint(e.Position)
}
