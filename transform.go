package portal

import "math"

// This file implements the portal-pair coordinate transforms. A linked
// pair of portals defines a mapping from the space in front of the
// source portal to the space in front of the destination portal; the
// mapping is the source's local frame, a half-turn about local Y (so
// that walking into the front of one portal exits the front of the
// other), then the destination's frame.

// PairTransform returns the world-to-world transform carrying points
// seen through the portal at src to their apparent location at dst.
// Both matrices must be rigid portal transforms.
func PairTransform(src, dst Mat4) Mat4 {
	return dst.Mul(RotateY(math.Pi)).Mul(src.Invert())
}

// TransformPoint maps a world-space point through the portal pair.
func TransformPoint(src, dst Mat4, p Vec3) Vec3 {
	return PairTransform(src, dst).MulVec4(Vec4{p.X, p.Y, p.Z, 1}).Vec3()
}

// TransformDirection maps a world-space direction through the portal
// pair and renormalizes the result to unit length. A zero direction
// maps to the zero vector.
func TransformDirection(src, dst Mat4, d Vec3) Vec3 {
	return PairTransform(src, dst).MulVec4(Vec4{d.X, d.Y, d.Z, 0}).Vec3().Normalize()
}

// TransformFrame maps a full rigid transform (an entity's frame)
// through the portal pair.
func TransformFrame(src, dst, frame Mat4) Mat4 {
	return PairTransform(src, dst).Mul(frame)
}

// VirtualCameraView derives the view matrix of the virtual camera that
// observes the destination side of a portal pair: the player camera
// moved through the pair. view is the player's view matrix (world to
// camera).
func VirtualCameraView(view, src, dst Mat4) Mat4 {
	camWorld := view.Invert()
	return PairTransform(src, dst).Mul(camWorld).Invert()
}

// PortalPlane returns the world-space plane of a portal surface whose
// rigid transform is m. The plane normal is the portal's local +Z
// axis, pointing out of the portal's front face.
func PortalPlane(m Mat4) Plane {
	return PlaneFromPointNormal(m.Col3(3), m.Col3(2))
}

// SignedDistance returns the signed distance from p to the portal
// plane of the transform m: positive in front of the portal, negative
// behind it.
func SignedDistance(m Mat4, p Vec3) float64 {
	return PortalPlane(m).SignedDistance(p)
}

func sgn(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// ObliqueProjection returns a copy of the perspective projection proj
// whose near plane is replaced by the given view-space clip plane
// (Lengyel's oblique near-plane clipping). The clip plane is
// (Nx, Ny, Nz, D) with the normal pointing toward the camera; geometry
// behind the plane is clipped exactly, at the cost of a degraded depth
// range far from the plane.
func ObliqueProjection(proj Mat4, clip Vec4) Mat4 {
	// Clip-space corner opposite the plane.
	q := Vec4{
		X: (sgn(clip.X) + proj[8]) / proj[0],
		Y: (sgn(clip.Y) + proj[9]) / proj[5],
		Z: -1,
		W: (1 + proj[10]) / proj[14],
	}
	c := clip.Mul(2 / clip.Dot(q))

	// Rewrite the third row so the near plane becomes the clip plane.
	r := proj
	r[2] = c.X - r[3]
	r[6] = c.Y - r[7]
	r[10] = c.Z - r[11]
	r[14] = c.W - r[15]
	return r
}
