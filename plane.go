package portal

// Plane is an infinite plane in Hessian normal form: points p on the
// plane satisfy N·p + D == 0.
type Plane struct {
	N Vec3
	D float64
}

// PlaneFromPointNormal builds the plane through point p with normal n.
// The normal is normalized; a zero normal yields a degenerate plane.
func PlaneFromPointNormal(p, n Vec3) Plane {
	un := n.Normalize()
	return Plane{N: un, D: -un.Dot(p)}
}

// SignedDistance returns the signed distance from p to the plane:
// positive on the side the normal points toward, negative behind.
func (pl Plane) SignedDistance(p Vec3) float64 {
	return pl.N.Dot(p) + pl.D
}

// Vec4 packs the plane coefficients as (Nx, Ny, Nz, D).
func (pl Plane) Vec4() Vec4 {
	return Vec4{X: pl.N.X, Y: pl.N.Y, Z: pl.N.Z, W: pl.D}
}

// Transform maps the plane through a rigid transform m. Plane
// coefficients transform by the inverse transpose of the matrix that
// transforms points.
func (pl Plane) Transform(m Mat4) Plane {
	v := m.Invert().Transposed().MulVec4(pl.Vec4())
	n := v.Vec3()
	l := n.Length()
	if l == 0 {
		return Plane{}
	}
	return Plane{N: n.Mul(1 / l), D: v.W / l}
}
