package geom

import "math"

// Affine2 is a 2D affine transform: p' = M*p + T.
type Affine2 struct {
	A, B, C, D float64 // 2x2 linear part: [[A,B],[C,D]]
	Tx, Ty     float64 // translation
}

// Identity2 is the identity transform.
func Identity2() Affine2 { return Affine2{A: 1, D: 1} }

// Translation2 returns a pure translation.
func Translation2(v Vec2) Affine2 { return Affine2{A: 1, D: 1, Tx: v.X, Ty: v.Y} }

// Rotation2 returns a rotation by theta radians about the origin.
func Rotation2(theta float64) Affine2 {
	c, s := math.Cos(theta), math.Sin(theta)
	return Affine2{A: c, B: -s, C: s, D: c}
}

// Scale2 returns a scale transform; uniform when sx==sy.
func Scale2(sx, sy float64) Affine2 { return Affine2{A: sx, D: sy} }

// Apply transforms a point.
func (m Affine2) Apply(p Point2) Point2 {
	return Point2{
		X: m.A*p.X + m.B*p.Y + m.Tx,
		Y: m.C*p.X + m.D*p.Y + m.Ty,
	}
}

// ApplyVec transforms a vector (ignoring translation).
func (m Affine2) ApplyVec(v Vec2) Vec2 {
	return Vec2{X: m.A*v.X + m.B*v.Y, Y: m.C*v.X + m.D*v.Y}
}

// Compose returns the transform that applies m first, then n.
func (m Affine2) Compose(n Affine2) Affine2 {
	return Affine2{
		A: n.A*m.A + n.B*m.C, B: n.A*m.B + n.B*m.D,
		C: n.C*m.A + n.D*m.C, D: n.C*m.B + n.D*m.D,
		Tx: n.A*m.Tx + n.B*m.Ty + n.Tx,
		Ty: n.C*m.Tx + n.D*m.Ty + n.Ty,
	}
}

// IsUniformScale reports whether the linear part is a pure uniform scale
// (times an optional rotation), i.e. it maps circles to circles.
func (m Affine2) IsUniformScale() bool {
	const eps = 1e-9
	// M^T M should be a multiple of the identity.
	e11 := m.A*m.A + m.C*m.C
	e22 := m.B*m.B + m.D*m.D
	e12 := m.A*m.B + m.C*m.D
	return math.Abs(e11-e22) < eps*math.Max(1, e11) && math.Abs(e12) < eps
}

// UniformScaleFactor returns the scale factor of a uniform-scale transform.
// Only meaningful when IsUniformScale is true.
func (m Affine2) UniformScaleFactor() float64 {
	return math.Sqrt(m.A*m.A + m.C*m.C)
}

// IsAxisAligned90 reports whether the linear part maps axes to axes (i.e. is
// a multiple of 0/90/180/270 degree rotation composed with axis scales),
// which is the condition under which an AARect stays an AARect.
func (m Affine2) IsAxisAligned90() bool {
	const eps = 1e-9
	return (math.Abs(m.B) < eps && math.Abs(m.C) < eps) ||
		(math.Abs(m.A) < eps && math.Abs(m.D) < eps)
}
