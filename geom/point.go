// Package geom provides the 2D and 2.5D geometric primitives shared by the
// rest of the autorouter core: points, vectors, segments and affine
// transforms. Layers are a discrete integer axis; everything else is
// continuous board-internal units.
package geom

import "math"

// MaxLayer is the hard cap on layer indices (spec §3.1).
const MaxLayer = 32

// Point2 is a point in the 2D plane.
type Point2 struct {
	X, Y float64
}

// Vec2 is a 2D vector; it shares the representation of Point2 but is kept
// distinct to avoid accidentally adding two positions together.
type Vec2 struct {
	X, Y float64
}

func (p Point2) Add(v Vec2) Point2   { return Point2{p.X + v.X, p.Y + v.Y} }
func (p Point2) Sub(q Point2) Vec2   { return Vec2{p.X - q.X, p.Y - q.Y} }
func (p Point2) ScaleFrom(o Point2, s float64) Point2 {
	return Point2{o.X + (p.X-o.X)*s, o.Y + (p.Y-o.Y)*s}
}

func (v Vec2) Add(w Vec2) Vec2       { return Vec2{v.X + w.X, v.Y + w.Y} }
func (v Vec2) Sub(w Vec2) Vec2       { return Vec2{v.X - w.X, v.Y - w.Y} }
func (v Vec2) Scale(s float64) Vec2  { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(w Vec2) float64    { return v.X*w.X + v.Y*w.Y }
func (v Vec2) Cross(w Vec2) float64  { return v.X*w.Y - v.Y*w.X }
func (v Vec2) SquaredLen() float64   { return v.X*v.X + v.Y*v.Y }
func (v Vec2) Len() float64          { return math.Sqrt(v.SquaredLen()) }

// Normalized returns v scaled to unit length, or the zero vector if v is
// (numerically) the zero vector.
func (v Vec2) Normalized() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Perp returns the vector rotated 90 degrees counter-clockwise.
func (v Vec2) Perp() Vec2 { return Vec2{-v.Y, v.X} }

// SquaredDistance returns the squared Euclidean distance between two points.
func SquaredDistance(p, q Point2) float64 {
	d := p.Sub(q)
	return d.SquaredLen()
}

// Distance returns the Euclidean distance between two points.
func Distance(p, q Point2) float64 {
	return math.Sqrt(SquaredDistance(p, q))
}

// Point25 is a 2D point pinned to a discrete layer.
type Point25 struct {
	P Point2
	Z int
}

// Segment2 is a line segment in the 2D plane.
type Segment2 struct {
	A, B Point2
}

// Vec returns the displacement from A to B.
func (s Segment2) Vec() Vec2 { return s.B.Sub(s.A) }

// Len returns the length of the segment.
func (s Segment2) Len() float64 { return s.Vec().Len() }

// PointAt returns the point at parameter t in [0,1] along the segment.
func (s Segment2) PointAt(t float64) Point2 {
	return s.A.Add(s.Vec().Scale(t))
}

// ClosestPoint returns the point on the segment closest to p, and the
// parameter t in [0,1] at which it occurs.
func (s Segment2) ClosestPoint(p Point2) (Point2, float64) {
	ab := s.Vec()
	denom := ab.SquaredLen()
	if denom == 0 {
		return s.A, 0
	}
	t := p.Sub(s.A).Dot(ab) / denom
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return s.PointAt(t), t
}

// SquaredDistanceToPoint returns the squared distance from the segment to a
// point.
func (s Segment2) SquaredDistanceToPoint(p Point2) float64 {
	cp, _ := s.ClosestPoint(p)
	return SquaredDistance(cp, p)
}

// Intersects reports whether two segments intersect (including touching at
// an endpoint).
func (s Segment2) Intersects(o Segment2) bool {
	d1 := orientation(o.A, o.B, s.A)
	d2 := orientation(o.A, o.B, s.B)
	d3 := orientation(s.A, s.B, o.A)
	d4 := orientation(s.A, s.B, o.B)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && onSegment(o.A, o.B, s.A) {
		return true
	}
	if d2 == 0 && onSegment(o.A, o.B, s.B) {
		return true
	}
	if d3 == 0 && onSegment(s.A, s.B, o.A) {
		return true
	}
	if d4 == 0 && onSegment(s.A, s.B, o.B) {
		return true
	}
	return false
}

func orientation(a, b, c Point2) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

func onSegment(a, b, p Point2) bool {
	return math.Min(a.X, b.X)-1e-9 <= p.X && p.X <= math.Max(a.X, b.X)+1e-9 &&
		math.Min(a.Y, b.Y)-1e-9 <= p.Y && p.Y <= math.Max(a.Y, b.Y)+1e-9
}

// SquaredDistanceSegToSeg returns the squared distance between two segments.
func SquaredDistanceSegToSeg(s, o Segment2) float64 {
	if s.Intersects(o) {
		return 0
	}
	best := math.Inf(1)
	for _, d := range []float64{
		s.SquaredDistanceToPoint(o.A),
		s.SquaredDistanceToPoint(o.B),
		o.SquaredDistanceToPoint(s.A),
		o.SquaredDistanceToPoint(s.B),
	} {
		if d < best {
			best = d
		}
	}
	return best
}

// Segment25 is a Segment2 pinned to one discrete layer.
type Segment25 struct {
	Seg Segment2
	Z   int
}
