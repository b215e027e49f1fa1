package shape

import (
	"math"

	"github.com/chrisbmr/PCBEnv-sub001/geom"
)

// Polygon is a simple (non-self-intersecting) polygon given by its vertices
// in order (winding direction is not mandated by callers; Area reports the
// signed area's absolute value and methods that care about winding say so).
type Polygon struct {
	Vertices []geom.Point2
}

func (p Polygon) Kind() Kind { return KindPolygon }

func (p Polygon) Clone() Shape {
	v := make([]geom.Point2, len(p.Vertices))
	copy(v, p.Vertices)
	return Polygon{Vertices: v}
}

// Edges returns the polygon's boundary as a closed loop of segments.
func (p Polygon) Edges() []geom.Segment2 {
	n := len(p.Vertices)
	if n < 2 {
		return nil
	}
	edges := make([]geom.Segment2, n)
	for i := 0; i < n; i++ {
		edges[i] = geom.Segment2{A: p.Vertices[i], B: p.Vertices[(i+1)%n]}
	}
	return edges
}

// SignedArea returns the shoelace-formula signed area (positive for
// counter-clockwise winding).
func (p Polygon) SignedArea() float64 {
	n := len(p.Vertices)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		a := p.Vertices[i]
		b := p.Vertices[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

func (p Polygon) Area() float64 { return math.Abs(p.SignedArea()) }

func (p Polygon) Centroid() geom.Point2 {
	n := len(p.Vertices)
	if n == 0 {
		return geom.Point2{}
	}
	if n < 3 {
		var sx, sy float64
		for _, v := range p.Vertices {
			sx += v.X
			sy += v.Y
		}
		return geom.Point2{X: sx / float64(n), Y: sy / float64(n)}
	}
	a := p.SignedArea()
	if a == 0 {
		return p.Vertices[0]
	}
	var cx, cy float64
	for i := 0; i < n; i++ {
		v0 := p.Vertices[i]
		v1 := p.Vertices[(i+1)%n]
		cross := v0.X*v1.Y - v1.X*v0.Y
		cx += (v0.X + v1.X) * cross
		cy += (v0.Y + v1.Y) * cross
	}
	f := 1 / (6 * a)
	return geom.Point2{X: cx * f, Y: cy * f}
}

func (p Polygon) Bbox() geom.Rect {
	if len(p.Vertices) == 0 {
		return geom.Rect{}
	}
	r := geom.Rect{Min: p.Vertices[0], Max: p.Vertices[0]}
	for _, v := range p.Vertices[1:] {
		r = r.Union(geom.Rect{Min: v, Max: v})
	}
	return r
}

// Contains uses the standard ray-casting point-in-polygon test.
func (p Polygon) Contains(pt geom.Point2) bool {
	n := len(p.Vertices)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := p.Vertices[i], p.Vertices[j]
		if (vi.Y > pt.Y) != (vj.Y > pt.Y) {
			xint := (vj.X-vi.X)*(pt.Y-vi.Y)/(vj.Y-vi.Y) + vi.X
			if pt.X < xint {
				inside = !inside
			}
		}
		j = i
	}
	if inside {
		return true
	}
	// Boundary counts as contained.
	for _, e := range p.Edges() {
		if e.SquaredDistanceToPoint(pt) == 0 {
			return true
		}
	}
	return false
}

// Intersects2 reports whether two polygons overlap (edge crossing or
// containment of a vertex).
func (p Polygon) Intersects2(o Polygon) bool {
	if len(p.Vertices) == 0 || len(o.Vertices) == 0 {
		return false
	}
	for _, e1 := range p.Edges() {
		for _, e2 := range o.Edges() {
			if e1.Intersects(e2) {
				return true
			}
		}
	}
	if len(o.Vertices) > 0 && p.Contains(o.Vertices[0]) {
		return true
	}
	if len(p.Vertices) > 0 && o.Contains(p.Vertices[0]) {
		return true
	}
	return false
}

func (p Polygon) SquaredDistance(other Shape) float64 { return squaredDistance(p, other) }
func (p Polygon) Intersects(other Shape) bool         { return squaredDistance(p, other) == 0 }

func (p Polygon) Transform(m geom.Affine2) (Shape, error) {
	return p.TransformType(m), nil
}

func (p Polygon) TransformType(m geom.Affine2) Shape {
	v := make([]geom.Point2, len(p.Vertices))
	for i, pt := range p.Vertices {
		v[i] = m.Apply(pt)
	}
	return Polygon{Vertices: v}
}
