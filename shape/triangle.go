package shape

import "github.com/chrisbmr/PCBEnv-sub001/geom"

// Triangle is a shape variant for the common 3-vertex case; heavily used by
// the CDT view where every face is a Triangle.
type Triangle struct {
	V0, V1, V2 geom.Point2
}

// Polygon returns the Triangle as a Polygon, used to reach the shared
// polygon-based distance/contains/intersect machinery.
func (t Triangle) Polygon() Polygon {
	return Polygon{Vertices: []geom.Point2{t.V0, t.V1, t.V2}}
}

func (t Triangle) Kind() Kind            { return KindTriangle }
func (t Triangle) Clone() Shape          { return t }
func (t Triangle) Area() float64         { return t.Polygon().Area() }
func (t Triangle) Centroid() geom.Point2 {
	return geom.Point2{X: (t.V0.X + t.V1.X + t.V2.X) / 3, Y: (t.V0.Y + t.V1.Y + t.V2.Y) / 3}
}
func (t Triangle) Bbox() geom.Rect                  { return t.Polygon().Bbox() }
func (t Triangle) Contains(p geom.Point2) bool      { return t.Polygon().Contains(p) }
func (t Triangle) SquaredDistance(o Shape) float64  { return squaredDistance(t, o) }
func (t Triangle) Intersects(o Shape) bool          { return squaredDistance(t, o) == 0 }

func (t Triangle) Transform(m geom.Affine2) (Shape, error) {
	return t.TransformType(m), nil
}

func (t Triangle) TransformType(m geom.Affine2) Shape {
	return Triangle{V0: m.Apply(t.V0), V1: m.Apply(t.V1), V2: m.Apply(t.V2)}
}
