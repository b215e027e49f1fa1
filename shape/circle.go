package shape

import (
	"math"

	"github.com/chrisbmr/PCBEnv-sub001/geom"
)

// Circle is a disk shape.
type Circle struct {
	Center geom.Point2
	Radius float64
}

func (c Circle) Kind() Kind          { return KindCircle }
func (c Circle) Clone() Shape        { return c }
func (c Circle) Area() float64       { return math.Pi * c.Radius * c.Radius }
func (c Circle) Centroid() geom.Point2 { return c.Center }

func (c Circle) Bbox() geom.Rect {
	return geom.Rect{
		Min: geom.Point2{X: c.Center.X - c.Radius, Y: c.Center.Y - c.Radius},
		Max: geom.Point2{X: c.Center.X + c.Radius, Y: c.Center.Y + c.Radius},
	}
}

func (c Circle) Contains(p geom.Point2) bool {
	return geom.SquaredDistance(c.Center, p) <= c.Radius*c.Radius
}

func (c Circle) SquaredDistance(other Shape) float64 { return squaredDistance(c, other) }
func (c Circle) Intersects(other Shape) bool         { return squaredDistance(c, other) == 0 }

func (c Circle) Transform(m geom.Affine2) (Shape, error) {
	if !m.IsUniformScale() {
		return nil, ErrWouldBecomeEllipse
	}
	return Circle{
		Center: m.Apply(c.Center),
		Radius: c.Radius * m.UniformScaleFactor(),
	}, nil
}

func (c Circle) TransformType(m geom.Affine2) Shape {
	if s, err := c.Transform(m); err == nil {
		return s
	}
	// Non-uniform scale: approximate with the polygon that the ellipse's
	// bounding shape would produce, by sampling the circle boundary.
	const n = 32
	verts := make([]geom.Point2, n)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / n
		p := geom.Point2{X: c.Center.X + c.Radius*math.Cos(theta), Y: c.Center.Y + c.Radius*math.Sin(theta)}
		verts[i] = m.Apply(p)
	}
	return Polygon{Vertices: verts}
}
