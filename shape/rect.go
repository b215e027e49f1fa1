package shape

import "github.com/chrisbmr/PCBEnv-sub001/geom"

// AARect is an axis-aligned rectangle shape.
type AARect struct {
	R geom.Rect
}

// Polygon returns the rectangle as a 4-vertex counter-clockwise Polygon.
func (r AARect) Polygon() Polygon {
	return Polygon{Vertices: []geom.Point2{
		{X: r.R.Min.X, Y: r.R.Min.Y},
		{X: r.R.Max.X, Y: r.R.Min.Y},
		{X: r.R.Max.X, Y: r.R.Max.Y},
		{X: r.R.Min.X, Y: r.R.Max.Y},
	}}
}

func (r AARect) Kind() Kind             { return KindAARect }
func (r AARect) Clone() Shape           { return r }
func (r AARect) Area() float64          { return r.R.Area() }
func (r AARect) Centroid() geom.Point2  { return r.R.Center() }
func (r AARect) Bbox() geom.Rect        { return r.R }
func (r AARect) Contains(p geom.Point2) bool { return r.R.Contains(p) }
func (r AARect) SquaredDistance(o Shape) float64 { return squaredDistance(r, o) }
func (r AARect) Intersects(o Shape) bool         { return squaredDistance(r, o) == 0 }

func (r AARect) Transform(m geom.Affine2) (Shape, error) {
	if m.IsAxisAligned90() {
		p0 := m.Apply(r.R.Min)
		p1 := m.Apply(r.R.Max)
		return AARect{R: geom.NewRect(p0, p1)}, nil
	}
	return nil, ErrNotAxisAligned
}

func (r AARect) TransformType(m geom.Affine2) Shape {
	if s, err := r.Transform(m); err == nil {
		return s
	}
	return r.Polygon().TransformType(m)
}
