package shape

import (
	"math"

	"github.com/chrisbmr/PCBEnv-sub001/geom"
)

// WideSegment is a line segment interpreted as the Minkowski sum of the
// segment with a disk of radius HalfWidth (round caps), pinned to a layer.
type WideSegment struct {
	Core      geom.Segment2
	HalfWidth float64
	Layer     int
}

func (w WideSegment) Kind() Kind   { return KindWideSegment }
func (w WideSegment) Clone() Shape { return w }

func (w WideSegment) Area() float64 {
	l := w.Core.Len()
	return l*2*w.HalfWidth + math.Pi*w.HalfWidth*w.HalfWidth
}

func (w WideSegment) Centroid() geom.Point2 {
	return w.Core.PointAt(0.5)
}

// Bbox is the union of the two cap disks' bounding boxes (spec §4.1).
func (w WideSegment) Bbox() geom.Rect {
	ca := geom.Rect{
		Min: geom.Point2{X: w.Core.A.X - w.HalfWidth, Y: w.Core.A.Y - w.HalfWidth},
		Max: geom.Point2{X: w.Core.A.X + w.HalfWidth, Y: w.Core.A.Y + w.HalfWidth},
	}
	cb := geom.Rect{
		Min: geom.Point2{X: w.Core.B.X - w.HalfWidth, Y: w.Core.B.Y - w.HalfWidth},
		Max: geom.Point2{X: w.Core.B.X + w.HalfWidth, Y: w.Core.B.Y + w.HalfWidth},
	}
	return ca.Union(cb)
}

func (w WideSegment) Contains(p geom.Point2) bool {
	return w.Core.SquaredDistanceToPoint(p) <= w.HalfWidth*w.HalfWidth
}

func (w WideSegment) SquaredDistance(other Shape) float64 { return squaredDistance(w, other) }
func (w WideSegment) Intersects(other Shape) bool         { return squaredDistance(w, other) == 0 }

func (w WideSegment) Transform(m geom.Affine2) (Shape, error) {
	if !m.IsUniformScale() {
		return nil, ErrWouldBecomeEllipse
	}
	return WideSegment{
		Core:      geom.Segment2{A: m.Apply(w.Core.A), B: m.Apply(w.Core.B)},
		HalfWidth: w.HalfWidth * m.UniformScaleFactor(),
		Layer:     w.Layer,
	}, nil
}

// TransformType approximates a non-uniformly-scaled wide segment by its
// transformed body quad; the two round caps are not included.
func (w WideSegment) TransformType(m geom.Affine2) Shape {
	if s, err := w.Transform(m); err == nil {
		return s
	}
	dir := w.Core.Vec().Normalized()
	perp := dir.Perp().Scale(w.HalfWidth)
	body := []geom.Point2{
		w.Core.A.Add(perp),
		w.Core.B.Add(perp),
		w.Core.B.Add(perp.Scale(-1)),
		w.Core.A.Add(perp.Scale(-1)),
	}
	poly := Polygon{Vertices: body}
	return poly.TransformType(m)
}
