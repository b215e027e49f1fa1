// Package shape implements the polymorphic shape variant used throughout the
// autorouter core: Circle, Triangle, AARect, Polygon and WideSegment, behind
// a single Shape interface with uniform distance/intersect/transform
// operations (spec §4.1).
package shape

import (
	"errors"
	"math"

	"github.com/chrisbmr/PCBEnv-sub001/geom"
)

// ErrWouldBecomeEllipse is returned by Transform when a non-uniform scale is
// applied to a Circle, which cannot be represented by the Circle variant.
var ErrWouldBecomeEllipse = errors.New("shape: non-uniform scale would turn circle into ellipse")

// ErrNotAxisAligned is returned by AARect.Transform when the transform would
// rotate the rectangle off-axis, which cannot be represented by AARect.
var ErrNotAxisAligned = errors.New("shape: transform would leave axis alignment, not representable as rect")

// Kind identifies the concrete variant of a Shape.
type Kind int

const (
	KindCircle Kind = iota
	KindTriangle
	KindAARect
	KindPolygon
	KindWideSegment
)

func (k Kind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindTriangle:
		return "triangle"
	case KindAARect:
		return "rect_iso"
	case KindPolygon:
		return "polygon"
	case KindWideSegment:
		return "wide_segment"
	default:
		return "unknown"
	}
}

// Shape is the common interface implemented by every shape variant.
type Shape interface {
	Kind() Kind
	Clone() Shape
	Bbox() geom.Rect
	Area() float64
	Centroid() geom.Point2
	Contains(p geom.Point2) bool
	// SquaredDistance returns the squared Euclidean distance between the
	// boundaries of the two shapes, clamped to zero on intersection.
	SquaredDistance(other Shape) float64
	Intersects(other Shape) bool
	// Transform applies m, mutating nothing; it returns the transformed
	// shape in-kind when possible, or an error (ErrWouldBecomeEllipse) when
	// it is not representable by the same variant (callers that accept a
	// kind change should use TransformType instead).
	Transform(m geom.Affine2) (Shape, error)
	// TransformType is like Transform but returns the smallest variant able
	// to represent the transformed result exactly, rather than erroring.
	TransformType(m geom.Affine2) Shape
}

// squaredDistance dispatches distance computation over every pair of
// concrete variants. It is the single place new variant pairs are added.
func squaredDistance(a, b Shape) float64 {
	switch x := a.(type) {
	case Circle:
		return circleToShape(x, b)
	case Triangle:
		return polygonToShape(x.Polygon(), b)
	case AARect:
		return polygonToShape(x.Polygon(), b)
	case Polygon:
		return polygonToShape(x, b)
	case WideSegment:
		return wideSegmentToShape(x, b)
	default:
		return math.Inf(1)
	}
}

func circleToShape(c Circle, b Shape) float64 {
	switch y := b.(type) {
	case Circle:
		d := geom.Distance(c.Center, y.Center) - c.Radius - y.Radius
		if d < 0 {
			return 0
		}
		return d * d
	case WideSegment:
		return wideSegmentToShape(y, c)
	default:
		// Distance from circle to any polygonal shape: distance from center
		// to the polygon's boundary, minus the radius.
		poly := toPolygon(b)
		d := math.Sqrt(polygonToShape(poly, Circle{Center: c.Center, Radius: 0}))
		d -= c.Radius
		if d < 0 {
			return 0
		}
		return d * d
	}
}

func toPolygon(s Shape) Polygon {
	switch x := s.(type) {
	case Triangle:
		return x.Polygon()
	case AARect:
		return x.Polygon()
	case Polygon:
		return x
	default:
		return Polygon{}
	}
}

// polygonToShape computes squared distance between a polygon's boundary and
// an arbitrary other shape, accounting for containment (clamped to zero).
func polygonToShape(p Polygon, b Shape) float64 {
	switch y := b.(type) {
	case Circle:
		if p.Contains(y.Center) {
			return 0
		}
		best := math.Inf(1)
		edges := p.Edges()
		for _, e := range edges {
			d := e.SquaredDistanceToPoint(y.Center)
			if d < best {
				best = d
			}
		}
		r := math.Sqrt(best) - y.Radius
		if r < 0 {
			return 0
		}
		return r * r
	case WideSegment:
		return wideSegmentToShape(y, p)
	default:
		other := toPolygon(b)
		if p.Intersects2(other) {
			return 0
		}
		best := math.Inf(1)
		for _, e1 := range p.Edges() {
			for _, e2 := range other.Edges() {
				d := geom.SquaredDistanceSegToSeg(e1, e2)
				if d < best {
					best = d
				}
			}
		}
		return best
	}
}

// wideSegmentToShape implements the WideSegment distance rule from spec
// §4.1: max(0, sqrt(d(core_segment, X)) - half_width)^2.
func wideSegmentToShape(ws WideSegment, other Shape) float64 {
	var coreDist float64
	switch y := other.(type) {
	case Circle:
		d := ws.Core.SquaredDistanceToPoint(y.Center)
		coreDist = math.Sqrt(d) - y.Radius
		if coreDist < 0 {
			coreDist = 0
		}
	case WideSegment:
		d := geom.SquaredDistanceSegToSeg(ws.Core, y.Core)
		coreDist = math.Sqrt(d) - y.HalfWidth
		if coreDist < 0 {
			coreDist = 0
		}
	default:
		poly := toPolygon(other)
		best := math.Inf(1)
		for _, e := range poly.Edges() {
			d := geom.SquaredDistanceSegToSeg(ws.Core, e)
			if d < best {
				best = d
			}
		}
		if poly.Contains(ws.Core.A) || poly.Contains(ws.Core.B) {
			best = 0
		}
		coreDist = math.Sqrt(best)
	}
	r := coreDist - ws.HalfWidth
	if r < 0 {
		return 0
	}
	return r * r
}

// SquaredDistance is the exported, symmetric entry point used by callers
// (e.g. the rasterizer and violation-area query) that don't want to depend
// on which operand implements the interface method.
func SquaredDistance(a, b Shape) float64 {
	return squaredDistance(a, b)
}

// Intersects reports whether two shapes' closed regions overlap.
func Intersects(a, b Shape) bool {
	return squaredDistance(a, b) == 0
}

// Outline returns a closed polygon approximating s's boundary, used by
// callers that need a concrete vertex/edge list rather than the abstract
// Shape interface (the CDT view's constraint-edge insertion, spec §4.10).
// Polygon/Triangle/AARect return their exact vertices; Circle and
// WideSegment are sampled with circleSegments points per circular arc.
func Outline(s Shape, circleSegments int) []geom.Point2 {
	if circleSegments < 8 {
		circleSegments = 8
	}
	switch x := s.(type) {
	case Polygon:
		return append([]geom.Point2(nil), x.Vertices...)
	case Triangle:
		return x.Polygon().Vertices
	case AARect:
		return x.Polygon().Vertices
	case Circle:
		return sampleCircle(x.Center, x.Radius, circleSegments)
	case WideSegment:
		return sampleWideSegment(x, circleSegments)
	default:
		return nil
	}
}

func sampleCircle(center geom.Point2, radius float64, n int) []geom.Point2 {
	verts := make([]geom.Point2, n)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		verts[i] = geom.Point2{X: center.X + radius*math.Cos(theta), Y: center.Y + radius*math.Sin(theta)}
	}
	return verts
}

// sampleWideSegment outlines the stadium shape (rectangle body plus two
// semicircular caps) as a single closed polygon, half the circle samples
// per cap.
func sampleWideSegment(w WideSegment, circleSegments int) []geom.Point2 {
	dir := w.Core.Vec().Normalized()
	perp := dir.Perp().Scale(w.HalfWidth)
	half := circleSegments / 2
	var verts []geom.Point2
	baseAngle := math.Atan2(perp.Y, perp.X)
	for i := 0; i <= half; i++ {
		theta := baseAngle + math.Pi*float64(i)/float64(half)
		verts = append(verts, geom.Point2{
			X: w.Core.B.X + w.HalfWidth*math.Cos(theta),
			Y: w.Core.B.Y + w.HalfWidth*math.Sin(theta),
		})
	}
	for i := 0; i <= half; i++ {
		theta := baseAngle + math.Pi + math.Pi*float64(i)/float64(half)
		verts = append(verts, geom.Point2{
			X: w.Core.A.X + w.HalfWidth*math.Cos(theta),
			Y: w.Core.A.Y + w.HalfWidth*math.Sin(theta),
		})
	}
	return verts
}
