package geom

import (
	"math"
	"testing"
)

func TestPointVecArithmetic(t *testing.T) {
	p := Point2{X: 1, Y: 2}
	v := Vec2{X: 3, Y: 4}
	q := p.Add(v)
	if q != (Point2{X: 4, Y: 6}) {
		t.Errorf("bad add: %v", q)
	}
	if w := q.Sub(p); w != v {
		t.Errorf("bad sub: %v", w)
	}
}

func TestVecNormalized(t *testing.T) {
	v := Vec2{X: 3, Y: 4}
	n := v.Normalized()
	if math.Abs(n.Len()-1) > 1e-9 {
		t.Errorf("not unit length: %v", n.Len())
	}
	if z := (Vec2{}).Normalized(); z != (Vec2{}) {
		t.Errorf("zero vector should normalize to zero: %v", z)
	}
}

func TestSegmentClosestPoint(t *testing.T) {
	s := Segment2{A: Point2{X: 0, Y: 0}, B: Point2{X: 10, Y: 0}}
	cp, tt := s.ClosestPoint(Point2{X: 5, Y: 5})
	if cp != (Point2{X: 5, Y: 0}) || tt != 0.5 {
		t.Errorf("bad closest point: %v %v", cp, tt)
	}
	cp, tt = s.ClosestPoint(Point2{X: -5, Y: 5})
	if cp != (Point2{X: 0, Y: 0}) || tt != 0 {
		t.Errorf("bad clamp at A: %v %v", cp, tt)
	}
}

func TestSegmentIntersects(t *testing.T) {
	a := Segment2{A: Point2{X: 0, Y: 0}, B: Point2{X: 4, Y: 4}}
	b := Segment2{A: Point2{X: 0, Y: 4}, B: Point2{X: 4, Y: 0}}
	if !a.Intersects(b) {
		t.Error("expected crossing segments to intersect")
	}
	c := Segment2{A: Point2{X: 10, Y: 10}, B: Point2{X: 20, Y: 20}}
	if a.Intersects(c) {
		t.Error("expected disjoint segments not to intersect")
	}
}

func TestRectContainsAndIntersects(t *testing.T) {
	r := NewRect(Point2{X: 0, Y: 0}, Point2{X: 10, Y: 10})
	if !r.Contains(Point2{X: 5, Y: 5}) {
		t.Error("expected point inside rect")
	}
	if r.Contains(Point2{X: 20, Y: 20}) {
		t.Error("expected point outside rect")
	}
	o := NewRect(Point2{X: 5, Y: 5}, Point2{X: 15, Y: 15})
	if !r.Intersects(o) {
		t.Error("expected overlapping rects to intersect")
	}
}

func TestRectContainsStrict(t *testing.T) {
	outer := NewRect(Point2{X: 0, Y: 0}, Point2{X: 10, Y: 10})
	inner := NewRect(Point2{X: 2, Y: 2}, Point2{X: 8, Y: 8})
	if !outer.ContainsStrict(inner) {
		t.Error("expected strict containment")
	}
	if outer.ContainsStrict(outer) {
		t.Error("a rect does not strictly contain itself")
	}
}

func TestLayerRange(t *testing.T) {
	lr := LayerRange{Zmin: 1, Zmax: 3}
	if !lr.Contains(2) || lr.Contains(4) {
		t.Error("bad Contains")
	}
	other := LayerRange{Zmin: 3, Zmax: 5}
	if !lr.Intersects(other) {
		t.Error("expected touching ranges to intersect")
	}
	u := lr.Union(other)
	if u != (LayerRange{Zmin: 1, Zmax: 5}) {
		t.Errorf("bad union: %v", u)
	}
}
