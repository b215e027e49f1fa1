package bvh

import (
	"testing"

	"github.com/chrisbmr/PCBEnv-sub001/board"
	"github.com/chrisbmr/PCBEnv-sub001/geom"
	"github.com/chrisbmr/PCBEnv-sub001/shape"
)

func newObj(a *board.Arena, name string, x, y float64, zmin, zmax int) *board.Object {
	return board.NewComponent(a, board.NilID, name,
		geom.LayerRange{Zmin: zmin, Zmax: zmax},
		shape.AARect{R: geom.Rect{Min: geom.Point2{X: x, Y: y}, Max: geom.Point2{X: x + 1, Y: y + 1}}},
		0, false, false)
}

func TestInsertAndSelectRegion(t *testing.T) {
	a := board.NewArena()
	tr := New(DefaultBucketSize)
	o1 := newObj(a, "U1", 0, 0, 0, 0)
	o2 := newObj(a, "U2", 50, 50, 0, 0)
	tr.Insert(o1)
	tr.Insert(o2)
	if tr.Len() != 2 {
		t.Fatalf("expected 2 tracked objects, got %d", tr.Len())
	}

	out := make(map[board.ID]*board.Object)
	tr.Select(out, geom.Rect{Min: geom.Point2{X: -1, Y: -1}, Max: geom.Point2{X: 2, Y: 2}}, 0, 0)
	if len(out) != 1 || out[o1.ID] == nil {
		t.Errorf("expected only o1 selected, got %v", out)
	}
}

func TestSelectRespectsLayerRange(t *testing.T) {
	a := board.NewArena()
	tr := New(DefaultBucketSize)
	o := newObj(a, "U1", 0, 0, 2, 2)
	tr.Insert(o)

	out := make(map[board.ID]*board.Object)
	tr.Select(out, geom.Rect{Min: geom.Point2{X: -1, Y: -1}, Max: geom.Point2{X: 2, Y: 2}}, 0, 0)
	if len(out) != 0 {
		t.Error("expected no hits on a layer the object does not occupy")
	}
	out = make(map[board.ID]*board.Object)
	tr.Select(out, geom.Rect{Min: geom.Point2{X: -1, Y: -1}, Max: geom.Point2{X: 2, Y: 2}}, 1, 3)
	if len(out) != 1 {
		t.Error("expected a hit once the queried range overlaps the object's layers")
	}
}

func TestRemoveDropsFromDispersion(t *testing.T) {
	a := board.NewArena()
	tr := New(DefaultBucketSize)
	o := newObj(a, "U1", 0, 0, 0, 0)
	tr.Insert(o)
	tr.Remove(o)
	if tr.Len() != 0 {
		t.Fatalf("expected 0 tracked objects after remove, got %d", tr.Len())
	}
	out := make(map[board.ID]*board.Object)
	tr.Select(out, geom.Rect{Min: geom.Point2{X: -1, Y: -1}, Max: geom.Point2{X: 2, Y: 2}}, 0, 0)
	if len(out) != 0 {
		t.Error("expected no hits once the only object on this layer column is removed")
	}
	if len(tr.dispersion) != 0 {
		t.Error("expected the dispersion column to be dropped once empty")
	}
}

func TestRebuildPreservesContents(t *testing.T) {
	a := board.NewArena()
	tr := New(DefaultBucketSize)
	o1 := newObj(a, "U1", 0, 0, 0, 0)
	o2 := newObj(a, "U2", 5, 5, 0, 0)
	tr.Insert(o1)
	tr.Insert(o2)
	tr.Rebuild()
	if tr.Len() != 2 {
		t.Fatalf("expected 2 objects to survive rebuild, got %d", tr.Len())
	}
	out := make(map[board.ID]*board.Object)
	tr.Select(out, geom.Rect{Min: geom.Point2{X: -1, Y: -1}, Max: geom.Point2{X: 100, Y: 100}}, 0, 0)
	if len(out) != 2 {
		t.Errorf("expected both objects still queryable after rebuild, got %d", len(out))
	}
}

func TestSelectPointPrefersDeepestContainer(t *testing.T) {
	a := board.NewArena()
	tr := New(DefaultBucketSize)
	outer := board.NewComponent(a, board.NilID, "OUTER", geom.LayerRange{Zmin: 0, Zmax: 0},
		shape.AARect{R: geom.Rect{Min: geom.Point2{X: 0, Y: 0}, Max: geom.Point2{X: 10, Y: 10}}}, 0, false, false)
	inner := board.NewComponent(a, board.NilID, "INNER", geom.LayerRange{Zmin: 0, Zmax: 0},
		shape.AARect{R: geom.Rect{Min: geom.Point2{X: 2, Y: 2}, Max: geom.Point2{X: 4, Y: 4}}}, 0, false, false)
	tr.Insert(outer)
	tr.Insert(inner)

	obj, ok := tr.SelectPoint(geom.Point2{X: 3, Y: 3}, 0)
	if !ok {
		t.Fatal("expected a hit")
	}
	if obj.ID != inner.ID {
		t.Errorf("expected the smaller/inner object to win, got %s", obj.Name)
	}
}

func TestSelectPointNoHit(t *testing.T) {
	tr := New(DefaultBucketSize)
	if _, ok := tr.SelectPoint(geom.Point2{X: 0, Y: 0}, 0); ok {
		t.Error("expected no hit on an empty index")
	}
}
