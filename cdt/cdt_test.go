package cdt

import (
	"testing"

	"github.com/chrisbmr/PCBEnv-sub001/board"
	"github.com/chrisbmr/PCBEnv-sub001/geom"
	"github.com/chrisbmr/PCBEnv-sub001/shape"
)

func emptyBuild(t *testing.T, bounds geom.Rect) *Triangulation {
	tri := New(0)
	a := board.NewArena()
	if err := tri.Build(a, nil, bounds); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tri
}

func boardBounds() geom.Rect {
	return geom.NewRect(geom.Point2{X: -50, Y: -50}, geom.Point2{X: 50, Y: 50})
}

func TestBuildEmptyCoversBoundsWithTwoFaces(t *testing.T) {
	tri := emptyBuild(t, boardBounds())
	if len(tri.Tris) != 2 {
		t.Errorf("expected the bounds rectangle split into 2 free-space faces, got %d", len(tri.Tris))
	}
}

func TestBuildWithOneComponentCoversItsFootprint(t *testing.T) {
	a := board.NewArena()
	comp := board.NewComponent(a, board.NilID, "U1", geom.LayerRange{Zmin: 0, Zmax: 0},
		shape.AARect{R: geom.Rect{Min: geom.Point2{X: -5, Y: -5}, Max: geom.Point2{X: 5, Y: 5}}}, 0, false, false)

	tri := New(0)
	if err := tri.Build(a, []*board.Object{comp}, boardBounds()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(tri.Tris) == 0 {
		t.Fatal("expected the footprint to produce at least one face")
	}
	idx := tri.GetNavIdx(geom.Point2{X: 0, Y: 0})
	if idx < 0 {
		t.Fatal("expected a face containing the component's center")
	}
	if tri.Tris[idx].ParentID != comp.ID {
		t.Errorf("expected the inner face's parent to be the component, got %v", tri.Tris[idx].ParentID)
	}
}

func TestGetNavIdxOutsideAnyFaceReturnsNegative(t *testing.T) {
	tri := emptyBuild(t, boardBounds())
	if idx := tri.GetNavIdx(geom.Point2{X: 1000, Y: 1000}); idx != -1 {
		t.Errorf("expected -1 far outside any face, got %d", idx)
	}
}

func TestInsertAndRemoveRoute(t *testing.T) {
	tri := New(0)
	a := board.NewArena()
	if err := tri.Build(a, nil, boardBounds()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	connID := board.NewID()
	segs := []shape.WideSegment{
		{Core: geom.Segment2{A: geom.Point2{X: -10, Y: 0}, B: geom.Point2{X: 10, Y: 0}}, HalfWidth: 0.5, Layer: 0},
	}
	if err := tri.InsertRoute(connID, segs, boardBounds()); err != nil {
		t.Fatalf("InsertRoute: %v", err)
	}
	if len(tri.routeConstraints[connID]) == 0 {
		t.Fatal("expected route constraints to be tracked under the connection id")
	}
	if err := tri.RemoveRoute(connID, boardBounds()); err != nil {
		t.Fatalf("RemoveRoute: %v", err)
	}
	if _, ok := tri.routeConstraints[connID]; ok {
		t.Error("expected the connection's constraints to be forgotten after RemoveRoute")
	}
}

func TestFindPathAStarAcrossFreeSpace(t *testing.T) {
	tri := emptyBuild(t, boardBounds())
	req := PathRequest{Src: geom.Point2{X: -40, Y: -40}, Dst: geom.Point2{X: 40, Y: 40}, TraceWidth: 0.1}
	a := board.NewArena()
	chain, err := tri.FindPathAStar(a, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chain) == 0 {
		t.Error("expected a non-empty face chain across open space")
	}
}

func TestFindPathAStarBlockedByForeignPin(t *testing.T) {
	a := board.NewArena()
	comp := board.NewComponent(a, board.NilID, "U1", geom.LayerRange{Zmin: 0, Zmax: 0},
		shape.AARect{R: geom.Rect{Min: geom.Point2{X: -5, Y: -5}, Max: geom.Point2{X: 5, Y: 5}}}, 0, false, false)
	tri := New(0)
	if err := tri.Build(a, []*board.Object{comp}, boardBounds()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	req := PathRequest{Src: geom.Point2{X: 0, Y: 0}, Dst: geom.Point2{X: 40, Y: 40}, TraceWidth: 0.1}
	_, err := tri.FindPathAStar(a, req)
	rf, ok := err.(*board.RoutingFailure)
	if !ok || rf.Reason != board.ReasonBlocked {
		t.Errorf("expected a blocked routing failure starting inside a foreign component, got %v", err)
	}
}

func TestFindPathAStarAllowedWhenSourceIsOwnComponent(t *testing.T) {
	a := board.NewArena()
	comp := board.NewComponent(a, board.NilID, "U1", geom.LayerRange{Zmin: 0, Zmax: 0},
		shape.AARect{R: geom.Rect{Min: geom.Point2{X: -5, Y: -5}, Max: geom.Point2{X: 5, Y: 5}}}, 0, false, false)
	tri := New(0)
	if err := tri.Build(a, []*board.Object{comp}, boardBounds()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	req := PathRequest{Src: geom.Point2{X: 0, Y: 0}, Dst: geom.Point2{X: 40, Y: 40}, TraceWidth: 0.1, SourceObjectID: comp.ID}
	if _, err := tri.FindPathAStar(a, req); err != nil {
		t.Errorf("expected routing to succeed starting inside the connection's own source component: %v", err)
	}
}
