package navgrid

import (
	"testing"

	"github.com/chrisbmr/PCBEnv-sub001/board"
	"github.com/chrisbmr/PCBEnv-sub001/geom"
	"github.com/chrisbmr/PCBEnv-sub001/shape"
)

func smallArea() board.LayoutArea {
	return board.LayoutArea{
		Rect:     geom.NewRect(geom.Point2{X: 0, Y: 0}, geom.Point2{X: 10, Y: 10}),
		MaxLayer: 1,
	}
}

func TestNewGridDimensions(t *testing.T) {
	g, err := NewGrid(smallArea(), 1.0, 10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w, h, d := g.Size()
	if w != 11 || h != 11 || d != 2 {
		t.Errorf("got %d x %d x %d", w, h, d)
	}
}

func TestNewGridRejectsOversizeRequest(t *testing.T) {
	if _, err := NewGrid(smallArea(), 1.0, 10); err == nil {
		t.Error("expected an error when the grid would exceed MaxGridCells")
	}
}

func TestNewGridRejectsNonPositiveCellEdge(t *testing.T) {
	if _, err := NewGrid(smallArea(), 0, 10000); err == nil {
		t.Error("expected an error for a zero cell edge")
	}
}

func TestIndexClamps(t *testing.T) {
	g, _ := NewGrid(smallArea(), 1.0, 10000)
	if !g.InBounds(5, 5, 0) {
		t.Error("expected (5,5,0) in bounds")
	}
	if g.InBounds(-1, 0, 0) || g.InBounds(0, 0, 5) {
		t.Error("expected out-of-range coordinates to be rejected")
	}
}

func TestCellCenterRoundTripsThroughCellIndex(t *testing.T) {
	g, _ := NewGrid(smallArea(), 1.0, 10000)
	x, y := g.CellIndex(geom.Point2{X: 5.4, Y: 5.4})
	center := g.CellCenter(x, y, 0)
	if center.P.X < 5.0 || center.P.X > 6.0 {
		t.Errorf("expected cell center near 5.4, got %v", center.P.X)
	}
}

func TestRasterizeSetsKeepoutAndClearanceFlag(t *testing.T) {
	g, _ := NewGrid(smallArea(), 1.0, 10000)
	circ := shape.Circle{Center: geom.Point2{X: 5, Y: 5}, Radius: 0.4}
	p := RasterParams{FlagsAnd: FlagsAndKeepAll, AutoExpand: true, Clearance: 0.2, HalfWidth: 0.1, ViaRadius: 0.1}
	p.KoDelta[KoRouteTracks] = 1
	n := g.Rasterize(circ, 0, p)
	if n == 0 {
		t.Fatal("expected at least one cell touched")
	}
	x, y := g.CellIndex(geom.Point2{X: 5, Y: 5})
	c := g.Cell(x, y, 0)
	if c.KoCount[KoRouteTracks] == 0 {
		t.Error("expected the center cell's route-track keepout counter to be incremented")
	}
	if !c.Flags.Has(FlagRouteTrackClearance) {
		t.Error("expected the route-track clearance flag to be set")
	}
}

func TestRasterizeTrackCounterGatesTransitions(t *testing.T) {
	g, _ := NewGrid(smallArea(), 1.0, 10000)
	tr := board.NewTrack()
	tr.Segments = []shape.WideSegment{
		{Core: geom.Segment2{A: geom.Point2{X: 2, Y: 5}, B: geom.Point2{X: 8, Y: 5}}, HalfWidth: 0.1, Layer: 0},
	}
	if err := g.RasterizeTrack(tr, 1, 0.2, 0.1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	x, y := g.CellIndex(geom.Point2{X: 5, Y: 5})
	if !g.Cell(x, y, 0).Flags.Has(FlagRouteTrackClearance) {
		t.Fatal("expected the track to be reflected on the grid")
	}
	if !g.Cell(x, y, 0).Flags.Has(FlagRouteViaClearance) {
		t.Error("expected a track to also raise the route-via keepout, not just route-track")
	}
	// second increment must not re-stamp (transition already happened)
	if err := g.RasterizeTrack(tr, 1, 0.2, 0.1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.RasterizeTrack(tr, -1, 0.2, 0.1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.Cell(x, y, 0).Flags.Has(FlagRouteTrackClearance) {
		t.Error("expected the flag to remain set while the counter is still above zero")
	}
	if err := g.RasterizeTrack(tr, -1, 0.2, 0.1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Cell(x, y, 0).Flags.Has(FlagRouteTrackClearance) {
		t.Error("expected the flag cleared once the counter returns to zero")
	}
	if g.Cell(x, y, 0).Flags.Has(FlagRouteViaClearance) {
		t.Error("expected the route-via flag cleared alongside route-track once the counter returns to zero")
	}
}

func TestFindPathStraightLine(t *testing.T) {
	g, _ := NewGrid(smallArea(), 1.0, 10000)
	req := PathRequest{
		Src:          geom.Point25{P: geom.Point2{X: 0.5, Y: 5}, Z: 0},
		Dst:          geom.Point25{P: geom.Point2{X: 9.5, Y: 5}, Z: 0},
		LayerMask:    1,
		TraceWidth:   0.2,
		NetClearance: 0.1,
		ViaRadius:    0.15,
	}
	track, err := g.FindPath(req)
	if err != nil {
		t.Fatalf("unexpected routing failure: %v", err)
	}
	if len(track.Segments) == 0 {
		t.Error("expected at least one segment")
	}
	if len(track.Vias) != 0 {
		t.Error("expected no vias for a same-layer path")
	}
}

func TestFindPathEmptyLayerMaskFails(t *testing.T) {
	g, _ := NewGrid(smallArea(), 1.0, 10000)
	req := PathRequest{
		Src: geom.Point25{P: geom.Point2{X: 0.5, Y: 5}, Z: 0},
		Dst: geom.Point25{P: geom.Point2{X: 9.5, Y: 5}, Z: 0},
	}
	_, err := g.FindPath(req)
	rf, ok := err.(*board.RoutingFailure)
	if !ok || rf.Reason != board.ReasonLayerMaskEmpty {
		t.Errorf("expected ReasonLayerMaskEmpty, got %v", err)
	}
}

func TestFindPathBlockedReportsNoRoute(t *testing.T) {
	g, _ := NewGrid(smallArea(), 1.0, 10000)
	for y := 0; y < g.H; y++ {
		c := g.Cell(5, y, 0)
		c.Flags = c.Flags.Set(FlagBlockedPermanent)
	}
	req := PathRequest{
		Src:          geom.Point25{P: geom.Point2{X: 0.5, Y: 5}, Z: 0},
		Dst:          geom.Point25{P: geom.Point2{X: 9.5, Y: 5}, Z: 0},
		LayerMask:    1,
		TraceWidth:   0.2,
		NetClearance: 0.1,
		ViaRadius:    0.15,
	}
	_, err := g.FindPath(req)
	rf, ok := err.(*board.RoutingFailure)
	if !ok || rf.Reason != board.ReasonBlocked {
		t.Errorf("expected ReasonBlocked, got %v", err)
	}
}

func TestFindPathUsesViaOnLayerChange(t *testing.T) {
	area := board.LayoutArea{Rect: geom.NewRect(geom.Point2{X: 0, Y: 0}, geom.Point2{X: 10, Y: 10}), MaxLayer: 1}
	g, _ := NewGrid(area, 1.0, 10000)
	req := PathRequest{
		Src:          geom.Point25{P: geom.Point2{X: 5, Y: 5}, Z: 0},
		Dst:          geom.Point25{P: geom.Point2{X: 5, Y: 5}, Z: 1},
		LayerMask:    0b11,
		TraceWidth:   0.2,
		NetClearance: 0.1,
		ViaRadius:    0.15,
	}
	track, err := g.FindPath(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(track.Vias) != 1 {
		t.Fatalf("expected exactly one via for a single layer change, got %d", len(track.Vias))
	}
}

func TestGetPointAndGetRegion(t *testing.T) {
	g, _ := NewGrid(smallArea(), 1.0, 10000)
	snap, ok := g.GetPoint(0, 0, 0)
	if !ok || snap.Cost != 1.0 {
		t.Errorf("expected a default cost-1 cell, got %+v ok=%v", snap, ok)
	}
	if _, ok := g.GetPoint(100, 100, 100); ok {
		t.Error("expected an out-of-range point to report not-ok")
	}
	region := g.GetRegion(Box3{Xmin: 0, Ymin: 0, Zmin: 0, Xmax: 1, Ymax: 1, Zmax: 0})
	if len(region) != 4 {
		t.Errorf("expected a 2x2x1 region to have 4 snapshots, got %d", len(region))
	}
}
