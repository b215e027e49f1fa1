package pcbenv

import (
	"testing"

	"github.com/chrisbmr/PCBEnv-sub001/board"
	"github.com/chrisbmr/PCBEnv-sub001/geom"
	"github.com/chrisbmr/PCBEnv-sub001/navgrid"
	"github.com/chrisbmr/PCBEnv-sub001/shape"
)

func testLayout() board.LayoutArea {
	return board.LayoutArea{
		Rect:     geom.NewRect(geom.Point2{X: 0, Y: 0}, geom.Point2{X: 10, Y: 10}),
		MaxLayer: 1,
	}
}

func newTestBoard(t *testing.T) *PCBoard {
	cfg := board.DefaultCoreConfig()
	cfg.CellEdgeLength = 0.5
	pcb, err := New(cfg, testLayout())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return pcb
}

func TestNewClearsNewBoardDirty(t *testing.T) {
	pcb := newTestBoard(t)
	bits := pcb.PollDirty()
	found := false
	for _, b := range bits {
		if b == DirtyNewBoard {
			found = true
		}
	}
	if !found {
		t.Error("expected NEW_BOARD set after construction")
	}
	if len(pcb.PollDirty()) != 0 {
		t.Error("expected a second poll to return nothing once cleared")
	}
}

func TestAddComponentRejectsDuplicateName(t *testing.T) {
	pcb := newTestBoard(t)
	a := board.NewComponent(pcb.Arena, board.NilID, "U1", geom.LayerRange{Zmin: 0, Zmax: 0}, shape.AARect{}, 0, false, false)
	if err := pcb.AddComponent(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := board.NewComponent(pcb.Arena, board.NilID, "U1", geom.LayerRange{Zmin: 0, Zmax: 0}, shape.AARect{}, 0, false, false)
	if err := pcb.AddComponent(b); err == nil {
		t.Error("expected a duplicate component name to be rejected")
	}
}

func TestAddPinRejectsDuplicateNameAndNonComponent(t *testing.T) {
	pcb := newTestBoard(t)
	comp := board.NewComponent(pcb.Arena, board.NilID, "U1", geom.LayerRange{Zmin: 0, Zmax: 0}, shape.AARect{}, 0, false, false)
	if err := pcb.AddComponent(comp); err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	pin := board.AddPin(pcb.Arena, comp, "A", geom.LayerRange{Zmin: 0, Zmax: 0}, shape.Circle{Radius: 0.1}, 0)
	if err := pcb.AddPin(comp, pin); err != nil {
		t.Fatalf("unexpected error adding the pin the first time: %v", err)
	}
	dup := &board.Object{}
	*dup = *pin
	if err := pcb.AddPin(comp, dup); err == nil {
		t.Error("expected a duplicate pin name on the same component to be rejected")
	}
	if err := pcb.AddPin(pin, pin); err == nil {
		t.Error("expected AddPin on a non-component target to be rejected")
	}
}

func TestRemoveComponentDetachesFromNet(t *testing.T) {
	pcb := newTestBoard(t)
	comp := board.NewComponent(pcb.Arena, board.NilID, "U1", geom.LayerRange{Zmin: 0, Zmax: 0}, shape.AARect{}, 0, false, false)
	pcb.AddComponent(comp)
	pin := board.AddPin(pcb.Arena, comp, "A", geom.LayerRange{Zmin: 0, Zmax: 0}, shape.Circle{Radius: 0.1}, 0)
	pcb.AddPin(comp, pin)

	net := board.NewNet("GND", board.Rules{TraceWidth: 0.2, Clearance: 0.1, ViaDiameter: 0.3})
	if err := pcb.AddNet(net); err != nil {
		t.Fatalf("AddNet: %v", err)
	}
	if err := board.AttachToNet(pin, net); err != nil {
		t.Fatalf("AttachToNet: %v", err)
	}

	if err := pcb.RemoveComponent(comp.ID); err != nil {
		t.Fatalf("RemoveComponent: %v", err)
	}
	if _, ok := net.PinIDs[pin.ID]; ok {
		t.Error("expected the pin removed from the net once its component is removed")
	}
	if pcb.Arena.Get(comp.ID) != nil || pcb.Arena.Get(pin.ID) != nil {
		t.Error("expected both component and pin gone from the arena")
	}
}

func TestAddNetRejectsDuplicateName(t *testing.T) {
	pcb := newTestBoard(t)
	n1 := board.NewNet("GND", board.Rules{})
	n2 := board.NewNet("GND", board.Rules{})
	if err := pcb.AddNet(n1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pcb.AddNet(n2); err == nil {
		t.Error("expected a duplicate net name to be rejected")
	}
}

func TestRunPathFindingRoutesAndRasterizes(t *testing.T) {
	pcb := newTestBoard(t)
	net := board.NewNet("GND", board.Rules{TraceWidth: 0.2, Clearance: 0.1, ViaDiameter: 0.3})
	net.LayerMask = 1
	pcb.AddNet(net)
	conn := board.NewConnection(
		board.Point25Endpoint{X: 1, Y: 5, Z: 0},
		board.Point25Endpoint{X: 9, Y: 5, Z: 0},
		board.NilID, board.NilID,
	)
	net.AddConnection(conn)

	ok, err := pcb.RunPathFinding(conn.ID, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected routing to succeed in open space")
	}
	if len(conn.Tracks()) != 1 {
		t.Fatalf("expected the connection to own exactly one track, got %d", len(conn.Tracks()))
	}
	if conn.Tracks()[0].RasterCount() != 1 {
		t.Error("expected the accepted track to be rasterized once")
	}
}

func TestRunPathFindingUnknownConnection(t *testing.T) {
	pcb := newTestBoard(t)
	if _, err := pcb.RunPathFinding(board.NewID(), nil, nil); err == nil {
		t.Error("expected an error for an unknown connection id")
	}
}

func TestEraseTracksClearsRouting(t *testing.T) {
	pcb := newTestBoard(t)
	net := board.NewNet("GND", board.Rules{TraceWidth: 0.2, Clearance: 0.1, ViaDiameter: 0.3})
	net.LayerMask = 1
	pcb.AddNet(net)
	conn := board.NewConnection(board.Point25Endpoint{X: 1, Y: 5, Z: 0}, board.Point25Endpoint{X: 9, Y: 5, Z: 0}, board.NilID, board.NilID)
	net.AddConnection(conn)
	if _, err := pcb.RunPathFinding(conn.ID, nil, nil); err != nil {
		t.Fatalf("RunPathFinding: %v", err)
	}
	if err := pcb.EraseTracks(conn.ID); err != nil {
		t.Fatalf("EraseTracks: %v", err)
	}
	if len(conn.Tracks()) != 0 || conn.Routed {
		t.Error("expected the connection unrouted after EraseTracks")
	}
}

func TestSetMinTraceWidthClampsExistingNets(t *testing.T) {
	pcb := newTestBoard(t)
	net := board.NewNet("GND", board.Rules{TraceWidth: 50_000 / pcb.Config.NanometersPerUnit, Clearance: 0.1, ViaDiameter: 0.3})
	pcb.AddNet(net)

	pcb.SetMinTraceWidth(200) // micrometers -> 200_000 nm floor
	wantNM := 200.0 * 1000
	gotNM := net.Rules.TraceWidth * pcb.Config.NanometersPerUnit
	if gotNM < wantNM-1e-6 {
		t.Errorf("expected the net's trace width clamped up to the new floor, got %v nm want >= %v nm", gotNM, wantNM)
	}
}

func TestWipeClearsEverything(t *testing.T) {
	pcb := newTestBoard(t)
	comp := board.NewComponent(pcb.Arena, board.NilID, "U1", geom.LayerRange{Zmin: 0, Zmax: 0}, shape.AARect{}, 0, false, false)
	pcb.AddComponent(comp)
	net := board.NewNet("GND", board.Rules{})
	pcb.AddNet(net)

	if err := pcb.Wipe(); err != nil {
		t.Fatalf("Wipe: %v", err)
	}
	if len(pcb.Arena.All()) != 0 {
		t.Error("expected the arena empty after Wipe")
	}
	if len(pcb.Nets) != 0 {
		t.Error("expected nets empty after Wipe")
	}
}

func TestPruneLayersRenumbersSurvivors(t *testing.T) {
	cfg := board.DefaultCoreConfig()
	cfg.CellEdgeLength = 0.5
	layout := board.LayoutArea{Rect: geom.NewRect(geom.Point2{X: 0, Y: 0}, geom.Point2{X: 10, Y: 10}), MaxLayer: 2}
	pcb, err := New(cfg, layout)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	comp := board.NewComponent(pcb.Arena, board.NilID, "U1", geom.LayerRange{Zmin: 0, Zmax: 0}, shape.AARect{}, 0, false, false)
	pcb.AddComponent(comp)
	top := board.NewComponent(pcb.Arena, board.NilID, "U2", geom.LayerRange{Zmin: 2, Zmax: 2}, shape.AARect{}, 0, false, false)
	pcb.AddComponent(top)

	if err := pcb.PruneLayers([]int{1}); err != nil {
		t.Fatalf("PruneLayers: %v", err)
	}
	if len(pcb.Layers) != 2 {
		t.Fatalf("expected 2 surviving layers, got %d", len(pcb.Layers))
	}
	if comp.Layers.Zmin != 0 || comp.Layers.Zmax != 0 {
		t.Errorf("expected the bottom component to keep layer index 0, got %+v", comp.Layers)
	}
	if top.Layers.Zmin != 1 || top.Layers.Zmax != 1 {
		t.Errorf("expected the top component renumbered to index 1, got %+v", top.Layers)
	}
}

func TestExportShapeImportShapeRoundTrip(t *testing.T) {
	c := shape.Circle{Center: geom.Point2{X: 1, Y: 2}, Radius: 3}
	tuple := ExportShape(c)
	tag, ok := tuple[0].(string)
	if !ok || tag != "circle" {
		t.Fatalf("expected tag 'circle', got %v", tuple[0])
	}
	back, err := ImportShape(tag, tuple[1:])
	if err != nil {
		t.Fatalf("ImportShape: %v", err)
	}
	c2, ok := back.(shape.Circle)
	if !ok || c2.Radius != 3 || c2.Center != c.Center {
		t.Errorf("round trip mismatch: %+v", c2)
	}
}

func TestImportShapeRejectsWrongArgCount(t *testing.T) {
	if _, err := ImportShape("circle", []any{1.0, 2.0}); err == nil {
		t.Error("expected an arg-count error for a short circle tuple")
	}
}

// TestRunPathFindingDetoursAroundComponent is the obstacle-detour scenario: a
// 3x3 component centered on the straight line between two pins forces the
// router around it, and AddComponent's persistent component rasterization
// is what makes that obstacle visible to A* in the first place.
func TestRunPathFindingDetoursAroundComponent(t *testing.T) {
	pcb := newTestBoard(t)
	blocker := board.NewComponent(pcb.Arena, board.NilID, "U1",
		geom.LayerRange{Zmin: 0, Zmax: 0},
		shape.AARect{R: geom.NewRect(geom.Point2{X: 3.5, Y: 0.5}, geom.Point2{X: 6.5, Y: 3.5})},
		0, false, false)
	if err := pcb.AddComponent(blocker); err != nil {
		t.Fatalf("AddComponent: %v", err)
	}

	net := board.NewNet("N", board.Rules{TraceWidth: 0.5, Clearance: 0.25, ViaDiameter: 0.5})
	net.LayerMask = 1
	pcb.AddNet(net)
	conn := board.NewConnection(
		board.Point25Endpoint{X: 2, Y: 2, Z: 0},
		board.Point25Endpoint{X: 8, Y: 2, Z: 0},
		board.NilID, board.NilID,
	)
	net.AddConnection(conn)

	ok, err := pcb.RunPathFinding(conn.ID, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected the router to find a detour around the component")
	}
	track := conn.Tracks()[0]
	straight := 6.0
	if track.Length() <= straight {
		t.Errorf("expected a detour longer than the blocked straight line, got length %v", track.Length())
	}
	if track.Length() > 1.5*straight {
		t.Errorf("expected the detour within 1.5x the blocked straight line, got length %v want <= %v", track.Length(), 1.5*straight)
	}
}

// TestRunPathFindingCrossesLayersWithVia is the two-layer via-integration
// scenario: a pin reachable only on layer 0 and one reachable only on layer 1
// force the router to place at least one via joining the layers.
func TestRunPathFindingCrossesLayersWithVia(t *testing.T) {
	cfg := board.DefaultCoreConfig()
	cfg.CellEdgeLength = 0.5
	pcb, err := New(cfg, testLayout())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	net := board.NewNet("N", board.Rules{TraceWidth: 0.5, Clearance: 0.25, ViaDiameter: 0.5})
	net.LayerMask = 0b11
	pcb.AddNet(net)
	conn := board.NewConnection(
		board.Point25Endpoint{X: 2, Y: 2, Z: 0},
		board.Point25Endpoint{X: 8, Y: 8, Z: 1},
		board.NilID, board.NilID,
	)
	net.AddConnection(conn)

	ok, err := pcb.RunPathFinding(conn.ID, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected routing across layers to succeed")
	}
	track := conn.Tracks()[0]
	if len(track.Vias) == 0 {
		t.Fatal("expected at least one via joining the two layers")
	}
	via := track.Vias[0]
	if via.Layers.Zmin != 0 || via.Layers.Zmax != 1 {
		t.Errorf("expected a via spanning [0,1], got %+v", via.Layers)
	}
}

// TestRasterizePinRetainsPinClearanceAfterTrackUnrasterize is the pin
// clearance-counting scenario: unrasterizing an overlapping track must not
// erase the clearance a still-present pin independently owns.
func TestRasterizePinRetainsPinClearanceAfterTrackUnrasterize(t *testing.T) {
	pcb := newTestBoard(t)
	comp := board.NewComponent(pcb.Arena, board.NilID, "U1", geom.LayerRange{Zmin: 0, Zmax: 0}, shape.AARect{}, 0, false, false)
	pcb.AddComponent(comp)
	pin := board.AddPin(pcb.Arena, comp, "A",
		geom.LayerRange{Zmin: 0, Zmax: 0},
		shape.Circle{Center: geom.Point2{X: 5, Y: 5}, Radius: 0.3}, 0.2)
	if err := pcb.AddPin(comp, pin); err != nil {
		t.Fatalf("AddPin: %v", err)
	}

	x, y := pcb.Grid.CellIndex(geom.Point2{X: 5, Y: 5})
	cellBefore := pcb.Grid.Cell(x, y, 0)
	if !cellBefore.Flags.Has(navgrid.FlagPinTrackClearance) {
		t.Fatal("expected the pin's own rasterization to set pin-track clearance")
	}

	tr := board.NewTrack()
	tr.Segments = []shape.WideSegment{
		{Core: geom.Segment2{A: geom.Point2{X: 0.5, Y: 5}, B: geom.Point2{X: 9.5, Y: 5}}, HalfWidth: 0.1, Layer: 0},
	}
	if err := pcb.Grid.RasterizeTrack(tr, 1, 0.1, 0.1); err != nil {
		t.Fatalf("RasterizeTrack: %v", err)
	}
	if err := pcb.Grid.RasterizeTrack(tr, -1, 0.1, 0.1); err != nil {
		t.Fatalf("unrasterize: %v", err)
	}

	cellAfter := pcb.Grid.Cell(x, y, 0)
	if !cellAfter.Flags.Has(navgrid.FlagPinTrackClearance) {
		t.Error("expected pin-track clearance to survive the track's own unrasterization")
	}
	if cellAfter.KoCount[navgrid.KoPinTracks] < 1 {
		t.Error("expected the pin-track keepout counter to remain at or above 1")
	}
}

// TestPruneLayersPrunesViaRangeAndRenumbersTrack is the via-range/layer-prune
// scenario: pruning a layer a via spans must shrink the via's range and
// renumber the surviving segments' layers.
func TestPruneLayersPrunesViaRangeAndRenumbersTrack(t *testing.T) {
	cfg := board.DefaultCoreConfig()
	cfg.CellEdgeLength = 0.5
	layout := board.LayoutArea{Rect: geom.NewRect(geom.Point2{X: 0, Y: 0}, geom.Point2{X: 10, Y: 10}), MaxLayer: 2}
	pcb, err := New(cfg, layout)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	net := board.NewNet("N", board.Rules{TraceWidth: 0.5, Clearance: 0.25, ViaDiameter: 0.5})
	net.LayerMask = 0b111
	pcb.AddNet(net)
	conn := board.NewConnection(
		board.Point25Endpoint{X: 2, Y: 2, Z: 0},
		board.Point25Endpoint{X: 8, Y: 8, Z: 2},
		board.NilID, board.NilID,
	)
	net.AddConnection(conn)

	tr := board.NewTrack()
	tr.Segments = []shape.WideSegment{
		{Core: geom.Segment2{A: geom.Point2{X: 2, Y: 2}, B: geom.Point2{X: 5, Y: 5}}, HalfWidth: 0.25, Layer: 0},
		{Core: geom.Segment2{A: geom.Point2{X: 5, Y: 5}, B: geom.Point2{X: 8, Y: 8}}, HalfWidth: 0.25, Layer: 2},
	}
	tr.Vias = []board.Via{
		{Center: geom.Point2{X: 5, Y: 5}, Layers: geom.LayerRange{Zmin: 0, Zmax: 2}, Radius: 0.25},
	}
	conn.AddTrack(tr)

	if err := pcb.PruneLayers([]int{1}); err != nil {
		t.Fatalf("PruneLayers: %v", err)
	}
	if len(conn.Tracks()) != 1 {
		t.Fatalf("expected the track to survive pruning, got %d tracks", len(conn.Tracks()))
	}
	survivor := conn.Tracks()[0]
	if len(survivor.Vias) != 1 {
		t.Fatalf("expected exactly one surviving via, got %d", len(survivor.Vias))
	}
	if survivor.Vias[0].Layers.Zmin != 0 || survivor.Vias[0].Layers.Zmax != 1 {
		t.Errorf("expected the via renumbered to [0,1], got %+v", survivor.Vias[0].Layers)
	}
	if survivor.Segments[0].Layer != 0 {
		t.Errorf("expected the layer-0 segment to stay on layer 0, got %d", survivor.Segments[0].Layer)
	}
	if survivor.Segments[1].Layer != 1 {
		t.Errorf("expected the layer-2 segment renumbered to layer 1, got %d", survivor.Segments[1].Layer)
	}
}

func TestGridSizeWrapper(t *testing.T) {
	pcb := newTestBoard(t)
	w, h, d := pcb.GridSize()
	if w <= 0 || h <= 0 || d != 2 {
		t.Errorf("unexpected grid size %d %d %d", w, h, d)
	}
}
