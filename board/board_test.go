package board

import (
	"testing"

	"github.com/chrisbmr/PCBEnv-sub001/geom"
	"github.com/chrisbmr/PCBEnv-sub001/shape"
)

func TestArenaAttachDetach(t *testing.T) {
	a := NewArena()
	comp := NewComponent(a, NilID, "U1", geom.LayerRange{Zmin: 0, Zmax: 0}, shape.AARect{R: geom.Rect{Max: geom.Point2{X: 1, Y: 1}}}, 0, false, false)
	pin := AddPin(a, comp, "pin-1", geom.LayerRange{Zmin: 0, Zmax: 0}, shape.Circle{Radius: 0.1}, 0)
	if pin == nil {
		t.Fatal("AddPin returned nil")
	}
	if pin.Name != "pin_1" {
		t.Errorf("expected hyphen rewritten to underscore, got %q", pin.Name)
	}
	if got := LookupPin(a, comp, "pin-1"); got == nil || got.ID != pin.ID {
		t.Error("LookupPin did not find the pin by its normalized name")
	}
	removed := a.Detach(comp.ID)
	if len(removed) != 2 {
		t.Errorf("expected component+pin removed, got %d", len(removed))
	}
	if a.Get(comp.ID) != nil || a.Get(pin.ID) != nil {
		t.Error("expected both objects gone from the arena after Detach")
	}
}

func TestArenaCloneIsDeepAndDetached(t *testing.T) {
	a := NewArena()
	comp := NewComponent(a, NilID, "U1", geom.LayerRange{Zmin: 0, Zmax: 0}, shape.AARect{}, 0, false, false)
	AddPin(a, comp, "A", geom.LayerRange{Zmin: 0, Zmax: 0}, shape.Circle{Radius: 0.1}, 0)

	clone := a.Clone(comp.ID)
	if clone.ID == comp.ID {
		t.Error("clone must get a fresh id")
	}
	if len(clone.Children) != 1 {
		t.Fatalf("expected clone to carry the pin subtree, got %d children", len(clone.Children))
	}
	if a.Get(clone.ID) != nil {
		t.Error("Clone must not attach the result to the arena")
	}
}

func TestNetAttachDetach(t *testing.T) {
	a := NewArena()
	comp := NewComponent(a, NilID, "U1", geom.LayerRange{Zmin: 0, Zmax: 0}, shape.AARect{}, 0, false, false)
	pin := AddPin(a, comp, "A", geom.LayerRange{Zmin: 0, Zmax: 0}, shape.Circle{Radius: 0.1}, 0)

	net := NewNet("GND", Rules{TraceWidth: 0.2, Clearance: 0.2, ViaDiameter: 0.4})
	if err := AttachToNet(pin, net); err != nil {
		t.Fatalf("AttachToNet: %v", err)
	}
	if pin.Pin.NetID != net.ID {
		t.Error("pin not marked with net id")
	}
	if _, ok := net.PinIDs[pin.ID]; !ok {
		t.Error("net does not list the pin")
	}
	DetachFromNet(pin, net)
	if pin.Pin.NetID != NilID {
		t.Error("expected pin net id cleared after detach")
	}
	if _, ok := net.PinIDs[pin.ID]; ok {
		t.Error("expected net to drop the pin after detach")
	}
}

func TestTrackValidateRequiresVia(t *testing.T) {
	tr := NewTrack()
	tr.Segments = []shape.WideSegment{
		{Core: geom.Segment2{A: geom.Point2{X: 0, Y: 0}, B: geom.Point2{X: 1, Y: 0}}, Layer: 0, HalfWidth: 0.1},
		{Core: geom.Segment2{A: geom.Point2{X: 1, Y: 0}, B: geom.Point2{X: 2, Y: 0}}, Layer: 1, HalfWidth: 0.1},
	}
	if err := tr.Validate(1e-6); err == nil {
		t.Error("expected a layer change with no via to fail validation")
	}
	tr.Vias = []Via{{Center: geom.Point2{X: 1, Y: 0}, Layers: geom.LayerRange{Zmin: 0, Zmax: 1}, Radius: 0.2}}
	if err := tr.Validate(1e-6); err != nil {
		t.Errorf("expected validation to pass once a spanning via exists: %v", err)
	}
}

func TestTrackRasterCounter(t *testing.T) {
	tr := NewTrack()
	if n := tr.IncRaster(); n != 1 {
		t.Errorf("expected 1, got %d", n)
	}
	if _, err := tr.DecRaster(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := tr.DecRaster(); err == nil {
		t.Error("expected decrementing below zero to fail")
	}
}

func TestConnectionTracks(t *testing.T) {
	c := NewConnection(Point25Endpoint{X: 0, Y: 0, Z: 0}, Point25Endpoint{X: 1, Y: 1, Z: 0}, NilID, NilID)
	if c.Routed {
		t.Error("a fresh connection should not be routed")
	}
	c.AddTrack(NewTrack())
	if !c.Routed {
		t.Error("expected AddTrack to mark the connection routed")
	}
	c.ClearTracks()
	if c.Routed || len(c.Tracks()) != 0 {
		t.Error("expected ClearTracks to reset routed state and track list")
	}
}

func TestRulesStricter(t *testing.T) {
	base := Rules{TraceWidth: 0.2, Clearance: 0.2, ViaDiameter: 0.4}
	tighter := Rules{TraceWidth: 0.1, Clearance: 0.3, ViaDiameter: 0.5}
	if !tighter.Stricter(base) {
		t.Error("expected narrower trace + larger clearance/via to be stricter")
	}
	if base.Stricter(tighter) {
		t.Error("base should not be stricter than tighter")
	}
}

func TestComponentPinNames(t *testing.T) {
	a := NewArena()
	comp := NewComponent(a, NilID, "U1", geom.LayerRange{Zmin: 0, Zmax: 0}, shape.AARect{}, 0, false, false)
	AddPin(a, comp, "A", geom.LayerRange{Zmin: 0, Zmax: 0}, shape.Circle{Radius: 0.1}, 0)
	AddPin(a, comp, "B", geom.LayerRange{Zmin: 0, Zmax: 0}, shape.Circle{Radius: 0.1}, 0)
	names := comp.Component.PinNames()
	if len(names) != 2 {
		t.Errorf("expected 2 pin names, got %d", len(names))
	}
}
