// Package route implements the route-tracker loader (spec §4.11): it
// recovers a graph of per-net Connections, each owning a well-formed Track,
// from a flat, unordered bag of WideSegments and Vias — the shape a routed
// board arrives in when read back from storage. Grounded on the original's
// RouteTracker (_examples/original_source/pcbenv, referenced by
// SPEC_FULL.md's "RouteTracker.cpp has an explicit warnings output list")
// and on the teacher's plain-struct, explicit-error-return idiom used
// throughout board/.
package route

import (
	"github.com/chrisbmr/PCBEnv-sub001/board"
	"github.com/chrisbmr/PCBEnv-sub001/geom"
	"github.com/chrisbmr/PCBEnv-sub001/shape"
)

// Tracker runs the three-phase stitching algorithm for one net's worth of
// segments and vias.
type Tracker struct {
	arena  *board.Arena
	Cancel func() bool

	// NudgeDistance is how far a detected circular track's closing vertex is
	// pushed apart (spec §4.11 failure handling); callers should pass half
	// the grid's cell edge length.
	NudgeDistance float64

	Warnings []error
}

// NewTracker constructs a Tracker over arena's pin objects. cancel may be
// nil.
func NewTracker(arena *board.Arena, cancel func() bool) *Tracker {
	return &Tracker{arena: arena, Cancel: cancel, NudgeDistance: 0.05}
}

type point3 struct {
	X, Y float64
	Z    int
}

func p3(p geom.Point2, z int) point3 { return point3{p.X, p.Y, z} }

// Load runs phases A-C over segments/vias (already known to belong to one
// net) and returns the resulting connections (spec §4.11).
func (tr *Tracker) Load(netID board.ID, segments []shape.WideSegment, vias []board.Via) ([]*board.Connection, error) {
	endpointPin, err := tr.phaseA(segments, vias)
	if err != nil {
		return nil, err
	}
	tracks, err := tr.phaseB(segments, endpointPin)
	if err != nil {
		return nil, err
	}
	return tr.phaseC(netID, tracks, endpointPin)
}

// ---- Phase A: per-endpoint indexing ----

type viaIndexEntry struct {
	via      board.Via
	consumed bool
}

type phaseAIndex struct {
	endpointPin map[point3]board.ID
	viasAt      map[point3][]*viaIndexEntry
	allVias     []*viaIndexEntry
}

func (tr *Tracker) phaseA(segments []shape.WideSegment, vias []board.Via) (*phaseAIndex, error) {
	idx := &phaseAIndex{
		endpointPin: make(map[point3]board.ID),
		viasAt:      make(map[point3][]*viaIndexEntry),
	}
	idx.allVias = make([]*viaIndexEntry, len(vias))
	for i, v := range vias {
		idx.allVias[i] = &viaIndexEntry{via: v}
	}

	pins := tr.pinObjects()

	for _, s := range segments {
		for _, end := range []geom.Point2{s.Core.A, s.Core.B} {
			pinID, touchedOnly := tr.matchPin(pins, end, s, s.Layer)
			if pinID != board.NilID {
				idx.endpointPin[p3(end, s.Layer)] = pinID
			} else if touchedOnly {
				tr.Warnings = append(tr.Warnings, board.NewWarning(
					"route.phaseA", "segment touches but does not endpoint inside a pin at (%.4f,%.4f,z=%d)", end.X, end.Y, s.Layer))
			}
		}
	}

	for _, s := range segments {
		for _, end := range []geom.Point2{s.Core.A, s.Core.B} {
			for _, ve := range idx.allVias {
				if ve.via.Layers.Zmin <= s.Layer && s.Layer <= ve.via.Layers.Zmax &&
					geom.SquaredDistance(end, ve.via.Center) <= ve.via.Radius*ve.via.Radius {
					key := p3(end, s.Layer)
					idx.viasAt[key] = append(idx.viasAt[key], ve)
				}
			}
		}
	}

	return idx, nil
}

// matchPin returns the pin that end endpoints inside (Contains) on layer z,
// or board.NilID plus touchedOnly=true if a pin's shape is merely touched
// (Intersects a segment without containing the endpoint).
func (tr *Tracker) matchPin(pins []*board.Object, end geom.Point2, s shape.WideSegment, z int) (board.ID, bool) {
	touchedOnly := false
	for _, pin := range pins {
		if !pin.Layers.Contains(z) || pin.Shape == nil {
			continue
		}
		if pin.Shape.Contains(end) {
			return pin.ID, false
		}
		if pin.Shape.Intersects(s) {
			touchedOnly = true
		}
	}
	return board.NilID, touchedOnly
}

func (tr *Tracker) pinObjects() []*board.Object {
	var pins []*board.Object
	for _, o := range tr.arena.All() {
		if o.Pin != nil {
			pins = append(pins, o)
		}
	}
	return pins
}

// pinBridges reports whether a pin at point p bridges layers z0 and z1
// (pins act as vias, spec §4.11 try_append acceptance rule).
func (idx *phaseAIndex) pinBridges(p geom.Point2, z0, z1 int, pins map[point3]board.ID) bool {
	// A pin bridges if its recorded endpoint covers both layers; since
	// endpointPin only stores per-(point,layer), a bridging pin is one
	// recorded at both z0 and z1 for the same (x,y).
	_, ok0 := idx.endpointPin[point3{p.X, p.Y, z0}]
	_, ok1 := idx.endpointPin[point3{p.X, p.Y, z1}]
	return ok0 && ok1
}

// viaBridges reports whether a via registered at p on either z0 or z1
// spans both layers.
func (idx *phaseAIndex) viaBridges(p geom.Point2, z0, z1 int) bool {
	lo, hi := minInt(z0, z1), maxInt(z0, z1)
	for _, z := range [2]int{z0, z1} {
		ves, _ := idx.viasAtPoint(p, z)
		for _, ve := range ves {
			if ve.via.Layers.Zmin <= lo && ve.via.Layers.Zmax >= hi {
				return true
			}
		}
	}
	return false
}

func (idx *phaseAIndex) viasAtPoint(p geom.Point2, z int) ([]*viaIndexEntry, bool) {
	ves, ok := idx.viasAt[point3{p.X, p.Y, z}]
	return ves, ok && len(ves) > 0
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
