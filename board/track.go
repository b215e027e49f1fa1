package board

import (
	"github.com/chrisbmr/PCBEnv-sub001/geom"
	"github.com/chrisbmr/PCBEnv-sub001/shape"
)

// Via is a vertical cylinder connecting two or more layers at one 2D point
// (spec §3.2). Invariant: Layers.Zmin < Layers.Zmax.
type Via struct {
	Center geom.Point2
	Layers geom.LayerRange
	Radius float64
}

// Track is an ordered sequence of WideSegments and a set of Vias on one net
// (spec §3.2). Consecutive segments must share an endpoint; every layer
// change between consecutive segments must be realized by a Via in Vias
// whose layer range spans the two layers and whose center equals the shared
// point (invariant 3/4 in spec §3.3/§8).
type Track struct {
	ID       ID
	Segments []shape.WideSegment
	Vias     []Via

	// rasterized counts how many times +1 has been applied without a
	// matching -1 (spec §4.6). It must stay nonnegative; only the 0→1 and
	// 1→0 transitions actually touch the grid, higher values are pure
	// bookkeeping for overlapping concurrent routes.
	rasterized int
}

// NewTrack constructs an empty track.
func NewTrack() *Track { return &Track{ID: NewID()} }

// RasterCount returns the current rasterization reference count.
func (t *Track) RasterCount() int { return t.rasterized }

// IncRaster applies a +1 to the rasterization counter. Returns the count
// after the increment.
func (t *Track) IncRaster() int {
	t.rasterized++
	return t.rasterized
}

// DecRaster applies a -1 to the rasterization counter. It is an invariant
// violation to decrement below zero (spec §3.3 invariant 5).
func (t *Track) DecRaster() (int, error) {
	if t.rasterized <= 0 {
		return t.rasterized, NewInvariantError("Track.DecRaster", "rasterized counter would go negative")
	}
	t.rasterized--
	return t.rasterized, nil
}

// Length returns the sum of the track's segment lengths.
func (t *Track) Length() float64 {
	var l float64
	for _, s := range t.Segments {
		l += s.Core.Len()
	}
	return l
}

// Validate checks the chaining and via-at-layer-change invariants (spec §8
// property 4). It returns the first InvariantError found, or nil.
func (t *Track) Validate(tolerance float64) error {
	for i := 1; i < len(t.Segments); i++ {
		prev, cur := t.Segments[i-1], t.Segments[i]
		if geom.SquaredDistance(prev.Core.B, cur.Core.A) > tolerance*tolerance {
			return NewInvariantError("Track.Validate", "segment %d does not chain head-to-tail with segment %d", i-1, i)
		}
		if prev.Layer != cur.Layer {
			if !t.hasViaSpanning(prev.Core.B, prev.Layer, cur.Layer, tolerance) {
				return NewInvariantError("Track.Validate", "layer change %d->%d at segment %d has no spanning via", prev.Layer, cur.Layer, i)
			}
		}
	}
	return nil
}

func (t *Track) hasViaSpanning(p geom.Point2, z0, z1 int, tolerance float64) bool {
	lo, hi := z0, z1
	if lo > hi {
		lo, hi = hi, lo
	}
	for _, v := range t.Vias {
		if geom.SquaredDistance(v.Center, p) <= tolerance*tolerance &&
			v.Layers.Zmin <= lo && v.Layers.Zmax >= hi {
			return true
		}
	}
	return false
}
