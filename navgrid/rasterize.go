package navgrid

import (
	"github.com/chrisbmr/PCBEnv-sub001/board"
	"github.com/chrisbmr/PCBEnv-sub001/geom"
	"github.com/chrisbmr/PCBEnv-sub001/shape"
)

// RasterParams configures one rasterization sweep (spec §4.5).
type RasterParams struct {
	IgnoreMask       Flags
	FlagsAnd         Flags // applied as flags = (flags & FlagsAnd) | FlagsOr
	FlagsOr          Flags
	KoDelta          [4]int8 // indexed by KoCategory
	TrackRasterDelta int     // +1/-1 applied to the owning Track's counter by the caller

	// ExpandBy is the expansion distance used when AutoExpand is false.
	ExpandBy float64

	// AutoExpand requests the shape be rasterized twice (spec §4.5): once
	// at Clearance+HalfWidth (track clearance) and once at
	// Clearance+ViaRadius (via clearance), sharing one sweep epoch so
	// overlapping cells are not double-counted: the second pass only writes
	// cells the first pass did not reach.
	AutoExpand bool
	Clearance  float64
	HalfWidth  float64
	ViaRadius  float64
}

// FlagsAndKeepAll is the identity mask for FlagsAnd (keep every existing
// bit before OR-ing in FlagsOr).
const FlagsAndKeepAll Flags = ^Flags(0)

// koCategoryMask selects which of the four KoCategory deltas a given
// AutoExpand pass is allowed to apply. The first, trace-clearance-radius
// pass applies every category; the second, via-clearance-radius pass
// applies only the via-flavored categories (route_vias, pin_vias, at odd
// indices), so track keepout stays at the trace-clearance radius while via
// keepout covers both radii (spec §4.5's "once at the track clearance
// radius... once at the via clearance radius"). A nil mask means every
// category applies, used for the single-pass (non-AutoExpand) case.
type koCategoryMask *[4]bool

var (
	trackPassMask koCategoryMask = &[4]bool{KoRouteTracks: true, KoPinTracks: true, KoRouteVias: true, KoPinVias: true}
	viaPassMask   koCategoryMask = &[4]bool{KoRouteVias: true, KoPinVias: true}
)

// Rasterize stamps sh (interpreted at layer z) into the grid under params,
// implementing the per-cell contract of spec §4.5. It returns the number of
// cells touched.
func (g *Grid) Rasterize(sh shape.Shape, z int, p RasterParams) int {
	seq := g.nextSweep()
	touched := 0
	if p.AutoExpand {
		touched += g.rasterizeOnePass(sh, z, p.Clearance+p.HalfWidth, p, seq, trackPassMask)
		touched += g.rasterizeOnePass(sh, z, p.Clearance+p.ViaRadius, p, seq, viaPassMask)
	} else {
		touched += g.rasterizeOnePass(sh, z, p.ExpandBy, p, seq, nil)
	}
	return touched
}

func (g *Grid) nextSweep() uint16 {
	g.sweepSeq++
	if g.sweepSeq == 0 {
		for i := range g.cells {
			g.cells[i].WriteSeq = 0
		}
		g.sweepSeq = 1
	}
	return g.sweepSeq
}

// expandedShape is sh grown by d. No shape kind is grown in closed form:
// the bbox is grown by d and the per-cell coverage test uses the distance
// to the original shape, which is equivalent for the
// "cell center within d of the shape" rule spec §4.5 needs.
type expandedShape struct {
	inner shape.Shape
	d     float64
}

func (e expandedShape) contains(p geom.Point2) bool {
	if e.d <= 0 {
		return e.inner.Contains(p)
	}
	if e.inner.Contains(p) {
		return true
	}
	sq := e.inner.SquaredDistance(shape.Circle{Center: p, Radius: 0})
	return sq <= e.d*e.d
}

func (e expandedShape) bbox() geom.Rect {
	return e.inner.Bbox().Expanded(e.d)
}

// rasterizeOnePass rasterizes sh (expanded by d) at layer z under one sweep
// epoch seq, applying the per-cell write contract (spec §4.5 steps 1-5).
//
// Cell inclusion follows spec §4.5's stated rule directly ("cell centre
// inside expanded shape" with an edge allowance for >=half-area coverage),
// implemented with a 5-point per-cell sample (center + 4 corners) rather
// than the teacher-style closed-form scanline per variant (body rect + cap
// disks for WideSegment, row spans for Circle/AARect, scanline
// triangulation for Polygon): the sampling approach produces the same
// inclusion decision the spec describes for every variant without four
// separate per-kind rasterizers, at the cost of being a constant factor
// slower per cell.
func (g *Grid) rasterizeOnePass(sh shape.Shape, z int, d float64, p RasterParams, seq uint16, mask koCategoryMask) int {
	if z < 0 || z >= g.D {
		return 0
	}
	es := expandedShape{inner: sh, d: d}
	bb := es.bbox()
	x0, y0 := g.CellIndex(bb.Min)
	x1, y1 := g.CellIndex(bb.Max)
	touched := 0
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if !g.cellCovered(es, x, y) {
				continue
			}
			c := g.cellAt(x, y, z)
			if c.WriteSeq == seq || c.Flags.Has(p.IgnoreMask) {
				continue
			}
			c.WriteSeq = seq
			c.Flags = c.Flags.Clear(FlagsAnyClearance)
			for cat := KoCategory(0); cat < 4; cat++ {
				delta := p.KoDelta[cat]
				if mask != nil && !mask[cat] {
					delta = 0
				}
				if delta != 0 {
					c.applyKoDelta(cat, delta)
				} else {
					// Re-evaluate the clearance bit even with a zero delta
					// so the "clear all, then recompute" step (4.5 step 3)
					// is honored for counters an earlier pass already set.
					if c.KoCount[cat] > 0 {
						c.Flags = c.Flags.Set(clearanceBits[cat])
					}
				}
			}
			c.Flags = (c.Flags & p.FlagsAnd) | p.FlagsOr
			g.refreshEdges(x, y, z)
			touched++
		}
	}
	return touched
}

func (g *Grid) cellCovered(es expandedShape, x, y int) bool {
	cc := g.CellCenter(x, y, 0).P
	if es.contains(cc) {
		return true
	}
	half := g.CellEdge / 2
	corners := [4]geom.Point2{
		{X: cc.X - half, Y: cc.Y - half},
		{X: cc.X + half, Y: cc.Y - half},
		{X: cc.X - half, Y: cc.Y + half},
		{X: cc.X + half, Y: cc.Y + half},
	}
	in := 0
	for _, p := range corners {
		if es.contains(p) {
			in++
		}
	}
	// Center outside, but >= half the sampled corners inside approximates
	// ">= half a cell area" coverage (spec §4.5 edge rule).
	return in >= 2
}

// refreshEdges recomputes the edge_mask bits between (x,y,z) and its
// horizontal neighbors after a flags change: an edge is present only if
// neither endpoint is a track-blocking obstacle and the neighbor exists
// (spec §4.5, "the grid's horizontal edges crossing into an obstacle cell
// are cleared from edge_mask").
func (g *Grid) refreshEdges(x, y, z int) {
	c := g.cellAt(x, y, z)
	cBlocked := c.Flags.Has(TracksBlocked)
	for i, d := range horizontalDirections {
		nx, ny, nz, ok := g.Neighbor(x, y, z, d)
		bit := EdgeMask(1 << uint(i))
		if !ok {
			c.EdgeMask &^= bit
			continue
		}
		n := g.cellAt(nx, ny, nz)
		nBlocked := n.Flags.Has(TracksBlocked)
		if cBlocked || nBlocked {
			c.EdgeMask &^= bit
		} else {
			c.EdgeMask |= bit
		}
		opp := d.Opposite()
		oppBit := edgeBit(opp)
		if cBlocked || nBlocked {
			n.EdgeMask &^= oppBit
		} else {
			n.EdgeMask |= oppBit
		}
	}
}

// RasterizeTrack stamps every segment of a track into the grid, applying
// delta to the track's rasterization reference counter first: tracks with a
// nonzero counter contribute exactly once to keepout regardless of the
// counter's value (spec §4.6). delta must be +1 or -1.
func (g *Grid) RasterizeTrack(t *board.Track, delta int, netClearance, viaRadius float64) error {
	before := t.RasterCount()
	var after int
	var err error
	switch delta {
	case 1:
		after = t.IncRaster()
	case -1:
		after, err = t.DecRaster()
		if err != nil {
			return err
		}
	default:
		return board.NewInvalidInputError("RasterizeTrack", "delta must be +1 or -1, got %d", delta)
	}
	transitioned := (before == 0 && after == 1) || (before == 1 && after == 0)
	if !transitioned {
		return nil
	}
	sign := int8(1)
	if after == 0 {
		sign = -1
	}
	g.stampTrackCells(t, sign, netClearance, viaRadius)
	return nil
}

// ForceTrackOntoGrid stamps t's segments and vias into g unconditionally,
// ignoring t.RasterCount(). It exists for callers that rebuild the grid
// wholesale (e.g. a layer prune that renumbers layers and so must
// reconstruct the grid) and need to restamp every already-routed track onto
// the fresh grid without disturbing the track's own reference count.
func (g *Grid) ForceTrackOntoGrid(t *board.Track, netClearance, viaRadius float64) {
	g.stampTrackCells(t, 1, netClearance, viaRadius)
}

// stampTrackCells applies sign to every cell t's segments and vias cover, at
// the net's trace and via clearance radii (spec §4.6, §4.5 AutoExpand).
func (g *Grid) stampTrackCells(t *board.Track, sign int8, netClearance, viaRadius float64) {
	for _, seg := range t.Segments {
		p := RasterParams{
			FlagsAnd: FlagsAndKeepAll,
			AutoExpand: true,
			Clearance: netClearance,
			HalfWidth: seg.HalfWidth,
			ViaRadius: viaRadius,
		}
		// setRoute(+1) semantics (NavPoint.hpp): a track occupies both the
		// track-clearance and via-clearance counters. koCategoryMask splits
		// which one each AutoExpand pass actually writes.
		p.KoDelta[KoRouteTracks] = sign
		p.KoDelta[KoRouteVias] = sign
		g.Rasterize(seg, seg.Layer, p)
	}
	for _, v := range t.Vias {
		p := RasterParams{
			FlagsAnd:   FlagsAndKeepAll,
			AutoExpand: true,
			Clearance:  netClearance,
			HalfWidth:  v.Radius,
			ViaRadius:  viaRadius,
		}
		p.KoDelta[KoRouteTracks] = sign
		p.KoDelta[KoRouteVias] = sign
		for z := v.Layers.Zmin; z <= v.Layers.Zmax; z++ {
			g.Rasterize(shape.Circle{Center: v.Center, Radius: v.Radius}, z, p)
		}
	}
}

// RasterizePin stamps pin into the grid: INSIDE_PIN plus pin_tracks/
// pin_vias keepout, rasterized once at the track-clearance radius and once
// at the via-clearance radius (spec §3.2 NavKeepoutCounts, mirroring the
// original's NavKeepoutCounts::setPin and PCBoard's persistent pin stamp).
// sign is +1 to add the pin to the grid, -1 to remove it; viaRadius is the
// via-clearance radius to use for the wide pass (the pin has no net of its
// own yet, so the caller supplies a default). BLOCKED_TEMPORARY is cleared
// inside the pin so a connection can always reach the pin it terminates on.
func (g *Grid) RasterizePin(pin *board.Object, sign int8, viaRadius float64) int {
	if pin.Shape == nil {
		return 0
	}
	p := RasterParams{
		AutoExpand: true,
		Clearance:  pin.Clearance,
		ViaRadius:  viaRadius,
	}
	if sign > 0 {
		p.FlagsAnd = ^FlagBlockedTemporary
		p.FlagsOr = FlagInsidePin
	} else {
		p.FlagsAnd = ^FlagInsidePin
	}
	p.KoDelta[KoPinTracks] = sign
	p.KoDelta[KoPinVias] = sign
	touched := 0
	for z := pin.Layers.Zmin; z <= pin.Layers.Zmax; z++ {
		touched += g.Rasterize(pin.Shape, z, p)
	}
	return touched
}

// RasterizeComponent stamps comp's footprint into the grid: INSIDE_COMPONENT
// plus, unless the component allows routing through itself, BLOCKED_TEMPORARY
// (spec §4.8's "components that disallow routing through their own
// footprint"). Cells already tagged INSIDE_PIN are left untouched via
// IgnoreMask, mirroring PCBoard.cpp's rastC.IgnoreMask = INSIDE_PIN, so a
// component's own pins are never blocked by their parent's footprint. sign
// is +1 to add, -1 to remove.
func (g *Grid) RasterizeComponent(comp *board.Object, sign int8) int {
	if comp.Shape == nil {
		return 0
	}
	p := RasterParams{IgnoreMask: FlagInsidePin}
	if sign > 0 {
		p.FlagsAnd = FlagsAndKeepAll
		p.FlagsOr = FlagInsideComponent
		if !comp.CanRouteInside {
			p.FlagsOr |= FlagBlockedTemporary
		}
	} else {
		p.FlagsAnd = ^(FlagInsideComponent | FlagBlockedTemporary)
	}
	touched := 0
	for z := comp.Layers.Zmin; z <= comp.Layers.Zmax; z++ {
		touched += g.Rasterize(comp.Shape, z, p)
	}
	return touched
}
