package navgrid

import (
	"github.com/chrisbmr/PCBEnv-sub001/board"
)

// PathContext is the pathfinding-context manager (spec §4.8): it prepares
// the grid for exactly one connection's A* search and restores it
// afterwards, so the search sees the board as if the connection being
// routed did not yet exist.
//
// Preparation touches three disjoint kinds of state:
//  1. BLOCKED_TEMPORARY is cleared inside every component that disallows
//     routing through its own footprint, except where a pin's own
//     footprint overlaps it — otherwise a connection starting on a pin
//     could never leave the component it's mounted on.
//  2. The endpoint pins' own track clearance (but not via clearance) is
//     removed, so the new track isn't kept away from the very pin it
//     must terminate on.
//  3. Any other connection already routed on the same endpoint pins is
//     unrasterized for the duration of the search and rerasterized on
//     Finish, mirroring how the core allows a pin's existing fanout to be
//     routed around freely by a sibling connection landing on it.
//
// Flag edits are tracked per-cell with Cell.saveFlags/restoreFlags and
// undone in the reverse order they were applied (spec §4.8 "fini mirrors
// init"); track rasterization is undone via the normal +1/-1 reference
// count so a track shared by two in-flight contexts stays correctly
// counted.
type PathContext struct {
	g     *Grid
	arena *board.Arena

	touchedCells []*Cell

	unrasterized []unrasterEntry
}

type unrasterEntry struct {
	track        *board.Track
	netClearance float64
	viaRadius    float64
}

func (ctx *PathContext) touch(c *Cell) {
	for _, t := range ctx.touchedCells {
		if t == c {
			return
		}
	}
	c.saveFlags(false)
	ctx.touchedCells = append(ctx.touchedCells, c)
}

// PrepareConnection builds a PathContext for conn, applying the three edits
// above. netClearance and viaRadius are not used by PrepareConnection;
// sibling tracks are unrasterized and restored at the radii passed to
// UnrasterizeSiblings.
func (g *Grid) PrepareConnection(arena *board.Arena, conn *board.Connection, netClearance, viaRadius float64) *PathContext {
	ctx := &PathContext{g: g, arena: arena}

	endpointPins := conn.EndpointPins()
	pinObjs := make([]*board.Object, 0, len(endpointPins))
	for _, pid := range endpointPins {
		if o := arena.Get(pid); o != nil {
			pinObjs = append(pinObjs, o)
		}
	}

	// Step 1: clear BLOCKED_TEMPORARY inside non-routable-inside ancestor
	// components of the endpoint pins, except inside any pin's own
	// footprint (tagged FlagInsidePin at rasterization time).
	seenComp := map[board.ID]bool{}
	for _, pin := range pinObjs {
		comp := arena.Get(pin.ParentID)
		if comp == nil || comp.CanRouteInside || seenComp[comp.ID] {
			continue
		}
		seenComp[comp.ID] = true
		g.forEachCellInFootprint(comp, func(c *Cell) {
			if c.Flags.Has(FlagInsidePin) {
				return
			}
			if c.Flags.Has(FlagBlockedTemporary) {
				ctx.touch(c)
				c.Flags = c.Flags.Clear(FlagBlockedTemporary)
			}
		})
	}

	// Step 2: strip the endpoint pins' own track clearance (not via
	// clearance) from their footprints.
	for _, pin := range pinObjs {
		g.forEachCellInFootprint(pin, func(c *Cell) {
			if c.Flags.Has(FlagPinTrackClearance) {
				ctx.touch(c)
				c.Flags = c.Flags.Clear(FlagPinTrackClearance)
			}
		})
	}

	return ctx
}

// SiblingConnectionIDs returns the ids of other connections incident to
// conn's endpoint pins (spec §4.8 step 3's candidate set). navgrid has no
// net/connection index of its own, so the facade resolves these ids to
// *board.Track slices and passes them to UnrasterizeSiblings.
func SiblingConnectionIDs(arena *board.Arena, conn *board.Connection) []board.ID {
	seen := map[board.ID]bool{conn.ID: true}
	var out []board.ID
	for _, pid := range conn.EndpointPins() {
		pin := arena.Get(pid)
		if pin == nil || pin.Pin == nil {
			continue
		}
		for cid := range pin.Pin.ConnectionIDs {
			if seen[cid] {
				continue
			}
			seen[cid] = true
			out = append(out, cid)
		}
	}
	return out
}

// UnrasterizeSiblings removes tracks from the grid for the given
// already-resolved sibling connections (spec §4.8 step 3), recording them
// so Finish puts them back.
func (ctx *PathContext) UnrasterizeSiblings(tracks []*board.Track, netClearance, viaRadius float64) error {
	for _, t := range tracks {
		if err := ctx.g.RasterizeTrack(t, -1, netClearance, viaRadius); err != nil {
			return err
		}
		ctx.unrasterized = append(ctx.unrasterized, unrasterEntry{track: t, netClearance: netClearance, viaRadius: viaRadius})
	}
	return nil
}

// forEachCellInFootprint visits every grid cell whose center lies inside
// obj's shape, across obj's layer range.
func (g *Grid) forEachCellInFootprint(obj *board.Object, fn func(c *Cell)) {
	if obj.Shape == nil {
		return
	}
	bb := obj.Shape.Bbox()
	x0, y0 := g.CellIndex(bb.Min)
	x1, y1 := g.CellIndex(bb.Max)
	for z := obj.Layers.Zmin; z <= obj.Layers.Zmax; z++ {
		if z < 0 || z >= g.D {
			continue
		}
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				cc := g.CellCenter(x, y, z).P
				if !obj.Shape.Contains(cc) {
					continue
				}
				fn(g.cellAt(x, y, z))
			}
		}
	}
}

// Finish restores every edit PrepareConnection and UnrasterizeSiblings made,
// in reverse order (spec §4.8 "fini mirrors init"): rerasterize sibling
// tracks first, then restore flags.
func (ctx *PathContext) Finish() error {
	for i := len(ctx.unrasterized) - 1; i >= 0; i-- {
		e := ctx.unrasterized[i]
		if err := ctx.g.RasterizeTrack(e.track, 1, e.netClearance, e.viaRadius); err != nil {
			return err
		}
	}
	for i := len(ctx.touchedCells) - 1; i >= 0; i-- {
		ctx.touchedCells[i].restoreFlags()
	}
	return nil
}
