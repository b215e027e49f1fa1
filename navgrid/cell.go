package navgrid

// Cell is the per-cell record of the uniform grid (spec §4.4). Fields are
// grouped as: persistent addressing/cost/flags/keepout data, and A*
// scratch embedded for cache locality (score/backDir/visit generation) —
// exactly as the teacher embeds pathfinding scratch alongside grid content
// (rl/grid.go's Cell, paths/pathrange.go's node cache).
type Cell struct {
	X, Y, Z int32

	Cost float64 // base traversal cost multiplier, default 1.0

	// A* scratch. Because it is scratch, two concurrent searches are
	// disallowed (spec §5); the facade's advisory lock enforces this.
	Score    float64
	BackDir  Direction
	visitGen uint16
	visitDone bool

	Flags      Flags
	FlagsSaved Flags
	EdgeMask   EdgeMask

	KoCount [4]int8

	WriteSeq uint16

	// heapIndex is A* open-set scratch outside the spec's named cell
	// contract; no code in this package currently reads or writes it.
	heapIndex int32
}

// CanRoute reports whether a track may traverse this cell.
func (c *Cell) CanRoute() bool { return !c.Flags.Has(TracksBlocked) }

// CanPlaceVia reports whether a via may be placed in this cell right now
// (temporary or permanent blockage both count).
func (c *Cell) CanPlaceVia() bool { return !c.Flags.Has(ViasBlocked) }

// CanPlaceViaEver reports whether a via could ever be placed here,
// ignoring temporary blockage/clearance (spec §4.4 can_place_via_ever).
func (c *Cell) CanPlaceViaEver() bool {
	return !c.Flags.Has(FlagBlockedPermanent | FlagNoVias)
}

// CanAddVia reports whether a via may connect c to neighbor: both must be
// via-capable and agree on INSIDE_PIN state (spec §4.4 can_add_via).
func (c *Cell) CanAddVia(neighbor *Cell) bool {
	return c.CanPlaceVia() && neighbor.CanPlaceVia() &&
		c.Flags.Has(FlagInsidePin) == neighbor.Flags.Has(FlagInsidePin)
}

// saveFlags snapshots Flags into FlagsSaved on first touch within a
// pathfinding-context save/restore window (spec §4.8).
func (c *Cell) saveFlags(touched bool) {
	if !touched {
		c.FlagsSaved = c.Flags
	}
}

// restoreFlags restores Flags from FlagsSaved.
func (c *Cell) restoreFlags() {
	c.Flags = c.FlagsSaved
}

// applyKoDelta applies a signed delta to one keepout counter and updates the
// matching clearance flag bit. It reports an InvariantError-shaped problem
// via the returned bool (false if the counter would go negative).
func (c *Cell) applyKoDelta(cat KoCategory, delta int8) bool {
	nv := int(c.KoCount[cat]) + int(delta)
	if nv < 0 {
		return false
	}
	c.KoCount[cat] = int8(nv)
	if nv > 0 {
		c.Flags = c.Flags.Set(clearanceBits[cat])
	} else {
		c.Flags = c.Flags.Clear(clearanceBits[cat])
	}
	return true
}
