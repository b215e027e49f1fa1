package navgrid

import (
	"github.com/chrisbmr/PCBEnv-sub001/board"
	"github.com/chrisbmr/PCBEnv-sub001/shape"
)

// SumViolationArea implements spec §4.9: it rasterizes sh at layer z into a
// scratch counter without touching the real grid (no Flags/KoCount/
// WriteSeq mutation), and sums weights.PermanentBlocked /
// ForeignRouteClearance / InsideDisallowedComp for every covered cell
// according to the *existing* grid state there, scaled by one cell's area.
// A permanently-blocked cell short-circuits to +Inf per the default table.
func (g *Grid) SumViolationArea(sh shape.Shape, z int, weights board.ViolationWeights) float64 {
	if z < 0 || z >= g.D {
		return 0
	}
	es := expandedShape{inner: sh, d: 0}
	bb := es.bbox()
	x0, y0 := g.CellIndex(bb.Min)
	x1, y1 := g.CellIndex(bb.Max)
	cellArea := g.CellEdge * g.CellEdge

	var total float64
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if !g.cellCovered(es, x, y) {
				continue
			}
			c := g.Cell(x, y, z)
			if c == nil {
				continue
			}
			if c.Flags.Has(FlagBlockedPermanent) {
				total += weights.PermanentBlocked
				continue
			}
			if c.Flags.Has(FlagRouteTrackClearance) || c.Flags.Has(FlagRouteViaClearance) {
				total += weights.ForeignRouteClearance * cellArea
			}
			if c.Flags.Has(FlagInsideComponent) && !c.Flags.Has(FlagInsidePin) {
				total += weights.InsideDisallowedComp * cellArea
			}
		}
	}
	return total
}
