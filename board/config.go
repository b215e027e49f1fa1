package board

import "math"

// ViolationWeights configures the penalty table used by sum_violation_area
// (spec §4.9, §9 Open Question — the source doesn't commit to numeric
// values, so we expose it as configuration and default it to match the S5
// end-to-end scenario: a foreign net's route-track clearance costs exactly
// one cell area, soft penalties are fractional, and permanent blockage is
// infinite).
type ViolationWeights struct {
	PermanentBlocked       float64 // +Inf in the default table
	ForeignRouteClearance  float64 // contributes cell_area
	InsideDisallowedComp   float64 // fractional soft penalty
}

// DefaultViolationWeights returns the weight table used unless the caller
// overrides it in CoreConfig.
func DefaultViolationWeights() ViolationWeights {
	return ViolationWeights{
		PermanentBlocked:      posInf,
		ForeignRouteClearance: 1.0, // multiplied by the cell area by the caller
		InsideDisallowedComp:  0.25,
	}
}

var posInf = math.Inf(1)

// AStarCosts configures the A* cost model (spec §4.7).
type AStarCosts struct {
	Cardinal      float64
	Diagonal      float64
	Via           float64
	CostPerFlagBit float64
}

// DefaultAStarCosts returns the standard grid metric: cardinal steps cost 1,
// diagonals cost sqrt(2), vias cost 3. The grid A* multiplies step costs by
// the cell edge length but adds the via cost unscaled, so at the default
// 0.1 cell edge a via weighs as much as 30 cardinal steps.
func DefaultAStarCosts() AStarCosts {
	return AStarCosts{
		Cardinal:       1.0,
		Diagonal:       1.4142135623730951,
		Via:            3.0,
		CostPerFlagBit: 0,
	}
}

// CoreConfig is the immutable configuration a PCBoard is constructed with.
// It is the single place global-looking state (MaxGridCells, default rules,
// cost model) enters the core, instead of package-level globals (spec §9
// "Global state").
type CoreConfig struct {
	// NanometersPerUnit is the board-internal unit scale.
	NanometersPerUnit float64
	// MaxGridCells caps W*H*D for the uniform grid (spec §4.3).
	MaxGridCells int
	// CellEdgeLength is the uniform grid's cell edge length `e`.
	CellEdgeLength float64
	// DefaultAStarCosts is used when a routing call doesn't supply its own.
	DefaultAStarCosts AStarCosts
	// ViolationWeights configures sum_violation_area.
	ViolationWeights ViolationWeights
	// MinTraceWidthNM, MinClearanceNM, MinViaDiameterNM are the global
	// floors enforced by set_min_trace_width/clearance/via_diameter (spec
	// §6.4), expressed in nanometers.
	MinTraceWidthNM  float64
	MinClearanceNM   float64
	MinViaDiameterNM float64
}

// DefaultCoreConfig returns reasonable defaults for a 1mm-per-unit board.
func DefaultCoreConfig() CoreConfig {
	return CoreConfig{
		NanometersPerUnit: 1_000_000, // 1 board unit = 1mm
		MaxGridCells:      64 * 1024 * 1024,
		CellEdgeLength:    0.1,
		DefaultAStarCosts: DefaultAStarCosts(),
		ViolationWeights:  DefaultViolationWeights(),
		MinTraceWidthNM:   100_000,
		MinClearanceNM:    100_000,
		MinViaDiameterNM:  300_000,
	}
}
