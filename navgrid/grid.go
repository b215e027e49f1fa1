// Package navgrid implements the uniform 2.5D navigation grid: addressing,
// the per-cell contract, the rasterizer and the A* pathfinder (spec §4.3-
// §4.9). It is the performance-critical core of the autorouter, grounded on
// the teacher's flat-slice grid idiom (anaseto-gruid's grid.go/rl/grid.go)
// and its cached, generation-counted A* node map (paths/pathrange.go,
// paths/astar.go).
package navgrid

import (
	"github.com/chrisbmr/PCBEnv-sub001/board"
	"github.com/chrisbmr/PCBEnv-sub001/geom"
)

// Grid is the uniform lattice over the layout area times layers.
type Grid struct {
	OriginX, OriginY float64
	CellEdge         float64
	W, H, D          int

	cells []Cell

	sweepSeq uint16
	astarGen uint16
}

// NewGrid constructs a grid covering area at the given cell edge length and
// layer count. It returns an InvalidInputError (spec §7) if W*H*D would
// exceed maxCells.
func NewGrid(area board.LayoutArea, cellEdge float64, maxCells int) (*Grid, error) {
	if cellEdge <= 0 {
		return nil, board.NewInvalidInputError("NewGrid", "cell edge length must be positive")
	}
	w := int(area.Rect.Width()/cellEdge) + 1
	h := int(area.Rect.Height()/cellEdge) + 1
	d := area.MaxLayer + 1
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if d < 1 {
		d = 1
	}
	if w*h*d > maxCells {
		return nil, board.NewInvalidInputError("NewGrid", "grid %dx%dx%d=%d cells exceeds MaxGridCells=%d", w, h, d, w*h*d, maxCells)
	}
	g := &Grid{
		OriginX:  area.Rect.Min.X,
		OriginY:  area.Rect.Min.Y,
		CellEdge: cellEdge,
		W:        w,
		H:        h,
		D:        d,
		cells:    make([]Cell, w*h*d),
	}
	for z := 0; z < d; z++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := g.cellAt(x, y, z)
				c.X, c.Y, c.Z = int32(x), int32(y), int32(z)
				c.Cost = 1.0
				c.EdgeMask = g.boundaryEdgeMask(x, y)
			}
		}
	}
	return g, nil
}

// Size returns (W, H, D) (spec §6.3 grid_size).
func (g *Grid) Size() (int, int, int) { return g.W, g.H, g.D }

func (g *Grid) boundaryEdgeMask(x, y int) EdgeMask {
	var m EdgeMask
	for i, d := range horizontalDirections {
		dx, dy, _ := d.Offset()
		nx, ny := x+dx, y+dy
		if nx >= 0 && nx < g.W && ny >= 0 && ny < g.H {
			m |= 1 << uint(i)
		}
	}
	return m
}

// Index computes the linear cell index for grid coordinates, clamping x
// and y to the valid range (spec §4.3).
func (g *Grid) Index(x, y, z int) int {
	if x < 0 {
		x = 0
	} else if x >= g.W {
		x = g.W - 1
	}
	if y < 0 {
		y = 0
	} else if y >= g.H {
		y = g.H - 1
	}
	return z*g.W*g.H + y*g.W + x
}

// InBounds reports whether (x,y,z) addresses an existing cell.
func (g *Grid) InBounds(x, y, z int) bool {
	return x >= 0 && x < g.W && y >= 0 && y < g.H && z >= 0 && z < g.D
}

func (g *Grid) cellAt(x, y, z int) *Cell {
	return &g.cells[g.Index(x, y, z)]
}

// Cell returns the cell at (x,y,z), or nil if out of bounds.
func (g *Grid) Cell(x, y, z int) *Cell {
	if !g.InBounds(x, y, z) {
		return nil
	}
	return g.cellAt(x, y, z)
}

// CellIndex converts a continuous point to its cell's (x,y) coordinate,
// clamped to the grid (spec §4.3 index mapping).
func (g *Grid) CellIndex(p geom.Point2) (int, int) {
	x := int((p.X - g.OriginX) / g.CellEdge)
	y := int((p.Y - g.OriginY) / g.CellEdge)
	if x < 0 {
		x = 0
	} else if x >= g.W {
		x = g.W - 1
	}
	if y < 0 {
		y = 0
	} else if y >= g.H {
		y = g.H - 1
	}
	return x, y
}

// CellCenter returns the continuous-space center of cell (x,y,z).
func (g *Grid) CellCenter(x, y, z int) geom.Point25 {
	return geom.Point25{
		P: geom.Point2{
			X: g.OriginX + (float64(x)+0.5)*g.CellEdge,
			Y: g.OriginY + (float64(y)+0.5)*g.CellEdge,
		},
		Z: z,
	}
}

// Neighbor returns the neighbor cell of (x,y,z) in direction d, and whether
// it exists within grid bounds (it may still be unreachable if the edge_mask
// bit for d is cleared; callers check that separately).
func (g *Grid) Neighbor(x, y, z int, d Direction) (nx, ny, nz int, ok bool) {
	dx, dy, dz := d.Offset()
	nx, ny, nz = x+dx, y+dy, z+dz
	ok = g.InBounds(nx, ny, nz)
	return
}

// CellSnapshot is the read-only view returned by the scripted grid query
// interface (spec §6.3).
type CellSnapshot struct {
	Flags   Flags
	KoCount [4]int8
	Cost    float64
	Score   float64
	Visits  uint16
}

// GetPoint returns a snapshot of the cell at (x,y,z) (spec §6.3).
func (g *Grid) GetPoint(x, y, z int) (CellSnapshot, bool) {
	c := g.Cell(x, y, z)
	if c == nil {
		return CellSnapshot{}, false
	}
	return CellSnapshot{Flags: c.Flags, KoCount: c.KoCount, Cost: c.Cost, Score: c.Score, Visits: c.visitGen}, true
}

// Box3 is an integer cell-space cuboid used by GetRegion.
type Box3 struct {
	Xmin, Ymin, Zmin int
	Xmax, Ymax, Zmax int
}

// GetRegion returns a dense array of cell snapshots for every cell in box,
// row-major in (z,y,x) order (spec §6.3).
func (g *Grid) GetRegion(box Box3) []CellSnapshot {
	var out []CellSnapshot
	for z := box.Zmin; z <= box.Zmax; z++ {
		for y := box.Ymin; y <= box.Ymax; y++ {
			for x := box.Xmin; x <= box.Xmax; x++ {
				s, ok := g.GetPoint(x, y, z)
				if !ok {
					s = CellSnapshot{}
				}
				out = append(out, s)
			}
		}
	}
	return out
}
