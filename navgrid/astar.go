package navgrid

import (
	"container/heap"
	"math"

	"github.com/chrisbmr/PCBEnv-sub001/board"
	"github.com/chrisbmr/PCBEnv-sub001/geom"
	"github.com/chrisbmr/PCBEnv-sub001/shape"
)

// PathRequest bundles the per-connection inputs to FindPath (spec §4.7).
type PathRequest struct {
	Src, Dst geom.Point25

	LayerMask    uint64 // bit i set => layer i is a legal routing layer
	TraceWidth   float64
	NetClearance float64
	ViaRadius    float64

	Costs board.AStarCosts

	// MaxPops caps the number of cells popped from the open set before
	// TIMEOUT is returned (spec §4.7 Timeouts, §5). Zero means unlimited.
	MaxPops int

	// Cancel is polled at the top of every pop (spec §5 Cancellation).
	Cancel func() bool
}

// openNode is the A* priority-queue element: a pointer into the grid's own
// cell array plus the scratch this particular search needs beyond what the
// persistent Cell carries. dir is the direction used to step into this node
// from its predecessor, captured at push time — unlike Cell.BackDir, it
// cannot be mutated by a later relax() before this entry is popped, which is
// what makes the tie-break below deterministic.
type openNode struct {
	x, y, z int
	g, f    float64
	dir     Direction
}

type openHeap struct {
	g                *Grid
	dstX, dstY, dstZ int
	nodes            []openNode
}

func (h *openHeap) Len() int { return len(h.nodes) }

// straightLineDir returns the horizontal compass direction whose offset best
// matches the straight line from (x,y) to (dstX,dstY) (spec §4.7's tie-break
// reference direction), by sign of each axis; DirZero if already there.
func straightLineDir(x, y, dstX, dstY int) Direction {
	sx, sy := sign(dstX-x), sign(dstY-y)
	for _, d := range horizontalDirections {
		dx, dy, _ := d.Offset()
		if dx == sx && dy == sy {
			return d
		}
	}
	return DirZero
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func (h *openHeap) Less(i, j int) bool {
	a, b := h.nodes[i], h.nodes[j]
	if a.f != b.f {
		return a.f < b.f
	}
	// Tie-break (spec §4.7): prefer the predecessor direction that keeps a
	// straight line, then lower layer index, then lower linear index. "Keeps
	// a straight line" is judged by comparing each node's actual incoming
	// direction (captured on the node itself, not read back off the
	// mutable, shared Cell.BackDir) against the straight-line direction from
	// that node toward the destination.
	aStraight := a.dir == straightLineDir(a.x, a.y, h.dstX, h.dstY)
	bStraight := b.dir == straightLineDir(b.x, b.y, h.dstX, h.dstY)
	if aStraight != bStraight {
		return aStraight
	}
	if a.z != b.z {
		return a.z < b.z
	}
	return h.g.Index(a.x, a.y, a.z) < h.g.Index(b.x, b.y, b.z)
}

func (h *openHeap) Swap(i, j int) { h.nodes[i], h.nodes[j] = h.nodes[j], h.nodes[i] }

func (h *openHeap) Push(x interface{}) { h.nodes = append(h.nodes, x.(openNode)) }

func (h *openHeap) Pop() interface{} {
	old := h.nodes
	n := len(old)
	v := old[n-1]
	h.nodes = old[:n-1]
	return v
}

// heuristic45 is the 45-degree-movement admissible distance estimate (spec
// §4.7): dx+dy-min(dx,dy)*(2-sqrt(2)).
func heuristic45(costs board.AStarCosts, x0, y0, z0, x1, y1, z1 int, cellEdge float64) float64 {
	dx := math.Abs(float64(x1 - x0))
	dy := math.Abs(float64(y1 - y0))
	h := (dx + dy - math.Min(dx, dy)*(2-math.Sqrt2)) * cellEdge
	if z0 != z1 {
		h += costs.Via * math.Abs(float64(z1-z0))
	}
	return h
}

// clearanceRadiusCells returns ceil((halfWidth+clearance)/cellEdge) (spec
// §4.7 step 3).
func clearanceRadiusCells(halfWidth, clearance, cellEdge float64) int {
	r := (halfWidth + clearance) / cellEdge
	cells := int(r)
	if float64(cells) < r {
		cells++
	}
	return cells
}

// cellClearOfForeignTracks reports whether the rectangular neighborhood of
// radius cells around (x,y,z) contains no ROUTE_TRACK_CLEARANCE bit. By the
// time A* runs, the pathfinding context manager (spec §4.8) has already
// unrasterized the current connection's own and same-endpoint-pin tracks,
// so any remaining ROUTE_TRACK_CLEARANCE flag necessarily belongs to a
// different net; this resolves the "different net" qualifier in spec §4.7
// step 3 without needing a per-cell net tag.
func (g *Grid) cellClearOfForeignTracks(x, y, z, radius int) bool {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			nx, ny := x+dx, y+dy
			c := g.Cell(nx, ny, z)
			if c == nil {
				continue
			}
			if c.Flags.Has(FlagRouteTrackClearance) {
				return false
			}
		}
	}
	return true
}

// FindPath runs the grid A* (spec §4.7). On success it returns a Track with
// no rasterization side effects (the caller rasterizes it, spec §4.11/§4.12
// rasterize_tracks). On failure it returns a RoutingFailure.
func (g *Grid) FindPath(req PathRequest) (*board.Track, error) {
	if req.LayerMask == 0 {
		return nil, &board.RoutingFailure{Reason: board.ReasonLayerMaskEmpty}
	}
	costs := req.Costs
	if costs == (board.AStarCosts{}) {
		costs = board.DefaultAStarCosts()
	}

	sx, sy := g.CellIndex(req.Src.P)
	dx, dy := g.CellIndex(req.Dst.P)
	sz, dz := req.Src.Z, req.Dst.Z
	if !g.InBounds(sx, sy, sz) || !g.InBounds(dx, dy, dz) {
		return nil, &board.RoutingFailure{Reason: board.ReasonOutOfArea}
	}

	gen := g.nextAstarGen()
	radius := clearanceRadiusCells(req.TraceWidth/2, req.NetClearance, g.CellEdge)

	passable := func(x, y, z int) bool {
		if req.LayerMask&(1<<uint(z)) == 0 {
			return false
		}
		c := g.Cell(x, y, z)
		if c == nil || !c.CanRoute() {
			return false
		}
		return g.cellClearOfForeignTracks(x, y, z, radius)
	}

	srcCell := g.cellAt(sx, sy, sz)
	dstCell := g.cellAt(dx, dy, dz)
	srcCell.Flags = srcCell.Flags.Set(FlagSource)
	dstCell.Flags = dstCell.Flags.Set(FlagTarget)
	defer func() {
		srcCell.Flags = srcCell.Flags.Clear(FlagSource)
		dstCell.Flags = dstCell.Flags.Clear(FlagTarget)
	}()

	g.resetVisit(sx, sy, sz, gen)
	srcCell.Score = 0
	srcCell.BackDir = DirZero

	oh := &openHeap{g: g, dstX: dx, dstY: dy, dstZ: dz}
	heap.Init(oh)
	heap.Push(oh, openNode{x: sx, y: sy, z: sz, g: 0, f: heuristic45(costs, sx, sy, sz, dx, dy, dz, g.CellEdge), dir: DirZero})

	pops := 0
	for oh.Len() > 0 {
		if req.Cancel != nil && req.Cancel() {
			return nil, &board.RoutingFailure{Reason: board.ReasonCancelled}
		}
		if req.MaxPops > 0 && pops >= req.MaxPops {
			return nil, &board.RoutingFailure{Reason: board.ReasonTimeout}
		}
		cur := heap.Pop(oh).(openNode)
		pops++
		cc := g.cellAt(cur.x, cur.y, cur.z)
		g.resetVisit(cur.x, cur.y, cur.z, gen)
		if cc.visitDone {
			continue
		}
		cc.visitDone = true

		if cur.x == dx && cur.y == dy && cur.z == dz {
			return g.reconstructPath(sx, sy, sz, dx, dy, dz, req, gen)
		}

		for _, d := range horizontalDirections {
			if !cc.EdgeMask.Has(d) {
				continue
			}
			nx, ny, nz, ok := g.Neighbor(cur.x, cur.y, cur.z, d)
			if !ok || !passable(nx, ny, nz) {
				continue
			}
			stepCost := costs.Cardinal
			if d.IsDiagonal() {
				stepCost = costs.Diagonal
			}
			g.relax(oh, gen, cur.x, cur.y, cur.z, nx, ny, nz, cc.Score+stepCost*g.CellEdge+costs.CostPerFlagBit*flagBitCount(g.cellAt(nx, ny, nz).Flags), d, dx, dy, dz, costs)
		}
		for _, d := range verticalDirections {
			nx, ny, nz, ok := g.Neighbor(cur.x, cur.y, cur.z, d)
			if !ok {
				continue
			}
			nc := g.cellAt(nx, ny, nz)
			if req.LayerMask&(1<<uint(nz)) == 0 {
				continue
			}
			if !cc.CanAddVia(nc) {
				continue
			}
			g.relax(oh, gen, cur.x, cur.y, cur.z, nx, ny, nz, cc.Score+costs.Via, d, dx, dy, dz, costs)
		}
	}
	return nil, &board.RoutingFailure{Reason: board.ReasonBlocked}
}

func flagBitCount(f Flags) float64 {
	n := 0
	for b := Flags(1); b != 0; b <<= 1 {
		if f&b != 0 {
			n++
		}
	}
	return float64(n)
}

func (g *Grid) resetVisit(x, y, z int, gen uint16) {
	c := g.cellAt(x, y, z)
	if c.visitGen != gen {
		c.visitGen = gen
		c.visitDone = false
		c.Score = math.Inf(1)
		c.BackDir = DirZero
	}
}

func (g *Grid) relax(oh *openHeap, gen uint16, cx, cy, cz, nx, ny, nz int, newScore float64, d Direction, dx, dy, dz int, costs board.AStarCosts) {
	g.resetVisit(nx, ny, nz, gen)
	nc := g.cellAt(nx, ny, nz)
	if nc.visitDone {
		return
	}
	if newScore < nc.Score {
		nc.Score = newScore
		nc.BackDir = d
		f := newScore + heuristic45(costs, nx, ny, nz, dx, dy, dz, g.CellEdge)
		heap.Push(oh, openNode{x: nx, y: ny, z: nz, g: newScore, f: f, dir: d})
	}
}

// nextAstarGen returns a fresh generation number for this search, resetting
// every cell's visit scratch when the 16-bit counter wraps (spec §4.7 step
// 2, mirroring paths/pathrange.go's CacheIndex idiom).
func (g *Grid) nextAstarGen() uint16 {
	g.astarGen++
	if g.astarGen == 0 {
		for i := range g.cells {
			g.cells[i].visitGen = 0
			g.cells[i].visitDone = false
		}
		g.astarGen = 1
	}
	return g.astarGen
}

// reconstructPath walks BackDir from dst to src, coalescing collinear steps
// on the same layer into single WideSegments and emitting a Via at each
// layer change (spec §4.7 Reconstruction).
func (g *Grid) reconstructPath(sx, sy, sz, dx, dy, dz int, req PathRequest, gen uint16) (*board.Track, error) {
	type step struct{ x, y, z int }
	var path []step
	x, y, z := dx, dy, dz
	for {
		path = append(path, step{x, y, z})
		if x == sx && y == sy && z == sz {
			break
		}
		c := g.cellAt(x, y, z)
		back := c.BackDir.Opposite()
		bx, by, bz := back.Offset()
		x, y, z = x+bx, y+by, z+bz
		if len(path) > g.W*g.H*g.D+1 {
			return nil, board.NewInvariantError("reconstructPath", "back_dir chain failed to terminate at source")
		}
	}
	// reverse to go src->dst
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	track := board.NewTrack()
	halfWidth := req.TraceWidth / 2
	segStart := 0
	flushSegment := func(end int) {
		if end <= segStart {
			return
		}
		a := g.CellCenter(path[segStart].x, path[segStart].y, path[segStart].z)
		b := g.CellCenter(path[end].x, path[end].y, path[end].z)
		track.Segments = append(track.Segments, shape.WideSegment{
			Core:      geom.Segment2{A: a.P, B: b.P},
			HalfWidth: halfWidth,
			Layer:     path[segStart].z,
		})
	}

	i := 0
	for i < len(path)-1 {
		if path[i].z != path[i+1].z {
			flushSegment(i)
			junction := g.CellCenter(path[i].x, path[i].y, path[i].z)
			track.Vias = append(track.Vias, board.Via{
				Center: junction.P,
				Layers: geom.LayerRange{Zmin: minInt(path[i].z, path[i+1].z), Zmax: maxInt(path[i].z, path[i+1].z)},
				Radius: req.ViaRadius,
			})
			segStart = i + 1
			i++
			continue
		}
		// extend through collinear runs by checking direction change
		if i+2 < len(path) && sameDirection(path[i], path[i+1], path[i+2]) {
			i++
			continue
		}
		flushSegment(i + 1)
		segStart = i + 1
		i++
	}
	flushSegment(len(path) - 1)
	return track, nil
}

func sameDirection(a, b, c struct{ x, y, z int }) bool {
	d1x, d1y := b.x-a.x, b.y-a.y
	d2x, d2y := c.x-b.x, c.y-b.y
	return d1x == d2x && d1y == d2y && b.z == c.z
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
