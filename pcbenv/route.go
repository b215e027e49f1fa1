package pcbenv

import (
	"github.com/chrisbmr/PCBEnv-sub001/board"
	"github.com/chrisbmr/PCBEnv-sub001/geom"
	"github.com/chrisbmr/PCBEnv-sub001/navgrid"
	"github.com/chrisbmr/PCBEnv-sub001/route"
	"github.com/chrisbmr/PCBEnv-sub001/shape"
)

// RunPathFinding orchestrates one connection's routing attempt: init (the
// pathfinding context manager) -> A* -> fini, rasterizing the accepted track
// on success (spec §4.12, §6.4 run_path_finding). It takes the board's
// advisory mutex for the duration of the search (spec §5).
func (pcb *PCBoard) RunPathFinding(connID board.ID, costs *board.AStarCosts, cancel func() bool) (bool, error) {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()

	net, conn := pcb.findConnection(connID)
	if conn == nil {
		return false, board.NewInvalidInputError("RunPathFinding", "unknown connection id")
	}

	ctx := pcb.Grid.PrepareConnection(pcb.Arena, conn, net.Rules.Clearance, net.Rules.ViaDiameter/2)
	siblingIDs := navgrid.SiblingConnectionIDs(pcb.Arena, conn)
	var siblingTracks []*board.Track
	for _, sid := range siblingIDs {
		for _, c := range net.Connections() {
			if c.ID == sid {
				siblingTracks = append(siblingTracks, c.Tracks()...)
			}
		}
	}
	if err := ctx.UnrasterizeSiblings(siblingTracks, net.Rules.Clearance, net.Rules.ViaDiameter/2); err != nil {
		return false, err
	}
	defer ctx.Finish()

	useCosts := pcb.Config.DefaultAStarCosts
	if costs != nil {
		useCosts = *costs
	}

	req := navgrid.PathRequest{
		Src:          geom.Point25{P: geom.Point2{X: conn.Source.X, Y: conn.Source.Y}, Z: conn.Source.Z},
		Dst:          geom.Point25{P: geom.Point2{X: conn.Target.X, Y: conn.Target.Y}, Z: conn.Target.Z},
		LayerMask:    net.LayerMask,
		TraceWidth:   net.Rules.TraceWidth,
		NetClearance: net.Rules.Clearance,
		ViaRadius:    net.Rules.ViaDiameter / 2,
		Costs:        useCosts,
		Cancel:       cancel,
	}

	track, err := pcb.Grid.FindPath(req)
	if err != nil {
		return false, err
	}

	if err := pcb.Grid.RasterizeTrack(track, 1, net.Rules.Clearance, net.Rules.ViaDiameter/2); err != nil {
		return false, err
	}
	conn.AddTrack(track)
	pcb.markDirty(DirtyGrid, DirtyRoutes)
	return true, nil
}

// findConnection locates the net and connection for connID across every
// registered net.
func (pcb *PCBoard) findConnection(connID board.ID) (*board.Net, *board.Connection) {
	for _, net := range pcb.Nets {
		for _, conn := range net.Connections() {
			if conn.ID == connID {
				return net, conn
			}
		}
	}
	return nil, nil
}

// EraseTracks unrasterizes and discards every track owned by conn, leaving
// it unrouted (spec §6.4 erase_tracks).
func (pcb *PCBoard) EraseTracks(connID board.ID) error {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	net, conn := pcb.findConnection(connID)
	if conn == nil {
		return board.NewInvalidInputError("EraseTracks", "unknown connection id")
	}
	pcb.unrasterizeConnection(conn, net)
	conn.ClearTracks()
	pcb.markDirty(DirtyGrid, DirtyRoutes)
	return nil
}

func (pcb *PCBoard) unrasterizeConnection(conn *board.Connection, net *board.Net) {
	if net == nil {
		return
	}
	for _, t := range conn.Tracks() {
		pcb.Grid.RasterizeTrack(t, -1, net.Rules.Clearance, net.Rules.ViaDiameter/2)
	}
}

// RasterizeTracks applies delta (+1/-1) to every track of conn without
// otherwise changing connection state (spec §6.4 rasterize_tracks(X, ±1)).
func (pcb *PCBoard) RasterizeTracks(connID board.ID, delta int) error {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	net, conn := pcb.findConnection(connID)
	if conn == nil {
		return board.NewInvalidInputError("RasterizeTracks", "unknown connection id")
	}
	for _, t := range conn.Tracks() {
		if err := pcb.Grid.RasterizeTrack(t, delta, net.Rules.Clearance, net.Rules.ViaDiameter/2); err != nil {
			return err
		}
	}
	pcb.markDirty(DirtyGrid)
	return nil
}

// SumViolationArea delegates to the grid's scratch violation query (spec
// §6.4 sum_violation_area).
func (pcb *PCBoard) SumViolationArea(sh shape.Shape, z int) float64 {
	return pcb.Grid.SumViolationArea(sh, z, pcb.Config.ViolationWeights)
}

// RebuildTNG rebuilds every layer's CDT from the current object arena (spec
// §6.4 rebuild_tng, the original's PCBoard::rebuild_tng()).
func (pcb *PCBoard) RebuildTNG() bool {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	objs := pcb.Arena.All()
	for _, tri := range pcb.Tris {
		if err := tri.Build(pcb.Arena, objs, pcb.Layout.Rect); err != nil {
			return false
		}
	}
	for _, net := range pcb.Nets {
		for _, conn := range net.Connections() {
			for _, t := range conn.Tracks() {
				segsByLayer := make(map[int][]shape.WideSegment)
				for _, seg := range t.Segments {
					segsByLayer[seg.Layer] = append(segsByLayer[seg.Layer], seg)
				}
				for layer, segs := range segsByLayer {
					if layer < 0 || layer >= len(pcb.Tris) {
						continue
					}
					pcb.Tris[layer].InsertRoute(conn.ID, segs, pcb.Layout.Rect)
				}
			}
		}
	}
	pcb.markDirty(DirtyTris)
	return true
}

// ForceConnectionsToGrid rasterizes every connection's tracks that are not
// yet reflected on the grid (spec §6.4 force_connections_to_grid) — the
// counterpart to LoadRoutes, which registers connections without touching
// the grid so a caller can choose when the raster catches up, e.g. once per
// net after a bulk load rather than once per connection.
func (pcb *PCBoard) ForceConnectionsToGrid() error {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	for _, net := range pcb.Nets {
		for _, conn := range net.Connections() {
			for _, t := range conn.Tracks() {
				if t.RasterCount() > 0 {
					continue
				}
				if err := pcb.Grid.RasterizeTrack(t, 1, net.Rules.Clearance, net.Rules.ViaDiameter/2); err != nil {
					return err
				}
			}
		}
	}
	pcb.markDirty(DirtyGrid)
	return nil
}

// LoadRoutes runs the route-tracker loader over a flat per-net segment/via
// bag and registers the resulting connections on net (spec §6.1 "Routes
// (optional)... the loader invokes the route-tracker to assemble these into
// connections"). It does not rasterize; callers call RasterizeTracks(+1) or
// rely on RunPathFinding's own rasterize-on-accept for freshly-routed
// connections.
func (pcb *PCBoard) LoadRoutes(net *board.Net, segments []shape.WideSegment, vias []board.Via) ([]error, error) {
	tr := route.NewTracker(pcb.Arena, nil)
	tr.NudgeDistance = pcb.Grid.CellEdge / 2
	conns, err := tr.Load(net.ID, segments, vias)
	if err != nil {
		return tr.Warnings, err
	}
	for _, c := range conns {
		net.AddConnection(c)
		for _, pid := range c.EndpointPins() {
			if pin := pcb.Arena.Get(pid); pin != nil && pin.Pin != nil {
				pin.Pin.ConnectionIDs[c.ID] = struct{}{}
			}
		}
	}
	pcb.markDirty(DirtyRoutes, DirtyGrid)
	return tr.Warnings, nil
}
