package pcbenv

import (
	"github.com/chrisbmr/PCBEnv-sub001/board"
	"github.com/chrisbmr/PCBEnv-sub001/bvh"
	"github.com/chrisbmr/PCBEnv-sub001/cdt"
	"github.com/chrisbmr/PCBEnv-sub001/geom"
	"github.com/chrisbmr/PCBEnv-sub001/navgrid"
)

// PruneLayers removes the given layer indices, renumbering every surviving
// layer, component/pin layer range and via range (spec §4.12, §6.4
// prune_layers). Components with no surviving layer are removed along with
// any net left with zero connections; pins that straddle a pruned layer keep
// only their surviving sub-range (spec §4.12) — since LayerRange can only
// express a single contiguous [min,max] interval, the surviving sub-range is
// taken as [newIndex(lowest surviving layer in range), newIndex(highest
// surviving layer in range)] in the renumbered space, which is always
// contiguous by construction even when the original range had gaps punched
// out of its middle.
func (pcb *PCBoard) PruneLayers(removed []int) error {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()

	removedSet := make(map[int]bool, len(removed))
	for _, z := range removed {
		removedSet[z] = true
	}
	if len(removedSet) >= len(pcb.Layers) {
		return board.NewInvalidInputError("PruneLayers", "cannot prune every layer")
	}

	remap := make(map[int]int) // old index -> new index, survivors only
	next := 0
	for z := 0; z < len(pcb.Layers); z++ {
		if removedSet[z] {
			continue
		}
		remap[z] = next
		next++
	}

	remapRange := func(lr geom.LayerRange) (geom.LayerRange, bool) {
		lo, hi := -1, -1
		for z := lr.Zmin; z <= lr.Zmax; z++ {
			if nz, ok := remap[z]; ok {
				if lo == -1 {
					lo = nz
				}
				hi = nz
			}
		}
		if lo == -1 {
			return geom.LayerRange{}, false
		}
		return geom.LayerRange{Zmin: lo, Zmax: hi}, true
	}

	var toRemove []board.ID
	for _, obj := range pcb.Arena.All() {
		if obj.ParentID != board.NilID {
			continue // handled when we walk roots below
		}
		if nr, ok := remapRange(obj.Layers); ok {
			obj.Layers = nr
		} else {
			toRemove = append(toRemove, obj.ID)
		}
	}
	for _, id := range toRemove {
		pcb.removeComponentLocked(id)
	}
	// Second pass: remap surviving pins (and drop pins fully inside the
	// pruned set, without removing their parent component).
	for _, obj := range pcb.Arena.All() {
		if obj.Pin == nil {
			continue
		}
		if nr, ok := remapRange(obj.Layers); ok {
			obj.Layers = nr
		} else {
			pcb.Arena.Detach(obj.ID)
			pcb.BVH.Remove(obj)
		}
	}

	// Drop tracks/vias that reference a removed layer outright, and the
	// connection entirely if nothing survives.
	for _, net := range pcb.Nets {
		for _, conn := range net.Connections() {
			var live []*board.Track
			for _, t := range conn.Tracks() {
				if trackTouchesRemoved(t, removedSet) {
					pcb.Grid.RasterizeTrack(t, -1, net.Rules.Clearance, net.Rules.ViaDiameter/2)
					continue
				}
				remapTrackLayers(t, remap)
				live = append(live, t)
			}
			if len(live) == 0 {
				net.RemoveConnection(conn.ID)
				continue
			}
			conn.ClearTracks()
			for _, t := range live {
				conn.AddTrack(t)
			}
		}
		if len(net.Connections()) == 0 && len(net.PinIDs) == 0 {
			delete(pcb.Nets, net.ID)
		}
	}

	newLayers := make([]board.Layer, next)
	for z, old := range pcb.Layers {
		if nz, ok := remap[z]; ok {
			old.Index = nz
			newLayers[nz] = old
		}
	}
	pcb.Layers = newLayers
	pcb.Layout.MaxLayer = next - 1

	newGrid, err := navgrid.NewGrid(pcb.Layout, pcb.Grid.CellEdge, pcb.Config.MaxGridCells)
	if err != nil {
		return err
	}
	pcb.Grid = newGrid
	pcb.restampGrid()

	newTris := make([]*cdt.Triangulation, next)
	for z := range newTris {
		newTris[z] = cdt.New(z)
	}
	pcb.Tris = newTris

	pcb.markDirty(DirtyGrid, DirtyTris, DirtyComponents, DirtyPins, DirtyRoutes, DirtyObjects)
	return nil
}

// trackTouchesRemoved reports whether a track cannot survive pruning at all:
// either one of its segments sits squarely on a removed layer (a segment has
// no sub-range to fall back to, unlike a via), or one of its vias loses every
// layer in its span. A via that merely spans through a pruned layer without
// terminating there keeps connecting its surviving endpoints once
// remapTrackLayers shrinks its range, mirroring how a pin's LayerRange keeps
// its surviving sub-range in PruneLayers above.
func trackTouchesRemoved(t *board.Track, removed map[int]bool) bool {
	for _, seg := range t.Segments {
		if removed[seg.Layer] {
			return true
		}
	}
	for _, v := range t.Vias {
		survives := false
		for z := v.Layers.Zmin; z <= v.Layers.Zmax; z++ {
			if !removed[z] {
				survives = true
				break
			}
		}
		if !survives {
			return true
		}
	}
	return false
}

func remapTrackLayers(t *board.Track, remap map[int]int) {
	for i := range t.Segments {
		if nz, ok := remap[t.Segments[i].Layer]; ok {
			t.Segments[i].Layer = nz
		}
	}
	for i := range t.Vias {
		lo, hi := -1, -1
		for z := t.Vias[i].Layers.Zmin; z <= t.Vias[i].Layers.Zmax; z++ {
			if nz, ok := remap[z]; ok {
				if lo == -1 {
					lo = nz
				}
				hi = nz
			}
		}
		if lo != -1 {
			t.Vias[i].Layers = geom.LayerRange{Zmin: lo, Zmax: hi}
		}
	}
}

// PruneNets removes every net whose id is in ids (spec §6.4 prune_nets).
func (pcb *PCBoard) PruneNets(ids []board.ID) error {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	for _, id := range ids {
		net, ok := pcb.Nets[id]
		if !ok {
			continue
		}
		for _, conn := range net.Connections() {
			pcb.unrasterizeConnection(conn, net)
		}
		for pid := range net.PinIDs {
			if pin := pcb.Arena.Get(pid); pin != nil {
				board.DetachFromNet(pin, net)
			}
		}
		delete(pcb.Nets, id)
	}
	pcb.markDirty(DirtyNetColors, DirtyRoutes, DirtyGrid)
	return nil
}

// PruneConnections removes the given connections from whichever net owns
// them, unrasterizing their tracks first (spec §6.4 prune_connections).
func (pcb *PCBoard) PruneConnections(ids []board.ID) error {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	for _, id := range ids {
		net, conn := pcb.findConnection(id)
		if conn == nil {
			continue
		}
		pcb.unrasterizeConnection(conn, net)
		net.RemoveConnection(id)
	}
	pcb.markDirty(DirtyRoutes, DirtyGrid)
	return nil
}

// PruneComponents removes the given components (spec §6.4 prune_components).
func (pcb *PCBoard) PruneComponents(ids []board.ID) error {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	for _, id := range ids {
		if err := pcb.removeComponentLocked(id); err != nil {
			return err
		}
	}
	return nil
}

// PrunePins detaches the given pins from their component, net and the BVH,
// without touching the rest of the component (spec §6.4 prune_pins).
func (pcb *PCBoard) PrunePins(ids []board.ID) error {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	for _, id := range ids {
		pin := pcb.Arena.Get(id)
		if pin == nil || pin.Pin == nil {
			continue
		}
		if pin.Pin.NetID != board.NilID {
			if net := pcb.Nets[pin.Pin.NetID]; net != nil {
				pcb.detachPinConnections(net, pin)
				board.DetachFromNet(pin, net)
			}
		}
		if comp := pcb.Arena.Get(pin.ParentID); comp != nil && comp.Component != nil {
			delete(comp.Component.PinByName, pin.Name)
		}
		pcb.Arena.Detach(id)
		pcb.BVH.Remove(pin)
		pcb.Grid.RasterizePin(pin, -1, pcb.defaultPinViaRadius())
	}
	pcb.markDirty(DirtyPins, DirtyObjects, DirtyTris, DirtyGrid)
	return nil
}

// SetMinTraceWidth, SetMinClearance and SetMinViaDiameter raise the facade's
// global floors and immediately clamp every existing net's rules up to the
// new minimum (spec §6.4 set_min_trace_width/clearance/via_diameter(µm);
// CoreConfig stores the floors in nanometers, so the micrometer argument is
// multiplied by 1000; net rules are in board units, so they are compared
// with and raised to the floor divided by NanometersPerUnit).
func (pcb *PCBoard) SetMinTraceWidth(micrometers float64) {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	nm := micrometers * 1000
	pcb.Config.MinTraceWidthNM = nm
	floor := nm / pcb.Config.NanometersPerUnit
	for _, net := range pcb.Nets {
		if net.Rules.TraceWidth < floor {
			net.Rules.TraceWidth = floor
		}
	}
	pcb.markDirty(DirtyRoutes)
}

func (pcb *PCBoard) SetMinClearance(micrometers float64) {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	nm := micrometers * 1000
	pcb.Config.MinClearanceNM = nm
	floor := nm / pcb.Config.NanometersPerUnit
	for _, net := range pcb.Nets {
		if net.Rules.Clearance < floor {
			net.Rules.Clearance = floor
		}
	}
	pcb.markDirty(DirtyRoutes)
}

func (pcb *PCBoard) SetMinViaDiameter(micrometers float64) {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	nm := micrometers * 1000
	pcb.Config.MinViaDiameterNM = nm
	floor := nm / pcb.Config.NanometersPerUnit
	for _, net := range pcb.Nets {
		if net.Rules.ViaDiameter < floor {
			net.Rules.ViaDiameter = floor
		}
	}
	pcb.markDirty(DirtyRoutes)
}

// AdjustLayoutAreaMargins grows or shrinks the routable rectangle (spec §6.4
// adjust_layout_area_margins). It does not resize the grid; callers that
// need the grid to track a changed layout area should reconstruct the board.
func (pcb *PCBoard) AdjustLayoutAreaMargins(marginMin, marginMax float64) {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	pcb.Layout.AdjustMargins(marginMin, marginMax)
	pcb.markDirty(DirtyNewBoard)
}

// Wipe discards every component, net and connection, returning the board to
// the state New would produce over the same layout area (spec §6.4 wipe).
func (pcb *PCBoard) Wipe() error {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	pcb.Arena = board.NewArena()
	pcb.Nets = make(map[board.ID]*board.Net)
	pcb.BVH = bvh.New(bvh.DefaultBucketSize)
	newGrid, err := navgrid.NewGrid(pcb.Layout, pcb.Grid.CellEdge, pcb.Config.MaxGridCells)
	if err != nil {
		return err
	}
	pcb.Grid = newGrid
	for _, tri := range pcb.Tris {
		tri.Build(pcb.Arena, nil, pcb.Layout.Rect)
	}
	pcb.markDirty(DirtyNewBoard, DirtyGrid, DirtyTris, DirtyComponents, DirtyPins, DirtyRoutes, DirtyObjects, DirtyNetColors)
	return nil
}
