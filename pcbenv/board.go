// Package pcbenv implements the PCBoard facade (spec §4.12): the single
// composition root owning every component, net, layer, the layout area, the
// BVH, the uniform grid and the per-layer CDT views, and orchestrating every
// routing operation across them. Grounded on the original's PCBoard.cpp
// (rebuild_tng/incremental insert-remove, referenced by SPEC_FULL.md) and on
// the teacher's constructor-configuration style
// (paths.NewPathRange/NewPathFinder).
package pcbenv

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/exp/maps"

	"github.com/chrisbmr/PCBEnv-sub001/board"
	"github.com/chrisbmr/PCBEnv-sub001/bvh"
	"github.com/chrisbmr/PCBEnv-sub001/cdt"
	"github.com/chrisbmr/PCBEnv-sub001/navgrid"
)

// DirtyBit indexes one of the dirty-mask's eight sub-systems (spec §4.12).
type DirtyBit uint

const (
	DirtyGrid DirtyBit = iota
	DirtyTris
	DirtyRoutes
	DirtyComponents
	DirtyPins
	DirtyNetColors
	DirtyObjects
	DirtyNewBoard
	dirtyBitCount
)

func (b DirtyBit) String() string {
	switch b {
	case DirtyGrid:
		return "GRID"
	case DirtyTris:
		return "TRIS"
	case DirtyRoutes:
		return "ROUTES"
	case DirtyComponents:
		return "COMPONENTS"
	case DirtyPins:
		return "PINS"
	case DirtyNetColors:
		return "NET_COLORS"
	case DirtyObjects:
		return "OBJECTS"
	case DirtyNewBoard:
		return "NEW_BOARD"
	default:
		return "UNKNOWN"
	}
}

// PCBoard is the composition root. Every mutation goes through a PCBoard
// method so the dirty mask, BVH, grid and CDT stay consistent with the
// object arena (spec §4.12).
type PCBoard struct {
	mu sync.Mutex

	Config board.CoreConfig
	Arena  *board.Arena
	Layout board.LayoutArea
	Layers []board.Layer

	Nets map[board.ID]*board.Net

	BVH  *bvh.BVH
	Grid *navgrid.Grid
	// Tris holds one triangulation per layer, indexed by layer number.
	Tris []*cdt.Triangulation

	dirty *bitset.BitSet
}

// New constructs an empty board over the given layout area and config (spec
// §4.12, §6.1 loader preamble). Layer count comes from layout.MaxLayer+1.
func New(cfg board.CoreConfig, layout board.LayoutArea) (*PCBoard, error) {
	g, err := navgrid.NewGrid(layout, cfg.CellEdgeLength, cfg.MaxGridCells)
	if err != nil {
		return nil, err
	}
	pcb := &PCBoard{
		Config: cfg,
		Arena:  board.NewArena(),
		Layout: layout,
		Nets:   make(map[board.ID]*board.Net),
		BVH:    bvh.New(bvh.DefaultBucketSize),
		Grid:   g,
		dirty:  bitset.New(uint(dirtyBitCount)),
	}
	pcb.Layers = make([]board.Layer, layout.MaxLayer+1)
	pcb.Tris = make([]*cdt.Triangulation, layout.MaxLayer+1)
	for z := range pcb.Layers {
		pcb.Layers[z] = board.Layer{Index: z}
		pcb.Tris[z] = cdt.New(z)
	}
	pcb.markDirty(DirtyNewBoard)
	return pcb, nil
}

// Lock/Unlock implement the facade's advisory mutex (spec §5): callers take
// it while mutating or reading the board from a concurrent renderer; A*
// takes it internally for the duration of a search.
func (pcb *PCBoard) Lock()   { pcb.mu.Lock() }
func (pcb *PCBoard) Unlock() { pcb.mu.Unlock() }

func (pcb *PCBoard) markDirty(bits ...DirtyBit) {
	for _, b := range bits {
		pcb.dirty.Set(uint(b))
	}
}

// PollDirty atomically reads and clears the dirty mask (spec §4.12 "external
// UI may poll atomically, read-and-clear"), returning the set of bits that
// were dirty since the last poll.
func (pcb *PCBoard) PollDirty() []DirtyBit {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	var out []DirtyBit
	for i := uint(0); i < uint(dirtyBitCount); i++ {
		if pcb.dirty.Test(i) {
			out = append(out, DirtyBit(i))
		}
	}
	pcb.dirty.ClearAll()
	return out
}

// AddComponent attaches a new component object to the arena, BVH and object
// tree (spec §6.4 add_component). name must be unique among existing root
// object names.
func (pcb *PCBoard) AddComponent(comp *board.Object) error {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	for _, root := range pcb.Arena.Roots() {
		if o := pcb.Arena.Get(root); o != nil && o.Name == comp.Name {
			return board.NewInvalidInputError("AddComponent", "duplicate component name %q", comp.Name)
		}
	}
	pcb.Arena.Attach(comp, board.NilID)
	pcb.BVH.Insert(comp)
	pcb.Grid.RasterizeComponent(comp, 1)
	pcb.markDirty(DirtyComponents, DirtyObjects, DirtyTris, DirtyGrid)
	return nil
}

// defaultPinViaRadius is the via-clearance radius a pin's persistent grid
// stamp uses before it is necessarily attached to any net (spec §9 "Global
// state" — MinViaDiameterNM is the board-wide floor, so it stands in for a
// net-specific radius here).
func (pcb *PCBoard) defaultPinViaRadius() float64 {
	return pcb.Config.MinViaDiameterNM / pcb.Config.NanometersPerUnit / 2
}

// restampGrid re-rasterizes every surviving component, pin and already-routed
// track onto pcb.Grid. Callers that reconstruct the grid wholesale (spec
// §6.4 prune_layers, whose renumbering changes the grid's layer dimension)
// must call this afterwards, since a fresh Grid starts with no obstacles at
// all.
func (pcb *PCBoard) restampGrid() {
	for _, obj := range pcb.Arena.All() {
		switch {
		case obj.Pin != nil:
			pcb.Grid.RasterizePin(obj, 1, pcb.defaultPinViaRadius())
		case obj.Component != nil:
			pcb.Grid.RasterizeComponent(obj, 1)
		}
	}
	for _, net := range pcb.Nets {
		for _, conn := range net.Connections() {
			for _, t := range conn.Tracks() {
				pcb.Grid.ForceTrackOntoGrid(t, net.Rules.Clearance, net.Rules.ViaDiameter/2)
			}
		}
	}
}

// AddPin attaches a new pin object under comp (spec §6.1 loader preamble).
func (pcb *PCBoard) AddPin(comp *board.Object, pin *board.Object) error {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	if comp.Component == nil {
		return board.NewInvalidInputError("AddPin", "object %s is not a component", comp.Name)
	}
	if _, exists := comp.Component.PinByName[pin.Name]; exists {
		return board.NewInvalidInputError("AddPin", "duplicate pin name %q on component %q", pin.Name, comp.Name)
	}
	pcb.Arena.Attach(pin, comp.ID)
	comp.Component.PinByName[pin.Name] = pin.ID
	pcb.BVH.Insert(pin)
	pcb.Grid.RasterizePin(pin, 1, pcb.defaultPinViaRadius())
	pcb.markDirty(DirtyPins, DirtyObjects, DirtyTris, DirtyGrid)
	return nil
}

// RemoveComponent detaches comp and its whole pin subtree, dropping BVH
// entries and clearing net/connection membership for every detached pin
// (spec §6.4 remove_component, §3.2 "destroyed recursively with parent").
func (pcb *PCBoard) RemoveComponent(compID board.ID) error {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	return pcb.removeComponentLocked(compID)
}

// removeComponentLocked is RemoveComponent's body for callers that already
// hold pcb.mu (PruneLayers, PruneComponents): sync.Mutex is not reentrant, so
// those callers must not go through the public, lock-taking entry point.
func (pcb *PCBoard) removeComponentLocked(compID board.ID) error {
	comp := pcb.Arena.Get(compID)
	if comp == nil {
		return board.NewInvalidInputError("RemoveComponent", "unknown component id")
	}
	subtree := make(map[board.ID]*board.Object)
	var collect func(board.ID)
	collect = func(id board.ID) {
		o := pcb.Arena.Get(id)
		if o == nil {
			return
		}
		subtree[id] = o
		for _, c := range o.Children {
			collect(c)
		}
	}
	collect(compID)

	// Detach returns ids in post-order (pins before their parent component),
	// which is exactly the order the grid must be unstamped in: a pin's
	// INSIDE_PIN cells have to come off before the component's own
	// BLOCKED_TEMPORARY footprint is cleared, mirroring the reverse of
	// AddComponent/AddPin.
	removed := pcb.Arena.Detach(compID)
	for _, id := range removed {
		obj := subtree[id]
		if obj == nil {
			continue
		}
		pcb.BVH.Remove(obj)
		switch {
		case obj.Pin != nil:
			pcb.Grid.RasterizePin(obj, -1, pcb.defaultPinViaRadius())
		case obj.Component != nil:
			pcb.Grid.RasterizeComponent(obj, -1)
		}
		if obj.Pin != nil && obj.Pin.NetID != board.NilID {
			if net := pcb.Nets[obj.Pin.NetID]; net != nil {
				pcb.detachPinConnections(net, obj)
				board.DetachFromNet(obj, net)
			}
		}
	}
	pcb.markDirty(DirtyComponents, DirtyPins, DirtyObjects, DirtyTris, DirtyGrid)
	return nil
}

// detachPinConnections removes every connection incident to pin from net and
// the grid, called before the pin itself is dropped.
func (pcb *PCBoard) detachPinConnections(net *board.Net, pin *board.Object) {
	for cid := range pin.Pin.ConnectionIDs {
		for _, conn := range net.Connections() {
			if conn.ID == cid {
				pcb.unrasterizeConnection(conn, net)
				net.RemoveConnection(cid)
				break
			}
		}
	}
}

// AddNet registers a new net (spec §6.4 add_net).
func (pcb *PCBoard) AddNet(net *board.Net) error {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	for _, n := range pcb.Nets {
		if n.Name == net.Name {
			return board.NewInvalidInputError("AddNet", "duplicate net name %q", net.Name)
		}
	}
	pcb.Nets[net.ID] = net
	pcb.markDirty(DirtyNetColors)
	return nil
}

// RemoveNet drops a net, unrasterizing and discarding every one of its
// connections first (spec §6.4 remove_net).
func (pcb *PCBoard) RemoveNet(netID board.ID) error {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	net, ok := pcb.Nets[netID]
	if !ok {
		return board.NewInvalidInputError("RemoveNet", "unknown net id")
	}
	for _, conn := range net.Connections() {
		pcb.unrasterizeConnection(conn, net)
	}
	for pid := range net.PinIDs {
		if pin := pcb.Arena.Get(pid); pin != nil {
			board.DetachFromNet(pin, net)
		}
	}
	delete(pcb.Nets, netID)
	pcb.markDirty(DirtyNetColors, DirtyRoutes, DirtyGrid)
	return nil
}

// NetNames returns every net's name, for the §6.2 board export.
func (pcb *PCBoard) NetNames() []string {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	names := make([]string, 0, len(pcb.Nets))
	for _, n := range maps.Keys(pcb.Nets) {
		names = append(names, pcb.Nets[n].Name)
	}
	return names
}
