package board

import (
	"strings"

	"github.com/chrisbmr/PCBEnv-sub001/geom"
	"github.com/chrisbmr/PCBEnv-sub001/shape"
)

// Object is the tree node shared by every placed entity on the board. The
// parent link is a non-owning ID into the owning Arena rather than a raw
// pointer, so subtree moves and prunes never leave dangling references
// (spec §9, "Object tree").
type Object struct {
	ID       ID
	Name     string
	ParentID ID // NilID at the root
	Children []ID

	Layers geom.LayerRange
	Shape  shape.Shape

	Clearance          float64
	CanRouteInside     bool
	CanPlaceViasInside bool

	// Selected is a UI-only flag: never read by any core algorithm.
	Selected bool

	// Component and Pin specialize Object when non-nil (spec §3.2). An
	// Object is never both; plain Objects (neither set) are layout
	// obstacles with no electrical meaning.
	Component *ComponentData
	Pin       *PinData
}

// ComponentData is the Component specialization: a Component additionally
// owns Pins as children and keeps a name index for O(1) lookup.
type ComponentData struct {
	PinByName map[string]ID
}

// PinData is the Pin specialization: a leaf with optional net membership
// and a compound group of sibling pads.
type PinData struct {
	NetID ID // NilID when unconnected

	// ConnectionIDs is the (weak) set of connections incident to this pin;
	// it must be a subset of NetID's connections (spec invariant 2).
	ConnectionIDs map[ID]struct{}

	// CompoundGroup is shared (by pointer) between every pin that is a pad
	// of the same logical pin (spec §3.2, §9 "Compound pins").
	CompoundGroup *CompoundGroup
}

// CompoundGroup lists the member pin IDs of one logical, multi-pad pin.
type CompoundGroup struct {
	Members []ID
}

// Arena owns every Object on a board by ID. It is the "parent arena" spec §9
// refers to: Object.ParentID/Children are indices into it, never pointers.
type Arena struct {
	objects map[ID]*Object
	roots   []ID
}

// NewArena returns an empty object arena.
func NewArena() *Arena {
	return &Arena{objects: make(map[ID]*Object)}
}

// Get returns the object with the given id, or nil.
func (a *Arena) Get(id ID) *Object {
	if id == NilID {
		return nil
	}
	return a.objects[id]
}

// Roots returns the ids of objects with no parent.
func (a *Arena) Roots() []ID { return a.roots }

// All returns every object in the arena, in unspecified order.
func (a *Arena) All() []*Object {
	out := make([]*Object, 0, len(a.objects))
	for _, o := range a.objects {
		out = append(out, o)
	}
	return out
}

// Attach inserts obj into the arena under parentID (NilID for a root).
// The object's own Children slice must be empty; children are
// always attached individually via Attach so ParentID stays authoritative.
func (a *Arena) Attach(obj *Object, parentID ID) {
	a.objects[obj.ID] = obj
	obj.ParentID = parentID
	if parentID == NilID {
		a.roots = append(a.roots, obj.ID)
		return
	}
	parent := a.objects[parentID]
	if parent != nil {
		parent.Children = append(parent.Children, obj.ID)
	}
}

// Detach removes obj and its whole subtree from the arena (spec §3.2,
// "destroyed recursively with parent"). It returns the ids removed.
func (a *Arena) Detach(id ID) []ID {
	obj := a.Get(id)
	if obj == nil {
		return nil
	}
	var removed []ID
	var walk func(ID)
	walk = func(cur ID) {
		o := a.objects[cur]
		if o == nil {
			return
		}
		for _, c := range o.Children {
			walk(c)
		}
		removed = append(removed, cur)
		delete(a.objects, cur)
	}
	walk(id)
	if obj.ParentID == NilID {
		for i, r := range a.roots {
			if r == id {
				a.roots = append(a.roots[:i], a.roots[i+1:]...)
				break
			}
		}
	} else if parent := a.objects[obj.ParentID]; parent != nil {
		for i, c := range parent.Children {
			if c == id {
				parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
				break
			}
		}
	}
	return removed
}

// Bbox returns the object shape's bounding box, or a degenerate box at the
// centroid if the object has no shape of its own (pure container).
func (o *Object) Bbox() geom.Rect {
	if o.Shape == nil {
		return geom.Rect{}
	}
	return o.Shape.Bbox()
}

// Centroid is derived from the shape (spec §3.2).
func (o *Object) Centroid() geom.Point2 {
	if o.Shape == nil {
		return geom.Point2{}
	}
	return o.Shape.Centroid()
}

// IsContainerOf reports whether o strictly contains other, by bbox and
// layer range, used to break BVH point-query ties (spec §4.2).
func (o *Object) IsContainerOf(other *Object) bool {
	return o.Bbox().ContainsStrict(other.Bbox()) && o.Layers.ContainsStrict(other.Layers)
}

// Clone returns a deep copy of o and its subtree with fresh ids (SPEC_FULL
// §5, supplemented from the original's Object::Clone). The returned root
// copy is not attached to the arena; its descendant copies are stored in
// the arena under their fresh ids, linked to the root copy by ParentID.
func (a *Arena) Clone(id ID) *Object {
	src := a.Get(id)
	if src == nil {
		return nil
	}
	return a.cloneRec(src)
}

func (a *Arena) cloneRec(src *Object) *Object {
	dst := &Object{
		ID:                 NewID(),
		Name:               src.Name,
		Layers:             src.Layers,
		Clearance:          src.Clearance,
		CanRouteInside:     src.CanRouteInside,
		CanPlaceViasInside: src.CanPlaceViasInside,
	}
	if src.Shape != nil {
		dst.Shape = src.Shape.Clone()
	}
	if src.Component != nil {
		dst.Component = &ComponentData{PinByName: make(map[string]ID, len(src.Component.PinByName))}
	}
	if src.Pin != nil {
		dst.Pin = &PinData{ConnectionIDs: make(map[ID]struct{})}
	}
	for _, cid := range src.Children {
		child := a.objects[cid]
		if child == nil {
			continue
		}
		cdst := a.cloneRec(child)
		cdst.ParentID = dst.ID
		dst.Children = append(dst.Children, cdst.ID)
		a.objects[cdst.ID] = cdst
		if dst.Component != nil && child.Pin != nil {
			dst.Component.PinByName[normalizePinName(child.Name)] = cdst.ID
		}
	}
	return dst
}

// normalizePinName applies the component-pin `-`→`_` rewrite (spec §3.2):
// hyphens are reserved to separate "component-pin" composite names, so a
// literal hyphen in a component or pin name is rewritten to an underscore.
func normalizePinName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
