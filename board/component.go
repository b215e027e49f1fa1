package board

import (
	"golang.org/x/exp/maps"

	"github.com/chrisbmr/PCBEnv-sub001/geom"
	"github.com/chrisbmr/PCBEnv-sub001/shape"
)

// PinNames returns the component's pin names in unspecified order, for
// callers (the §6.2 scripted query export) that need a plain list rather
// than the name->id index itself.
func (c *ComponentData) PinNames() []string {
	return maps.Keys(c.PinByName)
}

// NewComponent constructs a Component object and attaches it to the arena
// under parentID (commonly NilID, a component is usually a root object).
// Per spec §3.2, hyphens in the name are rewritten to underscores because
// '-' is reserved to join "component-pin" composite names.
func NewComponent(a *Arena, parentID ID, name string, layers geom.LayerRange, sh shape.Shape, clearance float64, canRouteInside, canPlaceViasInside bool) *Object {
	obj := &Object{
		ID:                 NewID(),
		Name:               normalizePinName(name),
		Layers:             layers,
		Shape:              sh,
		Clearance:          clearance,
		CanRouteInside:     canRouteInside,
		CanPlaceViasInside: canPlaceViasInside,
		Component:          &ComponentData{PinByName: make(map[string]ID)},
	}
	a.Attach(obj, parentID)
	return obj
}

// AddPin constructs a Pin object as a child of the given component and
// indexes it by name.
func AddPin(a *Arena, comp *Object, name string, layers geom.LayerRange, sh shape.Shape, clearance float64) *Object {
	if comp.Component == nil {
		return nil
	}
	pinName := normalizePinName(name)
	pin := &Object{
		ID:        NewID(),
		Name:      pinName,
		Layers:    layers,
		Shape:     sh,
		Clearance: clearance,
		Pin: &PinData{
			ConnectionIDs: make(map[ID]struct{}),
		},
	}
	a.Attach(pin, comp.ID)
	comp.Component.PinByName[pinName] = pin.ID
	return pin
}

// LookupPin returns the pin with the given name on comp, or nil.
func LookupPin(a *Arena, comp *Object, name string) *Object {
	if comp.Component == nil {
		return nil
	}
	id, ok := comp.Component.PinByName[normalizePinName(name)]
	if !ok {
		return nil
	}
	return a.Get(id)
}

// MakeCompound groups the given pins (already attached to the arena) into a
// shared CompoundGroup, representing one logical pin with several
// disconnected pads (spec §3.2, §9).
func MakeCompound(a *Arena, pinIDs []ID) {
	group := &CompoundGroup{Members: append([]ID(nil), pinIDs...)}
	for _, id := range pinIDs {
		obj := a.Get(id)
		if obj == nil || obj.Pin == nil {
			continue
		}
		obj.Pin.CompoundGroup = group
	}
}

// AttachToNet sets pin.Pin.NetID and registers the pin in net.PinIDs,
// enforcing invariant 1 of spec §3.3 (a set net references a net whose pin
// set contains the pin).
func AttachToNet(pinObj *Object, net *Net) error {
	if pinObj.Pin == nil {
		return NewInvalidInputError("AttachToNet", "object %s is not a pin", pinObj.Name)
	}
	pinObj.Pin.NetID = net.ID
	net.PinIDs[pinObj.ID] = struct{}{}
	return nil
}

// DetachFromNet clears a pin's net membership and its incident connections
// (the net is expected to have already dropped those connections).
func DetachFromNet(pinObj *Object, net *Net) {
	if pinObj.Pin == nil {
		return
	}
	delete(net.PinIDs, pinObj.ID)
	pinObj.Pin.NetID = NilID
	pinObj.Pin.ConnectionIDs = make(map[ID]struct{})
}
