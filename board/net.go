package board

// Rules are the per-net design rules (spec §3.2): trace width, clearance,
// via diameter. All pins on a net must have matching rules or stricter
// (enforced by the facade when attaching a pin to a net).
type Rules struct {
	TraceWidth float64
	Clearance  float64
	ViaDiameter float64
}

// Stricter reports whether r is at least as strict as o in every dimension:
// clearance and via diameter larger than or equal to o's, and trace width
// narrower than or equal to o's ("stricter" here means "no looser than"
// along each axis independently).
func (r Rules) Stricter(o Rules) bool {
	return r.Clearance >= o.Clearance && r.ViaDiameter >= o.ViaDiameter && r.TraceWidth <= o.TraceWidth
}

// Net is an electrical node: a named, colored set of pins that must be made
// mutually connected, owning its Connections (spec §3.2, §9 "Net/pin/
// connection cycles").
type Net struct {
	ID        ID
	Name      string
	Color     uint32
	LayerMask uint64 // bit i set => layer i is permitted for this net
	Rules     Rules

	PinIDs        map[ID]struct{}
	connections   []ID
	connByID      map[ID]*Connection
}

// NewNet constructs an empty net.
func NewNet(name string, rules Rules) *Net {
	return &Net{
		ID:       NewID(),
		Name:     name,
		Rules:    rules,
		PinIDs:   make(map[ID]struct{}),
		connByID: make(map[ID]*Connection),
	}
}

// Connections returns the net's connections in insertion order.
func (n *Net) Connections() []*Connection {
	out := make([]*Connection, 0, len(n.connections))
	for _, id := range n.connections {
		out = append(out, n.connByID[id])
	}
	return out
}

// AddConnection attaches a new connection to the net, owning it.
func (n *Net) AddConnection(c *Connection) {
	c.NetID = n.ID
	n.connections = append(n.connections, c.ID)
	n.connByID[c.ID] = c
}

// RemoveConnection detaches a connection from the net by id.
func (n *Net) RemoveConnection(id ID) {
	delete(n.connByID, id)
	for i, cid := range n.connections {
		if cid == id {
			n.connections = append(n.connections[:i], n.connections[i+1:]...)
			break
		}
	}
}

// Connection is an atomic routing task: a directed pair of endpoints on one
// net, each possibly anchored to a Pin (spec §3.2). Endpoint Point25 values
// are always set; the pins may be nil when a track dangles on a free end.
type Connection struct {
	ID     ID
	NetID  ID

	SourcePinID ID // NilID when the source endpoint is pin-less
	TargetPinID ID

	Source Point25Endpoint
	Target Point25Endpoint

	Routed bool

	tracks []*Track

	// Ratsnest is a list of straight-line hints used only for
	// visualization; it carries no routing semantics (spec §3.2).
	Ratsnest []RatsnestLine
}

// Point25Endpoint is a connection endpoint location.
type Point25Endpoint struct {
	X, Y float64
	Z    int
}

// RatsnestLine is one straight-line visualization hint.
type RatsnestLine struct {
	From, To Point25Endpoint
}

// NewConnection constructs a connection between two endpoints.
func NewConnection(src, dst Point25Endpoint, srcPin, dstPin ID) *Connection {
	return &Connection{
		ID:          NewID(),
		SourcePinID: srcPin,
		TargetPinID: dstPin,
		Source:      src,
		Target:      dst,
	}
}

// Tracks returns the connection's tracks in order.
func (c *Connection) Tracks() []*Track { return c.tracks }

// AddTrack appends a track to the connection and marks it routed.
func (c *Connection) AddTrack(t *Track) {
	c.tracks = append(c.tracks, t)
	c.Routed = true
}

// ClearTracks detaches all tracks from the connection (does not unrasterize
// them; that is the facade's responsibility).
func (c *Connection) ClearTracks() {
	c.tracks = nil
	c.Routed = false
}

// EndpointPins returns the non-nil pin ids among the two endpoints, for
// callers (pathfinding context manager) that need "the other connections of
// these same endpoint pins" (spec §4.8).
func (c *Connection) EndpointPins() []ID {
	var out []ID
	if c.SourcePinID != NilID {
		out = append(out, c.SourcePinID)
	}
	if c.TargetPinID != NilID {
		out = append(out, c.TargetPinID)
	}
	return out
}
