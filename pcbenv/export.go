package pcbenv

import (
	"github.com/chrisbmr/PCBEnv-sub001/board"
	"github.com/chrisbmr/PCBEnv-sub001/geom"
	"github.com/chrisbmr/PCBEnv-sub001/navgrid"
	"github.com/chrisbmr/PCBEnv-sub001/shape"
)

// ExportShape renders sh as the tagged tuple the scripted query interface
// exchanges with callers (spec §6.2): the shape's Kind string followed by
// its parameters in the order a caller would need to reconstruct it with
// ImportShape. Triangle and polygon vertices are [x, y] tuples; circle
// centers, rect corners and wide-segment endpoints are flat x, y numbers.
func ExportShape(sh shape.Shape) []any {
	switch s := sh.(type) {
	case shape.Circle:
		return []any{"circle", s.Radius, s.Center.X, s.Center.Y}
	case shape.Triangle:
		return []any{"triangle", pointTuple(s.V0), pointTuple(s.V1), pointTuple(s.V2)}
	case shape.AARect:
		return []any{"rect_iso", s.R.Min.X, s.R.Min.Y, s.R.Max.X, s.R.Max.Y}
	case shape.WideSegment:
		return []any{"wide_segment", s.Core.A.X, s.Core.A.Y, s.Core.B.X, s.Core.B.Y, s.Layer, s.HalfWidth * 2}
	case shape.Polygon:
		verts := make([]any, len(s.Vertices))
		for i, v := range s.Vertices {
			verts[i] = pointTuple(v)
		}
		return []any{"polygon", verts}
	default:
		return nil
	}
}

func pointTuple(p geom.Point2) []any { return []any{p.X, p.Y} }

// ImportShape is ExportShape's inverse. args is the tuple's tag-less tail,
// as produced by ExportShape[1:] or a freshly parsed script literal.
func ImportShape(tag string, args []any) (shape.Shape, error) {
	f := func(i int) float64 { return toFloat(args[i]) }
	switch tag {
	case "circle":
		if len(args) != 3 {
			return nil, board.NewInvalidInputError("ImportShape", "circle wants 3 args, got %d", len(args))
		}
		return shape.Circle{Radius: f(0), Center: geom.Point2{X: f(1), Y: f(2)}}, nil
	case "triangle":
		if len(args) != 3 {
			return nil, board.NewInvalidInputError("ImportShape", "triangle wants 3 args, got %d", len(args))
		}
		v0, err := importPoint(args[0])
		if err != nil {
			return nil, err
		}
		v1, err := importPoint(args[1])
		if err != nil {
			return nil, err
		}
		v2, err := importPoint(args[2])
		if err != nil {
			return nil, err
		}
		return shape.Triangle{V0: v0, V1: v1, V2: v2}, nil
	case "rect_iso":
		if len(args) != 4 {
			return nil, board.NewInvalidInputError("ImportShape", "rect_iso wants 4 args, got %d", len(args))
		}
		return shape.AARect{R: geom.Rect{Min: geom.Point2{X: f(0), Y: f(1)}, Max: geom.Point2{X: f(2), Y: f(3)}}}, nil
	case "wide_segment":
		if len(args) != 6 {
			return nil, board.NewInvalidInputError("ImportShape", "wide_segment wants 6 args, got %d", len(args))
		}
		return shape.WideSegment{
			Core:      geom.Segment2{A: geom.Point2{X: f(0), Y: f(1)}, B: geom.Point2{X: f(2), Y: f(3)}},
			Layer:     int(f(4)),
			HalfWidth: f(5) / 2,
		}, nil
	case "polygon":
		if len(args) != 1 {
			return nil, board.NewInvalidInputError("ImportShape", "polygon wants 1 arg, got %d", len(args))
		}
		raw, ok := args[0].([]any)
		if !ok {
			return nil, board.NewInvalidInputError("ImportShape", "polygon vertex list is not a list")
		}
		verts := make([]geom.Point2, len(raw))
		for i, v := range raw {
			p, err := importPoint(v)
			if err != nil {
				return nil, err
			}
			verts[i] = p
		}
		return shape.Polygon{Vertices: verts}, nil
	default:
		return nil, board.NewInvalidInputError("ImportShape", "unknown shape tag %q", tag)
	}
}

func importPoint(v any) (geom.Point2, error) {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return geom.Point2{}, board.NewInvalidInputError("ImportShape", "expected a 2-element point tuple")
	}
	return geom.Point2{X: toFloat(pair[0]), Y: toFloat(pair[1])}, nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// ViaExport is a Via rendered as the tuple shape spec §6.2 names:
// (x, y, zmin, zmax, r).
type ViaExport struct {
	X, Y       float64
	Zmin, Zmax int
	Radius     float64
}

func ExportVia(v board.Via) ViaExport {
	return ViaExport{X: v.Center.X, Y: v.Center.Y, Zmin: v.Layers.Zmin, Zmax: v.Layers.Zmax, Radius: v.Radius}
}

func ImportVia(v ViaExport) board.Via {
	return board.Via{Center: geom.Point2{X: v.X, Y: v.Y}, Layers: geom.LayerRange{Zmin: v.Zmin, Zmax: v.Zmax}, Radius: v.Radius}
}

// PinExport is the §6.2 pin schema: center/z/shape/clearance plus the pin's
// connection and net membership, and an optional compound-group member list.
type PinExport struct {
	Center      [2]float64 `json:"center"`
	Z           [2]int     `json:"z"`
	Shape       []any      `json:"shape"`
	Clearance   float64    `json:"clearance"`
	ConnectsTo  []string   `json:"connects_to"`
	Net         string     `json:"net,omitempty"`
	Compound    []string   `json:"compound,omitempty"`
}

// ExportPin renders pin (an Object with Pin != nil) per spec §6.2.
func (pcb *PCBoard) ExportPin(pin *board.Object) PinExport {
	out := PinExport{
		Center:    [2]float64{pin.Centroid().X, pin.Centroid().Y},
		Z:         [2]int{pin.Layers.Zmin, pin.Layers.Zmax},
		Shape:     ExportShape(pin.Shape),
		Clearance: pin.Clearance,
	}
	if pin.Pin == nil {
		return out
	}
	for cid := range pin.Pin.ConnectionIDs {
		out.ConnectsTo = append(out.ConnectsTo, cid.String())
	}
	if pin.Pin.NetID != board.NilID {
		if net, ok := pcb.Nets[pin.Pin.NetID]; ok {
			out.Net = net.Name
		}
	}
	if pin.Pin.CompoundGroup != nil {
		for _, mid := range pin.Pin.CompoundGroup.Members {
			if mid == pin.ID {
				continue
			}
			if m := pcb.Arena.Get(mid); m != nil {
				out.Compound = append(out.Compound, m.Name)
			}
		}
	}
	return out
}

// BoardExport is the top-level §6.2 board schema.
type BoardExport struct {
	Name       string   `json:"name"`
	File       string   `json:"file"`
	UnitNM     float64  `json:"unit_nm"`
	GridSize   [3]int   `json:"grid_size"`
	LayoutArea []any    `json:"layout_area"`
	Layers     []string `json:"layers"`
	Nets       []string `json:"nets"`
	Components []string `json:"components"`
}

// ExportBoard renders the board-level summary (spec §6.2); name/file are
// caller-supplied since the core has no notion of its own source path.
func (pcb *PCBoard) ExportBoard(name, file string) BoardExport {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	w, h, d := pcb.Grid.Size()
	layerNames := make([]string, len(pcb.Layers))
	for i, l := range pcb.Layers {
		layerNames[i] = l.Name
	}
	comps := make([]string, 0, len(pcb.Arena.Roots()))
	for _, rootID := range pcb.Arena.Roots() {
		if o := pcb.Arena.Get(rootID); o != nil {
			comps = append(comps, o.Name)
		}
	}
	netNames := make([]string, 0, len(pcb.Nets))
	for _, n := range pcb.Nets {
		netNames = append(netNames, n.Name)
	}
	return BoardExport{
		Name:       name,
		File:       file,
		UnitNM:     pcb.Config.NanometersPerUnit,
		GridSize:   [3]int{w, h, d},
		LayoutArea: ExportShape(shape.AARect{R: pcb.Layout.Rect}),
		Layers:     layerNames,
		Nets:       netNames,
		Components: comps,
	}
}

// GridSize returns the grid's (W, H, D) dimensions (spec §6.3 grid_size()).
func (pcb *PCBoard) GridSize() (int, int, int) {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	return pcb.Grid.Size()
}

// GetPoint returns a snapshot of one grid cell (spec §6.3 get_point), taking
// the board's advisory lock for the duration of the read.
func (pcb *PCBoard) GetPoint(x, y, z int) (navgrid.CellSnapshot, bool) {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	return pcb.Grid.GetPoint(x, y, z)
}

// GetRegion returns a dense snapshot of every cell in box (spec §6.3
// get_region), taking the board's advisory lock for the duration of the read.
func (pcb *PCBoard) GetRegion(box navgrid.Box3) []navgrid.CellSnapshot {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	return pcb.Grid.GetRegion(box)
}

// DirtyBitNames returns the name of every currently-set dirty bit without
// clearing it, for callers that want to peek at pending work (spec §6.2
// export of the dirty-mask bit names; PollDirty remains the read-and-clear
// primitive used by the actual polling loop).
func (pcb *PCBoard) DirtyBitNames() []string {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()
	var names []string
	for i := uint(0); i < uint(dirtyBitCount); i++ {
		if pcb.dirty.Test(i) {
			names = append(names, DirtyBit(i).String())
		}
	}
	return names
}
