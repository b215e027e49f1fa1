package route

import (
	"sort"

	"github.com/chrisbmr/PCBEnv-sub001/board"
	"github.com/chrisbmr/PCBEnv-sub001/geom"
)

// phaseC cuts each stitched track into connections at pin-touching vertices
// (spec §4.11 phase C).
func (tr *Tracker) phaseC(netID board.ID, tracks []*partialTrack, idxA *phaseAIndex) ([]*board.Connection, error) {
	var conns []*board.Connection

	for _, t := range tracks {
		if tr.cancelled() {
			return nil, &board.RoutingFailure{Reason: board.ReasonCancelled}
		}
		tr.nudgeIfCircular(t)

		n := len(t.segs)
		verts := make([]geom.Point2, n+1)
		layers := make([][2]int, n+1) // [incomingLayer, outgoingLayer]
		verts[0] = t.segs[0].Core.A
		layers[0] = [2]int{t.segs[0].Layer, t.segs[0].Layer}
		for i := 0; i < n; i++ {
			verts[i+1] = t.segs[i].Core.B
			out := t.segs[i].Layer
			if i+1 < n {
				out = t.segs[i+1].Layer
			}
			layers[i+1] = [2]int{t.segs[i].Layer, out}
		}

		var boundary []int
		pinAt := make([]board.ID, n+1)
		for i, p := range verts {
			if pin, ok := idxA.endpointPin[p3(p, layers[i][0])]; ok {
				pinAt[i] = pin
				boundary = append(boundary, i)
				continue
			}
			if pin, ok := idxA.endpointPin[p3(p, layers[i][1])]; ok {
				pinAt[i] = pin
				boundary = append(boundary, i)
			}
		}
		if len(boundary) == 0 || boundary[0] != 0 {
			boundary = append([]int{0}, boundary...)
		}
		if boundary[len(boundary)-1] != n {
			boundary = append(boundary, n)
		}
		sort.Ints(boundary)
		boundary = dedupInts(boundary)

		for i := 0; i < len(boundary)-1; i++ {
			a, b := boundary[i], boundary[i+1]
			if a == b {
				continue
			}
			track := board.NewTrack()
			track.Segments = append(track.Segments, t.segs[a:b]...)
			for v := a; v <= b; v++ {
				for _, ve := range idxA.viasAt[p3(verts[v], layers[v][0])] {
					if !ve.consumed {
						ve.consumed = true
						track.Vias = append(track.Vias, ve.via)
					}
				}
			}
			conn := board.NewConnection(
				board.Point25Endpoint{X: verts[a].X, Y: verts[a].Y, Z: layers[a][0]},
				board.Point25Endpoint{X: verts[b].X, Y: verts[b].Y, Z: layers[b][0]},
				pinAt[a], pinAt[b],
			)
			conn.AddTrack(track)
			conns = append(conns, conn)
		}
	}

	for _, ve := range idxA.allVias {
		if ve.consumed {
			continue
		}
		ve.consumed = true
		attached := false
		for _, c := range conns {
			if attachesVia(c, ve.via) {
				c.Tracks()[0].Vias = append(c.Tracks()[0].Vias, ve.via)
				attached = true
				break
			}
		}
		if !attached {
			track := board.NewTrack()
			track.Vias = append(track.Vias, ve.via)
			conn := board.NewConnection(
				board.Point25Endpoint{X: ve.via.Center.X, Y: ve.via.Center.Y, Z: ve.via.Layers.Zmin},
				board.Point25Endpoint{X: ve.via.Center.X, Y: ve.via.Center.Y, Z: ve.via.Layers.Zmax},
				board.NilID, board.NilID,
			)
			conn.AddTrack(track)
			conns = append(conns, conn)
		}
	}

	return conns, nil
}

func attachesVia(c *board.Connection, v board.Via) bool {
	near := func(ep board.Point25Endpoint) bool {
		d := (ep.X-v.Center.X)*(ep.X-v.Center.X) + (ep.Y-v.Center.Y)*(ep.Y-v.Center.Y)
		return d <= v.Radius*v.Radius
	}
	return near(c.Source) || near(c.Target)
}

// nudgeIfCircular detects a track whose first segment's source equals the
// last segment's target (spec §4.11 failure handling) and pushes the
// closing vertex apart by NudgeDistance along the last segment's normal.
func (tr *Tracker) nudgeIfCircular(t *partialTrack) {
	first, last := t.segs[0], t.segs[len(t.segs)-1]
	if geom.SquaredDistance(first.Core.A, last.Core.B) > 1e-12 {
		return
	}
	dir := last.Core.Vec().Normalized()
	perp := dir.Perp().Scale(tr.NudgeDistance)
	t.segs[len(t.segs)-1].Core.B = last.Core.B.Add(perp)
	tr.Warnings = append(tr.Warnings, board.NewWarning(
		"route.phaseC", "circular track detected and nudged apart by %.4f", tr.NudgeDistance))
}

func dedupInts(in []int) []int {
	out := in[:0]
	for i, v := range in {
		if i == 0 || v != in[i-1] {
			out = append(out, v)
		}
	}
	return out
}
