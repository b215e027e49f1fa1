package route

import (
	"github.com/chrisbmr/PCBEnv-sub001/board"
	"github.com/chrisbmr/PCBEnv-sub001/geom"
	"github.com/chrisbmr/PCBEnv-sub001/shape"
)

// partialTrack is a track under construction: an ordered, head-to-tail
// chain of segments (spec §4.11 phase B).
type partialTrack struct {
	segs []shape.WideSegment
}

func (t *partialTrack) front() shape.WideSegment { return t.segs[0] }
func (t *partialTrack) back() shape.WideSegment  { return t.segs[len(t.segs)-1] }

func flip(s shape.WideSegment) shape.WideSegment {
	s.Core.A, s.Core.B = s.Core.B, s.Core.A
	return s
}

func (tr *Tracker) cancelled() bool { return tr.Cancel != nil && tr.Cancel() }

// phaseB stitches the flat segment bag into a list of partial tracks (spec
// §4.11 phases B, including the stitch-pass fixpoint).
func (tr *Tracker) phaseB(segments []shape.WideSegment, idxA *phaseAIndex) ([]*partialTrack, error) {
	var tracks []*partialTrack

	for _, s := range segments {
		if tr.cancelled() {
			return nil, &board.RoutingFailure{Reason: board.ReasonCancelled}
		}
		find0 := tr.findCandidate(tracks, s.Core.A, s, -1, idxA)
		find1 := tr.findCandidate(tracks, s.Core.B, s, find0, idxA)

		switch {
		case find0 < 0 && find1 < 0:
			tracks = append(tracks, &partialTrack{segs: []shape.WideSegment{s}})
		case find0 >= 0 && find1 < 0:
			tr.attach(tracks[find0], s, s.Core.A)
		case find0 < 0 && find1 >= 0:
			tr.attach(tracks[find1], s, s.Core.B)
		case find0 == find1:
			tr.attach(tracks[find0], s, s.Core.A)
		default:
			tr.attach(tracks[find0], s, s.Core.A)
			tracks = tr.merge(tracks, find0, find1)
		}
	}

	return tr.stitchFixpoint(tracks, idxA)
}

// findCandidate implements try_append's search half (spec §4.11): it looks
// for a track whose front or back matches point within tolerance =
// seg.HalfWidth, honoring the layer-bridge acceptance rule, without
// mutating anything.
func (tr *Tracker) findCandidate(tracks []*partialTrack, point geom.Point2, seg shape.WideSegment, except int, idxA *phaseAIndex) int {
	for i, t := range tracks {
		if i == except {
			continue
		}
		if tr.endpointAccepts(t.back(), true, point, seg, idxA) || tr.endpointAccepts(t.front(), false, point, seg, idxA) {
			return i
		}
	}
	return -1
}

// endpointAccepts tests whether seg may join track endpoint end (isBack
// selects which end of the track end describes) at point, per the
// acceptance rule in spec §4.11 (XY tolerance + layer-bridge).
func (tr *Tracker) endpointAccepts(end shape.WideSegment, isBack bool, point geom.Point2, seg shape.WideSegment, idxA *phaseAIndex) bool {
	endPoint := end.Core.B
	if !isBack {
		endPoint = end.Core.A
	}
	tol := seg.HalfWidth
	if geom.SquaredDistance(endPoint, point) > tol*tol {
		return false
	}
	if end.Layer == seg.Layer {
		return true
	}
	return idxA.viaBridges(point, end.Layer, seg.Layer) || idxA.pinBridges(point, end.Layer, seg.Layer, idxA.endpointPin)
}

// attach appends or prepends seg to t, orienting it so seg's matched
// endpoint abuts t's existing chain (spec §4.11, "s may be reversed so its
// orientation follows the track's direction").
func (tr *Tracker) attach(t *partialTrack, seg shape.WideSegment, matchedPoint geom.Point2) {
	back := t.back()
	if closeEnough(back.Core.B, matchedPoint, seg.HalfWidth) {
		if closeEnough(seg.Core.A, matchedPoint, seg.HalfWidth) {
			t.segs = append(t.segs, seg)
		} else {
			t.segs = append(t.segs, flip(seg))
		}
		return
	}
	front := t.front()
	if closeEnough(front.Core.A, matchedPoint, seg.HalfWidth) {
		if closeEnough(seg.Core.B, matchedPoint, seg.HalfWidth) {
			t.segs = append([]shape.WideSegment{seg}, t.segs...)
		} else {
			t.segs = append([]shape.WideSegment{flip(seg)}, t.segs...)
		}
	}
}

func closeEnough(a, b geom.Point2, tol float64) bool {
	return geom.SquaredDistance(a, b) <= tol*tol
}

// merge joins tracks[find1] onto tracks[find0] (spec §4.11 Merge), unless a
// T-junction is detected — the bridging segment's base matches a
// non-terminal segment of tracks[find1], meaning tracks[find1] actually
// branches off the middle of a path rather than chaining at an end. In that
// case the intruding track is trimmed (dropped) rather than merged, per the
// spec's stated default resolution of its own stated Open Question (see
// DESIGN.md).
func (tr *Tracker) merge(tracks []*partialTrack, find0, find1 int) []*partialTrack {
	t0, t1 := tracks[find0], tracks[find1]
	bridge := t0.back()

	if isTJunction(bridge, t1) {
		tr.Warnings = append(tr.Warnings, board.NewWarning(
			"route.merge", "T-junction detected while stitching; trimming intruding track"))
		return removeTrack(tracks, find1)
	}

	oriented := orientForMerge(t0.back(), t1)
	t0.segs = append(t0.segs, oriented...)
	return removeTrack(tracks, find1)
}

// isTJunction reports whether bridge's underlying core segment (direction-
// independent) equals any non-terminal segment of other.
func isTJunction(bridge shape.WideSegment, other *partialTrack) bool {
	for i := 1; i < len(other.segs)-1; i++ {
		if sameCore(bridge.Core, other.segs[i].Core) {
			return true
		}
	}
	return false
}

func sameCore(a, b geom.Segment2) bool {
	const tol = 1e-6
	fwd := geom.SquaredDistance(a.A, b.A) <= tol && geom.SquaredDistance(a.B, b.B) <= tol
	rev := geom.SquaredDistance(a.A, b.B) <= tol && geom.SquaredDistance(a.B, b.A) <= tol
	return fwd || rev
}

// orientForMerge returns other's segments ordered/oriented to continue from
// bridgeBack.
func orientForMerge(bridgeBack shape.WideSegment, other *partialTrack) []shape.WideSegment {
	junction := bridgeBack.Core.B
	if closeEnough(other.front().Core.A, junction, bridgeBack.HalfWidth) {
		return append([]shape.WideSegment(nil), other.segs...)
	}
	if closeEnough(other.back().Core.B, junction, bridgeBack.HalfWidth) {
		out := make([]shape.WideSegment, len(other.segs))
		for i, s := range other.segs {
			out[len(other.segs)-1-i] = flip(s)
		}
		return out
	}
	return append([]shape.WideSegment(nil), other.segs...)
}

func removeTrack(tracks []*partialTrack, idx int) []*partialTrack {
	return append(tracks[:idx], tracks[idx+1:]...)
}

// stitchFixpoint repeatedly merges whole tracks whose endpoints touch
// directly (spec §4.11 "stitch pass fixpoint"), terminating when a full
// pass makes no change.
func (tr *Tracker) stitchFixpoint(tracks []*partialTrack, idxA *phaseAIndex) ([]*partialTrack, error) {
	for {
		if tr.cancelled() {
			return nil, &board.RoutingFailure{Reason: board.ReasonCancelled}
		}
		changed := false
		for i := 0; i < len(tracks); i++ {
			for j := i + 1; j < len(tracks); j++ {
				if !bboxesNear(tracks[i], tracks[j]) {
					continue
				}
				if conn, rev := endsTouch(tracks[i], tracks[j], idxA); conn {
					tracks = tr.mergeDirect(tracks, i, j, rev)
					changed = true
					break
				}
			}
			if changed {
				break
			}
		}
		if !changed {
			return tracks, nil
		}
	}
}

func bboxesNear(a, b *partialTrack) bool {
	fa, ba := a.front().Bbox(), a.back().Bbox()
	fb, bb := b.front().Bbox(), b.back().Bbox()
	return fa.Intersects(fb) || fa.Intersects(bb) || ba.Intersects(fb) || ba.Intersects(bb)
}

// endsTouch checks every end-pairing between two whole tracks for a direct
// junction, returning whether they should merge and whether b needs
// reversing.
func endsTouch(a, b *partialTrack, idxA *phaseAIndex) (bool, bool) {
	tol := a.back().HalfWidth
	cases := []struct {
		pa, pb geom.Point2
		za, zb int
		rev    bool
	}{
		{a.back().Core.B, b.front().Core.A, a.back().Layer, b.front().Layer, false},
		{a.back().Core.B, b.back().Core.B, a.back().Layer, b.back().Layer, true},
	}
	for _, c := range cases {
		if geom.SquaredDistance(c.pa, c.pb) > tol*tol {
			continue
		}
		if c.za == c.zb || idxA.viaBridges(c.pa, c.za, c.zb) || idxA.pinBridges(c.pa, c.za, c.zb, idxA.endpointPin) {
			return true, c.rev
		}
	}
	return false, false
}

func (tr *Tracker) mergeDirect(tracks []*partialTrack, i, j int, rev bool) []*partialTrack {
	segs := tracks[j].segs
	if rev {
		out := make([]shape.WideSegment, len(segs))
		for k, s := range segs {
			out[len(segs)-1-k] = flip(s)
		}
		segs = out
	}
	tracks[i].segs = append(tracks[i].segs, segs...)
	return removeTrack(tracks, j)
}
