package cdt

import (
	"math"
	"sort"

	"github.com/chrisbmr/PCBEnv-sub001/board"
	"github.com/chrisbmr/PCBEnv-sub001/geom"
	"github.com/chrisbmr/PCBEnv-sub001/shape"
)

// constraintSource distinguishes a footprint constraint (component/pin
// outline, never removed by RemoveRoute) from a route constraint (a
// connection's track outline, added/removed as connections are routed).
type constraintSource int

const (
	sourceFootprint constraintSource = iota
	sourceRoute
)

type constraintEdge struct {
	a, b     geom.Point2
	source   constraintSource
	ownerID  board.ID // connection id for sourceRoute, object id for sourceFootprint
}

// parentCandidate is a footprint outline plus the object it belongs to,
// kept alongside raw constraint edges so face-parent attribution (spec
// §4.10 "parent object pointer") can test point-in-polygon after the
// triangulation settles.
type parentCandidate struct {
	objID    board.ID
	area     float64
	contains func(geom.Point2) bool
}

// Triangulation is the CDT navigation view for a single layer (spec §4.10).
type Triangulation struct {
	Layer int

	points      []geom.Point2
	constraints []constraintEdge
	parents     []parentCandidate

	Tris []NavTri

	searchGen uint16

	// routeConstraints indexes constraint edges by connection id, so
	// RemoveRoute can find and drop exactly the edges InsertRoute added.
	routeConstraints map[board.ID][]constraintEdge
}

// New returns an empty triangulation for the given layer.
func New(layer int) *Triangulation {
	return &Triangulation{Layer: layer, routeConstraints: make(map[board.ID][]constraintEdge)}
}

// Build constructs the triangulation from every object whose layer range
// covers t.Layer (spec §4.10 build()): each object's outline becomes a
// footprint constraint and its interior becomes a parent-attribution
// candidate. bounds must contain every object's footprint; it seeds the
// super-triangle, and its four corners are triangulated together with the
// footprints so the free space inside bounds is covered by faces with no
// parent.
func (t *Triangulation) Build(arena *board.Arena, objects []*board.Object, bounds geom.Rect) error {
	t.points = nil
	t.constraints = nil
	t.parents = nil
	t.routeConstraints = make(map[board.ID][]constraintEdge)

	for _, obj := range objects {
		if !obj.Layers.Contains(t.Layer) || obj.Shape == nil {
			continue
		}
		outline := shape.Outline(obj.Shape, 16)
		if len(outline) < 3 {
			continue
		}
		t.addFootprint(obj.ID, outline, obj.Shape)
	}
	return t.retriangulate(bounds)
}

func (t *Triangulation) addFootprint(objID board.ID, outline []geom.Point2, sh shape.Shape) {
	t.points = append(t.points, outline...)
	n := len(outline)
	for i := 0; i < n; i++ {
		t.constraints = append(t.constraints, constraintEdge{
			a: outline[i], b: outline[(i+1)%n], source: sourceFootprint, ownerID: objID,
		})
	}
	t.parents = append(t.parents, parentCandidate{
		objID:    objID,
		area:     sh.Area(),
		contains: sh.Contains,
	})
}

// InsertRoute adds a connection's track outlines as removable constraints
// and re-triangulates (spec §4.10 insert_route).
func (t *Triangulation) InsertRoute(connID board.ID, segments []shape.WideSegment, bounds geom.Rect) error {
	var added []constraintEdge
	for _, seg := range segments {
		if seg.Layer != t.Layer {
			continue
		}
		outline := shape.Outline(seg, 12)
		if len(outline) < 3 {
			continue
		}
		t.points = append(t.points, outline...)
		n := len(outline)
		for i := 0; i < n; i++ {
			ce := constraintEdge{a: outline[i], b: outline[(i+1)%n], source: sourceRoute, ownerID: connID}
			t.constraints = append(t.constraints, ce)
			added = append(added, ce)
		}
	}
	if len(added) == 0 {
		return nil
	}
	t.routeConstraints[connID] = added
	return t.retriangulate(bounds)
}

// RemoveRoute drops a connection's route constraints and re-triangulates,
// restoring the CDT to what it was before InsertRoute (spec §4.10
// remove_route). Unlike the grid's incremental cell edits, this is a full
// rebuild from the remaining constraint set rather than a localized cavity
// repair — a deliberate simplification symmetric with the BVH's own
// rebuild-on-large-mutation allowance (spec §4.2).
func (t *Triangulation) RemoveRoute(connID board.ID, bounds geom.Rect) error {
	removed, ok := t.routeConstraints[connID]
	if !ok {
		return nil
	}
	delete(t.routeConstraints, connID)
	removeSet := make(map[constraintEdge]bool, len(removed))
	for _, ce := range removed {
		removeSet[ce] = true
	}
	kept := t.constraints[:0]
	for _, ce := range t.constraints {
		if !removeSet[ce] {
			kept = append(kept, ce)
		}
	}
	t.constraints = kept
	// Drop the now-orphaned route vertices too so they don't linger as
	// disconnected Steiner points.
	removedPts := make(map[geom.Point2]bool)
	for _, ce := range removed {
		removedPts[ce.a] = true
		removedPts[ce.b] = true
	}
	stillUsed := make(map[geom.Point2]bool)
	for _, ce := range t.constraints {
		stillUsed[ce.a] = true
		stillUsed[ce.b] = true
	}
	pts := t.points[:0]
	for _, p := range t.points {
		if removedPts[p] && !stillUsed[p] {
			continue
		}
		pts = append(pts, p)
	}
	t.points = pts
	return t.retriangulate(bounds)
}

// GetNavIdx returns the index of the face containing p, or -1 (spec §4.10
// get_nav_idx).
func (t *Triangulation) GetNavIdx(p geom.Point2) int {
	for i := range t.Tris {
		if t.Tris[i].contains(p) {
			return i
		}
	}
	return -1
}

// ---- Bowyer-Watson construction ----

func (t *Triangulation) retriangulate(bounds geom.Rect) error {
	pts := dedupPoints(append(append([]geom.Point2(nil), t.points...),
		bounds.Min, geom.Point2{X: bounds.Max.X, Y: bounds.Min.Y},
		bounds.Max, geom.Point2{X: bounds.Min.X, Y: bounds.Max.Y}))
	if len(pts) < 3 {
		t.Tris = nil
		return nil
	}

	margin := math.Max(bounds.Width(), bounds.Height())*4 + 1
	cx, cy := bounds.Center().X, bounds.Center().Y
	super := [3]geom.Point2{
		{X: cx - margin, Y: cy - margin},
		{X: cx + margin, Y: cy - margin},
		{X: cx, Y: cy + margin},
	}
	tris := []rawTri{{super[0], super[1], super[2]}}

	for _, p := range pts {
		tris = bowyerWatsonInsert(tris, p)
	}

	tris = recoverConstraints(tris, t.constraints)

	// Drop any triangle touching a super-vertex.
	final := tris[:0]
	for _, tr := range tris {
		if tr.hasVertex(super[0]) || tr.hasVertex(super[1]) || tr.hasVertex(super[2]) {
			continue
		}
		final = append(final, tr)
	}
	tris = final

	t.Tris = buildNavTris(tris, t.constraints, t.parents)
	return nil
}

type rawTri struct{ A, B, C geom.Point2 }

func (r rawTri) hasVertex(p geom.Point2) bool { return r.A == p || r.B == p || r.C == p }

func (r rawTri) edges() [3][2]geom.Point2 {
	return [3][2]geom.Point2{{r.A, r.B}, {r.B, r.C}, {r.C, r.A}}
}

// ccw returns r with vertices ordered counter-clockwise.
func (r rawTri) ccw() rawTri {
	if sign(r.A, r.B, r.C) < 0 {
		return rawTri{r.A, r.C, r.B}
	}
	return r
}

func inCircumcircle(t rawTri, p geom.Point2) bool {
	ax, ay := t.A.X-p.X, t.A.Y-p.Y
	bx, by := t.B.X-p.X, t.B.Y-p.Y
	cx, cy := t.C.X-p.X, t.C.Y-p.Y
	det := (ax*ax+ay*ay)*(bx*cy-cx*by) -
		(bx*bx+by*by)*(ax*cy-cx*ay) +
		(cx*cx+cy*cy)*(ax*by-bx*ay)
	if sign(t.A, t.B, t.C) < 0 {
		det = -det
	}
	return det > 1e-9
}

func bowyerWatsonInsert(tris []rawTri, p geom.Point2) []rawTri {
	var bad []rawTri
	var good []rawTri
	for _, tr := range tris {
		if inCircumcircle(tr, p) {
			bad = append(bad, tr)
		} else {
			good = append(good, tr)
		}
	}
	boundary := polygonBoundary(bad)
	for _, e := range boundary {
		good = append(good, rawTri{e[0], e[1], p}.ccw())
	}
	return good
}

// polygonBoundary returns the edges that belong to exactly one triangle in
// tris (the cavity's outer boundary).
func polygonBoundary(tris []rawTri) [][2]geom.Point2 {
	count := make(map[[2]geom.Point2]int)
	orient := make(map[[2]geom.Point2][2]geom.Point2)
	for _, tr := range tris {
		for _, e := range tr.edges() {
			key := canonEdge(e[0], e[1])
			count[key]++
			orient[key] = e
		}
	}
	var out [][2]geom.Point2
	for key, c := range count {
		if c == 1 {
			out = append(out, orient[key])
		}
	}
	return out
}

func canonEdge(a, b geom.Point2) [2]geom.Point2 {
	if pointLess(b, a) {
		a, b = b, a
	}
	return [2]geom.Point2{a, b}
}

func pointLess(a, b geom.Point2) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// recoverConstraints ensures every constraint edge is present in tris by
// inserting the edge's midpoint (and recursing) until it is; see the
// package doc for why this conforming-Delaunay strategy was chosen over
// classical cavity-based edge recovery.
func recoverConstraints(tris []rawTri, constraints []constraintEdge) []rawTri {
	const maxDepth = 24
	var recurse func(a, b geom.Point2, depth int)
	recurse = func(a, b geom.Point2, depth int) {
		if edgePresent(tris, a, b) || depth >= maxDepth {
			return
		}
		m := geom.Point2{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
		tris = bowyerWatsonInsert(tris, m)
		recurse(a, m, depth+1)
		recurse(m, b, depth+1)
	}
	for _, ce := range constraints {
		recurse(ce.a, ce.b, 0)
	}
	return tris
}

func edgePresent(tris []rawTri, a, b geom.Point2) bool {
	key := canonEdge(a, b)
	for _, tr := range tris {
		for _, e := range tr.edges() {
			if canonEdge(e[0], e[1]) == key {
				return true
			}
		}
	}
	return false
}

func dedupPoints(pts []geom.Point2) []geom.Point2 {
	seen := make(map[geom.Point2]bool, len(pts))
	out := make([]geom.Point2, 0, len(pts))
	for _, p := range pts {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return pointLess(out[i], out[j]) })
	return out
}

// buildNavTris converts the final raw triangle list into NavTris with
// neighbor adjacency, constrained-edge flags and parent attribution.
func buildNavTris(tris []rawTri, constraints []constraintEdge, parents []parentCandidate) []NavTri {
	constraintSet := make(map[[2]geom.Point2]bool, len(constraints))
	for _, ce := range constraints {
		constraintSet[canonEdge(ce.a, ce.b)] = true
	}

	navs := make([]NavTri, len(tris))
	edgeOwner := make(map[[2]geom.Point2][2]int) // edge -> (face index, edge slot) pairs, up to 2
	edgeCount := make(map[[2]geom.Point2]int)

	for i, tr := range tris {
		navs[i] = NavTri{V: [3]geom.Point2{tr.A, tr.B, tr.C}, Adj: [3]int{-1, -1, -1}}
		for slot, e := range tr.edges() {
			key := canonEdge(e[0], e[1])
			if constraintSet[key] {
				navs[i].Constrained[slot] = true
			}
			c := edgeCount[key]
			if c == 0 {
				edgeOwner[key] = [2]int{i*3 + slot, -1}
			} else {
				first := edgeOwner[key]
				edgeOwner[key] = [2]int{first[0], i*3 + slot}
			}
			edgeCount[key]++
		}
	}
	for _, packed := range edgeOwner {
		if packed[1] < 0 {
			continue
		}
		f1, s1 := packed[0]/3, packed[0]%3
		f2, s2 := packed[1]/3, packed[1]%3
		navs[f1].Adj[s1] = f2
		navs[f2].Adj[s2] = f1
	}

	for i := range navs {
		navs[i].ParentID = attributeParent(navs[i].Centroid(), parents)
	}
	return navs
}

// attributeParent returns the innermost (smallest-area) parent whose
// footprint contains p, so a pin nested inside its component wins over the
// component itself (spec §4.10).
func attributeParent(p geom.Point2, parents []parentCandidate) board.ID {
	best := board.NilID
	bestArea := math.Inf(1)
	for _, pc := range parents {
		if !pc.contains(p) {
			continue
		}
		if pc.area < bestArea {
			bestArea = pc.area
			best = pc.objID
		}
	}
	return best
}
