package cdt

import (
	"container/heap"
	"math"

	"github.com/chrisbmr/PCBEnv-sub001/board"
	"github.com/chrisbmr/PCBEnv-sub001/geom"
)

// PathRequest bundles the inputs to FindPathAStar (spec §4.10
// find_path_astar).
type PathRequest struct {
	Src, Dst geom.Point2

	NetID             board.ID
	SourceObjectID    board.ID // the connection's own source component/pin
	TargetObjectID    board.ID
	TraceWidth        float64
}

// routable implements spec §4.10's face-routability predicate: "no parent,
// or parent is a pin of X's net, or parent is a component marked
// can_route_inside, or parent is X's source/target component."
func routable(arena *board.Arena, parentID board.ID, req PathRequest) bool {
	if parentID == board.NilID {
		return true
	}
	if parentID == req.SourceObjectID || parentID == req.TargetObjectID {
		return true
	}
	obj := arena.Get(parentID)
	if obj == nil {
		return true
	}
	if obj.Pin != nil && obj.Pin.NetID == req.NetID {
		return true
	}
	if obj.Component != nil && obj.CanRouteInside {
		return true
	}
	// Walk up one level: the parent object is routable if it is attached
	// under the source/target object. The grandparent's CanRouteInside is
	// not consulted.
	if obj.ParentID != board.NilID && (obj.ParentID == req.SourceObjectID || obj.ParentID == req.TargetObjectID) {
		return true
	}
	return false
}

type openFace struct {
	idx  int
	f, g float64
}

type faceHeap []openFace

func (h faceHeap) Len() int            { return len(h) }
func (h faceHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h faceHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *faceHeap) Push(x interface{}) { *h = append(*h, x.(openFace)) }
func (h *faceHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// FindPathAStar runs the coarse face-to-face A* (spec §4.10): movement is
// only across non-constrained edges whose length is at least req.TraceWidth
// wide, and only into faces the routability predicate above allows. It
// returns the chain of face indices from the source face to the destination
// face.
func (t *Triangulation) FindPathAStar(arena *board.Arena, req PathRequest) ([]int, error) {
	srcFace := t.GetNavIdx(req.Src)
	dstFace := t.GetNavIdx(req.Dst)
	if srcFace < 0 || dstFace < 0 {
		return nil, &board.RoutingFailure{Reason: board.ReasonOutOfArea}
	}
	if !routable(arena, t.Tris[srcFace].ParentID, req) || !routable(arena, t.Tris[dstFace].ParentID, req) {
		return nil, &board.RoutingFailure{Reason: board.ReasonBlocked}
	}

	t.searchGen++
	if t.searchGen == 0 {
		for i := range t.Tris {
			t.Tris[i].visitGen = 0
		}
		t.searchGen = 1
	}
	gen := t.searchGen

	reset := func(i int) {
		if t.Tris[i].visitGen != gen {
			t.Tris[i].visitGen = gen
			t.Tris[i].visitDone = false
			t.Tris[i].score = math.Inf(1)
			t.Tris[i].backFace = -1
		}
	}

	dstCentroid := t.Tris[dstFace].Centroid()
	h := func(i int) float64 { return geom.Distance(t.Tris[i].Centroid(), dstCentroid) }

	reset(srcFace)
	t.Tris[srcFace].score = 0

	oh := &faceHeap{}
	heap.Init(oh)
	heap.Push(oh, openFace{idx: srcFace, g: 0, f: h(srcFace)})

	for oh.Len() > 0 {
		cur := heap.Pop(oh).(openFace)
		reset(cur.idx)
		if t.Tris[cur.idx].visitDone {
			continue
		}
		t.Tris[cur.idx].visitDone = true

		if cur.idx == dstFace {
			return reconstructFaceChain(t.Tris, srcFace, dstFace), nil
		}

		face := &t.Tris[cur.idx]
		for slot := 0; slot < 3; slot++ {
			if face.Constrained[slot] {
				continue
			}
			if face.edgeLen(slot) < req.TraceWidth {
				continue
			}
			nb := face.Adj[slot]
			if nb < 0 {
				continue
			}
			if !routable(arena, t.Tris[nb].ParentID, req) {
				continue
			}
			reset(nb)
			if t.Tris[nb].visitDone {
				continue
			}
			step := geom.Distance(face.Centroid(), t.Tris[nb].Centroid())
			ng := cur.g + step
			if ng < t.Tris[nb].score {
				t.Tris[nb].score = ng
				t.Tris[nb].backFace = cur.idx
				heap.Push(oh, openFace{idx: nb, g: ng, f: ng + h(nb)})
			}
		}
	}
	return nil, &board.RoutingFailure{Reason: board.ReasonBlocked}
}

func reconstructFaceChain(tris []NavTri, src, dst int) []int {
	var chain []int
	for cur := dst; cur != -1; cur = tris[cur].backFace {
		chain = append(chain, cur)
		if cur == src {
			break
		}
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
