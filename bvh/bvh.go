// Package bvh implements the Object broad-phase spatial index (spec §4.2): a
// 3D (2D bbox + layer range) structure supporting insertion and both
// region and point queries over >=10^4 objects with O(log n) queries on
// realistic dispersion.
//
// The original C++ core builds this on a CGAL AABB_tree (see
// _examples/original_source/pcbenv/cxx/AABBTree.cpp): two axis-aligned
// triangles per object bbox, a static tree rebuilt on structural change.
// Since spec §4.2 explicitly allows "rebuild from scratch... on large
// deletions; otherwise incremental insertion suffices (no balancing
// required)", we use a bucketed spatial hash instead of a balanced tree:
// buckets give O(1) amortized insertion and near-O(log n) query behavior on
// realistic (non-adversarial) PCB layouts without any rebalancing logic,
// which keeps the implementation in the spirit of the teacher's flat,
// allocation-conscious cell/slice idioms (paths/pathrange.go's node cache)
// rather than a pointer-heavy tree.
package bvh

import (
	"github.com/bits-and-blooms/bitset"
	"golang.org/x/exp/slices"

	"github.com/chrisbmr/PCBEnv-sub001/board"
	"github.com/chrisbmr/PCBEnv-sub001/geom"
)

// DefaultBucketSize is the default bucket edge length in board units.
const DefaultBucketSize = 10.0

type bucketKey struct {
	bx, by, bz int
}

type xyKey struct {
	bx, by int
}

// BVH is the Object broad-phase index.
type BVH struct {
	bucketSize float64
	buckets    map[bucketKey][]board.ID
	objects    map[board.ID]*board.Object

	// dispersion tracks, per (bx,by) bucket column, which of the board's
	// layers currently hold at least one object — a dynamic, unbounded-by-
	// compile-time-budget set unlike navgrid.Cell.Flags (see its package
	// doc), so bits-and-blooms/bitset fits here: Select consults it to skip
	// a whole bucket map lookup for XY columns with nothing on the queried
	// layer at all.
	dispersion map[xyKey]*bitset.BitSet
}

// New returns an empty BVH with the given bucket edge length (use
// DefaultBucketSize when unsure).
func New(bucketSize float64) *BVH {
	if bucketSize <= 0 {
		bucketSize = DefaultBucketSize
	}
	return &BVH{
		bucketSize: bucketSize,
		buckets:    make(map[bucketKey][]board.ID),
		objects:    make(map[board.ID]*board.Object),
		dispersion: make(map[xyKey]*bitset.BitSet),
	}
}

func (t *BVH) cellsFor(r geom.Rect, zmin, zmax int) []bucketKey {
	bx0 := int(r.Min.X / t.bucketSize)
	by0 := int(r.Min.Y / t.bucketSize)
	bx1 := int(r.Max.X / t.bucketSize)
	by1 := int(r.Max.Y / t.bucketSize)
	var keys []bucketKey
	for bz := zmin; bz <= zmax; bz++ {
		for bx := bx0; bx <= bx1; bx++ {
			for by := by0; by <= by1; by++ {
				keys = append(keys, bucketKey{bx, by, bz})
			}
		}
	}
	return keys
}

// Insert adds obj to the index (spec §4.2 insert).
func (t *BVH) Insert(obj *board.Object) {
	t.objects[obj.ID] = obj
	bbox := obj.Bbox()
	for _, k := range t.cellsFor(bbox, obj.Layers.Zmin, obj.Layers.Zmax) {
		t.buckets[k] = append(t.buckets[k], obj.ID)
		t.markOccupied(k)
	}
}

// Remove drops obj from the index. Rebuilding from scratch (spec §4.2) is
// the caller's alternative for large batches of deletions; Remove itself is
// O(cells touched).
func (t *BVH) Remove(obj *board.Object) {
	delete(t.objects, obj.ID)
	bbox := obj.Bbox()
	for _, k := range t.cellsFor(bbox, obj.Layers.Zmin, obj.Layers.Zmax) {
		bucket := t.buckets[k]
		for i, id := range bucket {
			if id == obj.ID {
				t.buckets[k] = append(bucket[:i], bucket[i+1:]...)
				break
			}
		}
		if len(t.buckets[k]) == 0 {
			delete(t.buckets, k)
			t.clearOccupied(k)
		}
	}
}

// markOccupied sets k's layer bit in its (bx,by) column's dispersion bitset,
// growing the bitset lazily since the number of layers is a runtime, not
// compile-time, quantity.
func (t *BVH) markOccupied(k bucketKey) {
	xy := xyKey{k.bx, k.by}
	bs := t.dispersion[xy]
	if bs == nil {
		bs = bitset.New(uint(k.bz) + 1)
		t.dispersion[xy] = bs
	}
	bs.Set(uint(k.bz))
}

// clearOccupied clears k's layer bit once its bucket is empty, dropping the
// column's bitset entirely once no layer remains occupied.
func (t *BVH) clearOccupied(k bucketKey) {
	xy := xyKey{k.bx, k.by}
	bs := t.dispersion[xy]
	if bs == nil {
		return
	}
	bs.Clear(uint(k.bz))
	if bs.None() {
		delete(t.dispersion, xy)
	}
}

// Rebuild discards all buckets and reinserts every object currently tracked
// (used after large-scale removals per spec §4.2).
func (t *BVH) Rebuild() {
	objs := make([]*board.Object, 0, len(t.objects))
	for _, o := range t.objects {
		objs = append(objs, o)
	}
	t.buckets = make(map[bucketKey][]board.ID)
	t.dispersion = make(map[xyKey]*bitset.BitSet)
	for _, o := range objs {
		t.Insert(o)
	}
}

// Select adds to out every object whose bbox intersects the given 3D
// cuboid (2D bbox x [zmin,zmax]) (spec §4.2 select-by-region).
func (t *BVH) Select(out map[board.ID]*board.Object, bbox geom.Rect, zmin, zmax int) {
	seen := make(map[bucketKey]struct{})
	for _, k := range t.cellsFor(bbox, zmin, zmax) {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		if bs := t.dispersion[xyKey{k.bx, k.by}]; bs == nil || !bs.Test(uint(k.bz)) {
			continue
		}
		for _, id := range t.buckets[k] {
			obj := t.objects[id]
			if obj == nil {
				continue
			}
			if _, already := out[id]; already {
				continue
			}
			if obj.Bbox().Intersects(bbox) && obj.Layers.Intersects(geom.LayerRange{Zmin: zmin, Zmax: zmax}) {
				out[id] = obj
			}
		}
	}
}

// SelectPoint returns the deepest (most tightly containing) object at the
// given 3D point, ties broken by IsContainerOf (spec §4.2 select-by-point).
func (t *BVH) SelectPoint(p geom.Point2, z int) (*board.Object, bool) {
	bbox := geom.Rect{Min: p, Max: p}
	hits := make(map[board.ID]*board.Object)
	t.Select(hits, bbox, z, z)
	var candidates []*board.Object
	for _, o := range hits {
		if o.Shape != nil && !o.Shape.Contains(p) {
			continue
		}
		candidates = append(candidates, o)
	}
	if len(candidates) == 0 {
		return nil, false
	}
	slices.SortFunc(candidates, func(a, b *board.Object) int {
		aa, ba := a.Bbox().Area(), b.Bbox().Area()
		switch {
		case aa < ba:
			return -1
		case aa > ba:
			return 1
		default:
			return 0
		}
	})
	best := candidates[0]
	for _, c := range candidates[1:] {
		if best.IsContainerOf(c) {
			best = c
		}
	}
	return best, true
}

// Len returns the number of tracked objects.
func (t *BVH) Len() int { return len(t.objects) }
