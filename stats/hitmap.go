package stats

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// HitMap counts how often each node won. The set of nodes that won at least
// once is kept in a Roaring bitmap, so coverage queries stay cheap on large
// lattices.
//
// A HitMap can also be fed live during training with Record(m.WinnerOffset()).
// It is not safe for concurrent use.
type HitMap struct {
	n      int
	hit    *roaring.Bitmap
	counts []uint32
	total  uint64
}

// NewHitMap creates an empty hit map for n nodes.
func NewHitMap(n int) *HitMap {
	return &HitMap{
		n:      n,
		hit:    roaring.New(),
		counts: make([]uint32, n),
	}
}

// Record counts one win of the node at offset. Out-of-range offsets are ignored.
func (h *HitMap) Record(offset int) {
	if offset < 0 || offset >= h.n {
		return
	}
	h.hit.Add(uint32(offset))
	h.counts[offset]++
	h.total++
}

// Hits returns the number of wins of the node at offset.
func (h *HitMap) Hits(offset int) uint32 {
	if offset < 0 || offset >= h.n {
		return 0
	}
	return h.counts[offset]
}

// Total returns the number of recorded wins.
func (h *HitMap) Total() uint64 { return h.total }

// Active returns the number of nodes that won at least once.
func (h *HitMap) Active() int { return int(h.hit.GetCardinality()) }

// Coverage returns the fraction of nodes that won at least once.
func (h *HitMap) Coverage() float64 {
	if h.n == 0 {
		return 0
	}
	return float64(h.Active()) / float64(h.n)
}

// Won reports whether the node at offset won at least once.
func (h *HitMap) Won(offset int) bool {
	return offset >= 0 && offset < h.n && h.hit.Contains(uint32(offset))
}

// DeadNodes returns the offsets of nodes that never won, ascending.
func (h *HitMap) DeadNodes() []int {
	dead := roaring.Flip(h.hit, 0, uint64(h.n))
	out := make([]int, 0, dead.GetCardinality())
	it := dead.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// Merge adds the counts of other, which must cover the same number of nodes.
func (h *HitMap) Merge(other *HitMap) {
	if other == nil || other.n != h.n {
		return
	}
	h.hit.Or(other.hit)
	for i, c := range other.counts {
		h.counts[i] += c
	}
	h.total += other.total
}

// Reset clears all counts.
func (h *HitMap) Reset() {
	h.hit.Clear()
	clear(h.counts)
	h.total = 0
}
