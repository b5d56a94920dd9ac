// Package tensor provides a fixed-shape N-dimensional array with
// bidirectional mapping between flat offsets and lattice coordinates.
//
// Elements are stored row-major: the last dimension varies fastest.
// The shape is immutable after construction.
package tensor

import (
	"fmt"
	"iter"
	"sync/atomic"
)

// ErrOutOfBounds is returned when a coordinate component lies outside its dimension.
type ErrOutOfBounds struct {
	Dimension int
	Index     int
	Size      int
}

func (e *ErrOutOfBounds) Error() string {
	return fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", e.Index, e.Dimension, e.Size)
}

// ErrRankMismatch is returned when a coordinate has the wrong number of components.
type ErrRankMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrRankMismatch) Error() string {
	return fmt.Sprintf("rank mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidShape is returned by New for empty shapes or non-positive dimensions.
type ErrInvalidShape struct {
	Dimensions []int
}

func (e *ErrInvalidShape) Error() string {
	return fmt.Sprintf("invalid tensor shape %v", e.Dimensions)
}

// CloneFunc deep-copies a single element.
type CloneFunc[V any] func(V) V

// Tensor is a fixed-shape N-dimensional array.
//
// Reads and writes of distinct offsets may happen concurrently; the
// coordinate cache is safe for concurrent use.
type Tensor[V any] struct {
	dims    []int
	strides []int
	data    []V
	coords  []atomic.Pointer[[]int]
}

// New creates a tensor with the given dimensions.
func New[V any](dims ...int) (*Tensor[V], error) {
	if len(dims) == 0 {
		return nil, &ErrInvalidShape{Dimensions: dims}
	}

	count := 1
	for _, d := range dims {
		if d <= 0 {
			return nil, &ErrInvalidShape{Dimensions: dims}
		}
		count *= d
	}

	strides := make([]int, len(dims))
	stride := 1
	for i := len(dims) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= dims[i]
	}

	return &Tensor[V]{
		dims:    append([]int(nil), dims...),
		strides: strides,
		data:    make([]V, count),
		coords:  make([]atomic.Pointer[[]int], count),
	}, nil
}

// Dimensions returns a copy of the shape.
func (t *Tensor[V]) Dimensions() []int {
	return append([]int(nil), t.dims...)
}

// Rank returns the number of dimensions.
func (t *Tensor[V]) Rank() int { return len(t.dims) }

// Len returns the total number of elements.
func (t *Tensor[V]) Len() int { return len(t.data) }

// Offset converts a coordinate into a flat offset.
func (t *Tensor[V]) Offset(coord ...int) (int, error) {
	if len(coord) != len(t.dims) {
		return 0, &ErrRankMismatch{Expected: len(t.dims), Actual: len(coord)}
	}
	offset := 0
	for i, c := range coord {
		if c < 0 || c >= t.dims[i] {
			return 0, &ErrOutOfBounds{Dimension: i, Index: c, Size: t.dims[i]}
		}
		offset += c * t.strides[i]
	}
	return offset, nil
}

// Coord returns the coordinate of the element at offset.
// The returned slice is cached and shared; callers must not modify it.
// Coord panics if offset is out of range.
func (t *Tensor[V]) Coord(offset int) []int {
	if p := t.coords[offset].Load(); p != nil {
		return *p
	}
	c := make([]int, len(t.dims))
	rem := offset
	for i, s := range t.strides {
		c[i] = rem / s
		rem %= s
	}
	t.coords[offset].CompareAndSwap(nil, &c)
	return *t.coords[offset].Load()
}

// Get returns the element at coord.
func (t *Tensor[V]) Get(coord ...int) (V, error) {
	off, err := t.Offset(coord...)
	if err != nil {
		var zero V
		return zero, err
	}
	return t.data[off], nil
}

// Set stores v at coord.
func (t *Tensor[V]) Set(v V, coord ...int) error {
	off, err := t.Offset(coord...)
	if err != nil {
		return err
	}
	t.data[off] = v
	return nil
}

// At returns the element at offset. It panics if offset is out of range.
func (t *Tensor[V]) At(offset int) V { return t.data[offset] }

// SetAt stores v at offset. It panics if offset is out of range.
func (t *Tensor[V]) SetAt(offset int, v V) { t.data[offset] = v }

// Fill initializes every element in offset order.
func (t *Tensor[V]) Fill(fn func(offset int) V) {
	for i := range t.data {
		t.data[i] = fn(i)
	}
}

// All iterates over offsets and elements in offset order.
func (t *Tensor[V]) All() iter.Seq2[int, V] {
	return func(yield func(int, V) bool) {
		for i, v := range t.data {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Clone returns a tensor of the same shape. If fn is non-nil each element is
// copied through it, otherwise elements are copied by value.
func (t *Tensor[V]) Clone(fn CloneFunc[V]) *Tensor[V] {
	res := &Tensor[V]{
		dims:    append([]int(nil), t.dims...),
		strides: append([]int(nil), t.strides...),
		data:    make([]V, len(t.data)),
		coords:  make([]atomic.Pointer[[]int], len(t.data)),
	}
	if fn == nil {
		copy(res.data, t.data)
		return res
	}
	for i, v := range t.data {
		res.data[i] = fn(v)
	}
	return res
}

// CloneSlice is a CloneFunc for slice elements.
func CloneSlice[E any](s []E) []E {
	if s == nil {
		return nil
	}
	return append([]E(nil), s...)
}

// Count returns the number of elements a tensor of the given shape holds.
func Count(dims ...int) int {
	if len(dims) == 0 {
		return 0
	}
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}
