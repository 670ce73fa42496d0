// Package sparsetile implements the sparse tile array (§4.B): a flat array
// of N tiles where most entries may be absent, supporting allocation-free
// iteration that skips absent entries and concurrency-safe construction.
package sparsetile

import "sync"

// Array is a flat, fixed-length array of *T where a nil entry means
// "absent" — the tile carries no meaningful payload and should be skipped
// by readers without allocation. Indexing matches a parent grid.TileGrid's
// flat tile index space.
type Array[T any] struct {
	items []*T
}

// NewArray allocates a sparse array of n entries, all initially absent.
func NewArray[T any](n int) *Array[T] {
	return &Array[T]{items: make([]*T, n)}
}

// Len returns the number of slots (present or absent).
func (a *Array[T]) Len() int { return len(a.items) }

// Get returns the tile at flat index i, or nil if absent.
func (a *Array[T]) Get(i int) *T { return a.items[i] }

// Set stores (or clears, with nil) the tile at flat index i.
func (a *Array[T]) Set(i int, v *T) { a.items[i] = v }

// ForEach calls cb for every present tile, in ascending flat-index order,
// skipping absent slots without allocation.
func (a *Array[T]) ForEach(cb func(flat int, v *T)) {
	for i, v := range a.items {
		if v != nil {
			cb(i, v)
		}
	}
}

// Count returns the number of present (non-nil) tiles.
func (a *Array[T]) Count() int {
	n := 0
	for _, v := range a.items {
		if v != nil {
			n++
		}
	}
	return n
}

// Builder accumulates tiles into an Array from multiple goroutines, one
// per-tile lock at a time, matching the egress builder's requirement that
// "mutations of a single tile by multiple stop threads must be serialised
// (tile-local lock)" (§4.E).
type Builder[T any] struct {
	mu    []sync.Mutex
	array *Array[T]
}

// NewBuilder allocates a Builder backing an n-entry sparse array, one mutex
// per tile so concurrent writers to different tiles never contend.
func NewBuilder[T any](n int) *Builder[T] {
	return &Builder[T]{mu: make([]sync.Mutex, n), array: NewArray[T](n)}
}

// WithTile locks tile i, calls fn with its current (possibly nil) payload,
// and stores whatever fn returns. fn is responsible for merging with the
// existing payload if one is present.
func (b *Builder[T]) WithTile(i int, fn func(existing *T) *T) {
	b.mu[i].Lock()
	defer b.mu[i].Unlock()
	b.array.items[i] = fn(b.array.items[i])
}

// Freeze returns the built Array. Must only be called after all concurrent
// WithTile calls have completed (e.g. after a sync.WaitGroup.Wait()).
func (b *Builder[T]) Freeze() *Array[T] { return b.array }
