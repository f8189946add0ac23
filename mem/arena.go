// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package mem implements the per-frame arena allocator used by the deferral
// pass. Baked states, batches and layer builders are allocated here and
// freed en masse by Reset when the frame's processing completes; there is no
// per-object free. The arena is exclusively owned by one frame builder and
// must not be touched from another goroutine.
package mem

import (
	"reflect"
)

// Elements per freshly grown slab. Slabs are retained across Reset so
// steady-state frames allocate nothing.
const slabElems = 1024

type pool interface {
	reset()
}

type Arena struct {
	pools map[reflect.Type]pool
}

func NewArena() *Arena {
	return &Arena{
		pools: make(map[reflect.Type]pool),
	}
}

// Reset invalidates everything allocated from the arena and makes its
// memory available for reuse. Used slab prefixes are zeroed so the arena
// doesn't keep Go pointers alive across frames.
func (a *Arena) Reset() {
	for _, p := range a.pools {
		p.reset()
	}
}

type slabPool[T any] struct {
	slabs [][]T
	cur   int // index of the slab being filled
	off   int // next free element in slabs[cur]
}

func (p *slabPool[T]) reset() {
	var zero T
	for i := 0; i <= p.cur && i < len(p.slabs); i++ {
		slab := p.slabs[i]
		n := len(slab)
		if i == p.cur {
			n = p.off
		}
		for j := 0; j < n; j++ {
			slab[j] = zero
		}
	}
	p.cur = 0
	p.off = 0
}

func poolFor[T any](a *Arena) *slabPool[T] {
	typ := reflect.TypeFor[T]()
	if p, ok := a.pools[typ]; ok {
		return p.(*slabPool[T])
	}
	p := &slabPool[T]{}
	a.pools[typ] = p
	return p
}

// alloc returns n contiguous zeroed elements.
func (p *slabPool[T]) alloc(n int) []T {
	for p.cur < len(p.slabs) {
		slab := p.slabs[p.cur]
		if len(slab)-p.off >= n {
			s := slab[p.off : p.off+n : p.off+n]
			p.off += n
			return s
		}
		p.cur++
		p.off = 0
	}
	size := slabElems
	if n > size {
		size = n
	}
	slab := make([]T, size)
	p.slabs = append(p.slabs, slab)
	p.cur = len(p.slabs) - 1
	p.off = n
	return slab[0:n:n]
}

// New allocates a zeroed T from the arena.
func New[T any](a *Arena) *T {
	return &poolFor[T](a).alloc(1)[0]
}

// Make allocates a T and initializes it with v.
func Make[T any](a *Arena, v T) *T {
	ptr := New[T](a)
	*ptr = v
	return ptr
}

// NewSlice allocates a slice from the arena. The full capacity is zeroed.
func NewSlice[T ~[]E, E any](a *Arena, length, capacity int) T {
	if capacity == 0 {
		return nil
	}
	return T(poolFor[E](a).alloc(capacity)[:length])
}

// MakeSlice allocates an arena copy of values.
func MakeSlice[T ~[]E, E any](a *Arena, values T) T {
	s := NewSlice[T, E](a, len(values), len(values))
	copy(s, values)
	return s
}

// Append appends to an arena slice, reallocating from the arena when
// capacity runs out. The old backing memory is not reclaimed until Reset.
func Append[T ~[]E, E any](a *Arena, s T, data ...E) T {
	s = growSlice(a, s, len(data))
	return append(s, data...)
}

func growSlice[T ~[]E, E any](a *Arena, s T, n int) T {
	const growThreshold = 256
	newLen := len(s) + n
	newCap := cap(s)
	if newCap > 0 {
		for newLen > newCap {
			if newCap < growThreshold {
				newCap *= 2
			} else {
				newCap += newCap / 4
			}
		}
	} else {
		newCap = n
	}
	if newCap == cap(s) {
		return s
	}
	s2 := NewSlice[T, E](a, len(s), newCap)
	copy(s2, s)
	return s2
}
