// Copyright 2026 the Glaze Authors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package mem

import (
	"cmp"
	"iter"
	"sort"

	"golang.org/x/exp/constraints"
)

// OrderedMap is a sorted-slice map with arena-backed storage and tombstone
// deletion. It services the merge-key lookups of the batching pass, where
// maps are tiny, short-lived, and rebuilt every frame; rebalancing trees or
// hashing would be wasted work at these sizes.
type OrderedMap[K constraints.Ordered, V any] struct {
	entries []orderedMapEntry[K, V]
}

type orderedMapEntry[K constraints.Ordered, V any] struct {
	key     K
	value   V
	deleted bool
}

func (m *OrderedMap[K, V]) find(key K) (*orderedMapEntry[K, V], bool) {
	idx, ok := sort.Find(len(m.entries), func(i int) int {
		return cmp.Compare(key, m.entries[i].key)
	})
	if !ok {
		return nil, false
	}
	return &m.entries[idx], true
}

func (m *OrderedMap[K, V]) Insert(a *Arena, key K, value V) {
	idx := sort.Search(len(m.entries), func(i int) bool {
		return key <= m.entries[i].key
	})
	if idx == len(m.entries) || m.entries[idx].key != key {
		m.entries = insertAt(a, m.entries, idx, orderedMapEntry[K, V]{key, value, false})
	} else {
		e := &m.entries[idx]
		e.value = value
		e.deleted = false
	}
}

func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	if e, ok := m.find(key); ok && !e.deleted {
		return e.value, true
	}
	return *new(V), false
}

// Delete tombstones the key. It reports whether the key was present and
// live.
func (m *OrderedMap[K, V]) Delete(key K) bool {
	if e, ok := m.find(key); ok {
		wasDeleted := e.deleted
		e.deleted = true
		return !wasDeleted
	}
	return false
}

func (m *OrderedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, e := range m.entries {
			if e.deleted {
				continue
			}
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

func insertAt[S ~[]E, E any](a *Arena, s S, i int, v E) S {
	if i == len(s) {
		return Append(a, s, v)
	}
	if cap(s) > len(s) {
		s = s[:len(s)+1]
		copy(s[i+1:], s[i:])
		s[i] = v
		return s
	}
	s2 := NewSlice[S](a, len(s)+1, (len(s)+1)*2)
	copy(s2, s[:i])
	s2[i] = v
	copy(s2[i+1:], s[i:])
	return s2
}
