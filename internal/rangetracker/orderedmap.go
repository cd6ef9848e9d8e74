package rangetracker

import "sort"

// entry is one (offset, length, state) triple stored in an
// orderedOffsetMap, keyed by offset.
type entry struct {
	offset uint64
	length uint64
	state  RangeState
}

func (e entry) end() uint64 { return e.offset + e.length }

// orderedOffsetMap is an ordered associative container keyed by byte
// offset, backed by a slice kept sorted ascending by offset. Range
// counts stay small in steady state, so the O(n) shifts on
// insert/delete are cheap in practice and the structure stays simple
// to reason about under mutation-during-iteration, which the map's
// callers (mark_range, unmark_range) require.
//
// The slice is searched with sort.Search and walked in index order;
// there is no balanced tree.
type orderedOffsetMap struct {
	entries []entry
}

func (m *orderedOffsetMap) len() int { return len(m.entries) }

// indexOf returns the index of the entry with the given offset and
// true, or the index at which such an entry would be inserted and
// false.
func (m *orderedOffsetMap) indexOf(offset uint64) (int, bool) {
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].offset >= offset
	})
	if i < len(m.entries) && m.entries[i].offset == offset {
		return i, true
	}
	return i, false
}

// get returns the exact-match entry at offset, if any.
func (m *orderedOffsetMap) get(offset uint64) (entry, bool) {
	i, ok := m.indexOf(offset)
	if !ok {
		return entry{}, false
	}
	return m.entries[i], true
}

// at returns a pointer to the i'th entry in ascending order, for
// in-place mutation of length/state without disturbing ordering.
func (m *orderedOffsetMap) at(i int) *entry { return &m.entries[i] }

// floorIndex returns the index of the greatest entry whose offset is
// strictly less than offset, or -1 if none exists.
func (m *orderedOffsetMap) floorIndex(offset uint64) int {
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].offset >= offset
	})
	return i - 1
}

// ceilIndex returns the index of the first entry whose offset is
// greater than or equal to offset, or len(m.entries) if none.
func (m *orderedOffsetMap) ceilIndex(offset uint64) int {
	return sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].offset >= offset
	})
}

// set inserts e, or overwrites the entry that exactly matches e's
// offset if one exists. Callers are responsible for disjointness.
func (m *orderedOffsetMap) set(e entry) {
	i, ok := m.indexOf(e.offset)
	if ok {
		m.entries[i] = e
		return
	}
	m.entries = append(m.entries, entry{})
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = e
}

// deleteAt removes the entry at index i.
func (m *orderedOffsetMap) deleteAt(i int) {
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
}

// deleteOffset removes the exact-match entry at offset, if any.
func (m *orderedOffsetMap) deleteOffset(offset uint64) {
	if i, ok := m.indexOf(offset); ok {
		m.deleteAt(i)
	}
}
