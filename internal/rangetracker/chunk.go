package rangetracker

import (
	"fmt"

	"go.uber.org/zap"
)

// checkedEnd computes off+length, panicking on overflow past
// math.MaxUint64. The offset space is 64-bit; wrapping past it is a
// programmer error, never a value the tracker should silently accept.
func checkedEnd(off, length uint64) uint64 {
	end := off + length
	if end < off {
		panic(fmt.Sprintf("rangetracker: offset overflow: %d + %d exceeds the uint64 offset space", off, length))
	}
	return end
}

// MarkRange merges [off, off+length) into the tracker as state,
// re-partitioning existing coverage along the new range's edges so
// every resulting chunk either falls entirely in a hole or coincides
// exactly with an entry (chunk_range_on_edges in the reference
// design). len==0 is a no-op that does not touch the cache.
//
// Marking Sent over an existing Acked region is a no-op on the
// overlap: Acked is absorbing and is never downgraded. The new
// range's portions outside that overlap still apply normally.
func (t *RangeTracker) MarkRange(off, length uint64, state RangeState) {
	if length == 0 {
		return
	}
	end := checkedEnd(off, length)
	t.cached = nil
	m := &t.used

	// 1. Left split: the entry whose offset is strictly less than off,
	// if it overlaps off, is trimmed at off and its overlap becomes a
	// new entry at exactly off carrying the pre-existing state. The
	// middle walk below then owns that new entry (an entry whose
	// offset ties the new range's left edge is handled there, never
	// here), so it is fine that we insert it eagerly: the walk
	// recomputes its starting index after this split runs.
	if fi := m.floorIndex(off); fi >= 0 {
		left := m.at(fi)
		if left.end() > off {
			leftoverLen := left.end() - off
			leftoverState := left.state
			left.length = off - left.offset
			m.set(entry{offset: off, length: leftoverLen, state: leftoverState})
		}
	}

	// 2. Middle walk: collect replacement chunks for [off, end) without
	// mutating the map mid-walk, per the side-buffer discipline
	// required when an iteration must tolerate later insertions and
	// removals.
	startIdx := m.ceilIndex(off)
	var chunks []entry
	var rightSplit *entry
	tracked := off
	i := startIdx
	for i < m.len() {
		e := *m.at(i)
		if e.offset >= end {
			break
		}
		if tracked < e.offset {
			chunks = append(chunks, entry{offset: tracked, length: e.offset - tracked, state: state})
		}
		sub := e.length
		if rem := end - e.offset; rem < sub {
			sub = rem
		}
		if state == Sent && e.state == Acked {
			// Invariant 2: never downgrade Acked. Keep the overlap as-is.
			chunks = append(chunks, entry{offset: e.offset, length: sub, state: e.state})
			t.log.Debug("mark_range(Sent) ignored over Acked region",
				zap.String("tracker_id", t.id), zap.Uint64("offset", e.offset), zap.Uint64("length", sub))
		} else {
			chunks = append(chunks, entry{offset: e.offset, length: sub, state: state})
		}
		if e.end() > end {
			rightSplit = &entry{offset: end, length: e.end() - end, state: e.state}
		}
		tracked = e.offset + sub
		i++
	}
	endIdx := i
	if tracked < end {
		chunks = append(chunks, entry{offset: tracked, length: end - tracked, state: state})
	}

	// 3/4. Right split + tail are already represented in rightSplit and
	// the final chunk above. Splice [startIdx, endIdx) out and write
	// the replacement chunks back in.
	m.entries = append(m.entries[:startIdx], m.entries[endIdx:]...)
	for _, c := range chunks {
		if c.length == 0 {
			continue
		}
		m.set(c)
	}
	if rightSplit != nil {
		m.set(*rightSplit)
	}

	t.coalesceAckedFromZero()
}

// UnmarkRange removes Sent coverage intersecting [off, off+length),
// restoring it to unmarked. Any Acked coverage in that interval is
// preserved unchanged: Acked is absorbing.
func (t *RangeTracker) UnmarkRange(off, length uint64) {
	if length == 0 {
		return
	}
	end := checkedEnd(off, length)
	t.cached = nil
	m := &t.used

	var toRemove []uint64
	var reinsert *entry

	// Descending walk over entries with key < end.
	i := m.ceilIndex(end) - 1
	for i >= 0 {
		e := m.at(i)
		if e.offset >= off {
			// Entry starts inside [off, end).
			if e.state == Sent {
				toRemove = append(toRemove, e.offset)
				if e.end() > end {
					// At most one such re-insertion: the map is disjoint, so
					// only the single entry straddling the right edge can
					// extend past `end`.
					reinsert = &entry{offset: end, length: e.end() - end, state: Sent}
				}
			} else {
				t.log.Debug("unmark_range ignored over Acked region",
					zap.String("tracker_id", t.id), zap.Uint64("offset", e.offset), zap.Uint64("length", e.length))
			}
			i--
			continue
		}
		// The floor entry: its key is < off. If it reaches into the
		// unmark range at all, it may straddle BOTH edges at once (e.g.
		// a single entry covering the whole range) — trim its left
		// remainder in place and, if it also extends past `end`,
		// re-insert its right remainder, same as the in-range case
		// above.
		if e.end() > off && e.state == Sent {
			if e.end() > end {
				reinsert = &entry{offset: end, length: e.end() - end, state: Sent}
			}
			e.length = off - e.offset
		}
		// Acked: left intact, per invariant 2.
		break
	}

	for _, k := range toRemove {
		m.deleteOffset(k)
	}
	if reinsert != nil {
		m.set(*reinsert)
	}
}

// UnmarkSent erases every Sent entry, retaining every Acked entry. It
// is used on connection migration, when everything believed to be "in
// flight" must be considered lost.
func (t *RangeTracker) UnmarkSent() {
	t.UnmarkRange(0, t.HighestOffset())
}
