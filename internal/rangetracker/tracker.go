// Package rangetracker tracks, per stream, which byte offsets of an
// outbound byte stream have been sent and which have been
// acknowledged. It is owned by a single stream context and must never
// be shared across goroutines; see internal/replay for how multiple
// trackers are driven concurrently, one per goroutine.
package rangetracker

import "go.uber.org/zap"

// cachedRange memoizes the answer to FirstUnmarkedRange. ok == false
// means "fully covered up to offset" (Option::None in the reference
// design); ok == true means a finite gap of the given length starts
// at offset.
type cachedRange struct {
	offset uint64
	length uint64
	ok     bool
}

// RangeTracker is single-owner and single-threaded: callers must
// serialize all calls, the same way a QUIC stream instance serializes
// access to its own send state.
type RangeTracker struct {
	used   orderedOffsetMap
	cached *cachedRange

	id  string
	log *zap.Logger
}

// Option configures a RangeTracker at construction time.
type Option func(*RangeTracker)

// WithLogger attaches a structured logger used to report the two
// diagnosed (never propagated) anomalies: a Sent mark over an Acked
// region, and an unmark over an Acked region. A nil logger is treated
// as WithLogger(zap.NewNop()).
func WithLogger(l *zap.Logger) Option {
	return func(t *RangeTracker) {
		if l != nil {
			t.log = l
		}
	}
}

// WithID attaches an identifier included on every diagnostic log line,
// letting a caller driving many trackers tell them apart.
func WithID(id string) Option {
	return func(t *RangeTracker) { t.id = id }
}

// New returns an empty RangeTracker.
func New(opts ...Option) *RangeTracker {
	t := &RangeTracker{log: zap.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// HighestOffset returns 0 if the tracker is empty, else the largest
// offset+length over all entries. Entries are disjoint and sorted, so
// the last entry's end is always the maximum (see orderedOffsetMap).
func (t *RangeTracker) HighestOffset() uint64 {
	n := t.used.len()
	if n == 0 {
		return 0
	}
	last := t.used.at(n - 1)
	return last.offset + last.length
}

// AckedFromZero returns the length of the contiguous Acked prefix
// starting at offset 0, or 0 if none. mark_range keeps that prefix
// coalesced into a single entry, so this is a single lookup.
func (t *RangeTracker) AckedFromZero() uint64 {
	e, ok := t.used.get(0)
	if !ok || e.state != Acked {
		return 0
	}
	return e.length
}

// FirstUnmarkedRange returns (start, length, true) identifying the
// first maximal unmarked range, or (highest_offset(), 0, false) when
// the covered region is a single contiguous prefix. The result is
// memoized until the next mutator runs.
func (t *RangeTracker) FirstUnmarkedRange() (offset uint64, length uint64, ok bool) {
	if t.cached != nil {
		return t.cached.offset, t.cached.length, t.cached.ok
	}
	prevEnd := uint64(0)
	for i := 0; i < t.used.len(); i++ {
		e := t.used.at(i)
		if prevEnd == e.offset {
			prevEnd = e.offset + e.length
			continue
		}
		gap := e.offset - prevEnd
		t.cached = &cachedRange{offset: prevEnd, length: gap, ok: true}
		return prevEnd, gap, true
	}
	t.cached = &cachedRange{offset: prevEnd, length: 0, ok: false}
	return prevEnd, 0, false
}

// coalesceAckedFromZero merges the Acked entry anchored at offset 0
// (if any) with every contiguous Acked entry following it into a
// single entry at key 0. Interior adjacent Acked entries are
// deliberately left un-merged: that would make mark_range O(n) in the
// worst case, and nothing downstream needs anything beyond the
// zero-anchored prefix.
func (t *RangeTracker) coalesceAckedFromZero() {
	i0, ok := t.used.indexOf(0)
	if !ok {
		return
	}
	e0 := t.used.at(i0)
	if e0.state != Acked {
		return
	}
	total := e0.length
	var toDelete []uint64
	for {
		next, ok := t.used.get(total)
		if !ok || next.state != Acked {
			break
		}
		toDelete = append(toDelete, next.offset)
		total += next.length
	}
	if len(toDelete) == 0 {
		return
	}
	e0.length = total
	for _, k := range toDelete {
		t.used.deleteOffset(k)
	}
}
