package rangetracker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func entries(t *RangeTracker) []entry {
	out := make([]entry, t.used.len())
	for i := range out {
		out[i] = *t.used.at(i)
	}
	return out
}

func TestEmptyTracker(t *testing.T) {
	tr := New()
	require.Equal(t, uint64(0), tr.HighestOffset())
	require.Equal(t, uint64(0), tr.AckedFromZero())
	off, length, ok := tr.FirstUnmarkedRange()
	require.False(t, ok)
	require.Equal(t, uint64(0), off)
	require.Equal(t, uint64(0), length)
}

func TestMarkSentThenAcked(t *testing.T) {
	tr := New()
	tr.MarkRange(0, 100, Sent)
	tr.MarkRange(0, 100, Acked)
	require.Equal(t, uint64(100), tr.AckedFromZero())
	got := entries(tr)
	require.Len(t, got, 1)
	require.Equal(t, entry{offset: 0, length: 100, state: Acked}, got[0])
}

func TestAckedPrefixCoalescesOutOfOrder(t *testing.T) {
	tr := New()
	tr.MarkRange(0, 1000, Acked)
	tr.MarkRange(2000, 1000, Acked)
	tr.MarkRange(1000, 1000, Acked)
	got := entries(tr)
	require.Len(t, got, 1)
	require.Equal(t, entry{offset: 0, length: 3000, state: Acked}, got[0])
	require.Equal(t, uint64(3000), tr.AckedFromZero())
}

func TestSentNeverDowngradesAcked(t *testing.T) {
	tr := New()
	tr.MarkRange(0, 1000, Acked)
	tr.MarkRange(500, 500, Sent)
	got := entries(tr)
	require.Len(t, got, 1)
	require.Equal(t, entry{offset: 0, length: 1000, state: Acked}, got[0])
}

func TestUnmarkRangeSplitsSentEntry(t *testing.T) {
	tr := New()
	tr.MarkRange(0, 1000, Sent)
	tr.UnmarkRange(200, 300)
	got := entries(tr)
	require.Equal(t, []entry{
		{offset: 0, length: 200, state: Sent},
		{offset: 500, length: 500, state: Sent},
	}, got)
	off, length, ok := tr.FirstUnmarkedRange()
	require.True(t, ok)
	require.Equal(t, uint64(200), off)
	require.Equal(t, uint64(300), length)
}

func TestBenchmarkWorkloadCoalescesInOneCall(t *testing.T) {
	tr := New()
	tr.MarkRange(1000, 100000, Sent)
	tr.MarkRange(0, 1000, Acked)
	for i := 1; i < 1000; i++ {
		tr.MarkRange(uint64(i+1)*1000, 1000, Acked)
	}
	tr.MarkRange(1000, 1000, Acked)

	got := entries(tr)
	require.Len(t, got, 1, "the trailing Acked entries must coalesce with the newly-acknowledged prefix in one call")
	require.Equal(t, uint64(0), got[0].offset)
	require.Equal(t, uint64(1001000), tr.AckedFromZero())
}

func TestUnmarkSentRetainsAcked(t *testing.T) {
	tr := New()
	tr.MarkRange(0, 100, Acked)
	tr.MarkRange(100, 100, Sent)
	tr.UnmarkSent()
	got := entries(tr)
	require.Len(t, got, 1)
	require.Equal(t, entry{offset: 0, length: 100, state: Acked}, got[0])
	require.Equal(t, uint64(100), tr.HighestOffset())
}

func TestUnmarkSentIdempotent(t *testing.T) {
	tr := New()
	tr.MarkRange(0, 50, Sent)
	tr.MarkRange(50, 50, Acked)
	tr.MarkRange(100, 50, Sent)
	tr.UnmarkSent()
	first := entries(tr)
	tr.UnmarkSent()
	second := entries(tr)
	require.Equal(t, first, second)
}

func TestMarkRangeZeroLengthIsNoop(t *testing.T) {
	tr := New()
	tr.MarkRange(0, 100, Sent)
	_, _, _ = tr.FirstUnmarkedRange() // populate cache
	tr.MarkRange(50, 0, Acked)
	require.NotNil(t, tr.cached, "zero-length mark_range must not touch the cache")
}

func TestUnmarkRangeZeroLengthIsNoop(t *testing.T) {
	tr := New()
	tr.MarkRange(0, 100, Sent)
	_, _, _ = tr.FirstUnmarkedRange()
	tr.UnmarkRange(10, 0)
	require.NotNil(t, tr.cached)
}

func TestUnmarkRangeIgnoresAckedOverlap(t *testing.T) {
	tr := New()
	tr.MarkRange(0, 100, Acked)
	tr.UnmarkRange(20, 30)
	got := entries(tr)
	require.Len(t, got, 1)
	require.Equal(t, entry{offset: 0, length: 100, state: Acked}, got[0])
}

func TestCacheIsStableAcrossReads(t *testing.T) {
	tr := New()
	tr.MarkRange(0, 10, Sent)
	tr.MarkRange(20, 10, Sent)
	a1, b1, ok1 := tr.FirstUnmarkedRange()
	a2, b2, ok2 := tr.FirstUnmarkedRange()
	require.Equal(t, a1, a2)
	require.Equal(t, b1, b2)
	require.Equal(t, ok1, ok2)
}

func TestHighestOffsetMonotoneUnderMark(t *testing.T) {
	tr := New()
	require.Equal(t, uint64(0), tr.HighestOffset())
	tr.MarkRange(0, 10, Sent)
	require.Equal(t, uint64(10), tr.HighestOffset())
	tr.MarkRange(5, 5, Acked)
	require.Equal(t, uint64(10), tr.HighestOffset())
	tr.MarkRange(100, 1, Sent)
	require.Equal(t, uint64(101), tr.HighestOffset())
}

func TestMarkRangeOverflowPanics(t *testing.T) {
	tr := New()
	require.Panics(t, func() {
		tr.MarkRange(^uint64(0)-5, 10, Sent)
	})
}
