// Package report renders post-replay tracker state as a human-
// readable summary for the rangebench CLI.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/gaby/rangetracker/internal/replay"
)

// Line is one tracker's summary row.
type Line struct {
	TrackerID      string
	OpCount        int
	HighestOffset  uint64
	AckedFromZero  uint64
	FirstGapOffset uint64
	FirstGapLength uint64
	FullyCovered   bool
}

// Build turns replay results into sorted, deterministic report lines.
func Build(results []replay.Result) []Line {
	lines := make([]Line, len(results))
	for i, r := range results {
		gapOff, gapLen, ok := r.Tracker.FirstUnmarkedRange()
		lines[i] = Line{
			TrackerID:      r.TrackerID,
			OpCount:        r.OpCount,
			HighestOffset:  r.Tracker.HighestOffset(),
			AckedFromZero:  r.Tracker.AckedFromZero(),
			FirstGapOffset: gapOff,
			FirstGapLength: gapLen,
			FullyCovered:   !ok,
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].TrackerID < lines[j].TrackerID })
	return lines
}

// Write prints one line per tracker with humanized byte counts.
func Write(w io.Writer, lines []Line) error {
	for _, l := range lines {
		gap := "none (fully covered)"
		if !l.FullyCovered {
			gap = fmt.Sprintf("%s at offset %s", humanize.Bytes(l.FirstGapLength), humanize.Comma(int64(l.FirstGapOffset)))
		}
		_, err := fmt.Fprintf(w, "tracker=%s ops=%d highest_offset=%s acked_from_zero=%s first_gap=%s\n",
			l.TrackerID,
			l.OpCount,
			humanize.Bytes(l.HighestOffset),
			humanize.Bytes(l.AckedFromZero),
			gap,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
