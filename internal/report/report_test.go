package report

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaby/rangetracker/internal/replay"
	"github.com/gaby/rangetracker/internal/tracefmt"
)

func TestBuildAndWriteReport(t *testing.T) {
	results, err := replay.Run(context.Background(), tracefmt.Scenario6("bench"), 1, nil)
	require.NoError(t, err)

	lines := Build(results)
	require.Len(t, lines, 1)
	require.Equal(t, "bench", lines[0].TrackerID)
	require.True(t, lines[0].FullyCovered)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, lines))
	require.Contains(t, buf.String(), "tracker=bench")
	require.Contains(t, buf.String(), "fully covered")
}

func TestBuildReportsFirstGap(t *testing.T) {
	results, err := replay.Run(context.Background(), []tracefmt.Op{
		{TrackerID: "x", Kind: tracefmt.KindMarkSent, Offset: 0, Length: 100},
		{TrackerID: "x", Kind: tracefmt.KindUnmark, Offset: 20, Length: 10},
	}, 1, nil)
	require.NoError(t, err)

	lines := Build(results)
	require.Len(t, lines, 1)
	require.False(t, lines[0].FullyCovered)
	require.Equal(t, uint64(20), lines[0].FirstGapOffset)
	require.Equal(t, uint64(10), lines[0].FirstGapLength)
}
