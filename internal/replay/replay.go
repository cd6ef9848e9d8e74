// Package replay drives one or more RangeTrackers from a recorded
// trace. Each tracker_id gets its own RangeTracker and its own
// goroutine; trackers never share state, so replaying many of them
// concurrently with golang.org/x/sync/errgroup is safe even though
// each individual RangeTracker stays single-threaded (spec.md §5).
package replay

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gaby/rangetracker/internal/rangetracker"
	"github.com/gaby/rangetracker/internal/tracefmt"
)

// Result is the post-replay state of one tracker.
type Result struct {
	TrackerID string
	Tracker   *rangetracker.RangeTracker
	OpCount   int
}

// Run groups ops by tracker_id (assigning a fresh uuid to ops that
// omit one), then replays each group's ops in order against its own
// RangeTracker. Up to `concurrency` trackers are replayed at once.
func Run(ctx context.Context, ops []tracefmt.Op, concurrency int, logger *zap.Logger) ([]Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	order, groups := groupByTracker(ops)

	results := make([]Result, len(order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, id := range order {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tr := rangetracker.New(rangetracker.WithID(id), rangetracker.WithLogger(logger))
			for _, op := range groups[id] {
				if err := apply(tr, op); err != nil {
					return fmt.Errorf("replay: tracker %s: %w", id, err)
				}
			}
			results[i] = Result{TrackerID: id, Tracker: tr, OpCount: len(groups[id])}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func groupByTracker(ops []tracefmt.Op) ([]string, map[string][]tracefmt.Op) {
	var order []string
	groups := make(map[string][]tracefmt.Op)
	for _, op := range ops {
		id := op.TrackerID
		if id == "" {
			id = uuid.NewString()
		}
		if _, seen := groups[id]; !seen {
			order = append(order, id)
		}
		groups[id] = append(groups[id], op)
	}
	return order, groups
}

func apply(tr *rangetracker.RangeTracker, op tracefmt.Op) error {
	switch op.Kind {
	case tracefmt.KindMarkSent:
		tr.MarkRange(op.Offset, op.Length, rangetracker.Sent)
	case tracefmt.KindMarkAcked:
		tr.MarkRange(op.Offset, op.Length, rangetracker.Acked)
	case tracefmt.KindUnmark:
		tr.UnmarkRange(op.Offset, op.Length)
	case tracefmt.KindUnmarkSent:
		tr.UnmarkSent()
	default:
		return fmt.Errorf("unknown op kind %d", op.Kind)
	}
	return nil
}
