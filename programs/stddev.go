package programs

import (
	"context"
	"math"

	"github.com/unixpickle/dist-reduce/collcomm"
	"github.com/unixpickle/dist-reduce/collcomm/allreduce"
	"github.com/unixpickle/dist-reduce/reducer"
)

// MaxStdDevElements is the largest dataset StdDev
// accepts.
const MaxStdDevElements = 10

// StdDevResult is the coordinator's output of StdDev.
type StdDevResult struct {
	Mean   float64
	StdDev float64

	// Elapsed is the slowest rank's time spent in the
	// timed region, in seconds.
	Elapsed float64
}

// ValidateStdDev checks the dataset size for StdDev.
func ValidateStdDev(n, size int) error {
	if err := reducer.CheckRange(n, 1, MaxStdDevElements); err != nil {
		return err
	}
	return reducer.CheckPartitioning(n, size)
}

// StdDev computes the population standard deviation of
// the coordinator's n values.
//
// The mean is computed with an allreduce so every rank
// can sum its squared deviations, which are then reduced
// at the coordinator.
// Everything after the initial scatter is timed.
func StdDev(ctx context.Context, c *collcomm.Comm, n int, data []float64,
	ar allreduce.Allreducer) (*StdDevResult, error) {
	if err := ValidateStdDev(n, c.Size()); err != nil {
		return nil, err
	}
	partition, err := reducer.ScatterRank(ctx, c, n, data)
	if err != nil {
		return nil, err
	}

	if err := c.Barrier(ctx); err != nil {
		return nil, err
	}
	start := c.Now()

	sum := &reducer.Reducer{Combine: collcomm.Sum, Mode: reducer.AllReduce, Allreducer: ar}
	total, _, err := sum.CombineRank(ctx, c, reducer.LocalFold(partition, collcomm.Sum))
	if err != nil {
		return nil, err
	}
	mean := total / float64(n)

	var squares float64
	for _, x := range partition {
		squares += (x - mean) * (x - mean)
	}
	c.Work(3 * len(partition))

	deviations := &reducer.Reducer{Combine: collcomm.Sum, Mode: reducer.ReduceToCoordinator}
	totalSquares, isRoot, err := deviations.CombineRank(ctx, c, squares)
	if err != nil {
		return nil, err
	}

	slowest := &reducer.Reducer{Combine: collcomm.Max, Mode: reducer.ReduceToCoordinator}
	elapsed, _, err := slowest.CombineRank(ctx, c, c.Now()-start)
	if err != nil || !isRoot {
		return nil, err
	}

	return &StdDevResult{
		Mean:    mean,
		StdDev:  math.Sqrt(totalSquares / float64(n)),
		Elapsed: elapsed,
	}, nil
}
