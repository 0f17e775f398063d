package programs

import (
	"context"
	"math"

	"github.com/unixpickle/dist-reduce/collcomm"
	"github.com/unixpickle/dist-reduce/reducer"
)

// DefaultBcastCount is the length of the broadcast
// sequence used by the CLI.
const DefaultBcastCount = 4

// ValidateBcast checks the sequence length for
// BcastReduce.
func ValidateBcast(count int) error {
	return reducer.CheckRange(count, 1, math.MaxInt32)
}

// BcastInput is the sequence 0, 1, ..., count-1 that
// BcastReduce starts from.
func BcastInput(count int) []float64 {
	res := make([]float64, count)
	for i := range res {
		res[i] = float64(i)
	}
	return res
}

// BcastReduce broadcasts BcastInput(count) from the
// coordinator, adds each rank's index to every element,
// and multiplies the vectors together elementwise at the
// coordinator.
func BcastReduce(ctx context.Context, c *collcomm.Comm, count int) ([]float64, bool, error) {
	if err := ValidateBcast(count); err != nil {
		return nil, false, err
	}
	var input []float64
	if c.IsCoordinator() {
		input = BcastInput(count)
	}
	vec, err := c.Bcast(ctx, 0, input)
	if err != nil {
		return nil, false, err
	}
	for i := range vec {
		vec[i] += float64(c.Rank())
	}
	res, err := c.Reduce(ctx, 0, vec, collcomm.Prod)
	if err != nil || res == nil {
		return nil, false, err
	}
	return res, true, nil
}
