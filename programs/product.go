package programs

import (
	"context"
	"math"

	"github.com/unixpickle/dist-reduce/collcomm"
	"github.com/unixpickle/dist-reduce/reducer"
)

// ScatterGatherProduct computes the product of the
// coordinator's data, which holds perRank values for every
// rank.
//
// Each rank multiplies its block, the partial products are
// gathered at the coordinator, and the coordinator
// multiplies them.
func ScatterGatherProduct(ctx context.Context, c *collcomm.Comm, perRank int,
	data []float64) (float64, bool, error) {
	if err := reducer.CheckRange(perRank, 1, math.MaxInt32); err != nil {
		return 0, false, err
	}
	partition, err := reducer.ScatterRank(ctx, c, perRank*c.Size(), data)
	if err != nil {
		return 0, false, err
	}
	partial := reducer.LocalFold(partition, collcomm.Prod)
	c.Work(len(partition))

	partials, err := c.Gather(ctx, 0, []float64{partial})
	if err != nil || !c.IsCoordinator() {
		return 0, false, err
	}
	product := collcomm.Prod.Identity()
	for _, p := range partials {
		product = collcomm.Prod.Apply(product, p[0])
	}
	return product, true, nil
}

// ScatterReduceProduct is like ScatterGatherProduct, but
// the partial products are combined with a reduce.
func ScatterReduceProduct(ctx context.Context, c *collcomm.Comm, perRank int,
	data []float64) (float64, bool, error) {
	if err := reducer.CheckRange(perRank, 1, math.MaxInt32); err != nil {
		return 0, false, err
	}
	r := &reducer.Reducer{
		Fold:    collcomm.Prod,
		Combine: collcomm.Prod,
		Mode:    reducer.ReduceToCoordinator,
	}
	return r.ReduceRank(ctx, c, perRank*c.Size(), data)
}
