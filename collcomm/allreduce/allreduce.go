// Package allreduce implements algorithms for combining
// vectors held by every rank so that every rank ends up
// with the same reduced vector.
package allreduce

import (
	"context"

	"github.com/unixpickle/dist-reduce/collcomm"
)

// An Allreducer applies an Op across one vector per rank
// and delivers the result to every rank.
//
// Every rank must pass a vector of the same length.
// All ranks get bitwise identical results, even when
// floating-point rounding makes the Op slightly
// order-dependent.
type Allreducer interface {
	Allreduce(ctx context.Context, c *collcomm.Comm, data []float64,
		op collcomm.Op) ([]float64, error)
}
