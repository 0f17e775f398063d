package allreduce

import (
	"context"

	"github.com/unixpickle/dist-reduce/collcomm"
)

// A NaiveAllreducer sends every rank's vector to every
// other rank, and each rank reduces all of them locally.
type NaiveAllreducer struct{}

// Allreduce reduces the vectors in rank order on every
// rank.
func (n NaiveAllreducer) Allreduce(ctx context.Context, c *collcomm.Comm, data []float64,
	op collcomm.Op) ([]float64, error) {
	r := c.NewRound()
	for dst := 0; dst < c.Size(); dst++ {
		if dst != c.Rank() {
			if err := r.Send(dst, data); err != nil {
				return nil, err
			}
		}
	}

	gathered := make([][]float64, c.Size())
	gathered[c.Rank()] = data
	for i := 0; i < c.Size()-1; i++ {
		incoming, src, err := r.RecvAny(ctx)
		if err != nil {
			return nil, err
		}
		gathered[src] = incoming
	}

	c.Work(len(gathered) * len(data))
	return op.Reduce(gathered...), nil
}
