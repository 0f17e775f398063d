package allreduce

import (
	"context"

	"github.com/unixpickle/dist-reduce/collcomm"
)

// A RingAllreducer passes segments of the vector around a
// ring of ranks.
//
// The first Size()-1 steps reduce-scatter, leaving each
// rank with one fully reduced segment; the next Size()-1
// steps pass the reduced segments around until every rank
// has all of them.
//
// Vectors shorter than the ring are reduced with a
// TreeAllreducer instead.
type RingAllreducer struct{}

// Allreduce runs the ring algorithm.
func (r RingAllreducer) Allreduce(ctx context.Context, c *collcomm.Comm, data []float64,
	op collcomm.Op) ([]float64, error) {
	size := c.Size()
	if len(data) < size {
		return TreeAllreducer{}.Allreduce(ctx, c, data, op)
	}

	segments := splitSegments(append([]float64{}, data...), size)
	rank := c.Rank()
	next := (rank + 1) % size
	prev := (rank - 1 + size) % size

	// Each step gets its own round, since messages from
	// one neighbor may otherwise be reordered.
	step := func(sendIdx int) ([]float64, error) {
		round := c.NewRound()
		if err := round.Send(next, segments[sendIdx]); err != nil {
			return nil, err
		}
		return round.Recv(ctx, prev)
	}

	for s := 0; s < size-1; s++ {
		sendIdx := (rank - s + size) % size
		recvIdx := (rank - s - 1 + size) % size
		incoming, err := step(sendIdx)
		if err != nil {
			return nil, err
		}
		segments[recvIdx] = op.Reduce(incoming, segments[recvIdx])
		c.Work(2 * len(incoming))
	}

	for s := 0; s < size-1; s++ {
		sendIdx := (rank + 1 - s + size) % size
		recvIdx := (rank - s + size) % size
		incoming, err := step(sendIdx)
		if err != nil {
			return nil, err
		}
		segments[recvIdx] = incoming
	}

	res := make([]float64, 0, len(data))
	for _, seg := range segments {
		res = append(res, seg...)
	}
	return res, nil
}

// splitSegments cuts data into n contiguous segments whose
// lengths differ by at most one.
func splitSegments(data []float64, n int) [][]float64 {
	res := make([][]float64, n)
	base, extra := len(data)/n, len(data)%n
	var start int
	for i := range res {
		end := start + base
		if i < extra {
			end++
		}
		res[i] = data[start:end]
		start = end
	}
	return res
}
