package allreduce

import (
	"context"

	"github.com/unixpickle/dist-reduce/collcomm"
)

// A TreeAllreducer arranges the ranks in a binary tree,
// reduces up the tree to rank 0, and then sends the
// result back down.
type TreeAllreducer struct{}

// Allreduce reduces along the tree and returns the root's
// result.
func (t TreeAllreducer) Allreduce(ctx context.Context, c *collcomm.Comm, data []float64,
	op collcomm.Op) ([]float64, error) {
	r := c.NewRound()
	parent, children := positionInTree(c)

	vecs := [][]float64{data}
	for _, child := range children {
		msg, err := r.Recv(ctx, child)
		if err != nil {
			return nil, err
		}
		vecs = append(vecs, msg)
	}

	result := op.Reduce(vecs...)
	c.Work(len(vecs) * len(data))
	if parent >= 0 {
		if err := r.Send(parent, result); err != nil {
			return nil, err
		}
		var err error
		result, err = r.Recv(ctx, parent)
		if err != nil {
			return nil, err
		}
	}

	for _, child := range children {
		if err := r.Send(child, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// positionInTree finds the parent and children of the
// current rank, laid out row by row like a binary heap.
//
// The root has parent -1, and leaves have no children.
func positionInTree(c *collcomm.Comm) (parent int, children []int) {
	idx := c.Rank()
	parent = -1
	if idx > 0 {
		parent = (idx - 1) / 2
	}
	for _, child := range []int{2*idx + 1, 2*idx + 2} {
		if child < c.Size() {
			children = append(children, child)
		}
	}
	return
}
