package collcomm

import (
	"context"
	"fmt"
)

// Bcast sends the root's vector to every rank.
//
// The vec argument is ignored on non-root ranks.
// Every rank returns its own copy of the root's vector.
func (c *Comm) Bcast(ctx context.Context, root int, vec []float64) ([]float64, error) {
	r := c.NewRound()
	if c.Rank() != root {
		return r.Recv(ctx, root)
	}
	for dst := 0; dst < c.Size(); dst++ {
		if dst != root {
			if err := r.Send(dst, vec); err != nil {
				return nil, err
			}
		}
	}
	return append([]float64{}, vec...), nil
}

// Scatter splits the root's data into Size() contiguous,
// equal blocks and hands block i to rank i.
//
// The data argument is ignored on non-root ranks.
// The root's data must divide evenly across the group.
func (c *Comm) Scatter(ctx context.Context, root int, data []float64) ([]float64, error) {
	r := c.NewRound()
	if c.Rank() != root {
		return r.Recv(ctx, root)
	}
	if len(data)%c.Size() != 0 {
		panic(fmt.Sprintf("cannot scatter %d values over %d ranks", len(data), c.Size()))
	}
	chunk := len(data) / c.Size()
	for dst := 0; dst < c.Size(); dst++ {
		if dst != root {
			if err := r.Send(dst, data[dst*chunk:(dst+1)*chunk]); err != nil {
				return nil, err
			}
		}
	}
	return append([]float64{}, data[root*chunk:(root+1)*chunk]...), nil
}

// Gather collects every rank's vector at the root.
//
// The root gets the vectors indexed by rank; the other
// ranks get nil.
func (c *Comm) Gather(ctx context.Context, root int, vec []float64) ([][]float64, error) {
	r := c.NewRound()
	if c.Rank() != root {
		return nil, r.Send(root, vec)
	}
	res := make([][]float64, c.Size())
	res[root] = append([]float64{}, vec...)
	for i := 0; i < c.Size()-1; i++ {
		incoming, src, err := r.RecvAny(ctx)
		if err != nil {
			return nil, err
		}
		res[src] = incoming
	}
	return res, nil
}

// Reduce combines every rank's vector with op along a
// binary tree rooted at root.
//
// Only the root gets the result; the other ranks get nil.
func (c *Comm) Reduce(ctx context.Context, root int, vec []float64, op Op) ([]float64, error) {
	r := c.NewRound()
	parent, children := c.treePosition(root)

	vecs := [][]float64{vec}
	for _, child := range children {
		incoming, err := r.Recv(ctx, child)
		if err != nil {
			return nil, err
		}
		vecs = append(vecs, incoming)
	}
	res := op.Reduce(vecs...)
	c.Work(len(vecs) * len(vec))

	if parent >= 0 {
		return nil, r.Send(parent, res)
	}
	return res, nil
}

// Barrier blocks until every rank has entered it.
func (c *Comm) Barrier(ctx context.Context) error {
	if _, err := c.Reduce(ctx, 0, nil, Sum); err != nil {
		return err
	}
	_, err := c.Bcast(ctx, 0, nil)
	return err
}

// treePosition places the rank in a binary heap whose
// root is the given rank.
// The parent is -1 for the root.
func (c *Comm) treePosition(root int) (parent int, children []int) {
	size := c.Size()
	rel := (c.Rank() - root + size) % size
	parent = -1
	if rel > 0 {
		parent = ((rel-1)/2 + root) % size
	}
	for _, child := range []int{2*rel + 1, 2*rel + 2} {
		if child < size {
			children = append(children, (child+root)%size)
		}
	}
	return
}
