// Package collcomm implements MPI-style collective
// communication between a fixed group of ranks.
//
// Every rank runs the same function and calls the same
// collectives in the same order.
// Rank 0 is the coordinator by convention.
package collcomm

import (
	"context"
	"fmt"

	"github.com/unixpickle/essentials"
)

// AnySource matches a packet from any rank in Recv.
const AnySource = -1

// Comm is one rank's view of a group.
//
// Packets are matched by source and tag, so a packet that
// arrives early for a later operation is held until it is
// asked for.
type Comm struct {
	transport Transport
	stash     []*Packet
	seq       int
}

// NewComm wraps a Transport.
func NewComm(t Transport) *Comm {
	return &Comm{transport: t}
}

// Rank gets the current rank's index.
func (c *Comm) Rank() int {
	return c.transport.Rank()
}

// Size gets the number of ranks.
func (c *Comm) Size() int {
	return c.transport.Size()
}

// IsCoordinator reports whether this is rank 0.
func (c *Comm) IsCoordinator() bool {
	return c.Rank() == 0
}

// Now returns the rank's clock in seconds.
func (c *Comm) Now() float64 {
	return c.transport.Now()
}

// Work accounts for local computation.
func (c *Comm) Work(flops int) {
	if flops > 0 {
		c.transport.Work(flops)
	}
}

// Send sends a copy of vec to dst under a user tag.
//
// User tags must be non-negative; negative tags belong to
// collectives.
func (c *Comm) Send(dst, tag int, vec []float64) error {
	if tag < 0 {
		panic("user tags must be non-negative")
	}
	return c.send(dst, tag, vec)
}

// Recv receives the next vector sent to this rank with
// the given user tag from src (or AnySource).
func (c *Comm) Recv(ctx context.Context, src, tag int) ([]float64, int, error) {
	if tag < 0 {
		panic("user tags must be non-negative")
	}
	p, err := c.recv(ctx, src, tag)
	if err != nil {
		return nil, 0, err
	}
	return p.Payload, p.Source, nil
}

func (c *Comm) send(dst, tag int, vec []float64) error {
	if dst < 0 || dst >= c.Size() {
		panic(fmt.Sprintf("rank %d out of range", dst))
	}
	p := &Packet{
		Source:  c.Rank(),
		Tag:     tag,
		Payload: append([]float64{}, vec...),
	}
	return c.transport.Send(dst, p)
}

func (c *Comm) recv(ctx context.Context, src, tag int) (*Packet, error) {
	for i, p := range c.stash {
		if matches(p, src, tag) {
			essentials.OrderedDelete(&c.stash, i)
			return p, nil
		}
	}
	for {
		p, err := c.transport.Recv(ctx)
		if err != nil {
			return nil, err
		}
		if matches(p, src, tag) {
			return p, nil
		}
		c.stash = append(c.stash, p)
	}
}

func matches(p *Packet, src, tag int) bool {
	return p.Tag == tag && (src == AnySource || p.Source == src)
}

// A Round is a tag scope for one collective operation.
//
// Every rank must create its Rounds in the same order so
// that the tags line up.
type Round struct {
	comm *Comm
	tag  int
}

// NewRound starts a new collective operation.
func (c *Comm) NewRound() *Round {
	c.seq++
	return &Round{comm: c, tag: -c.seq}
}

// Comm gets the Comm the Round belongs to.
func (r *Round) Comm() *Comm {
	return r.comm
}

// Send sends a copy of vec to dst within the round.
func (r *Round) Send(dst int, vec []float64) error {
	return r.comm.send(dst, r.tag, vec)
}

// Recv receives the round's next vector from src.
func (r *Round) Recv(ctx context.Context, src int) ([]float64, error) {
	p, err := r.comm.recv(ctx, src, r.tag)
	if err != nil {
		return nil, err
	}
	return p.Payload, nil
}

// RecvAny receives the round's next vector from any rank.
func (r *Round) RecvAny(ctx context.Context) ([]float64, int, error) {
	p, err := r.comm.recv(ctx, AnySource, r.tag)
	if err != nil {
		return nil, 0, err
	}
	return p.Payload, p.Source, nil
}
