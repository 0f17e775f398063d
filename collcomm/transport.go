package collcomm

import "context"

// A Packet is one message between two ranks.
type Packet struct {
	Source  int
	Tag     int
	Payload []float64
}

// A Transport moves packets for one rank of a group.
//
// Each rank gets its own Transport, and a Transport is
// only used from that rank's Goroutine.
type Transport interface {
	// Rank is this rank's index in the group.
	Rank() int

	// Size is the number of ranks in the group.
	Size() int

	// Send queues a packet for dst without blocking.
	Send(dst int, p *Packet) error

	// Recv blocks until the next packet for this rank
	// arrives, in delivery order.
	Recv(ctx context.Context) (*Packet, error)

	// Now returns the rank's clock in seconds.
	Now() float64

	// Work accounts for flops floating-point operations
	// of local computation.
	Work(flops int)
}
