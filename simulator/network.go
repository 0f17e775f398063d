package simulator

import (
	"math/rand"
	"sync"
)

// A Node is one simulated machine.
type Node struct {
	unused int
}

// NewNode creates a new, unique Node.
func NewNode() *Node {
	return &Node{}
}

// Port creates a Port on the Node.
func (n *Node) Port(loop *EventLoop) *Port {
	return &Port{Node: n, Incoming: loop.Stream()}
}

// A Port is an endpoint on a Node.
// Messages are sent from one Port to another.
type Port struct {
	// The Node to which the Port is attached.
	Node *Node

	// A stream of *Message objects.
	Incoming *EventStream
}

// Recv blocks until the next message arrives.
// It fails with ErrDeadlock if none ever can.
func (p *Port) Recv(h *Handle) (*Message, error) {
	event, err := h.Poll(p.Incoming)
	if err != nil {
		return nil, err
	}
	return event.Message.(*Message), nil
}

// A Message is a payload in flight between two Ports.
type Message struct {
	Source  *Port
	Dest    *Port
	Message interface{}

	// Size is the payload size in bytes.
	Size float64
}

// A Network decides when messages arrive.
type Network interface {
	// Send schedules delivery of the messages onto their
	// destinations' Incoming streams.
	//
	// Send never blocks.
	Send(h *Handle, msgs ...*Message)
}

// A RandomNetwork delivers every message after a random
// delay in [0, 1), so arrival order is arbitrary.
type RandomNetwork struct{}

// Send schedules the messages with random delays.
func (r RandomNetwork) Send(h *Handle, msgs ...*Message) {
	for _, msg := range msgs {
		h.Schedule(msg.Dest.Incoming, msg, rand.Float64())
	}
}

// A LinkNetwork gives each destination Node a single
// inbound link of fixed bandwidth.
// Messages to the same Node are received in send order,
// one after another.
type LinkNetwork struct {
	// Latency is added to every message.
	Latency float64

	// Rate is the link bandwidth in bytes per unit of
	// virtual time.
	Rate float64

	// Jitter, if non-zero, adds a uniformly random extra
	// latency in [0, Jitter) to each message.
	Jitter float64

	lock      sync.Mutex
	nextTimes map[*Node]float64
}

// NewLinkNetwork creates a LinkNetwork without jitter.
func NewLinkNetwork(latency, rate float64) *LinkNetwork {
	return &LinkNetwork{Latency: latency, Rate: rate}
}

// Send queues the messages behind any traffic already
// headed to the same destinations.
func (l *LinkNetwork) Send(h *Handle, msgs ...*Message) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.nextTimes == nil {
		l.nextTimes = map[*Node]float64{}
	}

	curTime := h.Time()
	for _, msg := range msgs {
		dest := msg.Dest.Node
		delay := l.Latency + msg.Size/l.Rate
		if l.Jitter > 0 {
			delay += rand.Float64() * l.Jitter
		}
		if t, ok := l.nextTimes[dest]; ok && t > curTime {
			delay += t - curTime
		}
		h.Schedule(msg.Dest.Incoming, msg, delay)
		l.nextTimes[dest] = curTime + delay
	}
}
