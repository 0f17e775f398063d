package collcomm

import (
	"context"

	"github.com/unixpickle/dist-reduce/simulator"
)

const (
	// FlopTime is the virtual time one floating-point
	// operation takes.
	FlopTime = 1e-9

	// DefaultLatency and DefaultRate configure the network
	// of a SimLauncher without a Network.
	DefaultLatency = 1e-4
	DefaultRate    = 1e9

	// packetHeader is the simulated size of a packet's
	// source and tag.
	packetHeader = 16
)

// A SimLauncher runs each rank on its own Handle of a
// virtual-time simulator.EventLoop.
//
// Clocks are virtual, so timings are reproducible.
// A group that deadlocks fails with simulator.ErrDeadlock
// instead of hanging: every blocked rank's receive fails
// with it, and Launch returns once all ranks have exited.
// Contexts are only checked before a rank blocks.
type SimLauncher struct {
	// Network creates the network for each launch.
	// If nil, a LinkNetwork with DefaultLatency and
	// DefaultRate is used.
	Network func() simulator.Network
}

// Launch runs f on size simulated ranks.
func (s SimLauncher) Launch(ctx context.Context, size int, f RankFunc) error {
	if err := checkSize(size); err != nil {
		return err
	}
	log := launchLogger("sim", size)
	log.Debug("launching group")

	var network simulator.Network
	if s.Network != nil {
		network = s.Network()
	} else {
		network = simulator.NewLinkNetwork(DefaultLatency, DefaultRate)
	}

	loop := simulator.NewEventLoop()
	ports := make([]*simulator.Port, size)
	for i := range ports {
		ports[i] = simulator.NewNode().Port(loop)
	}

	errs := make([]error, size)
	for i := range ports {
		rank := i
		loop.Go(func(h *simulator.Handle) {
			errs[rank] = f(ctx, NewComm(&simTransport{
				handle:  h,
				rank:    rank,
				ports:   ports,
				network: network,
			}))
		})
	}

	runErr := loop.Run()
	log.WithField("time", loop.Time()).Debug("group finished")

	return groupError(errs, runErr)
}

type simTransport struct {
	handle  *simulator.Handle
	rank    int
	ports   []*simulator.Port
	network simulator.Network
}

func (s *simTransport) Rank() int {
	return s.rank
}

func (s *simTransport) Size() int {
	return len(s.ports)
}

func (s *simTransport) Send(dst int, p *Packet) error {
	s.network.Send(s.handle, &simulator.Message{
		Source:  s.ports[s.rank],
		Dest:    s.ports[dst],
		Message: p,
		Size:    float64(len(p.Payload)*8 + packetHeader),
	})
	return nil
}

func (s *simTransport) Recv(ctx context.Context) (*Packet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	msg, err := s.ports[s.rank].Recv(s.handle)
	if err != nil {
		return nil, err
	}
	return msg.Message.(*Packet), nil
}

func (s *simTransport) Now() float64 {
	return s.handle.Time()
}

func (s *simTransport) Work(flops int) {
	s.handle.Sleep(FlopTime * float64(flops))
}
