package collcomm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/unixpickle/essentials"
	"golang.org/x/sync/errgroup"
)

// ErrTimeout is returned by a LocalLauncher rank whose
// receive waited longer than the launcher's Timeout.
var ErrTimeout = errors.New("receive timed out")

// A LocalLauncher runs each rank in its own Goroutine and
// connects the ranks with in-memory mailboxes.
//
// When one rank fails, the context seen by the others is
// cancelled so that no rank stays blocked on a peer that
// will never send.
type LocalLauncher struct {
	// Timeout bounds every blocking receive.
	// Zero means receives wait until the context ends.
	Timeout time.Duration
}

// Launch runs f on size ranks and waits for all of them.
func (l LocalLauncher) Launch(ctx context.Context, size int, f RankFunc) error {
	if err := checkSize(size); err != nil {
		return err
	}
	log := launchLogger("local", size)
	log.Debug("launching group")

	boxes := make([]*mailbox, size)
	for i := range boxes {
		boxes[i] = newMailbox()
	}

	start := time.Now()
	errs := make([]error, size)
	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < size; i++ {
		rank := i
		g.Go(func() error {
			errs[rank] = f(groupCtx, NewComm(&localTransport{
				rank:    rank,
				boxes:   boxes,
				start:   start,
				timeout: l.Timeout,
			}))
			if errs[rank] != nil {
				log.WithField("rank", rank).WithError(errs[rank]).Debug("rank failed")
			}
			return errs[rank]
		})
	}
	_ = g.Wait()
	log.WithField("elapsed", time.Since(start)).Debug("group finished")

	return groupError(errs)
}

type localTransport struct {
	rank    int
	boxes   []*mailbox
	start   time.Time
	timeout time.Duration
}

func (l *localTransport) Rank() int {
	return l.rank
}

func (l *localTransport) Size() int {
	return len(l.boxes)
}

func (l *localTransport) Send(dst int, p *Packet) error {
	l.boxes[dst].push(p)
	return nil
}

func (l *localTransport) Recv(ctx context.Context) (*Packet, error) {
	if l.timeout == 0 {
		return l.boxes[l.rank].pop(ctx)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	p, err := l.boxes[l.rank].pop(timeoutCtx)
	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("%w after %s", ErrTimeout, l.timeout)
	}
	return p, err
}

func (l *localTransport) Now() float64 {
	return time.Since(l.start).Seconds()
}

func (l *localTransport) Work(flops int) {
}

// A mailbox is an unbounded packet queue, so sends never
// block.
type mailbox struct {
	lock    sync.Mutex
	pending []*Packet
	notify  chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

func (m *mailbox) push(p *Packet) {
	m.lock.Lock()
	m.pending = append(m.pending, p)
	m.lock.Unlock()
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *mailbox) pop(ctx context.Context) (*Packet, error) {
	for {
		m.lock.Lock()
		if len(m.pending) > 0 {
			p := m.pending[0]
			essentials.OrderedDelete(&m.pending, 0)
			m.lock.Unlock()
			return p, nil
		}
		m.lock.Unlock()
		select {
		case <-m.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
