package simulator

import (
	"math"
	"math/rand"
	"sync"

	"github.com/unixpickle/essentials"
)

// An EventLoop drives the virtual clock of a simulated
// group.
//
// Goroutines that use the loop must be started with Go().
// The clock only advances while every such Goroutine is
// blocked in Poll, so real computation time never shows
// up in virtual time.
type EventLoop struct {
	lock    sync.Mutex
	now     float64
	timers  timerQueue
	handles []*Handle
	running bool
	aborted bool

	// wakeup is signalled whenever a Handle starts or stops
	// waiting.
	wakeup chan struct{}
}

// NewEventLoop creates an event loop whose clock starts
// at 0.
func NewEventLoop() *EventLoop {
	return &EventLoop{wakeup: make(chan struct{}, 1)}
}

// Stream creates a new EventStream on the loop.
func (e *EventLoop) Stream() *EventStream {
	return &EventStream{loop: e}
}

// Time gets the current virtual time.
func (e *EventLoop) Time() float64 {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.now
}

// Go starts f in a new Goroutine with its own Handle.
func (e *EventLoop) Go(f func(h *Handle)) {
	h := &Handle{loop: e}
	e.update(func() {
		e.handles = append(e.handles, h)
	})
	go func() {
		defer e.updateHandles(func() {
			for i, other := range e.handles {
				if other == h {
					essentials.UnorderedDelete(&e.handles, i)
					return
				}
			}
			panic("Handle was already removed")
		})
		f(h)
	}()
}

// Run drives the loop until every Goroutine started with
// Go() has returned.
//
// On a deadlock, every blocked Poll fails with
// ErrDeadlock, and Run returns ErrDeadlock once the
// Goroutines have exited.
func (e *EventLoop) Run() error {
	e.update(func() {
		if e.running {
			panic("EventLoop is already running")
		}
		e.running = true
	})
	defer e.update(func() {
		e.running = false
	})

	var result error
	for {
		done, err := e.advance()
		if err != nil {
			result = err
		}
		if done {
			return result
		}
		<-e.wakeup
	}
}

// MustRun is like Run, but panics on deadlock.
func (e *EventLoop) MustRun() {
	if err := e.Run(); err != nil {
		panic(err)
	}
}

// advance fires timers until one wakes a Goroutine.
// It reports done once no Goroutines are left.
func (e *EventLoop) advance() (done bool, err error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if len(e.handles) == 0 {
		return true, nil
	}
	if e.aborted {
		return false, nil
	}
	for _, h := range e.handles {
		if h.wake == nil {
			// Still running in real time.
			return false, nil
		}
	}

	for e.timers.Len() > 0 {
		timer := e.timers.next()
		e.now = math.Max(e.now, timer.time)
		if e.deliver(timer.event) {
			return false, nil
		}
	}

	e.aborted = true
	for _, h := range e.handles {
		h.release(nil)
	}
	return false, ErrDeadlock
}

// deliver gives event to a random Handle waiting on its
// stream, or queues it if nobody is waiting.
func (e *EventLoop) deliver(event *Event) bool {
	for _, i := range rand.Perm(len(e.handles)) {
		if h := e.handles[i]; h.waitsOn(event.Stream) {
			h.release(event)
			return true
		}
	}
	event.Stream.queued = append(event.Stream.queued, event.Message)
	return false
}

func (e *EventLoop) update(f func()) {
	e.lock.Lock()
	defer e.lock.Unlock()
	f()
}

// updateHandles is like update, but also wakes Run since
// f may change which Handles are waiting.
func (e *EventLoop) updateHandles(f func()) {
	e.update(f)
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}
