// Package simulator runs a group of ranks on a virtual
// clock so that collective operations can be timed and
// checked for deadlocks deterministically.
package simulator

import (
	"errors"
	"fmt"
	"math"

	"github.com/unixpickle/essentials"
)

// ErrDeadlock is returned once every Goroutine on a loop
// is waiting and no scheduled event can wake any of them.
//
// Both EventLoop.Run and the blocked Polls report it.
var ErrDeadlock = errors.New("deadlock: all Handles are polling")

// An EventStream is a one-way queue of events on a single
// EventLoop.
type EventStream struct {
	loop   *EventLoop
	queued []interface{}
}

func (s *EventStream) pop() (interface{}, bool) {
	if len(s.queued) == 0 {
		return nil, false
	}
	msg := s.queued[0]
	essentials.OrderedDelete(&s.queued, 0)
	return msg, true
}

// An Event is a message that arrived on an EventStream.
type Event struct {
	Message interface{}
	Stream  *EventStream
}

// A Handle is one Goroutine's connection to an
// EventLoop.
// Handles must not be shared between Goroutines.
type Handle struct {
	loop *EventLoop

	// Both are set while the Goroutine is blocked in Poll.
	waitingOn []*EventStream
	wake      chan *Event
}

// Time gets the loop's virtual time.
func (h *Handle) Time() float64 {
	return h.loop.Time()
}

// Stream creates a new EventStream on the loop.
func (h *Handle) Stream() *EventStream {
	return h.loop.Stream()
}

// Poll blocks until one of the streams has an event.
//
// Events that are already queued are taken in argument
// order.
// If the loop detects a deadlock, Poll fails with
// ErrDeadlock, now and in every later call.
func (h *Handle) Poll(streams ...*EventStream) (*Event, error) {
	wake := make(chan *Event, 1)
	h.loop.updateHandles(func() {
		if h.wake != nil {
			panic("Handle is shared between Goroutines")
		}
		if h.loop.aborted {
			close(wake)
			return
		}
		for _, stream := range streams {
			if msg, ok := stream.pop(); ok {
				wake <- &Event{Message: msg, Stream: stream}
				return
			}
		}
		h.waitingOn = streams
		h.wake = wake
	})
	if event, ok := <-wake; ok {
		return event, nil
	}
	return nil, ErrDeadlock
}

func (h *Handle) waitsOn(stream *EventStream) bool {
	for _, s := range h.waitingOn {
		if s == stream {
			return true
		}
	}
	return false
}

// release wakes a blocked Handle, either with an event or,
// if event is nil, with ErrDeadlock.
func (h *Handle) release(event *Event) {
	if event != nil {
		h.wake <- event
	} else {
		close(h.wake)
	}
	h.wake = nil
	h.waitingOn = nil
}

// Schedule delivers msg on stream after delay units of
// virtual time.
func (h *Handle) Schedule(stream *EventStream, msg interface{}, delay float64) *Timer {
	if stream.loop != h.loop {
		panic("EventStream belongs to a different EventLoop")
	}
	if delay < 0 || math.IsNaN(delay) || math.IsInf(delay, 0) {
		panic(fmt.Sprintf("invalid delay: %f", delay))
	}
	var timer *Timer
	h.loop.update(func() {
		timer = h.loop.timers.add(h.loop.now+delay, &Event{Message: msg, Stream: stream})
	})
	return timer
}

// Cancel removes a timer that has not fired yet.
// Cancelling a fired timer does nothing.
func (h *Handle) Cancel(t *Timer) {
	h.loop.update(func() {
		h.loop.timers.remove(t)
	})
}

// Sleep blocks for delay units of virtual time.
//
// It returns early if the loop deadlocks.
func (h *Handle) Sleep(delay float64) {
	stream := h.Stream()
	h.Schedule(stream, nil, delay)
	h.Poll(stream)
}
