package simulator

import (
	"container/heap"
	"math/rand"
)

// A Timer is a single delivery scheduled for the virtual
// future.
type Timer struct {
	time  float64
	event *Event

	// tieBreak orders timers with equal deadlines randomly.
	tieBreak int64

	// index is the position in the timerQueue, or -1 once
	// the timer has fired or been cancelled.
	index int
}

// Time gets the virtual time at which the timer fires.
func (t *Timer) Time() float64 {
	return t.time
}

// timerQueue is a min-heap of timers by deadline.
type timerQueue []*Timer

func (t timerQueue) Len() int {
	return len(t)
}

func (t timerQueue) Less(i, j int) bool {
	if t[i].time != t[j].time {
		return t[i].time < t[j].time
	}
	return t[i].tieBreak < t[j].tieBreak
}

func (t timerQueue) Swap(i, j int) {
	t[i], t[j] = t[j], t[i]
	t[i].index = i
	t[j].index = j
}

func (t *timerQueue) Push(x interface{}) {
	timer := x.(*Timer)
	timer.index = len(*t)
	*t = append(*t, timer)
}

func (t *timerQueue) Pop() interface{} {
	old := *t
	timer := old[len(old)-1]
	old[len(old)-1] = nil
	*t = old[:len(old)-1]
	timer.index = -1
	return timer
}

func (t *timerQueue) add(deadline float64, event *Event) *Timer {
	timer := &Timer{time: deadline, event: event, tieBreak: rand.Int63()}
	heap.Push(t, timer)
	return timer
}

func (t *timerQueue) next() *Timer {
	return heap.Pop(t).(*Timer)
}

func (t *timerQueue) remove(timer *Timer) {
	if timer.index >= 0 && timer.index < len(*t) && (*t)[timer.index] == timer {
		heap.Remove(t, timer.index)
	}
}
