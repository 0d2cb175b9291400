package kernel

import (
	"sensoros-go/errcode"
)

// Event is a binary wake signal with no payload.
//
// Semantics: Signal wakes every task currently waiting on the event; a signal
// with zero waiters is lost (no pending flag). Producers must only signal
// after the consumer has registered interest, or pair the event with a polled
// flag the consumer checks before waiting.
type Event struct {
	k       *Kernel
	waiters []*task
}

// NewEvent creates an event. Events live for the kernel's lifetime.
func (k *Kernel) NewEvent() *Event {
	return &Event{k: k}
}

// Signal wakes all waiters. Interrupt-safe: non-blocking, bounded by the
// waiter count, never runs task bodies.
func (e *Event) Signal() {
	k := e.k
	k.mu.Lock()
	for len(e.waiters) > 0 {
		t := e.waiters[0]
		t.signaled = e
		k.wakeLocked(t, errcode.OK) // detaches t from e.waiters
	}
	k.mu.Unlock()
}

// WaitEvent parks the task until e is signaled or the deadline elapses.
// ticks < 0 waits forever; ticks == 0 cannot observe a signal and returns
// Timeout immediately. Task context only.
func (c *TaskCtx) WaitEvent(e *Event, ticks int) errcode.Code {
	_, code := c.WaitAny(ticks, e)
	return code
}

// WaitAny parks the task until one of the listed events is signaled or the
// deadline elapses. On OK it returns the index of the signaling event.
func (c *TaskCtx) WaitAny(ticks int, evts ...*Event) (int, errcode.Code) {
	if len(evts) == 0 {
		return -1, errcode.InvalidConfig
	}
	if ticks == 0 {
		return -1, errcode.Timeout
	}
	k := c.k
	t := c.t

	k.mu.Lock()
	t.wait = waitEvent
	t.evts = append(t.evts[:0], evts...)
	t.signaled = nil
	for _, e := range evts {
		e.waiters = append(e.waiters, t)
	}
	if ticks > 0 {
		t.timed = true
		t.deadline = k.tick + uint64(ticks)
	}
	t.state = StateWaiting
	k.mu.Unlock()
	c.park()

	if t.outcome != errcode.OK {
		return -1, t.outcome
	}
	for i, e := range evts {
		if e == t.signaled {
			return i, errcode.OK
		}
	}
	return -1, errcode.OK
}
