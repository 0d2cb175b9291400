package kernel

import (
	"sensoros-go/errcode"
)

// Semaphore is a counting, non-recursive semaphore with a FIFO-fair waiter
// queue. In this system one semaphore with initial value 1 serializes all
// access to the shared hardware bus.
type Semaphore struct {
	k       *Kernel
	count   int
	max     int
	waiters []*task
}

// NewSemaphore creates a counting semaphore. maxCount bounds the count;
// initial is the number of units available at creation.
func (k *Kernel) NewSemaphore(maxCount, initial int) (*Semaphore, error) {
	if maxCount <= 0 || initial < 0 || initial > maxCount {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "kernel.NewSemaphore"}
	}
	return &Semaphore{k: k, count: initial, max: maxCount}, nil
}

// Count returns the units currently available.
func (s *Semaphore) Count() int {
	s.k.mu.Lock()
	defer s.k.mu.Unlock()
	return s.count
}

// Acquire takes one unit, parking the task FIFO behind earlier waiters when
// none is available. ticks < 0 waits forever; ticks == 0 is try-only.
// Task context only.
func (c *TaskCtx) Acquire(s *Semaphore, ticks int) errcode.Code {
	k := c.k
	t := c.t

	k.mu.Lock()
	if s.count > 0 {
		s.count--
		k.mu.Unlock()
		return errcode.OK
	}
	if ticks == 0 {
		k.mu.Unlock()
		return errcode.Timeout
	}
	t.wait = waitSem
	t.sem = s
	s.waiters = append(s.waiters, t)
	if ticks > 0 {
		t.timed = true
		t.deadline = k.tick + uint64(ticks)
	}
	t.state = StateWaiting
	k.mu.Unlock()
	c.park()

	return t.outcome
}

// Release returns one unit. With waiters queued the unit is handed directly
// to the earliest waiter and the count is unchanged; otherwise the count is
// incremented. A release at max count is clamped and reported as Overrelease,
// a logic error the caller should log. Interrupt-safe.
func (s *Semaphore) Release() errcode.Code {
	k := s.k
	k.mu.Lock()
	if len(s.waiters) > 0 {
		t := s.waiters[0]
		k.wakeLocked(t, errcode.OK) // detaches t from s.waiters
		k.mu.Unlock()
		return errcode.OK
	}
	if s.count >= s.max {
		k.mu.Unlock()
		return errcode.Overrelease
	}
	s.count++
	k.mu.Unlock()
	return errcode.OK
}
