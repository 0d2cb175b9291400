package kernel

import (
	"testing"

	"sensoros-go/errcode"
)

func TestNewSemaphoreInvalid(t *testing.T) {
	k, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct{ max, initial int }{
		{0, 0}, {-1, 0}, {1, -1}, {1, 2},
	}
	for _, tc := range cases {
		if _, err := k.NewSemaphore(tc.max, tc.initial); errcode.Of(err) != errcode.InvalidConfig {
			t.Errorf("NewSemaphore(%d, %d): expected invalid_config, got %v", tc.max, tc.initial, err)
		}
	}
}

func TestSemaphoreOverrelease(t *testing.T) {
	k, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	s, err := k.NewSemaphore(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if code := s.Release(); code != errcode.Overrelease {
		t.Errorf("expected overrelease, got %v", code)
	}
	if got := s.Count(); got != 1 {
		t.Errorf("count not clamped: %d", got)
	}
}

// Spec scenario: A acquires, B blocks, A releases, B wakes and holds the unit.
func TestSemaphoreBlockAndHandoff(t *testing.T) {
	marks := make(chan string, 8)
	k := startKernel(t, Config{})
	s, err := k.NewSemaphore(10, 1)
	if err != nil {
		t.Fatal(err)
	}
	release := k.NewEvent()

	a, err := k.Spawn(func(c *TaskCtx) {
		c.Acquire(s, -1)
		marks <- "a-acquired"
		c.WaitEvent(release, -1)
		s.Release()
		marks <- "a-released"
		c.Sleep(1 << 30)
	}, nil, 10, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := k.Spawn(func(c *TaskCtx) {
		c.Acquire(s, -1)
		marks <- "b-acquired"
		c.Sleep(1 << 30)
	}, nil, 20, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	expectMark(t, marks, "a-acquired")
	waitTaskState(t, k, a, StateWaiting)
	waitTaskState(t, k, b, StateWaiting)
	if got := s.Count(); got != 0 {
		t.Fatalf("count with holder and waiter: %d", got)
	}

	release.Signal()
	expectMark(t, marks, "a-released")
	expectMark(t, marks, "b-acquired")

	// B holds the handed-off unit; count stays 0.
	if got := s.Count(); got != 0 {
		t.Errorf("count after handoff: %d", got)
	}
}

// One release cascades through chained waiters in FIFO order.
func TestSemaphoreFIFOWake(t *testing.T) {
	marks := make(chan string, 8)
	k := startKernel(t, Config{})
	s, err := k.NewSemaphore(10, 1)
	if err != nil {
		t.Fatal(err)
	}
	release := k.NewEvent()

	holder, err := k.Spawn(func(c *TaskCtx) {
		c.Acquire(s, -1)
		c.WaitEvent(release, -1)
		s.Release()
		c.Sleep(1 << 30)
	}, nil, 5, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	waiter := func(mark string) TaskProc {
		return func(c *TaskCtx) {
			c.Acquire(s, -1)
			marks <- mark
			s.Release()
			c.Sleep(1 << 30)
		}
	}
	var ids []TaskID
	for _, m := range []string{"w1", "w2", "w3"} {
		id, err := k.Spawn(waiter(m), nil, 10, 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	waitTaskState(t, k, holder, StateWaiting)
	for _, id := range ids {
		waitTaskState(t, k, id, StateWaiting)
	}

	release.Signal()
	expectMark(t, marks, "w1")
	expectMark(t, marks, "w2")
	expectMark(t, marks, "w3")
}

func TestSemaphoreTryAcquire(t *testing.T) {
	marks := make(chan string, 4)
	k := startKernel(t, Config{})
	s, err := k.NewSemaphore(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	_, err = k.Spawn(func(c *TaskCtx) {
		if code := c.Acquire(s, 0); code != errcode.OK {
			marks <- "first:" + string(code)
		} else {
			marks <- "first:ok"
		}
		marks <- "second:" + string(c.Acquire(s, 0))
		c.Sleep(1 << 30)
	}, nil, 10, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	expectMark(t, marks, "first:ok")
	expectMark(t, marks, "second:timeout")
}

func TestSemaphoreAcquireTimeout(t *testing.T) {
	marks := make(chan string, 4)
	k := startKernel(t, Config{})
	s, err := k.NewSemaphore(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	id, err := k.Spawn(func(c *TaskCtx) {
		marks <- "outcome:" + string(c.Acquire(s, 3))
		c.Sleep(1 << 30)
	}, nil, 10, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	waitTaskState(t, k, id, StateWaiting)

	k.Tick()
	k.Tick()
	expectNoMark(t, marks) // deadline not reached yet
	k.Tick()
	expectMark(t, marks, "outcome:timeout")

	// The timed-out waiter left the queue: a release must bank the unit.
	if code := s.Release(); code != errcode.OK {
		t.Fatalf("release after timeout: %v", code)
	}
	if got := s.Count(); got != 1 {
		t.Errorf("count after release: %d", got)
	}
}

// Mutual exclusion with a yield inside the critical section.
func TestSemaphoreMutualExclusion(t *testing.T) {
	marks := make(chan string, 8)
	violations := make(chan string, 8)
	k := startKernel(t, Config{})
	s, err := k.NewSemaphore(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	inCrit := 0 // mutated from task context only
	worker := func(mark string) TaskProc {
		return func(c *TaskCtx) {
			for i := 0; i < 3; i++ {
				c.Acquire(s, -1)
				inCrit++
				if inCrit > 1 {
					violations <- mark
				}
				c.Yield() // invite the peer in while we hold the unit
				inCrit--
				s.Release()
			}
			marks <- mark + ":done"
			c.Sleep(1 << 30)
		}
	}
	if _, err := k.Spawn(worker("x"), nil, 10, 0, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := k.Spawn(worker("y"), nil, 10, 0, 0); err != nil {
		t.Fatal(err)
	}

	expectMark(t, marks, "x:done")
	expectMark(t, marks, "y:done")
	select {
	case v := <-violations:
		t.Fatalf("mutual exclusion violated by %s", v)
	default:
	}
}
