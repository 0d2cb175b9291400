package kernel

import (
	"sensoros-go/errcode"
)

// TaskID identifies a task in the static task table.
type TaskID uint8

// TaskProc is a task body. Bodies run an unbounded control loop and suspend
// through the TaskCtx; a body that returns is parked Suspended forever.
// Multiple tasks may share one TaskProc: all per-instance behaviour must come
// from TaskCtx.Data(), never from mutable package state.
type TaskProc func(*TaskCtx)

// State is a task's scheduling state.
type State uint8

const (
	StateSuspended State = iota
	StateRunnable
	StateRunning
	StateWaiting
)

func (s State) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateRunnable:
		return "runnable"
	case StateRunning:
		return "running"
	case StateWaiting:
		return "waiting"
	default:
		return "unknown"
	}
}

// waitKind records what a Waiting task is parked on.
type waitKind uint8

const (
	waitNone waitKind = iota
	waitTime
	waitEvent
	waitSem
	waitRecv
	waitPost
)

func (w waitKind) String() string {
	switch w {
	case waitTime:
		return "time"
	case waitEvent:
		return "event"
	case waitSem:
		return "semaphore"
	case waitRecv:
		return "queue_recv"
	case waitPost:
		return "queue_post"
	default:
		return "none"
	}
}

type task struct {
	id    TaskID
	prio  uint8
	data  any
	queue *MsgQueue
	proc  TaskProc

	// gate releases the task body for one run slice. Only the dispatcher
	// sends on it.
	gate chan struct{}

	// Wait bookkeeping, guarded by Kernel.mu.
	state    State
	wait     waitKind
	evts     []*Event
	signaled *Event // which event woke a WaitAny
	sem      *Semaphore
	q        *MsgQueue
	postMsg  []byte // pending record of a blocked post
	timed    bool
	deadline uint64
	outcome  errcode.Code
}

// TaskCtx is the task-context API surface. It is handed to the task body and
// must never be used from interrupt context or from another task's body.
type TaskCtx struct {
	k *Kernel
	t *task
}

// ID returns the task's handle.
func (c *TaskCtx) ID() TaskID { return c.t.id }

// Data returns the opaque per-instance task data set at Spawn.
func (c *TaskCtx) Data() any { return c.t.data }

// Now returns the current kernel tick.
func (c *TaskCtx) Now() uint64 { return c.k.Now() }

// Yield hands the processor back without a wait condition. The task stays
// Runnable and is rescheduled by priority with its peers.
func (c *TaskCtx) Yield() {
	k := c.k
	k.mu.Lock()
	c.t.state = StateRunnable
	k.readyLocked(c.t)
	k.mu.Unlock()
	c.park()
}

// Sleep suspends the task for the given number of ticks. The wake resolves on
// the first tick boundary at or after the deadline. ticks <= 0 returns
// immediately.
func (c *TaskCtx) Sleep(ticks int) {
	if ticks <= 0 {
		return
	}
	k := c.k
	k.mu.Lock()
	c.t.wait = waitTime
	c.t.timed = true
	c.t.deadline = k.tick + uint64(ticks)
	c.t.state = StateWaiting
	k.mu.Unlock()
	c.park()
}

// park hands control to the dispatcher and blocks until redispatched.
func (c *TaskCtx) park() {
	c.k.yielded <- struct{}{}
	<-c.t.gate
}

// removeTask deletes t from a waiter list, preserving FIFO order.
func removeTask(list []*task, t *task) []*task {
	for i, w := range list {
		if w == t {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
