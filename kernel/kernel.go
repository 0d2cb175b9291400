// Package kernel implements a cooperative, priority-based task runtime for
// sensor nodes: a static task table, binary events, counting semaphores with
// FIFO-fair waiters, and fixed-capacity message queues bound to a consuming
// task.
//
// Exactly one task body executes at a time. Bodies run on goroutines parked
// on a per-task gate; the dispatcher releases one gate and waits for the body
// to reach its next suspension point. A task made Runnable while another is
// Running never preempts it: priority only picks among Runnable tasks at the
// next dispatch.
//
// The interrupt-safe subset is Kernel.Tick, Event.Signal and
// Semaphore.Release. Those are non-blocking, bounded, and only mutate wake
// state; they may be called from any goroutine. Everything on TaskCtx is
// task-context only.
package kernel

import (
	"context"
	"sync"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/rs/zerolog"

	"sensoros-go/errcode"
)

const defaultMaxTasks = 8

// Config sizes the kernel at initialization. The table never grows.
type Config struct {
	MaxTasks    int   // task table capacity; default 8, at most 255
	MaxPriority uint8 // inclusive upper bound for Spawn priorities; 0 means 255
	Log         zerolog.Logger
}

// Kernel holds the task table, the ready structure and the tick counter.
type Kernel struct {
	mu sync.Mutex

	cfg     Config
	log     zerolog.Logger
	tasks   []*task
	ready   *redblacktree.Tree // readyKey -> *task
	enqSeq  uint64             // ready-insertion order, breaks priority ties FIFO
	tick    uint64
	maxPrio uint8

	// yielded carries the control handback from the running task body.
	yielded chan struct{}
	// wake nudges an idle dispatcher after an interrupt-context operation.
	wake chan struct{}
}

// New builds a kernel with an empty task table and the tick counter at 0.
func New(cfg Config) (*Kernel, error) {
	if cfg.MaxTasks == 0 {
		cfg.MaxTasks = defaultMaxTasks
	}
	if cfg.MaxTasks < 0 || cfg.MaxTasks > 255 {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "kernel.New", Msg: "max_tasks out of range"}
	}
	maxPrio := cfg.MaxPriority
	if maxPrio == 0 {
		maxPrio = 255
	}
	return &Kernel{
		cfg:     cfg,
		log:     cfg.Log,
		tasks:   make([]*task, 0, cfg.MaxTasks),
		ready:   redblacktree.NewWith(readyCmp),
		maxPrio: maxPrio,
		yielded: make(chan struct{}),
		wake:    make(chan struct{}, 1),
	}, nil
}

// Spawn registers a task with a fixed priority and opaque data. Lower numeric
// priority runs first; ties dispatch in registration order. queueCap > 0
// binds a message queue of queueCap records of msgSize bytes to the task.
// The task starts Runnable and begins at its start point on first dispatch.
func (k *Kernel) Spawn(proc TaskProc, data any, prio uint8, queueCap, msgSize int) (TaskID, error) {
	if proc == nil {
		return 0, &errcode.E{C: errcode.InvalidConfig, Op: "kernel.Spawn", Msg: "nil proc"}
	}
	if queueCap < 0 || (queueCap > 0 && msgSize <= 0) {
		return 0, &errcode.E{C: errcode.InvalidConfig, Op: "kernel.Spawn", Msg: "bad queue dimensions"}
	}
	if prio > k.maxPrio {
		return 0, &errcode.E{C: errcode.InvalidPriority, Op: "kernel.Spawn"}
	}

	k.mu.Lock()
	if len(k.tasks) >= k.cfg.MaxTasks {
		k.mu.Unlock()
		return 0, &errcode.E{C: errcode.CapacityExceeded, Op: "kernel.Spawn", Msg: "task table full"}
	}
	t := &task{
		id:    TaskID(len(k.tasks)),
		prio:  prio,
		data:  data,
		proc:  proc,
		gate:  make(chan struct{}),
		state: StateRunnable,
	}
	if queueCap > 0 {
		t.queue = newMsgQueue(k, t, queueCap, msgSize)
	}
	k.tasks = append(k.tasks, t)
	k.readyLocked(t)
	k.mu.Unlock()

	go k.taskMain(t)
	k.nudge()
	return t.id, nil
}

// Now returns the current tick.
func (k *Kernel) Now() uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.tick
}

// Tick advances the time base by one unit and wakes every timed wait whose
// deadline has elapsed. Interrupt-safe: bounded by the task table size, never
// blocks, never runs task bodies.
func (k *Kernel) Tick() {
	k.mu.Lock()
	k.tick++
	now := k.tick
	for _, t := range k.tasks {
		if t.state == StateWaiting && t.timed && now >= t.deadline {
			k.wakeLocked(t, errcode.Timeout)
		}
	}
	k.mu.Unlock()
}

// Run is the dispatch loop. It repeatedly selects the Runnable task with the
// lowest priority value and runs it to its next suspension point. With no
// Runnable task it parks until Tick or an interrupt-context signal supplies
// one. Run only returns once ctx is cancelled and the current task body has
// suspended.
func (k *Kernel) Run(ctx context.Context) {
	k.log.Debug().Msg("dispatcher running")
	for {
		if ctx.Err() != nil {
			return
		}

		k.mu.Lock()
		node := k.ready.Left()
		if node == nil {
			k.mu.Unlock()
			select {
			case <-ctx.Done():
				return
			case <-k.wake:
			}
			continue
		}
		key := node.Key.(readyKey)
		t := node.Value.(*task)
		k.ready.Remove(key)
		t.state = StateRunning
		tick := k.tick
		k.mu.Unlock()

		k.log.Trace().Uint8("task", uint8(t.id)).Uint8("prio", t.prio).Uint64("tick", tick).Msg("dispatch")

		t.gate <- struct{}{}
		<-k.yielded
	}
}

// taskMain runs a task body, parked until first dispatch. A returning body is
// a defect in this design; the task is parked Suspended and never redispatched.
func (k *Kernel) taskMain(t *task) {
	<-t.gate
	t.proc(&TaskCtx{k: k, t: t})

	k.log.Warn().Uint8("task", uint8(t.id)).Msg("task body returned, parking")
	k.mu.Lock()
	t.state = StateSuspended
	t.wait = waitNone
	k.mu.Unlock()
	k.yielded <- struct{}{}
	<-t.gate
}

// readyLocked inserts t into the ready structure. Equal priorities order by
// insertion, so initial registration order holds for simultaneously-spawned
// tasks and a yielding task rotates behind its runnable peers.
func (k *Kernel) readyLocked(t *task) {
	k.enqSeq++
	k.ready.Put(readyKey{prio: t.prio, seq: k.enqSeq}, t)
}

// TaskState reports a task's current scheduling state. Mainly a debug and
// test surface.
func (k *Kernel) TaskState(id TaskID) (State, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	t := k.taskByIDLocked(id)
	if t == nil {
		return StateSuspended, false
	}
	return t.state, true
}

// wakeLocked transitions a Waiting task to Runnable with the given outcome,
// detaching it from whatever it was parked on.
func (k *Kernel) wakeLocked(t *task, oc errcode.Code) {
	t.outcome = oc
	k.clearWaitLocked(t)
	t.state = StateRunnable
	k.readyLocked(t)
	k.nudgeLocked()
}

// clearWaitLocked detaches t from event, semaphore and queue waiter lists.
func (k *Kernel) clearWaitLocked(t *task) {
	switch t.wait {
	case waitEvent:
		for _, e := range t.evts {
			e.waiters = removeTask(e.waiters, t)
		}
		t.evts = t.evts[:0]
	case waitSem:
		t.sem.waiters = removeTask(t.sem.waiters, t)
		t.sem = nil
	case waitRecv:
		t.q = nil
	case waitPost:
		t.q.posters = removeTask(t.q.posters, t)
		t.q = nil
		t.postMsg = nil
	}
	t.wait = waitNone
	t.timed = false
}

func (k *Kernel) nudgeLocked() {
	select {
	case k.wake <- struct{}{}:
	default:
	}
}

func (k *Kernel) nudge() {
	k.mu.Lock()
	k.nudgeLocked()
	k.mu.Unlock()
}

// taskByID resolves a handle. Handles are stable for the kernel's lifetime.
func (k *Kernel) taskByIDLocked(id TaskID) *task {
	if int(id) >= len(k.tasks) {
		return nil
	}
	return k.tasks[id]
}

// ---- Ready ordering ----

// readyKey orders the ready structure by (priority, ready-insertion order).
type readyKey struct {
	prio uint8
	seq  uint64
}

func readyCmp(a, b any) int {
	ka, kb := a.(readyKey), b.(readyKey)
	switch {
	case ka.prio < kb.prio:
		return -1
	case ka.prio > kb.prio:
		return 1
	case ka.seq < kb.seq:
		return -1
	case ka.seq > kb.seq:
		return 1
	default:
		return 0
	}
}
