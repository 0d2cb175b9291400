package kernel

import (
	"sensoros-go/errcode"
)

// MsgQueue is a fixed-capacity ring of fixed-size byte records over one flat
// backing slice. Exactly one task owns and receives from a queue; any task
// may post. All indices are record counts, not byte offsets.
type MsgQueue struct {
	k       *Kernel
	owner   *task
	msgSize int
	cap     int
	buf     []byte
	head    int // record index of the oldest message
	used    int
	posters []*task // producers blocked on a full queue, FIFO
}

func newMsgQueue(k *Kernel, owner *task, capacity, msgSize int) *MsgQueue {
	return &MsgQueue{
		k:       k,
		owner:   owner,
		msgSize: msgSize,
		cap:     capacity,
		buf:     make([]byte, capacity*msgSize),
	}
}

// Len returns the number of occupied records.
func (q *MsgQueue) Len() int {
	q.k.mu.Lock()
	defer q.k.mu.Unlock()
	return q.used
}

func (q *MsgQueue) enqueueLocked(msg []byte) {
	at := ((q.head + q.used) % q.cap) * q.msgSize
	copy(q.buf[at:at+q.msgSize], msg)
	q.used++
}

func (q *MsgQueue) dequeueLocked(dst []byte) {
	at := q.head * q.msgSize
	copy(dst, q.buf[at:at+q.msgSize])
	q.head = (q.head + 1) % q.cap
	q.used--
}

// recvParkedLocked reports whether the owner is parked receiving on q.
func (q *MsgQueue) recvParkedLocked() bool {
	return q.owner.state == StateWaiting && q.owner.wait == waitRecv && q.owner.q == q
}

// Post copies msg into the queue bound to task "to", waking the owner if it
// is parked receiving. On a full queue, ticks == 0 returns QueueFull;
// otherwise the posting task blocks FIFO until space frees or the deadline
// elapses. msg length must equal the queue's record size. Task context only.
func (c *TaskCtx) Post(to TaskID, msg []byte, ticks int) errcode.Code {
	k := c.k
	t := c.t

	k.mu.Lock()
	dst := k.taskByIDLocked(to)
	if dst == nil {
		k.mu.Unlock()
		return errcode.BadHandle
	}
	q := dst.queue
	if q == nil {
		k.mu.Unlock()
		return errcode.NoQueue
	}
	if len(msg) != q.msgSize {
		k.mu.Unlock()
		return errcode.InvalidConfig
	}
	if q.used < q.cap {
		q.enqueueLocked(msg)
		if q.recvParkedLocked() {
			k.wakeLocked(q.owner, errcode.OK)
		}
		k.mu.Unlock()
		return errcode.OK
	}
	if ticks == 0 {
		k.mu.Unlock()
		return errcode.QueueFull
	}
	t.wait = waitPost
	t.q = q
	t.postMsg = msg
	q.posters = append(q.posters, t)
	if ticks > 0 {
		t.timed = true
		t.deadline = k.tick + uint64(ticks)
	}
	t.state = StateWaiting
	k.mu.Unlock()
	c.park()

	// On OK the receiver has already copied postMsg into the ring.
	return t.outcome
}

// Receive dequeues the oldest message from the calling task's own queue into
// dst, blocking until a message arrives or the deadline elapses. ticks < 0
// waits forever; ticks == 0 is try-only. dst must hold one record.
func (c *TaskCtx) Receive(dst []byte, ticks int) errcode.Code {
	k := c.k
	t := c.t
	q := t.queue
	if q == nil {
		return errcode.NoQueue
	}
	if len(dst) < q.msgSize {
		return errcode.InvalidConfig
	}

	k.mu.Lock()
	if q.used > 0 {
		q.dequeueLocked(dst)
		k.admitPosterLocked(q)
		k.mu.Unlock()
		return errcode.OK
	}
	if ticks == 0 {
		k.mu.Unlock()
		return errcode.Timeout
	}
	t.wait = waitRecv
	t.q = q
	if ticks > 0 {
		t.timed = true
		t.deadline = k.tick + uint64(ticks)
	}
	t.state = StateWaiting
	k.mu.Unlock()
	c.park()

	if t.outcome != errcode.OK {
		return t.outcome
	}
	// Only the owner dequeues, so the record that woke us is still here.
	k.mu.Lock()
	q.dequeueLocked(dst)
	k.admitPosterLocked(q)
	k.mu.Unlock()
	return errcode.OK
}

// admitPosterLocked moves the earliest blocked producer's record into the
// slot just freed by a dequeue, keeping post order intact.
func (k *Kernel) admitPosterLocked(q *MsgQueue) {
	if len(q.posters) == 0 || q.used >= q.cap {
		return
	}
	p := q.posters[0]
	q.enqueueLocked(p.postMsg)
	k.wakeLocked(p, errcode.OK) // detaches p from q.posters
}
