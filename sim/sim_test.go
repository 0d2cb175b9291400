package sim

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"sensoros-go/errcode"
	"sensoros-go/kernel"
)

const stepTimeout = 2 * time.Second

func TestI2CNoDevice(t *testing.T) {
	b := NewI2C()
	if err := b.Tx(0x42, []byte{0}, nil); err != ErrNoDevice {
		t.Fatalf("Tx on empty bus: %v, want ErrNoDevice", err)
	}
}

func TestBME280RegisterFile(t *testing.T) {
	m := NewBME280(2300)

	var id [1]byte
	if err := m.Tx([]byte{bmeRegChipID}, id[:]); err != nil {
		t.Fatalf("chip ID read: %v", err)
	}
	if id[0] != bmeChipID {
		t.Fatalf("chip ID = %#x, want %#x", id[0], bmeChipID)
	}

	var cal [6]byte
	if err := m.Tx([]byte{bmeRegCalibT}, cal[:]); err != nil {
		t.Fatalf("calibration read: %v", err)
	}
	t1 := uint16(cal[0]) | uint16(cal[1])<<8
	if t1 != bmeDigT1 {
		t.Fatalf("dig_T1 = %d, want %d", t1, bmeDigT1)
	}
}

func TestBME280RawRoundtrip(t *testing.T) {
	for _, centi := range []int32{-1000, 0, 2150, 2300, 2450, 8000} {
		raw := rawForCenti(centi)
		got := compensate(raw)
		if got < centi-1 || got > centi+1 {
			t.Errorf("compensate(rawForCenti(%d)) = %d", centi, got)
		}
	}
}

func TestBME280Waveform(t *testing.T) {
	m := NewBME280(2300)
	lo, hi := m.temp(), m.temp()
	for i := 0; i < 600; i++ {
		m.Service()
		if v := m.temp(); v < lo {
			lo = v
		} else if v > hi {
			hi = v
		}
	}
	if lo != 2300-150 || hi != 2300+150 {
		t.Fatalf("waveform spanned [%d, %d], want [2150, 2450]", lo, hi)
	}
}

func TestL3GD20ReadyClearsOnRead(t *testing.T) {
	m := NewL3GD20(2)

	status := func() byte {
		var b [1]byte
		if err := m.Tx([]byte{gyroRegStatus}, b[:]); err != nil {
			t.Fatalf("status read: %v", err)
		}
		return b[0]
	}

	m.Service() // one service short of a sample
	if status() != 0 {
		t.Fatal("ready before the sample period elapsed")
	}

	m.Service()
	if status()&gyroStatusZYXDA == 0 {
		t.Fatal("no ready flag after a full sample period")
	}

	var out [6]byte
	if err := m.Tx([]byte{gyroRegOutXL | gyroAutoInc}, out[:]); err != nil {
		t.Fatalf("output read: %v", err)
	}
	if status() != 0 {
		t.Fatal("output read did not clear the ready flag")
	}
}

type countingServicer struct{ n atomic.Int32 }

func (c *countingServicer) Service() { c.n.Add(1) }

func TestTickSourceDrivesKernelAndServicers(t *testing.T) {
	k, err := kernel.New(kernel.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	svc := &countingServicer{}
	src := &TickSource{Kernel: k, RateHz: 1000, Servicers: []Servicer{svc}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go src.Run(ctx)

	deadline := time.Now().Add(stepTimeout)
	for time.Now().Before(deadline) {
		if svc.n.Load() >= 5 && k.Now() >= 5 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("after %v: %d services, tick %d", stepTimeout, svc.n.Load(), k.Now())
}

func TestInputSignalsEvents(t *testing.T) {
	k, err := kernel.New(kernel.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go k.Run(ctx)

	prev := k.NewEvent()
	next := k.NewEvent()
	marks := make(chan string, 8)
	id, err := k.Spawn(func(c *kernel.TaskCtx) {
		for {
			idx, code := c.WaitAny(-1, prev, next)
			if code != errcode.OK {
				continue
			}
			if idx == 0 {
				marks <- "prev"
			} else {
				marks <- "next"
			}
		}
	}, nil, 10, 0, 0)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })
	in := &Input{Prev: prev, Next: next, In: pr}
	go in.Run(ctx)

	// The waiter must be parked before each keypress or the signal is lost.
	waitWaiting(t, k, id)
	pw.Write([]byte("n"))
	expectMark(t, marks, "next")

	waitWaiting(t, k, id)
	pw.Write([]byte{0x1b, '[', 'A'}) // up arrow
	expectMark(t, marks, "prev")

	waitWaiting(t, k, id)
	pw.Write([]byte("x")) // unmapped
	pw.Write([]byte("P"))
	expectMark(t, marks, "prev")
}

func expectMark(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("expected mark %q, got %q", want, got)
		}
	case <-time.After(stepTimeout):
		t.Fatalf("timeout waiting for mark %q", want)
	}
}

func waitWaiting(t *testing.T, k *kernel.Kernel, id kernel.TaskID) {
	t.Helper()
	deadline := time.Now().Add(stepTimeout)
	for time.Now().Before(deadline) {
		if got, ok := k.TaskState(id); ok && got == kernel.StateWaiting {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("task %d never parked waiting", id)
}
