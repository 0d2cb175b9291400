// Package sim provides the host-side stand-ins for the hardware the runtime
// expects: an in-memory I2C bus with register-file device models, a timer
// goroutine driving the kernel tick, and a stdin reader raising the channel
// control events. It mirrors the roles the reference hardware plays without
// leaving the process.
package sim

import (
	"errors"
	"sync"
)

// Device is a register-file model attached to the simulated bus.
type Device interface {
	// Tx handles one bus transaction: w written to the device, then r
	// filled by a repeated-start read.
	Tx(w, r []byte) error
}

var ErrNoDevice = errors.New("sim: no device at address")

// I2C is an in-memory bus implementing drivers.I2C. Transactions are
// serialized with a mutex because the tick goroutine services device models
// while task bodies transact.
type I2C struct {
	mu  sync.Mutex
	dev map[uint16]Device
}

func NewI2C() *I2C {
	return &I2C{dev: map[uint16]Device{}}
}

// AddDevice attaches a device model. Setup time only.
func (b *I2C) AddDevice(addr uint16, d Device) {
	b.mu.Lock()
	b.dev[addr] = d
	b.mu.Unlock()
}

// Tx implements drivers.I2C.
func (b *I2C) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.dev[addr]
	if !ok {
		return ErrNoDevice
	}
	return d.Tx(w, r)
}
