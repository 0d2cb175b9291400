package sim

import (
	"sync"
)

const (
	gyroRegWhoAmI = 0x0F
	gyroRegCtrl1  = 0x20
	gyroRegStatus = 0x27
	gyroRegOutXL  = 0x28

	gyroWhoAmI      = 0xD4
	gyroStatusZYXDA = 0x08
	gyroAutoInc     = 0x80
)

// L3GD20 models the gyroscope's register file and its polled data-ready
// flag. Service latches a fresh sample every samplePeriod calls; reading the
// output registers clears the flag, as on the real part.
type L3GD20 struct {
	mu           sync.Mutex
	ctrl1        byte
	phase        int
	samplePeriod int
	svcCount     int
	ready        bool
	x, y, z      int16 // raw counts
}

// NewL3GD20 creates a model producing a sample every samplePeriod services.
func NewL3GD20(samplePeriod int) *L3GD20 {
	if samplePeriod <= 0 {
		samplePeriod = 100
	}
	return &L3GD20{samplePeriod: samplePeriod}
}

// Service advances the rate waveform and latches samples. Tick source only.
func (m *L3GD20) Service() {
	m.mu.Lock()
	m.svcCount++
	if m.svcCount%m.samplePeriod == 0 {
		m.phase++
		// Triangle wave of ±2000 counts (~±17.5 dps) with phase-shifted axes.
		m.x = tri(m.phase, 0)
		m.y = tri(m.phase, 13)
		m.z = tri(m.phase, 27)
		m.ready = true
	}
	m.mu.Unlock()
}

func tri(phase, shift int) int16 {
	p := (phase + shift) % 40
	if p > 20 {
		p = 40 - p
	}
	return int16(p*200 - 2000)
}

func (m *L3GD20) Tx(w, r []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(w) >= 2 {
		if w[0] == gyroRegCtrl1 {
			m.ctrl1 = w[1]
		}
		return nil
	}
	if len(w) != 1 || len(r) == 0 {
		return nil
	}
	reg := w[0]
	switch reg {
	case gyroRegWhoAmI:
		r[0] = gyroWhoAmI
	case gyroRegStatus:
		if m.ready {
			r[0] = gyroStatusZYXDA
		} else {
			r[0] = 0
		}
	case gyroRegOutXL | gyroAutoInc:
		out := [6]byte{
			byte(uint16(m.x)), byte(uint16(m.x) >> 8),
			byte(uint16(m.y)), byte(uint16(m.y) >> 8),
			byte(uint16(m.z)), byte(uint16(m.z) >> 8),
		}
		copy(r, out[:])
		m.ready = false
	}
	return nil
}
