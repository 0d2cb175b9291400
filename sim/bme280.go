package sim

import (
	"sync"
)

// Bosch datasheet example calibration; the compensation formula maps our
// synthesized raw counts back through these.
const (
	bmeDigT1 uint16 = 27504
	bmeDigT2 int16  = 26435
	bmeDigT3 int16  = -1000
)

const (
	bmeRegCalibT = 0x88
	bmeRegChipID = 0xD0
	bmeRegReset  = 0xE0
	bmeRegCtrl   = 0xF4
	bmeRegTemp   = 0xFA

	bmeChipID = 0x60
)

// BME280 models the sensor's register file. Service advances a slow
// triangle wave around the base temperature; reads synthesize the raw ADC
// counts that compensate back to the current model temperature.
type BME280 struct {
	mu    sync.Mutex
	ctrl  byte
	phase int
	base  int32 // centi-degrees Celsius
}

// NewBME280 creates a model idling at the given base temperature.
func NewBME280(baseCenti int32) *BME280 {
	return &BME280{base: baseCenti}
}

// Service advances the temperature waveform. Called from the tick source.
func (m *BME280) Service() {
	m.mu.Lock()
	m.phase++
	m.mu.Unlock()
}

// temp returns the current model temperature in centi-degrees: a triangle
// wave of ±1.5°C around base with a 600-service period.
func (m *BME280) temp() int32 {
	p := m.phase % 600
	if p > 300 {
		p = 600 - p
	}
	return m.base + int32(p) - 150
}

func (m *BME280) Tx(w, r []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(w) >= 2 { // register write
		switch w[0] {
		case bmeRegCtrl:
			m.ctrl = w[1]
		case bmeRegReset:
			m.ctrl = 0
			m.phase = 0
		}
		return nil
	}
	if len(w) != 1 || len(r) == 0 {
		return nil
	}
	reg := w[0]
	for i := range r {
		r[i] = m.read(reg + byte(i))
	}
	return nil
}

func (m *BME280) read(reg byte) byte {
	switch {
	case reg == bmeRegChipID:
		return bmeChipID
	case reg >= bmeRegCalibT && reg < bmeRegCalibT+6:
		t2s, t3s := bmeDigT2, bmeDigT3
		t1, t2, t3 := bmeDigT1, uint16(t2s), uint16(t3s)
		cal := [6]byte{
			byte(t1), byte(t1 >> 8),
			byte(t2), byte(t2 >> 8),
			byte(t3), byte(t3 >> 8),
		}
		return cal[reg-bmeRegCalibT]
	case reg >= bmeRegTemp && reg < bmeRegTemp+3:
		raw := rawForCenti(m.temp())
		buf := [3]byte{byte(raw >> 12), byte(raw >> 4), byte(raw << 4)}
		return buf[reg-bmeRegTemp]
	default:
		return 0
	}
}

// compensate mirrors the driver's Bosch 32-bit formula.
func compensate(raw int32) int32 {
	v1 := ((raw >> 3) - int32(bmeDigT1)<<1) * int32(bmeDigT2) >> 11
	v2 := (((raw >> 4) - int32(bmeDigT1)) * ((raw >> 4) - int32(bmeDigT1)) >> 12) * int32(bmeDigT3) >> 14
	return ((v1 + v2) * 5 + 128) >> 8
}

// rawForCenti inverts the compensation by binary search; the formula is
// monotonic in raw over the 20-bit ADC range.
func rawForCenti(centi int32) int32 {
	lo, hi := int32(1), int32(0xFFFFF)
	for lo < hi {
		mid := (lo + hi) / 2
		if compensate(mid) < centi {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
