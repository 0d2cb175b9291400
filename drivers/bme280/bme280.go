// Package bme280 provides a minimal driver for the Bosch BME280 sensor,
// covering chip detection and compensated temperature readout:
//
//	d := bme280.New(bus)
//	if !d.Connected() { ... }
//	err := d.Configure()
//	centi, err := d.ReadTemperature() // centi-degrees Celsius
//
// The driver keeps floating point off the read path: compensation uses the
// Bosch 32-bit integer formulas and reports centi-units directly.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when
// both w and r are provided, without releasing the bus.
package bme280

import (
	"errors"

	"tinygo.org/x/drivers"
)

// I2C address. Some boards strap SDO high for 0x77.
const Address = 0x76

// Registers.
const (
	regCalibT  = 0x88 // dig_T1..dig_T3, 6 bytes little-endian
	regChipID  = 0xD0
	regReset   = 0xE0
	regCtrl    = 0xF4
	regTempMSB = 0xFA
)

const (
	chipID   = 0x60
	resetCmd = 0xB6

	// osrs_t x1, pressure skipped, normal mode.
	ctrlNormal = 0x23
)

// Errors returned by the driver.
var (
	ErrNotConnected = errors.New("bme280: not responding")
	ErrProtocol     = errors.New("bme280: protocol error")
)

type calibration struct {
	t1 uint16
	t2 int16
	t3 int16
}

// Device wraps an I2C connection to a BME280 device.
type Device struct {
	bus     drivers.I2C
	Address uint16

	cal calibration
	buf [6]byte // reuse buffer to avoid allocations
}

// New creates a new BME280 connection. The I2C bus must already be
// configured. This function only creates the Device object; it does not
// touch the device.
func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, Address: Address}
}

// Connected reads the chip identity register and reports whether it answers
// with the BME280 ID.
func (d *Device) Connected() bool {
	data := d.buf[:1]
	if err := d.bus.Tx(d.Address, []byte{regChipID}, data); err != nil {
		return false
	}
	return data[0] == chipID
}

// Configure loads the factory calibration and puts the sensor in normal
// sampling mode.
func (d *Device) Configure() error {
	data := d.buf[:6]
	if err := d.bus.Tx(d.Address, []byte{regCalibT}, data); err != nil {
		return err
	}
	d.cal.t1 = uint16(data[0]) | uint16(data[1])<<8
	d.cal.t2 = int16(uint16(data[2]) | uint16(data[3])<<8)
	d.cal.t3 = int16(uint16(data[4]) | uint16(data[5])<<8)
	if d.cal.t1 == 0 {
		return ErrProtocol
	}
	return d.bus.Tx(d.Address, []byte{regCtrl, ctrlNormal}, nil)
}

// Reset issues a soft reset. Give the device ~2ms afterwards before using.
func (d *Device) Reset() error {
	return d.bus.Tx(d.Address, []byte{regReset, resetCmd}, nil)
}

// ReadTemperature returns the compensated temperature in centi-degrees
// Celsius (2351 = 23.51°C).
func (d *Device) ReadTemperature() (int32, error) {
	data := d.buf[:3]
	if err := d.bus.Tx(d.Address, []byte{regTempMSB}, data); err != nil {
		return 0, err
	}
	raw := int32(uint32(data[0])<<12 | uint32(data[1])<<4 | uint32(data[2])>>4)
	if raw == 0 || raw == 0x80000 {
		return 0, ErrProtocol // power-on-reset value, conversion never ran
	}
	return d.compensate(raw), nil
}

// compensate implements the Bosch 32-bit temperature formula. Output
// resolution is 0.01°C.
func (d *Device) compensate(raw int32) int32 {
	v1 := ((raw >> 3) - int32(d.cal.t1)<<1) * int32(d.cal.t2) >> 11
	v2 := (((raw >> 4) - int32(d.cal.t1)) * ((raw >> 4) - int32(d.cal.t1)) >> 12) * int32(d.cal.t3) >> 14
	tFine := v1 + v2
	return (tFine*5 + 128) >> 8
}
