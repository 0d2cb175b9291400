// Package l3gd20 provides a driver for the ST L3GD20 three-axis gyroscope.
// It exposes a polled-flag API: DataReady() reports whether a fresh sample
// is latched, ReadRotation() fetches it. Rates are fixed-point
// centi-degrees-per-second at the 250 dps full-scale setting.
package l3gd20

import (
	"errors"

	"tinygo.org/x/drivers"
)

// I2C address with SDO high; 0x6A with SDO low.
const Address = 0x6B

// Registers.
const (
	regWhoAmI = 0x0F
	regCtrl1  = 0x20
	regStatus = 0x27
	regOutXL  = 0x28

	// Setting the MSB of the register address enables address
	// auto-increment for multi-byte reads.
	autoIncrement = 0x80
)

const (
	whoAmI = 0xD4

	// All axes on, 95 Hz output data rate.
	ctrl1Normal = 0x0F

	statusZYXDA = 0x08 // new data on all axes
)

// Sensitivity at 250 dps full scale is 8.75 mdps/LSB; scale raw counts to
// centi-dps with integer math.
const (
	sensNum = 875
	sensDen = 1000
)

var ErrProtocol = errors.New("l3gd20: protocol error")

// Device wraps an I2C connection to an L3GD20 device.
type Device struct {
	bus     drivers.I2C
	Address uint16

	buf [6]byte
}

// New creates a new L3GD20 connection. The I2C bus must already be
// configured; the device is not touched.
func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, Address: Address}
}

// Connected reads WHO_AM_I and reports whether the chip answers correctly.
func (d *Device) Connected() bool {
	data := d.buf[:1]
	if err := d.bus.Tx(d.Address, []byte{regWhoAmI}, data); err != nil {
		return false
	}
	return data[0] == whoAmI
}

// Configure powers the gyro up with all axes enabled.
func (d *Device) Configure() error {
	return d.bus.Tx(d.Address, []byte{regCtrl1, ctrl1Normal}, nil)
}

// DataReady reads the status register's ZYXDA flag. The flag clears once
// the output registers are read.
func (d *Device) DataReady() (bool, error) {
	data := d.buf[:1]
	if err := d.bus.Tx(d.Address, []byte{regStatus}, data); err != nil {
		return false, err
	}
	return data[0]&statusZYXDA != 0, nil
}

// ReadRotation returns the angular rates around X, Y and Z in centi-degrees
// per second.
func (d *Device) ReadRotation() (x, y, z int32, err error) {
	data := d.buf[:6]
	if err := d.bus.Tx(d.Address, []byte{regOutXL | autoIncrement}, data); err != nil {
		return 0, 0, 0, err
	}
	x = scale(int16(uint16(data[0]) | uint16(data[1])<<8))
	y = scale(int16(uint16(data[2]) | uint16(data[3])<<8))
	z = scale(int16(uint16(data[4]) | uint16(data[5])<<8))
	return x, y, z, nil
}

func scale(raw int16) int32 {
	return int32(raw) * sensNum / sensDen
}
