package sensor

import (
	"sensoros-go/drivers/l3gd20"
	"sensoros-go/errcode"
	"sensoros-go/kernel"
)

// Gyro drives an L3GD20 gyroscope in polled mode: the task sleeps its poll
// interval, then checks the chip's data-ready flag under the bus semaphore.
// No event is involved and Service has nothing to do.
type Gyro struct {
	dev *l3gd20.Device
}

// NewGyro wraps a configured-but-untouched L3GD20 device.
func NewGyro(dev *l3gd20.Device) *Gyro {
	return &Gyro{dev: dev}
}

func (s *Gyro) Kind() Kind { return KindGyro }

func (s *Gyro) Init(kind Kind, evt *kernel.Event, pollTicks int) error {
	if kind != KindGyro || pollTicks <= 0 {
		return &errcode.E{C: errcode.InvalidConfig, Op: "sensor.Gyro.Init"}
	}
	_ = evt // polled sensor; the flag lives on the chip
	if !s.dev.Connected() {
		return &errcode.E{C: errcode.Error, Op: "sensor.Gyro.Init", Msg: "l3gd20 not responding"}
	}
	return s.dev.Configure()
}

// Read reports the X-axis rate, or NoNewData when the chip has nothing fresh.
func (s *Gyro) Read() (Reading, error) {
	ready, err := s.dev.DataReady()
	if err != nil {
		return Reading{}, err
	}
	if !ready {
		return Reading{}, errcode.NoNewData
	}
	x, _, _, err := s.dev.ReadRotation()
	if err != nil {
		return Reading{}, err
	}
	return Reading{Kind: KindGyro, Centi: x}, nil
}

func (s *Gyro) SetChannel(bool) int { return 0 }

func (s *Gyro) Service() {}
