package sensor

import (
	"sensoros-go/drivers/bme280"
	"sensoros-go/errcode"
	"sensoros-go/kernel"
)

const defaultTempChannels = 5

// Temp drives a BME280 temperature sensor in event mode: Service raises the
// data event every poll interval and the task fetches under the bus
// semaphore. The channel is a selection the control task steps through;
// readings are tagged with it.
type Temp struct {
	dev      *bme280.Device
	channels int

	// Set once by Init before the tick source starts.
	evt       *kernel.Event
	pollTicks int

	channel  int // task context only
	svcCount int // tick-source context only
}

// NewTemp wraps a configured-but-untouched BME280 device.
func NewTemp(dev *bme280.Device, channels int) *Temp {
	if channels <= 0 {
		channels = defaultTempChannels
	}
	return &Temp{dev: dev, channels: channels}
}

func (s *Temp) Kind() Kind { return KindTemp }

func (s *Temp) Init(kind Kind, evt *kernel.Event, pollTicks int) error {
	if kind != KindTemp || evt == nil || pollTicks <= 0 {
		return &errcode.E{C: errcode.InvalidConfig, Op: "sensor.Temp.Init"}
	}
	s.evt = evt
	s.pollTicks = pollTicks
	if !s.dev.Connected() {
		return &errcode.E{C: errcode.Error, Op: "sensor.Temp.Init", Msg: "bme280 not responding"}
	}
	return s.dev.Configure()
}

func (s *Temp) Read() (Reading, error) {
	centi, err := s.dev.ReadTemperature()
	if err != nil {
		return Reading{}, err
	}
	return Reading{Kind: KindTemp, Channel: uint8(s.channel), Centi: centi}, nil
}

func (s *Temp) SetChannel(next bool) int {
	if next {
		s.channel = (s.channel + 1) % s.channels
	} else {
		s.channel = (s.channel + s.channels - 1) % s.channels
	}
	return s.channel
}

// Service signals the data event once per poll interval. Interrupt context.
func (s *Temp) Service() {
	if s.evt == nil || s.pollTicks <= 0 {
		return
	}
	s.svcCount++
	if s.svcCount%s.pollTicks == 0 {
		s.evt.Signal()
	}
}
