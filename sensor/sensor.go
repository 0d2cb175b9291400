// Package sensor defines the contract between sensor drivers and the
// runtime, and the one shared task procedure that services every sensor
// instance. All per-sensor behaviour is carried by TaskData; the procedure
// itself holds no state, so any number of task instances may share it.
package sensor

import (
	"encoding/binary"

	"github.com/rs/zerolog"

	"sensoros-go/errcode"
	"sensoros-go/kernel"
)

// Kind tags the data a sensor produces.
type Kind uint8

const (
	KindTemp Kind = iota
	KindGyro
)

func (k Kind) String() string {
	switch k {
	case KindTemp:
		return "temp"
	case KindGyro:
		return "gyro"
	default:
		return "unknown"
	}
}

// Reading is one sensor sample. Values are fixed-point centi-units
// (centi-degrees Celsius, centi-degrees-per-second) to keep floating point
// off the task path.
type Reading struct {
	Kind    Kind
	Channel uint8
	Centi   int32
}

// MsgSize is the wire size of a marshalled Reading, and the record size of
// the display task's queue.
const MsgSize = 8

// Marshal writes the reading's fixed little-endian layout into dst.
// dst must hold MsgSize bytes.
func (r Reading) Marshal(dst []byte) {
	dst[0] = byte(r.Kind)
	dst[1] = r.Channel
	dst[2] = 0
	dst[3] = 0
	binary.LittleEndian.PutUint32(dst[4:8], uint32(r.Centi))
}

// UnmarshalReading decodes a marshalled reading.
func UnmarshalReading(b []byte) (Reading, error) {
	if len(b) < MsgSize {
		return Reading{}, &errcode.E{C: errcode.InvalidConfig, Op: "sensor.UnmarshalReading", Msg: "short record"}
	}
	return Reading{
		Kind:    Kind(b[0]),
		Channel: b[1],
		Centi:   int32(binary.LittleEndian.Uint32(b[4:8])),
	}, nil
}

// Control is the driver-facing sensor contract.
//
// Init, Read and SetChannel run in task context with the bus semaphore held
// where they touch hardware. Service runs from the tick source in interrupt
// context: it must be non-blocking and bounded, and may only raise events or
// flip polled flags.
type Control interface {
	Kind() Kind

	// Init prepares the sensor. evt, when non-nil, is signaled by Service
	// whenever new data is ready; a nil evt means the sensor is polled and
	// the task checks for data on its own schedule. pollTicks is the
	// nominal data period in scheduler ticks.
	Init(kind Kind, evt *kernel.Event, pollTicks int) error

	// Read fetches the latest sample, returning errcode.NoNewData when
	// nothing fresh is available.
	Read() (Reading, error)

	// SetChannel steps the active channel up or down and returns the new
	// channel. Sensors without channels return 0.
	SetChannel(next bool) int

	// Service performs the sensor's periodic background work.
	Service()
}

// recentDepth is the per-task buffer of recent readings.
const recentDepth = 4

// TaskData is the per-instance context of a sensor task: where results go,
// how the shared bus is arbitrated, and which sensor this instance drives.
// The scheduler never interprets it.
type TaskData struct {
	Display   kernel.TaskID     // destination for marshalled readings
	Bus       *kernel.Semaphore // shared hardware bus guard
	Control   Control
	Event     *kernel.Event // nil selects polled mode
	PollTicks int
	Log       zerolog.Logger

	recent [recentDepth]Reading
	count  int
}

func (d *TaskData) record(r Reading) {
	d.recent[d.count%recentDepth] = r
	d.count++
}

// Recent returns the most recent readings, newest last, at most recentDepth.
func (d *TaskData) Recent() []Reading {
	n := d.count
	if n > recentDepth {
		n = recentDepth
	}
	out := make([]Reading, 0, n)
	for i := d.count - n; i < d.count; i++ {
		out = append(out, d.recent[i%recentDepth])
	}
	return out
}
