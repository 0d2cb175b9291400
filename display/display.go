// Package display implements the output consumer task: it owns the display
// message queue, decodes marshalled sensor readings and writes them to the
// log. It is the only receiver on its queue; every sensor task posts to it.
package display

import (
	"fmt"

	"github.com/rs/zerolog"

	"sensoros-go/errcode"
	"sensoros-go/kernel"
	"sensoros-go/sensor"
)

// defaultRecvTicks bounds each receive so quiet periods surface in the log
// instead of parking the task invisibly forever.
const defaultRecvTicks = 2000

// TaskData is the display task's context.
type TaskData struct {
	RecvTicks int // per-receive deadline; 0 selects the default
	Log       zerolog.Logger
}

// TaskProc drains the display queue. Spawn it with a queue of
// sensor.MsgSize-byte records.
func TaskProc(c *kernel.TaskCtx) {
	d := c.Data().(*TaskData)
	ticks := d.RecvTicks
	if ticks <= 0 {
		ticks = defaultRecvTicks
	}
	var buf [sensor.MsgSize]byte

	for {
		switch code := c.Receive(buf[:], ticks); code {
		case errcode.OK:
		case errcode.Timeout:
			d.Log.Debug().Msg("no readings")
			continue
		default:
			// NoQueue means the task was spawned without a queue; there
			// is nothing to consume, ever.
			d.Log.Error().Str("code", string(code)).Msg("display receive failed")
			c.Sleep(1 << 30)
			continue
		}

		r, err := sensor.UnmarshalReading(buf[:])
		if err != nil {
			d.Log.Warn().Err(err).Msg("bad display record")
			continue
		}
		d.Log.Info().
			Stringer("kind", r.Kind).
			Uint8("channel", r.Channel).
			Str("value", FormatCenti(r.Centi)).
			Msg("reading")
	}
}

// FormatCenti renders a centi-unit fixed-point value, e.g. 2351 -> "23.51".
func FormatCenti(v int32) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
