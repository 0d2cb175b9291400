package sensor

import (
	"github.com/rs/zerolog"

	"sensoros-go/errcode"
	"sensoros-go/kernel"
)

// postRetryTicks bounds a post to the display queue. A full queue past this
// deadline drops the reading; sensors always have a fresher one coming.
const postRetryTicks = 4

// TaskProc is the shared sensor task body. Event-driven instances park on
// their data event; polled instances sleep their poll interval and ask the
// sensor directly. Either way the bus semaphore brackets exactly the bus
// transaction, never the post.
func TaskProc(c *kernel.TaskCtx) {
	d := c.Data().(*TaskData)
	var buf [MsgSize]byte

	for {
		if d.Event != nil {
			if code := c.WaitEvent(d.Event, -1); code != errcode.OK {
				continue
			}
		} else {
			c.Sleep(d.PollTicks)
		}

		c.Acquire(d.Bus, -1)
		r, err := d.Control.Read()
		d.Bus.Release()

		if err != nil {
			if errcode.Of(err) != errcode.NoNewData {
				d.Log.Warn().Err(err).Stringer("kind", d.Control.Kind()).Msg("sensor read failed")
			}
			continue
		}
		d.record(r)
		r.Marshal(buf[:])
		if code := c.Post(d.Display, buf[:], postRetryTicks); code != errcode.OK {
			d.Log.Debug().Str("code", string(code)).Msg("reading dropped")
		}
	}
}

// ControlData is the channel-control task's context: the two input events
// and the sensor whose channel they steer.
type ControlData struct {
	Prev   *kernel.Event
	Next   *kernel.Event
	Target Control
	Log    zerolog.Logger
}

// ControlTaskProc waits on the previous/next channel events and steps the
// target sensor's channel accordingly.
func ControlTaskProc(c *kernel.TaskCtx) {
	d := c.Data().(*ControlData)
	for {
		idx, code := c.WaitAny(-1, d.Prev, d.Next)
		if code != errcode.OK {
			continue
		}
		ch := d.Target.SetChannel(idx == 1)
		d.Log.Info().Int("channel", ch).Msg("channel changed")
	}
}
