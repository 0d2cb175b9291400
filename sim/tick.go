package sim

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"sensoros-go/kernel"
	"sensoros-go/x/timex"
)

// Servicer is periodic background work run from the tick source in
// interrupt context: non-blocking and bounded. Sensor controls and device
// models implement it.
type Servicer interface {
	Service()
}

// TickSource drives the kernel's time base from a wall-clock ticker at a
// fixed rate and services the attached sensors each tick, standing in for
// a hardware timer interrupt.
type TickSource struct {
	Kernel    *kernel.Kernel
	RateHz    uint32
	Servicers []Servicer
	Log       zerolog.Logger
}

func (s *TickSource) Run(ctx context.Context) {
	period := time.Duration(timex.PeriodFromHz(s.RateHz))
	s.Log.Debug().Dur("period", period).Msg("tick source running")

	tick := time.NewTicker(period)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Log.Debug().Msg("tick source stopping")
			return
		case <-tick.C:
			s.Kernel.Tick()
			for _, svc := range s.Servicers {
				svc.Service()
			}
		}
	}
}
