package sim

import (
	"bufio"
	"context"
	"io"

	"github.com/rs/zerolog"

	"sensoros-go/kernel"
)

// Input reads control characters and raises the previous/next channel
// events, standing in for a console thread. 'p'/'n' and the up/down arrow
// escape sequences are recognized.
type Input struct {
	Prev *kernel.Event
	Next *kernel.Event
	In   io.Reader
	Log  zerolog.Logger
}

// Run blocks reading In until EOF or a read error. The context is checked
// between reads; a blocked read ends only when In is closed.
func (i *Input) Run(ctx context.Context) {
	r := bufio.NewReader(i.In)
	for {
		if ctx.Err() != nil {
			return
		}
		b, err := r.ReadByte()
		if err != nil {
			i.Log.Debug().Err(err).Msg("input source stopping")
			return
		}
		switch b {
		case 'p', 'P':
			i.Prev.Signal()
		case 'n', 'N':
			i.Next.Signal()
		case 0x1b: // ESC [ A (up) and ESC [ B (down)
			if b2, _ := r.ReadByte(); b2 != '[' {
				continue
			}
			switch b3, _ := r.ReadByte(); b3 {
			case 'A':
				i.Prev.Signal()
			case 'B':
				i.Next.Signal()
			}
		}
	}
}
