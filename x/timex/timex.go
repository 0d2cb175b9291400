package timex

// PeriodFromHz returns a nanosecond period for a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint32) uint64 {
	if freqHz == 0 {
		freqHz = 1
	}
	return uint64(1_000_000_000 / uint64(freqHz))
}

// TicksForMs converts a millisecond interval to scheduler ticks at the given
// tick rate, rounding up so a nonzero interval is never coerced to zero.
func TicksForMs(ms int, tickHz uint32) int {
	if ms <= 0 {
		return 0
	}
	if tickHz == 0 {
		tickHz = 1
	}
	t := (ms*int(tickHz) + 999) / 1000
	if t == 0 {
		t = 1
	}
	return t
}
