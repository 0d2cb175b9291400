package errcode

// Code is a stable error identifier used across the runtime.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Setup-time codes. A configuration defect; fatal during initialization.
	CapacityExceeded Code = "capacity_exceeded"
	InvalidPriority  Code = "invalid_priority"
	InvalidConfig    Code = "invalid_config"

	// Runtime codes. Ordinary return values inspected by task bodies.
	Timeout     Code = "timeout"
	QueueFull   Code = "queue_full"
	Overrelease Code = "overrelease"
	NoNewData   Code = "no_new_data"
	NoQueue     Code = "no_queue"
	BadHandle   Code = "bad_handle"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
