package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// RequestID adds a request ID field.
func RequestID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("request_id", id)
	}
}

// Tool adds the external tool name.
func Tool(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("tool", name)
	}
}

// Workspace adds the workspace directory name. Callers pass the base
// name, not the full host path.
func Workspace(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("workspace", name)
	}
}

// Key adds a rate-limit key field.
func Key(key string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("key", key)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ExitCode adds the subprocess exit code; -1 when the process was
// killed before reporting one.
func ExitCode(code *int) Field {
	return func(e *bolt.Event) *bolt.Event {
		if code == nil {
			return e.Int("exit_code", -1)
		}
		return e.Int("exit_code", *code)
	}
}

// TimedOut adds a timed_out field.
func TimedOut(timedOut bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("timed_out", timedOut)
	}
}

// Bytes adds a byte-count field.
func Bytes(n int64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("bytes", n)
	}
}

// Count adds a count field.
func Count(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("count", n)
	}
}

// Status adds an HTTP status field.
func Status(code int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("status", code)
	}
}

// Route adds an HTTP route field.
func Route(route string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("route", route)
	}
}

// Reason adds a reason field.
func Reason(reason string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("reason", reason)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}
