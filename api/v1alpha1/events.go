package v1alpha1

// EventType identifies one lifecycle message in the wire protocol.
type EventType string

const (
	EventStarted   EventType = "started"
	EventHeartbeat EventType = "heartbeat"
	EventProgress  EventType = "progress"
	EventLog       EventType = "log"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
)

// LogLevel is the severity carried by log events.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Event is the outbound envelope. Type, JobID and Timestamp are present on
// every event; the remaining fields are kind-specific and omitted when unset.
// Timestamp is epoch milliseconds, stamped at send time.
type Event struct {
	Type      EventType `json:"type"`
	JobID     string    `json:"jobId"`
	Timestamp int64     `json:"timestamp"`

	// progress; pointer so a 0% report still carries the field
	Percent *float64 `json:"percent,omitempty"`

	// log
	Level LogLevel `json:"level,omitempty"`

	// progress and log
	Message string `json:"message,omitempty"`

	// extra caller-supplied fields, progress and log only
	Data map[string]any `json:"data,omitempty"`

	// completed
	Result any `json:"result,omitempty"`

	// failed
	Error string `json:"error,omitempty"`
	Stack string `json:"stack,omitempty"`
}

// ProgressPercent boxes a percentage for the Event envelope. Progress events
// carry percent unconditionally, zero included.
func ProgressPercent(v float64) *float64 {
	return &v
}

// Payload is the handshake document handed to the worker process on startup,
// one JSON line on standard input.
type Payload struct {
	JobID      string `json:"jobId"`
	Name       string `json:"name,omitempty"`
	Data       any    `json:"data,omitempty"`
	SocketPath string `json:"socketPath,omitempty"`
}
