package v1alpha1

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EncodingError reports an event that cannot be represented on the wire.
// It is a programmer error (unmarshalable payloads, missing job id), not a
// transport failure.
type EncodingError struct {
	Type EventType
	Err  error
}

func (e *EncodingError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("encoding %s event", e.Type)
	}
	return fmt.Sprintf("encoding %s event: %v", e.Type, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Marshal frames an event as one newline-terminated JSON document. The
// document itself never contains a newline, so the orchestrator's reader can
// split frames on '\n'. Events without a bound job id are refused.
func Marshal(ev Event) ([]byte, error) {
	if ev.JobID == "" {
		return nil, &EncodingError{Type: ev.Type, Err: fmt.Errorf("event has no jobId bound")}
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, &EncodingError{Type: ev.Type, Err: err}
	}
	if bytes.ContainsRune(data, '\n') {
		return nil, &EncodingError{Type: ev.Type, Err: fmt.Errorf("encoded event contains a newline")}
	}
	return append(data, '\n'), nil
}

// Unmarshal decodes one frame produced by Marshal. The client itself is
// send-only; this exists for the orchestrator side and for round-trip tests.
func Unmarshal(line []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(bytes.TrimSuffix(line, []byte("\n")), &ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}
