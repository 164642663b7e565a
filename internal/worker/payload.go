package worker

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/donkeylabs/joblink/api/v1alpha1"
)

// PayloadError reports a missing or malformed handshake. It is fatal: the
// session exits before any connection is attempted.
type PayloadError struct {
	Reason string
	Err    error
}

func (e *PayloadError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// envFallback is the second provisioning style: orchestrators that pass the
// job identity through the environment instead of the handshake line.
type envFallback struct {
	JobID      string `envconfig:"JOB_ID"`
	SocketPath string `envconfig:"SOCKET_PATH"`
	TCPPort    string `envconfig:"TCP_PORT"`
}

// ReadPayload consumes exactly one handshake line from r, decodes it and
// fills the gaps from the process environment. After fallback the job id and
// connection target must both be present.
func ReadPayload(r io.Reader) (*v1alpha1.Payload, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return nil, &PayloadError{Reason: "no handshake received on input", Err: err}
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, &PayloadError{Reason: "no handshake received on input"}
	}

	var payload v1alpha1.Payload
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		return nil, &PayloadError{Reason: "malformed handshake", Err: err}
	}

	var env envFallback
	if err := envconfig.Process("", &env); err != nil {
		return nil, &PayloadError{Reason: "reading environment fallback", Err: err}
	}

	if payload.JobID == "" {
		payload.JobID = env.JobID
	}
	if payload.SocketPath == "" {
		payload.SocketPath = env.SocketPath
		if payload.SocketPath == "" && env.TCPPort != "" {
			payload.SocketPath = fmt.Sprintf("tcp://127.0.0.1:%s", env.TCPPort)
		}
	}

	if payload.JobID == "" || payload.SocketPath == "" {
		return nil, &PayloadError{Reason: "missing jobId or socketPath"}
	}
	if payload.Name == "" {
		payload.Name = "unknown"
	}
	return &payload, nil
}
