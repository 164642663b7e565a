package worker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donkeylabs/joblink/internal/worker"
)

func TestReadPayload(t *testing.T) {
	payload, err := worker.ReadPayload(strings.NewReader(
		`{"jobId":"j1","name":"demo","data":{"steps":2},"socketPath":"/tmp/x.sock"}` + "\n",
	))
	require.NoError(t, err)
	assert.Equal(t, "j1", payload.JobID)
	assert.Equal(t, "demo", payload.Name)
	assert.Equal(t, "/tmp/x.sock", payload.SocketPath)

	data, ok := payload.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), data["steps"])
}

func TestReadPayloadWithoutTrailingNewline(t *testing.T) {
	payload, err := worker.ReadPayload(strings.NewReader(
		`{"jobId":"j1","socketPath":"/tmp/x.sock"}`,
	))
	require.NoError(t, err)
	assert.Equal(t, "j1", payload.JobID)
}

func TestReadPayloadDefaultsName(t *testing.T) {
	payload, err := worker.ReadPayload(strings.NewReader(
		`{"jobId":"j1","socketPath":"/tmp/x.sock"}` + "\n",
	))
	require.NoError(t, err)
	assert.Equal(t, "unknown", payload.Name)
}

func TestReadPayloadEnvFallback(t *testing.T) {
	t.Setenv("JOB_ID", "env-job")
	t.Setenv("SOCKET_PATH", "/tmp/env.sock")

	payload, err := worker.ReadPayload(strings.NewReader(`{"name":"demo"}` + "\n"))
	require.NoError(t, err)
	assert.Equal(t, "env-job", payload.JobID)
	assert.Equal(t, "/tmp/env.sock", payload.SocketPath)
}

func TestReadPayloadSynthesizesTCPEndpointFromPort(t *testing.T) {
	t.Setenv("JOB_ID", "env-job")
	t.Setenv("SOCKET_PATH", "")
	t.Setenv("TCP_PORT", "9000")

	payload, err := worker.ReadPayload(strings.NewReader(`{}` + "\n"))
	require.NoError(t, err)
	assert.Equal(t, "tcp://127.0.0.1:9000", payload.SocketPath)
}

func TestReadPayloadExplicitSocketWinsOverEnv(t *testing.T) {
	t.Setenv("SOCKET_PATH", "/tmp/env.sock")
	t.Setenv("TCP_PORT", "9000")

	payload, err := worker.ReadPayload(strings.NewReader(
		`{"jobId":"j1","socketPath":"/tmp/explicit.sock"}` + "\n",
	))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/explicit.sock", payload.SocketPath)
}

func TestReadPayloadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty input", input: ""},
		{name: "blank line", input: "\n"},
		{name: "malformed json", input: "{not-json\n"},
		{name: "missing job id", input: `{"socketPath":"/tmp/x.sock"}` + "\n"},
		{name: "missing socket path", input: `{"jobId":"j1"}` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JOB_ID", "")
			t.Setenv("SOCKET_PATH", "")
			t.Setenv("TCP_PORT", "")

			_, err := worker.ReadPayload(strings.NewReader(tt.input))
			require.Error(t, err)

			var payloadErr *worker.PayloadError
			assert.ErrorAs(t, err, &payloadErr)
		})
	}
}
