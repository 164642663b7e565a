package link

import (
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/donkeylabs/joblink/api/v1alpha1"
	"github.com/donkeylabs/joblink/pkg/metrics"
)

const (
	// DefaultHeartbeatInterval is the default interval between two heartbeats.
	DefaultHeartbeatInterval = 5 * time.Second
	// DefaultReconnectInterval is the default delay between two reconnection attempts.
	DefaultReconnectInterval = 2 * time.Second
	// DefaultMaxReconnectAttempts is the default reconnection attempt cap.
	DefaultMaxReconnectAttempts = 30

	// heartbeatStopTimeout bounds how long Close waits for the heartbeat
	// loop to acknowledge the stop.
	heartbeatStopTimeout = 2 * time.Second
)

// State is the link's connection state. Transitions are serialized under the
// link's send lock.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateDetached
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateDetached:
		return "detached"
	default:
		return "unknown"
	}
}

type Options struct {
	HeartbeatInterval    time.Duration
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int
}

func (o Options) withDefaults() Options {
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if o.ReconnectInterval <= 0 {
		o.ReconnectInterval = DefaultReconnectInterval
	}
	if o.MaxReconnectAttempts <= 0 {
		o.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	return o
}

// Link owns the single transport connection to the orchestrator and
// serializes all writes to it. The heartbeat loop and the job handler share
// it through Send; neither touches the connection directly.
type Link struct {
	jobID    string
	endpoint Endpoint
	opts     Options
	log      *zap.SugaredLogger

	// mu guards conn, state, running and closed. Held for the duration of
	// every write so frames are never interleaved.
	mu      sync.Mutex
	conn    net.Conn
	state   State
	running bool
	closed  bool

	// guardMu protects the recovering check-and-set, distinct from mu so a
	// send can fail fast while recovery is in flight.
	guardMu    sync.Mutex
	recovering bool

	hbStop chan chan any
}

func New(jobID string, endpoint Endpoint, opts Options) *Link {
	return &Link{
		jobID:    jobID,
		endpoint: endpoint,
		opts:     opts.withDefaults(),
		state:    StateDisconnected,
		log:      zap.S().Named("link"),
	}
}

// Connect opens the transport, emits the started event and starts the
// heartbeat loop. A failure here is fatal to the session: no event has been
// sent yet and no recovery is attempted.
func (l *Link) Connect() error {
	l.mu.Lock()
	l.setStateLocked(StateConnecting)
	l.mu.Unlock()

	conn, err := l.endpoint.Dial()
	if err != nil {
		l.mu.Lock()
		l.setStateLocked(StateDisconnected)
		l.mu.Unlock()
		return err
	}

	l.mu.Lock()
	l.conn = conn
	l.running = true
	l.setStateLocked(StateConnected)
	l.mu.Unlock()

	l.log.Infof("connected to %s", l.endpoint)

	// started goes out before the heartbeat loop exists, so it is always
	// the first frame on the wire.
	l.Send(v1alpha1.Event{Type: v1alpha1.EventStarted})
	l.startHeartbeat()
	return nil
}

// Send stamps the event with the link's job id and the current timestamp,
// frames it and hands it to the transport under the send lock. It returns
// false, never an error, when no usable connection exists or the write fails.
// A write failure flips the link to reconnecting and spawns the recovery
// sequence in the background; the caller is never blocked by it.
func (l *Link) Send(ev v1alpha1.Event) bool {
	ev.JobID = l.jobID
	ev.Timestamp = time.Now().UnixMilli()

	frame, err := v1alpha1.Marshal(ev)
	if err != nil {
		l.log.Errorf("dropping unencodable %s event: %v", ev.Type, err)
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn == nil || l.state != StateConnected {
		return false
	}

	if _, err := l.conn.Write(frame); err != nil {
		l.log.Warnf("connection lost: %v", err)
		metrics.IncreaseSendFailuresMetric()
		l.setStateLocked(StateReconnecting)
		l.spawnRecoveryLocked()
		return false
	}

	metrics.IncreaseEventsSentMetric(string(ev.Type))
	return true
}

// State returns a snapshot of the link's connection state.
func (l *Link) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Close stops the heartbeat loop, waiting up to heartbeatStopTimeout for it
// to acknowledge, then closes the transport handle. Closing an already broken
// socket is not an error. Close is idempotent and does not interrupt an
// in-flight recovery; a recovery that finishes after Close observes the
// cleared running flag and discards its connection.
func (l *Link) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.running = false
	stop := l.hbStop
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()

	if stop != nil {
		ack := make(chan any)
		select {
		case stop <- ack:
			select {
			case <-ack:
			case <-time.After(heartbeatStopTimeout):
				l.log.Warn("heartbeat loop did not stop in time")
			}
		case <-time.After(heartbeatStopTimeout):
			l.log.Warn("heartbeat loop did not accept stop in time")
		}
	}

	if conn != nil {
		_ = conn.Close()
	}
	l.log.Info("link closed")
}

func (l *Link) setStateLocked(s State) {
	l.state = s
	metrics.UpdateLinkStateMetric(int(s))
}
