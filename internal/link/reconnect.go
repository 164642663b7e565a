package link

import (
	"time"

	"github.com/donkeylabs/joblink/api/v1alpha1"
	"github.com/donkeylabs/joblink/pkg/metrics"
)

// spawnRecoveryLocked starts the recovery sequence on its own goroutine
// unless one is already in flight or the link gave up. Callers hold mu; the
// recovering check-and-set happens under its own guard.
func (l *Link) spawnRecoveryLocked() {
	if !l.running || l.state == StateDetached {
		return
	}

	l.guardMu.Lock()
	defer l.guardMu.Unlock()
	if l.recovering {
		return
	}
	l.recovering = true
	go l.recover()
}

// recover restores the link to connected state after a transport failure. It
// runs detached from the job handler: sends keep failing fast while it works.
// Up to MaxReconnectAttempts sequential attempts with a fixed delay between
// them; exhaustion parks the link in the terminal detached state.
func (l *Link) recover() {
	defer func() {
		l.guardMu.Lock()
		l.recovering = false
		l.guardMu.Unlock()
	}()

	l.log.Info("attempting to reconnect")

	for attempt := 1; attempt <= l.opts.MaxReconnectAttempts; attempt++ {
		metrics.IncreaseReconnectAttemptsMetric()

		l.mu.Lock()
		if !l.running {
			l.mu.Unlock()
			return
		}
		// drop the stale handle before redialing
		if l.conn != nil {
			_ = l.conn.Close()
			l.conn = nil
		}
		l.mu.Unlock()

		conn, err := l.endpoint.Dial()
		if err == nil {
			l.mu.Lock()
			if !l.running {
				l.mu.Unlock()
				_ = conn.Close()
				return
			}
			l.conn = conn
			// Announce the resumed session before any other sender can
			// reach the wire: the orchestrator treats a repeated started
			// as resume, and it must precede the next heartbeat.
			if err := l.writeEventLocked(v1alpha1.Event{Type: v1alpha1.EventStarted}); err == nil {
				l.setStateLocked(StateConnected)
				l.mu.Unlock()
				l.log.Infof("reconnected to %s after %d attempts", l.endpoint, attempt)
				return
			}
			_ = conn.Close()
			l.conn = nil
			l.mu.Unlock()
		} else {
			l.log.Warnf("reconnect attempt %d/%d failed: %v", attempt, l.opts.MaxReconnectAttempts, err)
		}

		time.Sleep(l.opts.ReconnectInterval)
	}

	l.mu.Lock()
	l.setStateLocked(StateDetached)
	l.mu.Unlock()
	l.log.Errorf("giving up after %d reconnect attempts, reporting channel is lost", l.opts.MaxReconnectAttempts)
}

// writeEventLocked stamps, frames and writes one event while mu is held.
func (l *Link) writeEventLocked(ev v1alpha1.Event) error {
	ev.JobID = l.jobID
	ev.Timestamp = time.Now().UnixMilli()
	frame, err := v1alpha1.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := l.conn.Write(frame); err != nil {
		return err
	}
	metrics.IncreaseEventsSentMetric(string(ev.Type))
	return nil
}
