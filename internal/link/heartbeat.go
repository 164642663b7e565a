package link

import (
	jitterbug "github.com/lthibault/jitterbug/v2"

	"github.com/donkeylabs/joblink/api/v1alpha1"
)

// startHeartbeat runs the liveness loop for the lifetime of the link. Send
// results are ignored here: a failed heartbeat triggers recovery through the
// normal Send failure path, and heartbeats during an outage are simply lost.
func (l *Link) startHeartbeat() {
	stop := make(chan chan any)

	l.mu.Lock()
	l.hbStop = stop
	l.mu.Unlock()

	interval := l.opts.HeartbeatInterval
	go func() {
		// First beat goes out right away, the ticker paces the rest.
		l.Send(v1alpha1.Event{Type: v1alpha1.EventHeartbeat})

		t := jitterbug.New(interval, &jitterbug.Norm{Stdev: interval / 20})
		defer t.Stop()
		for {
			select {
			case ack := <-stop:
				ack <- struct{}{}
				close(ack)
				return
			case <-t.C:
				l.Send(v1alpha1.Event{Type: v1alpha1.EventHeartbeat})
			}
		}
	}()
}
