package v1alpha1_test

import (
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/donkeylabs/joblink/api/v1alpha1"
)

var _ = Describe("Codec", func() {
	Context("marshal", func() {
		It("frames one newline-terminated document without interior newlines", func() {
			frame, err := v1alpha1.Marshal(v1alpha1.Event{
				Type:      v1alpha1.EventProgress,
				JobID:     "j1",
				Timestamp: 1700000000000,
				Percent:   v1alpha1.ProgressPercent(50),
				Message:   "halfway\nthere",
			})
			Expect(err).To(BeNil())
			Expect(frame[len(frame)-1]).To(Equal(byte('\n')))
			// the embedded newline must be escaped, not raw
			Expect(string(frame[:len(frame)-1])).ToNot(ContainSubstring("\n"))
		})

		It("refuses an event without a jobId bound", func() {
			_, err := v1alpha1.Marshal(v1alpha1.Event{Type: v1alpha1.EventHeartbeat})
			Expect(err).ToNot(BeNil())

			var encErr *v1alpha1.EncodingError
			Expect(errors.As(err, &encErr)).To(BeTrue())
		})

		It("fails fast on unencodable data", func() {
			_, err := v1alpha1.Marshal(v1alpha1.Event{
				Type:  v1alpha1.EventLog,
				JobID: "j1",
				Data:  map[string]any{"ch": make(chan int)},
			})
			Expect(err).ToNot(BeNil())

			var encErr *v1alpha1.EncodingError
			Expect(errors.As(err, &encErr)).To(BeTrue())
		})

		It("omits kind-specific fields that were not supplied", func() {
			frame, err := v1alpha1.Marshal(v1alpha1.Event{
				Type:      v1alpha1.EventHeartbeat,
				JobID:     "j1",
				Timestamp: 1700000000000,
			})
			Expect(err).To(BeNil())

			var doc map[string]any
			Expect(json.Unmarshal(frame, &doc)).To(Succeed())
			Expect(doc).To(HaveKey("type"))
			Expect(doc).To(HaveKey("jobId"))
			Expect(doc).To(HaveKey("timestamp"))
			Expect(doc).ToNot(HaveKey("message"))
			Expect(doc).ToNot(HaveKey("data"))
			Expect(doc).ToNot(HaveKey("result"))
			Expect(doc).ToNot(HaveKey("stack"))
			Expect(doc).ToNot(HaveKey("percent"))
		})

		It("keeps percent present on a zero progress report", func() {
			frame, err := v1alpha1.Marshal(v1alpha1.Event{
				Type:      v1alpha1.EventProgress,
				JobID:     "j1",
				Timestamp: 1700000000000,
				Percent:   v1alpha1.ProgressPercent(0),
				Message:   "Starting...",
			})
			Expect(err).To(BeNil())

			var doc map[string]any
			Expect(json.Unmarshal(frame, &doc)).To(Succeed())
			Expect(doc).To(HaveKey("percent"))
			Expect(doc["percent"]).To(Equal(float64(0)))
		})

		It("includes result only on completed when non-nil", func() {
			frame, err := v1alpha1.Marshal(v1alpha1.Event{
				Type:   v1alpha1.EventCompleted,
				JobID:  "j1",
				Result: map[string]any{"processed": true},
			})
			Expect(err).To(BeNil())

			var doc map[string]any
			Expect(json.Unmarshal(frame, &doc)).To(Succeed())
			Expect(doc).To(HaveKey("result"))

			frame, err = v1alpha1.Marshal(v1alpha1.Event{
				Type:  v1alpha1.EventCompleted,
				JobID: "j1",
			})
			Expect(err).To(BeNil())
			doc = map[string]any{}
			Expect(json.Unmarshal(frame, &doc)).To(Succeed())
			Expect(doc).ToNot(HaveKey("result"))
		})

		It("includes stack only on failed when provided", func() {
			frame, err := v1alpha1.Marshal(v1alpha1.Event{
				Type:  v1alpha1.EventFailed,
				JobID: "j1",
				Error: "boom",
			})
			Expect(err).To(BeNil())

			var doc map[string]any
			Expect(json.Unmarshal(frame, &doc)).To(Succeed())
			Expect(doc["error"]).To(Equal("boom"))
			Expect(doc).ToNot(HaveKey("stack"))
		})
	})

	Context("round trip", func() {
		It("reproduces kind and fields for every event type", func() {
			events := []v1alpha1.Event{
				{Type: v1alpha1.EventStarted, JobID: "j1", Timestamp: 1},
				{Type: v1alpha1.EventHeartbeat, JobID: "j1", Timestamp: 2},
				{Type: v1alpha1.EventProgress, JobID: "j1", Timestamp: 3, Percent: v1alpha1.ProgressPercent(42.5), Message: "step 1"},
				{Type: v1alpha1.EventLog, JobID: "j1", Timestamp: 4, Level: v1alpha1.LogLevelWarn, Message: "careful"},
				{Type: v1alpha1.EventFailed, JobID: "j1", Timestamp: 6, Error: "boom", Stack: "trace"},
			}
			for _, ev := range events {
				frame, err := v1alpha1.Marshal(ev)
				Expect(err).To(BeNil())

				decoded, err := v1alpha1.Unmarshal(frame)
				Expect(err).To(BeNil())
				Expect(decoded).To(Equal(ev))
			}
		})

		It("reproduces extra data payloads", func() {
			ev := v1alpha1.Event{
				Type:      v1alpha1.EventLog,
				JobID:     "j1",
				Timestamp: 5,
				Level:     v1alpha1.LogLevelInfo,
				Message:   "with extras",
				Data:      map[string]any{"answer": float64(42), "ok": true},
			}
			frame, err := v1alpha1.Marshal(ev)
			Expect(err).To(BeNil())

			decoded, err := v1alpha1.Unmarshal(frame)
			Expect(err).To(BeNil())
			Expect(decoded.Data).To(Equal(ev.Data))
		})
	})
})
