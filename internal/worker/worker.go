package worker

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/donkeylabs/joblink/api/v1alpha1"
	"github.com/donkeylabs/joblink/internal/link"
)

// Job is the capability object handed to the handler. Every reporting method
// is a thin pass-through to the link: the boolean result says whether the
// orchestrator received the event, and a false never aborts the job.
type Job struct {
	ID   string
	Name string
	Data any

	link *link.Link
}

// Handler is the user's job logic. The returned value becomes the result of
// the completed event; a returned error or a panic becomes a failed event.
type Handler func(ctx context.Context, job *Job) (any, error)

func (j *Job) Progress(percent float64, message string, extra map[string]any) bool {
	return j.link.Send(v1alpha1.Event{
		Type:    v1alpha1.EventProgress,
		Percent: v1alpha1.ProgressPercent(percent),
		Message: message,
		Data:    extra,
	})
}

func (j *Job) Log(level v1alpha1.LogLevel, message string, extra map[string]any) bool {
	return j.link.Send(v1alpha1.Event{
		Type:    v1alpha1.EventLog,
		Level:   level,
		Message: message,
		Data:    extra,
	})
}

func (j *Job) Debug(message string, extra map[string]any) bool {
	return j.Log(v1alpha1.LogLevelDebug, message, extra)
}

func (j *Job) Info(message string, extra map[string]any) bool {
	return j.Log(v1alpha1.LogLevelInfo, message, extra)
}

func (j *Job) Warn(message string, extra map[string]any) bool {
	return j.Log(v1alpha1.LogLevelWarn, message, extra)
}

func (j *Job) Error(message string, extra map[string]any) bool {
	return j.Log(v1alpha1.LogLevelError, message, extra)
}

func (j *Job) Complete(result any) bool {
	return j.link.Send(v1alpha1.Event{
		Type:   v1alpha1.EventCompleted,
		Result: result,
	})
}

func (j *Job) Fail(errMsg, stack string) bool {
	return j.link.Send(v1alpha1.Event{
		Type:  v1alpha1.EventFailed,
		Error: errMsg,
		Stack: stack,
	})
}

// HandlerError carries the failure raised by user job logic, with the stack
// trace reported in the failed event.
type HandlerError struct {
	Message string
	Stack   string
}

func (e *HandlerError) Error() string {
	return e.Message
}

// Run drives one job session end to end: read the handshake from input,
// connect the link, invoke the handler, map its outcome to a terminal event.
// The link is closed on every exit path. A non-nil return means the process
// should exit non-zero.
func Run(ctx context.Context, input io.Reader, cfg *Config, handler Handler) error {
	logger := zap.S().Named("worker")

	payload, err := ReadPayload(input)
	if err != nil {
		logger.Errorf("handshake failed: %v", err)
		return err
	}

	endpoint, err := link.ParseEndpoint(payload.SocketPath)
	if err != nil {
		logger.Errorf("resolving endpoint: %v", err)
		return err
	}

	logger.Infof("starting job %s (%s) against %s", payload.JobID, payload.Name, endpoint)

	lnk := link.New(payload.JobID, endpoint, cfg.linkOptions())
	if err := lnk.Connect(); err != nil {
		logger.Errorf("connecting to orchestrator: %v", err)
		return err
	}
	defer lnk.Close()

	job := &Job{
		ID:   payload.JobID,
		Name: payload.Name,
		Data: payload.Data,
		link: lnk,
	}

	result, herr := invoke(ctx, job, handler)
	if herr != nil {
		logger.Errorf("job %s failed: %s", job.ID, herr.Message)
		job.Fail(herr.Message, herr.Stack)
		return herr
	}

	logger.Infof("job %s completed", job.ID)
	job.Complete(result)
	return nil
}

// invoke runs the handler, converting a panic into a HandlerError so the
// failed event always carries a stack trace.
func invoke(ctx context.Context, job *Job, handler Handler) (result any, herr *HandlerError) {
	defer func() {
		if r := recover(); r != nil {
			herr = &HandlerError{
				Message: fmt.Sprintf("%v", r),
				Stack:   string(debug.Stack()),
			}
		}
	}()

	result, err := handler(ctx, job)
	if err != nil {
		return nil, &HandlerError{
			Message: err.Error(),
			Stack:   string(debug.Stack()),
		}
	}
	return result, nil
}
