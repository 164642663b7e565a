package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/donkeylabs/joblink/internal/worker"
)

const defaultSteps = 5

// stepHandler is the example job: process the number of steps named in the
// job data, reporting progress along the way.
func stepHandler(ctx context.Context, job *worker.Job) (any, error) {
	runID := uuid.NewString()
	job.Info(fmt.Sprintf("starting job with data: %v", job.Data), map[string]any{"runId": runID})

	steps := defaultSteps
	if data, ok := job.Data.(map[string]any); ok {
		if v, ok := data["steps"].(float64); ok && v > 0 {
			steps = int(v)
		}
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		job.Progress(float64(i)/float64(steps)*100, fmt.Sprintf("Processing step %d of %d", i+1, steps), nil)
		time.Sleep(500 * time.Millisecond)
	}

	job.Progress(100, "Complete!", nil)
	return map[string]any{"processed": true, "steps": steps, "runId": runID}, nil
}
