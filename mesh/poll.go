package mesh

import (
	"context"
	"time"
)

// DefaultPollInterval is the delay between task status queries in WaitForTask.
const DefaultPollInterval = time.Second

// WaitOption customises WaitForTask.
type WaitOption func(*waitOptions)

type waitOptions struct {
	interval time.Duration
	onStep   func(ReasoningStep)
}

// WithPollInterval overrides the delay between status queries.
func WithPollInterval(d time.Duration) WaitOption {
	return func(o *waitOptions) { o.interval = d }
}

// WithStepFunc registers a callback invoked once for every reasoning step the
// task emits while in flight, in order.
func WithStepFunc(fn func(ReasoningStep)) WaitOption {
	return func(o *waitOptions) { o.onStep = fn }
}

// WaitForTask polls QueryTask until the task reports the finished status and
// returns the final response. It stops early when the context is cancelled or
// a query fails; there are no retries. Reasoning steps accumulate across
// polls, so the step callback only sees each step once.
func (c *Client) WaitForTask(ctx context.Context, agentID, taskID string, opts ...WaitOption) (TaskQueryResponse, error) {
	wo := waitOptions{interval: DefaultPollInterval}
	for _, opt := range opts {
		opt(&wo)
	}

	seen := 0
	for {
		res, err := c.QueryTask(ctx, agentID, taskID)
		if err != nil {
			return TaskQueryResponse{}, err
		}

		if wo.onStep != nil && len(res.ReasoningSteps) > seen {
			for _, step := range res.ReasoningSteps[seen:] {
				wo.onStep(step)
			}
		}
		if len(res.ReasoningSteps) > seen {
			seen = len(res.ReasoningSteps)
		}

		if res.Finished() {
			return res, nil
		}

		select {
		case <-ctx.Done():
			return TaskQueryResponse{}, ctx.Err()
		case <-time.After(wo.interval):
		}
	}
}
