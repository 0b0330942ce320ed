package poller

import (
	"context"
	"errors"
	"time"

	"server/internal/domain"
)

const (
	DefaultInterval = 5 * time.Second
	// DefaultTimeout caps how long a client waits before giving up on a
	// generation. The server keeps the task; only the wait stops.
	DefaultTimeout = 10 * time.Minute
)

// ResolveFunc fetches the current resolution for a task.
type ResolveFunc func(ctx context.Context, taskID string) (domain.Resolution, error)

// Poller re-checks a task until it reaches a terminal state, the context is
// cancelled, or the timeout elapses. It never holds a connection open across
// the whole generation; each check is one short request.
type Poller struct {
	resolve  ResolveFunc
	interval time.Duration
	timeout  time.Duration

	// OnCheck is called after every resolution attempt, for progress output.
	OnCheck func(res domain.Resolution, err error)
}

func New(resolve ResolveFunc, interval, timeout time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Poller{resolve: resolve, interval: interval, timeout: timeout}
}

// Wait blocks until the task resolves. Resolver errors are treated as
// transient and retried on the next tick. When the timeout elapses the task
// is reported as failed with a timeout message instead of polling forever.
func (p *Poller) Wait(ctx context.Context, taskID string) (domain.Resolution, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		res, err := p.resolve(ctx, taskID)
		if p.OnCheck != nil {
			p.OnCheck(res, err)
		}
		if err == nil && res.Terminal() {
			return res, nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return domain.Resolution{
					Status:       domain.ResolveFailed,
					ErrorMessage: "timed out waiting for generation",
				}, nil
			}
			return domain.Resolution{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
