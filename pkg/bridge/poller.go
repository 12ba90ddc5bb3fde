package bridge

import (
	"context"
	"time"
)

// poller is a bounded, cancellable periodic task. It never retries forever:
// the attempt budget is the only loop bound. A tick that fires after the
// poller was superseded must observe that and exit without side effects, so
// tick bodies re-check liveness before mutating anything.
type poller struct {
	name     string
	interval time.Duration
	attempts int
	cancel   context.CancelFunc
}

func newPoller(ctx context.Context, name string, interval time.Duration, attempts int) (*poller, context.Context) {
	pctx, cancel := context.WithCancel(ctx)
	return &poller{
		name:     name,
		interval: interval,
		attempts: attempts,
		cancel:   cancel,
	}, pctx
}

// run executes tick at most attempts times. tick returns true when the
// poller's work is done; exhausted runs only when the budget ran out.
func (p *poller) run(ctx context.Context, tick func(context.Context) bool, exhausted func()) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for i := 0; i < p.attempts; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if tick(ctx) {
				return
			}
		}
	}
	exhausted()
}

// stop cancels the poller's context. It does not wait for a tick in flight;
// the liveness check inside the tick makes that harmless.
func (p *poller) stop() {
	p.cancel()
}
