package agent

import (
	"context"
	"log"
	"time"

	"github.com/autofyn/linkedgen/provider"
	provmodels "github.com/autofyn/linkedgen/provider/models"
)

// Overload retry policy. The API sheds load with a 529 and usually recovers
// within tens of seconds, so a run that already spent tokens is worth a few
// more attempts before it fails.
const (
	overloadAttempts = 3
	overloadBaseWait = 20 * time.Second
)

// withOverloadRetry decorates a provider so transient-overload replies are
// retried with doubling waits (20s, then 40s). Every other error propagates
// unchanged on the first attempt.
func withOverloadRetry(p provider.Provider, logger *log.Logger) provider.Provider {
	return &retryProvider{inner: p, logger: logger, wait: sleepContext}
}

type retryProvider struct {
	inner  provider.Provider
	logger *log.Logger
	wait   func(ctx context.Context, d time.Duration) error
}

func (r *retryProvider) Model() string { return r.inner.Model() }

func (r *retryProvider) CreateMessage(ctx context.Context, req provmodels.Request) (*provmodels.Response, error) {
	var lastErr error
	for attempt := 0; attempt < overloadAttempts; attempt++ {
		resp, err := r.inner.CreateMessage(ctx, req)
		if err == nil || !provmodels.IsOverloaded(err) {
			return resp, err
		}
		lastErr = err
		if attempt == overloadAttempts-1 {
			break
		}
		backoff := overloadBaseWait * (1 << attempt)
		r.logger.Printf("model overloaded, waiting %s before attempt %d/%d", backoff, attempt+2, overloadAttempts)
		if err := r.wait(ctx, backoff); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// sleepContext waits for d unless ctx ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
