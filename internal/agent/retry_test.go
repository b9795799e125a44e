package agent

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	provmodels "github.com/autofyn/linkedgen/provider/models"
)

// flakyModel fails with the scripted errors first and then answers.
type flakyModel struct {
	errs  []error
	calls int
}

func (m *flakyModel) CreateMessage(context.Context, provmodels.Request) (*provmodels.Response, error) {
	m.calls++
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return nil, err
	}
	return textReply("ok"), nil
}

func (m *flakyModel) Model() string { return "test-model" }

func overloadErr() error {
	return &provmodels.APIError{StatusCode: provmodels.StatusOverloaded, Body: "overloaded"}
}

func newTestRetry(inner *flakyModel, waits *[]time.Duration) *retryProvider {
	return &retryProvider{
		inner:  inner,
		logger: log.New(io.Discard, "", 0),
		wait: func(_ context.Context, d time.Duration) error {
			*waits = append(*waits, d)
			return nil
		},
	}
}

func TestRetryRecoversFromOverload(t *testing.T) {
	t.Parallel()

	model := &flakyModel{errs: []error{overloadErr(), overloadErr()}}
	var waits []time.Duration
	rp := newTestRetry(model, &waits)

	resp, err := rp.CreateMessage(context.Background(), provmodels.Request{})
	if err != nil {
		t.Fatalf("CreateMessage error = %v", err)
	}
	if resp.TextContent() != "ok" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if model.calls != 3 {
		t.Fatalf("calls = %d, want 3", model.calls)
	}
	want := []time.Duration{20 * time.Second, 40 * time.Second}
	if len(waits) != len(want) || waits[0] != want[0] || waits[1] != want[1] {
		t.Fatalf("waits = %v, want %v", waits, want)
	}
}

func TestRetryGivesUpAfterThreeAttempts(t *testing.T) {
	t.Parallel()

	model := &flakyModel{errs: []error{overloadErr(), overloadErr(), overloadErr(), overloadErr()}}
	var waits []time.Duration
	rp := newTestRetry(model, &waits)

	_, err := rp.CreateMessage(context.Background(), provmodels.Request{})
	if !provmodels.IsOverloaded(err) {
		t.Fatalf("error = %v, want the last overload error", err)
	}
	if model.calls != 3 {
		t.Fatalf("calls = %d, want 3", model.calls)
	}
	if len(waits) != 2 {
		t.Fatalf("waits = %v, want exactly two backoffs", waits)
	}
}

func TestRetryPropagatesOtherErrorsImmediately(t *testing.T) {
	t.Parallel()

	bad := &provmodels.APIError{StatusCode: 400, Body: "bad request"}
	model := &flakyModel{errs: []error{bad}}
	var waits []time.Duration
	rp := newTestRetry(model, &waits)

	_, err := rp.CreateMessage(context.Background(), provmodels.Request{})
	var apiErr *provmodels.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 400 {
		t.Fatalf("error = %v, want the 400 unchanged", err)
	}
	if model.calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry for non-overload)", model.calls)
	}
	if len(waits) != 0 {
		t.Fatalf("waits = %v, want none", waits)
	}
}

func TestRetryStopsWhenContextEnds(t *testing.T) {
	t.Parallel()

	model := &flakyModel{errs: []error{overloadErr(), overloadErr()}}
	rp := &retryProvider{
		inner:  model,
		logger: log.New(io.Discard, "", 0),
		wait:   sleepContext,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rp.CreateMessage(ctx, provmodels.Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled from the backoff wait", err)
	}
	if model.calls != 1 {
		t.Fatalf("calls = %d, want 1", model.calls)
	}
}
