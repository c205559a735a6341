package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/shelfctl/internal/services"
	"github.com/desertthunder/shelfctl/internal/shared"
)

// Poll configuration defaults. The completed-retry budget is deliberately much
// smaller than the main attempt budget: it only covers the window between the
// server marking a task complete and writing its result metadata.
const (
	defaultMaxAttempts         = 300
	defaultPollInterval        = 1500 * time.Millisecond
	defaultMaxCompletedRetries = 3
	defaultCompletedRetryDelay = 500 * time.Millisecond
	defaultRequestTimeout      = 10 * time.Second
	defaultResultKey           = "book_ids"
)

// User-facing failure classifications.
const (
	msgRequestTimeout   = "Request timeout while polling task"
	msgTaskFailed       = "Task failed"
	msgTaskCancelled    = "Task was cancelled"
	msgFetchFailed      = "Failed to fetch task"
	msgPollFailed       = "Failed to poll task"
	msgPollTimeout      = "Upload timed out - task did not complete in time"
	msgPollInterrupted  = "Task polling cancelled"
	msgResultMissingFmt = "Task completed but result not found (metadata: %v)"
	msgSuccessFmt       = "Task completed with %d result(s)"
)

// TaskFetcher retrieves the current state of a background task.
// [services.LibraryService] is the production implementation.
type TaskFetcher interface {
	GetTask(ctx context.Context, taskID int64) (*services.Task, error)
}

// Scheduler abstracts timers and cooperative yielding so tests can drive the
// poll loop without real delays.
type Scheduler interface {
	// Sleep blocks for d, or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error

	// Yield gives other work a chance to run before the next fetch.
	Yield(ctx context.Context) error
}

// timerScheduler is the production [Scheduler] backed by the runtime's timers.
type timerScheduler struct{}

func (timerScheduler) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (timerScheduler) Yield(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runtime.Gosched()
	return nil
}

// PollOptions configures a [Poller]. The zero value is usable; unset fields
// take the package defaults.
//
// OnSuccess and OnError report the outcome of a poll: exactly one of them fires
// per Poll invocation, never both. OnSetSuccessMessage / OnSetErrorMessage are
// presentation hooks receiving the same classified messages, kept separate so
// UI layers can subscribe without caring about the polling decision itself.
type PollOptions struct {
	MaxAttempts         int           // Total status checks before giving up (default 300)
	PollInterval        time.Duration // Delay between checks while the task runs (default 1.5s)
	MaxCompletedRetries int           // Extra checks when a completed task has no result yet (default 3)
	CompletedRetryDelay time.Duration // Fixed delay between those extra checks (default 500ms)
	RequestTimeout      time.Duration // Per-fetch deadline (default 10s)
	ResultKey           string        // Metadata key holding the result ids (default "book_ids")
	Scheduler           Scheduler     // Timer abstraction (default: real timers)

	OnSuccess           func(bookIDs []int64)
	OnError             func(message string)
	OnSetSuccessMessage func(message string)
	OnSetErrorMessage   func(message string)
}

func (o PollOptions) withDefaults() PollOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.MaxCompletedRetries <= 0 {
		o.MaxCompletedRetries = defaultMaxCompletedRetries
	}
	if o.CompletedRetryDelay <= 0 {
		o.CompletedRetryDelay = defaultCompletedRetryDelay
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = defaultRequestTimeout
	}
	if o.ResultKey == "" {
		o.ResultKey = defaultResultKey
	}
	if o.Scheduler == nil {
		o.Scheduler = timerScheduler{}
	}
	return o
}

// Poller drives a server-side background task to a terminal state by polling
// GET /tasks/{id}.
//
// A Poller holds no state between invocations: each call to Poll owns its own
// attempt counter, and polls for a given task are strictly sequential — no two
// fetches for the same invocation are ever in flight at once. Independent
// tasks may be polled concurrently with separate Poll calls.
type Poller struct {
	fetcher TaskFetcher
	opts    PollOptions
}

// NewPoller creates a Poller for the given fetcher. Zero-value options fall
// back to package defaults.
func NewPoller(fetcher TaskFetcher, opts PollOptions) *Poller {
	return &Poller{
		fetcher: fetcher,
		opts:    opts.withDefaults(),
	}
}

// Poll fetches the task until it reaches a terminal state or the attempt
// budget runs out, returning the coerced result ids from the task metadata.
//
// Every failure path is terminal for this invocation: fetch errors are
// classified and reported once, they are never silently retried. Only
// "still running" responses consume attempts and continue the loop. A task
// that reports completed before its result metadata is written gets a small
// number of extra checks (MaxCompletedRetries) on a short fixed delay,
// separate from the main budget, before being reported as a failure.
func (p *Poller) Poll(ctx context.Context, taskID int64) ([]int64, error) {
	run := pollRun{opts: &p.opts}

	for attempts := 0; attempts < p.opts.MaxAttempts; attempts++ {
		// Let other work run before touching the network again.
		if err := p.opts.Scheduler.Yield(ctx); err != nil {
			return nil, run.fail(err, msgPollInterrupted)
		}

		task, err := p.fetchOnce(ctx, taskID)
		if err != nil {
			return nil, run.fail(shared.ErrAPIRequest, p.classifyFetchError(ctx, err))
		}

		switch task.Status {
		case services.TaskCompleted:
			return p.resolveCompleted(ctx, taskID, task, &run)

		case services.TaskFailed:
			msg := task.ErrorMessage
			if msg == "" {
				msg = msgTaskFailed
			}
			return nil, run.fail(shared.ErrTaskFailed, msg)

		case services.TaskCancelled:
			msg := task.ErrorMessage
			if msg == "" {
				msg = msgTaskCancelled
			}
			return nil, run.fail(shared.ErrTaskCancelled, msg)

		default:
			// pending or running
			if err := p.opts.Scheduler.Sleep(ctx, p.opts.PollInterval); err != nil {
				return nil, run.fail(err, msgPollInterrupted)
			}
		}
	}

	return nil, run.fail(shared.ErrTaskTimeout, msgPollTimeout)
}

// resolveCompleted extracts the result ids from a completed task, tolerating
// the race where the status flips to completed before the result metadata is
// written. The retry budget here is intentionally distinct from (and much
// smaller than) the main polling budget.
func (p *Poller) resolveCompleted(ctx context.Context, taskID int64, task *services.Task, run *pollRun) ([]int64, error) {
	ids := CoerceIDs(task.Metadata[p.opts.ResultKey])
	if len(ids) > 0 {
		return ids, run.succeed(ids)
	}

	for retry := 0; retry < p.opts.MaxCompletedRetries; retry++ {
		if err := p.opts.Scheduler.Sleep(ctx, p.opts.CompletedRetryDelay); err != nil {
			return nil, run.fail(err, msgPollInterrupted)
		}

		refreshed, err := p.fetchOnce(ctx, taskID)
		if err != nil {
			return nil, run.fail(shared.ErrAPIRequest, p.classifyFetchError(ctx, err))
		}
		task = refreshed

		ids = CoerceIDs(task.Metadata[p.opts.ResultKey])
		if len(ids) > 0 {
			return ids, run.succeed(ids)
		}
	}

	return nil, run.fail(shared.ErrTaskResultMissing, fmt.Sprintf(msgResultMissingFmt, task.Metadata))
}

// fetchOnce issues a single bounded-duration task fetch.
func (p *Poller) fetchOnce(ctx context.Context, taskID int64) (*services.Task, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.opts.RequestTimeout)
	defer cancel()

	return p.fetcher.GetTask(fetchCtx, taskID)
}

// classifyFetchError maps a fetch error to the message reported to callers.
func (p *Poller) classifyFetchError(ctx context.Context, err error) string {
	var httpErr *services.HTTPError

	switch {
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		// The per-request deadline fired, not the caller's context.
		return msgRequestTimeout
	case errors.As(err, &httpErr):
		if httpErr.Detail != "" {
			return httpErr.Detail
		}
		return msgFetchFailed
	case errors.Is(err, shared.ErrMalformedResponse):
		return msgPollFailed
	case ctx.Err() != nil:
		return msgPollInterrupted
	default:
		return err.Error()
	}
}

// pollRun enforces the exactly-once reporting contract for one Poll call.
type pollRun struct {
	opts     *PollOptions
	reported bool
}

func (r *pollRun) succeed(ids []int64) error {
	if r.reported {
		return nil
	}
	r.reported = true

	if r.opts.OnSuccess != nil {
		r.opts.OnSuccess(ids)
	}
	if r.opts.OnSetSuccessMessage != nil {
		r.opts.OnSetSuccessMessage(fmt.Sprintf(msgSuccessFmt, len(ids)))
	}
	return nil
}

func (r *pollRun) fail(sentinel error, msg string) error {
	err := fmt.Errorf("%w: %s", sentinel, msg)
	if r.reported {
		return err
	}
	r.reported = true

	if r.opts.OnError != nil {
		r.opts.OnError(msg)
	}
	if r.opts.OnSetErrorMessage != nil {
		r.opts.OnSetErrorMessage(msg)
	}
	return err
}

// CoerceIDs normalizes a metadata value into a list of numeric ids: numbers
// pass through, numeric strings are parsed, and everything else (null,
// non-numeric strings, nested values) is silently dropped. The order of the
// surviving elements is preserved.
func CoerceIDs(v any) []int64 {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	var ids []int64
	for _, item := range items {
		switch n := item.(type) {
		case float64:
			ids = append(ids, int64(n))
		case int:
			ids = append(ids, int64(n))
		case int64:
			ids = append(ids, n)
		case json.Number:
			if parsed, err := n.Int64(); err == nil {
				ids = append(ids, parsed)
			}
		case string:
			if parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
				ids = append(ids, parsed)
			}
		}
	}
	return ids
}
