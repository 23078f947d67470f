// Package sender runs outbound Telegram calls on a small worker pool so
// handlers and timers never block on the API.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the job did not fit into the queue.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options tunes a Dispatcher. Zero values get defaults.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent on one job, flood waits included.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

// Stats is a snapshot of the dispatcher counters.
type Stats struct {
	Queued    int    `json:"queued"`
	Sent      uint64 `json:"sent"`
	Failed    uint64 `json:"failed"`
	Coalesced uint64 `json:"coalesced"`
}

type job struct {
	ctx      context.Context
	key      string
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes queued calls with retries. Jobs sharing a key are
// coalesced while they wait: only the latest one runs.
type Dispatcher struct {
	opts Options
	jobs chan *job
	wg   sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	pending map[string]*job

	sent, failed, coalesced atomic.Uint64
}

// NewDispatcher starts the workers.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{
		opts:    opts,
		jobs:    make(chan *job, opts.QueueSize),
		pending: make(map[string]*job),
	}
	d.wg.Add(opts.Workers)
	for range opts.Workers {
		go d.worker()
	}
	return d
}

// Enqueue schedules run. run may be called more than once, so it must be
// safe to repeat.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	return d.EnqueueKeyed(ctx, "", action, endpoint, run)
}

// EnqueueKeyed is Enqueue with a coalescing key. If a job with the same key
// is still waiting, its call is replaced by run and no new job is queued.
func (d *Dispatcher) EnqueueKeyed(ctx context.Context, key, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrQueueClosed
	}
	if key != "" {
		if waiting, ok := d.pending[key]; ok {
			waiting.ctx, waiting.run = ctx, run
			d.coalesced.Add(1)
			return nil
		}
	}

	j := &job{ctx: ctx, key: key, action: action, endpoint: endpoint, run: run}
	select {
	case d.jobs <- j:
	default:
		return ErrQueueFull
	}
	if key != "" {
		d.pending[key] = j
	}
	return nil
}

// Stats returns the current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Queued:    len(d.jobs),
		Sent:      d.sent.Load(),
		Failed:    d.failed.Load(),
		Coalesced: d.coalesced.Load(),
	}
}

// Close refuses new jobs and waits for the queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		ctx, run := d.claim(j)
		d.process(ctx, j, run)
	}
}

// claim detaches a keyed job from the pending set so later jobs with the
// same key queue up behind it instead of rewriting a call in flight.
func (d *Dispatcher) claim(j *job) (context.Context, func() error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if j.key != "" && d.pending[j.key] == j {
		delete(d.pending, j.key)
	}
	return j.ctx, j.run
}

func (d *Dispatcher) process(ctx context.Context, j *job, run func() error) {
	deadline, cancel := context.WithTimeout(ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = run(); err == nil {
			d.sent.Add(1)
			if attempt > 1 {
				logger.Info(ctx, "tg.sender", "send.retry.success", d.attrs(j,
					slog.Int("attempt", attempt),
					slog.Duration("duration", time.Since(start)),
				)...)
			} else if logger.ShouldSampleDebug() {
				logger.Debug(ctx, "tg.sender", "send.ok", d.attrs(j,
					slog.Duration("duration", time.Since(start)),
				)...)
			}
			return
		}
		if attempt == attempts || !netutil.Retryable(err) {
			break
		}

		wait := netutil.RetryAfter(err)
		if wait == 0 {
			wait = d.opts.RetryBackoff * time.Duration(attempt)
		}
		logger.Debug(ctx, "tg.sender", "send.retry", d.attrs(j,
			slog.Int("attempt", attempt),
			slog.Duration("backoff", wait),
			slog.String("err_code", string(netutil.Classify(err))),
		)...)
		if werr := sleep(deadline, wait); werr != nil {
			err = errors.Join(err, werr)
			break
		}
	}

	d.failed.Add(1)
	logger.Error(ctx, "tg.sender", "send.fail", d.attrs(j,
		slog.Int("attempts", attempts),
		slog.Duration("duration", time.Since(start)),
		slog.String("err", netutil.Redact(err)),
		slog.String("err_code", string(netutil.Classify(err))),
	)...)
}

func (d *Dispatcher) attrs(j *job, extra ...slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(extra)+2)
	out = append(out, slog.String("action", j.action))
	if j.endpoint != "" {
		out = append(out, slog.String("endpoint", j.endpoint))
	}
	return append(out, extra...)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
