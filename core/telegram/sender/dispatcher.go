// Package sender runs outbound Telegram calls in the background with retries.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	coreconfig "github.com/m3rciful/menubot/core/config"
	"github.com/m3rciful/menubot/core/logger"
	"github.com/m3rciful/menubot/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned when a job is submitted after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull means the chat's lane is saturated and the job was dropped.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	// QueueSize is the total buffer, split evenly across lanes.
	QueueSize int
	// Workers is the number of lanes. Jobs of one chat always share a lane.
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

// OptionsFrom maps the sender config section onto dispatcher options.
func OptionsFrom(cfg coreconfig.SenderConfig) Options {
	return Options{
		QueueSize:  cfg.QueueSize,
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
	}
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

// Job is one outbound call. Run must be safe to repeat when retries are enabled.
type Job struct {
	ChatID   int64
	Action   string
	Endpoint string
	Run      func() error

	ctx context.Context
}

// Stats counts finished jobs.
type Stats struct {
	Sent    uint64
	Retried uint64
	Failed  uint64
}

// Dispatcher executes jobs on a fixed set of lanes. A chat is pinned to one
// lane, so jobs for the same chat run in submission order while different
// chats proceed in parallel.
type Dispatcher struct {
	opts  Options
	lanes []chan Job
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
	once   sync.Once

	sent    atomic.Uint64
	retried atomic.Uint64
	failed  atomic.Uint64
}

// NewDispatcher starts one goroutine per lane.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	depth := max(1, opts.QueueSize/opts.Workers)

	d := &Dispatcher{opts: opts, lanes: make([]chan Job, opts.Workers)}
	d.wg.Add(opts.Workers)
	for i := range d.lanes {
		d.lanes[i] = make(chan Job, depth)
		go d.drain(d.lanes[i])
	}
	return d
}

func (d *Dispatcher) lane(chatID int64) chan Job {
	n := uint64(len(d.lanes))
	return d.lanes[uint64(chatID)%n]
}

// Submit queues j on its chat's lane without blocking.
func (d *Dispatcher) Submit(ctx context.Context, j Job) error {
	if j.Run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	j.ctx = ctx

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.lane(j.ChatID) <- j:
		return nil
	default:
		logger.Warn(ctx, "tg.sender", "send.dropped", jobAttrs(ctx, j)...)
		return ErrQueueFull
	}
}

// Pending reports how many jobs are waiting across all lanes.
func (d *Dispatcher) Pending() int {
	n := 0
	for _, l := range d.lanes {
		n += len(l)
	}
	return n
}

// Stats returns a snapshot of the job counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Sent:    d.sent.Load(),
		Retried: d.retried.Load(),
		Failed:  d.failed.Load(),
	}
}

// Close rejects new jobs, lets the lanes drain and waits for them.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		for _, l := range d.lanes {
			close(l)
		}
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *Dispatcher) drain(lane chan Job) {
	defer d.wg.Done()
	for j := range lane {
		d.process(j)
	}
}

func (d *Dispatcher) process(j Job) {
	start := time.Now()
	attempts, err := d.attempt(j)
	elapsed := time.Since(start)

	if attempts > 1 {
		d.retried.Add(1)
	}
	if err != nil {
		d.failed.Add(1)
		logger.Error(j.ctx, "tg.sender", "send.fail", append(jobAttrs(j.ctx, j),
			slog.String("error", sanitizeErrorMessage(err)),
			slog.String("error_kind", classifyError(err)),
			slog.Int("attempts", attempts),
			slog.Int("elapsed_ms", durationToMS(elapsed)),
		)...)
		return
	}
	d.sent.Add(1)
	level := slog.LevelDebug
	if attempts > 1 {
		level = slog.LevelInfo
	}
	logger.Event(j.ctx, "tg.sender", level, "send.ok", append(jobAttrs(j.ctx, j),
		slog.Int("attempts", attempts),
		slog.Int("elapsed_ms", durationToMS(elapsed)),
	)...)
}

// attempt runs j until it succeeds, fails permanently, runs out of retries or
// exceeds MaxDuration. It returns the number of calls made.
func (d *Dispatcher) attempt(j Job) (int, error) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	limit := d.opts.MaxRetries + 1
	var err error
	for n := 1; n <= limit; n++ {
		if cerr := ctx.Err(); cerr != nil {
			return n - 1, errors.Join(cerr, err)
		}
		if err = j.Run(); err == nil {
			return n, nil
		}
		if n == limit || !netutil.ShouldRetry(err) {
			return n, err
		}

		delay := d.opts.RetryBackoff * time.Duration(n)
		if wait, ok := netutil.RetryAfter(err); ok {
			delay = wait
		}
		logger.Debug(j.ctx, "tg.sender", "send.backoff", append(jobAttrs(j.ctx, j),
			slog.Int("attempt", n),
			slog.Duration("delay", delay),
		)...)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return n, errors.Join(ctx.Err(), err)
		case <-timer.C:
		}
	}
	return limit, err
}

func jobAttrs(ctx context.Context, j Job) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.Action)}
	if j.Endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.Endpoint))
	}
	if j.ChatID != 0 {
		attrs = append(attrs, slog.Int64("chat_id", j.ChatID))
	}
	if rid := logger.RIDFrom(ctx); rid != "" {
		attrs = append(attrs, slog.String("rid", rid))
	}
	if updateID := logger.UpdateIDFrom(ctx); updateID != 0 {
		attrs = append(attrs, slog.Int("update_id", updateID))
	}
	return attrs
}

func durationToMS(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(logger.RoundMS(d) / time.Millisecond)
}
