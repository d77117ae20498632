// Package executor runs CLI commands as subprocesses with timeouts, retries,
// streaming progress, an opt-in result cache and history recording.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"fabric_tui/internal/history"
	"fabric_tui/internal/parser"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout          = 30 * time.Second
	DefaultMaxRetries       = 2
	DefaultRetryDelay       = time.Second
	DefaultProgressInterval = time.Second
)

// Recorder receives one history entry per subprocess execution
type Recorder interface {
	Add(entry history.Entry) error
}

// Notifier receives transient status text ("retrying", "still running")
type Notifier func(text string)

// Options tune a single Execute call
type Options struct {
	Timeout   time.Duration // Zero uses the executor default
	UseCache  bool          // Serve and store through the result cache
	SkipCache bool          // Bypass cache lookup but still store a success
	Silent    bool          // Suppress notifier output for this call
}

// StreamOptions tune an ExecuteStreaming call
type StreamOptions struct {
	Timeout          time.Duration // Hard limit; zero means none
	ProgressInterval time.Duration // Zero uses DefaultProgressInterval
	Silent           bool
}

// Executor runs commands through a Runner
type Executor struct {
	runner     Runner
	recorder   Recorder
	cache      *Cache
	limiter    *rate.Limiter
	logger     *zap.Logger
	notify     Notifier
	succeeded  SuccessFunc
	timeout    time.Duration
	retryDelay time.Duration
	maxRetries atomic.Int64
	now        func() time.Time
}

// Option configures an Executor
type Option func(*Executor)

// WithRecorder records every execution into r
func WithRecorder(r Recorder) Option { return func(e *Executor) { e.recorder = r } }

// WithCache enables the result cache with the given TTL
func WithCache(c *Cache) Option { return func(e *Executor) { e.cache = c } }

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option { return func(e *Executor) { e.logger = l } }

// WithNotifier sets the receiver of transient status text
func WithNotifier(n Notifier) Option { return func(e *Executor) { e.notify = n } }

// WithSuccessFunc replaces the strict "exit 0 and no stderr" predicate
func WithSuccessFunc(f SuccessFunc) Option { return func(e *Executor) { e.succeeded = f } }

// WithTimeout sets the default timeout for Execute
func WithTimeout(d time.Duration) Option { return func(e *Executor) { e.timeout = d } }

// WithRetry sets the retry count and the base backoff delay
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(e *Executor) {
		e.maxRetries.Store(int64(maxRetries))
		e.retryDelay = delay
	}
}

// WithSpawnLimit throttles how fast subprocesses may be started
func WithSpawnLimit(perSecond float64, burst int) Option {
	return func(e *Executor) {
		if perSecond <= 0 {
			e.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New creates an Executor
func New(runner Runner, opts ...Option) *Executor {
	e := &Executor{
		runner:     runner,
		logger:     zap.NewNop(),
		succeeded:  StrictSuccess,
		timeout:    DefaultTimeout,
		retryDelay: DefaultRetryDelay,
		limiter:    rate.NewLimiter(rate.Inf, 0),
		now:        time.Now,
	}
	e.maxRetries.Store(DefaultMaxRetries)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetMaxRetries changes the retry count used by ExecuteWithRetry
func (e *Executor) SetMaxRetries(n int) {
	if n < 0 {
		n = 0
	}
	e.maxRetries.Store(int64(n))
}

// MaxRetries returns the retry count used by ExecuteWithRetry
func (e *Executor) MaxRetries() int {
	return int(e.maxRetries.Load())
}

// Invalidate drops cached results of cmd
func (e *Executor) Invalidate(cmd Command) {
	if e.cache == nil {
		return
	}
	if n := e.cache.Invalidate(cmd.String() + "\x00"); n > 0 {
		e.logger.Debug("cache invalidated", zap.String("command", cmd.String()), zap.Int("entries", n))
	}
}

// Execute runs cmd to completion, bounded by a timeout
func (e *Executor) Execute(ctx context.Context, cmd Command, opts Options) Result {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = e.timeout
	}

	key := cacheKey(cmd, timeout)
	if opts.UseCache && !opts.SkipCache && e.cache != nil {
		if r, ok := e.cache.Get(key); ok {
			e.logger.Debug("cache hit", zap.String("command", r.Command))
			r.Cached = true
			r.Attempts = 0
			return r
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res := e.run(runCtx, cmd, func() {})
	if res.Kind == KindTimeout {
		res.Error = fmt.Sprintf("Command timed out after %s", timeout)
	}
	e.record(res)

	if opts.UseCache && res.Success && e.cache != nil {
		e.cache.Put(key, res)
	}
	return res
}

// ExecuteWithRetry runs Execute up to MaxRetries+1 times with linear backoff
func (e *Executor) ExecuteWithRetry(ctx context.Context, cmd Command, opts Options) Result {
	attempts := e.MaxRetries() + 1

	var res Result
	for attempt := 1; attempt <= attempts; attempt++ {
		o := opts
		if attempt > 1 {
			o.SkipCache = true
		}

		res = e.Execute(ctx, cmd, o)
		res.Attempts = attempt
		if res.Success || res.Kind == KindCanceled {
			return res
		}
		if attempt == attempts {
			break
		}

		e.logger.Info("command attempt failed",
			zap.String("command", res.Command),
			zap.Int("attempt", attempt),
			zap.Stringer("kind", res.Kind))
		e.notifyf(o.Silent, "Attempt %d failed, retrying...", attempt)

		select {
		case <-ctx.Done():
			res.Kind = KindCanceled
			res.Error = "Command canceled"
			return res
		case <-time.After(e.retryDelay * time.Duration(attempt)):
		}
	}

	res.Error = fmt.Sprintf("Command failed after %d attempts: %s", attempts, res.Message())
	return res
}

// ExecuteStreaming runs a long command, reporting elapsed time while it runs.
// The child is killed when the timeout passes or ctx is canceled.
func (e *Executor) ExecuteStreaming(ctx context.Context, cmd Command, opts StreamOptions) Result {
	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	start := e.now()
	done := make(chan struct{})
	stopped := make(chan struct{})
	ticking := false
	progress := func() {
		ticking = true
		go func() {
			defer close(stopped)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					// done wins over a pending tick
					select {
					case <-done:
						return
					default:
					}
					elapsed := int(e.now().Sub(start).Seconds())
					e.notifyf(opts.Silent, "Still running... %ds elapsed", elapsed)
				}
			}
		}()
	}

	res := e.run(runCtx, cmd, progress)
	close(done)
	if ticking {
		// No progress notice may follow the result
		<-stopped
	}

	if res.Kind == KindTimeout {
		res.Error = fmt.Sprintf("Command timed out after %s and was stopped", opts.Timeout)
	}
	e.record(res)
	return res
}

// run spawns cmd once and classifies the outcome.
// started is called right before the subprocess is launched.
func (e *Executor) run(ctx context.Context, cmd Command, started func()) Result {
	res := Result{Command: cmd.String(), Attempts: 1}
	start := e.now()

	if err := e.limiter.Wait(ctx); err != nil {
		res.Duration = e.now().Sub(start)
		return e.contextFailure(ctx, res)
	}

	started()

	var stdout, stderr bytes.Buffer
	code, err := e.runner.Run(ctx, cmd, &stdout, &stderr)
	res.Duration = e.now().Sub(start)
	res.ExitCode = code
	res.Output = parser.CleanOutput(stdout.String())
	errText := parser.CleanOutput(stderr.String())

	switch {
	case ctx.Err() != nil:
		res = e.contextFailure(ctx, res)
	case err != nil:
		res.Kind = KindSpawn
		res.Error = fmt.Sprintf("failed to run %s: %v", cmd.Tool, err)
	case e.succeeded(code, errText):
		res.Success = true
	default:
		res.Kind = KindTool
		res.Error = errText
		if res.Error == "" {
			res.Error = fmt.Sprintf("%s exited with code %d", cmd.Tool, code)
		}
	}

	e.logger.Debug("command finished",
		zap.String("command", res.Command),
		zap.Bool("success", res.Success),
		zap.Stringer("kind", res.Kind),
		zap.Int("exit_code", code),
		zap.Duration("duration", res.Duration))
	return res
}

// contextFailure classifies a result whose context ended first
func (e *Executor) contextFailure(ctx context.Context, res Result) Result {
	res.Success = false
	if errors.Is(ctx.Err(), context.Canceled) {
		res.Kind = KindCanceled
		res.Error = "Command canceled"
		return res
	}
	// Deadline exceeded, or the limiter refused to wait past the deadline
	res.Kind = KindTimeout
	res.Error = "Command timed out"
	return res
}

// record writes one history entry for an execution
func (e *Executor) record(res Result) {
	if e.recorder == nil {
		return
	}
	entry := history.NewEntry(res.Command, res.Success, res.Message(), e.now())
	if err := e.recorder.Add(entry); err != nil {
		e.logger.Warn("failed to persist history", zap.Error(err))
	}
}

// notifyf sends transient text to the notifier unless silenced
func (e *Executor) notifyf(silent bool, format string, args ...any) {
	if silent || e.notify == nil {
		return
	}
	e.notify(fmt.Sprintf(format, args...))
}
