package jobs

import (
	"context"
	"time"

	"fabric_tui/internal/parser"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultActiveInterval is the poll period while jobs are running
	DefaultActiveInterval = 3 * time.Second

	// DefaultIdleInterval is the poll period with nothing to watch
	DefaultIdleInterval = 10 * time.Second
)

// StatusFunc queries the current status of one job
type StatusFunc func(ctx context.Context, job JobInfo) (parser.StatusInfo, error)

// PollResult is the outcome of one status query
type PollResult struct {
	Job    JobInfo
	Status parser.StatusInfo
	Err    error
}

// Done reports whether the job reached a terminal status
func (r PollResult) Done() bool {
	return r.Err == nil && r.Status.Status.IsTerminal()
}

// Poller queries job statuses in batches
type Poller struct {
	Query          StatusFunc
	ActiveInterval time.Duration
	IdleInterval   time.Duration
}

// NewPoller returns a poller with the default intervals
func NewPoller(query StatusFunc) *Poller {
	return &Poller{
		Query:          query,
		ActiveInterval: DefaultActiveInterval,
		IdleInterval:   DefaultIdleInterval,
	}
}

// Poll queries every job concurrently and waits for all of them.
// Results are in input order; one failed query does not affect the others.
func (p *Poller) Poll(ctx context.Context, jobs []JobInfo) []PollResult {
	results := make([]PollResult, len(jobs))

	var g errgroup.Group
	for i, job := range jobs {
		g.Go(func() error {
			status, err := p.Query(ctx, job)
			results[i] = PollResult{Job: job, Status: status, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Interval returns how long to wait before the next batch
func (p *Poller) Interval(active int) time.Duration {
	if active > 0 {
		if p.ActiveInterval > 0 {
			return p.ActiveInterval
		}
		return DefaultActiveInterval
	}
	if p.IdleInterval > 0 {
		return p.IdleInterval
	}
	return DefaultIdleInterval
}

// Apply folds a batch into the tracker, completing jobs that finished
func Apply(t Tracker, results []PollResult) Tracker {
	for _, r := range results {
		if r.Done() {
			t = t.Complete(r.Job.Key())
		}
	}
	return t
}
