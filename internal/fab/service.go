package fab

import (
	"context"
	"fmt"
	"time"

	"fabric_tui/internal/executor"
	"fabric_tui/internal/jobs"
	"fabric_tui/internal/parser"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultRunTimeout bounds a synchronous job run
const DefaultRunTimeout = 10 * time.Minute

// Service runs Fabric CLI operations and parses their output
type Service struct {
	builder    Builder
	exec       *executor.Executor
	logger     *zap.Logger
	runTimeout time.Duration
	now        func() time.Time
}

// NewService creates a service on top of an executor
func NewService(b Builder, exec *executor.Executor, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		builder:    b,
		exec:       exec,
		logger:     logger,
		runTimeout: DefaultRunTimeout,
		now:        time.Now,
	}
}

// SetRunTimeout changes the limit for synchronous job runs
func (s *Service) SetRunTimeout(d time.Duration) {
	if d > 0 {
		s.runTimeout = d
	}
}

// read runs a read-only command through the cache with retries
func (s *Service) read(ctx context.Context, cmd Command, force bool) (executor.Result, error) {
	res := s.exec.ExecuteWithRetry(ctx, cmd, executor.Options{UseCache: true, SkipCache: force})
	if !res.Success {
		return res, &CommandError{Result: res}
	}
	return res, nil
}

// ListWorkspaces returns workspace names
func (s *Service) ListWorkspaces(ctx context.Context, force bool) ([]string, error) {
	res, err := s.read(ctx, s.builder.ListWorkspaces(), force)
	if err != nil {
		return nil, err
	}
	return parser.ParseWorkspaces(res.Output), nil
}

// ListItems returns the items of a workspace
func (s *Service) ListItems(ctx context.Context, workspace string, force bool) ([]parser.WorkspaceItem, error) {
	res, err := s.read(ctx, s.builder.ListItems(workspace), force)
	if err != nil {
		return nil, err
	}
	return parser.ParseWorkspaceItems(res.Output), nil
}

// StartJob starts a background run of an item and returns the job to track
func (s *Service) StartJob(ctx context.Context, workspace, item string) (jobs.JobInfo, error) {
	if !parser.SupportsJobActions(item) {
		return jobs.JobInfo{}, ErrNotJobItem
	}

	res := s.exec.Execute(ctx, s.builder.StartJob(workspace, item), executor.Options{})
	if !res.Success {
		return jobs.JobInfo{}, &CommandError{Result: res}
	}

	id := parser.ExtractJobID(res.Output)
	if id == "" {
		s.logger.Warn("job started without an instance id", zap.String("output", res.Output))
		return jobs.JobInfo{}, ErrNoJobID
	}
	if err := uuid.Validate(id); err != nil {
		s.logger.Warn("job started with a malformed instance id", zap.String("job_id", id), zap.Error(err))
		return jobs.JobInfo{}, ErrNoJobID
	}

	s.logger.Info("job started",
		zap.String("workspace", workspace),
		zap.String("item", item),
		zap.String("job_id", id))
	return jobs.JobInfo{JobID: id, Workspace: workspace, Item: item, StartTime: s.now()}, nil
}

// RunJob runs an item synchronously and returns the CLI output.
// Canceling ctx stops the run.
func (s *Service) RunJob(ctx context.Context, workspace, item string) (string, error) {
	if !parser.SupportsJobActions(item) {
		return "", ErrNotJobItem
	}

	res := s.exec.ExecuteStreaming(ctx, s.builder.RunJob(workspace, item), executor.StreamOptions{Timeout: s.runTimeout})
	if !res.Success {
		return "", &CommandError{Result: res}
	}
	return fmt.Sprintf("%s\n\nCompleted in %s", res.Output, res.Duration.Round(time.Second)), nil
}

// LatestJobID returns the newest job instance in the item's run history.
// found is false when the item has never run.
func (s *Service) LatestJobID(ctx context.Context, workspace, item string) (id string, found bool, err error) {
	res := s.exec.ExecuteWithRetry(ctx, s.builder.JobHistory(workspace, item), executor.Options{})
	if !res.Success {
		return "", false, &CommandError{Result: res}
	}
	id = parser.ExtractGUID(res.Output)
	return id, id != "", nil
}

// JobStatus queries one job instance
func (s *Service) JobStatus(ctx context.Context, workspace, item, jobID string) (parser.StatusInfo, error) {
	if err := uuid.Validate(jobID); err != nil {
		return parser.StatusInfo{}, fmt.Errorf("%w %q: %w", ErrInvalidJobID, jobID, err)
	}

	res := s.exec.ExecuteWithRetry(ctx, s.builder.JobStatus(workspace, item, jobID), executor.Options{Silent: true})
	if !res.Success {
		return parser.StatusInfo{}, &CommandError{Result: res}
	}

	info := parser.ParseJobStatus(res.Output)
	s.logger.Debug("job status",
		zap.String("job_id", jobID),
		zap.String("status", string(info.Status)))
	return info, nil
}

// LatestJobStatus finds the newest run of an item and queries its status.
// found is false when the item has never run.
func (s *Service) LatestJobStatus(ctx context.Context, workspace, item string) (jobID string, info parser.StatusInfo, found bool, err error) {
	jobID, found, err = s.LatestJobID(ctx, workspace, item)
	if err != nil || !found {
		return "", parser.StatusInfo{}, found, err
	}
	info, err = s.JobStatus(ctx, workspace, item, jobID)
	return jobID, info, true, err
}

// PollStatus adapts JobStatus to the poller
func (s *Service) PollStatus(ctx context.Context, job jobs.JobInfo) (parser.StatusInfo, error) {
	return s.JobStatus(ctx, job.Workspace, job.Item, job.JobID)
}

// JobHistory returns the run history table of an item
func (s *Service) JobHistory(ctx context.Context, workspace, item string) (string, error) {
	res := s.exec.ExecuteWithRetry(ctx, s.builder.JobHistory(workspace, item), executor.Options{})
	if !res.Success {
		return "", &CommandError{Result: res}
	}
	if res.Output == "" {
		return "No job history found", nil
	}
	return res.Output, nil
}

// Move moves an item to another workspace
func (s *Service) Move(ctx context.Context, src, item, dst string) (string, error) {
	return s.transfer(ctx, s.builder.Move(src, item, dst), src, dst, "moved")
}

// Copy copies an item to another workspace
func (s *Service) Copy(ctx context.Context, src, item, dst string) (string, error) {
	return s.transfer(ctx, s.builder.Copy(src, item, dst), src, dst, "copied")
}

// transfer runs a mutating command once and drops stale item listings
func (s *Service) transfer(ctx context.Context, cmd Command, src, dst, verb string) (string, error) {
	res := s.exec.Execute(ctx, cmd, executor.Options{})

	s.exec.Invalidate(s.builder.ListItems(src))
	s.exec.Invalidate(s.builder.ListItems(dst))

	if !res.Success {
		return "", &CommandError{Result: res}
	}
	msg := fmt.Sprintf("Successfully %s to %s", verb, dst)
	if res.Output != "" {
		msg += "\n\n" + res.Output
	}
	return msg, nil
}
