package tui

import (
	"context"
	"fmt"
	"slices"

	"fabric_tui/internal/fab"
	"fabric_tui/internal/jobs"
	"fabric_tui/internal/parser"
	"fabric_tui/internal/state"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// runEffect turns a state machine effect into a command
func (m Model) runEffect(eff state.Effect) (Model, tea.Cmd) {
	switch e := eff.(type) {
	case nil:
		return m, nil
	case state.Quit:
		m = m.shutdown()
		return m, tea.Quit
	case state.Login:
		m.loginRequested = true
		m = m.shutdown()
		return m, tea.Quit
	case state.CancelPending:
		m.logger.Debug("canceling foreground operation", zap.Int("seq", m.seq))
		m = m.cancelForeground()
		return m, nil
	case state.ClearHistory:
		return m, m.clearHistoryCmd()
	case state.LoadWorkspaces:
		return m.debounceCmd(concernWorkspaces, e)
	case state.LoadItems:
		return m.debounceCmd(concernItems, e)
	case state.LoadDestinations:
		return m.debounceCmd(concernDestinations, e)
	case state.PollJob:
		return m.debounceCmd(concernStatus, e)
	default:
		return m.foregroundCmd(e)
	}
}

// operation binds an effect to the backend call that serves it.
// The returned func runs off the UI goroutine and yields a state transition.
func (m Model) operation(eff state.Effect) func(context.Context) func(state.State) state.State {
	b := m.backend
	cfg := m.cfg
	logger := m.logger

	failed := func(err error) func(state.State) state.State {
		logger.Warn("operation failed", zap.Error(err))
		text := fab.ErrorText(err)
		return func(s state.State) state.State { return s.ShowError(text) }
	}

	switch e := eff.(type) {
	case state.LoadWorkspaces:
		return func(ctx context.Context) func(state.State) state.State {
			ws, err := b.ListWorkspaces(ctx, e.Force)
			if err != nil {
				return failed(err)
			}
			return func(s state.State) state.State { return s.WorkspacesLoaded(ws) }
		}

	case state.LoadItems:
		return func(ctx context.Context) func(state.State) state.State {
			items, err := b.ListItems(ctx, e.Workspace, e.Force)
			if err != nil {
				return failed(err)
			}
			items = slices.DeleteFunc(items, func(it parser.WorkspaceItem) bool {
				return cfg.ShouldExclude(it.Name)
			})
			return func(s state.State) state.State { return s.ItemsLoaded(e.Workspace, items) }
		}

	case state.LoadDestinations:
		return func(ctx context.Context) func(state.State) state.State {
			ws, err := b.ListWorkspaces(ctx, false)
			if err != nil {
				return failed(err)
			}
			return func(s state.State) state.State { return s.DestinationsLoaded(ws) }
		}

	case state.StartJob:
		return func(ctx context.Context) func(state.State) state.State {
			job, err := b.StartJob(ctx, e.Workspace, e.Item)
			if err != nil {
				return failed(err)
			}
			logger.Info("job started", zap.String("item", job.Key()), zap.String("job_id", job.JobID))
			return func(s state.State) state.State { return s.JobStarted(job) }
		}

	case state.RunJob:
		return func(ctx context.Context) func(state.State) state.State {
			out, err := b.RunJob(ctx, e.Workspace, e.Item)
			if err != nil {
				return failed(err)
			}
			return func(s state.State) state.State { return s.ShowOutput(out) }
		}

	case state.FetchLatestStatus:
		return func(ctx context.Context) func(state.State) state.State {
			id, info, found, err := b.LatestJobStatus(ctx, e.Workspace, e.Item)
			if err != nil {
				return failed(err)
			}
			if !found {
				text := fmt.Sprintf("No job history found for %s", e.Item)
				return func(s state.State) state.State { return s.ShowOutput(text) }
			}
			job := jobs.JobInfo{JobID: id, Workspace: e.Workspace, Item: e.Item}
			return func(s state.State) state.State { return s.StatusLoaded(job, info) }
		}

	case state.PollJob:
		return func(ctx context.Context) func(state.State) state.State {
			info, err := b.JobStatus(ctx, e.Job.Workspace, e.Job.Item, e.Job.JobID)
			if err != nil {
				return failed(err)
			}
			return func(s state.State) state.State { return s.StatusLoaded(e.Job, info) }
		}

	case state.FetchJobHistory:
		return func(ctx context.Context) func(state.State) state.State {
			out, err := b.JobHistory(ctx, e.Workspace, e.Item)
			if err != nil {
				return failed(err)
			}
			return func(s state.State) state.State { return s.ShowOutput(out) }
		}

	case state.Transfer:
		return func(ctx context.Context) func(state.State) state.State {
			transfer := b.Move
			if e.Kind == state.TransferCopy {
				transfer = b.Copy
			}
			out, err := transfer(ctx, e.Source, e.Item, e.Destination)
			if err != nil {
				return failed(err)
			}
			return func(s state.State) state.State { return s.TransferDone(e.Kind, e.Item, out) }
		}
	}

	return func(context.Context) func(state.State) state.State {
		err := fmt.Errorf("unsupported operation %T", eff)
		return failed(err)
	}
}
