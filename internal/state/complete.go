package state

import (
	"fmt"
	"slices"
	"strings"

	"fabric_tui/internal/history"
	"fabric_tui/internal/jobs"
	"fabric_tui/internal/parser"
)

// WorkspacesLoaded shows the workspace list
func (s State) WorkspacesLoaded(workspaces []string) State {
	s.Pending = ""
	s.Workspaces = workspaces
	if s.View != ViewWorkspaces {
		return s.goTo(ViewWorkspaces)
	}
	return s.clampCursors()
}

// ItemsLoaded shows the items of a workspace
func (s State) ItemsLoaded(workspace string, items []parser.WorkspaceItem) State {
	s.Pending = ""
	s.Workspace = workspace
	s.Items = items
	s.Item = parser.WorkspaceItem{}
	return s.goTo(ViewWorkspaceItems)
}

// DestinationsLoaded shows the move/copy targets, excluding the source workspace
func (s State) DestinationsLoaded(workspaces []string) State {
	s.Pending = ""
	s.Destinations = slices.DeleteFunc(slices.Clone(workspaces), func(ws string) bool {
		return ws == s.Workspace
	})
	return s.goTo(ViewWorkspaceSelection)
}

// JobStarted tracks a new background job and confirms it
func (s State) JobStarted(job jobs.JobInfo) State {
	s.Jobs = s.Jobs.Add(job)
	return s.ShowOutput(fmt.Sprintf(
		"Job started in the background.\n\nItem:   %s\nJob ID: %s\n\nIts status is checked automatically; see Active Jobs on the main menu.",
		job.Key(), job.JobID))
}

// StatusLoaded shows the status of one job and completes it when terminal
func (s State) StatusLoaded(job jobs.JobInfo, info parser.StatusInfo) State {
	s.Pending = ""
	s.StatusJob = job
	s.Status = info
	if info.Status.IsTerminal() {
		if _, ok := s.Jobs.Find(job.Workspace, job.Item); ok {
			s.Jobs = s.Jobs.Complete(job.Key())
		}
	}
	s = s.clampCursors()
	if s.View != ViewJobStatus {
		return s.goTo(ViewJobStatus)
	}
	return s
}

// TransferDone confirms a finished move or copy. A moved item leaves the
// source listing so going back never offers it again.
func (s State) TransferDone(kind TransferKind, item, text string) State {
	s.Destinations = nil
	if kind == TransferMove {
		s.Items = slices.DeleteFunc(slices.Clone(s.Items), func(it parser.WorkspaceItem) bool {
			return it.Name == item
		})
		if s.Item.Name == item {
			s.Item = parser.WorkspaceItem{}
		}
		s = s.clampCursors()
	}
	return s.ShowOutput(text)
}

// ShowOutput shows command output
func (s State) ShowOutput(text string) State {
	s.Pending = ""
	s.Output = text
	s.Error = ""
	s.outputFromHistory = false
	return s.goTo(ViewOutput)
}

// ShowError shows a failure
func (s State) ShowError(text string) State {
	s.Pending = ""
	s.Output = ""
	s.Error = text
	s.outputFromHistory = false
	return s.goTo(ViewOutput)
}

// JobsPolled folds a background poll batch into the tracker
func (s State) JobsPolled(results []jobs.PollResult) State {
	before := s.Jobs.Len()
	s.Jobs = jobs.Apply(s.Jobs, results)

	var done []string
	for _, r := range results {
		if r.Done() {
			done = append(done, fmt.Sprintf("%s %s", r.Job.Item, string(r.Status.Status)))
		}
		if s.View == ViewJobStatus && !s.Busy() && r.Err == nil && r.Job.JobID == s.StatusJob.JobID {
			s.Status = r.Status
		}
	}
	if len(done) > 0 {
		s.Message = "Job finished: " + strings.Join(done, ", ")
	}
	if s.Jobs.Len() != before {
		s = s.clampCursors()
	}
	return s
}

// HistoryChanged replaces the history list
func (s State) HistoryChanged(entries []history.Entry) State {
	s.History = entries
	return s.clampCursors()
}

// SetMessage sets the transient footer notice
func (s State) SetMessage(text string) State {
	s.Message = text
	return s
}
