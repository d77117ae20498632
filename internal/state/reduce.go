package state

import (
	"fmt"

	"fabric_tui/internal/history"
	"fabric_tui/internal/jobs"
	"fabric_tui/internal/parser"
)

// Reduce applies a key press. The returned Effect is nil when no I/O is needed.
func Reduce(s State, k Key) (State, Effect) {
	s.Message = ""

	// While an operation runs only leaving is allowed; leaving cancels it
	if s.Busy() {
		if k == KeyBack {
			s.Pending = ""
			return s, CancelPending{}
		}
		return s, nil
	}

	switch k {
	case KeyUp:
		return s.setCursor(s.View, s.Cursor()-1), nil
	case KeyDown:
		return s.setCursor(s.View, s.Cursor()+1), nil
	case KeyEnter:
		if s.OnBack() {
			return s.back()
		}
		return s.selectRow()
	case KeyBack:
		return s.back()
	case KeyRefresh:
		return s.refresh()
	case KeyClear:
		if s.View == ViewCommandHistory {
			s.History = nil
			s = s.setCursor(ViewCommandHistory, 0)
			return s, ClearHistory{}
		}
	}
	return s, nil
}

// back moves to the parent view and drops data owned by the view being left
func (s State) back() (State, Effect) {
	switch s.View {
	case ViewMain:
		return s, Quit{}

	case ViewWorkspaces, ViewJobMenu, ViewCommandHistory:
		s = s.toMain()

	case ViewWorkspaceItems:
		s.Items = nil
		s.Workspace = ""
		s.Item = parser.WorkspaceItem{}
		s = s.goTo(ViewWorkspaces)

	case ViewItemActions:
		s.Item = parser.WorkspaceItem{}
		s = s.goTo(ViewWorkspaceItems)

	case ViewWorkspaceSelection:
		s.Destinations = nil
		s = s.goTo(ViewItemActions)

	case ViewJobStatus:
		fromMenu := s.statusFromJobMenu
		s.StatusJob = jobs.JobInfo{}
		s.Status = parser.StatusInfo{}
		s.statusFromJobMenu = false
		switch {
		case fromMenu:
			s = s.goTo(ViewJobMenu)
		case s.HasItem():
			s = s.goTo(ViewItemActions)
		default:
			s = s.toMain()
		}

	case ViewOutput:
		fromHistory := s.outputFromHistory
		s.Output = ""
		s.Error = ""
		s.outputFromHistory = false
		switch {
		case fromHistory:
			s = s.goTo(ViewCommandHistory)
		case s.HasItem():
			s = s.goTo(ViewItemActions)
		case s.Workspace != "":
			s = s.goTo(ViewWorkspaceItems)
		default:
			s = s.toMain()
		}
	}
	return s, nil
}

// toMain returns to the main menu, keeping only jobs and history
func (s State) toMain() State {
	return State{
		View:    ViewMain,
		Jobs:    s.Jobs,
		History: s.History,
		Message: s.Message,
	}
}

// selectRow handles Enter on a real row
func (s State) selectRow() (State, Effect) {
	c := s.Cursor()

	switch s.View {
	case ViewMain:
		switch mainActions[c] {
		case MainWorkspaces:
			s.Pending = "Loading workspaces..."
			return s, LoadWorkspaces{}
		case MainActiveJobs:
			return s.goTo(ViewJobMenu), nil
		case MainCommandHistory:
			return s.goTo(ViewCommandHistory), nil
		case MainLogin:
			return s, Login{}
		}

	case ViewWorkspaces:
		ws := s.Workspaces[c]
		s.Pending = fmt.Sprintf("Loading items in %s...", ws)
		return s, LoadItems{Workspace: ws}

	case ViewWorkspaceItems:
		item := s.Items[c]
		if !item.SupportsJobActions() {
			s.Error = fmt.Sprintf("%s does not support job actions. Only notebooks, data pipelines and Spark job definitions can be run.", item.Name)
			s.Output = ""
			return s.goTo(ViewOutput), nil
		}
		s.Item = item
		return s.goTo(ViewItemActions), nil

	case ViewItemActions:
		return s.runAction(itemActions[c])

	case ViewWorkspaceSelection:
		dst := s.Destinations[c]
		s.Pending = fmt.Sprintf("Running %s of %s to %s...", s.Transfer, s.Item.Name, dst)
		return s, Transfer{Kind: s.Transfer, Source: s.Workspace, Item: s.Item.Name, Destination: dst}

	case ViewJobMenu:
		job := s.Jobs.Active()[c]
		s.statusFromJobMenu = true
		s.Pending = fmt.Sprintf("Checking status of %s...", job.Item)
		return s, PollJob{Job: job}

	case ViewCommandHistory:
		s.Output = historyDetails(s.History[c])
		s.Error = ""
		s.outputFromHistory = true
		return s.goTo(ViewOutput), nil
	}
	return s, nil
}

// runAction dispatches an item action
func (s State) runAction(a ItemAction) (State, Effect) {
	ws, item := s.Workspace, s.Item.Name

	switch a {
	case ActionStartJob:
		s.Pending = fmt.Sprintf("Starting %s...", item)
		return s, StartJob{Workspace: ws, Item: item}
	case ActionRunJob:
		s.Pending = fmt.Sprintf("Running %s, press esc to cancel...", item)
		return s, RunJob{Workspace: ws, Item: item}
	case ActionLatestStatus:
		s.statusFromJobMenu = false
		s.Pending = fmt.Sprintf("Fetching latest status of %s...", item)
		return s, FetchLatestStatus{Workspace: ws, Item: item}
	case ActionJobHistory:
		s.Pending = fmt.Sprintf("Fetching job history of %s...", item)
		return s, FetchJobHistory{Workspace: ws, Item: item}
	case ActionMove, ActionCopy:
		s.Transfer = TransferMove
		if a == ActionCopy {
			s.Transfer = TransferCopy
		}
		s.Pending = "Loading workspaces..."
		return s, LoadDestinations{}
	}
	return s, nil
}

// refresh handles r in the views that support it
func (s State) refresh() (State, Effect) {
	switch s.View {
	case ViewWorkspaces:
		s.Pending = "Refreshing workspaces..."
		return s, LoadWorkspaces{Force: true}
	case ViewJobStatus:
		if s.StatusJob.JobID == "" {
			return s, nil
		}
		s.Pending = "Refreshing status..."
		return s, PollJob{Job: s.StatusJob}
	}
	return s, nil
}

func historyDetails(e history.Entry) string {
	status := "Succeeded"
	if !e.Success {
		status = "Failed"
	}
	return fmt.Sprintf("Command: %s\nTime:    %s\nResult:  %s\n\n%s",
		e.Command, e.Timestamp.Local().Format("2006-01-02 15:04:05 MST"), status, e.Output)
}
