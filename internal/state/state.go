// Package state holds the application state and the view state machine.
//
// State is a value. Reduce maps a key press to a new State and an Effect
// describing the I/O to perform; completion methods fold the outcome of that
// I/O back in. Nothing in this package blocks or spawns processes.
package state

import (
	"fmt"

	"fabric_tui/internal/history"
	"fabric_tui/internal/jobs"
	"fabric_tui/internal/parser"
)

// View identifies the current screen
type View int

const (
	ViewMain View = iota
	ViewWorkspaces
	ViewWorkspaceItems
	ViewItemActions
	ViewWorkspaceSelection
	ViewJobMenu
	ViewJobStatus
	ViewOutput
	ViewCommandHistory

	viewCount
)

// String returns the screen title
func (v View) String() string {
	switch v {
	case ViewMain:
		return "Main Menu"
	case ViewWorkspaces:
		return "Workspaces"
	case ViewWorkspaceItems:
		return "Workspace Items"
	case ViewItemActions:
		return "Item Actions"
	case ViewWorkspaceSelection:
		return "Select Destination Workspace"
	case ViewJobMenu:
		return "Active Jobs"
	case ViewJobStatus:
		return "Job Status"
	case ViewOutput:
		return "Output"
	case ViewCommandHistory:
		return "Command History"
	default:
		return "Unknown"
	}
}

// Key is an input event the state machine understands
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyEnter
	KeyBack    // q / esc
	KeyRefresh // r
	KeyClear   // c
)

// MainAction is a row of the main menu
type MainAction int

const (
	MainWorkspaces MainAction = iota
	MainActiveJobs
	MainCommandHistory
	MainLogin
)

var mainActions = []MainAction{MainWorkspaces, MainActiveJobs, MainCommandHistory, MainLogin}

func (a MainAction) String() string {
	switch a {
	case MainWorkspaces:
		return "Workspaces"
	case MainActiveJobs:
		return "Active Jobs"
	case MainCommandHistory:
		return "Command History"
	case MainLogin:
		return "Login"
	default:
		return "Unknown"
	}
}

// ItemAction is a row of the item actions menu
type ItemAction int

const (
	ActionStartJob ItemAction = iota
	ActionRunJob
	ActionLatestStatus
	ActionJobHistory
	ActionMove
	ActionCopy
)

var itemActions = []ItemAction{ActionStartJob, ActionRunJob, ActionLatestStatus, ActionJobHistory, ActionMove, ActionCopy}

func (a ItemAction) String() string {
	switch a {
	case ActionStartJob:
		return "Start Job (background)"
	case ActionRunJob:
		return "Run Job (wait for completion)"
	case ActionLatestStatus:
		return "Latest Job Status"
	case ActionJobHistory:
		return "Job History"
	case ActionMove:
		return "Move to Workspace"
	case ActionCopy:
		return "Copy to Workspace"
	default:
		return "Unknown"
	}
}

// TransferKind selects move or copy
type TransferKind int

const (
	TransferMove TransferKind = iota
	TransferCopy
)

func (k TransferKind) String() string {
	if k == TransferCopy {
		return "copy"
	}
	return "move"
}

// State is the whole application state
type State struct {
	View    View
	cursors [viewCount]int

	Workspaces   []string
	Items        []parser.WorkspaceItem
	Destinations []string

	Workspace string               // Selected workspace, "" when none
	Item      parser.WorkspaceItem // Selected item, zero when none
	Transfer  TransferKind         // Pending move or copy

	Jobs              jobs.Tracker
	StatusJob         jobs.JobInfo
	Status            parser.StatusInfo
	statusFromJobMenu bool

	Output            string
	Error             string
	outputFromHistory bool

	History []history.Entry

	Pending string // Text of the operation in flight, "" when idle
	Message string // Transient notice shown in the footer
}

// New returns the initial state on the main menu
func New(entries []history.Entry) State {
	return State{View: ViewMain, History: entries}
}

// HasItem reports whether an item is selected
func (s State) HasItem() bool {
	return s.Item.Name != ""
}

// Busy reports whether an operation is in flight
func (s State) Busy() bool {
	return s.Pending != ""
}

// Cursor returns the selection index of the current view
func (s State) Cursor() int {
	return s.cursors[s.View]
}

// CursorOf returns the selection index of a view
func (s State) CursorOf(v View) int {
	return s.cursors[v]
}

// RowCount returns the number of real rows in a view, excluding the back entry
func (s State) RowCount(v View) int {
	switch v {
	case ViewMain:
		return len(mainActions)
	case ViewWorkspaces:
		return len(s.Workspaces)
	case ViewWorkspaceItems:
		return len(s.Items)
	case ViewItemActions:
		return len(itemActions)
	case ViewWorkspaceSelection:
		return len(s.Destinations)
	case ViewJobMenu:
		return s.Jobs.Len()
	case ViewCommandHistory:
		return len(s.History)
	default:
		return 0
	}
}

// OnBack reports whether the cursor is on the synthetic back entry
func (s State) OnBack() bool {
	return s.Cursor() == s.RowCount(s.View)
}

// Rows returns the labels of the current view's real rows
func (s State) Rows() []string {
	var rows []string
	switch s.View {
	case ViewMain:
		for _, a := range mainActions {
			label := a.String()
			if a == MainActiveJobs && s.Jobs.Len() > 0 {
				label = fmt.Sprintf("%s (%d)", label, s.Jobs.Len())
			}
			rows = append(rows, label)
		}
	case ViewWorkspaces:
		rows = append(rows, s.Workspaces...)
	case ViewWorkspaceItems:
		for _, it := range s.Items {
			label := it.Name
			if s.Jobs.IsCompleted(s.Workspace, it.Name) {
				label += " ✓"
			} else if _, ok := s.Jobs.Find(s.Workspace, it.Name); ok {
				label += " ⟳"
			}
			rows = append(rows, label)
		}
	case ViewItemActions:
		for _, a := range itemActions {
			rows = append(rows, a.String())
		}
	case ViewWorkspaceSelection:
		rows = append(rows, s.Destinations...)
	case ViewJobMenu:
		for _, j := range s.Jobs.Active() {
			rows = append(rows, fmt.Sprintf("%s  %s", j.Key(), j.StartTime.Local().Format("15:04:05")))
		}
	case ViewCommandHistory:
		for _, e := range s.History {
			rows = append(rows, e.Summary())
		}
	}
	return rows
}

// BackLabel returns the label of the synthetic back entry
func (s State) BackLabel() string {
	switch s.View {
	case ViewMain:
		return "Exit"
	case ViewWorkspaceItems:
		return "Back to Workspaces"
	case ViewItemActions:
		return "Back to Items"
	case ViewWorkspaceSelection:
		return "Back to Actions"
	case ViewJobStatus, ViewOutput:
		return "Back"
	default:
		return "Return to Main Menu"
	}
}

// setCursor stores a cursor for a view, clamped to [0, RowCount]
func (s State) setCursor(v View, c int) State {
	s.cursors[v] = max(0, min(c, s.RowCount(v)))
	return s
}

// clampCursors re-applies the cursor bounds after a list changed
func (s State) clampCursors() State {
	for v := range viewCount {
		s = s.setCursor(v, s.cursors[v])
	}
	return s
}

// goTo switches view with the cursor on the first row
func (s State) goTo(v View) State {
	s.View = v
	s.cursors[v] = 0
	return s
}
