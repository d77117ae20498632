package state

import "fabric_tui/internal/jobs"

// Effect is I/O requested by Reduce. The set is closed.
type Effect interface {
	effect()
}

type (
	// Quit exits the program
	Quit struct{}

	// LoadWorkspaces lists workspaces; Force bypasses the cache
	LoadWorkspaces struct{ Force bool }

	// LoadItems lists the items of a workspace
	LoadItems struct {
		Workspace string
		Force     bool
	}

	// LoadDestinations lists workspaces as move/copy targets
	LoadDestinations struct{}

	// StartJob starts a background job
	StartJob struct{ Workspace, Item string }

	// RunJob runs a job and waits for it
	RunJob struct{ Workspace, Item string }

	// FetchLatestStatus finds the newest run of an item and queries it
	FetchLatestStatus struct{ Workspace, Item string }

	// PollJob queries one known job
	PollJob struct{ Job jobs.JobInfo }

	// FetchJobHistory lists past runs of an item
	FetchJobHistory struct{ Workspace, Item string }

	// Transfer moves or copies an item
	Transfer struct {
		Kind        TransferKind
		Source      string
		Item        string
		Destination string
	}

	// ClearHistory empties command history in memory and on disk
	ClearHistory struct{}

	// Login hands the terminal to the interactive auth flow
	Login struct{}

	// CancelPending abandons the operation in flight
	CancelPending struct{}
)

func (Quit) effect()              {}
func (LoadWorkspaces) effect()    {}
func (LoadItems) effect()         {}
func (LoadDestinations) effect()  {}
func (StartJob) effect()          {}
func (RunJob) effect()            {}
func (FetchLatestStatus) effect() {}
func (PollJob) effect()           {}
func (FetchJobHistory) effect()   {}
func (Transfer) effect()          {}
func (ClearHistory) effect()      {}
func (Login) effect()             {}
func (CancelPending) effect()     {}
