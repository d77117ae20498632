// Package jobs tracks background job runs and polls their status.
package jobs

import (
	"slices"
	"time"
)

// JobInfo is a job started from the UI and not yet known to be finished
type JobInfo struct {
	JobID     string
	Workspace string
	Item      string
	StartTime time.Time
}

// Key identifies the item a job runs on
func (j JobInfo) Key() string {
	return Key(j.Workspace, j.Item)
}

// Key builds the tracking key for a workspace item
func Key(workspace, item string) string {
	return workspace + "/" + item
}

// Tracker holds active jobs and the items whose jobs have finished.
// It is a value type; every mutator returns the updated copy.
type Tracker struct {
	active    []JobInfo
	completed map[string]bool
}

// Add appends a job to the active list, replacing an older job on the same item
func (t Tracker) Add(job JobInfo) Tracker {
	active := make([]JobInfo, 0, len(t.active)+1)
	for _, j := range t.active {
		if j.Key() != job.Key() {
			active = append(active, j)
		}
	}
	t.active = append(active, job)

	if t.completed[job.Key()] {
		completed := cloneSet(t.completed)
		delete(completed, job.Key())
		t.completed = completed
	}
	return t
}

// Complete moves the job with key from the active list to the completed set
func (t Tracker) Complete(key string) Tracker {
	t.active = slices.DeleteFunc(slices.Clone(t.active), func(j JobInfo) bool {
		return j.Key() == key
	})
	completed := cloneSet(t.completed)
	completed[key] = true
	t.completed = completed
	return t
}

// IsCompleted reports whether a tracked job on the item reached a terminal status
func (t Tracker) IsCompleted(workspace, item string) bool {
	return t.completed[Key(workspace, item)]
}

// Active returns a copy of the active jobs in start order
func (t Tracker) Active() []JobInfo {
	return slices.Clone(t.active)
}

// Len returns the number of active jobs
func (t Tracker) Len() int {
	return len(t.active)
}

// Find returns the active job on an item
func (t Tracker) Find(workspace, item string) (JobInfo, bool) {
	key := Key(workspace, item)
	for _, j := range t.active {
		if j.Key() == key {
			return j, true
		}
	}
	return JobInfo{}, false
}

func cloneSet(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
