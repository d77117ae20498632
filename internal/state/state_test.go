package state

import (
	"math/rand/v2"
	"testing"
	"time"

	"fabric_tui/internal/history"
	"fabric_tui/internal/jobs"
	"fabric_tui/internal/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// press applies keys in order and returns the final state and last effect
func press(t *testing.T, s State, keys ...Key) (State, Effect) {
	t.Helper()
	var eff Effect
	for _, k := range keys {
		s, eff = Reduce(s, k)
	}
	return s, eff
}

func items(names ...string) []parser.WorkspaceItem {
	out := make([]parser.WorkspaceItem, len(names))
	for i, n := range names {
		out[i] = parser.NewWorkspaceItem(n)
	}
	return out
}

// inItemActions builds a state with etl.Notebook selected in Sales
func inItemActions(t *testing.T) State {
	t.Helper()
	s := New(nil).WorkspacesLoaded([]string{"Sales", "Finance"})
	s = s.ItemsLoaded("Sales", items("etl.Notebook", "model.SemanticModel"))
	s, eff := press(t, s, KeyEnter)
	require.Nil(t, eff)
	require.Equal(t, ViewItemActions, s.View)
	return s
}

func TestWorkspacesScenario(t *testing.T) {
	s := New(nil)

	s, eff := press(t, s, KeyEnter)
	require.Equal(t, LoadWorkspaces{}, eff)
	assert.True(t, s.Busy())

	s = s.WorkspacesLoaded(parser.ParseWorkspaces("Listing...\nAlpha.Workspace\nBeta.Workspace\n"))
	require.Equal(t, ViewWorkspaces, s.View)
	assert.Equal(t, []string{"Alpha", "Beta"}, s.Rows())
	assert.Equal(t, 2, s.RowCount(ViewWorkspaces), "back entry sits at index 2")
	assert.Equal(t, "Return to Main Menu", s.BackLabel())

	s, eff = press(t, s, KeyDown, KeyDown)
	assert.True(t, s.OnBack())
	assert.Equal(t, 2, s.Cursor())

	s, eff = press(t, s, KeyEnter)
	assert.Nil(t, eff)
	assert.Equal(t, ViewMain, s.View)
	assert.Empty(t, s.Workspaces)
	assert.Zero(t, s.Cursor())
}

func TestCursorStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for n := range 6 {
		names := make([]string, n)
		for i := range names {
			names[i] = "ws"
		}
		s := New(nil).WorkspacesLoaded(names)

		for range 200 {
			k := KeyUp
			if rng.IntN(2) == 0 {
				k = KeyDown
			}
			s, _ = Reduce(s, k)
			if c := s.Cursor(); c < 0 || c > n {
				t.Fatalf("cursor %d outside [0, %d]", c, n)
			}
		}
	}
}

func TestBackDecisionTree(t *testing.T) {
	t.Run("main quits", func(t *testing.T) {
		_, eff := press(t, New(nil), KeyBack)
		assert.Equal(t, Quit{}, eff)
	})

	t.Run("exit row quits", func(t *testing.T) {
		s := New(nil)
		for range s.RowCount(ViewMain) {
			s, _ = Reduce(s, KeyDown)
		}
		require.Equal(t, "Exit", s.BackLabel())
		_, eff := press(t, s, KeyEnter)
		assert.Equal(t, Quit{}, eff)
	})

	t.Run("items back to workspaces clears items", func(t *testing.T) {
		s := New(nil).WorkspacesLoaded([]string{"Sales"}).ItemsLoaded("Sales", items("etl.Notebook"))

		s, _ = press(t, s, KeyBack)

		assert.Equal(t, ViewWorkspaces, s.View)
		assert.Empty(t, s.Items)
		assert.Empty(t, s.Workspace)
		assert.Equal(t, []string{"Sales"}, s.Workspaces)
	})

	t.Run("output with item returns to actions", func(t *testing.T) {
		s := inItemActions(t).ShowOutput("done")

		s, _ = press(t, s, KeyBack)

		assert.Equal(t, ViewItemActions, s.View)
		assert.Empty(t, s.Output)
	})

	t.Run("output with only workspace returns to items", func(t *testing.T) {
		s := New(nil).ItemsLoaded("Sales", items("etl.Notebook")).ShowError("boom")

		s, _ = press(t, s, KeyBack)

		assert.Equal(t, ViewWorkspaceItems, s.View)
		assert.Empty(t, s.Error)
	})

	t.Run("output with nothing returns to main", func(t *testing.T) {
		s, _ := press(t, New(nil).ShowError("boom"), KeyBack)
		assert.Equal(t, ViewMain, s.View)
	})

	t.Run("status from job menu returns to job menu", func(t *testing.T) {
		job := jobs.JobInfo{JobID: "id", Workspace: "Sales", Item: "etl.Notebook"}
		s := New(nil)
		s.Jobs = s.Jobs.Add(job)
		s, _ = press(t, s, KeyDown, KeyEnter)
		require.Equal(t, ViewJobMenu, s.View)

		s, eff := press(t, s, KeyEnter)
		require.Equal(t, PollJob{Job: job}, eff)
		s = s.StatusLoaded(job, parser.StatusInfo{Status: parser.StatusInProgress})
		require.Equal(t, ViewJobStatus, s.View)

		s, _ = press(t, s, KeyBack)
		assert.Equal(t, ViewJobMenu, s.View)
	})

	t.Run("status from item actions returns to actions", func(t *testing.T) {
		s := inItemActions(t)
		s, eff := press(t, s, KeyDown, KeyDown, KeyEnter)
		require.Equal(t, FetchLatestStatus{Workspace: "Sales", Item: "etl.Notebook"}, eff)
		s = s.StatusLoaded(jobs.JobInfo{JobID: "id", Workspace: "Sales", Item: "etl.Notebook"}, parser.StatusInfo{Status: parser.StatusCompleted})

		s, _ = press(t, s, KeyBack)
		assert.Equal(t, ViewItemActions, s.View)
	})

	t.Run("main keeps jobs and history", func(t *testing.T) {
		entries := []history.Entry{history.NewEntry("fab ls", true, "", time.Now())}
		s := New(entries)
		s.Jobs = s.Jobs.Add(jobs.JobInfo{JobID: "id", Workspace: "Sales", Item: "etl.Notebook"})
		s = s.WorkspacesLoaded([]string{"Sales"})

		s, _ = press(t, s, KeyBack)

		assert.Equal(t, 1, s.Jobs.Len())
		assert.Len(t, s.History, 1)
	})
}

func TestNonJobItemIsRejected(t *testing.T) {
	s := New(nil).ItemsLoaded("Sales", items("etl.Notebook", "model.SemanticModel"))

	s, eff := press(t, s, KeyDown, KeyEnter)

	assert.Nil(t, eff)
	assert.Equal(t, ViewOutput, s.View)
	assert.Contains(t, s.Error, "model.SemanticModel does not support job actions")
	assert.False(t, s.HasItem())
}

func TestItemActionEffects(t *testing.T) {
	tests := []struct {
		name  string
		downs int
		want  Effect
	}{
		{"start", 0, StartJob{Workspace: "Sales", Item: "etl.Notebook"}},
		{"run", 1, RunJob{Workspace: "Sales", Item: "etl.Notebook"}},
		{"latest status", 2, FetchLatestStatus{Workspace: "Sales", Item: "etl.Notebook"}},
		{"history", 3, FetchJobHistory{Workspace: "Sales", Item: "etl.Notebook"}},
		{"move", 4, LoadDestinations{}},
		{"copy", 5, LoadDestinations{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := inItemActions(t)
			for range tt.downs {
				s, _ = Reduce(s, KeyDown)
			}

			s, eff := Reduce(s, KeyEnter)

			assert.Equal(t, tt.want, eff)
			assert.True(t, s.Busy())
		})
	}
}

func TestTransferFlow(t *testing.T) {
	s := inItemActions(t)
	s, _ = press(t, s, KeyDown, KeyDown, KeyDown, KeyDown, KeyDown, KeyEnter)
	require.Equal(t, TransferCopy, s.Transfer)

	s = s.DestinationsLoaded([]string{"Sales", "Finance", "Prod"})
	require.Equal(t, ViewWorkspaceSelection, s.View)
	assert.Equal(t, []string{"Finance", "Prod"}, s.Destinations, "source workspace is excluded")

	s, eff := press(t, s, KeyDown, KeyEnter)
	assert.Equal(t, Transfer{Kind: TransferCopy, Source: "Sales", Item: "etl.Notebook", Destination: "Prod"}, eff)

	s = s.TransferDone(TransferCopy, "etl.Notebook", "Successfully copied to Prod")
	assert.Nil(t, s.Destinations)
	s, _ = press(t, s, KeyBack)
	assert.Equal(t, ViewItemActions, s.View)
	assert.Len(t, s.Items, 2, "copy leaves the source listing alone")
}

func TestMoveDropsItemFromSource(t *testing.T) {
	s := inItemActions(t)
	s, _ = press(t, s, KeyDown, KeyDown, KeyDown, KeyDown, KeyEnter)
	require.Equal(t, TransferMove, s.Transfer)

	s = s.DestinationsLoaded([]string{"Sales", "Prod"})
	s, eff := press(t, s, KeyEnter)
	require.Equal(t, Transfer{Kind: TransferMove, Source: "Sales", Item: "etl.Notebook", Destination: "Prod"}, eff)

	s = s.TransferDone(TransferMove, "etl.Notebook", "Successfully moved to Prod")
	require.Equal(t, ViewOutput, s.View)
	assert.False(t, s.HasItem())

	s, _ = press(t, s, KeyBack)
	assert.Equal(t, ViewWorkspaceItems, s.View)
	assert.Equal(t, "Sales", s.Workspace)
	assert.Equal(t, []string{"model.SemanticModel"}, s.Rows())
	assert.LessOrEqual(t, s.Cursor(), s.RowCount(ViewWorkspaceItems))
}

func TestJobStartExtractionFailureShowsOutput(t *testing.T) {
	s := inItemActions(t)
	s, eff := press(t, s, KeyEnter)
	require.IsType(t, StartJob{}, eff)

	s = s.ShowError("failed to extract job ID")

	assert.Equal(t, ViewOutput, s.View)
	assert.Equal(t, "failed to extract job ID", s.Error)
	assert.Zero(t, s.Jobs.Len(), "no job is tracked")
	assert.False(t, s.Busy())
}

func TestJobStartedTracksJob(t *testing.T) {
	s := inItemActions(t)
	s, _ = press(t, s, KeyEnter)

	s = s.JobStarted(jobs.JobInfo{JobID: "0f8fad5b-d9cb-469f-a165-70867728950e", Workspace: "Sales", Item: "etl.Notebook"})

	assert.Equal(t, ViewOutput, s.View)
	assert.Contains(t, s.Output, "0f8fad5b")
	assert.Equal(t, 1, s.Jobs.Len())
}

func TestBusyBlocksKeysAndBackCancels(t *testing.T) {
	s, _ := press(t, New(nil), KeyEnter)
	require.True(t, s.Busy())

	s2, eff := press(t, s, KeyDown, KeyEnter)
	assert.Nil(t, eff)
	assert.Equal(t, s.Cursor(), s2.Cursor())

	s3, eff := press(t, s2, KeyBack)
	assert.Equal(t, CancelPending{}, eff)
	assert.False(t, s3.Busy())
	assert.Equal(t, ViewMain, s3.View)
}

func TestRefreshKey(t *testing.T) {
	t.Run("workspaces forces reload", func(t *testing.T) {
		s := New(nil).WorkspacesLoaded([]string{"Sales"})
		_, eff := press(t, s, KeyRefresh)
		assert.Equal(t, LoadWorkspaces{Force: true}, eff)
	})

	t.Run("job status re-polls", func(t *testing.T) {
		job := jobs.JobInfo{JobID: "id", Workspace: "Sales", Item: "etl.Notebook"}
		s := New(nil).StatusLoaded(job, parser.StatusInfo{Status: parser.StatusInProgress})
		_, eff := press(t, s, KeyRefresh)
		assert.Equal(t, PollJob{Job: job}, eff)
	})

	t.Run("ignored elsewhere", func(t *testing.T) {
		_, eff := press(t, New(nil), KeyRefresh)
		assert.Nil(t, eff)
	})
}

func TestClearHistory(t *testing.T) {
	entries := []history.Entry{
		history.NewEntry("fab ls", true, "ws", time.Now()),
		history.NewEntry("fab ls", false, "boom", time.Now()),
	}
	s := New(entries)
	s, _ = press(t, s, KeyDown, KeyDown, KeyEnter)
	require.Equal(t, ViewCommandHistory, s.View)

	_, eff := press(t, New(entries), KeyClear)
	assert.Nil(t, eff, "c only works in command history")

	s, _ = press(t, s, KeyDown)
	s, eff = press(t, s, KeyClear)
	assert.Equal(t, ClearHistory{}, eff)
	assert.Empty(t, s.History)
	assert.Zero(t, s.Cursor())
}

func TestHistoryEntryDetails(t *testing.T) {
	entries := []history.Entry{history.NewEntry("fab ls", false, "boom", time.Now())}
	s := New(entries)
	s, _ = press(t, s, KeyDown, KeyDown, KeyEnter, KeyEnter)

	require.Equal(t, ViewOutput, s.View)
	assert.Contains(t, s.Output, "fab ls")
	assert.Contains(t, s.Output, "Failed")

	s, _ = press(t, s, KeyBack)
	assert.Equal(t, ViewCommandHistory, s.View)
}

func TestJobsPolled(t *testing.T) {
	a := jobs.JobInfo{JobID: "a", Workspace: "Sales", Item: "a.Notebook"}
	b := jobs.JobInfo{JobID: "b", Workspace: "Sales", Item: "b.Notebook"}
	s := New(nil)
	s.Jobs = s.Jobs.Add(a).Add(b)
	s, _ = press(t, s, KeyDown, KeyEnter, KeyDown)
	require.Equal(t, ViewJobMenu, s.View)
	require.Equal(t, 1, s.Cursor())

	s = s.JobsPolled([]jobs.PollResult{
		{Job: a, Status: parser.StatusInfo{Status: parser.StatusSucceeded}},
		{Job: b, Status: parser.StatusInfo{Status: parser.StatusInProgress}},
	})

	assert.Equal(t, 1, s.Jobs.Len())
	assert.True(t, s.Jobs.IsCompleted("Sales", "a.Notebook"))
	assert.Contains(t, s.Message, "a.Notebook Succeeded")
	assert.Equal(t, 1, s.Cursor(), "cursor clamped to the back entry")
}

func TestViewStrings(t *testing.T) {
	for v := range viewCount {
		if v.String() == "Unknown" {
			t.Errorf("view %d has no title", v)
		}
	}
}
