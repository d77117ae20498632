package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"fabric_tui/internal/config"
	"fabric_tui/internal/history"
	"fabric_tui/internal/jobs"
	"fabric_tui/internal/parser"
	"fabric_tui/internal/state"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeBackend struct {
	mu         sync.Mutex
	workspaces []string
	items      []parser.WorkspaceItem
	status     parser.StatusInfo
	listErr    error
	calls      []string
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) ListWorkspaces(ctx context.Context, force bool) ([]string, error) {
	f.record("ListWorkspaces")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.workspaces, f.listErr
}

func (f *fakeBackend) ListItems(ctx context.Context, workspace string, force bool) ([]parser.WorkspaceItem, error) {
	f.record("ListItems " + workspace)
	return f.items, nil
}

func (f *fakeBackend) StartJob(ctx context.Context, workspace, item string) (jobs.JobInfo, error) {
	f.record("StartJob " + item)
	return jobs.JobInfo{
		JobID:     "0b7d5a5e-9c3b-4f0e-8a51-6f2d1c3e4b5a",
		Workspace: workspace,
		Item:      item,
		StartTime: time.Now(),
	}, nil
}

func (f *fakeBackend) RunJob(ctx context.Context, workspace, item string) (string, error) {
	return "done", nil
}

func (f *fakeBackend) LatestJobStatus(ctx context.Context, workspace, item string) (string, parser.StatusInfo, bool, error) {
	return "", parser.StatusInfo{}, false, nil
}

func (f *fakeBackend) JobStatus(ctx context.Context, workspace, item, jobID string) (parser.StatusInfo, error) {
	f.record("JobStatus " + item)
	return f.status, nil
}

func (f *fakeBackend) JobHistory(ctx context.Context, workspace, item string) (string, error) {
	return "history", nil
}

func (f *fakeBackend) Move(ctx context.Context, src, item, dst string) (string, error) {
	return "moved", nil
}

func (f *fakeBackend) Copy(ctx context.Context, src, item, dst string) (string, error) {
	return "copied", nil
}

func newTestModel(b *fakeBackend) Model {
	cfg := config.DefaultConfig()
	cfg.DebounceMillis = 1
	m := NewModel(ModelOptions{Backend: b, Config: cfg})
	m.width = 80
	m.height = 24
	return m
}

func press(m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	updated, cmd := m.Update(k)
	return updated.(Model), cmd
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step runs cmd and feeds its message back into the model
func step(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	updated, next := m.Update(cmd())
	return updated.(Model), next
}

func TestNewModel(t *testing.T) {
	m := NewModel(ModelOptions{})
	if m.st.View != state.ViewMain {
		t.Errorf("expected initial view to be Main, got %s", m.st.View)
	}
	if m.View() != "Loading..." {
		t.Errorf("expected loading screen before the first resize, got %q", m.View())
	}
}

func TestEnterWorkspacesLoadsList(t *testing.T) {
	b := &fakeBackend{workspaces: []string{"Sales.Workspace", "Ops.Workspace"}}
	m := newTestModel(b)

	m, cmd := press(m, keyEnter)
	if !m.st.Busy() {
		t.Fatal("expected a pending operation after selecting Workspaces")
	}

	// Debounce tick, then the foreground fetch
	m, cmd = step(t, m, cmd)
	m, _ = step(t, m, cmd)

	if m.st.View != state.ViewWorkspaces {
		t.Fatalf("expected Workspaces view, got %s", m.st.View)
	}
	if m.st.Busy() {
		t.Error("expected pending to clear after load")
	}
	out := m.View()
	if !strings.Contains(out, "Sales.Workspace") {
		t.Errorf("expected workspace in view, got:\n%s", out)
	}
	if !strings.Contains(out, "Return to Main Menu") {
		t.Errorf("expected back entry in view, got:\n%s", out)
	}
}

func TestCancelDropsStaleResult(t *testing.T) {
	b := &fakeBackend{workspaces: []string{"Sales.Workspace"}}
	m := newTestModel(b)

	m, cmd := press(m, keyEnter)
	m, fetch := step(t, m, cmd)
	if fetch == nil {
		t.Fatal("expected the debounced fetch to start")
	}

	// Esc while busy cancels instead of quitting
	m, cancelCmd := press(m, keyEsc)
	if cancelCmd != nil {
		t.Errorf("expected no command from cancel, got one")
	}
	if m.st.Busy() {
		t.Error("expected pending to clear on cancel")
	}

	m, _ = step(t, m, fetch)
	if m.st.View != state.ViewMain {
		t.Errorf("expected stale result to be dropped, view is %s", m.st.View)
	}
}

func TestSupersededDebounceIsIgnored(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m, _ = press(m, keyEnter)

	updated, cmd := m.Update(debounceMsg{concern: concernWorkspaces, tag: m.debounce[concernWorkspaces] - 1, effect: state.LoadWorkspaces{}})
	if cmd != nil {
		t.Error("expected superseded debounce tick to do nothing")
	}
	if !updated.(Model).st.Busy() {
		t.Error("expected operation to stay pending")
	}
}

func TestLoadErrorShowsOutput(t *testing.T) {
	b := &fakeBackend{listErr: errors.New("boom")}
	m := newTestModel(b)

	m, cmd := press(m, keyEnter)
	m, cmd = step(t, m, cmd)
	m, _ = step(t, m, cmd)

	if m.st.View != state.ViewOutput {
		t.Fatalf("expected Output view, got %s", m.st.View)
	}
	if !strings.Contains(m.st.Error, "boom") {
		t.Errorf("expected error text, got %q", m.st.Error)
	}
}

func TestQuitFromMainMenu(t *testing.T) {
	m := newTestModel(&fakeBackend{})

	_, cmd := press(m, runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestCtrlCQuitsAnywhere(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m.st = m.st.ShowOutput("text")

	_, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestLoginQuitsAndFlags(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	for range 3 {
		m, _ = press(m, keyDown)
	}

	m, cmd := press(m, keyEnter)
	if !m.LoginRequested() {
		t.Error("expected login to be requested")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestStartJobThenPollCompletes(t *testing.T) {
	b := &fakeBackend{status: parser.StatusInfo{Status: parser.StatusCompleted}}
	m := newTestModel(b)
	m.st = m.st.WorkspacesLoaded([]string{"WS"}).
		ItemsLoaded("WS", []parser.WorkspaceItem{parser.NewWorkspaceItem("Daily.Notebook")})

	m, _ = press(m, keyEnter) // item -> actions
	if m.st.View != state.ViewItemActions {
		t.Fatalf("expected Item Actions view, got %s", m.st.View)
	}

	m, cmd := press(m, keyEnter) // Start Job
	m, tick := step(t, m, cmd)
	if tick == nil || !m.polling {
		t.Error("expected the poll loop to start with the first job")
	}
	if m.st.Jobs.Len() != 1 {
		t.Fatalf("expected one tracked job, got %d", m.st.Jobs.Len())
	}
	if m.st.View != state.ViewOutput {
		t.Errorf("expected confirmation in Output view, got %s", m.st.View)
	}

	m, cmd = pollTick(t, m)
	m, next := step(t, m, cmd)
	if m.st.Jobs.Len() != 0 {
		t.Errorf("expected job to complete, %d still active", m.st.Jobs.Len())
	}
	if !strings.Contains(m.st.Message, "Job finished") {
		t.Errorf("expected completion notice, got %q", m.st.Message)
	}
	if next != nil || m.polling {
		t.Error("expected the poll loop to stop with no active jobs")
	}
}

// pollTick delivers a poll tick
func pollTick(t *testing.T, m Model) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(pollTickMsg(time.Now()))
	return updated.(Model), cmd
}

func TestNoticeSetsMessage(t *testing.T) {
	notices := make(chan string, 1)
	m := NewModel(ModelOptions{Backend: &fakeBackend{}, Notices: notices})
	m.st.Pending = "Running etl.Notebook..."

	notices <- "Attempt 1 failed, retrying..."
	cmd := m.waitNoticeCmd()
	updated, next := m.Update(cmd())
	if got := updated.(Model).st.Message; got != "Attempt 1 failed, retrying..." {
		t.Errorf("Message = %q", got)
	}
	if next == nil {
		t.Error("expected to keep listening for notices")
	}
}

func TestNoticeAfterResultIsDropped(t *testing.T) {
	notices := make(chan string, 1)
	m := NewModel(ModelOptions{Backend: &fakeBackend{}, Notices: notices})
	m.st = m.st.ShowOutput("done")

	notices <- "Still running... 3s elapsed"
	updated, next := m.Update(m.waitNoticeCmd()())
	if got := updated.(Model).st.Message; got != "" {
		t.Errorf("expected no footer notice once idle, got %q", got)
	}
	if next == nil {
		t.Error("expected to keep listening for notices")
	}
}

func TestMoveRemovesItemFromList(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m.st = m.st.WorkspacesLoaded([]string{"Src", "Dst"}).
		ItemsLoaded("Src", []parser.WorkspaceItem{parser.NewWorkspaceItem("A.Notebook")})

	apply := m.operation(state.Transfer{Kind: state.TransferMove, Source: "Src", Item: "A.Notebook", Destination: "Dst"})(context.Background())
	m = m.transition(apply(m.st))
	if m.st.View != state.ViewOutput || m.st.Output != "moved" {
		t.Fatalf("expected move confirmation, got view %s output %q", m.st.View, m.st.Output)
	}

	m, _ = press(m, keyEsc)
	if m.st.View != state.ViewWorkspaceItems {
		t.Fatalf("expected Workspace Items view, got %s", m.st.View)
	}
	if len(m.st.Items) != 0 {
		t.Errorf("expected moved item to leave Src, still listed: %v", m.st.Rows())
	}
}

func TestConfigReloadApplies(t *testing.T) {
	var applied *config.Config
	m := NewModel(ModelOptions{
		Backend:  &fakeBackend{},
		OnConfig: func(c *config.Config) { applied = c },
	})
	defer SetTheme("mocha")

	cfg := config.DefaultConfig()
	cfg.Theme = "latte"
	cfg.Poll.ActiveSeconds = 7

	updated, _ := m.Update(configReloadedMsg(cfg))
	model := updated.(Model)
	if model.cfg.Theme != "latte" {
		t.Errorf("expected theme latte, got %s", model.cfg.Theme)
	}
	if applied != cfg {
		t.Error("expected OnConfig to receive the new config")
	}
	if got := model.poller.Interval(1); got != 7*time.Second {
		t.Errorf("active poll interval = %v, want 7s", got)
	}
}

func TestClearHistory(t *testing.T) {
	store := history.NewStore("", 10)
	_ = store.Add(history.NewEntry("fab ls", true, "", time.Now()))
	m := NewModel(ModelOptions{Backend: &fakeBackend{}, History: store})
	m.width, m.height = 80, 24

	m, _ = press(m, keyDown)
	m, _ = press(m, keyDown)
	m, _ = press(m, keyEnter)
	if m.st.View != state.ViewCommandHistory {
		t.Fatalf("expected Command History view, got %s", m.st.View)
	}

	m, cmd := press(m, runes("c"))
	m, _ = step(t, m, cmd)
	if store.Len() != 0 {
		t.Errorf("expected store to be cleared, has %d", store.Len())
	}
	if len(m.st.History) != 0 || m.st.Message != "History cleared" {
		t.Errorf("unexpected state after clear: %d entries, message %q", len(m.st.History), m.st.Message)
	}
}

func TestOutputViewScrollsInsteadOfMovingCursor(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m, _ = press(m, runes("x")) // unmapped keys are ignored
	m = m.transition(m.st.ShowOutput(strings.Repeat("line\n", 100)))

	before := m.st.Cursor()
	m, _ = press(m, keyDown)
	if m.st.Cursor() != before {
		t.Error("expected cursor to stay on the back entry")
	}
	if m.viewport.YOffset == 0 {
		t.Error("expected viewport to scroll")
	}
}

func TestVisibleRange(t *testing.T) {
	tests := []struct {
		cursor, total, height int
		wantStart, wantEnd    int
	}{
		{0, 5, 10, 0, 5},
		{0, 20, 10, 0, 10},
		{10, 20, 10, 5, 15},
		{19, 20, 10, 10, 20},
	}
	for _, tt := range tests {
		start, end := visibleRange(tt.cursor, tt.total, tt.height)
		if start != tt.wantStart || end != tt.wantEnd {
			t.Errorf("visibleRange(%d, %d, %d) = (%d, %d), want (%d, %d)",
				tt.cursor, tt.total, tt.height, start, end, tt.wantStart, tt.wantEnd)
		}
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("alpha beta gamma delta", 11)
	want := "alpha beta\ngamma delta"
	if got != want {
		t.Errorf("wrapText() = %q, want %q", got, want)
	}

	if got := wrapText("short", 0); got != "short" {
		t.Errorf("wrapText with zero width = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Sales.Notebook", 8); got != "Sales..." {
		t.Errorf("truncate() = %q, want %q", got, "Sales...")
	}
	if got := truncate("ok", 8); got != "ok" {
		t.Errorf("truncate() = %q, want %q", got, "ok")
	}
}
