package tui

import (
	"context"
	"time"

	"fabric_tui/internal/config"
	"fabric_tui/internal/history"
	"fabric_tui/internal/jobs"
	"fabric_tui/internal/parser"
	"fabric_tui/internal/state"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Backend performs the Fabric operations behind each menu action
type Backend interface {
	ListWorkspaces(ctx context.Context, force bool) ([]string, error)
	ListItems(ctx context.Context, workspace string, force bool) ([]parser.WorkspaceItem, error)
	StartJob(ctx context.Context, workspace, item string) (jobs.JobInfo, error)
	RunJob(ctx context.Context, workspace, item string) (string, error)
	LatestJobStatus(ctx context.Context, workspace, item string) (string, parser.StatusInfo, bool, error)
	JobStatus(ctx context.Context, workspace, item, jobID string) (parser.StatusInfo, error)
	JobHistory(ctx context.Context, workspace, item string) (string, error)
	Move(ctx context.Context, src, item, dst string) (string, error)
	Copy(ctx context.Context, src, item, dst string) (string, error)
}

// HistoryStore is the persisted command history
type HistoryStore interface {
	Entries() []history.Entry
	Clear() error
}

// ModelOptions wires the model to its collaborators
type ModelOptions struct {
	Backend Backend
	History HistoryStore
	Poller  *jobs.Poller
	Config  *config.Config
	Logger  *zap.Logger

	// Notices carries transient executor text such as retry notices
	Notices <-chan string

	// Reloads and ReloadErrors come from a config watcher
	Reloads      <-chan *config.Config
	ReloadErrors <-chan error

	// OnConfig applies a reloaded config outside the UI
	OnConfig func(*config.Config)
}

// concern identifies an independently debounced fetch
type concern int

const (
	concernWorkspaces concern = iota
	concernItems
	concernDestinations
	concernStatus
	concernCount
)

// Model is the Bubble Tea model around the state machine
type Model struct {
	// Core state
	st state.State

	// Collaborators
	backend      Backend
	history      HistoryStore
	poller       *jobs.Poller
	cfg          *config.Config
	logger       *zap.Logger
	notices      <-chan string
	reloads      <-chan *config.Config
	reloadErrors <-chan error
	onConfig     func(*config.Config)

	// Lifetime of background work; canceled on quit
	ctx  context.Context
	stop context.CancelFunc

	// Foreground operation; results with a stale seq are dropped
	seq      int
	cancelFg context.CancelFunc

	// Latest debounce tag per concern
	debounce [concernCount]int

	// Whether a poll tick or batch is outstanding
	polling bool

	// UI components
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	// UI dimensions
	width  int
	height int

	loginRequested bool
}

// NewModel creates a Model on the main menu
func NewModel(opts ModelOptions) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hist := opts.History
	if hist == nil {
		hist = history.NewStore("", cfg.HistorySize)
	}
	poller := opts.Poller
	if poller == nil && opts.Backend != nil {
		poller = jobs.NewPoller(func(ctx context.Context, job jobs.JobInfo) (parser.StatusInfo, error) {
			return opts.Backend.JobStatus(ctx, job.Workspace, job.Item, job.JobID)
		})
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle()

	ctx, stop := context.WithCancel(context.Background())

	SetTheme(cfg.Theme)

	return Model{
		st:           state.New(hist.Entries()),
		backend:      opts.Backend,
		history:      hist,
		poller:       poller,
		cfg:          cfg,
		logger:       logger,
		notices:      opts.Notices,
		reloads:      opts.Reloads,
		reloadErrors: opts.ReloadErrors,
		onConfig:     opts.OnConfig,
		ctx:          ctx,
		stop:         stop,
		viewport:     viewport.New(80, 20),
		spinner:      s,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.waitNoticeCmd(),
		m.waitReloadCmd(),
	)
}

// LoginRequested reports whether the user quit to run the login flow
func (m Model) LoginRequested() bool {
	return m.loginRequested
}

// Message types
type (
	resultMsg struct {
		seq   int
		apply func(state.State) state.State
	}
	debounceMsg struct {
		concern concern
		tag     int
		effect  state.Effect
	}
	pollTickMsg       time.Time
	jobsPolledMsg     []jobs.PollResult
	noticeMsg         string
	configReloadedMsg *config.Config
	historyClearedMsg struct{ error }
	errMsg            struct{ error }
)

// waitNoticeCmd waits for the next executor notice
func (m Model) waitNoticeCmd() tea.Cmd {
	if m.notices == nil {
		return nil
	}
	ch := m.notices
	return func() tea.Msg {
		text, ok := <-ch
		if !ok {
			return nil
		}
		return noticeMsg(text)
	}
}

// waitReloadCmd waits for the next config reload
func (m Model) waitReloadCmd() tea.Cmd {
	if m.reloads == nil {
		return nil
	}
	reloads, errs := m.reloads, m.reloadErrors
	return func() tea.Msg {
		select {
		case cfg, ok := <-reloads:
			if !ok {
				return nil
			}
			return configReloadedMsg(cfg)
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			return errMsg{err}
		}
	}
}

// pollTickCmd schedules the next background poll
func (m Model) pollTickCmd() tea.Cmd {
	if m.poller == nil {
		return nil
	}
	return tea.Tick(m.poller.Interval(m.st.Jobs.Len()), func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}

// pollJobsCmd queries every active job in one batch
func (m Model) pollJobsCmd() tea.Cmd {
	active := m.st.Jobs.Active()
	ctx, poller := m.ctx, m.poller
	return func() tea.Msg {
		return jobsPolledMsg(poller.Poll(ctx, active))
	}
}

// ensurePolling starts the poll loop once a job is tracked.
// The loop stops by itself when no active jobs remain.
func (m Model) ensurePolling() (Model, tea.Cmd) {
	if m.polling || m.poller == nil || m.st.Jobs.Len() == 0 || m.ctx.Err() != nil {
		return m, nil
	}
	m.polling = true
	return m, m.pollTickCmd()
}

// debounceCmd delays an effect; only the latest tag per concern fires
func (m Model) debounceCmd(c concern, eff state.Effect) (Model, tea.Cmd) {
	m.debounce[c]++
	tag := m.debounce[c]
	return m, tea.Tick(m.cfg.Debounce(), func(time.Time) tea.Msg {
		return debounceMsg{concern: c, tag: tag, effect: eff}
	})
}

// foregroundCmd runs an effect as the single foreground operation,
// canceling whatever was running before
func (m Model) foregroundCmd(eff state.Effect) (Model, tea.Cmd) {
	if m.backend == nil {
		m.st = m.st.ShowError("No Fabric backend configured")
		return m, nil
	}
	m = m.cancelForeground()
	m.seq++
	seq := m.seq

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelFg = cancel
	run := m.operation(eff)

	return m, func() tea.Msg {
		defer cancel()
		return resultMsg{seq: seq, apply: run(ctx)}
	}
}

// cancelForeground stops the running operation and invalidates its result
func (m Model) cancelForeground() Model {
	if m.cancelFg != nil {
		m.cancelFg()
		m.cancelFg = nil
	}
	m.seq++
	for c := range m.debounce {
		m.debounce[c]++
	}
	return m
}

// shutdown cancels all background work
func (m Model) shutdown() Model {
	m = m.cancelForeground()
	if m.stop != nil {
		m.stop()
	}
	return m
}

// clearHistoryCmd empties the persisted history
func (m Model) clearHistoryCmd() tea.Cmd {
	store := m.history
	return func() tea.Msg {
		return historyClearedMsg{store.Clear()}
	}
}

// updateViewportSize fits the output viewport to the window
func (m Model) updateViewportSize() Model {
	const chrome = 7 // header, breadcrumb, blank, back row, message, help
	m.viewport.Width = max(20, m.width-4)
	m.viewport.Height = max(3, m.height-chrome)
	m.help.Width = m.width
	return m
}

// syncViewport loads the output text of the current view
func (m Model) syncViewport() Model {
	if m.st.View != state.ViewOutput {
		return m
	}
	content := m.st.Output
	if m.st.Error != "" {
		content = ErrorStyle().Render("Error") + "\n\n" + DangerStyle().Render(wrapText(m.st.Error, m.viewport.Width))
	} else {
		content = wrapText(content, m.viewport.Width)
	}
	m.viewport.SetContent(content)
	return m
}
