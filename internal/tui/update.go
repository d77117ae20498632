package tui

import (
	"fabric_tui/internal/config"
	"fabric_tui/internal/state"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m = m.updateViewportSize().syncViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resultMsg:
		if msg.seq != m.seq {
			m.logger.Debug("dropping stale result", zap.Int("seq", msg.seq), zap.Int("current", m.seq))
			return m, nil
		}
		m.cancelFg = nil
		m = m.transition(msg.apply(m.st)).refreshHistory()
		return m.ensurePolling()

	case debounceMsg:
		if msg.tag != m.debounce[msg.concern] || !m.st.Busy() {
			return m, nil
		}
		return m.foregroundCmd(msg.effect)

	case pollTickMsg:
		if m.st.Jobs.Len() == 0 || m.ctx.Err() != nil {
			m.polling = false
			return m, nil
		}
		return m, m.pollJobsCmd()

	case jobsPolledMsg:
		for _, r := range msg {
			if r.Err != nil {
				m.logger.Warn("job poll failed", zap.String("item", r.Job.Key()), zap.Error(r.Err))
			}
		}
		m = m.transition(m.st.JobsPolled(msg)).refreshHistory()
		if m.st.Jobs.Len() == 0 || m.ctx.Err() != nil {
			m.polling = false
			return m, nil
		}
		return m, m.pollTickCmd()

	case noticeMsg:
		// Notices describe the foreground operation; late ones are dropped
		if m.st.Busy() {
			m.st = m.st.SetMessage(string(msg))
		}
		return m, m.waitNoticeCmd()

	case configReloadedMsg:
		return m.applyConfig((*config.Config)(msg)), m.waitReloadCmd()

	case historyClearedMsg:
		if msg.error != nil {
			m.logger.Error("clearing history failed", zap.Error(msg.error))
			m.st = m.st.SetMessage("Could not clear history: " + msg.error.Error())
		} else {
			m.st = m.st.SetMessage("History cleared")
		}
		return m.refreshHistory(), nil

	case errMsg:
		m.logger.Warn("background error", zap.Error(msg.error))
		m.st = m.st.SetMessage(msg.error.Error())
		return m, m.waitReloadCmd()
	}

	return m, nil
}

// handleKey routes a key press through the state machine
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m = m.shutdown()
		return m, tea.Quit
	}

	// The output view scrolls instead of moving a cursor
	if m.st.View == state.ViewOutput && !m.st.Busy() {
		switch {
		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down),
			key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	k, ok := m.keys.stateKey(msg)
	if !ok {
		return m, nil
	}

	next, eff := state.Reduce(m.st, k)
	m = m.transition(next)
	return m.runEffect(eff)
}

// transition installs a new state and refreshes derived UI
func (m Model) transition(next state.State) Model {
	entered := next.View != m.st.View
	m.st = next
	m = m.syncViewport()
	if entered {
		m.viewport.GotoTop()
	}
	return m
}

// refreshHistory picks up entries the executor recorded
func (m Model) refreshHistory() Model {
	if m.history != nil {
		m.st = m.st.HistoryChanged(m.history.Entries())
	}
	return m
}

// applyConfig switches to a reloaded config
func (m Model) applyConfig(cfg *config.Config) Model {
	if cfg == nil {
		return m
	}
	m.cfg = cfg
	SetTheme(cfg.Theme)
	m.spinner.Style = SpinnerStyle()
	if m.poller != nil {
		m.poller.ActiveInterval, m.poller.IdleInterval = cfg.PollIntervals()
	}
	if m.onConfig != nil {
		m.onConfig(cfg)
	}
	m.logger.Info("config reloaded", zap.String("theme", cfg.Theme), zap.Int("max_retries", cfg.MaxRetries))
	m.st = m.st.SetMessage("Config reloaded")
	return m.syncViewport()
}
