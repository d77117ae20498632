package tui

import (
	"fmt"
	"strings"

	"fabric_tui/internal/parser"
	"fabric_tui/internal/state"

	"github.com/charmbracelet/lipgloss"
)

// View renders the UI based on the model state
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	// Header with title and job count
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderBreadcrumb())
	b.WriteString("\n\n")

	// Main content area based on view
	switch m.st.View {
	case state.ViewOutput:
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
		b.WriteString(m.renderBackRow())
	case state.ViewJobStatus:
		b.WriteString(m.renderStatusPanel())
		b.WriteString("\n")
		b.WriteString(m.renderBackRow())
	default:
		b.WriteString(m.renderRows())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the top header bar
func (m Model) renderHeader() string {
	title := TitleStyle().Render("Fabric CLI")

	var status string
	switch n := m.st.Jobs.Len(); n {
	case 0:
		status = StatusStyle().Render("No active jobs")
	case 1:
		status = StatusStyle().Render("1 active job")
	default:
		status = StatusStyle().Render(fmt.Sprintf("%d active jobs", n))
	}

	spacing := max(1, m.width-lipgloss.Width(title)-lipgloss.Width(status)-2)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		title,
		strings.Repeat(" ", spacing),
		status,
	)
}

// renderBreadcrumb shows where the user is
func (m Model) renderBreadcrumb() string {
	parts := []string{m.st.View.String()}
	if m.st.Workspace != "" && m.st.View != state.ViewMain && m.st.View != state.ViewWorkspaces {
		crumb := m.st.Workspace
		if m.st.HasItem() {
			crumb += " / " + m.st.Item.Name
		}
		parts = append(parts, crumb)
	}
	line := BreadcrumbStyle().Render(parts[0])
	if len(parts) > 1 {
		line += MutedStyle().Render("  " + truncate(parts[1], max(10, m.width-lipgloss.Width(parts[0])-4)))
	}
	return ColumnHeaderStyle(max(10, m.width-2)).Render(line)
}

// renderRows renders a menu with the cursor highlighted and the back entry last
func (m Model) renderRows() string {
	rows := m.st.Rows()
	cursor := m.st.Cursor()

	if len(rows) == 0 {
		empty := "Nothing here"
		switch m.st.View {
		case state.ViewJobMenu:
			empty = "No active jobs"
		case state.ViewCommandHistory:
			empty = "No commands run yet"
		case state.ViewWorkspaceItems:
			empty = "No items in this workspace"
		}
		return MutedStyle().Render("  "+empty) + "\n" + m.renderBackRow()
	}

	// Leave room for header, breadcrumb, back row and footer
	height := max(3, m.height-8)
	start, end := visibleRange(cursor, len(rows), height)

	var b strings.Builder
	if start > 0 {
		b.WriteString(MutedStyle().Render(fmt.Sprintf("  ↑ %d more", start)))
		b.WriteString("\n")
	}
	width := max(10, m.width-4)
	for i := start; i < end; i++ {
		label := truncate(rows[i], width)
		if i == cursor {
			b.WriteString(SelectedItemStyle().Render("> " + label))
		} else {
			b.WriteString("  " + m.rowStyle(i).Render(label))
		}
		b.WriteString("\n")
	}
	if end < len(rows) {
		b.WriteString(MutedStyle().Render(fmt.Sprintf("  ↓ %d more", len(rows)-end)))
		b.WriteString("\n")
	}
	b.WriteString(m.renderBackRow())
	return b.String()
}

// rowStyle colors a non-selected row
func (m Model) rowStyle(i int) lipgloss.Style {
	switch m.st.View {
	case state.ViewWorkspaceItems:
		if i < len(m.st.Items) {
			if group := m.cfg.GetItemGroup(m.st.Items[i].Name); group != nil {
				return lipgloss.NewStyle().Foreground(ColorByName(group.Color)).Bold(group.Bold)
			}
		}
	case state.ViewCommandHistory:
		if i < len(m.st.History) && !m.st.History[i].Success {
			return DangerStyle()
		}
	}
	return NormalItemStyle()
}

// renderBackRow renders the synthetic back entry
func (m Model) renderBackRow() string {
	label := m.st.BackLabel()
	if m.st.OnBack() {
		return SelectedItemStyle().Render("> " + label)
	}
	return "  " + BackItemStyle().Render(label)
}

// renderStatusPanel renders the status of one job
func (m Model) renderStatusPanel() string {
	job, info := m.st.StatusJob, m.st.Status

	field := func(label, value string) string {
		return LabelStyle().Render(padRight(label, 12)) + value + "\n"
	}

	var b strings.Builder
	b.WriteString(field("Item:", job.Item))
	b.WriteString(field("Workspace:", job.Workspace))
	b.WriteString(field("Job ID:", job.JobID))
	b.WriteString(field("Status:", StatusBadgeStyle(info.Status).Render(string(info.Status))))
	if info.JobType != "" {
		b.WriteString(field("Type:", info.JobType))
	}
	b.WriteString(field("Started:", parser.FormatDateTime(info.StartTime)))
	b.WriteString(field("Ended:", parser.FormatDateTime(info.EndTime)))
	if !job.StartTime.IsZero() {
		b.WriteString(field("Tracked:", formatTimeAgo(job.StartTime)))
	}

	if !info.Status.IsTerminal() {
		b.WriteString("\n")
		b.WriteString(MutedStyle().Render("Press r to refresh"))
		b.WriteString("\n")
	}
	return CodeBlockStyle(min(m.width-4, 80)).Render(strings.TrimRight(b.String(), "\n"))
}

// renderFooter renders the busy indicator or notice, then help
func (m Model) renderFooter() string {
	var line string
	switch {
	case m.st.Busy():
		line = m.spinner.View() + " " + m.st.Pending
	case m.st.Message != "":
		line = MessageStyle().Render(truncate(m.st.Message, max(10, m.width-2)))
	}

	help := HelpStyle().Render(m.help.View(viewKeys{keys: m.keys, view: m.st.View, busy: m.st.Busy()}))
	return line + "\n" + help
}

// visibleRange returns the window of rows to draw so the cursor stays visible
func visibleRange(cursor, total, height int) (start, end int) {
	if total <= height {
		return 0, total
	}
	start = max(0, min(cursor-height/2, total-height))
	return start, start + height
}
