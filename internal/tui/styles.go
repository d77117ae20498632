package tui

import (
	"strings"
	"sync"

	"fabric_tui/internal/parser"

	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
)

// theme is the active catppuccin flavor
var (
	themeMu sync.RWMutex
	theme   catppuccin.Flavor = catppuccin.Mocha
)

// SetTheme switches the palette; unknown names fall back to mocha
func SetTheme(name string) {
	themeMu.Lock()
	defer themeMu.Unlock()
	theme = flavorByName(name)
}

func flavorByName(name string) catppuccin.Flavor {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "latte":
		return catppuccin.Latte
	case "frappe":
		return catppuccin.Frappe
	case "macchiato":
		return catppuccin.Macchiato
	default:
		return catppuccin.Mocha
	}
}

func flavor() catppuccin.Flavor {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return theme
}

func hex(c catppuccin.Color) lipgloss.Color {
	return lipgloss.Color(c.Hex)
}

// ColorByName resolves a catppuccin color name from config
func ColorByName(name string) lipgloss.Color {
	f := flavor()
	switch strings.ToLower(name) {
	case "rosewater":
		return hex(f.Rosewater())
	case "flamingo":
		return hex(f.Flamingo())
	case "pink":
		return hex(f.Pink())
	case "mauve":
		return hex(f.Mauve())
	case "red":
		return hex(f.Red())
	case "maroon":
		return hex(f.Maroon())
	case "peach":
		return hex(f.Peach())
	case "yellow":
		return hex(f.Yellow())
	case "green":
		return hex(f.Green())
	case "teal":
		return hex(f.Teal())
	case "sky":
		return hex(f.Sky())
	case "sapphire":
		return hex(f.Sapphire())
	case "blue":
		return hex(f.Blue())
	case "lavender":
		return hex(f.Lavender())
	case "subtext1":
		return hex(f.Subtext1())
	case "subtext0":
		return hex(f.Subtext0())
	case "overlay2":
		return hex(f.Overlay2())
	case "overlay1":
		return hex(f.Overlay1())
	case "overlay0":
		return hex(f.Overlay0())
	default:
		return hex(f.Text())
	}
}

// Header styles

func TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(hex(flavor().Mauve()))
}

func StatusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(flavor().Overlay1()))
}

func BreadcrumbStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(flavor().Sapphire()))
}

func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(flavor().Red())).Bold(true)
}

// List styles

func SelectedItemStyle() lipgloss.Style {
	f := flavor()
	return lipgloss.NewStyle().
		Background(hex(f.Surface1())).
		Foreground(hex(f.Text())).
		Bold(true)
}

func NormalItemStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(flavor().Text()))
}

func BackItemStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(flavor().Overlay1())).Italic(true)
}

// ColumnHeaderStyle underlines a header row across width
func ColumnHeaderStyle(width int) lipgloss.Style {
	f := flavor()
	return lipgloss.NewStyle().
		Foreground(hex(f.Subtext0())).
		Bold(true).
		Width(width).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(hex(f.Surface2()))
}

// Detail styles

func LabelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(flavor().Subtext1())).Bold(true)
}

func MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(flavor().Overlay1()))
}

func DangerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(flavor().Red()))
}

func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(flavor().Green()))
}

func CodeBlockStyle(width int) lipgloss.Style {
	f := flavor()
	return lipgloss.NewStyle().
		Foreground(hex(f.Text())).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(hex(f.Surface2())).
		Padding(0, 1).
		Width(max(10, width))
}

// Footer styles

func HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(flavor().Overlay1()))
}

func MessageStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(flavor().Yellow()))
}

func SpinnerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(flavor().Mauve()))
}

// StatusBadgeStyle colors a job status
func StatusBadgeStyle(status parser.JobStatus) lipgloss.Style {
	f := flavor()
	var c catppuccin.Color
	switch status {
	case parser.StatusCompleted, parser.StatusSucceeded:
		c = f.Green()
	case parser.StatusFailed:
		c = f.Red()
	case parser.StatusCancelled, parser.StatusDeduped:
		c = f.Peach()
	case parser.StatusInProgress:
		c = f.Blue()
	case parser.StatusNotStarted:
		c = f.Yellow()
	default:
		c = f.Overlay1()
	}
	return lipgloss.NewStyle().
		Foreground(hex(f.Base())).
		Background(hex(c)).
		Bold(true).
		Padding(0, 1)
}
