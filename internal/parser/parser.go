// Package parser turns the text printed by the fab CLI into typed records.
//
// Every function here is pure and total: malformed input degrades to an empty
// value or a sentinel ("N/A", StatusUnknown) instead of an error.
package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"
)

// DefaultFilters are the line prefixes dropped by ParseLines when no filters are given
var DefaultFilters = []string{
	"Listing", // "Listing workspaces..." banner
	"ID",      // column header of tabular output
	"─", "━", "═", "┌", "└", "├", "╔", "╚", "+-",
}

var (
	guidRe      = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	jobIDRe     = regexp.MustCompile(`(?i)job instance '([0-9a-f-]+)' created`)
	statusRe    = regexp.MustCompile(`(?i)\b(NotStarted|InProgress|Completed|Succeeded|Failed|Cancelled|Deduped)\b`)
	jobTypeRe   = regexp.MustCompile(`(?i)\b(RunNotebook|Pipeline|sparkjob|DefaultJob)\b`)
	timestampRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?`)
	offsetRe    = regexp.MustCompile(`(?:Z|[+-]\d{2}:?\d{2})$`)
	compactOffs = regexp.MustCompile(`([+-]\d{2})(\d{2})$`)
)

// tableBorders are stripped from a status row before keyword matching
var tableBorders = strings.NewReplacer("│", " ", "┃", " ", "║", " ", "|", " ")

// statusByKeyword maps lower-cased keywords onto the JobStatus vocabulary
var statusByKeyword = map[string]JobStatus{
	"notstarted": StatusNotStarted,
	"inprogress": StatusInProgress,
	"completed":  StatusCompleted,
	"succeeded":  StatusSucceeded,
	"failed":     StatusFailed,
	"cancelled":  StatusCancelled,
	"deduped":    StatusDeduped,
}

// logger receives diagnostics for degraded parses
var logger = zap.NewNop()

// SetLogger sets the logger used for parse diagnostics
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// CleanOutput strips ANSI escape sequences, normalizes line endings and trims
func CleanOutput(raw string) string {
	s := ansi.Strip(raw)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}

// ParseLines splits output into trimmed, non-empty lines, dropping lines that
// start with any of filters (DefaultFilters when none are given)
func ParseLines(output string, filters ...string) []string {
	if len(filters) == 0 {
		filters = DefaultFilters
	}

	var lines []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || hasAnyPrefix(line, filters) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// hasAnyPrefix reports whether s starts with one of prefixes
func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// ParseWorkspaces extracts workspace names, dropping the ".Workspace" style suffix
func ParseWorkspaces(output string) []string {
	var names []string
	for _, line := range ParseLines(output) {
		name, _, _ := strings.Cut(line, ".")
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ParseWorkspaceItems classifies each listed item by its suffix
func ParseWorkspaceItems(output string) []WorkspaceItem {
	lines := ParseLines(output)
	items := make([]WorkspaceItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, NewWorkspaceItem(line))
	}
	return items
}

// ExtractJobID returns the ID from a "Job instance '<id>' created" confirmation,
// or "" if the phrase is absent. Callers must treat "" as a failed start.
func ExtractJobID(output string) string {
	m := jobIDRe.FindStringSubmatch(output)
	if m == nil {
		logger.Debug("job confirmation phrase not found", zap.Int("output_len", len(output)))
		return ""
	}
	return m[1]
}

// ExtractGUID returns the first 8-4-4-4-12 GUID anywhere in text, or ""
func ExtractGUID(text string) string {
	return guidRe.FindString(text)
}

// ParseJobStatus reads the first table row containing a GUID.
// Output without such a row yields StatusUnknown.
func ParseJobStatus(output string) StatusInfo {
	info := StatusInfo{Status: StatusUnknown}

	for _, line := range strings.Split(output, "\n") {
		if !guidRe.MatchString(line) {
			continue
		}
		row := tableBorders.Replace(line)

		if m := statusRe.FindString(row); m != "" {
			info.Status = statusByKeyword[strings.ToLower(m)]
		}
		if m := jobTypeRe.FindString(row); m != "" {
			info.JobType = m
		}

		stamps := timestampRe.FindAllString(row, -1)
		if len(stamps) > 0 {
			info.StartTime = normalizeTimestamp(stamps[0])
			for _, s := range stamps[1:] {
				if s := normalizeTimestamp(s); s != info.StartTime {
					info.EndTime = s
					break
				}
			}
		}
		break
	}

	if info.EndTime == "None" || info.EndTime == info.StartTime {
		info.EndTime = ""
	}
	if info.Status == StatusUnknown {
		logger.Debug("no status row in job status output")
	}
	return info
}

// normalizeTimestamp makes a scraped timestamp parseable as RFC 3339,
// assuming UTC when no zone is printed
func normalizeTimestamp(s string) string {
	s = strings.Replace(s, " ", "T", 1)
	if !offsetRe.MatchString(s) {
		return s + "Z"
	}
	return compactOffs.ReplaceAllString(s, "$1:$2")
}

// dateTimeLayouts are tried in order by FormatDateTime
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// FormatDateTime renders an ISO-8601 timestamp in the local zone.
// Empty or "None" yields "N/A"; unparseable input is returned unchanged.
func FormatDateTime(iso string) string {
	if iso == "" || iso == "None" {
		return "N/A"
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Local().Format("2006-01-02 15:04:05 MST")
		}
	}
	logger.Debug("unparseable timestamp", zap.String("value", iso))
	return iso
}
