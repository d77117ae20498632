package parser

import "strings"

// ItemType classifies a workspace item by its name suffix
type ItemType int

const (
	ItemOther              ItemType = iota // Anything without a runnable suffix
	ItemNotebook                           // .Notebook
	ItemDataPipeline                       // .DataPipeline
	ItemSparkJobDefinition                 // .SparkJobDefinition
)

// itemSuffixes maps the runnable item types to the suffix the CLI prints
var itemSuffixes = map[ItemType]string{
	ItemNotebook:           ".Notebook",
	ItemDataPipeline:       ".DataPipeline",
	ItemSparkJobDefinition: ".SparkJobDefinition",
}

// String returns a short label for the item type
func (t ItemType) String() string {
	switch t {
	case ItemNotebook:
		return "Notebook"
	case ItemDataPipeline:
		return "DataPipeline"
	case ItemSparkJobDefinition:
		return "SparkJobDefinition"
	default:
		return "Other"
	}
}

// SupportsJobActions reports whether items of this type can be run as jobs
func (t ItemType) SupportsJobActions() bool {
	return t != ItemOther
}

// WorkspaceItem is a single entry from a workspace listing
type WorkspaceItem struct {
	Name string   // Full name including the type suffix (e.g. "Sales.Notebook")
	Type ItemType // Derived from Name once at parse time
}

// NewWorkspaceItem classifies name and returns the item
func NewWorkspaceItem(name string) WorkspaceItem {
	return WorkspaceItem{Name: name, Type: ClassifyItem(name)}
}

func (i WorkspaceItem) IsNotebook() bool           { return i.Type == ItemNotebook }
func (i WorkspaceItem) IsDataPipeline() bool       { return i.Type == ItemDataPipeline }
func (i WorkspaceItem) IsSparkJobDefinition() bool { return i.Type == ItemSparkJobDefinition }
func (i WorkspaceItem) SupportsJobActions() bool   { return i.Type.SupportsJobActions() }

// ClassifyItem derives the item type from a name suffix
func ClassifyItem(name string) ItemType {
	for _, t := range []ItemType{ItemNotebook, ItemDataPipeline, ItemSparkJobDefinition} {
		if strings.HasSuffix(name, itemSuffixes[t]) {
			return t
		}
	}
	return ItemOther
}

// IsNotebook reports whether a raw item name is a notebook
func IsNotebook(name string) bool { return ClassifyItem(name) == ItemNotebook }

// IsDataPipeline reports whether a raw item name is a data pipeline
func IsDataPipeline(name string) bool { return ClassifyItem(name) == ItemDataPipeline }

// IsSparkJobDefinition reports whether a raw item name is a Spark job definition
func IsSparkJobDefinition(name string) bool { return ClassifyItem(name) == ItemSparkJobDefinition }

// SupportsJobActions reports whether a raw item name can be run as a job
func SupportsJobActions(name string) bool { return ClassifyItem(name).SupportsJobActions() }

// JobStatus is the status keyword reported by the job status table
type JobStatus string

const (
	StatusNotStarted JobStatus = "NotStarted"
	StatusInProgress JobStatus = "InProgress"
	StatusCompleted  JobStatus = "Completed"
	StatusSucceeded  JobStatus = "Succeeded"
	StatusFailed     JobStatus = "Failed"
	StatusCancelled  JobStatus = "Cancelled"
	StatusDeduped    JobStatus = "Deduped"
	StatusUnknown    JobStatus = "Unknown"
)

// IsTerminal reports whether polling a job in this status is pointless
func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusSucceeded, StatusFailed, StatusCancelled, StatusDeduped:
		return true
	default:
		return false
	}
}

// StatusInfo is the parsed data row of a job status table.
// Empty time and type fields mean the value was absent.
type StatusInfo struct {
	Status    JobStatus
	StartTime string // ISO-8601, always zoned
	EndTime   string // ISO-8601, always zoned; empty while running
	JobType   string
}
