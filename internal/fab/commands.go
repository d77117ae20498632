// Package fab knows the command surface of the Microsoft Fabric CLI and wraps
// it in a small service used by the terminal UI.
package fab

import (
	"strings"

	"fabric_tui/internal/executor"
)

// DefaultTool is the CLI binary name used when the config does not override it
const DefaultTool = "fab"

// Command is a single CLI invocation
type Command = executor.Command

// Builder produces Commands for a given tool binary
type Builder struct {
	Tool string
}

// NewBuilder returns a Builder for tool, defaulting to "fab"
func NewBuilder(tool string) Builder {
	if strings.TrimSpace(tool) == "" {
		tool = DefaultTool
	}
	return Builder{Tool: tool}
}

func (b Builder) cmd(args ...string) Command {
	return Command{Tool: b.Tool, Args: args}
}

// itemPath is the "<workspace>.Workspace/<item>" form used by job commands
func itemPath(workspace, item string) string {
	return workspace + ".Workspace/" + item
}

// absItemPath is the "/<workspace>.Workspace/<item>" form used by mv and cp
func absItemPath(workspace, item string) string {
	return "/" + itemPath(workspace, item)
}

// ListWorkspaces lists every workspace visible to the signed-in user
func (b Builder) ListWorkspaces() Command { return b.cmd("ls") }

// ListItems lists the items of one workspace
func (b Builder) ListItems(workspace string) Command {
	return b.cmd("ls", workspace+".Workspace")
}

// StartJob starts an item run in the background and returns immediately
func (b Builder) StartJob(workspace, item string) Command {
	return b.cmd("job", "start", itemPath(workspace, item))
}

// RunJob runs an item and blocks until the job finishes
func (b Builder) RunJob(workspace, item string) Command {
	return b.cmd("job", "run", itemPath(workspace, item))
}

// JobStatus queries one job instance by ID
func (b Builder) JobStatus(workspace, item, jobID string) Command {
	return b.cmd("job", "run-status", itemPath(workspace, item), "--id", jobID)
}

// JobHistory lists past runs of an item
func (b Builder) JobHistory(workspace, item string) Command {
	return b.cmd("job", "run-list", itemPath(workspace, item))
}

// Move moves an item to another workspace, keeping its name
func (b Builder) Move(srcWorkspace, item, dstWorkspace string) Command {
	return b.cmd("mv", absItemPath(srcWorkspace, item), absItemPath(dstWorkspace, item), "-f")
}

// Copy copies an item to another workspace, keeping its name
func (b Builder) Copy(srcWorkspace, item, dstWorkspace string) Command {
	return b.cmd("cp", absItemPath(srcWorkspace, item), absItemPath(dstWorkspace, item), "-f")
}

// Login starts the interactive authentication flow
func (b Builder) Login() Command { return b.cmd("auth", "login") }
