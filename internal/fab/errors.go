package fab

import (
	"errors"
	"regexp"
	"strings"

	"fabric_tui/internal/executor"
)

var (
	// ErrNoJobID is returned when a job start reports success without a job instance ID
	ErrNoJobID = errors.New("failed to extract job ID")

	// ErrInvalidJobID is returned for job IDs that are not GUIDs
	ErrInvalidJobID = errors.New("invalid job ID")

	// ErrNotJobItem is returned for items that cannot run jobs
	ErrNotJobItem = errors.New("item does not support job actions")
)

// CommandError is a failed CLI invocation
type CommandError struct {
	Result executor.Result
}

func (e *CommandError) Error() string {
	return e.Result.Message()
}

// phraseRule maps known platform phrases to a friendlier message
type phraseRule struct {
	pattern *regexp.Regexp
	message string
}

// phrases matches any of the alternatives as whole words, ignoring case
func phrases(alts ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
}

// rules are matched in order against the error text
var rules = []phraseRule{
	{
		pattern: phrases(`ItemDisplayNameNotAvailableYet`, `not available yet`, `is not available for use`),
		message: "The item name is still reserved after a recent move. Fabric releases it after a few minutes; press esc and try again later.",
	},
	{
		pattern: phrases(`Unauthorized`, `token ?expired`, `not logged in`, `authentication (?:failed|required|expired)`, `az login`, `fab auth login`),
		message: "Your Fabric session has expired or you are not logged in. Choose Login from the main menu.",
	},
	{
		pattern: phrases(`(?:Item|Workspace)?NotFound`, `not found`, `could not be found`, `does not exist`),
		message: "The workspace or item was not found. Return to the workspace list and press r to refresh it.",
	},
	{
		pattern: phrases(`Forbidden`, `InsufficientPrivileges`, `permission denied`, `(?:do|does) not have permission`),
		message: "You do not have permission for this operation in the selected workspace.",
	},
	{
		pattern: phrases(`TooManyRequests`, `too many requests`, `rate limit(?:ed)?`, `429`),
		message: "Fabric is throttling requests. Wait a moment, then press esc and run the action again.",
	},
}

// FriendlyError returns the text to show for a failed result.
// Known platform phrases become an actionable message; anything else is
// shown as reported by the CLI.
func FriendlyError(r executor.Result) string {
	switch r.Kind {
	case executor.KindTimeout:
		return r.Error + ". The CLI may be waiting on the network; press esc and try again."
	case executor.KindSpawn:
		return r.Error + ". Check that the fab CLI is installed and on your PATH."
	case executor.KindCanceled:
		return "Command canceled"
	}

	text := r.Message()
	for _, rule := range rules {
		if rule.pattern.MatchString(text) {
			return rule.message
		}
	}
	if strings.TrimSpace(text) == "" {
		return "Command failed with no output"
	}
	return text
}

// ErrorText renders any service error for display
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return FriendlyError(cmdErr.Result)
	}
	return err.Error()
}
