package executor

import "strings"

// Command is a single CLI invocation. Args are passed to the process as-is,
// never through a shell.
type Command struct {
	Tool string
	Args []string
}

// String renders the command as it would be typed into a shell.
// It is the identity used for history entries and cache keys.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Tool)
	for _, a := range c.Args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

// shellEscaper escapes characters that are special inside double quotes
var shellEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")

// quoteArg double-quotes an argument containing whitespace or shell metacharacters
func quoteArg(s string) string {
	if s == "" {
		return `""`
	}
	if !strings.ContainsAny(s, " \t\"'\\$`;&|<>()*?") {
		return s
	}
	return `"` + shellEscaper.Replace(s) + `"`
}
