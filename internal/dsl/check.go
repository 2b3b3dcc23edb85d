package dsl

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError describes the first malformed line of a script.
type SyntaxError struct {
	Line   int
	Text   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Check validates a script against the grammar of the execution engine:
// known verbs, arity per verb, and a numeric wait argument. Blank lines and
// lines starting with "//" are ignored. Arguments are counted on whitespace
// boundaries, so selectors must not contain spaces.
func Check(script string) error {
	for i, raw := range strings.Split(script, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		parts := strings.Fields(line)
		fail := func(reason string) error {
			return &SyntaxError{Line: i + 1, Text: line, Reason: reason}
		}

		switch Verb(parts[0]) {
		case VerbClick, VerbHover:
			if len(parts) != 2 {
				return fail(fmt.Sprintf("command '%s' requires exactly one argument", parts[0]))
			}
		case VerbType, VerbUpload:
			if len(parts) < 3 {
				return fail(fmt.Sprintf("command '%s' requires at least two arguments", parts[0]))
			}
		case VerbWait:
			if len(parts) != 2 {
				return fail("command 'wait' requires exactly one argument")
			}
			if _, err := strconv.ParseFloat(parts[1], 64); err != nil {
				return fail("wait time must be a number")
			}
		default:
			return fail("invalid command")
		}
	}
	return nil
}
