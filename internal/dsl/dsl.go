// Package dsl models the automation command language consumed by the script
// execution engine: one command per line, a verb followed by quoted arguments.
package dsl

import (
	"strconv"
	"strings"
)

// Verb is one of the five commands understood by the execution engine.
type Verb string

const (
	VerbClick  Verb = "click"
	VerbType   Verb = "type"
	VerbUpload Verb = "upload"
	VerbHover  Verb = "hover"
	VerbWait   Verb = "wait"
)

// Verbs lists every valid verb in a stable order.
var Verbs = []Verb{VerbClick, VerbType, VerbUpload, VerbHover, VerbWait}

// Command is a single rendered line of a script. Which fields are meaningful
// depends on Verb: Selector for click/hover, Selector and Value for
// type/upload, Seconds for wait.
type Command struct {
	Verb     Verb
	Selector string
	Value    string
	Seconds  float64
}

func Click(selector string) Command { return Command{Verb: VerbClick, Selector: selector} }
func Hover(selector string) Command { return Command{Verb: VerbHover, Selector: selector} }
func Wait(seconds float64) Command  { return Command{Verb: VerbWait, Seconds: seconds} }

func Type(selector, value string) Command {
	return Command{Verb: VerbType, Selector: selector, Value: value}
}

func Upload(selector, path string) Command {
	return Command{Verb: VerbUpload, Selector: selector, Value: path}
}

// String renders the command as `verb "selector" ["value"]`. Values are
// escaped; selectors are emitted as-is.
func (c Command) String() string {
	switch c.Verb {
	case VerbWait:
		return string(VerbWait) + " " + strconv.FormatFloat(c.Seconds, 'f', -1, 64)
	case VerbType, VerbUpload:
		return string(c.Verb) + ` "` + c.Selector + `" "` + Escape(c.Value) + `"`
	default:
		return string(c.Verb) + ` "` + c.Selector + `"`
	}
}

// Script is an ordered command sequence.
type Script []Command

// String joins the rendered commands with newlines.
func (s Script) String() string {
	lines := make([]string, len(s))
	for i, c := range s {
		lines[i] = c.String()
	}
	return strings.Join(lines, "\n")
}

// Escape doubles backslashes and escapes double quotes so the value survives
// being wrapped in quotes.
func Escape(value string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value)
}

// minCacheableLength is the shortest script, after trimming, that is admitted to the cache.
const minCacheableLength = 5

// IsCacheable is the admission gate applied before a script is stored. It is
// deliberately shallow and is not a grammar check; see Check for that.
func IsCacheable(script string) bool {
	return len(strings.TrimSpace(script)) > minCacheableLength
}

// FilterResponse keeps only the lines of free-form text that start with a
// verb, dropping commentary, comments and blank lines.
func FilterResponse(raw string) string {
	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}
		if startsWithVerb(line) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func startsWithVerb(line string) bool {
	for _, v := range Verbs {
		if strings.HasPrefix(line, string(v)+" ") {
			return true
		}
	}
	return false
}
