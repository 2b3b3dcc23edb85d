// Package analyzer builds an inventory of the form elements found in captured
// page markup. It is a best-effort scanner, not a validating parser: markup is
// streamed through an HTML tokenizer and each form control is reduced to a
// list of candidate CSS selectors.
package analyzer

import (
	"strings"

	"golang.org/x/net/html"
)

// Element kinds used as inventory keys. Input elements are filed under their
// (lower-cased) type attribute, so kinds outside this list also occur.
const (
	KindText     = "text"
	KindEmail    = "email"
	KindPassword = "password"
	KindTel      = "tel"
	KindFile     = "file"
	KindCheckbox = "checkbox"
	KindSubmit   = "submit"
	KindLogin    = "login"
	KindAccept   = "accept"
	KindButton   = "button"
	KindSelect   = "select"
	KindTextarea = "textarea"
)

// submitFallbacks are tried, in order, when no element was classified as a
// submit control.
var submitFallbacks = []string{
	`[type="submit"]`,
	`button[type="submit"]`,
	"#submit",
	"#apply",
	"#send",
	"#apply-submit",
	"#login",
}

// consentKeywords are matched against inventory kinds to find a cookie banner.
var consentKeywords = []string{"accept", "cookie", "consent", "agree", "ok", "got it"}

// consentFallbacks are looked up verbatim in the markup.
var consentFallbacks = []struct{ needle, selector string }{
	{`id="accept-cookies"`, "#accept-cookies"},
	{`class="cookie-accept`, ".cookie-accept"},
}

// Role keywords for buttons, checked in this order against lower-cased text.
var buttonRoles = []struct {
	kind     string
	keywords []string
}{
	{KindSubmit, []string{"submit", "apply", "send"}},
	{KindLogin, []string{"login", "log in", "sign in"}},
	{KindAccept, []string{"accept", "agree"}},
}

// Analyzer holds the inventory of one page. It is immutable after New and
// safe for concurrent reads.
type Analyzer struct {
	html    string
	buckets map[string][]string
	// groups keeps the candidates of each element together, per kind.
	groups map[string][][]string
	order  []string
}

// New scans the markup once, in document order.
func New(src string) *Analyzer {
	a := &Analyzer{
		html:    src,
		buckets: make(map[string][]string),
		groups:  make(map[string][][]string),
	}
	a.scan()
	return a
}

// pendingButton is a button whose text content is still being collected.
type pendingButton struct {
	attrs map[string]string
	text  strings.Builder
	// submitDefault files the element under submit when no role keyword matches.
	submitDefault bool
}

func (a *Analyzer) scan() {
	z := html.NewTokenizer(strings.NewReader(a.html))
	var pending *pendingButton

	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; either way the scan is over.
			a.flushButton(pending)
			return

		case html.TextToken:
			if pending != nil {
				pending.text.Write(z.Text())
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			if !isControl(tag) {
				continue
			}
			a.flushButton(pending)
			pending = nil

			attrs := readAttrs(z, hasAttr)
			switch tag {
			case "input":
				pending = a.addInput(attrs)
			case "button":
				pending = &pendingButton{attrs: attrs, submitDefault: strings.EqualFold(attrs["type"], "submit")}
			case "select":
				a.add(KindSelect, selectorsFor("select", attrs)...)
			case "textarea":
				a.add(KindTextarea, selectorsFor("textarea", attrs)...)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if pending != nil && string(name) == "button" {
				a.flushButton(pending)
				pending = nil
			}
		}
	}
}

func isControl(tag string) bool {
	switch tag {
	case "input", "button", "select", "textarea", "form":
		return true
	}
	return false
}

// readAttrs collects attributes, keeping the first occurrence of each key.
func readAttrs(z *html.Tokenizer, more bool) map[string]string {
	attrs := make(map[string]string)
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		k := string(key)
		if _, seen := attrs[k]; !seen {
			attrs[k] = strings.TrimSpace(string(val))
		}
	}
	return attrs
}

// addInput files an input under its type. Submit-like inputs are returned as a
// pending button so they get role classification from their value.
func (a *Analyzer) addInput(attrs map[string]string) *pendingButton {
	kind := strings.ToLower(attrs["type"])
	if kind == "" {
		kind = KindText
	}
	switch kind {
	case "submit", "button", "image":
		p := &pendingButton{attrs: attrs, submitDefault: kind == "submit"}
		p.text.WriteString(attrs["value"])
		return p
	case "hidden":
		return nil
	}
	a.add(kind, selectorsFor("input", attrs)...)
	return nil
}

func (a *Analyzer) flushButton(p *pendingButton) {
	if p == nil {
		return
	}
	kind := classifyButton(p.text.String())
	if kind == KindButton && p.submitDefault {
		kind = KindSubmit
	}
	a.add(kind, selectorsFor("button", p.attrs)...)
}

func classifyButton(text string) string {
	text = strings.ToLower(text)
	for _, role := range buttonRoles {
		for _, kw := range role.keywords {
			if strings.Contains(text, kw) {
				return role.kind
			}
		}
	}
	return KindButton
}

// selectorsFor returns #id, [name="..."] and .class candidates, in that order.
// An element with none of them falls back to a tag and type predicate.
func selectorsFor(tag string, attrs map[string]string) []string {
	var out []string
	if id := attrs["id"]; id != "" && !strings.ContainsAny(id, " \t\"") {
		out = append(out, "#"+id)
	}
	if name := attrs["name"]; name != "" && !strings.ContainsAny(name, " \t\"") {
		out = append(out, `[name="`+name+`"]`)
	}
	if classes := strings.Fields(attrs["class"]); len(classes) > 0 {
		out = append(out, "."+classes[0])
	}
	if len(out) == 0 {
		if typ := strings.ToLower(attrs["type"]); typ != "" {
			out = append(out, tag+`[type="`+typ+`"]`)
		}
	}
	return out
}

func (a *Analyzer) add(kind string, selectors ...string) {
	if len(selectors) == 0 {
		return
	}
	if _, ok := a.buckets[kind]; !ok {
		a.order = append(a.order, kind)
	}
	a.buckets[kind] = append(a.buckets[kind], selectors...)
	a.groups[kind] = append(a.groups[kind], selectors)
}

// -- Queries --

// ElementsByType returns the selectors filed under kind, or nil.
func (a *Analyzer) ElementsByType(kind string) []string {
	return a.buckets[kind]
}

// Elements returns one entry per element filed under kind, in document order.
// Each entry lists that element's candidate selectors, preferred first.
func (a *Analyzer) Elements(kind string) [][]string {
	return a.groups[kind]
}

// First returns the first selector filed under kind.
func (a *Analyzer) First(kind string) (string, bool) {
	if s := a.buckets[kind]; len(s) > 0 {
		return s[0], true
	}
	return "", false
}

// Kinds returns the inventory keys in the order they were first seen.
func (a *Analyzer) Kinds() []string {
	return append([]string(nil), a.order...)
}

// Inventory returns a copy of the full element inventory.
func (a *Analyzer) Inventory() map[string][]string {
	out := make(map[string][]string, len(a.buckets))
	for k, v := range a.buckets {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// HTML returns the markup the analyzer was built from.
func (a *Analyzer) HTML() string { return a.html }

// IsLoginForm reports whether the page has a password field and something to
// put a user name or email into.
func (a *Analyzer) IsLoginForm() bool {
	if len(a.buckets[KindPassword]) == 0 {
		return false
	}
	return len(a.buckets[KindText]) > 0 || len(a.buckets[KindEmail]) > 0
}

// FindSubmitButton returns the first classified submit control, or else the
// first common submit selector present in the markup.
func (a *Analyzer) FindSubmitButton() (string, bool) {
	if s, ok := a.First(KindSubmit); ok {
		return s, true
	}
	for _, sel := range submitFallbacks {
		if PresentIn(a.html, sel) {
			return sel, true
		}
	}
	return "", false
}

// FindCookieConsent returns a selector for a cookie or consent banner button.
func (a *Analyzer) FindCookieConsent() (string, bool) {
	for _, kind := range a.order {
		for _, kw := range consentKeywords {
			if strings.Contains(kind, kw) {
				return a.buckets[kind][0], true
			}
		}
	}
	for _, fb := range consentFallbacks {
		if strings.Contains(a.html, fb.needle) {
			return fb.selector, true
		}
	}
	return "", false
}

// PresentIn reports whether the element a simple selector targets appears in
// the markup, using plain substring tests: "#x" looks for id="x", and
// `[attr="v"]` (optionally tag-prefixed) looks for attr="v".
func PresentIn(src, selector string) bool {
	switch {
	case strings.HasPrefix(selector, "#"):
		return strings.Contains(src, `id="`+selector[1:]+`"`)
	case strings.HasSuffix(selector, "]"):
		open := strings.Index(selector, "[")
		if open < 0 {
			break
		}
		return strings.Contains(src, selector[open+1:len(selector)-1])
	case strings.HasPrefix(selector, "."):
		return strings.Contains(src, `class="`+selector[1:])
	}
	return strings.Contains(src, selector)
}

// Identifier returns the id, name or class that a generated selector targets,
// lower-cased, for keyword matching.
func Identifier(selector string) string {
	s := selector
	switch {
	case strings.HasPrefix(s, "#"), strings.HasPrefix(s, "."):
		s = s[1:]
	case strings.HasSuffix(s, `"]`):
		if i := strings.Index(s, `="`); i >= 0 {
			s = s[i+2 : len(s)-2]
		}
	}
	return strings.ToLower(s)
}
