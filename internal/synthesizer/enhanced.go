package synthesizer

import (
	"context"
	"strings"

	"github.com/xkilldash9x/formscript/api/schemas"
	"github.com/xkilldash9x/formscript/internal/analyzer"
	"github.com/xkilldash9x/formscript/internal/dsl"
)

// navigationWait is the pause that opens every enhanced script.
const navigationWait = 2

// fieldRule maps a profile field onto inventory selectors. A selector matches
// when it sits in one of kinds and its identifier contains one of hints but
// none of excludes.
type fieldRule struct {
	field    string
	kinds    []string
	hints    []string
	excludes []string
}

// fillRules are applied in this order.
var fillRules = []fieldRule{
	{
		field:    schemas.FieldFullName,
		kinds:    []string{analyzer.KindText},
		hints:    []string{"fullname", "full-name", "full_name", "name"},
		excludes: []string{"user", "company", "file"},
	},
	{
		field: schemas.FieldEmail,
		kinds: []string{analyzer.KindEmail, analyzer.KindText},
		hints: []string{"email", "mail"},
	},
	{
		field: schemas.FieldPhone,
		kinds: []string{analyzer.KindTel, analyzer.KindText},
		hints: []string{"phone", "tel", "mobile"},
	},
	{
		field: schemas.FieldUsername,
		kinds: []string{analyzer.KindText, analyzer.KindEmail},
		hints: []string{"username", "user", "login"},
	},
}

// consentHints select the checkboxes to tick.
var consentHints = []string{"terms", "agree", "consent", "gdpr"}

// EnhancedStrategy composes a script from the element inventory in a fixed
// order: navigation wait, login, field filling, upload, checkboxes, submit.
type EnhancedStrategy struct{}

func (EnhancedStrategy) Name() string { return "enhanced" }

func (EnhancedStrategy) Generate(_ context.Context, in Input) (string, error) {
	a := analyzer.New(in.HTML)
	b := newScriptBuilder()

	b.add(dsl.Wait(navigationWait))

	loginClick := b.login(a, in.Profile)
	b.fill(a, in.Profile)
	b.upload(a, in.Profile)
	b.checkboxes(a)

	if sel, ok := a.FindSubmitButton(); ok && sel != loginClick {
		b.add(dsl.Click(sel))
	}

	// The opening wait on its own is not a useful script.
	if len(b.script) == 1 {
		return "", nil
	}
	return b.script.String(), nil
}

type scriptBuilder struct {
	script dsl.Script
	// typed holds the preferred selector of every element already filled.
	typed map[string]bool
}

func newScriptBuilder() *scriptBuilder {
	return &scriptBuilder{typed: make(map[string]bool)}
}

func (b *scriptBuilder) add(cmds ...dsl.Command) {
	b.script = append(b.script, cmds...)
}

func (b *scriptBuilder) typeInto(selector, value string) {
	b.add(dsl.Type(selector, value))
	b.typed[selector] = true
}

// login emits the login sequence when the page has both a user and a password
// field and the profile can fill them. It returns the selector of the login
// button it clicked, if any.
func (b *scriptBuilder) login(a *analyzer.Analyzer, p schemas.UserProfile) string {
	passSel, ok := a.First(analyzer.KindPassword)
	if !ok {
		return ""
	}
	userSel, ok := a.First(analyzer.KindEmail)
	if !ok {
		if userSel, ok = a.First(analyzer.KindText); !ok {
			return ""
		}
	}

	user := p.Email
	if user == "" {
		user = p.Username
	}
	if user == "" || p.Password == "" {
		return ""
	}

	b.typeInto(userSel, user)
	b.typeInto(passSel, p.Password)

	if btn, ok := a.First(analyzer.KindLogin); ok {
		b.add(dsl.Click(btn))
		return btn
	}
	return ""
}

func (b *scriptBuilder) fill(a *analyzer.Analyzer, p schemas.UserProfile) {
	for _, rule := range fillRules {
		value := p.Get(rule.field)
		if value == "" {
			continue
		}
		if sel, ok := b.match(a, rule); ok {
			b.typeInto(sel, value)
		}
	}
}

// match returns the preferred selector of the first unfilled element whose
// candidates satisfy rule.
func (b *scriptBuilder) match(a *analyzer.Analyzer, rule fieldRule) (string, bool) {
	for _, kind := range rule.kinds {
		for _, candidates := range a.Elements(kind) {
			if b.typed[candidates[0]] {
				continue
			}
			for _, sel := range candidates {
				id := analyzer.Identifier(sel)
				if containsAny(id, rule.hints) && !containsAny(id, rule.excludes) {
					return candidates[0], true
				}
			}
		}
	}
	return "", false
}

func (b *scriptBuilder) upload(a *analyzer.Analyzer, p schemas.UserProfile) {
	if p.CVPath == "" {
		return
	}
	if sel, ok := a.First(analyzer.KindFile); ok {
		b.add(dsl.Upload(sel, p.CVPath))
	}
}

func (b *scriptBuilder) checkboxes(a *analyzer.Analyzer) {
	for _, candidates := range a.Elements(analyzer.KindCheckbox) {
		for _, sel := range candidates {
			if containsAny(strings.ToLower(sel), consentHints) {
				b.add(dsl.Click(candidates[0]))
				break
			}
		}
	}
}
