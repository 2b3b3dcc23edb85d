package synthesizer

import (
	"context"
	"strings"

	"github.com/xkilldash9x/formscript/api/schemas"
	"github.com/xkilldash9x/formscript/internal/dsl"
)

// simpleField lists candidate selectors for one profile field, best first.
type simpleField struct {
	field     string
	selectors []string
}

var simpleFields = []simpleField{
	{schemas.FieldUsername, []string{"#username", "#user", `[name="username"]`, `[name="email"]`}},
	{schemas.FieldPassword, []string{"#password", "#pass", `[name="password"]`}},
	{schemas.FieldFullName, []string{"#fullname", "#full-name", "#name", `[name="fullname"]`, `[name="name"]`}},
	{schemas.FieldEmail, []string{"#email", `[name="email"]`, `[type="email"]`}},
	{schemas.FieldPhone, []string{"#phone", "#telephone", `[name="phone"]`, `[type="tel"]`}},
	{schemas.FieldCVPath, []string{"#cv-upload", "#resume", "#cv", `[type="file"]`}},
}

var simpleSubmits = []string{
	"#submit", "#apply", "#send", "#login", "#apply-submit",
	`[type="submit"]`, `button[type="submit"]`,
}

// loginButtonMarkers trigger a leading click on the login button.
var loginButtonMarkers = []string{`id="login-btn"`, `class="login`}

const loginButton = "#login-btn"

// selectorNeedle turns a selector into the literal attribute text it is
// expected to appear as: "#x" becomes `id="x` and brackets are dropped.
var selectorNeedle = strings.NewReplacer("#", `id="`, "[", "", "]", "")

// SimpleStrategy is a flat substring pass over the raw markup. It does not
// look at document structure at all.
type SimpleStrategy struct{}

func (SimpleStrategy) Name() string { return "simple" }

func (SimpleStrategy) Generate(_ context.Context, in Input) (string, error) {
	html := in.HTML
	var script dsl.Script

	if containsAny(html, loginButtonMarkers) {
		script = append(script, dsl.Click(loginButton))
	}

	for _, f := range simpleFields {
		value := in.Profile.Get(f.field)
		if value == "" {
			continue
		}
		sel, ok := firstLiteral(html, f.selectors)
		if !ok {
			continue
		}
		if f.field == schemas.FieldCVPath {
			script = append(script, dsl.Upload(sel, value))
		} else {
			script = append(script, dsl.Type(sel, value))
		}
	}

	if sel, ok := firstLiteral(html, simpleSubmits); ok {
		script = append(script, dsl.Click(sel))
	}

	if len(script) == 0 {
		return "", nil
	}
	return script.String(), nil
}

func firstLiteral(html string, selectors []string) (string, bool) {
	for _, sel := range selectors {
		if strings.Contains(html, selectorNeedle.Replace(sel)) || strings.Contains(html, sel) {
			return sel, true
		}
	}
	return "", false
}
