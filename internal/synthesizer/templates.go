package synthesizer

import (
	"fmt"
	"sort"

	"github.com/xkilldash9x/formscript/api/schemas"
	"github.com/xkilldash9x/formscript/internal/dsl"
)

// TemplateFunc renders a fixed-layout script for a well known site flow.
type TemplateFunc func(p schemas.UserProfile) string

var templates = map[string]TemplateFunc{
	"job_application": JobApplication,
	"registration":    Registration,
	"linkedin_apply":  LinkedInApply,
}

// Templates returns the names accepted by Template, sorted.
func Templates() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Template renders the named template.
func Template(name string, p schemas.UserProfile) (string, error) {
	fn, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("unknown template %q (available: %v)", name, Templates())
	}
	return fn(p), nil
}

// JobApplication fills a typical careers page application form.
func JobApplication(p schemas.UserProfile) string {
	return dsl.Script{
		dsl.Click("#accept-cookies"),
		dsl.Hover("#careers-link"),
		dsl.Click("#careers-link"),
		dsl.Click("#apply-now"),
		dsl.Type("#first-name", p.Get("first_name")),
		dsl.Type("#last-name", p.Get("last_name")),
		dsl.Type("#email", p.Email),
		dsl.Type("#phone", p.Phone),
		dsl.Upload("#resume", p.CVPath),
		dsl.Click("#gdpr-consent"),
		dsl.Click("#submit-application"),
	}.String()
}

// Registration creates an account, confirming the password.
func Registration(p schemas.UserProfile) string {
	return dsl.Script{
		dsl.Click("#register"),
		dsl.Type("#username", p.Username),
		dsl.Type("#email", p.Email),
		dsl.Type("#password", p.Password),
		dsl.Type("#confirm-password", p.Password),
		dsl.Click("#terms-checkbox"),
		dsl.Click("#create-account"),
	}.String()
}

// LinkedInApply signs in and submits an easy-apply application.
func LinkedInApply(p schemas.UserProfile) string {
	return dsl.Script{
		dsl.Click("#sign-in"),
		dsl.Type("#username", p.Get("linkedin_email")),
		dsl.Type("#password", p.Get("linkedin_password")),
		dsl.Click("#sign-in-submit"),
		dsl.Click(".jobs-apply-button"),
		dsl.Upload("#resume-upload", p.CVPath),
		dsl.Type("#phone", p.Phone),
		dsl.Click("#follow-company"),
		dsl.Click("#submit-application"),
	}.String()
}
