package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/formscript/internal/config"
)

// Persona is the browser identity presented to captured pages.
type Persona struct {
	UserAgent string
	Languages []string
	Timezone  string
}

// PersonaFromConfig returns the configured persona. ok is false when nothing
// is overridden.
func PersonaFromConfig(cfg config.BrowserConfig) (p Persona, ok bool) {
	p = Persona{UserAgent: cfg.UserAgent, Languages: cfg.Languages, Timezone: cfg.Timezone}
	return p, p.UserAgent != "" || len(p.Languages) > 0 || p.Timezone != ""
}

// AcceptLanguage renders Languages as an Accept-Language header value with
// descending quality weights, e.g. "pl-PL,pl;q=0.9,en;q=0.8".
func (p Persona) AcceptLanguage() string {
	parts := make([]string, 0, len(p.Languages))
	for i, lang := range p.Languages {
		if i == 0 {
			parts = append(parts, lang)
			continue
		}
		q := 10 - i
		if q < 1 {
			q = 1
		}
		parts = append(parts, fmt.Sprintf("%s;q=0.%d", lang, q))
	}
	return strings.Join(parts, ",")
}

// Tasks returns the DevTools actions that apply the persona. They must run
// before the first navigation.
func (p Persona) Tasks() chromedp.Tasks {
	var tasks chromedp.Tasks
	accept := p.AcceptLanguage()

	if p.UserAgent != "" {
		ua := emulation.SetUserAgentOverride(p.UserAgent)
		if accept != "" {
			ua = ua.WithAcceptLanguage(accept)
		}
		tasks = append(tasks, ua)
	}
	if len(p.Languages) > 0 {
		tasks = append(tasks,
			emulation.SetLocaleOverride().WithLocale(p.Languages[0]),
			network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": accept}),
		)
	}
	if p.Timezone != "" {
		tasks = append(tasks, emulation.SetTimezoneOverride(p.Timezone))
	}
	return tasks
}
