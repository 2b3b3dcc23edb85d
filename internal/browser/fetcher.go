// Package browser captures rendered page markup with a headless Chrome
// instance driven over the DevTools protocol.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formscript/api/schemas"
	"github.com/xkilldash9x/formscript/internal/config"
)

// ErrInvalidURL is returned for targets that are not absolute http(s) URLs.
var ErrInvalidURL = errors.New("invalid page url")

// Fetcher implements schemas.PageFetcher. Each Fetch launches its own browser
// process, so concurrent calls do not share state.
type Fetcher struct {
	cfg    config.BrowserConfig
	logger *zap.Logger
}

var _ schemas.PageFetcher = (*Fetcher)(nil)

func NewFetcher(cfg config.BrowserConfig, logger *zap.Logger) *Fetcher {
	return &Fetcher{cfg: cfg, logger: logger.Named("browser")}
}

// allocatorFlags returns the command line switches passed to Chrome.
func allocatorFlags(cfg config.BrowserConfig) map[string]interface{} {
	flags := map[string]interface{}{
		"no-sandbox":               true,
		"no-first-run":             true,
		"no-default-browser-check": true,
		"enable-automation":        true,
		"headless":                 cfg.Headless,
	}
	if cfg.DisableGPU {
		flags["disable-gpu"] = true
	}
	if cfg.Headless {
		flags["hide-scrollbars"] = true
		flags["mute-audio"] = true
	}

	// Additional flags from the config file's 'args' slice, "key=value" or bare switches.
	for _, arg := range cfg.Args {
		key, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if key == "" {
			continue
		}
		if found {
			flags[key] = value
		} else {
			flags[key] = true
		}
	}
	return flags
}

// AllocatorOptions converts the browser configuration into exec allocator options.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	flags := allocatorFlags(cfg)
	opts := make([]chromedp.ExecAllocatorOption, 0, len(flags))
	for name, value := range flags {
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

// Fetch navigates to target and returns the outer HTML of the document once
// the body is ready and the configured settle time has passed.
func (f *Fetcher) Fetch(ctx context.Context, target string) (string, error) {
	if err := validateURL(target); err != nil {
		return "", err
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, AllocatorOptions(f.cfg)...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(f.logger.Sugar().Debugf))
	defer cancelTab()

	if f.cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		tabCtx, cancel = context.WithTimeout(tabCtx, f.cfg.NavigationTimeout)
		defer cancel()
	}

	f.logger.Info("Fetching page", zap.String("url", target))

	var (
		html  string
		tasks chromedp.Tasks
	)
	if persona, ok := PersonaFromConfig(f.cfg); ok {
		tasks = append(tasks, network.Enable())
		tasks = append(tasks, persona.Tasks()...)
	}
	tasks = append(tasks,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if f.cfg.PostLoadWait > 0 {
		tasks = append(tasks, chromedp.Sleep(f.cfg.PostLoadWait))
	}
	tasks = append(tasks, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tabCtx, tasks); err != nil {
		return "", fmt.Errorf("failed to capture %s: %w", target, err)
	}

	f.logger.Debug("Page captured", zap.String("url", target), zap.Int("html_bytes", len(html)))
	return html, nil
}

func validateURL(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}
