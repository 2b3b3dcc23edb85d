package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formscript/internal/config"
)

func TestAllocatorFlags(t *testing.T) {
	t.Run("headless defaults", func(t *testing.T) {
		flags := allocatorFlags(config.BrowserConfig{Headless: true, DisableGPU: true})
		assert.Equal(t, true, flags["headless"])
		assert.Equal(t, true, flags["disable-gpu"])
		assert.Equal(t, true, flags["no-sandbox"])
		assert.Equal(t, true, flags["hide-scrollbars"])
	})

	t.Run("headed", func(t *testing.T) {
		flags := allocatorFlags(config.BrowserConfig{Headless: false})
		assert.Equal(t, false, flags["headless"])
		assert.NotContains(t, flags, "disable-gpu")
		assert.NotContains(t, flags, "hide-scrollbars")
	})

	t.Run("extra args", func(t *testing.T) {
		flags := allocatorFlags(config.BrowserConfig{Args: []string{
			"--disable-dev-shm-usage",
			"--user-agent=formscript/1.0",
			"--",
		}})
		assert.Equal(t, true, flags["disable-dev-shm-usage"])
		assert.Equal(t, "formscript/1.0", flags["user-agent"])
		assert.NotContains(t, flags, "")
	})

	assert.Len(t, AllocatorOptions(config.BrowserConfig{}), len(allocatorFlags(config.BrowserConfig{})))
}

func TestFetch_InvalidURL(t *testing.T) {
	f := NewFetcher(config.BrowserConfig{Headless: true}, zap.NewNop())

	for _, target := range []string{"", "example.com/login", "ftp://example.com", "http://", "://bad"} {
		_, err := f.Fetch(context.Background(), target)
		assert.ErrorIs(t, err, ErrInvalidURL, "target %q", target)
	}
}

func findChrome() bool {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

func TestFetch_Integration(t *testing.T) {
	if testing.Short() || !findChrome() {
		t.Skip("skipping browser integration test: no Chrome available or -short set")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><form><input id="email" type="email"></form></body></html>`)
	}))
	t.Cleanup(server.Close)

	f := NewFetcher(config.BrowserConfig{
		Headless:          true,
		DisableGPU:        true,
		NavigationTimeout: 30 * time.Second,
	}, zap.NewNop())

	html, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, html, `id="email"`)
}
