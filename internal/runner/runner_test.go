package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formscript/internal/config"
	"github.com/xkilldash9x/formscript/internal/dsl"
)

// mockCommand re-executes the test binary as TestHelperProcess.
func mockCommand(exitCode int, hang bool, seen *[]string) CommandContext {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if seen != nil {
			*seen = append([]string{name}, args...)
		}
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("HELPER_EXIT_CODE=%d", exitCode))
		if hang {
			cmd.Env = append(cmd.Env, "HELPER_HANG=1")
		}
		return cmd
	}
}

func newTestRunner(t *testing.T, cfg config.RunnerConfig, cmd CommandContext) *TagUI {
	t.Helper()
	if cfg.WorkDir == "" {
		cfg.WorkDir = t.TempDir()
	}
	r, err := New(cfg, zap.NewNop(), WithCommandContext(cmd))
	require.NoError(t, err)
	return r
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	script := "wait 1\nclick \"#login\""

	t.Run("runs tagui on a flow file", func(t *testing.T) {
		var seen []string
		r := newTestRunner(t, config.RunnerConfig{TagUIPath: "/opt/tagui/tagui", Browser: "chrome"}, mockCommand(0, false, &seen))

		require.NoError(t, r.Run(ctx, script))
		require.Len(t, seen, 3)
		assert.Equal(t, "/opt/tagui/tagui", seen[0])
		assert.True(t, strings.HasSuffix(seen[1], ".tag"))
		assert.Equal(t, "chrome", seen[2])

		_, err := os.Stat(seen[1])
		assert.True(t, os.IsNotExist(err), "flow file is removed after the run")
	})

	t.Run("rejects a malformed script without running anything", func(t *testing.T) {
		var seen []string
		r := newTestRunner(t, config.RunnerConfig{}, mockCommand(0, false, &seen))

		err := r.Run(ctx, "fly \"#away\"")
		require.ErrorIs(t, err, ErrInvalidScript)
		var syntaxErr *dsl.SyntaxError
		assert.ErrorAs(t, err, &syntaxErr)
		assert.Empty(t, seen)
	})

	t.Run("reports a failing engine", func(t *testing.T) {
		r := newTestRunner(t, config.RunnerConfig{}, mockCommand(3, false, nil))

		err := r.Run(ctx, script)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tagui execution failed")
		assert.Contains(t, err.Error(), "element not found")
	})

	t.Run("respects the timeout", func(t *testing.T) {
		r := newTestRunner(t, config.RunnerConfig{Timeout: 100 * time.Millisecond}, mockCommand(0, true, nil))

		start := time.Now()
		err := r.Run(ctx, script)
		require.Error(t, err)
		assert.Less(t, time.Since(start), 2*time.Second)
	})
}

func TestAvailable(t *testing.T) {
	ctx := context.Background()

	t.Run("binary answers", func(t *testing.T) {
		r := newTestRunner(t, config.RunnerConfig{}, mockCommand(0, false, nil))
		assert.True(t, r.Available(ctx))
	})

	t.Run("binary missing and no local checkout", func(t *testing.T) {
		r := newTestRunner(t, config.RunnerConfig{}, mockCommand(127, false, nil))
		assert.False(t, r.Available(ctx))
	})

	t.Run("local checkout", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "tagui"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "tagui", "tagui"), []byte("#!/bin/sh\n"), 0o755))

		r := newTestRunner(t, config.RunnerConfig{WorkDir: dir}, mockCommand(127, false, nil))
		assert.True(t, r.Available(ctx))
	})
}

func TestNew_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	r, err := New(config.RunnerConfig{TagUIPath: "~/tagui/src/tagui"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "tagui", "src", "tagui"), r.binary)
	assert.Equal(t, "chrome", r.browser)
}

// TestHelperProcess stands in for the tagui binary.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	if os.Getenv("HELPER_HANG") == "1" {
		time.Sleep(5 * time.Second)
		os.Exit(0)
	}

	var exitCode int
	fmt.Sscanf(os.Getenv("HELPER_EXIT_CODE"), "%d", &exitCode)
	if exitCode != 0 {
		fmt.Fprintln(os.Stderr, "ERROR - element not found")
	}
	os.Exit(exitCode)
}
