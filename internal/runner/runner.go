// Package runner plays DSL scripts back through the TagUI command line tool.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formscript/api/schemas"
	"github.com/xkilldash9x/formscript/internal/config"
	"github.com/xkilldash9x/formscript/internal/dsl"
)

// ErrInvalidScript wraps grammar errors found before execution.
var ErrInvalidScript = errors.New("invalid script")

// CommandContext matches exec.CommandContext and is swapped out in tests.
type CommandContext func(ctx context.Context, name string, args ...string) *exec.Cmd

// maxOutputLog caps how much engine output is attached to errors.
const maxOutputLog = 2048

// TagUI implements schemas.ScriptRunner.
type TagUI struct {
	binary  string
	browser string
	workDir string
	cfg     config.RunnerConfig
	logger  *zap.Logger
	command CommandContext
}

var _ schemas.ScriptRunner = (*TagUI)(nil)

// Option configures a TagUI runner.
type Option func(*TagUI)

// WithCommandContext replaces exec.CommandContext.
func WithCommandContext(fn CommandContext) Option {
	return func(r *TagUI) { r.command = fn }
}

// New resolves the configured binary and work directory ("~" is expanded).
func New(cfg config.RunnerConfig, logger *zap.Logger, opts ...Option) (*TagUI, error) {
	binary, err := homedir.Expand(cfg.TagUIPath)
	if err != nil {
		return nil, fmt.Errorf("invalid tagui path: %w", err)
	}
	if binary == "" {
		binary = "tagui"
	}
	workDir, err := homedir.Expand(cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("invalid work dir: %w", err)
	}
	browser := cfg.Browser
	if browser == "" {
		browser = "chrome"
	}

	r := &TagUI{
		binary:  binary,
		browser: browser,
		workDir: workDir,
		cfg:     cfg,
		logger:  logger.Named("runner"),
		command: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run checks the script grammar, writes it to a temporary flow file and runs
// TagUI on it. The flow file is removed afterwards.
func (r *TagUI) Run(ctx context.Context, script string) error {
	if err := dsl.Check(script); err != nil {
		r.logger.Error("Refusing to run malformed script", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	f, err := os.CreateTemp(r.workDir, "formscript-*.tag")
	if err != nil {
		return fmt.Errorf("failed to create script file: %w", err)
	}
	path := f.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			r.logger.Warn("Failed to remove script file", zap.String("path", path), zap.Error(rmErr))
		}
	}()

	if _, err := f.WriteString(script); err != nil {
		f.Close()
		return fmt.Errorf("failed to write script file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write script file: %w", err)
	}

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	r.logger.Info("Executing script", zap.String("flow", filepath.Base(path)), zap.String("browser", r.browser))
	cmd := r.command(ctx, r.binary, path, r.browser)
	if r.workDir != "" {
		cmd.Dir = r.workDir
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		out := string(output)
		if len(out) > maxOutputLog {
			out = out[len(out)-maxOutputLog:]
		}
		r.logger.Error("TagUI execution failed", zap.Error(err), zap.String("output", out))
		return fmt.Errorf("tagui execution failed: %w. Output: %s", err, out)
	}

	r.logger.Info("Script executed successfully")
	return nil
}

// Available reports whether the TagUI binary answers --version, or a local
// checkout exists under the work directory.
func (r *TagUI) Available(ctx context.Context) bool {
	if err := r.command(ctx, r.binary, "--version").Run(); err == nil {
		return true
	}
	for _, name := range []string{"tagui", "tagui.cmd"} {
		if _, err := os.Stat(filepath.Join(r.workDir, "tagui", name)); err == nil {
			return true
		}
	}
	return false
}
