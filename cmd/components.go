package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formscript/api/schemas"
	"github.com/xkilldash9x/formscript/internal/config"
	"github.com/xkilldash9x/formscript/internal/llmclient"
	"github.com/xkilldash9x/formscript/internal/orchestrator"
	"github.com/xkilldash9x/formscript/internal/retry"
	"github.com/xkilldash9x/formscript/internal/store"
	"github.com/xkilldash9x/formscript/internal/synthesizer"
	"github.com/xkilldash9x/formscript/internal/vault"
)

// components holds the services shared by the serve and generate commands.
type components struct {
	Store       *store.Store
	Cache       schemas.ScriptCache
	LLM         schemas.LLMClient
	Synthesizer *orchestrator.Orchestrator
	Vault       schemas.CredentialVault

	logger  *zap.Logger
	closeDB func()
}

// Shutdown releases everything that was opened.
func (c *components) Shutdown() {
	if c.LLM != nil {
		if err := c.LLM.Close(); err != nil {
			c.logger.Warn("Error closing LLM client", zap.Error(err))
		}
	}
	if c.closeDB != nil {
		c.closeDB()
	}
}

// initializeComponents wires the synthesis pipeline. Cache problems are
// logged and leave the pipeline running without a cache; an unusable LLM
// configuration is an error.
func initializeComponents(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*components, error) {
	c := &components{logger: logger}

	if err := c.initCache(ctx, cfg, logger); err != nil {
		logger.Warn("Script cache unavailable, continuing without it", zap.Error(err))
	}

	llm, err := llmclient.NewClient(ctx, cfg.LLM(), logger)
	if err != nil {
		c.Shutdown()
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	c.LLM = llm

	if cfg.Vault().Enabled {
		v, err := openVault(cfg, logger)
		if err != nil {
			logger.Warn("Credential vault unavailable, continuing without it", zap.Error(err))
		} else {
			c.Vault = v
		}
	}

	chain := synthesizer.New(llm, logger)
	logger.Debug("Synthesis chain ready", zap.Strings("strategies", chain.Strategies()))
	c.Synthesizer = orchestrator.New(chain, c.Cache, logger)
	return c, nil
}

func (c *components) initCache(ctx context.Context, cfg config.Interface, logger *zap.Logger) error {
	cacheCfg := cfg.Cache()
	if !cacheCfg.Enabled {
		logger.Info("Script cache disabled by configuration")
		return nil
	}

	switch cacheCfg.Backend {
	case "memory":
		c.Cache = store.NewMemoryCache(time.Now)
		return nil
	case "postgres":
		s, closeDB, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			closeDB()
			return err
		}
		c.Store, c.Cache, c.closeDB = s, s, closeDB
		return nil
	default:
		return fmt.Errorf("unknown cache backend %q", cacheCfg.Backend)
	}
}

// openStore connects to the configured database with the configured retry policy.
func openStore(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*store.Store, func(), error) {
	dbCfg := cfg.Database()
	if dbCfg.URL == "" {
		return nil, nil, fmt.Errorf("database URL is not configured (FORMSCRIPT_DATABASE_URL)")
	}
	policy := retry.Policy{Attempts: cfg.Cache().Attempts, Step: cfg.Cache().BackoffStep}
	return store.Connect(ctx, dbCfg.URL, dbCfg.MaxConns, logger, store.WithRetryPolicy(policy))
}

// openVault builds the Bitwarden vault. A vault without a session token is
// still returned so that it can be unlocked; lookups fail until then.
func openVault(cfg config.Interface, logger *zap.Logger) (*vault.Bitwarden, error) {
	v, err := vault.New(cfg.Vault(), logger)
	if err != nil {
		return nil, err
	}
	if !v.Unlocked() {
		logger.Warn("Credential vault is locked (set FORMSCRIPT_VAULT_SESSION or BW_SESSION)")
	}
	return v, nil
}

// readInput reads a file, or stdin when path is empty or "-".
func readInput(in io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(in)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes to a file, or to out when path is empty or "-".
func writeOutput(out io.Writer, path, content string) error {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if path == "" || path == "-" {
		_, err := io.WriteString(out, content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
