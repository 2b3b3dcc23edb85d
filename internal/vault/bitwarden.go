// Package vault reads login credentials from a Bitwarden vault through the
// bw command line tool and uses them to complete user profiles.
package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formscript/api/schemas"
	"github.com/xkilldash9x/formscript/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrLocked is returned when no unlocked session is available.
var ErrLocked = errors.New("vault is locked")

// loginItemType is the Bitwarden item type for logins.
const loginItemType = 1

// passwordEnv carries the master password to bw without putting it on the
// command line.
const passwordEnv = "FORMSCRIPT_BW_PASSWORD"

// CommandContext matches exec.CommandContext and is swapped out in tests.
type CommandContext func(ctx context.Context, name string, args ...string) *exec.Cmd

// Bitwarden implements schemas.CredentialVault.
type Bitwarden struct {
	binary  string
	cfg     config.VaultConfig
	logger  *zap.Logger
	command CommandContext

	mu      sync.RWMutex
	session string
}

var _ schemas.CredentialVault = (*Bitwarden)(nil)

// Option configures a Bitwarden vault.
type Option func(*Bitwarden)

// WithCommandContext replaces exec.CommandContext.
func WithCommandContext(fn CommandContext) Option {
	return func(b *Bitwarden) { b.command = fn }
}

// New resolves the bw binary ("~" is expanded). A session token from the
// configuration makes the vault usable without calling Unlock.
func New(cfg config.VaultConfig, logger *zap.Logger, opts ...Option) (*Bitwarden, error) {
	binary, err := homedir.Expand(cfg.Binary)
	if err != nil {
		return nil, fmt.Errorf("invalid bw path: %w", err)
	}
	if binary == "" {
		binary = "bw"
	}
	b := &Bitwarden{
		binary:  binary,
		cfg:     cfg,
		logger:  logger.Named("vault"),
		command: exec.CommandContext,
		session: cfg.Session,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Unlock opens the vault with the master password and keeps the session token.
func (b *Bitwarden) Unlock(ctx context.Context, masterPassword string) error {
	out, err := b.run(ctx, []string{passwordEnv + "=" + masterPassword},
		"unlock", "--passwordenv", passwordEnv, "--raw")
	if err != nil {
		b.logger.Error("Vault unlock failed", zap.Error(err))
		return fmt.Errorf("failed to unlock vault: %w", err)
	}
	token := strings.TrimSpace(string(out))
	if token == "" {
		return fmt.Errorf("failed to unlock vault: empty session token")
	}

	b.mu.Lock()
	b.session = token
	b.mu.Unlock()
	b.logger.Info("Vault unlocked")
	return nil
}

// Unlocked reports whether a session token is held.
func (b *Bitwarden) Unlocked() bool { return b.Session() != "" }

type item struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  int    `json:"type"`
	Login *struct {
		Username string `json:"username"`
		Password string `json:"password"`
		URIs     []struct {
			URI string `json:"uri"`
		} `json:"uris"`
	} `json:"login"`
}

// CredentialsFor lists the login items whose URI contains pageURL or is
// contained in it.
func (b *Bitwarden) CredentialsFor(ctx context.Context, pageURL string) ([]schemas.Credential, error) {
	b.mu.RLock()
	session := b.session
	b.mu.RUnlock()
	if session == "" {
		return nil, ErrLocked
	}

	out, err := b.run(ctx, nil, "list", "items", "--session", session)
	if err != nil {
		return nil, fmt.Errorf("failed to list vault items: %w", err)
	}
	var items []item
	if err := json.Unmarshal(out, &items); err != nil {
		return nil, fmt.Errorf("failed to parse vault items: %w", err)
	}

	var creds []schemas.Credential
	for _, it := range items {
		if it.Type != loginItemType || it.Login == nil || len(it.Login.URIs) == 0 {
			continue
		}
		uri := it.Login.URIs[0].URI
		if uri == "" || !(strings.Contains(uri, pageURL) || strings.Contains(pageURL, uri)) {
			continue
		}
		creds = append(creds, schemas.Credential{
			ID:       it.ID,
			Name:     it.Name,
			Username: it.Login.Username,
			Password: it.Login.Password,
			URI:      uri,
		})
	}
	b.logger.Debug("Vault lookup", zap.Int("items", len(items)), zap.Int("matches", len(creds)))
	return creds, nil
}

// run executes bw with args, adding env to the inherited environment.
func (b *Bitwarden) run(ctx context.Context, env []string, args ...string) ([]byte, error) {
	if b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}

	cmd := b.command(ctx, b.binary, args...)
	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), env...)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Session returns the current session token, empty while locked.
func (b *Bitwarden) Session() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session
}
