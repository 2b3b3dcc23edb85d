package schemas

import (
	"context"
)

// -- Cache Interface --

// ScriptCache is a key to script store with expiry. Implementations are
// shared between concurrent requests and must be safe for concurrent use.
type ScriptCache interface {
	// Get returns the script stored under key. The boolean is false when no
	// unexpired entry exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put upserts the script for key and resets its expiry.
	Put(ctx context.Context, key, script, sourceHTML string) error
}

// -- Synthesis Interfaces --

// Synthesizer produces a DSL script for a captured page and a user profile.
// Implementations never fail the caller; degraded inputs produce degraded
// (but non-empty) scripts.
type Synthesizer interface {
	Synthesize(ctx context.Context, html string, profile UserProfile) string
}

// -- Collaborator Interfaces --

// PageFetcher returns the rendered markup of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ScriptRunner plays a validated DSL script back against a browser.
type ScriptRunner interface {
	Run(ctx context.Context, script string) error
	// Available reports whether the underlying execution engine is installed.
	Available(ctx context.Context) bool
}

// -- LLM Schemas & Interface --

// ModelTier allows for selecting a large language model based on a preference
// for speed versus advanced capabilities.
type ModelTier string

const (
	TierFast     ModelTier = "fast"     // Prefers a faster, potentially less capable model.
	TierPowerful ModelTier = "powerful" // Prefers a more capable, potentially slower model.
)

// GenerationOptions provides detailed parameters to control the text generation
// process of the LLM.
type GenerationOptions struct {
	Temperature float64 `json:"temperature"` // Controls randomness. Lower is more deterministic.
	MaxTokens   int     `json:"max_tokens"`  // Zero means the provider default.
}

// GenerationRequest encapsulates a complete request to the LLM, including the
// system and user prompts, the desired model tier, and generation options.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	Tier         ModelTier         `json:"tier"`
	Options      GenerationOptions `json:"options"`
}

// LLMClient defines a standard interface for interacting with a Large Language
// Model, abstracting the specifics of the underlying provider.
type LLMClient interface {
	// Generate produces a text completion based on the provided request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close cleans up any resources held by the client.
	Close() error
}

// Credential is a login item held by a password vault.
type Credential struct {
	ID       string
	Name     string
	Username string
	Password string
	URI      string
}

// CredentialVault looks up stored logins for a page. Matching is by URL.
type CredentialVault interface {
	CredentialsFor(ctx context.Context, pageURL string) ([]Credential, error)
}
