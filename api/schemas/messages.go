package schemas

import (
	jsoniter "github.com/json-iterator/go"
)

// GenerateRequest is the body of a script generation call. UserData is kept
// raw so that malformed profiles can be tolerated instead of rejected. URL,
// when set, selects vault credentials for missing login fields.
type GenerateRequest struct {
	HTML     string              `json:"html"`
	UserData jsoniter.RawMessage `json:"user_data"`
	URL      string              `json:"url,omitempty"`
}

// GenerateResponse carries the newline-joined rendered script.
type GenerateResponse struct {
	Script string `json:"script"`
}

// ValidateRequest asks for a grammar and cacheability check of a script.
type ValidateRequest struct {
	Script string `json:"script"`
}

// ValidateResponse reports the outcome of a script check.
type ValidateResponse struct {
	Valid     bool   `json:"valid"`
	Cacheable bool   `json:"cacheable"`
	Error     string `json:"error,omitempty"`
}

// RunRequest asks the execution engine to play a script.
type RunRequest struct {
	Script string `json:"script"`
}

// RunResponse reports whether the execution engine succeeded.
type RunResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// AnalyzeResponse is returned for a captured page.
type AnalyzeResponse struct {
	URL       string              `json:"url"`
	HTML      string              `json:"html"`
	Inventory map[string][]string `json:"inventory"`
	LoginForm bool                `json:"login_form"`
	Complex   bool                `json:"complex"`
}

// HealthResponse describes the state of the service and its collaborators.
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Services map[string]string `json:"services"`
}

// TemplateRequest renders one of the fixed-layout site templates.
type TemplateRequest struct {
	Template string              `json:"template"`
	UserData jsoniter.RawMessage `json:"user_data"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
