package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formscript/api/schemas"
	"github.com/xkilldash9x/formscript/internal/analyzer"
	"github.com/xkilldash9x/formscript/internal/browser"
	"github.com/xkilldash9x/formscript/internal/dsl"
	"github.com/xkilldash9x/formscript/internal/runner"
	"github.com/xkilldash9x/formscript/internal/synthesizer"
	"github.com/xkilldash9x/formscript/internal/vault"
)

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req schemas.GenerateRequest
	if !s.decode(w, r, &req) {
		return
	}
	profile := schemas.ParseUserProfile(req.UserData)
	profile, err := vault.Fill(r.Context(), s.deps.Vault, req.URL, profile)
	if err != nil {
		s.logger.Warn("Vault lookup failed, using the supplied profile",
			zap.String("request_id", middleware.GetReqID(r.Context())), zap.Error(err))
	}
	script := s.deps.Synthesizer.Synthesize(r.Context(), req.HTML, profile)
	s.respond(w, r, http.StatusOK, schemas.GenerateResponse{Script: script})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req schemas.ValidateRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp := schemas.ValidateResponse{Valid: true, Cacheable: dsl.IsCacheable(req.Script)}
	if err := dsl.Check(req.Script); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}
	s.respond(w, r, http.StatusOK, resp)
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	var req schemas.TemplateRequest
	if !s.decode(w, r, &req) {
		return
	}
	script, err := synthesizer.Template(req.Template, schemas.ParseUserProfile(req.UserData))
	if err != nil {
		s.fail(w, r, http.StatusNotFound, err)
		return
	}
	s.respond(w, r, http.StatusOK, schemas.GenerateResponse{Script: script})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.deps.Fetcher == nil {
		s.fail(w, r, http.StatusServiceUnavailable, errors.New("page capture is not configured"))
		return
	}
	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" {
		s.fail(w, r, http.StatusBadRequest, errors.New("missing url query parameter"))
		return
	}

	html, err := s.deps.Fetcher.Fetch(r.Context(), target)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, browser.ErrInvalidURL) {
			status = http.StatusBadRequest
		}
		s.fail(w, r, status, err)
		return
	}

	a := analyzer.New(html)
	s.respond(w, r, http.StatusOK, schemas.AnalyzeResponse{
		URL:       target,
		HTML:      html,
		Inventory: a.Inventory(),
		LoginForm: a.IsLoginForm(),
		Complex:   synthesizer.IsComplex(html),
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runner == nil {
		s.fail(w, r, http.StatusServiceUnavailable, errors.New("script execution is not configured"))
		return
	}
	var req schemas.RunRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.deps.Runner.Run(r.Context(), req.Script); err != nil {
		status := http.StatusOK
		if errors.Is(err, runner.ErrInvalidScript) {
			status = http.StatusUnprocessableEntity
		}
		s.respond(w, r, status, schemas.RunResponse{Success: false, Error: err.Error()})
		return
	}
	s.respond(w, r, http.StatusOK, schemas.RunResponse{Success: true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	services := map[string]string{
		"database": "disabled",
		"llm":      "disabled",
		"runner":   "disabled",
	}
	status := "healthy"

	if s.deps.Database != nil {
		if err := s.deps.Database.Ping(r.Context()); err != nil {
			s.logger.Warn("Database health check failed", zap.Error(err))
			services["database"] = "unavailable"
			status = "degraded"
		} else {
			services["database"] = "ok"
		}
	}
	if s.deps.LLMEnabled {
		services["llm"] = "configured"
	}
	if s.deps.Runner != nil {
		if s.deps.Runner.Available(r.Context()) {
			services["runner"] = "ok"
		} else {
			services["runner"] = "unavailable"
		}
	}

	s.respond(w, r, http.StatusOK, schemas.HealthResponse{
		Status:   status,
		Version:  s.version,
		Services: services,
	})
}

// -- Helpers --

// decode reads a JSON body into v, answering 400/413 itself on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := r.Body
	if s.cfg.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			s.fail(w, r, http.StatusRequestEntityTooLarge, err)
		case errors.Is(err, io.EOF):
			s.fail(w, r, http.StatusBadRequest, errors.New("empty request body"))
		default:
			s.fail(w, r, http.StatusBadRequest, err)
		}
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response",
			zap.String("request_id", middleware.GetReqID(r.Context())), zap.Error(err))
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.respond(w, r, status, schemas.ErrorResponse{
		Error:     err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}
