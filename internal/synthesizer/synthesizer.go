// Package synthesizer turns captured page markup and a user profile into a DSL
// script. Generation strategies are tried in priority order and the first
// non-empty script wins.
package synthesizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formscript/api/schemas"
)

// ErrChainFailed is returned when the strategy chain aborts instead of
// producing a (possibly empty) result.
var ErrChainFailed = errors.New("script synthesis chain failed")

// Input is what every strategy works from.
type Input struct {
	HTML    string
	Profile schemas.UserProfile
}

// Strategy is one tier of the chain. Returning an empty script, or an error,
// passes control to the next tier.
type Strategy interface {
	Name() string
	Generate(ctx context.Context, in Input) (string, error)
}

// Synthesizer runs the strategy chain.
type Synthesizer struct {
	strategies []Strategy
	logger     *zap.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithStrategies replaces the default chain.
func WithStrategies(strategies ...Strategy) Option {
	return func(s *Synthesizer) { s.strategies = strategies }
}

// New builds the default chain: model assisted (only when llm is non-nil),
// enhanced analysis, then the simple heuristic.
func New(llm schemas.LLMClient, logger *zap.Logger, opts ...Option) *Synthesizer {
	s := &Synthesizer{logger: logger.Named("synthesizer")}

	if llm != nil {
		s.strategies = append(s.strategies, NewLLMStrategy(llm, s.logger))
	}
	s.strategies = append(s.strategies, EnhancedStrategy{}, SimpleStrategy{})

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Strategies returns the tier names in execution order.
func (s *Synthesizer) Strategies() []string {
	names := make([]string, len(s.strategies))
	for i, st := range s.strategies {
		names[i] = st.Name()
	}
	return names
}

// Generate returns the first non-empty script. An empty result with a nil
// error means every tier came up empty. A panic in any tier is recovered and
// reported as ErrChainFailed.
func (s *Synthesizer) Generate(ctx context.Context, html string, profile schemas.UserProfile) (script string, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Strategy chain panicked", zap.Any("panic_value", r))
			script = ""
			err = fmt.Errorf("%w: %v", ErrChainFailed, r)
		}
	}()

	in := Input{HTML: html, Profile: profile}
	for _, st := range s.strategies {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", ErrChainFailed, err)
		}

		out, genErr := st.Generate(ctx, in)
		if genErr != nil {
			s.logger.Warn("Strategy failed, trying next tier",
				zap.String("strategy", st.Name()), zap.Error(genErr))
			continue
		}
		if strings.TrimSpace(out) == "" {
			s.logger.Debug("Strategy produced nothing", zap.String("strategy", st.Name()))
			continue
		}

		s.logger.Info("Script generated",
			zap.String("strategy", st.Name()),
			zap.Int("lines", strings.Count(out, "\n")+1))
		return out, nil
	}
	return "", nil
}
