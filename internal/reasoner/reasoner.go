package reasoner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"superyield/internal/config"
)

// ErrNotConfigured means no credentials were supplied for the selected provider.
var ErrNotConfigured = errors.New("reasoner: not configured")

// Schema names a JSON schema the reply must follow.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

type Request struct {
	System      string
	User        string
	Schema      *Schema
	Temperature float64
	MaxTokens   int64
}

// Stream yields text fragments in arrival order. Close releases the
// underlying connection and is safe to call more than once.
type Stream interface {
	Next() bool
	Text() string
	Err() error
	Close() error
}

// Service is a black-box text producer.
type Service interface {
	Complete(ctx context.Context, req Request) (string, error)
	Stream(ctx context.Context, req Request) (Stream, error)
	Model() string
}

// New builds the provider selected by cfg.Provider.
func New(cfg config.ReasonerConfig) (Service, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai":
		svc, err := NewOpenAI(cfg)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case "anthropic":
		svc, err := NewAnthropic(cfg)
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("reasoner: unknown provider %q", cfg.Provider)
	}
}
