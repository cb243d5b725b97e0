package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pbaille/reflect/internal/observability"
)

// ErrNoAPIKey is returned by a provider that was configured without a key
var ErrNoAPIKey = errors.New("api key not set")

// ModelConfig selects and configures a provider
type ModelConfig struct {
	Provider    string
	Model       string
	APIKey      string
	Temperature float64
	TopP        float64
}

// NewModel builds the provider named by cfg.Provider. A remote provider
// without an API key is still returned, as a model whose every call fails,
// so chat turns get the fallback reply and the rest of the app keeps working.
func NewModel(ctx context.Context, cfg ModelConfig) (Model, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "":
		if cfg.APIKey == "" {
			return unavailable(ctx, "gemini"), nil
		}
		return NewGemini(ctx, cfg.APIKey, cfg.Model, float32(cfg.Temperature), float32(cfg.TopP))
	case "anthropic":
		if cfg.APIKey == "" {
			return unavailable(ctx, "anthropic"), nil
		}
		return NewAnthropic(cfg.APIKey, cfg.Model, cfg.Temperature)
	case "mock":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// offline stands in for a provider that cannot be called
type offline struct {
	name string
}

func unavailable(ctx context.Context, name string) Model {
	observability.LoggerFromContext(ctx).Warn("no api key configured, chat replies will use the fallback",
		"provider", name,
	)
	return offline{name: name}
}

func (o offline) Name() string {
	return o.name
}

// Generate implements Model
func (o offline) Generate(context.Context, Prompt) (string, error) {
	return "", fmt.Errorf("%s: %w", o.name, ErrNoAPIKey)
}
