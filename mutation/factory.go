package mutation

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/biosynth/config"
)

// FromConfig builds the configured service wrapped in its rate limit.
// A missing OpenAI key falls back to Splice with a warning.
func FromConfig(cfg config.MutationConfig) (Service, error) {
	var svc Service
	switch cfg.Provider {
	case "openai":
		o, err := NewOpenAI(cfg.OpenAI)
		if errors.Is(err, ErrNoAPIKey) {
			slog.Warn("openai_unavailable_fallback", "provider", "splice", "error", err)
			svc = Splice{}
			break
		}
		if err != nil {
			return nil, fmt.Errorf("creating openai mutation service: %w", err)
		}
		svc = o
	case "splice", "":
		svc = Splice{}
	default:
		return nil, fmt.Errorf("unknown mutation provider %q", cfg.Provider)
	}
	return NewLimited(svc, cfg.RequestsPerSecond, cfg.Burst), nil
}
