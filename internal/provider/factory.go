package provider

import (
	"fmt"
	"log/slog"

	"shopbot/internal/config"
	"shopbot/internal/domain"
	"shopbot/internal/metrics"
)

// BuildChain assembles the failover chain from config, in the order given
// by general.failoverChain (preferred provider first). Disabled providers
// are skipped. m may be nil when no instrumentation is wanted.
func BuildChain(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (domain.Completer, error) {
	client := SharedHTTPClient(defaultHTTPTimeout)

	var completers []domain.Completer
	for _, name := range cfg.General.FailoverChain {
		pc, ok := cfg.Providers[name]
		if !ok || !pc.Enabled {
			continue
		}
		switch name {
		case "openai":
			completers = append(completers, NewOpenAI(OpenAIConfig{
				APIKey:  pc.APIKey,
				APIBase: pc.APIBase,
				Model:   pc.DefaultModel,
				Client:  client,
				Logger:  logger.With("provider", name),
			}))
		case "gemini":
			completers = append(completers, NewGemini(GeminiConfig{
				APIKey:  pc.APIKey,
				APIBase: pc.APIBase,
				Model:   pc.DefaultModel,
				Client:  client,
				Logger:  logger.With("provider", name),
			}))
		default:
			// Unknown names validate against the providers map, so this is
			// a provider type we don't ship a client for.
			return nil, fmt.Errorf("unsupported provider: %s", name)
		}
	}

	if len(completers) == 0 {
		return nil, fmt.Errorf("no enabled provider in failover chain")
	}
	chain := NewFailover(completers, logger)
	if m != nil {
		chain.failovers = m.ProviderFailovers
	}
	return chain, nil
}
