package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"shopbot/internal/domain"
)

// Failover tries each completer in order, falling back to the next one
// when the current fails. The successful completer's text is returned
// verbatim; an error comes back only when every completer fails.
type Failover struct {
	completers []domain.Completer
	logger     *slog.Logger
	failovers  prometheus.Counter // counts completions served by a non-preferred provider
}

// NewFailover creates a failover chain from the given completers.
// At least one completer is required.
func NewFailover(completers []domain.Completer, logger *slog.Logger) *Failover {
	return &Failover{
		completers: completers,
		logger:     logger,
	}
}

func (f *Failover) Name() string {
	names := make([]string, len(f.completers))
	for i, c := range f.completers {
		names[i] = c.Name()
	}
	return "failover(" + strings.Join(names, "→") + ")"
}

func (f *Failover) Healthy(ctx context.Context) error {
	for _, c := range f.completers {
		if err := c.Healthy(ctx); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no healthy completer in failover chain")
}

func (f *Failover) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for i, c := range f.completers {
		text, err := c.Complete(ctx, prompt)
		if err == nil {
			if i > 0 {
				if f.failovers != nil {
					f.failovers.Inc()
				}
				f.logger.Info("failover: used fallback completer",
					"completer", c.Name(),
					"attempt", i+1,
				)
			}
			return text, nil
		}
		lastErr = err
		f.logger.Warn("failover: completer failed, trying next",
			"completer", c.Name(),
			"attempt", i+1,
			"error", err,
		)
	}
	return "", fmt.Errorf("all completers in failover chain failed: %w", lastErr)
}
