package domain

import "context"

// Completer is the text-generation boundary used by the fallback handler.
// Implementations wrap one remote provider; failover across providers is a
// Completer itself.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
	Healthy(ctx context.Context) error
}
