package handler

import (
	"context"
	"strings"

	"shopbot/internal/domain"
)

// handleFallback covers every query the NLU couldn't match to an intent.
// The completer chain answers in free text; when every provider is down
// the user still gets the canned apology instead of an error.
func (d *Dispatcher) handleFallback(ctx context.Context, evt domain.IntentEvent, reply *domain.Reply) error {
	query := strings.TrimSpace(evt.QueryText)
	if query == "" || d.fallback == nil {
		d.metrics.FallbackRequests.WithLabelValues("skipped").Inc()
		reply.Say(d.replies.Text("fallback_apology"))
		reply.Suggest(d.replies.Suggestions("default")...)
		return nil
	}

	answer, err := d.fallback.Complete(ctx, query)
	if err != nil {
		d.metrics.FallbackRequests.WithLabelValues("error").Inc()
		d.logger.Warn("fallback completion failed", "session", evt.SessionID, "err", err)
		reply.Say(d.replies.Text("fallback_apology"))
		reply.Suggest(d.replies.Suggestions("default")...)
		return nil
	}

	d.metrics.FallbackRequests.WithLabelValues("ok").Inc()
	reply.Say(answer)
	reply.Suggest(d.replies.Suggestions("default")...)
	return nil
}
