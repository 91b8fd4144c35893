package webhook

import (
	"encoding/json"
	"strings"
	"time"

	"shopbot/internal/domain"
)

// fulfillmentRequest is the inbound NLU webhook envelope. Only the fields
// the dispatcher needs are decoded; everything else passes through
// untouched.
type fulfillmentRequest struct {
	ResponseID  string `json:"responseId"`
	Session     string `json:"session"`
	QueryResult struct {
		QueryText  string         `json:"queryText"`
		Parameters map[string]any `json:"parameters"`
		Intent     struct {
			Name        string `json:"name"`
			DisplayName string `json:"displayName"`
		} `json:"intent"`
	} `json:"queryResult"`
}

// sessionID extracts the trailing segment of the session resource path
// ("projects/x/agent/sessions/<id>"). A bare ID passes through unchanged.
func (r *fulfillmentRequest) sessionID() string {
	s := r.Session
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

func (r *fulfillmentRequest) event() domain.IntentEvent {
	return domain.IntentEvent{
		Intent:     r.QueryResult.Intent.DisplayName,
		Parameters: r.QueryResult.Parameters,
		SessionID:  r.sessionID(),
		QueryText:  r.QueryResult.QueryText,
		Timestamp:  time.Now(),
	}
}

// fulfillmentResponse is the outbound envelope: plain text for voice and
// legacy surfaces, plus a rich-content payload for the web messenger.
type fulfillmentResponse struct {
	FulfillmentText     string               `json:"fulfillmentText"`
	FulfillmentMessages []fulfillmentMessage `json:"fulfillmentMessages,omitempty"`
}

type fulfillmentMessage struct {
	Text    *textMessage   `json:"text,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

type textMessage struct {
	Text []string `json:"text"`
}

// encodeReply flattens a Reply into the wire envelope. Rich blocks become
// one richContent column; suggestions render as a trailing chips row.
func encodeReply(reply *domain.Reply) fulfillmentResponse {
	resp := fulfillmentResponse{
		FulfillmentText: strings.Join(reply.Fragments(), " "),
	}
	for _, frag := range reply.Fragments() {
		resp.FulfillmentMessages = append(resp.FulfillmentMessages, fulfillmentMessage{
			Text: &textMessage{Text: []string{frag}},
		})
	}

	var items []map[string]any
	for _, b := range reply.Blocks() {
		items = append(items, encodeBlock(b)...)
	}
	if chips := reply.Suggestions(); len(chips) > 0 {
		options := make([]map[string]any, 0, len(chips))
		for _, c := range chips {
			options = append(options, map[string]any{"text": c})
		}
		items = append(items, map[string]any{"type": "chips", "options": options})
	}
	if len(items) > 0 {
		resp.FulfillmentMessages = append(resp.FulfillmentMessages, fulfillmentMessage{
			Payload: map[string]any{"richContent": []any{items}},
		})
	}
	return resp
}

func encodeBlock(b domain.Block) []map[string]any {
	switch b.Type {
	case domain.BlockInfoCard:
		if b.Info == nil {
			return nil
		}
		item := map[string]any{
			"type":     "info",
			"title":    b.Info.Title,
			"subtitle": b.Info.Subtitle,
		}
		if b.Info.ImageURL != "" {
			item["image"] = map[string]any{"src": map[string]any{"rawUrl": b.Info.ImageURL}}
		}
		return []map[string]any{item}

	case domain.BlockProductList:
		items := make([]map[string]any, 0, 2*len(b.Products))
		for i, p := range b.Products {
			if i > 0 {
				items = append(items, map[string]any{"type": "divider"})
			}
			item := map[string]any{
				"type":     "info",
				"title":    p.Title,
				"subtitle": p.Subtitle,
			}
			if p.ImageURL != "" {
				item["image"] = map[string]any{"src": map[string]any{"rawUrl": p.ImageURL}}
			}
			if p.LinkURL != "" {
				item["actionLink"] = p.LinkURL
			}
			items = append(items, item)
		}
		return items

	case domain.BlockAccordion:
		items := make([]map[string]any, 0, len(b.Sections))
		for _, s := range b.Sections {
			items = append(items, map[string]any{
				"type":  "accordion",
				"title": s.Title,
				"text":  s.Text,
			})
		}
		return items

	case domain.BlockButtonList:
		items := make([]map[string]any, 0, len(b.Buttons))
		for _, btn := range b.Buttons {
			items = append(items, map[string]any{
				"type": "button",
				"text": btn.Text,
				"link": btn.URL,
			})
		}
		return items

	case domain.BlockChipList:
		options := make([]map[string]any, 0, len(b.Chips))
		for _, c := range b.Chips {
			options = append(options, map[string]any{"text": c})
		}
		return []map[string]any{{"type": "chips", "options": options}}
	}
	return nil
}

func decodeRequest(body []byte) (*fulfillmentRequest, error) {
	var req fulfillmentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
