package domain

import "time"

// IntentEvent is one classified inbound message: the upstream NLU has
// already turned free text into an intent name plus extracted parameters.
type IntentEvent struct {
	Intent     string
	Parameters Params
	SessionID  string
	QueryText  string
	Timestamp  time.Time
}

// Params holds the NLU-extracted parameters for an intent event.
// Values arrive as JSON, so numbers are float64 and lists are []any.
type Params map[string]any

// String returns the named parameter as a string, or "" when absent.
func (p Params) String(name string) string {
	v, ok := p[name]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Number returns the named parameter as a float64 and whether it was present.
func (p Params) Number(name string) (float64, bool) {
	switch v := p[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Int returns the named parameter truncated to an int, or def when absent.
func (p Params) Int(name string, def int) int {
	if n, ok := p.Number(name); ok {
		return int(n)
	}
	return def
}

// StringList returns the named parameter as a list of strings. A scalar
// string parameter is returned as a one-element list.
func (p Params) StringList(name string) []string {
	switch v := p[name].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	}
	return nil
}
