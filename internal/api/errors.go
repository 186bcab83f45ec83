package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Error is a completed request the server rejected. Message carries the most
// specific text the response body offered, so the grid can surface
// server-side rejections (e.g. a day-capacity conflict the local pre-check
// missed on a stale cache) verbatim.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// ServerMessage returns the server-provided rejection text, empty when the
// body carried none.
func (e *Error) ServerMessage() string { return e.Message }

// newError builds an Error from a response body. Django REST bodies come in
// three shapes: {"detail": "..."}, {"non_field_errors": ["..."]}, or a
// field-keyed map of message lists. Preference order: non_field_errors,
// detail, first field message.
func newError(status int, body []byte) *Error {
	return &Error{StatusCode: status, Message: extractMessage(body)}
}

func extractMessage(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}

	if msg := firstString(payload["non_field_errors"]); msg != "" {
		return msg
	}
	if raw, ok := payload["detail"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
	}

	// Field-keyed map: deterministic pick so tests and users see a stable
	// message when several fields fail.
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if msg := firstString(payload[k]); msg != "" {
			return fmt.Sprintf("%s: %s", k, msg)
		}
	}
	return ""
}

func firstString(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}
