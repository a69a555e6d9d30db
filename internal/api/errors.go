// Package api implements the authenticated HTTP client shared by every
// resource store. It attaches bearer tokens to outgoing requests and
// recovers once from an expired access token by refreshing the credential
// and replaying the original request.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSessionExpired marks an authentication failure that could not be
// recovered by refreshing the access token. Callers should treat it as a
// forced logout.
var ErrSessionExpired = errors.New("session expired")

// ErrorKind discriminates the error union carried by Error.
type ErrorKind int

const (
	// KindTransport means no usable HTTP response was received.
	KindTransport ErrorKind = iota
	// KindMessage carries a plain failure message.
	KindMessage
	// KindFields carries a field-keyed validation map from a 4xx body.
	KindFields
)

// Error is the structured failure returned by the client. The backend
// answers validation failures with a field-keyed map and everything else
// with a plain message, so consumers branch on Kind instead of duck-typing
// the payload.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Fields  map[string][]string
	cause   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTransport:
		return fmt.Sprintf("request failed: %v", e.cause)
	case KindFields:
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
		}
		return fmt.Sprintf("validation failed (%d): %s", e.Status, strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.cause }

// transportError wraps a network-level failure. No response was received,
// so no refresh is attempted for these.
func transportError(err error) *Error {
	return &Error{Kind: KindTransport, Message: err.Error(), cause: err}
}

// decodeError turns an HTTP error response into an Error. A 4xx body that
// decodes to a map of field names to message lists becomes KindFields;
// everything else is reduced to a plain message.
func decodeError(status int, body []byte) *Error {
	if status >= 400 && status < 500 {
		if fields, ok := decodeFieldErrors(body); ok {
			return &Error{Kind: KindFields, Status: status, Fields: fields}
		}
	}
	msg := decodeMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("unexpected status %d", status)
	}
	return &Error{Kind: KindMessage, Status: status, Message: msg}
}

// decodeFieldErrors accepts {"field": ["msg", ...]} and the single-string
// variant {"field": "msg"}. Reserved keys like "detail" are treated as a
// plain message, not a field.
func decodeFieldErrors(body []byte) (map[string][]string, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || len(raw) == 0 {
		return nil, false
	}
	if _, reserved := raw["detail"]; reserved {
		return nil, false
	}
	fields := make(map[string][]string, len(raw))
	for key, val := range raw {
		var list []string
		if err := json.Unmarshal(val, &list); err == nil {
			fields[key] = list
			continue
		}
		var single string
		if err := json.Unmarshal(val, &single); err == nil {
			fields[key] = []string{single}
			continue
		}
		return nil, false
	}
	return fields, true
}

func decodeMessage(body []byte) string {
	var detail struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &detail); err == nil {
		if detail.Detail != "" {
			return detail.Detail
		}
		if detail.Message != "" {
			return detail.Message
		}
	}
	return strings.TrimSpace(string(body))
}
