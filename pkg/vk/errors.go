package vk

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoCredentials      = errors.New("vk: no credentials passed to constructor")
	ErrInvalidCredentials = errors.New("vk: app id and app secret are required")
	ErrMalformedResponse  = errors.New("vk: response body is not valid JSON")
)

// AuthError is returned when the token endpoint answers with a status above
// 200.
type AuthError struct {
	ErrorCode int    `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("vk auth error: status code %d, body: %q", e.ErrorCode, e.ErrorMsg)
}

// AuthPayloadError is returned when the token endpoint answers 200 but the
// body carries no access_token. Payload is the decoded body when it was a JSON
// object.
type AuthPayloadError struct {
	Payload map[string]any
	Raw     json.RawMessage
}

func (e *AuthPayloadError) Error() string {
	var sb strings.Builder
	sb.WriteString("vk auth error: no access_token in response")
	if msg, ok := e.Payload["error"].(string); ok && msg != "" {
		fmt.Fprintf(&sb, ": %s", msg)
	}
	if desc, ok := e.Payload["error_description"].(string); ok && desc != "" {
		fmt.Fprintf(&sb, " (%s)", desc)
	}
	return sb.String()
}

// APIError carries the error payload a method call answered with. Payload is
// the whole decoded response body; Code and Msg are lifted from its error
// field when it has that shape.
type APIError struct {
	Code    int
	Msg     string
	Payload map[string]any
	Raw     json.RawMessage
}

func newAPIError(body json.RawMessage, payload map[string]any) *APIError {
	e := &APIError{Payload: payload, Raw: body}
	switch v := payload["error"].(type) {
	case map[string]any:
		if code, ok := v["error_code"].(float64); ok {
			e.Code = int(code)
		}
		if msg, ok := v["error_msg"].(string); ok {
			e.Msg = msg
		}
	case string:
		e.Msg = v
		if desc, ok := payload["error_description"].(string); ok && desc != "" {
			e.Msg = v + ": " + desc
		}
	}
	return e
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("vk api error %d: %s", e.Code, e.Msg)
	}
	if e.Msg != "" {
		return "vk api error: " + e.Msg
	}
	return "vk api error: " + string(e.Raw)
}

// ResponseError reports a request that produced no usable answer: the
// transport failed or the body could not be decoded.
type ResponseError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *ResponseError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "vk %s failed", e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, ": status code %d", e.StatusCode)
	}
	if e.Body != "" {
		fmt.Fprintf(&sb, ", body: %q", e.Body)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *ResponseError) Unwrap() error { return e.Err }
