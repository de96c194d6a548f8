package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/BaSui01/llmbridge/types"
)

// ErrorDetails is the structured part of a provider error body. OpenAI
// sends {"error":{"message","type","code","param"}}; Ollama, Chroma and
// Weaviate send {"error":"..."} or {"error":[{"message"}]}.
type ErrorDetails struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

// ProviderError is returned for every non-2xx response. It keeps the raw
// status and body and wraps the classified *types.Error, so callers can use
// errors.As with either type.
type ProviderError struct {
	Provider   string
	StatusCode int
	Status     string
	Body       string
	Details    *ErrorDetails
	classified *types.Error
}

// NewProviderError builds a ProviderError from a raw response.
func NewProviderError(provider string, statusCode int, status string, body []byte) *ProviderError {
	details := ParseErrorBody(body)
	msg := strings.TrimSpace(string(body))
	if details != nil && details.Message != "" {
		msg = details.Message
		if details.Type != "" {
			msg = fmt.Sprintf("%s (type: %s)", details.Message, details.Type)
		}
	}
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	return &ProviderError{
		Provider:   provider,
		StatusCode: statusCode,
		Status:     status,
		Body:       string(body),
		Details:    details,
		classified: MapHTTPError(statusCode, msg, provider),
	}
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Provider, e.StatusCode, e.classified.Message)
}

// Unwrap exposes the classified error.
func (e *ProviderError) Unwrap() error { return e.classified }

// Code returns the classified error code.
func (e *ProviderError) Code() types.ErrorCode { return e.classified.Code }

// ParseErrorBody extracts structured details from an error body. It returns
// nil when the body has no recognisable shape.
func ParseErrorBody(body []byte) *ErrorDetails {
	if len(body) == 0 {
		return nil
	}
	var envelope struct {
		Error  json.RawMessage `json:"error"`
		Detail string          `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	if len(envelope.Error) == 0 {
		if envelope.Detail != "" {
			return &ErrorDetails{Message: envelope.Detail}
		}
		return nil
	}

	var obj struct {
		Type    string          `json:"type"`
		Message string          `json:"message"`
		Code    json.RawMessage `json:"code"`
		Param   string          `json:"param"`
	}
	if err := json.Unmarshal(envelope.Error, &obj); err == nil && obj.Message != "" {
		return &ErrorDetails{Type: obj.Type, Message: obj.Message, Code: rawCode(obj.Code), Param: obj.Param}
	}

	var str string
	if err := json.Unmarshal(envelope.Error, &str); err == nil && str != "" {
		return &ErrorDetails{Message: str}
	}

	var list []struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &list); err == nil && len(list) > 0 {
		msgs := make([]string, 0, len(list))
		for _, item := range list {
			if item.Message != "" {
				msgs = append(msgs, item.Message)
			}
		}
		if len(msgs) > 0 {
			return &ErrorDetails{Message: strings.Join(msgs, "; ")}
		}
	}
	return nil
}

// code may be a string or a number depending on the endpoint.
func rawCode(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// MapHTTPError maps an HTTP status to a classified *types.Error with the
// appropriate retry flag.
func MapHTTPError(status int, msg string, provider string) *types.Error {
	e := types.NewError(types.ErrUpstreamError, msg).WithHTTPStatus(status).WithProvider(provider)
	switch status {
	case http.StatusUnauthorized:
		e.Code = types.ErrUnauthorized
	case http.StatusForbidden:
		e.Code = types.ErrForbidden
	case http.StatusNotFound:
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "model") {
			e.Code = types.ErrModelNotFound
		}
	case http.StatusTooManyRequests:
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "quota") || strings.Contains(lower, "billing") {
			e.Code = types.ErrQuotaExceeded
		} else {
			e.Code = types.ErrRateLimited
			e.Retryable = true
		}
	case http.StatusBadRequest:
		lower := strings.ToLower(msg)
		switch {
		case strings.Contains(lower, "content_policy") || strings.Contains(lower, "safety system"):
			e.Code = types.ErrContentFiltered
		case strings.Contains(lower, "quota") || strings.Contains(lower, "credit"):
			e.Code = types.ErrQuotaExceeded
		default:
			e.Code = types.ErrInvalidRequest
		}
	case http.StatusServiceUnavailable:
		e.Code = types.ErrServiceUnavailable
		e.Retryable = true
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		e.Retryable = true
	default:
		e.Retryable = status >= 500
	}
	return e
}
