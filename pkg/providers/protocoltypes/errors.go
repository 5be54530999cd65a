// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package protocoltypes

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyResponse is returned when the provider answered without any text.
var ErrEmptyResponse = errors.New("empty completion")

// ErrorReason classifies a provider failure for logging.
type ErrorReason string

const (
	ReasonAuth       ErrorReason = "auth"
	ReasonRateLimit  ErrorReason = "rate_limit"
	ReasonTimeout    ErrorReason = "timeout"
	ReasonFormat     ErrorReason = "format"
	ReasonOverloaded ErrorReason = "overloaded"
	ReasonUnknown    ErrorReason = "unknown"
)

// ReasonFromStatus maps an HTTP status to a reason.
func ReasonFromStatus(status int) ErrorReason {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ReasonAuth
	case status == http.StatusTooManyRequests:
		return ReasonRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ReasonTimeout
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ReasonFormat
	case status >= 500:
		return ReasonOverloaded
	default:
		return ReasonUnknown
	}
}

// ProviderError wraps a provider failure with the details worth logging.
type ProviderError struct {
	Reason    ErrorReason
	Provider  string
	Model     string
	Status    int
	RequestID string
	Wrapped   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s(%s): model=%s status=%d: %v",
		e.Provider, e.Reason, e.Model, e.Status, e.Wrapped)
}

func (e *ProviderError) Unwrap() error {
	return e.Wrapped
}

// Fields returns the error as structured log fields.
func (e *ProviderError) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"provider": e.Provider,
		"model":    e.Model,
		"reason":   string(e.Reason),
		"error":    e.Error(),
	}
	if e.Status != 0 {
		fields["status_code"] = e.Status
	}
	if e.RequestID != "" {
		fields["request_id"] = e.RequestID
	}
	return fields
}
