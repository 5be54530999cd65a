// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/zhaopengme/topicbot/pkg/line"
	"github.com/zhaopengme/topicbot/pkg/logger"
)

const (
	maxBodyBytes          = 1 << 20
	defaultHandlerTimeout = 60 * time.Second
)

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrMalformedPayload = errors.New("malformed payload")
)

// EventHandler processes a single decoded event.
type EventHandler interface {
	Handle(ctx context.Context, event line.Event) error
}

// Dispatcher authenticates webhook deliveries and hands their events to the
// handler one at a time, in payload order.
type Dispatcher struct {
	secret  string
	handler EventHandler
	timeout time.Duration
}

func NewDispatcher(channelSecret string, handler EventHandler, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultHandlerTimeout
	}
	return &Dispatcher{
		secret:  channelSecret,
		handler: handler,
		timeout: timeout,
	}
}

// Handle verifies the signature over the raw body and runs every event. It
// only fails for authentication or decoding problems; per-event failures are
// logged.
func (d *Dispatcher) Handle(ctx context.Context, body []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	if !line.ValidateSignature(d.secret, body, signature) {
		return ErrInvalidSignature
	}

	events, err := line.ParseEvents(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	for i, event := range events {
		d.dispatch(ctx, i, event)
	}
	return nil
}

func (d *Dispatcher) dispatch(ctx context.Context, index int, event line.Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCF("webhook", "Event handler panicked", map[string]interface{}{
				"request_id": requestIDFrom(ctx),
				"index":      index,
				"kind":       event.Kind(),
				"panic":      fmt.Sprint(r),
			})
		}
	}()

	if err := d.handler.Handle(ctx, event); err != nil {
		logger.ErrorCF("webhook", "Event handling failed", map[string]interface{}{
			"request_id": requestIDFrom(ctx),
			"index":      index,
			"kind":       event.Kind(),
			"chat_id":    event.EventSource().ChatID(),
			"error":      err.Error(),
		})
	}
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := uuid.NewString()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.WarnCF("webhook", "Failed to read request body", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	// Handlers outlive a client that hangs up, but not the handler timeout.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), d.timeout)
	defer cancel()
	ctx = withRequestID(ctx, requestID)

	err = d.Handle(ctx, body, r.Header.Get(line.SignatureHeader))
	if err != nil {
		logger.WarnCF("webhook", "Rejected webhook request", map[string]interface{}{
			"request_id": requestID,
			"remote":     r.RemoteAddr,
			"error":      err.Error(),
		})
		http.Error(w, rejectReason(err), http.StatusBadRequest)
		return
	}

	logger.DebugCF("webhook", "Webhook request handled", map[string]interface{}{
		"request_id": requestID,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingSignature):
		return "Missing signature"
	case errors.Is(err, ErrInvalidSignature):
		return "Invalid signature"
	default:
		return "Malformed payload"
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
