package lifecycle

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const defaultMaxBodyBytes = 1 << 20 // provider payloads are small JSON documents

type handlerConfig struct {
	signatureHeader string
	maxBodyBytes    int64
	log             *slog.Logger
}

// HandlerOption configures the webhook handler.
type HandlerOption func(*handlerConfig)

// WithSignatureHeader overrides the header carrying the provider
// signature. Defaults to Paddle-Signature.
func WithSignatureHeader(name string) HandlerOption {
	return func(c *handlerConfig) {
		if name != "" {
			c.signatureHeader = name
		}
	}
}

// WithMaxBodyBytes caps the accepted request body size.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(c *handlerConfig) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithHandlerLogger sets the logger for request-level failures.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	return func(c *handlerConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// WebhookHandler returns the billing provider webhook endpoint.
//
// The body is passed to the Manager as raw bytes because the signature
// covers the exact payload; parsing before verification would both
// waste work and risk verifying something other than what was signed.
//
// Responses follow the provider retry contract: 200 with
// {"received":true} for success or duplicate, 400 for signature and
// parse failures (retrying cannot fix those), 502 for transient
// processing failures so the provider's at-least-once delivery retries.
func WebhookHandler(m *Manager, opts ...HandlerOption) http.Handler {
	if m == nil {
		panic("lifecycle: manager is required")
	}

	cfg := &handlerConfig{
		signatureHeader: "Paddle-Signature",
		maxBodyBytes:    defaultMaxBodyBytes,
		log:             slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, cfg.maxBodyBytes))
		if err != nil {
			respond(w, http.StatusBadRequest, map[string]any{"received": false, "error": "unreadable body"})
			return
		}

		err = m.ProcessEvent(r.Context(), raw, r.Header.Get(cfg.signatureHeader))
		switch {
		case err == nil:
			respond(w, http.StatusOK, map[string]any{"received": true})
		case errors.Is(err, ErrSignatureInvalid), errors.Is(err, ErrMalformedEvent):
			respond(w, http.StatusBadRequest, map[string]any{"received": false, "error": "invalid event"})
		default:
			// Non-success on anything transient (or unexpected) keeps
			// the provider retrying instead of silently dropping work.
			cfg.log.ErrorContext(r.Context(), "webhook processing failed, provider will retry",
				slog.Any("error", err))
			respond(w, http.StatusBadGateway, map[string]any{"received": false})
		}
	})
}

// Router mounts the webhook endpoint at POST / on a fresh chi router,
// ready to be mounted under e.g. /webhooks/billing.
func Router(m *Manager, opts ...HandlerOption) chi.Router {
	r := chi.NewRouter()
	r.Method(http.MethodPost, "/", WebhookHandler(m, opts...))
	return r
}

func respond(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
