package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formbind/pkg/schema"
)

const defaultMaxBody = 1 << 20

// ValidateFunc checks a submission and returns the schema to send back,
// carrying any errors.
type ValidateFunc func(ctx context.Context, payload map[string]any) (schema.Schema, error)

// HandlerOption customises a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the handler's structured logger.
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMaxBody caps the request body size in bytes.
func WithMaxBody(limit int64) HandlerOption {
	return func(h *Handler) {
		if limit > 0 {
			h.maxBody = limit
		}
	}
}

// Handler is the server side of Client: it decodes a submission, runs the
// validate function and answers with a form_dict envelope. Submissions with
// errors get 422 Unprocessable Entity.
type Handler struct {
	validate ValidateFunc
	logger   *slog.Logger
	maxBody  int64
}

// NewHandler wraps validate.
func NewHandler(validate ValidateFunc, options ...HandlerOption) (*Handler, error) {
	if validate == nil {
		return nil, errors.New("transport: validate func is required")
	}
	h := &Handler{
		validate: validate,
		logger:   slog.Default(),
		maxBody:  defaultMaxBody,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	payload := map[string]any{}
	if len(data) > 0 {
		if err := codecFor(r.Header.Get("Content-Type")).Unmarshal(data, &payload); err != nil {
			http.Error(w, "malformed submission", http.StatusBadRequest)
			return
		}
	}

	out, err := h.validate(r.Context(), payload)
	if err != nil {
		h.logger.Error("Validation failed", "path", r.URL.Path, "error", err)
		http.Error(w, "validation failed", http.StatusInternalServerError)
		return
	}

	codec := negotiate(r.Header.Get("Accept"))
	body, err := encodeEnvelope(codec, out)
	if err != nil {
		h.logger.Error("Encoding validation response failed", "error", err)
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if !out.Errors.Empty() {
		status = http.StatusUnprocessableEntity
	}
	h.logger.Debug("Answered validation request", "path", r.URL.Path, "status", status, "errors", len(out.Errors))
	w.Header().Set("Content-Type", codec.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// negotiate answers with msgpack only when the client lists it before JSON.
func negotiate(accept string) Codec {
	lowered := strings.ToLower(accept)
	msgpackAt := strings.Index(lowered, "msgpack")
	jsonAt := strings.Index(lowered, "json")
	if msgpackAt >= 0 && (jsonAt < 0 || msgpackAt < jsonAt) {
		return Msgpack()
	}
	return JSON()
}

// encodeEnvelope wraps out under FormDictKey. MessagePack envelopes go
// through a JSON round trip so field names match the JSON tags; field order
// is not preserved in that case.
func encodeEnvelope(codec Codec, out schema.Schema) ([]byte, error) {
	if codec.ContentType() == ContentTypeJSON {
		return codec.Marshal(map[string]any{FormDictKey: out})
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("transport: encode form_dict: %w", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("transport: encode form_dict: %w", err)
	}
	return codec.Marshal(map[string]any{FormDictKey: generic})
}
