// Package transport submits cleaned form data to a validation endpoint and
// returns the schema the server sends back under "form_dict".
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formbind/pkg/schema"
)

// FormDictKey is the response envelope member carrying the refreshed schema.
const FormDictKey = "form_dict"

var (
	// ErrUnexpectedStatus reports a response that carries no schema and whose
	// status is not 2xx.
	ErrUnexpectedStatus = errors.New("transport: unexpected status")
	// ErrMissingFormDict reports a 2xx response without a schema.
	ErrMissingFormDict = errors.New("transport: response has no form_dict")
)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout bounds each validation request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithCodec selects the request encoding. JSON is the default.
func WithCodec(codec Codec) Option {
	return func(c *Client) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Add(key, value)
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client posts cleaned data to a validation URL.
type Client struct {
	url     string
	http    *http.Client
	codec   Codec
	headers http.Header
	timeout time.Duration
	logger  *slog.Logger
}

// New constructs a client for url.
func New(url string, options ...Option) (*Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("transport: validate url is required")
	}
	c := &Client{
		url:     url,
		http:    http.DefaultClient,
		codec:   JSON(),
		headers: make(http.Header),
		logger:  slog.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

// URL returns the validation endpoint.
func (c *Client) URL() string { return c.url }

// Validate posts payload and decodes the returned schema. Servers commonly
// answer invalid submissions with a 4xx status and a schema carrying errors;
// any status is accepted as long as the body holds a form_dict.
func (c *Client) Validate(ctx context.Context, payload map[string]any) (schema.Schema, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := c.codec.Marshal(payload)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("transport: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return schema.Schema{}, fmt.Errorf("transport: build request: %w", err)
	}
	for key, values := range c.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Content-Type", c.codec.ContentType())
	req.Header.Set("Accept", ContentTypeJSON+", "+ContentTypeMsgpack)

	c.logger.Debug("Submitting form for validation", "url", c.url, "contentType", c.codec.ContentType())
	resp, err := c.http.Do(req)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("transport: post %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("transport: read response: %w", err)
	}
	c.logger.Debug("Received validation response", "status", resp.Status)

	out, err := decodeFormDict(codecFor(resp.Header.Get("Content-Type")), data)
	successful := resp.StatusCode >= 200 && resp.StatusCode < 300
	switch {
	case err == nil:
		return out, nil
	case !successful:
		return schema.Schema{}, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	default:
		return schema.Schema{}, err
	}
}

// decodeFormDict extracts the envelope's schema. Non-JSON envelopes are
// re-encoded as JSON so the schema decoders apply unchanged.
func decodeFormDict(codec Codec, data []byte) (schema.Schema, error) {
	var raw []byte
	if codec.ContentType() == ContentTypeJSON {
		var envelope map[string]json.RawMessage
		if err := codec.Unmarshal(data, &envelope); err != nil {
			return schema.Schema{}, fmt.Errorf("transport: decode response: %w", err)
		}
		raw = envelope[FormDictKey]
	} else {
		var envelope map[string]any
		if err := codec.Unmarshal(data, &envelope); err != nil {
			return schema.Schema{}, fmt.Errorf("transport: decode response: %w", err)
		}
		if dict, ok := envelope[FormDictKey]; ok && dict != nil {
			encoded, err := json.Marshal(dict)
			if err != nil {
				return schema.Schema{}, fmt.Errorf("transport: re-encode form_dict: %w", err)
			}
			raw = encoded
		}
	}

	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return schema.Schema{}, ErrMissingFormDict
	}
	out, err := schema.DecodeJSON(raw)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("transport: %w", err)
	}
	return out, nil
}
