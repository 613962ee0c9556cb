// Package client is a typed consumer of the center API. It accepts list
// responses shaped either as a bare JSON array or as {"data": [...]} and
// classifies every failure into one of four kinds.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Kind classifies a failed call.
type Kind string

const (
	KindTransport  Kind = "transport"
	KindMalformed  Kind = "malformed"
	KindValidation Kind = "validation"
	KindBusiness   Kind = "business"
)

// Error is returned by every client call that fails.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a client *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Client talks to one API base URL.
type Client struct {
	base              string
	http              *http.Client
	bearer            string
	antiForgeryHeader string
	antiForgeryToken  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithBearer sets the access token.
func WithBearer(token string) Option { return func(c *Client) { c.bearer = token } }

// WithAntiForgery sets the header sent on every state-changing call.
func WithAntiForgery(header, token string) Option {
	return func(c *Client) {
		c.antiForgeryHeader = header
		c.antiForgeryToken = token
	}
}

// New builds a client for base (e.g. http://localhost:8080/api/v1).
func New(base string, opts ...Option) *Client {
	c := &Client{
		base:              strings.TrimRight(base, "/"),
		http:              &http.Client{Timeout: 15 * time.Second},
		antiForgeryHeader: "RequestVerificationToken",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAntiForgeryToken replaces the token after it was fetched from the API.
func (c *Client) SetAntiForgeryToken(token string) {
	c.antiForgeryToken = token
}

// List GETs path and decodes the list into dest (a pointer to a slice).
func (c *Client) List(ctx context.Context, path string, dest interface{}) error {
	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return DecodeList(raw, dest)
}

// Get GETs path and decodes the envelope data (or the bare body) into dest.
func (c *Client) Get(ctx context.Context, path string, dest interface{}) error {
	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decodeObject(raw, dest)
}

// Send issues a state-changing call with a JSON body.
func (c *Client) Send(ctx context.Context, method, path string, body, dest interface{}) error {
	raw, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if dest == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return decodeObject(raw, dest)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Message: "encode request body", Err: err}
		}
		reader = bytes.NewReader(payload)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	if method != http.MethodGet && method != http.MethodHead && c.antiForgeryToken != "" {
		req.Header.Set(c.antiForgeryHeader, c.antiForgeryToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Status: resp.StatusCode, Message: "read response", Err: err}
	}

	if len(bytes.TrimSpace(raw)) > 0 && !json.Valid(raw) {
		return nil, &Error{Kind: KindTransport, Status: resp.StatusCode, Message: "unexpected non-JSON response"}
	}
	if resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode, raw)
	}
	if err := businessFailure(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

type errorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

func classifyStatus(status int, raw []byte) error {
	var body errorBody
	_ = json.Unmarshal(raw, &body)
	e := &Error{Kind: KindTransport, Status: status}
	if body.Error != nil {
		e.Code = body.Error.Code
		e.Message = body.Error.Message
	} else {
		e.Message = body.Message
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	switch {
	case status == http.StatusBadRequest:
		e.Kind = KindValidation
	case status == http.StatusConflict || status == http.StatusUnprocessableEntity || status == http.StatusPreconditionFailed:
		e.Kind = KindBusiness
	}
	return e
}

// businessFailure detects the legacy {"success": false, "message": "..."} shape on 2xx responses.
func businessFailure(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var body errorBody
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return nil
	}
	if body.Success != nil && !*body.Success {
		msg := body.Message
		if msg == "" {
			msg = "operation failed"
		}
		return &Error{Kind: KindBusiness, Message: msg}
	}
	return nil
}

// DecodeList accepts a bare array or an object whose "data" is an array.
func DecodeList(raw []byte, dest interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return &Error{Kind: KindMalformed, Message: "empty response"}
	}
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, dest); err != nil {
			return &Error{Kind: KindMalformed, Message: "decode list", Err: err}
		}
		return nil
	case '{':
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return &Error{Kind: KindMalformed, Message: "decode envelope", Err: err}
		}
		data := bytes.TrimSpace(envelope.Data)
		if len(data) == 0 || data[0] != '[' {
			return &Error{Kind: KindMalformed, Message: "response data is missing or not an array"}
		}
		if err := json.Unmarshal(data, dest); err != nil {
			return &Error{Kind: KindMalformed, Message: "decode list", Err: err}
		}
		return nil
	default:
		return &Error{Kind: KindMalformed, Message: "response is neither an array nor an object"}
	}
}

func decodeObject(raw []byte, dest interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Data) > 0 {
			trimmed = envelope.Data
		}
	}
	if err := json.Unmarshal(trimmed, dest); err != nil {
		return &Error{Kind: KindMalformed, Message: "decode response", Err: err}
	}
	return nil
}
