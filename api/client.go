package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://aerial.fm/api/v2"

// Response is a decoded envelope. Every API response is an envelope: payload
// fields alongside a success flag, or {success: false, error: {code, message}}.
type Response struct {
	Success bool
	// Err is set when the server reported a structured failure.
	Err *Error

	raw []byte
}

// Decode unmarshals the payload fields of a successful response into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.raw, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// Client issues signed requests against the Aerial FM API. All requests carry
// a Basic credential derived from the token/secret pair.
type Client struct {
	baseURL    string
	token      string
	secret     string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates an API client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, token, secret string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		secret:     secret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        slog.New(slog.DiscardHandler),
	}
}

// SetLogger installs a logger for request/response debug lines.
func (c *Client) SetLogger(l *slog.Logger) {
	if l != nil {
		c.log = l
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// Get issues a signed GET request. Params are encoded into the query string.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, params)
}

// Post issues a signed POST request. Params are form-encoded into the body.
func (c *Client) Post(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, params)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values) (*Response, error) {
	reqURL := c.baseURL + "/" + strings.TrimPrefix(path, "/")

	var body io.Reader
	if method == http.MethodGet {
		if len(params) > 0 {
			reqURL += "?" + params.Encode()
		}
	} else {
		if params == nil {
			params = url.Values{}
		}
		body = strings.NewReader(params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.token, c.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	c.log.Debug("querying", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// All responses are JSON envelopes, regardless of HTTP status.
	var env struct {
		Success bool `json:"success"`
		Error   *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope (status %d): %w", resp.StatusCode, err)
	}

	r := &Response{Success: env.Success, raw: raw}
	if !env.Success {
		r.Err = &Error{Message: "request failed"}
		if env.Error != nil {
			r.Err = &Error{Code: ErrorCode(env.Error.Code), Message: env.Error.Message}
		}
		c.log.Debug("request failed", "url", reqURL, "code", int(r.Err.Code), "message", r.Err.Message)
		return r, nil
	}

	c.log.Debug("request ok", "url", reqURL)
	return r, nil
}
