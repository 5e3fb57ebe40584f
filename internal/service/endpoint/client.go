package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zhouzirui/pinkchat/backend/pkg/logger"
)

// maxErrorBody caps how much of a failed response is read for logging.
const maxErrorBody = 4 << 10

// Request is the JSON body posted to the chat API. SessionID is sent as null
// on the first turn.
type Request struct {
	Message   string  `json:"message"`
	SessionID *string `json:"session_id"`
}

// Response is the chat API success body. MessageCount is accepted but unused.
type Response struct {
	Response     string `json:"response"`
	SessionID    string `json:"session_id"`
	MessageCount int    `json:"message_count"`
}

// Client posts chat turns to the remote chat API.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient builds a client for url. A zero timeout leaves requests bounded
// only by the caller's context.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// NewClientWithHTTP lets callers supply their own http.Client.
func NewClientWithHTTP(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{url: url, httpClient: httpClient}
}

// URL returns the configured chat API address.
func (c *Client) URL() string {
	return c.url
}

// Send issues exactly one POST and decodes the reply. It never retries.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	logger.Debugf("[endpoint] POST %s session=%s", c.url, sessionLabel(req.SessionID))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.Errorf("[endpoint] chat api returned %d: %s", resp.StatusCode, string(raw))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	return &out, nil
}

func sessionLabel(id *string) string {
	if id == nil {
		return "<new>"
	}
	return *id
}
