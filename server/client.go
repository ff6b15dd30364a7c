package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rustyeddy/papertrade/state"
	"github.com/rustyeddy/papertrade/trading"
)

// APIError is a non-2xx response from the desk API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Client talks to a running desk over its REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL, e.g. "http://localhost:8787".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// BaseURLFor turns a listen address such as ":8787" into a local URL.
func BaseURLFor(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) PlaceOrder(ctx context.Context, req trading.OrderRequest) (trading.Order, error) {
	var o trading.Order
	err := c.do(ctx, http.MethodPost, "/api/orders", req, &o)
	return o, err
}

func (c *Client) CancelOrder(ctx context.Context, id string) (trading.Order, error) {
	var o trading.Order
	err := c.do(ctx, http.MethodPost, "/api/orders/"+id+"/cancel", nil, &o)
	return o, err
}

func (c *Client) State(ctx context.Context) (state.State, error) {
	var st state.State
	err := c.do(ctx, http.MethodGet, "/api/state", nil, &st)
	return st, err
}

func (c *Client) Reset(ctx context.Context) (state.State, error) {
	var st state.State
	err := c.do(ctx, http.MethodPost, "/api/reset", nil, &st)
	return st, err
}
