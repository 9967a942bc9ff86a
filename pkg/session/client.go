package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/padnote/pkg/core"
)

// DefaultForwardTimeout bounds a call to a running session.
const DefaultForwardTimeout = 5 * time.Second

// baseURL is a placeholder host; the transport always dials the socket.
const baseURL = "http://padnote"

// Client calls a running session over its unix socket.
type Client struct {
	socket string
	http   *http.Client
}

// NewClient creates a client for the session listening on socket.
func NewClient(socket string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultForwardTimeout
	}
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socket)
		},
		DisableKeepAlives: true,
	}
	return &Client{
		socket: socket,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// Parse forwards a command pair. Any failure to reach the session is
// reported as core.ErrRemoteUnreachable.
func (c *Client) Parse(ctx context.Context, command, argument string) (ParseResponse, error) {
	var resp ParseResponse
	err := c.doJSON(ctx, http.MethodPost, PathParse, ParseRequest{Command: command, Argument: argument}, &resp)
	return resp, err
}

// Health checks that a session answers.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	err := c.doJSON(ctx, http.MethodGet, PathHealth, nil, &resp)
	return resp, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrRemoteUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: session returned %s", core.ErrRemoteUnreachable, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: bad response: %v", core.ErrRemoteUnreachable, err)
	}
	return nil
}
