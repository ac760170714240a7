// Package rcon talks to a running server's remote console.
package rcon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	gorcon "github.com/gorcon/rcon"
)

const DefaultPort = 25575

// ErrDisabled is returned when the instance has no rcon.password.
var ErrDisabled = errors.New("rcon disabled")

// Endpoint is the rcon part of server.properties.
type Endpoint struct {
	Port     int
	Password string
}

func (e Endpoint) Enabled() bool { return e.Password != "" }

type Client struct {
	Host    string
	Timeout time.Duration
}

func NewClient(host string, timeout time.Duration) *Client {
	if host == "" {
		host = "127.0.0.1"
	}
	if timeout <= 0 {
		timeout = 800 * time.Millisecond
	}
	return &Client{Host: host, Timeout: timeout}
}

// Exec runs one console command. The whole exchange is bounded by the
// client timeout or ctx, whichever ends first.
func (c *Client) Exec(ctx context.Context, ep Endpoint, command string) (string, error) {
	if !ep.Enabled() {
		return "", ErrDisabled
	}
	port := ep.Port
	if port == 0 {
		port = DefaultPort
	}

	timeout := c.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return "", context.DeadlineExceeded
	}

	addr := net.JoinHostPort(c.Host, strconv.Itoa(port))

	type result struct {
		out string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := gorcon.Dial(addr, ep.Password,
			gorcon.SetDialTimeout(timeout),
			gorcon.SetDeadline(timeout),
		)
		if err != nil {
			ch <- result{err: fmt.Errorf("rcon dial %s: %w", addr, err)}
			return
		}
		defer conn.Close()

		out, err := conn.Execute(command)
		if err != nil {
			ch <- result{err: fmt.Errorf("rcon %q: %w", command, err)}
			return
		}
		ch <- result{out: out}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.out, r.err
	}
}

// Ping reports whether the console answers a "list" within the timeout.
func (c *Client) Ping(ctx context.Context, ep Endpoint) bool {
	_, err := c.Exec(ctx, ep, "list")
	return err == nil
}
