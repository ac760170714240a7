// Package bridge is the command-style call surface between front-ends and
// the host runtime.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/faradayfan/mcserver-panel/internal/protocol"
)

// ErrClosed is returned for calls on (or pending on) a closed connection.
var ErrClosed = errors.New("bridge closed")

// Invoker runs one host command. args is marshalled to JSON; the result is
// unmarshalled into out unless out is nil.
type Invoker interface {
	Invoke(ctx context.Context, command string, args any, out any) error
}

// Notifier is implemented by invokers that can report host-side changes.
// fn is called after an instance folder has been created by any client.
type Notifier interface {
	NotifyInstanceListChanged(fn func())
}

// Error is a failure reported by the host for a command.
type Error struct {
	Command string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

func decodeResponse(command string, resp protocol.Message, out any) error {
	if resp.Error != "" {
		return &Error{Command: command, Message: resp.Error}
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", command, err)
	}
	return nil
}
