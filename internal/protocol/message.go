package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

type Kind string

const (
	KindRequest  Kind = "request"
	KindResponse Kind = "response"
	KindEvent    Kind = "event" // unsolicited host notification
)

// EventInstanceListChanged is pushed after an instance folder is added.
const EventInstanceListChanged = "instance_list_changed"

type Message struct {
	Kind    Kind            `json:"kind"`
	ID      string          `json:"id"`                // request/response correlation
	Command string          `json:"command,omitempty"` // request command or event name
	Args    json.RawMessage `json:"args,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"` // response error (if any)
	TS      time.Time       `json:"ts,omitempty"`
}

func NewRequest(id, command string, args any) (Message, error) {
	msg := Message{
		Kind:    KindRequest,
		ID:      id,
		Command: command,
		TS:      time.Now().UTC(),
	}
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return Message{}, fmt.Errorf("marshal %s args: %w", command, err)
		}
		msg.Args = b
	}
	return msg, nil
}

func NewResponse(id string, result any, respErr error) (Message, error) {
	msg := Message{
		Kind: KindResponse,
		ID:   id,
		TS:   time.Now().UTC(),
	}
	if respErr != nil {
		msg.Error = respErr.Error()
		return msg, nil
	}
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return Message{}, err
		}
		msg.Result = b
	}
	return msg, nil
}

// NewEvent builds a notification; the event name travels in Command.
func NewEvent(name string) Message {
	return Message{
		Kind:    KindEvent,
		Command: name,
		TS:      time.Now().UTC(),
	}
}

// DecodeArgs unmarshals request args into v. Missing args leave v untouched.
func (m Message) DecodeArgs(v any) error {
	if len(m.Args) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.Args, v); err != nil {
		return fmt.Errorf("bad args for %s: %w", m.Command, err)
	}
	return nil
}

func (m Message) ValidateBasic() error {
	if m.Kind == "" {
		return fmt.Errorf("missing kind")
	}
	switch m.Kind {
	case KindRequest:
		if m.ID == "" {
			return fmt.Errorf("request missing id")
		}
		if m.Command == "" {
			return fmt.Errorf("request missing command")
		}
	case KindResponse:
		if m.ID == "" {
			return fmt.Errorf("response missing id")
		}
	case KindEvent:
		if m.Command == "" {
			return fmt.Errorf("event missing name")
		}
	default:
		return fmt.Errorf("unknown kind: %s", m.Kind)
	}
	return nil
}
