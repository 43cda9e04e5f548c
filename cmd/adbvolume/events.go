package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ============================================================================
// Press events
// ============================================================================
// Every shell (window buttons, web panel, evdev keys, IPC) turns its input
// into a Press and hands it to the event loop. The loop answers each Press
// with an Outcome.
// ============================================================================

// Direction selects which bridge command a press runs.
type Direction int

const (
	DirectionUp   Direction = 1
	DirectionDown Direction = -1
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection accepts "up"/"down" and a few aliases.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "+", "volume-up", "volume+":
		return DirectionUp, nil
	case "down", "-", "volume-down", "volume-":
		return DirectionDown, nil
	default:
		return 0, fmt.Errorf("invalid direction %q (must be up or down)", s)
	}
}

func (d Direction) MarshalJSON() ([]byte, error) {
	if d != DirectionUp && d != DirectionDown {
		return nil, fmt.Errorf("marshal direction: invalid value %d", int(d))
	}
	return json.Marshal(d.String())
}

func (d *Direction) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("direction must be a string: %w", err)
	}
	parsed, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Source names where a press came from.
type Source string

const (
	SourceWindow Source = "window"
	SourcePanel  Source = "panel"
	SourceKeys   Source = "keys"
	SourceIPC    Source = "ipc"
)

// Press is a request to change volume once.
type Press struct {
	Direction Direction `json:"direction"`
	Source    Source    `json:"source,omitempty"`
}

// Outcome is the event loop's verdict on a press.
type Outcome struct {
	Press    Press
	Accepted bool
	At       time.Time
}

// ============================================================================
// JSON envelope (IPC and panel wire format)
// ============================================================================

// MessageEnvelope wraps a message with a type discriminator.
type MessageEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const msgTypePress = "press"

// UnmarshalPress decodes a {"type":"press","data":{...}} envelope.
func UnmarshalPress(data []byte) (Press, error) {
	var env MessageEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Press{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case msgTypePress:
		if len(env.Data) == 0 {
			return Press{}, fmt.Errorf("unmarshal press: missing data")
		}
		var p Press
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return Press{}, fmt.Errorf("unmarshal press: %w", err)
		}
		return p, nil

	default:
		return Press{}, fmt.Errorf("unknown message type: %q", env.Type)
	}
}

// MarshalPress encodes p as a press envelope.
func MarshalPress(p Press) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal press: %w", err)
	}
	return json.Marshal(MessageEnvelope{Type: msgTypePress, Data: data})
}
