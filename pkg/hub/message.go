// Package hub fans session events out to websocket subscribers using a
// channel-based broadcast loop.
package hub

import (
	"encoding/json"
	"time"
)

// Envelope is the wire format of every frame sent to subscribers.
type Envelope struct {
	Type string          `json:"type"`
	Time time.Time       `json:"time"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Frame types.
const (
	TypeHello   = "hello"
	TypeSession = "session"
)

// Message is an encoded frame queued for delivery.
type Message struct {
	Data []byte
}

// Encode wraps v in an Envelope of the given type.
func Encode(typ string, v any) (Message, error) {
	env := Envelope{Type: typ, Time: time.Now().UTC()}
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return Message{}, err
		}
		env.Data = data
	}
	data, err := json.Marshal(env)
	if err != nil {
		return Message{}, err
	}
	return Message{Data: data}, nil
}
