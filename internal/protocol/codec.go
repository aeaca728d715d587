package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownMessage is returned when the "type" tag names no known kind
	ErrUnknownMessage = errors.New("unknown message type")
	// ErrMalformedMessage is returned when a frame is not a tagged JSON object
	ErrMalformedMessage = errors.New("malformed message")
)

type envelope struct {
	Type string `json:"type"`
}

// Message is implemented by both client and server messages
type Message interface {
	Kind() string
}

// Encode renders msg as a JSON object whose "type" field holds its kind and
// whose remaining fields are the message's own.
func Encode(msg Message) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Kind(), err)
	}
	tag, err := json.Marshal(msg.Kind())
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Kind(), err)
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(tag) + 10)
	buf.WriteString(`{"type":`)
	buf.Write(tag)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeClient parses a frame received from a client
func DecodeClient(data []byte) (ClientMessage, error) {
	kind, err := peekKind(data)
	if err != nil {
		return nil, err
	}
	decode, ok := clientDecoders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, kind)
	}
	return decode(data)
}

// DecodeServer parses a frame received from the server
func DecodeServer(data []byte) (ServerMessage, error) {
	kind, err := peekKind(data)
	if err != nil {
		return nil, err
	}
	decode, ok := serverDecoders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, kind)
	}
	return decode(data)
}

func peekKind(data []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if env.Type == "" {
		return "", fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return env.Type, nil
}

func decodeAs[I any, T any](data []byte) (I, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		var zero I
		return zero, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return any(msg).(I), nil
}
