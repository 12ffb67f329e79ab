package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorKind classifies why an inbound frame was rejected.
type ErrorKind int

const (
	// KindMalformedMessage covers unparseable frames, unknown type
	// discriminants and missing required fields.
	KindMalformedMessage ErrorKind = iota
	// KindValidationError covers frames that parsed into a known variant
	// but violate a field constraint.
	KindValidationError
)

// ProtocolError is the typed rejection produced by the codec. Fields
// names the offending fields when the kind is KindValidationError.
type ProtocolError struct {
	Kind   ErrorKind
	Fields []string
	cause  error
}

func (e *ProtocolError) Error() string {
	switch e.Kind {
	case KindValidationError:
		return fmt.Sprintf("validation failed on fields: %s", strings.Join(e.Fields, ", "))
	default:
		if e.cause != nil {
			return fmt.Sprintf("malformed message: %v", e.cause)
		}
		return "malformed message"
	}
}

func (e *ProtocolError) Unwrap() error { return e.cause }

func malformed(cause error) *ProtocolError {
	return &ProtocolError{Kind: KindMalformedMessage, cause: cause}
}

type envelope struct {
	Type string `json:"type"`
}

// DecodeClient parses one inbound text frame into exactly one of the
// three client variants and validates its field constraints. There is no
// partial decoding: any failure rejects the whole frame.
func DecodeClient(data []byte) (ClientMessage, *ProtocolError) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, malformed(err)
	}

	var msg ClientMessage
	switch env.Type {
	case TypeJoin:
		var m Join
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, malformed(err)
		}
		msg = m
	case TypeUpdate:
		var m Update
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, malformed(err)
		}
		msg = m
	case TypeChat:
		var m Chat
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, malformed(err)
		}
		msg = m
	default:
		return nil, malformed(fmt.Errorf("unknown message type %q", env.Type))
	}

	if perr := validateMessage(msg); perr != nil {
		return nil, perr
	}
	return msg, nil
}

// DecodeServer parses an outbound frame back into its variant. Used by
// tests and by client tooling; the server itself only encodes.
func DecodeServer(data []byte) (ServerMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	var msg ServerMessage
	var err error
	switch env.Type {
	case TypeWelcome:
		var m Welcome
		err = json.Unmarshal(data, &m)
		msg = m
	case TypePlayerJoined:
		var m PlayerJoined
		err = json.Unmarshal(data, &m)
		msg = m
	case TypePlayerLeft:
		var m PlayerLeft
		err = json.Unmarshal(data, &m)
		msg = m
	case TypePlayerUpdate:
		var m PlayerUpdate
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeChatMessage:
		var m ChatMessage
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeError:
		var m Error
		err = json.Unmarshal(data, &m)
		msg = m
	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// EncodeServer serializes an outbound frame with its type discriminant.
func EncodeServer(m ServerMessage) ([]byte, error) {
	return encodeTagged(m.messageType(), m)
}

// EncodeClient serializes an inbound frame. The server never calls this;
// it exists for tests and client tooling.
func EncodeClient(m ClientMessage) ([]byte, error) {
	return encodeTagged(m.messageType(), m)
}

// encodeTagged marshals v as a JSON object and splices the "type" field
// in front of its members.
func encodeTagged(tag string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	head, err := json.Marshal(envelope{Type: tag})
	if err != nil {
		return nil, err
	}
	if len(body) <= 2 {
		// Variant without fields.
		return head, nil
	}
	out := make([]byte, 0, len(head)+len(body))
	out = append(out, head[:len(head)-1]...)
	out = append(out, ',')
	out = append(out, body[1:]...)
	return out, nil
}
