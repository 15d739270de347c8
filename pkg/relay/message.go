package relay

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind identifies one of the bus topics. The set is closed; decoding
// anything else is an error.
type Kind string

const (
	KindFilesUpdated  Kind = "FILES_UPDATED"
	KindRecordCommand Kind = "RECORD_COMMAND"
	KindNameChange    Kind = "NAME_CHANGE"
)

// Action is the record command verb.
type Action string

const (
	ActionStart Action = "start"
	ActionStop  Action = "stop"
)

var (
	ErrUnknownKind   = errors.New("unknown message kind")
	ErrUnknownAction = errors.New("unknown record action")
)

// Message is the tagged union carried on the bus. Kind selects which
// of the remaining fields are meaningful.
type Message struct {
	Kind Kind

	// RECORD_COMMAND
	Action    Action
	Timestamp int64 // server epoch ms, set only when Action is start

	// NAME_CHANGE
	Participants map[string]string
}

// FilesUpdated signals that the recording catalog changed.
func FilesUpdated() Message {
	return Message{Kind: KindFilesUpdated}
}

// RecordStart carries the server reference timestamp every client
// aligns against.
func RecordStart(timestamp int64) Message {
	return Message{Kind: KindRecordCommand, Action: ActionStart, Timestamp: timestamp}
}

func RecordStop() Message {
	return Message{Kind: KindRecordCommand, Action: ActionStop}
}

// NameChange carries the full current snapshot, not a delta.
func NameChange(participants map[string]string) Message {
	return Message{Kind: KindNameChange, Participants: participants}
}

// envelope is the wire format: the kind tag plus a kind-specific
// payload object.
type envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type recordPayload struct {
	Action    Action `json:"action"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

type namePayload struct {
	Participants map[string]string `json:"participants"`
}

// Encode serializes the message to its wire envelope.
func Encode(msg Message) ([]byte, error) {
	env := envelope{Kind: msg.Kind}

	switch msg.Kind {
	case KindFilesUpdated:
		// No payload
	case KindRecordCommand:
		if msg.Action != ActionStart && msg.Action != ActionStop {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, msg.Action)
		}
		payload, err := json.Marshal(recordPayload{Action: msg.Action, Timestamp: msg.Timestamp})
		if err != nil {
			return nil, err
		}
		env.Payload = payload
	case KindNameChange:
		payload, err := json.Marshal(namePayload{Participants: msg.Participants})
		if err != nil {
			return nil, err
		}
		env.Payload = payload
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, msg.Kind)
	}

	return json.Marshal(env)
}

// Decode parses a wire envelope back into a message, rejecting
// anything outside the closed union.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, err
	}

	switch env.Kind {
	case KindFilesUpdated:
		return FilesUpdated(), nil

	case KindRecordCommand:
		var payload recordPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return Message{}, err
		}
		if payload.Action != ActionStart && payload.Action != ActionStop {
			return Message{}, fmt.Errorf("%w: %q", ErrUnknownAction, payload.Action)
		}
		return Message{Kind: KindRecordCommand, Action: payload.Action, Timestamp: payload.Timestamp}, nil

	case KindNameChange:
		var payload namePayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return Message{}, err
		}
		return NameChange(payload.Participants), nil

	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
}
