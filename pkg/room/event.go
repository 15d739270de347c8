package room

import "github.com/dreamcatcher-tech/recorder/pkg/relay"

// Event is the client-facing shape pushed on the live stream. Kind
// selects which optional fields are present.
type Event struct {
	Kind         string            `json:"kind"`
	Action       string            `json:"action,omitempty"`
	Timestamp    int64             `json:"timestamp,omitempty"`
	Participants map[string]string `json:"participants,omitempty"`
}

const (
	EventFilesUpdated  = "files-updated"
	EventRecordCommand = "record-command"
	EventNameChange    = "name-change"
)

// eventFromMessage converts a bus message to its client event. This is
// the single place the relay union is consumed, so the switch must
// stay exhaustive.
func eventFromMessage(msg relay.Message) (Event, bool) {
	switch msg.Kind {
	case relay.KindFilesUpdated:
		return Event{Kind: EventFilesUpdated}, true
	case relay.KindRecordCommand:
		return Event{
			Kind:      EventRecordCommand,
			Action:    string(msg.Action),
			Timestamp: msg.Timestamp,
		}, true
	case relay.KindNameChange:
		return Event{
			Kind:         EventNameChange,
			Participants: msg.Participants,
		}, true
	}
	return Event{}, false
}
