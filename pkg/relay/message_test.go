package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeFilesUpdatedHasNoPayload(t *testing.T) {
	data, err := Encode(FilesUpdated())
	require.NoError(t, err)
	require.JSONEq(t, `{"kind":"FILES_UPDATED"}`, string(data))
}

func TestEncodeRecordStartCarriesTimestamp(t *testing.T) {
	data, err := Encode(RecordStart(1700000000123))
	require.NoError(t, err)
	require.JSONEq(t, `{"kind":"RECORD_COMMAND","payload":{"action":"start","timestamp":1700000000123}}`, string(data))
}

func TestEncodeRecordStopOmitsTimestamp(t *testing.T) {
	data, err := Encode(RecordStop())
	require.NoError(t, err)
	require.JSONEq(t, `{"kind":"RECORD_COMMAND","payload":{"action":"stop"}}`, string(data))

	// The timestamp key must be absent entirely, not present as zero
	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &env))
	require.NotContains(t, string(env["payload"]), "timestamp")
}

func TestEncodeNameChangeCarriesSnapshot(t *testing.T) {
	data, err := Encode(NameChange(map[string]string{"u1": "Alice", "u2": "Bob"}))
	require.NoError(t, err)
	require.JSONEq(t, `{"kind":"NAME_CHANGE","payload":{"participants":{"u1":"Alice","u2":"Bob"}}}`, string(data))
}

func TestDecodeRoundTrip(t *testing.T) {
	messages := []Message{
		FilesUpdated(),
		RecordStart(42),
		RecordStop(),
		NameChange(map[string]string{"u1": "Alice"}),
	}

	for _, msg := range messages {
		data, err := Encode(msg)
		require.NoError(t, err)
		decoded, err := Decode(data)
		require.NoError(t, err)
		require.Equal(t, msg, decoded)
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, err := Decode([]byte(`{"kind":"SELF_DESTRUCT"}`))
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestDecodeRejectsUnknownAction(t *testing.T) {
	_, err := Decode([]byte(`{"kind":"RECORD_COMMAND","payload":{"action":"pause"}}`))
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestEncodeRejectsUnknownKind(t *testing.T) {
	_, err := Encode(Message{Kind: "NOT_A_KIND"})
	require.ErrorIs(t, err, ErrUnknownKind)
}
