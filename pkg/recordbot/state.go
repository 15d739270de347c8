package recordbot

// State is the bot's recording state. The optimistic transition to
// pending gives immediate feedback that a start request went out, while
// recording is only shown once the server's start command has actually
// begun local capture.
type State string

const (
	StateIdle      State = "idle"
	StatePending   State = "pending"
	StateRecording State = "recording"
)
