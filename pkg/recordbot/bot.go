package recordbot

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/lithammer/shortuuid/v4"

	"github.com/dreamcatcher-tech/recorder/pkg/room"
)

// Bot is a headless room client: it listens on the live event stream
// and obeys record commands, capturing audio locally and uploading the
// result keyed by the server's reference timestamp.
//
// The server's start timestamp is remembered for upload metadata only;
// local capture begins as soon as the command arrives, so network and
// scheduling latency between the two is not compensated for.
type Bot interface {
	// Run consumes the event stream until it closes or ctx is
	// cancelled. The bot announces its name once the stream is open.
	Run(ctx context.Context) error

	// RequestStart asks the server to broadcast a start command. The
	// bot optimistically moves idle -> pending; a request failure
	// reverts to idle.
	RequestStart(ctx context.Context) error

	// RequestStop asks the server to broadcast a stop command.
	RequestStop(ctx context.Context) error

	// AnnounceName publishes the bot's display name to the registry.
	AnnounceName(ctx context.Context) error

	State() State
}

type Hooks struct {
	OnFilesUpdated func()
	OnParticipants func(participants map[string]string)
}

type Config struct {
	ServerURL    string
	Name         string
	SessionLabel string
	Capturer     Capturer
	Hooks        *Hooks
}

var ErrEmptyServerURL = errors.New("empty server URL")
var ErrNilCapturer = errors.New("capturer is required")
var ErrNotIdle = errors.New("a start request is already in flight or recording")

type bot struct {
	id     string
	config Config
	client *http.Client

	lock           sync.Mutex
	state          State
	handle         CaptureHandle
	startTimestamp int64
}

func NewBot(config Config) (Bot, error) {
	if config.ServerURL == "" {
		return nil, ErrEmptyServerURL
	}
	if config.Capturer == nil {
		return nil, ErrNilCapturer
	}
	return &bot{
		id:     shortuuid.New(),
		config: config,
		client: &http.Client{},
		state:  StateIdle,
	}, nil
}

func (b *bot) State() State {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.state
}

func (b *bot) Run(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.config.ServerURL+"/events", nil)
	if err != nil {
		return err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status opening event stream: %d", resp.StatusCode)
	}

	if err = b.AnnounceName(ctx); err != nil {
		log.Warnf("cannot announce name | error: %v, name: %s", err, b.config.Name)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		b.handleFrame(ctx, strings.TrimPrefix(line, "data: "))
	}
	if ctx.Err() != nil {
		return nil
	}
	return scanner.Err()
}

func (b *bot) handleFrame(ctx context.Context, frame string) {
	var event room.Event
	if err := json.Unmarshal([]byte(frame), &event); err != nil {
		log.Warnf("dropping malformed event | error: %v", err)
		return
	}

	switch event.Kind {
	case room.EventRecordCommand:
		if event.Action == "start" {
			b.beginCapture(event.Timestamp)
		} else {
			b.finishCapture(ctx)
		}
	case room.EventFilesUpdated:
		if b.config.Hooks != nil && b.config.Hooks.OnFilesUpdated != nil {
			b.config.Hooks.OnFilesUpdated()
		}
	case room.EventNameChange:
		if b.config.Hooks != nil && b.config.Hooks.OnParticipants != nil {
			b.config.Hooks.OnParticipants(event.Participants)
		}
	default:
		log.Warnf("dropping event of unknown kind | kind: %s", event.Kind)
	}
}

func (b *bot) beginCapture(timestamp int64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	// Duplicate start commands are broadcast independently; the local
	// pipeline only runs one capture at a time
	if b.state == StateRecording {
		return
	}

	handle, err := b.config.Capturer.StartCapture()
	if err != nil {
		log.Errorf("cannot start capture | error: %v", err)
		b.state = StateIdle
		return
	}

	b.handle = handle
	b.startTimestamp = timestamp
	b.state = StateRecording
}

func (b *bot) finishCapture(ctx context.Context) {
	b.lock.Lock()
	if b.state != StateRecording {
		// A stop always lands the bot in idle, even mid-pending
		b.state = StateIdle
		b.lock.Unlock()
		return
	}
	handle := b.handle
	startTimestamp := b.startTimestamp
	b.handle = nil
	b.state = StateIdle
	b.lock.Unlock()

	recording, err := b.config.Capturer.StopCapture(handle)
	if err != nil {
		log.Errorf("cannot stop capture | error: %v", err)
		return
	}

	if err = b.upload(ctx, recording, startTimestamp); err != nil {
		log.Errorf("cannot upload recording | error: %v", err)
		return
	}
	log.Infof("uploaded recording | session: %s, start: %d", b.config.SessionLabel, startTimestamp)
}

func (b *bot) RequestStart(ctx context.Context) error {
	b.lock.Lock()
	if b.state != StateIdle {
		b.lock.Unlock()
		return ErrNotIdle
	}
	b.state = StatePending
	b.lock.Unlock()

	err := b.postJSON(ctx, "/broadcast-record", map[string]string{"action": "start"})
	if err != nil {
		// Revert the optimistic transition
		b.lock.Lock()
		if b.state == StatePending {
			b.state = StateIdle
		}
		b.lock.Unlock()
		return err
	}
	return nil
}

func (b *bot) RequestStop(ctx context.Context) error {
	return b.postJSON(ctx, "/broadcast-record", map[string]string{"action": "stop"})
}

func (b *bot) AnnounceName(ctx context.Context) error {
	return b.postJSON(ctx, "/name-change", map[string]string{"id": b.id, "name": b.config.Name})
}

func (b *bot) postJSON(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.config.ServerURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status from %s: %d", path, resp.StatusCode)
	}
	return nil
}

func (b *bot) upload(ctx context.Context, recording Recording, startTimestamp int64) error {
	label := b.config.Name
	if label == "" {
		label = b.id
	}
	filename, err := getRecordingFilename(time.UnixMilli(startTimestamp), b.config.SessionLabel, label, recording.MimeType)
	if err != nil {
		return err
	}

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", recording.MimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err = part.Write(recording.Data); err != nil {
		return err
	}
	if err = writer.WriteField("startTimestamp", strconv.FormatInt(startTimestamp, 10)); err != nil {
		return err
	}
	if err = writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.config.ServerURL+"/upload", body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status from /upload: %d", resp.StatusCode)
	}
	return nil
}
