package recordbot

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Recording keys follow <session-date-time>_<session-label>_<participant-label>.<ext>
// so recordings of one session group together when the catalog is
// sorted. The server never parses this format; grouping is a display
// concern.

const timeLayout = "2006-01-02T15-04-05"

var ErrEmptyLabel = errors.New("empty label")
var ErrLabelContainsSeparator = errors.New("label contains underscore separator")
var ErrMediaNotSupported = errors.New("media not supported")

func getMediaExtension(mimeType string) (string, error) {
	switch {
	case strings.EqualFold(mimeType, "audio/webm"):
		return "webm", nil
	case strings.EqualFold(mimeType, "audio/ogg"):
		return "ogg", nil
	case strings.EqualFold(mimeType, "audio/wav"), strings.EqualFold(mimeType, "audio/x-wav"):
		return "wav", nil
	case strings.EqualFold(mimeType, "audio/mpeg"):
		return "mp3", nil
	}
	return "", ErrMediaNotSupported
}

func getRecordingFilename(start time.Time, sessionLabel string, participantLabel string, mimeType string) (string, error) {
	if sessionLabel == "" || participantLabel == "" {
		return "", ErrEmptyLabel
	}
	if strings.Contains(sessionLabel, "_") || strings.Contains(participantLabel, "_") {
		return "", ErrLabelContainsSeparator
	}

	ext, err := getMediaExtension(mimeType)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s_%s_%s.%s", start.UTC().Format(timeLayout), sessionLabel, participantLabel, ext), nil
}
