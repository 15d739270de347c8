package recordbot

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/lithammer/shortuuid/v4"
)

// CaptureHandle identifies one in-progress capture. Opaque to the bot;
// only the Capturer that issued it can interpret it.
type CaptureHandle interface{}

// Recording is the encoded blob a finished capture yields.
type Recording struct {
	MimeType string
	Data     []byte
}

// Capturer is the local audio capture pipeline. The bot treats it as
// an opaque capability: start returns a handle, stop turns the handle
// into an encoded blob.
type Capturer interface {
	StartCapture() (CaptureHandle, error)
	StopCapture(handle CaptureHandle) (Recording, error)
}

var ErrFFmpegNotFound = errors.New("ffmpeg not found in PATH")
var ErrUnknownHandle = errors.New("unknown capture handle")

// ffmpegCapturer records the default input device to a temporary file
// via ffmpeg and returns its bytes on stop.
type ffmpegCapturer struct {
	inputFormat string
	inputDevice string
}

type ffmpegCapture struct {
	cmd  *exec.Cmd
	path string
}

// NewFFmpegCapturer creates a Capturer shelling out to ffmpeg. The
// input format and device are platform-specific, e.g. "avfoundation" /
// ":default" on macOS or "pulse" / "default" on Linux.
func NewFFmpegCapturer(inputFormat string, inputDevice string) (Capturer, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, ErrFFmpegNotFound
	}
	return &ffmpegCapturer{inputFormat, inputDevice}, nil
}

func (f *ffmpegCapturer) StartCapture() (CaptureHandle, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("%s.wav", shortuuid.New()))
	cmd := exec.Command("ffmpeg",
		"-f", f.inputFormat,
		"-i", f.inputDevice,
		"-ac", "1",
		"-ar", "16000",
		"-loglevel", "error",
		"-y", path)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &ffmpegCapture{cmd, path}, nil
}

func (f *ffmpegCapturer) StopCapture(handle CaptureHandle) (Recording, error) {
	capture, ok := handle.(*ffmpegCapture)
	if !ok {
		return Recording{}, ErrUnknownHandle
	}

	// Ask ffmpeg to finalise the file; it exits non-zero on interrupt,
	// which is not a failure here
	if err := capture.cmd.Process.Signal(os.Interrupt); err != nil {
		return Recording{}, err
	}
	if err := capture.cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Recording{}, err
		}
	}

	data, err := os.ReadFile(capture.path)
	if err != nil {
		return Recording{}, err
	}
	os.Remove(capture.path)

	return Recording{MimeType: "audio/wav", Data: data}, nil
}
