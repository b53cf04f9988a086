package ffmpeg

import (
	"errors"
	"fmt"
)

// ErrFFmpegNotFound is returned when the configured binary cannot be resolved
var ErrFFmpegNotFound = errors.New("ffmpeg binary not found")

// TranscodeError reports a failed or unstartable ffmpeg run
type TranscodeError struct {
	Input    string
	ExitCode int    // -1 when the process never produced an exit status
	Stderr   string // tail of ffmpeg's stderr
	Err      error
}

func (e *TranscodeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("ffmpeg transcode failed for %s (exit code %d): %v (stderr: %s)", e.Input, e.ExitCode, e.Err, e.Stderr)
	}
	return fmt.Sprintf("ffmpeg transcode failed for %s (exit code %d): %v", e.Input, e.ExitCode, e.Err)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}
