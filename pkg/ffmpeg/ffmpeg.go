package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// FFmpeg supervises ffmpeg processes that re-encode derived videos
type FFmpeg struct {
	ffmpegPath string
	opts       Options
}

// New creates a new FFmpeg instance; zero-valued options fall back to DefaultOptions
func New(ffmpegPath string, opts Options) *FFmpeg {
	def := DefaultOptions()
	if opts.Codec == "" {
		opts.Codec = def.Codec
	}
	if opts.Preset == "" {
		opts.Preset = def.Preset
	}
	if opts.CRF <= 0 {
		opts.CRF = def.CRF
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpeg{ffmpegPath: ffmpegPath, opts: opts}
}

// ValidateBinaries checks that ffmpeg is available
func (f *FFmpeg) ValidateBinaries() error {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, f.ffmpegPath)
	}
	return nil
}

// Args returns the ffmpeg argument list for one transcode
func (f *FFmpeg) Args(input, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-c:v", f.opts.Codec,
		"-preset", f.opts.Preset,
		"-crf", strconv.Itoa(f.opts.CRF),
		"-movflags", "+faststart",
		output,
	}
}

// OutputPath is where Transcode writes the re-encoded copy of input
func OutputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + "-web.mp4"
}

// Transcode re-encodes input into a web-friendly MP4 next to it and returns the output path.
// The input file is removed whatever the outcome; on failure no output file is left behind.
func (f *FFmpeg) Transcode(ctx context.Context, input string) (string, error) {
	defer os.Remove(input)

	output := OutputPath(input)
	cmd := exec.CommandContext(ctx, f.ffmpegPath, f.Args(input, output)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(output)

		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return "", &TranscodeError{
			Input:    input,
			ExitCode: exitCode,
			Stderr:   tail(stderr.String(), maxStderr),
			Err:      err,
		}
	}

	return output, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
