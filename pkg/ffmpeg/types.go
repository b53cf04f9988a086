package ffmpeg

// Options are the fixed encoder settings applied to every transcode
type Options struct {
	Codec  string
	Preset string
	CRF    int
}

// DefaultOptions produce H.264 MP4 output playable in browsers
func DefaultOptions() Options {
	return Options{
		Codec:  "libx264",
		Preset: "medium",
		CRF:    23,
	}
}

// maxStderr bounds how much ffmpeg output is kept for error reports
const maxStderr = 4096
