package videos

import "errors"

var (
	ErrVideoNotFound = errors.New("video not found")
	// ErrGenerationInProgress is returned when a depth run is already active for the video
	ErrGenerationInProgress = errors.New("depth generation already in progress")
	// ErrNotGenerating is returned when a run tries to finish on a video that is no longer generating
	ErrNotGenerating = errors.New("video is not generating depth")
)
