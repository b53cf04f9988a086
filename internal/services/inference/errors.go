package inference

import (
	"errors"
	"fmt"
)

// ErrEmptyDepthVideo is returned when the service answers without a depth video
var ErrEmptyDepthVideo = errors.New("response contained no depth video")

// InferenceError is any failure talking to the depth service. Callers do not retry.
type InferenceError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *InferenceError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err == nil:
		if e.Body != "" {
			return fmt.Sprintf("depth inference %s: status %d: %s", e.Op, e.StatusCode, e.Body)
		}
		return fmt.Sprintf("depth inference %s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("depth inference %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("depth inference %s failed", e.Op)
	}
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}
