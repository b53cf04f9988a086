package models

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// CurrentAnnotationVersion is the schema version written with every annotation update
const CurrentAnnotationVersion = 1

var emptyJSONArray = []byte("[]")

// Annotation is the tracking data attached to a video
type Annotation struct {
	SchemaVersion     int             `json:"schemaVersion"`
	TrackedObjects    []TrackedObject `json:"objects"`
	CalibrationPoints datatypes.JSON  `json:"calibrationPoints"`
	CompiledTracking  datatypes.JSON  `json:"compiledTracking"`
}

// TrackedObject is one object followed across frames. Order in the slice is display order.
type TrackedObject struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Color     string        `json:"color"`
	AutoTrack *AutoTrackRef `json:"autoTrack,omitempty"`
	Keyframes []Keyframe    `json:"tracking"`
}

// AutoTrackRef records that an object's keyframes were seeded by an automated tracking run
type AutoTrackRef struct {
	VideoID     string `json:"videoId"`
	TotalFrames int    `json:"totalFrames"`
}

// Keyframe is the position of a tracked object at one frame
type Keyframe struct {
	FrameNumber int      `json:"frameNumber"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Z           *float64 `json:"z,omitempty"`
}

// ValidateTrackedObjects checks object ids and keyframe numbering
func ValidateTrackedObjects(objects []TrackedObject) error {
	seen := make(map[string]struct{}, len(objects))
	for i, obj := range objects {
		if obj.ID == "" {
			return fmt.Errorf("object %d: id is required", i)
		}
		if _, dup := seen[obj.ID]; dup {
			return fmt.Errorf("object %q: duplicate id", obj.ID)
		}
		seen[obj.ID] = struct{}{}

		if obj.AutoTrack != nil && obj.AutoTrack.TotalFrames < 0 {
			return fmt.Errorf("object %q: autoTrack.totalFrames must not be negative", obj.ID)
		}

		frames := make(map[int]struct{}, len(obj.Keyframes))
		for _, kf := range obj.Keyframes {
			if kf.FrameNumber < 0 {
				return fmt.Errorf("object %q: frame %d must not be negative", obj.ID, kf.FrameNumber)
			}
			if _, dup := frames[kf.FrameNumber]; dup {
				return fmt.Errorf("object %q: duplicate keyframe for frame %d", obj.ID, kf.FrameNumber)
			}
			frames[kf.FrameNumber] = struct{}{}
		}
	}
	return nil
}

// ValidateCalibrationPoints only requires a JSON array; the points themselves are opaque
func ValidateCalibrationPoints(raw json.RawMessage) error {
	var points []json.RawMessage
	if err := json.Unmarshal(raw, &points); err != nil {
		return fmt.Errorf("calibrationPoints must be a JSON array: %w", err)
	}
	return nil
}
