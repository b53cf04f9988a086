package depth

import (
	"fmt"

	"github.com/killallgit/depthtrack-api/internal/models"
	apperrors "github.com/killallgit/depthtrack-api/pkg/errors"
)

// Pipeline stages, in run order
const (
	StageOpen      = "open"
	StageInference = "inference"
	StageWrite     = "write"
	StageTranscode = "transcode"
	StageStore     = "store"
	StageFinalize  = "finalize"
)

// StageError is a pipeline failure tagged with the stage that produced it
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// jobError classifies a stage failure for the job row
func (e *StageError) jobError() *models.StructuredJobError {
	errType := models.ErrorTypeStorage
	switch e.Stage {
	case StageInference:
		errType = models.ErrorTypeInference
	case StageTranscode:
		errType = models.ErrorTypeTranscode
	}
	return models.NewJobError(errType, e.Stage+"_failed", e.Error(), apperrors.PipelineError(e.Stage, e.Err))
}
