package env

import (
	"errors"
	"fmt"
)

// ErrSetupFailure matches any *SetupError.
var ErrSetupFailure = errors.New("setup failure")

// Stage is the Setup step that failed.
type Stage string

// Setup stages.
const (
	StageArtifact Stage = "artifact"
	StageIdentity Stage = "identity"
	StageConnect  Stage = "connect"
	StageActor    Stage = "actor"
	StageDeploy   Stage = "deploy"
)

// SetupError is returned when the environment can't be prepared.
type SetupError struct {
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *SetupError) Error() string {
	return fmt.Sprintf("%s: %s stage: %v", ErrSetupFailure, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *SetupError) Unwrap() error {
	return e.Err
}

// Is makes any SetupError match ErrSetupFailure.
func (e *SetupError) Is(target error) bool {
	return target == ErrSetupFailure
}
