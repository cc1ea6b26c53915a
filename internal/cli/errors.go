// Package cli holds the exit codes and output naming shared by the github2file commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github2file/internal/artifact"
	"github2file/internal/pipeline"
	"github2file/internal/scan"
	"github2file/internal/workers/plan"
)

const (
	ExitSuccess       = 0
	ExitGeneral       = 1
	ExitConfig        = 2
	ExitIngestion     = 3
	ExitPlanning      = 4
	ExitSerialization = 5
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ConfigError creates an ExitError with ExitConfig code.
func ConfigError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitConfig, Message: msg, Err: err}
}

// GeneralError creates an ExitError with ExitGeneral code.
func GeneralError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitGeneral, Message: msg, Err: err}
}

// RunError turns a pipeline failure into an ExitError whose message names
// the stage that failed.
func RunError(err error) *ExitError {
	if err == nil {
		return nil
	}
	var se *pipeline.StageError
	if !errors.As(err, &se) {
		return GeneralError("run failed", err)
	}
	msg := fmt.Sprintf("%s stage failed", se.Stage)
	return &ExitError{Code: stageCode(se), Message: msg, Err: se.Err}
}

func stageCode(se *pipeline.StageError) int {
	var ie *scan.IngestionError
	var pe *plan.PlanParseError
	var ser *artifact.SerializationError
	switch {
	case se.Stage == pipeline.StageIngest || errors.As(se.Err, &ie):
		return ExitIngestion
	case se.Stage == pipeline.StagePlan || errors.As(se.Err, &pe):
		return ExitPlanning
	case se.Stage == pipeline.StageRender || errors.As(se.Err, &ser):
		return ExitSerialization
	}
	return ExitGeneral
}

// Code returns the process exit code for err.
func Code(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var se *pipeline.StageError
	if errors.As(err, &se) {
		return stageCode(se)
	}
	return ExitGeneral
}

// Report prints err to w and returns its exit code.
func Report(w io.Writer, err error) int {
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintln(w, "Error:", err)
	return Code(err)
}

// ExitWithError prints the error and exits with the appropriate code.
func ExitWithError(err error) {
	os.Exit(Report(os.Stderr, err))
}
