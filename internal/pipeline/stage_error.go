package pipeline

import "fmt"

type Stage string

const (
	StageIngest   Stage = "ingest"
	StageGraph    Stage = "graph"
	StageAnalyze  Stage = "analyze"
	StagePlan     Stage = "plan"
	StageExecute  Stage = "execute"
	StageAssemble Stage = "assemble"
	StageRender   Stage = "render"
	StageSink     Stage = "sink"
)

// StageError names the stage a run failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(s Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: s, Err: err}
}
