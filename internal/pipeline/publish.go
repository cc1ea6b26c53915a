package pipeline

import (
	"context"

	"github2file/internal/artifact"
	artifactrepo "github2file/internal/repository/artifact"
)

// Publish renders a and stores it under name for the run. Render failures are
// StageRender errors; storage failures are StageSink errors.
func Publish(ctx context.Context, store artifactrepo.Store, runID, name string, a *artifact.Artifact, f artifact.Format) (string, error) {
	data, err := artifact.Render(a, f)
	if err != nil {
		return "", stageErr(StageRender, err)
	}
	loc, err := store.Put(ctx, runID, name, data)
	if err != nil {
		return "", stageErr(StageSink, err)
	}
	return loc, nil
}
