package plan

import (
	"context"
	"errors"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github2file/internal/artifact"
	"github2file/internal/llm"
	llmclient "github2file/internal/llmClient"
)

func rec(p string, n int) artifact.FileRecord {
	return artifact.NewFileRecord(p, make([]byte, n), "python", false)
}

func chainInput() Input {
	files := []artifact.FileRecord{rec("a.py", 10), rec("b.py", 20), rec("c.py", 30)}
	g := artifact.DependencyGraph{
		Nodes: []string{"a.py", "b.py", "c.py"},
		Edges: artifact.SortEdges([]artifact.DependencyEdge{
			{From: "a.py", To: "b.py", Kind: artifact.EdgeImport},
			{From: "b.py", To: "c.py", Kind: artifact.EdgeImport},
		}),
	}
	return Input{
		RepositoryURL: "https://github.com/o/r",
		Files:         files,
		Graph:         g,
		CriticalPaths: []artifact.CriticalPath{{Length: 2, TotalBytes: 60, Paths: []string{"a.py", "b.py", "c.py"}}},
	}
}

func TestParseNormalizes(t *testing.T) {
	in := chainInput()
	in.Files = append(in.Files, artifact.NewFileRecord("logo.png", []byte{0, 1}, "binary", true))
	in.Graph.Nodes = append(in.Graph.Nodes, "logo.png")

	raw := "```json\n" + `{
	  "groups": [{"paths": ["b.py", "c.py"], "disposition": "derive-compress", "hint": "helpers"}],
	  "files": [
	    {"path": "./c.py", "disposition": "keep-verbatim"},
	    {"path": "ghost.py", "disposition": "skip"},
	    {"path": "logo.png", "disposition": "compress"}
	  ]
	}` + "\n```"
	res, err := Parse(raw, in)
	require.NoError(t, err)

	assert.Equal(t, artifact.AnalysisPlan{
		"a.py":     {Disposition: artifact.DispositionKeep},
		"b.py":     {Disposition: artifact.DispositionCompress, Hint: "helpers"},
		"c.py":     {Disposition: artifact.DispositionKeep},
		"logo.png": {Disposition: artifact.DispositionKeep},
	}, res.Plan)
	assert.Equal(t, []string{
		`plan: ignoring unknown path "ghost.py"`,
		"plan: logo.png is binary; keeping it verbatim",
	}, res.Warnings)
}

func TestParsePromotesSkippedDependencies(t *testing.T) {
	res, err := Parse(`{"files":[{"path":"b.py","disposition":"skip"},{"path":"c.py","disposition":"skip"}]}`, chainInput())
	require.NoError(t, err)
	assert.Equal(t, artifact.DispositionKeep, res.Plan["a.py"].Disposition)
	assert.Equal(t, artifact.DispositionCompress, res.Plan["b.py"].Disposition)
	assert.Equal(t, artifact.DispositionCompress, res.Plan["c.py"].Disposition)
	assert.Equal(t, []string{
		"plan: b.py is needed by a.py; promoted from skip to compress",
		"plan: c.py is needed by b.py; promoted from skip to compress",
	}, res.Warnings)

	// a skipped dependent does not hold its dependencies
	res, err = Parse(`{"files":[{"path":"a.py","disposition":"skip"},{"path":"b.py","disposition":"skip"}]}`, chainInput())
	require.NoError(t, err)
	assert.Equal(t, artifact.DispositionSkip, res.Plan["a.py"].Disposition)
	assert.Equal(t, artifact.DispositionSkip, res.Plan["b.py"].Disposition)
	assert.Empty(t, res.Warnings)
}

func TestParseErrors(t *testing.T) {
	for _, raw := range []string{
		"I think you should keep everything.",
		`{"verdict": "keep"}`,
		`{"files": [{"path": "a.py", "disposition": "shred"}]}`,
		`{"files": "a.py"}`,
	} {
		_, err := Parse(raw, chainInput())
		var pe *PlanParseError
		require.True(t, errors.As(err, &pe), raw)
		assert.NotEmpty(t, pe.Raw)
	}
}

func TestPlanSendsOneRequest(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.Respond = func(_ context.Context, phase, prompt, model string) (string, error) {
		return `{"files":[{"path":"c.py","disposition":"derive-compress"}]}`, nil
	}
	logger, hook := logtest.NewNullLogger()
	p := &Planner{LLM: fake, Model: "planner-large", Logger: logger}

	res, err := p.Plan(context.Background(), chainInput())
	require.NoError(t, err)
	assert.Equal(t, []string{"c.py"}, res.Plan.With(artifact.DispositionCompress))

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "plan", calls[0].Phase)
	assert.Equal(t, "planner-large", calls[0].Model)
	assert.Contains(t, calls[0].Prompt, "a.py | python | 10 | 1 | 0")
	assert.Contains(t, calls[0].Prompt, "c.py | python | 30 | 0 | 1")
	assert.Contains(t, calls[0].Prompt, `"file_count": 3`)
	assert.Equal(t, "plan: analysis plan ready", hook.LastEntry().Message)
}

func TestPlanBackendFailure(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.Respond = func(context.Context, string, string, string) (string, error) {
		return "", &llmclient.BackendError{Provider: "fake", StatusCode: 500, Message: "boom"}
	}
	_, err := (&Planner{LLM: fake}).Plan(context.Background(), chainInput())
	var be *llmclient.BackendError
	assert.True(t, errors.As(err, &be))
}

func TestDryRunDoesNotCallBackend(t *testing.T) {
	fake := llm.NewFakeClient()
	p := &Planner{LLM: fake, Model: "m"}
	dr, err := p.DryRun(chainInput())
	require.NoError(t, err)
	assert.Equal(t, 0, len(fake.Calls()))
	assert.Contains(t, dr.Prompt, "[PURPOSE]")
	assert.Contains(t, dr.Prompt, "b.py | python | 20 | 1 | 1")
	assert.Contains(t, dr.ExpectedSchema, "- files (")
	assert.Contains(t, dr.ExpectedSchema, "derive-compress")

	prompt, err := p.Prompt(chainInput())
	require.NoError(t, err)
	assert.Equal(t, prompt, dr.Prompt)
}
