package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortEdgesDedupsAndDropsSelfEdges(t *testing.T) {
	in := []DependencyEdge{
		{From: "b", To: "c", Kind: EdgeImport},
		{From: "a", To: "b", Kind: EdgeImport},
		{From: "a", To: "a", Kind: EdgeImport},
		{From: "b", To: "c", Kind: EdgeImport},
		{From: "a", To: "b", Kind: EdgeReference},
	}
	got := SortEdges(in)
	assert.Equal(t, []DependencyEdge{
		{From: "a", To: "b", Kind: EdgeImport},
		{From: "a", To: "b", Kind: EdgeReference},
		{From: "b", To: "c", Kind: EdgeImport},
	}, got)
	assert.Nil(t, SortEdges(nil))
}

func TestOutgoingAndIncoming(t *testing.T) {
	g := DependencyGraph{
		Nodes: []string{"a", "b", "c"},
		Edges: []DependencyEdge{
			{From: "a", To: "b", Kind: EdgeImport},
			{From: "a", To: "b", Kind: EdgeReference},
			{From: "a", To: "c", Kind: EdgeImport},
			{From: "b", To: "c", Kind: EdgeImport},
		},
	}
	out := g.Outgoing()
	assert.Equal(t, []string{"b", "c"}, out["a"])
	assert.Nil(t, out["c"])
	assert.Contains(t, out, "c")

	in := g.Incoming()
	assert.Equal(t, []string{"a", "b"}, in["c"])
	assert.Equal(t, []string{"a"}, in["b"])
}

func TestParseDisposition(t *testing.T) {
	cases := map[string]Disposition{
		"keep-verbatim":   DispositionKeep,
		"KEEP":            DispositionKeep,
		"derive-compress": DispositionCompress,
		"compress":        DispositionCompress,
		" skip ":          DispositionSkip,
	}
	for in, want := range cases {
		got, err := ParseDisposition(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDisposition("shred")
	assert.Error(t, err)
}

func TestFileRecordPaths(t *testing.T) {
	r := NewFileRecord("./src\\a.py", []byte("x"), "python", false)
	assert.Equal(t, "src/a.py", r.Path)
	assert.Equal(t, int64(1), r.Size)
	assert.True(t, ValidPath(r.Path))
	assert.False(t, ValidPath("../a.py"))
	assert.False(t, ValidPath("/abs"))
	assert.Contains(t, r.Digest(), "sha256:")
}
