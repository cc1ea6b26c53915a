package artifact

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleArtifact() *Artifact {
	return &Artifact{
		SchemaVersion: SchemaVersion,
		Metadata: RepositoryMetadata{
			RunID:            "4f1c2e1a-0000-4000-8000-000000000001",
			RepositoryURL:    "https://github.com/acme/widgets",
			Ref:              "main",
			AnalysisDate:     "2026-01-02T03:04:05Z",
			GeneratorVersion: "1.0",
			PlanningModel:    "plan-model",
			ExecutionModel:   "exec-model",
			FileCount:        4,
			TotalBytes:       1234,
		},
		Graph: DependencyGraph{
			Nodes: []string{"README.md", "a.py", "b.py", "blob.bin"},
			Edges: []DependencyEdge{
				{From: "a.py", To: "b.py", Kind: EdgeImport},
				{From: "b.py", To: "a.py", Kind: EdgeReference},
			},
		},
		CriticalPaths: []CriticalPath{{Length: 1, TotalBytes: 30, Paths: []string{"a.py", "b.py"}}},
		Cycles:        []Cycle{{Paths: []string{"a.py", "b.py"}}},
		Plan: AnalysisPlan{
			"README.md": {Disposition: DispositionSkip},
			"a.py":      {Disposition: DispositionCompress, Hint: "entry point <main> & flags"},
			"b.py":      {Disposition: DispositionCompress},
			"blob.bin":  {Disposition: DispositionKeep},
		},
		CompressionEntries: []CompressionEntry{
			{Path: "a.py", RecreationPrompt: "Write a CLI that\n  parses flags\r\nand calls b.", SourceDigest: "sha256:aa", Status: StatusDone},
			{Path: "b.py", SourceDigest: "sha256:bb", Status: StatusFailed, Error: "backend: status 503"},
		},
		PreservedContent: []PreservedFile{
			NewPreservedFile("b.py", PreservedCompressionFailed, []byte("  import a\n\tx = 1 < 2\n")),
			NewPreservedFile("blob.bin", PreservedKept, []byte{0x00, 0xff, 0x10}),
		},
		VerbatimFallbacks: []Fallback{{Path: "b.py", Reason: "backend: status 503"}},
		RecoveryGuide:     []string{"to recreate `a.py`, use prompt `Write a CLI`; verify by checking conformance with dependents `b.py`."},
		Warnings:          []string{"graph too complex"},
	}
}

func TestRenderRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatXML, FormatYAML} {
		t.Run(string(f), func(t *testing.T) {
			want := sampleArtifact()
			data, err := Render(want, f)
			require.NoError(t, err)

			got, err := Decode(data, f)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestRenderRoundTripMinimal(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatXML, FormatYAML} {
		t.Run(string(f), func(t *testing.T) {
			want := &Artifact{
				SchemaVersion: SchemaVersion,
				Metadata:      RepositoryMetadata{RunID: "r", AnalysisDate: "d", GeneratorVersion: "1.0"},
			}
			data, err := Render(want, f)
			require.NoError(t, err)
			got, err := Decode(data, f)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestXMLAndJSONDecodeToSameArtifact(t *testing.T) {
	a := sampleArtifact()
	x, err := Render(a, FormatXML)
	require.NoError(t, err)
	j, err := Render(a, FormatJSON)
	require.NoError(t, err)

	fromXML, err := Decode(x, FormatXML)
	require.NoError(t, err)
	fromJSON, err := Decode(j, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, fromJSON, fromXML)
}

func TestRenderRejectsBrokenInvariants(t *testing.T) {
	a := sampleArtifact()
	a.Graph.Edges = append(a.Graph.Edges, DependencyEdge{From: "a.py", To: "missing.py", Kind: EdgeImport})

	_, err := Render(a, FormatJSON)
	var se *SerializationError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, FormatJSON, se.Format)

	a = sampleArtifact()
	a.CompressionEntries = append(a.CompressionEntries, CompressionEntry{Path: "blob.bin", Status: StatusDone})
	_, err = Render(a, FormatXML)
	assert.True(t, errors.As(err, &se))
}

func TestPreservedFileEncoding(t *testing.T) {
	text := NewPreservedFile("a.txt", PreservedKept, []byte("hello\n"))
	assert.Equal(t, EncodingUTF8, text.Encoding)

	bin := NewPreservedFile("b.bin", PreservedKept, []byte{0xff, 0xfe})
	assert.Equal(t, EncodingBase64, bin.Encoding)
	raw, err := bin.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xfe}, raw)

	ctrl := NewPreservedFile("c.txt", PreservedKept, []byte("a\x01b"))
	assert.Equal(t, EncodingBase64, ctrl.Encoding)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatXML, f)

	f, err = ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("toml")
	assert.Error(t, err)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "ab\n", CleanText("a\x00b\n"))
	assert.Equal(t, "plain", CleanText("plain"))
}

func TestXMLElementsFollowJSONKeys(t *testing.T) {
	a := sampleArtifact()
	js, err := Render(a, FormatJSON)
	require.NoError(t, err)
	xs, err := Render(a, FormatXML)
	require.NoError(t, err)
	x := string(xs)

	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(js, &top))
	for key := range top {
		assert.Contains(t, x, "<"+key+">", key)
	}

	// lists are a wrapper named like the JSON key holding one element per item
	assert.Contains(t, x, "<nodes>")
	assert.Contains(t, x, "<edges>")
	assert.Equal(t, 2, strings.Count(x, "<paths>"))
	assert.Contains(t, x, "<path>a.py</path>")
	assert.Contains(t, x, `<critical_path length="1" total_bytes="30">`)
}
