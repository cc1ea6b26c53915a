package artifact

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"
	"unicode/utf8"
)

const SchemaVersion = "1.0"

type CompressionStatus string

const (
	StatusPending CompressionStatus = "pending"
	StatusDone    CompressionStatus = "done"
	StatusFailed  CompressionStatus = "failed"
)

type RepositoryMetadata struct {
	RunID            string `json:"run_id" xml:"run_id"`
	RepositoryURL    string `json:"repository_url,omitempty" xml:"repository_url,omitempty"`
	Ref              string `json:"ref,omitempty" xml:"ref,omitempty"`
	AnalysisDate     string `json:"analysis_date" xml:"analysis_date"`
	GeneratorVersion string `json:"generator_version" xml:"generator_version"`
	PlanningModel    string `json:"planning_model,omitempty" xml:"planning_model,omitempty"`
	ExecutionModel   string `json:"execution_model,omitempty" xml:"execution_model,omitempty"`
	FileCount        int    `json:"file_count" xml:"file_count"`
	TotalBytes       int64  `json:"total_bytes" xml:"total_bytes"`
}

type CompressionEntry struct {
	Path             string            `json:"path" xml:"path,attr"`
	RecreationPrompt string            `json:"recreation_prompt,omitempty" xml:"recreation_prompt,omitempty"`
	SourceDigest     string            `json:"source_digest" xml:"source_digest,attr"`
	Status           CompressionStatus `json:"status" xml:"status,attr"`
	Error            string            `json:"error,omitempty" xml:"error,omitempty"`
}

const (
	PreservedKept              = "keep"
	PreservedCompressionFailed = "compression_failed"

	EncodingUTF8   = "utf-8"
	EncodingBase64 = "base64"
)

// PreservedFile carries verbatim content. Content that is not valid UTF-8, or that
// XML cannot represent, is stored base64-encoded.
type PreservedFile struct {
	Path     string `json:"path" xml:"path,attr"`
	Reason   string `json:"reason" xml:"reason,attr"`
	Encoding string `json:"encoding" xml:"encoding,attr"`
	Content  string `json:"content" xml:",chardata"`
}

// NewPreservedFile picks the encoding for raw.
func NewPreservedFile(p, reason string, raw []byte) PreservedFile {
	if utf8.Valid(raw) && xmlSafe(string(raw)) {
		return PreservedFile{Path: p, Reason: reason, Encoding: EncodingUTF8, Content: string(raw)}
	}
	return PreservedFile{
		Path:     p,
		Reason:   reason,
		Encoding: EncodingBase64,
		Content:  base64.StdEncoding.EncodeToString(raw),
	}
}

// Bytes decodes Content back to the original file bytes.
func (f PreservedFile) Bytes() ([]byte, error) {
	switch f.Encoding {
	case EncodingBase64:
		return base64.StdEncoding.DecodeString(f.Content)
	case EncodingUTF8, "":
		return []byte(f.Content), nil
	}
	return nil, fmt.Errorf("preserved %s: unknown encoding %q", f.Path, f.Encoding)
}

// Fallback names a file whose compression failed and why.
type Fallback struct {
	Path   string `json:"path" xml:"path,attr"`
	Reason string `json:"reason" xml:",chardata"`
}

// Artifact is the final record of one run. Build it once and do not mutate it after rendering.
type Artifact struct {
	XMLName            xml.Name           `json:"-" xml:"artifact"`
	SchemaVersion      string             `json:"schema_version" xml:"schema_version"`
	Metadata           RepositoryMetadata `json:"repository_metadata" xml:"repository_metadata"`
	Graph              DependencyGraph    `json:"dependency_graph" xml:"dependency_graph"`
	CriticalPaths      []CriticalPath     `json:"critical_paths,omitempty" xml:"critical_paths>critical_path,omitempty"`
	Cycles             []Cycle            `json:"cycles,omitempty" xml:"cycles>cycle,omitempty"`
	Plan               AnalysisPlan       `json:"analysis_plan,omitempty" xml:"analysis_plan"`
	CompressionEntries []CompressionEntry `json:"compression_entries,omitempty" xml:"compression_entries>entry,omitempty"`
	PreservedContent   []PreservedFile    `json:"preserved_content,omitempty" xml:"preserved_content>file,omitempty"`
	VerbatimFallbacks  []Fallback         `json:"verbatim_fallbacks,omitempty" xml:"verbatim_fallbacks>fallback,omitempty"`
	RecoveryGuide      []string           `json:"recovery_guide,omitempty" xml:"recovery_guide>step,omitempty"`
	Warnings           []string           `json:"warnings,omitempty" xml:"warnings>warning,omitempty"`
}

// Validate checks the structural invariants every rendering relies on.
func (a *Artifact) Validate() error {
	if a == nil {
		return fmt.Errorf("nil artifact")
	}
	nodes := make(map[string]bool, len(a.Graph.Nodes))
	for _, n := range a.Graph.Nodes {
		if nodes[n] {
			return fmt.Errorf("duplicate node %q", n)
		}
		nodes[n] = true
	}
	for _, e := range a.Graph.Edges {
		if e.From == e.To {
			return fmt.Errorf("self edge on %q", e.From)
		}
		if !nodes[e.From] || !nodes[e.To] {
			return fmt.Errorf("edge %s -> %s references unknown node", e.From, e.To)
		}
	}
	for p, d := range a.Plan {
		if !nodes[p] {
			return fmt.Errorf("plan references unknown path %q", p)
		}
		if _, err := ParseDisposition(string(d.Disposition)); err != nil {
			return fmt.Errorf("plan %s: %w", p, err)
		}
	}
	for _, c := range a.CompressionEntries {
		if a.Plan[c.Path].Disposition != DispositionCompress {
			return fmt.Errorf("compression entry %q is not planned for compression", c.Path)
		}
	}
	for _, f := range a.PreservedContent {
		if f.Encoding != EncodingUTF8 && f.Encoding != EncodingBase64 {
			return fmt.Errorf("preserved %s: unknown encoding %q", f.Path, f.Encoding)
		}
	}
	return nil
}

// CleanText drops runes XML 1.0 cannot carry so model output survives every rendering.
func CleanText(s string) string {
	if xmlSafe(s) && utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	for _, r := range strings.ToValidUTF8(s, "\uFFFD") {
		if isXMLChar(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func xmlSafe(s string) bool {
	for _, r := range s {
		if !isXMLChar(r) {
			return false
		}
	}
	return true
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}
