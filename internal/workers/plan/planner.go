package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github2file/internal/artifact"
	"github2file/internal/llm"
	"github2file/internal/llmtool"
)

// PlanParseError means the planning reply could not be turned into a plan.
type PlanParseError struct {
	Reason string
	Raw    string
}

func (e *PlanParseError) Error() string {
	return "plan: cannot parse planning response: " + e.Reason
}

// Input is everything the planning prompt summarizes.
type Input struct {
	RepositoryURL string
	Files         []artifact.FileRecord
	Graph         artifact.DependencyGraph
	CriticalPaths []artifact.CriticalPath
	Cycles        []artifact.Cycle
}

// Result is a normalized plan covering every input file.
type Result struct {
	Plan     artifact.AnalysisPlan
	Warnings []string
}

// DryRun is what would have been sent to the planning model.
type DryRun struct {
	Prompt         string
	ExpectedSchema string
}

// Planner asks the planning-tier model for one AnalysisPlan per run.
type Planner struct {
	LLM    llm.Client
	Model  string
	Logger logrus.FieldLogger
}

var planPromptSpec = llmtool.ApplyPresets(llmtool.StructuredPromptSpec{
	Purpose: "Decide, for every repository file, whether to keep it verbatim, replace it with a recreation prompt, or skip it.",
	Background: "The decisions build a compressed repository artifact for readers with a limited context budget. " +
		"A compressed file is later regenerated from a short natural-language prompt, so compress only files whose content " +
		"follows from the rest of the repository: tests, documentation, examples, boilerplate and configuration. " +
		"Files on critical dependency paths or inside cycles carry the design and should usually be kept.",
	OutputFields: []llmtool.PromptField{
		{Name: "files", Type: "[]{path, disposition, hint}", Required: true, Description: "One decision per file. disposition is keep-verbatim, derive-compress or skip; hint optionally guides the recreation prompt."},
		{Name: "groups", Type: "[]{paths, disposition, hint}", Description: "One decision shared by several files. Entries in files take precedence."},
	},
	Rules: []string{
		"Use skip only for files nothing else depends on and that add no information (generated output, lockfiles).",
		"Never compress binary files.",
		"Files missing from the answer are kept verbatim.",
	},
	OutputFormat: `{"files":[{"path":"docs/usage.md","disposition":"derive-compress","hint":"CLI usage guide"}],"groups":[]}`,
}, llmtool.PresetStrictJSON(), llmtool.PresetNoInvent())

type repoSummary struct {
	RepositoryURL string     `json:"repository_url,omitempty"`
	FileCount     int        `json:"file_count"`
	TotalBytes    int64      `json:"total_bytes"`
	CriticalPaths [][]string `json:"critical_paths"`
	Cycles        [][]string `json:"cycles"`
}

// Prompt renders the planning prompt for in.
func (p *Planner) Prompt(in Input) (string, error) {
	sum := repoSummary{RepositoryURL: in.RepositoryURL, FileCount: len(in.Files), CriticalPaths: [][]string{}, Cycles: [][]string{}}
	for _, f := range in.Files {
		sum.TotalBytes += f.Size
	}
	for _, cp := range in.CriticalPaths {
		sum.CriticalPaths = append(sum.CriticalPaths, cp.Paths)
	}
	for _, c := range in.Cycles {
		sum.Cycles = append(sum.Cycles, c.Paths)
	}

	deps, users := in.Graph.Outgoing(), in.Graph.Incoming()
	var body strings.Builder
	body.WriteString("path | language | bytes | depends_on | depended_on_by\n")
	for _, f := range in.Files {
		fmt.Fprintf(&body, "%s | %s | %d | %d | %d\n", f.Path, f.Language, f.Size, len(deps[f.Path]), len(users[f.Path]))
	}

	spec := planPromptSpec
	spec.Body = body.String()
	return spec.Render(sum)
}

// DryRun builds the prompt and the expected answer shape without calling the model.
func (p *Planner) DryRun(in Input) (DryRun, error) {
	prompt, err := p.Prompt(in)
	if err != nil {
		return DryRun{}, err
	}
	schema := planPromptSpec.Schema() + "\n[EXAMPLE]\n" + ExpectedResponse() + "\n"
	return DryRun{Prompt: prompt, ExpectedSchema: schema}, nil
}

// Plan sends exactly one planning request. Backend failures are returned as
// is; undecodable replies become *PlanParseError.
func (p *Planner) Plan(ctx context.Context, in Input) (Result, error) {
	log := p.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	prompt, err := p.Prompt(in)
	if err != nil {
		return Result{}, err
	}
	raw, err := p.LLM.Complete(llm.WithPhase(ctx, "plan"), prompt, p.Model)
	if err != nil {
		return Result{}, err
	}
	res, err := Parse(raw, in)
	if err != nil {
		return Result{}, err
	}
	for _, w := range res.Warnings {
		log.WithField("stage", "plan").Warn(w)
	}
	log.WithFields(logrus.Fields{
		"stage":    "plan",
		"keep":     len(res.Plan.With(artifact.DispositionKeep)),
		"compress": len(res.Plan.With(artifact.DispositionCompress)),
		"skip":     len(res.Plan.With(artifact.DispositionSkip)),
	}).Info("plan: analysis plan ready")
	return res, nil
}

type planFile struct {
	Path        string `json:"path"`
	Disposition string `json:"disposition"`
	Hint        string `json:"hint,omitempty"`
}

type planGroup struct {
	Paths       []string `json:"paths"`
	Disposition string   `json:"disposition"`
	Hint        string   `json:"hint,omitempty"`
}

type planResponse struct {
	Files  *[]planFile  `json:"files"`
	Groups *[]planGroup `json:"groups"`
}

// Parse decodes a planning reply and normalizes it against in:
// unknown paths are ignored, missing files default to keep, binary files are
// never compressed, and a skipped file that a non-skipped file depends on is
// promoted to compress.
func Parse(raw string, in Input) (Result, error) {
	var resp planResponse
	if err := llmtool.DecodeJSON(raw, &resp); err != nil {
		return Result{}, &PlanParseError{Reason: err.Error(), Raw: clip(raw)}
	}
	if resp.Files == nil && resp.Groups == nil {
		return Result{}, &PlanParseError{Reason: `neither "files" nor "groups" present`, Raw: clip(raw)}
	}

	binary := make(map[string]bool, len(in.Files))
	plan := make(artifact.AnalysisPlan, len(in.Files))
	for _, f := range in.Files {
		plan[f.Path] = artifact.PlanDecision{Disposition: artifact.DispositionKeep}
		binary[f.Path] = f.Binary
	}

	var warnings []string
	unknown := make(map[string]bool)
	set := func(p, disp, hint string) error {
		d, err := artifact.ParseDisposition(disp)
		if err != nil {
			return &PlanParseError{Reason: fmt.Sprintf("%s: %v", p, err), Raw: clip(raw)}
		}
		p = artifact.CleanPath(p)
		if _, ok := plan[p]; !ok {
			if !unknown[p] {
				unknown[p] = true
				warnings = append(warnings, fmt.Sprintf("plan: ignoring unknown path %q", p))
			}
			return nil
		}
		if d == artifact.DispositionCompress && binary[p] {
			warnings = append(warnings, fmt.Sprintf("plan: %s is binary; keeping it verbatim", p))
			d = artifact.DispositionKeep
		}
		plan[p] = artifact.PlanDecision{Disposition: d, Hint: strings.TrimSpace(hint)}
		return nil
	}

	if resp.Groups != nil {
		for _, g := range *resp.Groups {
			for _, p := range g.Paths {
				if err := set(p, g.Disposition, g.Hint); err != nil {
					return Result{}, err
				}
			}
		}
	}
	if resp.Files != nil {
		for _, f := range *resp.Files {
			if err := set(f.Path, f.Disposition, f.Hint); err != nil {
				return Result{}, err
			}
		}
	}

	warnings = append(warnings, promoteDependencies(plan, in.Graph, binary)...)
	return Result{Plan: plan, Warnings: warnings}, nil
}

// promoteDependencies runs to a fixpoint: a file that a non-skipped file
// depends on must not be skipped.
func promoteDependencies(plan artifact.AnalysisPlan, g artifact.DependencyGraph, binary map[string]bool) []string {
	var warnings []string
	for changed := true; changed; {
		changed = false
		for _, e := range g.Edges {
			from, okFrom := plan[e.From]
			to, okTo := plan[e.To]
			if !okFrom || !okTo || from.Disposition == artifact.DispositionSkip || to.Disposition != artifact.DispositionSkip {
				continue
			}
			to.Disposition = artifact.DispositionCompress
			if binary[e.To] {
				to.Disposition = artifact.DispositionKeep
			}
			plan[e.To] = to
			warnings = append(warnings, fmt.Sprintf("plan: %s is needed by %s; promoted from skip to %s", e.To, e.From, to.Disposition))
			changed = true
		}
	}
	return warnings
}

func clip(s string) string {
	const max = 512
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// ExpectedResponse is an example of a well-formed planning reply, for docs and dry runs.
func ExpectedResponse() string {
	b, _ := json.MarshalIndent(map[string]any{
		"files": []planFile{{Path: "docs/usage.md", Disposition: "derive-compress", Hint: "CLI usage guide"}},
		"groups": []planGroup{{Paths: []string{"tests/a_test.py", "tests/b_test.py"}, Disposition: "derive-compress"}},
	}, "", "  ")
	return string(b)
}
