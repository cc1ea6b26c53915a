// Package llmtool renders sectioned prompts and pulls JSON back out of model
// replies.
package llmtool

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PromptField is one field of the answer the model is asked for.
type PromptField struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

type PromptExample struct {
	InputJSON  string
	OutputJSON string
}

// StructuredPromptSpec is a prompt split into bracketed sections. Empty
// sections are left out.
type StructuredPromptSpec struct {
	Purpose    string
	Background string
	// Body is free text placed after INPUT, for material that reads better
	// unquoted (file inventories, source listings).
	Body         string
	OutputFields []PromptField
	Constraints  []string
	Rules        []string
	Assumptions  []string
	OutputFormat string
	Examples     []PromptExample
}

type section struct{ title, body string }

// Render builds the prompt text. input is rendered as indented JSON and may be nil.
func (spec StructuredPromptSpec) Render(input any) (string, error) {
	if strings.TrimSpace(spec.Purpose) == "" {
		return "", fmt.Errorf("llmtool: purpose is empty")
	}
	in := ""
	if input != nil {
		b, err := json.MarshalIndent(input, "", "  ")
		if err != nil {
			return "", fmt.Errorf("llmtool: encode input: %w", err)
		}
		in = string(b)
	}
	return joinSections(
		section{"PURPOSE", spec.Purpose},
		section{"BACKGROUND", spec.Background},
		section{"INPUT", in},
		section{"CONTENT", spec.Body},
		section{"OUTPUT", bulletFields(spec.OutputFields)},
		section{"CONSTRAINTS", bullets(spec.Constraints)},
		section{"RULES", bullets(spec.Rules)},
		section{"ASSUMPTIONS", bullets(spec.Assumptions)},
		section{"OUTPUT_FORMAT", spec.OutputFormat},
		section{"EXAMPLES", examples(spec.Examples)},
	), nil
}

// Schema renders only the expected output structure, for dry runs.
func (spec StructuredPromptSpec) Schema() string {
	return joinSections(
		section{"OUTPUT", bulletFields(spec.OutputFields)},
		section{"OUTPUT_FORMAT", spec.OutputFormat},
	)
}

// joinSections writes "[TITLE]\nbody\n" blocks separated by blank lines and
// ends the text with exactly one newline.
func joinSections(sections ...section) string {
	var parts []string
	for _, s := range sections {
		body := strings.TrimRight(s.body, "\n")
		if strings.TrimSpace(body) == "" {
			continue
		}
		parts = append(parts, "["+s.title+"]\n"+body)
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n")) + "\n"
}

func bulletFields(fields []PromptField) string {
	var lines []string
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			continue
		}
		req := "optional"
		if f.Required {
			req = "required"
		}
		line := fmt.Sprintf("- %s (%s, %s)", name, f.Type, req)
		if f.Description != "" {
			line += ": " + f.Description
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func bullets(items []string) string {
	var lines []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			lines = append(lines, "- "+item)
		}
	}
	return strings.Join(lines, "\n")
}

func examples(exs []PromptExample) string {
	var blocks []string
	for i, ex := range exs {
		b := fmt.Sprintf("Example %d:", i+1)
		if s := strings.TrimSpace(ex.InputJSON); s != "" {
			b += "\nINPUT:\n" + s
		}
		if s := strings.TrimSpace(ex.OutputJSON); s != "" {
			b += "\nOUTPUT:\n" + s
		}
		blocks = append(blocks, b)
	}
	return strings.Join(blocks, "\n\n")
}
