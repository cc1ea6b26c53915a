package artifact

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
)

type Disposition string

const (
	DispositionKeep     Disposition = "keep"
	DispositionCompress Disposition = "compress"
	DispositionSkip     Disposition = "skip"
)

// ParseDisposition accepts the canonical names and the long forms used in prompts.
func ParseDisposition(s string) (Disposition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keep", "keep-verbatim", "keep_verbatim", "verbatim":
		return DispositionKeep, nil
	case "compress", "derive-compress", "derive_compress", "derive":
		return DispositionCompress, nil
	case "skip", "omit", "drop":
		return DispositionSkip, nil
	}
	return "", fmt.Errorf("unknown disposition %q", s)
}

type PlanDecision struct {
	Disposition Disposition `json:"disposition"`
	Hint        string      `json:"hint,omitempty"`
}

// AnalysisPlan maps a file path to its decision.
type AnalysisPlan map[string]PlanDecision

// Paths returns the planned paths in lexical order.
func (p AnalysisPlan) Paths() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// With returns the paths carrying disposition d, in lexical order.
func (p AnalysisPlan) With(d Disposition) []string {
	var out []string
	for _, k := range p.Paths() {
		if p[k].Disposition == d {
			out = append(out, k)
		}
	}
	return out
}

type planEntryXML struct {
	Path        string      `xml:"path,attr"`
	Disposition Disposition `xml:"disposition,attr"`
	Hint        string      `xml:"hint,omitempty"`
}

// MarshalXML writes one <file> element per path, sorted, so output is stable.
func (p AnalysisPlan) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if len(p) == 0 {
		return nil
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, k := range p.Paths() {
		d := p[k]
		entry := planEntryXML{Path: k, Disposition: d.Disposition, Hint: d.Hint}
		if err := e.EncodeElement(entry, xml.StartElement{Name: xml.Name{Local: "file"}}); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func (p *AnalysisPlan) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "file" {
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}
			var entry planEntryXML
			if err := d.DecodeElement(&entry, &t); err != nil {
				return err
			}
			if *p == nil {
				*p = make(AnalysisPlan)
			}
			(*p)[entry.Path] = PlanDecision{Disposition: entry.Disposition, Hint: entry.Hint}
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}
