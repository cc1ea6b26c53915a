package artifact

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"sigs.k8s.io/yaml"
)

type Format string

const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xml":
		return FormatXML, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported format %q (want xml, json or yaml)", s)
}

// Ext returns the file extension used for rendered artifacts.
func (f Format) Ext() string {
	if f == "" {
		return string(FormatXML)
	}
	return string(f)
}

// SerializationError means an artifact could not be rendered or decoded. When it
// comes out of Render it points to a broken invariant, not bad input.
type SerializationError struct {
	Format Format
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize artifact as %s: %v", e.Format, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Render validates a and encodes it in the given format.
func Render(a *Artifact, f Format) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, &SerializationError{Format: f, Err: err}
	}
	var (
		out []byte
		err error
	)
	switch f {
	case FormatJSON:
		out, err = json.MarshalIndent(a, "", "  ")
		if err == nil {
			out = append(out, '\n')
		}
	case FormatXML:
		var buf bytes.Buffer
		buf.WriteString(xml.Header)
		enc := xml.NewEncoder(&buf)
		enc.Indent("", "  ")
		if err = enc.Encode(a); err == nil {
			err = enc.Close()
		}
		buf.WriteByte('\n')
		out = buf.Bytes()
	case FormatYAML:
		out, err = yaml.Marshal(a)
	default:
		err = fmt.Errorf("unknown format")
	}
	if err != nil {
		return nil, &SerializationError{Format: f, Err: err}
	}
	return out, nil
}

// Decode parses data previously produced by Render.
func Decode(data []byte, f Format) (*Artifact, error) {
	var a Artifact
	var err error
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, &a)
	case FormatXML:
		err = xml.Unmarshal(data, &a)
	case FormatYAML:
		err = yaml.Unmarshal(data, &a)
	default:
		err = fmt.Errorf("unknown format")
	}
	if err != nil {
		return nil, &SerializationError{Format: f, Err: err}
	}
	a.XMLName = xml.Name{}
	return &a, nil
}
