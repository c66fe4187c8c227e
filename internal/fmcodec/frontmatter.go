// Package fmcodec parses and serializes card files: a YAML front-matter
// block delimited by "---" lines, followed by a Markdown body.
package fmcodec

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cardengine/cardengine/internal/cardapi"
	"github.com/cardengine/cardengine/internal/models"
)

const delim = "---"

// RelationField is the front-matter shape of a relation: only the forward
// edge is ever written to a file (reverse mirrors are index-only).
type RelationField struct {
	Type   string `yaml:"type"`
	Target string `yaml:"target"`
}

// CodeLinkField is the front-matter shape of a code link.
type CodeLinkField struct {
	Kind   string `yaml:"kind"`
	File   string `yaml:"file"`
	Symbol string `yaml:"symbol"`
}

// Document is the decoded/encodable shape of a card file: front matter plus
// body. It intentionally omits reverse relations — those never round-trip
// through a file.
type Document struct {
	Key         string          `yaml:"key"`
	Summary     string          `yaml:"summary"`
	Status      models.Status   `yaml:"status"`
	Tags        []string        `yaml:"tags,omitempty"`
	Keywords    []string        `yaml:"keywords,omitempty"`
	Relations   []RelationField `yaml:"relations,omitempty"`
	CodeLinks   []CodeLinkField `yaml:"codeLinks,omitempty"`
	Constraints any             `yaml:"constraints,omitempty"`
	Body        string          `yaml:"-"`
}

// yamlDoc is the wire shape used for marshal/unmarshal; kept distinct from
// Document so field order in the emitted YAML is stable regardless of
// struct tag evaluation order across yaml.v3 versions.
type yamlDoc struct {
	Key         string          `yaml:"key"`
	Summary     string          `yaml:"summary"`
	Status      models.Status   `yaml:"status"`
	Tags        []string        `yaml:"tags,omitempty"`
	Keywords    []string        `yaml:"keywords,omitempty"`
	Relations   []RelationField `yaml:"relations,omitempty"`
	CodeLinks   []CodeLinkField `yaml:"codeLinks,omitempty"`
	Constraints any             `yaml:"constraints,omitempty"`
}

// Parse splits raw card-file bytes into a Document. Missing delimiters,
// duplicate "key" fields, invalid YAML, or a status outside the enum are
// all reported as CardValidationError.
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, fmt.Errorf("%w: missing opening front-matter delimiter", cardapi.ErrCardValidation)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, fmt.Errorf("%w: missing closing front-matter delimiter", cardapi.ErrCardValidation)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	if err := rejectDuplicateKey(yamlBlock); err != nil {
		return nil, err
	}

	var doc yamlDoc
	if err := yaml.Unmarshal(yamlBlock, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid yaml front matter: %v", cardapi.ErrCardValidation, err)
	}

	if doc.Key == "" {
		return nil, fmt.Errorf("%w: missing required field \"key\"", cardapi.ErrCardValidation)
	}
	if doc.Summary == "" {
		return nil, fmt.Errorf("%w: missing required field \"summary\"", cardapi.ErrCardValidation)
	}
	if !doc.Status.IsValid() {
		return nil, fmt.Errorf("%w: status %q is not a recognized status", cardapi.ErrCardValidation, doc.Status)
	}

	return &Document{
		Key:         doc.Key,
		Summary:     doc.Summary,
		Status:      doc.Status,
		Tags:        doc.Tags,
		Keywords:    doc.Keywords,
		Relations:   doc.Relations,
		CodeLinks:   doc.CodeLinks,
		Constraints: doc.Constraints,
		Body:        body,
	}, nil
}

// rejectDuplicateKey does a cheap pre-pass over the raw YAML block looking
// for a repeated top-level "key:" mapping entry, which yaml.Unmarshal would
// otherwise silently resolve to the last occurrence.
func rejectDuplicateKey(yamlBlock []byte) error {
	var raw yaml.Node
	if err := yaml.Unmarshal(yamlBlock, &raw); err != nil {
		return fmt.Errorf("%w: invalid yaml front matter: %v", cardapi.ErrCardValidation, err)
	}
	if len(raw.Content) == 0 {
		return nil
	}
	mapping := raw.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil
	}
	seen := make(map[string]struct{})
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		name := mapping.Content[i].Value
		if name != "key" {
			continue
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate \"key\" field in front matter", cardapi.ErrCardValidation)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Serialize emits a card file from Document, omitting absent optional
// fields. serialize(parse(data)) == data modulo insignificant whitespace.
func Serialize(doc *Document) ([]byte, error) {
	wire := yamlDoc{
		Key:         doc.Key,
		Summary:     doc.Summary,
		Status:      doc.Status,
		Tags:        nonEmpty(doc.Tags),
		Keywords:    nonEmpty(doc.Keywords),
		Relations:   doc.Relations,
		CodeLinks:   doc.CodeLinks,
		Constraints: doc.Constraints,
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(wire); err != nil {
		return nil, fmt.Errorf("fmcodec: encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("fmcodec: close encoder: %w", err)
	}

	var out bytes.Buffer
	out.WriteString(delim)
	out.WriteString("\n")
	out.Write(buf.Bytes())
	out.WriteString(delim)
	out.WriteString("\n")
	if doc.Body != "" {
		out.WriteString("\n")
		out.WriteString(doc.Body)
		if !strings.HasSuffix(doc.Body, "\n") {
			out.WriteString("\n")
		}
	}
	return out.Bytes(), nil
}

func nonEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
