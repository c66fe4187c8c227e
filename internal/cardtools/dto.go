package cardtools

import (
	"encoding/json"

	"github.com/cardengine/cardengine/internal/cardops"
	"github.com/cardengine/cardengine/internal/models"
)

// relationDTO/codeLinkDTO/cardDTO mirror cardops' input/output shapes with
// JSON tags, since tool parameters and results cross the wire as text.

type relationDTO struct {
	Type   string `json:"type"`
	Target string `json:"target"`
}

type codeLinkDTO struct {
	Kind   string `json:"kind"`
	File   string `json:"file"`
	Symbol string `json:"symbol"`
}

func (r relationDTO) toInput() cardops.RelationInput {
	return cardops.RelationInput{Type: r.Type, Target: r.Target}
}

func (l codeLinkDTO) toInput() cardops.CodeLinkInput {
	return cardops.CodeLinkInput{Kind: l.Kind, File: l.File, Symbol: l.Symbol}
}

func relationDTOsToInputs(rs []relationDTO) []cardops.RelationInput {
	out := make([]cardops.RelationInput, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.toInput())
	}
	return out
}

func codeLinkDTOsToInputs(ls []codeLinkDTO) []cardops.CodeLinkInput {
	out := make([]cardops.CodeLinkInput, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.toInput())
	}
	return out
}

func relationInputsToDTOs(rs []cardops.RelationInput) []relationDTO {
	out := make([]relationDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, relationDTO{Type: r.Type, Target: r.Target})
	}
	return out
}

func codeLinkInputsToDTOs(ls []cardops.CodeLinkInput) []codeLinkDTO {
	out := make([]codeLinkDTO, 0, len(ls))
	for _, l := range ls {
		out = append(out, codeLinkDTO{Kind: l.Kind, File: l.File, Symbol: l.Symbol})
	}
	return out
}

// cardDTO is the wire representation of a cardops.Card.
type cardDTO struct {
	Key         string        `json:"key"`
	Summary     string        `json:"summary"`
	Status      models.Status `json:"status"`
	Body        string        `json:"body"`
	Constraints any           `json:"constraints,omitempty"`
	FilePath    string        `json:"filePath"`
	Keywords    []string      `json:"keywords,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	Relations   []relationDTO `json:"relations,omitempty"`
	CodeLinks   []codeLinkDTO `json:"codeLinks,omitempty"`
}

func cardToDTO(c cardops.Card) cardDTO {
	d := cardDTO{
		Key:       c.Key,
		Summary:   c.Summary,
		Status:    c.Status,
		Body:      c.Body,
		FilePath:  c.FilePath,
		Keywords:  c.Keywords,
		Tags:      c.Tags,
		Relations: relationInputsToDTOs(c.Relations),
		CodeLinks: codeLinkInputsToDTOs(c.CodeLinks),
	}
	if len(c.Constraints) > 0 {
		var v any
		if err := json.Unmarshal(c.Constraints, &v); err == nil {
			d.Constraints = v
		}
	}
	return d
}

// createPayload is the JSON body of the create_card tool's "card" param.
type createPayload struct {
	Slug        string        `json:"slug"`
	Summary     string        `json:"summary"`
	Status      string        `json:"status"`
	Body        string        `json:"body"`
	Keywords    []string      `json:"keywords"`
	Tags        []string      `json:"tags"`
	Relations   []relationDTO `json:"relations"`
	CodeLinks   []codeLinkDTO `json:"codeLinks"`
	Constraints any           `json:"constraints"`
}

// updatePayload is the JSON body of the update_card tool's "fields" param.
// Pointer/nil-slice fields distinguish "absent" from "explicitly empty" the
// same way cardops.UpdateFields does; presence is tracked via the Set list.
type updatePayload struct {
	Summary     *string       `json:"summary"`
	Body        *string       `json:"body"`
	Keywords    []string      `json:"keywords"`
	Tags        []string      `json:"tags"`
	Relations   []relationDTO `json:"relations"`
	CodeLinks   []codeLinkDTO `json:"codeLinks"`
	Constraints any           `json:"constraints"`

	Set []string `json:"set"` // names of fields explicitly provided: keywords, tags, relations, codeLinks, constraints
}

func (p updatePayload) hasSet(name string) bool {
	for _, s := range p.Set {
		if s == name {
			return true
		}
	}
	return false
}

func (p updatePayload) toUpdateFields() (cardops.UpdateFields, error) {
	var fields cardops.UpdateFields
	fields.Summary = p.Summary
	fields.Body = p.Body

	if p.hasSet("keywords") {
		fields.SetKeywords(nonNil(p.Keywords))
	}
	if p.hasSet("tags") {
		fields.SetTags(nonNil(p.Tags))
	}
	if p.hasSet("relations") {
		fields.SetRelations(relationDTOsToInputs(p.Relations))
	}
	if p.hasSet("codeLinks") {
		fields.SetCodeLinks(codeLinkDTOsToInputs(p.CodeLinks))
	}
	if p.hasSet("constraints") {
		if p.Constraints == nil {
			fields.SetConstraints(nil)
		} else {
			b, err := json.Marshal(p.Constraints)
			if err != nil {
				return fields, err
			}
			fields.SetConstraints(b)
		}
	}
	return fields, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
