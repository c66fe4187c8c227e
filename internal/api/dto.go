package api

import (
	"encoding/json"
	"time"

	"github.com/cardengine/cardengine/internal/cardops"
	"github.com/cardengine/cardengine/internal/models"
)

// relationDTO/codeLinkDTO mirror cardops' input shapes with JSON tags for
// the wire.
type relationDTO struct {
	Type   string `json:"type" validate:"required"`
	Target string `json:"target" validate:"required"`
}

type codeLinkDTO struct {
	Kind   string `json:"kind" validate:"required"`
	File   string `json:"file" validate:"required"`
	Symbol string `json:"symbol" validate:"required"`
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

// CardDetail is the full response payload for a single card.
type CardDetail struct {
	Key         string        `json:"key" validate:"required"`
	Summary     string        `json:"summary" validate:"required"`
	Status      models.Status `json:"status" validate:"required"`
	Body        string        `json:"body"`
	Constraints any           `json:"constraints,omitempty"`
	FilePath    string        `json:"filePath" validate:"required"`
	Keywords    []string      `json:"keywords,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	Relations   []relationDTO `json:"relations,omitempty"`
	CodeLinks   []codeLinkDTO `json:"codeLinks,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func cardToDTO(c cardops.Card) CardDetail {
	d := CardDetail{
		Key:       c.Key,
		Summary:   c.Summary,
		Status:    c.Status,
		Body:      c.Body,
		FilePath:  c.FilePath,
		Keywords:  c.Keywords,
		Tags:      c.Tags,
		Relations: relationInputsToDTOs(c.Relations),
		CodeLinks: codeLinkInputsToDTOs(c.CodeLinks),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if len(c.Constraints) > 0 {
		var v any
		if err := json.Unmarshal(c.Constraints, &v); err == nil {
			d.Constraints = v
		}
	}
	return d
}

// CardListItem is a lightweight item in a list/search response.
type CardListItem struct {
	Key       string        `json:"key" validate:"required"`
	Summary   string        `json:"summary" validate:"required"`
	Status    models.Status `json:"status" validate:"required"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func listItemToDTO(it cardops.CardListItem) CardListItem {
	return CardListItem{Key: it.Key, Summary: it.Summary, Status: it.Status, UpdatedAt: it.UpdatedAt}
}

// CardListResponse wraps paginated card listings.
type CardListResponse struct {
	Cards []CardListItem `json:"cards" validate:"required"`
	Total int            `json:"total"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []CardListItem `json:"results" validate:"required"`
}

// GraphNodeDTO is one visited card in a GET /graph/* response.
type GraphNodeDTO struct {
	Key          string           `json:"key" validate:"required"`
	Depth        int              `json:"depth"`
	RelationType string           `json:"relationType"`
	Direction    models.Direction `json:"direction"`
}

// GraphResponse wraps a relation-graph traversal.
type GraphResponse struct {
	Nodes []GraphNodeDTO `json:"nodes" validate:"required"`
}

func graphNodesToDTO(nodes []cardops.GraphNode) []GraphNodeDTO {
	out := make([]GraphNodeDTO, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, GraphNodeDTO{Key: n.Key, Depth: n.Depth, RelationType: n.RelationType, Direction: n.Direction})
	}
	return out
}

// ValidateResponse mirrors cardops.ValidateReport for the wire.
type ValidateResponse struct {
	StaleDBRows   []string              `json:"staleDbRows"`
	OrphanFiles   []string              `json:"orphanFiles"`
	KeyMismatches []cardops.KeyMismatch `json:"keyMismatches"`
}

func validateReportToDTO(r cardops.ValidateReport) ValidateResponse {
	return ValidateResponse{
		StaleDBRows:   r.StaleDBRows,
		OrphanFiles:   r.OrphanFiles,
		KeyMismatches: r.KeyMismatches,
	}
}

// CreateCardRequest is the request body for POST /api/cards.
type CreateCardRequest struct {
	Slug        string        `json:"slug" example:"area/my-design" validate:"required"`
	Summary     string        `json:"summary" example:"One-line description" validate:"required"`
	Status      string        `json:"status" example:"draft"`
	Body        string        `json:"body"`
	Keywords    []string      `json:"keywords"`
	Tags        []string      `json:"tags"`
	Relations   []relationDTO `json:"relations"`
	CodeLinks   []codeLinkDTO `json:"codeLinks"`
	Constraints any           `json:"constraints"`
}

// UpdateCardRequest is the request body for PUT /api/cards/*. A field
// absent from the raw JSON object leaves its prior value untouched. For
// keywords, tags, relations, codeLinks and constraints, a field present
// with a null/empty value deletes it; summary and body change only when
// given a non-null value. Presence is tracked via rawFields, populated by
// UnmarshalJSON.
type UpdateCardRequest struct {
	Summary     *string       `json:"summary"`
	Body        *string       `json:"body"`
	Keywords    []string      `json:"keywords"`
	Tags        []string      `json:"tags"`
	Relations   []relationDTO `json:"relations"`
	CodeLinks   []codeLinkDTO `json:"codeLinks"`
	Constraints any           `json:"constraints"`

	rawFields map[string]json.RawMessage
}

// UnmarshalJSON records which top-level keys were present in the payload,
// so toUpdateFields can distinguish "omitted" from "explicitly null/empty".
func (u *UpdateCardRequest) UnmarshalJSON(data []byte) error {
	type alias UpdateCardRequest
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*u = UpdateCardRequest(a)
	return json.Unmarshal(data, &u.rawFields)
}

func (u UpdateCardRequest) has(key string) bool {
	_, ok := u.rawFields[key]
	return ok
}

func (u UpdateCardRequest) toUpdateFields() (cardops.UpdateFields, error) {
	var fields cardops.UpdateFields
	fields.Summary = u.Summary
	fields.Body = u.Body

	if u.has("keywords") {
		fields.SetKeywords(nonNilStrings(u.Keywords))
	}
	if u.has("tags") {
		fields.SetTags(nonNilStrings(u.Tags))
	}
	if u.has("relations") {
		fields.SetRelations(relationDTOsToInputs(u.Relations))
	}
	if u.has("codeLinks") {
		fields.SetCodeLinks(codeLinkDTOsToInputs(u.CodeLinks))
	}
	if u.has("constraints") {
		if u.Constraints == nil {
			fields.SetConstraints(nil)
		} else {
			b, err := json.Marshal(u.Constraints)
			if err != nil {
				return fields, err
			}
			fields.SetConstraints(b)
		}
	}
	return fields, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// UpdateStatusRequest is the request body for PUT /api/cards/*/status.
type UpdateStatusRequest struct {
	Status string `json:"status" example:"accepted" validate:"required"`
}

// RenameCardRequest is the request body for POST /api/cards/*/rename.
type RenameCardRequest struct {
	NewSlug string `json:"newSlug" example:"area/renamed-design" validate:"required"`
}
