// Package validate enforces the card engine's per-field size ceilings,
// evaluated in field order so the first violation is the one surfaced.
package validate

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/cardengine/cardengine/internal/cardapi"
)

// Size ceilings per spec.md §4.3.
const (
	MaxSummaryLen       = 500
	MaxBodyLen          = 100_000
	MaxListItems        = 100
	MaxKeywordTagLen    = 100
	MaxRelationTargetLen = 200
	MaxCodeLinkSymbolLen = 200
	MaxCodeLinkFileLen   = 500
)

// RelationInput mirrors fmcodec.RelationField for validation purposes,
// avoiding an import of fmcodec from this leaf package.
type RelationInput struct {
	Type   string
	Target string
}

// CodeLinkInput mirrors fmcodec.CodeLinkField for validation purposes.
type CodeLinkInput struct {
	Kind   string
	File   string
	Symbol string
}

// Input bundles the fields subject to size validation. Any field left nil
// is skipped (callers pass only the fields they are setting).
type Input struct {
	Summary     *string
	Body        *string
	Keywords    []string
	Tags        []string
	Relations   []RelationInput
	CodeLinks   []CodeLinkInput
}

// Validate runs every ceiling check in field order and returns the first
// violation as a *cardapi.ValidationError wrapping cardapi.ErrCardValidation.
func Validate(in Input) error {
	if in.Summary != nil {
		if err := validation.Validate(*in.Summary, validation.RuneLength(0, MaxSummaryLen)); err != nil {
			return fieldErr("summary", err)
		}
	}
	if in.Body != nil {
		if err := validation.Validate(*in.Body, validation.RuneLength(0, MaxBodyLen)); err != nil {
			return fieldErr("body", err)
		}
	}
	if err := validation.Validate(in.Keywords, validation.Length(0, MaxListItems)); err != nil {
		return fieldErr("keywords", err)
	}
	for _, k := range in.Keywords {
		if err := validation.Validate(k, validation.RuneLength(0, MaxKeywordTagLen)); err != nil {
			return fieldErr("keywords[]", err)
		}
	}
	if err := validation.Validate(in.Tags, validation.Length(0, MaxListItems)); err != nil {
		return fieldErr("tags", err)
	}
	for _, t := range in.Tags {
		if err := validation.Validate(t, validation.RuneLength(0, MaxKeywordTagLen)); err != nil {
			return fieldErr("tags[]", err)
		}
	}
	if err := validation.Validate(in.Relations, validation.Length(0, MaxListItems)); err != nil {
		return fieldErr("relations", err)
	}
	for _, r := range in.Relations {
		if err := validation.Validate(r.Target, validation.RuneLength(0, MaxRelationTargetLen)); err != nil {
			return fieldErr("relations[].target", err)
		}
	}
	if err := validation.Validate(in.CodeLinks, validation.Length(0, MaxListItems)); err != nil {
		return fieldErr("codeLinks", err)
	}
	for _, c := range in.CodeLinks {
		if err := validation.Validate(c.Symbol, validation.RuneLength(0, MaxCodeLinkSymbolLen)); err != nil {
			return fieldErr("codeLinks[].symbol", err)
		}
		if err := validation.Validate(c.File, validation.RuneLength(0, MaxCodeLinkFileLen)); err != nil {
			return fieldErr("codeLinks[].file", err)
		}
	}
	return nil
}

func fieldErr(field string, err error) error {
	return &cardapi.ValidationError{Field: field, Reason: err.Error()}
}
