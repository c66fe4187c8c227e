package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/cardengine/cardengine/internal/cardapi"
)

func strPtr(s string) *string { return &s }

func TestValidate_EmptyInputPasses(t *testing.T) {
	if err := Validate(Input{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_SummaryTooLong(t *testing.T) {
	long := strings.Repeat("a", MaxSummaryLen+1)
	err := Validate(Input{Summary: strPtr(long)})
	assertFieldErr(t, err, "summary")
}

func TestValidate_BodyTooLong(t *testing.T) {
	long := strings.Repeat("a", MaxBodyLen+1)
	err := Validate(Input{Body: strPtr(long)})
	assertFieldErr(t, err, "body")
}

func TestValidate_SummaryAtCeilingPasses(t *testing.T) {
	ok := strings.Repeat("a", MaxSummaryLen)
	if err := Validate(Input{Summary: strPtr(ok)}); err != nil {
		t.Fatalf("summary at ceiling should pass: %v", err)
	}
}

func TestValidate_TooManyKeywords(t *testing.T) {
	keywords := make([]string, MaxListItems+1)
	for i := range keywords {
		keywords[i] = "k"
	}
	err := Validate(Input{Keywords: keywords})
	assertFieldErr(t, err, "keywords")
}

func TestValidate_KeywordTooLong(t *testing.T) {
	err := Validate(Input{Keywords: []string{strings.Repeat("k", MaxKeywordTagLen+1)}})
	assertFieldErr(t, err, "keywords[]")
}

func TestValidate_TagTooLong(t *testing.T) {
	err := Validate(Input{Tags: []string{strings.Repeat("t", MaxKeywordTagLen+1)}})
	assertFieldErr(t, err, "tags[]")
}

func TestValidate_RelationTargetTooLong(t *testing.T) {
	err := Validate(Input{Relations: []RelationInput{{Type: "depends_on", Target: strings.Repeat("x", MaxRelationTargetLen+1)}}})
	assertFieldErr(t, err, "relations[].target")
}

func TestValidate_CodeLinkSymbolTooLong(t *testing.T) {
	err := Validate(Input{CodeLinks: []CodeLinkInput{{Symbol: strings.Repeat("s", MaxCodeLinkSymbolLen+1), File: "f.go"}}})
	assertFieldErr(t, err, "codeLinks[].symbol")
}

func TestValidate_CodeLinkFileTooLong(t *testing.T) {
	err := Validate(Input{CodeLinks: []CodeLinkInput{{Symbol: "S", File: strings.Repeat("f", MaxCodeLinkFileLen+1)}}})
	assertFieldErr(t, err, "codeLinks[].file")
}

func TestValidate_FirstViolationWins(t *testing.T) {
	// Both summary and body are over the ceiling: summary is checked first
	// in field order, so it should be the reported violation.
	err := Validate(Input{
		Summary: strPtr(strings.Repeat("a", MaxSummaryLen+1)),
		Body:    strPtr(strings.Repeat("b", MaxBodyLen+1)),
	})
	assertFieldErr(t, err, "summary")
}

func assertFieldErr(t *testing.T, err error, field string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected validation error for field %q, got nil", field)
	}
	if !errors.Is(err, cardapi.ErrCardValidation) {
		t.Fatalf("error does not wrap ErrCardValidation: %v", err)
	}
	var ve *cardapi.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error is not *cardapi.ValidationError: %v", err)
	}
	if ve.Field != field {
		t.Errorf("violated field = %q, want %q", ve.Field, field)
	}
}
