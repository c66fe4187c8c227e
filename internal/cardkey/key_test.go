package cardkey

import (
	"errors"
	"testing"

	"github.com/cardengine/cardengine/internal/cardapi"
)

func TestNormalize_Valid(t *testing.T) {
	cases := map[string]string{
		"area/widget":     "area/widget",
		"/area/widget/":   "area/widget",
		"area\\widget":    "area/widget",
		"a.b-c_d":         "a.b-c_d",
		"one/two/three":   "one/two/three",
	}
	for in, want := range cases {
		got, err := Normalize(in)
		if err != nil {
			t.Errorf("Normalize(%q) unexpected error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize_Invalid(t *testing.T) {
	cases := []string{
		"",
		"/",
		".",
		"..",
		"area//widget",
		"area/./widget",
		"area/../widget",
		"c:/area",
		"area/wid get",
		"area/widget?",
	}
	for _, in := range cases {
		if _, err := Normalize(in); err == nil {
			t.Errorf("Normalize(%q) expected error, got nil", in)
		} else if !errors.Is(err, cardapi.ErrInvalidKey) {
			t.Errorf("Normalize(%q) error = %v, want wrapping ErrInvalidKey", in, err)
		}
	}
}

func TestParseFullKey_EmptyRejected(t *testing.T) {
	if _, err := ParseFullKey(""); !errors.Is(err, cardapi.ErrInvalidKey) {
		t.Fatalf("ParseFullKey(\"\") error = %v, want ErrInvalidKey", err)
	}
}

func TestParseFullKey_SameGrammarAsNormalize(t *testing.T) {
	got, err := ParseFullKey("area/widget")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "area/widget" {
		t.Errorf("got %q, want area/widget", got)
	}
}

func TestBuildPath(t *testing.T) {
	cases := []struct{ dir, key, want string }{
		{"/cards", "area/widget", "/cards/area/widget.card.md"},
		{"/cards/", "area/widget", "/cards/area/widget.card.md"},
		{"/cards", "root", "/cards/root.card.md"},
	}
	for _, c := range cases {
		got := BuildPath(c.dir, c.key)
		if got != c.want {
			t.Errorf("BuildPath(%q, %q) = %q, want %q", c.dir, c.key, got, c.want)
		}
	}
}
