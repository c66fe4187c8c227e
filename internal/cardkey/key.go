// Package cardkey validates and normalizes card key strings and derives the
// on-disk file path for a key.
package cardkey

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cardengine/cardengine/internal/cardapi"
)

// segmentRe matches a single path segment: letters, digits, dot, underscore,
// hyphen. A full key is one or more segments joined by "/".
var segmentRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

const cardExt = ".card.md"

// Normalize converts backslashes to forward slashes, strips boundary
// slashes, and validates the result against the key grammar:
//
//	[A-Za-z0-9._-]+(/[A-Za-z0-9._-]+)*
//
// Rejects empty, leading/trailing "/", ".", "..", drive letters (colon),
// and double slashes.
func Normalize(slug string) (string, error) {
	if slug == "" {
		return "", fmt.Errorf("%w: empty key", cardapi.ErrInvalidKey)
	}
	if strings.Contains(slug, ":") {
		return "", fmt.Errorf("%w: drive letters not allowed: %q", cardapi.ErrInvalidKey, slug)
	}

	s := strings.ReplaceAll(slug, "\\", "/")
	s = strings.Trim(s, "/")

	if s == "" {
		return "", fmt.Errorf("%w: empty key", cardapi.ErrInvalidKey)
	}
	if strings.Contains(s, "//") {
		return "", fmt.Errorf("%w: double slash in %q", cardapi.ErrInvalidKey, slug)
	}

	segments := strings.Split(s, "/")
	for _, seg := range segments {
		if seg == "." || seg == ".." {
			return "", fmt.Errorf("%w: %q segment not allowed in %q", cardapi.ErrInvalidKey, seg, slug)
		}
		if !segmentRe.MatchString(seg) {
			return "", fmt.Errorf("%w: invalid segment %q in %q", cardapi.ErrInvalidKey, seg, slug)
		}
	}

	return s, nil
}

// ParseFullKey validates an already-stored key (e.g. one read back from the
// store or front matter) against the same grammar as Normalize, rejecting
// empty keys.
func ParseFullKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty key", cardapi.ErrInvalidKey)
	}
	return Normalize(key)
}

// BuildPath returns the absolute-ish path for key under dir:
// dir + "/" + key + ".card.md".
func BuildPath(dir, key string) string {
	return strings.TrimSuffix(dir, "/") + "/" + key + cardExt
}
