package entities

import (
	"regexp"
	"strings"

	"github.com/navayuwa/nes-core/internal/domain/identifiers"
)

var (
	reSlugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
	reSlugHyphens = regexp.MustCompile(`-+`)
)

// TextToSlug converts free text (an English name, typically) into a
// well-formed slug: lowercase, alphanumeric runs joined by single
// hyphens, truncated to the maximum slug length.
func TextToSlug(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = reSlugInvalid.ReplaceAllString(s, "-")
	s = reSlugHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > identifiers.MaxSlugLength {
		s = strings.Trim(s[:identifiers.MaxSlugLength], "-")
	}
	return s
}
