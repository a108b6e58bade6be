package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 80

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Names that collide with API path segments.
var reservedSlugs = map[string]struct{}{
	"admin":     {},
	"api":       {},
	"auth":      {},
	"me":        {},
	"new":       {},
	"trending":  {},
	"feed":      {},
	"library":   {},
	"swagger":   {},
	"metrics":   {},
	"health":    {},
	"login":     {},
	"signup":    {},
	"analytics": {},
}

// Slugify turns a title into a lowercase, hyphen-separated slug. Accents are
// folded to their base letter and other symbols dropped. The result may be
// empty when the title has no letters or digits.
func Slugify(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range norm.NFKD.String(title) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingDash = true
		}
		if b.Len() >= maxSlugLen {
			break
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// ValidateSlug checks a client-supplied slug.
func ValidateSlug(slug string) error {
	if len(slug) < 3 || len(slug) > maxSlugLen {
		return fmt.Errorf("slug must be 3-%d characters", maxSlugLen)
	}
	if !slugRegex.MatchString(slug) {
		return fmt.Errorf("slug may only contain lowercase letters, numbers, and single hyphens between them")
	}
	if _, exists := reservedSlugs[slug]; exists {
		return fmt.Errorf("slug is reserved")
	}
	return nil
}
