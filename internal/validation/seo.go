package validation

import (
	"fmt"
	"net/url"
	"unicode/utf8"
)

// SEO field limits.
const (
	MaxMetaTitle       = 70
	MaxMetaDescription = 160
	MaxKeywords        = 20
)

// SEOFields is the subset of post metadata checked before saving.
type SEOFields struct {
	MetaTitle       string
	MetaDescription string
	CanonicalURL    string
	OGImage         string
	Keywords        []string
}

// ValidateSEO checks length limits and that URLs are absolute http(s) URLs.
func ValidateSEO(f SEOFields) error {
	if utf8.RuneCountInString(f.MetaTitle) > MaxMetaTitle {
		return fmt.Errorf("meta_title must not exceed %d characters", MaxMetaTitle)
	}
	if utf8.RuneCountInString(f.MetaDescription) > MaxMetaDescription {
		return fmt.Errorf("meta_description must not exceed %d characters", MaxMetaDescription)
	}
	if len(f.Keywords) > MaxKeywords {
		return fmt.Errorf("at most %d keywords are allowed", MaxKeywords)
	}
	if err := validateURL("canonical_url", f.CanonicalURL); err != nil {
		return err
	}
	return validateURL("og_image", f.OGImage)
}

func validateURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL", field)
	}
	return nil
}
