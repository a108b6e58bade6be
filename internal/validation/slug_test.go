package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  string
	}{
		{"Hello, World!", "hello-world"},
		{"  Go 1.26 -- what's new?  ", "go-1-26-what-s-new"},
		{"Crème brûlée à la maison", "creme-brulee-a-la-maison"},
		{"日本語", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.title), tt.title)
	}

	long := Slugify(strings.Repeat("word ", 40))
	assert.LessOrEqual(t, len(long), maxSlugLen+1)
	assert.False(t, strings.HasSuffix(long, "-"))
}

func TestValidateSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		slug string
		ok   bool
	}{
		{name: "valid", slug: "weekly-digest-2", ok: true},
		{name: "minimum length", slug: "abc", ok: true},
		{name: "too short", slug: "ab", ok: false},
		{name: "too long", slug: strings.Repeat("a", maxSlugLen+1), ok: false},
		{name: "uppercase", slug: "Weekly", ok: false},
		{name: "underscore", slug: "weekly_digest", ok: false},
		{name: "double hyphen", slug: "weekly--digest", ok: false},
		{name: "leading hyphen", slug: "-weekly", ok: false},
		{name: "trailing hyphen", slug: "weekly-", ok: false},
		{name: "reserved trending", slug: "trending", ok: false},
		{name: "reserved admin", slug: "admin", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateSlug(tt.slug)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateSEO(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fields  SEOFields
		wantErr bool
	}{
		{"empty", SEOFields{}, false},
		{"full", SEOFields{
			MetaTitle:       strings.Repeat("t", MaxMetaTitle),
			MetaDescription: strings.Repeat("d", MaxMetaDescription),
			CanonicalURL:    "https://inkraft.example/p/hello",
			OGImage:         "http://cdn.example/og.png",
			Keywords:        []string{"go", "blogging"},
		}, false},
		{"title counts runes", SEOFields{MetaTitle: strings.Repeat("é", MaxMetaTitle)}, false},
		{"title too long", SEOFields{MetaTitle: strings.Repeat("t", MaxMetaTitle+1)}, true},
		{"description too long", SEOFields{MetaDescription: strings.Repeat("d", MaxMetaDescription+1)}, true},
		{"relative canonical", SEOFields{CanonicalURL: "/p/hello"}, true},
		{"ftp og image", SEOFields{OGImage: "ftp://cdn.example/og.png"}, true},
		{"too many keywords", SEOFields{Keywords: make([]string, MaxKeywords+1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateSEO(tt.fields)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
